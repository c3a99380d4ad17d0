// Package usecase holds the dashboard's refresh engine: the per-panel
// in-flight guard, the polling scheduler, the tab state machine and the chat
// controller, tied together by Dashboard.
package usecase

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"FinDash/internal/domain/models"
	"FinDash/internal/domain/repository"
	"FinDash/internal/view"
	applogger "FinDash/pkg/logger"
)

// Options configures a Dashboard.
type Options struct {
	DefaultTab     string
	AlertsLimit    int
	FeedLimit      int
	FeedCategory   string
	HoursBack      int
	HealthInterval time.Duration
	MarketInterval time.Duration
	Tabs           []Tab
}

// HeaderPanels load at startup and sit outside the tabs.
var HeaderPanels = []string{models.PanelHealth, models.PanelStats}

// Dashboard is the page-lifetime state: panel guards, the active tab and the
// chat transcript. Requests run under a context that ends on Close or when
// the context given to Start is done.
type Dashboard struct {
	opts      Options
	fetchers  *panelFetchers
	refresher *Refresher
	scheduler *Scheduler
	tabs      *TabController
	chat      *ChatController
	surface   repository.Surface
	renderer  *view.Renderer
	logger    *applogger.Logger

	ctx       context.Context
	cancel    context.CancelFunc
	startOnce sync.Once
	wg        sync.WaitGroup
}

// DashboardState is a JSON snapshot of Dashboard.
type DashboardState struct {
	ActiveTab    string          `json:"active_tab"`
	LoadedTabs   []string        `json:"loaded_tabs"`
	FeedCategory string          `json:"feed_category"`
	Panels       []PanelSnapshot `json:"panels"`
	Chat         ChatState       `json:"chat"`
}

// ChatState summarizes the transcript.
type ChatState struct {
	SessionID string `json:"session_id"`
	Sending   bool   `json:"sending"`
	Turns     int    `json:"turns"`
}

// NewDashboard wires the refresh engine. It does no I/O until Start.
func NewDashboard(backend repository.Backend, surface repository.Surface, renderer *view.Renderer,
	metrics repository.Metrics, events repository.EventPublisher, logger *applogger.Logger, opts Options) (*Dashboard, error) {
	if len(opts.Tabs) == 0 {
		opts.Tabs = DefaultTabs
	}
	if opts.FeedCategory == "" {
		opts.FeedCategory = "all"
	}
	if !models.IsFeedCategory(opts.FeedCategory) {
		return nil, ErrInvalidCategory
	}

	f := &panelFetchers{
		backend:     backend,
		renderer:    renderer,
		alertsLimit: opts.AlertsLimit,
		feedLimit:   opts.FeedLimit,
		category:    opts.FeedCategory,
	}
	r := NewRefresher(f.all(), surface, renderer, metrics, events, logger)
	tabs := NewTabController(opts.Tabs, surface, r)
	if opts.DefaultTab == "" {
		opts.DefaultTab = opts.Tabs[0].Name
	}
	if _, ok := tabs.find(opts.DefaultTab); !ok {
		return nil, ErrUnknownTab
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Dashboard{
		opts:      opts,
		fetchers:  f,
		refresher: r,
		scheduler: NewScheduler(r, map[string]time.Duration{
			models.PanelHealth: opts.HealthInterval,
			models.PanelMarket: opts.MarketInterval,
		}, logger),
		tabs:     tabs,
		chat:     NewChatController(backend, surface, renderer, metrics, events, logger, opts.HoursBack),
		surface:  surface,
		renderer: renderer,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
	}, nil
}

// Start shows the default tab, loads the header panels and the default tab's
// panels concurrently, and starts polling. It runs once; later calls are
// no-ops. It does not wait for the initial load.
func (d *Dashboard) Start(ctx context.Context) {
	d.startOnce.Do(func() {
		context.AfterFunc(ctx, d.cancel)

		for name := range d.fetchers.all() {
			d.surface.Replace(name, d.renderer.Loading())
		}
		d.chat.Render()

		panels, err := d.tabs.Open(d.opts.DefaultTab)
		if err != nil {
			d.logger.Error("default tab unavailable", applogger.String("tab", d.opts.DefaultTab), applogger.Error(err))
		}
		initial := append(append([]string{}, HeaderPanels...), panels...)

		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			start := time.Now()
			d.initialLoad(initial)
			d.logger.Info("initial load finished",
				applogger.Strings("panels", initial),
				applogger.Duration("duration_ms", time.Since(start)),
			)
		}()

		d.scheduler.Start(d.ctx)
	})
}

func (d *Dashboard) initialLoad(panels []string) {
	var g errgroup.Group
	for _, name := range panels {
		name := name
		g.Go(func() error {
			d.refresher.Refresh(d.ctx, name, models.TriggerStartup)
			return nil
		})
	}
	_ = g.Wait()
}

// Close cancels outstanding requests and waits for every goroutine.
func (d *Dashboard) Close() {
	d.cancel()
	d.wg.Wait()
	d.scheduler.Wait()
	d.refresher.Wait()
	d.chat.Wait()
}

// Activate switches to a tab.
func (d *Dashboard) Activate(name string) error {
	return d.tabs.Activate(d.ctx, name)
}

// Refresh is an explicit user refresh of one panel. A category applies only
// to the feed and becomes its filter for later fetches too. It reports
// whether a fetch was dispatched; false means one was already in flight.
func (d *Dashboard) Refresh(name, category string) (bool, error) {
	if !d.refresher.Has(name) {
		return false, ErrUnknownPanel
	}
	if name == models.PanelFeed && category != "" {
		if !models.IsFeedCategory(category) {
			return false, ErrInvalidCategory
		}
		d.fetchers.setCategory(category)
	}
	return d.refresher.Dispatch(d.ctx, name, models.TriggerUser), nil
}

// Ask submits a chat question.
func (d *Dashboard) Ask(question string) (SubmitResult, <-chan struct{}) {
	return d.chat.Submit(d.ctx, question)
}

// Tabs returns the tab layout.
func (d *Dashboard) Tabs() []Tab { return d.tabs.Tabs() }

// ActiveTab returns the visible tab.
func (d *Dashboard) ActiveTab() string { return d.tabs.Active() }

// IsPanel reports whether name owns a fragment, including the chat panel.
func (d *Dashboard) IsPanel(name string) bool {
	return name == models.PanelChat || d.refresher.Has(name)
}

// Refreshable reports whether a panel can be refreshed explicitly.
func (d *Dashboard) Refreshable(name string) bool { return d.refresher.Has(name) }

// Transcript returns the chat turns.
func (d *Dashboard) Transcript() []models.ChatTurn { return d.chat.Transcript() }

// State snapshots the dashboard.
func (d *Dashboard) State() DashboardState {
	return DashboardState{
		ActiveTab:    d.tabs.Active(),
		LoadedTabs:   d.tabs.LoadedTabs(),
		FeedCategory: d.fetchers.feedCategory(),
		Panels:       d.refresher.Snapshots(),
		Chat: ChatState{
			SessionID: d.chat.SessionID(),
			Sending:   d.chat.Sending(),
			Turns:     len(d.chat.Transcript()),
		},
	}
}
