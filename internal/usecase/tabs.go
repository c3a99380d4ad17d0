package usecase

import (
	"context"
	"sort"
	"sync"

	"FinDash/internal/domain/models"
	"FinDash/internal/domain/repository"
)

// Tab is a switchable view and the panels it shows.
type Tab struct {
	Name   string   `json:"name"`
	Label  string   `json:"label"`
	Panels []string `json:"panels"`
}

// DefaultTabs is the dashboard's tab layout. The chat tab has no data panels.
var DefaultTabs = []Tab{
	{Name: "market", Label: "Market", Panels: []string{models.PanelMarket, models.PanelAlerts}},
	{Name: "feed", Label: "News Feed", Panels: []string{models.PanelFeed}},
	{Name: "predictions", Label: "Predictions", Panels: []string{models.PanelPredictions, models.PanelPredictionsStatus}},
	{Name: "chat", Label: "Ask", Panels: nil},
}

// TabController switches the visible tab and lazily loads a tab's panels the
// first time it is shown.
type TabController struct {
	tabs      []Tab
	surface   repository.Surface
	refresher *Refresher

	mu     sync.Mutex
	active string
	loaded map[string]bool
}

func NewTabController(tabs []Tab, surface repository.Surface, r *Refresher) *TabController {
	return &TabController{
		tabs:      tabs,
		surface:   surface,
		refresher: r,
		loaded:    make(map[string]bool, len(tabs)),
	}
}

func (t *TabController) find(name string) (Tab, bool) {
	for _, tab := range t.tabs {
		if tab.Name == name {
			return tab, true
		}
	}
	return Tab{}, false
}

// Tabs returns the tab layout.
func (t *TabController) Tabs() []Tab {
	return t.tabs
}

// Open makes name the active tab and marks it loaded without fetching, for
// the startup path that loads the tab's panels itself.
func (t *TabController) Open(name string) ([]string, error) {
	tab, ok := t.find(name)
	if !ok {
		return nil, ErrUnknownTab
	}
	t.mu.Lock()
	t.switchTo(name)
	t.loaded[name] = true
	t.mu.Unlock()
	return tab.Panels, nil
}

// Activate shows name, hides the previous tab, and on first activation
// dispatches the tab's panel fetchers once.
func (t *TabController) Activate(ctx context.Context, name string) error {
	tab, ok := t.find(name)
	if !ok {
		return ErrUnknownTab
	}

	t.mu.Lock()
	t.switchTo(name)
	first := !t.loaded[name]
	t.loaded[name] = true
	t.mu.Unlock()

	if first {
		for _, p := range tab.Panels {
			t.refresher.Dispatch(ctx, p, models.TriggerTab)
		}
	}
	return nil
}

// switchTo requires t.mu.
func (t *TabController) switchTo(name string) {
	switch t.active {
	case name:
		return
	case "":
		for _, tab := range t.tabs {
			t.surface.SetVisible(tab.Name, tab.Name == name)
		}
	default:
		t.surface.SetVisible(t.active, false)
		t.surface.SetVisible(name, true)
	}
	t.active = name
}

// Active returns the visible tab.
func (t *TabController) Active() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active
}

// Loaded reports whether name has been activated before.
func (t *TabController) Loaded(name string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.loaded[name]
}

// LoadedTabs lists activated tabs by name.
func (t *TabController) LoadedTabs() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, 0, len(t.loaded))
	for name := range t.loaded {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
