package usecase

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"FinDash/internal/domain/models"
	"FinDash/internal/domain/repository"
	"FinDash/internal/view"
	applogger "FinDash/pkg/logger"
)

const publishTimeout = 5 * time.Second

type panelEntry struct {
	state *PanelState
	fetch Fetcher
}

// Refresher runs panel fetchers under each panel's in-flight guard and
// writes the result, or the panel's error state, to the surface.
type Refresher struct {
	panels   map[string]*panelEntry
	surface  repository.Surface
	renderer *view.Renderer
	metrics  repository.Metrics
	events   repository.EventPublisher
	logger   *applogger.Logger
	now      func() time.Time

	// addMu orders wg.Add against Wait: a cancel seen before Wait takes the
	// write lock stops every later Dispatch.
	addMu sync.RWMutex
	wg    sync.WaitGroup
}

// NewRefresher builds a Refresher over the given fetchers.
func NewRefresher(fetchers map[string]Fetcher, surface repository.Surface, renderer *view.Renderer,
	metrics repository.Metrics, events repository.EventPublisher, logger *applogger.Logger) *Refresher {
	r := &Refresher{
		panels:   make(map[string]*panelEntry, len(fetchers)),
		surface:  surface,
		renderer: renderer,
		metrics:  metrics,
		events:   events,
		logger:   logger,
		now:      time.Now,
	}
	for name, f := range fetchers {
		r.panels[name] = &panelEntry{state: NewPanelState(name), fetch: f}
	}
	return r
}

// Has reports whether name is a fetchable panel.
func (r *Refresher) Has(name string) bool {
	_, ok := r.panels[name]
	return ok
}

// State returns the PanelState of a panel.
func (r *Refresher) State(name string) (*PanelState, bool) {
	e, ok := r.panels[name]
	if !ok {
		return nil, false
	}
	return e.state, true
}

// Snapshots returns every panel's state sorted by name.
func (r *Refresher) Snapshots() []PanelSnapshot {
	out := make([]PanelSnapshot, 0, len(r.panels))
	for _, e := range r.panels {
		out = append(out, e.state.Snapshot())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Refresh fetches a panel in the calling goroutine. It returns false without
// fetching if the panel is unknown or already in flight.
func (r *Refresher) Refresh(ctx context.Context, name, trigger string) bool {
	e, ok := r.acquire(ctx, name, trigger)
	if !ok {
		return false
	}
	r.run(ctx, e, trigger)
	return true
}

// Dispatch is Refresh in a new goroutine. The guard is claimed before
// returning, so two rapid calls yield one request.
func (r *Refresher) Dispatch(ctx context.Context, name, trigger string) bool {
	r.addMu.RLock()
	e, ok := r.acquire(ctx, name, trigger)
	if ok {
		r.wg.Add(1)
	}
	r.addMu.RUnlock()
	if !ok {
		return false
	}
	go func() {
		defer r.wg.Done()
		r.run(ctx, e, trigger)
	}()
	return true
}

// Wait blocks until dispatched fetches finish.
func (r *Refresher) Wait() {
	// Let any Dispatch between its context check and wg.Add finish.
	r.addMu.Lock()
	r.addMu.Unlock()
	r.wg.Wait()
}

func (r *Refresher) acquire(ctx context.Context, name, trigger string) (*panelEntry, bool) {
	e, ok := r.panels[name]
	if !ok {
		return nil, false
	}
	// Once ctx is done Wait may already be running; no new fetch may start.
	if ctx.Err() != nil {
		r.metrics.RecordSkip(name, "stopped")
		return nil, false
	}
	if !e.state.begin() {
		r.metrics.RecordSkip(name, "in_flight")
		r.logger.Debug("panel fetch skipped",
			applogger.String("panel", name),
			applogger.String("trigger", trigger),
		)
		r.publish(ctx, models.PanelEvent{Panel: name, Outcome: models.OutcomeSkipped, Trigger: trigger, At: r.now()})
		return nil, false
	}
	return e, true
}

func (r *Refresher) run(ctx context.Context, e *panelEntry, trigger string) {
	name := e.state.Name()
	start := r.now()
	var fetchErr error
	defer func() {
		e.state.end(r.now(), fetchErr)
	}()

	out, err := e.fetch(ctx)
	elapsed := r.now().Sub(start)
	ev := models.PanelEvent{Panel: name, Trigger: trigger, Duration: elapsed, At: start}

	switch {
	case err == nil:
		r.surface.Replace(name, out)
		r.metrics.RecordFetch(name, models.OutcomeOK, elapsed.Seconds())
		ev.Outcome = models.OutcomeOK
	case errors.Is(err, context.Canceled) && ctx.Err() != nil:
		fetchErr = err
		r.metrics.RecordFetch(name, models.OutcomeCanceled, elapsed.Seconds())
		ev.Outcome = models.OutcomeCanceled
	default:
		fetchErr = err
		r.surface.Replace(name, r.renderer.Error(name))
		r.metrics.RecordFetch(name, models.OutcomeError, elapsed.Seconds())
		r.logger.Warn("panel fetch failed",
			applogger.String("panel", name),
			applogger.String("trigger", trigger),
			applogger.Duration("duration_ms", elapsed),
			applogger.Error(err),
		)
		ev.Outcome = models.OutcomeError
		ev.Error = err.Error()
	}
	r.publish(ctx, ev)
}

func (r *Refresher) publish(ctx context.Context, ev models.PanelEvent) {
	if r.events == nil {
		return
	}
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := r.events.PublishEvent(pctx, ev); err != nil {
		r.logger.Debug("panel event not published",
			applogger.String("panel", ev.Panel),
			applogger.Error(err),
		)
	}
}
