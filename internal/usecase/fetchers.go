package usecase

import (
	"context"
	"math"
	"sort"
	"sync"

	"FinDash/internal/domain/models"
	"FinDash/internal/domain/repository"
	"FinDash/internal/view"
)

// Fetcher performs one backend call for a panel and returns its fragment.
type Fetcher func(ctx context.Context) (string, error)

// SortQuotes orders quotes by absolute percent change, largest first.
// Ties keep backend order.
func SortQuotes(quotes []models.MarketQuote) {
	sort.SliceStable(quotes, func(i, j int) bool {
		return math.Abs(quotes[i].ChangePct) > math.Abs(quotes[j].ChangePct)
	})
}

// panelFetchers binds every data panel to its endpoint and renderer.
type panelFetchers struct {
	backend     repository.Backend
	renderer    *view.Renderer
	alertsLimit int
	feedLimit   int

	mu       sync.RWMutex
	category string
}

func (f *panelFetchers) setCategory(c string) {
	f.mu.Lock()
	f.category = c
	f.mu.Unlock()
}

func (f *panelFetchers) feedCategory() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.category
}

func (f *panelFetchers) all() map[string]Fetcher {
	return map[string]Fetcher{
		models.PanelHealth:            f.health,
		models.PanelStats:             f.stats,
		models.PanelMarket:            f.market,
		models.PanelAlerts:            f.alerts,
		models.PanelFeed:              f.feed,
		models.PanelPredictions:       f.predictions,
		models.PanelPredictionsStatus: f.predictionStatus,
	}
}

func (f *panelFetchers) health(ctx context.Context) (string, error) {
	h, err := f.backend.Health(ctx)
	if err != nil {
		return "", err
	}
	return f.renderer.Health(h)
}

func (f *panelFetchers) stats(ctx context.Context) (string, error) {
	s, err := f.backend.Stats(ctx)
	if err != nil {
		return "", err
	}
	return f.renderer.Stats(s)
}

func (f *panelFetchers) market(ctx context.Context) (string, error) {
	snap, err := f.backend.LiveMarket(ctx)
	if err != nil {
		return "", err
	}
	SortQuotes(snap.Quotes)
	return f.renderer.Market(snap)
}

func (f *panelFetchers) alerts(ctx context.Context) (string, error) {
	alerts, err := f.backend.Alerts(ctx, f.alertsLimit)
	if err != nil {
		return "", err
	}
	return f.renderer.Alerts(alerts)
}

func (f *panelFetchers) feed(ctx context.Context) (string, error) {
	items, err := f.backend.Feed(ctx, f.feedLimit, f.feedCategory())
	if err != nil {
		return "", err
	}
	return f.renderer.Feed(items)
}

func (f *panelFetchers) predictions(ctx context.Context) (string, error) {
	rep, err := f.backend.Predictions(ctx)
	if err != nil {
		return "", err
	}
	return f.renderer.Predictions(rep)
}

func (f *panelFetchers) predictionStatus(ctx context.Context) (string, error) {
	st, err := f.backend.PredictionStatus(ctx)
	if err != nil {
		return "", err
	}
	return f.renderer.PredictionStatus(st)
}
