package repository

import (
	"context"

	"FinDash/internal/domain/models"
)

// Backend is the financial-intelligence API the dashboard reads from.
type Backend interface {
	Health(ctx context.Context) (*models.Health, error)
	Stats(ctx context.Context) (*models.Stats, error)
	LiveMarket(ctx context.Context) (*models.MarketSnapshot, error)
	Alerts(ctx context.Context, limit int) ([]models.AlertEvent, error)
	Feed(ctx context.Context, limit int, category string) ([]models.FeedItem, error)
	Query(ctx context.Context, req models.QueryRequest) (*models.Answer, error)
	Predictions(ctx context.Context) (*models.PredictionReport, error)
	PredictionStatus(ctx context.Context) (*models.HistoricalStatus, error)
}

// Surface is the page the dashboard writes into. Each panel owns one
// fragment, replaced wholesale on every render.
type Surface interface {
	Replace(panel, markup string)
	SetVisible(tab string, visible bool)
}

// Metrics records dashboard activity.
type Metrics interface {
	RecordFetch(panel, result string, seconds float64)
	RecordSkip(panel, reason string)
	RecordQuestion(result string)
}

// EventPublisher ships panel events to an external stream.
type EventPublisher interface {
	PublishEvent(ctx context.Context, ev models.PanelEvent) error
	Close() error
}
