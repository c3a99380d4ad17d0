package models

import "time"

// Panel names. Each owns one fragment of the page.
const (
	PanelHealth            = "health"
	PanelStats             = "stats"
	PanelMarket            = "market"
	PanelAlerts            = "alerts"
	PanelFeed              = "feed"
	PanelPredictions       = "predictions"
	PanelPredictionsStatus = "predictions_status"
	PanelChat              = "chat"
)

// What caused a fetch.
const (
	TriggerStartup = "startup"
	TriggerTab     = "tab"
	TriggerTick    = "tick"
	TriggerUser    = "user"
)

// How a fetch ended.
const (
	OutcomeOK       = "ok"
	OutcomeError    = "error"
	OutcomeSkipped  = "skipped"
	OutcomeCanceled = "canceled"
)

// PanelEvent describes one finished or skipped fetch.
type PanelEvent struct {
	Panel    string        `json:"panel"`
	Outcome  string        `json:"outcome"`
	Trigger  string        `json:"trigger"`
	Duration time.Duration `json:"duration_ns"`
	Error    string        `json:"error,omitempty"`
	At       time.Time     `json:"at"`
}
