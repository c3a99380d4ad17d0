package models

import "strings"

// AlertKind classifies alerts for display.
type AlertKind string

const (
	AlertSpike     AlertKind = "spike"
	AlertNews      AlertKind = "news"
	AlertSentiment AlertKind = "sentiment"
	AlertOther     AlertKind = "other"
)

// DecodeAlertKind maps the backend's free-text type to an AlertKind.
// Unknown vocabulary falls back to AlertOther.
func DecodeAlertKind(raw string) AlertKind {
	s := strings.ToLower(raw)
	switch {
	case strings.Contains(s, "spike"), strings.Contains(s, "price"):
		return AlertSpike
	case strings.Contains(s, "news"), strings.Contains(s, "breaking"):
		return AlertNews
	case strings.Contains(s, "sentiment"):
		return AlertSentiment
	default:
		return AlertOther
	}
}

// AlertEvent is one entry of the alerts panel.
type AlertEvent struct {
	Kind          AlertKind
	Symbol        string
	Severity      string
	Message       string
	TimestampText string
}
