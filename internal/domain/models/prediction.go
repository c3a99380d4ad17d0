package models

import "strings"

// Direction is a directional call on an asset.
type Direction string

const (
	Bullish Direction = "BULLISH"
	Bearish Direction = "BEARISH"
	Neutral Direction = "NEUTRAL"
)

// DecodeDirection maps backend text to a Direction, defaulting to Neutral.
func DecodeDirection(raw string) Direction {
	switch Direction(strings.ToUpper(strings.TrimSpace(raw))) {
	case Bullish:
		return Bullish
	case Bearish:
		return Bearish
	default:
		return Neutral
	}
}

// PredictionCard is one asset prediction. Confidence is 0..100.
type PredictionCard struct {
	Asset      string
	Direction  Direction
	Confidence float64
	Reasoning  string
}

// HistoricalParallel is a past week matching current conditions.
// Similarity is 0..1.
type HistoricalParallel struct {
	WeekLabel  string
	Similarity float64
	Summary    string
}

// PredictionReport is the /predictions response.
type PredictionReport struct {
	Confidence  float64
	Predictions []PredictionCard
	Parallels   []HistoricalParallel
	Text        string
	GeneratedAt string
}

// DataSource is one row of the historical coverage report.
type DataSource struct {
	Name      string
	Available bool
	Detail    string
}

// HistoricalStatus is the /predictions/status response.
type HistoricalStatus struct {
	Sources         []DataSource
	TrainingPairs   int
	IndexedPatterns int
}
