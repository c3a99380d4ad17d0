package models

import "time"

// MarketQuote is one live price with its percent change.
type MarketQuote struct {
	Symbol    string
	Price     float64
	ChangePct float64
}

// MarketSnapshot is a full /market/live response. Quotes keep backend order.
type MarketSnapshot struct {
	Quotes         []MarketQuote
	SymbolsFetched int
	SymbolsFailed  int
	Timestamp      time.Time
}

// Health is the backend liveness report.
type Health struct {
	Status      string
	ChunksCount int
	Qdrant      string
	Redis       string
	Ollama      string
}

// Stats holds aggregate ingestion counters.
type Stats struct {
	TotalChunks int
	Collection  string
	LLMModel    string
	EmbedModel  string
}
