package backend

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Wire shapes of the backend API. Every field is optional; defaults are
// applied when converting to domain models.

type healthResponse struct {
	Status       string `json:"status"`
	QdrantStatus string `json:"qdrant_status"`
	RedisStatus  string `json:"redis_status"`
	OllamaStatus string `json:"ollama_status"`
	ChunksCount  int    `json:"chunks_count"`
}

type statsResponse struct {
	TotalChunks int    `json:"total_chunks"`
	Collection  string `json:"collection"`
	LLMModel    string `json:"llm_model"`
	EmbedModel  string `json:"embed_model"`
}

type marketResponse struct {
	Rates          orderedFloats      `json:"rates"`
	Changes        map[string]float64 `json:"changes"`
	Timestamp      string             `json:"timestamp"`
	SymbolsFetched int                `json:"symbols_fetched"`
	SymbolsFailed  int                `json:"symbols_failed"`
}

type alertDTO struct {
	Type        string `json:"type"`
	AlertType   string `json:"alert_type"`
	Symbol      string `json:"symbol"`
	Message     string `json:"message"`
	Description string `json:"description"`
	Severity    string `json:"severity"`
	Timestamp   string `json:"timestamp"`
}

type alertsResponse struct {
	Alerts []alertDTO `json:"alerts"`
}

type feedItemDTO struct {
	Title          string     `json:"title"`
	URL            string     `json:"url"`
	Text           string     `json:"text"`
	Source         string     `json:"source"`
	PublishedAt    string     `json:"published_at"`
	SentimentLabel string     `json:"sentiment_label"`
	SentimentScore float64    `json:"sentiment_score"`
	Entities       stringList `json:"entities"`
	GeoTags        stringList `json:"geopolitical_tags"`
	AssetClasses   stringList `json:"asset_classes"`
}

type feedResponse struct {
	Items []feedItemDTO `json:"items"`
}

type queryResponse struct {
	Answer     string          `json:"answer"`
	Detail     json.RawMessage `json:"detail"`
	Provider   string          `json:"provider"`
	ChunksUsed int             `json:"chunks_used"`
	Sources    *stringList     `json:"sources"`
}

type predictionDTO struct {
	Asset      string  `json:"asset"`
	Direction  string  `json:"direction"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

type parallelDTO struct {
	Week       string  `json:"week"`
	Similarity float64 `json:"similarity"`
	Summary    string  `json:"summary"`
}

type predictionsResponse struct {
	Confidence     float64         `json:"confidence"`
	Predictions    []predictionDTO `json:"predictions"`
	Parallels      []parallelDTO   `json:"parallels"`
	PredictionText string          `json:"prediction_text"`
	GeneratedAt    string          `json:"generated_at"`
}

type statusResponse struct {
	MarketData      bool   `json:"market_data"`
	MarketDataRows  *int   `json:"market_data_rows"`
	MarketDateRange string `json:"market_date_range"`
	EconomicData    bool   `json:"economic_data"`
	WikipediaEvents bool   `json:"wikipedia_events"`
	WikipediaMonths *int   `json:"wikipedia_months"`
	GdeltArticles   bool   `json:"gdelt_articles"`
	GdeltWeeks      *int   `json:"gdelt_weeks"`
	TrainingPairs   int    `json:"training_pairs"`
	IndexedPatterns int    `json:"indexed_patterns"`
}

// orderedFloats decodes a JSON object of numbers and remembers key order,
// which a Go map would lose. Null values are dropped.
type orderedFloats struct {
	Keys   []string
	Values map[string]float64
}

func (o *orderedFloats) UnmarshalJSON(b []byte) error {
	o.Keys = nil
	o.Values = make(map[string]float64)
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(b))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("expected object, got %v", tok)
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("expected key, got %v", tok)
		}
		var v *float64
		if err := dec.Decode(&v); err != nil {
			return fmt.Errorf("value of %q: %w", key, err)
		}
		if v == nil {
			continue
		}
		if _, seen := o.Values[key]; !seen {
			o.Keys = append(o.Keys, key)
		}
		o.Values[key] = *v
	}
	_, err = dec.Token()
	return err
}

// stringList decodes a JSON array leniently: strings are kept, numbers are
// formatted, anything else is skipped. Null decodes to an empty list.
type stringList []string

func (l *stringList) UnmarshalJSON(b []byte) error {
	*l = nil
	var raw []json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil
	}
	for _, r := range raw {
		var s string
		if err := json.Unmarshal(r, &s); err == nil {
			if s != "" {
				*l = append(*l, s)
			}
			continue
		}
		var f float64
		if err := json.Unmarshal(r, &f); err == nil {
			*l = append(*l, strconv.FormatFloat(f, 'f', -1, 64))
		}
	}
	return nil
}
