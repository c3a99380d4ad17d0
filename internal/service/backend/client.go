// Package backend implements repository.Backend over the financial-intelligence
// HTTP API. Responses are decoded leniently: absent or null fields take the
// defaults documented on each method, and backend vocabulary (alert types,
// sentiment labels, directions) is decoded into closed domain enums here.
package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"FinDash/internal/domain/models"
	"FinDash/internal/domain/repository"
	xhttp "FinDash/pkg/http"
	xutil "FinDash/pkg/util"
)

// Observer is told about every backend round trip.
type Observer interface {
	ObserveRequest(endpoint string, took time.Duration, err error)
}

// Client talks to the backend API.
type Client struct {
	http     *xhttp.Client
	observer Observer
}

type Option func(*Client)

// WithObserver reports request latency and failures per endpoint.
func WithObserver(o Observer) Option {
	return func(c *Client) { c.observer = o }
}

// New creates a Backend on top of an HTTP client whose base URL points at the API.
func New(c *xhttp.Client, opts ...Option) repository.Backend {
	cl := &Client{http: c}
	for _, opt := range opts {
		opt(cl)
	}
	return cl
}

func (c *Client) send(ctx context.Context, opts *xhttp.RequestOptions, dest interface{}) error {
	start := time.Now()
	err := c.http.SendAndParse(ctx, opts, dest)
	if c.observer != nil {
		c.observer.ObserveRequest(opts.URL, time.Since(start), err)
	}
	return err
}

func (c *Client) get(ctx context.Context, path string, query map[string][]string, dest interface{}) error {
	err := c.send(ctx, &xhttp.RequestOptions{
		Method:      xhttp.MethodGet,
		URL:         path,
		QueryParams: query,
	}, dest)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	return nil
}

// Health returns status "unknown" when the backend omits it.
func (c *Client) Health(ctx context.Context) (*models.Health, error) {
	var r healthResponse
	if err := c.get(ctx, "/health", nil, &r); err != nil {
		return nil, err
	}
	return &models.Health{
		Status:      orDefault(r.Status, "unknown"),
		ChunksCount: r.ChunksCount,
		Qdrant:      r.QdrantStatus,
		Redis:       r.RedisStatus,
		Ollama:      r.OllamaStatus,
	}, nil
}

// Stats returns llm_model "unknown" when absent.
func (c *Client) Stats(ctx context.Context) (*models.Stats, error) {
	var r statsResponse
	if err := c.get(ctx, "/data/stats", nil, &r); err != nil {
		return nil, err
	}
	return &models.Stats{
		TotalChunks: r.TotalChunks,
		Collection:  r.Collection,
		LLMModel:    orDefault(r.LLMModel, "unknown"),
		EmbedModel:  r.EmbedModel,
	}, nil
}

// LiveMarket returns quotes in backend key order. A symbol with no change
// entry has a change of 0.
func (c *Client) LiveMarket(ctx context.Context) (*models.MarketSnapshot, error) {
	var r marketResponse
	if err := c.get(ctx, "/market/live", nil, &r); err != nil {
		return nil, err
	}
	snap := &models.MarketSnapshot{
		Quotes:         make([]models.MarketQuote, 0, len(r.Rates.Keys)),
		SymbolsFetched: r.SymbolsFetched,
		SymbolsFailed:  r.SymbolsFailed,
	}
	snap.Timestamp = xutil.ParseTimeDefault(r.Timestamp, time.Time{})
	for _, sym := range r.Rates.Keys {
		snap.Quotes = append(snap.Quotes, models.MarketQuote{
			Symbol:    sym,
			Price:     r.Rates.Values[sym],
			ChangePct: r.Changes[sym],
		})
	}
	return snap, nil
}

// Alerts reads type from "type", falling back to "alert_type", and the text
// from "message", falling back to "description".
func (c *Client) Alerts(ctx context.Context, limit int) ([]models.AlertEvent, error) {
	var r alertsResponse
	q := map[string][]string{"limit": {strconv.Itoa(limit)}}
	if err := c.get(ctx, "/alerts", q, &r); err != nil {
		return nil, err
	}
	out := make([]models.AlertEvent, 0, len(r.Alerts))
	for _, a := range r.Alerts {
		kind := a.Type
		if kind == "" {
			kind = a.AlertType
		}
		out = append(out, models.AlertEvent{
			Kind:          models.DecodeAlertKind(kind),
			Symbol:        a.Symbol,
			Severity:      strings.ToLower(a.Severity),
			Message:       orDefault(orDefault(a.Message, a.Description), "—"),
			TimestampText: xutil.DisplayTime(a.Timestamp),
		})
	}
	return out, nil
}

// Feed defaults title to "Untitled" and source to "unknown". URLs that are
// not http(s) are dropped.
func (c *Client) Feed(ctx context.Context, limit int, category string) ([]models.FeedItem, error) {
	var r feedResponse
	q := map[string][]string{
		"limit":    {strconv.Itoa(limit)},
		"category": {category},
	}
	if err := c.get(ctx, "/data/feed", q, &r); err != nil {
		return nil, err
	}
	out := make([]models.FeedItem, 0, len(r.Items))
	for _, it := range r.Items {
		out = append(out, models.FeedItem{
			Title:          orDefault(it.Title, "Untitled"),
			URL:            webURL(it.URL),
			BodyText:       it.Text,
			SentimentLabel: models.DecodeSentiment(it.SentimentLabel),
			SentimentScore: it.SentimentScore,
			Source:         orDefault(it.Source, "unknown"),
			PublishedAt:    xutil.DisplayTime(it.PublishedAt),
			Entities:       it.Entities,
			GeoTags:        it.GeoTags,
			AssetClasses:   it.AssetClasses,
		})
	}
	return out, nil
}

// Query posts a question. The answer text comes from "answer", or from a
// string "detail" when the backend reports a problem with a 2xx status.
// A non-2xx response is an error whose message carries the detail, if any.
func (c *Client) Query(ctx context.Context, req models.QueryRequest) (*models.Answer, error) {
	var r queryResponse
	err := c.send(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodPost,
		URL:    "/query",
		Body:   req,
	}, &r)
	if err != nil {
		var se *xhttp.StatusError
		if errors.As(err, &se) {
			if d := se.Detail(); d != "" {
				return nil, fmt.Errorf("POST /query: %s: %w", d, err)
			}
		}
		return nil, fmt.Errorf("POST /query: %w", err)
	}

	text := r.Answer
	if text == "" {
		var detail string
		if json.Unmarshal(r.Detail, &detail) == nil {
			text = detail
		}
	}
	ans := &models.Answer{
		Text:       text,
		Provider:   orDefault(r.Provider, "unknown"),
		ChunksUsed: r.ChunksUsed,
	}
	if r.Sources != nil {
		ans.Sources = *r.Sources
		ans.HasSources = true
	}
	return ans, nil
}

// Predictions clamps card confidence to 0..100 and similarity to 0..1.
func (c *Client) Predictions(ctx context.Context) (*models.PredictionReport, error) {
	var r predictionsResponse
	if err := c.get(ctx, "/predictions", nil, &r); err != nil {
		return nil, err
	}
	rep := &models.PredictionReport{
		Confidence:  clamp(r.Confidence, 0, 100),
		Predictions: make([]models.PredictionCard, 0, len(r.Predictions)),
		Parallels:   make([]models.HistoricalParallel, 0, len(r.Parallels)),
		Text:        r.PredictionText,
		GeneratedAt: xutil.DisplayTime(r.GeneratedAt),
	}
	for _, p := range r.Predictions {
		rep.Predictions = append(rep.Predictions, models.PredictionCard{
			Asset:      orDefault(p.Asset, "Unknown"),
			Direction:  models.DecodeDirection(p.Direction),
			Confidence: clamp(p.Confidence, 0, 100),
			Reasoning:  p.Reasoning,
		})
	}
	for _, p := range r.Parallels {
		rep.Parallels = append(rep.Parallels, models.HistoricalParallel{
			WeekLabel:  orDefault(p.Week, "unknown"),
			Similarity: clamp(p.Similarity, 0, 1),
			Summary:    p.Summary,
		})
	}
	return rep, nil
}

// PredictionStatus reports a missing source as unavailable.
func (c *Client) PredictionStatus(ctx context.Context) (*models.HistoricalStatus, error) {
	var r statusResponse
	if err := c.get(ctx, "/predictions/status", nil, &r); err != nil {
		return nil, err
	}
	market := countDetail(r.MarketDataRows, "rows")
	if r.MarketDateRange != "" {
		market = strings.TrimSpace(market + " " + r.MarketDateRange)
	}
	return &models.HistoricalStatus{
		Sources: []models.DataSource{
			{Name: "Market data", Available: r.MarketData, Detail: market},
			{Name: "Economic indicators", Available: r.EconomicData},
			{Name: "Wikipedia events", Available: r.WikipediaEvents, Detail: countDetail(r.WikipediaMonths, "months")},
			{Name: "GDELT articles", Available: r.GdeltArticles, Detail: countDetail(r.GdeltWeeks, "weeks")},
		},
		TrainingPairs:   r.TrainingPairs,
		IndexedPatterns: r.IndexedPatterns,
	}, nil
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func countDetail(n *int, unit string) string {
	if n == nil {
		return ""
	}
	return strconv.Itoa(*n) + " " + unit
}

func webURL(u string) string {
	u = strings.TrimSpace(u)
	if strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://") {
		return u
	}
	return ""
}
