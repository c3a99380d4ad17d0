// Package view renders dashboard panels into HTML fragments and keeps the
// current fragment of every panel in a Store.
package view

import (
	"bytes"
	"fmt"
	"html/template"
	"math"
	"strings"

	"FinDash/internal/domain/models"
	"FinDash/pkg/markup"
)

// maxSourceNames caps how many source names follow the source count.
const maxSourceNames = 5

var panelLabels = map[string]string{
	models.PanelHealth:            "health status",
	models.PanelStats:             "stats",
	models.PanelMarket:            "market data",
	models.PanelAlerts:            "alerts",
	models.PanelFeed:              "news feed",
	models.PanelPredictions:       "predictions",
	models.PanelPredictionsStatus: "historical data status",
	models.PanelChat:              "chat",
}

// Renderer turns view-models into fragments. Free text from the backend goes
// through the answer formatter; everything else is escaped by html/template.
type Renderer struct {
	formatter *markup.Formatter
}

// NewRenderer creates a Renderer using f for free-text fields.
func NewRenderer(f *markup.Formatter) *Renderer {
	if f == nil {
		f = markup.NewFormatter(true)
	}
	return &Renderer{formatter: f}
}

func execute(t *template.Template, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s: %w", t.Name(), err)
	}
	return buf.String(), nil
}

type serviceView struct {
	Name, Status, Class string
}

// Health renders the status badge with the sub-system statuses, if any.
func (r *Renderer) Health(h *models.Health) (string, error) {
	data := struct {
		Status, Class, Chunks string
		Services              []serviceView
	}{
		Status: h.Status,
		Class:  statusClass(h.Status),
		Chunks: FormatInt(h.ChunksCount),
	}
	for _, s := range []serviceView{{Name: "Qdrant", Status: h.Qdrant}, {Name: "Redis", Status: h.Redis}, {Name: "Ollama", Status: h.Ollama}} {
		if s.Status == "" {
			continue
		}
		s.Class = statusClass(s.Status)
		data.Services = append(data.Services, s)
	}
	return execute(healthTmpl, data)
}

// Stats renders the ingestion counters.
func (r *Renderer) Stats(s *models.Stats) (string, error) {
	return execute(statsTmpl, struct {
		Chunks, LLMModel, EmbedModel, Collection string
	}{
		Chunks:     FormatInt(s.TotalChunks),
		LLMModel:   s.LLMModel,
		EmbedModel: s.EmbedModel,
		Collection: s.Collection,
	})
}

// Market renders quotes in the order given. No quotes renders the explicit
// "no data" state.
func (r *Renderer) Market(snap *models.MarketSnapshot) (string, error) {
	type quoteView struct {
		Symbol, Display, Price, Change, Class string
	}
	data := struct {
		Quotes          []quoteView
		Fetched, Failed int
		Updated         string
	}{
		Fetched: snap.SymbolsFetched,
		Failed:  snap.SymbolsFailed,
	}
	if data.Fetched == 0 {
		data.Fetched = len(snap.Quotes)
	}
	if !snap.Timestamp.IsZero() {
		data.Updated = snap.Timestamp.UTC().Format("15:04:05 UTC")
	}
	for _, q := range snap.Quotes {
		data.Quotes = append(data.Quotes, quoteView{
			Symbol:  q.Symbol,
			Display: DisplaySymbol(q.Symbol),
			Price:   FormatPrice(q.Price),
			Change:  FormatChange(q.ChangePct),
			Class:   ChangeClass(q.ChangePct),
		})
	}
	return execute(marketTmpl, data)
}

// Alerts renders the alert list or its empty state.
func (r *Renderer) Alerts(alerts []models.AlertEvent) (string, error) {
	type alertView struct {
		Kind, Symbol, Severity, Message, TimestampText string
	}
	views := make([]alertView, 0, len(alerts))
	for _, a := range alerts {
		views = append(views, alertView{
			Kind:          string(a.Kind),
			Symbol:        a.Symbol,
			Severity:      a.Severity,
			Message:       a.Message,
			TimestampText: a.TimestampText,
		})
	}
	return execute(alertsTmpl, views)
}

// Feed renders news items or the empty state.
func (r *Renderer) Feed(items []models.FeedItem) (string, error) {
	return execute(feedTmpl, items)
}

// Predictions renders cards with confidence bars, parallels, and the
// narrative through the answer formatter.
func (r *Renderer) Predictions(rep *models.PredictionReport) (string, error) {
	type cardView struct {
		Asset, Direction, Reasoning string
		Confidence                  int
	}
	data := struct {
		Confidence  int
		Cards       []cardView
		Parallels   []models.HistoricalParallel
		Narrative   template.HTML
		GeneratedAt string
	}{
		Confidence: barWidth(rep.Confidence),
		Parallels:  rep.Parallels,
		Narrative:  template.HTML(r.formatter.Format(rep.Text)),
	}
	if rep.GeneratedAt != "—" {
		data.GeneratedAt = rep.GeneratedAt
	}
	for _, p := range rep.Predictions {
		data.Cards = append(data.Cards, cardView{
			Asset:      p.Asset,
			Direction:  string(p.Direction),
			Reasoning:  p.Reasoning,
			Confidence: barWidth(p.Confidence),
		})
	}
	return execute(predictionsTmpl, data)
}

// PredictionStatus renders historical data coverage.
func (r *Renderer) PredictionStatus(st *models.HistoricalStatus) (string, error) {
	return execute(statusTmpl, struct {
		Sources                        []models.DataSource
		TrainingPairs, IndexedPatterns string
	}{
		Sources:         st.Sources,
		TrainingPairs:   FormatInt(st.TrainingPairs),
		IndexedPatterns: FormatInt(st.IndexedPatterns),
	})
}

// Chat renders the transcript. Turn markup is already safe.
func (r *Renderer) Chat(turns []models.ChatTurn) (string, error) {
	type turnView struct {
		ID, Role, Status string
		Markup           template.HTML
	}
	views := make([]turnView, 0, len(turns))
	for _, t := range turns {
		views = append(views, turnView{
			ID:     t.ID,
			Role:   string(t.Role),
			Status: string(t.Status),
			Markup: template.HTML(t.FormattedMarkup),
		})
	}
	return execute(chatTmpl, views)
}

// Error is the panel-local failure state.
func (r *Renderer) Error(panel string) string {
	label, ok := panelLabels[panel]
	if !ok {
		label = panel
	}
	out, err := execute(errorTmpl, label)
	if err != nil {
		return `<div class="panel-error">Failed to load.</div>`
	}
	return out
}

// Loading is the placeholder shown before a panel's first fetch.
func (r *Renderer) Loading() string {
	return `<div class="loading">Loading…</div>`
}

// UserTurn is the question exactly as typed, escaped.
func (r *Renderer) UserTurn(question string) string {
	return markup.Escape(question)
}

// PendingTurn is the assistant placeholder shown while a question is sending.
func (r *Renderer) PendingTurn() string {
	return `<span class="thinking">Thinking…</span>`
}

// AnswerTurn is the formatted answer followed by a metadata line with the
// provider, chunk count, and source count when the backend sent sources.
func (r *Renderer) AnswerTurn(a *models.Answer) string {
	var b strings.Builder
	body := r.formatter.Format(a.Text)
	if body == "" {
		body = `<p class="empty">No answer returned.</p>`
	}
	b.WriteString(body)
	b.WriteString(`<div class="chat-meta">Provider: `)
	b.WriteString(markup.Escape(a.Provider))
	fmt.Fprintf(&b, ` · %d chunks`, a.ChunksUsed)
	if a.HasSources {
		fmt.Fprintf(&b, ` · %d sources`, len(a.Sources))
		names := a.Sources
		if len(names) > maxSourceNames {
			names = names[:maxSourceNames]
		}
		if len(names) > 0 {
			b.WriteString(": ")
			b.WriteString(markup.Escape(strings.Join(names, ", ")))
		}
	}
	b.WriteString(`</div>`)
	return b.String()
}

// FailedTurn is the escaped error shown in place of an answer.
func (r *Renderer) FailedTurn(err error) string {
	return `<span class="chat-error">Error: ` + markup.Escape(err.Error()) + `</span>`
}

func statusClass(status string) string {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "ok", "healthy", "connected", "up", "ready":
		return "ok"
	case "degraded", "partial":
		return "degraded"
	case "unknown", "":
		return "unknown"
	default:
		return "down"
	}
}

func barWidth(confidence float64) int {
	return int(math.Round(clampPct(confidence)))
}
