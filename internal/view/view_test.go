package view

import (
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FinDash/internal/domain/models"
	"FinDash/pkg/markup"
)

func TestDisplaySymbol(t *testing.T) {
	cases := map[string]string{
		"EURUSD=X": "EURUSD",
		"BTC-USD":  "BTC",
		"^GSPC":    "GSPC",
		"GC=F":     "GC=F",
		"^":        "^",
	}
	for in, want := range cases {
		assert.Equal(t, want, DisplaySymbol(in), in)
	}
}

func TestFormatPrice(t *testing.T) {
	assert.Equal(t, "1.0842", FormatPrice(1.0842))
	assert.Equal(t, "151.20", FormatPrice(151.2))
	assert.Equal(t, "67,012.50", FormatPrice(67012.5))
	assert.Equal(t, "2,000.00", FormatPrice(1999.999))
}

func TestFormatChange(t *testing.T) {
	assert.Equal(t, "+0.50%", FormatChange(0.5))
	assert.Equal(t, "-2.00%", FormatChange(-2))
	assert.Equal(t, "0.00%", FormatChange(0))
	assert.Equal(t, "up", ChangeClass(0.1))
	assert.Equal(t, "down", ChangeClass(-0.1))
}

func TestFormatInt(t *testing.T) {
	assert.Equal(t, "0", FormatInt(0))
	assert.Equal(t, "12,345", FormatInt(12345))
	assert.Equal(t, "-1,000", FormatInt(-1000))
}

func newRenderer() *Renderer {
	return NewRenderer(markup.NewFormatter(true))
}

func TestMarketEmptyRendersNoDataState(t *testing.T) {
	out, err := newRenderer().Market(&models.MarketSnapshot{})
	require.NoError(t, err)
	assert.Contains(t, out, "No market data available.")
	assert.NotContains(t, out, "market-grid")
}

func TestMarketRendersInGivenOrder(t *testing.T) {
	out, err := newRenderer().Market(&models.MarketSnapshot{
		Quotes: []models.MarketQuote{
			{Symbol: "BTC-USD", Price: 67000, ChangePct: -2},
			{Symbol: "EURUSD=X", Price: 1.08, ChangePct: 0.5},
		},
		SymbolsFailed: 1,
		Timestamp:     time.Date(2024, 10, 10, 9, 30, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	btc := strings.Index(out, ">BTC<")
	eur := strings.Index(out, ">EURUSD<")
	require.True(t, btc >= 0 && eur >= 0, out)
	assert.Less(t, btc, eur)
	assert.Contains(t, out, "1 failed")
	assert.Contains(t, out, "09:30:00 UTC")
}

func TestAlertsEscapesBackendText(t *testing.T) {
	out, err := newRenderer().Alerts([]models.AlertEvent{
		{Kind: models.AlertNews, Message: "<script>x</script>", TimestampText: "—"},
	})
	require.NoError(t, err)
	assert.NotContains(t, out, "<script>")
	assert.Contains(t, out, "alert-news")
}

func TestAlertsEmpty(t *testing.T) {
	out, err := newRenderer().Alerts(nil)
	require.NoError(t, err)
	assert.Contains(t, out, "No recent alerts.")
}

func TestFeedLinksOnlyWithURL(t *testing.T) {
	out, err := newRenderer().Feed([]models.FeedItem{
		{Title: "With link", URL: "https://example.com/a", Source: "rss", SentimentLabel: models.SentimentPositive},
		{Title: "No link", Source: "rss", SentimentLabel: models.SentimentNeutral, Entities: []string{"Fed"}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(out, "<a "))
	assert.Contains(t, out, `href="https://example.com/a"`)
	assert.Contains(t, out, "sentiment-positive")
	assert.Contains(t, out, `<span class="tag entity">Fed</span>`)
}

func TestPredictionsBarsAndNarrative(t *testing.T) {
	out, err := newRenderer().Predictions(&models.PredictionReport{
		Confidence: 62.4,
		Predictions: []models.PredictionCard{
			{Asset: "Gold", Direction: models.Bullish, Confidence: 71},
		},
		Parallels: []models.HistoricalParallel{{WeekLabel: "2008-W38", Similarity: 0.83}},
		Text:      "**Risk-off** week.",
	})
	require.NoError(t, err)
	assert.Contains(t, out, "width: 62%")
	assert.Contains(t, out, "width: 71%")
	assert.Contains(t, out, "dir-bullish")
	assert.Contains(t, out, "83%")
	assert.Contains(t, out, "<strong>Risk-off</strong>")
}

func TestPredictionStatus(t *testing.T) {
	out, err := newRenderer().PredictionStatus(&models.HistoricalStatus{
		Sources:       []models.DataSource{{Name: "Market data", Available: true, Detail: "5200 rows"}, {Name: "GDELT articles"}},
		TrainingPairs: 1200,
	})
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Market data")
	assert.Contains(t, out, "✗ GDELT articles")
	assert.Contains(t, out, "1,200 training pairs")
}

func TestErrorState(t *testing.T) {
	out := newRenderer().Error(models.PanelMarket)
	assert.Contains(t, out, "Failed to load market data. Check if the API server is running.")
}

func TestAnswerTurnMetadata(t *testing.T) {
	r := newRenderer()
	out := r.AnswerTurn(&models.Answer{
		Text:       "**USD** rose.",
		Provider:   "groq",
		ChunksUsed: 3,
		Sources:    []string{"a", "b", "c", "d", "e", "f"},
		HasSources: true,
	})
	assert.Contains(t, out, "<strong>USD</strong>")
	assert.Contains(t, out, "Provider: groq")
	assert.Contains(t, out, "3 chunks")
	assert.Contains(t, out, "6 sources: a, b, c, d, e")
	assert.NotContains(t, out, ", f")
}

func TestFailedTurnEscapes(t *testing.T) {
	out := newRenderer().FailedTurn(errors.New("<b>boom</b>"))
	assert.Contains(t, out, "&lt;b&gt;boom&lt;/b&gt;")
}

func TestChatTranscript(t *testing.T) {
	out, err := newRenderer().Chat([]models.ChatTurn{
		{ID: "1", Role: models.RoleUser, FormattedMarkup: "Why?", Status: models.TurnDone},
		{ID: "2", Role: models.RoleAssistant, FormattedMarkup: "<p>Because.</p>", Status: models.TurnDone},
	})
	require.NoError(t, err)
	assert.Contains(t, out, `id="turn-1"`)
	assert.Contains(t, out, "<p>Because.</p>")
}

func TestStoreFanOut(t *testing.T) {
	s := NewStore()
	ch, cancel := s.Subscribe(4)
	defer cancel()

	s.Replace(models.PanelMarket, "<p>x</p>")
	s.SetVisible("market", true)

	u := <-ch
	assert.Equal(t, models.PanelMarket, u.Panel)
	assert.Equal(t, "<p>x</p>", u.HTML)
	u = <-ch
	assert.Equal(t, "market", u.Tab)
	assert.True(t, u.Visible)

	frag, ok := s.Fragment(models.PanelMarket)
	assert.True(t, ok)
	assert.Equal(t, "<p>x</p>", frag)
	assert.True(t, s.Visible("market"))
}

func TestStoreSlowSubscriberDoesNotBlock(t *testing.T) {
	s := NewStore()
	_, cancel := s.Subscribe(1)
	defer cancel()

	for i := 0; i < 10; i++ {
		s.Replace(models.PanelHealth, "h")
	}
	frag, _ := s.Fragment(models.PanelHealth)
	assert.Equal(t, "h", frag)
}

type dropCount struct{ n atomic.Int64 }

func (d *dropCount) RecordDroppedUpdate() { d.n.Add(1) }

func TestStoreCountsDroppedUpdates(t *testing.T) {
	d := &dropCount{}
	s := NewStore(WithDropCounter(d))
	_, cancel := s.Subscribe(1)
	defer cancel()

	for i := 0; i < 5; i++ {
		s.Replace(models.PanelHealth, "h")
	}
	assert.Equal(t, int64(4), d.n.Load())
}

func TestStoreSubscribeWithSnapshot(t *testing.T) {
	s := NewStore()
	s.Replace(models.PanelMarket, "<p>m</p>")
	s.SetVisible("market", true)
	s.Replace(models.PanelHealth, "<p>h</p>")

	snap, ch, cancel := s.SubscribeWithSnapshot(2)
	defer cancel()

	require.Len(t, snap, 3)
	assert.Equal(t, Update{Tab: "market", Visible: true}, snap[0])
	assert.Equal(t, Update{Panel: models.PanelHealth, HTML: "<p>h</p>"}, snap[1])
	assert.Equal(t, Update{Panel: models.PanelMarket, HTML: "<p>m</p>"}, snap[2])
	assert.Equal(t, snap, s.Snapshot())

	s.Replace(models.PanelMarket, "<p>m2</p>")
	u := <-ch
	assert.Equal(t, "<p>m2</p>", u.HTML)
}

func TestStoreUnsubscribeClosesChannel(t *testing.T) {
	s := NewStore()
	ch, cancel := s.Subscribe(1)
	cancel()
	cancel()

	_, open := <-ch
	assert.False(t, open)
}
