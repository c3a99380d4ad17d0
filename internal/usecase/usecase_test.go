package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"FinDash/internal/domain/models"
	"FinDash/internal/view"
	applogger "FinDash/pkg/logger"
	"FinDash/pkg/markup"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeBackend struct {
	mu      sync.Mutex
	calls   map[string]int
	fail    map[string]error
	quotes  []models.MarketQuote
	answer  *models.Answer
	queries []models.QueryRequest

	// When set, LiveMarket and Query block until the gate is closed.
	marketGate chan struct{}
	queryGate  chan struct{}
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		calls:  make(map[string]int),
		fail:   make(map[string]error),
		answer: &models.Answer{Text: "ok", Provider: "groq"},
	}
}

func (b *fakeBackend) hit(panel string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls[panel]++
	return b.fail[panel]
}

func (b *fakeBackend) count(panel string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[panel]
}

func wait(ctx context.Context, gate chan struct{}) error {
	if gate == nil {
		return nil
	}
	select {
	case <-gate:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *fakeBackend) Health(ctx context.Context) (*models.Health, error) {
	if err := b.hit(models.PanelHealth); err != nil {
		return nil, err
	}
	return &models.Health{Status: "ok", ChunksCount: 10}, nil
}

func (b *fakeBackend) Stats(ctx context.Context) (*models.Stats, error) {
	if err := b.hit(models.PanelStats); err != nil {
		return nil, err
	}
	return &models.Stats{TotalChunks: 10, LLMModel: "llama"}, nil
}

func (b *fakeBackend) LiveMarket(ctx context.Context) (*models.MarketSnapshot, error) {
	if err := b.hit(models.PanelMarket); err != nil {
		return nil, err
	}
	if err := wait(ctx, b.marketGate); err != nil {
		return nil, err
	}
	b.mu.Lock()
	quotes := append([]models.MarketQuote(nil), b.quotes...)
	b.mu.Unlock()
	return &models.MarketSnapshot{Quotes: quotes}, nil
}

func (b *fakeBackend) Alerts(ctx context.Context, limit int) ([]models.AlertEvent, error) {
	if err := b.hit(models.PanelAlerts); err != nil {
		return nil, err
	}
	return []models.AlertEvent{{Kind: models.AlertNews, Message: "Fed holds", TimestampText: "—"}}, nil
}

func (b *fakeBackend) Feed(ctx context.Context, limit int, category string) ([]models.FeedItem, error) {
	if err := b.hit(models.PanelFeed); err != nil {
		return nil, err
	}
	return []models.FeedItem{{Title: "Headline " + category, Source: "rss"}}, nil
}

func (b *fakeBackend) Query(ctx context.Context, req models.QueryRequest) (*models.Answer, error) {
	if err := b.hit(models.PanelChat); err != nil {
		return nil, err
	}
	b.mu.Lock()
	b.queries = append(b.queries, req)
	b.mu.Unlock()
	if err := wait(ctx, b.queryGate); err != nil {
		return nil, err
	}
	return b.answer, nil
}

func (b *fakeBackend) Predictions(ctx context.Context) (*models.PredictionReport, error) {
	if err := b.hit(models.PanelPredictions); err != nil {
		return nil, err
	}
	return &models.PredictionReport{Confidence: 50}, nil
}

func (b *fakeBackend) PredictionStatus(ctx context.Context) (*models.HistoricalStatus, error) {
	if err := b.hit(models.PanelPredictionsStatus); err != nil {
		return nil, err
	}
	return &models.HistoricalStatus{}, nil
}

type fakeMetrics struct {
	mu        sync.Mutex
	fetches   map[string]int
	skips     map[string]int
	questions map[string]int
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{fetches: map[string]int{}, skips: map[string]int{}, questions: map[string]int{}}
}

func (m *fakeMetrics) RecordFetch(panel, result string, _ float64) {
	m.mu.Lock()
	m.fetches[panel+"/"+result]++
	m.mu.Unlock()
}

func (m *fakeMetrics) RecordSkip(panel, _ string) {
	m.mu.Lock()
	m.skips[panel]++
	m.mu.Unlock()
}

func (m *fakeMetrics) RecordQuestion(result string) {
	m.mu.Lock()
	m.questions[result]++
	m.mu.Unlock()
}

func (m *fakeMetrics) skipped(panel string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.skips[panel]
}

type fixture struct {
	backend *fakeBackend
	store   *view.Store
	metrics *fakeMetrics
	dash    *Dashboard
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	f := &fixture{backend: newFakeBackend(), store: view.NewStore(), metrics: newFakeMetrics()}
	if opts.HoursBack == 0 {
		opts.HoursBack = 24
	}
	d, err := NewDashboard(f.backend, f.store, view.NewRenderer(markup.NewFormatter(true)), f.metrics, nil, applogger.NewNop(), opts)
	require.NoError(t, err)
	f.dash = d
	t.Cleanup(d.Close)
	return f
}

func (f *fixture) fragment(t *testing.T, panel string) string {
	t.Helper()
	out, ok := f.store.Fragment(panel)
	require.True(t, ok, "no fragment for %s", panel)
	return out
}

func TestSortQuotesByAbsoluteChange(t *testing.T) {
	quotes := []models.MarketQuote{
		{Symbol: "A", ChangePct: 0.5},
		{Symbol: "B", ChangePct: -2.0},
		{Symbol: "C", ChangePct: 0.1},
	}
	SortQuotes(quotes)
	assert.Equal(t, []string{"B", "A", "C"}, symbols(quotes))
}

func TestSortQuotesTiesKeepBackendOrder(t *testing.T) {
	quotes := []models.MarketQuote{
		{Symbol: "X", ChangePct: 1},
		{Symbol: "Y", ChangePct: -1},
		{Symbol: "Z", ChangePct: 1},
	}
	SortQuotes(quotes)
	assert.Equal(t, []string{"X", "Y", "Z"}, symbols(quotes))
}

func symbols(qs []models.MarketQuote) []string {
	out := make([]string, 0, len(qs))
	for _, q := range qs {
		out = append(out, q.Symbol)
	}
	return out
}

func TestMarketFetchRendersSorted(t *testing.T) {
	f := newFixture(t, Options{})
	f.backend.quotes = []models.MarketQuote{
		{Symbol: "A", ChangePct: 0.5},
		{Symbol: "B", ChangePct: -2.0},
		{Symbol: "C", ChangePct: 0.1},
	}

	require.True(t, f.dash.refresher.Refresh(context.Background(), models.PanelMarket, models.TriggerUser))

	out := f.fragment(t, models.PanelMarket)
	b, a, c := strings.Index(out, ">B<"), strings.Index(out, ">A<"), strings.Index(out, ">C<")
	require.True(t, a > 0 && b > 0 && c > 0, out)
	assert.Less(t, b, a)
	assert.Less(t, a, c)
}

func TestEmptyMarketRendersNoData(t *testing.T) {
	f := newFixture(t, Options{})

	require.True(t, f.dash.refresher.Refresh(context.Background(), models.PanelMarket, models.TriggerUser))

	assert.Contains(t, f.fragment(t, models.PanelMarket), "No market data available.")
}

func TestInFlightGuardAllowsOneOutstandingRequest(t *testing.T) {
	f := newFixture(t, Options{})
	f.backend.marketGate = make(chan struct{})
	ctx := context.Background()

	require.True(t, f.dash.refresher.Dispatch(ctx, models.PanelMarket, models.TriggerUser))
	assert.False(t, f.dash.refresher.Dispatch(ctx, models.PanelMarket, models.TriggerUser))

	state, ok := f.dash.refresher.State(models.PanelMarket)
	require.True(t, ok)
	assert.True(t, state.InFlight())
	assert.Equal(t, 1, f.metrics.skipped(models.PanelMarket))

	close(f.backend.marketGate)
	f.dash.refresher.Wait()

	assert.Equal(t, 1, f.backend.count(models.PanelMarket))
	assert.False(t, state.InFlight())
	assert.False(t, state.LastFetchedAt().IsZero())

	require.True(t, f.dash.refresher.Dispatch(ctx, models.PanelMarket, models.TriggerUser))
	f.dash.refresher.Wait()
	assert.Equal(t, 2, f.backend.count(models.PanelMarket))
}

func TestGuardReleasedOnFailure(t *testing.T) {
	f := newFixture(t, Options{})
	f.backend.fail[models.PanelMarket] = errors.New("connection refused")

	require.True(t, f.dash.refresher.Refresh(context.Background(), models.PanelMarket, models.TriggerUser))

	state, _ := f.dash.refresher.State(models.PanelMarket)
	assert.False(t, state.InFlight())
	assert.EqualError(t, state.LastError(), "connection refused")
	assert.True(t, state.LastFetchedAt().IsZero())
	assert.Contains(t, f.fragment(t, models.PanelMarket), "Failed to load market data. Check if the API server is running.")
}

func TestPanelFailureIsIsolated(t *testing.T) {
	f := newFixture(t, Options{})
	f.backend.fail[models.PanelAlerts] = errors.New("boom")
	f.backend.quotes = []models.MarketQuote{{Symbol: "GC=F", Price: 2300, ChangePct: 1}}
	ctx := context.Background()

	f.dash.refresher.Refresh(ctx, models.PanelAlerts, models.TriggerUser)
	f.dash.refresher.Refresh(ctx, models.PanelMarket, models.TriggerUser)

	assert.Contains(t, f.fragment(t, models.PanelAlerts), "Failed to load alerts.")
	assert.Contains(t, f.fragment(t, models.PanelMarket), "GC=F")

	for _, p := range f.dash.State().Panels {
		if p.Name == models.PanelAlerts {
			assert.Equal(t, "boom", p.LastError)
		} else {
			assert.Empty(t, p.LastError, p.Name)
		}
	}
}

func TestCanceledFetchLeavesPreviousFragment(t *testing.T) {
	f := newFixture(t, Options{})
	f.backend.marketGate = make(chan struct{})
	f.store.Replace(models.PanelMarket, "previous")

	ctx, cancel := context.WithCancel(context.Background())
	require.True(t, f.dash.refresher.Dispatch(ctx, models.PanelMarket, models.TriggerTick))
	cancel()
	f.dash.refresher.Wait()

	assert.Equal(t, "previous", f.fragment(t, models.PanelMarket))
	state, _ := f.dash.refresher.State(models.PanelMarket)
	assert.False(t, state.InFlight())
}

func TestTabLazyLoadsOnce(t *testing.T) {
	f := newFixture(t, Options{})

	require.NoError(t, f.dash.Activate("feed"))
	f.dash.refresher.Wait()
	assert.Equal(t, 1, f.backend.count(models.PanelFeed))
	assert.True(t, f.store.Visible("feed"))

	require.NoError(t, f.dash.Activate("predictions"))
	f.dash.refresher.Wait()
	assert.False(t, f.store.Visible("feed"))
	assert.True(t, f.store.Visible("predictions"))
	assert.Equal(t, 1, f.backend.count(models.PanelPredictions))
	assert.Equal(t, 1, f.backend.count(models.PanelPredictionsStatus))

	require.NoError(t, f.dash.Activate("feed"))
	f.dash.refresher.Wait()
	assert.Equal(t, 1, f.backend.count(models.PanelFeed))
	assert.Equal(t, "feed", f.dash.ActiveTab())
	assert.Equal(t, []string{"feed", "predictions"}, f.dash.State().LoadedTabs)
}

func TestChatTabFetchesNothing(t *testing.T) {
	f := newFixture(t, Options{})

	require.NoError(t, f.dash.Activate("chat"))
	f.dash.refresher.Wait()

	for _, p := range []string{models.PanelMarket, models.PanelFeed, models.PanelPredictions} {
		assert.Zero(t, f.backend.count(p), p)
	}
}

func TestUnknownTab(t *testing.T) {
	f := newFixture(t, Options{})
	assert.ErrorIs(t, f.dash.Activate("portfolio"), ErrUnknownTab)
}

func TestStartLoadsHeaderAndDefaultTab(t *testing.T) {
	f := newFixture(t, Options{})

	f.dash.Start(context.Background())
	f.dash.Start(context.Background())

	require.Eventually(t, func() bool {
		for _, p := range []string{models.PanelHealth, models.PanelStats, models.PanelMarket, models.PanelAlerts} {
			if f.backend.count(p) != 1 {
				return false
			}
		}
		return true
	}, time.Second, 5*time.Millisecond)

	assert.Zero(t, f.backend.count(models.PanelFeed))
	assert.True(t, f.store.Visible("market"))
	assert.False(t, f.store.Visible("feed"))

	// The default tab counts as loaded: activating it again fetches nothing.
	require.NoError(t, f.dash.Activate("market"))
	f.dash.Close()
	assert.Equal(t, 1, f.backend.count(models.PanelMarket))
}

func TestNoFetchStartsAfterClose(t *testing.T) {
	f := newFixture(t, Options{})
	f.dash.Close()

	ok, err := f.dash.Refresh(models.PanelMarket, "")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, f.dash.refresher.Refresh(f.dash.ctx, models.PanelAlerts, models.TriggerUser))
	require.NoError(t, f.dash.Activate("feed"))
	f.dash.refresher.Wait()

	assert.Zero(t, f.backend.count(models.PanelMarket))
	assert.Zero(t, f.backend.count(models.PanelAlerts))
	assert.Zero(t, f.backend.count(models.PanelFeed))
}

func TestDispatchDuringCloseIsSafe(t *testing.T) {
	f := newFixture(t, Options{})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_, _ = f.dash.Refresh(models.PanelMarket, "")
			}
		}()
	}
	f.dash.Close()
	wg.Wait()

	before := f.backend.count(models.PanelMarket)
	ok, _ := f.dash.Refresh(models.PanelMarket, "")
	assert.False(t, ok)
	f.dash.refresher.Wait()
	assert.Equal(t, before, f.backend.count(models.PanelMarket))
}

func TestSchedulerSkipsTicksWhileInFlight(t *testing.T) {
	f := newFixture(t, Options{MarketInterval: 5 * time.Millisecond})
	f.backend.marketGate = make(chan struct{})

	ctx, cancel := context.WithCancel(context.Background())
	f.dash.scheduler.Start(ctx)

	require.Eventually(t, func() bool {
		return f.metrics.skipped(models.PanelMarket) >= 2
	}, time.Second, time.Millisecond)
	assert.Equal(t, 1, f.backend.count(models.PanelMarket))

	cancel()
	f.dash.scheduler.Wait()
	f.dash.refresher.Wait()
}

func TestExplicitFeedRefreshWithCategory(t *testing.T) {
	f := newFixture(t, Options{})

	ok, err := f.dash.Refresh(models.PanelFeed, "tech")
	require.NoError(t, err)
	require.True(t, ok)
	f.dash.refresher.Wait()

	assert.Contains(t, f.fragment(t, models.PanelFeed), "Headline tech")
	assert.Equal(t, "tech", f.dash.State().FeedCategory)

	_, err = f.dash.Refresh(models.PanelFeed, "sports")
	assert.ErrorIs(t, err, ErrInvalidCategory)
	_, err = f.dash.Refresh("portfolio", "")
	assert.ErrorIs(t, err, ErrUnknownPanel)
}

func TestChatEndToEnd(t *testing.T) {
	f := newFixture(t, Options{})
	f.backend.answer = &models.Answer{
		Text:       "**USD** rose.\n\n- Fed hawkish\n- Oil dipped",
		Provider:   "groq",
		ChunksUsed: 3,
	}

	res, done := f.dash.Ask("Why did the dollar strengthen today?")
	require.Equal(t, SubmitAccepted, res)
	<-done

	turns := f.dash.Transcript()
	require.Len(t, turns, 2)
	assert.Equal(t, models.RoleUser, turns[0].Role)
	assert.Equal(t, "Why did the dollar strengthen today?", turns[0].FormattedMarkup)

	answer := turns[1]
	assert.Equal(t, models.TurnDone, answer.Status)
	assert.Equal(t, 1, strings.Count(answer.FormattedMarkup, "<strong>USD</strong>"))
	assert.Equal(t, 1, strings.Count(answer.FormattedMarkup, "<p>"))
	assert.Contains(t, answer.FormattedMarkup, "<ul><li>Fed hawkish</li><li>Oil dipped</li></ul>")
	assert.Contains(t, answer.FormattedMarkup, "Provider: groq")
	assert.Contains(t, answer.FormattedMarkup, "3 chunks")

	require.Len(t, f.backend.queries, 1)
	q := f.backend.queries[0]
	assert.Equal(t, "Why did the dollar strengthen today?", q.Question)
	assert.Equal(t, 24, q.HoursBack)
	assert.NotEmpty(t, q.SessionID)

	assert.Contains(t, f.fragment(t, models.PanelChat), "<strong>USD</strong>")
}

func TestChatRejectsWhileSending(t *testing.T) {
	f := newFixture(t, Options{})
	f.backend.queryGate = make(chan struct{})

	res, done := f.dash.Ask("first")
	require.Equal(t, SubmitAccepted, res)
	assert.True(t, f.dash.State().Chat.Sending)

	res2, done2 := f.dash.Ask("second")
	assert.Equal(t, SubmitBusy, res2)
	assert.Nil(t, done2)
	assert.Len(t, f.dash.Transcript(), 2)
	assert.Equal(t, models.TurnPending, f.dash.Transcript()[1].Status)

	close(f.backend.queryGate)
	<-done
	assert.False(t, f.dash.State().Chat.Sending)

	res3, done3 := f.dash.Ask("third")
	require.Equal(t, SubmitAccepted, res3)
	<-done3
	assert.Len(t, f.dash.Transcript(), 4)
	assert.Equal(t, 2, f.backend.count(models.PanelChat))
}

func TestChatIgnoresEmptyInput(t *testing.T) {
	f := newFixture(t, Options{})

	res, done := f.dash.Ask("   \n\t")
	assert.Equal(t, SubmitEmpty, res)
	assert.Nil(t, done)
	assert.Empty(t, f.dash.Transcript())
	assert.Zero(t, f.backend.count(models.PanelChat))
}

func TestChatFailureShowsEscapedError(t *testing.T) {
	f := newFixture(t, Options{})
	f.backend.fail[models.PanelChat] = errors.New("POST /query: <timeout>")

	res, done := f.dash.Ask("<b>hi</b>")
	require.Equal(t, SubmitAccepted, res)
	<-done

	turns := f.dash.Transcript()
	require.Len(t, turns, 2)
	assert.Equal(t, "&lt;b&gt;hi&lt;/b&gt;", turns[0].FormattedMarkup)
	assert.Equal(t, models.TurnError, turns[1].Status)
	assert.Contains(t, turns[1].FormattedMarkup, "&lt;timeout&gt;")
	assert.NotContains(t, turns[1].FormattedMarkup, "<timeout>")
}

func TestNewDashboardRejectsBadOptions(t *testing.T) {
	_, err := NewDashboard(newFakeBackend(), view.NewStore(), view.NewRenderer(nil), newFakeMetrics(), nil, applogger.NewNop(),
		Options{DefaultTab: "portfolio"})
	assert.ErrorIs(t, err, ErrUnknownTab)

	_, err = NewDashboard(newFakeBackend(), view.NewStore(), view.NewRenderer(nil), newFakeMetrics(), nil, applogger.NewNop(),
		Options{FeedCategory: "sports"})
	assert.ErrorIs(t, err, ErrInvalidCategory)
}
