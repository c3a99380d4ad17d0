package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"FinDash/internal/domain/models"
	"FinDash/internal/repository"
	"FinDash/internal/service/ratelimit"
	"FinDash/internal/usecase"
	"FinDash/internal/view"
	applogger "FinDash/pkg/logger"
	"FinDash/pkg/markup"
)

type stubBackend struct {
	mu        sync.Mutex
	feedCats  []string
	questions []string
	gate      chan struct{}
}

func (b *stubBackend) Health(context.Context) (*models.Health, error) {
	return &models.Health{Status: "ok"}, nil
}

func (b *stubBackend) Stats(context.Context) (*models.Stats, error) {
	return &models.Stats{LLMModel: "llama"}, nil
}

func (b *stubBackend) LiveMarket(context.Context) (*models.MarketSnapshot, error) {
	return &models.MarketSnapshot{Quotes: []models.MarketQuote{{Symbol: "^GSPC", Price: 5000, ChangePct: 1.2}}}, nil
}

func (b *stubBackend) Alerts(context.Context, int) ([]models.AlertEvent, error) {
	return nil, nil
}

func (b *stubBackend) Feed(_ context.Context, _ int, category string) ([]models.FeedItem, error) {
	b.mu.Lock()
	b.feedCats = append(b.feedCats, category)
	b.mu.Unlock()
	return []models.FeedItem{{Title: "Headline " + category, Source: "rss"}}, nil
}

func (b *stubBackend) Query(ctx context.Context, req models.QueryRequest) (*models.Answer, error) {
	b.mu.Lock()
	b.questions = append(b.questions, req.Question)
	gate := b.gate
	b.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return &models.Answer{Text: "answer", Provider: "groq"}, nil
}

func (b *stubBackend) Predictions(context.Context) (*models.PredictionReport, error) {
	return &models.PredictionReport{}, nil
}

func (b *stubBackend) PredictionStatus(context.Context) (*models.HistoricalStatus, error) {
	return &models.HistoricalStatus{}, nil
}

type nopMetrics struct{}

func (nopMetrics) RecordFetch(string, string, float64) {}
func (nopMetrics) RecordSkip(string, string)           {}
func (nopMetrics) RecordQuestion(string)               {}

type fixture struct {
	e       *echo.Echo
	store   *view.Store
	backend *stubBackend
	dash    *usecase.Dashboard
}

func newFixture(t *testing.T, limiter *ratelimit.Limiter) *fixture {
	t.Helper()

	b := &stubBackend{}
	store := view.NewStore()
	dash, err := usecase.NewDashboard(b, store, view.NewRenderer(markup.NewFormatter(true)), nopMetrics{},
		repository.NoopEventPublisher{}, applogger.NewNop(), usecase.Options{DefaultTab: "market"})
	require.NoError(t, err)
	dash.Start(context.Background())
	t.Cleanup(dash.Close)

	e := echo.New()
	NewDashboardHandler(applogger.NewNop(), dash, store, limiter, "Test Dashboard").RegisterRoutes(e)
	return &fixture{e: e, store: store, backend: b, dash: dash}
}

func (f *fixture) do(method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)
	return rec
}

func (f *fixture) eventuallyFragment(t *testing.T, panel, want string) {
	t.Helper()
	assert.Eventually(t, func() bool {
		frag, _ := f.store.Fragment(panel)
		return strings.Contains(frag, want)
	}, 2*time.Second, 5*time.Millisecond, "panel %s never contained %q", panel, want)
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, dest interface{}) {
	t.Helper()
	var env struct {
		Status int             `json:"status"`
		Data   json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	require.NoError(t, json.Unmarshal(env.Data, dest))
}

func findByID(n *html.Node, id string) *html.Node {
	if n.Type == html.ElementNode {
		for _, a := range n.Attr {
			if a.Key == "id" && a.Val == id {
				return n
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findByID(c, id); found != nil {
			return found
		}
	}
	return nil
}

func TestShell_HasEveryPanelContainer(t *testing.T) {
	f := newFixture(t, nil)
	f.eventuallyFragment(t, models.PanelMarket, "GSPC")

	rec := f.do(http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get(echo.HeaderContentType), "text/html")

	doc, err := html.Parse(strings.NewReader(rec.Body.String()))
	require.NoError(t, err)
	for _, id := range []string{
		"panel-health", "panel-stats", "panel-market", "panel-alerts", "panel-feed",
		"panel-predictions", "panel-predictions_status", "panel-chat",
		"tab-market", "tab-feed", "tab-predictions", "tab-chat", "feed-category", "ask",
	} {
		assert.NotNil(t, findByID(doc, id), id)
	}
}

func TestPanel_CurrentFragmentAndUnknown(t *testing.T) {
	f := newFixture(t, nil)
	f.eventuallyFragment(t, models.PanelHealth, `<span class="badge">ok</span>`)

	rec := f.do(http.MethodGet, "/panels/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `<span class="badge">ok</span>`)

	rec = f.do(http.MethodGet, "/panels/weather", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "ERR_NOT_FOUND")
}

func TestRefresh_FeedCategory(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(http.MethodPost, "/panels/feed/refresh?category=sports", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(http.MethodPost, "/panels/feed/refresh?category=tech", "")
	require.Equal(t, http.StatusAccepted, rec.Code)
	var res RefreshResult
	decodeData(t, rec, &res)
	assert.Equal(t, "feed", res.Panel)

	f.eventuallyFragment(t, models.PanelFeed, "Headline tech")
	assert.Equal(t, "tech", f.dash.State().FeedCategory)

	rec = f.do(http.MethodPost, "/panels/nope/refresh", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestActivate(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(http.MethodPost, "/tabs/settings", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(http.MethodPost, "/tabs/feed", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var res TabResult
	decodeData(t, rec, &res)
	assert.Equal(t, "feed", res.Active)

	f.eventuallyFragment(t, models.PanelFeed, "Headline all")
	assert.True(t, f.store.Visible("feed"))
	assert.False(t, f.store.Visible("market"))

	rec = f.do(http.MethodGet, "/state", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var st usecase.DashboardState
	decodeData(t, rec, &st)
	assert.Equal(t, "feed", st.ActiveTab)
	assert.ElementsMatch(t, []string{"feed", "market"}, st.LoadedTabs)
}

func TestAsk_AcceptedBusyEmpty(t *testing.T) {
	f := newFixture(t, nil)
	gate := make(chan struct{})
	f.backend.mu.Lock()
	f.backend.gate = gate
	f.backend.mu.Unlock()

	rec := f.do(http.MethodPost, "/ask", `{"question":"   "}`)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = f.do(http.MethodPost, "/ask", `{"question":"What moved USD?"}`)
	require.Equal(t, http.StatusAccepted, rec.Code)
	var res AskResult
	decodeData(t, rec, &res)
	assert.Equal(t, "accepted", res.Status)
	assert.NotEmpty(t, res.SessionID)

	rec = f.do(http.MethodPost, "/ask", `{"question":"And EUR?"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	close(gate)
	f.eventuallyFragment(t, models.PanelChat, "Provider: groq")

	rec = f.do(http.MethodGet, "/chat", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "What moved USD?")

	f.backend.mu.Lock()
	defer f.backend.mu.Unlock()
	assert.Equal(t, []string{"What moved USD?"}, f.backend.questions)
}

func TestAsk_RejectsOversizedQuestion(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(http.MethodPost, "/ask", `{"question":"`+strings.Repeat("a", 2001)+`"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "ERR_MAX")
}

func TestRateLimit(t *testing.T) {
	f := newFixture(t, ratelimit.New(ratelimit.WithRate(1, 0)))

	rec := f.do(http.MethodPost, "/panels/health/refresh", "")
	assert.Equal(t, http.StatusAccepted, rec.Code)

	rec = f.do(http.MethodPost, "/panels/health/refresh", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	// buckets are per route
	rec = f.do(http.MethodPost, "/ask", `{"question":""}`)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
