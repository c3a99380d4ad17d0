package usecase

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"FinDash/internal/domain/models"
	"FinDash/internal/domain/repository"
	"FinDash/internal/view"
	applogger "FinDash/pkg/logger"
)

// SubmitResult is the outcome of ChatController.Submit.
type SubmitResult int

const (
	SubmitAccepted SubmitResult = iota
	SubmitBusy
	SubmitEmpty
)

func (r SubmitResult) String() string {
	switch r {
	case SubmitAccepted:
		return "accepted"
	case SubmitBusy:
		return "busy"
	default:
		return "empty"
	}
}

// ChatController sends one question at a time and keeps the append-only
// transcript. Only the pending placeholder of the question in flight is
// ever rewritten.
type ChatController struct {
	backend   repository.Backend
	surface   repository.Surface
	renderer  *view.Renderer
	metrics   repository.Metrics
	events    repository.EventPublisher
	logger    *applogger.Logger
	hoursBack int
	sessionID string

	sending atomic.Bool

	mu    sync.Mutex
	turns []models.ChatTurn

	wg sync.WaitGroup
}

// NewChatController queries with a lookback of hoursBack hours under a fresh
// session id.
func NewChatController(backend repository.Backend, surface repository.Surface, renderer *view.Renderer,
	metrics repository.Metrics, events repository.EventPublisher, logger *applogger.Logger, hoursBack int) *ChatController {
	return &ChatController{
		backend:   backend,
		surface:   surface,
		renderer:  renderer,
		metrics:   metrics,
		events:    events,
		logger:    logger,
		hoursBack: hoursBack,
		sessionID: uuid.NewString(),
	}
}

// Submit appends the question and a pending answer, then queries the backend
// in the background. Empty input and submissions while another question is
// sending are rejected without touching the transcript. done is closed once
// the placeholder is resolved; it is nil unless the result is SubmitAccepted.
func (c *ChatController) Submit(ctx context.Context, question string) (res SubmitResult, done <-chan struct{}) {
	q := strings.TrimSpace(question)
	if q == "" {
		c.metrics.RecordQuestion(SubmitEmpty.String())
		return SubmitEmpty, nil
	}
	if !c.sending.CompareAndSwap(false, true) {
		c.metrics.RecordQuestion(SubmitBusy.String())
		return SubmitBusy, nil
	}

	c.mu.Lock()
	c.turns = append(c.turns, models.ChatTurn{
		ID:              uuid.NewString(),
		Role:            models.RoleUser,
		RawText:         question,
		FormattedMarkup: c.renderer.UserTurn(question),
		Status:          models.TurnDone,
	})
	idx := len(c.turns)
	c.turns = append(c.turns, models.ChatTurn{
		ID:              uuid.NewString(),
		Role:            models.RoleAssistant,
		FormattedMarkup: c.renderer.PendingTurn(),
		Status:          models.TurnPending,
	})
	c.renderLocked()
	c.mu.Unlock()

	ch := make(chan struct{})
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer close(ch)
		c.ask(ctx, idx, q)
	}()
	return SubmitAccepted, ch
}

func (c *ChatController) ask(ctx context.Context, idx int, q string) {
	defer c.sending.Store(false)

	start := time.Now()
	ans, err := c.backend.Query(ctx, models.QueryRequest{
		Question:  q,
		HoursBack: c.hoursBack,
		SessionID: c.sessionID,
	})
	elapsed := time.Since(start)

	ev := models.PanelEvent{Panel: models.PanelChat, Trigger: models.TriggerUser, Duration: elapsed, At: start}

	c.mu.Lock()
	turn := &c.turns[idx]
	if err != nil {
		turn.RawText = err.Error()
		turn.FormattedMarkup = c.renderer.FailedTurn(err)
		turn.Status = models.TurnError
		ev.Outcome, ev.Error = models.OutcomeError, err.Error()
	} else {
		turn.RawText = ans.Text
		turn.FormattedMarkup = c.renderer.AnswerTurn(ans)
		turn.Status = models.TurnDone
		ev.Outcome = models.OutcomeOK
	}
	c.renderLocked()
	c.mu.Unlock()

	if err != nil {
		c.metrics.RecordQuestion("failed")
		c.logger.Warn("chat query failed",
			applogger.String("session_id", c.sessionID),
			applogger.Duration("duration_ms", elapsed),
			applogger.Error(err),
		)
	} else {
		c.metrics.RecordQuestion("answered")
		c.logger.Info("chat query answered",
			applogger.String("session_id", c.sessionID),
			applogger.String("provider", ans.Provider),
			applogger.Int("chunks_used", ans.ChunksUsed),
			applogger.Duration("duration_ms", elapsed),
		)
	}

	if c.events != nil {
		pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
		defer cancel()
		if perr := c.events.PublishEvent(pctx, ev); perr != nil {
			c.logger.Debug("chat event not published", applogger.Error(perr))
		}
	}
}

// renderLocked requires c.mu.
func (c *ChatController) renderLocked() {
	out, err := c.renderer.Chat(c.turns)
	if err != nil {
		c.logger.Error("chat render failed", applogger.Error(err))
		out = c.renderer.Error(models.PanelChat)
	}
	c.surface.Replace(models.PanelChat, out)
}

// Render redraws the transcript, for pages that load before any question.
func (c *ChatController) Render() {
	c.mu.Lock()
	c.renderLocked()
	c.mu.Unlock()
}

// Transcript returns a copy of the turns in submission order.
func (c *ChatController) Transcript() []models.ChatTurn {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.ChatTurn, len(c.turns))
	copy(out, c.turns)
	return out
}

// Sending reports whether a question is in flight.
func (c *ChatController) Sending() bool { return c.sending.Load() }

// SessionID is sent with every query so the backend can keep history.
func (c *ChatController) SessionID() string { return c.sessionID }

// Wait blocks until the question in flight, if any, is resolved.
func (c *ChatController) Wait() { c.wg.Wait() }
