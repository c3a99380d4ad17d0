package usecase

import (
	"context"
	"sort"
	"sync"
	"time"

	"FinDash/internal/domain/models"
	applogger "FinDash/pkg/logger"
)

// Scheduler keeps pollable panels fresh with one ticker per panel. A tick
// while the panel is in flight is skipped, never queued.
type Scheduler struct {
	refresher *Refresher
	intervals map[string]time.Duration
	logger    *applogger.Logger

	once sync.Once
	wg   sync.WaitGroup
}

// NewScheduler polls each panel in intervals at its period. Non-positive
// periods disable polling for that panel.
func NewScheduler(r *Refresher, intervals map[string]time.Duration, logger *applogger.Logger) *Scheduler {
	return &Scheduler{refresher: r, intervals: intervals, logger: logger}
}

// Start launches the tickers once. Later calls are no-ops. Tickers stop when
// ctx ends.
func (s *Scheduler) Start(ctx context.Context) {
	s.once.Do(func() {
		names := make([]string, 0, len(s.intervals))
		for name := range s.intervals {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			every := s.intervals[name]
			if every <= 0 || !s.refresher.Has(name) {
				continue
			}
			s.logger.Info("panel polling started",
				applogger.String("panel", name),
				applogger.Duration("interval_ms", every),
			)
			s.wg.Add(1)
			go s.loop(ctx, name, every)
		}
	})
}

func (s *Scheduler) loop(ctx context.Context, name string, every time.Duration) {
	defer s.wg.Done()
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.refresher.Dispatch(ctx, name, models.TriggerTick)
		}
	}
}

// Wait blocks until every ticker loop has exited.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}
