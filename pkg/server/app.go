package server

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"FinDash/internal/service/relay"
	"FinDash/internal/usecase"
	"FinDash/pkg/config"
	xhttp "FinDash/pkg/http"
	applogger "FinDash/pkg/logger"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg     *config.Config
	logger  *applogger.Logger
	dash    *usecase.Dashboard
	http    *xhttp.Server
	bridge  *relay.Bridge
	closers []io.Closer
}

// New creates a new App instance. bridge may be nil when the Redis relay is
// disabled. closers are closed in order on shutdown.
func New(
	cfg *config.Config,
	logger *applogger.Logger,
	dash *usecase.Dashboard,
	srv *xhttp.Server,
	bridge *relay.Bridge,
	closers []io.Closer,
) *App {
	return &App{
		cfg:     cfg,
		logger:  logger,
		dash:    dash,
		http:    srv,
		bridge:  bridge,
		closers: closers,
	}
}

// Run starts the application and blocks until SIGINT/SIGTERM.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return a.RunContext(ctx)
}

// RunContext starts the dashboard, the HTTP server and the relay, and
// shuts everything down once ctx ends or the server fails.
func (a *App) RunContext(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	a.dash.Start(ctx)
	a.logger.Info("dashboard started",
		applogger.String("env", a.cfg.Environment),
		applogger.String("backend", a.cfg.Backend.BaseURL),
		applogger.String("default_tab", a.cfg.Dashboard.DefaultTab),
	)

	g, gctx := errgroup.WithContext(ctx)
	if a.bridge != nil {
		g.Go(func() error { return a.bridge.Run(gctx) })
		a.logger.Info("redis relay started", applogger.String("channel", a.cfg.Redis.Channel))
	}

	serveErr := a.http.Start()

	var runErr error
	select {
	case <-gctx.Done():
		if ctx.Err() != nil {
			a.logger.Info("shutdown signal received")
		}
	case err, ok := <-serveErr:
		if ok && err != nil {
			runErr = err
			a.logger.Error("http server error", applogger.Error(err))
		}
	}
	cancel()

	a.shutdown()
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) && runErr == nil {
		runErr = err
	}
	return runErr
}

func (a *App) shutdown() {
	a.logger.Info("shutting down")

	if err := a.http.Stop(context.Background()); err != nil {
		a.logger.Error("http shutdown error", applogger.Error(err))
	}

	a.dash.Close()
	// flush aggregated logs while the producer is still open
	a.logger.RemoveCollector()

	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			a.logger.Warn("close error", applogger.Error(err))
		}
	}

	a.logger.Info("shutdown complete")
}
