package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	xhttp "StratLab/pkg/http"
	applogger "StratLab/pkg/logger"
	"StratLab/pkg/queue"
)

// Mode selects which parts of the application run in this process.
type Mode string

const (
	ModeAPI    Mode = "api"
	ModeWorker Mode = "worker"
	ModeAll    Mode = "all"
)

// ParseMode accepts api, worker or all. Empty means all.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return ModeAll, nil
	case ModeAPI, ModeWorker, ModeAll:
		return m, nil
	default:
		return "", fmt.Errorf("unknown mode %q (want api, worker or all)", s)
	}
}

// ServesHTTP reports whether the HTTP API runs in this mode.
func (m Mode) ServesHTTP() bool { return m == ModeAPI || m == ModeAll }

// ConsumesQueue reports whether queue workers run in this mode.
func (m Mode) ConsumesQueue() bool { return m == ModeWorker || m == ModeAll }

// App encapsulates the entire application lifecycle.
type App struct {
	mode            Mode
	logger          *applogger.Logger
	httpServer      *xhttp.Server
	queue           *queue.RedisQueue
	closers         []io.Closer
	shutdownTimeout time.Duration
}

// New creates an App. The queue is started in every mode since the API
// publishes through it. Closers run last, in order.
func New(
	mode Mode,
	lgr *applogger.Logger,
	httpServer *xhttp.Server,
	q *queue.RedisQueue,
	shutdownTimeout time.Duration,
	closers ...io.Closer,
) *App {
	if shutdownTimeout <= 0 {
		shutdownTimeout = 15 * time.Second
	}
	return &App{
		mode:            mode,
		logger:          applogger.OrNop(lgr).Component("app"),
		httpServer:      httpServer,
		queue:           q,
		closers:         closers,
		shutdownTimeout: shutdownTimeout,
	}
}

// Mode returns the run mode.
func (a *App) Mode() Mode { return a.mode }

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return a.RunContext(ctx)
}

// RunContext starts the application and blocks until ctx is done.
func (a *App) RunContext(ctx context.Context) error {
	if a.queue != nil {
		if err := a.queue.Start(); err != nil {
			a.close()
			return fmt.Errorf("start queue: %w", err)
		}
	}
	if a.mode.ServesHTTP() && a.httpServer != nil {
		if err := a.httpServer.Start(); err != nil {
			a.shutdown()
			return fmt.Errorf("start http: %w", err)
		}
	}
	a.logger.Info("application started", applogger.String("mode", string(a.mode)))

	<-ctx.Done()
	a.logger.Info("shutdown signal received")
	return a.shutdown()
}

// shutdown stops the HTTP server first so no new work is queued, then the
// queue workers, then the shared clients.
func (a *App) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
	defer cancel()

	var errs []error
	if a.mode.ServesHTTP() && a.httpServer != nil {
		if err := a.httpServer.Stop(ctx); err != nil {
			a.logger.Error("http shutdown error", applogger.Error(err))
			errs = append(errs, err)
		}
	}
	if a.queue != nil {
		if err := a.queue.Stop(ctx); err != nil {
			a.logger.Warn("queue stop error", applogger.Error(err))
			errs = append(errs, err)
		}
	}
	errs = append(errs, a.close()...)

	a.logger.Info("shutdown complete")
	return errors.Join(errs...)
}

func (a *App) close() []error {
	var errs []error
	for _, c := range a.closers {
		if c == nil {
			continue
		}
		if err := c.Close(); err != nil {
			a.logger.Warn("close error", applogger.Error(err))
			errs = append(errs, err)
		}
	}
	return errs
}
