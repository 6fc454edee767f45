package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/orgball2608/deso-feed/pkg/logger"
	"go.uber.org/fx"
)

// Scheduler runs deferred one-shot tasks. Pending tasks are dropped on Shutdown.
type Scheduler interface {
	After(delay time.Duration, name string, task func()) error
	Shutdown() error
}

type Opts struct {
	fx.In
	LC     fx.Lifecycle
	Logger logger.Logger
}

type Gocron struct {
	scheduler gocron.Scheduler
	logger    logger.Logger
}

var _ Scheduler = (*Gocron)(nil)

// New creates a started scheduler that shuts down with the application.
func New(opts Opts) (*Gocron, error) {
	g, err := NewGocron(opts.Logger)
	if err != nil {
		return nil, err
	}

	opts.LC.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			opts.Logger.Info("Stopping task scheduler")
			return g.Shutdown()
		},
	})

	return g, nil
}

func NewGocron(log logger.Logger) (*Gocron, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}
	s.Start()

	return &Gocron{
		scheduler: s,
		logger:    log.WithComponent("Scheduler"),
	}, nil
}

func (g *Gocron) After(delay time.Duration, name string, task func()) error {
	start := gocron.OneTimeJobStartImmediately()
	if delay > 0 {
		start = gocron.OneTimeJobStartDateTime(time.Now().Add(delay))
	}

	_, err := g.scheduler.NewJob(
		gocron.OneTimeJob(start),
		gocron.NewTask(task),
		gocron.WithName(name),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule %s: %w", name, err)
	}

	g.logger.Debug("Scheduled task", "name", name, "delay", delay.String())
	return nil
}

func (g *Gocron) Shutdown() error {
	if err := g.scheduler.Shutdown(); err != nil {
		g.logger.Error("Failed to shut down scheduler", "error", err)
		return err
	}
	return nil
}
