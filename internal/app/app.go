package app

import (
	"context"
	"time"

	"github.com/orgball2608/deso-feed/internal/feed"
	"github.com/orgball2608/deso-feed/internal/feed/feedimpl"
	"github.com/orgball2608/deso-feed/internal/graphql"
	"github.com/orgball2608/deso-feed/internal/graphql/graphqlimpl"
	"github.com/orgball2608/deso-feed/internal/page"
	"github.com/orgball2608/deso-feed/internal/posts"
	"github.com/orgball2608/deso-feed/internal/posts/postsimpl"
	"github.com/orgball2608/deso-feed/internal/ratelimit"
	"github.com/orgball2608/deso-feed/internal/scheduler"
	"github.com/orgball2608/deso-feed/internal/server"
	"github.com/orgball2608/deso-feed/pkg/config"
	"github.com/orgball2608/deso-feed/pkg/logger"
	"github.com/orgball2608/deso-feed/pkg/retry"
	"go.uber.org/fx"
)

var Module = fx.Options(
	fx.Provide(
		config.New,
		logger.FxOption,
		newDocument,
	),
	fx.Provide(
		fx.Annotate(
			graphqlimpl.New,
			fx.As(new(graphql.Client)),
		), fx.Annotate(
			postsimpl.New,
			fx.As(new(posts.Client)),
		), fx.Annotate(
			scheduler.New,
			fx.As(new(scheduler.Scheduler)),
		), fx.Annotate(
			newScrollLimiter,
			fx.As(new(ratelimit.Limiter)),
		), fx.Annotate(
			feedimpl.New,
			fx.As(new(feed.Client)),
		),
		server.New,
	),
	fx.Invoke(run),
)

func newDocument(cfg *config.Config) *page.Document {
	return page.NewDefault(cfg.Feed.ViewportHeight)
}

// newScrollLimiter allows one scroll check per viewer per frame.
func newScrollLimiter(cfg *config.Config) *ratelimit.InMemoryLimiter {
	return ratelimit.NewInMemoryLimiter(1, cfg.Feed.ScrollThrottle, 1)
}

func run(lc fx.Lifecycle, log logger.Logger, cfg *config.Config, doc *page.Document,
	feedClient feed.Client, srv *server.Server) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			if doc.RestoreSidebar() {
				log.Debug("Sidebar restored")
			}

			if err := srv.Start(); err != nil {
				return err
			}

			go func() {
				defer close(done)
				autoLoad(ctx, log, cfg, doc, feedClient)
			}()
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			feedClient.Close()
			<-done
			return srv.Stop(stopCtx)
		},
	})
}

// autoLoad waits for the feed container and loads the first page once.
func autoLoad(ctx context.Context, log logger.Logger, cfg *config.Config, doc *page.Document, feedClient feed.Client) {
	start := time.Now()
	ready, err := retry.Poll(ctx, log, "wait for feed container", doc.HasFeed, retry.PollConfig{
		Interval: cfg.Feed.WaitInterval,
		Timeout:  cfg.Feed.WaitTimeout,
	})
	if err != nil || !ready {
		log.Warn("Feed container not found, skipping initial load", "waited", time.Since(start).String())
		return
	}

	res := feedClient.Load(ctx, true)
	log.Info("Initial feed load finished", "status", string(res.Status), "appended", res.Appended)
}
