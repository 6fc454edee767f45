package feedimpl

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/orgball2608/deso-feed/internal/domain"
	"github.com/orgball2608/deso-feed/internal/feed"
	"github.com/orgball2608/deso-feed/internal/page"
	"github.com/orgball2608/deso-feed/internal/posts"
	"github.com/orgball2608/deso-feed/internal/ratelimit"
	"github.com/orgball2608/deso-feed/internal/render"
	"github.com/orgball2608/deso-feed/internal/scheduler"
	"github.com/orgball2608/deso-feed/pkg/config"
	"github.com/orgball2608/deso-feed/pkg/errors"
	"github.com/orgball2608/deso-feed/pkg/logger"
	"go.uber.org/fx"
)

// fillSlack is how far past the viewport the document must reach before
// auto continuation stops.
const fillSlack = 50

type Opts struct {
	fx.In

	Posts     posts.Client
	Document  *page.Document
	Scheduler scheduler.Scheduler
	Limiter   ratelimit.Limiter
	Logger    logger.Logger
	Config    *config.Config
}

type request struct {
	id        uuid.UUID
	cancel    context.CancelFunc
	startedAt time.Time
}

type Controller struct {
	posts     posts.Client
	document  *page.Document
	scheduler scheduler.Scheduler
	limiter   ratelimit.Limiter
	logger    logger.Logger

	pageSize        int
	guardWindow     time.Duration
	autoLoadDelay   time.Duration
	scrollThreshold int

	now func() time.Time

	lifecycle context.Context
	stop      context.CancelFunc

	mu          sync.Mutex
	endCursor   *string
	hasNextPage bool

	// inflight is the loading flag: non-nil exactly while a request owns the slot.
	inflight *request
}

var _ feed.Client = (*Controller)(nil)

func New(opts Opts) *Controller {
	lifecycle, stop := context.WithCancel(context.Background())

	return &Controller{
		posts:           opts.Posts,
		document:        opts.Document,
		scheduler:       opts.Scheduler,
		limiter:         opts.Limiter,
		logger:          opts.Logger.WithComponent("Feed"),
		pageSize:        opts.Config.Feed.PageSize,
		guardWindow:     opts.Config.Feed.GuardWindow,
		autoLoadDelay:   opts.Config.Feed.AutoLoadDelay,
		scrollThreshold: opts.Config.Feed.ScrollThreshold,
		now:             time.Now,
		lifecycle:       lifecycle,
		stop:            stop,
		hasNextPage:     true,
	}
}

func (c *Controller) LoadMore(ctx context.Context) feed.Result {
	return c.Load(ctx, false)
}

func (c *Controller) Load(ctx context.Context, reset bool) feed.Result {
	c.logger.Debug("loadPosts called", "reset", reset, "limit", c.pageSize)

	if !c.document.HasFeed() {
		return feed.Result{Status: feed.StatusNoFeed}
	}

	reqCtx, cancel := context.WithCancel(c.lifecycle)
	defer cancel()

	req, after, status := c.begin(reset, cancel)
	if req == nil {
		return feed.Result{Status: status}
	}

	stopAfter := context.AfterFunc(ctx, cancel)
	defer stopAfter()

	pg, err := c.posts.FetchPostsPage(reqCtx, c.pageSize, after)

	result := c.complete(req, reset, pg, err)
	if result.AutoContinue {
		c.scheduleContinuation()
	}
	return result
}

// begin applies the guard window and claims the loading slot. It returns a
// nil request when the call must not fetch.
func (c *Controller) begin(reset bool, cancel context.CancelFunc) (*request, *string, feed.Status) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if prev := c.inflight; prev != nil {
		age := c.now().Sub(prev.startedAt)
		if age < c.guardWindow {
			c.logger.Debug("previous request in-flight and recent, skipping new load", "age", age.String())
			return nil, nil, feed.StatusSuppressed
		}
		c.logger.Debug("cancelling stale in-flight request", "id", prev.id.String(), "age", age.String())
		prev.cancel()
		c.finishLocked()
	}

	if reset {
		c.endCursor = nil
		c.hasNextPage = true
	}

	if !c.hasNextPage {
		c.logger.Debug("no more pages")
		return nil, nil, feed.StatusExhausted
	}

	req := &request{id: uuid.New(), cancel: cancel, startedAt: c.now()}
	c.inflight = req

	var after *string
	if !reset {
		after = c.endCursor
	}
	return req, after, ""
}

// finishLocked releases the loading slot. Callers hold c.mu.
func (c *Controller) finishLocked() {
	c.inflight = nil
}

func (c *Controller) complete(req *request, reset bool, pg domain.Page, err error) feed.Result {
	c.mu.Lock()
	defer c.mu.Unlock()

	// A newer load cancelled this one and already released the slot.
	if c.inflight == nil || c.inflight.id != req.id {
		return feed.Result{Status: feed.StatusSuperseded}
	}
	defer c.finishLocked()

	if err != nil {
		if errors.IsCanceled(err) {
			c.logger.Debug("load cancelled", "id", req.id.String())
			return feed.Result{Status: feed.StatusCancelled}
		}
		c.logger.Error("posts.loadPosts error", "error", err, "code", errors.GetCode(err))
		return feed.Result{Status: feed.StatusFailed}
	}

	if len(pg.Posts) == 0 {
		// Keep whatever the container holds, skeleton included.
		c.applyPageInfo(pg.PageInfo)
		return feed.Result{Status: feed.StatusEmpty}
	}

	if reset {
		c.document.ClearFeed()
	}
	for _, post := range pg.Posts {
		c.document.AppendToFeed(render.Card(post), render.Height(post))
	}
	c.applyPageInfo(pg.PageInfo)

	result := feed.Result{Status: feed.StatusRendered, Appended: len(pg.Posts)}
	if c.hasNextPage && c.document.ScrollHeight() <= c.document.ViewportHeight()+fillSlack {
		result.AutoContinue = true
	}
	return result
}

func (c *Controller) applyPageInfo(info domain.PageInfo) {
	c.hasNextPage = info.HasNextPage
	c.endCursor = nil
	if info.EndCursor != nil && *info.EndCursor != "" {
		cursor := *info.EndCursor
		c.endCursor = &cursor
	}
}

// scheduleContinuation loads the next page shortly when the rendered
// content does not fill the viewport yet.
func (c *Controller) scheduleContinuation() {
	err := c.scheduler.After(c.autoLoadDelay, "feed-autoload", func() {
		if c.lifecycle.Err() != nil {
			return
		}
		c.LoadMore(c.lifecycle)
	})
	if err != nil {
		c.logger.Warn("Failed to schedule auto continuation", "error", err)
	}
}

func (c *Controller) ResetPagination() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.endCursor = nil
	c.hasNextPage = true
}

func (c *Controller) OnScroll(ctx context.Context, viewer string, scrollY, viewportHeight int) feed.Result {
	c.document.SetScroll(scrollY, viewportHeight)

	if !c.limiter.Allow(viewer) {
		return feed.Result{Status: feed.StatusThrottled}
	}

	c.mu.Lock()
	hasNext, loading := c.hasNextPage, c.inflight != nil
	c.mu.Unlock()
	if !hasNext {
		return feed.Result{Status: feed.StatusExhausted}
	}
	if loading {
		return feed.Result{Status: feed.StatusBusy}
	}

	remaining := c.document.ScrollHeight() - (c.document.ScrollY() + c.document.ViewportHeight())
	if remaining >= c.scrollThreshold {
		return feed.Result{Status: feed.StatusNotNeeded}
	}
	return c.LoadMore(ctx)
}

func (c *Controller) State() feed.State {
	c.mu.Lock()
	defer c.mu.Unlock()

	loading := c.inflight != nil
	s := feed.State{
		HasNextPage: c.hasNextPage,
		Loading:     loading,
		Phase:       feed.PhaseIdle,
	}
	if c.endCursor != nil {
		cursor := *c.endCursor
		s.EndCursor = &cursor
	}
	switch {
	case loading:
		s.Phase = feed.PhaseLoading
	case !c.hasNextPage:
		s.Phase = feed.PhaseExhausted
	}
	if c.inflight != nil {
		s.InFlightID = c.inflight.id.String()
		s.InFlightSince = c.inflight.startedAt
	}
	return s
}

func (c *Controller) Close() {
	c.stop()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inflight != nil {
		c.inflight.cancel()
	}
}
