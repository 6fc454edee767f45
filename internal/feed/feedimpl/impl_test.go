package feedimpl

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/orgball2608/deso-feed/internal/domain"
	"github.com/orgball2608/deso-feed/internal/feed"
	"github.com/orgball2608/deso-feed/internal/page"
	mock_posts "github.com/orgball2608/deso-feed/internal/posts/mocks"
	"github.com/orgball2608/deso-feed/pkg/config"
	"github.com/orgball2608/deso-feed/pkg/errors"
	"github.com/orgball2608/deso-feed/pkg/logger"
	"go.uber.org/mock/gomock"
)

type scheduledTask struct {
	delay time.Duration
	name  string
	task  func()
}

type fakeScheduler struct {
	mu    sync.Mutex
	tasks []scheduledTask
}

func (f *fakeScheduler) After(delay time.Duration, name string, task func()) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tasks = append(f.tasks, scheduledTask{delay: delay, name: name, task: task})
	return nil
}

func (f *fakeScheduler) Shutdown() error { return nil }

func (f *fakeScheduler) pending() []scheduledTask {
	f.mu.Lock()
	defer f.mu.Unlock()
	tasks := f.tasks
	f.tasks = nil
	return tasks
}

type allowAll struct{}

func (allowAll) Allow(string) bool { return true }

type denyAll struct{}

func (denyAll) Allow(string) bool { return false }

type fixture struct {
	ctrl      *Controller
	posts     *mock_posts.MockClient
	doc       *page.Document
	scheduler *fakeScheduler
}

func newFixture(t *testing.T, viewportHeight int) *fixture {
	t.Helper()
	mc := gomock.NewController(t)
	postsClient := mock_posts.NewMockClient(mc)
	doc := page.NewDefault(viewportHeight)
	sched := &fakeScheduler{}

	c := New(Opts{
		Posts:     postsClient,
		Document:  doc,
		Scheduler: sched,
		Limiter:   allowAll{},
		Logger:    logger.Nop(),
		Config:    config.Default(),
	})
	t.Cleanup(c.Close)

	return &fixture{ctrl: c, posts: postsClient, doc: doc, scheduler: sched}
}

func makePage(hasNext bool, cursor string, ids ...string) domain.Page {
	pg := domain.Page{PageInfo: domain.PageInfo{HasNextPage: hasNext}}
	if cursor != "" {
		pg.PageInfo.EndCursor = &cursor
	}
	for _, id := range ids {
		pg.Posts = append(pg.Posts, domain.Post{ID: id, AuthorName: "author-" + id, Excerpt: "body " + id})
	}
	return pg
}

func cursorOf(p *string) string {
	if p == nil {
		return "<nil>"
	}
	return *p
}

func TestLoad_FirstPageRendersInOrder(t *testing.T) {
	f := newFixture(t, 100)

	f.posts.EXPECT().FetchPostsPage(gomock.Any(), 20, gomock.Nil()).
		Return(makePage(true, "c1", "a", "b"), nil)

	res := f.ctrl.Load(context.Background(), true)

	if res.Status != feed.StatusRendered || res.Appended != 2 {
		t.Fatalf("Load = %+v, want rendered 2", res)
	}
	if f.doc.FeedLen() != 2 {
		t.Errorf("FeedLen() = %d, want 2 (skeleton cleared)", f.doc.FeedLen())
	}
	html := f.doc.FeedHTML()
	if strings.Index(html, `data-post-id="a"`) > strings.Index(html, `data-post-id="b"`) {
		t.Error("cards not rendered in API order")
	}
	st := f.ctrl.State()
	if st.Loading || !st.HasNextPage || cursorOf(st.EndCursor) != "c1" {
		t.Errorf("State = %+v", st)
	}
	if st.Phase != feed.PhaseIdle {
		t.Errorf("Phase = %s, want idle", st.Phase)
	}
}

func TestLoad_EmptyFirstPageKeepsContainer(t *testing.T) {
	f := newFixture(t, 100)
	before := f.doc.FeedHTML()

	f.posts.EXPECT().FetchPostsPage(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(makePage(false, ""), nil)

	res := f.ctrl.Load(context.Background(), true)

	if res.Status != feed.StatusEmpty {
		t.Fatalf("Load = %+v, want empty", res)
	}
	if f.doc.FeedHTML() != before || f.doc.FeedLen() != 3 {
		t.Error("empty page must leave the container untouched")
	}
	if st := f.ctrl.State(); st.HasNextPage || st.Loading || st.Phase != feed.PhaseExhausted {
		t.Errorf("State = %+v", st)
	}
}

func TestLoad_ExhaustedStopsUntilReset(t *testing.T) {
	f := newFixture(t, 5000)

	first := f.posts.EXPECT().FetchPostsPage(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(makePage(false, "", "a"), nil)
	second := f.posts.EXPECT().FetchPostsPage(gomock.Any(), gomock.Any(), gomock.Nil()).
		Return(makePage(false, "", "b"), nil)
	gomock.InOrder(first, second)

	res := f.ctrl.Load(context.Background(), true)
	if res.Status != feed.StatusRendered || res.AutoContinue {
		t.Fatalf("Load = %+v, want rendered without continuation", res)
	}
	if len(f.scheduler.pending()) != 0 {
		t.Error("no continuation may be scheduled once exhausted")
	}

	if res := f.ctrl.LoadMore(context.Background()); res.Status != feed.StatusExhausted {
		t.Errorf("LoadMore = %+v, want exhausted", res)
	}
	if res := f.ctrl.OnScroll(context.Background(), "v", 10000, 900); res.Status != feed.StatusExhausted {
		t.Errorf("OnScroll = %+v, want exhausted", res)
	}

	f.ctrl.ResetPagination()
	if res := f.ctrl.LoadMore(context.Background()); res.Status != feed.StatusRendered {
		t.Errorf("LoadMore after reset = %+v, want rendered", res)
	}
}

func TestLoad_GuardWindowSuppressesDuplicate(t *testing.T) {
	f := newFixture(t, 100)

	started := make(chan struct{})
	release := make(chan struct{})
	f.posts.EXPECT().FetchPostsPage(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, first int, after *string) (domain.Page, error) {
			close(started)
			<-release
			return makePage(true, "c1", "a"), nil
		}).Times(1)

	done := make(chan feed.Result, 1)
	go func() { done <- f.ctrl.Load(context.Background(), true) }()
	<-started

	if res := f.ctrl.Load(context.Background(), true); res.Status != feed.StatusSuppressed {
		t.Errorf("second Load = %+v, want suppressed", res)
	}
	close(release)

	res := <-done
	if res.Status != feed.StatusRendered || res.Appended != 1 {
		t.Errorf("first Load = %+v, want rendered 1", res)
	}
	if f.doc.FeedLen() != 1 {
		t.Errorf("FeedLen() = %d, want exactly one render pass", f.doc.FeedLen())
	}
}

func TestOnScroll_BusyWhileLoading(t *testing.T) {
	f := newFixture(t, 100)

	started := make(chan struct{})
	release := make(chan struct{})
	f.posts.EXPECT().FetchPostsPage(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, first int, after *string) (domain.Page, error) {
			close(started)
			<-release
			return makePage(true, "c1", "a"), nil
		}).Times(1)

	done := make(chan feed.Result, 1)
	go func() { done <- f.ctrl.Load(context.Background(), true) }()
	<-started

	st := f.ctrl.State()
	if !st.Loading || st.Phase != feed.PhaseLoading || st.InFlightID == "" {
		t.Errorf("State during fetch = %+v", st)
	}
	if res := f.ctrl.OnScroll(context.Background(), "v", 100000, 100); res.Status != feed.StatusBusy {
		t.Errorf("OnScroll = %+v, want busy", res)
	}
	close(release)
	<-done

	if st := f.ctrl.State(); st.Loading || st.InFlightID != "" {
		t.Errorf("State after fetch = %+v", st)
	}
}

func TestLoad_StaleRequestIsCancelledAndReplaced(t *testing.T) {
	f := newFixture(t, 100)
	now := time.Unix(1_700_000_000, 0)
	f.ctrl.now = func() time.Time { return now }

	started := make(chan struct{})
	first := f.posts.EXPECT().FetchPostsPage(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, first int, after *string) (domain.Page, error) {
			close(started)
			<-ctx.Done()
			return domain.Page{}, errors.Wrap(fmt.Errorf("do: %w", ctx.Err()), "fetch posts page")
		})
	second := f.posts.EXPECT().FetchPostsPage(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(makePage(true, "c2", "x", "y"), nil)
	gomock.InOrder(first, second)

	done := make(chan feed.Result, 1)
	go func() { done <- f.ctrl.Load(context.Background(), true) }()
	<-started

	now = now.Add(2 * time.Second)
	res := f.ctrl.Load(context.Background(), true)
	if res.Status != feed.StatusRendered || res.Appended != 2 {
		t.Fatalf("replacement Load = %+v, want rendered 2", res)
	}

	if res := <-done; res.Status != feed.StatusSuperseded {
		t.Errorf("stale Load = %+v, want superseded", res)
	}
	st := f.ctrl.State()
	if st.Loading || cursorOf(st.EndCursor) != "c2" {
		t.Errorf("State = %+v", st)
	}
	if f.doc.FeedLen() != 2 {
		t.Errorf("FeedLen() = %d, want 2", f.doc.FeedLen())
	}
}

func TestLoad_CancellationIsBenign(t *testing.T) {
	f := newFixture(t, 100)
	before := f.doc.FeedHTML()

	started := make(chan struct{})
	f.posts.EXPECT().FetchPostsPage(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, first int, after *string) (domain.Page, error) {
			close(started)
			<-ctx.Done()
			return domain.Page{}, ctx.Err()
		})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan feed.Result, 1)
	go func() { done <- f.ctrl.Load(ctx, true) }()
	<-started
	cancel()

	if res := <-done; res.Status != feed.StatusCancelled {
		t.Errorf("Load = %+v, want cancelled", res)
	}
	if f.ctrl.State().Loading {
		t.Error("loading flag not cleared after cancellation")
	}
	if f.doc.FeedHTML() != before {
		t.Error("cancelled load must not touch the container")
	}
}

func TestLoad_FailureIsLoggedAndClearsLoading(t *testing.T) {
	f := newFixture(t, 100)

	f.posts.EXPECT().FetchPostsPage(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(domain.Page{}, errors.WrapWithCode(fmt.Errorf("status 500"), errors.CodeTransport, "graphql request failed"))

	res := f.ctrl.Load(context.Background(), true)
	if res.Status != feed.StatusFailed {
		t.Fatalf("Load = %+v, want failed", res)
	}
	st := f.ctrl.State()
	if st.Loading || st.InFlightID != "" {
		t.Errorf("State = %+v, want idle", st)
	}
	if f.doc.FeedLen() != 3 {
		t.Errorf("FeedLen() = %d, want skeleton kept", f.doc.FeedLen())
	}
}

func TestLoad_AutoContinuationFillsViewport(t *testing.T) {
	f := newFixture(t, 2000)

	first := f.posts.EXPECT().FetchPostsPage(gomock.Any(), gomock.Any(), gomock.Nil()).
		Return(makePage(true, "c1", "a"), nil)
	second := f.posts.EXPECT().FetchPostsPage(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, first int, after *string) (domain.Page, error) {
			if cursorOf(after) != "c1" {
				t.Errorf("after = %s, want c1", cursorOf(after))
			}
			return makePage(false, "", "b"), nil
		})
	gomock.InOrder(first, second)

	res := f.ctrl.Load(context.Background(), true)
	if !res.AutoContinue {
		t.Fatalf("Load = %+v, want auto continuation", res)
	}

	tasks := f.scheduler.pending()
	if len(tasks) != 1 {
		t.Fatalf("scheduled %d tasks, want 1", len(tasks))
	}
	if tasks[0].delay != 50*time.Millisecond {
		t.Errorf("delay = %v, want 50ms", tasks[0].delay)
	}
	tasks[0].task()

	if f.doc.FeedLen() != 2 {
		t.Errorf("FeedLen() = %d, want 2", f.doc.FeedLen())
	}
	if len(f.scheduler.pending()) != 0 {
		t.Error("exhausted feed must not schedule another continuation")
	}
}

func TestLoad_ContinuationSkippedAfterClose(t *testing.T) {
	f := newFixture(t, 2000)

	f.posts.EXPECT().FetchPostsPage(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(makePage(true, "c1", "a"), nil).Times(1)

	f.ctrl.Load(context.Background(), true)
	tasks := f.scheduler.pending()
	if len(tasks) != 1 {
		t.Fatalf("scheduled %d tasks, want 1", len(tasks))
	}

	f.ctrl.Close()
	tasks[0].task()
}

func TestLoad_ResetSendsNullCursorAndClears(t *testing.T) {
	f := newFixture(t, 100)

	first := f.posts.EXPECT().FetchPostsPage(gomock.Any(), gomock.Any(), gomock.Nil()).
		Return(makePage(true, "c1", "a", "b"), nil)
	more := f.posts.EXPECT().FetchPostsPage(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, first int, after *string) (domain.Page, error) {
			if cursorOf(after) != "c1" {
				t.Errorf("after = %s, want c1", cursorOf(after))
			}
			return makePage(true, "c2", "c"), nil
		})
	reset := f.posts.EXPECT().FetchPostsPage(gomock.Any(), gomock.Any(), gomock.Nil()).
		Return(makePage(true, "c9", "z"), nil)
	gomock.InOrder(first, more, reset)

	f.ctrl.Load(context.Background(), true)
	f.ctrl.LoadMore(context.Background())
	if f.doc.FeedLen() != 3 {
		t.Fatalf("FeedLen() = %d, want 3", f.doc.FeedLen())
	}

	f.ctrl.Load(context.Background(), true)
	if f.doc.FeedLen() != 1 {
		t.Errorf("FeedLen() after reset = %d, want 1", f.doc.FeedLen())
	}
	if cursorOf(f.ctrl.State().EndCursor) != "c9" {
		t.Errorf("EndCursor = %s, want c9", cursorOf(f.ctrl.State().EndCursor))
	}
}

func TestLoad_NoFeedContainer(t *testing.T) {
	mc := gomock.NewController(t)
	postsClient := mock_posts.NewMockClient(mc)
	doc, err := page.Parse(strings.NewReader(`<html><body></body></html>`), 900)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	c := New(Opts{
		Posts:     postsClient,
		Document:  doc,
		Scheduler: &fakeScheduler{},
		Limiter:   allowAll{},
		Logger:    logger.Nop(),
		Config:    config.Default(),
	})
	defer c.Close()

	if res := c.Load(context.Background(), true); res.Status != feed.StatusNoFeed {
		t.Errorf("Load = %+v, want no_feed", res)
	}
}

func TestResetPagination_Idempotent(t *testing.T) {
	f := newFixture(t, 100)

	f.posts.EXPECT().FetchPostsPage(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(makePage(false, "c1", "a"), nil)
	f.ctrl.Load(context.Background(), true)

	f.ctrl.ResetPagination()
	once := f.ctrl.State()
	f.ctrl.ResetPagination()
	twice := f.ctrl.State()

	if once.EndCursor != nil || !once.HasNextPage {
		t.Errorf("after one reset: %+v", once)
	}
	if twice.EndCursor != nil || twice.HasNextPage != once.HasNextPage || twice.Phase != once.Phase {
		t.Errorf("second reset changed state: %+v vs %+v", twice, once)
	}
}

func TestOnScroll_TriggersNearBottom(t *testing.T) {
	f := newFixture(t, 100)

	first := f.posts.EXPECT().FetchPostsPage(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(makePage(true, "c1", "a", "b", "c", "d", "e"), nil)
	more := f.posts.EXPECT().FetchPostsPage(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(makePage(true, "c2", "f"), nil)
	gomock.InOrder(first, more)

	f.ctrl.Load(context.Background(), true)
	height := f.doc.ScrollHeight()

	if res := f.ctrl.OnScroll(context.Background(), "v", 0, 100); res.Status != feed.StatusNotNeeded {
		t.Errorf("OnScroll at top = %+v, want not_needed", res)
	}

	// remaining = height - (scrollY + viewport) = 299
	res := f.ctrl.OnScroll(context.Background(), "v", height-100-299, 100)
	if res.Status != feed.StatusRendered {
		t.Errorf("OnScroll near bottom = %+v, want rendered", res)
	}
}

func TestOnScroll_Throttled(t *testing.T) {
	f := newFixture(t, 100)
	f.ctrl.limiter = denyAll{}

	if res := f.ctrl.OnScroll(context.Background(), "v", 100000, 100); res.Status != feed.StatusThrottled {
		t.Errorf("OnScroll = %+v, want throttled", res)
	}
	if f.doc.ScrollY() != 100000 {
		t.Error("scroll position should be recorded even when throttled")
	}
}
