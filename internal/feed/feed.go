package feed

import (
	"context"
	"time"
)

type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseLoading   Phase = "loading"
	PhaseExhausted Phase = "exhausted"
)

// Status says what a Load or OnScroll call did.
type Status string

const (
	StatusNoFeed     Status = "no_feed"
	StatusSuppressed Status = "suppressed" // a recent request is still in flight
	StatusExhausted  Status = "exhausted"
	StatusBusy       Status = "busy"
	StatusEmpty      Status = "empty"
	StatusRendered   Status = "rendered"
	StatusCancelled  Status = "cancelled"
	StatusSuperseded Status = "superseded"
	StatusFailed     Status = "failed"
	StatusThrottled  Status = "throttled"
	StatusNotNeeded  Status = "not_needed"
)

type Result struct {
	Status   Status `json:"status"`
	Appended int    `json:"appended"`
	// AutoContinue is set when a follow-up page was scheduled to fill the viewport.
	AutoContinue bool `json:"autoContinue"`
}

type State struct {
	Phase         Phase     `json:"phase"`
	EndCursor     *string   `json:"endCursor"`
	HasNextPage   bool      `json:"hasNextPage"`
	Loading       bool      `json:"loading"`
	InFlightID    string    `json:"inFlightId,omitempty"`
	InFlightSince time.Time `json:"inFlightSince,omitempty"`
}

// Client drives cursor pagination of the feed and renders pages into the
// document. Fetch failures are logged, never returned.
type Client interface {
	// Load fetches the next page, or the first page when reset is set, and
	// renders it.
	Load(ctx context.Context, reset bool) Result
	LoadMore(ctx context.Context) Result
	// ResetPagination rewinds the cursor without fetching.
	ResetPagination()
	// OnScroll records the viewer's scroll position and loads more when the
	// bottom of the document is near.
	OnScroll(ctx context.Context, viewer string, scrollY, viewportHeight int) Result
	State() State
	// Close cancels the in-flight request and pending continuations.
	Close()
}
