package retry

import (
	"context"
	"testing"
	"time"

	"github.com/orgball2608/deso-feed/pkg/logger"
)

func TestPoll_SucceedsAfterAttempts(t *testing.T) {
	calls := 0
	ok, err := Poll(context.Background(), logger.Nop(), "feed", func() bool {
		calls++
		return calls >= 3
	}, PollConfig{Interval: time.Millisecond, Timeout: time.Second})

	if err != nil {
		t.Fatalf("Poll error: %v", err)
	}
	if !ok {
		t.Fatal("Poll = false, want true")
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestPoll_GivesUpAtCeiling(t *testing.T) {
	start := time.Now()
	ok, err := Poll(context.Background(), logger.Nop(), "feed", func() bool {
		return false
	}, PollConfig{Interval: 5 * time.Millisecond, Timeout: 30 * time.Millisecond})

	if err != nil {
		t.Fatalf("Poll error: %v", err)
	}
	if ok {
		t.Fatal("Poll = true, want false")
	}
	if time.Since(start) > time.Second {
		t.Errorf("Poll took %v, want bounded by ceiling", time.Since(start))
	}
}

func TestPoll_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ok, err := Poll(ctx, logger.Nop(), "feed", func() bool {
		return false
	}, PollConfig{Interval: time.Millisecond, Timeout: time.Second})

	if ok {
		t.Fatal("Poll = true, want false")
	}
	if err == nil {
		t.Fatal("expected context error")
	}
}
