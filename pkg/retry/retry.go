package retry

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/orgball2608/deso-feed/pkg/logger"
)

var errNotReady = errors.New("not ready")

type PollConfig struct {
	Interval time.Duration
	Timeout  time.Duration
}

func DefaultPollConfig() PollConfig {
	return PollConfig{
		Interval: 200 * time.Millisecond,
		Timeout:  8 * time.Second,
	}
}

// Poll calls check every Interval until it reports true or Timeout elapses.
// It returns false without error when the ceiling is reached.
func Poll(ctx context.Context, log logger.Logger, name string, check func() bool, cfg PollConfig) (bool, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = cfg.Interval
	bo.MaxInterval = cfg.Interval
	bo.Multiplier = 1
	bo.RandomizationFactor = 0
	bo.MaxElapsedTime = cfg.Timeout
	bo.Reset()

	attempts := 0
	operation := func() error {
		attempts++
		if check() {
			return nil
		}
		return errNotReady
	}

	err := backoff.Retry(operation, backoff.WithContext(bo, ctx))
	if err == nil {
		log.Debug("Poll succeeded", "operation", name, "attempts", attempts)
		return true, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return false, ctxErr
	}

	log.Warn(
		"Poll gave up",
		"operation", name,
		"attempts", attempts,
		"timeout", cfg.Timeout.String(),
	)
	return false, nil
}
