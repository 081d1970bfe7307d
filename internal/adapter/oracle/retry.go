package oracle

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"net"
	"strings"
	"time"

	"overseer-ai/internal/domain"
)

// Backoff constants for transient oracle failures.
const (
	defaultMaxRetries = 3
	baseRetryDelay    = 500 * time.Millisecond
	maxRetryDelay     = 10 * time.Second
)

// RetryOracle retries transient transport failures with exponential
// backoff. Logical outcomes, like a parsed decision or a permanent API
// error, pass through untouched: the routing protocol, not this layer, handles
// "the worker could not do it".
type RetryOracle struct {
	inner      domain.DecisionOracle
	maxRetries int
	sleep      func(context.Context, time.Duration) error
	logger     *slog.Logger
}

var _ domain.DecisionOracle = (*RetryOracle)(nil)

// WithRetry wraps an oracle with bounded transient-failure retries.
func WithRetry(inner domain.DecisionOracle, maxRetries int, logger *slog.Logger) *RetryOracle {
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	if logger == nil {
		logger = discardLogger()
	}
	return &RetryOracle{
		inner:      inner,
		maxRetries: maxRetries,
		sleep:      sleepCtx,
		logger:     logger,
	}
}

// Route implements domain.DecisionOracle.
func (r *RetryOracle) Route(ctx context.Context, req domain.RouteRequest) (string, error) {
	var lastErr error
	for attempt := 0; attempt < r.maxRetries; attempt++ {
		next, err := r.inner.Route(ctx, req)
		if err == nil {
			return next, nil
		}
		lastErr = err
		if !isTransient(err) {
			return "", err
		}
		r.logger.Warn("transient oracle failure, retrying",
			"attempt", attempt+1, "max", r.maxRetries, "error", err)
		if attempt < r.maxRetries-1 {
			if err := r.sleep(ctx, retryBackoff(attempt)); err != nil {
				return "", err
			}
		}
	}
	return "", lastErr
}

// Judge implements domain.DecisionOracle.
func (r *RetryOracle) Judge(ctx context.Context, req domain.JudgeRequest) (*domain.Judgement, error) {
	var lastErr error
	for attempt := 0; attempt < r.maxRetries; attempt++ {
		verdict, err := r.inner.Judge(ctx, req)
		if err == nil {
			return verdict, nil
		}
		lastErr = err
		if !isTransient(err) {
			return nil, err
		}
		r.logger.Warn("transient oracle failure, retrying",
			"attempt", attempt+1, "max", r.maxRetries, "error", err)
		if attempt < r.maxRetries-1 {
			if err := r.sleep(ctx, retryBackoff(attempt)); err != nil {
				return nil, err
			}
		}
	}
	return nil, lastErr
}

// retryBackoff computes exponential backoff with jitter.
func retryBackoff(attempt int) time.Duration {
	delay := baseRetryDelay * time.Duration(1<<uint(attempt))
	if delay > maxRetryDelay {
		delay = maxRetryDelay
	}
	jitter := time.Duration(rand.Int63n(int64(delay/4) + 1))
	return delay + jitter
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// isTransient reports whether an oracle failure is worth retrying at the
// transport level.
func isTransient(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if errors.Is(err, domain.ErrOracleUnavailable) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{"connection refused", "connection reset", "timeout", "temporarily unavailable"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
