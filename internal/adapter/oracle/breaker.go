package oracle

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"

	"overseer-ai/internal/domain"
	"overseer-ai/internal/infra/config"
)

// Default transport breaker settings.
const (
	defaultBreakerMaxFailures uint32        = 5
	defaultBreakerTimeout     time.Duration = 30 * time.Second
	defaultBreakerInterval    time.Duration = 60 * time.Second
)

// BreakerOracle wraps an oracle with a transport-level circuit breaker.
// When routing or judging fails repeatedly, the circuit opens and calls
// fail fast instead of hammering a down backend. This is independent of the
// delegation dispatch policy, which bounds routing decisions, not I/O.
type BreakerOracle struct {
	inner  domain.DecisionOracle
	route  *gobreaker.CircuitBreaker[string]
	judge  *gobreaker.CircuitBreaker[*domain.Judgement]
	logger *slog.Logger
}

var _ domain.DecisionOracle = (*BreakerOracle)(nil)

// WithBreaker wraps an oracle with circuit breaker protection. Zero-valued
// config fields get defaults.
func WithBreaker(inner domain.DecisionOracle, cfg config.BreakerConfig, logger *slog.Logger) *BreakerOracle {
	if logger == nil {
		logger = discardLogger()
	}
	maxFailures := cfg.MaxFailures
	if maxFailures == 0 {
		maxFailures = defaultBreakerMaxFailures
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultBreakerTimeout
	}
	interval := cfg.Interval
	if interval == 0 {
		interval = defaultBreakerInterval
	}

	settings := func(name string) gobreaker.Settings {
		return gobreaker.Settings{
			Name:        name,
			MaxRequests: 1, // one probe in half-open state
			Interval:    interval,
			Timeout:     timeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= maxFailures
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logger.Warn("oracle circuit state change",
					"breaker", name, "from", from.String(), "to", to.String())
			},
		}
	}

	return &BreakerOracle{
		inner:  inner,
		route:  gobreaker.NewCircuitBreaker[string](settings("oracle:route")),
		judge:  gobreaker.NewCircuitBreaker[*domain.Judgement](settings("oracle:judge")),
		logger: logger,
	}
}

// Route implements domain.DecisionOracle.
func (b *BreakerOracle) Route(ctx context.Context, req domain.RouteRequest) (string, error) {
	next, err := b.route.Execute(func() (string, error) {
		return b.inner.Route(ctx, req)
	})
	if err != nil {
		return "", mapBreakerError(err)
	}
	return next, nil
}

// Judge implements domain.DecisionOracle.
func (b *BreakerOracle) Judge(ctx context.Context, req domain.JudgeRequest) (*domain.Judgement, error) {
	verdict, err := b.judge.Execute(func() (*domain.Judgement, error) {
		return b.inner.Judge(ctx, req)
	})
	if err != nil {
		return nil, mapBreakerError(err)
	}
	return verdict, nil
}

func mapBreakerError(err error) error {
	if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
		return fmt.Errorf("oracle circuit open: %w", domain.ErrOracleUnavailable)
	}
	return err
}
