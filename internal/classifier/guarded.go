package classifier

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"reflections/internal/metrics"
)

type GuardConfig struct {
	Timeout   time.Duration
	RateLimit float64 // calls per second
	Burst     int

	// Breaker trips once at least MinRequests calls were made in Interval
	// and FailureRatio of them failed. It stays open for OpenTimeout.
	MinRequests  uint32
	FailureRatio float64
	Interval     time.Duration
	OpenTimeout  time.Duration
}

func DefaultGuardConfig() GuardConfig {
	return GuardConfig{
		Timeout:      20 * time.Second,
		RateLimit:    2,
		Burst:        4,
		MinRequests:  5,
		FailureRatio: 0.6,
		Interval:     time.Minute,
		OpenTimeout:  30 * time.Second,
	}
}

// Guarded protects a Classifier with a rate limiter, a per call timeout and
// a circuit breaker. Every failure it returns wraps ErrUnavailable.
type Guarded struct {
	next    Classifier
	timeout time.Duration
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
	metrics *metrics.Collector
	log     *zap.Logger
}

func NewGuarded(next Classifier, cfg GuardConfig, m *metrics.Collector, log *zap.Logger) *Guarded {
	def := DefaultGuardConfig()
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = def.RateLimit
	}
	if cfg.Burst <= 0 {
		cfg.Burst = def.Burst
	}
	if cfg.MinRequests == 0 {
		cfg.MinRequests = def.MinRequests
	}
	if cfg.FailureRatio <= 0 {
		cfg.FailureRatio = def.FailureRatio
	}
	if cfg.Interval <= 0 {
		cfg.Interval = def.Interval
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = def.OpenTimeout
	}
	if log == nil {
		log = zap.NewNop()
	}

	g := &Guarded{
		next:    next,
		timeout: cfg.Timeout,
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.Burst),
		metrics: m,
		log:     log,
	}
	g.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:     "classifier",
		Interval: cfg.Interval,
		Timeout:  cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureRatio
		},
		IsSuccessful: func(err error) bool {
			var done *callerDoneError
			return err == nil || errors.As(err, &done)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})
	return g
}

func (g *Guarded) Suggest(ctx context.Context, title, text string, existing []string) ([]string, error) {
	start := time.Now()
	names, err := g.suggest(ctx, title, text, existing)
	if err != nil {
		g.metrics.ObserveClassification("error", time.Since(start))
		return nil, err
	}
	g.metrics.ObserveClassification("ok", time.Since(start))
	return names, nil
}

// callerDoneError marks a failure caused by the caller's own context. The
// breaker does not count it as a failure.
type callerDoneError struct {
	err error
}

func (e *callerDoneError) Error() string { return e.err.Error() }
func (e *callerDoneError) Unwrap() error { return e.err }

func (g *Guarded) suggest(ctx context.Context, title, text string, existing []string) ([]string, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: rate limiter: %w", ErrUnavailable, err)
	}

	out, err := g.breaker.Execute(func() (interface{}, error) {
		callCtx, cancel := context.WithTimeout(ctx, g.timeout)
		defer cancel()
		names, err := g.next.Suggest(callCtx, title, text, existing)
		if err != nil && ctx.Err() != nil {
			return nil, &callerDoneError{err: err}
		}
		return names, err
	})

	var done *callerDoneError
	switch {
	case err == nil:
		names, _ := out.([]string)
		return names, nil
	case errors.As(err, &done):
		if errors.Is(done.err, ErrUnavailable) {
			return nil, done.err
		}
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, done.err)
	case errors.Is(err, ErrUnavailable):
		return nil, err
	default:
		// Open and half-open rejections from the breaker land here too.
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
}
