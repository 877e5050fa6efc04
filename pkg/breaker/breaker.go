// Package breaker guards calls to remote dependencies with a circuit breaker
// whose state is exported as a Prometheus gauge.
package breaker

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sony/gobreaker/v2"
)

// Config holds configuration for a circuit breaker.
type Config struct {
	// Name identifies this breaker in metrics and logs.
	Name string

	// MaxRequests is the number of trial calls allowed while half-open.
	// 0 means 1 call is allowed.
	MaxRequests uint32

	// Interval is the cyclic period of the closed state for clearing counts.
	// 0 means counts are never cleared while closed.
	Interval time.Duration

	// Timeout is how long the breaker stays open before moving to half-open.
	Timeout time.Duration

	// FailureRatio trips the breaker once failures/requests reaches it.
	FailureRatio float64

	// MinRequests is the number of calls needed before FailureRatio is evaluated.
	MinRequests uint32
}

// DefaultConfig returns sensible defaults for a breaker.
func DefaultConfig(name string) Config {
	return Config{
		Name:         name,
		MaxRequests:  1,
		Interval:     60 * time.Second,
		Timeout:      30 * time.Second,
		FailureRatio: 0.5,
		MinRequests:  5,
	}
}

// ErrOpen is returned when the breaker rejects a call without running it.
var ErrOpen = gobreaker.ErrOpenState

var (
	stateGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Current state of the circuit breaker (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	rejectedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_rejected_total",
			Help: "Total number of calls rejected by an open or saturated circuit breaker",
		},
		[]string{"name"},
	)
)

func init() {
	prometheus.MustRegister(stateGauge)
	prometheus.MustRegister(rejectedTotal)
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

// Breaker runs calls returning T through a gobreaker circuit breaker.
type Breaker[T any] struct {
	cb     *gobreaker.CircuitBreaker[T]
	name   string
	logger *slog.Logger
}

// New creates a breaker. Context cancellation by the caller is not counted
// as a dependency failure.
func New[T any](cfg Config, logger *slog.Logger) *Breaker[T] {
	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return ratio >= cfg.FailureRatio
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
			stateGauge.WithLabelValues(name).Set(stateToFloat(to))
		},
	}

	stateGauge.WithLabelValues(cfg.Name).Set(0)

	return &Breaker[T]{
		cb:     gobreaker.NewCircuitBreaker[T](settings),
		name:   cfg.Name,
		logger: logger,
	}
}

// Execute runs fn unless the breaker is open.
func (b *Breaker[T]) Execute(ctx context.Context, fn func(context.Context) (T, error)) (T, error) {
	res, err := b.cb.Execute(func() (T, error) {
		return fn(ctx)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		rejectedTotal.WithLabelValues(b.name).Inc()
		b.logger.WarnContext(ctx, "circuit breaker rejected call",
			slog.String("breaker", b.name),
			slog.String("state", b.cb.State().String()),
		)
	}
	return res, err
}

// State returns the current breaker state.
func (b *Breaker[T]) State() gobreaker.State {
	return b.cb.State()
}

// Name returns the breaker name.
func (b *Breaker[T]) Name() string {
	return b.name
}
