package failover

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/jongio/amqp-core/amqpaddr"
	"github.com/jongio/amqp-core/logutil"
)

// DialFunc opens a connection of type C to addr.
type DialFunc[C any] func(ctx context.Context, addr amqpaddr.Address) (C, error)

// Config tunes a Selector.
type Config struct {
	// BreakerFailures is the number of consecutive failures that opens an
	// address's breaker. Zero or less disables breakers.
	BreakerFailures int
	// BreakerTimeout is how long a breaker stays open before it lets a
	// trial attempt through.
	BreakerTimeout time.Duration
	// AttemptsPerSecond paces attempts across the whole list. Zero or less
	// disables pacing.
	AttemptsPerSecond float64
	// EnableMetrics records Prometheus metrics for every attempt.
	EnableMetrics bool
}

// DefaultConfig returns breakers that trip after three consecutive failures
// and stay open for 30 seconds, with no pacing and no metrics.
func DefaultConfig() Config {
	return Config{
		BreakerFailures: 3,
		BreakerTimeout:  30 * time.Second,
	}
}

// Selector connects to the first reachable address of a list.
// It is safe for concurrent use.
type Selector[C any] struct {
	addrs    amqpaddr.List
	dial     DialFunc[C]
	breakers []*gobreaker.CircuitBreaker
	limiter  *rate.Limiter
	metrics  bool
	logger   *logutil.ComponentLogger
}

// NewSelector returns a Selector over addrs.
func NewSelector[C any](addrs amqpaddr.List, dial DialFunc[C], cfg Config) (*Selector[C], error) {
	if dial == nil {
		return nil, ErrNilDialFunc
	}

	s := &Selector[C]{
		addrs:   addrs,
		dial:    dial,
		metrics: cfg.EnableMetrics,
		logger:  logutil.NewLogger("failover"),
	}

	if cfg.BreakerFailures > 0 {
		s.breakers = make([]*gobreaker.CircuitBreaker, addrs.Len())
		for i, addr := range addrs.All() {
			s.breakers[i] = s.newBreaker(i, addr, cfg)
		}
	}

	if cfg.AttemptsPerSecond > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(cfg.AttemptsPerSecond), 1)
	}

	return s, nil
}

func (s *Selector[C]) newBreaker(index int, addr amqpaddr.Address, cfg Config) *gobreaker.CircuitBreaker {
	threshold := uint32(cfg.BreakerFailures)
	endpoint := addr.String()
	logger := s.logger.WithEndpoint(endpoint).WithFields("index", index)

	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        strconv.Itoa(index) + ":" + endpoint,
		MaxRequests: 1,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(_ string, from, to gobreaker.State) {
			logger.Info("circuit breaker state changed", "from", from.String(), "to", to.String())
			if s.metrics {
				recordBreakerState(endpoint, to)
			}
		},
	})
}

// Addresses returns the list the Selector walks.
func (s *Selector[C]) Addresses() amqpaddr.List {
	return s.addrs
}

// BreakerState reports the breaker state of list position i. Positions
// without a breaker report gobreaker.StateClosed.
func (s *Selector[C]) BreakerState(i int) gobreaker.State {
	if i < 0 || i >= len(s.breakers) {
		return gobreaker.StateClosed
	}
	return s.breakers[i].State()
}

// Connect tries each address in list order and returns the first
// connection that succeeds together with the address it came from.
func (s *Selector[C]) Connect(ctx context.Context) (C, amqpaddr.Address, error) {
	conn, i, err := s.ConnectIndex(ctx)
	if err != nil {
		return conn, amqpaddr.Address{}, err
	}
	addr, _ := s.addrs.Get(i)
	return conn, addr, nil
}

// ConnectIndex is Connect reporting the list position that succeeded, which
// tells duplicate addresses apart.
func (s *Selector[C]) ConnectIndex(ctx context.Context) (C, int, error) {
	var zero C
	if s.addrs.Len() == 0 {
		return zero, -1, ErrNoAddresses
	}

	var attempts []*AttemptError
	for i, addr := range s.addrs.All() {
		if err := ctx.Err(); err != nil {
			return zero, -1, interrupted(len(attempts), err)
		}
		if s.limiter != nil {
			if err := s.limiter.Wait(ctx); err != nil {
				return zero, -1, interrupted(len(attempts), err)
			}
		}

		conn, err := s.attempt(ctx, i, addr)
		if err == nil {
			return conn, i, nil
		}
		attempts = append(attempts, &AttemptError{Index: i, Address: addr, Err: err})
	}

	// Cancellation during the last dial is not exhaustion.
	if err := ctx.Err(); err != nil {
		return zero, -1, interrupted(len(attempts), err)
	}

	if s.metrics {
		recordExhausted()
	}
	s.logger.Warn("all broker addresses failed", "attempts", len(attempts))
	return zero, -1, newExhaustedError(attempts)
}

func interrupted(attempts int, err error) error {
	return fmt.Errorf("connect interrupted after %d attempts: %w", attempts, err)
}

func (s *Selector[C]) attempt(ctx context.Context, i int, addr amqpaddr.Address) (C, error) {
	endpoint := addr.String()
	logger := s.logger.WithEndpoint(endpoint).WithFields("index", i)
	start := time.Now()

	var (
		conn C
		err  error
	)
	if s.breakers == nil {
		conn, err = s.dial(ctx, addr)
	} else {
		var out any
		out, err = s.breakers[i].Execute(func() (any, error) {
			return s.dial(ctx, addr)
		})
		conn, _ = out.(C)
	}

	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		logger.Debug("skipping address", "reason", err.Error())
		if s.metrics {
			recordAttempt(endpoint, resultSkipped, 0)
		}
		var zero C
		return zero, fmt.Errorf("%w: %w", ErrBreakerOpen, err)
	case err != nil:
		logger.Warn("connect attempt failed", "error", err)
		if s.metrics {
			recordAttempt(endpoint, resultFailure, time.Since(start))
		}
		var zero C
		return zero, err
	}

	logger.Info("connected")
	if s.metrics {
		recordAttempt(endpoint, resultSuccess, time.Since(start))
	}
	return conn, nil
}
