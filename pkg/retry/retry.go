package retry

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"
)

var (
	ErrMaxAttemptsExceeded = errors.New("max attempts exceeded")
	ErrContextCanceled     = errors.New("context canceled during retry")
)

// Config contains retry configuration
type Config struct {
	// MaxRetries is the number of retry attempts after the initial one
	MaxRetries int
	// InitialInterval is the first backoff interval
	InitialInterval time.Duration
	// MaxInterval caps the backoff interval
	MaxInterval time.Duration
	// Multiplier grows the interval after each attempt
	Multiplier float64
	// JitterFactor (0-1) randomizes each interval by ±factor
	JitterFactor float64
}

// DefaultConfig returns the default backoff schedule: 1s, 2s, 4s (capped at 30s)
func DefaultConfig() *Config {
	return &Config{
		MaxRetries:      3,
		InitialInterval: time.Second,
		MaxInterval:     30 * time.Second,
		Multiplier:      2.0,
		JitterFactor:    0.1,
	}
}

// Operation is the function to be retried
type Operation func(ctx context.Context) error

// PermanentError marks an error that must not be retried
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

// Permanent wraps err so the retrier gives up immediately
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

// Retrier executes operations with exponential backoff
type Retrier struct {
	config *Config
}

// New creates a Retrier, filling zero config values with defaults
func New(config *Config) *Retrier {
	if config == nil {
		config = DefaultConfig()
	}
	if config.InitialInterval <= 0 {
		config.InitialInterval = time.Second
	}
	if config.MaxInterval <= 0 {
		config.MaxInterval = 30 * time.Second
	}
	if config.Multiplier <= 0 {
		config.Multiplier = 2.0
	}
	if config.JitterFactor < 0 {
		config.JitterFactor = 0
	}
	if config.JitterFactor > 1 {
		config.JitterFactor = 1
	}
	return &Retrier{config: config}
}

// Do executes op, retrying on failure per the configured schedule.
// Returns the last error once attempts are exhausted.
func (r *Retrier) Do(ctx context.Context, op Operation) error {
	var lastErr error

	for attempt := 0; attempt <= r.config.MaxRetries; attempt++ {
		if ctx.Err() != nil {
			return errors.Join(ErrContextCanceled, lastErr)
		}

		err := op(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		var permErr *PermanentError
		if errors.As(err, &permErr) {
			return permErr.Err
		}

		if attempt == r.config.MaxRetries {
			break
		}

		select {
		case <-ctx.Done():
			return errors.Join(ErrContextCanceled, lastErr)
		case <-time.After(r.interval(attempt)):
		}
	}

	return errors.Join(ErrMaxAttemptsExceeded, lastErr)
}

// interval computes the backoff for the given zero-based attempt
func (r *Retrier) interval(attempt int) time.Duration {
	backoff := float64(r.config.InitialInterval) * math.Pow(r.config.Multiplier, float64(attempt))
	if backoff > float64(r.config.MaxInterval) {
		backoff = float64(r.config.MaxInterval)
	}

	if r.config.JitterFactor > 0 {
		delta := backoff * r.config.JitterFactor
		backoff = backoff - delta + rand.Float64()*2*delta
	}

	return time.Duration(backoff)
}
