// Package retry provides the retry collaborator for the executor: strategies
// that decide whether a failed operation is attempted again, a library of
// named strategies keyed by operation category, and a caller that drives an
// operation to a terminal outcome.
package retry

import (
	"math/rand"
	"sync"
	"time"
)

// Strategy decides whether a failed operation may be attempted again, how
// long to wait before the next attempt, and whether a terminal failure under
// this strategy is tolerable for the surrounding pipeline.
type Strategy interface {
	// CanRetry reports whether another attempt is allowed after the given
	// number of failed attempts. The first failure is attempt 1.
	CanRetry(attempt int) bool

	// Delay returns the wait before the next attempt.
	Delay(attempt int) time.Duration

	// CanSkip reports whether a terminal failure under this strategy is
	// tolerable, allowing the pipeline to continue without the result.
	CanSkip() bool
}

// FixedStrategy retries a bounded number of times with a constant interval.
type FixedStrategy struct {
	// MaxAttempts is the total number of attempts allowed, including the first.
	MaxAttempts int
	// Interval is the constant wait between attempts.
	Interval time.Duration
	// Skippable marks terminal failures under this strategy as tolerable.
	Skippable bool
}

// CanRetry reports whether another attempt is allowed.
func (s *FixedStrategy) CanRetry(attempt int) bool {
	return attempt < s.MaxAttempts
}

// Delay returns the constant interval.
func (s *FixedStrategy) Delay(attempt int) time.Duration {
	return s.Interval
}

// CanSkip reports whether terminal failures are tolerable.
func (s *FixedStrategy) CanSkip() bool {
	return s.Skippable
}

// ExponentialConfig holds configuration for ExponentialStrategy.
type ExponentialConfig struct {
	// MaxAttempts is the total number of attempts allowed, including the first.
	MaxAttempts int
	// BaseInterval is the wait before the first retry, default 1s.
	BaseInterval time.Duration
	// MaxInterval caps the backoff growth, default 60s.
	MaxInterval time.Duration
	// Multiplier is the backoff growth factor, default 2.0.
	Multiplier float64
	// Jitter is the randomness factor (0-1) added to each delay, default 0.1.
	Jitter float64
	// Skippable marks terminal failures under this strategy as tolerable.
	Skippable bool
}

// DefaultExponentialConfig returns the default exponential backoff settings.
func DefaultExponentialConfig() ExponentialConfig {
	return ExponentialConfig{
		MaxAttempts:  3,
		BaseInterval: 1 * time.Second,
		MaxInterval:  60 * time.Second,
		Multiplier:   2.0,
		Jitter:       0.1,
	}
}

// ExponentialStrategy retries with exponential backoff and jitter.
type ExponentialStrategy struct {
	cfg ExponentialConfig
}

// NewExponential creates an ExponentialStrategy, filling unset fields from
// the defaults.
func NewExponential(cfg ExponentialConfig) *ExponentialStrategy {
	def := DefaultExponentialConfig()
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.BaseInterval <= 0 {
		cfg.BaseInterval = def.BaseInterval
	}
	if cfg.MaxInterval <= 0 {
		cfg.MaxInterval = def.MaxInterval
	}
	if cfg.Multiplier < 1.0 {
		cfg.Multiplier = def.Multiplier
	}
	if cfg.Jitter < 0 || cfg.Jitter > 1.0 {
		cfg.Jitter = def.Jitter
	}
	return &ExponentialStrategy{cfg: cfg}
}

// CanRetry reports whether another attempt is allowed.
func (s *ExponentialStrategy) CanRetry(attempt int) bool {
	return attempt < s.cfg.MaxAttempts
}

// Delay calculates the backoff duration using exponential backoff with jitter.
// Formula: min(base * multiplier^(attempt-1) + jitter, maxInterval)
func (s *ExponentialStrategy) Delay(attempt int) time.Duration {
	backoff := float64(s.cfg.BaseInterval)
	for i := 1; i < attempt; i++ {
		backoff *= s.cfg.Multiplier
	}

	// Add jitter to prevent thundering herd
	if s.cfg.Jitter > 0 {
		backoff += backoff * s.cfg.Jitter * rand.Float64()
	}

	if max := float64(s.cfg.MaxInterval); backoff > max {
		backoff = max
	}

	return time.Duration(backoff)
}

// CanSkip reports whether terminal failures are tolerable.
func (s *ExponentialStrategy) CanSkip() bool {
	return s.cfg.Skippable
}

// NoRetryStrategy fails on the first error without retrying.
type NoRetryStrategy struct {
	// Skippable marks the failure as tolerable.
	Skippable bool
}

// CanRetry always reports false.
func (s *NoRetryStrategy) CanRetry(attempt int) bool {
	return false
}

// Delay always returns zero.
func (s *NoRetryStrategy) Delay(attempt int) time.Duration {
	return 0
}

// CanSkip reports whether the failure is tolerable.
func (s *NoRetryStrategy) CanSkip() bool {
	return s.Skippable
}

// Library holds named strategies keyed by operation category, with a default
// strategy for categories that have no dedicated entry.
type Library struct {
	mu         sync.RWMutex
	def        Strategy
	byCategory map[string]Strategy
}

// NewLibrary creates a Library with the given default strategy.
// If def is nil, the default exponential strategy is used.
func NewLibrary(def Strategy) *Library {
	if def == nil {
		def = NewExponential(DefaultExponentialConfig())
	}
	return &Library{
		def:        def,
		byCategory: make(map[string]Strategy),
	}
}

// Register binds a strategy to an operation category, replacing any
// previous binding.
func (l *Library) Register(category string, s Strategy) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.byCategory[category] = s
}

// StrategyFor returns the strategy registered for the category, or the
// default strategy when none is registered.
func (l *Library) StrategyFor(category string) Strategy {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if s, ok := l.byCategory[category]; ok {
		return s
	}
	return l.def
}

// Verify interfaces
var (
	_ Strategy = (*FixedStrategy)(nil)
	_ Strategy = (*ExponentialStrategy)(nil)
	_ Strategy = (*NoRetryStrategy)(nil)
)
