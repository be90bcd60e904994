// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package nickname

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// BreakerConfig tunes the circuit breaker around the LLM completer.
type BreakerConfig struct {
	Name             string
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold float64
	MinRequests      uint32
}

// DefaultBreakerConfig returns the breaker settings used by the server.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		Name:             "llm",
		MaxRequests:      1,
		Interval:         60 * time.Second,
		Timeout:          30 * time.Second,
		FailureThreshold: 0.6,
		MinRequests:      5,
	}
}

// BreakerCompleter short-circuits calls to a failing LLM endpoint. An open
// breaker surfaces as an ordinary error, so generation simply falls back.
type BreakerCompleter struct {
	next Completer
	cb   *gobreaker.CircuitBreaker
}

// NewBreakerCompleter wraps next with a circuit breaker.
func NewBreakerCompleter(next Completer, cfg BreakerConfig, logger *zap.Logger) *BreakerCompleter {
	if logger == nil {
		logger = zap.NewNop()
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return ratio >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
		IsSuccessful: func(err error) bool {
			// Caller cancellation says nothing about the endpoint's health.
			return err == nil || errors.Is(err, context.Canceled)
		},
	})
	return &BreakerCompleter{next: next, cb: cb}
}

// Complete forwards to the wrapped completer unless the breaker is open.
func (b *BreakerCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	out, err := b.cb.Execute(func() (interface{}, error) {
		return b.next.Complete(ctx, prompt)
	})
	if err != nil {
		return "", err
	}
	return out.(string), nil
}

// State reports the breaker state.
func (b *BreakerCompleter) State() gobreaker.State {
	return b.cb.State()
}
