// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package nickname turns a relationship memory into five candidate nicknames
// using an LLM, substituting a fixed set whenever the LLM cannot deliver.
package nickname

import (
	"context"
	"strings"
	"time"

	"github.com/tejzpr/sweety-vault/internal/flight"
	"github.com/tejzpr/sweety-vault/internal/metrics"
	"go.uber.org/zap"
)

// fallbackLabels is returned verbatim whenever generation fails.
var fallbackLabels = [LabelCount]string{
	"Dream Keeper",
	"Cuddle Commander",
	"Heart Whisperer",
	"Joy Bringer",
	"Love Architect",
}

// FallbackLabels returns a fresh copy of the fixed fallback set.
func FallbackLabels() []string {
	out := make([]string, LabelCount)
	copy(out, fallbackLabels[:])
	return out
}

// Result is the outcome of one generation call.
type Result struct {
	Labels   []string `json:"labels"`
	Style    Style    `json:"style"`
	Fallback bool     `json:"fallback"`
	// Reason is set when Fallback is true.
	Reason string `json:"reason,omitempty"`
}

// Recorder receives one observation per finished generation.
type Recorder interface {
	ObserveGeneration(outcome string, d time.Duration)
}

// Generator produces candidate nicknames. It is safe for concurrent use,
// but admits only one outstanding generation at a time.
type Generator struct {
	completer Completer
	styles    *StyleTable
	guard     flight.Guard
	logger    *zap.Logger
	recorder  Recorder
}

// Option configures a Generator.
type Option func(*Generator)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(g *Generator) {
		if l != nil {
			g.logger = l
		}
	}
}

// WithRecorder sets a metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(g *Generator) {
		g.recorder = r
	}
}

// WithStyles replaces the embedded style table.
func WithStyles(t *StyleTable) Option {
	return func(g *Generator) {
		if t != nil {
			g.styles = t
		}
	}
}

// NewGenerator creates a generator. A nil completer behaves as Unconfigured.
func NewGenerator(c Completer, opts ...Option) *Generator {
	if c == nil {
		c = Unconfigured{}
	}
	g := &Generator{
		completer: c,
		styles:    DefaultStyles(),
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Styles returns the style table in use.
func (g *Generator) Styles() *StyleTable {
	return g.styles
}

// State reports whether a generation is outstanding.
func (g *Generator) State() flight.State {
	return g.guard.State()
}

// Generate produces exactly LabelCount labels for memory. Any LLM failure
// yields the fallback set rather than an error; the only errors are
// ErrEmptyMemory and ErrInFlight, neither of which issues a request.
func (g *Generator) Generate(ctx context.Context, memory string, style Style) (*Result, error) {
	if strings.TrimSpace(memory) == "" {
		return nil, ErrEmptyMemory
	}
	if !g.guard.TryBegin() {
		g.logger.Debug("generation trigger ignored, request already in flight")
		return nil, ErrInFlight
	}
	defer g.guard.Finish()

	style = g.styles.Resolve(string(style))
	start := time.Now()

	labels, err := g.request(ctx, memory, style)
	if err != nil {
		g.logger.Warn("nickname generation failed, using fallback labels",
			zap.String("style", string(style)),
			zap.Error(err),
		)
		g.observe(metrics.OutcomeFallback, start)
		return &Result{
			Labels:   FallbackLabels(),
			Style:    style,
			Fallback: true,
			Reason:   err.Error(),
		}, nil
	}

	g.observe(metrics.OutcomeParsed, start)
	return &Result{Labels: labels, Style: style}, nil
}

func (g *Generator) request(ctx context.Context, memory string, style Style) ([]string, error) {
	text, err := g.completer.Complete(ctx, BuildPrompt(g.styles, memory, style))
	if err != nil {
		return nil, err
	}
	return ParseLabels(text)
}

func (g *Generator) observe(outcome string, start time.Time) {
	if g.recorder != nil {
		g.recorder.ObserveGeneration(outcome, time.Since(start))
	}
}
