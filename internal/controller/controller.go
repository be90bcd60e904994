// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package controller holds the interactive state of one user's workspace and
// drives the generate, review and save cycle.
//
// The controller mutex guards state only. Generation, backend writes and
// capability calls always run with the mutex released.
package controller

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/tejzpr/sweety-vault/internal/capability"
	"github.com/tejzpr/sweety-vault/internal/nickname"
	"github.com/tejzpr/sweety-vault/internal/vault"
	"go.uber.org/zap"
)

var (
	// ErrBusy is returned when an action arrives while generating or saving.
	ErrBusy = errors.New("workspace busy")

	// ErrNothingSelected is returned by Confirm with an empty selection.
	ErrNothingSelected = errors.New("no nicknames selected")

	// ErrUnknownCandidate is returned when toggling a label that was not generated.
	ErrUnknownCandidate = errors.New("label is not a current candidate")
)

// Phase is the position in the generate, review and save cycle.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseGenerating
	PhaseReviewing
	PhaseSaving
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseGenerating:
		return "generating"
	case PhaseReviewing:
		return "reviewing"
	case PhaseSaving:
		return "saving"
	default:
		return "unknown"
	}
}

// MarshalText renders the phase by name.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// Generator produces candidate nicknames.
type Generator interface {
	Generate(ctx context.Context, memory string, style nickname.Style) (*nickname.Result, error)
}

// Vault is the record store a controller reads and writes.
type Vault interface {
	Load(ctx context.Context) error
	Records() []vault.Record
	Save(ctx context.Context, labels []string, memory string) ([]vault.Record, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// Default timings.
const (
	DefaultStatusInterval   = 1800 * time.Millisecond
	DefaultDictationTimeout = 4 * time.Second
)

// Config holds controller timings and the initial style. Zero values take
// the defaults.
type Config struct {
	StatusInterval   time.Duration
	DictationTimeout time.Duration
	DefaultStyle     nickname.Style
}

func (c Config) withDefaults() Config {
	if c.StatusInterval <= 0 {
		c.StatusInterval = DefaultStatusInterval
	}
	if c.DictationTimeout <= 0 {
		c.DictationTimeout = DefaultDictationTimeout
	}
	if c.DefaultStyle == "" {
		c.DefaultStyle = nickname.StyleSweet
	}
	return c
}

// Controller is one user's workspace.
type Controller struct {
	gen    Generator
	vault  Vault
	caps   capability.Set
	cfg    Config
	clock  clockwork.Clock
	logger *zap.Logger

	mu         sync.Mutex
	phase      Phase
	text       string
	style      nickname.Style
	candidates []string
	fallback   bool
	selected   []string

	search          string
	expandedID      string
	pendingDeleteID string

	status       string
	statusIndex  int
	statusTicker clockwork.Ticker
	statusDone   chan struct{}

	mode           InputMode
	listening      bool
	dictationSeq   uint64
	dictationTimer clockwork.Timer

	events *broker
}

// Option configures a Controller.
type Option func(*Controller)

// WithCapabilities sets the device capabilities.
func WithCapabilities(s capability.Set) Option {
	return func(c *Controller) {
		c.caps = s
	}
}

// WithConfig sets the timings.
func WithConfig(cfg Config) Option {
	return func(c *Controller) {
		c.cfg = cfg
	}
}

// WithClock sets the clock driving the status ticker and dictation timer.
func WithClock(clock clockwork.Clock) Option {
	return func(c *Controller) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a controller in the Idle phase.
func New(gen Generator, v Vault, opts ...Option) *Controller {
	c := &Controller{
		gen:    gen,
		vault:  v,
		clock:  clockwork.NewRealClock(),
		logger: zap.NewNop(),
		events: newBroker(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.caps = c.caps.Normalize()
	c.cfg = c.cfg.withDefaults()
	c.style = c.cfg.DefaultStyle
	return c
}

// Load fetches the user's saved records.
func (c *Controller) Load(ctx context.Context) error {
	err := c.vault.Load(ctx)
	c.publishState()
	return err
}

// SetInput replaces the memory text and style. An empty style leaves it unchanged.
func (c *Controller) SetInput(text string, style nickname.Style) {
	c.mu.Lock()
	c.text = text
	if style != "" {
		c.style = style
	}
	c.mu.Unlock()
	c.publishState()
}

// Submit generates candidates for the current text.
func (c *Controller) Submit(ctx context.Context) (*nickname.Result, error) {
	return c.submit(ctx, nil)
}

// SubmitMemory replaces the text and style, then generates. An empty style
// keeps the current one.
func (c *Controller) SubmitMemory(ctx context.Context, memory string, style nickname.Style) (*nickname.Result, error) {
	return c.submit(ctx, func() {
		c.text = memory
		if style != "" {
			c.style = style
		}
	})
}

func (c *Controller) submit(ctx context.Context, apply func()) (*nickname.Result, error) {
	c.mu.Lock()
	if c.phase == PhaseGenerating || c.phase == PhaseSaving {
		c.mu.Unlock()
		return nil, ErrBusy
	}
	if apply != nil {
		apply()
	}
	memory, style := c.text, c.style
	if strings.TrimSpace(memory) == "" {
		c.mu.Unlock()
		return nil, nickname.ErrEmptyMemory
	}
	c.phase = PhaseGenerating
	c.candidates = nil
	c.selected = nil
	c.fallback = false
	c.startStatusLocked()
	c.mu.Unlock()
	c.publishState()

	res, err := c.gen.Generate(ctx, memory, style)

	c.mu.Lock()
	c.stopStatusLocked()
	if err != nil {
		c.phase = PhaseIdle
		c.mu.Unlock()
		c.publishState()
		return nil, err
	}
	c.phase = PhaseReviewing
	c.candidates = append([]string(nil), res.Labels...)
	c.fallback = res.Fallback
	c.style = res.Style
	c.mu.Unlock()
	c.publishState()

	return res, nil
}

// ToggleSelection adds or removes a candidate label from the selection and
// reports whether it is now selected.
func (c *Controller) ToggleSelection(label string) (bool, error) {
	c.mu.Lock()
	if c.phase != PhaseReviewing {
		c.mu.Unlock()
		return false, ErrBusy
	}
	if !contains(c.candidates, label) {
		c.mu.Unlock()
		return false, ErrUnknownCandidate
	}

	selected := true
	if i := indexOf(c.selected, label); i >= 0 {
		c.selected = append(c.selected[:i:i], c.selected[i+1:]...)
		selected = false
	} else {
		c.selected = append(c.selected, label)
	}
	c.mu.Unlock()
	c.publishState()
	return selected, nil
}

// Selection returns the selected labels in the order they were picked.
func (c *Controller) Selection() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.selected...)
}

// Confirm saves the selection. Whatever the outcome the workspace returns
// to Idle with no candidates; the input text is kept only if saving failed.
func (c *Controller) Confirm(ctx context.Context) ([]vault.Record, error) {
	c.mu.Lock()
	if c.phase == PhaseGenerating || c.phase == PhaseSaving {
		c.mu.Unlock()
		return nil, ErrBusy
	}
	if c.phase != PhaseReviewing || len(c.selected) == 0 {
		c.mu.Unlock()
		return nil, ErrNothingSelected
	}
	c.phase = PhaseSaving
	labels := append([]string(nil), c.selected...)
	memory := c.text
	c.mu.Unlock()
	c.publishState()

	inserted, err := c.vault.Save(ctx, labels, memory)

	c.mu.Lock()
	c.phase = PhaseIdle
	c.candidates = nil
	c.selected = nil
	c.fallback = false
	if err == nil {
		c.text = ""
	}
	c.mu.Unlock()
	c.publishState()

	if err != nil {
		c.logger.Warn("saving selection failed", zap.Int("labels", len(labels)), zap.Error(err))
		return nil, err
	}
	return inserted, nil
}

// Phase returns the current phase.
func (c *Controller) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// Close stops timers and ends every subscription.
func (c *Controller) Close() {
	c.mu.Lock()
	c.stopStatusLocked()
	c.cancelDictationTimerLocked()
	c.dictationSeq++
	listening := c.listening
	c.listening = false
	c.mu.Unlock()

	if listening {
		c.caps.Recognizer.Stop()
	}
	c.events.close()
}

func contains(list []string, s string) bool {
	return indexOf(list, s) >= 0
}

func indexOf(list []string, s string) int {
	for i, v := range list {
		if v == s {
			return i
		}
	}
	return -1
}
