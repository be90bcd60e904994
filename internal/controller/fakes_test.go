// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package controller

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
	"github.com/tejzpr/sweety-vault/internal/capability"
	"github.com/tejzpr/sweety-vault/internal/nickname"
	"github.com/tejzpr/sweety-vault/internal/vault"
)

var testLabels = []string{"Sunset Chaser", "Pancake Royalty", "Lisbon Wanderer", "Pastry Pirate", "Tram Dancer"}

// fakeGenerator returns testLabels, optionally blocking until released.
type fakeGenerator struct {
	calls   int32
	entered chan struct{}
	release chan struct{}
}

func (g *fakeGenerator) Generate(ctx context.Context, memory string, style nickname.Style) (*nickname.Result, error) {
	atomic.AddInt32(&g.calls, 1)
	if g.entered != nil {
		g.entered <- struct{}{}
	}
	if g.release != nil {
		<-g.release
	}
	if style == "" {
		style = nickname.StyleSweet
	}
	return &nickname.Result{Labels: append([]string(nil), testLabels...), Style: style}, nil
}

func (g *fakeGenerator) Calls() int {
	return int(atomic.LoadInt32(&g.calls))
}

// failingBackend rejects writes.
type failingBackend struct {
	*vault.MemoryBackend
}

func (failingBackend) InsertMany(context.Context, []vault.Record) ([]vault.Record, error) {
	return nil, errors.New("insert rejected")
}

func (failingBackend) Delete(context.Context, string, string) error {
	return errors.New("delete rejected")
}

// fakeRecognizer records calls and exposes the handlers it was started with.
type fakeRecognizer struct {
	mu         sync.Mutex
	supported  bool
	startErr   error
	ackOnStart bool
	handlers   capability.RecognizerHandlers
	starts     int
	stops      int
}

func (r *fakeRecognizer) Supported() bool { return r.supported }

func (r *fakeRecognizer) Start(_ context.Context, h capability.RecognizerHandlers) error {
	r.mu.Lock()
	r.starts++
	r.handlers = h
	ack := r.ackOnStart
	err := r.startErr
	r.mu.Unlock()
	if err != nil {
		return err
	}
	if ack && h.OnStart != nil {
		h.OnStart()
	}
	return nil
}

func (r *fakeRecognizer) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stops++
}

func (r *fakeRecognizer) Handlers() capability.RecognizerHandlers {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.handlers
}

func (r *fakeRecognizer) Stops() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stops
}

type fakeClipboard struct {
	text string
}

func (c *fakeClipboard) WriteText(_ context.Context, text string) error {
	c.text = text
	return nil
}

type alertRecorder struct {
	mu     sync.Mutex
	alerts []string
}

func (a *alertRecorder) Alert(message string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.alerts = append(a.alerts, message)
}

func (a *alertRecorder) Alerts() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.alerts...)
}

type harness struct {
	ctrl  *Controller
	gen   *fakeGenerator
	store *vault.Store
	clock clockwork.FakeClock
}

func newHarness(t *testing.T, backend vault.Backend, opts ...Option) *harness {
	t.Helper()
	if backend == nil {
		backend = vault.NewMemoryBackend()
	}
	clock := clockwork.NewFakeClockAt(time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC))
	gen := &fakeGenerator{}
	store := vault.NewStore(backend, "user-1", vault.WithClock(clock))

	opts = append([]Option{WithClock(clock)}, opts...)
	ctrl := New(gen, store, opts...)
	require.NoError(t, ctrl.Load(context.Background()))
	t.Cleanup(ctrl.Close)

	return &harness{ctrl: ctrl, gen: gen, store: store, clock: clock}
}

// review submits memory and leaves the controller in the Reviewing phase.
func (h *harness) review(t *testing.T, memory string) {
	t.Helper()
	_, err := h.ctrl.SubmitMemory(context.Background(), memory, "")
	require.NoError(t, err)
	require.Equal(t, PhaseReviewing, h.ctrl.Phase())
}
