// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package workspace keeps one controller per signed-in user.
package workspace

import (
	"context"
	"errors"
	"sync"

	"github.com/tejzpr/sweety-vault/internal/controller"
	"github.com/tejzpr/sweety-vault/internal/nickname"
	"github.com/tejzpr/sweety-vault/internal/vault"
	"go.uber.org/zap"
)

// ErrNoUser is returned when a workspace is requested without an identity.
var ErrNoUser = errors.New("workspace requires a user id")

type entry struct {
	ctrl  *controller.Controller
	store *vault.Store
	ready chan struct{}
}

// Registry builds workspaces on first use and drops them on sign-out.
// Each workspace gets its own generator so in-flight generation is tracked
// per user.
type Registry struct {
	completer nickname.Completer
	backend   vault.Backend
	logger    *zap.Logger

	generatorOpts  []nickname.Option
	storeOpts      []vault.StoreOption
	controllerOpts []controller.Option

	mu      sync.Mutex
	entries map[string]*entry
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithGeneratorOptions passes options to every generator.
func WithGeneratorOptions(opts ...nickname.Option) Option {
	return func(r *Registry) {
		r.generatorOpts = append(r.generatorOpts, opts...)
	}
}

// WithStoreOptions passes options to every vault store.
func WithStoreOptions(opts ...vault.StoreOption) Option {
	return func(r *Registry) {
		r.storeOpts = append(r.storeOpts, opts...)
	}
}

// WithControllerOptions passes options to every controller.
func WithControllerOptions(opts ...controller.Option) Option {
	return func(r *Registry) {
		r.controllerOpts = append(r.controllerOpts, opts...)
	}
}

// NewRegistry creates a registry. A nil backend means the vault is disabled.
func NewRegistry(completer nickname.Completer, backend vault.Backend, opts ...Option) *Registry {
	r := &Registry{
		completer: completer,
		backend:   backend,
		logger:    zap.NewNop(),
		entries:   make(map[string]*entry),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Get returns the user's controller, creating and loading it on first use.
// A workspace whose records failed to load retries the load on the next Get.
// ctx is forwarded to the backend, so it should carry the user's session.
func (r *Registry) Get(ctx context.Context, userID string) (*controller.Controller, error) {
	if userID == "" {
		return nil, ErrNoUser
	}

	r.mu.Lock()
	e, ok := r.entries[userID]
	if !ok {
		e = r.newEntry(userID)
		r.entries[userID] = e
	}
	r.mu.Unlock()

	if !ok {
		r.load(ctx, userID, e)
		close(e.ready)
		return e.ctrl, nil
	}

	select {
	case <-e.ready:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if !e.store.Loaded() {
		r.load(ctx, userID, e)
	}
	return e.ctrl, nil
}

func (r *Registry) newEntry(userID string) *entry {
	store := vault.NewStore(r.backend, userID, r.storeOpts...)
	gen := nickname.NewGenerator(r.completer, r.generatorOpts...)
	ctrl := controller.New(gen, store, r.controllerOpts...)
	r.logger.Debug("workspace created", zap.String("user_id", userID))
	return &entry{ctrl: ctrl, store: store, ready: make(chan struct{})}
}

func (r *Registry) load(ctx context.Context, userID string, e *entry) {
	if err := e.ctrl.Load(ctx); err != nil {
		r.logger.Warn("workspace records not loaded", zap.String("user_id", userID), zap.Error(err))
	}
}

// Lookup returns an existing workspace without creating one.
func (r *Registry) Lookup(userID string) (*controller.Controller, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[userID]
	if !ok {
		return nil, false
	}
	return e.ctrl, true
}

// Drop closes and forgets the user's workspace. It reports whether one existed.
func (r *Registry) Drop(userID string) bool {
	r.mu.Lock()
	e, ok := r.entries[userID]
	delete(r.entries, userID)
	r.mu.Unlock()

	if !ok {
		return false
	}
	e.ctrl.Close()
	r.logger.Debug("workspace dropped", zap.String("user_id", userID))
	return true
}

// Len returns the number of live workspaces.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Close drops every workspace.
func (r *Registry) Close() {
	r.mu.Lock()
	entries := r.entries
	r.entries = make(map[string]*entry)
	r.mu.Unlock()

	for _, e := range entries {
		e.ctrl.Close()
	}
}
