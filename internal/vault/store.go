// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package vault keeps a user's saved nicknames in step with the backend
// that stores them.
package vault

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/tejzpr/sweety-vault/internal/flight"
	"go.uber.org/zap"
)

// Operation names reported to the Recorder.
const (
	OpLoad   = "load"
	OpSave   = "save"
	OpDelete = "delete"
)

// Recorder receives one observation per backend operation.
type Recorder interface {
	ObserveVaultOp(op string, err error)
}

// Store is the in-memory view of one user's vault.
type Store struct {
	backend Backend
	userID  string

	mu      sync.RWMutex
	records []Record
	loaded  bool

	saveGuard flight.Guard

	clock    clockwork.Clock
	logger   *zap.Logger
	recorder Recorder
	newID    func() string
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithClock sets the clock used to timestamp new records.
func WithClock(c clockwork.Clock) StoreOption {
	return func(s *Store) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) StoreOption {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithRecorder sets a metrics recorder.
func WithRecorder(r Recorder) StoreOption {
	return func(s *Store) {
		s.recorder = r
	}
}

// WithIDFunc overrides record id generation.
func WithIDFunc(fn func() string) StoreOption {
	return func(s *Store) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// NewStore creates a store for userID. A nil backend behaves as Disabled.
func NewStore(backend Backend, userID string, opts ...StoreOption) *Store {
	if backend == nil {
		backend = Disabled{}
	}
	s := &Store{
		backend: backend,
		userID:  userID,
		clock:   clockwork.NewRealClock(),
		logger:  zap.NewNop(),
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) configured() bool {
	if s.userID == "" {
		return false
	}
	_, disabled := s.backend.(Disabled)
	return !disabled
}

// Load replaces the in-memory list with the backend's contents. Without a
// backend or identity the list is simply empty.
func (s *Store) Load(ctx context.Context) error {
	if !s.configured() {
		s.mu.Lock()
		s.records = nil
		s.loaded = true
		s.mu.Unlock()
		return nil
	}

	records, err := s.backend.List(ctx, s.userID)
	s.observe(OpLoad, err)
	if err != nil {
		s.logger.Error("failed to load memories", zap.String("user_id", s.userID), zap.Error(err))
		return fmt.Errorf("load memories: %w", err)
	}

	s.mu.Lock()
	s.records = records
	s.loaded = true
	s.mu.Unlock()

	s.logger.Debug("memories loaded", zap.String("user_id", s.userID), zap.Int("count", len(records)))
	return nil
}

// Loaded reports whether Load has completed successfully at least once.
func (s *Store) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// Records returns a copy of the list, newest first.
func (s *Store) Records() []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Record, len(s.records))
	copy(out, s.records)
	return out
}

// Get returns the record with id.
func (s *Store) Get(id string) (Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.records {
		if r.ID == id {
			return r, true
		}
	}
	return Record{}, false
}

// SaveState reports whether a save is outstanding.
func (s *Store) SaveState() flight.State {
	return s.saveGuard.State()
}

// Save stores each label not already present in the list, paired with
// memory. Labels repeated within the call are stored once. It returns the
// records actually inserted; when nothing is novel it returns nil without
// contacting the backend, as it does when no backend or identity is
// configured. On failure the list is left untouched.
func (s *Store) Save(ctx context.Context, labels []string, memory string) ([]Record, error) {
	if !s.saveGuard.TryBegin() {
		return nil, ErrSaveInFlight
	}
	defer s.saveGuard.Finish()

	novel := s.novelLabels(labels)
	if len(novel) == 0 {
		return nil, nil
	}
	if !s.configured() {
		s.logger.Debug("vault not configured, selection not saved", zap.Int("count", len(novel)))
		return nil, nil
	}

	// Earlier labels get later timestamps so a reload ordered by
	// created_at DESC matches the prepended order. Postgres keeps
	// microseconds, so the offsets are whole microseconds.
	now := s.clock.Now().UTC()
	batch := make([]Record, 0, len(novel))
	for i, label := range novel {
		batch = append(batch, Record{
			ID:        s.newID(),
			UserID:    s.userID,
			Nickname:  label,
			Memory:    memory,
			CreatedAt: now.Add(time.Duration(len(novel)-1-i) * time.Microsecond),
			Date:      now.Format(DateLayout),
		})
	}

	inserted, err := s.backend.InsertMany(ctx, batch)
	s.observe(OpSave, err)
	if err != nil {
		s.logger.Error("failed to save memories",
			zap.String("user_id", s.userID),
			zap.Int("count", len(batch)),
			zap.Error(err),
		)
		return nil, fmt.Errorf("save memories: %w", err)
	}

	s.mu.Lock()
	merged := make([]Record, 0, len(inserted)+len(s.records))
	merged = append(merged, inserted...)
	merged = append(merged, s.records...)
	s.records = merged
	s.mu.Unlock()

	s.logger.Info("memories saved", zap.String("user_id", s.userID), zap.Int("count", len(inserted)))
	return inserted, nil
}

// novelLabels drops blank labels, labels already saved, and repeats.
// Comparison is exact on the trimmed label.
func (s *Store) novelLabels(labels []string) []string {
	s.mu.RLock()
	seen := make(map[string]struct{}, len(s.records)+len(labels))
	for _, r := range s.records {
		seen[r.Nickname] = struct{}{}
	}
	s.mu.RUnlock()

	var out []string
	for _, label := range labels {
		label = strings.TrimSpace(label)
		if label == "" {
			continue
		}
		if _, dup := seen[label]; dup {
			continue
		}
		seen[label] = struct{}{}
		out = append(out, label)
	}
	return out
}

// Delete removes the record with id. It reports whether a record was
// removed; an id not in the list is a no-op and the backend is not called.
func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	if _, ok := s.Get(id); !ok {
		return false, nil
	}
	if !s.configured() {
		return false, nil
	}

	err := s.backend.Delete(ctx, s.userID, id)
	s.observe(OpDelete, err)
	if err != nil {
		s.logger.Error("failed to delete memory",
			zap.String("user_id", s.userID),
			zap.String("id", id),
			zap.Error(err),
		)
		return false, fmt.Errorf("delete memory %s: %w", id, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, r := range s.records {
		if r.ID == id {
			s.records = append(s.records[:i:i], s.records[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) observe(op string, err error) {
	if s.recorder != nil {
		s.recorder.ObserveVaultOp(op, err)
	}
}
