// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package vault

import (
	"context"
	"sort"
	"sync"
)

// MemoryBackend keeps records in process memory. Contents are lost on exit.
type MemoryBackend struct {
	mu      sync.Mutex
	records map[string][]Record
}

// NewMemoryBackend creates an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{records: make(map[string][]Record)}
}

// List returns a copy of the user's records, newest first.
func (m *MemoryBackend) List(_ context.Context, userID string) ([]Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Record, len(m.records[userID]))
	copy(out, m.records[userID])
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// InsertMany appends records under their owners.
func (m *MemoryBackend) InsertMany(_ context.Context, records []Record) ([]Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, r := range records {
		m.records[r.UserID] = append(m.records[r.UserID], r)
	}
	out := make([]Record, len(records))
	copy(out, records)
	return out, nil
}

// Delete removes the record if present. Missing records are not an error.
func (m *MemoryBackend) Delete(_ context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	list := m.records[userID]
	for i, r := range list {
		if r.ID == id {
			m.records[userID] = append(list[:i:i], list[i+1:]...)
			return nil
		}
	}
	return nil
}
