// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package vault

import (
	"context"
	"errors"
	"strings"
	"time"
)

// DateLayout is the human-readable display date stored with each record.
const DateLayout = "January 2, 2006"

// ErrSaveInFlight is returned when a save is already outstanding.
var ErrSaveInFlight = errors.New("save already in flight")

// Record is one saved nickname and the memory it came from.
type Record struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Nickname  string    `json:"nickname"`
	Memory    string    `json:"memory"`
	CreatedAt time.Time `json:"created_at"`
	Date      string    `json:"date"`
}

// Backend persists records for a user.
type Backend interface {
	// List returns every record owned by userID, newest first.
	List(ctx context.Context, userID string) ([]Record, error)
	// InsertMany stores records and returns them as persisted.
	InsertMany(ctx context.Context, records []Record) ([]Record, error)
	// Delete removes the record with id owned by userID.
	Delete(ctx context.Context, userID, id string) error
}

// Disabled is the backend used when no database is configured.
// Reads are empty and writes are discarded.
type Disabled struct{}

// List returns no records.
func (Disabled) List(context.Context, string) ([]Record, error) {
	return nil, nil
}

// InsertMany stores nothing.
func (Disabled) InsertMany(context.Context, []Record) ([]Record, error) {
	return nil, nil
}

// Delete is a no-op.
func (Disabled) Delete(context.Context, string, string) error {
	return nil
}

// Filter returns the records whose nickname or memory contains query,
// ignoring case. A blank query returns records unchanged.
func Filter(records []Record, query string) []Record {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return records
	}
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if strings.Contains(strings.ToLower(r.Nickname), q) ||
			strings.Contains(strings.ToLower(r.Memory), q) {
			out = append(out, r)
		}
	}
	return out
}
