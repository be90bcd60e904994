// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package controller

import (
	"context"
	"errors"
	"fmt"

	"github.com/tejzpr/sweety-vault/internal/vault"
)

// ErrUnknownRecord is returned when a record id is not in the vault.
var ErrUnknownRecord = errors.New("record not found")

// SetSearch sets the vault filter.
func (c *Controller) SetSearch(query string) {
	c.mu.Lock()
	c.search = query
	c.mu.Unlock()
	c.publishState()
}

// VisibleRecords returns the saved records matching the search filter.
func (c *Controller) VisibleRecords() []vault.Record {
	c.mu.Lock()
	query := c.search
	c.mu.Unlock()
	return vault.Filter(c.vault.Records(), query)
}

// Find returns the saved records matching query without touching the
// workspace's own search filter.
func (c *Controller) Find(query string) []vault.Record {
	return vault.Filter(c.vault.Records(), query)
}

// ToggleExpanded expands the record with id, or collapses it if it is
// already the expanded one. It reports whether the record is now expanded.
func (c *Controller) ToggleExpanded(id string) bool {
	c.mu.Lock()
	expanded := c.expandedID != id
	if expanded {
		c.expandedID = id
	} else {
		c.expandedID = ""
	}
	c.mu.Unlock()
	c.publishState()
	return expanded
}

// RequestDelete marks id as awaiting delete confirmation.
func (c *Controller) RequestDelete(id string) {
	c.mu.Lock()
	c.pendingDeleteID = id
	c.mu.Unlock()
	c.publishState()
}

// CancelDelete clears any pending delete confirmation.
func (c *Controller) CancelDelete() {
	c.mu.Lock()
	c.pendingDeleteID = ""
	c.mu.Unlock()
	c.publishState()
}

// ConfirmDelete deletes the record with id. The pending delete flag is
// cleared whether or not the delete succeeds.
func (c *Controller) ConfirmDelete(ctx context.Context, id string) (bool, error) {
	removed, err := c.vault.Delete(ctx, id)

	c.mu.Lock()
	c.pendingDeleteID = ""
	if removed && c.expandedID == id {
		c.expandedID = ""
	}
	c.mu.Unlock()
	c.publishState()

	return removed, err
}

// CopyNickname writes the nickname of record id to the clipboard.
func (c *Controller) CopyNickname(ctx context.Context, id string) error {
	for _, r := range c.vault.Records() {
		if r.ID == id {
			return c.caps.Clipboard.WriteText(ctx, r.Nickname)
		}
	}
	return fmt.Errorf("copy %s: %w", id, ErrUnknownRecord)
}
