// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package supabase

import (
	"context"
	"fmt"

	"github.com/supabase-community/postgrest-go"
	"github.com/tejzpr/sweety-vault/internal/vault"
)

// VaultBackend stores records in the memories table through PostgREST.
type VaultBackend struct {
	client *Client
}

// NewVaultBackend creates a vault backend on c.
func NewVaultBackend(c *Client) *VaultBackend {
	return &VaultBackend{client: c}
}

// List returns the user's records, newest first.
func (b *VaultBackend) List(ctx context.Context, userID string) ([]vault.Record, error) {
	client, err := b.client.forContext(ctx)
	if err != nil {
		return nil, err
	}

	var records []vault.Record
	_, err = client.From(MemoriesTable).
		Select("*", "", false).
		Eq("user_id", userID).
		Order("created_at", &postgrest.OrderOpts{Ascending: false}).
		ExecuteTo(&records)
	if err != nil {
		return nil, fmt.Errorf("select memories: %w", err)
	}
	return records, nil
}

// InsertMany inserts records and returns the stored representation.
func (b *VaultBackend) InsertMany(ctx context.Context, records []vault.Record) ([]vault.Record, error) {
	if len(records) == 0 {
		return nil, nil
	}
	client, err := b.client.forContext(ctx)
	if err != nil {
		return nil, err
	}

	var inserted []vault.Record
	_, err = client.From(MemoriesTable).
		Insert(records, false, "", "representation", "").
		ExecuteTo(&inserted)
	if err != nil {
		return nil, fmt.Errorf("insert memories: %w", err)
	}
	return inserted, nil
}

// Delete removes one record owned by userID.
func (b *VaultBackend) Delete(ctx context.Context, userID, id string) error {
	client, err := b.client.forContext(ctx)
	if err != nil {
		return err
	}

	_, _, err = client.From(MemoriesTable).
		Delete("minimal", "").
		Eq("id", id).
		Eq("user_id", userID).
		Execute()
	if err != nil {
		return fmt.Errorf("delete memory: %w", err)
	}
	return nil
}
