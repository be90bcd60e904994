// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package database

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tejzpr/sweety-vault/internal/vault"
)

func TestVaultBackend_InsertListDelete(t *testing.T) {
	b := NewVaultBackend(openTestDB(t))
	ctx := context.Background()
	base := time.Date(2024, time.March, 3, 10, 0, 0, 0, time.UTC)

	inserted, err := b.InsertMany(ctx, []vault.Record{
		{ID: "a", UserID: "u-1", Nickname: "Pastry Pirate", Memory: "Lisbon", Date: "March 3, 2024", CreatedAt: base},
		{ID: "b", UserID: "u-1", Nickname: "Tram Dancer", Memory: "Lisbon", Date: "March 3, 2024", CreatedAt: base.Add(time.Minute)},
		{ID: "c", UserID: "u-2", Nickname: "Not Yours", Memory: "elsewhere", CreatedAt: base},
	})
	require.NoError(t, err)
	assert.Len(t, inserted, 3)

	list, err := b.List(ctx, "u-1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "b", list[0].ID, "newest first")
	assert.Equal(t, "Pastry Pirate", list[1].Nickname)
	assert.Equal(t, "March 3, 2024", list[1].Date)
	assert.True(t, base.Equal(list[1].CreatedAt))

	// Another user's id is not deleted
	require.NoError(t, b.Delete(ctx, "u-1", "c"))
	other, err := b.List(ctx, "u-2")
	require.NoError(t, err)
	assert.Len(t, other, 1)

	require.NoError(t, b.Delete(ctx, "u-1", "a"))
	list, err = b.List(ctx, "u-1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "b", list[0].ID)
}

func TestVaultBackend_DuplicateIDRollsBack(t *testing.T) {
	b := NewVaultBackend(openTestDB(t))
	ctx := context.Background()

	_, err := b.InsertMany(ctx, []vault.Record{{ID: "a", UserID: "u-1", Nickname: "One", Memory: "m"}})
	require.NoError(t, err)

	_, err = b.InsertMany(ctx, []vault.Record{
		{ID: "b", UserID: "u-1", Nickname: "Two", Memory: "m"},
		{ID: "a", UserID: "u-1", Nickname: "Clash", Memory: "m"},
	})
	assert.Error(t, err)

	list, err := b.List(ctx, "u-1")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestVaultBackend_WithStore(t *testing.T) {
	b := NewVaultBackend(openTestDB(t))
	ctx := context.Background()

	s := vault.NewStore(b, "u-1")
	require.NoError(t, s.Load(ctx))
	_, err := s.Save(ctx, []string{"Joy Bringer", "Love Architect"}, "a picnic")
	require.NoError(t, err)

	reloaded := vault.NewStore(b, "u-1")
	require.NoError(t, reloaded.Load(ctx))
	assert.Len(t, reloaded.Records(), 2)

	_, err = reloaded.Save(ctx, []string{"Joy Bringer"}, "a picnic")
	require.NoError(t, err)
	assert.Len(t, reloaded.Records(), 2)
}
