// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package database

import (
	"context"
	"fmt"

	"github.com/tejzpr/sweety-vault/internal/vault"
	"gorm.io/gorm"
)

// VaultBackend stores vault records in the memories table.
type VaultBackend struct {
	db *gorm.DB
}

// NewVaultBackend creates a vault backend on db. The schema must already be migrated.
func NewVaultBackend(db *gorm.DB) *VaultBackend {
	return &VaultBackend{db: db}
}

// List returns the user's records, newest first.
func (b *VaultBackend) List(ctx context.Context, userID string) ([]vault.Record, error) {
	var rows []SweetyMemory
	err := b.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list memories: %w", err)
	}

	records := make([]vault.Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, toRecord(row))
	}
	return records, nil
}

// InsertMany stores records in a single transaction.
func (b *VaultBackend) InsertMany(ctx context.Context, records []vault.Record) ([]vault.Record, error) {
	if len(records) == 0 {
		return nil, nil
	}

	rows := make([]SweetyMemory, 0, len(records))
	for _, r := range records {
		rows = append(rows, SweetyMemory{
			ID:        r.ID,
			UserID:    r.UserID,
			Nickname:  r.Nickname,
			Memory:    r.Memory,
			Date:      r.Date,
			CreatedAt: r.CreatedAt,
		})
	}

	err := b.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&rows).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to insert memories: %w", err)
	}

	out := make([]vault.Record, 0, len(rows))
	for _, row := range rows {
		out = append(out, toRecord(row))
	}
	return out, nil
}

// Delete removes one record owned by userID. Deleting a missing row is not an error.
func (b *VaultBackend) Delete(ctx context.Context, userID, id string) error {
	result := b.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&SweetyMemory{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete memory: %w", result.Error)
	}
	return nil
}

func toRecord(row SweetyMemory) vault.Record {
	return vault.Record{
		ID:        row.ID,
		UserID:    row.UserID,
		Nickname:  row.Nickname,
		Memory:    row.Memory,
		CreatedAt: row.CreatedAt,
		Date:      row.Date,
	}
}
