// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package database

import (
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// AllModels returns all database models for migration
func AllModels() []interface{} {
	return []interface{}{
		&SweetyUser{},
		&SweetyAuthToken{},
		&SweetyMemory{},
	}
}

// Migrate runs database migrations for all models
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// CreateIndexes creates additional indexes for better query performance
func CreateIndexes(db *gorm.DB) error {
	indexes := []struct {
		table   string
		columns []string
		name    string
	}{
		{
			table:   "memories",
			columns: []string{"user_id", "created_at"},
			name:    "idx_memories_user_created",
		},
		{
			table:   "sweety_auth_tokens",
			columns: []string{"user_id", "expires_at"},
			name:    "idx_tokens_user_expires",
		},
		{
			table:   "sweety_auth_tokens",
			columns: []string{"access_token"},
			name:    "idx_tokens_access",
		},
	}

	for _, idx := range indexes {
		if db.Migrator().HasIndex(idx.table, idx.name) {
			continue
		}
		sql := fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (%s)",
			idx.name,
			idx.table,
			strings.Join(idx.columns, ", "))

		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}
	}

	return nil
}
