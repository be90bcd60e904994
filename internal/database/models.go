// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package database

import (
	"time"

	"gorm.io/gorm"
)

// SweetyUser is a locally registered account
type SweetyUser struct {
	ID           string         `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Email        string         `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string         `gorm:"type:text" json:"-"` // Never expose in JSON
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

// TableName specifies the table name for SweetyUser
func (SweetyUser) TableName() string {
	return "sweety_users"
}

// SweetyAuthToken represents authentication tokens for users
type SweetyAuthToken struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UserID       string    `gorm:"index;not null;type:varchar(36)" json:"user_id"`
	AccessToken  string    `gorm:"type:text;not null" json:"access_token"`
	RefreshToken string    `gorm:"type:text" json:"refresh_token"`
	ExpiresAt    time.Time `gorm:"not null" json:"expires_at"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	// Foreign key relationship
	User SweetyUser `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name for SweetyAuthToken
func (SweetyAuthToken) TableName() string {
	return "sweety_auth_tokens"
}

// SweetyMemory is one saved nickname row. The table name and columns match
// the hosted memories table so both backends share a shape.
type SweetyMemory struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID    string    `gorm:"index;not null;type:varchar(36)" json:"user_id"`
	Nickname  string    `gorm:"not null" json:"nickname"`
	Memory    string    `gorm:"type:text;not null" json:"memory"`
	Date      string    `json:"date"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for SweetyMemory
func (SweetyMemory) TableName() string {
	return "memories"
}
