// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package auth

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tejzpr/sweety-vault/internal/database"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open(&database.Config{
		Type:       database.TypeSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "test.db"),
		LogLevel:   logger.Silent,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}

func createUser(t *testing.T, db *gorm.DB, id, email string) *database.SweetyUser {
	t.Helper()
	user := &database.SweetyUser{ID: id, Email: email}
	require.NoError(t, db.Create(user).Error)
	return user
}

func TestGenerateToken(t *testing.T) {
	db := setupTestDB(t)
	user := createUser(t, db, "u-1", "test@example.com")
	tm := NewTokenManager(db, 24)

	token, err := tm.GenerateToken(user.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, token.AccessToken)
	assert.NotEmpty(t, token.RefreshToken)
	assert.Equal(t, user.ID, token.UserID)
	assert.True(t, token.ExpiresAt.After(time.Now()))
}

func TestValidateToken_Success(t *testing.T) {
	db := setupTestDB(t)
	user := createUser(t, db, "u-1", "test@example.com")
	tm := NewTokenManager(db, 24)

	token, err := tm.GenerateToken(user.ID)
	require.NoError(t, err)

	validToken, err := tm.ValidateToken(token.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, token.ID, validToken.ID)
	assert.Equal(t, user.ID, validToken.UserID)
}

func TestValidateToken_NotFound(t *testing.T) {
	tm := NewTokenManager(setupTestDB(t), 24)

	_, err := tm.ValidateToken("nonexistent")
	assert.ErrorIs(t, err, errTokenNotFound)
}

func TestValidateToken_Expired(t *testing.T) {
	db := setupTestDB(t)
	user := createUser(t, db, "u-1", "test@example.com")
	tm := NewTokenManager(db, 24)

	token := &database.SweetyAuthToken{
		UserID:      user.ID,
		AccessToken: "expired-token",
		ExpiresAt:   time.Now().Add(-time.Hour),
	}
	require.NoError(t, db.Create(token).Error)

	_, err := tm.ValidateToken("expired-token")
	assert.ErrorIs(t, err, errTokenExpired)
}

func TestRefreshToken_Success(t *testing.T) {
	db := setupTestDB(t)
	user := createUser(t, db, "u-1", "test@example.com")
	tm := NewTokenManager(db, 24)

	original, err := tm.GenerateToken(user.ID)
	require.NoError(t, err)

	refreshed, err := tm.RefreshToken(original.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, original.AccessToken, refreshed.AccessToken)
	assert.Equal(t, original.RefreshToken, refreshed.RefreshToken)

	_, err = tm.ValidateToken(original.AccessToken)
	assert.Error(t, err, "old access token is replaced")
}

func TestRefreshToken_NotFound(t *testing.T) {
	tm := NewTokenManager(setupTestDB(t), 24)

	_, err := tm.RefreshToken("nonexistent")
	assert.ErrorIs(t, err, errTokenNotFound)
}

func TestRefreshToken_Expired(t *testing.T) {
	db := setupTestDB(t)
	user := createUser(t, db, "u-1", "test@example.com")
	tm := NewTokenManager(db, 1)

	token := &database.SweetyAuthToken{
		UserID:       user.ID,
		AccessToken:  "access",
		RefreshToken: "old-refresh",
		ExpiresAt:    time.Now().Add(-time.Hour),
		CreatedAt:    time.Now().Add(-3 * time.Hour),
	}
	require.NoError(t, db.Create(token).Error)

	_, err := tm.RefreshToken("old-refresh")
	assert.ErrorIs(t, err, errTokenExpired)
}

func TestRevokeToken(t *testing.T) {
	db := setupTestDB(t)
	user := createUser(t, db, "u-1", "test@example.com")
	tm := NewTokenManager(db, 24)

	token, err := tm.GenerateToken(user.ID)
	require.NoError(t, err)

	require.NoError(t, tm.RevokeToken(token.AccessToken))
	_, err = tm.ValidateToken(token.AccessToken)
	assert.Error(t, err)

	assert.ErrorIs(t, tm.RevokeToken(token.AccessToken), errTokenNotFound)
}

func TestRevokeAllUserTokens(t *testing.T) {
	db := setupTestDB(t)
	user := createUser(t, db, "u-1", "test@example.com")
	other := createUser(t, db, "u-2", "other@example.com")
	tm := NewTokenManager(db, 24)

	t1, _ := tm.GenerateToken(user.ID)
	t2, _ := tm.GenerateToken(user.ID)
	t3, _ := tm.GenerateToken(other.ID)

	require.NoError(t, tm.RevokeAllUserTokens(user.ID))

	_, err := tm.ValidateToken(t1.AccessToken)
	assert.Error(t, err)
	_, err = tm.ValidateToken(t2.AccessToken)
	assert.Error(t, err)
	_, err = tm.ValidateToken(t3.AccessToken)
	assert.NoError(t, err)
}

func TestCleanExpiredTokens(t *testing.T) {
	db := setupTestDB(t)
	user := createUser(t, db, "u-1", "test@example.com")
	tm := NewTokenManager(db, 24)

	for i, offset := range []time.Duration{-2 * time.Hour, -time.Hour, time.Hour} {
		require.NoError(t, db.Create(&database.SweetyAuthToken{
			UserID:      user.ID,
			AccessToken: "token-" + string(rune('a'+i)),
			ExpiresAt:   time.Now().Add(offset),
		}).Error)
	}

	cleaned, err := tm.CleanExpiredTokens()
	require.NoError(t, err)
	assert.Equal(t, int64(2), cleaned)

	var remaining int64
	db.Model(&database.SweetyAuthToken{}).Count(&remaining)
	assert.Equal(t, int64(1), remaining)
}

func TestGetUserIDFromToken(t *testing.T) {
	db := setupTestDB(t)
	user := createUser(t, db, "u-1", "test@example.com")
	tm := NewTokenManager(db, 24)

	token, err := tm.GenerateToken(user.ID)
	require.NoError(t, err)

	userID, err := tm.GetUserIDFromToken(token.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, userID)
}

func TestGenerateRandomToken(t *testing.T) {
	token1, err := generateRandomToken(32)
	require.NoError(t, err)
	token2, err := generateRandomToken(32)
	require.NoError(t, err)

	assert.NotEmpty(t, token1)
	assert.NotEqual(t, token1, token2)
}
