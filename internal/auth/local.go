// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package auth

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/google/uuid"
	"github.com/tejzpr/sweety-vault/internal/database"
	"gorm.io/gorm"
)

// LocalAuthenticator handles local system authentication for stdio mode
type LocalAuthenticator struct {
	tokenManager     *TokenManager
	useAccessingUser bool // If true, use ACCESSING_USER env var instead of whoami
}

// NewLocalAuthenticator creates a new local authenticator
func NewLocalAuthenticator(tm *TokenManager) *LocalAuthenticator {
	return &LocalAuthenticator{
		tokenManager:     tm,
		useAccessingUser: false,
	}
}

// NewLocalAuthenticatorWithAccessingUser creates a local authenticator that uses ACCESSING_USER env var
func NewLocalAuthenticatorWithAccessingUser(tm *TokenManager) *LocalAuthenticator {
	return &LocalAuthenticator{
		tokenManager:     tm,
		useAccessingUser: true,
	}
}

// GetLocalUsername gets the username based on configuration:
// - If useAccessingUser is true: use ACCESSING_USER env var (for MCP clients launched on behalf of someone)
// - Otherwise: use whoami
func (l *LocalAuthenticator) GetLocalUsername() (string, error) {
	if l.useAccessingUser {
		username := os.Getenv("ACCESSING_USER")
		if username == "" {
			return "", fmt.Errorf("ACCESSING_USER environment variable is required but not set")
		}
		return strings.TrimSpace(username), nil
	}

	cmd := exec.Command("whoami")
	output, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("failed to get username via whoami: %w", err)
	}
	username := strings.TrimSpace(string(output))
	if username == "" {
		return "", fmt.Errorf("whoami returned empty username")
	}
	return username, nil
}

// LocalEmail is the synthetic email under which a system user is stored
func LocalEmail(username string) string {
	return username + "@local"
}

// Authenticate creates or retrieves the local user and generates a token.
// Local users have no password and cannot sign in over HTTP.
func (l *LocalAuthenticator) Authenticate(db *gorm.DB) (*Session, error) {
	username, err := l.GetLocalUsername()
	if err != nil {
		return nil, err
	}

	var user database.SweetyUser
	result := db.Where("email = ?", LocalEmail(username)).FirstOrCreate(&user, database.SweetyUser{
		ID:    uuid.NewString(),
		Email: LocalEmail(username),
	})
	if result.Error != nil {
		return nil, fmt.Errorf("failed to create/find user: %w", result.Error)
	}

	token, err := l.tokenManager.GenerateToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	return sessionFromToken(&user, token), nil
}

func sessionFromToken(user *database.SweetyUser, token *database.SweetyAuthToken) *Session {
	return &Session{
		UserID:       user.ID,
		Email:        user.Email,
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    token.ExpiresAt,
	}
}
