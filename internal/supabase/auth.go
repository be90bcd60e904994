// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package supabase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/supabase-community/gotrue-go/types"
	"github.com/tejzpr/sweety-vault/internal/auth"
	"go.uber.org/zap"
)

// AuthProvider implements auth.Provider with Supabase Auth (gotrue).
type AuthProvider struct {
	client *Client
}

// NewAuthProvider creates an auth provider on c.
func NewAuthProvider(c *Client) *AuthProvider {
	return &AuthProvider{client: c}
}

// SignUp registers an account. When the project requires email
// confirmation no session is returned and the error says so.
func (p *AuthProvider) SignUp(_ context.Context, email, password string) (*auth.Session, error) {
	resp, err := p.client.anon.Auth.Signup(types.SignupRequest{
		Email:    strings.TrimSpace(email),
		Password: password,
	})
	if err != nil {
		return nil, classify("sign up", err)
	}
	if resp.AccessToken == "" {
		return nil, fmt.Errorf("%w: confirm your email before signing in", auth.ErrUnauthenticated)
	}
	return fromGotrue(resp.Session), nil
}

// SignIn exchanges email and password for a session.
func (p *AuthProvider) SignIn(_ context.Context, email, password string) (*auth.Session, error) {
	resp, err := p.client.anon.Auth.SignInWithEmailPassword(strings.TrimSpace(email), password)
	if err != nil {
		p.client.logger.Debug("supabase sign in rejected", zap.Error(err))
		return nil, classify("sign in", err)
	}
	return fromGotrue(resp.Session), nil
}

// SignOut revokes the session's refresh tokens.
func (p *AuthProvider) SignOut(_ context.Context, accessToken string) error {
	if err := p.client.anon.Auth.WithToken(accessToken).Logout(); err != nil {
		return fmt.Errorf("sign out: %w", err)
	}
	return nil
}

// GetSession resolves an access token to its user.
func (p *AuthProvider) GetSession(_ context.Context, accessToken string) (*auth.Session, error) {
	if accessToken == "" {
		return nil, auth.ErrUnauthenticated
	}
	user, err := p.client.anon.Auth.WithToken(accessToken).GetUser()
	if err != nil {
		p.client.logger.Debug("supabase token rejected", zap.Error(err))
		return nil, auth.ErrUnauthenticated
	}
	return &auth.Session{
		UserID:      user.ID.String(),
		Email:       user.Email,
		AccessToken: accessToken,
	}, nil
}

// Refresh exchanges a refresh token for a new session.
func (p *AuthProvider) Refresh(_ context.Context, refreshToken string) (*auth.Session, error) {
	resp, err := p.client.anon.Auth.RefreshToken(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", auth.ErrUnauthenticated, err)
	}
	return fromGotrue(resp.Session), nil
}

func fromGotrue(s types.Session) *auth.Session {
	session := &auth.Session{
		Email:        s.User.Email,
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
	}
	if s.User.ID != uuid.Nil {
		session.UserID = s.User.ID.String()
	}
	switch {
	case s.ExpiresAt > 0:
		session.ExpiresAt = time.Unix(s.ExpiresAt, 0).UTC()
	case s.ExpiresIn > 0:
		session.ExpiresAt = time.Now().Add(time.Duration(s.ExpiresIn) * time.Second).UTC()
	}
	return session
}

// classify maps gotrue's status-coded errors onto auth sentinels.
func classify(op string, err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "status code 400"),
		strings.Contains(msg, "status code 401"),
		strings.Contains(msg, "status code 422"):
		if op == "sign up" && strings.Contains(strings.ToLower(msg), "already") {
			return fmt.Errorf("%w: %v", auth.ErrEmailTaken, err)
		}
		return fmt.Errorf("%w: %v", auth.ErrInvalidCredentials, err)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
