// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package auth

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrInvalidCredentials is returned when email and password do not match.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrUnauthenticated is returned when a token is missing, unknown or expired.
	ErrUnauthenticated = errors.New("not authenticated")

	// ErrBackendUnavailable is returned when no auth backend is configured.
	ErrBackendUnavailable = errors.New("auth backend not configured")

	// ErrEmailTaken is returned by SignUp for an existing account.
	ErrEmailTaken = errors.New("email already registered")
)

// Session is an authenticated identity. UserID scopes every vault operation.
type Session struct {
	UserID       string    `json:"user_id"`
	Email        string    `json:"email"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Provider signs users in and resolves access tokens to sessions.
type Provider interface {
	SignUp(ctx context.Context, email, password string) (*Session, error)
	SignIn(ctx context.Context, email, password string) (*Session, error)
	SignOut(ctx context.Context, accessToken string) error
	// GetSession returns ErrUnauthenticated for unknown or expired tokens.
	GetSession(ctx context.Context, accessToken string) (*Session, error)
	Refresh(ctx context.Context, refreshToken string) (*Session, error)
}

// DisabledProvider is used when no backend is configured. Every call
// fails with ErrBackendUnavailable.
type DisabledProvider struct{}

func (DisabledProvider) SignUp(context.Context, string, string) (*Session, error) {
	return nil, ErrBackendUnavailable
}

func (DisabledProvider) SignIn(context.Context, string, string) (*Session, error) {
	return nil, ErrBackendUnavailable
}

func (DisabledProvider) SignOut(context.Context, string) error {
	return ErrBackendUnavailable
}

func (DisabledProvider) GetSession(context.Context, string) (*Session, error) {
	return nil, ErrUnauthenticated
}

func (DisabledProvider) Refresh(context.Context, string) (*Session, error) {
	return nil, ErrBackendUnavailable
}
