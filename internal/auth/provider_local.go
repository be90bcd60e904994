// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"github.com/tejzpr/sweety-vault/internal/database"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// MinPasswordLength is the shortest password SignUp accepts.
const MinPasswordLength = 6

// LocalProvider authenticates email/password accounts stored in the local database.
type LocalProvider struct {
	db     *gorm.DB
	tokens *TokenManager
	cost   int
}

// NewLocalProvider creates a provider backed by db.
func NewLocalProvider(db *gorm.DB, tokens *TokenManager) *LocalProvider {
	return &LocalProvider{db: db, tokens: tokens, cost: bcrypt.DefaultCost}
}

// SignUp registers a new account and signs it in.
func (p *LocalProvider) SignUp(ctx context.Context, email, password string) (*Session, error) {
	email = normalizeEmail(email)
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, fmt.Errorf("%w: malformed email", ErrInvalidCredentials)
	}
	if len(password) < MinPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidCredentials, MinPasswordLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), p.cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := database.SweetyUser{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
	}

	err = p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&database.SweetyUser{}).Where("email = ?", email).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrEmailTaken
		}
		return tx.Create(&user).Error
	})
	if err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return p.issue(&user)
}

// SignIn checks the password and issues a new token.
func (p *LocalProvider) SignIn(ctx context.Context, email, password string) (*Session, error) {
	var user database.SweetyUser
	err := p.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	if user.PasswordHash == "" {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return p.issue(&user)
}

// SignOut revokes the access token. Unknown tokens are ignored.
func (p *LocalProvider) SignOut(_ context.Context, accessToken string) error {
	if err := p.tokens.RevokeToken(accessToken); err != nil && !errors.Is(err, errTokenNotFound) {
		return err
	}
	return nil
}

// GetSession resolves an access token.
func (p *LocalProvider) GetSession(ctx context.Context, accessToken string) (*Session, error) {
	if accessToken == "" {
		return nil, ErrUnauthenticated
	}
	token, err := p.tokens.ValidateToken(accessToken)
	if err != nil {
		if errors.Is(err, errTokenNotFound) || errors.Is(err, errTokenExpired) {
			return nil, ErrUnauthenticated
		}
		return nil, err
	}
	return p.sessionFor(ctx, token)
}

// Refresh rotates the access token for a refresh token.
func (p *LocalProvider) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	token, err := p.tokens.RefreshToken(refreshToken)
	if err != nil {
		if errors.Is(err, errTokenNotFound) || errors.Is(err, errTokenExpired) {
			return nil, ErrUnauthenticated
		}
		return nil, err
	}
	return p.sessionFor(ctx, token)
}

func (p *LocalProvider) sessionFor(ctx context.Context, token *database.SweetyAuthToken) (*Session, error) {
	var user database.SweetyUser
	if err := p.db.WithContext(ctx).First(&user, "id = ?", token.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return sessionFromToken(&user, token), nil
}

func (p *LocalProvider) issue(user *database.SweetyUser) (*Session, error) {
	token, err := p.tokens.GenerateToken(user.ID)
	if err != nil {
		return nil, err
	}
	return sessionFromToken(user, token), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
