// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package supabase adapts a hosted Supabase project to the vault backend and
// auth provider interfaces.
package supabase

import (
	"context"
	"errors"
	"fmt"

	supa "github.com/supabase-community/supabase-go"
	"github.com/tejzpr/sweety-vault/internal/auth"
	"go.uber.org/zap"
)

// MemoriesTable is the table holding saved nicknames.
const MemoriesTable = "memories"

// ErrNotConfigured is returned when the URL or anon key is missing.
var ErrNotConfigured = errors.New("supabase url and anon key are required")

// Config holds the project coordinates.
type Config struct {
	URL     string
	AnonKey string
}

// Client wraps a supabase-go client. Row access runs as the signed-in user
// when the request context carries a session, so row level security applies.
type Client struct {
	cfg    Config
	anon   *supa.Client
	logger *zap.Logger
}

// New creates a client for cfg.
func New(cfg Config, logger *zap.Logger) (*Client, error) {
	if cfg.URL == "" || cfg.AnonKey == "" {
		return nil, ErrNotConfigured
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	anon, err := supa.NewClient(cfg.URL, cfg.AnonKey, nil)
	if err != nil {
		return nil, fmt.Errorf("create supabase client: %w", err)
	}
	return &Client{cfg: cfg, anon: anon, logger: logger}, nil
}

// forContext returns a client authorised as the session in ctx, or the
// anonymous client when there is none.
func (c *Client) forContext(ctx context.Context) (*supa.Client, error) {
	token, ok := auth.GetTokenFromContext(ctx)
	if !ok || token == "" {
		return c.anon, nil
	}
	client, err := supa.NewClient(c.cfg.URL, c.cfg.AnonKey, &supa.ClientOptions{
		Headers: map[string]string{"Authorization": "Bearer " + token},
	})
	if err != nil {
		return nil, fmt.Errorf("create supabase client: %w", err)
	}
	return client, nil
}
