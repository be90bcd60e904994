// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package tools exposes the nickname workspace as MCP tools.
package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/tejzpr/sweety-vault/internal/auth"
	"github.com/tejzpr/sweety-vault/internal/controller"
	"github.com/tejzpr/sweety-vault/internal/nickname"
	"github.com/tejzpr/sweety-vault/internal/vault"
	"github.com/tejzpr/sweety-vault/internal/workspace"
)

// ToolContext holds shared dependencies for all tools.
// Session is fixed in stdio mode. Over HTTP it is nil and the session comes
// from the request context.
type ToolContext struct {
	Workspaces *workspace.Registry
	Session    *auth.Session
}

// NewToolContext creates a tool context
func NewToolContext(workspaces *workspace.Registry, session *auth.Session) *ToolContext {
	return &ToolContext{Workspaces: workspaces, Session: session}
}

// workspace resolves the caller's controller and a context carrying their session.
func (tc *ToolContext) workspace(ctx context.Context) (*controller.Controller, context.Context, error) {
	if tc.Session != nil {
		ctx = auth.WithSession(ctx, tc.Session)
	}
	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		return nil, ctx, auth.ErrUnauthenticated
	}
	ctrl, err := tc.Workspaces.Get(ctx, userID)
	if err != nil {
		return nil, ctx, err
	}
	return ctrl, ctx, nil
}

// Handler is the mcp-go tool handler signature.
type Handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)

// styleNames lists the built-in style names for tool schemas.
func styleNames() []string {
	styles := nickname.DefaultStyles().Styles()
	names := make([]string, 0, len(styles))
	for _, s := range styles {
		names = append(names, string(s))
	}
	return names
}

// errorText turns workspace errors into messages an assistant can act on.
func errorText(err error) string {
	switch {
	case errors.Is(err, auth.ErrUnauthenticated):
		return "not signed in"
	case errors.Is(err, controller.ErrBusy):
		return "the workspace is busy; wait for the current generation or save to finish"
	case errors.Is(err, controller.ErrNothingSelected):
		return "no nicknames selected; use sweety_select first"
	case errors.Is(err, controller.ErrUnknownCandidate):
		return "that label is not one of the current suggestions"
	case errors.Is(err, nickname.ErrEmptyMemory):
		return "memory text cannot be empty"
	default:
		return err.Error()
	}
}

func formatRecords(sb *strings.Builder, records []vault.Record) {
	for i, r := range records {
		sb.WriteString(fmt.Sprintf("%d. %s (%s)\n", i+1, r.Nickname, r.Date))
		sb.WriteString(fmt.Sprintf("   id: %s\n", r.ID))
		sb.WriteString(fmt.Sprintf("   memory: %s\n", r.Memory))
	}
}
