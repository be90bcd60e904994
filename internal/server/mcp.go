// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package server

import (
	"context"
	"net/http"

	"github.com/mark3labs/mcp-go/server"
	"github.com/tejzpr/sweety-vault/internal/auth"
	"github.com/tejzpr/sweety-vault/internal/tools"
)

// MCPServer wraps the mcp-go server with the sweety tools
type MCPServer struct {
	mcpServer *server.MCPServer
	toolCtx   *tools.ToolContext
}

// NewMCPServer creates a new MCP server instance with every tool registered
func NewMCPServer(version string, toolCtx *tools.ToolContext) *MCPServer {
	if version == "" {
		version = "dev"
	}
	mcpServer := server.NewMCPServer(
		"Sweety",
		version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions("Turn shared memories into affectionate nicknames: sweety_generate suggests five, sweety_select picks favourites, sweety_save keeps them, sweety_recall lists the vault and sweety_forget deletes an entry."),
	)
	tools.Register(mcpServer, toolCtx)

	return &MCPServer{
		mcpServer: mcpServer,
		toolCtx:   toolCtx,
	}
}

// GetMCPServer returns the underlying MCP server
func (s *MCPServer) GetMCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio serves the tools over stdin/stdout
func (s *MCPServer) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// HTTPHandler serves the tools over streamable HTTP. The caller's session is
// taken from the request context, so mount it behind RequireAuth.
func (s *MCPServer) HTTPHandler() http.Handler {
	return server.NewStreamableHTTPServer(s.mcpServer,
		server.WithStateLess(true),
		server.WithHTTPContextFunc(func(ctx context.Context, r *http.Request) context.Context {
			if session, ok := auth.SessionFromContext(r.Context()); ok {
				return auth.WithSession(ctx, session)
			}
			return ctx
		}),
	)
}
