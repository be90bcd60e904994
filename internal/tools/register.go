// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package tools

import (
	"github.com/mark3labs/mcp-go/server"
)

// Register adds every sweety tool to s.
func Register(s *server.MCPServer, tc *ToolContext) {
	s.AddTool(NewGenerateTool(), server.ToolHandlerFunc(GenerateHandler(tc)))
	s.AddTool(NewSelectTool(), server.ToolHandlerFunc(SelectHandler(tc)))
	s.AddTool(NewSaveTool(), server.ToolHandlerFunc(SaveHandler(tc)))
	s.AddTool(NewRecallTool(), server.ToolHandlerFunc(RecallHandler(tc)))
	s.AddTool(NewForgetTool(), server.ToolHandlerFunc(ForgetHandler(tc)))
}
