// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// NewRecallTool creates the sweety_recall tool definition
func NewRecallTool() mcp.Tool {
	return mcp.NewTool("sweety_recall",
		mcp.WithDescription("List saved nicknames, newest first. Optionally filter by text found in the nickname or its memory."),
		mcp.WithString("query",
			mcp.Description("Case-insensitive text to look for. Omit to list everything."),
		),
	)
}

// RecallHandler handles the sweety_recall tool
func RecallHandler(tc *ToolContext) Handler {
	return func(c context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query := request.GetString("query", "")

		ctrl, _, err := tc.workspace(c)
		if err != nil {
			return mcp.NewToolResultError(errorText(err)), nil
		}

		records := ctrl.Find(query)
		if len(records) == 0 {
			if strings.TrimSpace(query) != "" {
				return mcp.NewToolResultText(fmt.Sprintf("No saved nicknames match '%s'.", query)), nil
			}
			return mcp.NewToolResultText("The vault is empty."), nil
		}

		var sb strings.Builder
		sb.WriteString(fmt.Sprintf("Found %d nickname(s):\n\n", len(records)))
		formatRecords(&sb, records)
		return mcp.NewToolResultText(sb.String()), nil
	}
}
