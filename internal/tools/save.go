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

// NewSaveTool creates the sweety_save tool definition
func NewSaveTool() mcp.Tool {
	return mcp.NewTool("sweety_save",
		mcp.WithDescription("Save the selected nicknames to the vault together with their memory. Nicknames already in the vault are skipped."),
	)
}

// SaveHandler handles the sweety_save tool
func SaveHandler(tc *ToolContext) Handler {
	return func(c context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ctrl, ctx, err := tc.workspace(c)
		if err != nil {
			return mcp.NewToolResultError(errorText(err)), nil
		}

		saved, err := ctrl.Confirm(ctx)
		if err != nil {
			return mcp.NewToolResultError(errorText(err)), nil
		}
		if len(saved) == 0 {
			return mcp.NewToolResultText("Nothing new was saved to the vault."), nil
		}

		var sb strings.Builder
		sb.WriteString(fmt.Sprintf("Saved %d nickname(s):\n", len(saved)))
		formatRecords(&sb, saved)
		return mcp.NewToolResultText(sb.String()), nil
	}
}
