// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/tejzpr/sweety-vault/internal/nickname"
)

// NewGenerateTool creates the sweety_generate tool definition
func NewGenerateTool() mcp.Tool {
	return mcp.NewTool("sweety_generate",
		mcp.WithDescription("Suggest five affectionate nicknames inspired by a shared memory. Replaces any suggestions and selection from a previous call."),
		mcp.WithString("memory",
			mcp.Required(),
			mcp.Description("A short description of a memory you share with someone"),
		),
		mcp.WithString("style",
			mcp.Description("Tone of the nicknames"),
			mcp.Enum(styleNames()...),
		),
	)
}

// GenerateHandler handles the sweety_generate tool
func GenerateHandler(tc *ToolContext) Handler {
	return func(c context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		memory, err := request.RequireString("memory")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		style := nickname.Style(request.GetString("style", ""))

		ctrl, ctx, err := tc.workspace(c)
		if err != nil {
			return mcp.NewToolResultError(errorText(err)), nil
		}

		res, err := ctrl.SubmitMemory(ctx, memory, style)
		if err != nil {
			return mcp.NewToolResultError(errorText(err)), nil
		}

		var sb strings.Builder
		sb.WriteString(fmt.Sprintf("Nicknames (%s):\n", res.Style))
		for i, label := range res.Labels {
			sb.WriteString(fmt.Sprintf("%d. %s\n", i+1, label))
		}
		if res.Fallback {
			sb.WriteString("\nThe nickname service was unavailable, so these are the standard suggestions.\n")
		}
		sb.WriteString("\nPick favourites with sweety_select, then keep them with sweety_save.")
		return mcp.NewToolResultText(sb.String()), nil
	}
}
