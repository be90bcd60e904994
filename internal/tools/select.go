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

// NewSelectTool creates the sweety_select tool definition
func NewSelectTool() mcp.Tool {
	return mcp.NewTool("sweety_select",
		mcp.WithDescription("Toggle suggested nicknames in or out of the selection. Selecting a label twice deselects it."),
		mcp.WithArray("labels",
			mcp.Required(),
			mcp.Description("Labels exactly as returned by sweety_generate"),
			mcp.WithStringItems(),
		),
	)
}

// SelectHandler handles the sweety_select tool
func SelectHandler(tc *ToolContext) Handler {
	return func(c context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		labels, err := request.RequireStringSlice("labels")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if len(labels) == 0 {
			return mcp.NewToolResultError("labels cannot be empty"), nil
		}

		ctrl, _, err := tc.workspace(c)
		if err != nil {
			return mcp.NewToolResultError(errorText(err)), nil
		}

		for _, label := range labels {
			if _, err := ctrl.ToggleSelection(label); err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("%s: %s", label, errorText(err))), nil
			}
		}

		selected := ctrl.Selection()
		if len(selected) == 0 {
			return mcp.NewToolResultText("Nothing selected."), nil
		}
		return mcp.NewToolResultText("Selected: " + strings.Join(selected, ", ")), nil
	}
}
