// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// NewForgetTool creates the sweety_forget tool definition
func NewForgetTool() mcp.Tool {
	return mcp.NewTool("sweety_forget",
		mcp.WithDescription("Permanently delete a saved nickname. Deletion cannot be undone, so only call this after the user has confirmed."),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Record id as shown by sweety_recall"),
		),
	)
}

// ForgetHandler handles the sweety_forget tool. The call itself is the
// confirmation step.
func ForgetHandler(tc *ToolContext) Handler {
	return func(c context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := request.RequireString("id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		ctrl, ctx, err := tc.workspace(c)
		if err != nil {
			return mcp.NewToolResultError(errorText(err)), nil
		}

		ctrl.RequestDelete(id)
		removed, err := ctrl.ConfirmDelete(ctx, id)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to delete %s: %s", id, errorText(err))), nil
		}
		if !removed {
			return mcp.NewToolResultError(fmt.Sprintf("nickname not found: %s", id)), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("Deleted %s.", id)), nil
	}
}
