// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package controller

import (
	"github.com/tejzpr/sweety-vault/internal/nickname"
	"github.com/tejzpr/sweety-vault/internal/vault"
)

// View is a snapshot of everything the UI renders.
type View struct {
	Phase      Phase          `json:"phase"`
	Status     string         `json:"status,omitempty"`
	Text       string         `json:"text"`
	Style      nickname.Style `json:"style"`
	Candidates []string       `json:"candidates"`
	Fallback   bool           `json:"fallback"`
	Selected   []string       `json:"selected"`

	Mode               InputMode `json:"mode"`
	Listening          bool      `json:"listening"`
	DictationSupported bool      `json:"dictation_supported"`

	Search          string         `json:"search"`
	Records         []vault.Record `json:"records"`
	Total           int            `json:"total"`
	ExpandedID      string         `json:"expanded_id,omitempty"`
	PendingDeleteID string         `json:"pending_delete_id,omitempty"`
}

// View returns a consistent snapshot of the workspace.
func (c *Controller) View() View {
	supported := c.caps.Recognizer.Supported()

	c.mu.Lock()
	v := View{
		Phase:              c.phase,
		Status:             c.status,
		Text:               c.text,
		Style:              c.style,
		Candidates:         append([]string{}, c.candidates...),
		Fallback:           c.fallback,
		Selected:           append([]string{}, c.selected...),
		Mode:               c.mode,
		Listening:          c.listening,
		DictationSupported: supported,
		Search:             c.search,
		ExpandedID:         c.expandedID,
		PendingDeleteID:    c.pendingDeleteID,
	}
	c.mu.Unlock()

	all := c.vault.Records()
	v.Total = len(all)
	v.Records = vault.Filter(all, v.Search)
	if v.Records == nil {
		v.Records = []vault.Record{}
	}
	return v
}
