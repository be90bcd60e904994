// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package nickname

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fiveLabels = []string{"Sunset Chaser", "Pancake Royalty", "Lisbon Wanderer", "Pastry Pirate", "Tram Dancer"}

func TestStripFences(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain", `["a"]`, `["a"]`},
		{"json fence", "```json\n[\"a\"]\n```", `["a"]`},
		{"bare fence", "```\n[\"a\"]\n```", `["a"]`},
		{"single line fence", "```json[\"a\"]```", `["a"]`},
		{"fence with array on first line", "```[\"a\"]\n```", `["a"]`},
		{"surrounding whitespace", "  \n```json\n[\"a\"]\n```  \n", `["a"]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, StripFences(tt.input))
		})
	}
}

func TestParseLabels(t *testing.T) {
	valid := `["Sunset Chaser", "Pancake Royalty", "Lisbon Wanderer", "Pastry Pirate", "Tram Dancer"]`

	tests := []struct {
		name        string
		input       string
		expectError bool
	}{
		{"plain array", valid, false},
		{"fenced array", "```json\n" + valid + "\n```", false},
		{"array with preamble", "Here you go!\n" + valid, false},
		{"array with trailing chatter", valid + "\nHope you like them [smile]", false},
		{"padded labels", `[" Sunset Chaser ", "Pancake Royalty", "Lisbon Wanderer", "Pastry Pirate", "Tram Dancer "]`, false},
		{"comma separated text", "Sunset Chaser, Pancake Royalty, Lisbon Wanderer, Pastry Pirate, Tram Dancer", true},
		{"four labels", `["A B", "C D", "E F", "G H"]`, true},
		{"six labels", `["A B", "C D", "E F", "G H", "I J", "K L"]`, true},
		{"empty label", `["A B", "", "E F", "G H", "I J"]`, true},
		{"not strings", `[1, 2, 3, 4, 5]`, true},
		{"truncated", `["A B", "C D"`, true},
		{"empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			labels, err := ParseLabels(tt.input)
			if tt.expectError {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidResponse)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, fiveLabels, labels)
		})
	}
}
