// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package nickname

import (
	"encoding/json"
	"fmt"
	"strings"
)

// StripFences removes a surrounding markdown code fence (``` or ```json)
// from an LLM response.
func StripFences(text string) string {
	s := strings.TrimSpace(text)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	// Drop an info string such as "json" on the opening fence line.
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		if !strings.ContainsAny(s[:nl], "[]\"") {
			s = s[nl+1:]
		}
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// ParseLabels extracts exactly LabelCount non-empty labels from a response.
func ParseLabels(text string) ([]string, error) {
	s := StripFences(text)

	start := strings.IndexByte(s, '[')
	if start < 0 {
		return nil, fmt.Errorf("%w: no JSON array in response", ErrInvalidResponse)
	}

	// Decode a single value; anything the model writes after it is ignored.
	var raw []string
	if err := json.NewDecoder(strings.NewReader(s[start:])).Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if len(raw) != LabelCount {
		return nil, fmt.Errorf("%w: expected %d labels, got %d", ErrInvalidResponse, LabelCount, len(raw))
	}

	labels := make([]string, 0, len(raw))
	for i, l := range raw {
		l = strings.TrimSpace(l)
		if l == "" {
			return nil, fmt.Errorf("%w: label %d is empty", ErrInvalidResponse, i)
		}
		labels = append(labels, l)
	}
	return labels, nil
}
