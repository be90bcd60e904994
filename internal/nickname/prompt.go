// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package nickname

import (
	"fmt"
	"strings"
)

// LabelCount is the number of nicknames produced per generation.
const LabelCount = 5

const promptTemplate = `Generate exactly %d nicknames inspired by this relationship memory.

Style: %s

Rules:
- Each nickname is exactly two words, title case.
- No numbering, no explanations.
- Respond ONLY with a JSON array of %d strings, e.g. ["Sunset Chaser", "Pancake Royalty"].

Memory: %s`

// BuildPrompt composes the single user message sent to the LLM.
func BuildPrompt(table *StyleTable, memory string, style Style) string {
	return fmt.Sprintf(promptTemplate, LabelCount, table.Guidance(style), LabelCount, strings.TrimSpace(memory))
}
