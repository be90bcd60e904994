// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package nickname

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Style selects the guidance fragment embedded into the prompt.
type Style string

// Built-in styles. The guidance text for each lives in styles.yaml.
const (
	StyleSweet    Style = "sweet"
	StylePlayful  Style = "playful"
	StyleRomantic Style = "romantic"
	StyleSilly    Style = "silly"
	StylePoetic   Style = "poetic"
)

//go:embed styles.yaml
var stylesYAML []byte

type styleEntry struct {
	Name     Style  `yaml:"name"`
	Guidance string `yaml:"guidance"`
}

type styleFile struct {
	Default Style        `yaml:"default"`
	Styles  []styleEntry `yaml:"styles"`
}

// StyleTable maps each style to its prompt guidance.
type StyleTable struct {
	def      Style
	order    []Style
	guidance map[Style]string
}

var defaultStyles = mustParseStyles(stylesYAML)

// ParseStyleTable decodes a YAML style table.
func ParseStyleTable(data []byte) (*StyleTable, error) {
	var f styleFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse style table: %w", err)
	}
	if len(f.Styles) == 0 {
		return nil, fmt.Errorf("style table has no styles")
	}

	t := &StyleTable{
		def:      f.Default,
		guidance: make(map[Style]string, len(f.Styles)),
	}
	for _, s := range f.Styles {
		name := Style(strings.ToLower(strings.TrimSpace(string(s.Name))))
		if name == "" {
			return nil, fmt.Errorf("style with empty name")
		}
		if _, dup := t.guidance[name]; dup {
			return nil, fmt.Errorf("duplicate style: %s", name)
		}
		t.order = append(t.order, name)
		t.guidance[name] = strings.TrimSpace(s.Guidance)
	}
	if _, ok := t.guidance[t.def]; !ok {
		return nil, fmt.Errorf("default style %q is not defined", t.def)
	}
	return t, nil
}

func mustParseStyles(data []byte) *StyleTable {
	t, err := ParseStyleTable(data)
	if err != nil {
		panic(err)
	}
	return t
}

// DefaultStyles returns the embedded style table.
func DefaultStyles() *StyleTable {
	return defaultStyles
}

// Default returns the style used when none (or an unknown one) is requested.
func (t *StyleTable) Default() Style {
	return t.def
}

// Styles lists the known styles in table order.
func (t *StyleTable) Styles() []Style {
	out := make([]Style, len(t.order))
	copy(out, t.order)
	return out
}

// Resolve normalizes a requested style name, falling back to the default.
func (t *StyleTable) Resolve(name string) Style {
	s := Style(strings.ToLower(strings.TrimSpace(name)))
	if _, ok := t.guidance[s]; ok {
		return s
	}
	return t.def
}

// Guidance returns the instruction fragment for a style.
func (t *StyleTable) Guidance(s Style) string {
	return t.guidance[t.Resolve(string(s))]
}
