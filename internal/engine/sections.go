package engine

import (
	"strings"

	"resumescore/internal/types"
)

// SectionMap is an insertion-ordered mapping from section kind to its text.
type SectionMap struct {
	order   []types.SectionKind
	content map[types.SectionKind]string
}

func newSectionMap() SectionMap {
	return SectionMap{content: make(map[types.SectionKind]string)}
}

// Kinds returns the section kinds in the order they were first seen.
func (m SectionMap) Kinds() []types.SectionKind {
	return append([]types.SectionKind(nil), m.order...)
}

func (m SectionMap) Get(kind types.SectionKind) (string, bool) {
	c, ok := m.content[kind]
	return c, ok
}

func (m SectionMap) Len() int {
	return len(m.order)
}

// ToMap returns a plain map copy, mostly useful in tests and debug output.
func (m SectionMap) ToMap() map[types.SectionKind]string {
	out := make(map[types.SectionKind]string, len(m.content))
	for k, v := range m.content {
		out[k] = v
	}
	return out
}

// appendLines adds lines to kind. A kind that appears under a second header
// keeps its first position and accumulates the new lines after the old ones.
func (m *SectionMap) appendLines(kind types.SectionKind, lines []string) {
	if len(lines) == 0 {
		return
	}
	block := strings.Join(lines, "\n")
	if existing, ok := m.content[kind]; ok {
		m.content[kind] = existing + "\n" + block
		return
	}
	m.order = append(m.order, kind)
	m.content[kind] = block
}

func matchHeader(line string) (types.SectionKind, bool) {
	for _, hp := range headerPatterns {
		if hp.pattern.MatchString(line) {
			return hp.kind, true
		}
	}
	return "", false
}

// DetectSections splits text into sections by header lines. Blank lines are
// dropped and the remaining lines are trimmed. Content preceding any header
// belongs to the summary section. Header lines themselves are not content.
func DetectSections(text string) SectionMap {
	sections := newSectionMap()
	active := types.SectionSummary
	var buffer []string

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		if kind, ok := matchHeader(line); ok {
			sections.appendLines(active, buffer)
			buffer = nil
			active = kind
			continue
		}
		buffer = append(buffer, line)
	}
	sections.appendLines(active, buffer)

	return sections
}
