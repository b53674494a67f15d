package render

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/goliatone/go-formdoc/pkg/model"
)

const fieldTagsKey = "tags"

// Subset selects part of a definition for partial rendering (a single
// section preview, the line items only, and so on). Tokens are matched
// case-insensitively.
type Subset struct {
	Sections []string `json:"sections,omitempty"`
	Tables   []string `json:"tables,omitempty"`
	// Tags keeps only fields whose Metadata["tags"] (comma separated or a
	// JSON array) contains one of the tokens.
	Tags []string `json:"tags,omitempty"`
	// Approvals keeps the signature block when other filters are active.
	Approvals bool `json:"approvals,omitempty"`
}

// Empty reports whether the subset carries no usable tokens.
func (s Subset) Empty() bool {
	return newSubsetMatcher(s).empty()
}

// ApplySubset removes sections, tables and fields that do not match subset.
// Sections left without fields are dropped. When subset is empty or def is
// nil the definition is returned unchanged.
func ApplySubset(def *model.FormDefinition, subset Subset) {
	if def == nil {
		return
	}
	matcher := newSubsetMatcher(subset)
	if matcher.empty() {
		return
	}

	sections := make([]model.Section, 0, len(def.Sections))
	for _, section := range def.Sections {
		fields := make([]model.Field, 0, len(section.Fields))
		sectionMatch := matcher.matchesSection(section.ID)
		for _, field := range section.Fields {
			if (sectionMatch && len(matcher.tags) == 0) || matcher.matchesTags(field) {
				fields = append(fields, field)
			}
		}
		if len(fields) == 0 {
			continue
		}
		section.Fields = fields
		sections = append(sections, section)
	}
	def.Sections = nilIfEmptySections(sections)

	tables := make([]model.Table, 0, len(def.Tables))
	for _, table := range def.Tables {
		if matcher.matchesTable(table.Name) {
			tables = append(tables, table)
		}
	}
	if len(tables) == 0 {
		def.Tables = nil
	} else {
		def.Tables = tables
	}

	if !subset.Approvals {
		def.Approvals = nil
	}
}

type subsetMatcher struct {
	sections map[string]struct{}
	tables   map[string]struct{}
	tags     map[string]struct{}
}

func newSubsetMatcher(subset Subset) subsetMatcher {
	return subsetMatcher{
		sections: normaliseTokens(subset.Sections),
		tables:   normaliseTokens(subset.Tables),
		tags:     normaliseTokens(subset.Tags),
	}
}

func (m subsetMatcher) empty() bool {
	return len(m.sections) == 0 && len(m.tables) == 0 && len(m.tags) == 0
}

func (m subsetMatcher) matchesSection(id string) bool {
	_, ok := m.sections[normaliseToken(id)]
	return ok
}

func (m subsetMatcher) matchesTable(name string) bool {
	_, ok := m.tables[normaliseToken(name)]
	return ok
}

func (m subsetMatcher) matchesTags(field model.Field) bool {
	if len(m.tags) == 0 || field.Metadata == nil {
		return false
	}
	for _, tag := range parseTokenList(field.Metadata[fieldTagsKey]) {
		if _, ok := m.tags[tag]; ok {
			return true
		}
	}
	return false
}

func nilIfEmptySections(sections []model.Section) []model.Section {
	if len(sections) == 0 {
		return nil
	}
	return sections
}

func normaliseTokens(values []string) map[string]struct{} {
	result := make(map[string]struct{}, len(values))
	for _, value := range values {
		if token := normaliseToken(value); token != "" {
			result[token] = struct{}{}
		}
	}
	if len(result) == 0 {
		return nil
	}
	return result
}

func normaliseToken(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func parseTokenList(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	var entries []string
	if strings.HasPrefix(raw, "[") {
		var parsed []any
		if err := json.Unmarshal([]byte(raw), &parsed); err == nil {
			for _, entry := range parsed {
				entries = append(entries, fmt.Sprint(entry))
			}
		}
	}
	if entries == nil {
		entries = strings.Split(raw, ",")
	}

	seen := make(map[string]struct{}, len(entries))
	tokens := make([]string, 0, len(entries))
	for _, entry := range entries {
		token := normaliseToken(entry)
		if token == "" {
			continue
		}
		if _, dup := seen[token]; dup {
			continue
		}
		seen[token] = struct{}{}
		tokens = append(tokens, token)
	}
	return tokens
}
