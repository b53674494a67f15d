package render

import (
	"strconv"
	"strings"

	"github.com/goliatone/go-formdoc/pkg/model"
	"github.com/goliatone/go-formdoc/pkg/rows"
)

const (
	indexWildcard = "*"
	approvalsPath = "approvals"
)

// ErrorMapping splits an error payload into field-level and form-level
// messages keyed by the dotted paths used throughout the render pipeline.
type ErrorMapping struct {
	Fields map[string][]string
	Form   []string
}

// MergeFormErrors concatenates and normalises multiple form-level error
// slices, trimming whitespace and removing duplicates while preserving order.
func MergeFormErrors(existing []string, extras ...string) []string {
	combined := make([]string, 0, len(existing)+len(extras))
	combined = append(combined, existing...)
	combined = append(combined, extras...)
	return normalizeMessages(combined)
}

// MapErrorPayload normalises server error payloads (JSON pointers, bracketed
// indexes, wrapper prefixes such as "body") into dotted field paths for def.
// Row cells keep their index ("items.0.qty"). Unknown paths are treated as
// form-level errors so messages are not lost.
func MapErrorPayload(def model.FormDefinition, payload map[string][]string) ErrorMapping {
	mapping := ErrorMapping{
		Fields: make(map[string][]string),
	}
	if len(payload) == 0 {
		return mapping
	}

	known := collectFieldPaths(def)
	for rawPath, messages := range payload {
		normalized := normalizeMessages(messages)
		if len(normalized) == 0 {
			continue
		}

		mapped, formLevel := mapErrorPath(rawPath, known)
		if formLevel || mapped == "" {
			mapping.Form = append(mapping.Form, normalized...)
			continue
		}
		mapping.Fields[mapped] = append(mapping.Fields[mapped], normalized...)
	}

	if len(mapping.Fields) == 0 {
		mapping.Fields = nil
	}
	mapping.Form = normalizeMessages(mapping.Form)
	return mapping
}

func normalizeMessages(messages []string) []string {
	if len(messages) == 0 {
		return nil
	}

	out := make([]string, 0, len(messages))
	seen := make(map[string]struct{}, len(messages))
	for _, message := range messages {
		trimmed := strings.TrimSpace(message)
		if trimmed == "" {
			continue
		}
		if _, exists := seen[trimmed]; exists {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}

	if len(out) == 0 {
		return nil
	}
	return out
}

func mapErrorPath(raw string, known map[string]struct{}) (string, bool) {
	trimmed := strings.TrimSpace(raw)
	if isFormLevelKey(trimmed) {
		return "", true
	}

	segments := parsePathSegments(trimmed)
	if len(segments) == 0 {
		return "", true
	}

	best := ""
	for _, variant := range [][]string{segments, dropWrapperSegments(segments)} {
		if path := longestMatchingPath(variant, known); len(path) > len(best) {
			best = path
		}
	}
	if best == "" {
		return "", true
	}
	return best, false
}

func parsePathSegments(path string) []string {
	clean := strings.TrimSpace(path)
	for strings.HasPrefix(clean, "#") || strings.HasPrefix(clean, "/") || strings.HasPrefix(clean, ".") || strings.HasPrefix(clean, "$") {
		clean = clean[1:]
	}

	replacer := strings.NewReplacer("[", ".", "]", "", "//", "/")
	clean = strings.Trim(replacer.Replace(clean), "./")
	if clean == "" {
		return nil
	}

	parts := strings.FieldsFunc(clean, func(r rune) bool {
		return r == '.' || r == '/'
	})
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		segment := strings.TrimSpace(part)
		if segment == "" {
			continue
		}
		segment = strings.ReplaceAll(segment, "~1", "/")
		segment = strings.ReplaceAll(segment, "~0", "~")
		out = append(out, segment)
	}
	return out
}

func dropWrapperSegments(segments []string) []string {
	out := segments
	for len(out) > 0 && isWrapperSegment(out[0]) {
		out = out[1:]
	}
	return out
}

func isWrapperSegment(segment string) bool {
	switch strings.ToLower(segment) {
	case "body", "request", "payload", "data", "values":
		return true
	default:
		return false
	}
}

// longestMatchingPath returns the longest prefix of segments that names a
// known path, where row indexes and dynamic column keys match wildcards.
func longestMatchingPath(segments []string, known map[string]struct{}) string {
	for end := len(segments); end > 0; end-- {
		prefix := segments[:end]
		if _, ok := known[strings.Join(wildcardSegments(prefix), ".")]; ok {
			return strings.Join(prefix, ".")
		}
	}
	return ""
}

func wildcardSegments(segments []string) []string {
	out := make([]string, len(segments))
	for i, segment := range segments {
		switch {
		case i > 0 && segments[i-1] == rows.DynamicFieldsKey:
			out[i] = indexWildcard
		case isIndex(segment):
			out[i] = indexWildcard
		default:
			out[i] = segment
		}
	}
	return out
}

func isIndex(segment string) bool {
	_, err := strconv.Atoi(segment)
	return err == nil
}

func collectFieldPaths(def model.FormDefinition) map[string]struct{} {
	dest := make(map[string]struct{})
	for _, section := range def.Sections {
		for _, field := range section.Fields {
			if name := strings.TrimSpace(field.Name); name != "" {
				dest[name] = struct{}{}
			}
		}
	}
	for _, table := range def.Tables {
		name := strings.TrimSpace(table.Name)
		if name == "" {
			continue
		}
		dest[name] = struct{}{}
		dest[joinPath(name, indexWildcard)] = struct{}{}
		for _, col := range table.Columns {
			dest[joinPath(name, indexWildcard, col.Name)] = struct{}{}
		}
		if table.DynamicColumns {
			dest[joinPath(name, indexWildcard, rows.DynamicFieldsKey, indexWildcard)] = struct{}{}
		}
	}
	if def.Approvals != nil {
		dest[approvalsPath] = struct{}{}
		dest[joinPath(approvalsPath, indexWildcard)] = struct{}{}
	}
	return dest
}

func joinPath(parts ...string) string {
	return strings.Join(parts, ".")
}

func isFormLevelKey(key string) bool {
	switch strings.ToLower(strings.TrimSpace(key)) {
	case "", ".", "/", "#", "$", "form", "base", "__all__", "non_field_errors", "non-field-errors":
		return true
	default:
		return false
	}
}
