package html

import (
	"strconv"
	"strings"
)

// Form control names reserved for structural edits. They never collide with
// value paths because value paths cannot start with "_".
const (
	ActionField = "_action"
	ColumnField = "_column"
	RoleField   = "_role"
)

// ActionKind names a structural edit requested by an edit-mode form post.
type ActionKind string

const (
	ActionSubmit       ActionKind = "submit"
	ActionAddRow       ActionKind = "add-row"
	ActionRemoveRow    ActionKind = "remove-row"
	ActionAddColumn    ActionKind = "add-column"
	ActionRemoveColumn ActionKind = "remove-column"
	ActionAddRole      ActionKind = "add-role"
	ActionRemoveRole   ActionKind = "remove-role"
)

// Action is a decoded "_action" value such as "remove-row:items:2".
type Action struct {
	Kind   ActionKind
	Table  string
	Index  int
	Column string
}

// ParseAction decodes an "_action" button value. Blank input reads as a
// plain submit.
func ParseAction(raw string) (Action, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Action{Kind: ActionSubmit}, true
	}
	parts := strings.Split(raw, ":")
	kind := ActionKind(parts[0])
	switch kind {
	case ActionSubmit, ActionAddRole:
		return Action{Kind: kind}, len(parts) == 1
	case ActionAddRow, ActionAddColumn:
		if len(parts) != 2 || parts[1] == "" {
			return Action{}, false
		}
		return Action{Kind: kind, Table: parts[1]}, true
	case ActionRemoveRow:
		if len(parts) != 3 {
			return Action{}, false
		}
		idx, err := strconv.Atoi(parts[2])
		if err != nil || idx < 0 {
			return Action{}, false
		}
		return Action{Kind: kind, Table: parts[1], Index: idx}, true
	case ActionRemoveColumn:
		if len(parts) < 3 || parts[1] == "" {
			return Action{}, false
		}
		// Column keys have no whitespace but may contain ':'.
		return Action{Kind: kind, Table: parts[1], Column: strings.Join(parts[2:], ":")}, true
	case ActionRemoveRole:
		if len(parts) != 2 {
			return Action{}, false
		}
		idx, err := strconv.Atoi(parts[1])
		if err != nil || idx < 0 {
			return Action{}, false
		}
		return Action{Kind: kind, Index: idx}, true
	default:
		return Action{}, false
	}
}

// ColumnInput returns the control name carrying a proposed column name for
// table.
func ColumnInput(table string) string {
	return ColumnField + "." + table
}
