package html

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/goliatone/go-formdoc/pkg/approvals"
	"github.com/goliatone/go-formdoc/pkg/columns"
	"github.com/goliatone/go-formdoc/pkg/document"
	"github.com/goliatone/go-formdoc/pkg/form"
	"github.com/goliatone/go-formdoc/pkg/model"
	"github.com/goliatone/go-formdoc/pkg/render"
)

// StateFields returns hidden inputs for document state that has no visible
// control: the dynamic column definitions of every table. Pass them through
// RenderOptions.Hidden so a post can rebuild the document.
func StateFields(doc *document.Document) []render.HiddenField {
	if doc == nil {
		return nil
	}
	var out []render.HiddenField
	for _, table := range doc.Tables() {
		if !table.Def.DynamicColumns {
			continue
		}
		for i, col := range table.Columns.Columns() {
			prefix := fmt.Sprintf("%s.%s.%d.", document.DynamicColumnsKey, table.Def.Name, i)
			out = append(out,
				render.Hidden(prefix+"key", col.Key),
				render.Hidden(prefix+"label", col.Label),
			)
		}
	}
	return out
}

// DecodeForm turns posted edit-form values into a prefill tree for
// document.WithValues. Reserved "_" controls are skipped. Tables and the
// approval block are always present in the tree so that removing every row
// or role survives the round trip. Blank approval inputs are dropped so
// unsigned roles stay unsigned.
func DecodeForm(def model.FormDefinition, posted url.Values) (map[string]any, error) {
	tree := form.NewValues(nil)
	keys := make([]string, 0, len(posted))
	for key := range posted {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if key == "" || strings.HasPrefix(key, "_") {
			continue
		}
		values := posted[key]
		if len(values) == 0 {
			continue
		}
		raw := values[len(values)-1]
		if isApprovalData(key) && strings.TrimSpace(raw) == "" {
			continue
		}
		if err := tree.Set(key, raw); err != nil {
			return nil, fmt.Errorf("html: decode %q: %w", key, err)
		}
	}

	out := tree.Map()
	for _, table := range def.Tables {
		if _, ok := out[table.Name]; !ok {
			out[table.Name] = []any{}
		}
	}
	if def.Approvals != nil {
		if _, ok := out[document.ApprovalsKey]; !ok {
			out[document.ApprovalsKey] = []any{}
		}
	}
	return out, nil
}

// isApprovalData matches "approvals.<i>.data.<key>".
func isApprovalData(key string) bool {
	parts := strings.Split(key, ".")
	if len(parts) != 4 || parts[0] != document.ApprovalsKey || parts[2] != approvals.DataKey {
		return false
	}
	_, err := strconv.Atoi(parts[1])
	return err == nil
}

// ApplyAction performs the structural edit requested by a post. Problems the
// user can fix (a colliding column name) come back as a message for
// RenderOptions.FormErrors; programming errors are returned as err.
func ApplyAction(doc *document.Document, action Action, posted url.Values) (string, error) {
	switch action.Kind {
	case ActionSubmit:
		return "", nil
	case ActionAddRow:
		_, err := doc.AddRow(action.Table)
		return "", err
	case ActionRemoveRow:
		_, err := doc.RemoveRow(action.Table, action.Index)
		return "", err
	case ActionAddColumn:
		_, err := doc.ProposeColumn(action.Table, posted.Get(ColumnInput(action.Table)))
		var collision *columns.CollisionError
		switch {
		case errors.As(err, &collision):
			return collision.Message(), nil
		case errors.Is(err, columns.ErrEmptyName):
			return "", nil
		}
		return "", err
	case ActionRemoveColumn:
		_, err := doc.RemoveColumn(action.Table, action.Column)
		return "", err
	case ActionAddRole:
		err := doc.AddRole(posted.Get(RoleField))
		if errors.Is(err, approvals.ErrEmptyName) {
			return "", nil
		}
		return "", err
	case ActionRemoveRole:
		return "", doc.RemoveRole(action.Index)
	default:
		return "", fmt.Errorf("html: unsupported action %q", action.Kind)
	}
}
