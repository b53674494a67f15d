// Package approvals implements the signature block: an ordered list of named
// roles, each holding an opaque payload written by an external signature
// capture widget.
package approvals

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-formdoc/pkg/form"
	"github.com/goliatone/go-formdoc/pkg/sanitize"
)

// Snapshot record keys.
const (
	RoleNameKey = "roleName"
	DataKey     = "data"
)

var (
	// ErrReadOnly is returned by every mutation while the mode source reports
	// print mode.
	ErrReadOnly = errors.New("approvals: block is read-only in print mode")
	// ErrIndexOutOfRange is returned when a role position does not exist.
	ErrIndexOutOfRange = errors.New("approvals: index out of range")
	// ErrEmptyName is returned when adding or renaming to a blank name.
	ErrEmptyName = errors.New("approvals: role name is required")
)

// DefaultRoles is the starter set used when a block is created without names.
var DefaultRoles = []string{"Prepared By", "Reviewed By", "Approved By"}

// Role is one signatory slot.
type Role struct {
	Name string         `json:"roleName"`
	Data map[string]any `json:"data"`
}

// Signed reports whether a payload has been captured.
func (r Role) Signed() bool { return len(r.Data) > 0 }

// Block is the role collection. It is not safe for concurrent use.
type Block struct {
	mode  form.ModeSource
	roles []Role
}

// New creates a block reading its mode from mode. With no names the starter
// set is used.
func New(mode form.ModeSource, names ...string) *Block {
	if len(names) == 0 {
		names = DefaultRoles
	}
	b := &Block{mode: mode}
	for _, name := range names {
		b.roles = append(b.roles, Role{Name: name, Data: map[string]any{}})
	}
	return b
}

// ReadOnly reports whether mutations are currently refused.
func (b *Block) ReadOnly() bool {
	return b.mode != nil && b.mode.PrintMode()
}

// AddRole appends a role with an empty payload. Names need not be unique.
func (b *Block) AddRole(name string) error {
	if b.ReadOnly() {
		return ErrReadOnly
	}
	clean := sanitize.Text(name)
	if clean == "" {
		return ErrEmptyName
	}
	b.roles = append(b.roles, Role{Name: clean, Data: map[string]any{}})
	return nil
}

// RemoveRole deletes the role at index.
func (b *Block) RemoveRole(index int) error {
	if b.ReadOnly() {
		return ErrReadOnly
	}
	if !b.inRange(index) {
		return fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}
	b.roles = append(b.roles[:index], b.roles[index+1:]...)
	return nil
}

// RenameRole changes the label of the role at index, keeping its payload.
func (b *Block) RenameRole(index int, name string) error {
	if b.ReadOnly() {
		return ErrReadOnly
	}
	if !b.inRange(index) {
		return fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}
	clean := sanitize.Text(name)
	if clean == "" {
		return ErrEmptyName
	}
	b.roles[index].Name = clean
	return nil
}

// Sign replaces the payload of the role at index. A nil payload clears it.
func (b *Block) Sign(index int, data map[string]any) error {
	if b.ReadOnly() {
		return ErrReadOnly
	}
	if !b.inRange(index) {
		return fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}
	b.roles[index].Data = copyData(data)
	return nil
}

// Len returns the number of roles.
func (b *Block) Len() int { return len(b.roles) }

// Roles returns copies of every role.
func (b *Block) Roles() []Role {
	out := make([]Role, len(b.roles))
	for i, role := range b.roles {
		out[i] = Role{Name: role.Name, Data: copyData(role.Data)}
	}
	return out
}

// Names lists role names in order.
func (b *Block) Names() []string {
	out := make([]string, len(b.roles))
	for i, role := range b.roles {
		out[i] = role.Name
	}
	return out
}

// Snapshot exports the roles as FormValues records.
func (b *Block) Snapshot() []any {
	out := make([]any, len(b.roles))
	for i, role := range b.roles {
		out[i] = map[string]any{
			RoleNameKey: role.Name,
			DataKey:     copyData(role.Data),
		}
	}
	return out
}

// Restore replaces the roles from snapshot records. It ignores the mode so
// stored documents can be loaded for printing. Records without a name are
// skipped.
func (b *Block) Restore(records []map[string]any) {
	b.roles = b.roles[:0]
	for _, record := range records {
		name, _ := record[RoleNameKey].(string)
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		data, _ := record[DataKey].(map[string]any)
		b.roles = append(b.roles, Role{Name: name, Data: copyData(data)})
	}
}

func (b *Block) inRange(index int) bool {
	return index >= 0 && index < len(b.roles)
}

func copyData(src map[string]any) map[string]any {
	out := make(map[string]any, len(src))
	for k, v := range src {
		if nested, ok := v.(map[string]any); ok {
			out[k] = copyData(nested)
			continue
		}
		out[k] = v
	}
	return out
}
