package render

import (
	"github.com/goliatone/go-formdoc/pkg/form"
)

// View describes a whole document ready for a renderer. It is plain data:
// building one never mutates form state, and renderers never reach back into
// the document.
type View struct {
	ID         string        `json:"id"`
	Title      string        `json:"title"`
	Subtitle   string        `json:"subtitle,omitempty"`
	Category   string        `json:"category,omitempty"`
	Mode       form.Mode     `json:"mode"`
	Print      bool          `json:"print"`
	Sections   []SectionView `json:"sections,omitempty"`
	Tables     []TableView   `json:"tables,omitempty"`
	Approvals  *ApprovalView `json:"approvals,omitempty"`
	FormErrors []string      `json:"formErrors,omitempty"`
}

// SectionView is a titled group of scalar fields.
type SectionView struct {
	ID          string `json:"id"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Fields      []Node `json:"fields"`
}

// TableView is a dynamic row section. Headers list declared columns first,
// then dynamic columns; each row carries one cell per header.
type TableView struct {
	Name           string       `json:"name"`
	Title          string       `json:"title,omitempty"`
	Headers        []HeaderView `json:"headers"`
	Rows           []RowView    `json:"rows"`
	Totals         []Node       `json:"totals,omitempty"`
	CanAddRow      bool         `json:"canAddRow,omitempty"`
	DynamicColumns bool         `json:"dynamicColumns,omitempty"`
	Errors         []string     `json:"errors,omitempty"`
}

// HeaderView is one table column heading.
type HeaderView struct {
	Key     string `json:"key"`
	Label   string `json:"label"`
	Dynamic bool   `json:"dynamic,omitempty"`
}

// RowView is one rendered table row.
type RowView struct {
	Index     int    `json:"index"`
	ID        string `json:"id"`
	Cells     []Node `json:"cells"`
	Removable bool   `json:"removable,omitempty"`
}

// ApprovalView is the rendered signature block.
type ApprovalView struct {
	Title       string     `json:"title,omitempty"`
	Roles       []RoleView `json:"roles"`
	Editable    bool       `json:"editable,omitempty"`
	AllowCustom bool       `json:"allowCustom,omitempty"`
}

// RoleView is one signatory. Entries list the captured payload as sorted
// key/value pairs; Text is the placeholder line for unsigned roles.
type RoleView struct {
	Index   int         `json:"index"`
	Name    string      `json:"name"`
	Signed  bool        `json:"signed,omitempty"`
	Entries []EntryView `json:"entries,omitempty"`
	Text    string      `json:"text,omitempty"`
}

// EntryView is a key/value pair of a signature payload.
type EntryView struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}
