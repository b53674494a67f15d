package model

import (
	"strings"

	"github.com/goliatone/go-formdoc/pkg/value"
)

// FieldKind is the tagged-variant discriminator for field descriptors.
type FieldKind string

const (
	FieldKindText     FieldKind = "text"
	FieldKindTextArea FieldKind = "textarea"
	FieldKindNumber   FieldKind = "number"
	FieldKindDate     FieldKind = "date"
	FieldKindDateTime FieldKind = "datetime"
	FieldKindTime     FieldKind = "time"
	FieldKindEmail    FieldKind = "email"
	FieldKindSelect   FieldKind = "select"
)

// ValueKind maps a field kind onto the value union member its input parses to.
func (k FieldKind) ValueKind() value.Kind {
	switch k {
	case FieldKindNumber:
		return value.KindNumber
	case FieldKindDate, FieldKindDateTime:
		return value.KindDate
	case FieldKindTime:
		return value.KindTime
	default:
		return value.KindText
	}
}

// Known reports whether k is one of the declared kinds. The empty kind is
// treated as text by Normalize.
func (k FieldKind) Known() bool {
	switch k {
	case FieldKindText, FieldKindTextArea, FieldKindNumber, FieldKindDate,
		FieldKindDateTime, FieldKindTime, FieldKindEmail, FieldKindSelect:
		return true
	default:
		return false
	}
}

const (
	ValidationRuleMin       = "min"
	ValidationRuleMax       = "max"
	ValidationRuleMinLength = "minLength"
	ValidationRuleMaxLength = "maxLength"
	ValidationRulePattern   = "pattern"
)

// ValidationRule represents a single declarative constraint applied to a
// field. Numeric bounds and length limits encode their threshold in
// Params["value"]; pattern rules keep the expression in Params["pattern"].
// An optional Params["message"] overrides the default inline message.
type ValidationRule struct {
	Kind   string            `json:"kind" yaml:"kind"`
	Params map[string]string `json:"params,omitempty" yaml:"params,omitempty"`
}

// Option is a single choice of a select field.
type Option struct {
	Value string `json:"value" yaml:"value"`
	Label string `json:"label,omitempty" yaml:"label,omitempty"`
}

// DisplayLabel returns the label, falling back to the raw value.
func (o Option) DisplayLabel() string {
	if strings.TrimSpace(o.Label) != "" {
		return o.Label
	}
	return o.Value
}

// Formula declares a derived value. Args are sibling column names for table
// columns, or dotted value paths / "table.column" aggregates for form fields.
type Formula struct {
	Op   string   `json:"op" yaml:"op"`
	Args []string `json:"args" yaml:"args"`
}

// Field describes one input of a form or one column of a table.
type Field struct {
	Name        string            `json:"name" yaml:"name"`
	Label       string            `json:"label,omitempty" yaml:"label,omitempty"`
	Kind        FieldKind         `json:"kind,omitempty" yaml:"kind,omitempty"`
	Placeholder string            `json:"placeholder,omitempty" yaml:"placeholder,omitempty"`
	Description string            `json:"description,omitempty" yaml:"description,omitempty"`
	Required    bool              `json:"required,omitempty" yaml:"required,omitempty"`
	Default     string            `json:"default,omitempty" yaml:"default,omitempty"`
	Options     []Option          `json:"options,omitempty" yaml:"options,omitempty"`
	AllowOther  bool              `json:"allowOther,omitempty" yaml:"allowOther,omitempty"`
	Validations []ValidationRule  `json:"validations,omitempty" yaml:"validations,omitempty"`
	Formula     *Formula          `json:"formula,omitempty" yaml:"formula,omitempty"`
	// VisibleWhen is a condition over other form fields; see pkg/visibility.
	// Hidden fields are not rendered, validated or submitted.
	VisibleWhen string            `json:"visibleWhen,omitempty" yaml:"visibleWhen,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// Derived reports whether the field is computed rather than entered.
func (f Field) Derived() bool {
	return f.Formula != nil && strings.TrimSpace(f.Formula.Op) != ""
}

// OptionLabel resolves the display label for a stored select value.
func (f Field) OptionLabel(raw string) string {
	for _, opt := range f.Options {
		if opt.Value == raw {
			return opt.DisplayLabel()
		}
	}
	return raw
}

// Section groups related scalar fields under a heading.
type Section struct {
	ID          string  `json:"id" yaml:"id"`
	Title       string  `json:"title,omitempty" yaml:"title,omitempty"`
	Description string  `json:"description,omitempty" yaml:"description,omitempty"`
	Fields      []Field `json:"fields" yaml:"fields"`
}

// Table declares a dynamic list-of-rows section (line items).
type Table struct {
	Name           string  `json:"name" yaml:"name"`
	Title          string  `json:"title,omitempty" yaml:"title,omitempty"`
	Columns        []Field `json:"columns" yaml:"columns"`
	MinRows        int     `json:"minRows,omitempty" yaml:"minRows,omitempty"`
	InitialRows    *int    `json:"initialRows,omitempty" yaml:"initialRows,omitempty"`
	DynamicColumns bool    `json:"dynamicColumns,omitempty" yaml:"dynamicColumns,omitempty"`
}

// Column returns the declared column named name.
func (t Table) Column(name string) (Field, bool) {
	for _, col := range t.Columns {
		if col.Name == name {
			return col, true
		}
	}
	return Field{}, false
}

// ApprovalConfig configures the signature block. Empty Roles selects the
// starter set.
type ApprovalConfig struct {
	Title       string   `json:"title,omitempty" yaml:"title,omitempty"`
	Roles       []string `json:"roles,omitempty" yaml:"roles,omitempty"`
	AllowCustom bool     `json:"allowCustom,omitempty" yaml:"allowCustom,omitempty"`
}

// FormDefinition is the declarative description of one business form.
type FormDefinition struct {
	ID        string            `json:"id" yaml:"id"`
	Title     string            `json:"title,omitempty" yaml:"title,omitempty"`
	Subtitle  string            `json:"subtitle,omitempty" yaml:"subtitle,omitempty"`
	Category  string            `json:"category,omitempty" yaml:"category,omitempty"`
	Sections  []Section         `json:"sections,omitempty" yaml:"sections,omitempty"`
	Tables    []Table           `json:"tables,omitempty" yaml:"tables,omitempty"`
	Approvals *ApprovalConfig   `json:"approvals,omitempty" yaml:"approvals,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// Field looks up a scalar field by name across all sections.
func (d FormDefinition) Field(name string) (Field, bool) {
	for _, section := range d.Sections {
		for _, field := range section.Fields {
			if field.Name == name {
				return field, true
			}
		}
	}
	return Field{}, false
}

// Table looks up a table by name.
func (d FormDefinition) Table(name string) (Table, bool) {
	for _, table := range d.Tables {
		if table.Name == name {
			return table, true
		}
	}
	return Table{}, false
}
