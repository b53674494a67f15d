package render

import (
	"strings"

	"github.com/goliatone/go-formdoc/pkg/model"
	"github.com/goliatone/go-formdoc/pkg/value"
)

// DefaultPlaceholder is printed in place of empty values.
const DefaultPlaceholder = "___________"

// Select sentinels.
const (
	SelectPromptLabel = "-- Select --"
	OtherOptionValue  = "Others"
	OtherOptionLabel  = "Others"
)

// NodeKind identifies the control a Node renders as.
type NodeKind string

const (
	NodeInput    NodeKind = "input"
	NodeTextArea NodeKind = "textarea"
	NodeSelect   NodeKind = "select"
	NodeStatic   NodeKind = "static"
)

// Lookup is the read side of the value bag. form.Values satisfies it.
type Lookup interface {
	String(path string) string
}

// MapLookup adapts a flat path->value map.
type MapLookup map[string]string

// String implements Lookup.
func (m MapLookup) String(path string) string { return m[path] }

// OptionView is one rendered select choice.
type OptionView struct {
	Value    string `json:"value"`
	Label    string `json:"label"`
	Selected bool   `json:"selected,omitempty"`
}

// Node is the renderer-neutral description of one field. Edit-mode nodes
// carry the live value and control details; static nodes carry Text only.
type Node struct {
	Kind        NodeKind        `json:"kind"`
	Name        string          `json:"name"`
	ID          string          `json:"id"`
	Label       string          `json:"label,omitempty"`
	FieldKind   model.FieldKind `json:"fieldKind"`
	InputType   string          `json:"inputType,omitempty"`
	Value       string          `json:"value,omitempty"`
	Text        string          `json:"text,omitempty"`
	Hint        string          `json:"hint,omitempty"`
	Required    bool            `json:"required,omitempty"`
	Options     []OptionView    `json:"options,omitempty"`
	Errors      []string        `json:"errors,omitempty"`
	Empty       bool            `json:"empty,omitempty"`
	Derived     bool            `json:"derived,omitempty"`
	Description string          `json:"description,omitempty"`
}

// Static reports whether the node is frozen text.
func (n Node) Static() bool { return n.Kind == NodeStatic }

// Invalid reports whether inline errors are attached.
func (n Node) Invalid() bool { return len(n.Errors) > 0 }

// FieldOptions tune a single RenderField call.
type FieldOptions struct {
	// Print renders static text instead of a control.
	Print bool
	// Placeholder replaces empty values in print mode. Defaults to
	// DefaultPlaceholder.
	Placeholder string
	// Hint is the edit-mode input placeholder.
	Hint string
	// Errors are the inline validation messages for the field.
	Errors []string
	// Required marks the control as required.
	Required bool
	// Options lists select choices.
	Options []model.Option
	// AllowOther appends the Others sentinel to select choices.
	AllowOther bool
	// Derived renders the field as static text in both modes.
	Derived bool
	// Value overrides the lookup, used for computed values.
	Value *string
	// Description is shown next to the control in edit mode.
	Description string
}

// RenderField renders one field in the mode selected by opts. It reads
// values and never mutates them, so identical inputs produce identical nodes.
func RenderField(values Lookup, name, label string, kind model.FieldKind, opts FieldOptions) Node {
	if kind == "" {
		kind = model.FieldKindText
	}
	raw := ""
	if opts.Value != nil {
		raw = *opts.Value
	} else if values != nil {
		raw = values.String(name)
	}

	node := Node{
		Name:      name,
		ID:        NodeID(name),
		Label:     label,
		FieldKind: kind,
		Required:  opts.Required,
		Derived:   opts.Derived,
		Errors:    normalizeMessages(opts.Errors),
	}

	if opts.Print || opts.Derived {
		node.Kind = NodeStatic
		node.Text = PrintValue(kind, raw, opts.Options)
		if node.Text == "" {
			node.Text = placeholderOf(opts.Placeholder)
			node.Empty = true
		}
		if opts.Print {
			node.Errors = nil
		}
		return node
	}

	node.Value = raw
	node.Hint = opts.Hint
	node.Description = opts.Description
	switch kind {
	case model.FieldKindTextArea:
		node.Kind = NodeTextArea
	case model.FieldKindSelect:
		node.Kind = NodeSelect
		node.Options = SelectOptions(opts.Options, opts.AllowOther, raw)
	default:
		node.Kind = NodeInput
		node.InputType = InputType(kind)
	}
	return node
}

// FieldNode renders a declared field. path overrides the lookup key when the
// field lives inside a table row; an empty path uses field.Name.
func FieldNode(values Lookup, field model.Field, path string, opts FieldOptions) Node {
	if strings.TrimSpace(path) == "" {
		path = field.Name
	}
	opts.Required = opts.Required || field.Required
	opts.Derived = opts.Derived || field.Derived()
	if len(opts.Options) == 0 {
		opts.Options = field.Options
	}
	opts.AllowOther = opts.AllowOther || field.AllowOther
	if opts.Hint == "" {
		opts.Hint = field.Placeholder
	}
	if opts.Description == "" {
		opts.Description = field.Description
	}
	return RenderField(values, path, field.Label, field.Kind, opts)
}

// SelectOptions builds the rendered choice list: the blank prompt sentinel,
// the declared options, and optionally the Others sentinel.
func SelectOptions(options []model.Option, allowOther bool, selected string) []OptionView {
	out := make([]OptionView, 0, len(options)+2)
	out = append(out, OptionView{Value: "", Label: SelectPromptLabel, Selected: selected == ""})
	hasOther := false
	for _, opt := range options {
		if opt.Value == OtherOptionValue {
			hasOther = true
		}
		out = append(out, OptionView{
			Value:    opt.Value,
			Label:    opt.DisplayLabel(),
			Selected: selected != "" && opt.Value == selected,
		})
	}
	if allowOther && !hasOther {
		out = append(out, OptionView{Value: OtherOptionValue, Label: OtherOptionLabel, Selected: selected == OtherOptionValue})
	}
	return out
}

// PrintValue formats a raw bound string for print output. Select values show
// their option label; numbers and dates are normalised when they parse and
// printed verbatim otherwise. Empty input yields "".
func PrintValue(kind model.FieldKind, raw string, options []model.Option) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}
	switch kind {
	case model.FieldKindSelect:
		for _, opt := range options {
			if opt.Value == raw {
				return opt.DisplayLabel()
			}
		}
		return raw
	case model.FieldKindNumber, model.FieldKindDate, model.FieldKindDateTime, model.FieldKindTime:
		parsed, err := value.ParseAs(kind.ValueKind(), raw)
		if err != nil {
			return raw
		}
		return parsed.Format()
	default:
		return raw
	}
}

// InputType maps a field kind onto an HTML input type.
func InputType(kind model.FieldKind) string {
	switch kind {
	case model.FieldKindNumber:
		return "number"
	case model.FieldKindDate:
		return "date"
	case model.FieldKindDateTime:
		return "datetime-local"
	case model.FieldKindTime:
		return "time"
	case model.FieldKindEmail:
		return "email"
	default:
		return "text"
	}
}

// NodeID derives a DOM-safe identifier from a dotted path.
func NodeID(path string) string {
	var b strings.Builder
	b.WriteString("fd-")
	for _, r := range path {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('-')
		}
	}
	return b.String()
}

func placeholderOf(p string) string {
	if strings.TrimSpace(p) == "" {
		return DefaultPlaceholder
	}
	return p
}
