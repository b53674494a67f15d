// Package form holds the state shared by every form primitive: the FormValues
// tree and the print-mode flag read from an external provider.
package form

// Mode selects which variant a primitive renders.
type Mode string

const (
	ModeEdit  Mode = "edit"
	ModePrint Mode = "print"
)

// ModeSource is the read-only print-mode provider. Primitives branch on it
// but never set it.
type ModeSource interface {
	PrintMode() bool
}

// StaticMode is the trivial ModeSource. The zero value is edit mode.
type StaticMode bool

// PrintMode implements ModeSource.
func (m StaticMode) PrintMode() bool { return bool(m) }

// Toggle is a ModeSource owned by the caller, for UIs that flip between edit
// and print preview.
type Toggle struct {
	print bool
}

// NewToggle returns a toggle starting in the given mode.
func NewToggle(print bool) *Toggle { return &Toggle{print: print} }

// PrintMode implements ModeSource.
func (t *Toggle) PrintMode() bool { return t != nil && t.print }

// Set switches the toggle.
func (t *Toggle) Set(print bool) { t.print = print }

// ModeOf resolves the Mode a source currently reports. A nil source is edit
// mode.
func ModeOf(src ModeSource) Mode {
	if src != nil && src.PrintMode() {
		return ModePrint
	}
	return ModeEdit
}

// ParseMode reads a mode name; unknown names fall back to edit.
func ParseMode(name string) Mode {
	if Mode(name) == ModePrint {
		return ModePrint
	}
	return ModeEdit
}

// PrintMode implements ModeSource so a Mode value can be passed directly.
func (m Mode) PrintMode() bool { return m == ModePrint }
