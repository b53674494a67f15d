// Package visibility compiles the `visibleWhen` conditions carried by field
// descriptors and evaluates them against bound form values.
//
// Supported syntax:
//   - truthiness: `needsApproval`
//   - comparisons: `priority == "urgent"`, `department != 'other'`
//   - numeric ordering: `grandTotal > 1000`, `qty <= 3`
//   - composition: `a && !b`, `(a || b) && c`
//
// Identifiers are dotted value paths. Every bound value is a string, so
// comparisons coerce the value to the literal's type: numbers go through
// value.ParseNumber, booleans through strconv.ParseBool, `null` matches blank
// values. Bare words on the right-hand side read as strings.
package visibility

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/goliatone/go-formdoc/pkg/value"
)

// ErrSyntax matches every rule compilation failure.
var ErrSyntax = errors.New("visibility: invalid rule")

// Lookup resolves a dotted path to its bound string. *form.Values
// satisfies it.
type Lookup interface {
	String(path string) string
}

// Rule is a compiled condition. A nil *Rule is always visible.
type Rule struct {
	source string
	root   node
	refs   []string
}

// Compile parses source. Blank sources compile to a nil rule.
func Compile(source string) (*Rule, error) {
	trimmed := strings.TrimSpace(source)
	if trimmed == "" {
		return nil, nil
	}
	tokens, err := tokenize(trimmed)
	if err != nil {
		return nil, err
	}
	p := &parser{tokens: tokens, refs: make(map[string]struct{})}
	root, err := p.or()
	if err != nil {
		return nil, err
	}
	if p.pos < len(p.tokens) {
		return nil, syntaxf("unexpected %q", p.tokens[p.pos].raw)
	}

	refs := make([]string, 0, len(p.refs))
	for ref := range p.refs {
		refs = append(refs, ref)
	}
	sort.Strings(refs)
	return &Rule{source: trimmed, root: root, refs: refs}, nil
}

// MustCompile panics when source does not compile.
func MustCompile(source string) *Rule {
	rule, err := Compile(source)
	if err != nil {
		panic(err)
	}
	return rule
}

// Visible evaluates the rule against values.
func (r *Rule) Visible(values Lookup) bool {
	if r == nil {
		return true
	}
	return r.root.eval(values)
}

// Refs lists the value paths the rule reads, sorted.
func (r *Rule) Refs() []string {
	if r == nil {
		return nil
	}
	return append([]string(nil), r.refs...)
}

func (r *Rule) String() string {
	if r == nil {
		return ""
	}
	return r.source
}

func syntaxf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrSyntax, fmt.Sprintf(format, args...))
}

type node interface {
	eval(values Lookup) bool
}

type orNode struct{ left, right node }

func (n orNode) eval(values Lookup) bool { return n.left.eval(values) || n.right.eval(values) }

type andNode struct{ left, right node }

func (n andNode) eval(values Lookup) bool { return n.left.eval(values) && n.right.eval(values) }

type notNode struct{ inner node }

func (n notNode) eval(values Lookup) bool { return !n.inner.eval(values) }

type truthyNode struct{ path string }

func (n truthyNode) eval(values Lookup) bool {
	raw := strings.TrimSpace(lookup(values, n.path))
	if b, err := strconv.ParseBool(raw); err == nil {
		return b
	}
	return raw != ""
}

type literal struct {
	kind tokenKind
	text string
	num  float64
	flag bool
}

type compareNode struct {
	path string
	op   tokenKind
	lit  literal
}

func (n compareNode) eval(values Lookup) bool {
	raw := lookup(values, n.path)
	switch n.lit.kind {
	case tokenNull:
		blank := strings.TrimSpace(raw) == ""
		return blank == (n.op == tokenEq)
	case tokenBool:
		got, err := strconv.ParseBool(strings.TrimSpace(raw))
		if err != nil {
			got = strings.TrimSpace(raw) != ""
		}
		return (got == n.lit.flag) == (n.op == tokenEq)
	case tokenNumber:
		parsed, err := value.ParseNumber(raw)
		if err != nil {
			return n.op == tokenNeq
		}
		got, _ := parsed.Float()
		return compareNumbers(n.op, got, n.lit.num)
	default:
		return (strings.TrimSpace(raw) == n.lit.text) == (n.op == tokenEq)
	}
}

func compareNumbers(op tokenKind, got, want float64) bool {
	switch op {
	case tokenEq:
		return got == want
	case tokenNeq:
		return got != want
	case tokenLt:
		return got < want
	case tokenLte:
		return got <= want
	case tokenGt:
		return got > want
	case tokenGte:
		return got >= want
	default:
		return false
	}
}

func lookup(values Lookup, path string) string {
	if values == nil {
		return ""
	}
	return values.String(path)
}
