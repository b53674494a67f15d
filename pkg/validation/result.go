package validation

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Kind classifies a validation failure.
type Kind string

const (
	KindRequired Kind = "required"
	KindType     Kind = "type"
	KindShape    Kind = "shape"
	KindRange    Kind = "range"
	KindMinItems Kind = "minItems"
)

// ErrInvalid is matched by errors.Is for every *Error.
var ErrInvalid = errors.New("validation: form is invalid")

// Issue is one failing path.
type Issue struct {
	Path    string `json:"path"`
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
}

// Result collects every issue of a validation pass in definition order.
type Result struct {
	Issues []Issue `json:"issues,omitempty"`
}

// Valid reports whether no issues were found.
func (r Result) Valid() bool { return len(r.Issues) == 0 }

// Errors groups messages by path, the shape render.ViewOptions.Errors
// expects.
func (r Result) Errors() map[string][]string {
	if len(r.Issues) == 0 {
		return nil
	}
	out := make(map[string][]string, len(r.Issues))
	for _, issue := range r.Issues {
		out[issue.Path] = append(out[issue.Path], issue.Message)
	}
	return out
}

// Paths lists failing paths in sorted order.
func (r Result) Paths() []string {
	seen := make(map[string]struct{}, len(r.Issues))
	var out []string
	for _, issue := range r.Issues {
		if _, ok := seen[issue.Path]; ok {
			continue
		}
		seen[issue.Path] = struct{}{}
		out = append(out, issue.Path)
	}
	sort.Strings(out)
	return out
}

// Err returns nil for a valid result and an *Error otherwise.
func (r Result) Err() error {
	if r.Valid() {
		return nil
	}
	return &Error{Result: r}
}

func (r *Result) add(path string, kind Kind, message string) {
	r.Issues = append(r.Issues, Issue{Path: path, Kind: kind, Message: message})
}

// Error wraps a failing Result.
type Error struct {
	Result Result
}

func (e *Error) Error() string {
	paths := e.Result.Paths()
	if len(paths) == 1 {
		return fmt.Sprintf("validation: %s: %s", paths[0], e.Result.Issues[0].Message)
	}
	return fmt.Sprintf("validation: %d invalid fields: %s", len(paths), strings.Join(paths, ", "))
}

// Is matches ErrInvalid.
func (e *Error) Is(target error) bool { return target == ErrInvalid }
