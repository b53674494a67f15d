package form

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Values is the FormValues tree: nested maps and slices addressed by dotted
// paths ("vendor.name", "items.0.qty"). Scalars are stored as bound strings.
type Values struct {
	root map[string]any
}

// NewValues seeds the tree with a deep copy of prefill.
func NewValues(prefill map[string]any) *Values {
	return &Values{root: cloneMap(prefill)}
}

// Get resolves a dotted path.
func (v *Values) Get(path string) (any, bool) {
	if v == nil {
		return nil, false
	}
	return getPath(v.root, path)
}

// String resolves a dotted path and formats scalars as strings. Missing or
// non-scalar nodes yield "".
func (v *Values) String(path string) string {
	raw, ok := v.Get(path)
	if !ok {
		return ""
	}
	return Stringify(raw)
}

// Set writes a value using a dotted path, creating intermediate maps/slices
// as needed.
func (v *Values) Set(path string, value any) error {
	if v == nil {
		return fmt.Errorf("form: values are nil")
	}
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("form: path is required")
	}
	if v.root == nil {
		v.root = make(map[string]any)
	}
	return setPath(v.root, path, value)
}

// Delete removes the leaf at path. Missing paths are ignored.
func (v *Values) Delete(path string) {
	if v == nil || v.root == nil {
		return
	}
	segments := strings.Split(path, ".")
	parentPath := strings.Join(segments[:len(segments)-1], ".")
	leaf := segments[len(segments)-1]
	if parentPath == "" {
		delete(v.root, leaf)
		return
	}
	parent, ok := getPath(v.root, parentPath)
	if !ok {
		return
	}
	if node, ok := parent.(map[string]any); ok {
		delete(node, leaf)
	}
}

// Map returns a deep copy of the tree.
func (v *Values) Map() map[string]any {
	if v == nil {
		return map[string]any{}
	}
	return cloneMap(v.root)
}

// Keys lists the top-level keys in sorted order.
func (v *Values) Keys() []string {
	if v == nil {
		return nil
	}
	keys := make([]string, 0, len(v.root))
	for key := range v.root {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Stringify formats a scalar leaf. JSON numbers decode as float64, so
// integral floats print without a fractional part.
func Stringify(raw any) string {
	switch typed := raw.(type) {
	case nil:
		return ""
	case string:
		return typed
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(typed), 'f', -1, 32)
	case int:
		return strconv.Itoa(typed)
	case int64:
		return strconv.FormatInt(typed, 10)
	case bool:
		return strconv.FormatBool(typed)
	case fmt.Stringer:
		return typed.String()
	case map[string]any, []any:
		return ""
	default:
		return fmt.Sprint(typed)
	}
}

func cloneMap(src map[string]any) map[string]any {
	out := make(map[string]any, len(src))
	for k, v := range src {
		out[k] = deepCopy(v)
	}
	return out
}

func deepCopy(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		return cloneMap(typed)
	case map[string]string:
		clone := make(map[string]any, len(typed))
		for k, v := range typed {
			clone[k] = v
		}
		return clone
	case []any:
		clone := make([]any, len(typed))
		for i, v := range typed {
			clone[i] = deepCopy(v)
		}
		return clone
	case []map[string]any:
		clone := make([]any, len(typed))
		for i, v := range typed {
			clone[i] = cloneMap(v)
		}
		return clone
	default:
		return typed
	}
}

func getPath(root map[string]any, path string) (any, bool) {
	if root == nil || path == "" {
		return nil, false
	}
	current := any(root)
	for _, segment := range strings.Split(path, ".") {
		switch node := current.(type) {
		case map[string]any:
			next, ok := node[segment]
			if !ok {
				return nil, false
			}
			current = next
		case []any:
			idx, err := strconv.Atoi(segment)
			if err != nil || idx < 0 || idx >= len(node) {
				return nil, false
			}
			current = node[idx]
		default:
			return nil, false
		}
	}
	return current, true
}

// setPath walks the tree creating containers on demand. Slices are written
// back into their parent because append may reallocate them.
func setPath(root map[string]any, path string, value any) error {
	segments := strings.Split(path, ".")
	return setInto(root, segments, value, path)
}

func setInto(node map[string]any, segments []string, value any, path string) error {
	head := segments[0]
	if head == "" {
		return fmt.Errorf("form: empty segment in path %q", path)
	}
	if len(segments) == 1 {
		node[head] = value
		return nil
	}

	next := segments[1]
	if idx, err := strconv.Atoi(next); err == nil {
		if idx < 0 {
			return fmt.Errorf("form: negative index in path %q", path)
		}
		list, _ := node[head].([]any)
		list, err := setIndex(list, idx, segments[2:], value, path)
		if err != nil {
			return err
		}
		node[head] = list
		return nil
	}

	child, ok := node[head].(map[string]any)
	if !ok || child == nil {
		child = make(map[string]any)
		node[head] = child
	}
	return setInto(child, segments[1:], value, path)
}

func setIndex(list []any, idx int, rest []string, value any, path string) ([]any, error) {
	if len(list) <= idx {
		list = append(list, make([]any, idx+1-len(list))...)
	}
	if len(rest) == 0 {
		list[idx] = value
		return list, nil
	}
	if nested, err := strconv.Atoi(rest[0]); err == nil {
		if nested < 0 {
			return nil, fmt.Errorf("form: negative index in path %q", path)
		}
		inner, _ := list[idx].([]any)
		inner, err := setIndex(inner, nested, rest[1:], value, path)
		if err != nil {
			return nil, err
		}
		list[idx] = inner
		return list, nil
	}
	child, ok := list[idx].(map[string]any)
	if !ok || child == nil {
		child = make(map[string]any)
		list[idx] = child
	}
	if err := setInto(child, rest, value, path); err != nil {
		return nil, err
	}
	return list, nil
}
