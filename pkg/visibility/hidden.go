package visibility

import (
	"strings"
	"sync"

	"github.com/goliatone/go-formdoc/pkg/form"
	"github.com/goliatone/go-formdoc/pkg/model"
)

var compiled sync.Map

// cached compiles source once per process. Sources that fail to compile are
// cached as nil and therefore treat the field as visible.
func cached(source string) *Rule {
	key := strings.TrimSpace(source)
	if rule, ok := compiled.Load(key); ok {
		return rule.(*Rule)
	}
	rule, err := Compile(key)
	if err != nil {
		rule = nil
	}
	actual, _ := compiled.LoadOrStore(key, rule)
	return actual.(*Rule)
}

// Hidden returns the scalar fields of def whose visibleWhen condition is
// false for tree. Fields are evaluated in definition order against a working
// copy from which earlier hidden fields have been removed, so a field that
// depends on a hidden field sees it as blank.
func Hidden(def model.FormDefinition, tree map[string]any) map[string]bool {
	var (
		hidden  map[string]bool
		working *form.Values
	)
	for _, section := range def.Sections {
		for _, field := range section.Fields {
			if strings.TrimSpace(field.VisibleWhen) == "" {
				continue
			}
			if working == nil {
				working = form.NewValues(tree)
			}
			if cached(field.VisibleWhen).Visible(working) {
				continue
			}
			if hidden == nil {
				hidden = make(map[string]bool)
			}
			hidden[field.Name] = true
			working.Delete(field.Name)
		}
	}
	return hidden
}
