package definition

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goliatone/go-formdoc/pkg/calc"
	"github.com/goliatone/go-formdoc/pkg/columns"
	"github.com/goliatone/go-formdoc/pkg/model"
	"github.com/goliatone/go-formdoc/pkg/visibility"
)

// ErrInvalidDefinition matches every *CheckError.
var ErrInvalidDefinition = errors.New("definition: invalid form definition")

// CheckError lists the structural problems found in one definition.
type CheckError struct {
	FormID   string
	Problems []string
}

func (e *CheckError) Error() string {
	id := e.FormID
	if id == "" {
		id = "<unnamed>"
	}
	return fmt.Sprintf("definition: form %q: %s", id, strings.Join(e.Problems, "; "))
}

func (e *CheckError) Is(target error) bool { return target == ErrInvalidDefinition }

type checker struct {
	def      model.FormDefinition
	problems []string
}

func (c *checker) addf(format string, args ...any) {
	c.problems = append(c.problems, fmt.Sprintf(format, args...))
}

// Check reports structural problems: missing ids, duplicate section, field,
// table or column names, unknown kinds, selects without options, bad rule
// parameters, unresolvable formulas and visibleWhen conditions that do not
// compile or name unknown fields.
func Check(def model.FormDefinition) error {
	c := &checker{def: def}
	if strings.TrimSpace(def.ID) == "" {
		c.addf("id is required")
	}

	sections := make(map[string]struct{}, len(def.Sections))
	fields := make(map[string]struct{})
	for _, section := range def.Sections {
		if strings.TrimSpace(section.ID) == "" {
			c.addf("section id is required")
		} else if _, dup := sections[section.ID]; dup {
			c.addf("duplicate section %q", section.ID)
		}
		sections[section.ID] = struct{}{}

		for _, field := range section.Fields {
			if _, dup := fields[field.Name]; dup {
				c.addf("duplicate field %q", field.Name)
			}
			fields[field.Name] = struct{}{}
			c.field(field.Name, field)
		}
	}

	tables := make(map[string]struct{}, len(def.Tables))
	for _, table := range def.Tables {
		c.table(table, fields, tables)
	}

	for _, section := range def.Sections {
		for _, field := range section.Fields {
			if field.Derived() {
				c.formFormula(field)
			}
			if strings.TrimSpace(field.VisibleWhen) != "" {
				c.visibleWhen(field)
			}
		}
	}

	if def.Approvals != nil {
		seen := make(map[string]struct{}, len(def.Approvals.Roles))
		for _, role := range def.Approvals.Roles {
			key := strings.ToLower(strings.TrimSpace(role))
			if key == "" {
				c.addf("approval role name is required")
				continue
			}
			if _, dup := seen[key]; dup {
				c.addf("duplicate approval role %q", role)
			}
			seen[key] = struct{}{}
		}
	}

	if len(c.problems) == 0 {
		return nil
	}
	return &CheckError{FormID: def.ID, Problems: c.problems}
}

func (c *checker) table(table model.Table, fields, tables map[string]struct{}) {
	name := strings.TrimSpace(table.Name)
	if name == "" {
		c.addf("table name is required")
		return
	}
	if _, dup := tables[name]; dup {
		c.addf("duplicate table %q", name)
	}
	if _, clash := fields[name]; clash {
		c.addf("table %q collides with a field of the same name", name)
	}
	tables[name] = struct{}{}

	if len(table.Columns) == 0 {
		c.addf("table %q declares no columns", name)
	}
	if table.MinRows < 0 {
		c.addf("table %q minRows must not be negative", name)
	}
	if table.InitialRows != nil && *table.InitialRows < 0 {
		c.addf("table %q initialRows must not be negative", name)
	}

	keys := make(map[string]string, len(table.Columns))
	for _, col := range table.Columns {
		path := name + "." + col.Name
		key := strings.ToLower(columns.NormalizeKey(col.Name))
		if existing, dup := keys[key]; dup {
			c.addf("table %q column %q collides with %q", name, col.Name, existing)
		}
		keys[key] = col.Name
		c.field(path, col)
		if strings.TrimSpace(col.VisibleWhen) != "" {
			c.addf("column %q: visibleWhen is only supported on section fields", path)
		}
		if col.Derived() {
			c.columnFormula(table, col)
		}
	}
}

func (c *checker) field(path string, field model.Field) {
	if strings.TrimSpace(field.Name) == "" {
		c.addf("field name is required (%s)", path)
		return
	}
	kind := field.Kind
	if kind == "" {
		kind = model.FieldKindText
	}
	if !kind.Known() {
		c.addf("field %q has unknown kind %q", path, field.Kind)
	}
	if kind == model.FieldKindSelect && len(field.Options) == 0 && !field.AllowOther {
		c.addf("select field %q needs options", path)
	}
	for _, rule := range field.Validations {
		c.rule(path, rule)
	}
}

func (c *checker) rule(path string, rule model.ValidationRule) {
	param := strings.TrimSpace(rule.Params["value"])
	switch rule.Kind {
	case model.ValidationRuleMin, model.ValidationRuleMax:
		if _, err := strconv.ParseFloat(param, 64); err != nil {
			c.addf("field %q rule %s needs a numeric value", path, rule.Kind)
		}
	case model.ValidationRuleMinLength, model.ValidationRuleMaxLength:
		if n, err := strconv.Atoi(param); err != nil || n < 0 {
			c.addf("field %q rule %s needs a non-negative integer", path, rule.Kind)
		}
	case model.ValidationRulePattern:
		if _, err := regexp.Compile(rule.Params["pattern"]); err != nil {
			c.addf("field %q pattern does not compile: %v", path, err)
		}
	default:
		c.addf("field %q has unknown rule %q", path, rule.Kind)
	}
}

func (c *checker) columnFormula(table model.Table, col model.Field) {
	if !calc.Known(col.Formula.Op) {
		c.addf("column %q uses unknown formula %q", table.Name+"."+col.Name, col.Formula.Op)
		return
	}
	for _, arg := range col.Formula.Args {
		if arg == col.Name {
			c.addf("column %q refers to itself", table.Name+"."+col.Name)
			continue
		}
		if _, ok := table.Column(arg); !ok {
			c.addf("column %q refers to unknown column %q", table.Name+"."+col.Name, arg)
		}
	}
}

func (c *checker) formFormula(field model.Field) {
	if !calc.Known(field.Formula.Op) {
		c.addf("field %q uses unknown formula %q", field.Name, field.Formula.Op)
		return
	}
	for _, arg := range field.Formula.Args {
		if arg == field.Name {
			c.addf("field %q refers to itself", field.Name)
			continue
		}
		if tableName, colName, ok := strings.Cut(arg, "."); ok {
			if table, found := c.def.Table(tableName); found {
				if _, ok := table.Column(colName); !ok {
					c.addf("field %q refers to unknown column %q", field.Name, arg)
				}
				continue
			}
		}
		if _, ok := c.def.Field(arg); !ok {
			c.addf("field %q refers to unknown field %q", field.Name, arg)
		}
	}
}

func (c *checker) visibleWhen(field model.Field) {
	rule, err := visibility.Compile(field.VisibleWhen)
	if err != nil {
		c.addf("field %q visibleWhen: %v", field.Name, err)
		return
	}
	for _, ref := range rule.Refs() {
		head, _, _ := strings.Cut(ref, ".")
		if head == field.Name {
			c.addf("field %q visibleWhen refers to itself", field.Name)
			continue
		}
		if _, ok := c.def.Field(head); !ok {
			c.addf("field %q visibleWhen refers to unknown field %q", field.Name, ref)
		}
	}
}
