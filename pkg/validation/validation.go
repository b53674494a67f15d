// Package validation evaluates the declarative rules carried by field
// descriptors against a FormValues snapshot. Failures are local and
// recoverable: they are reported per path and block submission, nothing more.
package validation

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"github.com/goliatone/go-formdoc/pkg/form"
	"github.com/goliatone/go-formdoc/pkg/model"
	"github.com/goliatone/go-formdoc/pkg/value"
	"github.com/goliatone/go-formdoc/pkg/visibility"
)

const isoDateTag = "isodate"

// Validator checks definitions against value trees. It is safe for
// concurrent use once constructed.
type Validator struct {
	validate *validator.Validate

	mu       sync.Mutex
	patterns map[string]*regexp.Regexp
}

// New builds a Validator with the custom tags registered.
func New() *Validator {
	validate := validator.New()
	_ = validate.RegisterValidation(isoDateTag, validateISODate)
	return &Validator{validate: validate, patterns: make(map[string]*regexp.Regexp)}
}

var (
	defaultOnce      sync.Once
	defaultValidator *Validator
)

// Default returns the shared Validator.
func Default() *Validator {
	defaultOnce.Do(func() {
		defaultValidator = New()
	})
	return defaultValidator
}

// Validate checks tree against def using the shared Validator.
func Validate(def model.FormDefinition, tree map[string]any) Result {
	return Default().Validate(def, tree)
}

// Validate checks every declared scalar field and table of def against tree.
// Derived and hidden fields are skipped; dynamic columns carry no rules.
func (v *Validator) Validate(def model.FormDefinition, tree map[string]any) Result {
	var result Result
	values := form.NewValues(tree)
	hidden := visibility.Hidden(def, tree)

	for _, section := range def.Sections {
		for _, field := range section.Fields {
			if field.Derived() || hidden[field.Name] {
				continue
			}
			v.checkField(&result, field.Name, field, values.String(field.Name))
		}
	}

	for _, table := range def.Tables {
		records := tableRecords(tree[table.Name])
		if table.MinRows > 0 && len(records) < table.MinRows {
			result.add(table.Name, KindMinItems, minItemsMessage(table))
		}
		for i, record := range records {
			for _, col := range table.Columns {
				if col.Derived() {
					continue
				}
				path := fmt.Sprintf("%s.%d.%s", table.Name, i, col.Name)
				v.checkField(&result, path, col, form.Stringify(record[col.Name]))
			}
		}
	}
	return result
}

// Field checks a single raw value against field's rules and returns the
// issues found at path.
func (v *Validator) Field(path string, field model.Field, raw string) []Issue {
	var result Result
	v.checkField(&result, path, field, raw)
	return result.Issues
}

func (v *Validator) checkField(result *Result, path string, field model.Field, raw string) {
	label := displayLabel(field)
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		if field.Required {
			result.add(path, KindRequired, override(field, model.ValidationRule{}, fmt.Sprintf("%s is required", label)))
		}
		return
	}

	parsed, ok := v.checkKind(result, path, field, label, trimmed)
	if !ok {
		return
	}
	for _, rule := range field.Validations {
		v.checkRule(result, path, field, label, rule, trimmed, parsed)
	}
}

func (v *Validator) checkKind(result *Result, path string, field model.Field, label, raw string) (value.Value, bool) {
	switch field.Kind {
	case model.FieldKindNumber:
		parsed, err := value.ParseNumber(raw)
		if err != nil {
			result.add(path, KindType, fmt.Sprintf("%s must be a number", label))
			return value.Empty(), false
		}
		return parsed, true
	case model.FieldKindDate:
		if err := v.validate.Var(raw, isoDateTag); err != nil {
			result.add(path, KindType, fmt.Sprintf("%s must be a valid date (YYYY-MM-DD)", label))
			return value.Empty(), false
		}
		parsed, _ := value.ParseDate(raw)
		return parsed, true
	case model.FieldKindDateTime:
		parsed, err := value.ParseDate(raw)
		if err != nil {
			result.add(path, KindType, fmt.Sprintf("%s must be a valid date and time", label))
			return value.Empty(), false
		}
		return parsed, true
	case model.FieldKindTime:
		parsed, err := value.ParseTime(raw)
		if err != nil {
			result.add(path, KindType, fmt.Sprintf("%s must be a valid time (HH:MM)", label))
			return value.Empty(), false
		}
		return parsed, true
	case model.FieldKindEmail:
		if err := v.validate.Var(raw, "email"); err != nil {
			result.add(path, KindShape, fmt.Sprintf("%s must be a valid email address", label))
			return value.Empty(), false
		}
	case model.FieldKindSelect:
		if !selectAllows(field, raw) {
			result.add(path, KindShape, fmt.Sprintf("%s must be one of the listed options", label))
			return value.Empty(), false
		}
	}
	return value.Text(raw), true
}

func (v *Validator) checkRule(result *Result, path string, field model.Field, label string, rule model.ValidationRule, raw string, parsed value.Value) {
	threshold := strings.TrimSpace(rule.Params["value"])
	switch rule.Kind {
	case model.ValidationRuleMin, model.ValidationRuleMax:
		bound, err := strconv.ParseFloat(threshold, 64)
		if err != nil || parsed.Kind() != value.KindNumber {
			return
		}
		tag, word := "gte", "at least"
		if rule.Kind == model.ValidationRuleMax {
			tag, word = "lte", "at most"
		}
		if err := v.validate.Var(parsed.Number(), tag+"="+threshold); err != nil {
			result.add(path, KindRange, override(field, rule, fmt.Sprintf("%s must be %s %s", label, word, value.FormatNumber(bound))))
		}
	case model.ValidationRuleMinLength, model.ValidationRuleMaxLength:
		limit, err := strconv.Atoi(threshold)
		if err != nil || limit < 0 {
			return
		}
		length := utf8.RuneCountInString(raw)
		if rule.Kind == model.ValidationRuleMinLength && length < limit {
			result.add(path, KindRange, override(field, rule, fmt.Sprintf("%s must be at least %d characters", label, limit)))
		}
		if rule.Kind == model.ValidationRuleMaxLength && length > limit {
			result.add(path, KindRange, override(field, rule, fmt.Sprintf("%s must be at most %d characters", label, limit)))
		}
	case model.ValidationRulePattern:
		re, err := v.pattern(rule.Params["pattern"])
		if err != nil || re == nil {
			return
		}
		if !re.MatchString(raw) {
			result.add(path, KindShape, override(field, rule, fmt.Sprintf("%s has an invalid format", label)))
		}
	}
}

// pattern compiles and caches rule expressions. Invalid expressions are
// reported once by definition.Check and ignored here.
func (v *Validator) pattern(expr string) (*regexp.Regexp, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, nil
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if re, ok := v.patterns[expr]; ok {
		return re, nil
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, err
	}
	v.patterns[expr] = re
	return re, nil
}

func validateISODate(fl validator.FieldLevel) bool {
	_, err := value.ParseDate(fl.Field().String())
	return err == nil
}

func selectAllows(field model.Field, raw string) bool {
	if len(field.Options) == 0 || field.AllowOther {
		return true
	}
	for _, opt := range field.Options {
		if opt.Value == raw {
			return true
		}
	}
	return false
}

func tableRecords(raw any) []map[string]any {
	switch typed := raw.(type) {
	case []any:
		out := make([]map[string]any, 0, len(typed))
		for _, entry := range typed {
			record, _ := entry.(map[string]any)
			out = append(out, record)
		}
		return out
	case []map[string]any:
		return typed
	default:
		return nil
	}
}

func minItemsMessage(table model.Table) string {
	if table.MinRows == 1 {
		return "At least one row is required"
	}
	return fmt.Sprintf("At least %d rows are required", table.MinRows)
}

func displayLabel(field model.Field) string {
	if strings.TrimSpace(field.Label) != "" {
		return field.Label
	}
	return model.DefaultLabeler(field.Name)
}

func override(field model.Field, rule model.ValidationRule, fallback string) string {
	if msg := strings.TrimSpace(rule.Params["message"]); msg != "" {
		return msg
	}
	if rule.Kind == "" && field.Metadata != nil {
		if msg := strings.TrimSpace(field.Metadata["requiredMessage"]); msg != "" {
			return msg
		}
	}
	return fallback
}
