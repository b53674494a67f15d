package openapi

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-formdoc/pkg/definition"
	"github.com/goliatone/go-formdoc/pkg/model"
)

var (
	// ErrComponentNotFound is returned when the named schema component is
	// missing from the document.
	ErrComponentNotFound = errors.New("openapi: schema component not found")
	// ErrUnsupportedSchema is returned for shapes that have no form
	// representation (nested arrays, objects below the second level).
	ErrUnsupportedSchema = errors.New("openapi: unsupported schema")
)

// DefaultSection is the section id scalar root properties land in when they
// do not name one through x-formdoc.
const DefaultSection = "details"

// Option customises conversion.
type Option func(*converter)

// WithDecorators replaces the decorators run on the converted definition.
// The default is model.DefaultLabels.
func WithDecorators(decorators ...model.Decorator) Option {
	return func(c *converter) {
		c.decorators = append([]model.Decorator(nil), decorators...)
	}
}

// WithExternalRefs allows the loader to resolve references outside the
// document.
func WithExternalRefs(enabled bool) Option {
	return func(c *converter) {
		c.externalRefs = enabled
	}
}

type converter struct {
	decorators   []model.Decorator
	externalRefs bool
}

func newConverter(opts []Option) *converter {
	c := &converter{decorators: []model.Decorator{model.DefaultLabels}}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Load parses an OpenAPI document from JSON or YAML.
func Load(ctx context.Context, data []byte, opts ...Option) (*openapi3.T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, errors.New("openapi: document payload is empty")
	}
	c := newConverter(opts)
	loader := &openapi3.Loader{
		Context:               ctx,
		IsExternalRefsAllowed: c.externalRefs,
	}
	doc, err := loader.LoadFromData(data)
	if err != nil {
		return nil, fmt.Errorf("openapi: load document: %w", err)
	}
	return doc, nil
}

// Components lists the schema component names of doc in sorted order.
func Components(doc *openapi3.T) []string {
	if doc == nil || doc.Components == nil {
		return nil
	}
	names := make([]string, 0, len(doc.Components.Schemas))
	for name := range doc.Components.Schemas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FromSchema loads data and converts the named component.
func FromSchema(ctx context.Context, data []byte, component string, opts ...Option) (model.FormDefinition, error) {
	doc, err := Load(ctx, data, opts...)
	if err != nil {
		return model.FormDefinition{}, err
	}
	return FromDocument(ctx, doc, component, opts...)
}

// FromDocument converts the named schema component of a loaded document. The
// result is decorated and checked with definition.Check.
func FromDocument(ctx context.Context, doc *openapi3.T, component string, opts ...Option) (model.FormDefinition, error) {
	if err := ctx.Err(); err != nil {
		return model.FormDefinition{}, err
	}
	if doc == nil || doc.Components == nil {
		return model.FormDefinition{}, fmt.Errorf("%w: %q", ErrComponentNotFound, component)
	}
	ref, ok := doc.Components.Schemas[component]
	if !ok || ref == nil || ref.Value == nil {
		return model.FormDefinition{}, fmt.Errorf("%w: %q", ErrComponentNotFound, component)
	}

	c := newConverter(opts)
	def, err := c.convertRoot(component, ref.Value)
	if err != nil {
		return model.FormDefinition{}, err
	}
	for _, decorator := range c.decorators {
		if decorator == nil {
			continue
		}
		if err := decorator.Decorate(&def); err != nil {
			return model.FormDefinition{}, fmt.Errorf("openapi: decorate %q: %w", def.ID, err)
		}
	}
	if err := definition.Check(def); err != nil {
		return model.FormDefinition{}, err
	}
	return def, nil
}

func (c *converter) convertRoot(component string, schema *openapi3.Schema) (model.FormDefinition, error) {
	if !isObject(schema) {
		return model.FormDefinition{}, fmt.Errorf("%w: component %q is not an object", ErrUnsupportedSchema, component)
	}
	ext, err := readExtension(schema.Extensions)
	if err != nil {
		return model.FormDefinition{}, err
	}

	def := model.FormDefinition{
		ID:        firstNonEmpty(ext.ID, kebab(component)),
		Title:     firstNonEmpty(ext.Title, schema.Title),
		Subtitle:  firstNonEmpty(ext.Subtitle, schema.Description),
		Category:  ext.Category,
		Approvals: ext.Approvals,
	}

	sections := newSectionSet(firstNonEmpty(ext.Section, DefaultSection))
	required := requiredSet(schema.Required)

	props, err := orderedProperties(schema)
	if err != nil {
		return model.FormDefinition{}, err
	}
	for _, prop := range props {
		switch {
		case isObject(prop.schema):
			section, err := c.nestedSection(prop)
			if err != nil {
				return model.FormDefinition{}, err
			}
			sections.addSection(section)
		case isArray(prop.schema):
			table, err := c.table(prop)
			if err != nil {
				return model.FormDefinition{}, err
			}
			def.Tables = append(def.Tables, table)
		default:
			field, err := c.field(prop, required)
			if err != nil {
				return model.FormDefinition{}, err
			}
			sections.addField(firstNonEmpty(prop.ext.Section, sections.fallback), field)
		}
	}
	def.Sections = sections.list()
	return def, nil
}

func (c *converter) nestedSection(prop property) (model.Section, error) {
	section := model.Section{
		ID:          prop.name,
		Title:       firstNonEmpty(prop.ext.Label, prop.schema.Title),
		Description: prop.schema.Description,
	}
	required := requiredSet(prop.schema.Required)
	children, err := orderedProperties(prop.schema)
	if err != nil {
		return model.Section{}, err
	}
	for _, child := range children {
		if isObject(child.schema) || isArray(child.schema) {
			return model.Section{}, fmt.Errorf("%w: property %q nests %q too deeply", ErrUnsupportedSchema, prop.name, child.name)
		}
		field, err := c.field(child, required)
		if err != nil {
			return model.Section{}, err
		}
		section.Fields = append(section.Fields, field)
	}
	return section, nil
}

func (c *converter) table(prop property) (model.Table, error) {
	items := prop.schema.Items
	if items == nil || items.Value == nil || !isObject(items.Value) {
		return model.Table{}, fmt.Errorf("%w: array %q must hold objects", ErrUnsupportedSchema, prop.name)
	}
	table := model.Table{
		Name:           prop.name,
		Title:          firstNonEmpty(prop.ext.Label, prop.schema.Title),
		MinRows:        int(prop.schema.MinItems),
		InitialRows:    prop.ext.InitialRows,
		DynamicColumns: prop.ext.DynamicColumns,
	}
	required := requiredSet(items.Value.Required)
	columns, err := orderedProperties(items.Value)
	if err != nil {
		return model.Table{}, err
	}
	for _, col := range columns {
		if isObject(col.schema) || isArray(col.schema) {
			return model.Table{}, fmt.Errorf("%w: column %q of %q must be a scalar", ErrUnsupportedSchema, col.name, prop.name)
		}
		field, err := c.field(col, required)
		if err != nil {
			return model.Table{}, err
		}
		table.Columns = append(table.Columns, field)
	}
	return table, nil
}

func (c *converter) field(prop property, required map[string]bool) (model.Field, error) {
	schema := prop.schema
	field := model.Field{
		Name:        prop.name,
		Label:       firstNonEmpty(prop.ext.Label, schema.Title),
		Kind:        fieldKind(schema, prop.ext),
		Placeholder: prop.ext.Placeholder,
		Description: schema.Description,
		Required:    required[prop.name],
		AllowOther:  prop.ext.AllowOther,
		Formula:     prop.ext.Formula,
		VisibleWhen: prop.ext.VisibleWhen,
		Validations: rules(schema),
	}
	if schema.Default != nil {
		field.Default = fmt.Sprint(schema.Default)
	}
	if field.Kind == model.FieldKindSelect {
		field.Options = options(schema)
	}
	if total := strings.TrimSpace(prop.ext.Total); total != "" {
		field.Metadata = map[string]string{"total": total}
	}
	return field, nil
}

func fieldKind(schema *openapi3.Schema, ext extension) model.FieldKind {
	if ext.Kind != "" {
		return ext.Kind
	}
	if len(schema.Enum) > 0 || schemaType(schema) == openapi3.TypeBoolean {
		return model.FieldKindSelect
	}
	switch schemaType(schema) {
	case openapi3.TypeInteger, openapi3.TypeNumber:
		return model.FieldKindNumber
	}
	switch schema.Format {
	case "date":
		return model.FieldKindDate
	case "date-time":
		return model.FieldKindDateTime
	case "time":
		return model.FieldKindTime
	case "email":
		return model.FieldKindEmail
	}
	return model.FieldKindText
}

func options(schema *openapi3.Schema) []model.Option {
	if len(schema.Enum) == 0 && schemaType(schema) == openapi3.TypeBoolean {
		return []model.Option{{Value: "true", Label: "Yes"}, {Value: "false", Label: "No"}}
	}
	out := make([]model.Option, 0, len(schema.Enum))
	for _, entry := range schema.Enum {
		out = append(out, model.Option{Value: fmt.Sprint(entry)})
	}
	return out
}

func rules(schema *openapi3.Schema) []model.ValidationRule {
	var out []model.ValidationRule
	if schema.Min != nil {
		out = append(out, numericRule(model.ValidationRuleMin, *schema.Min))
	}
	if schema.Max != nil {
		out = append(out, numericRule(model.ValidationRuleMax, *schema.Max))
	}
	if schema.MinLength > 0 {
		out = append(out, model.ValidationRule{
			Kind:   model.ValidationRuleMinLength,
			Params: map[string]string{"value": strconv.FormatUint(schema.MinLength, 10)},
		})
	}
	if schema.MaxLength != nil {
		out = append(out, model.ValidationRule{
			Kind:   model.ValidationRuleMaxLength,
			Params: map[string]string{"value": strconv.FormatUint(*schema.MaxLength, 10)},
		})
	}
	if schema.Pattern != "" {
		out = append(out, model.ValidationRule{
			Kind:   model.ValidationRulePattern,
			Params: map[string]string{"pattern": schema.Pattern},
		})
	}
	return out
}

func numericRule(kind string, bound float64) model.ValidationRule {
	return model.ValidationRule{
		Kind:   kind,
		Params: map[string]string{"value": strconv.FormatFloat(bound, 'f', -1, 64)},
	}
}

type property struct {
	name   string
	schema *openapi3.Schema
	ext    extension
}

// orderedProperties returns the object's properties sorted by x-formdoc
// order, then name. Properties without an order sort after ordered ones.
func orderedProperties(schema *openapi3.Schema) ([]property, error) {
	out := make([]property, 0, len(schema.Properties))
	for name, ref := range schema.Properties {
		if ref == nil || ref.Value == nil {
			continue
		}
		ext, err := readExtension(ref.Value.Extensions)
		if err != nil {
			return nil, fmt.Errorf("openapi: property %q: %w", name, err)
		}
		out = append(out, property{name: name, schema: ref.Value, ext: ext})
	}
	sort.SliceStable(out, func(i, j int) bool {
		oi, oj := out[i].ext.Order, out[j].ext.Order
		switch {
		case oi != nil && oj != nil && *oi != *oj:
			return *oi < *oj
		case oi != nil && oj == nil:
			return true
		case oi == nil && oj != nil:
			return false
		}
		return out[i].name < out[j].name
	})
	return out, nil
}

// sectionSet keeps sections in first-seen order.
type sectionSet struct {
	fallback string
	order    []string
	byID     map[string]*model.Section
}

func newSectionSet(fallback string) *sectionSet {
	return &sectionSet{fallback: fallback, byID: make(map[string]*model.Section)}
}

func (s *sectionSet) get(id string) *model.Section {
	if section, ok := s.byID[id]; ok {
		return section
	}
	section := &model.Section{ID: id}
	s.byID[id] = section
	s.order = append(s.order, id)
	return section
}

func (s *sectionSet) addField(id string, field model.Field) {
	section := s.get(id)
	section.Fields = append(section.Fields, field)
}

func (s *sectionSet) addSection(section model.Section) {
	target := s.get(section.ID)
	target.Title = section.Title
	target.Description = section.Description
	target.Fields = append(target.Fields, section.Fields...)
}

func (s *sectionSet) list() []model.Section {
	if len(s.order) == 0 {
		return nil
	}
	out := make([]model.Section, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.byID[id])
	}
	return out
}

func isObject(schema *openapi3.Schema) bool {
	if schema == nil {
		return false
	}
	return schemaType(schema) == openapi3.TypeObject || (schemaType(schema) == "" && len(schema.Properties) > 0)
}

func isArray(schema *openapi3.Schema) bool {
	return schema != nil && schemaType(schema) == openapi3.TypeArray
}

func schemaType(schema *openapi3.Schema) string {
	if schema == nil || schema.Type == nil {
		return ""
	}
	values := schema.Type.Slice()
	for _, v := range values {
		if v != openapi3.TypeNull {
			return v
		}
	}
	return ""
}

func requiredSet(names []string) map[string]bool {
	out := make(map[string]bool, len(names))
	for _, name := range names {
		out[name] = true
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// kebab turns a component name such as "PurchaseOrder" into "purchase-order".
func kebab(name string) string {
	var b strings.Builder
	for i, r := range name {
		switch {
		case r >= 'A' && r <= 'Z':
			if i > 0 && isLowerOrDigit(name[i-1]) {
				b.WriteByte('-')
			}
			b.WriteRune(r + ('a' - 'A'))
		case r == '_' || r == ' ':
			b.WriteByte('-')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func isLowerOrDigit(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= '0' && b <= '9')
}
