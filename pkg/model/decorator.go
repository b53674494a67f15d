package model

// Decorator enriches a form definition after it has been loaded.
type Decorator interface {
	Decorate(*FormDefinition) error
}

// DecoratorFunc adapts a function into a Decorator.
type DecoratorFunc func(*FormDefinition) error

// Decorate calls the underlying function.
func (fn DecoratorFunc) Decorate(def *FormDefinition) error {
	return fn(def)
}

// DefaultLabels fills empty labels and titles using DefaultLabeler and
// normalises unset kinds to text.
var DefaultLabels Decorator = DecoratorFunc(func(def *FormDefinition) error {
	if def == nil {
		return nil
	}
	if def.Title == "" {
		def.Title = DefaultLabeler(def.ID)
	}
	for i := range def.Sections {
		section := &def.Sections[i]
		if section.Title == "" {
			section.Title = DefaultLabeler(section.ID)
		}
		labelFields(section.Fields)
	}
	for i := range def.Tables {
		table := &def.Tables[i]
		if table.Title == "" {
			table.Title = DefaultLabeler(table.Name)
		}
		labelFields(table.Columns)
	}
	return nil
})

func labelFields(fields []Field) {
	for i := range fields {
		if fields[i].Label == "" {
			fields[i].Label = DefaultLabeler(fields[i].Name)
		}
		if fields[i].Kind == "" {
			fields[i].Kind = FieldKindText
		}
	}
}
