// Package tui edits a document interactively in the terminal. Prompts go
// through a PromptDriver so the flow can be scripted in tests; the default
// driver uses survey/v2.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/goliatone/go-formdoc/pkg/approvals"
	"github.com/goliatone/go-formdoc/pkg/columns"
	"github.com/goliatone/go-formdoc/pkg/document"
	"github.com/goliatone/go-formdoc/pkg/model"
	"github.com/goliatone/go-formdoc/pkg/render"
	"github.com/goliatone/go-formdoc/pkg/rows"
	"github.com/goliatone/go-formdoc/pkg/validation"
	"github.com/goliatone/go-formdoc/pkg/value"
)

// Table menu entries.
const (
	MenuAddRow       = "Add row"
	MenuRemoveRow    = "Remove row"
	MenuAddColumn    = "Add column"
	MenuRemoveColumn = "Remove column"
	MenuDone         = "Done"
)

// Signature payload keys captured for approval roles.
const (
	SignerNameKey = "name"
	SignerDateKey = "date"
)

// Editor walks a document prompting for every editable value.
type Editor struct {
	driver PromptDriver
	theme  Theme
	logger *zap.Logger
}

// New constructs an editor. Without WithPromptDriver it talks to the real
// terminal through survey.
func New(options ...Option) (*Editor, error) {
	e := &Editor{logger: zap.NewNop()}
	for _, opt := range options {
		if opt != nil {
			opt(e)
		}
	}
	if e.driver == nil {
		e.driver = NewSurveyDriver(nil)
	}
	return e, nil
}

// Edit prompts for scalar fields, then table rows and columns, then approval
// signatures. It returns the validation result of the edited document;
// issues are also reported through the driver's Info.
func (e *Editor) Edit(ctx context.Context, doc *document.Document) (validation.Result, error) {
	if doc == nil {
		return validation.Result{}, errors.New("tui: document is nil")
	}
	if doc.Print() {
		return validation.Result{}, document.ErrReadOnly
	}

	def := doc.Definition()
	for _, section := range def.Sections {
		if section.Title != "" {
			if err := e.info(ctx, e.theme.InfoPrefix+section.Title); err != nil {
				return validation.Result{}, err
			}
		}
		for _, field := range section.Fields {
			if field.Derived() || !doc.Visible(field.Name) {
				continue
			}
			if err := e.editField(ctx, doc, field, field.Name); err != nil {
				return validation.Result{}, err
			}
		}
	}

	for _, table := range doc.Tables() {
		if err := e.editTable(ctx, doc, table); err != nil {
			return validation.Result{}, err
		}
	}

	if doc.Approvals() != nil {
		if err := e.editApprovals(ctx, doc, def.Approvals); err != nil {
			return validation.Result{}, err
		}
	}

	result := doc.Validate()
	for _, issue := range result.Issues {
		if err := e.info(ctx, fmt.Sprintf("%s%s: %s", e.theme.ErrorPrefix, issue.Path, issue.Message)); err != nil {
			return result, err
		}
	}
	return result, nil
}

func (e *Editor) editField(ctx context.Context, doc *document.Document, field model.Field, path string) error {
	label := fieldLabel(field)
	current := doc.Value(path)

	var (
		raw string
		err error
	)
	switch field.Kind {
	case model.FieldKindSelect:
		raw, err = e.selectValue(ctx, field, label, current)
	case model.FieldKindTextArea:
		raw, err = e.driver.TextArea(ctx, TextAreaConfig{
			Message: label,
			Default: current,
			Help:    field.Description,
		})
	default:
		raw, err = e.driver.Input(ctx, InputConfig{
			Message:   label,
			Default:   current,
			Help:      helpText(field),
			Validator: fieldValidator(path, field),
		})
	}
	if err != nil {
		return err
	}
	if err := doc.Bind(path, raw); err != nil {
		return fmt.Errorf("tui: bind %s: %w", path, err)
	}
	return nil
}

func (e *Editor) selectValue(ctx context.Context, field model.Field, label, current string) (string, error) {
	options := make([]string, 0, len(field.Options)+1)
	values := make([]string, 0, len(field.Options)+1)
	defaultIndex := -1
	for i, opt := range field.Options {
		options = append(options, opt.DisplayLabel())
		values = append(values, opt.Value)
		if opt.Value == current {
			defaultIndex = i
		}
	}
	if field.AllowOther {
		options = append(options, render.OtherOptionLabel)
		values = append(values, render.OtherOptionValue)
	}
	if len(options) == 0 {
		return e.driver.Input(ctx, InputConfig{Message: label, Default: current})
	}

	idx, err := e.driver.Select(ctx, SelectConfig{
		Message:      label,
		Options:      options,
		DefaultIndex: defaultIndex,
		Help:         field.Description,
	})
	if err != nil {
		return "", err
	}
	if idx < 0 || idx >= len(values) {
		return "", ErrNoChoice
	}
	if field.AllowOther && values[idx] == render.OtherOptionValue {
		return e.driver.Input(ctx, InputConfig{Message: "Specify " + label})
	}
	return values[idx], nil
}

func (e *Editor) editTable(ctx context.Context, doc *document.Document, table *document.Table) error {
	name := table.Def.Name
	title := table.Def.Title
	if title == "" {
		title = model.DefaultLabeler(name)
	}
	if err := e.info(ctx, e.theme.InfoPrefix+title); err != nil {
		return err
	}
	for i := 0; i < table.Rows.Len(); i++ {
		if err := e.editRow(ctx, doc, table, i); err != nil {
			return err
		}
	}

	menu := []string{MenuAddRow, MenuRemoveRow}
	if table.Def.DynamicColumns {
		menu = append(menu, MenuAddColumn, MenuRemoveColumn)
	}
	menu = append(menu, MenuDone)

	for {
		idx, err := e.driver.Select(ctx, SelectConfig{Message: title, Options: menu, DefaultIndex: len(menu) - 1})
		if err != nil {
			return err
		}
		if idx < 0 || idx >= len(menu) {
			return ErrNoChoice
		}

		switch menu[idx] {
		case MenuAddRow:
			index, err := doc.AddRow(name)
			if err != nil {
				return err
			}
			if err := e.editRow(ctx, doc, table, index); err != nil {
				return err
			}
		case MenuRemoveRow:
			if err := e.removeRow(ctx, doc, table); err != nil {
				return err
			}
		case MenuAddColumn:
			if err := e.addColumn(ctx, doc, table); err != nil {
				return err
			}
		case MenuRemoveColumn:
			if err := e.removeColumn(ctx, doc, table); err != nil {
				return err
			}
		default:
			return nil
		}
	}
}

func (e *Editor) editRow(ctx context.Context, doc *document.Document, table *document.Table, index int) error {
	for _, col := range table.Def.Columns {
		if col.Derived() {
			continue
		}
		cell := col
		cell.Label = fmt.Sprintf("%s (row %d)", fieldLabel(col), index+1)
		if err := e.editField(ctx, doc, cell, cellPath(table.Def.Name, index, col.Name)); err != nil {
			return err
		}
	}
	for _, col := range table.Columns.Columns() {
		if err := e.editDynamicCell(ctx, doc, table, index, col); err != nil {
			return err
		}
	}
	return nil
}

func (e *Editor) editDynamicCell(ctx context.Context, doc *document.Document, table *document.Table, index int, col columns.Column) error {
	path := dynamicPath(table.Def.Name, index, col.Key)
	raw, err := e.driver.Input(ctx, InputConfig{
		Message: fmt.Sprintf("%s (row %d)", col.Label, index+1),
		Default: doc.Value(path),
	})
	if err != nil {
		return err
	}
	return doc.Bind(path, raw)
}

func (e *Editor) removeRow(ctx context.Context, doc *document.Document, table *document.Table) error {
	count := table.Rows.Len()
	if count == 0 {
		return e.info(ctx, e.theme.InfoPrefix+"No rows to remove.")
	}
	options := make([]string, count)
	for i := range options {
		options[i] = fmt.Sprintf("Row %d", i+1)
	}
	idx, err := e.driver.Select(ctx, SelectConfig{Message: MenuRemoveRow, Options: options, DefaultIndex: count - 1})
	if err != nil {
		return err
	}
	removed, err := doc.RemoveRow(table.Def.Name, idx)
	if err != nil {
		return err
	}
	if !removed {
		return e.info(ctx, e.theme.ErrorPrefix+minRowsMessage(table.Rows.MinRows()))
	}
	e.logger.Debug("row removed", zap.String("table", table.Def.Name), zap.Int("index", idx))
	return nil
}

// addColumn prompts for a column name. Collisions and blank names are
// reported and leave the registry unchanged.
func (e *Editor) addColumn(ctx context.Context, doc *document.Document, table *document.Table) error {
	name, err := e.driver.Input(ctx, InputConfig{Message: "Column name"})
	if err != nil {
		return err
	}
	col, err := doc.ProposeColumn(table.Def.Name, name)
	var collision *columns.CollisionError
	switch {
	case errors.As(err, &collision):
		return e.info(ctx, e.theme.ErrorPrefix+collision.Message())
	case errors.Is(err, columns.ErrEmptyName):
		return nil
	case err != nil:
		return err
	}

	e.logger.Debug("column added", zap.String("table", table.Def.Name), zap.String("key", col.Key))
	for i := 0; i < table.Rows.Len(); i++ {
		if err := e.editDynamicCell(ctx, doc, table, i, col); err != nil {
			return err
		}
	}
	return nil
}

func (e *Editor) removeColumn(ctx context.Context, doc *document.Document, table *document.Table) error {
	cols := table.Columns.Columns()
	if len(cols) == 0 {
		return e.info(ctx, e.theme.InfoPrefix+"No custom columns to remove.")
	}
	options := make([]string, len(cols))
	for i, col := range cols {
		options[i] = col.Label
	}
	idx, err := e.driver.Select(ctx, SelectConfig{Message: MenuRemoveColumn, Options: options})
	if err != nil {
		return err
	}
	if idx < 0 || idx >= len(cols) {
		return ErrNoChoice
	}
	_, err = doc.RemoveColumn(table.Def.Name, cols[idx].Key)
	return err
}

func (e *Editor) editApprovals(ctx context.Context, doc *document.Document, cfg *model.ApprovalConfig) error {
	title := "Approvals"
	allowCustom := false
	if cfg != nil {
		if cfg.Title != "" {
			title = cfg.Title
		}
		allowCustom = cfg.AllowCustom
	}
	if err := e.info(ctx, e.theme.InfoPrefix+title); err != nil {
		return err
	}

	for i, role := range doc.Approvals().Roles() {
		if err := e.signRole(ctx, doc, i, role.Name, role.Data); err != nil {
			return err
		}
	}
	if !allowCustom {
		return nil
	}

	for {
		more, err := e.driver.Confirm(ctx, ConfirmConfig{Message: "Add another approval role?"})
		if err != nil {
			return err
		}
		if !more {
			return nil
		}
		name, err := e.driver.Input(ctx, InputConfig{Message: "Role name"})
		if err != nil {
			return err
		}
		if err := doc.AddRole(name); err != nil {
			if errors.Is(err, approvals.ErrEmptyName) {
				continue
			}
			return err
		}
		index := doc.Approvals().Len() - 1
		roles := doc.Approvals().Roles()
		if err := e.signRole(ctx, doc, index, roles[index].Name, nil); err != nil {
			return err
		}
	}
}

func (e *Editor) signRole(ctx context.Context, doc *document.Document, index int, name string, data map[string]any) error {
	sign, err := e.driver.Confirm(ctx, ConfirmConfig{Message: fmt.Sprintf("Sign as %s?", name), Default: len(data) > 0})
	if err != nil {
		return err
	}
	if !sign {
		return nil
	}

	signer, err := e.driver.Input(ctx, InputConfig{
		Message: "Name",
		Default: stringValue(data, SignerNameKey),
		Validator: func(raw string) error {
			if strings.TrimSpace(raw) == "" {
				return errors.New("name is required")
			}
			return nil
		},
	})
	if err != nil {
		return err
	}
	date, err := e.driver.Input(ctx, InputConfig{
		Message: "Date",
		Default: stringValue(data, SignerDateKey),
		Help:    "YYYY-MM-DD",
		Validator: func(raw string) error {
			if _, err := value.ParseDate(raw); err != nil {
				return errors.New("date must be YYYY-MM-DD")
			}
			return nil
		},
	})
	if err != nil {
		return err
	}

	payload := map[string]any{SignerNameKey: strings.TrimSpace(signer)}
	if strings.TrimSpace(date) != "" {
		payload[SignerDateKey] = strings.TrimSpace(date)
	}
	return doc.Sign(index, payload)
}

func (e *Editor) info(ctx context.Context, msg string) error {
	return e.driver.Info(ctx, msg)
}

// fieldValidator runs the declarative rules on each answer so prompts re-ask
// until the value is acceptable.
func fieldValidator(path string, field model.Field) func(string) error {
	return func(raw string) error {
		issues := validation.Default().Field(path, field, raw)
		if len(issues) == 0 {
			return nil
		}
		return errors.New(issues[0].Message)
	}
}

func minRowsMessage(count int) string {
	if count == 1 {
		return "At least one row is required."
	}
	return fmt.Sprintf("At least %d rows are required.", count)
}

func fieldLabel(field model.Field) string {
	if strings.TrimSpace(field.Label) != "" {
		return field.Label
	}
	return model.DefaultLabeler(field.Name)
}

func helpText(field model.Field) string {
	parts := make([]string, 0, 2)
	if field.Description != "" {
		parts = append(parts, field.Description)
	}
	if field.Placeholder != "" {
		parts = append(parts, field.Placeholder)
	}
	return strings.Join(parts, " ")
}

func stringValue(data map[string]any, key string) string {
	if data == nil {
		return ""
	}
	if s, ok := data[key].(string); ok {
		return s
	}
	return ""
}

func cellPath(table string, index int, column string) string {
	return fmt.Sprintf("%s.%d.%s", table, index, column)
}

func dynamicPath(table string, index int, key string) string {
	return fmt.Sprintf("%s.%d.%s.%s", table, index, rows.DynamicFieldsKey, key)
}
