package document

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/goliatone/go-formdoc/pkg/calc"
	"github.com/goliatone/go-formdoc/pkg/model"
	"github.com/goliatone/go-formdoc/pkg/value"
)

// maxFormulaDepth bounds formula references so cycles terminate.
const maxFormulaDepth = 16

var errFormulaDepth = errors.New("document: formula references nest too deeply")

// calculator resolves derived fields for one read of the document. Results
// are not cached across reads because bound values change between them.
type calculator struct {
	doc   *Document
	depth int
}

func newCalculator(d *Document) *calculator {
	return &calculator{doc: d}
}

// field returns the value of a scalar field, computing it when derived.
// Failures are logged and read as Empty.
func (c *calculator) field(field model.Field) value.Value {
	v, err := c.fieldValue(field)
	if err != nil {
		c.doc.logger.Debug("derived field failed", zap.String("field", field.Name), zap.Error(err))
		return value.Empty()
	}
	return v
}

// cell returns the value of a table cell, computing it when derived.
func (c *calculator) cell(table *Table, index int, col model.Field) value.Value {
	v, err := c.cellValue(table, index, col)
	if err != nil {
		c.doc.logger.Debug("derived cell failed",
			zap.String("table", table.Def.Name),
			zap.Int("row", index),
			zap.String("column", col.Name),
			zap.Error(err),
		)
		return value.Empty()
	}
	return v
}

func (c *calculator) fieldValue(field model.Field) (value.Value, error) {
	if !field.Derived() {
		return value.ParseAs(field.Kind.ValueKind(), c.doc.values.String(field.Name))
	}
	if err := c.enter(); err != nil {
		return value.Empty(), err
	}
	defer c.leave()
	return calc.Apply(*field.Formula, c.resolveFormRef)
}

func (c *calculator) cellValue(table *Table, index int, col model.Field) (value.Value, error) {
	if !col.Derived() {
		raw, _ := table.Rows.Get(index, col.Name)
		return value.ParseAs(col.Kind.ValueKind(), raw)
	}
	if err := c.enter(); err != nil {
		return value.Empty(), err
	}
	defer c.leave()

	if strings.EqualFold(strings.TrimSpace(col.Formula.Op), calc.OpCumulative) {
		return c.runningTotal(table, index, col.Formula.Args)
	}
	return calc.Apply(*col.Formula, func(ref string) (value.Value, error) {
		sibling, ok := table.Def.Column(ref)
		if !ok {
			return value.Empty(), fmt.Errorf("unknown column %q", ref)
		}
		return c.cellValue(table, index, sibling)
	})
}

// runningTotal sums the referenced column (or the row-wise sum of several
// columns) over rows 0..index.
func (c *calculator) runningTotal(table *Table, index int, refs []string) (value.Value, error) {
	if len(refs) == 0 {
		return value.Empty(), fmt.Errorf("%w: cumulative needs a column", calc.ErrOperand)
	}
	column := make([]value.Value, 0, index+1)
	for i := 0; i <= index && i < table.Rows.Len(); i++ {
		args := make([]value.Value, 0, len(refs))
		for _, ref := range refs {
			sibling, ok := table.Def.Column(ref)
			if !ok {
				return value.Empty(), fmt.Errorf("unknown column %q", ref)
			}
			v, err := c.cellValue(table, i, sibling)
			if err != nil {
				return value.Empty(), err
			}
			args = append(args, v)
		}
		rowTotal, err := calc.Evaluate(calc.OpSum, args)
		if err != nil {
			return value.Empty(), err
		}
		column = append(column, rowTotal)
	}
	totals, err := calc.Running(column)
	if err != nil || len(totals) == 0 {
		return value.Empty(), err
	}
	return totals[len(totals)-1], nil
}

// resolveFormRef resolves a form-level formula argument: "table.column"
// aggregates a column over every row, anything else names a scalar field.
func (c *calculator) resolveFormRef(ref string) (value.Value, error) {
	if tableName, colName, ok := strings.Cut(ref, "."); ok {
		if table, found := c.doc.Table(tableName); found {
			col, ok := table.Def.Column(colName)
			if !ok {
				return value.Empty(), fmt.Errorf("unknown column %q", ref)
			}
			return c.columnTotal(table, col)
		}
	}
	field, ok := c.doc.def.Field(ref)
	if !ok {
		return value.Empty(), fmt.Errorf("unknown field %q", ref)
	}
	return c.fieldValue(field)
}

func (c *calculator) columnTotal(table *Table, col model.Field) (value.Value, error) {
	args := make([]value.Value, 0, table.Rows.Len())
	for i := 0; i < table.Rows.Len(); i++ {
		v, err := c.cellValue(table, i, col)
		if err != nil {
			return value.Empty(), err
		}
		args = append(args, v)
	}
	return calc.Evaluate(calc.OpSum, args)
}

func (c *calculator) enter() error {
	if c.depth >= maxFormulaDepth {
		return errFormulaDepth
	}
	c.depth++
	return nil
}

func (c *calculator) leave() { c.depth-- }
