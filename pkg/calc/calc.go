// Package calc evaluates derived values: row totals, variances, elapsed
// hours and running totals. Every operand is a typed value.Value, so no
// arithmetic ever depends on string coercion.
package calc

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/goliatone/go-formdoc/pkg/model"
	"github.com/goliatone/go-formdoc/pkg/value"
)

// Supported operations.
const (
	OpSum        = "sum"
	OpDifference = "difference"
	OpProduct    = "product"
	OpHours      = "hours"
	OpCumulative = "cumulative"
)

var (
	// ErrUnknownOp is returned for operations Evaluate does not implement.
	ErrUnknownOp = errors.New("calc: unknown operation")
	// ErrOperand is returned when an argument has the wrong kind or count.
	ErrOperand = errors.New("calc: invalid operand")
)

// Resolver turns a formula argument reference into a value.
type Resolver func(ref string) (value.Value, error)

// Known reports whether op is supported.
func Known(op string) bool {
	switch normalizeOp(op) {
	case OpSum, OpDifference, OpProduct, OpHours, OpCumulative:
		return true
	default:
		return false
	}
}

// Apply resolves every argument of f and evaluates it.
func Apply(f model.Formula, resolve Resolver) (value.Value, error) {
	if resolve == nil {
		return value.Empty(), fmt.Errorf("calc: resolver is required")
	}
	args := make([]value.Value, 0, len(f.Args))
	for _, ref := range f.Args {
		v, err := resolve(ref)
		if err != nil {
			return value.Empty(), fmt.Errorf("calc: resolve %q: %w", ref, err)
		}
		args = append(args, v)
	}
	return Evaluate(f.Op, args)
}

// Evaluate applies op to args.
//
//   - sum adds every argument; empties count as zero.
//   - difference subtracts the remaining arguments from the first
//     (variance = budget - actual).
//   - product multiplies; any empty argument yields Empty.
//   - hours measures the span between a start and end time, wrapping
//     past midnight for time-of-day values.
//   - cumulative is the total of its arguments; running totals per row come
//     from Running.
//
// When every argument is empty the result is Empty, so untouched rows print
// a placeholder instead of 0.
func Evaluate(op string, args []value.Value) (value.Value, error) {
	switch normalizeOp(op) {
	case OpSum, OpCumulative:
		return sum(args)
	case OpDifference:
		return difference(args)
	case OpProduct:
		return product(args)
	case OpHours:
		return hours(args)
	default:
		return value.Empty(), fmt.Errorf("%w: %q", ErrUnknownOp, op)
	}
}

// Running returns the prefix sums of column. Empty cells carry the previous
// total forward; a column of empties stays empty.
func Running(column []value.Value) ([]value.Value, error) {
	out := make([]value.Value, len(column))
	total := 0.0
	seen := false
	for i, v := range column {
		f, ok := v.Float()
		if !ok {
			return nil, fmt.Errorf("%w: row %d is %s", ErrOperand, i, v.Kind())
		}
		if !v.IsEmpty() {
			seen = true
		}
		total += f
		if seen {
			out[i] = value.Number(round2(total))
		}
	}
	return out, nil
}

func sum(args []value.Value) (value.Value, error) {
	total := 0.0
	for i, v := range args {
		f, ok := v.Float()
		if !ok {
			return value.Empty(), fmt.Errorf("%w: argument %d is %s", ErrOperand, i, v.Kind())
		}
		total += f
	}
	if allEmpty(args) {
		return value.Empty(), nil
	}
	return value.Number(round2(total)), nil
}

func difference(args []value.Value) (value.Value, error) {
	if len(args) == 0 {
		return value.Empty(), fmt.Errorf("%w: difference needs at least one argument", ErrOperand)
	}
	head, ok := args[0].Float()
	if !ok {
		return value.Empty(), fmt.Errorf("%w: argument 0 is %s", ErrOperand, args[0].Kind())
	}
	rest, err := sum(args[1:])
	if err != nil {
		return value.Empty(), err
	}
	if allEmpty(args) {
		return value.Empty(), nil
	}
	tail, _ := rest.Float()
	return value.Number(round2(head - tail)), nil
}

func product(args []value.Value) (value.Value, error) {
	if len(args) == 0 {
		return value.Empty(), nil
	}
	total := 1.0
	for i, v := range args {
		if v.IsEmpty() {
			return value.Empty(), nil
		}
		f, ok := v.Float()
		if !ok {
			return value.Empty(), fmt.Errorf("%w: argument %d is %s", ErrOperand, i, v.Kind())
		}
		total *= f
	}
	return value.Number(round2(total)), nil
}

func hours(args []value.Value) (value.Value, error) {
	if len(args) != 2 {
		return value.Empty(), fmt.Errorf("%w: hours needs a start and an end", ErrOperand)
	}
	start, end := args[0], args[1]
	if start.IsEmpty() || end.IsEmpty() {
		return value.Empty(), nil
	}
	for i, v := range args {
		if v.Kind() != value.KindTime && v.Kind() != value.KindDate {
			return value.Empty(), fmt.Errorf("%w: argument %d is %s", ErrOperand, i, v.Kind())
		}
	}
	span := end.Time().Sub(start.Time())
	if span < 0 && start.Kind() == value.KindTime && end.Kind() == value.KindTime {
		span += 24 * time.Hour
	}
	return value.Number(round2(span.Hours())), nil
}

func allEmpty(args []value.Value) bool {
	for _, v := range args {
		if !v.IsEmpty() {
			return false
		}
	}
	return true
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}

func normalizeOp(op string) string {
	return strings.ToLower(strings.TrimSpace(op))
}
