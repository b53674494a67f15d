package calc

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formdoc/pkg/model"
	"github.com/goliatone/go-formdoc/pkg/value"
)

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name string
		op   string
		args []value.Value
		want string
	}{
		{"sum", OpSum, []value.Value{value.Number(1.5), value.Empty(), value.Number(2)}, "3.5"},
		{"sum of empties", OpSum, []value.Value{value.Empty(), value.Empty()}, ""},
		{"variance", OpDifference, []value.Value{value.Number(1000), value.Number(750.25)}, "249.75"},
		{"variance with missing actual", OpDifference, []value.Value{value.Number(1000), value.Empty()}, "1000"},
		{"line total", OpProduct, []value.Value{value.Number(3), value.Number(19.99)}, "59.97"},
		{"line total missing rate", OpProduct, []value.Value{value.Number(3), value.Empty()}, ""},
		{"hours", OpHours, []value.Value{value.Clock(9, 0), value.Clock(17, 30)}, "8.5"},
		{"overnight hours", OpHours, []value.Value{value.Clock(22, 0), value.Clock(6, 15)}, "8.25"},
		{"hours missing end", OpHours, []value.Value{value.Clock(22, 0), value.Empty()}, ""},
		{"case insensitive op", " SUM ", []value.Value{value.Number(2)}, "2"},
	}
	for _, tt := range tests {
		got, err := Evaluate(tt.op, tt.args)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tt.name, err)
		}
		if got.Format() != tt.want {
			t.Errorf("%s: got %q, want %q", tt.name, got.Format(), tt.want)
		}
	}
}

func TestEvaluateDateSpan(t *testing.T) {
	start := value.Date(time.Date(2024, 3, 1, 22, 0, 0, 0, time.UTC))
	end := value.Date(time.Date(2024, 3, 2, 7, 0, 0, 0, time.UTC))
	got, err := Evaluate(OpHours, []value.Value{start, end})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if got.Number() != 9 {
		t.Fatalf("expected 9 hours, got %v", got.Number())
	}
}

func TestEvaluateErrors(t *testing.T) {
	if _, err := Evaluate("median", nil); !errors.Is(err, ErrUnknownOp) {
		t.Fatalf("expected ErrUnknownOp, got %v", err)
	}
	if _, err := Evaluate(OpSum, []value.Value{value.Text("ten")}); !errors.Is(err, ErrOperand) {
		t.Fatalf("expected ErrOperand, got %v", err)
	}
	if _, err := Evaluate(OpHours, []value.Value{value.Clock(1, 0)}); !errors.Is(err, ErrOperand) {
		t.Fatalf("expected ErrOperand, got %v", err)
	}
	if _, err := Evaluate(OpDifference, nil); !errors.Is(err, ErrOperand) {
		t.Fatalf("expected ErrOperand, got %v", err)
	}
}

func TestApplyResolvesArguments(t *testing.T) {
	cells := map[string]string{"qty": "4", "rate": "2.5"}
	got, err := Apply(model.Formula{Op: OpProduct, Args: []string{"qty", "rate"}}, func(ref string) (value.Value, error) {
		return value.ParseNumber(cells[ref])
	})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if got.Format() != "10" {
		t.Fatalf("expected 10, got %q", got.Format())
	}

	_, err = Apply(model.Formula{Op: OpSum, Args: []string{"bad"}}, func(string) (value.Value, error) {
		return value.ParseNumber("x")
	})
	if !errors.Is(err, value.ErrNotNumber) {
		t.Fatalf("expected wrapped ErrNotNumber, got %v", err)
	}
}

func TestRunning(t *testing.T) {
	got, err := Running([]value.Value{value.Empty(), value.Number(100), value.Empty(), value.Number(50.5)})
	if err != nil {
		t.Fatalf("running: %v", err)
	}
	formatted := make([]string, len(got))
	for i, v := range got {
		formatted[i] = v.Format()
	}
	if diff := cmp.Diff([]string{"", "100", "100", "150.5"}, formatted); diff != "" {
		t.Fatalf("running totals mismatch (-want +got):\n%s", diff)
	}
}
