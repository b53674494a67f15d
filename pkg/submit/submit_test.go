package submit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formdoc/pkg/document"
	"github.com/goliatone/go-formdoc/pkg/model"
	"github.com/goliatone/go-formdoc/pkg/validation"
)

var fixedTime = time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)

func leaveRequest() model.FormDefinition {
	return model.FormDefinition{
		ID: "leave-request",
		Sections: []model.Section{{
			ID: "request",
			Fields: []model.Field{
				{Name: "employee", Label: "Employee", Required: true},
				{Name: "days", Label: "Days", Kind: model.FieldKindNumber},
			},
		}},
	}
}

func newDocument(t *testing.T, employee string) *document.Document {
	t.Helper()
	doc, err := document.New(leaveRequest())
	if err != nil {
		t.Fatalf("new document: %v", err)
	}
	if err := doc.Bind("employee", employee); err != nil {
		t.Fatalf("bind: %v", err)
	}
	return doc
}

type recordingSink struct {
	calls []Submission
	err   error
}

func (r *recordingSink) Submit(_ context.Context, submission Submission) (Receipt, error) {
	r.calls = append(r.calls, submission)
	if r.err != nil {
		return Receipt{}, r.err
	}
	return Receipt{ID: submission.ID, FormID: submission.FormID, Sink: "recording", StoredAt: submission.SubmittedAt}, nil
}

func newSubmitter(t *testing.T, sink Sink) *Submitter {
	t.Helper()
	s, err := NewSubmitter(sink,
		WithClock(func() time.Time { return fixedTime }),
		WithIDGenerator(func() string { return "sub-1" }),
	)
	if err != nil {
		t.Fatalf("new submitter: %v", err)
	}
	return s
}

func TestSubmitterForwardsValidDocument(t *testing.T) {
	sink := &recordingSink{}
	receipt, err := newSubmitter(t, sink).Submit(context.Background(), newDocument(t, "Ada"))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	want := Receipt{ID: "sub-1", FormID: "leave-request", Sink: "recording", StoredAt: fixedTime}
	if diff := cmp.Diff(want, receipt); diff != "" {
		t.Fatalf("receipt mismatch (-want +got):\n%s", diff)
	}
	if len(sink.calls) != 1 || sink.calls[0].Values["employee"] != "Ada" {
		t.Fatalf("unexpected sink calls: %+v", sink.calls)
	}
}

func TestSubmitterBlocksInvalidDocument(t *testing.T) {
	sink := &recordingSink{}
	_, err := newSubmitter(t, sink).Submit(context.Background(), newDocument(t, " "))

	var validationErr *validation.Error
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected *validation.Error, got %v", err)
	}
	if diff := cmp.Diff([]string{"employee"}, validationErr.Result.Paths()); diff != "" {
		t.Fatalf("paths mismatch (-want +got):\n%s", diff)
	}
	if len(sink.calls) != 0 {
		t.Fatalf("sink must not be called for invalid documents")
	}
}

func TestSubmitterWrapsSinkErrors(t *testing.T) {
	boom := errors.New("boom")
	_, err := newSubmitter(t, &recordingSink{err: boom}).Submit(context.Background(), newDocument(t, "Ada"))
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped sink error, got %v", err)
	}
	if err.Error() != "submit: leave-request: boom" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestNewSubmitterRequiresSink(t *testing.T) {
	if _, err := NewSubmitter(nil); !errors.Is(err, ErrNoSink) {
		t.Fatalf("expected ErrNoSink, got %v", err)
	}
}

func TestLogSinkAcknowledges(t *testing.T) {
	submission := Submission{ID: "s", FormID: "f", SubmittedAt: fixedTime}
	receipt, err := NewLogSink(nil).Submit(context.Background(), submission)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if receipt.Sink != "log" || receipt.ID != "s" {
		t.Fatalf("unexpected receipt %+v", receipt)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewLogSink(nil).Submit(ctx, submission); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestSinkFunc(t *testing.T) {
	sink := SinkFunc(func(_ context.Context, s Submission) (Receipt, error) {
		return Receipt{ID: s.ID, Sink: "func"}, nil
	})
	receipt, err := sink.Submit(context.Background(), Submission{ID: "x"})
	if err != nil || receipt.Sink != "func" {
		t.Fatalf("unexpected result %+v, %v", receipt, err)
	}
}
