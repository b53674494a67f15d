package submit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func openMemorySink(t *testing.T) *BadgerSink {
	t.Helper()
	sink, err := OpenBadgerSink(BadgerConfig{InMemory: true})
	if err != nil {
		t.Fatalf("open badger: %v", err)
	}
	t.Cleanup(func() {
		if err := sink.Close(); err != nil {
			t.Errorf("close badger: %v", err)
		}
	})
	return sink
}

func TestBadgerSinkStoresAndLists(t *testing.T) {
	ctx := context.Background()
	sink := openMemorySink(t)

	later := Submission{ID: "b", FormID: "po", SubmittedAt: fixedTime.Add(time.Hour), Values: map[string]any{"vendor": "Acme"}}
	earlier := Submission{ID: "a", FormID: "po", SubmittedAt: fixedTime, Values: map[string]any{"vendor": "Globex"}}
	other := Submission{ID: "c", FormID: "timesheet", SubmittedAt: fixedTime, Values: map[string]any{}}

	for _, s := range []Submission{later, earlier, other} {
		receipt, err := sink.Submit(ctx, s)
		if err != nil {
			t.Fatalf("Submit(%s): %v", s.ID, err)
		}
		if receipt.Sink != "badger" || receipt.ID != s.ID {
			t.Fatalf("unexpected receipt %+v", receipt)
		}
	}

	got, err := sink.List(ctx, "po")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if diff := cmp.Diff([]Submission{earlier, later}, got); diff != "" {
		t.Fatalf("list mismatch (-want +got):\n%s", diff)
	}

	loaded, err := sink.Get(ctx, "timesheet", "c")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if diff := cmp.Diff(other, loaded); diff != "" {
		t.Fatalf("get mismatch (-want +got):\n%s", diff)
	}

	if _, err := sink.Get(ctx, "po", "missing"); !errors.Is(err, ErrSubmissionNotFound) {
		t.Fatalf("expected ErrSubmissionNotFound, got %v", err)
	}
}

func TestBadgerSinkWithSubmitter(t *testing.T) {
	ctx := context.Background()
	sink := openMemorySink(t)

	receipt, err := newSubmitter(t, sink).Submit(ctx, newDocument(t, "Grace"))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	stored, err := sink.Get(ctx, receipt.FormID, receipt.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if stored.Values["employee"] != "Grace" || !stored.SubmittedAt.Equal(fixedTime) {
		t.Fatalf("unexpected stored submission %+v", stored)
	}
}

func TestBadgerSinkRejectsIncompleteSubmission(t *testing.T) {
	sink := openMemorySink(t)
	if _, err := sink.Submit(context.Background(), Submission{FormID: "po"}); err == nil {
		t.Fatalf("expected error for missing id")
	}
}

func TestOpenBadgerSinkRequiresPath(t *testing.T) {
	if _, err := OpenBadgerSink(BadgerConfig{}); err == nil {
		t.Fatalf("expected path error")
	}
}
