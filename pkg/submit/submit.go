// Package submit forwards validated document snapshots to a Sink. It is
// fire-and-forget: a failed sink call is returned to the caller and never
// retried.
package submit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/goliatone/go-formdoc/pkg/document"
)

// ErrNoSink is returned when a Submitter is built without a sink.
var ErrNoSink = errors.New("submit: sink is required")

// Submission is the record handed to a sink.
type Submission struct {
	ID          string         `json:"id"`
	FormID      string         `json:"formId"`
	SubmittedAt time.Time      `json:"submittedAt"`
	Values      map[string]any `json:"values"`
}

// Receipt acknowledges a stored submission.
type Receipt struct {
	ID       string    `json:"id"`
	FormID   string    `json:"formId"`
	Sink     string    `json:"sink"`
	StoredAt time.Time `json:"storedAt"`
}

// Sink accepts submissions.
type Sink interface {
	Submit(ctx context.Context, submission Submission) (Receipt, error)
}

// SinkFunc adapts a function into a Sink.
type SinkFunc func(ctx context.Context, submission Submission) (Receipt, error)

// Submit calls the underlying function.
func (fn SinkFunc) Submit(ctx context.Context, submission Submission) (Receipt, error) {
	return fn(ctx, submission)
}

// Option customises a Submitter.
type Option func(*Submitter)

// WithLogger sets the logger used for accepted and rejected submissions.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Submitter) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides the submission timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Submitter) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator overrides submission id generation (UUIDv4 by default).
func WithIDGenerator(fn func() string) Option {
	return func(s *Submitter) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// Submitter validates documents and forwards their snapshot.
type Submitter struct {
	sink   Sink
	logger *zap.Logger
	now    func() time.Time
	newID  func() string
}

// NewSubmitter wires a sink.
func NewSubmitter(sink Sink, opts ...Option) (*Submitter, error) {
	if sink == nil {
		return nil, ErrNoSink
	}
	s := &Submitter{
		sink:   sink,
		logger: zap.NewNop(),
		now:    func() time.Time { return time.Now().UTC() },
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

// Submit validates doc and forwards its snapshot. An invalid document
// returns a *validation.Error and the sink is not called.
func (s *Submitter) Submit(ctx context.Context, doc *document.Document) (Receipt, error) {
	if err := ctx.Err(); err != nil {
		return Receipt{}, err
	}
	if doc == nil {
		return Receipt{}, errors.New("submit: document is required")
	}

	formID := doc.Definition().ID
	result := doc.Validate()
	if !result.Valid() {
		s.logger.Info("submission rejected",
			zap.String("form", formID),
			zap.Strings("paths", result.Paths()),
		)
		return Receipt{}, result.Err()
	}

	submission := Submission{
		ID:          s.newID(),
		FormID:      formID,
		SubmittedAt: s.now(),
		Values:      doc.Snapshot(),
	}
	receipt, err := s.sink.Submit(ctx, submission)
	if err != nil {
		s.logger.Warn("submission failed",
			zap.String("form", formID),
			zap.String("submission", submission.ID),
			zap.Error(err),
		)
		return Receipt{}, fmt.Errorf("submit: %s: %w", formID, err)
	}
	s.logger.Info("submission accepted",
		zap.String("form", formID),
		zap.String("submission", receipt.ID),
		zap.String("sink", receipt.Sink),
	)
	return receipt, nil
}

// LogSink logs each submission and acknowledges it without storing anything.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink returns a sink writing to logger. A nil logger discards output.
func NewLogSink(logger *zap.Logger) *LogSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSink{logger: logger}
}

// Submit implements Sink.
func (l *LogSink) Submit(ctx context.Context, submission Submission) (Receipt, error) {
	if err := ctx.Err(); err != nil {
		return Receipt{}, err
	}
	l.logger.Info("form submitted",
		zap.String("form", submission.FormID),
		zap.String("submission", submission.ID),
		zap.Time("submittedAt", submission.SubmittedAt),
		zap.Any("values", submission.Values),
	)
	return Receipt{
		ID:       submission.ID,
		FormID:   submission.FormID,
		Sink:     "log",
		StoredAt: submission.SubmittedAt,
	}, nil
}
