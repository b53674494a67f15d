package submit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"
)

// ErrSubmissionNotFound is returned by Get for unknown ids.
var ErrSubmissionNotFound = errors.New("submit: submission not found")

const keyPrefix = "submission/"

// BadgerConfig configures the embedded submission store.
type BadgerConfig struct {
	// Path is the database directory. Required unless InMemory is set.
	Path string
	// InMemory keeps everything in memory (tests, previews).
	InMemory bool
	// SyncWrites fsyncs every write.
	SyncWrites bool
	// Logger receives badger's internal log lines. Nil silences them.
	Logger *zap.Logger
}

// BadgerSink persists submissions as JSON keyed by form id and submission id.
type BadgerSink struct {
	db *badger.DB
}

type badgerLogger struct {
	logger *zap.SugaredLogger
}

func (l badgerLogger) Errorf(format string, args ...any)   { l.logger.Errorf(format, args...) }
func (l badgerLogger) Warningf(format string, args ...any) { l.logger.Warnf(format, args...) }
func (l badgerLogger) Infof(format string, args ...any)    { l.logger.Infof(format, args...) }
func (l badgerLogger) Debugf(format string, args ...any)   { l.logger.Debugf(format, args...) }

// OpenBadgerSink opens (or creates) the store described by cfg.
func OpenBadgerSink(cfg BadgerConfig) (*BadgerSink, error) {
	if !cfg.InMemory && strings.TrimSpace(cfg.Path) == "" {
		return nil, errors.New("submit: badger path is required for a persistent store")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0o750); err != nil {
			return nil, fmt.Errorf("submit: create badger directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites)
	if cfg.Logger != nil {
		opts = opts.WithLogger(badgerLogger{logger: cfg.Logger.Named("badger").Sugar()})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("submit: open badger: %w", err)
	}
	return &BadgerSink{db: db}, nil
}

// Close releases the database.
func (b *BadgerSink) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}

// Submit implements Sink.
func (b *BadgerSink) Submit(ctx context.Context, submission Submission) (Receipt, error) {
	if err := ctx.Err(); err != nil {
		return Receipt{}, err
	}
	if strings.TrimSpace(submission.FormID) == "" || strings.TrimSpace(submission.ID) == "" {
		return Receipt{}, errors.New("submit: submission needs a form id and an id")
	}
	payload, err := json.Marshal(submission)
	if err != nil {
		return Receipt{}, fmt.Errorf("submit: encode submission: %w", err)
	}
	err = b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(submissionKey(submission.FormID, submission.ID), payload)
	})
	if err != nil {
		return Receipt{}, fmt.Errorf("submit: store submission: %w", err)
	}
	return Receipt{
		ID:       submission.ID,
		FormID:   submission.FormID,
		Sink:     "badger",
		StoredAt: submission.SubmittedAt,
	}, nil
}

// Get loads one submission.
func (b *BadgerSink) Get(ctx context.Context, formID, id string) (Submission, error) {
	if err := ctx.Err(); err != nil {
		return Submission{}, err
	}
	var out Submission
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(submissionKey(formID, id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &out)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return Submission{}, fmt.Errorf("%w: %s/%s", ErrSubmissionNotFound, formID, id)
	}
	if err != nil {
		return Submission{}, fmt.Errorf("submit: load submission: %w", err)
	}
	return out, nil
}

// List returns every submission for formID ordered by submission time, then
// id.
func (b *BadgerSink) List(ctx context.Context, formID string) ([]Submission, error) {
	prefix := []byte(keyPrefix + formID + "/")
	var out []Submission
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var record Submission
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &record)
			}); err != nil {
				return fmt.Errorf("decode %s: %w", it.Item().Key(), err)
			}
			out = append(out, record)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("submit: list %s: %w", formID, err)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].SubmittedAt.Equal(out[j].SubmittedAt) {
			return out[i].SubmittedAt.Before(out[j].SubmittedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func submissionKey(formID, id string) []byte {
	return []byte(keyPrefix + formID + "/" + id)
}
