package ledger

import (
	"context"
	"io"
	"log/slog"
)

// Observer receives the outcome of every ledger operation.
// metrics.Collector is the production implementation.
type Observer interface {
	Operation(name string, err error)
	EggsRecorded(eggs int64)
}

type nopObserver struct{}

func (nopObserver) Operation(string, error) {}
func (nopObserver) EggsRecorded(int64)      {}

// Ledger is the service every transport talks to. It validates input,
// runs each mutation inside one store transaction and logs what committed.
type Ledger struct {
	store    TxStore
	logger   *slog.Logger
	observer Observer
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithLogger sets the structured logger. Defaults to a discard logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithObserver sets the operation observer.
func WithObserver(o Observer) Option {
	return func(l *Ledger) {
		if o != nil {
			l.observer = o
		}
	}
}

// New creates a ledger over the given store.
func New(store TxStore, opts ...Option) *Ledger {
	l := &Ledger{
		store:    store,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		observer: nopObserver{},
	}
	for _, opt := range opts {
		opt(l)
	}
	l.logger = l.logger.With("component", "ledger")
	return l
}

// update runs fn in a transaction and reports the outcome under op.
func (l *Ledger) update(ctx context.Context, op string, fn func(Store) error) error {
	err := l.store.WithTx(ctx, fn)
	l.observe(op, err)
	return err
}

func (l *Ledger) observe(op string, err error) {
	l.observer.Operation(op, err)
	if err != nil && !IsClientError(err) {
		l.logger.Error("ledger operation failed", "operation", op, "error", err)
	}
}

// loadPerson returns the person or a *PersonNotFoundError.
func loadPerson(ctx context.Context, s Store, id PersonID) (*Person, error) {
	p, err := s.GetPerson(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, &PersonNotFoundError{ID: id}
	}
	return p, nil
}
