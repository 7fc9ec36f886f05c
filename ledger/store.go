/*
store.go - Persistence interfaces for people, entries and allocation lines

PURPOSE:
  Defines the boundary between the ledger and the database. The ledger
  never issues queries itself; it reads and writes through these methods,
  always inside WithTx.

KEY INTERFACES:
  PersonStore: Person records and the person -> lines lookup
  EntryStore:  Daily headers and their allocation lines
  Store:       Both of the above
  TxStore:     Store plus WithTx for atomic multi-record writes

LOOKUP CONVENTIONS:
  Get* methods return (nil, nil) when the record does not exist.
  Uniqueness violations come back as *DuplicateNameError or
  *DuplicateDateError, whichever constraint fired.

CASCADE:
  DeleteDailyEgg deletes the header's lines first, then the header.
  Stores must not rely on a database-level cascade for this.

IMPLEMENTATIONS:
  - store/sqlite: SQLite with versioned migrations
  - ledger/store: In-memory, snapshot rollback (tests, dev)
*/
package ledger

import (
	"context"
	"time"
)

// PersonStore persists people.
type PersonStore interface {
	// CreatePerson inserts p and assigns p.ID and p.CreatedAt.
	CreatePerson(ctx context.Context, p *Person) error

	GetPerson(ctx context.Context, id PersonID) (*Person, error)
	GetPersonByName(ctx context.Context, name string) (*Person, error)

	// ListPeople returns everyone ordered by ID.
	ListPeople(ctx context.Context) ([]Person, error)

	// UpdatePerson overwrites name, totals and balance.
	UpdatePerson(ctx context.Context, p Person) error

	DeletePerson(ctx context.Context, id PersonID) error
	DeleteAllPeople(ctx context.Context) error

	// CountLines returns how many allocation lines reference the person.
	CountLines(ctx context.Context, id PersonID) (int, error)

	// History returns the person's lines joined with their headers,
	// newest date first.
	History(ctx context.Context, id PersonID) ([]HistoryEntry, error)
}

// EntryStore persists daily headers and allocation lines.
type EntryStore interface {
	// CreateDailyEgg inserts e and assigns e.ID and e.CreatedAt.
	CreateDailyEgg(ctx context.Context, e *DailyEgg) error

	GetDailyEggByDate(ctx context.Context, date time.Time) (*DailyEgg, error)

	// LatestDailyEgg returns the most recently created header (highest ID).
	LatestDailyEgg(ctx context.Context) (*DailyEgg, error)

	// ListDailyEggs returns all headers, newest date first.
	ListDailyEggs(ctx context.Context) ([]DailyEgg, error)

	CreateLine(ctx context.Context, line DailyEggPerson) error
	Lines(ctx context.Context, id EntryID) ([]DailyEggPerson, error)

	// DeleteDailyEgg deletes the header's lines, then the header.
	DeleteDailyEgg(ctx context.Context, id EntryID) error

	// DeleteAllDailyEggs deletes every line, then every header.
	DeleteAllDailyEggs(ctx context.Context) error
}

// Store is the full persistence surface used by the ledger.
type Store interface {
	PersonStore
	EntryStore
}

// TxStore wraps Store with transaction support.
type TxStore interface {
	Store

	// WithTx executes fn within a transaction.
	// If fn returns error, every write made through the Store it was given
	// is rolled back. If fn returns nil, the transaction is committed.
	WithTx(ctx context.Context, fn func(Store) error) error
}
