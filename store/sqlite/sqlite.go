/*
Package sqlite provides a SQLite-backed implementation of ledger.TxStore.

PURPOSE:
  Persists people, daily headers and allocation lines. Every ledger
  mutation runs through WithTx, so a failed operation leaves no partial
  writes behind.

KEY TABLES:
  people:           One row per contributor, with running totals and balance
  daily_eggs:       One header per calendar day (UNIQUE date)
  daily_egg_people: Allocation lines, keyed by (daily_egg_id, person_id)

STORAGE FORMATS:
  Money:      decimal strings (TEXT), never REAL
  Dates:      YYYY-MM-DD
  Timestamps: RFC3339 UTC

SCHEMA:
  Versioned migrations under migrations/, embedded and applied with
  golang-migrate on New(). The CLI exposes up/down/version.

CONCURRENCY:
  The pool is capped at one connection: SQLite has a single writer, and
  ":memory:" databases exist per connection. WithTx additionally holds a
  mutex so transactions never interleave.

USAGE:
  store, err := sqlite.New("./data/eggs.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  l := ledger.New(store)

SEE ALSO:
  - ledger/store.go: Interface definitions
  - ledger/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/warp/egg-ledger/ledger"
)

// Store implements ledger.TxStore using SQLite.
type Store struct {
	queries
	db *sql.DB
	mu sync.Mutex
}

var _ ledger.TxStore = (*Store)(nil)

// New opens the database at dbPath and applies pending migrations.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	store := &Store{queries: queries{db: db}, db: db}
	if err := store.MigrateUp(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// WithTx executes a function within a database transaction.
func (s *Store) WithTx(ctx context.Context, fn func(ledger.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(queries{db: sqlTx}); err != nil {
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// =============================================================================
// QUERIES - Shared by the pool and by open transactions
// =============================================================================

type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// queries implements ledger.Store over either *sql.DB or *sql.Tx.
type queries struct {
	db dbtx
}

type scanner interface {
	Scan(dest ...any) error
}

// =============================================================================
// PERSON STORE
// =============================================================================

const personColumns = `id, name, total_eggs, total_amount, balance, created_at`

func (q queries) CreatePerson(ctx context.Context, p *ledger.Person) error {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}

	res, err := q.db.ExecContext(ctx, `
		INSERT INTO people (name, total_eggs, total_amount, balance, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, p.Name, p.TotalEggs, p.TotalAmount, p.Balance, p.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return translateError(err, p.Name, time.Time{})
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read person id: %w", err)
	}
	p.ID = ledger.PersonID(id)
	return nil
}

func (q queries) GetPerson(ctx context.Context, id ledger.PersonID) (*ledger.Person, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+personColumns+` FROM people WHERE id = ?`, id)
	return scanPersonRow(row)
}

func (q queries) GetPersonByName(ctx context.Context, name string) (*ledger.Person, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+personColumns+` FROM people WHERE name = ?`, name)
	return scanPersonRow(row)
}

func (q queries) ListPeople(ctx context.Context) ([]ledger.Person, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT `+personColumns+` FROM people ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list people: %w", err)
	}
	defer rows.Close()

	var people []ledger.Person
	for rows.Next() {
		p, err := scanPerson(rows)
		if err != nil {
			return nil, err
		}
		people = append(people, *p)
	}
	return people, rows.Err()
}

func (q queries) UpdatePerson(ctx context.Context, p ledger.Person) error {
	res, err := q.db.ExecContext(ctx, `
		UPDATE people
		SET name = ?, total_eggs = ?, total_amount = ?, balance = ?
		WHERE id = ?
	`, p.Name, p.TotalEggs, p.TotalAmount, p.Balance, p.ID)
	if err != nil {
		return translateError(err, p.Name, time.Time{})
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update person: %w", err)
	}
	if n == 0 {
		return &ledger.PersonNotFoundError{ID: p.ID}
	}
	return nil
}

func (q queries) DeletePerson(ctx context.Context, id ledger.PersonID) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM people WHERE id = ?`, id)
	if err != nil {
		return translateError(err, "", time.Time{})
	}
	return nil
}

func (q queries) DeleteAllPeople(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM people`)
	if err != nil {
		return translateError(err, "", time.Time{})
	}
	return nil
}

func (q queries) CountLines(ctx context.Context, id ledger.PersonID) (int, error) {
	var n int
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM daily_egg_people WHERE person_id = ?`, id).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count lines: %w", err)
	}
	return n, nil
}

func (q queries) History(ctx context.Context, id ledger.PersonID) ([]ledger.HistoryEntry, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT d.id, d.date, l.eggs, l.amount, d.egg_price
		FROM daily_egg_people l
		JOIN daily_eggs d ON d.id = l.daily_egg_id
		WHERE l.person_id = ?
		ORDER BY d.date DESC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	defer rows.Close()

	var history []ledger.HistoryEntry
	for rows.Next() {
		var (
			h    ledger.HistoryEntry
			date string
		)
		if err := rows.Scan(&h.DailyEggID, &date, &h.Eggs, &h.Amount, &h.EggPrice); err != nil {
			return nil, fmt.Errorf("failed to scan history: %w", err)
		}
		if h.Date, err = ledger.ParseDate(date); err != nil {
			return nil, fmt.Errorf("invalid stored date %q: %w", date, err)
		}
		history = append(history, h)
	}
	return history, rows.Err()
}

// =============================================================================
// ENTRY STORE
// =============================================================================

const entryColumns = `id, date, egg_price, total_eggs, total_cost, created_at`

func (q queries) CreateDailyEgg(ctx context.Context, e *ledger.DailyEgg) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	res, err := q.db.ExecContext(ctx, `
		INSERT INTO daily_eggs (date, egg_price, total_eggs, total_cost, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, e.Date.Format(ledger.DateLayout), e.EggPrice, e.TotalEggs, e.TotalCost,
		e.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return translateError(err, "", e.Date)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read entry id: %w", err)
	}
	e.ID = ledger.EntryID(id)
	return nil
}

func (q queries) GetDailyEggByDate(ctx context.Context, date time.Time) (*ledger.DailyEgg, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+entryColumns+` FROM daily_eggs WHERE date = ?`, date.Format(ledger.DateLayout))
	return scanEntryRow(row)
}

func (q queries) LatestDailyEgg(ctx context.Context) (*ledger.DailyEgg, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+entryColumns+` FROM daily_eggs ORDER BY id DESC LIMIT 1`)
	return scanEntryRow(row)
}

func (q queries) ListDailyEggs(ctx context.Context) ([]ledger.DailyEgg, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+entryColumns+` FROM daily_eggs ORDER BY date DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list daily entries: %w", err)
	}
	defer rows.Close()

	var entries []ledger.DailyEgg
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

func (q queries) CreateLine(ctx context.Context, line ledger.DailyEggPerson) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO daily_egg_people (daily_egg_id, person_id, eggs, amount)
		VALUES (?, ?, ?, ?)
	`, line.DailyEggID, line.PersonID, line.Eggs, line.Amount)
	if err != nil {
		return translateError(err, "", time.Time{})
	}
	return nil
}

func (q queries) Lines(ctx context.Context, id ledger.EntryID) ([]ledger.DailyEggPerson, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT daily_egg_id, person_id, eggs, amount
		FROM daily_egg_people
		WHERE daily_egg_id = ?
		ORDER BY person_id ASC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load lines: %w", err)
	}
	defer rows.Close()

	var lines []ledger.DailyEggPerson
	for rows.Next() {
		var l ledger.DailyEggPerson
		if err := rows.Scan(&l.DailyEggID, &l.PersonID, &l.Eggs, &l.Amount); err != nil {
			return nil, fmt.Errorf("failed to scan line: %w", err)
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

func (q queries) DeleteDailyEgg(ctx context.Context, id ledger.EntryID) error {
	if _, err := q.db.ExecContext(ctx,
		`DELETE FROM daily_egg_people WHERE daily_egg_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete lines: %w", err)
	}
	if _, err := q.db.ExecContext(ctx, `DELETE FROM daily_eggs WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete daily entry: %w", err)
	}
	return nil
}

func (q queries) DeleteAllDailyEggs(ctx context.Context) error {
	if _, err := q.db.ExecContext(ctx, `DELETE FROM daily_egg_people`); err != nil {
		return fmt.Errorf("failed to delete lines: %w", err)
	}
	if _, err := q.db.ExecContext(ctx, `DELETE FROM daily_eggs`); err != nil {
		return fmt.Errorf("failed to delete daily entries: %w", err)
	}
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

func scanPersonRow(row *sql.Row) (*ledger.Person, error) {
	p, err := scanPerson(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return p, err
}

func scanPerson(s scanner) (*ledger.Person, error) {
	var (
		p         ledger.Person
		createdAt string
	)
	err := s.Scan(&p.ID, &p.Name, &p.TotalEggs, &p.TotalAmount, &p.Balance, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan person: %w", err)
	}
	p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &p, nil
}

func scanEntryRow(row *sql.Row) (*ledger.DailyEgg, error) {
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return e, err
}

func scanEntry(s scanner) (*ledger.DailyEgg, error) {
	var (
		e               ledger.DailyEgg
		date, createdAt string
		price, cost     decimal.Decimal
	)
	err := s.Scan(&e.ID, &date, &price, &e.TotalEggs, &cost, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan daily entry: %w", err)
	}
	if e.Date, err = ledger.ParseDate(date); err != nil {
		return nil, fmt.Errorf("invalid stored date %q: %w", date, err)
	}
	e.EggPrice, e.TotalCost = price, cost
	e.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &e, nil
}

// translateError maps constraint failures to ledger errors. name and date
// describe the row being written, for the error message.
func translateError(err error, name string, date time.Time) error {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return fmt.Errorf("database error: %w", err)
	}

	switch sqliteErr.ExtendedCode {
	case sqlite3.ErrConstraintUnique:
		switch {
		case strings.Contains(err.Error(), "people.name"):
			return &ledger.DuplicateNameError{Name: name}
		case strings.Contains(err.Error(), "daily_eggs.date"):
			return &ledger.DuplicateDateError{Date: date}
		}
	case sqlite3.ErrConstraintForeignKey:
		return fmt.Errorf("%w: %v", ledger.ErrIntegrityViolation, err)
	}
	return fmt.Errorf("database error: %w", err)
}
