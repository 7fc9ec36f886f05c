/*
Package ledger provides the egg cooperative ledger engine.

PURPOSE:
  Tracks a signed balance per contributor, records one aggregate entry per
  calendar day, and apportions the day's cost across contributors in
  proportion to the eggs each one brought in.

KEY CONCEPTS IN THIS FILE (types.go):
  - Person: A contributor with running totals and a signed balance
  - DailyEgg: The header of one day's entry (price, total eggs, total cost)
  - DailyEggPerson: One contributor's allocation line for one day
  - HistoryEntry: A line joined with its header, for per-person history

BALANCE SIGN:
  Positive balance = credit held for the person.
  Negative balance = due, the amount the person owes.

DESIGN PRINCIPLES:
  1. Precision: Money is decimal.Decimal, never float64
  2. Exact reversal: Undo replays the recorded line amounts
  3. Atomicity: Every mutation runs inside one store transaction
  4. Plain IDs: Lines reference people and headers by ID, never by pointer

USAGE:
  l := ledger.New(store, ledger.WithLogger(logger))
  res, err := l.AddDailyEntry(ctx, ledger.EntryInput{
      Date:     ledger.NewDate(2025, time.March, 10),
      EggPrice: decimal.NewFromInt(10),
      Eggs:     map[ledger.PersonID]int64{alice.ID: 3, bob.ID: 7},
  })

SEE ALSO:
  - allocation.go: AddDailyEntry and UndoLastEntry
  - reporting.go: Due report, totals, recharge and clears
  - people.go: Person lifecycle and history
  - store.go: Persistence interfaces
*/
package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

// PersonID identifies a person. Assigned by the store.
type PersonID int64

// EntryID identifies a daily entry header. Assigned by the store in strictly
// increasing creation order and never reused.
type EntryID int64

// =============================================================================
// DATES
// =============================================================================

// DateLayout is the wire and storage format of an entry date.
const DateLayout = "2006-01-02"

// NewDate returns the calendar day at UTC midnight.
func NewDate(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Day truncates t to its calendar day in UTC.
func Day(t time.Time) time.Time {
	return NewDate(t.Year(), t.Month(), t.Day())
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, err
	}
	return Day(t), nil
}

// =============================================================================
// PERSON
// =============================================================================

// Person is a contributor to the cooperative.
type Person struct {
	ID   PersonID
	Name string

	// TotalEggs is every egg ever attributed to this person.
	TotalEggs int64

	// TotalAmount is the money ever attributed to this person. Informational,
	// it is not a balance.
	TotalAmount decimal.Decimal

	// Balance is positive for credit, negative for due.
	Balance decimal.Decimal

	CreatedAt time.Time
}

// Due returns the amount owed, or zero when the balance is not negative.
func (p Person) Due() decimal.Decimal {
	if p.Balance.IsNegative() {
		return p.Balance.Neg()
	}
	return decimal.Zero
}

// HasDue reports whether the person owes money.
func (p Person) HasDue() bool { return p.Balance.IsNegative() }

func (p *Person) charge(eggs int64, amount decimal.Decimal) {
	p.TotalEggs += eggs
	p.TotalAmount = p.TotalAmount.Add(amount)
	p.Balance = p.Balance.Sub(amount)
}

// refund is the exact inverse of charge.
func (p *Person) refund(eggs int64, amount decimal.Decimal) {
	p.TotalEggs -= eggs
	p.TotalAmount = p.TotalAmount.Sub(amount)
	p.Balance = p.Balance.Add(amount)
}

// =============================================================================
// DAILY ENTRY
// =============================================================================

// DailyEgg is the header of one day's entry. At most one exists per date.
type DailyEgg struct {
	ID        EntryID
	Date      time.Time
	EggPrice  decimal.Decimal
	TotalEggs int64
	TotalCost decimal.Decimal
	CreatedAt time.Time
}

// DailyEggPerson is one person's allocation line for one day.
// Owned by its header and deleted with it.
type DailyEggPerson struct {
	DailyEggID EntryID
	PersonID   PersonID
	Eggs       int64
	Amount     decimal.Decimal
}

// HistoryEntry is a line joined with its header.
type HistoryEntry struct {
	DailyEggID EntryID
	Date       time.Time
	Eggs       int64
	Amount     decimal.Decimal
	EggPrice   decimal.Decimal
}

// =============================================================================
// OPERATION INPUTS AND RESULTS
// =============================================================================

// EntryInput is the request to record one day.
type EntryInput struct {
	Date     time.Time
	EggPrice decimal.Decimal
	Eggs     map[PersonID]int64
}

// EntryResult is what AddDailyEntry committed.
type EntryResult struct {
	Entry DailyEgg
	Lines []DailyEggPerson
}

// TotalCost returns the day's cost rounded for presentation.
func (r EntryResult) TotalCost() decimal.Decimal { return Round(r.Entry.TotalCost) }

// ClearDueResult reports the outcome of ClearDue.
type ClearDueResult struct {
	Person  Person
	Cleared bool // false when the balance was already >= 0
}

// Summary aggregates balances across all people.
type Summary struct {
	TotalCredit decimal.Decimal
	TotalDue    decimal.Decimal
	NetBalance  decimal.Decimal
}

// Round rounds money to two decimal places for presentation.
func Round(d decimal.Decimal) decimal.Decimal { return d.Round(2) }
