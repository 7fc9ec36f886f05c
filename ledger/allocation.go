/*
allocation.go - Proportional cost split and its exact reversal

PURPOSE:
  Records one day: the day's cost is split across contributors in
  proportion to the eggs each brought, and every contributor's balance
  is charged their share. Undo reverses the most recently created day.

ALLOCATION:
  total_eggs = sum of positive counts
  total_cost = total_eggs * egg_price
  share      = eggs * total_cost / total_eggs

  Multiplying before dividing keeps the shares summing to total_cost
  exactly whenever egg_price is a terminating decimal.

  Per contributor:
    TotalEggs   += eggs
    TotalAmount += share
    Balance     -= share      (creates or grows a due)

REVERSAL:
  Undo replays each recorded line with the opposite sign. It never
  recomputes ratios from current totals and never clamps at zero.

  Only the header with the highest ID is undone. That is creation order,
  not date order: an entry back-dated after a later day is undone first.

EXAMPLE:
  A brings 3, B brings 7, price 10:
    total_eggs = 10, total_cost = 100
    A.Balance = -30, B.Balance = -70
  Undo:
    A.Balance = 0,   B.Balance = 0, header gone

ATOMICITY:
  Both operations run in one WithTx. A missing person anywhere in the
  loop rolls back every mutation already made.
*/
package ledger

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"
)

// =============================================================================
// ADD DAILY ENTRY
// =============================================================================

// AddDailyEntry records one day and charges every contributor their share.
func (l *Ledger) AddDailyEntry(ctx context.Context, in EntryInput) (*EntryResult, error) {
	var result *EntryResult

	err := l.update(ctx, "add_daily_entry", func(s Store) error {
		plan, err := planEntry(in)
		if err != nil {
			return err
		}

		existing, err := s.GetDailyEggByDate(ctx, plan.entry.Date)
		if err != nil {
			return err
		}
		if existing != nil {
			return &DuplicateDateError{Date: plan.entry.Date}
		}

		// Resolve everyone before the first write.
		people := make([]*Person, len(plan.lines))
		for i, line := range plan.lines {
			p, err := loadPerson(ctx, s, line.PersonID)
			if err != nil {
				return err
			}
			people[i] = p
		}

		entry := plan.entry
		if err := s.CreateDailyEgg(ctx, &entry); err != nil {
			return err
		}

		lines := make([]DailyEggPerson, len(plan.lines))
		for i, line := range plan.lines {
			p := people[i]
			p.charge(line.Eggs, line.Amount)
			if err := s.UpdatePerson(ctx, *p); err != nil {
				return err
			}

			line.DailyEggID = entry.ID
			if err := s.CreateLine(ctx, line); err != nil {
				return err
			}
			lines[i] = line
		}

		result = &EntryResult{Entry: entry, Lines: lines}
		return nil
	})
	if err != nil {
		return nil, err
	}

	l.observer.EggsRecorded(result.Entry.TotalEggs)
	l.logger.InfoContext(ctx, "daily entry recorded",
		"entry_id", result.Entry.ID,
		"date", result.Entry.Date.Format(DateLayout),
		"total_eggs", result.Entry.TotalEggs,
		"total_cost", result.Entry.TotalCost.String(),
		"contributors", len(result.Lines),
	)
	return result, nil
}

type entryPlan struct {
	entry DailyEgg
	lines []DailyEggPerson
}

// planEntry validates the input and computes every share. Pure function.
func planEntry(in EntryInput) (entryPlan, error) {
	if !in.EggPrice.IsPositive() {
		return entryPlan{}, &InvalidAmountError{Field: "egg_price", Value: in.EggPrice.String()}
	}

	ids := make([]PersonID, 0, len(in.Eggs))
	var totalEggs int64
	for id, eggs := range in.Eggs {
		if eggs <= 0 {
			continue
		}
		ids = append(ids, id)
		totalEggs += eggs
	}
	if totalEggs == 0 {
		return entryPlan{}, ErrEmptyEntry
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	totalCost := in.EggPrice.Mul(decimal.NewFromInt(totalEggs))
	lines := make([]DailyEggPerson, len(ids))
	for i, id := range ids {
		eggs := in.Eggs[id]
		lines[i] = DailyEggPerson{
			PersonID: id,
			Eggs:     eggs,
			Amount:   Share(eggs, totalEggs, totalCost),
		}
	}

	return entryPlan{
		entry: DailyEgg{
			Date:      Day(in.Date),
			EggPrice:  in.EggPrice,
			TotalEggs: totalEggs,
			TotalCost: totalCost,
		},
		lines: lines,
	}, nil
}

// Share returns eggs/totalEggs of totalCost.
func Share(eggs, totalEggs int64, totalCost decimal.Decimal) decimal.Decimal {
	if totalEggs == 0 {
		return decimal.Zero
	}
	return totalCost.Mul(decimal.NewFromInt(eggs)).Div(decimal.NewFromInt(totalEggs))
}

// =============================================================================
// UNDO LAST ENTRY
// =============================================================================

// UndoLastEntry reverses the most recently created daily entry and
// returns the header that was removed.
func (l *Ledger) UndoLastEntry(ctx context.Context) (*DailyEgg, error) {
	var undone *DailyEgg

	err := l.update(ctx, "undo_last_entry", func(s Store) error {
		last, err := s.LatestDailyEgg(ctx)
		if err != nil {
			return err
		}
		if last == nil {
			return ErrNoEntryToUndo
		}

		lines, err := s.Lines(ctx, last.ID)
		if err != nil {
			return err
		}
		for _, line := range lines {
			p, err := loadPerson(ctx, s, line.PersonID)
			if err != nil {
				return err
			}
			p.refund(line.Eggs, line.Amount)
			if err := s.UpdatePerson(ctx, *p); err != nil {
				return err
			}
		}

		if err := s.DeleteDailyEgg(ctx, last.ID); err != nil {
			return err
		}
		undone = last
		return nil
	})
	if err != nil {
		return nil, err
	}

	l.logger.InfoContext(ctx, "daily entry undone",
		"entry_id", undone.ID,
		"date", undone.Date.Format(DateLayout),
		"total_cost", undone.TotalCost.String(),
	)
	return undone, nil
}

// =============================================================================
// READS
// =============================================================================

// ListDailyEntries returns every header, newest date first.
func (l *Ledger) ListDailyEntries(ctx context.Context) ([]DailyEgg, error) {
	entries, err := l.store.ListDailyEggs(ctx)
	l.observe("list_daily_entries", err)
	return entries, err
}

// EntryLines returns the allocation lines of one entry.
func (l *Ledger) EntryLines(ctx context.Context, id EntryID) ([]DailyEggPerson, error) {
	lines, err := l.store.Lines(ctx, id)
	l.observe("entry_lines", err)
	return lines, err
}
