package ledger

import (
	"context"

	"github.com/shopspring/decimal"
)

// =============================================================================
// REPORTS - Read current balances only, never replay history
// =============================================================================

// DueReport maps the name of everyone with a negative balance to the
// amount they owe, rounded. People at or above zero are omitted.
func (l *Ledger) DueReport(ctx context.Context) (map[string]decimal.Decimal, error) {
	people, err := l.store.ListPeople(ctx)
	l.observe("due_report", err)
	if err != nil {
		return nil, err
	}

	dues := make(map[string]decimal.Decimal)
	for _, p := range people {
		if p.HasDue() {
			dues[p.Name] = Round(p.Due())
		}
	}
	return dues, nil
}

// BalanceSummary totals credit and due across everyone.
func (l *Ledger) BalanceSummary(ctx context.Context) (Summary, error) {
	people, err := l.store.ListPeople(ctx)
	l.observe("balance_summary", err)
	if err != nil {
		return Summary{}, err
	}
	return Summarize(people), nil
}

// Summarize sums at full precision and rounds each total once.
func Summarize(people []Person) Summary {
	credit, due := decimal.Zero, decimal.Zero
	for _, p := range people {
		switch {
		case p.Balance.IsPositive():
			credit = credit.Add(p.Balance)
		case p.Balance.IsNegative():
			due = due.Add(p.Balance.Neg())
		}
	}
	return Summary{
		TotalCredit: Round(credit),
		TotalDue:    Round(due),
		NetBalance:  Round(credit.Sub(due)),
	}
}

// RechargeSplit previews how amount would be shared by lifetime eggs.
// Nothing is written. Returns an empty map when no eggs were ever recorded.
func (l *Ledger) RechargeSplit(ctx context.Context, amount decimal.Decimal) (map[string]decimal.Decimal, error) {
	if !amount.IsPositive() {
		err := &InvalidAmountError{Field: "amount", Value: amount.String()}
		l.observe("recharge_split", err)
		return nil, err
	}

	people, err := l.store.ListPeople(ctx)
	l.observe("recharge_split", err)
	if err != nil {
		return nil, err
	}

	var totalEggs int64
	for _, p := range people {
		totalEggs += p.TotalEggs
	}

	split := make(map[string]decimal.Decimal)
	if totalEggs == 0 {
		return split, nil
	}
	for _, p := range people {
		split[p.Name] = Round(Share(p.TotalEggs, totalEggs, amount))
	}
	return split, nil
}

// =============================================================================
// BALANCE ADJUSTMENTS
// =============================================================================

// Recharge adds credit to a person and returns the new balance.
func (l *Ledger) Recharge(ctx context.Context, id PersonID, amount decimal.Decimal) (decimal.Decimal, error) {
	var balance decimal.Decimal

	err := l.update(ctx, "recharge_person", func(s Store) error {
		if !amount.IsPositive() {
			return &InvalidAmountError{Field: "amount", Value: amount.String()}
		}
		p, err := loadPerson(ctx, s, id)
		if err != nil {
			return err
		}
		p.Balance = p.Balance.Add(amount)
		if err := s.UpdatePerson(ctx, *p); err != nil {
			return err
		}
		balance = p.Balance
		return nil
	})
	if err != nil {
		return decimal.Zero, err
	}

	l.logger.InfoContext(ctx, "person recharged",
		"person_id", id, "amount", amount.String(), "balance", balance.String())
	return balance, nil
}

// ClearDue forgives a negative balance. A balance at or above zero is
// left alone and reported with Cleared=false. Totals are never touched.
func (l *Ledger) ClearDue(ctx context.Context, id PersonID) (ClearDueResult, error) {
	var res ClearDueResult

	err := l.update(ctx, "clear_due", func(s Store) error {
		p, err := loadPerson(ctx, s, id)
		if err != nil {
			return err
		}
		if !p.HasDue() {
			res = ClearDueResult{Person: *p}
			return nil
		}
		p.Balance = decimal.Zero
		if err := s.UpdatePerson(ctx, *p); err != nil {
			return err
		}
		res = ClearDueResult{Person: *p, Cleared: true}
		return nil
	})
	if err != nil {
		return ClearDueResult{}, err
	}

	if res.Cleared {
		l.logger.InfoContext(ctx, "due cleared", "person_id", id)
	}
	return res, nil
}

// ClearAllDues forgives every negative balance and returns how many
// people changed.
func (l *Ledger) ClearAllDues(ctx context.Context) (int, error) {
	cleared := 0

	err := l.update(ctx, "clear_all_dues", func(s Store) error {
		cleared = 0
		people, err := s.ListPeople(ctx)
		if err != nil {
			return err
		}
		for _, p := range people {
			if !p.HasDue() {
				continue
			}
			p.Balance = decimal.Zero
			if err := s.UpdatePerson(ctx, p); err != nil {
				return err
			}
			cleared++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	l.logger.InfoContext(ctx, "all dues cleared", "cleared_users", cleared)
	return cleared, nil
}

// ClearPersonBalance sets a person's balance to zero whatever its sign.
func (l *Ledger) ClearPersonBalance(ctx context.Context, id PersonID) (*Person, error) {
	var person *Person

	err := l.update(ctx, "clear_person_balance", func(s Store) error {
		p, err := loadPerson(ctx, s, id)
		if err != nil {
			return err
		}
		p.Balance = decimal.Zero
		if err := s.UpdatePerson(ctx, *p); err != nil {
			return err
		}
		person = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	l.logger.InfoContext(ctx, "balance cleared", "person_id", id)
	return person, nil
}
