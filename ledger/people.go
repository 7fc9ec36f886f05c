package ledger

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// PERSON LIFECYCLE
// =============================================================================

// AddPerson creates a person with zero totals and zero balance.
func (l *Ledger) AddPerson(ctx context.Context, name string) (*Person, error) {
	name = strings.TrimSpace(name)
	var person *Person

	err := l.update(ctx, "add_person", func(s Store) error {
		if name == "" {
			return ErrEmptyName
		}
		existing, err := s.GetPersonByName(ctx, name)
		if err != nil {
			return err
		}
		if existing != nil {
			return &DuplicateNameError{Name: name}
		}

		p := &Person{Name: name, TotalAmount: decimal.Zero, Balance: decimal.Zero}
		if err := s.CreatePerson(ctx, p); err != nil {
			return err
		}
		person = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	l.logger.InfoContext(ctx, "person added", "person_id", person.ID, "name", person.Name)
	return person, nil
}

// ListPeople returns everyone ordered by ID.
func (l *Ledger) ListPeople(ctx context.Context) ([]Person, error) {
	people, err := l.store.ListPeople(ctx)
	l.observe("list_people", err)
	return people, err
}

// GetPerson returns one person or a *PersonNotFoundError.
func (l *Ledger) GetPerson(ctx context.Context, id PersonID) (*Person, error) {
	p, err := loadPerson(ctx, l.store, id)
	l.observe("get_person", err)
	return p, err
}

// UpdatePerson renames a person in place.
//
// The new name is not checked against other people here. A collision is
// still rejected by the store's unique-name constraint at commit.
func (l *Ledger) UpdatePerson(ctx context.Context, id PersonID, name string) (*Person, error) {
	name = strings.TrimSpace(name)
	var person *Person

	err := l.update(ctx, "update_person", func(s Store) error {
		if name == "" {
			return ErrEmptyName
		}
		p, err := loadPerson(ctx, s, id)
		if err != nil {
			return err
		}
		p.Name = name
		if err := s.UpdatePerson(ctx, *p); err != nil {
			return err
		}
		person = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	l.logger.InfoContext(ctx, "person renamed", "person_id", id, "name", name)
	return person, nil
}

// DeletePerson removes a person who has no allocation history.
func (l *Ledger) DeletePerson(ctx context.Context, id PersonID) error {
	err := l.update(ctx, "delete_person", func(s Store) error {
		if _, err := loadPerson(ctx, s, id); err != nil {
			return err
		}
		n, err := s.CountLines(ctx, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return &PersonHasHistoryError{ID: id, Lines: n}
		}
		return s.DeletePerson(ctx, id)
	})
	if err != nil {
		return err
	}

	l.logger.InfoContext(ctx, "person deleted", "person_id", id)
	return nil
}

// PersonHistory returns the person's lines, newest date first, with
// amounts rounded.
func (l *Ledger) PersonHistory(ctx context.Context, id PersonID) ([]HistoryEntry, error) {
	if _, err := loadPerson(ctx, l.store, id); err != nil {
		l.observe("person_history", err)
		return nil, err
	}

	history, err := l.store.History(ctx, id)
	l.observe("person_history", err)
	if err != nil {
		return nil, err
	}
	for i := range history {
		history[i].Amount = Round(history[i].Amount)
	}
	return history, nil
}

// =============================================================================
// RESETS
// =============================================================================

// ClearDailyHistory deletes every line and header. People keep their
// totals and balances, so their aggregates no longer match history.
func (l *Ledger) ClearDailyHistory(ctx context.Context) error {
	err := l.update(ctx, "clear_daily_history", func(s Store) error {
		return s.DeleteAllDailyEggs(ctx)
	})
	if err != nil {
		return err
	}

	l.logger.WarnContext(ctx, "daily history cleared")
	return nil
}

// ClearDatabase deletes every line, header and person.
func (l *Ledger) ClearDatabase(ctx context.Context) error {
	err := l.update(ctx, "clear_database", func(s Store) error {
		if err := s.DeleteAllDailyEggs(ctx); err != nil {
			return err
		}
		return s.DeleteAllPeople(ctx)
	})
	if err != nil {
		return err
	}

	l.logger.WarnContext(ctx, "database cleared")
	return nil
}
