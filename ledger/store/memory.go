// Package store provides in-memory ledger.TxStore implementations.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/warp/egg-ledger/ledger"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// Memory is a ledger.TxStore held entirely in maps. WithTx snapshots the
// whole state and restores it when the callback fails.
type Memory struct {
	mu    sync.RWMutex
	state *state
}

var _ ledger.TxStore = (*Memory)(nil)

// NewMemory returns an empty store.
func NewMemory() *Memory {
	return &Memory{state: newState()}
}

// WithTx executes fn within a transaction.
// For memory store, this is simulated with a snapshot + rollback on error.
func (m *Memory) WithTx(ctx context.Context, fn func(ledger.Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := m.state.clone()
	if err := fn(m.state); err != nil {
		m.state = snapshot
		return err
	}
	return nil
}

func (m *Memory) CreatePerson(ctx context.Context, p *ledger.Person) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.CreatePerson(ctx, p)
}

func (m *Memory) GetPerson(ctx context.Context, id ledger.PersonID) (*ledger.Person, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.GetPerson(ctx, id)
}

func (m *Memory) GetPersonByName(ctx context.Context, name string) (*ledger.Person, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.GetPersonByName(ctx, name)
}

func (m *Memory) ListPeople(ctx context.Context) ([]ledger.Person, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.ListPeople(ctx)
}

func (m *Memory) UpdatePerson(ctx context.Context, p ledger.Person) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.UpdatePerson(ctx, p)
}

func (m *Memory) DeletePerson(ctx context.Context, id ledger.PersonID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.DeletePerson(ctx, id)
}

func (m *Memory) DeleteAllPeople(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.DeleteAllPeople(ctx)
}

func (m *Memory) CountLines(ctx context.Context, id ledger.PersonID) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.CountLines(ctx, id)
}

func (m *Memory) History(ctx context.Context, id ledger.PersonID) ([]ledger.HistoryEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.History(ctx, id)
}

func (m *Memory) CreateDailyEgg(ctx context.Context, e *ledger.DailyEgg) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.CreateDailyEgg(ctx, e)
}

func (m *Memory) GetDailyEggByDate(ctx context.Context, date time.Time) (*ledger.DailyEgg, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.GetDailyEggByDate(ctx, date)
}

func (m *Memory) LatestDailyEgg(ctx context.Context) (*ledger.DailyEgg, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.LatestDailyEgg(ctx)
}

func (m *Memory) ListDailyEggs(ctx context.Context) ([]ledger.DailyEgg, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.ListDailyEggs(ctx)
}

func (m *Memory) CreateLine(ctx context.Context, line ledger.DailyEggPerson) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.CreateLine(ctx, line)
}

func (m *Memory) Lines(ctx context.Context, id ledger.EntryID) ([]ledger.DailyEggPerson, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.Lines(ctx, id)
}

func (m *Memory) DeleteDailyEgg(ctx context.Context, id ledger.EntryID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.DeleteDailyEgg(ctx, id)
}

func (m *Memory) DeleteAllDailyEggs(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.DeleteAllDailyEggs(ctx)
}

// =============================================================================
// STATE - Unlocked data; the transactional view handed to WithTx callbacks
// =============================================================================

type state struct {
	people  map[ledger.PersonID]ledger.Person
	entries map[ledger.EntryID]ledger.DailyEgg
	lines   map[ledger.EntryID][]ledger.DailyEggPerson

	// person -> entries that carry a line for that person
	byPerson map[ledger.PersonID]map[ledger.EntryID]bool

	nextPersonID ledger.PersonID
	nextEntryID  ledger.EntryID
}

func newState() *state {
	return &state{
		people:       make(map[ledger.PersonID]ledger.Person),
		entries:      make(map[ledger.EntryID]ledger.DailyEgg),
		lines:        make(map[ledger.EntryID][]ledger.DailyEggPerson),
		byPerson:     make(map[ledger.PersonID]map[ledger.EntryID]bool),
		nextPersonID: 1,
		nextEntryID:  1,
	}
}

func (s *state) clone() *state {
	c := newState()
	for k, v := range s.people {
		c.people[k] = v
	}
	for k, v := range s.entries {
		c.entries[k] = v
	}
	for k, v := range s.lines {
		c.lines[k] = append([]ledger.DailyEggPerson(nil), v...)
	}
	for k, v := range s.byPerson {
		set := make(map[ledger.EntryID]bool, len(v))
		for id := range v {
			set[id] = true
		}
		c.byPerson[k] = set
	}
	c.nextPersonID = s.nextPersonID
	c.nextEntryID = s.nextEntryID
	return c
}

func (s *state) CreatePerson(_ context.Context, p *ledger.Person) error {
	if s.nameTaken(p.Name, 0) {
		return &ledger.DuplicateNameError{Name: p.Name}
	}
	p.ID = s.nextPersonID
	s.nextPersonID++
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	s.people[p.ID] = *p
	return nil
}

func (s *state) GetPerson(_ context.Context, id ledger.PersonID) (*ledger.Person, error) {
	p, ok := s.people[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (s *state) GetPersonByName(_ context.Context, name string) (*ledger.Person, error) {
	for _, p := range s.people {
		if p.Name == name {
			return &p, nil
		}
	}
	return nil, nil
}

func (s *state) ListPeople(_ context.Context) ([]ledger.Person, error) {
	people := make([]ledger.Person, 0, len(s.people))
	for _, p := range s.people {
		people = append(people, p)
	}
	sort.Slice(people, func(i, j int) bool { return people[i].ID < people[j].ID })
	return people, nil
}

func (s *state) UpdatePerson(_ context.Context, p ledger.Person) error {
	existing, ok := s.people[p.ID]
	if !ok {
		return &ledger.PersonNotFoundError{ID: p.ID}
	}
	if s.nameTaken(p.Name, p.ID) {
		return &ledger.DuplicateNameError{Name: p.Name}
	}
	p.CreatedAt = existing.CreatedAt
	s.people[p.ID] = p
	return nil
}

// DeletePerson does not check history; the ledger does.
func (s *state) DeletePerson(_ context.Context, id ledger.PersonID) error {
	delete(s.people, id)
	return nil
}

func (s *state) DeleteAllPeople(_ context.Context) error {
	s.people = make(map[ledger.PersonID]ledger.Person)
	return nil
}

func (s *state) CountLines(_ context.Context, id ledger.PersonID) (int, error) {
	return len(s.byPerson[id]), nil
}

func (s *state) History(_ context.Context, id ledger.PersonID) ([]ledger.HistoryEntry, error) {
	var history []ledger.HistoryEntry
	for entryID := range s.byPerson[id] {
		entry := s.entries[entryID]
		for _, line := range s.lines[entryID] {
			if line.PersonID != id {
				continue
			}
			history = append(history, ledger.HistoryEntry{
				DailyEggID: entryID,
				Date:       entry.Date,
				Eggs:       line.Eggs,
				Amount:     line.Amount,
				EggPrice:   entry.EggPrice,
			})
		}
	}
	sort.Slice(history, func(i, j int) bool { return history[i].Date.After(history[j].Date) })
	return history, nil
}

func (s *state) CreateDailyEgg(ctx context.Context, e *ledger.DailyEgg) error {
	if existing, _ := s.GetDailyEggByDate(ctx, e.Date); existing != nil {
		return &ledger.DuplicateDateError{Date: e.Date}
	}
	e.ID = s.nextEntryID
	s.nextEntryID++
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	s.entries[e.ID] = *e
	return nil
}

func (s *state) GetDailyEggByDate(_ context.Context, date time.Time) (*ledger.DailyEgg, error) {
	day := ledger.Day(date)
	for _, e := range s.entries {
		if e.Date.Equal(day) {
			return &e, nil
		}
	}
	return nil, nil
}

func (s *state) LatestDailyEgg(_ context.Context) (*ledger.DailyEgg, error) {
	var latest *ledger.DailyEgg
	for _, e := range s.entries {
		if latest == nil || e.ID > latest.ID {
			e := e
			latest = &e
		}
	}
	return latest, nil
}

func (s *state) ListDailyEggs(_ context.Context) ([]ledger.DailyEgg, error) {
	entries := make([]ledger.DailyEgg, 0, len(s.entries))
	for _, e := range s.entries {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Date.After(entries[j].Date) })
	return entries, nil
}

func (s *state) CreateLine(_ context.Context, line ledger.DailyEggPerson) error {
	if _, ok := s.entries[line.DailyEggID]; !ok {
		return ledger.ErrNotFound
	}
	if _, ok := s.people[line.PersonID]; !ok {
		return &ledger.PersonNotFoundError{ID: line.PersonID}
	}
	s.lines[line.DailyEggID] = append(s.lines[line.DailyEggID], line)
	if s.byPerson[line.PersonID] == nil {
		s.byPerson[line.PersonID] = make(map[ledger.EntryID]bool)
	}
	s.byPerson[line.PersonID][line.DailyEggID] = true
	return nil
}

func (s *state) Lines(_ context.Context, id ledger.EntryID) ([]ledger.DailyEggPerson, error) {
	return append([]ledger.DailyEggPerson(nil), s.lines[id]...), nil
}

func (s *state) DeleteDailyEgg(_ context.Context, id ledger.EntryID) error {
	for _, line := range s.lines[id] {
		delete(s.byPerson[line.PersonID], id)
		if len(s.byPerson[line.PersonID]) == 0 {
			delete(s.byPerson, line.PersonID)
		}
	}
	delete(s.lines, id)
	delete(s.entries, id)
	return nil
}

func (s *state) DeleteAllDailyEggs(_ context.Context) error {
	s.lines = make(map[ledger.EntryID][]ledger.DailyEggPerson)
	s.byPerson = make(map[ledger.PersonID]map[ledger.EntryID]bool)
	s.entries = make(map[ledger.EntryID]ledger.DailyEgg)
	return nil
}

func (s *state) nameTaken(name string, except ledger.PersonID) bool {
	for id, p := range s.people {
		if id != except && p.Name == name {
			return true
		}
	}
	return false
}
