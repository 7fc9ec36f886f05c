/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:
  Provides pre-built scenarios that populate the ledger with realistic
  data for demos. Each scenario creates people, records some days and
  applies recharges, all through the ledger API.

AVAILABLE SCENARIOS:
  basic-split:    Two people, one day, 3:7 split at price 10
  prepaid-credit: A recharge that covers a later charge
  busy-week:      Five people, a week of entries, mixed credit and dues

HOW SCENARIOS WORK:
  1. Clear the database
  2. Create people
  3. Record daily entries
  4. Apply recharges and clears

USAGE VIA API:
  POST /api/scenarios/load
  {"scenario_id": "busy-week"}

NOTE:
  Loading a scenario clears the database. Only use in development/demo
  environments.
*/
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/egg-ledger/ledger"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "basic-split",
		Name:        "Basic Split",
		Description: "Alice brings 3 eggs, Bob brings 7, at 10 per egg",
	},
	{
		ID:          "prepaid-credit",
		Name:        "Prepaid Credit",
		Description: "Alice recharges 50, then is charged 30 and keeps 20 credit",
	},
	{
		ID:          "busy-week",
		Name:        "Busy Week",
		Description: "Five contributors over seven days with recharges and a cleared due",
	},
}

var scenarioLoaders = map[string]func(ctx context.Context, l *ledger.Ledger) error{
	"basic-split":    loadBasicSplitScenario,
	"prepaid-credit": loadPrepaidCreditScenario,
	"busy-week":      loadBusyWeekScenario,
}

// ListScenarios returns all available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	current := h.currentScenario
	h.mu.Unlock()

	for _, s := range scenarios {
		if s.ID == current {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, nil)
}

// LoadScenario clears the database and loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if !decodeBody(w, r, &req) {
		return
	}

	load, ok := scenarioLoaders[req.ScenarioID]
	if !ok {
		writeError(w, http.StatusBadRequest, "Unknown scenario", fmt.Errorf("scenario %q does not exist", req.ScenarioID))
		return
	}

	ctx := r.Context()
	if err := h.Ledger.ClearDatabase(ctx); err != nil {
		writeLedgerError(w, "Failed to clear database", err)
		return
	}
	h.setCurrentScenario("")

	if err := load(ctx, h.Ledger); err != nil {
		h.logger.ErrorContext(ctx, "scenario load failed", "scenario", req.ScenarioID, "error", err)
		writeLedgerError(w, "Failed to load scenario", err)
		return
	}
	h.setCurrentScenario(req.ScenarioID)
	h.logger.InfoContext(ctx, "scenario loaded", "scenario", req.ScenarioID)

	people, err := h.Ledger.ListPeople(ctx)
	if err != nil {
		writeLedgerError(w, "Failed to list people", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"scenario": req.ScenarioID,
		"people":   toPersonDTOs(people),
	})
}

func (h *Handler) setCurrentScenario(id string) {
	h.mu.Lock()
	h.currentScenario = id
	h.mu.Unlock()
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

// scenarioDay anchors demo dates to the current week.
func scenarioDay(offset int) time.Time {
	return ledger.Day(time.Now().AddDate(0, 0, offset))
}

func addPeople(ctx context.Context, l *ledger.Ledger, names ...string) (map[string]ledger.PersonID, error) {
	ids := make(map[string]ledger.PersonID, len(names))
	for _, name := range names {
		p, err := l.AddPerson(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("add %s: %w", name, err)
		}
		ids[name] = p.ID
	}
	return ids, nil
}

func loadBasicSplitScenario(ctx context.Context, l *ledger.Ledger) error {
	ids, err := addPeople(ctx, l, "Alice", "Bob")
	if err != nil {
		return err
	}

	_, err = l.AddDailyEntry(ctx, ledger.EntryInput{
		Date:     scenarioDay(0),
		EggPrice: decimal.NewFromInt(10),
		Eggs:     map[ledger.PersonID]int64{ids["Alice"]: 3, ids["Bob"]: 7},
	})
	return err
}

func loadPrepaidCreditScenario(ctx context.Context, l *ledger.Ledger) error {
	ids, err := addPeople(ctx, l, "Alice")
	if err != nil {
		return err
	}

	if _, err := l.Recharge(ctx, ids["Alice"], decimal.NewFromInt(50)); err != nil {
		return err
	}
	_, err = l.AddDailyEntry(ctx, ledger.EntryInput{
		Date:     scenarioDay(0),
		EggPrice: decimal.NewFromInt(10),
		Eggs:     map[ledger.PersonID]int64{ids["Alice"]: 3},
	})
	return err
}

func loadBusyWeekScenario(ctx context.Context, l *ledger.Ledger) error {
	names := []string{"Alice", "Bob", "Carol", "Dave", "Erin"}
	ids, err := addPeople(ctx, l, names...)
	if err != nil {
		return err
	}

	// Rows are days, oldest first; columns follow names.
	week := [][]int64{
		{2, 4, 0, 1, 3},
		{3, 0, 2, 2, 0},
		{0, 5, 1, 0, 2},
		{4, 1, 0, 3, 1},
		{1, 2, 3, 0, 0},
		{0, 0, 4, 2, 2},
		{2, 3, 1, 1, 1},
	}
	prices := []string{"0.25", "0.25", "0.30", "0.30", "0.28", "0.28", "0.32"}

	for day, counts := range week {
		eggs := make(map[ledger.PersonID]int64, len(names))
		for i, n := range counts {
			eggs[ids[names[i]]] = n
		}
		_, err := l.AddDailyEntry(ctx, ledger.EntryInput{
			Date:     scenarioDay(day - len(week) + 1),
			EggPrice: decimal.RequireFromString(prices[day]),
			Eggs:     eggs,
		})
		if err != nil {
			return err
		}
	}

	if _, err := l.Recharge(ctx, ids["Alice"], decimal.NewFromInt(5)); err != nil {
		return err
	}
	if _, err := l.Recharge(ctx, ids["Carol"], decimal.NewFromInt(2)); err != nil {
		return err
	}
	_, err = l.ClearDue(ctx, ids["Dave"])
	return err
}
