/*
handlers.go - HTTP handlers for the egg ledger API

PURPOSE:
  Thin adapters between JSON and the ledger. Each handler decodes the
  request, calls exactly one ledger operation and encodes the result.
  No business rules live here.

ERROR MAPPING:
  Ledger errors are translated by writeLedgerError (errors.go).
  Malformed bodies and path parameters are 400 before the ledger is called.

SEE ALSO:
  - server.go: Route definitions
  - dto.go: Request/response types
  - scenarios.go: Demo data loaders
*/
package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/warp/egg-ledger/ledger"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Ledger *ledger.Ledger
	logger *slog.Logger

	// Track currently loaded scenario
	mu              sync.Mutex
	currentScenario string
}

// NewHandler creates a new handler over the given ledger.
func NewHandler(l *ledger.Ledger, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{Ledger: l, logger: logger.With("component", "api")}
}

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// PERSON HANDLERS
// =============================================================================

// ListPeople returns everyone ordered by ID.
func (h *Handler) ListPeople(w http.ResponseWriter, r *http.Request) {
	people, err := h.Ledger.ListPeople(r.Context())
	if err != nil {
		writeLedgerError(w, "Failed to list people", err)
		return
	}
	writeJSON(w, http.StatusOK, toPersonDTOs(people))
}

// CreatePerson adds a person with zero balance.
func (h *Handler) CreatePerson(w http.ResponseWriter, r *http.Request) {
	var req PersonRequest
	if !decodeBody(w, r, &req) {
		return
	}

	p, err := h.Ledger.AddPerson(r.Context(), req.Name)
	if err != nil {
		writeLedgerError(w, "Failed to create person", err)
		return
	}
	writeJSON(w, http.StatusCreated, toPersonDTO(*p))
}

// GetPerson returns a single person.
func (h *Handler) GetPerson(w http.ResponseWriter, r *http.Request) {
	id, ok := personID(w, r)
	if !ok {
		return
	}

	p, err := h.Ledger.GetPerson(r.Context(), id)
	if err != nil {
		writeLedgerError(w, "Person not found", err)
		return
	}
	writeJSON(w, http.StatusOK, toPersonDTO(*p))
}

// UpdatePerson renames a person.
func (h *Handler) UpdatePerson(w http.ResponseWriter, r *http.Request) {
	id, ok := personID(w, r)
	if !ok {
		return
	}
	var req PersonRequest
	if !decodeBody(w, r, &req) {
		return
	}

	p, err := h.Ledger.UpdatePerson(r.Context(), id, req.Name)
	if err != nil {
		writeLedgerError(w, "Failed to update person", err)
		return
	}
	writeJSON(w, http.StatusOK, toPersonDTO(*p))
}

// DeletePerson removes a person without history.
func (h *Handler) DeletePerson(w http.ResponseWriter, r *http.Request) {
	id, ok := personID(w, r)
	if !ok {
		return
	}

	if err := h.Ledger.DeletePerson(r.Context(), id); err != nil {
		writeLedgerError(w, "Failed to delete person", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PersonHistory returns a person's lines, newest first.
func (h *Handler) PersonHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := personID(w, r)
	if !ok {
		return
	}

	history, err := h.Ledger.PersonHistory(r.Context(), id)
	if err != nil {
		writeLedgerError(w, "Failed to load history", err)
		return
	}
	writeJSON(w, http.StatusOK, toHistoryDTOs(history))
}

// =============================================================================
// BALANCE HANDLERS
// =============================================================================

// RechargePerson adds credit.
func (h *Handler) RechargePerson(w http.ResponseWriter, r *http.Request) {
	id, ok := personID(w, r)
	if !ok {
		return
	}
	var req AmountRequest
	if !decodeBody(w, r, &req) {
		return
	}

	amount := decimal.NewFromFloat(req.Amount)
	balance, err := h.Ledger.Recharge(r.Context(), id, amount)
	if err != nil {
		writeLedgerError(w, "Failed to recharge", err)
		return
	}
	writeJSON(w, http.StatusOK, RechargeResponse{
		PersonID: int64(id),
		Amount:   money(amount),
		Balance:  money(balance),
	})
}

// ClearPersonBalance zeroes a balance regardless of sign.
func (h *Handler) ClearPersonBalance(w http.ResponseWriter, r *http.Request) {
	id, ok := personID(w, r)
	if !ok {
		return
	}

	p, err := h.Ledger.ClearPersonBalance(r.Context(), id)
	if err != nil {
		writeLedgerError(w, "Failed to clear balance", err)
		return
	}
	writeJSON(w, http.StatusOK, toPersonDTO(*p))
}

// ClearPersonDue forgives a negative balance.
func (h *Handler) ClearPersonDue(w http.ResponseWriter, r *http.Request) {
	id, ok := personID(w, r)
	if !ok {
		return
	}

	res, err := h.Ledger.ClearDue(r.Context(), id)
	if err != nil {
		writeLedgerError(w, "Failed to clear due", err)
		return
	}
	writeJSON(w, http.StatusOK, ClearDueResponse{Person: toPersonDTO(res.Person), Cleared: res.Cleared})
}

// ClearAllDues forgives every negative balance.
func (h *Handler) ClearAllDues(w http.ResponseWriter, r *http.Request) {
	n, err := h.Ledger.ClearAllDues(r.Context())
	if err != nil {
		writeLedgerError(w, "Failed to clear dues", err)
		return
	}
	writeJSON(w, http.StatusOK, ClearAllDuesResponse{ClearedUsers: n})
}

// =============================================================================
// DAILY ENTRY HANDLERS
// =============================================================================

// ListDailyEggs returns every day with its lines, newest date first.
func (h *Handler) ListDailyEggs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	entries, err := h.Ledger.ListDailyEntries(ctx)
	if err != nil {
		writeLedgerError(w, "Failed to list daily entries", err)
		return
	}

	dtos := make([]DailyEggDTO, len(entries))
	for i, e := range entries {
		lines, err := h.Ledger.EntryLines(ctx, e.ID)
		if err != nil {
			writeLedgerError(w, "Failed to load entry lines", err)
			return
		}
		dtos[i] = toDailyEggDTO(e, lines)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// AddDailyEgg records one day and charges contributors.
func (h *Handler) AddDailyEgg(w http.ResponseWriter, r *http.Request) {
	var req DailyEggRequest
	if !decodeBody(w, r, &req) {
		return
	}

	date, err := ledger.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
		return
	}

	eggs := make(map[ledger.PersonID]int64, len(req.Eggs))
	for key, n := range req.Eggs {
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid person id in eggs", fmt.Errorf("%q: %w", key, err))
			return
		}
		eggs[ledger.PersonID(id)] = n
	}

	res, err := h.Ledger.AddDailyEntry(r.Context(), ledger.EntryInput{
		Date:     date,
		EggPrice: decimal.NewFromFloat(req.EggPrice),
		Eggs:     eggs,
	})
	if err != nil {
		writeLedgerError(w, "Failed to add daily entry", err)
		return
	}
	writeJSON(w, http.StatusCreated, toDailyEggDTO(res.Entry, res.Lines))
}

// UndoDailyEgg reverses the most recently created day.
func (h *Handler) UndoDailyEgg(w http.ResponseWriter, r *http.Request) {
	undone, err := h.Ledger.UndoLastEntry(r.Context())
	if err != nil {
		writeLedgerError(w, "Failed to undo daily entry", err)
		return
	}
	writeJSON(w, http.StatusOK, toDailyEggDTO(*undone, nil))
}

// ClearDailyEggs deletes all daily history. Balances are kept.
func (h *Handler) ClearDailyEggs(w http.ResponseWriter, r *http.Request) {
	if err := h.Ledger.ClearDailyHistory(r.Context()); err != nil {
		writeLedgerError(w, "Failed to clear daily history", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// REPORT HANDLERS
// =============================================================================

// DueReport returns name -> amount owed.
func (h *Handler) DueReport(w http.ResponseWriter, r *http.Request) {
	dues, err := h.Ledger.DueReport(r.Context())
	if err != nil {
		writeLedgerError(w, "Failed to build due report", err)
		return
	}
	writeJSON(w, http.StatusOK, toMoneyMap(dues))
}

// BalanceSummary returns total credit, total due and net balance.
func (h *Handler) BalanceSummary(w http.ResponseWriter, r *http.Request) {
	sum, err := h.Ledger.BalanceSummary(r.Context())
	if err != nil {
		writeLedgerError(w, "Failed to build summary", err)
		return
	}
	writeJSON(w, http.StatusOK, SummaryDTO{
		TotalCredit: money(sum.TotalCredit),
		TotalDue:    money(sum.TotalDue),
		NetBalance:  money(sum.NetBalance),
	})
}

// RechargeSplit previews an amount shared by lifetime eggs.
func (h *Handler) RechargeSplit(w http.ResponseWriter, r *http.Request) {
	var req AmountRequest
	if !decodeBody(w, r, &req) {
		return
	}

	split, err := h.Ledger.RechargeSplit(r.Context(), decimal.NewFromFloat(req.Amount))
	if err != nil {
		writeLedgerError(w, "Failed to split recharge", err)
		return
	}
	writeJSON(w, http.StatusOK, toMoneyMap(split))
}

// =============================================================================
// ADMIN HANDLERS
// =============================================================================

// ClearDatabase deletes every person and entry.
func (h *Handler) ClearDatabase(w http.ResponseWriter, r *http.Request) {
	if err := h.Ledger.ClearDatabase(r.Context()); err != nil {
		writeLedgerError(w, "Failed to clear database", err)
		return
	}
	h.setCurrentScenario("")
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// HELPERS
// =============================================================================

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	return true
}

func personID(w http.ResponseWriter, r *http.Request) (ledger.PersonID, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "Invalid person id", fmt.Errorf("%q is not a positive integer", raw))
		return 0, false
	}
	return ledger.PersonID(id), true
}
