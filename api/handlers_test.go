/*
handlers_test.go - HTTP tests for the egg ledger API

Tests for:
- Person lifecycle over HTTP
- Daily entries, undo and reports
- Error to status mapping
- Scenario loading
*/
package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/egg-ledger/ledger"
	"github.com/warp/egg-ledger/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestServer(t *testing.T) *httptest.Server {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	h := NewHandler(ledger.New(store), nil)
	srv := httptest.NewServer(NewRouter(h, Options{
		AllowedOrigins: []string{"http://localhost:5173"},
		Logger:         nil,
	}))
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, srv *httptest.Server, method, path string, body any) *http.Response {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, srv.URL+path, r)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func createPerson(t *testing.T, srv *httptest.Server, name string) PersonDTO {
	resp := do(t, srv, http.MethodPost, "/api/people", PersonRequest{Name: name})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decode[PersonDTO](t, resp)
}

// =============================================================================
// PEOPLE
// =============================================================================

func TestPeople_CRUD(t *testing.T) {
	srv := newTestServer(t)

	alice := createPerson(t, srv, "Alice")
	assert.Equal(t, "Alice", alice.Name)
	assert.Zero(t, alice.Balance)

	resp := do(t, srv, http.MethodPut, fmt.Sprintf("/api/people/%d", alice.ID), PersonRequest{Name: "Alicia"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Alicia", decode[PersonDTO](t, resp).Name)

	resp = do(t, srv, http.MethodGet, "/api/people", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	people := decode[[]PersonDTO](t, resp)
	require.Len(t, people, 1)

	resp = do(t, srv, http.MethodDelete, fmt.Sprintf("/api/people/%d", alice.ID), nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = do(t, srv, http.MethodGet, fmt.Sprintf("/api/people/%d", alice.ID), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestPeople_Errors(t *testing.T) {
	srv := newTestServer(t)
	createPerson(t, srv, "Alice")

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		status int
	}{
		{"duplicate name", http.MethodPost, "/api/people", PersonRequest{Name: "Alice"}, http.StatusConflict},
		{"blank name", http.MethodPost, "/api/people", PersonRequest{Name: "  "}, http.StatusBadRequest},
		{"unknown field", http.MethodPost, "/api/people", map[string]string{"nom": "x"}, http.StatusBadRequest},
		{"non-numeric id", http.MethodGet, "/api/people/abc", nil, http.StatusBadRequest},
		{"missing person", http.MethodGet, "/api/people/999", nil, http.StatusNotFound},
		{"recharge zero", http.MethodPost, "/api/people/1/recharge", AmountRequest{Amount: 0}, http.StatusBadRequest},
		{"history of missing", http.MethodGet, "/api/people/999/history", nil, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := do(t, srv, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, resp.StatusCode)
			errResp := decode[ErrorResponse](t, resp)
			assert.NotEmpty(t, errResp.Error)
		})
	}
}

// =============================================================================
// DAILY ENTRIES
// =============================================================================

func TestDailyEggs_SplitUndoAndReports(t *testing.T) {
	// GIVEN: Alice and Bob
	srv := newTestServer(t)
	alice := createPerson(t, srv, "Alice")
	bob := createPerson(t, srv, "Bob")

	// WHEN: Alice brings 3 and Bob 7 at price 10
	resp := do(t, srv, http.MethodPost, "/api/daily-eggs", DailyEggRequest{
		Date:     "2025-03-10",
		EggPrice: 10,
		Eggs: map[string]int64{
			fmt.Sprint(alice.ID): 3,
			fmt.Sprint(bob.ID):   7,
		},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	entry := decode[DailyEggDTO](t, resp)
	assert.Equal(t, int64(10), entry.TotalEggs)
	assert.Equal(t, 100.0, entry.TotalCost)
	require.Len(t, entry.Lines, 2)

	// THEN: Dues are 30 and 70
	resp = do(t, srv, http.MethodGet, "/api/reports/dues", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	dues := decode[map[string]float64](t, resp)
	assert.Equal(t, map[string]float64{"Alice": 30, "Bob": 70}, dues)

	resp = do(t, srv, http.MethodGet, "/api/reports/summary", nil)
	summary := decode[SummaryDTO](t, resp)
	assert.Equal(t, SummaryDTO{TotalCredit: 0, TotalDue: 100, NetBalance: -100}, summary)

	resp = do(t, srv, http.MethodGet, fmt.Sprintf("/api/people/%d/history", bob.ID), nil)
	history := decode[[]HistoryEntryDTO](t, resp)
	require.Len(t, history, 1)
	assert.Equal(t, "2025-03-10", history[0].Date)
	assert.Equal(t, 70.0, history[0].Amount)

	// Same date again is a conflict.
	resp = do(t, srv, http.MethodPost, "/api/daily-eggs", DailyEggRequest{
		Date: "2025-03-10", EggPrice: 1, Eggs: map[string]int64{fmt.Sprint(alice.ID): 1},
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// Deleting someone with history is a conflict.
	resp = do(t, srv, http.MethodDelete, fmt.Sprintf("/api/people/%d", alice.ID), nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// Undo restores everyone.
	resp = do(t, srv, http.MethodPost, "/api/daily-eggs/undo", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "2025-03-10", decode[DailyEggDTO](t, resp).Date)

	resp = do(t, srv, http.MethodGet, "/api/reports/dues", nil)
	assert.Empty(t, decode[map[string]float64](t, resp))

	// Nothing left to undo.
	resp = do(t, srv, http.MethodPost, "/api/daily-eggs/undo", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDailyEggs_BadInput(t *testing.T) {
	srv := newTestServer(t)
	alice := createPerson(t, srv, "Alice")

	tests := []struct {
		name   string
		req    DailyEggRequest
		status int
	}{
		{"bad date", DailyEggRequest{Date: "10/03/2025", EggPrice: 1, Eggs: map[string]int64{fmt.Sprint(alice.ID): 1}}, http.StatusBadRequest},
		{"bad person key", DailyEggRequest{Date: "2025-03-10", EggPrice: 1, Eggs: map[string]int64{"alice": 1}}, http.StatusBadRequest},
		{"zero price", DailyEggRequest{Date: "2025-03-10", EggPrice: 0, Eggs: map[string]int64{fmt.Sprint(alice.ID): 1}}, http.StatusBadRequest},
		{"no eggs", DailyEggRequest{Date: "2025-03-10", EggPrice: 1}, http.StatusBadRequest},
		{"unknown person", DailyEggRequest{Date: "2025-03-10", EggPrice: 1, Eggs: map[string]int64{"999": 1}}, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := do(t, srv, http.MethodPost, "/api/daily-eggs", tt.req)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}

	resp := do(t, srv, http.MethodGet, "/api/daily-eggs", nil)
	assert.Empty(t, decode[[]DailyEggDTO](t, resp))
}

// =============================================================================
// BALANCES
// =============================================================================

func TestBalances_RechargeClearAndSplit(t *testing.T) {
	srv := newTestServer(t)
	alice := createPerson(t, srv, "Alice")
	bob := createPerson(t, srv, "Bob")

	resp := do(t, srv, http.MethodPost, fmt.Sprintf("/api/people/%d/recharge", alice.ID), AmountRequest{Amount: 50})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 50.0, decode[RechargeResponse](t, resp).Balance)

	resp = do(t, srv, http.MethodPost, "/api/daily-eggs", DailyEggRequest{
		Date: "2025-03-10", EggPrice: 10,
		Eggs: map[string]int64{fmt.Sprint(alice.ID): 3, fmt.Sprint(bob.ID): 1},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	// Alice has 20 credit: clear-due is a no-op.
	resp = do(t, srv, http.MethodPost, fmt.Sprintf("/api/people/%d/clear-due", alice.ID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	clear := decode[ClearDueResponse](t, resp)
	assert.False(t, clear.Cleared)
	assert.Equal(t, 20.0, clear.Person.Balance)

	resp = do(t, srv, http.MethodPost, "/api/recharge-split", AmountRequest{Amount: 100})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, map[string]float64{"Alice": 75, "Bob": 25}, decode[map[string]float64](t, resp))

	resp = do(t, srv, http.MethodPost, "/api/dues/clear", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, decode[ClearAllDuesResponse](t, resp).ClearedUsers)

	resp = do(t, srv, http.MethodPost, fmt.Sprintf("/api/people/%d/clear-balance", alice.ID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Zero(t, decode[PersonDTO](t, resp).Balance)
}

// =============================================================================
// ADMIN & SCENARIOS
// =============================================================================

func TestScenarios_LoadAndClear(t *testing.T) {
	srv := newTestServer(t)

	resp := do(t, srv, http.MethodGet, "/api/scenarios", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]ScenarioDTO](t, resp), len(scenarios))

	for _, s := range scenarios {
		t.Run(s.ID, func(t *testing.T) {
			resp := do(t, srv, http.MethodPost, "/api/scenarios/load", LoadScenarioRequest{ScenarioID: s.ID})
			require.Equal(t, http.StatusOK, resp.StatusCode)

			resp = do(t, srv, http.MethodGet, "/api/scenarios/current", nil)
			assert.Equal(t, s.ID, decode[ScenarioDTO](t, resp).ID)
		})
	}

	resp = do(t, srv, http.MethodPost, "/api/scenarios/load", LoadScenarioRequest{ScenarioID: "nope"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = do(t, srv, http.MethodDelete, "/api/admin/database", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = do(t, srv, http.MethodGet, "/api/people", nil)
	assert.Empty(t, decode[[]PersonDTO](t, resp))
}

func TestScenario_BasicSplitBalances(t *testing.T) {
	srv := newTestServer(t)

	resp := do(t, srv, http.MethodPost, "/api/scenarios/load", LoadScenarioRequest{ScenarioID: "basic-split"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = do(t, srv, http.MethodGet, "/api/reports/dues", nil)
	assert.Equal(t, map[string]float64{"Alice": 30, "Bob": 70}, decode[map[string]float64](t, resp))
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)
	resp := do(t, srv, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("Content-Type"))
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{&ledger.PersonNotFoundError{ID: 1}, http.StatusNotFound},
		{&ledger.DuplicateNameError{Name: "A"}, http.StatusConflict},
		{&ledger.DuplicateDateError{}, http.StatusConflict},
		{&ledger.PersonHasHistoryError{ID: 1, Lines: 2}, http.StatusConflict},
		{ledger.ErrEmptyName, http.StatusBadRequest},
		{&ledger.InvalidAmountError{Field: "amount", Value: "0"}, http.StatusBadRequest},
		{ledger.ErrNoEntryToUndo, http.StatusBadRequest},
		{errors.New("disk full"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.status, statusFor(tt.err), "%v", tt.err)
	}
}
