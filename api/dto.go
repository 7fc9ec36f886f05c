/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the ledger model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

MONEY:
  Amounts leave the ledger as decimal.Decimal and are rounded to cents
  before conversion to JSON numbers. Request amounts are converted back
  with decimal.NewFromFloat, which keeps the shortest decimal form.

VALIDATION:
  Validation is done by the ledger, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/egg-ledger/ledger"
)

// =============================================================================
// REQUEST/RESPONSE TYPES
// =============================================================================

// PersonDTO represents a person in API responses.
type PersonDTO struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	TotalEggs   int64   `json:"total_eggs"`
	TotalAmount float64 `json:"total_amount"`
	Balance     float64 `json:"balance"`
	Due         float64 `json:"due"`
	CreatedAt   string  `json:"created_at,omitempty"`
}

// PersonRequest is the body of create and rename.
type PersonRequest struct {
	Name string `json:"name"`
}

// AmountRequest carries a money amount (recharge, recharge split).
type AmountRequest struct {
	Amount float64 `json:"amount"`
}

// RechargeResponse reports the balance after a recharge.
type RechargeResponse struct {
	PersonID int64   `json:"person_id"`
	Amount   float64 `json:"amount"`
	Balance  float64 `json:"balance"`
}

// ClearDueResponse reports whether a due was forgiven.
type ClearDueResponse struct {
	Person  PersonDTO `json:"person"`
	Cleared bool      `json:"cleared"`
}

// ClearAllDuesResponse reports how many people had a due cleared.
type ClearAllDuesResponse struct {
	ClearedUsers int `json:"cleared_users"`
}

// HistoryEntryDTO is one line of a person's history.
type HistoryEntryDTO struct {
	DailyEggID int64   `json:"daily_egg_id"`
	Date       string  `json:"date"`
	Eggs       int64   `json:"eggs"`
	Amount     float64 `json:"amount"`
	EggPrice   float64 `json:"egg_price"`
}

// DailyEggRequest records one day. Keys of Eggs are person IDs.
type DailyEggRequest struct {
	Date     string           `json:"date"`
	EggPrice float64          `json:"egg_price"`
	Eggs     map[string]int64 `json:"eggs"`
}

// DailyEggDTO is a daily header with its allocation lines.
type DailyEggDTO struct {
	ID        int64     `json:"id"`
	Date      string    `json:"date"`
	EggPrice  float64   `json:"egg_price"`
	TotalEggs int64     `json:"total_eggs"`
	TotalCost float64   `json:"total_cost"`
	CreatedAt string    `json:"created_at,omitempty"`
	Lines     []LineDTO `json:"lines,omitempty"`
}

// LineDTO is one contributor's share of a day.
type LineDTO struct {
	PersonID int64   `json:"person_id"`
	Eggs     int64   `json:"eggs"`
	Amount   float64 `json:"amount"`
}

// SummaryDTO aggregates balances across everyone.
type SummaryDTO struct {
	TotalCredit float64 `json:"total_credit"`
	TotalDue    float64 `json:"total_due"`
	NetBalance  float64 `json:"net_balance"`
}

// ScenarioDTO describes a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// LoadScenarioRequest selects a scenario to load.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

// money rounds to cents and converts for JSON.
func money(d decimal.Decimal) float64 {
	f, _ := ledger.Round(d).Float64()
	return f
}

func toPersonDTO(p ledger.Person) PersonDTO {
	dto := PersonDTO{
		ID:          int64(p.ID),
		Name:        p.Name,
		TotalEggs:   p.TotalEggs,
		TotalAmount: money(p.TotalAmount),
		Balance:     money(p.Balance),
		Due:         money(p.Due()),
	}
	if !p.CreatedAt.IsZero() {
		dto.CreatedAt = p.CreatedAt.Format(time.RFC3339)
	}
	return dto
}

func toPersonDTOs(people []ledger.Person) []PersonDTO {
	dtos := make([]PersonDTO, len(people))
	for i, p := range people {
		dtos[i] = toPersonDTO(p)
	}
	return dtos
}

func toDailyEggDTO(e ledger.DailyEgg, lines []ledger.DailyEggPerson) DailyEggDTO {
	dto := DailyEggDTO{
		ID:        int64(e.ID),
		Date:      e.Date.Format(ledger.DateLayout),
		EggPrice:  money(e.EggPrice),
		TotalEggs: e.TotalEggs,
		TotalCost: money(e.TotalCost),
	}
	if !e.CreatedAt.IsZero() {
		dto.CreatedAt = e.CreatedAt.Format(time.RFC3339)
	}
	for _, l := range lines {
		dto.Lines = append(dto.Lines, LineDTO{
			PersonID: int64(l.PersonID),
			Eggs:     l.Eggs,
			Amount:   money(l.Amount),
		})
	}
	return dto
}

func toHistoryDTOs(history []ledger.HistoryEntry) []HistoryEntryDTO {
	dtos := make([]HistoryEntryDTO, len(history))
	for i, h := range history {
		dtos[i] = HistoryEntryDTO{
			DailyEggID: int64(h.DailyEggID),
			Date:       h.Date.Format(ledger.DateLayout),
			Eggs:       h.Eggs,
			Amount:     money(h.Amount),
			EggPrice:   money(h.EggPrice),
		}
	}
	return dtos
}

func toMoneyMap(m map[string]decimal.Decimal) map[string]float64 {
	out := make(map[string]float64, len(m))
	for k, v := range m {
		out[k] = money(v)
	}
	return out
}
