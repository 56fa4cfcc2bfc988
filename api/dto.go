/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication, decoupling the internal
  entities from the external contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/installment-engine/installment"
	"github.com/warp/installment-engine/store/sqlite"
)

// parseDate parses the wire date format used across the API.
func parseDate(s string) (time.Time, error) {
	return time.Parse(installment.DateFormat, s)
}

// =============================================================================
// BANKS
// =============================================================================

type BankDTO struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at,omitempty"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

type BankRequest struct {
	Name string `json:"name"`
}

// =============================================================================
// BUDGETS
// =============================================================================

type BudgetDTO struct {
	ID             int64           `json:"id"`
	Name           string          `json:"name"`
	InitialAmount  decimal.Decimal `json:"initial_amount"`
	LeftoverAmount decimal.Decimal `json:"leftover_amount"`
	CreatedAt      string          `json:"created_at,omitempty"`
	UpdatedAt      string          `json:"updated_at,omitempty"`
}

type BudgetRequest struct {
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
}

// =============================================================================
// CARDS
// =============================================================================

type CardDTO struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	StatementDay int    `json:"statement_day"`
	BudgetID     int64  `json:"budget_id"`
	BankID       int64  `json:"bank_id"`
	CreatedAt    string `json:"created_at,omitempty"`
	UpdatedAt    string `json:"updated_at,omitempty"`
}

type CardRequest struct {
	Name         string `json:"name"`
	StatementDay int    `json:"statement_day"`
	BudgetID     int64  `json:"budget_id"`
	BankID       int64  `json:"bank_id"`
}

// =============================================================================
// INSTALLMENTS
// =============================================================================

// InstallmentRequest is shared by create and update; CardID is ignored on
// update (the card reference is immutable there).
type InstallmentRequest struct {
	CardID      int64           `json:"card_id"`
	Name        string          `json:"name"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Tenure      int             `json:"tenure"`
	StartDate   string          `json:"start_date"` // "2006-01-02"
}

// SweepRunDTO is one scheduler execution record.
type SweepRunDTO struct {
	ID          string `json:"id"`
	RunDate     string `json:"run_date"`
	Status      string `json:"status"`
	Checked     int    `json:"checked"`
	Matured     int    `json:"matured"`
	Failed      int    `json:"failed"`
	Error       string `json:"error,omitempty"`
	StartedAt   string `json:"started_at"`
	CompletedAt string `json:"completed_at,omitempty"`
}

// =============================================================================
// MAPPERS
// =============================================================================

const timestampFormat = "2006-01-02T15:04:05Z07:00"

func toBankDTO(b *installment.Bank) BankDTO {
	return BankDTO{
		ID:        b.ID,
		Name:      b.Name,
		CreatedAt: b.CreatedAt.Format(timestampFormat),
		UpdatedAt: b.UpdatedAt.Format(timestampFormat),
	}
}

func toBudgetDTO(b *installment.Budget) BudgetDTO {
	return BudgetDTO{
		ID:             b.ID,
		Name:           b.Name,
		InitialAmount:  b.InitialAmount,
		LeftoverAmount: b.LeftoverAmount,
		CreatedAt:      b.CreatedAt.Format(timestampFormat),
		UpdatedAt:      b.UpdatedAt.Format(timestampFormat),
	}
}

func toCardDTO(c *installment.Card) CardDTO {
	return CardDTO{
		ID:           c.ID,
		Name:         c.Name,
		StatementDay: c.StatementDay,
		BudgetID:     c.BudgetID,
		BankID:       c.BankID,
		CreatedAt:    c.CreatedAt.Format(timestampFormat),
		UpdatedAt:    c.UpdatedAt.Format(timestampFormat),
	}
}

func toSweepRunDTO(r sqlite.SweepRun) SweepRunDTO {
	dto := SweepRunDTO{
		ID:        r.ID,
		RunDate:   r.RunDate.Format(installment.DateFormat),
		Status:    r.Status,
		Checked:   r.Checked,
		Matured:   r.Matured,
		Failed:    r.Failed,
		Error:     r.Error,
		StartedAt: r.StartedAt.Format(timestampFormat),
	}
	if r.CompletedAt != nil {
		dto.CompletedAt = r.CompletedAt.Format(timestampFormat)
	}
	return dto
}
