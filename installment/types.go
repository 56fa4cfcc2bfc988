/*
Package installment implements the installment lifecycle and leftover-amount
reconciliation engine for statement-aligned credit-card installment plans.

KEY CONCEPTS:
  - Budget: a pre-funded pool of money; its leftover figure is a derived
    aggregate over the installments drawing on it, never hand-edited.
  - Card: a billing instrument with a fixed statement day (1-31), owned by a
    budget and issued by a bank.
  - Installment: a fixed-tenure monthly obligation against a card. Its start
    date is aligned to the card's statement day; it stays active while
    leftover tenure is positive and only ever transitions Active -> Inactive.

OWNERSHIP:
  Budget -> Card -> Installment is a strict tree, and every entity is scoped
  to an owner. All reads and writes take the owner id and refuse to resolve
  anything that belongs to someone else.

SEE ALSO:
  - calendar.go:   date alignment and tenure counting
  - calculator.go: price-per-month and leftover-amount math
  - service.go:    create/update/delete orchestration
  - sweep.go:      the daily re-aging job
*/
package installment

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// ENTITIES
// =============================================================================

type Bank struct {
	ID        int64
	OwnerID   string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Budget struct {
	ID             int64
	OwnerID        string
	Name           string
	InitialAmount  decimal.Decimal
	LeftoverAmount decimal.Decimal
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type Card struct {
	ID           int64
	OwnerID      string
	Name         string
	StatementDay int // day of month the billing cycle resets, 1-31
	BudgetID     int64
	BankID       int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Installment struct {
	ID             int64
	CardID         int64
	Name           string
	TotalAmount    decimal.Decimal
	Tenure         int
	LeftoverTenure int
	PricePerMonth  decimal.Decimal
	StartDate      time.Time
	EndDate        time.Time
	Active         bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// =============================================================================
// PROJECTIONS
// =============================================================================

// InstallmentRecord is the read model handed back to callers.
type InstallmentRecord struct {
	ID             int64           `json:"id"`
	Name           string          `json:"name"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	Tenure         int             `json:"tenure"`
	LeftoverTenure int             `json:"leftover_tenure"`
	PricePerMonth  decimal.Decimal `json:"price_per_month"`
	StartDate      string          `json:"start_date"`
	EndDate        string          `json:"end_date"`
	Active         bool            `json:"is_active"`
	CardID         int64           `json:"card_id"`
}

// ActiveInstallment is the slim projection the sweep iterates: the schedule
// fields plus the owning card's statement day and budget.
type ActiveInstallment struct {
	ID             int64
	Name           string
	EndDate        time.Time
	LeftoverTenure int
	PricePerMonth  decimal.Decimal
	StatementDay   int
	BudgetID       int64
}

// BankMonthlyTotal is one row of the per-bank monthly commitment summary.
type BankMonthlyTotal struct {
	BankName     string          `json:"bank_name"`
	TotalMonthly decimal.Decimal `json:"total_monthly"`
}

// DateFormat is the wire format for calendar dates.
const DateFormat = "2006-01-02"

// Record projects an installment into its response shape.
func (i *Installment) Record() *InstallmentRecord {
	return &InstallmentRecord{
		ID:             i.ID,
		Name:           i.Name,
		TotalAmount:    i.TotalAmount,
		Tenure:         i.Tenure,
		LeftoverTenure: i.LeftoverTenure,
		PricePerMonth:  i.PricePerMonth,
		StartDate:      i.StartDate.Format(DateFormat),
		EndDate:        i.EndDate.Format(DateFormat),
		Active:         i.Active,
		CardID:         i.CardID,
	}
}
