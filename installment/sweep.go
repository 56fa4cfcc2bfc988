/*
sweep.go - Daily re-aging of active installments

PURPOSE:
  Once a day, every active installment whose card's statement day equals
  today gets its leftover tenure recomputed from its stored end date, its
  activity flag refreshed, and its budget's leftover rewritten as
  price_per_month * new leftover tenure.

TIME ZONE:
  "Today" is resolved in one fixed zone (DefaultTimeZone, Asia/Singapore),
  a deployment constant rather than anything per-user.

BUDGET WRITE:
  Note the sweep writes a single-installment figure, not the
  cross-installment sum the lifecycle service uses. That asymmetry is
  inherited behavior, pinned by a test in sweep_test.go; revisit both
  sides together or not at all.

FAILURE ISOLATION:
  Installments maturing on the same day are only coincidentally related, so
  one item's persistence failure is logged and skipped, never aborting the
  pass. Re-running the sweep on the same day is harmless: leftover tenure is
  a pure function of (today, end date).
*/
package installment

import (
	"context"
	"log"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultTimeZone is the fixed reference zone for resolving "today".
const DefaultTimeZone = "Asia/Singapore"

// SweepStats summarizes one sweep pass.
type SweepStats struct {
	Checked int `json:"checked"`
	Matured int `json:"matured"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

// Sweep re-ages active installments on their statement date.
type Sweep struct {
	Installments InstallmentStore
	Budgets      BudgetStore
	Location     *time.Location

	// Now supplies the wall clock. Override in tests.
	Now func() time.Time
}

// NewSweep wires a sweep against the given stores in loc. A nil loc falls
// back to DefaultTimeZone.
func NewSweep(installments InstallmentStore, budgets BudgetStore, loc *time.Location) *Sweep {
	if loc == nil {
		loc, _ = time.LoadLocation(DefaultTimeZone)
	}
	return &Sweep{
		Installments: installments,
		Budgets:      budgets,
		Location:     loc,
		Now:          time.Now,
	}
}

// Run executes one sweep pass over all active installments.
func (s *Sweep) Run(ctx context.Context) (SweepStats, error) {
	var stats SweepStats

	active, err := s.Installments.ListActive(ctx)
	if err != nil {
		return stats, err
	}
	stats.Checked = len(active)

	now := s.Now().In(s.Location)
	today := Date(now.Year(), now.Month(), now.Day())

	for _, item := range active {
		statementDate := Date(today.Year(), today.Month(),
			ClampDay(today.Year(), today.Month(), item.StatementDay))
		if !today.Equal(statementDate) {
			stats.Skipped++
			continue
		}

		if err := s.age(ctx, item, today); err != nil {
			log.Printf("[Sweep] %q (id=%d): %v", item.Name, item.ID, err)
			stats.Failed++
			continue
		}
		stats.Matured++
	}

	return stats, nil
}

// age recomputes one installment's leftover tenure and pushes the
// single-installment figure onto its budget.
func (s *Sweep) age(ctx context.Context, item ActiveInstallment, today time.Time) error {
	leftoverTenure := LeftoverTenure(item.EndDate, today)

	log.Printf("[Sweep] re-aging %q: leftover tenure %d -> %d",
		item.Name, item.LeftoverTenure, leftoverTenure)

	if err := s.Installments.UpdateLeftoverTenure(ctx, item.ID, leftoverTenure, leftoverTenure > 0); err != nil {
		return err
	}

	leftover := item.PricePerMonth.Mul(decimal.NewFromInt(int64(leftoverTenure)))
	return s.Budgets.UpdateLeftoverAmount(ctx, item.BudgetID, leftover)
}
