/*
service.go - Installment lifecycle orchestration

PURPOSE:
  Coordinates Calendar Math, the money calculator, and the stores for every
  installment mutation. The flow for create and update is identical:

    align start date to the card's statement day
    -> end date = aligned start + tenure months
    -> leftover tenure relative to today
    -> active = leftover tenure > 0
    -> price per month = total / tenure (2dp, half up)
    -> persist installment
    -> recompute the owning budget's leftover from the cross-installment
       obligation sum and write it back

  Update always re-runs the budget recomputation even when nothing numeric
  changed, because tenure aging may have shifted the other installments'
  contribution to the sum since the last write.

  Delete performs a hard delete with a post-delete existence check. It does
  NOT recompute the owning budget's leftover; the next create/update/sweep
  touching that budget refreshes it.

STATE MACHINE:
  Active (leftover tenure > 0) -> Inactive (leftover tenure <= 0), forward
  only, driven by elapsed time or by an update that shortens the schedule.
  Re-activation means creating a new installment.

DEPENDENCIES:
  All stores are injected explicitly. Now is injectable for tests and
  defaults to wall-clock time in the service's zone.
*/
package installment

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// CreateInput carries the already-validated fields for a new installment.
type CreateInput struct {
	CardID      int64
	Name        string
	TotalAmount decimal.Decimal
	Tenure      int
	StartDate   time.Time
}

// UpdateInput carries the already-validated fields for an update. The card
// reference itself is not changeable; the existing card's statement day is
// reused.
type UpdateInput struct {
	Name        string
	TotalAmount decimal.Decimal
	Tenure      int
	StartDate   time.Time
}

// Service orchestrates the installment lifecycle.
type Service struct {
	Users        UserStore
	Cards        CardStore
	Budgets      BudgetStore
	Installments InstallmentStore

	// Now supplies "today" for tenure math. Override in tests.
	Now func() time.Time
}

// NewService wires a lifecycle service with wall-clock time.
func NewService(users UserStore, cards CardStore, budgets BudgetStore, installments InstallmentStore) *Service {
	return &Service{
		Users:        users,
		Cards:        cards,
		Budgets:      budgets,
		Installments: installments,
		Now:          time.Now,
	}
}

func (s *Service) today() time.Time {
	now := s.Now()
	return Date(now.Year(), now.Month(), now.Day())
}

// Create aligns, prices, and persists a new installment, then refreshes the
// owning budget's leftover amount.
func (s *Service) Create(ctx context.Context, ownerID string, in CreateInput) (*InstallmentRecord, error) {
	exists, err := s.Users.UserExists(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrUserNotFound
	}

	card, err := s.Cards.FindCard(ctx, in.CardID, ownerID)
	if err != nil {
		return nil, err
	}
	if card == nil {
		return nil, ErrCardNotFound
	}

	startDate := AlignStartDate(in.StartDate, card.StatementDay)
	endDate := EndDate(startDate, in.Tenure)
	leftoverTenure := LeftoverTenure(endDate, s.today())

	ins := &Installment{
		CardID:         card.ID,
		Name:           in.Name,
		TotalAmount:    in.TotalAmount,
		Tenure:         in.Tenure,
		LeftoverTenure: leftoverTenure,
		PricePerMonth:  PricePerMonth(in.TotalAmount, in.Tenure),
		StartDate:      startDate,
		EndDate:        endDate,
		Active:         leftoverTenure > 0,
	}

	id, err := s.Installments.Insert(ctx, ins)
	if err != nil {
		return nil, err
	}
	if id == 0 {
		// The reconciliation step below must not run against a phantom row.
		return nil, ErrSaveFailed
	}
	ins.ID = id

	if err := s.reconcileBudget(ctx, card.BudgetID, ownerID); err != nil {
		return nil, err
	}

	return ins.Record(), nil
}

// Update recomputes the full schedule from the new fields, reusing the
// existing card's statement day, then refreshes the budget leftover.
func (s *Service) Update(ctx context.Context, id int64, ownerID string, in UpdateInput) (*InstallmentRecord, error) {
	ins, err := s.Installments.Find(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}
	if ins == nil {
		return nil, ErrInstallmentNotFound
	}

	card, err := s.Cards.FindCard(ctx, ins.CardID, ownerID)
	if err != nil {
		return nil, err
	}
	if card == nil {
		return nil, ErrCardNotFound
	}

	startDate := AlignStartDate(in.StartDate, card.StatementDay)
	endDate := EndDate(startDate, in.Tenure)
	leftoverTenure := LeftoverTenure(endDate, s.today())

	ins.Name = in.Name
	ins.TotalAmount = in.TotalAmount
	ins.Tenure = in.Tenure
	ins.LeftoverTenure = leftoverTenure
	ins.PricePerMonth = PricePerMonth(in.TotalAmount, in.Tenure)
	ins.StartDate = startDate
	ins.EndDate = endDate
	ins.Active = leftoverTenure > 0

	if err := s.Installments.Update(ctx, ins); err != nil {
		return nil, err
	}

	if err := s.reconcileBudget(ctx, card.BudgetID, ownerID); err != nil {
		return nil, err
	}

	return ins.Record(), nil
}

// Delete hard-deletes an owned installment. It returns true only when a
// post-delete existence check confirms the row is gone; a delete that
// silently no-ops surfaces as ErrSaveFailed.
func (s *Service) Delete(ctx context.Context, id int64, ownerID string) (bool, error) {
	ins, err := s.Installments.Find(ctx, id, ownerID)
	if err != nil {
		return false, err
	}
	if ins == nil {
		return false, ErrInstallmentNotFound
	}

	if err := s.Installments.Delete(ctx, id); err != nil {
		return false, err
	}

	still, err := s.Installments.Exists(ctx, id)
	if err != nil {
		return false, err
	}
	if still {
		return false, ErrSaveFailed
	}
	return true, nil
}

// Get resolves a single owned installment.
func (s *Service) Get(ctx context.Context, id int64, ownerID string) (*InstallmentRecord, error) {
	ins, err := s.Installments.Find(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}
	if ins == nil {
		return nil, ErrInstallmentNotFound
	}
	return ins.Record(), nil
}

// List returns the owner's active installments, soonest-ending first
// (ascending leftover tenure).
func (s *Service) List(ctx context.Context, ownerID string) ([]*InstallmentRecord, error) {
	all, err := s.Installments.FindAll(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	records := make([]*InstallmentRecord, 0, len(all))
	for i := range all {
		records = append(records, all[i].Record())
	}
	return records, nil
}

// TotalPricePerMonth sums the owner's active monthly commitments per bank.
// Pure read.
func (s *Service) TotalPricePerMonth(ctx context.Context, ownerID string) ([]BankMonthlyTotal, error) {
	return s.Installments.SumPricePerMonthByBank(ctx, ownerID)
}

// reconcileBudget rewrites the budget's leftover from the current
// cross-installment obligation sum.
func (s *Service) reconcileBudget(ctx context.Context, budgetID int64, ownerID string) error {
	budget, err := s.Budgets.FindBudget(ctx, budgetID, ownerID)
	if err != nil {
		return err
	}
	if budget == nil {
		return ErrBudgetNotFound
	}

	sum, err := s.Installments.SumMonthlyObligations(ctx, budgetID, ownerID)
	if err != nil {
		return err
	}

	leftover := LeftoverAmount(sum, &budget.InitialAmount)
	return s.Budgets.UpdateLeftoverAmount(ctx, budgetID, *leftover)
}
