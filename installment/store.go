/*
store.go - Persistence interfaces consumed by the engine

PURPOSE:
  Defines what the lifecycle service and the sweep need from storage. The
  SQLite implementation lives in store/sqlite; an in-memory implementation
  for tests lives in installment/store.

OWNER SCOPING:
  Every Find* takes the owner id and must return nothing for rows the owner
  does not (transitively) own. Installments are owned through their card's
  bank/budget, so the implementation joins rather than storing an owner
  column on the installment itself.

AGGREGATION CONTRACT:
  SumMonthlyObligations is the ledger's external query: the sum of
  price_per_month * leftover_tenure over all ACTIVE installments whose card
  draws on the given budget, owner-scoped. It returns nil (not zero) when no
  installments match, so the leftover calculation can distinguish "no
  obligations" from "zero net obligations".

TRANSACTION BOUNDARY:
  Callers are expected to wrap each lifecycle operation and its follow-on
  budget write in one unit of work. The interfaces stay transaction-agnostic;
  the SQLite store serializes writers internally.
*/
package installment

import (
	"context"

	"github.com/shopspring/decimal"
)

// UserStore answers owner existence checks.
type UserStore interface {
	UserExists(ctx context.Context, ownerID string) (bool, error)
}

// CardStore resolves cards, owner-scoped.
type CardStore interface {
	FindCard(ctx context.Context, id int64, ownerID string) (*Card, error)
}

// BudgetStore resolves budgets and writes their derived leftover figure.
type BudgetStore interface {
	FindBudget(ctx context.Context, id int64, ownerID string) (*Budget, error)

	// UpdateLeftoverAmount persists a recomputed leftover. This is the only
	// sanctioned way the leftover figure changes.
	UpdateLeftoverAmount(ctx context.Context, budgetID int64, leftover decimal.Decimal) error
}

// InstallmentStore persists installments and answers the engine's queries.
type InstallmentStore interface {
	// Insert persists a new installment and returns its identifier.
	Insert(ctx context.Context, ins *Installment) (int64, error)

	// Find resolves an installment owned (through card and bank) by ownerID.
	Find(ctx context.Context, id int64, ownerID string) (*Installment, error)

	// FindAll returns the owner's active installments ordered by ascending
	// leftover tenure.
	FindAll(ctx context.Context, ownerID string) ([]Installment, error)

	// Update rewrites an installment's mutable fields.
	Update(ctx context.Context, ins *Installment) error

	// UpdateLeftoverTenure is the sweep's narrow write: re-aged tenure and
	// the recomputed activity flag.
	UpdateLeftoverTenure(ctx context.Context, id int64, leftoverTenure int, active bool) error

	// Delete hard-deletes an installment.
	Delete(ctx context.Context, id int64) error

	// Exists reports whether the installment row is present at all,
	// regardless of owner. Used for the post-delete double-check.
	Exists(ctx context.Context, id int64) (bool, error)

	// SumMonthlyObligations returns the owner-scoped sum of
	// price_per_month * leftover_tenure across active installments drawing
	// on the budget, or nil when none do.
	SumMonthlyObligations(ctx context.Context, budgetID int64, ownerID string) (*decimal.Decimal, error)

	// SumPricePerMonthByBank groups the owner's active monthly commitments
	// by bank name.
	SumPricePerMonthByBank(ctx context.Context, ownerID string) ([]BankMonthlyTotal, error)

	// ListActive returns every active installment across all owners, joined
	// with its card's statement day and budget. The sweep's working set.
	ListActive(ctx context.Context) ([]ActiveInstallment, error)
}
