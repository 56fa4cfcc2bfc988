// Package store provides an in-memory implementation of the engine's
// persistence interfaces, for tests and local development.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/installment-engine/installment"
)

// Memory implements UserStore, CardStore, BudgetStore and InstallmentStore
// with maps. Safe for concurrent use.
type Memory struct {
	mu           sync.RWMutex
	users        map[string]bool
	banks        map[int64]installment.Bank
	budgets      map[int64]installment.Budget
	cards        map[int64]installment.Card
	installments map[int64]installment.Installment
	nextID       int64

	// FailUpdates injects an error for UpdateLeftoverTenure on the given
	// installment id. Test hook for sweep failure-isolation cases.
	FailUpdates map[int64]error
}

func NewMemory() *Memory {
	return &Memory{
		users:        make(map[string]bool),
		banks:        make(map[int64]installment.Bank),
		budgets:      make(map[int64]installment.Budget),
		cards:        make(map[int64]installment.Card),
		installments: make(map[int64]installment.Installment),
		FailUpdates:  make(map[int64]error),
	}
}

func (m *Memory) nextIDLocked() int64 {
	m.nextID++
	return m.nextID
}

// =============================================================================
// SEEDING HELPERS
// =============================================================================

func (m *Memory) AddUser(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[id] = true
}

func (m *Memory) AddBank(ownerID, name string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextIDLocked()
	m.banks[id] = installment.Bank{ID: id, OwnerID: ownerID, Name: name, CreatedAt: time.Now()}
	return id
}

func (m *Memory) AddBudget(ownerID, name string, initial decimal.Decimal) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextIDLocked()
	m.budgets[id] = installment.Budget{
		ID: id, OwnerID: ownerID, Name: name,
		InitialAmount: initial, LeftoverAmount: initial,
		CreatedAt: time.Now(),
	}
	return id
}

func (m *Memory) AddCard(ownerID, name string, statementDay int, budgetID, bankID int64) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextIDLocked()
	m.cards[id] = installment.Card{
		ID: id, OwnerID: ownerID, Name: name,
		StatementDay: statementDay, BudgetID: budgetID, BankID: bankID,
		CreatedAt: time.Now(),
	}
	return id
}

// =============================================================================
// USER / CARD / BUDGET STORES
// =============================================================================

func (m *Memory) UserExists(_ context.Context, ownerID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.users[ownerID], nil
}

func (m *Memory) FindCard(_ context.Context, id int64, ownerID string) (*installment.Card, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	card, ok := m.cards[id]
	if !ok || card.OwnerID != ownerID {
		return nil, nil
	}
	c := card
	return &c, nil
}

func (m *Memory) FindBudget(_ context.Context, id int64, ownerID string) (*installment.Budget, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	budget, ok := m.budgets[id]
	if !ok || budget.OwnerID != ownerID {
		return nil, nil
	}
	b := budget
	return &b, nil
}

func (m *Memory) UpdateLeftoverAmount(_ context.Context, budgetID int64, leftover decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	budget, ok := m.budgets[budgetID]
	if !ok {
		return installment.ErrBudgetNotFound
	}
	budget.LeftoverAmount = leftover
	budget.UpdatedAt = time.Now()
	m.budgets[budgetID] = budget
	return nil
}

// =============================================================================
// INSTALLMENT STORE
// =============================================================================

func (m *Memory) Insert(_ context.Context, ins *installment.Installment) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextIDLocked()
	stored := *ins
	stored.ID = id
	stored.CreatedAt = time.Now()
	stored.UpdatedAt = stored.CreatedAt
	m.installments[id] = stored
	return id, nil
}

func (m *Memory) Find(_ context.Context, id int64, ownerID string) (*installment.Installment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ins, ok := m.installments[id]
	if !ok {
		return nil, nil
	}
	card, ok := m.cards[ins.CardID]
	if !ok || card.OwnerID != ownerID {
		return nil, nil
	}
	i := ins
	return &i, nil
}

func (m *Memory) FindAll(_ context.Context, ownerID string) ([]installment.Installment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []installment.Installment
	for _, ins := range m.installments {
		card, ok := m.cards[ins.CardID]
		if !ok || card.OwnerID != ownerID || !ins.Active {
			continue
		}
		out = append(out, ins)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].LeftoverTenure != out[j].LeftoverTenure {
			return out[i].LeftoverTenure < out[j].LeftoverTenure
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *Memory) Update(_ context.Context, ins *installment.Installment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.installments[ins.ID]
	if !ok {
		return installment.ErrInstallmentNotFound
	}
	updated := *ins
	updated.CreatedAt = stored.CreatedAt
	updated.UpdatedAt = time.Now()
	m.installments[ins.ID] = updated
	return nil
}

func (m *Memory) UpdateLeftoverTenure(_ context.Context, id int64, leftoverTenure int, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.FailUpdates[id]; ok {
		return err
	}
	ins, ok := m.installments[id]
	if !ok {
		return installment.ErrInstallmentNotFound
	}
	ins.LeftoverTenure = leftoverTenure
	ins.Active = active
	ins.UpdatedAt = time.Now()
	m.installments[id] = ins
	return nil
}

func (m *Memory) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.installments, id)
	return nil
}

func (m *Memory) Exists(_ context.Context, id int64) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.installments[id]
	return ok, nil
}

func (m *Memory) SumMonthlyObligations(_ context.Context, budgetID int64, ownerID string) (*decimal.Decimal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sum := decimal.Zero
	matched := false
	for _, ins := range m.installments {
		if !ins.Active {
			continue
		}
		card, ok := m.cards[ins.CardID]
		if !ok || card.BudgetID != budgetID || card.OwnerID != ownerID {
			continue
		}
		sum = sum.Add(ins.PricePerMonth.Mul(decimal.NewFromInt(int64(ins.LeftoverTenure))))
		matched = true
	}
	if !matched {
		return nil, nil
	}
	return &sum, nil
}

func (m *Memory) SumPricePerMonthByBank(_ context.Context, ownerID string) ([]installment.BankMonthlyTotal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	totals := make(map[string]decimal.Decimal)
	for _, ins := range m.installments {
		if !ins.Active {
			continue
		}
		card, ok := m.cards[ins.CardID]
		if !ok || card.OwnerID != ownerID {
			continue
		}
		bank, ok := m.banks[card.BankID]
		if !ok {
			continue
		}
		totals[bank.Name] = totals[bank.Name].Add(ins.PricePerMonth)
	}

	names := make([]string, 0, len(totals))
	for name := range totals {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]installment.BankMonthlyTotal, 0, len(names))
	for _, name := range names {
		out = append(out, installment.BankMonthlyTotal{BankName: name, TotalMonthly: totals[name]})
	}
	return out, nil
}

func (m *Memory) ListActive(_ context.Context) ([]installment.ActiveInstallment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []installment.ActiveInstallment
	for _, ins := range m.installments {
		if !ins.Active {
			continue
		}
		card, ok := m.cards[ins.CardID]
		if !ok {
			continue
		}
		out = append(out, installment.ActiveInstallment{
			ID:             ins.ID,
			Name:           ins.Name,
			EndDate:        ins.EndDate,
			LeftoverTenure: ins.LeftoverTenure,
			PricePerMonth:  ins.PricePerMonth,
			StatementDay:   card.StatementDay,
			BudgetID:       card.BudgetID,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
