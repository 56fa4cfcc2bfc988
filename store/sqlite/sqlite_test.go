package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/installment-engine/installment"
	"github.com/warp/installment-engine/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestStore(t *testing.T) *sqlite.Store {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	require.NoError(t, store.CreateUser(context.Background(), "user-1", "Alice"))
	return store
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func date(y int, m time.Month, d int) time.Time {
	return installment.Date(y, m, d)
}

// seedCard creates bank -> budget -> card for user-1 and returns the ids.
func seedCard(t *testing.T, store *sqlite.Store, statementDay int) (bankID, budgetID, cardID int64) {
	t.Helper()
	ctx := context.Background()

	bank, err := store.CreateBank(ctx, "user-1", "DBS")
	require.NoError(t, err)
	budget, err := store.CreateBudget(ctx, "user-1", "Main", dec("5000.00"))
	require.NoError(t, err)
	card, err := store.CreateCard(ctx, "user-1", "DBS Visa", statementDay, budget.ID, bank.ID)
	require.NoError(t, err)
	return bank.ID, budget.ID, card.ID
}

func seedInstallment(t *testing.T, store *sqlite.Store, cardID int64, name string, leftoverTenure int, active bool) int64 {
	t.Helper()
	id, err := store.Insert(context.Background(), &installment.Installment{
		CardID:         cardID,
		Name:           name,
		TotalAmount:    dec("1200.00"),
		Tenure:         12,
		LeftoverTenure: leftoverTenure,
		PricePerMonth:  dec("100.00"),
		StartDate:      date(2024, time.February, 15),
		EndDate:        date(2025, time.February, 15),
		Active:         active,
	})
	require.NoError(t, err)
	return id
}

// =============================================================================
// USERS
// =============================================================================

func TestCreateUser_UpsertIsIdempotent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateUser(ctx, "user-1", "Alice Renamed"))

	exists, err := store.UserExists(ctx, "user-1")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = store.UserExists(ctx, "nobody")
	require.NoError(t, err)
	assert.False(t, exists)
}

// =============================================================================
// BANKS
// =============================================================================

func TestBankCRUD(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	bank, err := store.CreateBank(ctx, "user-1", "DBS")
	require.NoError(t, err)
	require.NotNil(t, bank)
	assert.Equal(t, "DBS", bank.Name)
	assert.False(t, bank.CreatedAt.IsZero())

	updated, err := store.UpdateBank(ctx, bank.ID, "user-1", "DBS Singapore")
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, "DBS Singapore", updated.Name)

	banks, err := store.ListBanks(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, banks, 1)

	deleted, err := store.DeleteBank(ctx, bank.ID, "user-1")
	require.NoError(t, err)
	assert.True(t, deleted)

	got, err := store.GetBank(ctx, bank.ID, "user-1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestBank_ForeignOwnerLooksMissing(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.CreateUser(ctx, "user-2", "Bob"))

	bank, err := store.CreateBank(ctx, "user-1", "DBS")
	require.NoError(t, err)

	got, err := store.GetBank(ctx, bank.ID, "user-2")
	require.NoError(t, err)
	assert.Nil(t, got, "another owner's bank should be indistinguishable from a missing one")

	updated, err := store.UpdateBank(ctx, bank.ID, "user-2", "Hijacked")
	require.NoError(t, err)
	assert.Nil(t, updated)

	deleted, err := store.DeleteBank(ctx, bank.ID, "user-2")
	require.NoError(t, err)
	assert.False(t, deleted)
}

// =============================================================================
// BUDGETS
// =============================================================================

func TestCreateBudget_LeftoverStartsAtInitial(t *testing.T) {
	store := newTestStore(t)

	budget, err := store.CreateBudget(context.Background(), "user-1", "Main", dec("5000.00"))
	require.NoError(t, err)
	require.NotNil(t, budget)
	assert.True(t, budget.LeftoverAmount.Equal(dec("5000.00")))
}

func TestUpdateLeftoverAmount(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	budget, err := store.CreateBudget(ctx, "user-1", "Main", dec("5000.00"))
	require.NoError(t, err)

	require.NoError(t, store.UpdateLeftoverAmount(ctx, budget.ID, dec("3800.00")))

	got, err := store.FindBudget(ctx, budget.ID, "user-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.LeftoverAmount.Equal(dec("3800.00")))
	assert.True(t, got.InitialAmount.Equal(dec("5000.00")), "initial must not move")
}

func TestUpdateBudget_WritesCallerComputedLeftover(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	budget, err := store.CreateBudget(ctx, "user-1", "Main", dec("5000.00"))
	require.NoError(t, err)

	updated, err := store.UpdateBudget(ctx, budget.ID, "user-1", "Household", dec("6000.00"), dec("4800.00"))
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, "Household", updated.Name)
	assert.True(t, updated.InitialAmount.Equal(dec("6000.00")))
	assert.True(t, updated.LeftoverAmount.Equal(dec("4800.00")))
}

func TestDeleteBudget_CascadesToCardsAndInstallments(t *testing.T) {
	// GIVEN: A budget with a card carrying an installment
	// WHEN: Deleting the budget
	// THEN: The card and installment go with it

	store := newTestStore(t)
	ctx := context.Background()
	_, budgetID, cardID := seedCard(t, store, 15)
	insID := seedInstallment(t, store, cardID, "Laptop", 12, true)

	deleted, err := store.DeleteBudget(ctx, budgetID, "user-1")
	require.NoError(t, err)
	require.True(t, deleted)

	card, err := store.FindCard(ctx, cardID, "user-1")
	require.NoError(t, err)
	assert.Nil(t, card)

	exists, err := store.Exists(ctx, insID)
	require.NoError(t, err)
	assert.False(t, exists)
}

// =============================================================================
// CARDS
// =============================================================================

func TestCardCRUD(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	bankID, budgetID, cardID := seedCard(t, store, 15)

	card, err := store.FindCard(ctx, cardID, "user-1")
	require.NoError(t, err)
	require.NotNil(t, card)
	assert.Equal(t, 15, card.StatementDay)
	assert.Equal(t, budgetID, card.BudgetID)
	assert.Equal(t, bankID, card.BankID)

	updated, err := store.UpdateCard(ctx, cardID, "user-1", "DBS Altitude", 28, budgetID, bankID)
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, 28, updated.StatementDay)

	cards, err := store.ListCards(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, cards, 1)

	deleted, err := store.DeleteCard(ctx, cardID, "user-1")
	require.NoError(t, err)
	assert.True(t, deleted)
}

func TestCreateCard_RejectsStatementDayOutOfRange(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	bankID, budgetID, _ := seedCard(t, store, 15)

	_, err := store.CreateCard(ctx, "user-1", "Bad", 0, budgetID, bankID)
	assert.Error(t, err)

	_, err = store.CreateCard(ctx, "user-1", "Bad", 32, budgetID, bankID)
	assert.Error(t, err)
}

// =============================================================================
// INSTALLMENTS
// =============================================================================

func TestInstallment_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	_, _, cardID := seedCard(t, store, 15)
	id := seedInstallment(t, store, cardID, "Laptop", 12, true)

	ins, err := store.Find(ctx, id, "user-1")
	require.NoError(t, err)
	require.NotNil(t, ins)
	assert.Equal(t, "Laptop", ins.Name)
	assert.True(t, ins.TotalAmount.Equal(dec("1200.00")))
	assert.True(t, ins.PricePerMonth.Equal(dec("100.00")))
	assert.Equal(t, date(2024, time.February, 15), ins.StartDate)
	assert.Equal(t, date(2025, time.February, 15), ins.EndDate)
	assert.True(t, ins.Active)
}

func TestInstallment_OwnerScopedThroughCard(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.CreateUser(ctx, "user-2", "Bob"))
	_, _, cardID := seedCard(t, store, 15)
	id := seedInstallment(t, store, cardID, "Laptop", 12, true)

	ins, err := store.Find(ctx, id, "user-2")
	require.NoError(t, err)
	assert.Nil(t, ins)

	all, err := store.FindAll(ctx, "user-2")
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestFindAll_ActiveOnlySoonestEndingFirst(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	_, _, cardID := seedCard(t, store, 15)

	seedInstallment(t, store, cardID, "Long", 24, true)
	seedInstallment(t, store, cardID, "Short", 3, true)
	seedInstallment(t, store, cardID, "Done", 0, false)
	seedInstallment(t, store, cardID, "Medium", 12, true)

	all, err := store.FindAll(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Short", all[0].Name)
	assert.Equal(t, "Medium", all[1].Name)
	assert.Equal(t, "Long", all[2].Name)
}

func TestUpdateLeftoverTenure_FlipsActivity(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	_, _, cardID := seedCard(t, store, 15)
	id := seedInstallment(t, store, cardID, "Laptop", 1, true)

	require.NoError(t, store.UpdateLeftoverTenure(ctx, id, 0, false))

	ins, err := store.Find(ctx, id, "user-1")
	require.NoError(t, err)
	require.NotNil(t, ins)
	assert.Equal(t, 0, ins.LeftoverTenure)
	assert.False(t, ins.Active)
}

func TestDeleteAndExists(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	_, _, cardID := seedCard(t, store, 15)
	id := seedInstallment(t, store, cardID, "Laptop", 12, true)

	require.NoError(t, store.Delete(ctx, id))

	exists, err := store.Exists(ctx, id)
	require.NoError(t, err)
	assert.False(t, exists)
}

// =============================================================================
// AGGREGATES
// =============================================================================

func TestSumMonthlyObligations(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	_, budgetID, cardID := seedCard(t, store, 15)

	// No installments: nil, not zero. Callers treat the two differently.
	sum, err := store.SumMonthlyObligations(ctx, budgetID, "user-1")
	require.NoError(t, err)
	assert.Nil(t, sum)

	seedInstallment(t, store, cardID, "Laptop", 12, true)
	seedInstallment(t, store, cardID, "Done", 5, false)

	sum, err = store.SumMonthlyObligations(ctx, budgetID, "user-1")
	require.NoError(t, err)
	require.NotNil(t, sum)
	assert.True(t, sum.Equal(dec("1200.00")), "100.00 x 12, inactive rows excluded; got %s", sum)
}

func TestSumPricePerMonthByBank(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	_, budgetID, cardID := seedCard(t, store, 15)

	citi, err := store.CreateBank(ctx, "user-1", "Citibank")
	require.NoError(t, err)
	citiCard, err := store.CreateCard(ctx, "user-1", "Citi Rewards", 10, budgetID, citi.ID)
	require.NoError(t, err)

	seedInstallment(t, store, cardID, "Laptop", 12, true)
	seedInstallment(t, store, cardID, "Phone", 6, true)
	seedInstallment(t, store, citiCard.ID, "Sofa", 6, true)

	totals, err := store.SumPricePerMonthByBank(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, totals, 2)
	assert.Equal(t, "Citibank", totals[0].BankName)
	assert.True(t, totals[0].TotalMonthly.Equal(dec("100.00")))
	assert.Equal(t, "DBS", totals[1].BankName)
	assert.True(t, totals[1].TotalMonthly.Equal(dec("200.00")))
}

func TestListActive_ProjectsCardFields(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	_, budgetID, cardID := seedCard(t, store, 15)
	seedInstallment(t, store, cardID, "Laptop", 12, true)
	seedInstallment(t, store, cardID, "Done", 0, false)

	active, err := store.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "Laptop", active[0].Name)
	assert.Equal(t, 15, active[0].StatementDay)
	assert.Equal(t, budgetID, active[0].BudgetID)
	assert.Equal(t, date(2025, time.February, 15), active[0].EndDate)
}

// =============================================================================
// SWEEP RUNS
// =============================================================================

func TestSweepRuns_UpsertAndCompletionCheck(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	day := date(2024, time.February, 15)

	run := sqlite.SweepRun{
		ID:        "run-1",
		RunDate:   day,
		Status:    "running",
		StartedAt: time.Now(),
	}
	require.NoError(t, store.SaveSweepRun(ctx, run))

	complete, err := store.IsSweepComplete(ctx, day)
	require.NoError(t, err)
	assert.False(t, complete, "a running sweep does not count as done")

	completedAt := time.Now()
	run.Status = "completed"
	run.Checked, run.Matured = 3, 1
	run.CompletedAt = &completedAt
	require.NoError(t, store.SaveSweepRun(ctx, run))

	complete, err = store.IsSweepComplete(ctx, day)
	require.NoError(t, err)
	assert.True(t, complete)

	runs, err := store.ListSweepRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1, "upsert must not duplicate the run row")
	assert.Equal(t, "completed", runs[0].Status)
	assert.Equal(t, 3, runs[0].Checked)
	assert.Equal(t, 1, runs[0].Matured)
	require.NotNil(t, runs[0].CompletedAt)
}
