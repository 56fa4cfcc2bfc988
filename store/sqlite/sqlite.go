/*
Package sqlite provides the SQLite-backed implementation of the engine's
storage interfaces.

PURPOSE:
  Implements installment.UserStore, CardStore, BudgetStore and
  InstallmentStore plus the supporting bank/budget/card CRUD used by the API
  layer and the sweep-run bookkeeping used by the scheduler.

KEY TABLES:
  users         Owner records (ids come from the upstream auth layer)
  banks         Card issuers, per owner
  budgets       Pre-funded pools with derived leftover figures
  cards         Billing instruments: statement day + budget + bank
  installments  Statement-aligned schedules; owner reached via card join
  sweep_runs    One row per daily sweep execution

OWNERSHIP:
  banks, budgets and cards carry owner_id directly; installments are scoped
  by joining through their card. Every owner-scoped query filters in SQL, so
  a miss and a foreign row are indistinguishable to callers.

CASCADES:
  budgets -> cards -> installments delete in cascade; the connection opens
  with foreign keys enforced.

MONEY AND DATES:
  Decimals are stored as TEXT to avoid float drift; calendar dates as
  "2006-01-02"; timestamps as RFC3339.

CONCURRENCY:
  WAL mode plus a sync.RWMutex: readers don't block each other, one writer
  at a time. Concurrent edits to the same installment or budget must be
  serialized by the caller; the engine assumes a single writer per entity.
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/warp/installment-engine/installment"
)

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS banks (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		owner_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS budgets (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		owner_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		initial_amount TEXT NOT NULL,
		leftover_amount TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS cards (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		owner_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		statement_day INTEGER NOT NULL CHECK (statement_day BETWEEN 1 AND 31),
		budget_id INTEGER NOT NULL REFERENCES budgets(id) ON DELETE CASCADE,
		bank_id INTEGER NOT NULL REFERENCES banks(id) ON DELETE CASCADE,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS installments (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		card_id INTEGER NOT NULL REFERENCES cards(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		total_amount TEXT NOT NULL,
		tenure INTEGER NOT NULL,
		leftover_tenure INTEGER NOT NULL,
		price_per_month TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		is_active INTEGER NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_cards_owner ON cards(owner_id);
	CREATE INDEX IF NOT EXISTS idx_installments_card ON installments(card_id);
	-- Hot path: the sweep's working set and the obligation sums.
	CREATE INDEX IF NOT EXISTS idx_installments_active ON installments(is_active);

	CREATE TABLE IF NOT EXISTS sweep_runs (
		id TEXT PRIMARY KEY,
		run_date TEXT NOT NULL,
		status TEXT NOT NULL,
		checked INTEGER NOT NULL DEFAULT 0,
		matured INTEGER NOT NULL DEFAULT 0,
		failed INTEGER NOT NULL DEFAULT 0,
		error TEXT NOT NULL DEFAULT '',
		started_at TEXT NOT NULL,
		completed_at TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_sweep_runs_date ON sweep_runs(run_date);
	`
	_, err := s.db.Exec(schema)
	return err
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func parseDate(s string) time.Time {
	t, _ := time.Parse(installment.DateFormat, s)
	return t
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339, s)
	return t
}

func parseDecimal(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

// =============================================================================
// USERS
// =============================================================================

// CreateUser registers an owner id handed down by the auth layer. Upserts so
// repeated logins are harmless.
func (s *Store) CreateUser(ctx context.Context, id, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, name, created_at, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, updated_at = excluded.updated_at`,
		id, name, now(), now())
	return err
}

func (s *Store) UserExists(ctx context.Context, ownerID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE id = ?`, ownerID).Scan(&count)
	return count > 0, err
}

// =============================================================================
// BANKS
// =============================================================================

func (s *Store) CreateBank(ctx context.Context, ownerID, name string) (*installment.Bank, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO banks (owner_id, name, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		ownerID, name, now(), now())
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return s.getBankLocked(ctx, id, ownerID)
}

func (s *Store) GetBank(ctx context.Context, id int64, ownerID string) (*installment.Bank, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getBankLocked(ctx, id, ownerID)
}

func (s *Store) getBankLocked(ctx context.Context, id int64, ownerID string) (*installment.Bank, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, owner_id, name, created_at, updated_at
		FROM banks WHERE id = ? AND owner_id = ?`, id, ownerID)
	return scanBank(row)
}

func (s *Store) ListBanks(ctx context.Context, ownerID string) ([]installment.Bank, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, owner_id, name, created_at, updated_at
		FROM banks WHERE owner_id = ? ORDER BY id`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var banks []installment.Bank
	for rows.Next() {
		var b installment.Bank
		var created, updated string
		if err := rows.Scan(&b.ID, &b.OwnerID, &b.Name, &created, &updated); err != nil {
			return nil, err
		}
		b.CreatedAt, b.UpdatedAt = parseTime(created), parseTime(updated)
		banks = append(banks, b)
	}
	return banks, rows.Err()
}

func (s *Store) UpdateBank(ctx context.Context, id int64, ownerID, name string) (*installment.Bank, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.ExecContext(ctx, `
		UPDATE banks SET name = ?, updated_at = ? WHERE id = ? AND owner_id = ?`,
		name, now(), id, ownerID)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, nil
	}
	return s.getBankLocked(ctx, id, ownerID)
}

func (s *Store) DeleteBank(ctx context.Context, id int64, ownerID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM banks WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func scanBank(row *sql.Row) (*installment.Bank, error) {
	var b installment.Bank
	var created, updated string
	err := row.Scan(&b.ID, &b.OwnerID, &b.Name, &created, &updated)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	b.CreatedAt, b.UpdatedAt = parseTime(created), parseTime(updated)
	return &b, nil
}

// =============================================================================
// BUDGETS
// =============================================================================

func (s *Store) CreateBudget(ctx context.Context, ownerID, name string, initial decimal.Decimal) (*installment.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	// A fresh budget has nothing drawing on it: leftover starts at initial.
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO budgets (owner_id, name, initial_amount, leftover_amount, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		ownerID, name, initial.String(), initial.String(), now(), now())
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return s.findBudgetLocked(ctx, id, ownerID)
}

func (s *Store) FindBudget(ctx context.Context, id int64, ownerID string) (*installment.Budget, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.findBudgetLocked(ctx, id, ownerID)
}

func (s *Store) findBudgetLocked(ctx context.Context, id int64, ownerID string) (*installment.Budget, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, owner_id, name, initial_amount, leftover_amount, created_at, updated_at
		FROM budgets WHERE id = ? AND owner_id = ?`, id, ownerID)
	return scanBudget(row)
}

func (s *Store) ListBudgets(ctx context.Context, ownerID string) ([]installment.Budget, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, owner_id, name, initial_amount, leftover_amount, created_at, updated_at
		FROM budgets WHERE owner_id = ? ORDER BY id`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var budgets []installment.Budget
	for rows.Next() {
		var b installment.Budget
		var initial, leftover, created, updated string
		if err := rows.Scan(&b.ID, &b.OwnerID, &b.Name, &initial, &leftover, &created, &updated); err != nil {
			return nil, err
		}
		b.InitialAmount, b.LeftoverAmount = parseDecimal(initial), parseDecimal(leftover)
		b.CreatedAt, b.UpdatedAt = parseTime(created), parseTime(updated)
		budgets = append(budgets, b)
	}
	return budgets, rows.Err()
}

// UpdateBudget rewrites the budget's name, initial figure, and recomputed
// leftover. The caller supplies the leftover via the ledger calculation.
func (s *Store) UpdateBudget(ctx context.Context, id int64, ownerID, name string, initial, leftover decimal.Decimal) (*installment.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.ExecContext(ctx, `
		UPDATE budgets SET name = ?, initial_amount = ?, leftover_amount = ?, updated_at = ?
		WHERE id = ? AND owner_id = ?`,
		name, initial.String(), leftover.String(), now(), id, ownerID)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, nil
	}
	return s.findBudgetLocked(ctx, id, ownerID)
}

func (s *Store) UpdateLeftoverAmount(ctx context.Context, budgetID int64, leftover decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, `
		UPDATE budgets SET leftover_amount = ?, updated_at = ? WHERE id = ?`,
		leftover.String(), now(), budgetID)
	return err
}

func (s *Store) DeleteBudget(ctx context.Context, id int64, ownerID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM budgets WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func scanBudget(row *sql.Row) (*installment.Budget, error) {
	var b installment.Budget
	var initial, leftover, created, updated string
	err := row.Scan(&b.ID, &b.OwnerID, &b.Name, &initial, &leftover, &created, &updated)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	b.InitialAmount, b.LeftoverAmount = parseDecimal(initial), parseDecimal(leftover)
	b.CreatedAt, b.UpdatedAt = parseTime(created), parseTime(updated)
	return &b, nil
}

// =============================================================================
// CARDS
// =============================================================================

func (s *Store) CreateCard(ctx context.Context, ownerID, name string, statementDay int, budgetID, bankID int64) (*installment.Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO cards (owner_id, name, statement_day, budget_id, bank_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		ownerID, name, statementDay, budgetID, bankID, now(), now())
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return s.findCardLocked(ctx, id, ownerID)
}

func (s *Store) FindCard(ctx context.Context, id int64, ownerID string) (*installment.Card, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.findCardLocked(ctx, id, ownerID)
}

func (s *Store) findCardLocked(ctx context.Context, id int64, ownerID string) (*installment.Card, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, owner_id, name, statement_day, budget_id, bank_id, created_at, updated_at
		FROM cards WHERE id = ? AND owner_id = ?`, id, ownerID)
	return scanCard(row)
}

func (s *Store) ListCards(ctx context.Context, ownerID string) ([]installment.Card, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, owner_id, name, statement_day, budget_id, bank_id, created_at, updated_at
		FROM cards WHERE owner_id = ? ORDER BY id`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cards []installment.Card
	for rows.Next() {
		var c installment.Card
		var created, updated string
		if err := rows.Scan(&c.ID, &c.OwnerID, &c.Name, &c.StatementDay, &c.BudgetID, &c.BankID, &created, &updated); err != nil {
			return nil, err
		}
		c.CreatedAt, c.UpdatedAt = parseTime(created), parseTime(updated)
		cards = append(cards, c)
	}
	return cards, rows.Err()
}

func (s *Store) UpdateCard(ctx context.Context, id int64, ownerID, name string, statementDay int, budgetID, bankID int64) (*installment.Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.ExecContext(ctx, `
		UPDATE cards SET name = ?, statement_day = ?, budget_id = ?, bank_id = ?, updated_at = ?
		WHERE id = ? AND owner_id = ?`,
		name, statementDay, budgetID, bankID, now(), id, ownerID)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, nil
	}
	return s.findCardLocked(ctx, id, ownerID)
}

func (s *Store) DeleteCard(ctx context.Context, id int64, ownerID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM cards WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func scanCard(row *sql.Row) (*installment.Card, error) {
	var c installment.Card
	var created, updated string
	err := row.Scan(&c.ID, &c.OwnerID, &c.Name, &c.StatementDay, &c.BudgetID, &c.BankID, &created, &updated)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	c.CreatedAt, c.UpdatedAt = parseTime(created), parseTime(updated)
	return &c, nil
}

// =============================================================================
// INSTALLMENTS
// =============================================================================

const installmentColumns = `
	i.id, i.card_id, i.name, i.total_amount, i.tenure, i.leftover_tenure,
	i.price_per_month, i.start_date, i.end_date, i.is_active, i.created_at, i.updated_at`

func (s *Store) Insert(ctx context.Context, ins *installment.Installment) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO installments
			(card_id, name, total_amount, tenure, leftover_tenure, price_per_month,
			 start_date, end_date, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ins.CardID, ins.Name, ins.TotalAmount.String(), ins.Tenure, ins.LeftoverTenure,
		ins.PricePerMonth.String(), ins.StartDate.Format(installment.DateFormat),
		ins.EndDate.Format(installment.DateFormat), boolToInt(ins.Active), now(), now())
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (s *Store) Find(ctx context.Context, id int64, ownerID string) (*installment.Installment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row := s.db.QueryRowContext(ctx, `
		SELECT `+installmentColumns+`
		FROM installments i
		JOIN cards c ON c.id = i.card_id
		WHERE i.id = ? AND c.owner_id = ?`, id, ownerID)
	return scanInstallment(row)
}

func (s *Store) FindAll(ctx context.Context, ownerID string) ([]installment.Installment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+installmentColumns+`
		FROM installments i
		JOIN cards c ON c.id = i.card_id
		WHERE c.owner_id = ? AND i.is_active = 1
		ORDER BY i.leftover_tenure ASC, i.id ASC`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []installment.Installment
	for rows.Next() {
		ins, err := scanInstallmentRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *ins)
	}
	return out, rows.Err()
}

func (s *Store) Update(ctx context.Context, ins *installment.Installment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, `
		UPDATE installments
		SET name = ?, total_amount = ?, tenure = ?, leftover_tenure = ?,
			price_per_month = ?, start_date = ?, end_date = ?, is_active = ?, updated_at = ?
		WHERE id = ?`,
		ins.Name, ins.TotalAmount.String(), ins.Tenure, ins.LeftoverTenure,
		ins.PricePerMonth.String(), ins.StartDate.Format(installment.DateFormat),
		ins.EndDate.Format(installment.DateFormat), boolToInt(ins.Active), now(), ins.ID)
	return err
}

func (s *Store) UpdateLeftoverTenure(ctx context.Context, id int64, leftoverTenure int, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, `
		UPDATE installments SET leftover_tenure = ?, is_active = ?, updated_at = ? WHERE id = ?`,
		leftoverTenure, boolToInt(active), now(), id)
	return err
}

func (s *Store) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, `DELETE FROM installments WHERE id = ?`, id)
	return err
}

func (s *Store) Exists(ctx context.Context, id int64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM installments WHERE id = ?`, id).Scan(&count)
	return count > 0, err
}

func (s *Store) SumMonthlyObligations(ctx context.Context, budgetID int64, ownerID string) (*decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var sum sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT SUM(CAST(i.price_per_month AS REAL) * i.leftover_tenure)
		FROM installments i
		JOIN cards c ON c.id = i.card_id
		WHERE i.is_active = 1 AND c.budget_id = ? AND c.owner_id = ?`,
		budgetID, ownerID).Scan(&sum)
	if err != nil {
		return nil, err
	}
	if !sum.Valid {
		return nil, nil
	}
	d, err := decimal.NewFromString(sum.String)
	if err != nil {
		return nil, err
	}
	d = d.Round(2)
	return &d, nil
}

func (s *Store) SumPricePerMonthByBank(ctx context.Context, ownerID string) ([]installment.BankMonthlyTotal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, err := s.db.QueryContext(ctx, `
		SELECT b.name, SUM(CAST(i.price_per_month AS REAL))
		FROM installments i
		JOIN cards c ON c.id = i.card_id
		JOIN banks b ON b.id = c.bank_id
		WHERE i.is_active = 1 AND c.owner_id = ?
		GROUP BY b.name
		ORDER BY b.name`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []installment.BankMonthlyTotal
	for rows.Next() {
		var name, total string
		if err := rows.Scan(&name, &total); err != nil {
			return nil, err
		}
		d, err := decimal.NewFromString(total)
		if err != nil {
			return nil, err
		}
		out = append(out, installment.BankMonthlyTotal{BankName: name, TotalMonthly: d.Round(2)})
	}
	return out, rows.Err()
}

func (s *Store) ListActive(ctx context.Context) ([]installment.ActiveInstallment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, err := s.db.QueryContext(ctx, `
		SELECT i.id, i.name, i.end_date, i.leftover_tenure, i.price_per_month,
			c.statement_day, c.budget_id
		FROM installments i
		JOIN cards c ON c.id = i.card_id
		WHERE i.is_active = 1
		ORDER BY i.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []installment.ActiveInstallment
	for rows.Next() {
		var a installment.ActiveInstallment
		var endDate, price string
		if err := rows.Scan(&a.ID, &a.Name, &endDate, &a.LeftoverTenure, &price, &a.StatementDay, &a.BudgetID); err != nil {
			return nil, err
		}
		a.EndDate = parseDate(endDate)
		a.PricePerMonth = parseDecimal(price)
		out = append(out, a)
	}
	return out, rows.Err()
}

func scanInstallment(row *sql.Row) (*installment.Installment, error) {
	var ins installment.Installment
	var total, price, start, end, created, updated string
	var active int
	err := row.Scan(&ins.ID, &ins.CardID, &ins.Name, &total, &ins.Tenure, &ins.LeftoverTenure,
		&price, &start, &end, &active, &created, &updated)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	fillInstallment(&ins, total, price, start, end, created, updated, active)
	return &ins, nil
}

func scanInstallmentRows(rows *sql.Rows) (*installment.Installment, error) {
	var ins installment.Installment
	var total, price, start, end, created, updated string
	var active int
	err := rows.Scan(&ins.ID, &ins.CardID, &ins.Name, &total, &ins.Tenure, &ins.LeftoverTenure,
		&price, &start, &end, &active, &created, &updated)
	if err != nil {
		return nil, err
	}
	fillInstallment(&ins, total, price, start, end, created, updated, active)
	return &ins, nil
}

func fillInstallment(ins *installment.Installment, total, price, start, end, created, updated string, active int) {
	ins.TotalAmount = parseDecimal(total)
	ins.PricePerMonth = parseDecimal(price)
	ins.StartDate = parseDate(start)
	ins.EndDate = parseDate(end)
	ins.Active = active != 0
	ins.CreatedAt = parseTime(created)
	ins.UpdatedAt = parseTime(updated)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// =============================================================================
// SWEEP RUNS
// =============================================================================

// SweepRun records one execution of the daily sweep, for audit and for the
// scheduler's already-done-today check.
type SweepRun struct {
	ID          string
	RunDate     time.Time
	Status      string // "running", "completed", "failed"
	Checked     int
	Matured     int
	Failed      int
	Error       string
	StartedAt   time.Time
	CompletedAt *time.Time
}

func (s *Store) SaveSweepRun(ctx context.Context, run SweepRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var completed any
	if run.CompletedAt != nil {
		completed = run.CompletedAt.UTC().Format(time.RFC3339)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sweep_runs (id, run_date, status, checked, matured, failed, error, started_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status, checked = excluded.checked, matured = excluded.matured,
			failed = excluded.failed, error = excluded.error, completed_at = excluded.completed_at`,
		run.ID, run.RunDate.Format(installment.DateFormat), run.Status,
		run.Checked, run.Matured, run.Failed, run.Error,
		run.StartedAt.UTC().Format(time.RFC3339), completed)
	return err
}

// IsSweepComplete reports whether a completed sweep run exists for the day.
func (s *Store) IsSweepComplete(ctx context.Context, day time.Time) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM sweep_runs WHERE run_date = ? AND status = 'completed'`,
		day.Format(installment.DateFormat)).Scan(&count)
	return count > 0, err
}

func (s *Store) ListSweepRuns(ctx context.Context, limit int) ([]SweepRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, run_date, status, checked, matured, failed, error, started_at, completed_at
		FROM sweep_runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []SweepRun
	for rows.Next() {
		var r SweepRun
		var runDate, started string
		var completed sql.NullString
		if err := rows.Scan(&r.ID, &runDate, &r.Status, &r.Checked, &r.Matured, &r.Failed, &r.Error, &started, &completed); err != nil {
			return nil, err
		}
		r.RunDate = parseDate(runDate)
		r.StartedAt = parseTime(started)
		if completed.Valid {
			t := parseTime(completed.String)
			r.CompletedAt = &t
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
