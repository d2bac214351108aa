// Package storage implements the ledger on an embedded SQLite database.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/ledger"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	repo := &SQLiteRepository{db: db}
	if err := repo.seedCategories(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("seed categories: %w", err)
	}
	return repo, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// seedCategories inserts the default category set when the table is empty.
func (r *SQLiteRepository) seedCategories(ctx context.Context) error {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM categories`).Scan(&n); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	for _, c := range core.DefaultCategories() {
		if _, err := r.db.ExecContext(ctx,
			`INSERT INTO categories (name, icon, is_income) VALUES (?, ?, ?)`,
			c.Name, c.Icon, boolToInt(c.IsIncome)); err != nil {
			return err
		}
	}
	slog.InfoContext(ctx, "Seeded default categories", "count", len(core.DefaultCategories()))
	return nil
}

func (r *SQLiteRepository) Categories(ctx context.Context, typeFilter *core.TransactionType) ([]core.Category, error) {
	q := `SELECT id, name, icon, is_income FROM categories`
	var args []any
	if typeFilter != nil {
		q += ` WHERE is_income = ?`
		args = append(args, boolToInt(*typeFilter == core.Income))
	}
	q += ` ORDER BY id`

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, core.StoreErr("list categories", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		var c core.Category
		var isIncome int
		if err := rows.Scan(&c.ID, &c.Name, &c.Icon, &isIncome); err != nil {
			return nil, core.StoreErr("scan category", err)
		}
		c.IsIncome = isIncome != 0
		out = append(out, c)
	}
	return out, rows.Err()
}

// DeleteCategory refuses to remove a category that transactions or bills
// still reference.
func (r *SQLiteRepository) DeleteCategory(ctx context.Context, id int64) error {
	var refs int
	err := r.db.QueryRowContext(ctx, `
		SELECT (SELECT COUNT(*) FROM transactions WHERE category_id = ?)
		     + (SELECT COUNT(*) FROM recurring_bills WHERE category_id = ?)`,
		id, id).Scan(&refs)
	if err != nil {
		return core.StoreErr("count category references", err)
	}
	if refs > 0 {
		return core.ErrCategoryInUse
	}
	if _, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id); err != nil {
		return core.StoreErr("delete category", err)
	}
	return nil
}

func (r *SQLiteRepository) AddTransaction(ctx context.Context, tx core.Transaction) (int64, error) {
	if err := tx.Validate(); err != nil {
		return 0, err
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO transactions (date, amount_cents, category_id, transaction_type, notes)
		VALUES (?, ?, ?, ?, ?)`,
		tx.Date.String(), tx.Amount.Cents, tx.CategoryID, string(tx.Type), tx.Notes)
	if err != nil {
		return 0, core.StoreErr("insert transaction", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, core.StoreErr("transaction id", err)
	}

	slog.InfoContext(ctx, "Transaction saved",
		"id", id,
		"date", tx.Date.String(),
		"amount_cents", tx.Amount.Cents,
		"transaction_type", string(tx.Type))
	return id, nil
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id int64) error {
	// deleting an absent id is a no-op, not an error
	if _, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id); err != nil {
		return core.StoreErr("delete transaction", err)
	}
	return nil
}

func (r *SQLiteRepository) ListTransactions(ctx context.Context, limit int, f ledger.TransactionFilter) ([]core.Transaction, error) {
	q := `SELECT id, date, amount_cents, category_id, transaction_type, notes, created_at
	      FROM transactions WHERE 1=1`
	var args []any
	if f.Type != "" {
		q += ` AND transaction_type = ?`
		args = append(args, string(f.Type))
	}
	if f.MonthPrefix != "" {
		q += ` AND date LIKE ?`
		args = append(args, f.MonthPrefix+"%")
	}
	q += ` ORDER BY date DESC, id DESC`
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, core.StoreErr("list transactions", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		var (
			tx        core.Transaction
			date      string
			typ       string
			createdAt string
		)
		if err := rows.Scan(&tx.ID, &date, &tx.Amount.Cents, &tx.CategoryID, &typ, &tx.Notes, &createdAt); err != nil {
			return nil, core.StoreErr("scan transaction", err)
		}
		if tx.Date, err = core.ParseDate(date); err != nil {
			return nil, core.StoreErr("parse stored date", err)
		}
		tx.Type = core.TransactionType(typ)
		if t, err := time.Parse("2006-01-02 15:04:05", createdAt); err == nil {
			tx.CreatedAt = t
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) AddRecurringBill(ctx context.Context, bill core.RecurringBill) (int64, error) {
	if err := bill.Validate(); err != nil {
		return 0, err
	}
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO recurring_bills (name, amount_cents, due_day, category_id)
		VALUES (?, ?, ?, ?)`,
		bill.Name, bill.Amount.Cents, bill.DueDay, bill.CategoryID)
	if err != nil {
		return 0, core.StoreErr("insert recurring bill", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, core.StoreErr("recurring bill id", err)
	}
	return id, nil
}

func (r *SQLiteRepository) ListRecurringBills(ctx context.Context) ([]core.RecurringBill, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, amount_cents, due_day, category_id, is_active
		FROM recurring_bills ORDER BY due_day ASC, id ASC`)
	if err != nil {
		return nil, core.StoreErr("list recurring bills", err)
	}
	defer rows.Close()

	var out []core.RecurringBill
	for rows.Next() {
		var b core.RecurringBill
		var active int
		if err := rows.Scan(&b.ID, &b.Name, &b.Amount.Cents, &b.DueDay, &b.CategoryID, &active); err != nil {
			return nil, core.StoreErr("scan recurring bill", err)
		}
		b.IsActive = active != 0
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) AddSavingsGoal(ctx context.Context, goal core.SavingsGoal) (int64, error) {
	if err := goal.Validate(); err != nil {
		return 0, err
	}
	var deadline any
	if !goal.Deadline.IsZero() {
		deadline = goal.Deadline.String()
	}
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO savings_goals (name, target_cents, deadline) VALUES (?, ?, ?)`,
		goal.Name, goal.Target.Cents, deadline)
	if err != nil {
		return 0, core.StoreErr("insert savings goal", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, core.StoreErr("savings goal id", err)
	}
	return id, nil
}

func (r *SQLiteRepository) ListSavingsGoals(ctx context.Context) ([]core.SavingsGoal, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, target_cents, current_cents, deadline, is_active
		FROM savings_goals ORDER BY is_active DESC, id DESC`)
	if err != nil {
		return nil, core.StoreErr("list savings goals", err)
	}
	defer rows.Close()

	var out []core.SavingsGoal
	for rows.Next() {
		var (
			g        core.SavingsGoal
			deadline sql.NullString
			active   int
		)
		if err := rows.Scan(&g.ID, &g.Name, &g.Target.Cents, &g.Current.Cents, &deadline, &active); err != nil {
			return nil, core.StoreErr("scan savings goal", err)
		}
		if deadline.Valid {
			if d, err := core.ParseDate(deadline.String); err == nil {
				g.Deadline = d
			}
		}
		g.IsActive = active != 0
		out = append(out, g)
	}
	return out, rows.Err()
}

// ApplyToSavingsGoal increments the goal in a single UPDATE, so concurrent
// callers cannot lose updates.
func (r *SQLiteRepository) ApplyToSavingsGoal(ctx context.Context, id int64, delta core.Money) (core.Money, error) {
	if err := delta.Validate(); err != nil {
		return core.Money{}, err
	}

	var newAmount core.Money
	err := r.db.QueryRowContext(ctx, `
		UPDATE savings_goals SET current_cents = current_cents + ?
		WHERE id = ? RETURNING current_cents`,
		delta.Cents, id).Scan(&newAmount.Cents)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Money{}, core.ErrNotFound
	}
	if err != nil {
		return core.Money{}, core.StoreErr("apply to savings goal", err)
	}

	slog.InfoContext(ctx, "Savings goal updated",
		"id", id, "delta_cents", delta.Cents, "current_cents", newAmount.Cents)
	return newAmount, nil
}

func (r *SQLiteRepository) ToggleGoalActive(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE savings_goals SET is_active = 1 - is_active WHERE id = ?`, id)
	if err != nil {
		return core.StoreErr("toggle savings goal", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) DeleteSavingsGoal(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM savings_goals WHERE id = ?`, id); err != nil {
		return core.StoreErr("delete savings goal", err)
	}
	return nil
}

func (r *SQLiteRepository) MonthlySummary(ctx context.Context, window *ledger.Month) (core.Summary, error) {
	q := `SELECT transaction_type, COALESCE(SUM(amount_cents), 0) FROM transactions`
	var args []any
	if window != nil {
		start, end := core.MonthWindow(window.Year, window.Month)
		q += ` WHERE date >= ? AND date < ?`
		args = append(args, start.String(), end.String())
	}
	q += ` GROUP BY transaction_type`

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return core.Summary{}, core.StoreErr("monthly summary", err)
	}
	defer rows.Close()

	var sum core.Summary
	for rows.Next() {
		var typ string
		var cents int64
		if err := rows.Scan(&typ, &cents); err != nil {
			return core.Summary{}, core.StoreErr("scan summary", err)
		}
		switch core.TransactionType(typ) {
		case core.Income:
			sum.Income.Cents = cents
		case core.Expense:
			sum.Expense.Cents = cents
		}
	}
	return sum, rows.Err()
}

func (r *SQLiteRepository) CategoryBreakdown(ctx context.Context, t core.TransactionType, window *ledger.Month) ([]core.CategoryTotal, error) {
	q := `SELECT c.name, c.icon, SUM(tx.amount_cents) AS total
	      FROM transactions tx JOIN categories c ON c.id = tx.category_id
	      WHERE tx.transaction_type = ?`
	args := []any{string(t)}
	if window != nil {
		start, end := core.MonthWindow(window.Year, window.Month)
		q += ` AND tx.date >= ? AND tx.date < ?`
		args = append(args, start.String(), end.String())
	}
	q += ` GROUP BY c.id ORDER BY total DESC`

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, core.StoreErr("category breakdown", err)
	}
	defer rows.Close()

	var out []core.CategoryTotal
	for rows.Next() {
		var ct core.CategoryTotal
		if err := rows.Scan(&ct.Name, &ct.Icon, &ct.Total.Cents); err != nil {
			return nil, core.StoreErr("scan breakdown", err)
		}
		out = append(out, ct)
	}
	return out, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

var _ ledger.Ledger = (*SQLiteRepository)(nil)
