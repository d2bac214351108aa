// Package supabase implements the ledger contract against a hosted
// Supabase project through its PostgREST API.
package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/supabase-community/supabase-go"

	"fintrack/internal/core"
	"fintrack/internal/ledger"
)

const casRetries = 3

// Repository talks to the categories, transactions, recurring_bills and
// savings_goals tables. Amounts are stored as numeric dollars on the
// hosted side and converted to cents at the boundary.
type Repository struct {
	client *supabase.Client
}

func NewRepository(url, key string) (*Repository, error) {
	client, err := supabase.NewClient(url, key, &supabase.ClientOptions{})
	if err != nil {
		return nil, fmt.Errorf("create supabase client: %w", err)
	}
	r := &Repository{client: client}
	if err := r.seedCategories(context.Background()); err != nil {
		return nil, err
	}
	return r, nil
}

type categoryRow struct {
	ID       int64  `json:"id,omitempty"`
	Name     string `json:"name"`
	Icon     string `json:"icon"`
	IsIncome bool   `json:"is_income"`
}

type transactionRow struct {
	ID         int64   `json:"id,omitempty"`
	Date       string  `json:"date"`
	Amount     float64 `json:"amount"`
	CategoryID *int64  `json:"category_id"`
	Type       string  `json:"transaction_type"`
	Notes      string  `json:"notes"`
	CreatedAt  string  `json:"created_at,omitempty"`
}

type billRow struct {
	ID         int64   `json:"id,omitempty"`
	Name       string  `json:"name"`
	Amount     float64 `json:"amount"`
	DueDay     int     `json:"due_day"`
	CategoryID *int64  `json:"category_id"`
	IsActive   bool    `json:"is_active"`
}

type goalRow struct {
	ID       int64   `json:"id,omitempty"`
	Name     string  `json:"name"`
	Target   float64 `json:"target_amount"`
	Current  float64 `json:"current_amount"`
	Deadline *string `json:"deadline"`
	IsActive bool    `json:"is_active"`
}

func (r *Repository) seedCategories(ctx context.Context) error {
	existing, err := r.fetchCategories(ctx, nil)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}
	rows := make([]categoryRow, 0, len(core.DefaultCategories()))
	for _, c := range core.DefaultCategories() {
		rows = append(rows, categoryRow{Name: c.Name, Icon: c.Icon, IsIncome: c.IsIncome})
	}
	if _, _, err := r.client.From("categories").Insert(rows, false, "", "", "").Execute(); err != nil {
		return core.StoreErr("seed categories", err)
	}
	return nil
}

func (r *Repository) fetchCategories(ctx context.Context, typeFilter *core.TransactionType) ([]core.Category, error) {
	query := r.client.From("categories").Select("*", "", false)
	if typeFilter != nil {
		query = query.Eq("is_income", strconv.FormatBool(*typeFilter == core.Income))
	}
	data, _, err := query.Order("id.asc", nil).Execute()
	if err != nil {
		return nil, core.StoreErr("list categories", err)
	}
	var rows []categoryRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, core.StoreErr("parse categories", err)
	}
	cats := make([]core.Category, 0, len(rows))
	for _, row := range rows {
		cats = append(cats, core.Category{ID: row.ID, Name: row.Name, Icon: row.Icon, IsIncome: row.IsIncome})
	}
	return cats, nil
}

func (r *Repository) Categories(ctx context.Context, typeFilter *core.TransactionType) ([]core.Category, error) {
	return r.fetchCategories(ctx, typeFilter)
}

func (r *Repository) DeleteCategory(ctx context.Context, id int64) error {
	for _, table := range []string{"transactions", "recurring_bills"} {
		data, _, err := r.client.From(table).
			Select("id", "", false).
			Eq("category_id", strconv.FormatInt(id, 10)).
			Limit(1, "").
			Execute()
		if err != nil {
			return core.StoreErr("check category references", err)
		}
		var refs []struct {
			ID int64 `json:"id"`
		}
		if err := json.Unmarshal(data, &refs); err != nil {
			return core.StoreErr("parse category references", err)
		}
		if len(refs) > 0 {
			return core.ErrCategoryInUse
		}
	}
	_, _, err := r.client.From("categories").
		Delete("", "").
		Eq("id", strconv.FormatInt(id, 10)).
		Execute()
	if err != nil {
		return core.StoreErr("delete category", err)
	}
	return nil
}

func (r *Repository) AddTransaction(ctx context.Context, tx core.Transaction) (int64, error) {
	if err := tx.Validate(); err != nil {
		return 0, err
	}
	row := transactionRow{
		Date:       tx.Date.String(),
		Amount:     tx.Amount.Dollars(),
		CategoryID: tx.CategoryID,
		Type:       string(tx.Type),
		Notes:      tx.Notes,
	}
	data, _, err := r.client.From("transactions").Insert(row, false, "", "representation", "").Execute()
	if err != nil {
		return 0, core.StoreErr("insert transaction", err)
	}
	return insertedID(data, "transaction")
}

func (r *Repository) DeleteTransaction(ctx context.Context, id int64) error {
	_, _, err := r.client.From("transactions").
		Delete("", "").
		Eq("id", strconv.FormatInt(id, 10)).
		Execute()
	if err != nil {
		return core.StoreErr("delete transaction", err)
	}
	return nil
}

func (r *Repository) ListTransactions(ctx context.Context, limit int, f ledger.TransactionFilter) ([]core.Transaction, error) {
	query := r.client.From("transactions").Select("*", "", false)
	if f.Type != "" {
		query = query.Eq("transaction_type", string(f.Type))
	}
	if f.MonthPrefix != "" {
		start, end, err := prefixWindow(f.MonthPrefix)
		if err != nil {
			return nil, err
		}
		query = query.Gte("date", start).Lt("date", end)
	}
	query = query.Order("date.desc", nil).Order("id.desc", nil)
	if limit > 0 {
		query = query.Limit(limit, "")
	}
	data, _, err := query.Execute()
	if err != nil {
		return nil, core.StoreErr("list transactions", err)
	}
	var rows []transactionRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, core.StoreErr("parse transactions", err)
	}
	txs := make([]core.Transaction, 0, len(rows))
	for _, row := range rows {
		tx, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	return txs, nil
}

func (row transactionRow) toDomain() (core.Transaction, error) {
	d, err := core.ParseDate(row.Date)
	if err != nil {
		return core.Transaction{}, core.StoreErr("parse transaction date", err)
	}
	return core.Transaction{
		ID:         row.ID,
		Date:       d,
		Amount:     core.MoneyFromDollars(row.Amount),
		CategoryID: row.CategoryID,
		Type:       core.TransactionType(row.Type),
		Notes:      row.Notes,
	}, nil
}

func (r *Repository) AddRecurringBill(ctx context.Context, bill core.RecurringBill) (int64, error) {
	if err := bill.Validate(); err != nil {
		return 0, err
	}
	row := billRow{
		Name:       bill.Name,
		Amount:     bill.Amount.Dollars(),
		DueDay:     bill.DueDay,
		CategoryID: bill.CategoryID,
		IsActive:   true,
	}
	data, _, err := r.client.From("recurring_bills").Insert(row, false, "", "representation", "").Execute()
	if err != nil {
		return 0, core.StoreErr("insert recurring bill", err)
	}
	return insertedID(data, "recurring bill")
}

func (r *Repository) ListRecurringBills(ctx context.Context) ([]core.RecurringBill, error) {
	data, _, err := r.client.From("recurring_bills").
		Select("*", "", false).
		Order("due_day.asc", nil).
		Order("id.asc", nil).
		Execute()
	if err != nil {
		return nil, core.StoreErr("list recurring bills", err)
	}
	var rows []billRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, core.StoreErr("parse recurring bills", err)
	}
	bills := make([]core.RecurringBill, 0, len(rows))
	for _, row := range rows {
		bills = append(bills, core.RecurringBill{
			ID:         row.ID,
			Name:       row.Name,
			Amount:     core.MoneyFromDollars(row.Amount),
			DueDay:     row.DueDay,
			CategoryID: row.CategoryID,
			IsActive:   row.IsActive,
		})
	}
	return bills, nil
}

func (r *Repository) AddSavingsGoal(ctx context.Context, goal core.SavingsGoal) (int64, error) {
	if err := goal.Validate(); err != nil {
		return 0, err
	}
	row := goalRow{
		Name:     goal.Name,
		Target:   goal.Target.Dollars(),
		IsActive: true,
	}
	if !goal.Deadline.IsZero() {
		s := goal.Deadline.String()
		row.Deadline = &s
	}
	data, _, err := r.client.From("savings_goals").Insert(row, false, "", "representation", "").Execute()
	if err != nil {
		return 0, core.StoreErr("insert savings goal", err)
	}
	return insertedID(data, "savings goal")
}

func (r *Repository) ListSavingsGoals(ctx context.Context) ([]core.SavingsGoal, error) {
	data, _, err := r.client.From("savings_goals").
		Select("*", "", false).
		Order("is_active.desc", nil).
		Order("id.desc", nil).
		Execute()
	if err != nil {
		return nil, core.StoreErr("list savings goals", err)
	}
	var rows []goalRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, core.StoreErr("parse savings goals", err)
	}
	goals := make([]core.SavingsGoal, 0, len(rows))
	for _, row := range rows {
		g := core.SavingsGoal{
			ID:       row.ID,
			Name:     row.Name,
			Target:   core.MoneyFromDollars(row.Target),
			Current:  core.MoneyFromDollars(row.Current),
			IsActive: row.IsActive,
		}
		if row.Deadline != nil && *row.Deadline != "" {
			d, err := core.ParseDate(*row.Deadline)
			if err != nil {
				return nil, core.StoreErr("parse goal deadline", err)
			}
			g.Deadline = d
		}
		goals = append(goals, g)
	}
	return goals, nil
}

// ApplyToSavingsGoal has no server-side increment through PostgREST, so it
// does a compare-and-swap on the previous current_amount and retries on
// concurrent writers.
func (r *Repository) ApplyToSavingsGoal(ctx context.Context, id int64, delta core.Money) (core.Money, error) {
	if err := delta.Validate(); err != nil {
		return core.Money{}, err
	}
	for attempt := 0; attempt < casRetries; attempt++ {
		cur, err := r.fetchGoalCurrent(ctx, id)
		if err != nil {
			return core.Money{}, err
		}
		next := core.Money{Cents: core.MoneyFromDollars(cur).Cents + delta.Cents}
		data, _, err := r.client.From("savings_goals").
			Update(map[string]any{"current_amount": next.Dollars()}, "representation", "").
			Eq("id", strconv.FormatInt(id, 10)).
			Eq("current_amount", formatAmount(cur)).
			Execute()
		if err != nil {
			return core.Money{}, core.StoreErr("update savings goal", err)
		}
		var rows []goalRow
		if err := json.Unmarshal(data, &rows); err != nil {
			return core.Money{}, core.StoreErr("parse updated goal", err)
		}
		if len(rows) > 0 {
			return core.MoneyFromDollars(rows[0].Current), nil
		}
		// another writer moved current_amount between read and update
	}
	return core.Money{}, core.StoreErr("apply to savings goal", fmt.Errorf("goal %d: concurrent update retries exhausted", id))
}

func (r *Repository) fetchGoalCurrent(ctx context.Context, id int64) (float64, error) {
	data, _, err := r.client.From("savings_goals").
		Select("current_amount", "", false).
		Eq("id", strconv.FormatInt(id, 10)).
		Execute()
	if err != nil {
		return 0, core.StoreErr("fetch savings goal", err)
	}
	var rows []struct {
		Current float64 `json:"current_amount"`
	}
	if err := json.Unmarshal(data, &rows); err != nil {
		return 0, core.StoreErr("parse savings goal", err)
	}
	if len(rows) == 0 {
		return 0, core.ErrNotFound
	}
	return rows[0].Current, nil
}

func (r *Repository) ToggleGoalActive(ctx context.Context, id int64) error {
	data, _, err := r.client.From("savings_goals").
		Select("is_active", "", false).
		Eq("id", strconv.FormatInt(id, 10)).
		Execute()
	if err != nil {
		return core.StoreErr("fetch savings goal", err)
	}
	var rows []struct {
		IsActive bool `json:"is_active"`
	}
	if err := json.Unmarshal(data, &rows); err != nil {
		return core.StoreErr("parse savings goal", err)
	}
	if len(rows) == 0 {
		return core.ErrNotFound
	}
	_, _, err = r.client.From("savings_goals").
		Update(map[string]any{"is_active": !rows[0].IsActive}, "", "").
		Eq("id", strconv.FormatInt(id, 10)).
		Execute()
	if err != nil {
		return core.StoreErr("toggle savings goal", err)
	}
	return nil
}

func (r *Repository) DeleteSavingsGoal(ctx context.Context, id int64) error {
	_, _, err := r.client.From("savings_goals").
		Delete("", "").
		Eq("id", strconv.FormatInt(id, 10)).
		Execute()
	if err != nil {
		return core.StoreErr("delete savings goal", err)
	}
	return nil
}

// MonthlySummary and CategoryBreakdown aggregate client side. PostgREST
// exposes no GROUP BY, and window row counts stay small for one month.
func (r *Repository) MonthlySummary(ctx context.Context, window *ledger.Month) (core.Summary, error) {
	rows, err := r.fetchWindow(ctx, window)
	if err != nil {
		return core.Summary{}, err
	}
	var s core.Summary
	for _, row := range rows {
		cents := core.MoneyFromDollars(row.Amount).Cents
		switch core.TransactionType(row.Type) {
		case core.Income:
			s.Income.Cents += cents
		case core.Expense:
			s.Expense.Cents += cents
		}
	}
	return s, nil
}

func (r *Repository) CategoryBreakdown(ctx context.Context, t core.TransactionType, window *ledger.Month) ([]core.CategoryTotal, error) {
	rows, err := r.fetchWindow(ctx, window)
	if err != nil {
		return nil, err
	}
	cats, err := r.fetchCategories(ctx, nil)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]core.Category, len(cats))
	for _, c := range cats {
		byID[c.ID] = c
	}

	totals := map[int64]int64{}
	for _, row := range rows {
		if core.TransactionType(row.Type) != t || row.CategoryID == nil {
			continue
		}
		totals[*row.CategoryID] += core.MoneyFromDollars(row.Amount).Cents
	}
	out := make([]core.CategoryTotal, 0, len(totals))
	for id, cents := range totals {
		c, ok := byID[id]
		if !ok {
			continue
		}
		out = append(out, core.CategoryTotal{Name: c.Name, Icon: c.Icon, Total: core.Money{Cents: cents}})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total.Cents != out[j].Total.Cents {
			return out[i].Total.Cents > out[j].Total.Cents
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (r *Repository) fetchWindow(ctx context.Context, window *ledger.Month) ([]transactionRow, error) {
	query := r.client.From("transactions").Select("amount,category_id,transaction_type", "", false)
	if window != nil {
		start, end := core.MonthWindow(window.Year, window.Month)
		query = query.Gte("date", start.String()).Lt("date", end.String())
	}
	data, _, err := query.Execute()
	if err != nil {
		return nil, core.StoreErr("fetch transactions", err)
	}
	var rows []transactionRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, core.StoreErr("parse transactions", err)
	}
	return rows, nil
}

func prefixWindow(prefix string) (start, end string, err error) {
	parts := strings.SplitN(prefix, "-", 2)
	if len(parts) != 2 {
		return "", "", fmt.Errorf("%w: month prefix %q", core.ErrInvalidDate, prefix)
	}
	year, err := strconv.Atoi(parts[0])
	if err != nil {
		return "", "", fmt.Errorf("%w: month prefix %q", core.ErrInvalidDate, prefix)
	}
	month, err := strconv.Atoi(parts[1])
	if err != nil || month < 1 || month > 12 {
		return "", "", fmt.Errorf("%w: month prefix %q", core.ErrInvalidDate, prefix)
	}
	s, e := core.MonthWindow(year, month)
	return s.String(), e.String(), nil
}

func insertedID(data []byte, entity string) (int64, error) {
	var rows []struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal(data, &rows); err != nil {
		return 0, core.StoreErr("parse inserted "+entity, err)
	}
	if len(rows) == 0 {
		return 0, core.StoreErr("insert "+entity, fmt.Errorf("no row returned"))
	}
	return rows[0].ID, nil
}

// formatAmount renders a dollar amount the way PostgREST compares numerics.
func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

var _ ledger.Ledger = (*Repository)(nil)
