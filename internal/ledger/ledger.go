// Package ledger defines the store contract both backends implement, plus
// the caching and event-publishing decorators composed in front of them.
package ledger

import (
	"context"

	"fintrack/internal/core"
)

// Month names a calendar-month window. A nil *Month means all time.
type Month struct {
	Year  int
	Month int
}

// TransactionFilter narrows ListTransactions. Zero fields are ignored;
// set fields are conjunctive.
type TransactionFilter struct {
	Type        core.TransactionType
	MonthPrefix string // YYYY-MM
}

// Ledger is the storage contract. Writes return errors wrapping
// core.ErrStore when the backend is unreachable and core.ErrValidation
// for bad input; deletes are idempotent.
type Ledger interface {
	// Categories lists categories, optionally restricted to income or
	// expense ones, in insertion order.
	Categories(ctx context.Context, typeFilter *core.TransactionType) ([]core.Category, error)
	// DeleteCategory removes an unreferenced category. It fails with
	// core.ErrCategoryInUse while transactions or bills still point at it.
	DeleteCategory(ctx context.Context, id int64) error

	AddTransaction(ctx context.Context, tx core.Transaction) (int64, error)
	DeleteTransaction(ctx context.Context, id int64) error
	// ListTransactions returns at most limit transactions ordered by
	// (date desc, id desc).
	ListTransactions(ctx context.Context, limit int, f TransactionFilter) ([]core.Transaction, error)

	AddRecurringBill(ctx context.Context, bill core.RecurringBill) (int64, error)
	// ListRecurringBills returns bills ordered by due day ascending.
	ListRecurringBills(ctx context.Context) ([]core.RecurringBill, error)

	AddSavingsGoal(ctx context.Context, goal core.SavingsGoal) (int64, error)
	// ListSavingsGoals returns goals, active first, newest first.
	ListSavingsGoals(ctx context.Context) ([]core.SavingsGoal, error)
	// ApplyToSavingsGoal atomically adds delta (> 0) to a goal's current
	// amount and returns the new amount.
	ApplyToSavingsGoal(ctx context.Context, id int64, delta core.Money) (core.Money, error)
	ToggleGoalActive(ctx context.Context, id int64) error
	DeleteSavingsGoal(ctx context.Context, id int64) error

	// MonthlySummary totals income and expense over the window, or over
	// all time when window is nil.
	MonthlySummary(ctx context.Context, window *Month) (core.Summary, error)
	// CategoryBreakdown groups one transaction type by category within the
	// optional window, sorted by total descending.
	CategoryBreakdown(ctx context.Context, t core.TransactionType, window *Month) ([]core.CategoryTotal, error)
}
