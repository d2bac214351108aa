package ledger

import (
	"context"
	"fmt"
	"time"

	"fintrack/internal/cache"
	"fintrack/internal/core"
)

// Cached wraps a Ledger with a short-TTL read cache. Reads are keyed by
// operation and arguments; every write purges all caches before returning,
// so a caller that writes and then reads in the same session never sees a
// stale summary.
type Cached struct {
	next Ledger

	categories *cache.LRU[[]core.Category]
	txs        *cache.LRU[[]core.Transaction]
	bills      *cache.LRU[[]core.RecurringBill]
	goals      *cache.LRU[[]core.SavingsGoal]
	summaries  *cache.LRU[core.Summary]
	breakdowns *cache.LRU[[]core.CategoryTotal]
}

const cacheSize = 64

func NewCached(next Ledger, ttl time.Duration) *Cached {
	return &Cached{
		next:       next,
		categories: cache.NewLRU[[]core.Category](cacheSize, ttl),
		txs:        cache.NewLRU[[]core.Transaction](cacheSize, ttl),
		bills:      cache.NewLRU[[]core.RecurringBill](cacheSize, ttl),
		goals:      cache.NewLRU[[]core.SavingsGoal](cacheSize, ttl),
		summaries:  cache.NewLRU[core.Summary](cacheSize, ttl),
		breakdowns: cache.NewLRU[[]core.CategoryTotal](cacheSize, ttl),
	}
}

// InvalidateAll purges every read cache.
func (c *Cached) InvalidateAll() {
	c.categories.Purge()
	c.txs.Purge()
	c.bills.Purge()
	c.goals.Purge()
	c.summaries.Purge()
	c.breakdowns.Purge()
}

// CleanExpired drops expired entries across all caches.
func (c *Cached) CleanExpired() int {
	n := c.categories.CleanExpired()
	n += c.txs.CleanExpired()
	n += c.bills.CleanExpired()
	n += c.goals.CleanExpired()
	n += c.summaries.CleanExpired()
	n += c.breakdowns.CleanExpired()
	return n
}

func monthKey(w *Month) string {
	if w == nil {
		return "all"
	}
	return fmt.Sprintf("%04d-%02d", w.Year, w.Month)
}

func (c *Cached) Categories(ctx context.Context, typeFilter *core.TransactionType) ([]core.Category, error) {
	key := "all"
	if typeFilter != nil {
		key = string(*typeFilter)
	}
	if cats, ok := c.categories.Get(key); ok {
		return cats, nil
	}
	cats, err := c.next.Categories(ctx, typeFilter)
	if err != nil {
		return nil, err
	}
	c.categories.Set(key, cats)
	return cats, nil
}

func (c *Cached) ListTransactions(ctx context.Context, limit int, f TransactionFilter) ([]core.Transaction, error) {
	key := fmt.Sprintf("%d|%s|%s", limit, f.Type, f.MonthPrefix)
	if txs, ok := c.txs.Get(key); ok {
		return txs, nil
	}
	txs, err := c.next.ListTransactions(ctx, limit, f)
	if err != nil {
		return nil, err
	}
	c.txs.Set(key, txs)
	return txs, nil
}

func (c *Cached) ListRecurringBills(ctx context.Context) ([]core.RecurringBill, error) {
	if bills, ok := c.bills.Get("all"); ok {
		return bills, nil
	}
	bills, err := c.next.ListRecurringBills(ctx)
	if err != nil {
		return nil, err
	}
	c.bills.Set("all", bills)
	return bills, nil
}

func (c *Cached) ListSavingsGoals(ctx context.Context) ([]core.SavingsGoal, error) {
	if goals, ok := c.goals.Get("all"); ok {
		return goals, nil
	}
	goals, err := c.next.ListSavingsGoals(ctx)
	if err != nil {
		return nil, err
	}
	c.goals.Set("all", goals)
	return goals, nil
}

func (c *Cached) MonthlySummary(ctx context.Context, window *Month) (core.Summary, error) {
	key := monthKey(window)
	if s, ok := c.summaries.Get(key); ok {
		return s, nil
	}
	s, err := c.next.MonthlySummary(ctx, window)
	if err != nil {
		return core.Summary{}, err
	}
	c.summaries.Set(key, s)
	return s, nil
}

func (c *Cached) CategoryBreakdown(ctx context.Context, t core.TransactionType, window *Month) ([]core.CategoryTotal, error) {
	key := string(t) + "|" + monthKey(window)
	if b, ok := c.breakdowns.Get(key); ok {
		return b, nil
	}
	b, err := c.next.CategoryBreakdown(ctx, t, window)
	if err != nil {
		return nil, err
	}
	c.breakdowns.Set(key, b)
	return b, nil
}

func (c *Cached) AddTransaction(ctx context.Context, tx core.Transaction) (int64, error) {
	id, err := c.next.AddTransaction(ctx, tx)
	if err != nil {
		return 0, err
	}
	c.InvalidateAll()
	return id, nil
}

func (c *Cached) DeleteTransaction(ctx context.Context, id int64) error {
	if err := c.next.DeleteTransaction(ctx, id); err != nil {
		return err
	}
	c.InvalidateAll()
	return nil
}

func (c *Cached) AddRecurringBill(ctx context.Context, bill core.RecurringBill) (int64, error) {
	id, err := c.next.AddRecurringBill(ctx, bill)
	if err != nil {
		return 0, err
	}
	c.InvalidateAll()
	return id, nil
}

func (c *Cached) AddSavingsGoal(ctx context.Context, goal core.SavingsGoal) (int64, error) {
	id, err := c.next.AddSavingsGoal(ctx, goal)
	if err != nil {
		return 0, err
	}
	c.InvalidateAll()
	return id, nil
}

func (c *Cached) ApplyToSavingsGoal(ctx context.Context, id int64, delta core.Money) (core.Money, error) {
	newAmount, err := c.next.ApplyToSavingsGoal(ctx, id, delta)
	if err != nil {
		return core.Money{}, err
	}
	c.InvalidateAll()
	return newAmount, nil
}

func (c *Cached) ToggleGoalActive(ctx context.Context, id int64) error {
	if err := c.next.ToggleGoalActive(ctx, id); err != nil {
		return err
	}
	c.InvalidateAll()
	return nil
}

func (c *Cached) DeleteSavingsGoal(ctx context.Context, id int64) error {
	if err := c.next.DeleteSavingsGoal(ctx, id); err != nil {
		return err
	}
	c.InvalidateAll()
	return nil
}

func (c *Cached) DeleteCategory(ctx context.Context, id int64) error {
	if err := c.next.DeleteCategory(ctx, id); err != nil {
		return err
	}
	c.InvalidateAll()
	return nil
}

var _ Ledger = (*Cached)(nil)
