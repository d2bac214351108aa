// Package memory implements the ledger in process memory. It backs tests
// and makes the server runnable without a database or network.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/ledger"
)

type Store struct {
	mu sync.Mutex

	nextID     map[string]int64
	categories []core.Category
	txs        []core.Transaction
	bills      []core.RecurringBill
	goals      []core.SavingsGoal
}

// NewStore returns a store pre-seeded with the default categories.
func NewStore() *Store {
	s := &Store{nextID: map[string]int64{}}
	for _, c := range core.DefaultCategories() {
		c.ID = s.id("categories")
		s.categories = append(s.categories, c)
	}
	return s
}

func (s *Store) id(table string) int64 {
	s.nextID[table]++
	return s.nextID[table]
}

func (s *Store) Categories(_ context.Context, typeFilter *core.TransactionType) ([]core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]core.Category, 0, len(s.categories))
	for _, c := range s.categories {
		if typeFilter != nil && c.IsIncome != (*typeFilter == core.Income) {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (s *Store) DeleteCategory(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, tx := range s.txs {
		if tx.CategoryID != nil && *tx.CategoryID == id {
			return core.ErrCategoryInUse
		}
	}
	for _, b := range s.bills {
		if b.CategoryID != nil && *b.CategoryID == id {
			return core.ErrCategoryInUse
		}
	}
	for i, c := range s.categories {
		if c.ID == id {
			s.categories = append(s.categories[:i], s.categories[i+1:]...)
			return nil
		}
	}
	return nil
}

func (s *Store) AddTransaction(_ context.Context, tx core.Transaction) (int64, error) {
	if err := tx.Validate(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx.ID = s.id("transactions")
	tx.CreatedAt = time.Now().UTC()
	s.txs = append(s.txs, tx)
	return tx.ID, nil
}

func (s *Store) DeleteTransaction(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, tx := range s.txs {
		if tx.ID == id {
			s.txs = append(s.txs[:i], s.txs[i+1:]...)
			return nil
		}
	}
	return nil // absent id is a no-op
}

func (s *Store) ListTransactions(_ context.Context, limit int, f ledger.TransactionFilter) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]core.Transaction, 0, len(s.txs))
	for _, tx := range s.txs {
		if f.Type != "" && tx.Type != f.Type {
			continue
		}
		if f.MonthPrefix != "" && !strings.HasPrefix(tx.Date.String(), f.MonthPrefix) {
			continue
		}
		out = append(out, tx)
	}
	sort.Slice(out, func(i, j int) bool {
		di, dj := out[i].Date.String(), out[j].Date.String()
		if di != dj {
			return di > dj
		}
		return out[i].ID > out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) AddRecurringBill(_ context.Context, bill core.RecurringBill) (int64, error) {
	if err := bill.Validate(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	bill.ID = s.id("recurring_bills")
	bill.IsActive = true
	s.bills = append(s.bills, bill)
	return bill.ID, nil
}

func (s *Store) ListRecurringBills(_ context.Context) ([]core.RecurringBill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := append([]core.RecurringBill(nil), s.bills...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].DueDay < out[j].DueDay })
	return out, nil
}

func (s *Store) AddSavingsGoal(_ context.Context, goal core.SavingsGoal) (int64, error) {
	if err := goal.Validate(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	goal.ID = s.id("savings_goals")
	goal.Current = core.Money{}
	goal.IsActive = true
	s.goals = append(s.goals, goal)
	return goal.ID, nil
}

func (s *Store) ListSavingsGoals(_ context.Context) ([]core.SavingsGoal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := append([]core.SavingsGoal(nil), s.goals...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].IsActive != out[j].IsActive {
			return out[i].IsActive
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (s *Store) ApplyToSavingsGoal(_ context.Context, id int64, delta core.Money) (core.Money, error) {
	if err := delta.Validate(); err != nil {
		return core.Money{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.goals {
		if s.goals[i].ID == id {
			s.goals[i].Current.Cents += delta.Cents
			return s.goals[i].Current, nil
		}
	}
	return core.Money{}, core.ErrNotFound
}

func (s *Store) ToggleGoalActive(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.goals {
		if s.goals[i].ID == id {
			s.goals[i].IsActive = !s.goals[i].IsActive
			return nil
		}
	}
	return core.ErrNotFound
}

func (s *Store) DeleteSavingsGoal(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, g := range s.goals {
		if g.ID == id {
			s.goals = append(s.goals[:i], s.goals[i+1:]...)
			return nil
		}
	}
	return nil
}

func (s *Store) MonthlySummary(_ context.Context, window *ledger.Month) (core.Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var sum core.Summary
	for _, tx := range s.txs {
		if !inWindow(tx.Date, window) {
			continue
		}
		if tx.Type == core.Income {
			sum.Income.Cents += tx.Amount.Cents
		} else {
			sum.Expense.Cents += tx.Amount.Cents
		}
	}
	return sum, nil
}

func (s *Store) CategoryBreakdown(_ context.Context, t core.TransactionType, window *ledger.Month) ([]core.CategoryTotal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	byID := map[int64]*core.CategoryTotal{}
	var order []int64
	for _, tx := range s.txs {
		if tx.Type != t || tx.CategoryID == nil || !inWindow(tx.Date, window) {
			continue
		}
		id := *tx.CategoryID
		if byID[id] == nil {
			cat, ok := s.category(id)
			if !ok {
				continue
			}
			byID[id] = &core.CategoryTotal{Name: cat.Name, Icon: cat.Icon}
			order = append(order, id)
		}
		byID[id].Total.Cents += tx.Amount.Cents
	}

	out := make([]core.CategoryTotal, 0, len(order))
	for _, id := range order {
		out = append(out, *byID[id])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Total.Cents > out[j].Total.Cents })
	return out, nil
}

func (s *Store) category(id int64) (core.Category, bool) {
	for _, c := range s.categories {
		if c.ID == id {
			return c, true
		}
	}
	return core.Category{}, false
}

func inWindow(d core.Date, window *ledger.Month) bool {
	if window == nil {
		return true
	}
	start, end := core.MonthWindow(window.Year, window.Month)
	key := d.String()
	return key >= start.String() && key < end.String()
}

var _ ledger.Ledger = (*Store)(nil)
