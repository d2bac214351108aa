package core

import (
	"fmt"
	"strings"
	"time"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

type (
	TransactionType string

	// Date is a calendar date. The time component is always midnight UTC.
	Date struct {
		time.Time
	}

	Category struct {
		ID       int64
		Name     string
		Icon     string
		IsIncome bool
	}

	Transaction struct {
		ID         int64
		Date       Date
		Amount     Money // always positive; sign is carried by Type
		CategoryID *int64
		Type       TransactionType
		Notes      string
		CreatedAt  time.Time
	}

	RecurringBill struct {
		ID         int64
		Name       string
		Amount     Money
		DueDay     int // 1..28, safe in every calendar month
		CategoryID *int64
		IsActive   bool
	}

	SavingsGoal struct {
		ID       int64
		Name     string
		Target   Money
		Current  Money
		Deadline Date // zero value means no deadline
		IsActive bool
	}

	// Summary holds income and expense totals for a time window.
	Summary struct {
		Income  Money
		Expense Money
	}

	// CategoryTotal is one row of a category breakdown.
	CategoryTotal struct {
		Name  string
		Icon  string
		Total Money
	}
)

func (t TransactionType) Valid() bool {
	return t == Income || t == Expense
}

// NewDate creates a Date from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w: %v", ErrInvalidDate, err)
	}
	return Date{Time: t}, nil
}

// String renders the date as YYYY-MM-DD, the wire and storage format.
func (d Date) String() string {
	return d.Format("2006-01-02")
}

// MonthPrefix renders the YYYY-MM prefix used by month filters.
func (d Date) MonthPrefix() string {
	return d.Format("2006-01")
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// MonthWindow returns the half-open window [year-month-01, next-month-01).
func MonthWindow(year, month int) (start, end Date) {
	start = NewDate(year, month, 1)
	end = Date{Time: start.AddDate(0, 1, 0)}
	return start, end
}

func (t Transaction) Validate() error {
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if !t.Type.Valid() {
		return ErrInvalidType
	}
	return nil
}

func (b RecurringBill) Validate() error {
	if strings.TrimSpace(b.Name) == "" {
		return ErrEmptyName
	}
	if err := b.Amount.Validate(); err != nil {
		return err
	}
	if b.DueDay < 1 || b.DueDay > 28 {
		return ErrInvalidDueDay
	}
	return nil
}

func (g SavingsGoal) Validate() error {
	if strings.TrimSpace(g.Name) == "" {
		return ErrEmptyName
	}
	if err := g.Target.Validate(); err != nil {
		return err
	}
	if !g.Deadline.IsZero() {
		if err := g.Deadline.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Balance returns income minus expense.
func (s Summary) Balance() Money {
	return Money{Cents: s.Income.Cents - s.Expense.Cents}
}
