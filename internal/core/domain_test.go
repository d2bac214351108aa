package core

import (
	"errors"
	"testing"
	"time"
)

func TestTransactionValidate(t *testing.T) {
	catID := int64(3)
	valid := Transaction{
		Date:       NewDate(2024, 6, 15),
		Amount:     Money{Cents: 5420},
		CategoryID: &catID,
		Type:       Expense,
		Notes:      "groceries",
	}

	tests := []struct {
		name    string
		mutate  func(tx *Transaction)
		wantErr error
	}{
		{name: "valid", mutate: func(tx *Transaction) {}},
		{name: "zero amount", mutate: func(tx *Transaction) { tx.Amount = Money{} }, wantErr: ErrInvalidAmount},
		{name: "negative amount", mutate: func(tx *Transaction) { tx.Amount = Money{Cents: -100} }, wantErr: ErrInvalidAmount},
		{name: "zero date", mutate: func(tx *Transaction) { tx.Date = Date{} }, wantErr: ErrInvalidDate},
		{name: "bad type", mutate: func(tx *Transaction) { tx.Type = "transfer" }, wantErr: ErrInvalidType},
		{name: "nil category is allowed", mutate: func(tx *Transaction) { tx.CategoryID = nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := valid
			tt.mutate(&tx)
			err := tx.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("Validate() unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
			if !errors.Is(err, ErrValidation) {
				t.Errorf("Validate() = %v, should wrap ErrValidation", err)
			}
		})
	}
}

func TestRecurringBillValidate(t *testing.T) {
	valid := RecurringBill{Name: "Rent", Amount: Money{Cents: 120000}, DueDay: 1}
	if err := valid.Validate(); err != nil {
		t.Fatalf("Validate() unexpected error: %v", err)
	}

	for _, day := range []int{0, 29, 31, -1} {
		b := valid
		b.DueDay = day
		if !errors.Is(b.Validate(), ErrInvalidDueDay) {
			t.Errorf("DueDay %d should be rejected", day)
		}
	}

	b := valid
	b.Name = "  "
	if !errors.Is(b.Validate(), ErrEmptyName) {
		t.Error("blank name should be rejected")
	}
}

func TestSavingsGoalValidate(t *testing.T) {
	g := SavingsGoal{Name: "Emergency Fund", Target: Money{Cents: 500000}}
	if err := g.Validate(); err != nil {
		t.Fatalf("Validate() unexpected error: %v", err)
	}
	g.Deadline = NewDate(2025, 12, 31)
	if err := g.Validate(); err != nil {
		t.Fatalf("Validate() with deadline unexpected error: %v", err)
	}
	g.Target = Money{}
	if !errors.Is(g.Validate(), ErrInvalidAmount) {
		t.Error("zero target should be rejected")
	}
}

func TestMonthWindow(t *testing.T) {
	tests := []struct {
		year, month int
		wantStart   string
		wantEnd     string
	}{
		{2024, 6, "2024-06-01", "2024-07-01"},
		{2024, 12, "2024-12-01", "2025-01-01"},
		{2024, 1, "2024-01-01", "2024-02-01"},
	}
	for _, tt := range tests {
		start, end := MonthWindow(tt.year, tt.month)
		if start.String() != tt.wantStart || end.String() != tt.wantEnd {
			t.Errorf("MonthWindow(%d, %d) = [%s, %s), want [%s, %s)",
				tt.year, tt.month, start, end, tt.wantStart, tt.wantEnd)
		}
	}
}

func TestDateRoundTrip(t *testing.T) {
	d, err := ParseDate("2024-06-15")
	if err != nil {
		t.Fatalf("ParseDate: %v", err)
	}
	if d.String() != "2024-06-15" {
		t.Errorf("String() = %s", d.String())
	}
	if d.MonthPrefix() != "2024-06" {
		t.Errorf("MonthPrefix() = %s", d.MonthPrefix())
	}
	if _, err := ParseDate("15/06/2024"); !errors.Is(err, ErrInvalidDate) {
		t.Error("non-ISO date should be rejected")
	}
	if d.Time.Hour() != 0 || d.Time.Location() != time.UTC {
		t.Error("parsed date should be midnight UTC")
	}
}
