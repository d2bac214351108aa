package reports_test

import (
	"context"
	"testing"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/memory"
	"fintrack/internal/reports"
)

func addTx(t *testing.T, store *memory.Store, date string, cents int64, typ core.TransactionType) {
	t.Helper()
	d, err := core.ParseDate(date)
	if err != nil {
		t.Fatalf("ParseDate(%s): %v", date, err)
	}
	if _, err := store.AddTransaction(context.Background(), core.Transaction{
		Date: d, Amount: core.Money{Cents: cents}, Type: typ,
	}); err != nil {
		t.Fatalf("AddTransaction: %v", err)
	}
}

func TestTrendCalendarStepping(t *testing.T) {
	store := memory.NewStore()
	addTx(t, store, "2024-04-10", 100, core.Expense)
	addTx(t, store, "2024-05-10", 200, core.Expense)
	addTx(t, store, "2024-06-10", 5000, core.Income)
	addTx(t, store, "2024-06-12", 300, core.Expense)

	engine := reports.NewEngine(store)
	ref := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)

	points, err := engine.Trend(context.Background(), 3, ref, reports.StepCalendar)
	if err != nil {
		t.Fatalf("Trend: %v", err)
	}
	if len(points) != 3 {
		t.Fatalf("got %d points, want 3", len(points))
	}

	wantLabels := []string{"Apr 2024", "May 2024", "Jun 2024"}
	wantExpense := []int64{100, 200, 300}
	for i, p := range points {
		if p.Label != wantLabels[i] {
			t.Errorf("point %d label = %s, want %s", i, p.Label, wantLabels[i])
		}
		if p.Expense.Cents != wantExpense[i] {
			t.Errorf("point %d expense = %d, want %d", i, p.Expense.Cents, wantExpense[i])
		}
	}
	if points[2].Net.Cents != 4700 {
		t.Errorf("june net = %d, want 4700", points[2].Net.Cents)
	}
}

func TestTrendApproximateSteppingDrifts(t *testing.T) {
	store := memory.NewStore()
	engine := reports.NewEngine(store)

	// 30-day steps from Mar 31 land in early March, not February
	ref := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)
	points, err := engine.Trend(context.Background(), 2, ref, reports.StepApproximate)
	if err != nil {
		t.Fatalf("Trend: %v", err)
	}
	if points[0].Label != "Mar 2024" || points[1].Label != "Mar 2024" {
		t.Errorf("labels = %s, %s; 30-day stepping should repeat March here",
			points[0].Label, points[1].Label)
	}

	cal, _ := engine.Trend(context.Background(), 2, ref, reports.StepCalendar)
	if cal[0].Label == cal[1].Label {
		t.Errorf("calendar stepping repeated %s", cal[0].Label)
	}
}

func TestAnnualReportTruncatesAtCurrentMonth(t *testing.T) {
	store := memory.NewStore()
	addTx(t, store, "2024-01-05", 1000, core.Income)
	addTx(t, store, "2024-06-05", 400, core.Expense)
	addTx(t, store, "2024-11-05", 9999, core.Expense) // future month, excluded

	engine := reports.NewEngine(store)
	today := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)

	rows, err := engine.AnnualReport(context.Background(), 2024, today)
	if err != nil {
		t.Fatalf("AnnualReport: %v", err)
	}
	if len(rows) != 6 {
		t.Fatalf("got %d rows, want 6 for a mid-June report", len(rows))
	}
	if rows[0].Label != "Jan 2024" || rows[0].Income.Cents != 1000 {
		t.Errorf("january row = %+v", rows[0])
	}
	if rows[5].Expense.Cents != 400 || rows[5].Net.Cents != -400 {
		t.Errorf("june row = %+v", rows[5])
	}
}

func TestAnnualReportPastAndFutureYears(t *testing.T) {
	store := memory.NewStore()
	addTx(t, store, "2023-12-05", 700, core.Expense)

	engine := reports.NewEngine(store)
	today := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)

	rows, err := engine.AnnualReport(context.Background(), 2023, today)
	if err != nil {
		t.Fatalf("AnnualReport: %v", err)
	}
	if len(rows) != 12 {
		t.Fatalf("past year should have 12 rows, got %d", len(rows))
	}
	if rows[11].Expense.Cents != 700 {
		t.Errorf("december row = %+v", rows[11])
	}

	future, err := engine.AnnualReport(context.Background(), 2025, today)
	if err != nil {
		t.Fatalf("AnnualReport(future): %v", err)
	}
	if len(future) != 0 {
		t.Errorf("future year should have no rows, got %d", len(future))
	}
}
