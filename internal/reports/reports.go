// Package reports derives monthly trends and annual overviews from
// ledger summaries.
package reports

import (
	"context"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/ledger"
)

// Stepping selects how trend months are walked backwards from the
// reference date.
type Stepping int

const (
	// StepApproximate subtracts 30 days per step, so long trends drift
	// slowly against the calendar.
	StepApproximate Stepping = iota
	// StepCalendar subtracts whole calendar months.
	StepCalendar
)

// TrendPoint is one month of a spending trend.
type TrendPoint struct {
	Label   string // "Jan 2006"
	Year    int
	Month   int
	Income  core.Money
	Expense core.Money
	Net     core.Money
}

// MonthReport is one row of an annual report.
type MonthReport struct {
	Month   int
	Label   string
	Income  core.Money
	Expense core.Money
	Net     core.Money
}

// Engine computes reports against any ledger.
type Engine struct {
	ledger ledger.Ledger
}

func NewEngine(l ledger.Ledger) *Engine {
	return &Engine{ledger: l}
}

// Trend returns monthsBack points ending at the reference date's month,
// oldest first. Each point is a full calendar-month summary even under
// StepApproximate; only the walk between months is approximate.
func (e *Engine) Trend(ctx context.Context, monthsBack int, reference time.Time, step Stepping) ([]TrendPoint, error) {
	if monthsBack < 1 {
		monthsBack = 1
	}

	points := make([]TrendPoint, 0, monthsBack)
	for i := monthsBack - 1; i >= 0; i-- {
		var at time.Time
		switch step {
		case StepCalendar:
			at = reference.AddDate(0, -i, 0)
		default:
			at = reference.AddDate(0, 0, -30*i)
		}

		year, month := at.Year(), int(at.Month())
		s, err := e.ledger.MonthlySummary(ctx, &ledger.Month{Year: year, Month: month})
		if err != nil {
			return nil, err
		}
		points = append(points, TrendPoint{
			Label:   at.Format("Jan 2006"),
			Year:    year,
			Month:   month,
			Income:  s.Income,
			Expense: s.Expense,
			Net:     s.Balance(),
		})
	}
	return points, nil
}

// AnnualReport returns one row per month of year, truncated at today's
// month when the year is still in progress.
func (e *Engine) AnnualReport(ctx context.Context, year int, today time.Time) ([]MonthReport, error) {
	lastMonth := 12
	if year == today.Year() {
		lastMonth = int(today.Month())
	}
	if year > today.Year() {
		return nil, nil
	}

	rows := make([]MonthReport, 0, lastMonth)
	for month := 1; month <= lastMonth; month++ {
		s, err := e.ledger.MonthlySummary(ctx, &ledger.Month{Year: year, Month: month})
		if err != nil {
			return nil, err
		}
		rows = append(rows, MonthReport{
			Month:   month,
			Label:   time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC).Format("Jan 2006"),
			Income:  s.Income,
			Expense: s.Expense,
			Net:     s.Balance(),
		})
	}
	return rows, nil
}
