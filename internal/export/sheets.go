// Package export pushes annual reports to a Google Sheets spreadsheet.
package export

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"fintrack/internal/reports"
)

// SheetsExporter writes report rows into one sheet per year.
type SheetsExporter struct {
	svc           *gsheet.Service
	spreadsheetID string
}

// New creates an exporter authenticated with service account
// credentials, inline JSON taking precedence over a file path.
func New(ctx context.Context, spreadsheetID, credentialsFile, credentialsJSON string) (*SheetsExporter, error) {
	if spreadsheetID == "" {
		return nil, errors.New("missing spreadsheet id")
	}

	var opt goption.ClientOption
	switch {
	case credentialsJSON != "":
		opt = goption.WithCredentialsJSON([]byte(credentialsJSON))
	case credentialsFile != "":
		data, err := os.ReadFile(credentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read credentials file: %w", err)
		}
		opt = goption.WithCredentialsJSON(data)
	default:
		return nil, errors.New("missing service account credentials")
	}

	svc, err := gsheet.NewService(ctx, opt, goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return &SheetsExporter{svc: svc, spreadsheetID: spreadsheetID}, nil
}

// ExportAnnualReport overwrites the "<year> Report" sheet with a header
// and one row per reported month. The sheet must already exist.
func (e *SheetsExporter) ExportAnnualReport(ctx context.Context, year int, rows []reports.MonthReport) error {
	values := make([][]any, 0, len(rows)+1)
	values = append(values, []any{"Month", "Income", "Expenses", "Net"})
	for _, row := range rows {
		values = append(values, []any{
			row.Label,
			row.Income.Dollars(),
			row.Expense.Dollars(),
			row.Net.Dollars(),
		})
	}

	sheetRange := strconv.Itoa(year) + " Report!A1"
	_, err := e.svc.Spreadsheets.Values.
		Update(e.spreadsheetID, sheetRange, &gsheet.ValueRange{Values: values}).
		ValueInputOption("USER_ENTERED").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("update sheet %q: %w", sheetRange, err)
	}
	return nil
}
