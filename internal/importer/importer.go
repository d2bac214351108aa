package importer

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"

	"fintrack/internal/core"
	"fintrack/internal/ledger"
)

// Row is one raw CSV line before parsing.
type Row struct {
	Date        string
	Amount      string
	Description string
}

// ColumnMapping names the CSV columns to read each field from.
type ColumnMapping struct {
	Date        int
	Amount      int
	Description int
	SkipHeader  bool
}

// DefaultMapping matches the common bank export layout of
// date,amount,description with a header line.
func DefaultMapping() ColumnMapping {
	return ColumnMapping{Date: 0, Amount: 1, Description: 2, SkipHeader: true}
}

// ReadRows extracts raw rows from CSV input using the mapping.
func ReadRows(r io.Reader, mapping ColumnMapping) ([]Row, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	max := mapping.Date
	if mapping.Amount > max {
		max = mapping.Amount
	}
	if mapping.Description > max {
		max = mapping.Description
	}

	var rows []Row
	line := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: read CSV line %d: %v", core.ErrImport, line+1, err)
		}
		line++
		if mapping.SkipHeader && line == 1 {
			continue
		}
		if len(record) <= max {
			return nil, fmt.Errorf("%w: line %d has %d columns, need %d", core.ErrImport, line, len(record), max+1)
		}
		rows = append(rows, Row{
			Date:        record[mapping.Date],
			Amount:      record[mapping.Amount],
			Description: record[mapping.Description],
		})
	}
	return rows, nil
}

// Importer writes classified CSV rows into a ledger.
type Importer struct {
	ledger ledger.Ledger
	rules  []Rule
}

func New(l ledger.Ledger) *Importer {
	return &Importer{ledger: l, rules: DefaultRules()}
}

// WithRules replaces the keyword rules.
func (im *Importer) WithRules(rules []Rule) *Importer {
	im.rules = rules
	return im
}

// Import parses and classifies every row before writing any of them, so
// a malformed line rejects the whole batch with nothing committed. A
// store failure mid-batch returns the count written so far alongside
// the error.
func (im *Importer) Import(ctx context.Context, rows []Row) (int, error) {
	categories, err := im.ledger.Categories(ctx, nil)
	if err != nil {
		return 0, err
	}
	classifier := NewClassifier(im.rules, categories)

	txs := make([]core.Transaction, 0, len(rows))
	for i, row := range rows {
		date, err := core.ParseDate(row.Date)
		if err != nil {
			return 0, fmt.Errorf("%w: row %d: %v", core.ErrImport, i+1, err)
		}
		cents, err := core.ParseSignedCents(row.Amount)
		if err != nil {
			return 0, fmt.Errorf("%w: row %d: %v", core.ErrImport, i+1, err)
		}
		if cents == 0 {
			return 0, fmt.Errorf("%w: row %d: %v", core.ErrImport, i+1, core.ErrInvalidAmount)
		}

		typ, categoryID := classifier.Classify(row.Description, cents)
		abs := cents
		if abs < 0 {
			abs = -abs
		}
		txs = append(txs, core.Transaction{
			Date:       date,
			Amount:     core.Money{Cents: abs},
			CategoryID: categoryID,
			Type:       typ,
			Notes:      row.Description,
		})
	}

	written := 0
	for _, tx := range txs {
		if _, err := im.ledger.AddTransaction(ctx, tx); err != nil {
			return written, fmt.Errorf("import row %d: %w", written+1, err)
		}
		written++
	}
	return written, nil
}

// ImportCSV reads, classifies and writes a whole CSV stream.
func (im *Importer) ImportCSV(ctx context.Context, r io.Reader, mapping ColumnMapping) (int, error) {
	rows, err := ReadRows(r, mapping)
	if err != nil {
		return 0, err
	}
	return im.Import(ctx, rows)
}
