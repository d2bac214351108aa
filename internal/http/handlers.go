package http

import (
	"errors"
	"net/http"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/importer"
	"fintrack/internal/ledger"
	applog "fintrack/internal/log"
	"fintrack/internal/reports"
)

type categoryDTO struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Icon     string `json:"icon"`
	IsIncome bool   `json:"is_income"`
}

type transactionDTO struct {
	ID          int64  `json:"id"`
	Date        string `json:"date"`
	AmountCents int64  `json:"amount_cents"`
	CategoryID  *int64 `json:"category_id"`
	Type        string `json:"type"`
	Notes       string `json:"notes,omitempty"`
}

type billDTO struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	AmountCents int64  `json:"amount_cents"`
	DueDay      int    `json:"due_day"`
	CategoryID  *int64 `json:"category_id"`
	IsActive    bool   `json:"is_active"`
}

type goalDTO struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	TargetCents  int64  `json:"target_cents"`
	CurrentCents int64  `json:"current_cents"`
	Deadline     string `json:"deadline,omitempty"`
	IsActive     bool   `json:"is_active"`
}

type summaryDTO struct {
	IncomeCents  int64 `json:"income_cents"`
	ExpenseCents int64 `json:"expense_cents"`
	BalanceCents int64 `json:"balance_cents"`
}

type breakdownRowDTO struct {
	Name       string `json:"name"`
	Icon       string `json:"icon"`
	TotalCents int64  `json:"total_cents"`
}

type monthRowDTO struct {
	Month        int    `json:"month,omitempty"`
	Label        string `json:"label"`
	IncomeCents  int64  `json:"income_cents"`
	ExpenseCents int64  `json:"expense_cents"`
	NetCents     int64  `json:"net_cents"`
}

// parseWindow reads optional year and month query parameters. Both must
// be given together; neither means all time.
func parseWindow(r *http.Request) (*ledger.Month, error) {
	year, err := queryInt(r, "year", 0)
	if err != nil {
		return nil, err
	}
	month, err := queryInt(r, "month", 0)
	if err != nil {
		return nil, err
	}
	if year == 0 && month == 0 {
		return nil, nil
	}
	if year < 1 || month < 1 || month > 12 {
		return nil, errors.Join(core.ErrValidation, errors.New("year and month must be given together"))
	}
	return &ledger.Month{Year: year, Month: month}, nil
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	var typeFilter *core.TransactionType
	if v := r.URL.Query().Get("type"); v != "" {
		t := core.TransactionType(v)
		if !t.Valid() {
			writeError(w, r, core.ErrInvalidType)
			return
		}
		typeFilter = &t
	}

	cats, err := s.ledger.Categories(r.Context(), typeFilter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]categoryDTO, 0, len(cats))
	for _, c := range cats {
		out = append(out, categoryDTO{ID: c.ID, Name: c.Name, Icon: c.Icon, IsIncome: c.IsIncome})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.ledger.DeleteCategory(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 50)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var filter ledger.TransactionFilter
	if v := r.URL.Query().Get("type"); v != "" {
		t := core.TransactionType(v)
		if !t.Valid() {
			writeError(w, r, core.ErrInvalidType)
			return
		}
		filter.Type = t
	}
	if window, err := parseWindow(r); err != nil {
		writeError(w, r, err)
		return
	} else if window != nil {
		filter.MonthPrefix = core.NewDate(window.Year, window.Month, 1).MonthPrefix()
	}

	txs, err := s.ledger.ListTransactions(r.Context(), limit, filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]transactionDTO, 0, len(txs))
	for _, tx := range txs {
		out = append(out, transactionDTO{
			ID:          tx.ID,
			Date:        tx.Date.String(),
			AmountCents: tx.Amount.Cents,
			CategoryID:  tx.CategoryID,
			Type:        string(tx.Type),
			Notes:       tx.Notes,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Date       string `json:"date"`
		Amount     string `json:"amount"`
		CategoryID *int64 `json:"category_id"`
		Type       string `json:"type"`
		Notes      string `json:"notes"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	date, err := core.ParseDate(req.Date)
	if err != nil {
		writeError(w, r, err)
		return
	}
	cents, err := core.ParseCents(req.Amount)
	if err != nil {
		writeError(w, r, err)
		return
	}

	id, err := s.ledger.AddTransaction(r.Context(), core.Transaction{
		Date:       date,
		Amount:     core.Money{Cents: cents},
		CategoryID: req.CategoryID,
		Type:       core.TransactionType(req.Type),
		Notes:      req.Notes,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.ledger.DeleteTransaction(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListBills(w http.ResponseWriter, r *http.Request) {
	bills, err := s.ledger.ListRecurringBills(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]billDTO, 0, len(bills))
	for _, b := range bills {
		out = append(out, billDTO{
			ID:          b.ID,
			Name:        b.Name,
			AmountCents: b.Amount.Cents,
			DueDay:      b.DueDay,
			CategoryID:  b.CategoryID,
			IsActive:    b.IsActive,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateBill(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name       string `json:"name"`
		Amount     string `json:"amount"`
		DueDay     int    `json:"due_day"`
		CategoryID *int64 `json:"category_id"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	cents, err := core.ParseCents(req.Amount)
	if err != nil {
		writeError(w, r, err)
		return
	}

	id, err := s.ledger.AddRecurringBill(r.Context(), core.RecurringBill{
		Name:       req.Name,
		Amount:     core.Money{Cents: cents},
		DueDay:     req.DueDay,
		CategoryID: req.CategoryID,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request) {
	goals, err := s.ledger.ListSavingsGoals(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]goalDTO, 0, len(goals))
	for _, g := range goals {
		dto := goalDTO{
			ID:           g.ID,
			Name:         g.Name,
			TargetCents:  g.Target.Cents,
			CurrentCents: g.Current.Cents,
			IsActive:     g.IsActive,
		}
		if !g.Deadline.IsZero() {
			dto.Deadline = g.Deadline.String()
		}
		out = append(out, dto)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Target   string `json:"target"`
		Deadline string `json:"deadline"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	cents, err := core.ParseCents(req.Target)
	if err != nil {
		writeError(w, r, err)
		return
	}

	goal := core.SavingsGoal{Name: req.Name, Target: core.Money{Cents: cents}}
	if req.Deadline != "" {
		d, err := core.ParseDate(req.Deadline)
		if err != nil {
			writeError(w, r, err)
			return
		}
		goal.Deadline = d
	}

	id, err := s.ledger.AddSavingsGoal(r.Context(), goal)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (s *Server) handleApplyToGoal(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req struct {
		Amount string `json:"amount"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	cents, err := core.ParseCents(req.Amount)
	if err != nil {
		writeError(w, r, err)
		return
	}

	current, err := s.ledger.ApplyToSavingsGoal(r.Context(), id, core.Money{Cents: cents})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"current_cents": current.Cents})
}

func (s *Server) handleToggleGoal(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.ledger.ToggleGoalActive(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteGoal(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.ledger.DeleteSavingsGoal(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	window, err := parseWindow(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	summary, err := s.ledger.MonthlySummary(r.Context(), window)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summaryDTO{
		IncomeCents:  summary.Income.Cents,
		ExpenseCents: summary.Expense.Cents,
		BalanceCents: summary.Balance().Cents,
	})
}

func (s *Server) handleBreakdown(w http.ResponseWriter, r *http.Request) {
	t := core.TransactionType(r.URL.Query().Get("type"))
	if t == "" {
		t = core.Expense
	}
	if !t.Valid() {
		writeError(w, r, core.ErrInvalidType)
		return
	}
	window, err := parseWindow(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	rows, err := s.ledger.CategoryBreakdown(r.Context(), t, window)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]breakdownRowDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, breakdownRowDTO{Name: row.Name, Icon: row.Icon, TotalCents: row.Total.Cents})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleTrend(w http.ResponseWriter, r *http.Request) {
	months, err := queryInt(r, "months", 6)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if months < 1 || months > 36 {
		writeError(w, r, errors.Join(core.ErrValidation, errors.New("months must be between 1 and 36")))
		return
	}

	step := reports.StepApproximate
	switch r.URL.Query().Get("step") {
	case "", "approximate":
	case "calendar":
		step = reports.StepCalendar
	default:
		writeError(w, r, errors.Join(core.ErrValidation, errors.New("step must be approximate or calendar")))
		return
	}

	points, err := s.reports.Trend(r.Context(), months, s.now(), step)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]monthRowDTO, 0, len(points))
	for _, p := range points {
		out = append(out, monthRowDTO{
			Month:        p.Month,
			Label:        p.Label,
			IncomeCents:  p.Income.Cents,
			ExpenseCents: p.Expense.Cents,
			NetCents:     p.Net.Cents,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleAnnualReport(w http.ResponseWriter, r *http.Request) {
	now := s.now()
	year, err := queryInt(r, "year", now.Year())
	if err != nil {
		writeError(w, r, err)
		return
	}

	rows, err := s.reports.AnnualReport(r.Context(), year, now)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]monthRowDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, monthRowDTO{
			Month:        row.Month,
			Label:        row.Label,
			IncomeCents:  row.Income.Cents,
			ExpenseCents: row.Expense.Cents,
			NetCents:     row.Net.Cents,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleExportAnnualReport(w http.ResponseWriter, r *http.Request) {
	if s.exporter == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "sheets export is not configured"})
		return
	}

	now := s.now()
	year, err := queryInt(r, "year", now.Year())
	if err != nil {
		writeError(w, r, err)
		return
	}

	rows, err := s.reports.AnnualReport(r.Context(), year, now)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.exporter.ExportAnnualReport(r.Context(), year, rows); err != nil {
		writeError(w, r, err)
		return
	}

	applog.FromContext(r.Context()).InfoContext(r.Context(), "Exported annual report",
		applog.FieldYear, year, applog.FieldRowCount, len(rows))
	writeJSON(w, http.StatusOK, map[string]any{"year": year, "rows": len(rows)})
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	mapping := importer.DefaultMapping()
	var err error
	if mapping.Date, err = queryInt(r, "date_col", mapping.Date); err != nil {
		writeError(w, r, err)
		return
	}
	if mapping.Amount, err = queryInt(r, "amount_col", mapping.Amount); err != nil {
		writeError(w, r, err)
		return
	}
	if mapping.Description, err = queryInt(r, "description_col", mapping.Description); err != nil {
		writeError(w, r, err)
		return
	}
	if r.URL.Query().Get("skip_header") == "false" {
		mapping.SkipHeader = false
	}

	start := time.Now()
	count, err := s.importer.ImportCSV(r.Context(), r.Body, mapping)
	if err != nil {
		// a store failure mid-batch reports the rows already written
		if count > 0 {
			writeJSON(w, http.StatusBadGateway, map[string]any{
				"imported": count,
				"error":    err.Error(),
			})
			return
		}
		writeError(w, r, err)
		return
	}

	applog.FromContext(r.Context()).InfoContext(r.Context(), "Imported CSV batch",
		applog.FieldRowCount, count,
		applog.FieldDuration, time.Since(start).Milliseconds())
	writeJSON(w, http.StatusOK, map[string]int{"imported": count})
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if _, err := s.ledger.Categories(r.Context(), nil); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
