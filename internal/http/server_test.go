package http_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	fthttp "fintrack/internal/http"
	"fintrack/internal/memory"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	clock := func() time.Time {
		return time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	}
	srv := fthttp.NewServer("127.0.0.1:0", memory.NewStore(), nil, fthttp.WithClock(clock))
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func doJSON(t *testing.T, ts *httptest.Server, method, path, body string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, ts.URL+path, strings.NewReader(body))
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, data
}

func TestHealthEndpoints(t *testing.T) {
	ts := newTestServer(t)

	resp, _ := doJSON(t, ts, http.MethodGet, "/healthz", "")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("healthz = %d, want 200", resp.StatusCode)
	}
	resp, _ = doJSON(t, ts, http.MethodGet, "/readyz", "")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("readyz = %d, want 200", resp.StatusCode)
	}
}

func TestTransactionLifecycle(t *testing.T) {
	ts := newTestServer(t)

	resp, body := doJSON(t, ts, http.MethodPost, "/api/transactions",
		`{"date":"2024-06-10","amount":"82.45","type":"expense","notes":"groceries"}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create = %d, body %s", resp.StatusCode, body)
	}
	var created map[string]int64
	if err := json.Unmarshal(body, &created); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	resp, body = doJSON(t, ts, http.MethodGet, "/api/transactions?year=2024&month=6", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list = %d", resp.StatusCode)
	}
	var txs []map[string]any
	if err := json.Unmarshal(body, &txs); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(txs) != 1 || txs[0]["amount_cents"].(float64) != 8245 {
		t.Errorf("list = %v", txs)
	}

	resp, _ = doJSON(t, ts, http.MethodDelete, "/api/transactions/1", "")
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("delete = %d, want 204", resp.StatusCode)
	}
	// deletes are idempotent
	resp, _ = doJSON(t, ts, http.MethodDelete, "/api/transactions/1", "")
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("second delete = %d, want 204", resp.StatusCode)
	}
}

func TestValidationErrorsReturn422(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name string
		body string
	}{
		{"negative amount", `{"date":"2024-06-10","amount":"-5.00","type":"expense"}`},
		{"zero amount", `{"date":"2024-06-10","amount":"0","type":"expense"}`},
		{"bad date", `{"date":"06/10/2024","amount":"5.00","type":"expense"}`},
		{"bad type", `{"date":"2024-06-10","amount":"5.00","type":"transfer"}`},
		{"malformed json", `{"date":`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := doJSON(t, ts, http.MethodPost, "/api/transactions", tt.body)
			if resp.StatusCode != http.StatusUnprocessableEntity {
				t.Errorf("status = %d, want 422, body %s", resp.StatusCode, body)
			}
		})
	}
}

func TestGoalEndpoints(t *testing.T) {
	ts := newTestServer(t)

	resp, body := doJSON(t, ts, http.MethodPost, "/api/goals",
		`{"name":"Emergency Fund","target":"5000.00","deadline":"2025-12-31"}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create goal = %d, body %s", resp.StatusCode, body)
	}

	resp, body = doJSON(t, ts, http.MethodPost, "/api/goals/1/apply", `{"amount":"150.00"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("apply = %d, body %s", resp.StatusCode, body)
	}
	var applied map[string]int64
	json.Unmarshal(body, &applied)
	if applied["current_cents"] != 15000 {
		t.Errorf("current_cents = %d, want 15000", applied["current_cents"])
	}

	resp, _ = doJSON(t, ts, http.MethodPost, "/api/goals/999/apply", `{"amount":"1.00"}`)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("apply to unknown goal = %d, want 404", resp.StatusCode)
	}

	resp, _ = doJSON(t, ts, http.MethodPost, "/api/goals/1/toggle", "")
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("toggle = %d, want 204", resp.StatusCode)
	}

	resp, body = doJSON(t, ts, http.MethodGet, "/api/goals", "")
	var goals []map[string]any
	json.Unmarshal(body, &goals)
	if len(goals) != 1 || goals[0]["is_active"].(bool) {
		t.Errorf("goals = %v, want one paused goal", goals)
	}
	if goals[0]["deadline"] != "2025-12-31" {
		t.Errorf("deadline = %v", goals[0]["deadline"])
	}
}

func TestSummaryAndBreakdown(t *testing.T) {
	ts := newTestServer(t)

	doJSON(t, ts, http.MethodPost, "/api/transactions",
		`{"date":"2024-06-01","amount":"3000.00","type":"income"}`)
	doJSON(t, ts, http.MethodPost, "/api/transactions",
		`{"date":"2024-06-02","amount":"1200.00","type":"expense","category_id":2}`)
	doJSON(t, ts, http.MethodPost, "/api/transactions",
		`{"date":"2024-06-03","amount":"80.00","type":"expense","category_id":4}`)

	resp, body := doJSON(t, ts, http.MethodGet, "/api/summary?year=2024&month=6", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("summary = %d", resp.StatusCode)
	}
	var s map[string]int64
	json.Unmarshal(body, &s)
	if s["income_cents"] != 300000 || s["expense_cents"] != 128000 || s["balance_cents"] != 172000 {
		t.Errorf("summary = %v", s)
	}

	resp, body = doJSON(t, ts, http.MethodGet, "/api/breakdown?year=2024&month=6", "")
	var rows []map[string]any
	json.Unmarshal(body, &rows)
	if len(rows) != 2 {
		t.Fatalf("breakdown rows = %d, want 2", len(rows))
	}
	if rows[0]["total_cents"].(float64) != 120000 {
		t.Errorf("top breakdown row = %v, want the larger total first", rows[0])
	}

	// year without month is rejected
	resp, _ = doJSON(t, ts, http.MethodGet, "/api/summary?year=2024", "")
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("summary with bare year = %d, want 422", resp.StatusCode)
	}
}

func TestCategoryDeleteConflict(t *testing.T) {
	ts := newTestServer(t)

	doJSON(t, ts, http.MethodPost, "/api/transactions",
		`{"date":"2024-06-02","amount":"10.00","type":"expense","category_id":2}`)

	resp, _ := doJSON(t, ts, http.MethodDelete, "/api/categories/2", "")
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("delete referenced category = %d, want 422", resp.StatusCode)
	}

	resp, _ = doJSON(t, ts, http.MethodDelete, "/api/categories/10", "")
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("delete unreferenced category = %d, want 204", resp.StatusCode)
	}
}

func TestTrendAndAnnualReport(t *testing.T) {
	ts := newTestServer(t)

	doJSON(t, ts, http.MethodPost, "/api/transactions",
		`{"date":"2024-05-10","amount":"100.00","type":"expense"}`)
	doJSON(t, ts, http.MethodPost, "/api/transactions",
		`{"date":"2024-06-10","amount":"200.00","type":"expense"}`)

	resp, body := doJSON(t, ts, http.MethodGet, "/api/trend?months=2&step=calendar", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("trend = %d", resp.StatusCode)
	}
	var points []map[string]any
	json.Unmarshal(body, &points)
	if len(points) != 2 || points[0]["label"] != "May 2024" || points[1]["label"] != "Jun 2024" {
		t.Errorf("trend = %v", points)
	}

	resp, _ = doJSON(t, ts, http.MethodGet, "/api/trend?step=hourly", "")
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("bad step = %d, want 422", resp.StatusCode)
	}

	// clock is pinned to June 15th, so the current year truncates at month 6
	resp, body = doJSON(t, ts, http.MethodGet, "/api/reports/annual?year=2024", "")
	var rows []map[string]any
	json.Unmarshal(body, &rows)
	if len(rows) != 6 {
		t.Errorf("annual rows = %d, want 6", len(rows))
	}

	resp, _ = doJSON(t, ts, http.MethodPost, "/api/reports/annual/export", "")
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("export without exporter = %d, want 503", resp.StatusCode)
	}
}

func TestImportEndpoint(t *testing.T) {
	ts := newTestServer(t)

	csv := "Date,Amount,Description\n" +
		"2024-06-01,-82.45,WHOLE FOODS MARKET\n" +
		"2024-06-02,2500.00,Paycheck\n"
	resp, body := doJSON(t, ts, http.MethodPost, "/api/import", csv)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("import = %d, body %s", resp.StatusCode, body)
	}
	var res map[string]int
	json.Unmarshal(body, &res)
	if res["imported"] != 2 {
		t.Errorf("imported = %d, want 2", res["imported"])
	}

	bad := "Date,Amount,Description\n2024-06-01,not-money,x\n"
	resp, _ = doJSON(t, ts, http.MethodPost, "/api/import", bad)
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("bad import = %d, want 422", resp.StatusCode)
	}

	// nothing from the rejected batch may persist
	resp, body = doJSON(t, ts, http.MethodGet, "/api/transactions", "")
	var txs []map[string]any
	json.Unmarshal(body, &txs)
	if len(txs) != 2 {
		t.Errorf("transactions after bad import = %d, want 2", len(txs))
	}
}
