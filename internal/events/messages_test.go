package events

import (
	"testing"
	"time"
)

func TestNewLedgerEvent(t *testing.T) {
	e := NewLedgerEvent("transaction", "created", 42)

	if e.Entity != "transaction" || e.Action != "created" || e.ID != 42 {
		t.Errorf("NewLedgerEvent() = %+v", e)
	}
	if e.Timestamp.IsZero() || time.Since(e.Timestamp) > time.Second {
		t.Error("NewLedgerEvent() Timestamp should be recent")
	}

	body, err := e.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}
	parsed, err := LedgerEventFromJSON(body)
	if err != nil {
		t.Fatalf("LedgerEventFromJSON() error = %v", err)
	}
	if parsed.Entity != e.Entity || parsed.Action != e.Action || parsed.ID != e.ID {
		t.Errorf("round trip = %+v, want %+v", parsed, e)
	}
}

func TestLedgerEventFromJSON_Invalid(t *testing.T) {
	if _, err := LedgerEventFromJSON([]byte(`{"id": "not_a_number"}`)); err == nil {
		t.Error("LedgerEventFromJSON() should fail on malformed payload")
	}
}
