package domain

import "testing"

func TestDedupKey(t *testing.T) {
	e := Event{TradingPartnerName: "ACME", BusinessUnitName: "WEST"}
	if got := e.DedupKey(); got != "ACME::WEST" {
		t.Fatalf("expected 'ACME::WEST', got %q", got)
	}
}

func TestIsGrouped(t *testing.T) {
	cases := []struct {
		eventType string
		want      bool
	}{
		{"BULK_ORDER", true},
		{"BATCH_ORDER", true},
		{"GROUPED_ORDERS", true},
		{"SINGLE_ORDER", false},
		{"UNKNOWN_TYPE", false},
		{"", false},
	}
	for _, c := range cases {
		e := Event{EventType: c.eventType}
		if got := e.IsGrouped(); got != c.want {
			t.Errorf("IsGrouped(%q) = %v, want %v", c.eventType, got, c.want)
		}
	}
}
