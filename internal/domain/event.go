package domain

// Event is the input topic payload: it names a (trading-partner, business-unit)
// scope whose pending orders should be pulled from the document store.
type Event struct {
	EventID            string `json:"eventId"`
	EventType          string `json:"eventType"`
	TradingPartnerName string `json:"tradingPartnerName"`
	BusinessUnitName   string `json:"businessUnitName"`
}

// groupedEventTypes are the event types that route through the Grouper.
// Anything else, including unrecognized casing, is treated as individual.
var groupedEventTypes = map[string]bool{
	"BULK_ORDER":     true,
	"BATCH_ORDER":    true,
	"GROUPED_ORDERS": true,
}

// IsGrouped reports whether this event's type should be routed through the
// Grouper. Unknown types fall through to individual publishing.
func (e Event) IsGrouped() bool {
	return groupedEventTypes[e.EventType]
}

// DedupKey is the identity used by the dedup cache: partner + "::" + unit.
func (e Event) DedupKey() string {
	return e.TradingPartnerName + "::" + e.BusinessUnitName
}
