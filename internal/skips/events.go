package skips

import (
	"encoding/json"
	"time"
)

const (
	EventSelectionConfirmed = "SelectionConfirmed"
	EventCatalogInvalidated = "CatalogInvalidated"
)

type Envelope struct {
	EventID       string          `json:"event_id"`      // uuid
	EventType     string          `json:"event_type"`    // salah satu const di atas
	EventVersion  int             `json:"event_version"` // 1
	OccurredAt    time.Time       `json:"occurred_at"`   // RFC3339
	Producer      string          `json:"producer"`      // e.g., "skip-selector"
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // session id atau postcode|area
	Payload       json.RawMessage `json:"payload"`
}

// ---- Payload tipe per event ----

// SelectionConfirmedPayload is the hand-off to the booking flow.
type SelectionConfirmedPayload struct {
	SessionID      string `json:"session_id"`
	ClientID       string `json:"client_id"`
	Postcode       string `json:"postcode"`
	Area           string `json:"area"`
	Skip           Skip   `json:"skip"`
	TotalPrice     string `json:"total_price"` // 2dp, VAT inclusive
	HirePeriodDays int    `json:"hire_period_days"`
}

type CatalogInvalidatedPayload struct {
	Postcode string `json:"postcode"`
	Area     string `json:"area"`
	Reason   string `json:"reason,omitempty"`
}
