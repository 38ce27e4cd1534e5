package preorder

import (
	"encoding/json"
	"time"
)

const (
	EventMenuChanged  = "MenuItemChanged"
	EventCartChanged  = "CartLineChanged"
	EventOrderChanged = "OrderChanged"
)

type Envelope struct {
	EventID      string          `json:"event_id"`      // uuid
	EventType    string          `json:"event_type"`    // one of the consts above
	EventVersion int             `json:"event_version"` // 1
	OccurredAt   time.Time       `json:"occurred_at"`   // RFC3339
	Producer     string          `json:"producer"`      // e.g., "preorder-notifier"
	Payload      json.RawMessage `json:"payload"`       // event-specific payload
}

// ChangePayload carries one row-level change picked up from the database
// change feed. Only the identifiers present on the source table are set.
type ChangePayload struct {
	Table      string `json:"table"`
	Op         string `json:"op"` // insert | update | delete
	RowID      string `json:"row_id,omitempty"`
	UserID     string `json:"user_id,omitempty"`
	MenuItemID string `json:"menu_item_id,omitempty"`
	OrderID    string `json:"order_id,omitempty"`
}
