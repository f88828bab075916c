package audit

import (
	"encoding/json"
	"strconv"
	"time"
)

const TopicRecorded = "pos.audit.recorded"

const EventRecorded = "AuditRecorded"

// Module names match what the old back office wrote into the logs table.
const (
	ModuleInvoice = "INVOICE_MODULE"
	ModuleStock   = "STOCK_MODULE"
	ModuleMember  = "MEMBER_MODULE"
	ModuleMenu    = "MENU_MODULE"
)

type Envelope struct {
	EventID       string          `json:"event_id"` // uuid
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

type RecordedPayload struct {
	ActorID   int64           `json:"actor_id"`
	ActorName string          `json:"actor_name"`
	Module    string          `json:"module"`
	Detail    string          `json:"detail"`
	Extra     json.RawMessage `json:"extra,omitempty"`
}

// PartitionKey keys by actor so one cashier's trail stays ordered.
func PartitionKey(actorID int64) []byte {
	return []byte(strconv.FormatInt(actorID, 10))
}

// FormatDate matches the timestamp format the old back office printed into
// audit detail strings.
func FormatDate(t time.Time) string {
	return t.Format("2006/01/02 15:04:05")
}
