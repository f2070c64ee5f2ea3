package outbox

import (
	"time"

	otelx "github.com/md-rashed-zaman/rolodex/libs/otel"
)

// Event types recorded by the party directory. Each one is relayed to its
// own stream, see StreamName.
const (
	PersonCreated             = "PersonCreated"
	PersonUpdated             = "PersonUpdated"
	PersonDeleted             = "PersonDeleted"
	OrganisationCreated       = "OrganisationCreated"
	OrganisationUpdated       = "OrganisationUpdated"
	OrganisationDeleted       = "OrganisationDeleted"
	ExternalIdentifierCreated = "ExternalIdentifierCreated"
)

const StreamPrefix = "outbox:"

// StreamName is the Redis stream an event type is relayed to.
func StreamName(eventType string) string {
	return StreamPrefix + eventType
}

// Record is one row of outbox_events. ProcessedAt is nil while the event is
// pending relay.
type Record struct {
	EventID     int64
	EventType   string
	Payload     []byte
	Trace       otelx.TraceContext
	CreatedAt   time.Time
	ProcessedAt *time.Time
}

// IdentifierSnapshot is the denormalised external identifier view carried
// on update and delete events.
type IdentifierSnapshot struct {
	SystemName string `json:"system_name"`
	ExternalID string `json:"external_id"`
}
