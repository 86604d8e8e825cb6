// Package outbox delivers recorded-activity events to Kafka. The pipeline's
// store writes an outbox row in the same transaction as the activity insert;
// the dispatcher drains unpublished rows so downstream consumers can
// reconcile aggregates without re-submitting activities.
package outbox

import (
	"time"

	"github.com/google/uuid"
)

// Topic is the single topic this service publishes to.
const Topic = "activity-events"

type Message struct {
	EventID   uuid.UUID
	EventType string
	Payload   []byte
	CreatedAt time.Time
}
