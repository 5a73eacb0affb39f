package events

import "time"

// Event type codes emitted by the advisor services.
const (
	TypeSessionStarted        = "SESSION_STARTED"
	TypeSessionRestarted      = "SESSION_RESTARTED"
	TypeSessionDeleted        = "SESSION_DELETED"
	TypePlanReady             = "PLAN_READY"
	TypeRecommendationEmitted = "RECOMMENDATION_EMITTED"
	TypeKnowledgeEntryAdded   = "KNOWLEDGE_ENTRY_ADDED"
)

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "PLAN_READY").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// New builds a BaseEvent stamped now.
func New(eventType string, data map[string]interface{}) BaseEvent {
	return BaseEvent{
		Type:       eventType,
		Data:       data,
		OccurredAt: time.Now(),
	}
}
