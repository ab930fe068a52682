// Package events defines the event types exchanged over the event bus.
package events

import "time"

type EventType string

// Topics.
const (
	// ContactTopic carries contact activity published by the surrounding
	// platform (signups, purchases, page visits). The engine consumes it to
	// drive event-triggered workflows.
	ContactTopic = "automata.contacts"

	// ExecutionTopic carries execution lifecycle notifications published by
	// the engine for observers.
	ExecutionTopic = "automata.executions"
)

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	ContactEventType EventType = "contact.event"

	ExecutionStartedEvent   EventType = "execution.started"
	ExecutionWaitingEvent   EventType = "execution.waiting"
	ExecutionResumedEvent   EventType = "execution.resumed"
	ExecutionCompletedEvent EventType = "execution.completed"
	ExecutionFailedEvent    EventType = "execution.failed"
	ExecutionCancelledEvent EventType = "execution.cancelled"
)

// ContactEvent is one occurrence of a named contact activity.
type ContactEvent struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	ContactID string         `json:"contact_id"`
	Payload   map[string]any `json:"payload,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

func (e ContactEvent) GetType() EventType {
	return ContactEventType
}

// ExecutionLifecycle notifies observers of an execution state change.
type ExecutionLifecycle struct {
	Type        EventType `json:"type"`
	ExecutionID string    `json:"execution_id"`
	WorkflowID  string    `json:"workflow_id"`
	ContactID   string    `json:"contact_id"`
	Status      string    `json:"status"`
	CurrentStep int       `json:"current_step"`
	Error       string    `json:"error,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

func (e ExecutionLifecycle) GetType() EventType {
	return e.Type
}
