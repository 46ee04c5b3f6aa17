// Package events defines the domain events published after a committed change.
package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType names an event on the bus.
type EventType string

func (t EventType) String() string { return string(t) }

const (
	EventTypeTransactionRecorded EventType = "TransactionRecorded"
	EventTypeDependentCreated    EventType = "DependentCreated"
	EventTypeDependentRenamed    EventType = "DependentRenamed"
	EventTypeDependentDeleted    EventType = "DependentDeleted"
)

// Event is implemented by every domain event.
type Event interface {
	Type() string
}

// EventTypes builds an empty event for a type, used when decoding from a broker.
var EventTypes = map[EventType]func() Event{
	EventTypeTransactionRecorded: func() Event { return &TransactionRecorded{} },
	EventTypeDependentCreated:    func() Event { return &DependentCreated{} },
	EventTypeDependentRenamed:    func() Event { return &DependentRenamed{} },
	EventTypeDependentDeleted:    func() Event { return &DependentDeleted{} },
}

// TransactionRecorded is emitted once a ledger entry and its balance changes commit.
// Amounts are in cents.
type TransactionRecorded struct {
	TransactionID uuid.UUID  `json:"transaction_id"`
	Kind          string     `json:"kind"`
	Amount        int64      `json:"amount"`
	SenderID      *uuid.UUID `json:"sender_id,omitempty"`
	ReceiverID    *uuid.UUID `json:"receiver_id,omitempty"`
	Description   string     `json:"description"`
	ActorID       uuid.UUID  `json:"actor_id"`
	OccurredAt    time.Time  `json:"occurred_at"`
}

func (e TransactionRecorded) Type() string { return EventTypeTransactionRecorded.String() }

// DependentCreated is emitted when a guardian adds a dependent.
type DependentCreated struct {
	GuardianID  uuid.UUID `json:"guardian_id"`
	DependentID uuid.UUID `json:"dependent_id"`
	Username    string    `json:"username"`
	OccurredAt  time.Time `json:"occurred_at"`
}

func (e DependentCreated) Type() string { return EventTypeDependentCreated.String() }

// DependentRenamed is emitted when a dependent's display name changes.
type DependentRenamed struct {
	GuardianID  uuid.UUID `json:"guardian_id"`
	DependentID uuid.UUID `json:"dependent_id"`
	OldName     string    `json:"old_name"`
	NewName     string    `json:"new_name"`
	OccurredAt  time.Time `json:"occurred_at"`
}

func (e DependentRenamed) Type() string { return EventTypeDependentRenamed.String() }

// DependentDeleted is emitted when a guardian removes a dependent.
type DependentDeleted struct {
	GuardianID  uuid.UUID `json:"guardian_id"`
	DependentID uuid.UUID `json:"dependent_id"`
	OccurredAt  time.Time `json:"occurred_at"`
}

func (e DependentDeleted) Type() string { return EventTypeDependentDeleted.String() }
