package events

import (
	"time"

	"github.com/spec-kit/project-tracker/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated      EventType = "ticket_created"
	EventTicketTransitioned EventType = "ticket_transitioned"
)

// Event represents a domain event emitted after a successful commit.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	TicketID  string    `json:"ticket_id"`
	ProjectID string    `json:"project_id"`
	ActorID   string    `json:"actor_id"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// TicketTransitionedPayload carries the committed ticket and the status it
// moved from. Handlers decide from the pair whether they apply.
type TicketTransitionedPayload struct {
	Ticket         *domain.Ticket      `json:"ticket"`
	PreviousStatus domain.TicketStatus `json:"previous_status"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	ProjectID string `json:"project_id"`
	Title     string `json:"title"`
}
