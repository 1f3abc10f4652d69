package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets. The set is stored as
// plain text so deployments can define extra statuses; the transition rules
// only special-case the values below.
type TicketStatus string

const (
	TicketStatusOpen          TicketStatus = "open"
	TicketStatusBlocked       TicketStatus = "blocked"
	TicketStatusInProgress    TicketStatus = "in_progress"
	TicketStatusForQA         TicketStatus = "for_qa"
	TicketStatusReturnedToDev TicketStatus = "returned_to_dev"
	TicketStatusCompleted     TicketStatus = "completed"
	TicketStatusCancelled     TicketStatus = "cancelled"
	TicketStatusRejected      TicketStatus = "rejected"
)

// IsTerminal reports whether the status requires completed_at and may carry
// a reason entry.
func (s TicketStatus) IsTerminal() bool {
	return s == TicketStatusCompleted || s == TicketStatusCancelled || s == TicketStatusRejected
}

// ReasonEntry captures why a ticket entered a terminal status.
type ReasonEntry struct {
	Reason string    `json:"reason"`
	At     time.Time `json:"cancelledAt"`
}

// ReasonBag maps a terminal status to the entry recorded when the ticket
// entered it. Cleared whenever the ticket leaves a terminal status.
type ReasonBag map[TicketStatus]ReasonEntry

// Ticket is the work item whose lifecycle the transition engine governs.
type Ticket struct {
	ID            string
	ProjectID     string
	Title         string
	Description   string
	Status        TicketStatus
	AssigneeID    *string
	SQAAssigneeID *string
	CreatedAt     *time.Time
	AssignedAt    *time.Time
	SQAAssignedAt *time.Time
	StartedAt     *time.Time
	CompletedAt   *time.Time
	Reason        ReasonBag
	ActorID       *string
	UpdatedAt     time.Time
}

// CancellationReason returns the cancelled entry, if present.
func (t *Ticket) CancellationReason() (ReasonEntry, bool) {
	if t.Reason == nil {
		return ReasonEntry{}, false
	}
	entry, ok := t.Reason[TicketStatusCancelled]
	return entry, ok
}
