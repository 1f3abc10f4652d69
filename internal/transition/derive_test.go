package transition

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/project-tracker/internal/domain"
)

var (
	deriveNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	earlier   = time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
)

func ticketWith(status domain.TicketStatus, mutate func(*domain.Ticket)) *domain.Ticket {
	created := earlier
	t := &domain.Ticket{
		ID:        "t-1",
		ProjectID: "p-1",
		Status:    status,
		CreatedAt: &created,
	}
	if mutate != nil {
		mutate(t)
	}
	return t
}

func strPtr(s string) *string { return &s }

func TestDeriveAssigneeChange(t *testing.T) {
	tests := []struct {
		name           string
		prevAssignee   *string
		patch          domain.TicketPatch
		wantAssignedAt domain.Field[time.Time]
	}{
		{
			name:           "new assignee stamps assigned_at",
			prevAssignee:   nil,
			patch:          domain.TicketPatch{AssigneeID: domain.Set("u-1")},
			wantAssignedAt: domain.Set(deriveNow),
		},
		{
			name:           "changed assignee restamps assigned_at",
			prevAssignee:   strPtr("u-1"),
			patch:          domain.TicketPatch{AssigneeID: domain.Set("u-2")},
			wantAssignedAt: domain.Set(deriveNow),
		},
		{
			name:           "same assignee derives nothing",
			prevAssignee:   strPtr("u-1"),
			patch:          domain.TicketPatch{AssigneeID: domain.Set("u-1")},
			wantAssignedAt: domain.Field[time.Time]{},
		},
		{
			name:           "clearing assignee clears assigned_at",
			prevAssignee:   strPtr("u-1"),
			patch:          domain.TicketPatch{AssigneeID: domain.Clear[string]()},
			wantAssignedAt: domain.Clear[time.Time](),
		},
		{
			name:         "explicit assigned_at suppresses derivation",
			prevAssignee: nil,
			patch: domain.TicketPatch{
				AssigneeID: domain.Set("u-1"),
				AssignedAt: domain.Set(earlier),
			},
			wantAssignedAt: domain.Set(earlier),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prev := ticketWith(domain.TicketStatusOpen, func(tk *domain.Ticket) {
				tk.AssigneeID = tt.prevAssignee
				if tt.prevAssignee != nil {
					tk.AssignedAt = &earlier
				}
			})
			merged := Derive(prev, tt.patch, deriveNow)
			assert.Equal(t, tt.wantAssignedAt, merged.AssignedAt)
			assert.False(t, merged.SQAAssignedAt.Present(), "developer assignment must not touch SQA timestamps")
		})
	}
}

func TestDeriveSQAAssigneeIndependent(t *testing.T) {
	prev := ticketWith(domain.TicketStatusForQA, nil)
	merged := Derive(prev, domain.TicketPatch{SQAAssigneeID: domain.Set("u-9")}, deriveNow)

	got, ok := merged.SQAAssignedAt.Value()
	require.True(t, ok)
	assert.Equal(t, deriveNow, got)
	assert.False(t, merged.AssignedAt.Present())
}

func TestDeriveStatusChange(t *testing.T) {
	tests := []struct {
		name          string
		prev          *domain.Ticket
		next          domain.TicketStatus
		wantStarted   domain.Field[time.Time]
		wantCompleted domain.Field[time.Time]
		wantReason    domain.Field[domain.ReasonBag]
	}{
		{
			name:        "open to in_progress starts the clock",
			prev:        ticketWith(domain.TicketStatusOpen, nil),
			next:        domain.TicketStatusInProgress,
			wantStarted: domain.Set(deriveNow),
		},
		{
			name:        "blocked to for_qa starts the clock",
			prev:        ticketWith(domain.TicketStatusBlocked, nil),
			next:        domain.TicketStatusForQA,
			wantStarted: domain.Set(deriveNow),
		},
		{
			name:        "open to blocked stays in backlog",
			prev:        ticketWith(domain.TicketStatusOpen, nil),
			next:        domain.TicketStatusBlocked,
			wantStarted: domain.Field[time.Time]{},
		},
		{
			name:          "completing stamps completed_at and backfills started_at",
			prev:          ticketWith(domain.TicketStatusForQA, nil),
			next:          domain.TicketStatusCompleted,
			wantStarted:   domain.Set(deriveNow),
			wantCompleted: domain.Set(deriveNow),
		},
		{
			name: "completing keeps existing started_at",
			prev: ticketWith(domain.TicketStatusInProgress, func(tk *domain.Ticket) {
				tk.StartedAt = &earlier
			}),
			next:          domain.TicketStatusCompleted,
			wantStarted:   domain.Field[time.Time]{},
			wantCompleted: domain.Set(deriveNow),
		},
		{
			name: "leaving terminal clears completion and reason",
			prev: ticketWith(domain.TicketStatusCancelled, func(tk *domain.Ticket) {
				tk.StartedAt = &earlier
				tk.CompletedAt = &earlier
				tk.Reason = domain.ReasonBag{domain.TicketStatusCancelled: {Reason: "dup", At: earlier}}
			}),
			next:          domain.TicketStatusForQA,
			wantStarted:   domain.Field[time.Time]{},
			wantCompleted: domain.Clear[time.Time](),
			wantReason:    domain.Clear[domain.ReasonBag](),
		},
		{
			name: "in_progress back to open clears started_at",
			prev: ticketWith(domain.TicketStatusInProgress, func(tk *domain.Ticket) {
				tk.StartedAt = &earlier
			}),
			next:          domain.TicketStatusOpen,
			wantStarted:   domain.Clear[time.Time](),
			wantCompleted: domain.Clear[time.Time](),
		},
		{
			name: "open is a full reset even from terminal",
			prev: ticketWith(domain.TicketStatusCompleted, func(tk *domain.Ticket) {
				tk.StartedAt = &earlier
				tk.CompletedAt = &earlier
			}),
			next:          domain.TicketStatusOpen,
			wantStarted:   domain.Clear[time.Time](),
			wantCompleted: domain.Clear[time.Time](),
			wantReason:    domain.Clear[domain.ReasonBag](),
		},
		{
			name: "reopening into in_progress clears completion",
			prev: ticketWith(domain.TicketStatusCompleted, func(tk *domain.Ticket) {
				tk.StartedAt = &earlier
				tk.CompletedAt = &earlier
			}),
			next:          domain.TicketStatusInProgress,
			wantStarted:   domain.Field[time.Time]{},
			wantCompleted: domain.Clear[time.Time](),
			wantReason:    domain.Clear[domain.ReasonBag](),
		},
		{
			name: "in_progress to blocked with no start backfills started_at",
			prev: ticketWith(domain.TicketStatusInProgress, nil),
			next: domain.TicketStatusBlocked,
			// The shelving rule clears started_at first; the restart rule
			// runs later and wins because the previous row never started.
			wantStarted:   domain.Set(deriveNow),
			wantCompleted: domain.Clear[time.Time](),
		},
		{
			name: "in_progress to blocked with recorded start clears it",
			prev: ticketWith(domain.TicketStatusInProgress, func(tk *domain.Ticket) {
				tk.StartedAt = &earlier
			}),
			next:          domain.TicketStatusBlocked,
			wantStarted:   domain.Clear[time.Time](),
			wantCompleted: domain.Clear[time.Time](),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			merged := Derive(tt.prev, domain.TicketPatch{Status: domain.Set(tt.next)}, deriveNow)
			assert.Equal(t, tt.wantStarted, merged.StartedAt, "started_at")
			assert.Equal(t, tt.wantCompleted, merged.CompletedAt, "completed_at")
			assert.Equal(t, tt.wantReason, merged.Reason, "reason")
		})
	}
}

func TestDeriveRulesFireOnPresenceNotInequality(t *testing.T) {
	// Re-sending the current status still runs the rules: open resets both
	// lifecycle timestamps even when they are already null.
	prev := ticketWith(domain.TicketStatusOpen, nil)
	merged := Derive(prev, domain.TicketPatch{Status: domain.Set(domain.TicketStatusOpen)}, deriveNow)

	assert.True(t, merged.StartedAt.IsNull())
	assert.True(t, merged.CompletedAt.IsNull())
}

func TestDeriveExplicitTimestampBeatsDerivation(t *testing.T) {
	explicit := time.Date(2025, 5, 20, 8, 0, 0, 0, time.UTC)
	prev := ticketWith(domain.TicketStatusOpen, nil)

	merged := Derive(prev, domain.TicketPatch{
		Status:    domain.Set(domain.TicketStatusInProgress),
		StartedAt: domain.Set(explicit),
	}, deriveNow)

	got, ok := merged.StartedAt.Value()
	require.True(t, ok)
	assert.Equal(t, explicit, got)
}
