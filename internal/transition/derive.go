package transition

import (
	"time"

	"github.com/spec-kit/project-tracker/internal/domain"
)

// derivation carries the state threaded through the rule chain. out starts
// as a copy of the caller's request; rules write derived values into it, and
// a later rule may overwrite an earlier one for the same field. A field the
// caller supplied explicitly is never overwritten by a rule.
type derivation struct {
	prev *domain.Ticket
	req  domain.TicketPatch
	out  domain.TicketPatch
	now  time.Time
}

func (d *derivation) stampAssignedAt()    { d.setTime(&d.out.AssignedAt, d.req.AssignedAt, &d.now) }
func (d *derivation) clearAssignedAt()    { d.setTime(&d.out.AssignedAt, d.req.AssignedAt, nil) }
func (d *derivation) stampSQAAssignedAt() { d.setTime(&d.out.SQAAssignedAt, d.req.SQAAssignedAt, &d.now) }
func (d *derivation) clearSQAAssignedAt() { d.setTime(&d.out.SQAAssignedAt, d.req.SQAAssignedAt, nil) }
func (d *derivation) stampStartedAt()     { d.setTime(&d.out.StartedAt, d.req.StartedAt, &d.now) }
func (d *derivation) clearStartedAt()     { d.setTime(&d.out.StartedAt, d.req.StartedAt, nil) }
func (d *derivation) stampCompletedAt()   { d.setTime(&d.out.CompletedAt, d.req.CompletedAt, &d.now) }
func (d *derivation) clearCompletedAt()   { d.setTime(&d.out.CompletedAt, d.req.CompletedAt, nil) }

func (d *derivation) setTime(target *domain.Field[time.Time], explicit domain.Field[time.Time], value *time.Time) {
	if explicit.Present() {
		return
	}
	if value == nil {
		*target = domain.Clear[time.Time]()
		return
	}
	*target = domain.Set(*value)
}

func (d *derivation) clearReason() {
	if d.req.Reason.Present() {
		return
	}
	d.out.Reason = domain.Clear[domain.ReasonBag]()
}

// statusRule inspects the previous and requested status and writes derived
// timestamp changes. Rules run in order; the last write for a field wins.
type statusRule func(d *derivation, prev, next domain.TicketStatus)

var statusRules = []statusRule{
	ruleStartWhenLeavingBacklog,
	ruleStampCompletion,
	ruleClearOnLeavingTerminal,
	ruleUnstartWhenShelved,
	ruleOpenResetsLifecycle,
	ruleRestartIntoWork,
}

// Derive computes the derived timestamp and reason changes a requested
// update implies, merged over the caller's request. Explicit caller values
// always take precedence over derived ones. Rules fire on field presence in
// the request, not on value inequality: re-sending the current status still
// runs the status rules.
func Derive(prev *domain.Ticket, req domain.TicketPatch, now time.Time) domain.TicketPatch {
	d := &derivation{prev: prev, req: req, out: req, now: now}

	deriveAssignment(d, req.AssigneeID, prev.AssigneeID, d.stampAssignedAt, d.clearAssignedAt)
	deriveAssignment(d, req.SQAAssigneeID, prev.SQAAssigneeID, d.stampSQAAssignedAt, d.clearSQAAssignedAt)

	if next, ok := req.Status.Value(); ok {
		for _, rule := range statusRules {
			rule(d, prev.Status, next)
		}
	}
	return d.out
}

// deriveAssignment records when an assignment first became true: a new or
// changed assignee stamps the matching assigned-at, clearing the assignee
// clears it.
func deriveAssignment(d *derivation, requested domain.Field[string], previous *string, stamp, clear func()) {
	if !requested.Present() {
		return
	}
	if requested.IsNull() {
		clear()
		return
	}
	next, _ := requested.Value()
	if previous == nil || *previous != next {
		stamp()
	}
}

func isBacklog(s domain.TicketStatus) bool {
	return s == domain.TicketStatusOpen || s == domain.TicketStatusBlocked
}

// Moving out of the backlog starts the clock.
func ruleStartWhenLeavingBacklog(d *derivation, prev, next domain.TicketStatus) {
	if isBacklog(prev) && !isBacklog(next) {
		d.stampStartedAt()
	}
}

// Entering a terminal status stamps completion, backfilling started_at for
// tickets that skipped the in-progress stage.
func ruleStampCompletion(d *derivation, prev, next domain.TicketStatus) {
	if !next.IsTerminal() {
		return
	}
	d.stampCompletedAt()
	if d.prev.StartedAt == nil {
		d.stampStartedAt()
	}
}

// Leaving a terminal status reopens the ticket: completion and the recorded
// reason no longer apply.
func ruleClearOnLeavingTerminal(d *derivation, prev, next domain.TicketStatus) {
	if prev.IsTerminal() && !next.IsTerminal() {
		d.clearCompletedAt()
		d.clearReason()
	}
}

// Putting in-progress work back on the backlog forgets the start time.
func ruleUnstartWhenShelved(d *derivation, prev, next domain.TicketStatus) {
	if prev == domain.TicketStatusInProgress && isBacklog(next) {
		d.clearStartedAt()
	}
}

// open is a full lifecycle reset regardless of where the ticket came from.
func ruleOpenResetsLifecycle(d *derivation, prev, next domain.TicketStatus) {
	if next == domain.TicketStatusOpen {
		d.clearStartedAt()
		d.clearCompletedAt()
	}
}

// Pulling a ticket from a later stage back into active work clears
// completion and backfills started_at if it was never set.
func ruleRestartIntoWork(d *derivation, prev, next domain.TicketStatus) {
	if (next == domain.TicketStatusInProgress || next == domain.TicketStatusBlocked) && !isBacklog(prev) {
		d.clearCompletedAt()
		if d.prev.StartedAt == nil {
			d.stampStartedAt()
		}
	}
}
