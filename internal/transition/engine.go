package transition

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/project-tracker/internal/domain"
	"github.com/spec-kit/project-tracker/internal/events"
	"github.com/spec-kit/project-tracker/internal/observability"
	apperrors "github.com/spec-kit/project-tracker/pkg/util/errorutil"
)

const defaultNotifyTimeout = 5 * time.Second

// TicketStore is the record-store boundary the engine commits through.
// Fields absent from the patch are left untouched; present-null fields are
// cleared. ApplyPatch returns the post-update row.
type TicketStore interface {
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	ApplyPatch(ctx context.Context, id string, patch domain.TicketPatch) (*domain.Ticket, error)
}

// Engine orchestrates the ticket field-update transaction: fetch, gate,
// derive, validate, commit, then hand the transition off for notification.
// It is the only core component with I/O.
type Engine struct {
	store         TicketStore
	dispatcher    events.Dispatcher
	logger        *zap.Logger
	metrics       *observability.Metrics
	nowFn         func() time.Time
	notifyTimeout time.Duration
}

// Dependencies bundles collaborators for the engine.
type Dependencies struct {
	Store      TicketStore
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	Metrics    *observability.Metrics

	// Now overrides the clock; nil means time.Now.
	Now func() time.Time
	// NotifyTimeout bounds the fire-and-forget dispatch independently of
	// the request lifetime.
	NotifyTimeout time.Duration
}

// NewEngine constructs the engine.
func NewEngine(deps Dependencies) *Engine {
	e := &Engine{
		store:         deps.Store,
		dispatcher:    deps.Dispatcher,
		logger:        deps.Logger,
		metrics:       deps.Metrics,
		nowFn:         deps.Now,
		notifyTimeout: deps.NotifyTimeout,
	}
	if e.logger == nil {
		e.logger = zap.NewNop()
	}
	if e.nowFn == nil {
		e.nowFn = time.Now
	}
	if e.notifyTimeout <= 0 {
		e.notifyTimeout = defaultNotifyTimeout
	}
	return e
}

// Apply runs one request-scoped update transaction against a ticket. The
// caller is assumed to already hold edit permission. A rejected update
// leaves the row completely unchanged.
func (e *Engine) Apply(ctx context.Context, ticketID string, req domain.TicketPatch, actorID string) (*domain.Ticket, error) {
	prev, err := e.store.GetByID(ctx, ticketID)
	if err != nil {
		return nil, e.reject(ticketID, mapStoreError(err, ticketID))
	}

	if req.Status.Present() && req.Status.IsNull() {
		return nil, e.reject(ticketID, apperrors.NewValidationError("status cannot be cleared", nil))
	}
	if next, ok := req.Status.Value(); ok {
		if err := GuardCancellation(next, prev.Status, req.Reason); err != nil {
			return nil, e.reject(ticketID, err)
		}
		if next == domain.TicketStatusCancelled {
			req.Reason = stampCancellation(req.Reason, e.nowFn())
		}
	}

	merged := Derive(prev, req, e.nowFn())

	explicit := ExplicitTimes{
		CreatedAt:   req.CreatedAt.Present(),
		AssignedAt:  req.AssignedAt.Present(),
		StartedAt:   req.StartedAt.Present(),
		CompletedAt: req.CompletedAt.Present(),
	}
	if err := Validate(ResolveCandidate(prev, merged), explicit); err != nil {
		return nil, e.reject(ticketID, err)
	}

	// Audit attribution only; not covered by the ordering invariants.
	merged.ActorID = domain.Set(actorID)

	updated, err := e.store.ApplyPatch(ctx, ticketID, merged)
	if err != nil {
		return nil, e.reject(ticketID, mapStoreError(err, ticketID))
	}

	if e.metrics != nil {
		e.metrics.RecordTransition(string(prev.Status), string(updated.Status))
	}
	if req.Status.Present() {
		e.publishTransition(updated, prev.Status, actorID)
	}
	return updated, nil
}

// publishTransition hands the committed transition to the dispatcher without
// blocking the response path. Dispatch failures are logged and swallowed;
// they never roll back the commit.
func (e *Engine) publishTransition(ticket *domain.Ticket, previous domain.TicketStatus, actorID string) {
	event := events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventTicketTransitioned,
		TicketID:  ticket.ID,
		ProjectID: ticket.ProjectID,
		ActorID:   actorID,
		Timestamp: e.nowFn(),
		Payload: events.TicketTransitionedPayload{
			Ticket:         ticket,
			PreviousStatus: previous,
		},
	}

	if e.dispatcher == nil {
		return
	}
	logger := e.logger
	timeout := e.notifyTimeout
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := e.dispatcher.Publish(ctx, event); err != nil {
			logger.Warn("transition notification dispatch failed",
				zap.String("ticket_id", ticket.ID),
				zap.String("previous_status", string(previous)),
				zap.String("new_status", string(ticket.Status)),
				zap.Error(err))
		}
	}()
}

func (e *Engine) reject(ticketID string, err error) error {
	if e.metrics != nil {
		e.metrics.RecordRejection(apperrors.ToDomainError(err).Code)
	}
	e.logger.Debug("ticket update rejected", zap.String("ticket_id", ticketID), zap.Error(err))
	return err
}

// stampCancellation fills in the capture timestamp when the caller's
// cancellation reason omitted it.
func stampCancellation(reason domain.Field[domain.ReasonBag], now time.Time) domain.Field[domain.ReasonBag] {
	bag, ok := reason.Value()
	if !ok {
		return reason
	}
	entry, ok := bag[domain.TicketStatusCancelled]
	if !ok || !entry.At.IsZero() {
		return reason
	}
	stamped := make(domain.ReasonBag, len(bag))
	for k, v := range bag {
		stamped[k] = v
	}
	entry.At = now
	stamped[domain.TicketStatusCancelled] = entry
	return domain.Set(stamped)
}

func mapStoreError(err error, ticketID string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
	}
	return apperrors.NewStoreError(err)
}
