package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/project-tracker/internal/config"
	"github.com/spec-kit/project-tracker/internal/domain"
	"github.com/spec-kit/project-tracker/internal/events"
	"github.com/spec-kit/project-tracker/internal/repository"
)

// ChannelPublisher delivers a serialized notification to a named channel.
// The Redis client satisfies this via pub/sub.
type ChannelPublisher interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

// NotificationService emits messages for the two transition patterns that
// warrant one: a ticket becoming ready for QA review, and QA handing a
// ticket back to development. Both are best-effort; a delivery failure is
// logged and never surfaces to the committing request.
type NotificationService struct {
	projects  repository.ProjectRepository
	publisher ChannelPublisher
	logger    *zap.Logger
	cfg       config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(projects repository.ProjectRepository, publisher ChannelPublisher, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{
		projects:  projects,
		publisher: publisher,
		logger:    logger,
		cfg:       cfg,
	}
}

// RegisterHandlers subscribes both transition handlers. Each is invoked
// independently for every committed status change and internally no-ops
// unless its pattern matches.
func (n *NotificationService) RegisterHandlers(dispatcher events.Dispatcher) {
	if dispatcher == nil {
		return
	}
	dispatcher.Subscribe(events.EventTicketTransitioned, n.handleReadyForQA)
	dispatcher.Subscribe(events.EventTicketTransitioned, n.handleReturnedToDev)
}

func (n *NotificationService) handleReadyForQA(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketTransitionedPayload)
	if !ok {
		return nil
	}
	return n.NotifyReadyForQA(ctx, payload.Ticket, payload.PreviousStatus)
}

func (n *NotificationService) handleReturnedToDev(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketTransitionedPayload)
	if !ok {
		return nil
	}
	return n.NotifyReturnedToDev(ctx, payload.Ticket, payload.PreviousStatus)
}

// NotifyReadyForQA messages the SQA assignee, or the default reviewer
// channel, when a ticket on an SQA-required project enters for_qa.
func (n *NotificationService) NotifyReadyForQA(ctx context.Context, ticket *domain.Ticket, previous domain.TicketStatus) error {
	if ticket.Status != domain.TicketStatusForQA || previous == domain.TicketStatusForQA {
		return nil
	}
	return n.deliver(ctx, ticket, previous, "ready_for_qa", ticket.SQAAssigneeID, n.cfg.DefaultReviewerChannel)
}

// NotifyReturnedToDev messages the developer assignee, or the default dev
// channel, when a ticket on an SQA-required project is handed back.
func (n *NotificationService) NotifyReturnedToDev(ctx context.Context, ticket *domain.Ticket, previous domain.TicketStatus) error {
	if ticket.Status != domain.TicketStatusReturnedToDev || previous == domain.TicketStatusReturnedToDev {
		return nil
	}
	return n.deliver(ctx, ticket, previous, "returned_to_dev", ticket.AssigneeID, n.cfg.DefaultDevChannel)
}

// transitionMessage is the wire shape published to the channel.
type transitionMessage struct {
	Kind           string              `json:"kind"`
	TicketID       string              `json:"ticket_id"`
	ProjectID      string              `json:"project_id"`
	Title          string              `json:"title"`
	PreviousStatus domain.TicketStatus `json:"previous_status"`
	NewStatus      domain.TicketStatus `json:"new_status"`
	SentAt         time.Time           `json:"sent_at"`
}

func (n *NotificationService) deliver(ctx context.Context, ticket *domain.Ticket, previous domain.TicketStatus, kind string, targetUserID *string, fallbackChannel string) error {
	project, err := n.projects.GetByID(ctx, ticket.ProjectID)
	if err != nil {
		n.logger.Warn("notification skipped: project lookup failed",
			zap.String("ticket_id", ticket.ID),
			zap.String("kind", kind),
			zap.Error(err))
		return err
	}
	if !project.RequiresSQA {
		return nil
	}

	channel := n.channelFor(targetUserID, fallbackChannel)
	message, err := json.Marshal(transitionMessage{
		Kind:           kind,
		TicketID:       ticket.ID,
		ProjectID:      ticket.ProjectID,
		Title:          ticket.Title,
		PreviousStatus: previous,
		NewStatus:      ticket.Status,
		SentAt:         time.Now(),
	})
	if err != nil {
		return err
	}

	if n.publisher != nil {
		if err := n.publisher.Publish(ctx, channel, message); err != nil {
			n.logger.Warn("notification publish failed",
				zap.String("ticket_id", ticket.ID),
				zap.String("kind", kind),
				zap.String("channel", channel),
				zap.Error(err))
			return err
		}
	}
	n.sendWebhookStub(ticket, kind)

	n.logger.Info("transition notification sent",
		zap.String("ticket_id", ticket.ID),
		zap.String("kind", kind),
		zap.String("channel", channel))
	return nil
}

func (n *NotificationService) channelFor(targetUserID *string, fallback string) string {
	prefix := n.cfg.ChannelPrefix
	if prefix == "" {
		prefix = "notifications"
	}
	if targetUserID != nil && *targetUserID != "" {
		return fmt.Sprintf("%s:user:%s", prefix, *targetUserID)
	}
	return fmt.Sprintf("%s:%s", prefix, fallback)
}

func (n *NotificationService) sendWebhookStub(ticket *domain.Ticket, kind string) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("sendWebhookStub",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("ticket_id", ticket.ID),
		zap.String("kind", kind))
}
