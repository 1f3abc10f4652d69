package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/project-tracker/internal/config"
	"github.com/spec-kit/project-tracker/internal/domain"
)

type fakeProjects struct {
	projects map[string]*domain.Project
}

func (f *fakeProjects) GetByID(_ context.Context, id string) (*domain.Project, error) {
	p, ok := f.projects[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return p, nil
}

func (f *fakeProjects) List(context.Context, int, int) ([]domain.Project, error) {
	return nil, nil
}

type published struct {
	channel string
	payload []byte
}

type fakePublisher struct {
	sent []published
}

func (f *fakePublisher) Publish(_ context.Context, channel string, payload []byte) error {
	f.sent = append(f.sent, published{channel: channel, payload: payload})
	return nil
}

func notifyFixture(requiresSQA bool) (*NotificationService, *fakePublisher) {
	projects := &fakeProjects{projects: map[string]*domain.Project{
		"p-1": {ID: "p-1", Name: "tracker", RequiresSQA: requiresSQA, IsActive: true},
	}}
	publisher := &fakePublisher{}
	cfg := config.NotificationConfig{
		ChannelPrefix:          "notifications",
		DefaultReviewerChannel: "reviewers",
		DefaultDevChannel:      "developers",
	}
	return NewNotificationService(projects, publisher, zap.NewNop(), cfg), publisher
}

func qaTicket(sqaAssignee *string) *domain.Ticket {
	now := time.Now()
	return &domain.Ticket{
		ID:            "t-1",
		ProjectID:     "p-1",
		Title:         "fix login flow",
		Status:        domain.TicketStatusForQA,
		SQAAssigneeID: sqaAssignee,
		UpdatedAt:     now,
	}
}

func TestNotifyReadyForQATargetsAssignee(t *testing.T) {
	assignee := "u-9"
	svc, publisher := notifyFixture(true)

	err := svc.NotifyReadyForQA(context.Background(), qaTicket(&assignee), domain.TicketStatusInProgress)
	require.NoError(t, err)
	require.Len(t, publisher.sent, 1)
	assert.Equal(t, "notifications:user:u-9", publisher.sent[0].channel)

	var msg map[string]any
	require.NoError(t, json.Unmarshal(publisher.sent[0].payload, &msg))
	assert.Equal(t, "ready_for_qa", msg["kind"])
	assert.Equal(t, "t-1", msg["ticket_id"])
	assert.Equal(t, "in_progress", msg["previous_status"])
}

func TestNotifyReadyForQAFallsBackToReviewerChannel(t *testing.T) {
	svc, publisher := notifyFixture(true)

	err := svc.NotifyReadyForQA(context.Background(), qaTicket(nil), domain.TicketStatusInProgress)
	require.NoError(t, err)
	require.Len(t, publisher.sent, 1)
	assert.Equal(t, "notifications:reviewers", publisher.sent[0].channel)
}

func TestNotifyReadyForQANoOps(t *testing.T) {
	tests := []struct {
		name        string
		status      domain.TicketStatus
		previous    domain.TicketStatus
		requiresSQA bool
	}{
		{name: "wrong target status", status: domain.TicketStatusInProgress, previous: domain.TicketStatusOpen, requiresSQA: true},
		{name: "already in for_qa", status: domain.TicketStatusForQA, previous: domain.TicketStatusForQA, requiresSQA: true},
		{name: "project does not require sqa", status: domain.TicketStatusForQA, previous: domain.TicketStatusInProgress, requiresSQA: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, publisher := notifyFixture(tt.requiresSQA)
			ticket := qaTicket(nil)
			ticket.Status = tt.status

			err := svc.NotifyReadyForQA(context.Background(), ticket, tt.previous)
			require.NoError(t, err)
			assert.Empty(t, publisher.sent)
		})
	}
}

func TestNotifyReturnedToDevTargetsDeveloper(t *testing.T) {
	assignee := "u-3"
	svc, publisher := notifyFixture(true)

	ticket := qaTicket(nil)
	ticket.Status = domain.TicketStatusReturnedToDev
	ticket.AssigneeID = &assignee

	err := svc.NotifyReturnedToDev(context.Background(), ticket, domain.TicketStatusForQA)
	require.NoError(t, err)
	require.Len(t, publisher.sent, 1)
	assert.Equal(t, "notifications:user:u-3", publisher.sent[0].channel)
}

func TestNotifyReturnedToDevFallsBackToDevChannel(t *testing.T) {
	svc, publisher := notifyFixture(true)

	ticket := qaTicket(nil)
	ticket.Status = domain.TicketStatusReturnedToDev

	err := svc.NotifyReturnedToDev(context.Background(), ticket, domain.TicketStatusForQA)
	require.NoError(t, err)
	require.Len(t, publisher.sent, 1)
	assert.Equal(t, "notifications:developers", publisher.sent[0].channel)
}

func TestNotifyFailsOpenOnMissingProject(t *testing.T) {
	svc, publisher := notifyFixture(true)
	ticket := qaTicket(nil)
	ticket.ProjectID = "p-missing"

	err := svc.NotifyReadyForQA(context.Background(), ticket, domain.TicketStatusInProgress)
	assert.Error(t, err)
	assert.Empty(t, publisher.sent)
}
