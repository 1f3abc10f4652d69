package dto

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spec-kit/project-tracker/internal/domain"
	apperrors "github.com/spec-kit/project-tracker/pkg/util/errorutil"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// TicketResponse is the ticket wire representation.
type TicketResponse struct {
	ID            string              `json:"id"`
	ProjectID     string              `json:"project_id"`
	Title         string              `json:"title"`
	Description   string              `json:"description"`
	Status        domain.TicketStatus `json:"status"`
	AssigneeID    *string             `json:"assignee_id"`
	SQAAssigneeID *string             `json:"sqa_assignee_id"`
	CreatedAt     *time.Time          `json:"created_at"`
	AssignedAt    *time.Time          `json:"assigned_at"`
	SQAAssignedAt *time.Time          `json:"sqa_assigned_at"`
	StartedAt     *time.Time          `json:"started_at"`
	CompletedAt   *time.Time          `json:"completed_at"`
	Reason        domain.ReasonBag    `json:"reason,omitempty"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

// FromTicket maps the domain entity to its wire shape.
func FromTicket(t *domain.Ticket) TicketResponse {
	return TicketResponse{
		ID:            t.ID,
		ProjectID:     t.ProjectID,
		Title:         t.Title,
		Description:   t.Description,
		Status:        t.Status,
		AssigneeID:    t.AssigneeID,
		SQAAssigneeID: t.SQAAssigneeID,
		CreatedAt:     t.CreatedAt,
		AssignedAt:    t.AssignedAt,
		SQAAssignedAt: t.SQAAssignedAt,
		StartedAt:     t.StartedAt,
		CompletedAt:   t.CompletedAt,
		Reason:        t.Reason,
		UpdatedAt:     t.UpdatedAt,
	}
}

// ParseTicketPatch decodes a partial-update body preserving key presence:
// an absent key means "do not touch", an explicit null means "clear", and a
// concrete value means "set explicitly" (which also suppresses timestamp
// derivation for that field).
func ParseTicketPatch(body []byte) (domain.TicketPatch, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return domain.TicketPatch{}, apperrors.NewValidationError("invalid payload", nil)
	}

	var patch domain.TicketPatch
	var err error
	for key, value := range raw {
		switch key {
		case "title":
			patch.Title, err = stringField(key, value)
		case "description":
			patch.Description, err = stringField(key, value)
		case "status":
			patch.Status, err = statusField(key, value)
		case "assignee_id":
			patch.AssigneeID, err = stringField(key, value)
		case "sqa_assignee_id":
			patch.SQAAssigneeID, err = stringField(key, value)
		case "created_at":
			patch.CreatedAt, err = timeField(key, value)
		case "assigned_at":
			patch.AssignedAt, err = timeField(key, value)
		case "sqa_assigned_at":
			patch.SQAAssignedAt, err = timeField(key, value)
		case "started_at":
			patch.StartedAt, err = timeField(key, value)
		case "completed_at":
			patch.CompletedAt, err = timeField(key, value)
		case "reason":
			patch.Reason, err = reasonField(key, value)
		default:
			return domain.TicketPatch{}, apperrors.NewValidationError(
				fmt.Sprintf("unrecognized field %q", key), map[string]any{"field": key})
		}
		if err != nil {
			return domain.TicketPatch{}, err
		}
	}
	return patch, nil
}

func isNull(value json.RawMessage) bool {
	return string(bytes.TrimSpace(value)) == "null"
}

func stringField(key string, value json.RawMessage) (domain.Field[string], error) {
	if isNull(value) {
		return domain.Clear[string](), nil
	}
	var s string
	if err := json.Unmarshal(value, &s); err != nil {
		return domain.Field[string]{}, apperrors.NewValidationError(
			fmt.Sprintf("%s must be a string", key), map[string]any{"field": key})
	}
	return domain.Set(s), nil
}

func statusField(key string, value json.RawMessage) (domain.Field[domain.TicketStatus], error) {
	if isNull(value) {
		return domain.Clear[domain.TicketStatus](), nil
	}
	var s domain.TicketStatus
	if err := json.Unmarshal(value, &s); err != nil {
		return domain.Field[domain.TicketStatus]{}, apperrors.NewValidationError(
			fmt.Sprintf("%s must be a string", key), map[string]any{"field": key})
	}
	return domain.Set(s), nil
}

func timeField(key string, value json.RawMessage) (domain.Field[time.Time], error) {
	if isNull(value) {
		return domain.Clear[time.Time](), nil
	}
	var s string
	if err := json.Unmarshal(value, &s); err != nil {
		return domain.Field[time.Time]{}, apperrors.NewValidationError(
			fmt.Sprintf("%s must be an RFC 3339 timestamp string", key), map[string]any{"field": key})
	}
	parsed, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return domain.Field[time.Time]{}, apperrors.NewValidationError(
			fmt.Sprintf("%s is not a valid RFC 3339 timestamp", key), map[string]any{"field": key})
	}
	return domain.Set(parsed), nil
}

func reasonField(key string, value json.RawMessage) (domain.Field[domain.ReasonBag], error) {
	if isNull(value) {
		return domain.Clear[domain.ReasonBag](), nil
	}
	var bag domain.ReasonBag
	if err := json.Unmarshal(value, &bag); err != nil {
		return domain.Field[domain.ReasonBag]{}, apperrors.NewValidationError(
			fmt.Sprintf("%s must be an object keyed by status", key), map[string]any{"field": key})
	}
	return domain.Set(bag), nil
}
