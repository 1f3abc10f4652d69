package dto

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/project-tracker/internal/domain"
	apperrors "github.com/spec-kit/project-tracker/pkg/util/errorutil"
)

func TestParseTicketPatchPresence(t *testing.T) {
	body := []byte(`{
		"status": "in_progress",
		"assignee_id": null,
		"started_at": "2025-06-01T12:00:00Z"
	}`)

	patch, err := ParseTicketPatch(body)
	require.NoError(t, err)

	status, ok := patch.Status.Value()
	require.True(t, ok)
	assert.Equal(t, domain.TicketStatusInProgress, status)

	assert.True(t, patch.AssigneeID.Present())
	assert.True(t, patch.AssigneeID.IsNull())

	started, ok := patch.StartedAt.Value()
	require.True(t, ok)
	assert.Equal(t, time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC), started)

	// Absent keys stay absent: "do not touch" is not "clear".
	assert.False(t, patch.CompletedAt.Present())
	assert.False(t, patch.SQAAssigneeID.Present())
	assert.False(t, patch.Reason.Present())
}

func TestParseTicketPatchReason(t *testing.T) {
	body := []byte(`{
		"status": "cancelled",
		"reason": {"cancelled": {"reason": "dup", "cancelledAt": "2025-06-01T12:00:00Z"}}
	}`)

	patch, err := ParseTicketPatch(body)
	require.NoError(t, err)

	bag, ok := patch.Reason.Value()
	require.True(t, ok)
	entry, ok := bag[domain.TicketStatusCancelled]
	require.True(t, ok)
	assert.Equal(t, "dup", entry.Reason)
	assert.Equal(t, time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC), entry.At)
}

func TestParseTicketPatchErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "not an object", body: `[1,2,3]`},
		{name: "unrecognized key", body: `{"priority": "high"}`},
		{name: "unparseable timestamp", body: `{"started_at": "last tuesday"}`},
		{name: "timestamp wrong type", body: `{"completed_at": 1234567}`},
		{name: "reason wrong shape", body: `{"reason": "because"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseTicketPatch([]byte(tt.body))
			assert.True(t, apperrors.IsCode(err, apperrors.CodeValidationFailed))
		})
	}
}

func TestParseTicketPatchEmptyBody(t *testing.T) {
	patch, err := ParseTicketPatch([]byte(`{}`))
	require.NoError(t, err)
	assert.True(t, patch.IsEmpty())
}
