package transition

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/spec-kit/project-tracker/internal/domain"
	apperrors "github.com/spec-kit/project-tracker/pkg/util/errorutil"
)

func TestGuardCancellation(t *testing.T) {
	withReason := domain.Set(domain.ReasonBag{
		domain.TicketStatusCancelled: {Reason: "duplicate of another ticket"},
	})
	blankReason := domain.Set(domain.ReasonBag{
		domain.TicketStatusCancelled: {Reason: "   "},
	})
	wrongKey := domain.Set(domain.ReasonBag{
		domain.TicketStatusRejected: {Reason: "will not fix"},
	})

	tests := []struct {
		name            string
		requested       domain.TicketStatus
		previous        domain.TicketStatus
		reason          domain.Field[domain.ReasonBag]
		wantNeedsReason bool
	}{
		{
			name:            "cancelling without reason is rejected",
			requested:       domain.TicketStatusCancelled,
			previous:        domain.TicketStatusInProgress,
			wantNeedsReason: true,
		},
		{
			name:            "blank reason is rejected",
			requested:       domain.TicketStatusCancelled,
			previous:        domain.TicketStatusInProgress,
			reason:          blankReason,
			wantNeedsReason: true,
		},
		{
			name:            "reason under the wrong key is rejected",
			requested:       domain.TicketStatusCancelled,
			previous:        domain.TicketStatusOpen,
			reason:          wrongKey,
			wantNeedsReason: true,
		},
		{
			name:      "populated reason passes",
			requested: domain.TicketStatusCancelled,
			previous:  domain.TicketStatusInProgress,
			reason:    withReason,
		},
		{
			name:      "already cancelled needs no reason",
			requested: domain.TicketStatusCancelled,
			previous:  domain.TicketStatusCancelled,
		},
		{
			name:      "non-cancellation transitions are not gated",
			requested: domain.TicketStatusRejected,
			previous:  domain.TicketStatusInProgress,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := GuardCancellation(tt.requested, tt.previous, tt.reason)
			if tt.wantNeedsReason {
				assert.True(t, apperrors.IsCode(err, apperrors.CodeNeedsReason))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
