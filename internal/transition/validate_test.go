package transition

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/spec-kit/project-tracker/pkg/util/errorutil"
)

func tsPtr(t time.Time) *time.Time { return &t }

func TestValidateOrdering(t *testing.T) {
	t0 := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	t1 := t0.Add(time.Hour)
	t2 := t0.Add(2 * time.Hour)
	t3 := t0.Add(3 * time.Hour)

	tests := []struct {
		name        string
		candidate   CandidateTimes
		explicit    ExplicitTimes
		wantErr     bool
		wantField   string
		wantAgainst string
	}{
		{
			name: "well ordered chain passes",
			candidate: CandidateTimes{
				CreatedAt: tsPtr(t0), AssignedAt: tsPtr(t1), StartedAt: tsPtr(t2), CompletedAt: tsPtr(t3),
			},
			explicit: ExplicitTimes{CreatedAt: true, AssignedAt: true, StartedAt: true, CompletedAt: true},
		},
		{
			name: "equal timestamps pass",
			candidate: CandidateTimes{
				CreatedAt: tsPtr(t0), AssignedAt: tsPtr(t0), StartedAt: tsPtr(t0), CompletedAt: tsPtr(t0),
			},
			explicit: ExplicitTimes{CreatedAt: true, AssignedAt: true, StartedAt: true, CompletedAt: true},
		},
		{
			name: "started before assigned fails",
			candidate: CandidateTimes{
				CreatedAt: tsPtr(t0), AssignedAt: tsPtr(t2), StartedAt: tsPtr(t1),
			},
			explicit:    ExplicitTimes{StartedAt: true},
			wantErr:     true,
			wantField:   "started_at",
			wantAgainst: "assigned_at",
		},
		{
			name: "completed before started fails",
			candidate: CandidateTimes{
				StartedAt: tsPtr(t2), CompletedAt: tsPtr(t1),
			},
			explicit:    ExplicitTimes{CompletedAt: true},
			wantErr:     true,
			wantField:   "completed_at",
			wantAgainst: "started_at",
		},
		{
			name: "created after assigned fails",
			candidate: CandidateTimes{
				CreatedAt: tsPtr(t2), AssignedAt: tsPtr(t1),
			},
			explicit:    ExplicitTimes{CreatedAt: true},
			wantErr:     true,
			wantField:   "created_at",
			wantAgainst: "assigned_at",
		},
		{
			name: "null comparands never constrain",
			candidate: CandidateTimes{
				StartedAt: tsPtr(t1),
			},
			explicit: ExplicitTimes{StartedAt: true},
		},
		{
			name: "out-of-order values pass when not explicitly supplied",
			candidate: CandidateTimes{
				StartedAt: tsPtr(t3), CompletedAt: tsPtr(t1),
			},
			explicit: ExplicitTimes{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.candidate, tt.explicit)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, apperrors.IsCode(err, apperrors.CodeInvalidTimestampOrder))
			domainErr := apperrors.ToDomainError(err)
			assert.Equal(t, tt.wantField, domainErr.Details["field"])
			assert.Equal(t, tt.wantAgainst, domainErr.Details["against"])
		})
	}
}
