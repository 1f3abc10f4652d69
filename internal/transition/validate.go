package transition

import (
	"time"

	"github.com/spec-kit/project-tracker/internal/domain"
	apperrors "github.com/spec-kit/project-tracker/pkg/util/errorutil"
)

// CandidateTimes is the fully resolved post-commit timestamp set: previous
// stored values overridden by the merged change set.
type CandidateTimes struct {
	CreatedAt   *time.Time
	AssignedAt  *time.Time
	StartedAt   *time.Time
	CompletedAt *time.Time
}

// ExplicitTimes flags which timestamps the original caller request supplied.
// Only explicitly supplied fields are checked; values that merely arrived by
// derivation are trusted.
type ExplicitTimes struct {
	CreatedAt   bool
	AssignedAt  bool
	StartedAt   bool
	CompletedAt bool
}

// ordering bound between two lifecycle timestamps. A nil comparand never
// constrains.
type bound struct {
	field   string
	against string
	// earlier is the side that must not come after the other.
	earlier func(c CandidateTimes) *time.Time
	later   func(c CandidateTimes) *time.Time
}

func createdAt(c CandidateTimes) *time.Time   { return c.CreatedAt }
func assignedAt(c CandidateTimes) *time.Time  { return c.AssignedAt }
func startedAt(c CandidateTimes) *time.Time   { return c.StartedAt }
func completedAt(c CandidateTimes) *time.Time { return c.CompletedAt }

var orderingBounds = map[string][]bound{
	"created_at": {
		{"created_at", "assigned_at", createdAt, assignedAt},
		{"created_at", "started_at", createdAt, startedAt},
		{"created_at", "completed_at", createdAt, completedAt},
	},
	"assigned_at": {
		{"assigned_at", "created_at", createdAt, assignedAt},
		{"assigned_at", "started_at", assignedAt, startedAt},
		{"assigned_at", "completed_at", assignedAt, completedAt},
	},
	"started_at": {
		{"started_at", "created_at", createdAt, startedAt},
		{"started_at", "assigned_at", assignedAt, startedAt},
		{"started_at", "completed_at", startedAt, completedAt},
	},
	"completed_at": {
		{"completed_at", "created_at", createdAt, completedAt},
		{"completed_at", "assigned_at", assignedAt, completedAt},
		{"completed_at", "started_at", startedAt, completedAt},
	},
}

// Validate checks the temporal ordering created_at <= assigned_at <=
// started_at <= completed_at over the candidate set, for every timestamp the
// caller supplied explicitly. A violated comparison rejects the whole update.
func Validate(candidate CandidateTimes, explicit ExplicitTimes) error {
	for _, field := range explicitFields(explicit) {
		for _, b := range orderingBounds[field] {
			lo := b.earlier(candidate)
			hi := b.later(candidate)
			if lo == nil || hi == nil {
				continue
			}
			if lo.After(*hi) {
				return apperrors.NewInvalidTimestampOrder(b.field, b.against)
			}
		}
	}
	return nil
}

func explicitFields(explicit ExplicitTimes) []string {
	fields := make([]string, 0, 4)
	if explicit.CreatedAt {
		fields = append(fields, "created_at")
	}
	if explicit.AssignedAt {
		fields = append(fields, "assigned_at")
	}
	if explicit.StartedAt {
		fields = append(fields, "started_at")
	}
	if explicit.CompletedAt {
		fields = append(fields, "completed_at")
	}
	return fields
}

// ResolveCandidate merges the change set over the previous row to produce
// the post-commit timestamp values the validator checks.
func ResolveCandidate(prev *domain.Ticket, merged domain.TicketPatch) CandidateTimes {
	return CandidateTimes{
		CreatedAt:   domain.ResolveTime(prev.CreatedAt, merged.CreatedAt),
		AssignedAt:  domain.ResolveTime(prev.AssignedAt, merged.AssignedAt),
		StartedAt:   domain.ResolveTime(prev.StartedAt, merged.StartedAt),
		CompletedAt: domain.ResolveTime(prev.CompletedAt, merged.CompletedAt),
	}
}
