package transition

import (
	"strings"

	"github.com/spec-kit/project-tracker/internal/domain"
	apperrors "github.com/spec-kit/project-tracker/pkg/util/errorutil"
)

// GuardCancellation enforces the two-phase cancellation protocol: a
// transition into cancelled must carry a non-blank free-text reason. The
// caller is expected to prompt for one and resubmit the same payload with
// the reason populated. Already-cancelled tickets pass (the reason is on
// record).
func GuardCancellation(requested, previous domain.TicketStatus, reason domain.Field[domain.ReasonBag]) error {
	if requested != domain.TicketStatusCancelled || previous == domain.TicketStatusCancelled {
		return nil
	}
	bag, ok := reason.Value()
	if !ok {
		return apperrors.NewNeedsReason()
	}
	entry, ok := bag[domain.TicketStatusCancelled]
	if !ok || strings.TrimSpace(entry.Reason) == "" {
		return apperrors.NewNeedsReason()
	}
	return nil
}
