package domain

import "time"

// Field is a presence-aware partial-update value. It distinguishes three
// states a plain pointer collapses: absent (leave untouched), explicit null
// (clear), and an explicit value (set).
type Field[T any] struct {
	present bool
	value   *T
}

// Set returns a field carrying an explicit value.
func Set[T any](v T) Field[T] {
	return Field[T]{present: true, value: &v}
}

// Clear returns a field carrying an explicit null.
func Clear[T any]() Field[T] {
	return Field[T]{present: true}
}

// Present reports whether the field appeared in the request at all.
func (f Field[T]) Present() bool {
	return f.present
}

// IsNull reports whether the field was explicitly cleared.
func (f Field[T]) IsNull() bool {
	return f.present && f.value == nil
}

// Value returns the explicit value and whether one is carried.
func (f Field[T]) Value() (T, bool) {
	if f.value == nil {
		var zero T
		return zero, false
	}
	return *f.value, true
}

// Ptr returns the carried value as a nullable pointer. Only meaningful when
// the field is present.
func (f Field[T]) Ptr() *T {
	if f.value == nil {
		return nil
	}
	v := *f.value
	return &v
}

// TicketPatch is a partial update over the mutable ticket attributes. Absent
// fields are left untouched by the record store; present-null fields are
// cleared.
type TicketPatch struct {
	Title         Field[string]
	Description   Field[string]
	Status        Field[TicketStatus]
	AssigneeID    Field[string]
	SQAAssigneeID Field[string]
	CreatedAt     Field[time.Time]
	AssignedAt    Field[time.Time]
	SQAAssignedAt Field[time.Time]
	StartedAt     Field[time.Time]
	CompletedAt   Field[time.Time]
	Reason        Field[ReasonBag]
	ActorID       Field[string]
}

// IsEmpty reports whether the patch touches nothing.
func (p TicketPatch) IsEmpty() bool {
	return !p.Title.Present() && !p.Description.Present() && !p.Status.Present() &&
		!p.AssigneeID.Present() && !p.SQAAssigneeID.Present() &&
		!p.CreatedAt.Present() && !p.AssignedAt.Present() && !p.SQAAssignedAt.Present() &&
		!p.StartedAt.Present() && !p.CompletedAt.Present() &&
		!p.Reason.Present() && !p.ActorID.Present()
}

// ResolveTime merges a patch field over the previous stored value, yielding
// the candidate post-commit value for that field.
func ResolveTime(previous *time.Time, f Field[time.Time]) *time.Time {
	if !f.Present() {
		return previous
	}
	return f.Ptr()
}
