package domain

import "time"

// UserRole determines which screens and mutations a user may reach.
type UserRole string

const (
	UserRoleAdmin     UserRole = "ADMIN"
	UserRoleDeveloper UserRole = "DEVELOPER"
	UserRoleReviewer  UserRole = "REVIEWER"
	UserRoleViewer    UserRole = "VIEWER"
)

// CanEditTickets reports whether the role may mutate tickets.
func (r UserRole) CanEditTickets() bool {
	return r == UserRoleAdmin || r == UserRoleDeveloper || r == UserRoleReviewer
}

// User is a person who can be assigned tickets and receive notifications.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         UserRole
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
