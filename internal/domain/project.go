package domain

import "time"

// Project owns tickets and carries workflow flags.
type Project struct {
	ID          string
	Name        string
	Description string
	RequiresSQA bool
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
