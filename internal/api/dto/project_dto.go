package dto

import (
	"time"

	"github.com/spec-kit/project-tracker/internal/domain"
)

// ProjectResponse is the project wire representation.
type ProjectResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	RequiresSQA bool      `json:"requires_sqa"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// FromProject maps the domain entity to its wire shape.
func FromProject(p *domain.Project) ProjectResponse {
	return ProjectResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		RequiresSQA: p.RequiresSQA,
		IsActive:    p.IsActive,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}
