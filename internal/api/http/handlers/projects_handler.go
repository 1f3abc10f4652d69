package handlers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/project-tracker/internal/api/dto"
	"github.com/spec-kit/project-tracker/internal/repository"
	apperrors "github.com/spec-kit/project-tracker/pkg/util/errorutil"
)

// ProjectsHandler exposes read endpoints for projects.
type ProjectsHandler struct {
	projects repository.ProjectRepository
}

// NewProjectsHandler constructs handler.
func NewProjectsHandler(projects repository.ProjectRepository) *ProjectsHandler {
	return &ProjectsHandler{projects: projects}
}

// ListProjects GET /projects.
func (h *ProjectsHandler) ListProjects(c *fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	offset, _ := strconv.Atoi(c.Query("offset", "0"))

	projects, err := h.projects.List(c.Context(), limit, offset)
	if err != nil {
		return apperrors.MapError(err)
	}
	items := make([]dto.ProjectResponse, 0, len(projects))
	for i := range projects {
		items = append(items, dto.FromProject(&projects[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetProject GET /projects/:projectId.
func (h *ProjectsHandler) GetProject(c *fiber.Ctx) error {
	project, err := h.projects.GetByID(c.Context(), c.Params("projectId"))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("project", map[string]any{"project_id": c.Params("projectId")})
		}
		return apperrors.MapError(err)
	}
	return c.JSON(fiber.Map{"data": dto.FromProject(project)})
}
