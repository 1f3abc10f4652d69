package handlers

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/project-tracker/internal/api/dto"
	"github.com/spec-kit/project-tracker/internal/auth"
	"github.com/spec-kit/project-tracker/internal/domain"
	"github.com/spec-kit/project-tracker/internal/repository"
	"github.com/spec-kit/project-tracker/internal/transition"
	apperrors "github.com/spec-kit/project-tracker/pkg/util/errorutil"
)

// TicketsHandler exposes ticket endpoints. Updates run through the
// transition engine; everything else is plain CRUD.
type TicketsHandler struct {
	engine   *transition.Engine
	tickets  repository.TicketRepository
	projects repository.ProjectRepository
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(engine *transition.Engine, tickets repository.TicketRepository, projects repository.ProjectRepository) *TicketsHandler {
	return &TicketsHandler{engine: engine, tickets: tickets, projects: projects}
}

// CreateTicket POST /projects/:projectId/tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Title) == "" {
		return apperrors.NewValidationError("title required", nil)
	}

	projectID := c.Params("projectId")
	project, err := h.projects.GetByID(c.Context(), projectID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("project", map[string]any{"project_id": projectID})
		}
		return apperrors.MapError(err)
	}
	if !project.IsActive {
		return apperrors.NewConflict("project inactive", map[string]any{"project_id": projectID})
	}

	ticket := &domain.Ticket{
		ProjectID:   project.ID,
		Title:       strings.TrimSpace(req.Title),
		Description: strings.TrimSpace(req.Description),
		Status:      domain.TicketStatusOpen,
	}
	if err := h.tickets.Create(c.Context(), ticket); err != nil {
		return apperrors.MapError(err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.FromTicket(ticket)})
}

// ListTickets GET /projects/:projectId/tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	offset, _ := strconv.Atoi(c.Query("offset", "0"))

	tickets, err := h.tickets.ListByProject(c.Context(), c.Params("projectId"), limit, offset)
	if err != nil {
		return apperrors.MapError(err)
	}
	items := make([]dto.TicketResponse, 0, len(tickets))
	for i := range tickets {
		items = append(items, dto.FromTicket(&tickets[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	ticket, err := h.tickets.GetByID(c.Context(), c.Params("id"))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("ticket", map[string]any{"ticket_id": c.Params("id")})
		}
		return apperrors.MapError(err)
	}
	return c.JSON(fiber.Map{"data": dto.FromTicket(ticket)})
}

// UpdateTicket PATCH /tickets/:id — the field-update transaction boundary.
func (h *TicketsHandler) UpdateTicket(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("authentication required")
	}

	patch, err := dto.ParseTicketPatch(c.Body())
	if err != nil {
		return err
	}
	if patch.IsEmpty() {
		return apperrors.NewValidationError("empty update", nil)
	}

	ticket, err := h.engine.Apply(c.Context(), c.Params("id"), patch, principal.User.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromTicket(ticket)})
}
