package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/project-tracker/internal/domain"
)

const ticketColumns = `id, project_id, title, description, status, assignee_id, sqa_assignee_id,
               created_at, assigned_at, sqa_assigned_at, started_at, completed_at, reason, actor_id, updated_at`

// TicketRepository encapsulates ticket persistence. ApplyPatch implements
// the record store's partial-update contract: absent fields untouched,
// present-null fields cleared, post-update row returned.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	ListByProject(ctx context.Context, projectID string, limit, offset int) ([]domain.Ticket, error)
	ApplyPatch(ctx context.Context, id string, patch domain.TicketPatch) (*domain.Ticket, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (project_id, title, description, status, assignee_id, sqa_assignee_id)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at, updated_at`
	status := ticket.Status
	if status == "" {
		status = domain.TicketStatusOpen
	}
	return r.pool.QueryRow(ctx, query,
		ticket.ProjectID,
		ticket.Title,
		ticket.Description,
		status,
		ticket.AssigneeID,
		ticket.SQAAssigneeID,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE id=$1`, ticketColumns)
	return scanTicket(r.pool.QueryRow(ctx, query, id))
}

func (r *ticketRepository) ListByProject(ctx context.Context, projectID string, limit, offset int) ([]domain.Ticket, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE project_id=$1 ORDER BY updated_at DESC LIMIT %d OFFSET %d`,
		ticketColumns, limit, offset)

	rows, err := r.pool.Query(ctx, query, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ticket)
	}
	return result, rows.Err()
}

// ApplyPatch builds a single UPDATE touching only present fields and returns
// the post-update row. A vanished row surfaces as pgx.ErrNoRows.
func (r *ticketRepository) ApplyPatch(ctx context.Context, id string, patch domain.TicketPatch) (*domain.Ticket, error) {
	sets := []string{"updated_at = NOW()"}
	args := []any{}
	set := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s=$%d", column, len(args)))
	}

	if patch.Title.Present() {
		set("title", patch.Title.Ptr())
	}
	if patch.Description.Present() {
		set("description", patch.Description.Ptr())
	}
	if patch.Status.Present() {
		set("status", patch.Status.Ptr())
	}
	if patch.AssigneeID.Present() {
		set("assignee_id", patch.AssigneeID.Ptr())
	}
	if patch.SQAAssigneeID.Present() {
		set("sqa_assignee_id", patch.SQAAssigneeID.Ptr())
	}
	if patch.CreatedAt.Present() {
		set("created_at", patch.CreatedAt.Ptr())
	}
	if patch.AssignedAt.Present() {
		set("assigned_at", patch.AssignedAt.Ptr())
	}
	if patch.SQAAssignedAt.Present() {
		set("sqa_assigned_at", patch.SQAAssignedAt.Ptr())
	}
	if patch.StartedAt.Present() {
		set("started_at", patch.StartedAt.Ptr())
	}
	if patch.CompletedAt.Present() {
		set("completed_at", patch.CompletedAt.Ptr())
	}
	if patch.Reason.Present() {
		bag := patch.Reason.Ptr()
		if bag == nil {
			set("reason", nil)
		} else {
			encoded, err := json.Marshal(bag)
			if err != nil {
				return nil, err
			}
			set("reason", encoded)
		}
	}
	if patch.ActorID.Present() {
		set("actor_id", patch.ActorID.Ptr())
	}

	args = append(args, id)
	query := fmt.Sprintf(`UPDATE tickets SET %s WHERE id=$%d RETURNING %s`,
		strings.Join(sets, ", "), len(args), ticketColumns)

	return scanTicket(r.pool.QueryRow(ctx, query, args...))
}

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var ticket domain.Ticket
	var reasonRaw []byte
	if err := row.Scan(
		&ticket.ID,
		&ticket.ProjectID,
		&ticket.Title,
		&ticket.Description,
		&ticket.Status,
		&ticket.AssigneeID,
		&ticket.SQAAssigneeID,
		&ticket.CreatedAt,
		&ticket.AssignedAt,
		&ticket.SQAAssignedAt,
		&ticket.StartedAt,
		&ticket.CompletedAt,
		&reasonRaw,
		&ticket.ActorID,
		&ticket.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if len(reasonRaw) > 0 {
		if err := json.Unmarshal(reasonRaw, &ticket.Reason); err != nil {
			return nil, err
		}
	}
	return &ticket, nil
}
