package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/gcek-placements/placement-portal/internal/models"
	"github.com/lib/pq"
	"github.com/rs/zerolog"
)

type EventRepository interface {
	Create(ctx context.Context, event *models.PlacementEvent) error
	Update(ctx context.Context, event *models.PlacementEvent) error
	GetByID(ctx context.Context, id string) (*models.PlacementEvent, error)
	ListUpcoming(ctx context.Context, now time.Time, limit, offset int) ([]models.PlacementEvent, int, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
}

type eventRepository struct {
	*PostgresRepository
}

func NewEventRepository(db *sql.DB, logger zerolog.Logger) EventRepository {
	return &eventRepository{
		PostgresRepository: NewPostgresRepository(db, logger),
	}
}

func (r *eventRepository) Create(ctx context.Context, event *models.PlacementEvent) error {
	query := `
		INSERT INTO placement_events (id, title, company, description, venue, starts_at, ends_at, branches, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.db.ExecContext(ctx, query,
		event.ID,
		event.Title,
		event.Company,
		event.Description,
		event.Venue,
		event.StartsAt,
		event.EndsAt,
		pq.Array(event.Branches),
		event.CreatedBy,
		event.CreatedAt,
		event.UpdatedAt,
	)

	return err
}

func (r *eventRepository) Update(ctx context.Context, event *models.PlacementEvent) error {
	query := `
		UPDATE placement_events
		SET title = $1, company = $2, description = $3, venue = $4, starts_at = $5, ends_at = $6, branches = $7, updated_at = $8
		WHERE id = $9
	`

	_, err := r.db.ExecContext(ctx, query,
		event.Title,
		event.Company,
		event.Description,
		event.Venue,
		event.StartsAt,
		event.EndsAt,
		pq.Array(event.Branches),
		event.UpdatedAt,
		event.ID,
	)

	return err
}

func (r *eventRepository) GetByID(ctx context.Context, id string) (*models.PlacementEvent, error) {
	query := `
		SELECT id, title, company, description, venue, starts_at, ends_at, branches, created_by, created_at, updated_at
		FROM placement_events
		WHERE id = $1
	`

	event := &models.PlacementEvent{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&event.ID,
		&event.Title,
		&event.Company,
		&event.Description,
		&event.Venue,
		&event.StartsAt,
		&event.EndsAt,
		pq.Array(&event.Branches),
		&event.CreatedBy,
		&event.CreatedAt,
		&event.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	return event, err
}

func (r *eventRepository) ListUpcoming(ctx context.Context, now time.Time, limit, offset int) ([]models.PlacementEvent, int, error) {
	countQuery := `SELECT COUNT(*) FROM placement_events WHERE ends_at > $1`
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, now).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT id, title, company, description, venue, starts_at, ends_at, branches, created_by, created_at, updated_at
		FROM placement_events
		WHERE ends_at > $1
		ORDER BY starts_at
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.QueryContext(ctx, query, now, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var events []models.PlacementEvent
	for rows.Next() {
		var event models.PlacementEvent
		if err := rows.Scan(
			&event.ID,
			&event.Title,
			&event.Company,
			&event.Description,
			&event.Venue,
			&event.StartsAt,
			&event.EndsAt,
			pq.Array(&event.Branches),
			&event.CreatedBy,
			&event.CreatedAt,
			&event.UpdatedAt,
		); err != nil {
			return nil, 0, err
		}
		events = append(events, event)
	}

	return events, total, rows.Err()
}

func (r *eventRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM placement_events WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	return err
}

func (r *eventRepository) Count(ctx context.Context) (int, error) {
	var total int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM placement_events`).Scan(&total)
	return total, err
}
