package repository

import (
	"context"
	"database/sql"

	"github.com/gcek-placements/placement-portal/internal/models"
	"github.com/rs/zerolog"
)

type ResourceRepository interface {
	Create(ctx context.Context, resource *models.Resource) error
	GetByID(ctx context.Context, id string) (*models.Resource, error)
	GetByHash(ctx context.Context, hash string) (*models.Resource, error)
	List(ctx context.Context, limit, offset int) ([]models.Resource, int, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
}

type resourceRepository struct {
	*PostgresRepository
}

func NewResourceRepository(db *sql.DB, logger zerolog.Logger) ResourceRepository {
	return &resourceRepository{
		PostgresRepository: NewPostgresRepository(db, logger),
	}
}

func (r *resourceRepository) Create(ctx context.Context, resource *models.Resource) error {
	query := `
		INSERT INTO resources (id, title, file_name, object_key, content_type, size_bytes, hash, uploaded_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.ExecContext(ctx, query,
		resource.ID,
		resource.Title,
		resource.FileName,
		resource.ObjectKey,
		resource.ContentType,
		resource.SizeBytes,
		resource.Hash,
		resource.UploadedBy,
		resource.CreatedAt,
	)

	return err
}

func (r *resourceRepository) GetByID(ctx context.Context, id string) (*models.Resource, error) {
	query := `
		SELECT id, title, file_name, object_key, content_type, size_bytes, hash, uploaded_by, created_at
		FROM resources
		WHERE id = $1
	`

	return scanResource(r.db.QueryRowContext(ctx, query, id))
}

func (r *resourceRepository) GetByHash(ctx context.Context, hash string) (*models.Resource, error) {
	query := `
		SELECT id, title, file_name, object_key, content_type, size_bytes, hash, uploaded_by, created_at
		FROM resources
		WHERE hash = $1
	`

	return scanResource(r.db.QueryRowContext(ctx, query, hash))
}

func scanResource(row *sql.Row) (*models.Resource, error) {
	resource := &models.Resource{}
	err := row.Scan(
		&resource.ID,
		&resource.Title,
		&resource.FileName,
		&resource.ObjectKey,
		&resource.ContentType,
		&resource.SizeBytes,
		&resource.Hash,
		&resource.UploadedBy,
		&resource.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	return resource, err
}

func (r *resourceRepository) List(ctx context.Context, limit, offset int) ([]models.Resource, int, error) {
	countQuery := `SELECT COUNT(*) FROM resources`
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT id, title, file_name, object_key, content_type, size_bytes, hash, uploaded_by, created_at
		FROM resources
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var resources []models.Resource
	for rows.Next() {
		var resource models.Resource
		if err := rows.Scan(
			&resource.ID,
			&resource.Title,
			&resource.FileName,
			&resource.ObjectKey,
			&resource.ContentType,
			&resource.SizeBytes,
			&resource.Hash,
			&resource.UploadedBy,
			&resource.CreatedAt,
		); err != nil {
			return nil, 0, err
		}
		resources = append(resources, resource)
	}

	return resources, total, rows.Err()
}

func (r *resourceRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM resources WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	return err
}

func (r *resourceRepository) Count(ctx context.Context) (int, error) {
	var total int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM resources`).Scan(&total)
	return total, err
}
