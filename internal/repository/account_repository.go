package repository

import (
	"context"
	"database/sql"

	"github.com/gcek-placements/placement-portal/internal/models"
	"github.com/rs/zerolog"
)

type AccountRepository interface {
	Create(ctx context.Context, account *models.Account) error
	GetByID(ctx context.Context, id string) (*models.Account, error)
	GetByEmail(ctx context.Context, email string) (*models.Account, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Delete(ctx context.Context, id string) error
	RegistrationStats(ctx context.Context) ([]models.RegistrationStat, error)
}

type accountRepository struct {
	*PostgresRepository
}

func NewAccountRepository(db *sql.DB, logger zerolog.Logger) AccountRepository {
	return &accountRepository{
		PostgresRepository: NewPostgresRepository(db, logger),
	}
}

func (r *accountRepository) Create(ctx context.Context, account *models.Account) error {
	query := `
		INSERT INTO accounts (id, name, email, registration_number, year, branch, role, password_hash, identity_uid, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.db.ExecContext(ctx, query,
		account.ID,
		account.Name,
		account.Email,
		account.RegistrationNumber,
		account.Year,
		account.Branch,
		account.Role,
		account.PasswordHash,
		account.IdentityUID,
		account.CreatedAt,
		account.UpdatedAt,
	)

	return err
}

func (r *accountRepository) GetByID(ctx context.Context, id string) (*models.Account, error) {
	query := `
		SELECT id, name, email, registration_number, year, branch, role, password_hash, identity_uid, created_at, updated_at
		FROM accounts
		WHERE id = $1
	`

	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

func (r *accountRepository) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	query := `
		SELECT id, name, email, registration_number, year, branch, role, password_hash, identity_uid, created_at, updated_at
		FROM accounts
		WHERE email = $1
	`

	return r.scanOne(r.db.QueryRowContext(ctx, query, email))
}

func (r *accountRepository) scanOne(row *sql.Row) (*models.Account, error) {
	account := &models.Account{}
	err := row.Scan(
		&account.ID,
		&account.Name,
		&account.Email,
		&account.RegistrationNumber,
		&account.Year,
		&account.Branch,
		&account.Role,
		&account.PasswordHash,
		&account.IdentityUID,
		&account.CreatedAt,
		&account.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	return account, err
}

func (r *accountRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM accounts WHERE email = $1)`

	var exists bool
	err := r.db.QueryRowContext(ctx, query, email).Scan(&exists)
	return exists, err
}

func (r *accountRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM accounts WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	return err
}

func (r *accountRepository) RegistrationStats(ctx context.Context) ([]models.RegistrationStat, error) {
	query := `
		SELECT branch, role, COUNT(*)
		FROM accounts
		GROUP BY branch, role
		ORDER BY branch, role
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []models.RegistrationStat
	for rows.Next() {
		var stat models.RegistrationStat
		if err := rows.Scan(&stat.Branch, &stat.Role, &stat.Count); err != nil {
			return nil, err
		}
		stats = append(stats, stat)
	}

	return stats, rows.Err()
}
