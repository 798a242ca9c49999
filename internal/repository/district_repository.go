package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/yourorg/agroregistry/internal/domain"
)

// PostgresDistrictRepository implements domain.DistrictRepository using PostgreSQL
type PostgresDistrictRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresDistrictRepository creates a new district repository
func NewPostgresDistrictRepository(db *sql.DB, logger *slog.Logger) *PostgresDistrictRepository {
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresDistrictRepository{
		db:     db,
		logger: logger,
	}
}

// GetByCode retrieves a district by its natural key
func (r *PostgresDistrictRepository) GetByCode(ctx context.Context, code string) (*domain.District, error) {
	d := &domain.District{}

	query := `SELECT code, name FROM districts WHERE code = $1`

	err := r.db.QueryRowContext(ctx, query, code).Scan(&d.Code, &d.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.Errorf(domain.ErrInvalidReference, "unknown district code %q", code)
		}
		return nil, fmt.Errorf("failed to get district: %w", err)
	}

	return d, nil
}

// List returns all districts ordered by code
func (r *PostgresDistrictRepository) List(ctx context.Context) ([]*domain.District, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT code, name FROM districts ORDER BY code`)
	if err != nil {
		r.logger.Error("failed to list districts", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to list districts: %w", err)
	}
	defer rows.Close()

	var districts []*domain.District
	for rows.Next() {
		d := &domain.District{}
		if err := rows.Scan(&d.Code, &d.Name); err != nil {
			return nil, fmt.Errorf("failed to scan district: %w", err)
		}
		districts = append(districts, d)
	}

	return districts, rows.Err()
}

// Upsert inserts a district or refreshes its display name. Used by
// startup seeding, so repeated boots are idempotent.
func (r *PostgresDistrictRepository) Upsert(ctx context.Context, d *domain.District) error {
	query := `
		INSERT INTO districts (code, name)
		VALUES ($1, $2)
		ON CONFLICT (code) DO UPDATE SET name = EXCLUDED.name
	`

	if _, err := r.db.ExecContext(ctx, query, d.Code, d.Name); err != nil {
		return fmt.Errorf("failed to upsert district: %w", err)
	}

	return nil
}
