package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lib/pq"
	"github.com/yourorg/agroregistry/internal/domain"
)

// PostgresClusterRepository implements domain.ClusterRepository using PostgreSQL
type PostgresClusterRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresClusterRepository creates a new cluster repository
func NewPostgresClusterRepository(db *sql.DB, logger *slog.Logger) *PostgresClusterRepository {
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresClusterRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts the cluster and its owning user in one transaction.
// Either both rows land or neither does.
func (r *PostgresClusterRepository) Create(ctx context.Context, c *domain.Cluster, owner *domain.User) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin registration tx: %w", err)
	}
	defer tx.Rollback()

	clusterQuery := `
		INSERT INTO clusters (name, district_code, cluster_type, leader_name, leader_phone, status, admin_comment)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`

	err = tx.QueryRowContext(
		ctx,
		clusterQuery,
		c.Name,
		c.DistrictCode,
		c.ClusterType,
		c.LeaderName,
		c.LeaderPhone,
		c.Status,
		c.AdminComment,
	).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		r.logger.Error("failed to create cluster",
			slog.String("name", c.Name),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to create cluster: %w", err)
	}

	userQuery := `
		INSERT INTO users (username, hashed_password, role, cluster_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	err = tx.QueryRowContext(
		ctx,
		userQuery,
		owner.Username,
		owner.HashedPassword,
		owner.Role,
		c.ID,
	).Scan(&owner.ID, &owner.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return domain.Errorf(domain.ErrConflict, "username %q is already taken", owner.Username)
		}
		r.logger.Error("failed to create cluster owner",
			slog.String("username", owner.Username),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to create cluster owner: %w", err)
	}
	owner.ClusterID = &c.ID

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit registration: %w", err)
	}

	return nil
}

// GetByID retrieves a cluster by ID
func (r *PostgresClusterRepository) GetByID(ctx context.Context, id int64) (*domain.Cluster, error) {
	c := &domain.Cluster{}

	query := `
		SELECT id, name, district_code, cluster_type, leader_name, leader_phone, status, admin_comment, created_at
		FROM clusters
		WHERE id = $1
	`

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&c.ID,
		&c.Name,
		&c.DistrictCode,
		&c.ClusterType,
		&c.LeaderName,
		&c.LeaderPhone,
		&c.Status,
		&c.AdminComment,
		&c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.Errorf(domain.ErrNotFound, "cluster %d not found", id)
		}
		r.logger.Error("failed to get cluster",
			slog.Int64("id", id),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("failed to get cluster: %w", err)
	}

	return c, nil
}

// UpdateStatus applies a workflow transition. A nil comment keeps the
// stored admin comment.
func (r *PostgresClusterRepository) UpdateStatus(ctx context.Context, id int64, status domain.Status, comment *string) error {
	query := `
		UPDATE clusters
		SET status = $1, admin_comment = COALESCE($2, admin_comment)
		WHERE id = $3
	`

	result, err := r.db.ExecContext(ctx, query, status, comment, id)
	if err != nil {
		r.logger.Error("failed to update cluster status",
			slog.Int64("id", id),
			slog.String("status", string(status)),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to update cluster status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return domain.Errorf(domain.ErrNotFound, "cluster %d not found", id)
	}

	return nil
}

// ListOverviews lists clusters in the given statuses joined to their
// owning user and district display name.
func (r *PostgresClusterRepository) ListOverviews(ctx context.Context, statuses ...domain.Status) ([]*domain.ClusterOverview, error) {
	query := `
		SELECT c.id, c.name, c.district_code, d.name, c.cluster_type,
		       c.leader_name, c.leader_phone, c.status, u.username, c.created_at
		FROM clusters c
		JOIN users u ON u.cluster_id = c.id
		LEFT JOIN districts d ON d.code = c.district_code
		WHERE c.status = ANY($1)
		ORDER BY c.created_at DESC
	`

	raw := make([]string, 0, len(statuses))
	for _, s := range statuses {
		raw = append(raw, string(s))
	}

	rows, err := r.db.QueryContext(ctx, query, pq.Array(raw))
	if err != nil {
		r.logger.Error("failed to list cluster overviews", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to list clusters: %w", err)
	}
	defer rows.Close()

	var out []*domain.ClusterOverview
	for rows.Next() {
		o := &domain.ClusterOverview{}
		err := rows.Scan(
			&o.ID,
			&o.Name,
			&o.DistrictCode,
			&o.DistrictName,
			&o.ClusterType,
			&o.LeaderName,
			&o.LeaderPhone,
			&o.Status,
			&o.Username,
			&o.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan cluster overview: %w", err)
		}
		out = append(out, o)
	}

	return out, rows.Err()
}

// Delete removes the cluster, its reports, and its owning user in one
// transaction. The explicit ordered deletes double the FK cascades so
// partial deletion is impossible even without them.
func (r *PostgresClusterRepository) Delete(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin delete tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM cluster_reports WHERE cluster_id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete cluster reports: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM users WHERE cluster_id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete cluster owner: %w", err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM clusters WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete cluster: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return domain.Errorf(domain.ErrNotFound, "cluster %d not found", id)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit delete: %w", err)
	}

	r.logger.Info("cluster deleted", slog.Int64("cluster_id", id))
	return nil
}
