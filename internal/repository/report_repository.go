package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/yourorg/agroregistry/internal/domain"
)

// PostgresReportRepository implements domain.ReportRepository using PostgreSQL
type PostgresReportRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresReportRepository creates a new report repository
func NewPostgresReportRepository(db *sql.DB, logger *slog.Logger) *PostgresReportRepository {
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresReportRepository{
		db:     db,
		logger: logger,
	}
}

// Upsert inserts or overwrites the report for (cluster, year). The
// UNIQUE (cluster_id, year) constraint makes this a single conditional
// statement, so concurrent upserts for the same year cannot race into
// duplicate rows.
func (r *PostgresReportRepository) Upsert(ctx context.Context, report *domain.ClusterReport) error {
	query := `
		INSERT INTO cluster_reports (cluster_id, year, production, export, employment, profitability)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (cluster_id, year) DO UPDATE
		SET production = EXCLUDED.production,
		    export = EXCLUDED.export,
		    employment = EXCLUDED.employment,
		    profitability = EXCLUDED.profitability
		RETURNING id, created_at
	`

	err := r.db.QueryRowContext(
		ctx,
		query,
		report.ClusterID,
		report.Year,
		report.Production,
		report.Export,
		report.Employment,
		report.Profitability,
	).Scan(&report.ID, &report.CreatedAt)
	if err != nil {
		r.logger.Error("failed to upsert report",
			slog.Int64("cluster_id", report.ClusterID),
			slog.Int("year", report.Year),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to upsert report: %w", err)
	}

	return nil
}

// GetByClusterYear returns the single report for (cluster, year), or
// (nil, nil) when none exists.
func (r *PostgresReportRepository) GetByClusterYear(ctx context.Context, clusterID int64, year int) (*domain.ClusterReport, error) {
	report := &domain.ClusterReport{}

	query := `
		SELECT id, cluster_id, year, production, export, employment, profitability, created_at
		FROM cluster_reports
		WHERE cluster_id = $1 AND year = $2
	`

	err := r.db.QueryRowContext(ctx, query, clusterID, year).Scan(
		&report.ID,
		&report.ClusterID,
		&report.Year,
		&report.Production,
		&report.Export,
		&report.Employment,
		&report.Profitability,
		&report.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get report: %w", err)
	}

	return report, nil
}

// ListByCluster returns all reports for a cluster, newest year first
func (r *PostgresReportRepository) ListByCluster(ctx context.Context, clusterID int64) ([]*domain.ClusterReport, error) {
	query := `
		SELECT id, cluster_id, year, production, export, employment, profitability, created_at
		FROM cluster_reports
		WHERE cluster_id = $1
		ORDER BY year DESC
	`

	rows, err := r.db.QueryContext(ctx, query, clusterID)
	if err != nil {
		r.logger.Error("failed to list reports",
			slog.Int64("cluster_id", clusterID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	defer rows.Close()

	var reports []*domain.ClusterReport
	for rows.Next() {
		report := &domain.ClusterReport{}
		err := rows.Scan(
			&report.ID,
			&report.ClusterID,
			&report.Year,
			&report.Production,
			&report.Export,
			&report.Employment,
			&report.Profitability,
			&report.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}
		reports = append(reports, report)
	}

	return reports, rows.Err()
}

// ListRegion returns every report of an approved cluster joined to its
// cluster and district. Clusters with an unresolvable district code
// still appear, with a NULL district name.
func (r *PostgresReportRepository) ListRegion(ctx context.Context) ([]*domain.RegionRow, error) {
	query := `
		SELECT cr.year, c.id, c.name, c.district_code, d.name,
		       cr.production, cr.export, cr.employment, cr.profitability
		FROM cluster_reports cr
		JOIN clusters c ON c.id = cr.cluster_id
		LEFT JOIN districts d ON d.code = c.district_code
		WHERE c.status = 'approved'
		ORDER BY cr.id
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		r.logger.Error("failed to query region rows", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to query region rows: %w", err)
	}
	defer rows.Close()

	var out []*domain.RegionRow
	for rows.Next() {
		row := &domain.RegionRow{}
		err := rows.Scan(
			&row.Year,
			&row.ClusterID,
			&row.ClusterName,
			&row.DistrictCode,
			&row.DistrictName,
			&row.Production,
			&row.Export,
			&row.Employment,
			&row.Profitability,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan region row: %w", err)
		}
		out = append(out, row)
	}

	return out, rows.Err()
}
