package service

import (
	"context"
	"log/slog"

	"github.com/yourorg/agroregistry/internal/domain"
	"github.com/yourorg/agroregistry/internal/observability/metrics"
	"github.com/yourorg/agroregistry/internal/security"
)

// ReportService handles the per-cluster yearly report: point lookup
// and idempotent upsert, restricted to the owning cluster's principal
// while the cluster is approved.
type ReportService struct {
	reports  domain.ReportRepository
	clusters domain.ClusterRepository
	owners   *security.OwnershipService
	version  *ViewVersion
	logger   *slog.Logger
}

// NewReportService creates a new report service
func NewReportService(
	reports domain.ReportRepository,
	clusters domain.ClusterRepository,
	owners *security.OwnershipService,
	version *ViewVersion,
	logger *slog.Logger,
) *ReportService {
	if logger == nil {
		logger = slog.Default()
	}

	return &ReportService{
		reports:  reports,
		clusters: clusters,
		owners:   owners,
		version:  version,
		logger:   logger,
	}
}

// ReportInput is the yearly metrics payload.
type ReportInput struct {
	Year          int     `json:"year"`
	Production    float64 `json:"production"`
	Export        float64 `json:"export"`
	Employment    int     `json:"employment"`
	Profitability float64 `json:"profitability"`
}

// Get returns the caller's report for the year, or (nil, nil) when no
// report exists yet. Empty is not an error.
func (s *ReportService) Get(ctx context.Context, caller domain.Principal, year int) (*domain.ClusterReport, error) {
	if caller.Role != domain.RoleCluster {
		return nil, domain.Errorf(domain.ErrForbidden, "cluster accounts only")
	}
	if caller.ClusterID == nil {
		return nil, domain.Errorf(domain.ErrBadRequest, "account is not linked to a cluster")
	}

	return s.reports.GetByClusterYear(ctx, *caller.ClusterID, year)
}

// Upsert creates or overwrites the caller's report for the year.
// Calling it again with the same year leaves exactly one row holding
// the last-written values.
func (s *ReportService) Upsert(ctx context.Context, caller domain.Principal, in ReportInput) (*domain.ClusterReport, error) {
	if caller.Role != domain.RoleCluster {
		metrics.ObserveReportUpsert("forbidden")
		return nil, domain.Errorf(domain.ErrForbidden, "cluster accounts only")
	}
	if caller.ClusterID == nil {
		metrics.ObserveReportUpsert("bad_request")
		return nil, domain.Errorf(domain.ErrBadRequest, "account is not linked to a cluster")
	}

	cluster, err := s.clusters.GetByID(ctx, *caller.ClusterID)
	if err != nil {
		metrics.ObserveReportUpsert("not_found")
		return nil, err
	}
	if err := s.owners.ValidateClusterAccess(ctx, caller, cluster.ID); err != nil {
		metrics.ObserveReportUpsert("forbidden")
		return nil, err
	}
	if !cluster.Status.Active() {
		metrics.ObserveReportUpsert("inactive")
		return nil, domain.Errorf(domain.ErrForbidden, "your cluster is not approved or has been deactivated")
	}

	report := &domain.ClusterReport{
		ClusterID:     cluster.ID,
		Year:          in.Year,
		Production:    in.Production,
		Export:        in.Export,
		Employment:    in.Employment,
		Profitability: in.Profitability,
	}
	if err := s.reports.Upsert(ctx, report); err != nil {
		metrics.ObserveReportUpsert("error")
		return nil, err
	}

	s.version.Bump()
	s.logger.Info("report upserted",
		slog.Int64("cluster_id", cluster.ID),
		slog.Int("year", in.Year),
	)
	metrics.ObserveReportUpsert("ok")

	return report, nil
}
