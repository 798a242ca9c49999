package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/yourorg/agroregistry/internal/domain"
	"github.com/yourorg/agroregistry/internal/observability/metrics"
)

// DirectoryService serves the admin review screens: status buckets
// with user/district joins and the full per-cluster history.
type DirectoryService struct {
	clusters domain.ClusterRepository
	users    domain.UserRepository
	reports  domain.ReportRepository
	logger   *slog.Logger
}

// NewDirectoryService creates a new admin directory service
func NewDirectoryService(
	clusters domain.ClusterRepository,
	users domain.UserRepository,
	reports domain.ReportRepository,
	logger *slog.Logger,
) *DirectoryService {
	if logger == nil {
		logger = slog.Default()
	}

	return &DirectoryService{
		clusters: clusters,
		users:    users,
		reports:  reports,
		logger:   logger,
	}
}

// ClusterHistory is the per-cluster admin drill-down: registration
// data, the owning account (no password material), and every yearly
// report, newest first.
type ClusterHistory struct {
	Cluster HistoryCluster  `json:"cluster"`
	Owner   *HistoryOwner   `json:"user"`
	Reports []HistoryReport `json:"reports"`
}

// HistoryCluster is the cluster record as shown to admins.
type HistoryCluster struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	DistrictCode string  `json:"district_code"`
	ClusterType  string  `json:"cluster_type"`
	LeaderName   string  `json:"leader_name"`
	LeaderPhone  string  `json:"leader_phone"`
	Status       string  `json:"status"`
	IsActive     bool    `json:"is_active"`
	AdminComment *string `json:"admin_comment"`
	CreatedAt    string  `json:"created_at"`
}

// HistoryOwner is the owning user's public subset.
type HistoryOwner struct {
	Username  string `json:"username"`
	CreatedAt string `json:"created_at"`
}

// HistoryReport is one yearly report entry.
type HistoryReport struct {
	Year          int     `json:"year"`
	Production    float64 `json:"production"`
	Export        float64 `json:"export"`
	Employment    int     `json:"employment"`
	Profitability float64 `json:"profitability"`
	CreatedAt     string  `json:"created_at"`
}

// ListPending returns clusters awaiting an admin decision.
func (s *DirectoryService) ListPending(ctx context.Context) ([]*domain.ClusterOverview, error) {
	out, err := s.clusters.ListOverviews(ctx, domain.StatusPending)
	if err != nil {
		return nil, err
	}
	metrics.SetPendingClusters(len(out))
	return out, nil
}

// ListActiveOrBlocked returns clusters that passed review: approved
// plus currently blocked ones.
func (s *DirectoryService) ListActiveOrBlocked(ctx context.Context) ([]*domain.ClusterOverview, error) {
	return s.clusters.ListOverviews(ctx, domain.StatusApproved, domain.StatusBlocked)
}

// History returns the full record of one cluster. NotFound when the
// cluster does not exist; a missing owner is tolerated and reported as
// nil.
func (s *DirectoryService) History(ctx context.Context, clusterID int64) (*ClusterHistory, error) {
	cluster, err := s.clusters.GetByID(ctx, clusterID)
	if err != nil {
		return nil, err
	}

	owner, err := s.users.GetByClusterID(ctx, clusterID)
	if err != nil {
		return nil, err
	}

	reports, err := s.reports.ListByCluster(ctx, clusterID)
	if err != nil {
		return nil, err
	}

	history := &ClusterHistory{
		Cluster: HistoryCluster{
			ID:           cluster.ID,
			Name:         cluster.Name,
			DistrictCode: cluster.DistrictCode,
			ClusterType:  cluster.ClusterType,
			LeaderName:   cluster.LeaderName,
			LeaderPhone:  cluster.LeaderPhone,
			Status:       string(cluster.Status),
			IsActive:     cluster.Status.Active(),
			AdminComment: cluster.AdminComment,
			CreatedAt:    cluster.CreatedAt.Format(time.RFC3339),
		},
	}
	for _, r := range reports {
		history.Reports = append(history.Reports, HistoryReport{
			Year:          r.Year,
			Production:    r.Production,
			Export:        r.Export,
			Employment:    r.Employment,
			Profitability: r.Profitability,
			CreatedAt:     r.CreatedAt.Format(time.RFC3339),
		})
	}
	if owner != nil {
		history.Owner = &HistoryOwner{
			Username:  owner.Username,
			CreatedAt: owner.CreatedAt.Format(time.RFC3339),
		}
	}

	return history, nil
}
