package domain

import (
	"context"
	"time"
)

// Status is the single authoritative lifecycle state of a cluster.
// A cluster may log in and submit reports only while approved; the
// historical is_active flag is derived from this, never stored.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
	StatusBlocked  Status = "blocked"
)

// Active reports whether the cluster passes the login and write gate.
func (s Status) Active() bool { return s == StatusApproved }

// District is immutable reference data seeded at startup.
type District struct {
	Code string
	Name string
}

// Cluster is an agricultural organization tracked by the registry.
type Cluster struct {
	ID           int64
	Name         string
	DistrictCode string
	ClusterType  string
	LeaderName   string
	LeaderPhone  string
	Status       Status
	AdminComment *string // nil until an admin leaves a decision comment
	CreatedAt    time.Time
}

// ClusterOverview is the admin directory read model: a cluster joined
// to its owning user and district display name.
type ClusterOverview struct {
	ID           int64
	Name         string
	DistrictCode string
	DistrictName *string // nil when the district code no longer resolves
	ClusterType  string
	LeaderName   string
	LeaderPhone  string
	Status       Status
	Username     string
	CreatedAt    time.Time
}

// ClusterReport holds one year's performance metrics for one cluster.
// At most one report exists per (cluster, year).
type ClusterReport struct {
	ID            int64
	ClusterID     int64
	Year          int
	Production    float64
	Export        float64
	Employment    int
	Profitability float64
	CreatedAt     time.Time
}

// RegionRow is one joined row feeding the region aggregation: a report
// with its cluster and the district display name, if resolvable.
type RegionRow struct {
	Year          int
	ClusterID     int64
	ClusterName   string
	DistrictCode  string
	DistrictName  *string
	Production    float64
	Export        float64
	Employment    int
	Profitability float64
}

// DistrictRepository defines data access for districts.
type DistrictRepository interface {
	GetByCode(ctx context.Context, code string) (*District, error)
	List(ctx context.Context) ([]*District, error)
	Upsert(ctx context.Context, d *District) error
}

// ClusterRepository defines data access for clusters.
type ClusterRepository interface {
	// Create inserts the cluster and its owning user atomically.
	Create(ctx context.Context, c *Cluster, owner *User) error
	GetByID(ctx context.Context, id int64) (*Cluster, error)
	// UpdateStatus applies a workflow transition. A nil comment leaves
	// the stored admin comment untouched.
	UpdateStatus(ctx context.Context, id int64, status Status, comment *string) error
	ListOverviews(ctx context.Context, statuses ...Status) ([]*ClusterOverview, error)
	// Delete removes the cluster, its reports, and its owning user in
	// one transaction.
	Delete(ctx context.Context, id int64) error
}

// ReportRepository defines data access for cluster reports.
type ReportRepository interface {
	// Upsert inserts or overwrites the report for (cluster, year) in a
	// single conditional statement.
	Upsert(ctx context.Context, r *ClusterReport) error
	// GetByClusterYear returns (nil, nil) when no report exists.
	GetByClusterYear(ctx context.Context, clusterID int64, year int) (*ClusterReport, error)
	// ListByCluster returns all reports for a cluster, newest year first.
	ListByCluster(ctx context.Context, clusterID int64) ([]*ClusterReport, error)
	// ListRegion returns reports of approved clusters joined to cluster
	// and district data for the region view.
	ListRegion(ctx context.Context) ([]*RegionRow, error)
}
