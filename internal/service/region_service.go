package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/yourorg/agroregistry/internal/domain"
	"github.com/yourorg/agroregistry/internal/observability/metrics"
)

// ViewVersion is a process-wide counter bumped on every write that can
// change the region view (report upserts and workflow transitions).
// The cached view is keyed by it, so any write invalidates the cache
// without coordination.
type ViewVersion struct {
	n atomic.Uint64
}

func NewViewVersion() *ViewVersion { return &ViewVersion{} }

func (v *ViewVersion) Bump()           { v.n.Add(1) }
func (v *ViewVersion) Current() uint64 { return v.n.Load() }

// ViewCache stores a serialized region view. Backed by Redis when
// configured, by the in-process TTL cache otherwise.
type ViewCache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// TrendMetrics is reserved for period-over-period computation; all
// fields stay zero for now and the frontend renders its defaults.
type TrendMetrics struct {
	Production    float64 `json:"production"`
	Export        float64 `json:"export"`
	Employment    float64 `json:"employment"`
	Profitability float64 `json:"profitability"`
}

// ClusterSummary is one cluster's yearly entry in the region view.
type ClusterSummary struct {
	ID            int64        `json:"id"`
	Name          string       `json:"name"`
	District      string       `json:"district"`
	Production    float64      `json:"production"`
	Export        float64      `json:"export"`
	Employment    int          `json:"employment"`
	Profitability float64      `json:"profitability"`
	Trend         TrendMetrics `json:"trend"`
}

// RegionView groups cluster summaries by year (string key) then by
// district code.
type RegionView map[string]map[string][]ClusterSummary

// RegionService materializes the dashboard view of all approved
// clusters' reports.
type RegionService struct {
	reports  domain.ReportRepository
	cache    ViewCache
	cacheTTL time.Duration
	version  *ViewVersion
	logger   *slog.Logger
}

// NewRegionService creates a new region aggregation service
func NewRegionService(
	reports domain.ReportRepository,
	cache ViewCache,
	cacheTTL time.Duration,
	version *ViewVersion,
	logger *slog.Logger,
) *RegionService {
	if logger == nil {
		logger = slog.Default()
	}
	if cacheTTL <= 0 {
		cacheTTL = time.Minute
	}

	return &RegionService{
		reports:  reports,
		cache:    cache,
		cacheTTL: cacheTTL,
		version:  version,
		logger:   logger,
	}
}

// BuildRegionView returns the full year -> district -> [summaries]
// structure. Only approved clusters contribute; a cluster whose
// district code no longer resolves still appears under the raw code.
func (s *RegionService) BuildRegionView(ctx context.Context) (RegionView, error) {
	key := "agrodata:v" + strconv.FormatUint(s.version.Current(), 10)

	if s.cache != nil {
		if raw, ok, err := s.cache.Get(ctx, key); err == nil && ok {
			var view RegionView
			if err := json.Unmarshal([]byte(raw), &view); err == nil {
				metrics.ObserveRegionViewBuild("cache")
				return view, nil
			}
		}
	}

	rows, err := s.reports.ListRegion(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to build region view: %w", err)
	}

	view := RegionView{}
	for _, row := range rows {
		yearKey := strconv.Itoa(row.Year)
		distCode := row.DistrictCode
		if distCode == "" {
			distCode = "unknown"
		}

		districtName := row.DistrictCode
		if row.DistrictName != nil {
			districtName = *row.DistrictName
		}

		yearBucket, ok := view[yearKey]
		if !ok {
			yearBucket = map[string][]ClusterSummary{}
			view[yearKey] = yearBucket
		}

		yearBucket[distCode] = append(yearBucket[distCode], ClusterSummary{
			ID:            row.ClusterID,
			Name:          row.ClusterName,
			District:      districtName,
			Production:    row.Production,
			Export:        row.Export,
			Employment:    row.Employment,
			Profitability: row.Profitability,
		})
	}

	if s.cache != nil {
		// Version bumps leave older agrodata:v{N} keys behind; backends
		// without TTL eviction can drop them here.
		if inv, ok := s.cache.(interface{ Invalidate(prefix string) }); ok {
			inv.Invalidate("agrodata:")
		}
		if raw, err := json.Marshal(view); err == nil {
			if err := s.cache.Set(ctx, key, string(raw), s.cacheTTL); err != nil {
				s.logger.Warn("failed to cache region view", slog.String("error", err.Error()))
			}
		}
	}

	metrics.ObserveRegionViewBuild("store")
	return view, nil
}
