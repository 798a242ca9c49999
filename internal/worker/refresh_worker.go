package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/yourorg/agroregistry/internal/service"
)

// RefreshWorker keeps the region view cache warm and the pending
// gauge current, so the first dashboard request after a quiet period
// does not pay the aggregation cost.
type RefreshWorker struct {
	region     *service.RegionService
	directory  *service.DirectoryService
	logger     *slog.Logger
	interval   time.Duration
	maxRetries int
}

// NewRefreshWorker creates a new refresh worker
func NewRefreshWorker(
	region *service.RegionService,
	directory *service.DirectoryService,
	logger *slog.Logger,
	interval time.Duration,
) *RefreshWorker {
	if logger == nil {
		logger = slog.Default()
	}
	if interval <= 0 {
		interval = time.Minute
	}

	return &RefreshWorker{
		region:     region,
		directory:  directory,
		logger:     logger,
		interval:   interval,
		maxRetries: 3,
	}
}

// Start begins the refresh loop. Blocks until ctx is canceled.
func (w *RefreshWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("refresh worker started", slog.Duration("interval", w.interval))

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("refresh worker stopped")
			return
		case <-ticker.C:
			w.refresh(ctx)
		}
	}
}

func (w *RefreshWorker) refresh(ctx context.Context) {
	for attempt := 1; attempt <= w.maxRetries; attempt++ {
		if attempt > 1 {
			backoff := time.Duration(attempt*attempt) * time.Second
			w.logger.Warn("retrying region view refresh",
				slog.Int("attempt", attempt),
				slog.Duration("backoff", backoff),
			)
			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}
		}

		if _, err := w.region.BuildRegionView(ctx); err != nil {
			w.logger.Error("region view refresh failed", slog.String("error", err.Error()))
			continue
		}

		// ListPending updates the pending gauge as a side effect.
		if _, err := w.directory.ListPending(ctx); err != nil {
			w.logger.Error("pending listing refresh failed", slog.String("error", err.Error()))
			continue
		}
		return
	}

	w.logger.Error("refresh failed after retries", slog.Int("max_retries", w.maxRetries))
}
