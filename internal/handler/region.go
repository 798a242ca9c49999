package handler

import (
	"log/slog"
	"net/http"

	"github.com/yourorg/agroregistry/internal/service"
)

// RegionHandler serves the public year/district aggregation consumed by
// the dashboard. No authentication required.
type RegionHandler struct {
	region *service.RegionService
	logger *slog.Logger
}

// NewRegionHandler creates a new region handler
func NewRegionHandler(region *service.RegionService, logger *slog.Logger) *RegionHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return &RegionHandler{
		region: region,
		logger: logger,
	}
}

// ServeHTTP handles GET /api/agrodata requests
func (h *RegionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	view, err := h.region.BuildRegionView(r.Context())
	if err != nil {
		h.logger.Error("failed to build region view", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, view)
}
