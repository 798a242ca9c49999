package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/yourorg/agroregistry/internal/domain"
	"github.com/yourorg/agroregistry/internal/security"
	"github.com/yourorg/agroregistry/internal/security/middleware"
	"github.com/yourorg/agroregistry/internal/service"
)

// ReportResponse is the yearly report as returned to the owning cluster.
type ReportResponse struct {
	ID            int64   `json:"id"`
	ClusterID     int64   `json:"cluster_id"`
	Year          int     `json:"year"`
	Production    float64 `json:"production"`
	Export        float64 `json:"export"`
	Employment    int     `json:"employment"`
	Profitability float64 `json:"profitability"`
	CreatedAt     string  `json:"created_at"`
}

func toReportResponse(r *domain.ClusterReport) ReportResponse {
	return ReportResponse{
		ID:            r.ID,
		ClusterID:     r.ClusterID,
		Year:          r.Year,
		Production:    r.Production,
		Export:        r.Export,
		Employment:    r.Employment,
		Profitability: r.Profitability,
		CreatedAt:     r.CreatedAt.Format(time.RFC3339),
	}
}

// ReportHandler serves a cluster's own yearly report: GET returns the
// stored report for a year, POST creates or overwrites it.
type ReportHandler struct {
	reports *service.ReportService
	authz   *security.AuthorizationService
	logger  *slog.Logger
}

// NewReportHandler creates a new report handler
func NewReportHandler(reports *service.ReportService, authz *security.AuthorizationService, logger *slog.Logger) *ReportHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return &ReportHandler{
		reports: reports,
		authz:   authz,
		logger:  logger,
	}
}

func (h *ReportHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipalFromContext(r.Context())
	if principal == nil {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "authentication required"})
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.get(w, r)
	case http.MethodPost:
		h.upsert(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *ReportHandler) get(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipalFromContext(r.Context())

	if err := h.authz.ValidatePermission(principal.Role, security.PermReadOwnReport); err != nil {
		writeError(w, err)
		return
	}

	year, err := strconv.Atoi(r.URL.Query().Get("year"))
	if err != nil || year <= 0 {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "year query parameter is required"})
		return
	}

	report, err := h.reports.Get(r.Context(), *principal, year)
	if err != nil {
		writeError(w, err)
		return
	}
	if report == nil {
		// no report yet for that year; the form starts blank
		writeJSON(w, http.StatusOK, nil)
		return
	}

	writeJSON(w, http.StatusOK, toReportResponse(report))
}

func (h *ReportHandler) upsert(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipalFromContext(r.Context())

	if err := h.authz.ValidatePermission(principal.Role, security.PermSubmitReport); err != nil {
		writeError(w, err)
		return
	}

	var in service.ReportInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		h.logger.Warn("failed to decode report payload", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request"})
		return
	}
	if in.Year <= 0 {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "year must be a positive integer"})
		return
	}

	report, err := h.reports.Upsert(r.Context(), *principal, in)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toReportResponse(report))
}
