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

// AdminHandler groups the admin-only endpoints: cluster directory
// listings, per-cluster history, and the approval workflow actions.
type AdminHandler struct {
	directory *service.DirectoryService
	approval  *service.ApprovalService
	authz     *security.AuthorizationService
	logger    *slog.Logger
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(
	directory *service.DirectoryService,
	approval *service.ApprovalService,
	authz *security.AuthorizationService,
	logger *slog.Logger,
) *AdminHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return &AdminHandler{
		directory: directory,
		approval:  approval,
		authz:     authz,
		logger:    logger,
	}
}

// ClusterOverviewResponse is one row of the admin directory listings.
type ClusterOverviewResponse struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	DistrictCode string  `json:"district_code"`
	DistrictName *string `json:"district_name"`
	ClusterType  string  `json:"cluster_type"`
	LeaderName   string  `json:"leader_name"`
	LeaderPhone  string  `json:"leader_phone"`
	Status       string  `json:"status"`
	IsActive     bool    `json:"is_active"`
	Username     string  `json:"username"`
	CreatedAt    string  `json:"created_at"`
}

func toOverviewResponses(in []*domain.ClusterOverview) []ClusterOverviewResponse {
	out := make([]ClusterOverviewResponse, 0, len(in))
	for _, ov := range in {
		out = append(out, ClusterOverviewResponse{
			ID:           ov.ID,
			Name:         ov.Name,
			DistrictCode: ov.DistrictCode,
			DistrictName: ov.DistrictName,
			ClusterType:  ov.ClusterType,
			LeaderName:   ov.LeaderName,
			LeaderPhone:  ov.LeaderPhone,
			Status:       string(ov.Status),
			IsActive:     ov.Status.Active(),
			Username:     ov.Username,
			CreatedAt:    ov.CreatedAt.Format(time.RFC3339),
		})
	}
	return out
}

// DecisionRequest carries a workflow action target. Comment is optional
// on approval and required on rejection.
type DecisionRequest struct {
	ClusterID int64   `json:"cluster_id"`
	Comment   *string `json:"comment,omitempty"`
}

// BlockRequest toggles a cluster's blocked state.
type BlockRequest struct {
	ClusterID int64 `json:"cluster_id"`
	Blocked   bool  `json:"blocked"`
}

// StatusResponse acknowledges a workflow action.
type StatusResponse struct {
	Status    string `json:"status"`
	ClusterID int64  `json:"cluster_id"`
}

// ListPending handles GET /api/admin/pending-clusters
func (h *AdminHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipalFromContext(r.Context())
	if principal == nil {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "authentication required"})
		return
	}
	if err := h.authz.ValidatePermission(principal.Role, security.PermListClusters); err != nil {
		writeError(w, err)
		return
	}

	clusters, err := h.directory.ListPending(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toOverviewResponses(clusters))
}

// ListActive handles GET /api/admin/active-clusters
func (h *AdminHandler) ListActive(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipalFromContext(r.Context())
	if principal == nil {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "authentication required"})
		return
	}
	if err := h.authz.ValidatePermission(principal.Role, security.PermListClusters); err != nil {
		writeError(w, err)
		return
	}

	clusters, err := h.directory.ListActiveOrBlocked(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toOverviewResponses(clusters))
}

// History handles GET /api/admin/cluster-history/{id}
func (h *AdminHandler) History(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipalFromContext(r.Context())
	if principal == nil {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "authentication required"})
		return
	}
	if err := h.authz.ValidatePermission(principal.Role, security.PermViewHistory); err != nil {
		writeError(w, err)
		return
	}

	clusterID, ok := pathID(w, r)
	if !ok {
		return
	}

	history, err := h.directory.History(r.Context(), clusterID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, history)
}

// Approve handles POST /api/admin/cluster-approve
func (h *AdminHandler) Approve(w http.ResponseWriter, r *http.Request) {
	principal, req, ok := h.decisionRequest(w, r, security.PermApproveCluster)
	if !ok {
		return
	}

	if err := h.approval.Approve(r.Context(), *principal, req.ClusterID, req.Comment); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, StatusResponse{Status: "approved", ClusterID: req.ClusterID})
}

// Reject handles POST /api/admin/cluster-reject
func (h *AdminHandler) Reject(w http.ResponseWriter, r *http.Request) {
	principal, req, ok := h.decisionRequest(w, r, security.PermRejectCluster)
	if !ok {
		return
	}

	var comment string
	if req.Comment != nil {
		comment = *req.Comment
	}
	if err := h.approval.Reject(r.Context(), *principal, req.ClusterID, comment); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, StatusResponse{Status: "rejected", ClusterID: req.ClusterID})
}

// Block handles POST /api/admin/cluster-block
func (h *AdminHandler) Block(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipalFromContext(r.Context())
	if principal == nil {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "authentication required"})
		return
	}
	if err := h.authz.ValidatePermission(principal.Role, security.PermBlockCluster); err != nil {
		writeError(w, err)
		return
	}

	var req BlockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("failed to decode block request", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request"})
		return
	}

	if err := h.approval.SetBlocked(r.Context(), *principal, req.ClusterID, req.Blocked); err != nil {
		writeError(w, err)
		return
	}

	status := "unblocked"
	if req.Blocked {
		status = "blocked"
	}
	writeJSON(w, http.StatusOK, StatusResponse{Status: status, ClusterID: req.ClusterID})
}

// Delete handles DELETE /api/admin/cluster/{id}
func (h *AdminHandler) Delete(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipalFromContext(r.Context())
	if principal == nil {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "authentication required"})
		return
	}
	if err := h.authz.ValidatePermission(principal.Role, security.PermDeleteCluster); err != nil {
		writeError(w, err)
		return
	}

	clusterID, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.approval.Delete(r.Context(), *principal, clusterID); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, StatusResponse{Status: "deleted", ClusterID: clusterID})
}

func (h *AdminHandler) decisionRequest(w http.ResponseWriter, r *http.Request, perm security.Permission) (*domain.Principal, *DecisionRequest, bool) {
	principal := middleware.GetPrincipalFromContext(r.Context())
	if principal == nil {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "authentication required"})
		return nil, nil, false
	}
	if err := h.authz.ValidatePermission(principal.Role, perm); err != nil {
		writeError(w, err)
		return nil, nil, false
	}

	var req DecisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("failed to decode decision request", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request"})
		return nil, nil, false
	}
	if req.ClusterID <= 0 {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "cluster_id is required"})
		return nil, nil, false
	}

	return principal, &req, true
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid cluster id"})
		return 0, false
	}
	return id, true
}
