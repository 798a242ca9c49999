package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/yourorg/agroregistry/internal/service"
)

// RegisterRequest represents the anonymous cluster registration payload
type RegisterRequest struct {
	Username     string `json:"username"`
	Password     string `json:"password"`
	DistrictCode string `json:"district_code"`
	ClusterType  string `json:"cluster_type,omitempty"`
	ClusterName  string `json:"cluster_name"`
	LeaderName   string `json:"leader_name"`
	LeaderPhone  string `json:"leader_phone,omitempty"`
}

// RegisterHandler handles cluster registration requests
type RegisterHandler struct {
	registration *service.RegistrationService
	logger       *slog.Logger
}

// NewRegisterHandler creates a new registration handler
func NewRegisterHandler(registration *service.RegistrationService, logger *slog.Logger) *RegisterHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return &RegisterHandler{
		registration: registration,
		logger:       logger,
	}
}

// ServeHTTP handles POST /api/auth/register-cluster requests
func (h *RegisterHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("failed to decode registration request", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request"})
		return
	}

	result, err := h.registration.Register(r.Context(), service.RegisterInput{
		Username:     req.Username,
		Password:     req.Password,
		DistrictCode: req.DistrictCode,
		ClusterName:  req.ClusterName,
		ClusterType:  req.ClusterType,
		LeaderName:   req.LeaderName,
		LeaderPhone:  req.LeaderPhone,
	})
	if err != nil {
		h.logger.Info("registration failed",
			slog.String("username", req.Username),
			slog.String("error", err.Error()),
		)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, result)
}
