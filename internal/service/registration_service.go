package service

import (
	"context"
	"log/slog"

	"github.com/yourorg/agroregistry/internal/domain"
	"github.com/yourorg/agroregistry/internal/observability/metrics"
	"golang.org/x/crypto/bcrypt"
)

// RegistrationService creates a new cluster and its owning user in a
// single transaction. The cluster starts pending and cannot log in
// until an admin approves it.
type RegistrationService struct {
	clusters  domain.ClusterRepository
	users     domain.UserRepository
	districts domain.DistrictRepository
	logger    *slog.Logger
}

// NewRegistrationService creates a new registration service
func NewRegistrationService(
	clusters domain.ClusterRepository,
	users domain.UserRepository,
	districts domain.DistrictRepository,
	logger *slog.Logger,
) *RegistrationService {
	if logger == nil {
		logger = slog.Default()
	}

	return &RegistrationService{
		clusters:  clusters,
		users:     users,
		districts: districts,
		logger:    logger,
	}
}

// RegisterInput is the anonymous registration payload.
type RegisterInput struct {
	Username     string
	Password     string
	DistrictCode string
	ClusterName  string
	ClusterType  string
	LeaderName   string
	LeaderPhone  string
}

// RegisterResult echoes the new cluster id and the awaiting-approval message.
type RegisterResult struct {
	ClusterID int64  `json:"cluster_id"`
	Message   string `json:"message"`
}

// Register validates the request and atomically creates the pending
// cluster with its owning user. No token is issued here; the user can
// only log in after approval.
func (s *RegistrationService) Register(ctx context.Context, in RegisterInput) (*RegisterResult, error) {
	if in.Username == "" || in.Password == "" || in.ClusterName == "" || in.DistrictCode == "" {
		metrics.ObserveRegistration("bad_request")
		return nil, domain.Errorf(domain.ErrBadRequest, "username, password, cluster name, and district code are required")
	}

	existing, err := s.users.GetByUsername(ctx, in.Username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		metrics.ObserveRegistration("conflict")
		return nil, domain.Errorf(domain.ErrConflict, "username %q is already taken", in.Username)
	}

	if _, err := s.districts.GetByCode(ctx, in.DistrictCode); err != nil {
		metrics.ObserveRegistration("unknown_district")
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("failed to hash password", slog.String("error", err.Error()))
		metrics.ObserveRegistration("error")
		return nil, domain.Errorf(domain.ErrBadRequest, "failed to register cluster")
	}

	cluster := &domain.Cluster{
		Name:         in.ClusterName,
		DistrictCode: in.DistrictCode,
		ClusterType:  in.ClusterType,
		LeaderName:   in.LeaderName,
		LeaderPhone:  in.LeaderPhone,
		Status:       domain.StatusPending,
	}
	owner := &domain.User{
		Username:       in.Username,
		HashedPassword: string(hash),
		Role:           domain.RoleCluster,
	}

	// Cluster and user land together or not at all; a username race
	// lost here surfaces as Conflict from the unique constraint.
	if err := s.clusters.Create(ctx, cluster, owner); err != nil {
		metrics.ObserveRegistration("error")
		return nil, err
	}

	s.logger.Info("cluster registered",
		slog.Int64("cluster_id", cluster.ID),
		slog.String("name", cluster.Name),
		slog.String("district", cluster.DistrictCode),
	)
	metrics.ObserveRegistration("ok")

	return &RegisterResult{
		ClusterID: cluster.ID,
		Message:   "Registration request received. You can sign in once the regional admin approves it.",
	}, nil
}
