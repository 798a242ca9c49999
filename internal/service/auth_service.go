package service

import (
	"context"
	"log/slog"

	"github.com/yourorg/agroregistry/internal/domain"
	"github.com/yourorg/agroregistry/internal/observability/metrics"
	"github.com/yourorg/agroregistry/internal/security/auth"
	"golang.org/x/crypto/bcrypt"
)

// AuthService handles login for both admin and cluster accounts. The
// cluster approval state machine gates cluster logins: only an
// approved cluster's user receives a token.
type AuthService struct {
	users    domain.UserRepository
	clusters domain.ClusterRepository
	tokens   *auth.TokenManager
	logger   *slog.Logger
}

// NewAuthService creates a new authentication service
func NewAuthService(
	users domain.UserRepository,
	clusters domain.ClusterRepository,
	tokens *auth.TokenManager,
	logger *slog.Logger,
) *AuthService {
	if logger == nil {
		logger = slog.Default()
	}

	return &AuthService{
		users:    users,
		clusters: clusters,
		tokens:   tokens,
		logger:   logger,
	}
}

// LoginResult carries the token plus role and cluster linkage so the
// frontend can route to the right panel without a second lookup.
type LoginResult struct {
	Token     string      `json:"token"`
	TokenType string      `json:"token_type"`
	Role      domain.Role `json:"role"`
	ClusterID *int64      `json:"cluster_id"`
	Username  string      `json:"username"`
	ExpiresIn int         `json:"expires_in"` // seconds
}

// Login authenticates credentials and applies the cluster login gate.
func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	if username == "" || password == "" {
		return nil, domain.Errorf(domain.ErrBadRequest, "username and password are required")
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	// Uniform message for unknown user and wrong password, so the
	// endpoint cannot be used to enumerate usernames.
	if user == nil {
		s.logger.Info("login attempt with unknown username", slog.String("username", username))
		metrics.ObserveLogin("invalid_credentials")
		return nil, domain.Errorf(domain.ErrUnauthenticated, "invalid username or password")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(password)); err != nil {
		s.logger.Info("login failed with wrong password", slog.String("username", username))
		metrics.ObserveLogin("invalid_credentials")
		return nil, domain.Errorf(domain.ErrUnauthenticated, "invalid username or password")
	}

	if user.Role == domain.RoleCluster && user.ClusterID != nil {
		if err := s.checkClusterGate(ctx, *user.ClusterID); err != nil {
			metrics.ObserveLogin("gated")
			return nil, err
		}
	}

	token, err := s.tokens.GenerateToken(user.Username, user.Role, user.ClusterID)
	if err != nil {
		s.logger.Error("failed to sign token",
			slog.String("username", user.Username),
			slog.String("error", err.Error()),
		)
		metrics.ObserveLogin("error")
		return nil, domain.Errorf(domain.ErrUnauthenticated, "failed to generate token")
	}

	s.logger.Info("user logged in",
		slog.String("username", user.Username),
		slog.String("role", string(user.Role)),
	)
	metrics.ObserveLogin("ok")

	return &LoginResult{
		Token:     token,
		TokenType: "Bearer",
		Role:      user.Role,
		ClusterID: user.ClusterID,
		Username:  user.Username,
		ExpiresIn: int(s.tokens.TTL().Seconds()),
	}, nil
}

// checkClusterGate rejects logins for clusters that are not approved.
// Rejected clusters see the admin's comment; pending and blocked ones
// get the awaiting-approval message.
func (s *AuthService) checkClusterGate(ctx context.Context, clusterID int64) error {
	cluster, err := s.clusters.GetByID(ctx, clusterID)
	if err != nil {
		return err
	}

	switch {
	case cluster.Status == domain.StatusRejected:
		if cluster.AdminComment != nil && *cluster.AdminComment != "" {
			return domain.Errorf(domain.ErrForbidden, "your registration request was rejected. Reason: %s", *cluster.AdminComment)
		}
		return domain.Errorf(domain.ErrForbidden, "your registration request was rejected. No reason given.")
	case !cluster.Status.Active():
		return domain.Errorf(domain.ErrForbidden, "your registration request is awaiting approval. You can sign in once the regional admin approves it.")
	}

	return nil
}
