package security

import (
	"context"
	"log/slog"

	"github.com/yourorg/agroregistry/internal/domain"
	"github.com/yourorg/agroregistry/internal/security/audit"
)

// OwnershipService checks resource-level access on top of the role
// permission table: a cluster account may only touch the cluster its
// user row is linked to. The link is read from storage rather than
// trusted from the token, so a claim that outlived a delete or
// re-registration is refused. Admins bypass ownership.
type OwnershipService struct {
	users  domain.UserRepository
	audit  *audit.Logger
	logger *slog.Logger
}

// NewOwnershipService creates a new ownership checker
func NewOwnershipService(users domain.UserRepository, logger *slog.Logger) *OwnershipService {
	if logger == nil {
		logger = slog.Default()
	}
	return &OwnershipService{
		users:  users,
		audit:  audit.NewLogger(logger),
		logger: logger,
	}
}

// ValidateClusterAccess checks that the caller's stored account still
// owns the given cluster.
func (o *OwnershipService) ValidateClusterAccess(ctx context.Context, caller domain.Principal, clusterID int64) error {
	if caller.Role == domain.RoleAdmin {
		return nil
	}

	user, err := o.users.GetByUsername(ctx, caller.Username)
	if err != nil {
		return err
	}
	if user == nil || user.ClusterID == nil || *user.ClusterID != clusterID {
		o.audit.LogDenied(ctx, caller.Username, "cluster ownership check failed")
		return domain.Errorf(domain.ErrForbidden, "access denied: you do not own this cluster")
	}

	return nil
}
