package security

import (
	"log/slog"

	"github.com/yourorg/agroregistry/internal/domain"
)

// Permission represents an action permission
type Permission string

const (
	PermSubmitReport   Permission = "submit_report"
	PermReadOwnReport  Permission = "read_own_report"
	PermListClusters   Permission = "list_clusters"
	PermViewHistory    Permission = "view_history"
	PermApproveCluster Permission = "approve_cluster"
	PermRejectCluster  Permission = "reject_cluster"
	PermBlockCluster   Permission = "block_cluster"
	PermDeleteCluster  Permission = "delete_cluster"
)

// RolePermissions maps roles to their permissions
var RolePermissions = map[domain.Role][]Permission{
	domain.RoleAdmin: {
		PermListClusters,
		PermViewHistory,
		PermApproveCluster,
		PermRejectCluster,
		PermBlockCluster,
		PermDeleteCluster,
	},
	domain.RoleCluster: {
		PermSubmitReport,
		PermReadOwnReport,
	},
}

// AuthorizationService handles authorization checks
type AuthorizationService struct {
	logger *slog.Logger
}

// NewAuthorizationService creates a new authorization service
func NewAuthorizationService(logger *slog.Logger) *AuthorizationService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthorizationService{
		logger: logger,
	}
}

// HasPermission checks if a role has a specific permission
func (as *AuthorizationService) HasPermission(role domain.Role, permission Permission) bool {
	permissions, exists := RolePermissions[role]
	if !exists {
		return false
	}
	for _, p := range permissions {
		if p == permission {
			return true
		}
	}
	return false
}

// ValidatePermission validates that a role has a specific permission
func (as *AuthorizationService) ValidatePermission(role domain.Role, permission Permission) error {
	if !as.HasPermission(role, permission) {
		as.logger.Warn("permission denied",
			slog.String("role", string(role)),
			slog.String("permission", string(permission)),
		)
		return domain.Errorf(domain.ErrForbidden, "%s role cannot %s", role, permission)
	}
	return nil
}

// GetRolePermissions returns all permissions for a role
func (as *AuthorizationService) GetRolePermissions(role domain.Role) []Permission {
	return RolePermissions[role]
}
