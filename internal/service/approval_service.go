package service

import (
	"context"
	"log/slog"

	"github.com/yourorg/agroregistry/internal/domain"
	"github.com/yourorg/agroregistry/internal/observability/metrics"
	"github.com/yourorg/agroregistry/internal/security/audit"
)

// ApprovalService is the admin-only state machine driving a cluster
// through pending -> approved | rejected, approved <-> blocked. The
// rejected state is terminal. Every transition bumps the region view
// version so dashboard caches see the new approved set.
type ApprovalService struct {
	clusters domain.ClusterRepository
	audit    *audit.Logger
	version  *ViewVersion
	logger   *slog.Logger
}

// NewApprovalService creates a new approval workflow service
func NewApprovalService(
	clusters domain.ClusterRepository,
	auditLog *audit.Logger,
	version *ViewVersion,
	logger *slog.Logger,
) *ApprovalService {
	if logger == nil {
		logger = slog.Default()
	}

	return &ApprovalService{
		clusters: clusters,
		audit:    auditLog,
		version:  version,
		logger:   logger,
	}
}

func (s *ApprovalService) requireAdmin(caller domain.Principal) error {
	if caller.Role != domain.RoleAdmin {
		return domain.Errorf(domain.ErrForbidden, "admin role required")
	}
	return nil
}

// Approve moves a cluster into the approved state, which also makes it
// active for login and reporting. A nil comment leaves any earlier
// comment in place; an empty one is rejected so a stored comment is
// never silently blanked.
func (s *ApprovalService) Approve(ctx context.Context, caller domain.Principal, clusterID int64, comment *string) error {
	if err := s.requireAdmin(caller); err != nil {
		return err
	}
	if comment != nil && *comment == "" {
		return domain.Errorf(domain.ErrBadRequest, "comment must not be empty; omit it to keep the previous one")
	}

	if err := s.clusters.UpdateStatus(ctx, clusterID, domain.StatusApproved, comment); err != nil {
		metrics.ObserveTransition("approve", "error")
		return err
	}

	s.version.Bump()
	s.audit.LogDecision(ctx, caller.Username, "approve", clusterID, deref(comment))
	metrics.ObserveTransition("approve", "ok")
	return nil
}

// Reject moves a cluster into the terminal rejected state. A non-empty
// comment is mandatory: it is what the user sees on their next login
// attempt.
func (s *ApprovalService) Reject(ctx context.Context, caller domain.Principal, clusterID int64, comment string) error {
	if err := s.requireAdmin(caller); err != nil {
		return err
	}
	if comment == "" {
		return domain.Errorf(domain.ErrBadRequest, "comment required on rejection")
	}

	if err := s.clusters.UpdateStatus(ctx, clusterID, domain.StatusRejected, &comment); err != nil {
		metrics.ObserveTransition("reject", "error")
		return err
	}

	s.version.Bump()
	s.audit.LogDecision(ctx, caller.Username, "reject", clusterID, comment)
	metrics.ObserveTransition("reject", "ok")
	return nil
}

// SetBlocked blocks or unblocks a cluster. Blocking is allowed from
// any state; unblocking only undoes a block, so a pending or rejected
// cluster cannot be activated through this path.
func (s *ApprovalService) SetBlocked(ctx context.Context, caller domain.Principal, clusterID int64, blocked bool) error {
	if err := s.requireAdmin(caller); err != nil {
		return err
	}

	if blocked {
		if err := s.clusters.UpdateStatus(ctx, clusterID, domain.StatusBlocked, nil); err != nil {
			metrics.ObserveTransition("block", "error")
			return err
		}
		s.version.Bump()
		s.audit.LogDecision(ctx, caller.Username, "block", clusterID, "")
		metrics.ObserveTransition("block", "ok")
		return nil
	}

	cluster, err := s.clusters.GetByID(ctx, clusterID)
	if err != nil {
		metrics.ObserveTransition("unblock", "error")
		return err
	}
	if cluster.Status != domain.StatusBlocked {
		// Nothing to undo; leave pending/rejected/approved untouched.
		return nil
	}

	if err := s.clusters.UpdateStatus(ctx, clusterID, domain.StatusApproved, nil); err != nil {
		metrics.ObserveTransition("unblock", "error")
		return err
	}
	s.version.Bump()
	s.audit.LogDecision(ctx, caller.Username, "unblock", clusterID, "")
	metrics.ObserveTransition("unblock", "ok")
	return nil
}

// Delete hard-deletes the cluster together with its reports and its
// owning user. Irreversible.
func (s *ApprovalService) Delete(ctx context.Context, caller domain.Principal, clusterID int64) error {
	if err := s.requireAdmin(caller); err != nil {
		return err
	}

	if err := s.clusters.Delete(ctx, clusterID); err != nil {
		metrics.ObserveTransition("delete", "error")
		return err
	}

	s.version.Bump()
	s.audit.LogDecision(ctx, caller.Username, "delete", clusterID, "")
	metrics.ObserveTransition("delete", "ok")
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
