package service

import (
	"context"
	"errors"
	"testing"

	"github.com/yourorg/agroregistry/internal/domain"
	"github.com/yourorg/agroregistry/internal/security/audit"
)

func adminPrincipal() domain.Principal {
	return domain.Principal{UserID: 1, Username: "admin", Role: domain.RoleAdmin}
}

func clusterPrincipal(clusterID int64) domain.Principal {
	return domain.Principal{UserID: 2, Username: "greenvalley", Role: domain.RoleCluster, ClusterID: &clusterID}
}

func newApprovalFixture(t *testing.T) (*memStore, *ApprovalService, *ViewVersion, int64) {
	t.Helper()
	store := newMemStore()
	version := NewViewVersion()
	svc := NewApprovalService(store, audit.NewLogger(nil), version, nil)
	id := addClusterUser(t, store, "greenvalley", "pw", domain.StatusPending)
	return store, svc, version, id
}

func TestApproveActivatesCluster(t *testing.T) {
	store, svc, version, id := newApprovalFixture(t)

	before := version.Current()
	if err := svc.Approve(context.Background(), adminPrincipal(), id, nil); err != nil {
		t.Fatalf("approve failed: %v", err)
	}

	cluster := store.clusters[id]
	if cluster.Status != domain.StatusApproved {
		t.Fatalf("expected approved, got %s", cluster.Status)
	}
	if !cluster.Status.Active() {
		t.Fatal("approved cluster must be active")
	}
	if version.Current() != before+1 {
		t.Fatal("approve must bump the view version")
	}
}

func TestApproveEmptyCommentRejected(t *testing.T) {
	_, svc, _, id := newApprovalFixture(t)

	empty := ""
	err := svc.Approve(context.Background(), adminPrincipal(), id, &empty)
	if !errors.Is(err, domain.ErrBadRequest) {
		t.Fatalf("expected ErrBadRequest for empty comment, got %v", err)
	}
}

func TestApproveNilCommentKeepsPrior(t *testing.T) {
	store, svc, _, id := newApprovalFixture(t)

	first := "documents verified"
	if err := svc.Approve(context.Background(), adminPrincipal(), id, &first); err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	if err := svc.Approve(context.Background(), adminPrincipal(), id, nil); err != nil {
		t.Fatalf("second approve failed: %v", err)
	}

	cluster := store.clusters[id]
	if cluster.AdminComment == nil || *cluster.AdminComment != first {
		t.Fatalf("nil comment must keep the prior one, got %v", cluster.AdminComment)
	}
}

func TestRejectRequiresComment(t *testing.T) {
	_, svc, _, id := newApprovalFixture(t)

	err := svc.Reject(context.Background(), adminPrincipal(), id, "")
	if !errors.Is(err, domain.ErrBadRequest) {
		t.Fatalf("expected ErrBadRequest for missing comment, got %v", err)
	}
}

func TestRejectStoresComment(t *testing.T) {
	store, svc, _, id := newApprovalFixture(t)

	if err := svc.Reject(context.Background(), adminPrincipal(), id, "incomplete documents"); err != nil {
		t.Fatalf("reject failed: %v", err)
	}

	cluster := store.clusters[id]
	if cluster.Status != domain.StatusRejected {
		t.Fatalf("expected rejected, got %s", cluster.Status)
	}
	if cluster.AdminComment == nil || *cluster.AdminComment != "incomplete documents" {
		t.Fatal("rejection comment must be stored")
	}
	if cluster.Status.Active() {
		t.Fatal("rejected cluster must not be active")
	}
}

func TestBlockAndUnblock(t *testing.T) {
	store, svc, _, id := newApprovalFixture(t)

	if err := svc.Approve(context.Background(), adminPrincipal(), id, nil); err != nil {
		t.Fatalf("approve failed: %v", err)
	}

	if err := svc.SetBlocked(context.Background(), adminPrincipal(), id, true); err != nil {
		t.Fatalf("block failed: %v", err)
	}
	if store.clusters[id].Status != domain.StatusBlocked {
		t.Fatalf("expected blocked, got %s", store.clusters[id].Status)
	}
	if store.clusters[id].Status.Active() {
		t.Fatal("blocked cluster must not be active")
	}

	if err := svc.SetBlocked(context.Background(), adminPrincipal(), id, false); err != nil {
		t.Fatalf("unblock failed: %v", err)
	}
	if store.clusters[id].Status != domain.StatusApproved {
		t.Fatalf("unblock must restore approved, got %s", store.clusters[id].Status)
	}
}

func TestUnblockPendingIsNoop(t *testing.T) {
	store, svc, version, id := newApprovalFixture(t)

	before := version.Current()
	if err := svc.SetBlocked(context.Background(), adminPrincipal(), id, false); err != nil {
		t.Fatalf("unblock of pending cluster errored: %v", err)
	}
	if store.clusters[id].Status != domain.StatusPending {
		t.Fatalf("unblock must not activate a pending cluster, got %s", store.clusters[id].Status)
	}
	if version.Current() != before {
		t.Fatal("no-op unblock must not bump the view version")
	}
}

func TestWorkflowRequiresAdmin(t *testing.T) {
	_, svc, _, id := newApprovalFixture(t)
	caller := clusterPrincipal(id)
	ctx := context.Background()

	if err := svc.Approve(ctx, caller, id, nil); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("approve by non-admin: expected ErrForbidden, got %v", err)
	}
	if err := svc.Reject(ctx, caller, id, "no"); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("reject by non-admin: expected ErrForbidden, got %v", err)
	}
	if err := svc.SetBlocked(ctx, caller, id, true); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("block by non-admin: expected ErrForbidden, got %v", err)
	}
	if err := svc.Delete(ctx, caller, id); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("delete by non-admin: expected ErrForbidden, got %v", err)
	}
}

func TestWorkflowUnknownCluster(t *testing.T) {
	_, svc, _, _ := newApprovalFixture(t)

	if err := svc.Approve(context.Background(), adminPrincipal(), 999, nil); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteCascades(t *testing.T) {
	store, svc, _, id := newApprovalFixture(t)

	if err := svc.Approve(context.Background(), adminPrincipal(), id, nil); err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	if err := store.Upsert(context.Background(), &domain.ClusterReport{ClusterID: id, Year: 2025, Production: 10}); err != nil {
		t.Fatalf("seed report failed: %v", err)
	}

	if err := svc.Delete(context.Background(), adminPrincipal(), id); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	if len(store.clusters) != 0 {
		t.Fatal("cluster must be removed")
	}
	if len(store.users) != 0 {
		t.Fatal("owning user must be removed with the cluster")
	}
	if len(store.reports) != 0 {
		t.Fatal("reports must be removed with the cluster")
	}
}
