package service

import (
	"context"
	"errors"
	"testing"

	"github.com/yourorg/agroregistry/internal/domain"
	"github.com/yourorg/agroregistry/internal/security"
)

func newReportFixture(t *testing.T, status domain.Status) (*memStore, *ReportService, int64) {
	t.Helper()
	store := newMemStore()
	svc := NewReportService(store, store, security.NewOwnershipService(userRepoAdapter{store}, nil), NewViewVersion(), nil)
	id := addClusterUser(t, store, "greenvalley", "pw", status)
	return store, svc, id
}

func TestUpsertReportApprovedCluster(t *testing.T) {
	_, svc, id := newReportFixture(t, domain.StatusApproved)

	report, err := svc.Upsert(context.Background(), clusterPrincipal(id), ReportInput{
		Year:          2025,
		Production:    120.5,
		Export:        30,
		Employment:    45,
		Profitability: 12.3,
	})
	if err != nil {
		t.Fatalf("upsert failed: %v", err)
	}
	if report.ClusterID != id || report.Year != 2025 {
		t.Fatalf("unexpected report identity: cluster %d year %d", report.ClusterID, report.Year)
	}
}

func TestUpsertReportIdempotent(t *testing.T) {
	store, svc, id := newReportFixture(t, domain.StatusApproved)
	ctx := context.Background()

	if _, err := svc.Upsert(ctx, clusterPrincipal(id), ReportInput{Year: 2025, Production: 100}); err != nil {
		t.Fatalf("first upsert failed: %v", err)
	}
	if _, err := svc.Upsert(ctx, clusterPrincipal(id), ReportInput{Year: 2025, Production: 200, Employment: 9}); err != nil {
		t.Fatalf("second upsert failed: %v", err)
	}

	if len(store.reports) != 1 {
		t.Fatalf("expected one report row per (cluster, year), got %d", len(store.reports))
	}

	stored, err := svc.Get(ctx, clusterPrincipal(id), 2025)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if stored.Production != 200 || stored.Employment != 9 {
		t.Fatalf("expected last-written values, got production %.1f employment %d", stored.Production, stored.Employment)
	}
}

func TestUpsertReportGatedByStatus(t *testing.T) {
	for _, status := range []domain.Status{domain.StatusPending, domain.StatusRejected, domain.StatusBlocked} {
		_, svc, id := newReportFixture(t, status)

		_, err := svc.Upsert(context.Background(), clusterPrincipal(id), ReportInput{Year: 2025})
		if !errors.Is(err, domain.ErrForbidden) {
			t.Fatalf("status %s: expected ErrForbidden, got %v", status, err)
		}
	}
}

func TestUpsertReportAdminForbidden(t *testing.T) {
	_, svc, _ := newReportFixture(t, domain.StatusApproved)

	_, err := svc.Upsert(context.Background(), adminPrincipal(), ReportInput{Year: 2025})
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for admin caller, got %v", err)
	}
}

func TestUpsertReportStaleClusterClaim(t *testing.T) {
	store, svc, _ := newReportFixture(t, domain.StatusApproved)

	// A second approved cluster, owned by someone else.
	otherID := addClusterUser(t, store, "rival", "pw", domain.StatusApproved)

	// Token still claims greenvalley's identity but points at the
	// rival's cluster; the stored user link must win.
	caller := domain.Principal{UserID: 2, Username: "greenvalley", Role: domain.RoleCluster, ClusterID: &otherID}
	_, err := svc.Upsert(context.Background(), caller, ReportInput{Year: 2025})
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for a stale cluster claim, got %v", err)
	}
	if len(store.reports) != 0 {
		t.Fatalf("no report may be written on a refused upsert, got %d", len(store.reports))
	}
}

func TestGetReportMissingYear(t *testing.T) {
	_, svc, id := newReportFixture(t, domain.StatusApproved)

	report, err := svc.Get(context.Background(), clusterPrincipal(id), 1999)
	if err != nil {
		t.Fatalf("get of missing year must not error, got %v", err)
	}
	if report != nil {
		t.Fatal("expected nil report for a year with no submission")
	}
}

func TestGetReportUnlinkedAccount(t *testing.T) {
	_, svc, _ := newReportFixture(t, domain.StatusApproved)

	caller := domain.Principal{UserID: 9, Username: "stray", Role: domain.RoleCluster}
	_, err := svc.Get(context.Background(), caller, 2025)
	if !errors.Is(err, domain.ErrBadRequest) {
		t.Fatalf("expected ErrBadRequest for unlinked account, got %v", err)
	}
}
