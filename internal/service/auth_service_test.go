package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/yourorg/agroregistry/internal/domain"
	"github.com/yourorg/agroregistry/internal/security/auth"
	"golang.org/x/crypto/bcrypt"
)

func testTokenManager() *auth.TokenManager {
	return auth.NewTokenManager("test-secret-at-least-32-bytes-long!", "test", time.Hour)
}

func addClusterUser(t *testing.T, store *memStore, username, password string, status domain.Status) int64 {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}

	cluster := &domain.Cluster{
		Name:         username + " cluster",
		DistrictCode: "qarshi",
		Status:       domain.StatusPending,
	}
	owner := &domain.User{
		Username:       username,
		HashedPassword: string(hash),
		Role:           domain.RoleCluster,
	}
	if err := store.Create(context.Background(), cluster, owner); err != nil {
		t.Fatalf("create cluster: %v", err)
	}
	cluster.Status = status
	return cluster.ID
}

func addAdmin(t *testing.T, store *memStore, username, password string) {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	if err := store.CreateUser(context.Background(), &domain.User{
		Username:       username,
		HashedPassword: string(hash),
		Role:           domain.RoleAdmin,
	}); err != nil {
		t.Fatalf("create admin: %v", err)
	}
}

func TestLoginUnknownUser(t *testing.T) {
	store := newMemStore()
	svc := NewAuthService(userRepoAdapter{store}, store, testTokenManager(), nil)

	_, err := svc.Login(context.Background(), "nobody", "whatever")
	if !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	store := newMemStore()
	addAdmin(t, store, "admin", "correct")
	svc := NewAuthService(userRepoAdapter{store}, store, testTokenManager(), nil)

	_, err := svc.Login(context.Background(), "admin", "wrong")
	if !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
	if err.Error() != "invalid username or password" {
		t.Fatalf("wrong-password message must match unknown-user message, got %q", err.Error())
	}
}

func TestLoginAdmin(t *testing.T) {
	store := newMemStore()
	addAdmin(t, store, "admin", "admin")
	svc := NewAuthService(userRepoAdapter{store}, store, testTokenManager(), nil)

	result, err := svc.Login(context.Background(), "admin", "admin")
	if err != nil {
		t.Fatalf("admin login failed: %v", err)
	}
	if result.Token == "" {
		t.Fatal("expected a token")
	}
	if result.Role != domain.RoleAdmin {
		t.Fatalf("expected admin role, got %s", result.Role)
	}
	if result.ClusterID != nil {
		t.Fatal("admin must have no cluster linkage")
	}
	if result.ExpiresIn != 3600 {
		t.Fatalf("expected expires_in 3600, got %d", result.ExpiresIn)
	}
}

func TestLoginPendingClusterGated(t *testing.T) {
	store := newMemStore()
	addClusterUser(t, store, "greenvalley", "pw", domain.StatusPending)
	svc := NewAuthService(userRepoAdapter{store}, store, testTokenManager(), nil)

	_, err := svc.Login(context.Background(), "greenvalley", "pw")
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for pending cluster, got %v", err)
	}
	if !strings.Contains(err.Error(), "awaiting approval") {
		t.Fatalf("expected awaiting-approval message, got %q", err.Error())
	}
}

func TestLoginApprovedClusterSucceeds(t *testing.T) {
	store := newMemStore()
	id := addClusterUser(t, store, "greenvalley", "pw", domain.StatusApproved)
	svc := NewAuthService(userRepoAdapter{store}, store, testTokenManager(), nil)

	result, err := svc.Login(context.Background(), "greenvalley", "pw")
	if err != nil {
		t.Fatalf("approved cluster login failed: %v", err)
	}
	if result.ClusterID == nil || *result.ClusterID != id {
		t.Fatalf("expected cluster id %d in result, got %v", id, result.ClusterID)
	}
	if result.Role != domain.RoleCluster {
		t.Fatalf("expected cluster role, got %s", result.Role)
	}
}

func TestLoginRejectedClusterShowsReason(t *testing.T) {
	store := newMemStore()
	id := addClusterUser(t, store, "greenvalley", "pw", domain.StatusRejected)
	reason := "incomplete documents"
	store.clusters[id].AdminComment = &reason
	svc := NewAuthService(userRepoAdapter{store}, store, testTokenManager(), nil)

	_, err := svc.Login(context.Background(), "greenvalley", "pw")
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for rejected cluster, got %v", err)
	}
	if !strings.Contains(err.Error(), reason) {
		t.Fatalf("expected rejection reason in message, got %q", err.Error())
	}
}

func TestLoginRejectedClusterWithoutComment(t *testing.T) {
	store := newMemStore()
	addClusterUser(t, store, "greenvalley", "pw", domain.StatusRejected)
	svc := NewAuthService(userRepoAdapter{store}, store, testTokenManager(), nil)

	_, err := svc.Login(context.Background(), "greenvalley", "pw")
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if !strings.Contains(err.Error(), "No reason given") {
		t.Fatalf("expected no-reason message, got %q", err.Error())
	}
}

func TestLoginBlockedClusterGated(t *testing.T) {
	store := newMemStore()
	addClusterUser(t, store, "greenvalley", "pw", domain.StatusBlocked)
	svc := NewAuthService(userRepoAdapter{store}, store, testTokenManager(), nil)

	_, err := svc.Login(context.Background(), "greenvalley", "pw")
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for blocked cluster, got %v", err)
	}
}

func TestLoginMissingCredentials(t *testing.T) {
	store := newMemStore()
	svc := NewAuthService(userRepoAdapter{store}, store, testTokenManager(), nil)

	if _, err := svc.Login(context.Background(), "", "pw"); !errors.Is(err, domain.ErrBadRequest) {
		t.Fatalf("expected ErrBadRequest for empty username, got %v", err)
	}
	if _, err := svc.Login(context.Background(), "user", ""); !errors.Is(err, domain.ErrBadRequest) {
		t.Fatalf("expected ErrBadRequest for empty password, got %v", err)
	}
}
