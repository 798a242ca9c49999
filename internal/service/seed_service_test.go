package service

import (
	"context"
	"testing"

	"github.com/yourorg/agroregistry/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

func TestSeedDistrictsIdempotent(t *testing.T) {
	store := newMemStore()
	store.districts = map[string]string{}
	svc := NewSeedService(districtRepoAdapter{store}, userRepoAdapter{store}, nil)
	ctx := context.Background()

	seed := map[string]string{"qarshi": "Qarshi", "kitob": "Kitob"}
	if err := svc.SeedDistricts(ctx, seed); err != nil {
		t.Fatalf("first seed failed: %v", err)
	}
	if err := svc.SeedDistricts(ctx, seed); err != nil {
		t.Fatalf("second seed failed: %v", err)
	}
	if len(store.districts) != 2 {
		t.Fatalf("expected 2 districts, got %d", len(store.districts))
	}
}

func TestSeedAdminCreatesAccount(t *testing.T) {
	store := newMemStore()
	svc := NewSeedService(districtRepoAdapter{store}, userRepoAdapter{store}, nil)

	if err := svc.SeedAdmin(context.Background(), "admin", "admin"); err != nil {
		t.Fatalf("seed admin failed: %v", err)
	}

	admin := store.users["admin"]
	if admin == nil {
		t.Fatal("admin account was not created")
	}
	if admin.Role != domain.RoleAdmin {
		t.Fatalf("expected admin role, got %s", admin.Role)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(admin.HashedPassword), []byte("admin")); err != nil {
		t.Fatal("seed password must be stored as a valid bcrypt hash")
	}
}

func TestSeedAdminSkipsExisting(t *testing.T) {
	store := newMemStore()
	addAdmin(t, store, "admin", "changed-by-operator")
	existing := store.users["admin"].HashedPassword
	svc := NewSeedService(districtRepoAdapter{store}, userRepoAdapter{store}, nil)

	if err := svc.SeedAdmin(context.Background(), "admin", "admin"); err != nil {
		t.Fatalf("seed admin failed: %v", err)
	}
	if store.users["admin"].HashedPassword != existing {
		t.Fatal("seeding must not overwrite an existing admin account")
	}
}
