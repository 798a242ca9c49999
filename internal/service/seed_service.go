package service

import (
	"context"
	"log/slog"

	"github.com/yourorg/agroregistry/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

// SeedService provisions reference data at startup: the district list
// and the initial admin account. Idempotent, safe on every boot.
type SeedService struct {
	districts domain.DistrictRepository
	users     domain.UserRepository
	logger    *slog.Logger
}

// NewSeedService creates a new seed service
func NewSeedService(
	districts domain.DistrictRepository,
	users domain.UserRepository,
	logger *slog.Logger,
) *SeedService {
	if logger == nil {
		logger = slog.Default()
	}

	return &SeedService{
		districts: districts,
		users:     users,
		logger:    logger,
	}
}

// SeedDistricts upserts the fixed district reference list.
func (s *SeedService) SeedDistricts(ctx context.Context, seed map[string]string) error {
	for code, name := range seed {
		if err := s.districts.Upsert(ctx, &domain.District{Code: code, Name: name}); err != nil {
			return err
		}
	}
	s.logger.Info("districts seeded", slog.Int("count", len(seed)))
	return nil
}

// SeedAdmin creates the admin account when it does not exist yet. An
// existing admin is never touched, so a rotated password survives
// restarts.
func (s *SeedService) SeedAdmin(ctx context.Context, username, password string) error {
	existing, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	admin := &domain.User{
		Username:       username,
		HashedPassword: string(hash),
		Role:           domain.RoleAdmin,
	}
	if err := s.users.Create(ctx, admin); err != nil {
		return err
	}

	s.logger.Info("admin account seeded", slog.String("username", username))
	return nil
}
