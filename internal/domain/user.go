package domain

import (
	"context"
	"time"
)

// Role of a registry account.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleCluster Role = "cluster"
)

// User is a registry account. Cluster-role users own exactly one
// cluster; admin users have no cluster linkage.
type User struct {
	ID             int64
	Username       string
	HashedPassword string // bcrypt hash, never returned over the API
	Role           Role
	ClusterID      *int64 // nil for admins
	CreatedAt      time.Time
}

// Principal is the resolved identity of the caller for one request.
type Principal struct {
	UserID    int64
	Username  string
	Role      Role
	ClusterID *int64
}

// UserRepository defines data access for users.
type UserRepository interface {
	// Create inserts a standalone user (admin seeding). Cluster owners
	// are created through ClusterRepository.Create.
	Create(ctx context.Context, u *User) error
	// GetByUsername returns (nil, nil) when no such user exists.
	GetByUsername(ctx context.Context, username string) (*User, error)
	// GetByClusterID returns the owning user of a cluster, (nil, nil)
	// when none exists.
	GetByClusterID(ctx context.Context, clusterID int64) (*User, error)
}
