package service

import (
	"context"
	"sort"
	"time"

	"github.com/yourorg/agroregistry/internal/domain"
)

// memStore is an in-memory implementation of every repository
// interface, mirroring the transactional behavior of the Postgres
// layer closely enough for service tests.
type memStore struct {
	clusters  map[int64]*domain.Cluster
	users     map[string]*domain.User // by username
	reports   map[int64]*domain.ClusterReport
	districts map[string]string // code -> name

	nextClusterID int64
	nextUserID    int64
	nextReportID  int64

	regionListCalls int
}

func newMemStore() *memStore {
	return &memStore{
		clusters:  make(map[int64]*domain.Cluster),
		users:     make(map[string]*domain.User),
		reports:   make(map[int64]*domain.ClusterReport),
		districts: map[string]string{"qarshi": "Qarshi", "kitob": "Kitob"},
	}
}

func (m *memStore) Create(_ context.Context, c *domain.Cluster, owner *domain.User) error {
	if _, taken := m.users[owner.Username]; taken {
		return domain.Errorf(domain.ErrConflict, "username %q is already taken", owner.Username)
	}

	m.nextClusterID++
	c.ID = m.nextClusterID
	c.CreatedAt = time.Now()
	m.clusters[c.ID] = c

	m.nextUserID++
	owner.ID = m.nextUserID
	owner.ClusterID = &c.ID
	owner.CreatedAt = time.Now()
	m.users[owner.Username] = owner
	return nil
}

func (m *memStore) GetByID(_ context.Context, id int64) (*domain.Cluster, error) {
	c, ok := m.clusters[id]
	if !ok {
		return nil, domain.Errorf(domain.ErrNotFound, "cluster %d not found", id)
	}
	return c, nil
}

func (m *memStore) UpdateStatus(_ context.Context, id int64, status domain.Status, comment *string) error {
	c, ok := m.clusters[id]
	if !ok {
		return domain.Errorf(domain.ErrNotFound, "cluster %d not found", id)
	}
	c.Status = status
	if comment != nil {
		c.AdminComment = comment
	}
	return nil
}

func (m *memStore) ListOverviews(_ context.Context, statuses ...domain.Status) ([]*domain.ClusterOverview, error) {
	var out []*domain.ClusterOverview
	for _, c := range m.clusters {
		match := false
		for _, s := range statuses {
			if c.Status == s {
				match = true
				break
			}
		}
		if !match {
			continue
		}
		ov := &domain.ClusterOverview{
			ID:           c.ID,
			Name:         c.Name,
			DistrictCode: c.DistrictCode,
			ClusterType:  c.ClusterType,
			LeaderName:   c.LeaderName,
			LeaderPhone:  c.LeaderPhone,
			Status:       c.Status,
			CreatedAt:    c.CreatedAt,
		}
		if name, ok := m.districts[c.DistrictCode]; ok {
			ov.DistrictName = &name
		}
		if u := m.ownerOf(c.ID); u != nil {
			ov.Username = u.Username
		}
		out = append(out, ov)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) Delete(_ context.Context, id int64) error {
	if _, ok := m.clusters[id]; !ok {
		return domain.Errorf(domain.ErrNotFound, "cluster %d not found", id)
	}
	for rid, r := range m.reports {
		if r.ClusterID == id {
			delete(m.reports, rid)
		}
	}
	if u := m.ownerOf(id); u != nil {
		delete(m.users, u.Username)
	}
	delete(m.clusters, id)
	return nil
}

func (m *memStore) CreateUser(_ context.Context, u *domain.User) error {
	if _, taken := m.users[u.Username]; taken {
		return domain.Errorf(domain.ErrConflict, "username %q is already taken", u.Username)
	}
	m.nextUserID++
	u.ID = m.nextUserID
	u.CreatedAt = time.Now()
	m.users[u.Username] = u
	return nil
}

func (m *memStore) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	return m.users[username], nil
}

func (m *memStore) GetByClusterID(_ context.Context, clusterID int64) (*domain.User, error) {
	return m.ownerOf(clusterID), nil
}

func (m *memStore) ownerOf(clusterID int64) *domain.User {
	for _, u := range m.users {
		if u.ClusterID != nil && *u.ClusterID == clusterID {
			return u
		}
	}
	return nil
}

func (m *memStore) Upsert(_ context.Context, r *domain.ClusterReport) error {
	for _, existing := range m.reports {
		if existing.ClusterID == r.ClusterID && existing.Year == r.Year {
			existing.Production = r.Production
			existing.Export = r.Export
			existing.Employment = r.Employment
			existing.Profitability = r.Profitability
			r.ID = existing.ID
			r.CreatedAt = existing.CreatedAt
			return nil
		}
	}
	m.nextReportID++
	r.ID = m.nextReportID
	r.CreatedAt = time.Now()
	stored := *r
	m.reports[r.ID] = &stored
	return nil
}

func (m *memStore) GetByClusterYear(_ context.Context, clusterID int64, year int) (*domain.ClusterReport, error) {
	for _, r := range m.reports {
		if r.ClusterID == clusterID && r.Year == year {
			return r, nil
		}
	}
	return nil, nil
}

func (m *memStore) ListByCluster(_ context.Context, clusterID int64) ([]*domain.ClusterReport, error) {
	var out []*domain.ClusterReport
	for _, r := range m.reports {
		if r.ClusterID == clusterID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Year > out[j].Year })
	return out, nil
}

func (m *memStore) ListRegion(_ context.Context) ([]*domain.RegionRow, error) {
	m.regionListCalls++

	var out []*domain.RegionRow
	for _, r := range m.reports {
		c, ok := m.clusters[r.ClusterID]
		if !ok || c.Status != domain.StatusApproved {
			continue
		}
		row := &domain.RegionRow{
			Year:          r.Year,
			ClusterID:     c.ID,
			ClusterName:   c.Name,
			DistrictCode:  c.DistrictCode,
			Production:    r.Production,
			Export:        r.Export,
			Employment:    r.Employment,
			Profitability: r.Profitability,
		}
		if name, ok := m.districts[c.DistrictCode]; ok {
			row.DistrictName = &name
		}
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ClusterID < out[j].ClusterID })
	return out, nil
}

func (m *memStore) GetByCode(_ context.Context, code string) (*domain.District, error) {
	name, ok := m.districts[code]
	if !ok {
		return nil, domain.Errorf(domain.ErrInvalidReference, "unknown district code %q", code)
	}
	return &domain.District{Code: code, Name: name}, nil
}

func (m *memStore) List(_ context.Context) ([]*domain.District, error) {
	var out []*domain.District
	for code, name := range m.districts {
		out = append(out, &domain.District{Code: code, Name: name})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (m *memStore) UpsertDistrict(_ context.Context, d *domain.District) error {
	m.districts[d.Code] = d.Name
	return nil
}

// userRepoAdapter exposes memStore under the UserRepository interface
// without colliding with ClusterRepository.Create.
type userRepoAdapter struct{ *memStore }

func (a userRepoAdapter) Create(ctx context.Context, u *domain.User) error {
	return a.CreateUser(ctx, u)
}

// districtRepoAdapter exposes memStore under DistrictRepository.
type districtRepoAdapter struct{ *memStore }

func (a districtRepoAdapter) Upsert(ctx context.Context, d *domain.District) error {
	return a.UpsertDistrict(ctx, d)
}
