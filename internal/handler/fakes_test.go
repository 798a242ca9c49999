package handler

import (
	"context"
	"sort"
	"time"

	"github.com/yourorg/agroregistry/internal/domain"
)

// fakeStore backs handler tests with an in-memory implementation of
// the repository interfaces.
type fakeStore struct {
	clusters  map[int64]*domain.Cluster
	users     map[string]*domain.User
	reports   map[int64]*domain.ClusterReport
	districts map[string]string

	nextID int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		clusters:  make(map[int64]*domain.Cluster),
		users:     make(map[string]*domain.User),
		reports:   make(map[int64]*domain.ClusterReport),
		districts: map[string]string{"qarshi": "Qarshi"},
	}
}

func (f *fakeStore) Create(_ context.Context, c *domain.Cluster, owner *domain.User) error {
	if _, taken := f.users[owner.Username]; taken {
		return domain.Errorf(domain.ErrConflict, "username %q is already taken", owner.Username)
	}
	f.nextID++
	c.ID = f.nextID
	c.CreatedAt = time.Now()
	f.clusters[c.ID] = c

	f.nextID++
	owner.ID = f.nextID
	owner.ClusterID = &c.ID
	owner.CreatedAt = time.Now()
	f.users[owner.Username] = owner
	return nil
}

func (f *fakeStore) GetByID(_ context.Context, id int64) (*domain.Cluster, error) {
	c, ok := f.clusters[id]
	if !ok {
		return nil, domain.Errorf(domain.ErrNotFound, "cluster %d not found", id)
	}
	return c, nil
}

func (f *fakeStore) UpdateStatus(_ context.Context, id int64, status domain.Status, comment *string) error {
	c, ok := f.clusters[id]
	if !ok {
		return domain.Errorf(domain.ErrNotFound, "cluster %d not found", id)
	}
	c.Status = status
	if comment != nil {
		c.AdminComment = comment
	}
	return nil
}

func (f *fakeStore) ListOverviews(_ context.Context, statuses ...domain.Status) ([]*domain.ClusterOverview, error) {
	var out []*domain.ClusterOverview
	for _, c := range f.clusters {
		for _, s := range statuses {
			if c.Status == s {
				out = append(out, &domain.ClusterOverview{
					ID:           c.ID,
					Name:         c.Name,
					DistrictCode: c.DistrictCode,
					Status:       c.Status,
					CreatedAt:    c.CreatedAt,
				})
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStore) Delete(_ context.Context, id int64) error {
	if _, ok := f.clusters[id]; !ok {
		return domain.Errorf(domain.ErrNotFound, "cluster %d not found", id)
	}
	delete(f.clusters, id)
	return nil
}

type fakeUserRepo struct{ *fakeStore }

func (f fakeUserRepo) Create(_ context.Context, u *domain.User) error {
	if _, taken := f.users[u.Username]; taken {
		return domain.Errorf(domain.ErrConflict, "username %q is already taken", u.Username)
	}
	f.nextID++
	u.ID = f.nextID
	f.users[u.Username] = u
	return nil
}

func (f fakeUserRepo) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	return f.users[username], nil
}

func (f fakeUserRepo) GetByClusterID(_ context.Context, clusterID int64) (*domain.User, error) {
	for _, u := range f.users {
		if u.ClusterID != nil && *u.ClusterID == clusterID {
			return u, nil
		}
	}
	return nil, nil
}

type fakeDistrictRepo struct{ *fakeStore }

func (f fakeDistrictRepo) GetByCode(_ context.Context, code string) (*domain.District, error) {
	name, ok := f.districts[code]
	if !ok {
		return nil, domain.Errorf(domain.ErrInvalidReference, "unknown district code %q", code)
	}
	return &domain.District{Code: code, Name: name}, nil
}

func (f fakeDistrictRepo) List(_ context.Context) ([]*domain.District, error) { return nil, nil }

func (f fakeDistrictRepo) Upsert(_ context.Context, d *domain.District) error {
	f.districts[d.Code] = d.Name
	return nil
}

type fakeReportRepo struct{ *fakeStore }

func (f fakeReportRepo) Upsert(_ context.Context, r *domain.ClusterReport) error {
	for _, existing := range f.reports {
		if existing.ClusterID == r.ClusterID && existing.Year == r.Year {
			*existing = *r
			return nil
		}
	}
	f.nextID++
	r.ID = f.nextID
	stored := *r
	f.reports[r.ID] = &stored
	return nil
}

func (f fakeReportRepo) GetByClusterYear(_ context.Context, clusterID int64, year int) (*domain.ClusterReport, error) {
	for _, r := range f.reports {
		if r.ClusterID == clusterID && r.Year == year {
			return r, nil
		}
	}
	return nil, nil
}

func (f fakeReportRepo) ListByCluster(_ context.Context, clusterID int64) ([]*domain.ClusterReport, error) {
	var out []*domain.ClusterReport
	for _, r := range f.reports {
		if r.ClusterID == clusterID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f fakeReportRepo) ListRegion(_ context.Context) ([]*domain.RegionRow, error) {
	var out []*domain.RegionRow
	for _, r := range f.reports {
		c, ok := f.clusters[r.ClusterID]
		if !ok || c.Status != domain.StatusApproved {
			continue
		}
		out = append(out, &domain.RegionRow{
			Year:          r.Year,
			ClusterID:     c.ID,
			ClusterName:   c.Name,
			DistrictCode:  c.DistrictCode,
			Production:    r.Production,
			Export:        r.Export,
			Employment:    r.Employment,
			Profitability: r.Profitability,
		})
	}
	return out, nil
}
