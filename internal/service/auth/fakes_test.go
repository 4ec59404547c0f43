package auth

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/Temutjin2k/authhub/internal/domain/models"
	"github.com/Temutjin2k/authhub/internal/domain/types"
	"github.com/Temutjin2k/authhub/pkg/logger"
	"github.com/google/uuid"
)

func testLogger() logger.Logger {
	return logger.New(io.Discard, "authhub-test", logger.LevelError)
}

type memRefreshRepo struct {
	mu      sync.Mutex
	records map[uuid.UUID]*models.RefreshTokenRecord
}

func newMemRefreshRepo() *memRefreshRepo {
	return &memRefreshRepo{records: make(map[uuid.UUID]*models.RefreshTokenRecord)}
}

func (r *memRefreshRepo) Save(_ context.Context, record *models.RefreshTokenRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *record
	r.records[record.ID] = &cp
	return nil
}

func (r *memRefreshRepo) Get(_ context.Context, id uuid.UUID) (*models.RefreshTokenRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

func (r *memRefreshRepo) MarkUsed(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rec, ok := r.records[id]; ok {
		now := time.Now().UTC()
		rec.Revoked = true
		rec.LastUsed = &now
	}
	return nil
}

func (r *memRefreshRepo) RevokeAllForUser(_ context.Context, userID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, rec := range r.records {
		if rec.UserID == userID && !rec.Revoked {
			rec.Revoked = true
			n++
		}
	}
	return n, nil
}

type memBlacklist struct {
	mu      sync.Mutex
	entries map[string]models.BlacklistEntry
}

func newMemBlacklist() *memBlacklist {
	return &memBlacklist{entries: make(map[string]models.BlacklistEntry)}
}

func (b *memBlacklist) Add(_ context.Context, e models.BlacklistEntry) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries[e.TokenID] = e
	return nil
}

func (b *memBlacklist) Exists(_ context.Context, id string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.entries[id]
	return ok, nil
}

type memDirectory struct {
	users       map[uuid.UUID]*models.User
	tenants     map[uuid.UUID]*models.Tenant
	orgs        map[uuid.UUID]*models.Organization
	roles       map[uuid.UUID][]string
	permissions map[uuid.UUID][]string
}

func newMemDirectory() *memDirectory {
	return &memDirectory{
		users:       make(map[uuid.UUID]*models.User),
		tenants:     make(map[uuid.UUID]*models.Tenant),
		orgs:        make(map[uuid.UUID]*models.Organization),
		roles:       make(map[uuid.UUID][]string),
		permissions: make(map[uuid.UUID][]string),
	}
}

func (d *memDirectory) repositories() Repositories {
	return Repositories{
		Users:         userRepo{d},
		Tenants:       tenantRepo{d},
		Organizations: orgRepo{d},
		Access:        accessRepo{d},
	}
}

type userRepo struct{ d *memDirectory }

func (r userRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range r.d.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, types.ErrNotFound
}

func (r userRepo) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	if u, ok := r.d.users[id]; ok {
		return u, nil
	}
	return nil, types.ErrNotFound
}

type tenantRepo struct{ d *memDirectory }

func (r tenantRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Tenant, error) {
	if t, ok := r.d.tenants[id]; ok {
		return t, nil
	}
	return nil, types.ErrNotFound
}

type orgRepo struct{ d *memDirectory }

func (r orgRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Organization, error) {
	if o, ok := r.d.orgs[id]; ok {
		return o, nil
	}
	return nil, types.ErrNotFound
}

type accessRepo struct{ d *memDirectory }

func (r accessRepo) UserRoleNames(_ context.Context, id uuid.UUID) ([]string, error) {
	return r.d.roles[id], nil
}

func (r accessRepo) UserPermissionKeys(_ context.Context, id uuid.UUID) ([]string, error) {
	return r.d.permissions[id], nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []models.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e models.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}
