package repo

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"lander/internal/models"
	"lander/internal/secrets"
)

// MemStore — хранилище в памяти для режима без БД и для тестов.
// Реализует те же методы, что DeviceStore и ProjectStore.
type MemStore struct {
	mu       sync.RWMutex
	devices  map[string]*models.Device
	projects map[string]*models.Project
	now      func() time.Time
}

func NewMemStore() *MemStore {
	return &MemStore{
		devices:  make(map[string]*models.Device),
		projects: make(map[string]*models.Project),
		now:      time.Now,
	}
}

func cloneDevice(d *models.Device) *models.Device {
	c := *d
	if d.LinkedTo != nil {
		v := *d.LinkedTo
		c.LinkedTo = &v
	}
	if d.LinkCodeHash != nil {
		v := *d.LinkCodeHash
		c.LinkCodeHash = &v
	}
	if d.LinkCodeExpiresAt != nil {
		v := *d.LinkCodeExpiresAt
		c.LinkCodeExpiresAt = &v
	}
	return &c
}

func cloneProject(p *models.Project) *models.Project {
	c := *p
	c.Content = append([]byte(nil), p.Content...)
	return &c
}

func (m *MemStore) Create(ctx context.Context) (*models.Device, error) {
	id, err := secrets.NewDeviceID()
	if err != nil {
		return nil, err
	}
	now := m.now().UTC()
	d := &models.Device{ID: id, CreatedAt: now, UpdatedAt: now}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.devices[id] = d
	return cloneDevice(d), nil
}

func (m *MemStore) GetDevice(ctx context.Context, id string) (*models.Device, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.devices[id]
	if !ok {
		return nil, nil
	}
	return cloneDevice(d), nil
}

func (m *MemStore) LinkedDeviceIDs(ctx context.Context, deviceID string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var ids []string
	for _, d := range m.devices {
		if d.LinkedTo != nil && *d.LinkedTo == deviceID {
			ids = append(ids, d.ID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (m *MemStore) SetLinkCode(ctx context.Context, id, codeHash string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.devices[id]
	if !ok {
		return ErrNotFound
	}
	// хэш уникален среди устройств, как и в схеме БД
	for _, other := range m.devices {
		if other.ID != id && other.LinkCodeHash != nil && *other.LinkCodeHash == codeHash {
			other.LinkCodeHash, other.LinkCodeExpiresAt = nil, nil
		}
	}
	h, exp := codeHash, expiresAt.UTC()
	d.LinkCodeHash, d.LinkCodeExpiresAt = &h, &exp
	d.UpdatedAt = m.now().UTC()
	return nil
}

func (m *MemStore) Link(ctx context.Context, deviceID, codeHash string, now time.Time) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var hub *models.Device
	for _, d := range m.devices {
		if d.LinkCodeHash != nil && *d.LinkCodeHash == codeHash {
			hub = d
			break
		}
	}
	if hub == nil || hub.LinkCodeExpiresAt == nil || !now.Before(*hub.LinkCodeExpiresAt) {
		return "", ErrLinkCodeInvalid
	}
	if hub.ID == deviceID {
		return "", ErrSelfLink
	}
	dev, ok := m.devices[deviceID]
	if !ok {
		return "", ErrNotFound
	}
	if dev.IsLinked() {
		return "", ErrAlreadyLinked
	}

	hub.LinkCodeHash, hub.LinkCodeExpiresAt = nil, nil
	hubID := hub.ID
	dev.LinkedTo = &hubID
	dev.UpdatedAt = m.now().UTC()
	return hubID, nil
}

func (m *MemStore) Count(ctx context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.devices)), nil
}

func (m *MemStore) List(ctx context.Context, limit int) ([]models.Device, error) {
	m.mu.RLock()
	rows := make([]models.Device, 0, len(m.devices))
	for _, d := range m.devices {
		rows = append(rows, *cloneDevice(d))
	}
	m.mu.RUnlock()

	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].CreatedAt.Equal(rows[j].CreatedAt) {
			return rows[i].CreatedAt.After(rows[j].CreatedAt)
		}
		return rows[i].ID < rows[j].ID
	})
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

// Projects возвращает вид хранилища для проектов.
func (m *MemStore) Projects() *MemProjects { return &MemProjects{m: m} }

// MemProjects — проекты поверх MemStore. Отдельный тип нужен из-за
// совпадающих имён Create/Count у устройств и проектов.
type MemProjects struct{ m *MemStore }

func (p *MemProjects) Create(ctx context.Context, pr *models.Project) error {
	if pr.ID == "" {
		pr.ID = uuid.NewString()
	}
	now := p.m.now().UTC()
	pr.CreatedAt, pr.UpdatedAt = now, now

	p.m.mu.Lock()
	defer p.m.mu.Unlock()
	p.m.projects[pr.ID] = cloneProject(pr)
	return nil
}

func (p *MemProjects) GetProject(ctx context.Context, id string) (*models.Project, error) {
	p.m.mu.RLock()
	defer p.m.mu.RUnlock()
	pr, ok := p.m.projects[id]
	if !ok {
		return nil, nil
	}
	return cloneProject(pr), nil
}

func (p *MemProjects) ListByDevices(ctx context.Context, deviceIDs []string) ([]models.Project, error) {
	want := make(map[string]struct{}, len(deviceIDs))
	for _, id := range deviceIDs {
		want[id] = struct{}{}
	}
	p.m.mu.RLock()
	rows := []models.Project{}
	for _, pr := range p.m.projects {
		if _, ok := want[pr.DeviceID]; ok {
			rows = append(rows, *cloneProject(pr))
		}
	}
	p.m.mu.RUnlock()

	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].CreatedAt.Equal(rows[j].CreatedAt) {
			return rows[i].CreatedAt.After(rows[j].CreatedAt)
		}
		return rows[i].ID < rows[j].ID
	})
	return rows, nil
}

func (p *MemProjects) Update(ctx context.Context, pr *models.Project) error {
	p.m.mu.Lock()
	defer p.m.mu.Unlock()
	cur, ok := p.m.projects[pr.ID]
	if !ok {
		return ErrNotFound
	}
	cur.Name = pr.Name
	cur.Content = append([]byte(nil), pr.Content...)
	cur.UpdatedAt = p.m.now().UTC()
	return nil
}

func (p *MemProjects) Delete(ctx context.Context, id string) error {
	p.m.mu.Lock()
	defer p.m.mu.Unlock()
	if _, ok := p.m.projects[id]; !ok {
		return ErrNotFound
	}
	delete(p.m.projects, id)
	return nil
}

func (p *MemProjects) Count(ctx context.Context) (int64, error) {
	p.m.mu.RLock()
	defer p.m.mu.RUnlock()
	return int64(len(p.m.projects)), nil
}
