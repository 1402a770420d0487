package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"lander/internal/models"
)

type ProjectStore struct{ db *gorm.DB }

func NewProjectStore(db *gorm.DB) *ProjectStore { return &ProjectStore{db: db} }

func (s *ProjectStore) Create(ctx context.Context, p *models.Project) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if err := s.db.WithContext(ctx).Create(p).Error; err != nil {
		return fmt.Errorf("create project: %w", err)
	}
	return nil
}

// GetProject — (nil, nil), если проекта нет.
func (s *ProjectStore) GetProject(ctx context.Context, id string) (*models.Project, error) {
	var p models.Project
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *ProjectStore) ListByDevices(ctx context.Context, deviceIDs []string) ([]models.Project, error) {
	var rows []models.Project
	if len(deviceIDs) == 0 {
		return rows, nil
	}
	err := s.db.WithContext(ctx).
		Where("device_id IN ?", deviceIDs).
		Order("created_at desc, id asc").
		Find(&rows).Error
	return rows, err
}

// Update меняет только имя и контент; владелец проекта неизменен.
func (s *ProjectStore) Update(ctx context.Context, p *models.Project) error {
	res := s.db.WithContext(ctx).Model(&models.Project{}).
		Where("id = ?", p.ID).
		Updates(map[string]any{
			"name":       p.Name,
			"content":    p.Content,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *ProjectStore) Delete(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Project{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *ProjectStore) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Project{}).Count(&n).Error
	return n, err
}
