package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"lander/internal/models"
	"lander/internal/secrets"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrAlreadyLinked   = errors.New("device is already linked")
	ErrSelfLink        = errors.New("device cannot link to itself")
	ErrLinkCodeInvalid = errors.New("link code is invalid or expired")
)

type DeviceStore struct{ db *gorm.DB }

func NewDeviceStore(db *gorm.DB) *DeviceStore { return &DeviceStore{db: db} }

// Create регистрирует новое устройство со случайным ID.
func (s *DeviceStore) Create(ctx context.Context) (*models.Device, error) {
	id, err := secrets.NewDeviceID()
	if err != nil {
		return nil, err
	}
	d := models.Device{ID: id}
	if err := s.db.WithContext(ctx).Create(&d).Error; err != nil {
		return nil, fmt.Errorf("create device: %w", err)
	}
	return &d, nil
}

// GetDevice — (nil, nil), если устройства нет.
func (s *DeviceStore) GetDevice(ctx context.Context, id string) (*models.Device, error) {
	var d models.Device
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&d).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// LinkedDeviceIDs — устройства, у которых linked_to = deviceID.
func (s *DeviceStore) LinkedDeviceIDs(ctx context.Context, deviceID string) ([]string, error) {
	var ids []string
	err := s.db.WithContext(ctx).Model(&models.Device{}).
		Where("linked_to = ?", deviceID).
		Order("id asc").
		Pluck("id", &ids).Error
	return ids, err
}

// SetLinkCode сохраняет хэш нового кода; предыдущий код перестаёт действовать.
// Совпавший хэш у другого устройства гасится, чтобы не упереться в уникальный индекс.
func (s *DeviceStore) SetLinkCode(ctx context.Context, id, codeHash string, expiresAt time.Time) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Device{}).
			Where("link_code_hash = ? AND id <> ?", codeHash, id).
			Updates(map[string]any{"link_code_hash": nil, "link_code_expires_at": nil}).Error; err != nil {
			return err
		}
		res := tx.Model(&models.Device{}).
			Where("id = ?", id).
			Updates(map[string]any{
				"link_code_hash":       codeHash,
				"link_code_expires_at": expiresAt.UTC(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// Link привязывает deviceID к владельцу кода и гасит код. Возвращает ID хаба.
func (s *DeviceStore) Link(ctx context.Context, deviceID, codeHash string, now time.Time) (string, error) {
	var hubID string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var hub models.Device
		err := tx.Where("link_code_hash = ?", codeHash).First(&hub).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrLinkCodeInvalid
		}
		if err != nil {
			return err
		}
		if hub.LinkCodeExpiresAt == nil || !now.Before(*hub.LinkCodeExpiresAt) {
			return ErrLinkCodeInvalid
		}
		if hub.ID == deviceID {
			return ErrSelfLink
		}

		var dev models.Device
		err = tx.Where("id = ?", deviceID).First(&dev).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		if dev.IsLinked() {
			return ErrAlreadyLinked
		}

		// гасим код условно: параллельная привязка тем же кодом получит 0 строк
		res := tx.Model(&models.Device{}).
			Where("id = ? AND link_code_hash = ?", hub.ID, codeHash).
			Updates(map[string]any{"link_code_hash": nil, "link_code_expires_at": nil})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != 1 {
			return ErrLinkCodeInvalid
		}
		if err := tx.Model(&models.Device{}).
			Where("id = ?", deviceID).
			Update("linked_to", hub.ID).Error; err != nil {
			return err
		}
		hubID = hub.ID
		return nil
	})
	return hubID, err
}

func (s *DeviceStore) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Device{}).Count(&n).Error
	return n, err
}

func (s *DeviceStore) List(ctx context.Context, limit int) ([]models.Device, error) {
	var rows []models.Device
	err := s.db.WithContext(ctx).Order("created_at desc").Limit(limit).Find(&rows).Error
	return rows, err
}
