package server

import (
	"context"

	"lander/internal/api"
	"lander/internal/models"
	"lander/internal/ownership"
)

// devicesWithLinks — часть хранилища устройств, нужная проверке владельца.
type devicesWithLinks interface {
	GetDevice(ctx context.Context, id string) (*models.Device, error)
	LinkedDeviceIDs(ctx context.Context, deviceID string) ([]string, error)
}

// storeAdapter собирает ownership.Store из хранилищ устройств и проектов.
type storeAdapter struct {
	devices  devicesWithLinks
	projects api.ProjectStore
}

func newStoreAdapter(devices devicesWithLinks, projects api.ProjectStore) ownership.Store {
	return &storeAdapter{devices: devices, projects: projects}
}

func (a *storeAdapter) GetProject(ctx context.Context, id string) (*models.Project, error) {
	return a.projects.GetProject(ctx, id)
}

func (a *storeAdapter) GetDevice(ctx context.Context, id string) (*models.Device, error) {
	return a.devices.GetDevice(ctx, id)
}

func (a *storeAdapter) LinkedDeviceIDs(ctx context.Context, deviceID string) ([]string, error) {
	return a.devices.LinkedDeviceIDs(ctx, deviceID)
}
