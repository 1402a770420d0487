// Package ownership решает, может ли устройство работать с проектом.
//
// Совладельцы устройства d — это «звезда» в один шаг:
//
//	{d} ∪ {x : x.LinkedTo = d} ∪ {d.LinkedTo}
//
// Связь связанного устройства (два шага) доступа не даёт.
package ownership

import (
	"context"
	"fmt"

	"lander/internal/models"
)

// Store — чтение, которое нужно проверке. Отсутствие записи — (nil, nil).
type Store interface {
	GetProject(ctx context.Context, id string) (*models.Project, error)
	GetDevice(ctx context.Context, id string) (*models.Device, error)
	// LinkedDeviceIDs — устройства, у которых LinkedTo == deviceID.
	LinkedDeviceIDs(ctx context.Context, deviceID string) ([]string, error)
}

type Verifier struct {
	store Store
}

func NewVerifier(store Store) *Verifier { return &Verifier{store: store} }

// AccessSet — self, устройства, привязанные к self, и хаб самого self.
func (v *Verifier) AccessSet(ctx context.Context, deviceID string) (map[string]struct{}, error) {
	set := map[string]struct{}{deviceID: {}}

	children, err := v.store.LinkedDeviceIDs(ctx, deviceID)
	if err != nil {
		return nil, fmt.Errorf("linked devices: %w", err)
	}
	for _, id := range children {
		set[id] = struct{}{}
	}

	dev, err := v.store.GetDevice(ctx, deviceID)
	if err != nil {
		return nil, fmt.Errorf("get device: %w", err)
	}
	if dev != nil && dev.IsLinked() {
		set[*dev.LinkedTo] = struct{}{}
	}
	return set, nil
}

// Verify — true, только если владелец проекта входит в AccessSet.
// Несуществующий проект неотличим от чужого.
func (v *Verifier) Verify(ctx context.Context, projectID, deviceID string) (bool, error) {
	if projectID == "" || deviceID == "" {
		return false, nil
	}
	p, err := v.store.GetProject(ctx, projectID)
	if err != nil {
		return false, fmt.Errorf("get project: %w", err)
	}
	if p == nil {
		return false, nil
	}
	set, err := v.AccessSet(ctx, deviceID)
	if err != nil {
		return false, err
	}
	_, ok := set[p.DeviceID]
	return ok, nil
}

// IDs — AccessSet в виде среза (порядок не определён).
func IDs(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	return out
}
