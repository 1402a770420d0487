// Package api — JSON API арендатора: устройства, привязка, проекты и публичная страница.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"lander/internal/guard"
	"lander/internal/models"
	"lander/internal/ownership"
)

// DeviceStore — операции над устройствами (repo.DeviceStore или repo.MemStore).
type DeviceStore interface {
	Create(ctx context.Context) (*models.Device, error)
	GetDevice(ctx context.Context, id string) (*models.Device, error)
	SetLinkCode(ctx context.Context, id, codeHash string, expiresAt time.Time) error
	Link(ctx context.Context, deviceID, codeHash string, now time.Time) (string, error)
}

// ProjectStore — операции над проектами.
type ProjectStore interface {
	Create(ctx context.Context, p *models.Project) error
	GetProject(ctx context.Context, id string) (*models.Project, error)
	ListByDevices(ctx context.Context, deviceIDs []string) ([]models.Project, error)
	Update(ctx context.Context, p *models.Project) error
	Delete(ctx context.Context, id string) error
}

const (
	DefaultLinkCodeTTL = 10 * time.Minute
	maxBodyBytes       = 64 << 10
	maxNameLen         = 255
)

type Dependencies struct {
	Guard    *guard.Pipeline
	Rules    map[string]guard.Rule
	Devices  DeviceStore
	Projects ProjectStore
	Verifier *ownership.Verifier
	Log      logrus.FieldLogger

	// Now и LinkCodeTTL подменяются в тестах.
	Now         func() time.Time
	LinkCodeTTL time.Duration
}

type Handler struct {
	d Dependencies
}

func rule(rules map[string]guard.Rule, def guard.Rule) guard.Rule {
	if r, ok := rules[def.Name]; ok {
		return r
	}
	return def
}

// Attach регистрирует /api/* и /p/{id} на роутере.
func Attach(r *mux.Router, d Dependencies) {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.LinkCodeTTL <= 0 {
		d.LinkCodeTTL = DefaultLinkCodeTTL
	}
	if d.Log == nil {
		d.Log = logrus.StandardLogger()
	}
	h := &Handler{d: d}
	g := d.Guard

	apiRule := g.RateLimit(rule(d.Rules, guard.RuleAPI))
	writeRule := g.RateLimit(rule(d.Rules, guard.RuleWrite))
	linkRule := g.RateLimit(rule(d.Rules, guard.RuleLink))
	publicRule := g.RateLimit(rule(d.Rules, guard.RulePublic))

	sub := r.PathPrefix("/api").Subrouter()

	sub.Handle("/devices", g.Wrap(g.Handle(h.CreateDevice), writeRule)).Methods(http.MethodPost)
	sub.Handle("/devices/link-code", g.Wrap(g.Handle(h.IssueLinkCode), linkRule, g.DeviceRequired())).Methods(http.MethodPost)
	sub.Handle("/devices/link", g.Wrap(g.Handle(h.LinkDevice), linkRule, g.DeviceRequired())).Methods(http.MethodPost)

	sub.Handle("/projects", g.Wrap(g.Handle(h.ListProjects), apiRule, g.DeviceRequired())).Methods(http.MethodGet)
	sub.Handle("/projects", g.Wrap(g.Handle(h.CreateProject), writeRule, g.DeviceRequired())).Methods(http.MethodPost)
	sub.Handle("/projects/{id}", g.Wrap(g.Handle(h.GetProject), apiRule, g.OwnerOnly("id"))).Methods(http.MethodGet)
	sub.Handle("/projects/{id}", g.Wrap(g.Handle(h.UpdateProject), writeRule, g.OwnerOnly("id"))).Methods(http.MethodPut)
	sub.Handle("/projects/{id}", g.Wrap(g.Handle(h.PatchProject), writeRule, g.OwnerOnly("id"))).Methods(http.MethodPatch)
	sub.Handle("/projects/{id}", g.Wrap(g.Handle(h.DeleteProject), writeRule, g.OwnerOnly("id"))).Methods(http.MethodDelete)
	sub.Handle("/projects/{id}/export", g.Wrap(g.Handle(h.ExportProject), apiRule, g.OwnerOnly("id"))).Methods(http.MethodGet)

	r.Handle("/p/{id}", g.Wrap(g.Handle(h.PublicPage), publicRule)).Methods(http.MethodGet)
}
