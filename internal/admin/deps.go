// Package admin — операторский JSON API за AdminOnly.
package admin

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"lander/internal/guard"
	"lander/internal/models"
)

type DeviceLister interface {
	Count(ctx context.Context) (int64, error)
	List(ctx context.Context, limit int) ([]models.Device, error)
}

type ProjectCounter interface {
	Count(ctx context.Context) (int64, error)
}

type Dependencies struct {
	Guard    *guard.Pipeline
	Rule     guard.Rule
	Devices  DeviceLister
	Projects ProjectCounter

	// TrackedKeys — число ключей in-memory лимитера; nil для Redis.
	TrackedKeys func() int
	Metrics     bool
	Started     time.Time
}

// Attach регистрирует /admin/*; каждый маршрут за лимитом admin и AdminOnly.
func Attach(r *mux.Router, d Dependencies) {
	if d.Rule.Name == "" {
		d.Rule = guard.RuleAdmin
	}
	if d.Started.IsZero() {
		d.Started = time.Now()
	}
	h := &Handler{d: d}
	g := d.Guard
	gated := func(next http.Handler) http.Handler {
		return g.Wrap(next, g.RateLimit(d.Rule), g.AdminOnly())
	}

	sub := r.PathPrefix("/admin").Subrouter()
	sub.Handle("/api/stats", gated(g.Handle(h.Stats))).Methods(http.MethodGet)
	sub.Handle("/api/devices", gated(g.Handle(h.Devices))).Methods(http.MethodGet)
	if d.Metrics {
		sub.Handle("/metrics", gated(promhttp.Handler())).Methods(http.MethodGet)
	}
}
