package admin

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lander/internal/admingate"
	"lander/internal/guard"
	"lander/internal/models"
	"lander/internal/ratelimit"
	"lander/internal/repo"
)

const secret = "ops-secret"

func newRouter(t *testing.T, rule guard.Rule) (*mux.Router, *repo.MemStore) {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)

	store := repo.NewMemStore()
	lim := ratelimit.NewMemory()
	g := guard.New(guard.Config{
		Limiter: lim,
		Gate:    admingate.Gate{Secret: secret},
		Log:     log,
	})
	r := mux.NewRouter()
	Attach(r, Dependencies{
		Guard:       g,
		Rule:        rule,
		Devices:     store,
		Projects:    store.Projects(),
		TrackedKeys: lim.Len,
		Metrics:     true,
	})
	return r, store
}

func get(r http.Handler, path, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestAdminRequiresSecret(t *testing.T) {
	r, _ := newRouter(t, guard.Rule{Name: "admin", Max: 100, Window: time.Minute})

	for _, path := range []string{"/admin/api/stats", "/admin/api/devices", "/admin/metrics"} {
		rec := get(r, path, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
		rec = get(r, path, "Bearer wrong")
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}
}

func TestStatsAndDevices(t *testing.T) {
	r, store := newRouter(t, guard.Rule{Name: "admin", Max: 100, Window: time.Minute})
	ctx := context.Background()

	hub, err := store.Create(ctx)
	require.NoError(t, err)
	_, err = store.Create(ctx)
	require.NoError(t, err)
	require.NoError(t, store.SetLinkCode(ctx, hub.ID, "h", time.Now().Add(time.Minute)))
	require.NoError(t, store.Projects().Create(ctx, &models.Project{DeviceID: hub.ID, Name: "p"}))

	rec := get(r, "/admin/api/stats", "Bearer "+secret)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var stats struct {
		Data StatsResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.EqualValues(t, 2, stats.Data.Devices)
	assert.EqualValues(t, 1, stats.Data.Projects)
	require.NotNil(t, stats.Data.RateLimitKeys)
	assert.Equal(t, 1, *stats.Data.RateLimitKeys)

	rec = get(r, "/admin/api/devices?limit=1", secret)
	require.Equal(t, http.StatusOK, rec.Code)
	var devices struct {
		Data []DeviceRow `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &devices))
	assert.Len(t, devices.Data, 1)
	assert.NotContains(t, rec.Body.String(), "link_code_hash")

	rec = get(r, "/admin/metrics", "Bearer "+secret)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "lander_ratelimit_checks_total")
}

func TestAdminRateLimited(t *testing.T) {
	r, _ := newRouter(t, guard.Rule{Name: "admin", Max: 2, Window: time.Minute})
	for i := 0; i < 2; i++ {
		assert.Equal(t, http.StatusOK, get(r, "/admin/api/stats", secret).Code)
	}
	rec := get(r, "/admin/api/stats", secret)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}
