package guard

import (
	"context"
	"encoding/json"
	"errors"
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
	"lander/internal/models"
	"lander/internal/ownership"
	"lander/internal/ratelimit"
)

type fakeStore struct {
	projects map[string]*models.Project
	devices  map[string]*models.Device
	err      error
}

func (f *fakeStore) GetProject(ctx context.Context, id string) (*models.Project, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.projects[id], nil
}

func (f *fakeStore) GetDevice(ctx context.Context, id string) (*models.Device, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.devices[id], nil
}

func (f *fakeStore) LinkedDeviceIDs(ctx context.Context, id string) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []string
	for _, d := range f.devices {
		if d.LinkedTo != nil && *d.LinkedTo == id {
			out = append(out, d.ID)
		}
	}
	return out, nil
}

func quietLog() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newPipeline(store *fakeStore, dev bool) *Pipeline {
	return New(Config{
		Limiter:  ratelimit.NewMemory(),
		Verifier: ownership.NewVerifier(store),
		Gate:     admingate.Gate{Secret: "admin-key", Dev: dev},
		Dev:      dev,
		Log:      quietLog(),
	})
}

type body struct {
	Success bool `json:"success"`
	Error   struct {
		Message  string `json:"message"`
		Code     string `json:"code"`
		Stack    string `json:"stack"`
		Category string `json:"category"`
	} `json:"error"`
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) body {
	t.Helper()
	var b body
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &b), rec.Body.String())
	return b
}

func okHandler(called *bool) HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		*called = true
		models.WriteData(w, http.StatusOK, map[string]string{"device": DeviceID(r.Context())})
		return nil
	}
}

func TestRateLimitRejectsAfterMax(t *testing.T) {
	p := newPipeline(&fakeStore{}, false)
	called := false
	h := p.Wrap(p.Handle(okHandler(&called)), p.RateLimit(Rule{Name: "t", Max: 5, Window: time.Minute}))

	for i := 0; i < 5; i++ {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("CF-Connecting-IP", "192.0.2.1")
		h.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "5", rec.Header().Get("X-RateLimit-Limit"))
	}

	called = false
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("CF-Connecting-IP", "192.0.2.1")
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.False(t, called, "handler must not run after rejection")
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
	b := decodeBody(t, rec)
	assert.False(t, b.Success)
	assert.Equal(t, "RATE_LIMITED", b.Error.Code)

	// другой клиент не затронут
	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("CF-Connecting-IP", "192.0.2.2")
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAdminOnly(t *testing.T) {
	for _, dev := range []bool{false, true} {
		p := newPipeline(&fakeStore{}, dev)
		called := false
		h := p.Wrap(p.Handle(okHandler(&called)), p.AdminOnly())

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "UNAUTHORIZED", decodeBody(t, rec).Error.Code)
		assert.False(t, called)

		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		req.Header.Set("Authorization", "Bearer admin-key")
		rec = httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, called)
	}
}

func TestDeviceRequired(t *testing.T) {
	p := newPipeline(&fakeStore{}, false)
	called := false
	h := p.Wrap(p.Handle(okHandler(&called)), p.DeviceRequired())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "DEVICE_REQUIRED", decodeBody(t, rec).Error.Code)
	assert.False(t, called)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(DeviceHeader, " dev-1 ")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"device":"dev-1"`)
}

func ptr(s string) *string { return &s }

func ownerRouter(p *Pipeline, called *bool) *mux.Router {
	r := mux.NewRouter()
	r.Handle("/projects/{id}", p.Wrap(p.Handle(okHandler(called)), p.OwnerOnly("id")))
	return r
}

func TestOwnerOnly(t *testing.T) {
	store := &fakeStore{
		projects: map[string]*models.Project{
			"pa": {ID: "pa", DeviceID: "A"},
		},
		devices: map[string]*models.Device{
			"A": {ID: "A"},
			"B": {ID: "B", LinkedTo: ptr("A")},
			"C": {ID: "C", LinkedTo: ptr("B")},
			"X": {ID: "X"},
		},
	}
	p := newPipeline(store, false)

	cases := []struct {
		device string
		path   string
		status int
		code   string
	}{
		{"A", "/projects/pa", http.StatusOK, ""},
		{"B", "/projects/pa", http.StatusOK, ""},
		{"C", "/projects/pa", http.StatusForbidden, "FORBIDDEN"},
		{"X", "/projects/pa", http.StatusForbidden, "FORBIDDEN"},
		{"A", "/projects/missing", http.StatusForbidden, "FORBIDDEN"},
		{"", "/projects/pa", http.StatusUnauthorized, "DEVICE_REQUIRED"},
	}
	for _, tc := range cases {
		called := false
		req := httptest.NewRequest(http.MethodGet, tc.path, nil)
		if tc.device != "" {
			req.Header.Set(DeviceHeader, tc.device)
		}
		rec := httptest.NewRecorder()
		ownerRouter(p, &called).ServeHTTP(rec, req)

		assert.Equal(t, tc.status, rec.Code, "%s %s", tc.device, tc.path)
		assert.Equal(t, tc.status == http.StatusOK, called)
		if tc.code != "" {
			assert.Equal(t, tc.code, decodeBody(t, rec).Error.Code)
		}
	}
}

func TestOwnerOnlyStoreErrorIsSanitized500(t *testing.T) {
	store := &fakeStore{err: errors.New("dial tcp 10.1.2.3:5432: connection refused; password=hunter2")}
	p := newPipeline(store, false)
	called := false

	req := httptest.NewRequest(http.MethodGet, "/projects/pa", nil)
	req.Header.Set(DeviceHeader, "A")
	rec := httptest.NewRecorder()
	ownerRouter(p, &called).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.False(t, called)
	assert.NotContains(t, rec.Body.String(), "10.1.2.3")
	assert.NotContains(t, rec.Body.String(), "hunter2")
	b := decodeBody(t, rec)
	assert.Empty(t, b.Error.Stack)
	assert.NotEmpty(t, b.Error.Code)
}

func TestHandleTypedAndUntypedErrors(t *testing.T) {
	p := newPipeline(&fakeStore{}, false)

	rec := httptest.NewRecorder()
	p.Handle(func(w http.ResponseWriter, r *http.Request) error {
		return BadRequest("Name is required.", errors.New("empty name"))
	}).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	b := decodeBody(t, rec)
	assert.Equal(t, "VALIDATION_ERROR", b.Error.Code)
	assert.Equal(t, "Name is required.", b.Error.Message)

	rec = httptest.NewRecorder()
	p.Handle(func(w http.ResponseWriter, r *http.Request) error {
		return errors.New("open /var/lib/lander/data.db: permission denied")
	}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "/var/lib")
}

func TestHandleDevModeShowsSanitizedDetail(t *testing.T) {
	p := newPipeline(&fakeStore{}, true)

	rec := httptest.NewRecorder()
	p.Handle(func(w http.ResponseWriter, r *http.Request) error {
		return errors.New("sql: no rows for owner@example.com")
	}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	b := decodeBody(t, rec)
	assert.Equal(t, "database", b.Error.Category)
	assert.Contains(t, b.Error.Message, "[REDACTED]")
	assert.NotContains(t, b.Error.Message, "owner@example.com")
}

func TestWrapOrder(t *testing.T) {
	var order []string
	mw := func(name string) mux.MiddlewareFunc {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}
	p := newPipeline(&fakeStore{}, false)
	h := p.Wrap(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		order = append(order, "handler")
	}), mw("first"), mw("second"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, []string{"first", "second", "handler"}, order)
}

func TestErrorIsMatchesByCode(t *testing.T) {
	copyErr := &Error{Status: http.StatusForbidden, Code: "FORBIDDEN", Message: "x", Err: errors.New("inner")}
	assert.ErrorIs(t, copyErr, ErrForbidden)
	assert.NotErrorIs(t, copyErr, ErrRateLimited)
	assert.Contains(t, copyErr.Error(), "inner")
}

func TestRateLimitBudgetPerRoute(t *testing.T) {
	p := newPipeline(&fakeStore{}, false)
	rule := Rule{Name: "link", Max: 2, Window: time.Minute}
	called := false

	r := mux.NewRouter()
	r.Handle("/devices/link-code", p.Wrap(p.Handle(okHandler(&called)), p.RateLimit(rule))).Methods(http.MethodPost)
	r.Handle("/devices/link", p.Wrap(p.Handle(okHandler(&called)), p.RateLimit(rule))).Methods(http.MethodPost)

	post := func(path string) int {
		req := httptest.NewRequest(http.MethodPost, path, nil)
		req.Header.Set("X-Real-IP", "198.51.100.4")
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, post("/devices/link-code"))
	assert.Equal(t, http.StatusOK, post("/devices/link-code"))
	assert.Equal(t, http.StatusTooManyRequests, post("/devices/link-code"))

	// исчерпанный link-code не съедает бюджет link
	assert.Equal(t, http.StatusOK, post("/devices/link"))
	assert.Equal(t, http.StatusOK, post("/devices/link"))
	assert.Equal(t, http.StatusTooManyRequests, post("/devices/link"))
}

func TestRouteKeyIncludesTemplate(t *testing.T) {
	var got string
	r := mux.NewRouter()
	r.HandleFunc("/projects/{id}", func(w http.ResponseWriter, req *http.Request) {
		got = routeKey(req, RuleAPI)
	}).Methods(http.MethodGet)
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/projects/abc", nil))
	assert.Equal(t, "api:GET /projects/{id}", got)

	assert.Equal(t, "api", routeKey(httptest.NewRequest(http.MethodGet, "/", nil), RuleAPI))
}
