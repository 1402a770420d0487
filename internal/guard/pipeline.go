// Package guard собирает защиту эндпоинта:
// лимит запросов → (админ-доступ или проверка владельца) → обработчик →
// очистка ошибки на выходе.
package guard

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"lander/internal/admingate"
	"lander/internal/errsan"
	"lander/internal/metrics"
	"lander/internal/models"
	"lander/internal/ownership"
	"lander/internal/ratelimit"
)

// DeviceHeader — заголовок, в котором клиент передаёт идентификатор устройства.
const DeviceHeader = "X-Device-Id"

type ctxKey string

const deviceIDKey ctxKey = "device_id"

// DeviceID — устройство, установленное DeviceRequired/OwnerOnly.
func DeviceID(ctx context.Context) string {
	v, _ := ctx.Value(deviceIDKey).(string)
	return v
}

func withDevice(r *http.Request, id string) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), deviceIDKey, id))
}

// HandlerFunc — обработчик, который возвращает ошибку вместо записи ответа.
type HandlerFunc func(w http.ResponseWriter, r *http.Request) error

type Config struct {
	Limiter  ratelimit.Limiter
	Verifier *ownership.Verifier
	Gate     admingate.Gate
	Dev      bool
	Log      logrus.FieldLogger
}

type Pipeline struct {
	limiter  ratelimit.Limiter
	verifier *ownership.Verifier
	gate     admingate.Gate
	dev      bool
	log      logrus.FieldLogger
}

func New(cfg Config) *Pipeline {
	if cfg.Limiter == nil {
		cfg.Limiter = ratelimit.NewMemory()
	}
	if cfg.Log == nil {
		l := logrus.New()
		l.AddHook(errsan.NewHook(nil))
		cfg.Log = l
	}
	return &Pipeline{
		limiter:  cfg.Limiter,
		verifier: cfg.Verifier,
		gate:     cfg.Gate,
		dev:      cfg.Dev,
		log:      cfg.Log,
	}
}

// Wrap навешивает middleware на h; первый в списке — внешний.
func (p *Pipeline) Wrap(h http.Handler, mws ...mux.MiddlewareFunc) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

// Handle превращает HandlerFunc в http.Handler с очисткой ошибок.
func (p *Pipeline) Handle(fn HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := fn(w, r); err != nil {
			p.WriteError(w, r, err)
		}
	})
}

// WriteError — единственная точка, через которую ошибка уходит клиенту.
func (p *Pipeline) WriteError(w http.ResponseWriter, r *http.Request, err error) {
	var ge *Error
	if errors.As(err, &ge) {
		if ge.Err != nil {
			p.log.WithError(ge.Err).WithField("code", ge.Code).Info("request rejected")
		}
		models.WriteError(w, ge.Status, ge.Code, ge.Message)
		return
	}

	resp := errsan.ToResponse(err, http.StatusInternalServerError, p.dev)
	metrics.ErrorsTotal.WithLabelValues(string(errsan.Classify(err))).Inc()
	p.log.WithError(err).WithFields(logrus.Fields{
		"method": r.Method,
		"path":   r.URL.Path,
	}).Error("request failed")
	models.WriteJSON(w, resp.Status, resp.Body)
}

func (p *Pipeline) reject(w http.ResponseWriter, r *http.Request, e *Error) {
	metrics.GuardRejectionsTotal.WithLabelValues(strings.ToLower(e.Code)).Inc()
	p.WriteError(w, r, e)
}

// routeKey — правило плюс шаблон маршрута mux, если запрос прошёл через роутер.
func routeKey(r *http.Request, rule Rule) string {
	if cur := mux.CurrentRoute(r); cur != nil {
		if tpl, err := cur.GetPathTemplate(); err == nil {
			return rule.Name + ":" + r.Method + " " + tpl
		}
	}
	return rule.Name
}

// RateLimit — лимит по ключу "ip:rule:METHOD /route/{template}".
func (p *Pipeline) RateLimit(rule Rule) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			client := ratelimit.ClientIP(r)
			res := p.limiter.Check(r.Context(), ratelimit.Key(client, routeKey(r, rule)), rule.Max, rule.Window)

			h := w.Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(rule.Max))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))

			if !res.Allowed {
				metrics.RateLimitChecksTotal.WithLabelValues(rule.Name, "throttled").Inc()
				p.log.WithFields(logrus.Fields{
					"rule":   rule.Name,
					"client": client,
					"path":   r.URL.Path,
				}).Warn("rate limit exceeded")
				h.Set("Retry-After", strconv.Itoa(res.RetryAfterSeconds()))
				p.reject(w, r, ErrRateLimited)
				return
			}
			metrics.RateLimitChecksTotal.WithLabelValues(rule.Name, "allowed").Inc()
			next.ServeHTTP(w, r)
		})
	}
}

// AdminOnly пропускает только запросы с верным админ-секретом.
func (p *Pipeline) AdminOnly() mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !p.gate.Allow(r) {
				p.reject(w, r, ErrUnauthenticated)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// DeviceRequired требует X-Device-Id и кладёт его в контекст.
func (p *Pipeline) DeviceRequired() mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := strings.TrimSpace(r.Header.Get(DeviceHeader))
			if id == "" {
				p.reject(w, r, ErrDeviceRequired)
				return
			}
			next.ServeHTTP(w, withDevice(r, id))
		})
	}
}

// OwnerOnly проверяет, что устройство владеет проектом из переменной маршрута param.
// Нет устройства — 401, чужой или несуществующий проект — 403.
func (p *Pipeline) OwnerOnly(param string) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := strings.TrimSpace(r.Header.Get(DeviceHeader))
			if id == "" {
				p.reject(w, r, ErrDeviceRequired)
				return
			}
			ok, err := p.verifier.Verify(r.Context(), mux.Vars(r)[param], id)
			if err != nil {
				p.WriteError(w, r, err)
				return
			}
			if !ok {
				p.reject(w, r, ErrForbidden)
				return
			}
			next.ServeHTTP(w, withDevice(r, id))
		})
	}
}
