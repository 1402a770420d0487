package health

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"lander/internal/models"
)

// Check — одна зависимость для readiness. Nil-проверки пропускаются.
type Check struct {
	Name string
	Ping func(ctx context.Context) error
}

const checkTimeout = 2 * time.Second

// DBCheck пингует пул gorm; nil db — режим без БД, проверка не нужна.
func DBCheck(db *gorm.DB) *Check {
	if db == nil {
		return nil
	}
	return &Check{Name: "database", Ping: func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	}}
}

// RedisCheck пингует Redis лимитера.
func RedisCheck(c redis.Cmdable) *Check {
	if c == nil {
		return nil
	}
	return &Check{Name: "redis", Ping: func(ctx context.Context) error {
		return c.Ping(ctx).Err()
	}}
}

// RegisterRoutes — liveness и readiness по списку проверок.
func RegisterRoutes(r *mux.Router, checks ...*Check) {
	var active []Check
	for _, c := range checks {
		if c != nil {
			active = append(active, *c)
		}
	}
	r.HandleFunc("/healthz", liveness).Methods(http.MethodGet)
	r.HandleFunc("/readyz", readiness(active)).Methods(http.MethodGet)
}

func readiness(checks []Check) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
		defer cancel()

		status := make(map[string]string, len(checks))
		var failed error
		for _, c := range checks {
			if err := c.Ping(ctx); err != nil {
				// наружу только имя зависимости, без текста ошибки
				status[c.Name] = "unavailable"
				failed = errors.Join(failed, err)
				continue
			}
			status[c.Name] = "ok"
		}
		if failed != nil {
			models.WriteJSON(w, http.StatusServiceUnavailable, models.Envelope{
				Data:  status,
				Error: &models.ErrorBody{Message: "Service is not ready.", Code: "NOT_READY"},
			})
			return
		}
		models.WriteData(w, http.StatusOK, status)
	}
}

func liveness(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok\n"))
}
