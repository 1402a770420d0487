package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"lander/config"
	"lander/internal/admin"
	"lander/internal/admingate"
	"lander/internal/api"
	"lander/internal/db"
	"lander/internal/guard"
	"lander/internal/health"
	"lander/internal/logs"
	"lander/internal/middleware"
	"lander/internal/models"
	"lander/internal/ownership"
	"lander/internal/ratelimit"
	"lander/internal/repo"
)

// deviceStore — всё, что нужно API, админке и проверке владельца.
type deviceStore interface {
	api.DeviceStore
	admin.DeviceLister
	LinkedDeviceIDs(ctx context.Context, deviceID string) ([]string, error)
}

type projectStore interface {
	api.ProjectStore
	admin.ProjectCounter
}

type App struct {
	cfg        *config.Config
	db         *gorm.DB
	redis      *redis.Client
	log        *logrus.Logger
	Router     *mux.Router
	httpServer *http.Server

	ctx    context.Context
	cancel context.CancelFunc
}

func (a *App) Initialize(cfg *config.Config) error {
	a.cfg = cfg
	dev := cfg.DevMode()

	/* 1) Логи */
	if err := logs.Init(logs.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		File:   cfg.Logging.File,
	}); err != nil {
		return fmt.Errorf("logs init: %w", err)
	}
	a.log = logs.Logger

	/* 2) Хранилище: БД или память */
	var (
		devices  deviceStore
		projects projectStore
	)
	if drv := cfg.Database.Driver; drv != "" {
		d, err := db.Open(drv, cfg.Database.DSN)
		if err != nil {
			return fmt.Errorf("db open: %w", err)
		}
		if err := db.Migrate(d); err != nil {
			return fmt.Errorf("db migrate: %w", err)
		}
		a.db = d
		devices, projects = repo.NewDeviceStore(d), repo.NewProjectStore(d)
	} else {
		a.log.Warn("database.driver is empty: using in-memory store, data is lost on restart")
		mem := repo.NewMemStore()
		devices, projects = mem, mem.Projects()
	}

	/* 3) Лимитер */
	mem := ratelimit.NewMemory(ratelimit.WithHighWater(cfg.RateLimit.HighWater))
	var limiter ratelimit.Limiter = mem
	trackedKeys := mem.Len
	if cfg.RateLimit.Backend == "redis" {
		a.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.RateLimit.RedisAddr,
			Password: cfg.RateLimit.RedisPassword,
			DB:       cfg.RateLimit.RedisDB,
		})
		rl := ratelimit.NewRedis(a.redis, mem)
		rl.Log = a.log
		limiter = rl
		trackedKeys = nil
	}

	if !dev && cfg.Admin.Secret == "" {
		a.log.Warn("admin.secret is empty: admin endpoints are closed")
	}

	verifier := ownership.NewVerifier(newStoreAdapter(devices, projects))
	pipeline := guard.New(guard.Config{
		Limiter:  limiter,
		Verifier: verifier,
		Gate:     admingate.Gate{Secret: cfg.Admin.Secret, Dev: dev},
		Dev:      dev,
		Log:      a.log,
	})
	rules := cfg.GuardRules()

	/* 4) Router + middleware */
	a.Router = mux.NewRouter()
	a.Router.Use(baseMiddleware(a.log, dev)...)
	a.Router.NotFoundHandler = notFound(http.StatusNotFound, "NOT_FOUND", "The requested resource was not found.")
	a.Router.MethodNotAllowedHandler = notFound(http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed.")

	/* 5) Health */
	var redisCheck *health.Check
	if a.redis != nil {
		redisCheck = health.RedisCheck(a.redis)
	}
	health.RegisterRoutes(a.Router, health.DBCheck(a.db), redisCheck)

	/* 6) API арендатора и админка */
	api.Attach(a.Router, api.Dependencies{
		Guard:    pipeline,
		Rules:    rules,
		Devices:  devices,
		Projects: projects,
		Verifier: verifier,
		Log:      a.log,
	})
	admin.Attach(a.Router, admin.Dependencies{
		Guard:       pipeline,
		Rule:        rules[guard.RuleAdmin.Name],
		Devices:     devices,
		Projects:    projects,
		TrackedKeys: trackedKeys,
		Metrics:     cfg.Metrics.Enabled,
	})

	_ = a.Router.Walk(func(rt *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		path, err := rt.GetPathTemplate()
		if err != nil {
			return nil
		}
		methods, _ := rt.GetMethods()
		if len(methods) == 0 {
			methods = []string{"ANY"}
		}
		a.log.Debugf("route: %-6v %s", methods, path)
		return nil
	})
	return nil
}

func (a *App) Run() error {
	if a.Router == nil || a.cfg == nil {
		return fmt.Errorf("server not initialized")
	}
	defer a.close()

	bind := net.JoinHostPort(a.cfg.Server.Address, a.cfg.Server.HTTPPort)

	a.ctx, a.cancel = signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer a.cancel()

	a.httpServer = &http.Server{
		Addr:              bind,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       a.cfg.Server.ReadTimeout,
		WriteTimeout:      a.cfg.Server.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		a.log.Infof("HTTP listening on %s", bind)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	select {
	case <-a.ctx.Done():
		a.log.Info("shutdown signal received")
	case err := <-errc:
		return fmt.Errorf("http server: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Shutdown(ctx); err != nil {
		a.log.Errorf("http shutdown: %v", err)
	}
	return nil
}

func (a *App) close() {
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.db != nil {
		if sqlDB, err := a.db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
}

// Migrate только применяет схему и выходит.
func Migrate(cfg *config.Config) error {
	if cfg.Database.Driver == "" {
		return errors.New("database.driver is empty: nothing to migrate")
	}
	d, err := db.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("db open: %w", err)
	}
	if sqlDB, err := d.DB(); err == nil {
		defer sqlDB.Close()
	}
	return db.Migrate(d)
}

// baseMiddleware — общая цепочка для всех маршрутов. Logger снаружи Recoverer,
// чтобы запрос с паникой тоже попал в лог со статусом 500.
func baseMiddleware(log logrus.FieldLogger, dev bool) []mux.MiddlewareFunc {
	return []mux.MiddlewareFunc{
		middleware.RequestID,
		middleware.SecurityHeaders,
		middleware.Logger(log),
		middleware.Recoverer(log, dev),
	}
}

// notFound — 404/405 в том же конверте, что и остальные ответы.
func notFound(status int, code, msg string) http.Handler {
	return middleware.SecurityHeaders(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		models.WriteError(w, status, code, msg)
	}))
}
