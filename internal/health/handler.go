// AngelaMos | 2026
// handler.go

package health

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/carterperez-dev/freelancer-packages/internal/core"
)

const checkTimeout = 5 * time.Second

// RequiredTables must exist before the application can serve accounts and
// packages.
var RequiredTables = []string{"freelancers", "packages"}

type Checker interface {
	Ping(ctx context.Context) error
}

type TableChecker interface {
	HasTable(ctx context.Context, name string) (bool, error)
}

type Config struct {
	Environment string
	DB          Checker
	Redis       Checker
	Tables      TableChecker
	DBStats     func() sql.DBStats
	RedisStats  func() *redis.PoolStats
}

type Handler struct {
	environment string
	db          Checker
	redis       Checker
	tables      TableChecker
	dbStats     func() sql.DBStats
	redisStats  func() *redis.PoolStats
	ready       atomic.Bool
	shutdown    atomic.Bool
}

func NewHandler(cfg Config) *Handler {
	h := &Handler{
		environment: cfg.Environment,
		db:          cfg.DB,
		redis:       cfg.Redis,
		tables:      cfg.Tables,
		dbStats:     cfg.DBStats,
		redisStats:  cfg.RedisStats,
	}
	h.ready.Store(true)
	return h
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/healthz", h.Liveness)
	r.Get("/livez", h.Liveness)
	r.Get("/readyz", h.Readiness)
	r.Get("/status", h.Status)
}

func (h *Handler) Liveness(w http.ResponseWriter, r *http.Request) {
	if h.shutdown.Load() {
		h.writeStatus(w, http.StatusServiceUnavailable, StatusResponse{
			Status: "shutting_down",
		})
		return
	}

	h.writeStatus(w, http.StatusOK, StatusResponse{
		Status: "ok",
	})
}

func (h *Handler) Readiness(w http.ResponseWriter, r *http.Request) {
	if h.shutdown.Load() {
		h.writeStatus(w, http.StatusServiceUnavailable, StatusResponse{
			Status: "shutting_down",
		})
		return
	}

	if !h.ready.Load() {
		h.writeStatus(w, http.StatusServiceUnavailable, StatusResponse{
			Status: "not_ready",
		})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
	defer cancel()

	checks := h.runHealthChecks(ctx)

	status := "ok"
	statusCode := http.StatusOK
	if !allHealthy(checks) {
		status = "degraded"
		statusCode = http.StatusServiceUnavailable
	}

	h.writeStatus(w, statusCode, ReadinessResponse{
		Status: status,
		Checks: checks,
	})
}

// Status reports the environment, whether the schema has been created, and
// connection pool usage. It always answers 200.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
	defer cancel()

	tables := make(map[string]bool, len(RequiredTables))
	created := true
	for _, name := range RequiredTables {
		exists := false
		if h.tables != nil {
			ok, err := h.tables.HasTable(ctx, name)
			if err != nil {
				slog.WarnContext(ctx, "table check failed", "table", name, "error", err)
			}
			exists = err == nil && ok
		}
		tables[name] = exists
		created = created && exists
	}

	core.OK(w, SchemaStatus{
		Environment:     h.environment,
		DatabaseCreated: created,
		Tables:          tables,
		DatabasePool:    h.getDBStats(),
		RedisPool:       h.getRedisStats(),
	})
}

func (h *Handler) runHealthChecks(ctx context.Context) []HealthCheck {
	var wg sync.WaitGroup
	checks := make([]HealthCheck, 2)

	wg.Add(2)

	go func() {
		defer wg.Done()
		checks[0] = ping(ctx, "database", h.db)
	}()

	go func() {
		defer wg.Done()
		checks[1] = ping(ctx, "redis", h.redis)
	}()

	wg.Wait()
	return checks
}

func ping(ctx context.Context, name string, c Checker) HealthCheck {
	check := HealthCheck{
		Name:    name,
		Healthy: true,
	}

	if c == nil {
		check.Healthy = false
		check.Message = name + " checker not configured"
		return check
	}

	start := time.Now()
	err := c.Ping(ctx)
	check.Latency = time.Since(start).String()

	if err != nil {
		check.Healthy = false
		check.Message = "ping failed"
	}

	return check
}

func allHealthy(checks []HealthCheck) bool {
	for _, check := range checks {
		if !check.Healthy {
			return false
		}
	}
	return true
}

func (h *Handler) getDBStats() *DBPoolStats {
	if h.dbStats == nil {
		return nil
	}

	stats := h.dbStats()
	return &DBPoolStats{
		MaxOpenConnections: stats.MaxOpenConnections,
		OpenConnections:    stats.OpenConnections,
		InUse:              stats.InUse,
		Idle:               stats.Idle,
		WaitCount:          stats.WaitCount,
		WaitDuration:       stats.WaitDuration.String(),
	}
}

func (h *Handler) getRedisStats() *RedisPoolStats {
	if h.redisStats == nil {
		return nil
	}

	stats := h.redisStats()
	return &RedisPoolStats{
		Hits:       stats.Hits,
		Misses:     stats.Misses,
		Timeouts:   stats.Timeouts,
		TotalConns: stats.TotalConns,
		IdleConns:  stats.IdleConns,
		StaleConns: stats.StaleConns,
	}
}

func (h *Handler) SetReady(ready bool) {
	h.ready.Store(ready)
}

func (h *Handler) SetShutdown(shutdown bool) {
	h.shutdown.Store(shutdown)
}

func (h *Handler) writeStatus(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	core.JSON(w, status, data)
}
