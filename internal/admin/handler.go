// AngelaMos | 2026
// handler.go

package admin

import (
	"context"
	"database/sql"
	"net/http"
	"runtime"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/carterperez-dev/coursehub/internal/core"
	"github.com/carterperez-dev/coursehub/internal/order"
	"github.com/carterperez-dev/coursehub/internal/sweep"
)

// SweepRunner triggers and reports the expiry sweep. *sweep.Scheduler
// satisfies it.
type SweepRunner interface {
	RunOnce(ctx context.Context) (order.SweepResult, bool, error)
	Status() sweep.Status
}

type Handler struct {
	dbStats    func() sql.DBStats
	redisStats func() *redis.PoolStats
	sweeper    SweepRunner
}

type HandlerConfig struct {
	DBStats    func() sql.DBStats
	RedisStats func() *redis.PoolStats
	Sweeper    SweepRunner
}

func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{
		dbStats:    cfg.DBStats,
		redisStats: cfg.RedisStats,
		sweeper:    cfg.Sweeper,
	}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator, adminOnly func(http.Handler) http.Handler,
) {
	r.Route("/admin", func(r chi.Router) {
		r.Use(authenticator)
		r.Use(adminOnly)

		r.Get("/stats", h.GetSystemStats)
		r.Get("/sweep", h.GetSweepStatus)
		r.Post("/sweep", h.RunSweep)
	})
}

func (h *Handler) GetSystemStats(w http.ResponseWriter, r *http.Request) {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	resp := SystemStatsResponse{
		Database: h.getDBStats(),
		Redis:    h.getRedisStats(),
		Runtime: RuntimeStats{
			GoVersion:    runtime.Version(),
			NumGoroutine: runtime.NumGoroutine(),
			MemAlloc:     mem.Alloc,
			NumGC:        mem.NumGC,
		},
	}

	if h.sweeper != nil {
		st := h.sweeper.Status()
		resp.Sweep = &st
	}

	core.OK(w, resp)
}

func (h *Handler) GetSweepStatus(w http.ResponseWriter, r *http.Request) {
	if h.sweeper == nil {
		core.JSONError(w, core.ServiceUnavailableError("sweep is not configured"))
		return
	}

	core.OK(w, h.sweeper.Status())
}

// RunSweep runs the expiry sweep now. It reports ran=false when another
// replica holds the sweep lock.
func (h *Handler) RunSweep(w http.ResponseWriter, r *http.Request) {
	if h.sweeper == nil {
		core.JSONError(w, core.ServiceUnavailableError("sweep is not configured"))
		return
	}

	res, ran, err := h.sweeper.RunOnce(r.Context())
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, SweepRunResponse{
		Ran:                ran,
		OrdersExpired:      res.OrdersExpired,
		EnrollmentsExpired: res.EnrollmentsExpired,
	})
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
	}
}

type SystemStatsResponse struct {
	Database *DBPoolStats    `json:"database,omitempty"`
	Redis    *RedisPoolStats `json:"redis,omitempty"`
	Runtime  RuntimeStats    `json:"runtime"`
	Sweep    *sweep.Status   `json:"sweep,omitempty"`
}

type SweepRunResponse struct {
	Ran                bool  `json:"ran"`
	OrdersExpired      int64 `json:"orders_expired"`
	EnrollmentsExpired int64 `json:"enrollments_expired"`
}

type DBPoolStats struct {
	MaxOpenConnections int    `json:"max_open_connections"`
	OpenConnections    int    `json:"open_connections"`
	InUse              int    `json:"in_use"`
	Idle               int    `json:"idle"`
	WaitCount          int64  `json:"wait_count"`
	WaitDuration       string `json:"wait_duration"`
}

type RedisPoolStats struct {
	Hits       uint32 `json:"hits"`
	Misses     uint32 `json:"misses"`
	Timeouts   uint32 `json:"timeouts"`
	TotalConns uint32 `json:"total_conns"`
	IdleConns  uint32 `json:"idle_conns"`
}

type RuntimeStats struct {
	GoVersion    string `json:"go_version"`
	NumGoroutine int    `json:"num_goroutine"`
	MemAlloc     uint64 `json:"mem_alloc_bytes"`
	NumGC        uint32 `json:"num_gc"`
}
