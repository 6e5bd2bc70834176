package handler

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"skinsignal-api/internal/middleware"
	"skinsignal-api/internal/service"
	"skinsignal-api/pkg/response"

	"go.uber.org/zap"
)

// StoreAdmin is the store surface exposed to operators.
type StoreAdmin interface {
	Migrate(ctx context.Context) error
	Stats(ctx context.Context) (map[string]interface{}, error)
}

// DailyRunner runs one snapshot sweep over every known user.
type DailyRunner interface {
	RunNow(ctx context.Context) ([]service.DailyResult, error)
}

// TaskStats reports background task outcomes.
type TaskStats interface {
	Stats() service.RunnerStats
}

// TaskLauncher runs operator-triggered jobs in the background.
type TaskLauncher interface {
	TaskStats
	Go(name string, fn service.TaskFunc, fields ...zap.Field)
}

// ListingCacheAdmin inspects and evicts cached market listings.
type ListingCacheAdmin interface {
	Cached(ctx context.Context, name string) (bool, error)
	Invalidate(ctx context.Context, name string) error
	Purge(ctx context.Context) error
	Entries() (int, bool)
}

// AdminHandler handles admin-related HTTP requests.
type AdminHandler struct {
	store     StoreAdmin
	daily     DailyRunner
	sweeps    TaskLauncher
	tasks     TaskStats
	listings  ListingCacheAdmin
	log       *zap.Logger
	startTime time.Time
}

// NewAdminHandler creates a new admin handler. tasks reports the alert runner,
// sweeps runs daily sweeps triggered over HTTP.
func NewAdminHandler(store StoreAdmin, daily DailyRunner, sweeps TaskLauncher, tasks TaskStats, listings ListingCacheAdmin, log *zap.Logger) *AdminHandler {
	return &AdminHandler{
		store:     store,
		daily:     daily,
		sweeps:    sweeps,
		tasks:     tasks,
		listings:  listings,
		log:       log.Named("admin"),
		startTime: time.Now(),
	}
}

// GetStats handles GET /api/v1/admin/stats
func (h *AdminHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats := make(map[string]interface{})

	stats["uptime_seconds"] = int64(time.Since(h.startTime).Seconds())
	stats["uptime_human"] = time.Since(h.startTime).Round(time.Second).String()
	stats["server_time"] = time.Now().Format(time.RFC3339)

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)
	stats["memory"] = map[string]interface{}{
		"alloc_mb":      float64(memStats.Alloc) / 1024 / 1024,
		"sys_mb":        float64(memStats.Sys) / 1024 / 1024,
		"heap_inuse_mb": float64(memStats.HeapInuse) / 1024 / 1024,
		"num_gc":        memStats.NumGC,
		"goroutines":    runtime.NumGoroutine(),
	}

	dbStats, err := h.store.Stats(r.Context())
	if err == nil {
		dbStats["status"] = "connected"
		stats["database"] = dbStats
	} else {
		h.log.Warn("store stats failed", zap.Error(err))
		stats["database"] = map[string]interface{}{"status": "error"}
	}

	if h.tasks != nil {
		stats["detached_tasks"] = h.tasks.Stats()
	}
	if h.sweeps != nil {
		stats["daily_sweeps"] = h.sweeps.Stats()
	}
	if h.listings != nil {
		cacheStats := map[string]interface{}{}
		if n, ok := h.listings.Entries(); ok {
			cacheStats["entries"] = n
		}
		stats["listing_cache"] = cacheStats
	}

	stats["runtime"] = map[string]interface{}{
		"go_version": runtime.Version(),
		"os":         runtime.GOOS,
		"arch":       runtime.GOARCH,
		"cpus":       runtime.NumCPU(),
	}

	response.OK(w, stats)
}

// Migrate handles POST /api/v1/admin/migrate
func (h *AdminHandler) Migrate(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Migrate(r.Context()); err != nil {
		h.log.Error("migration failed", zap.Error(err))
		response.Error(w, err)
		return
	}
	response.OK(w, map[string]bool{"migrated": true})
}

// RunDaily handles POST /api/v1/admin/cron/daily
// A sweep can outlast any write timeout, so it is started in the background and
// per-user outcomes go to the log.
func (h *AdminHandler) RunDaily(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	h.sweeps.Go("daily_sweep", func(ctx context.Context) error {
		_, err := h.daily.RunNow(ctx)
		return err
	}, zap.String("request_id", requestID))

	h.log.Info("daily sweep accepted", zap.String("request_id", requestID))
	response.JSON(w, http.StatusAccepted, map[string]interface{}{"accepted": true})
}

// ListingCached handles GET /api/v1/admin/cache/listings/{name}
func (h *AdminHandler) ListingCached(w http.ResponseWriter, r *http.Request) {
	name := pathParam(r, "name")
	cached, err := h.listings.Cached(r.Context(), name)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, map[string]interface{}{"name": name, "cached": cached})
}

// InvalidateListing handles DELETE /api/v1/admin/cache/listings/{name}
func (h *AdminHandler) InvalidateListing(w http.ResponseWriter, r *http.Request) {
	name := pathParam(r, "name")
	if err := h.listings.Invalidate(r.Context(), name); err != nil {
		response.Error(w, err)
		return
	}
	h.log.Info("listing cache entry evicted", zap.String("item", name))
	response.NoContent(w)
}

// PurgeListings handles DELETE /api/v1/admin/cache/listings
func (h *AdminHandler) PurgeListings(w http.ResponseWriter, r *http.Request) {
	if err := h.listings.Purge(r.Context()); err != nil {
		h.log.Error("listing cache purge failed", zap.Error(err))
		response.Error(w, err)
		return
	}
	h.log.Info("listing cache purged")
	response.NoContent(w)
}
