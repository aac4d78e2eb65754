package handlers

import (
	"context"
	"time"

	"hydrofund/internal/repositories"
	"hydrofund/internal/repositories/cache"

	"github.com/gofiber/fiber/v2"
)

const healthTimeout = 2 * time.Second

type HealthHandler struct {
	store repositories.Store
	cache *cache.CacheService
}

// NewHealthHandler reports on store and cache. cache may be nil when the
// server runs without redis.
func NewHealthHandler(store repositories.Store, cacheSvc *cache.CacheService) *HealthHandler {
	return &HealthHandler{store: store, cache: cacheSvc}
}

func (h *HealthHandler) HealthCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), healthTimeout)
	defer cancel()

	status := fiber.StatusOK
	services := fiber.Map{"database": "connected", "redis": "disabled"}
	if err := h.store.Ping(ctx); err != nil {
		services["database"] = err.Error()
		status = fiber.StatusServiceUnavailable
	}
	if h.cache != nil {
		if err := h.cache.HealthCheck(ctx); err != nil {
			// the cache is optional; report but stay healthy
			services["redis"] = err.Error()
		} else {
			services["redis"] = "connected"
		}
	}

	state := "ok"
	if status != fiber.StatusOK {
		state = "degraded"
	}
	return c.Status(status).JSON(fiber.Map{
		"status":   state,
		"version":  "1.0.0",
		"services": services,
	})
}

func (h *HealthHandler) CacheStats(c *fiber.Ctx) error {
	if h.cache == nil {
		return c.JSON(fiber.Map{"cache_stats": nil})
	}
	poolStats := h.cache.PoolStats()
	stats := h.cache.Stats()
	return c.JSON(fiber.Map{
		"cache_stats": stats,
		"hit_ratio":   stats.HitRatio(),
		"pool_stats": fiber.Map{
			"hits":        poolStats.Hits,
			"misses":      poolStats.Misses,
			"timeouts":    poolStats.Timeouts,
			"total_conns": poolStats.TotalConns,
			"idle_conns":  poolStats.IdleConns,
			"stale_conns": poolStats.StaleConns,
		},
	})
}
