package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/YaniKolev/momo-scheduler/internal/service"
)

// HealthHandler handles health check endpoints. It reports Postgres
// and Redis connectivity plus whether this instance is currently the
// cluster leader, the way the teacher's health handler reports
// database connectivity and scheduler run state.
type HealthHandler struct {
	db          *gorm.DB
	redisClient *redis.Client
	jobService  *service.JobService
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(db *gorm.DB, redisClient *redis.Client, jobService *service.JobService) *HealthHandler {
	return &HealthHandler{db: db, redisClient: redisClient, jobService: jobService}
}

// Health returns the service health status.
// @Summary Health check
// @Description Check service health
// @Tags health
// @Produce json
// @Success 200 {object} Response
// @Failure 503 {object} Response
// @Router /health [get]
func (h *HealthHandler) Health(c *fiber.Ctx) error {
	healthData := fiber.Map{
		"status":   "healthy",
		"isLeader": h.jobService.IsLeader(),
	}

	sqlDB, err := h.db.DB()
	if err != nil || sqlDB.Ping() != nil {
		healthData["status"] = "unhealthy"
		healthData["database"] = "disconnected"
		return c.Status(fiber.StatusServiceUnavailable).JSON(Response{Success: false, Data: healthData})
	}
	healthData["database"] = "connected"

	ctx, cancel := context.WithTimeout(c.Context(), 2*time.Second)
	defer cancel()
	if err := h.redisClient.Ping(ctx).Err(); err != nil {
		healthData["redis"] = "disconnected"
	} else {
		healthData["redis"] = "connected"
	}

	return Success(c, healthData)
}

// Ready returns the service readiness status.
// @Summary Readiness check
// @Description Check if service is ready to accept traffic
// @Tags health
// @Produce json
// @Success 200 {object} Response
// @Failure 503 {object} Response
// @Router /ready [get]
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	sqlDB, err := h.db.DB()
	if err != nil || sqlDB.Ping() != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(Response{Success: false})
	}
	return Success(c, fiber.Map{"status": "ready"})
}

// Live returns the liveness status.
// @Summary Liveness check
// @Description Check if service is alive
// @Tags health
// @Produce json
// @Success 200 {object} Response
// @Router /live [get]
func (h *HealthHandler) Live(c *fiber.Ctx) error {
	return Success(c, fiber.Map{"status": "alive"})
}
