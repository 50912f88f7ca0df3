package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/suteetoe/claimdesk/pkg/database"
	"github.com/suteetoe/claimdesk/pkg/logger"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type HealthHandler struct {
	service string
	db      *gorm.DB
	redis   *redis.Client
}

func NewHealthHandler(service string, db *gorm.DB, rdb *redis.Client) *HealthHandler {
	return &HealthHandler{service: service, db: db, redis: rdb}
}

// HealthCheck reports 503 when the database does not answer. Redis only degrades the status.
func (h *HealthHandler) HealthCheck(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	if err := database.Ping(ctx, h.db); err != nil {
		logger.FromEcho(c).Error("Database ping failed", zap.Error(err))
		return c.JSON(http.StatusServiceUnavailable, echo.Map{
			"status":  "unhealthy",
			"service": h.service,
		})
	}

	resp := echo.Map{"status": "healthy", "service": h.service}
	if h.redis != nil {
		if err := h.redis.Ping(ctx).Err(); err != nil {
			logger.FromEcho(c).Warn("Redis ping failed", zap.Error(err))
			resp["redis"] = "unavailable"
		} else {
			resp["redis"] = "ok"
		}
	}
	return c.JSON(http.StatusOK, resp)
}
