// Package handler exposes the policy service over HTTP.
package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/suteetoe/claimdesk/internal/middleware"
	"github.com/suteetoe/claimdesk/internal/repository"
	"github.com/suteetoe/claimdesk/internal/storage"
	"github.com/suteetoe/claimdesk/pkg/config"
	"github.com/suteetoe/claimdesk/pkg/jwtutil"
	"github.com/suteetoe/claimdesk/pkg/logger"
	"github.com/suteetoe/claimdesk/pkg/metrics"
	"github.com/suteetoe/claimdesk/prometheus"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Deps are the shared resources the router is built from. Redis is optional.
type Deps struct {
	DB    *gorm.DB
	Store storage.ImageStore
	Redis *redis.Client
}

// NewRouter wires middleware, handlers and routes.
func NewRouter(cfg *config.Config, deps Deps) *echo.Echo {
	prometheus.InitMetrics(cfg.Metrics.Prefix)
	httpMetrics := metrics.NewHTTPMetrics(cfg.ServiceName)

	jwt := jwtutil.NewJWTUtil(&jwtutil.JWTConfig{
		SigningKey:      cfg.JWT.SigningKey,
		ExpirationHours: cfg.JWT.ExpirationHours,
	})
	uploads := newImageUploader(deps.Store, cfg.Storage.MaxUploadBytes)

	userRepo := repository.NewUserRepository(deps.DB)
	users := NewUserHandler(userRepo, jwt)
	policies := NewPolicyHandler(repository.NewPolicyRepository(deps.DB), uploads)
	tags := NewTagHandler(repository.NewTagRepository(deps.DB))
	claims := NewClaimHandler(repository.NewClaimRepository(deps.DB), uploads)
	companies := NewCompanyHandler(repository.NewCompanyRepository(deps.DB))
	health := NewHealthHandler(cfg.ServiceName, deps.DB, deps.Redis)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = NewRequestValidator()
	e.HTTPErrorHandler = errorHandler

	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(middleware.RequestIDMiddleware())
	e.Use(logger.Middleware())
	e.Use(httpMetrics.Middleware())

	e.GET("/health", health.HealthCheck)
	e.GET("/metrics", echo.WrapHandler(metrics.GetPrometheusHandler()))
	if local, ok := deps.Store.(*storage.LocalStore); ok && local.BaseURL() != "" {
		e.Static(local.BaseURL(), local.Root())
	}

	api := e.Group(cfg.Server.APIPrefix)
	auth := middleware.JWTAuthMiddleware(jwt, userRepo)
	limit := middleware.RateLimitMiddleware(cfg.RateLimit, deps.Redis)

	user := api.Group("/user")
	user.POST("/create", users.Create, limit)
	user.POST("/token", users.Token, limit)
	user.GET("/me", users.Me, auth)
	user.PUT("/me", users.UpdateMe, auth)
	user.PATCH("/me", users.UpdateMe, auth)

	policy := api.Group("/policy", auth)
	policy.GET("/policies", policies.List)
	policy.POST("/policies", policies.Create)
	policy.GET("/policies/:id", policies.Get)
	policy.PUT("/policies/:id", policies.Update)
	policy.PATCH("/policies/:id", policies.Patch)
	policy.DELETE("/policies/:id", policies.Delete)
	policy.POST("/policies/:id/upload-image", policies.UploadImage)

	for _, prefix := range []string{"/tags", "/statuses"} {
		policy.GET(prefix, tags.List)
		policy.PUT(prefix+"/:id", tags.Update)
		policy.PATCH(prefix+"/:id", tags.Patch)
		policy.DELETE(prefix+"/:id", tags.Delete)
	}

	policy.GET("/claims", claims.List)
	policy.POST("/claims", claims.Create)
	policy.GET("/claims/:id", claims.Get)
	policy.PUT("/claims/:id", claims.Update)
	policy.PATCH("/claims/:id", claims.Patch)
	policy.DELETE("/claims/:id", claims.Delete)
	policy.POST("/claims/:id/upload-image", claims.UploadImage)

	company := api.Group("/companies", auth, middleware.RequireStaff())
	company.GET("", companies.List)
	company.POST("", companies.Create)
	company.GET("/:id", companies.Get)
	company.PUT("/:id", companies.Update)
	company.PATCH("/:id", companies.Update)
	company.DELETE("/:id", companies.Delete)

	return e
}

// errorHandler renders framework errors (unknown route, wrong method, oversized body) in the
// same {"error": ...} shape the handlers use.
func errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	msg := "internal server error"
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		if m, ok := he.Message.(string); ok {
			msg = m
		} else {
			msg = http.StatusText(code)
		}
	} else {
		logger.FromEcho(c).Error("Unhandled error", zap.Error(err))
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(code)
		return
	}
	_ = c.JSON(code, echo.Map{"error": msg})
}
