package middleware

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/suteetoe/claimdesk/pkg/logger"
	"go.uber.org/zap"
)

// RequestIDMiddleware makes sure every request carries an X-Request-ID and echoes it back.
func RequestIDMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			requestID := c.Request().Header.Get(echo.HeaderXRequestID)
			if requestID == "" {
				requestID = uuid.NewString()
				c.Request().Header.Set(echo.HeaderXRequestID, requestID)
			}
			c.Response().Header().Set(echo.HeaderXRequestID, requestID)

			logger.SetEcho(c, logger.GetLogger().With(zap.String("request_id", requestID)))
			return next(c)
		}
	}
}
