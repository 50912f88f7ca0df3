package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/suteetoe/claimdesk/internal/model"
	"github.com/suteetoe/claimdesk/internal/repository"
	"github.com/suteetoe/claimdesk/pkg/jwtutil"
	"github.com/suteetoe/claimdesk/pkg/logger"
	"github.com/suteetoe/claimdesk/prometheus"
	"go.uber.org/zap"
)

const userContextKey = "user"

// AccountLookup loads the account a token was issued to.
type AccountLookup interface {
	GetByID(ctx context.Context, id uint) (*model.User, error)
}

// JWTAuthMiddleware validates the bearer token and stores its claims for CurrentUser.
// Both "Bearer <token>" and "Token <token>" headers are accepted. When accounts is set the
// account is reloaded on every request: deleted or inactive accounts are refused and the staff
// flag comes from the account, not the token.
func JWTAuthMiddleware(jwtUtil *jwtutil.JWTUtil, accounts AccountLookup) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			log := logger.FromEcho(c)

			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				log.Warn("Missing authorization header")
				prometheus.RecordAuthError("missing_header")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Authentication credentials were not provided."})
			}

			scheme, token, ok := strings.Cut(authHeader, " ")
			if !ok || (scheme != "Bearer" && scheme != "Token") || strings.TrimSpace(token) == "" {
				log.Warn("Invalid authorization header format")
				prometheus.RecordAuthError("bad_header")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Invalid authorization header format"})
			}

			claims, err := jwtUtil.ValidateToken(strings.TrimSpace(token))
			if err != nil {
				log.Warn("Invalid or expired token", zap.Error(err))
				prometheus.RecordAuthError("invalid_token")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Invalid token."})
			}

			if accounts != nil {
				user, err := accounts.GetByID(c.Request().Context(), claims.UserID)
				switch {
				case errors.Is(err, repository.ErrNotFound):
					log.Warn("Token for unknown account", zap.Uint("user_id", claims.UserID))
					prometheus.RecordAuthError("unknown_account")
					return c.JSON(http.StatusUnauthorized, echo.Map{"error": "User not found."})
				case err != nil:
					log.Error("Failed to load account", zap.Uint("user_id", claims.UserID), zap.Error(err))
					return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
				case !user.IsActive:
					log.Warn("Token for inactive account", zap.Uint("user_id", claims.UserID))
					prometheus.RecordAuthError("inactive_account")
					return c.JSON(http.StatusUnauthorized, echo.Map{"error": "User inactive or deleted."})
				}
				claims.Email = user.Email
				claims.IsStaff = user.IsStaff
			}

			c.Set(userContextKey, claims)
			logger.SetEcho(c, log.With(zap.Uint("user_id", claims.UserID)))

			return next(c)
		}
	}
}

// CurrentUser returns the claims stored by JWTAuthMiddleware, or nil on unauthenticated routes.
func CurrentUser(c echo.Context) *jwtutil.UserClaims {
	claims, _ := c.Get(userContextKey).(*jwtutil.UserClaims)
	return claims
}

// RequireStaff rejects authenticated non-staff callers with 403.
func RequireStaff() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims := CurrentUser(c)
			if claims == nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Authentication credentials were not provided."})
			}
			if !claims.IsStaff {
				logger.FromEcho(c).Warn("Staff-only endpoint refused", zap.Uint("user_id", claims.UserID))
				return c.JSON(http.StatusForbidden, echo.Map{"error": "You do not have permission to perform this action."})
			}
			return next(c)
		}
	}
}
