package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/suteetoe/claimdesk/internal/middleware"
	"github.com/suteetoe/claimdesk/internal/model"
	"github.com/suteetoe/claimdesk/internal/repository"
	"github.com/suteetoe/claimdesk/pkg/logger"
	"go.uber.org/zap"
)

// respondError maps repository and validation errors onto HTTP responses.
// Anything unexpected is logged with action and answered with a generic 500.
func respondError(c echo.Context, err error, action string) error {
	log := logger.FromEcho(c)

	var verr *model.ValidationError
	switch {
	case errors.As(err, &verr):
		log.Info("Validation failed", zap.String("action", action), zap.Any("fields", verr.Fields))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation failed", "fields": verr.Fields})
	case errors.Is(err, repository.ErrNotFound):
		log.Info("Record not found", zap.String("action", action))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Not found."})
	case errors.Is(err, repository.ErrConflict):
		log.Info("Conflicting write", zap.String("action", action))
		return c.JSON(http.StatusConflict, echo.Map{"error": "A record with these values already exists."})
	default:
		log.Error("Request failed", zap.String("action", action), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
	}
}

// bindAndValidate decodes the body into req and runs the registered validator.
func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		verr := model.NewValidationError()
		verr.Add("body", "Malformed request body.")
		logger.FromEcho(c).Info("Failed to parse request", zap.Error(err))
		return verr
	}
	return c.Validate(req)
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
}

// pathID parses the :id path parameter. Anything that is not a positive integer cannot
// name a row, so it is reported as not found.
func pathID(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, repository.ErrNotFound
	}
	return uint(id), nil
}

// parseIDList parses a comma separated list of ids such as "1,2,3".
func parseIDList(raw string) ([]uint, error) {
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	ids := make([]uint, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.ParseUint(strings.TrimSpace(p), 10, 64)
		if err != nil {
			return nil, err
		}
		ids = append(ids, uint(id))
	}
	return ids, nil
}

// assignedOnly reads the assigned_only query flag; only 0 and 1 are accepted.
func assignedOnly(c echo.Context) (bool, error) {
	switch c.QueryParam("assigned_only") {
	case "", "0":
		return false, nil
	case "1":
		return true, nil
	default:
		return false, errors.New("assigned_only must be 0 or 1")
	}
}

// callerScope builds the read scope of the authenticated caller.
func callerScope(c echo.Context) repository.Scope {
	claims := middleware.CurrentUser(c)
	if claims == nil {
		return repository.Scope{}
	}
	return repository.Scope{UserID: claims.UserID, Staff: claims.IsStaff}
}

func requirePresent(verr *model.ValidationError, field string, present bool) {
	if !present {
		verr.Add(field, "This field is required.")
	}
}
