package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/suteetoe/claimdesk/internal/middleware"
	"github.com/suteetoe/claimdesk/internal/repository"
	"github.com/suteetoe/claimdesk/pkg/logger"
	"github.com/suteetoe/claimdesk/prometheus"
	"go.uber.org/zap"
)

// attributeHandler serves the list, update and delete operations shared by tags and claims.
// Attribute resources are always scoped to the caller, staff included.
type attributeHandler[T any, P any] struct {
	resource string
	repo     repository.AttributeRepository[T, P]
	present  func(*T)
}

func ownerScope(c echo.Context) repository.Scope {
	claims := middleware.CurrentUser(c)
	if claims == nil {
		return repository.Scope{}
	}
	return repository.Owner(claims.UserID)
}

func (h *attributeHandler[T, P]) list(c echo.Context) error {
	assigned, err := assignedOnly(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	items, err := h.repo.List(c.Request().Context(), ownerScope(c), assigned)
	if err != nil {
		return respondError(c, err, "list "+h.resource)
	}
	if items == nil {
		items = []T{}
	}
	for i := range items {
		h.present(&items[i])
	}
	return c.JSON(http.StatusOK, items)
}

func (h *attributeHandler[T, P]) get(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return respondError(c, err, "get "+h.resource)
	}
	item, err := h.repo.Get(c.Request().Context(), ownerScope(c), id)
	if err != nil {
		return respondError(c, err, "get "+h.resource)
	}
	h.present(item)
	return c.JSON(http.StatusOK, item)
}

func (h *attributeHandler[T, P]) update(c echo.Context, patch P) error {
	id, err := pathID(c)
	if err != nil {
		return respondError(c, err, "update "+h.resource)
	}

	item, err := h.repo.Update(c.Request().Context(), ownerScope(c), id, patch)
	if err != nil {
		return respondError(c, err, "update "+h.resource)
	}

	prometheus.RecordOperation(h.resource, "update")
	logger.FromEcho(c).Info("Attribute updated", zap.String("resource", h.resource), zap.Uint("id", id))
	h.present(item)
	return c.JSON(http.StatusOK, item)
}

func (h *attributeHandler[T, P]) delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return respondError(c, err, "delete "+h.resource)
	}
	if err := h.repo.Delete(c.Request().Context(), ownerScope(c), id); err != nil {
		return respondError(c, err, "delete "+h.resource)
	}

	prometheus.RecordOperation(h.resource, "delete")
	logger.FromEcho(c).Info("Attribute deleted", zap.String("resource", h.resource), zap.Uint("id", id))
	return c.NoContent(http.StatusNoContent)
}
