package handler

import (
	"github.com/labstack/echo/v4"
	"github.com/suteetoe/claimdesk/internal/model"
	"github.com/suteetoe/claimdesk/internal/repository"
)

// TagHandler manages the caller's tags. Tags are created only through policies and claims.
type TagHandler struct {
	attributeHandler[model.Tag, repository.TagPatch]
}

func NewTagHandler(tags repository.TagRepository) *TagHandler {
	return &TagHandler{attributeHandler[model.Tag, repository.TagPatch]{
		resource: "tag",
		repo:     tags,
		present:  func(*model.Tag) {},
	}}
}

// List accepts assigned_only=1 to keep only tags linked to a policy or claim.
func (h *TagHandler) List(c echo.Context) error {
	return h.list(c)
}

func (h *TagHandler) Update(c echo.Context) error {
	var req tagUpdateRequest
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, err, "update tag")
	}
	verr := model.NewValidationError()
	requirePresent(verr, "name", req.Name != nil)
	if err := verr.OrNil(); err != nil {
		return respondError(c, err, "update tag")
	}
	return h.update(c, req.patch())
}

func (h *TagHandler) Patch(c echo.Context) error {
	var req tagUpdateRequest
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, err, "update tag")
	}
	return h.update(c, req.patch())
}

func (h *TagHandler) Delete(c echo.Context) error {
	return h.delete(c)
}
