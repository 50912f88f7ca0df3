package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/suteetoe/claimdesk/internal/middleware"
	"github.com/suteetoe/claimdesk/internal/model"
	"github.com/suteetoe/claimdesk/internal/repository"
	"github.com/suteetoe/claimdesk/pkg/logger"
	"github.com/suteetoe/claimdesk/prometheus"
	"go.uber.org/zap"
)

const claimResource = "claim"

type ClaimHandler struct {
	attributeHandler[model.Claim, repository.ClaimPatch]
	claims  repository.ClaimRepository
	uploads *imageUploader
}

func NewClaimHandler(claims repository.ClaimRepository, uploads *imageUploader) *ClaimHandler {
	return &ClaimHandler{
		attributeHandler: attributeHandler[model.Claim, repository.ClaimPatch]{
			resource: claimResource,
			repo:     claims,
			present:  func(cl *model.Claim) { presentClaim(uploads, cl) },
		},
		claims:  claims,
		uploads: uploads,
	}
}

func presentClaim(uploads *imageUploader, cl *model.Claim) {
	cl.Image = uploads.url(cl.Image)
	if cl.Tags == nil {
		cl.Tags = []model.Tag{}
	}
}

// List accepts assigned_only=1 to keep only claims attached to a policy.
func (h *ClaimHandler) List(c echo.Context) error {
	return h.list(c)
}

func (h *ClaimHandler) Get(c echo.Context) error {
	return h.get(c)
}

func (h *ClaimHandler) Create(c echo.Context) error {
	caller := middleware.CurrentUser(c)

	var req claimRequest
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, err, "create claim")
	}
	verr := model.NewValidationError()
	requirePresent(verr, "policy", req.Policy != nil)
	requirePresent(verr, "claimedAmt", req.ClaimedAmt != nil)
	if err := verr.OrNil(); err != nil {
		return respondError(c, err, "create claim")
	}

	claim := &model.Claim{
		UserID:     caller.UserID,
		PolicyID:   req.Policy,
		ClaimedAmt: *req.ClaimedAmt,
	}
	if req.Description != nil {
		claim.Description = *req.Description
	}
	var tags []model.Tag
	if t := tagPrototypes(req.Tags); t != nil {
		tags = *t
	}

	if err := h.claims.Create(c.Request().Context(), claim, tags); err != nil {
		return respondError(c, err, "create claim")
	}

	prometheus.RecordOperation(claimResource, "create")
	logger.FromEcho(c).Info("Claim created", zap.Uint("claim_id", claim.ID), zap.String("claim_number", claim.ClaimNumber))
	presentClaim(h.uploads, claim)
	return c.JSON(http.StatusCreated, claim)
}

// Update handles PUT: claimedAmt must be present.
func (h *ClaimHandler) Update(c echo.Context) error {
	var req claimRequest
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, err, "update claim")
	}
	verr := model.NewValidationError()
	requirePresent(verr, "claimedAmt", req.ClaimedAmt != nil)
	if err := verr.OrNil(); err != nil {
		return respondError(c, err, "update claim")
	}
	return h.update(c, req.patch())
}

func (h *ClaimHandler) Patch(c echo.Context) error {
	var req claimRequest
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, err, "update claim")
	}
	return h.update(c, req.patch())
}

func (h *ClaimHandler) Delete(c echo.Context) error {
	return h.delete(c)
}

func (h *ClaimHandler) UploadImage(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return respondError(c, err, "upload claim image")
	}
	scope := ownerScope(c)
	if _, err := h.claims.Get(c.Request().Context(), scope, id); err != nil {
		return respondError(c, err, "upload claim image")
	}

	ref, err := h.uploads.receive(c, claimResource)
	if err != nil {
		return respondError(c, err, "upload claim image")
	}

	claim, err := h.claims.SetImage(c.Request().Context(), scope, id, ref)
	if err != nil {
		return respondError(c, err, "upload claim image")
	}
	return c.JSON(http.StatusOK, echo.Map{"id": claim.ID, "image": h.uploads.url(claim.Image)})
}
