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

const policyResource = "policy"

type PolicyHandler struct {
	policies repository.PolicyRepository
	uploads  *imageUploader
}

func NewPolicyHandler(policies repository.PolicyRepository, uploads *imageUploader) *PolicyHandler {
	return &PolicyHandler{policies: policies, uploads: uploads}
}

// List returns the caller's policies, newest first. "tags" (or the legacy "statuss") and
// "claims" take comma separated ids; a policy matches when any of its tags and any of its
// claims are listed.
func (h *PolicyHandler) List(c echo.Context) error {
	log := logger.FromEcho(c)

	rawTags := c.QueryParam("tags")
	if rawTags == "" {
		rawTags = c.QueryParam("statuss")
	}
	tagIDs, err := parseIDList(rawTags)
	if err != nil {
		log.Info("Malformed tag filter", zap.String("tags", rawTags))
		return badRequest(c, "tags must be a comma separated list of ids")
	}
	claimIDs, err := parseIDList(c.QueryParam("claims"))
	if err != nil {
		log.Info("Malformed claim filter", zap.String("claims", c.QueryParam("claims")))
		return badRequest(c, "claims must be a comma separated list of ids")
	}

	policies, err := h.policies.List(c.Request().Context(), callerScope(c), repository.PolicyFilter{
		TagIDs:   tagIDs,
		ClaimIDs: claimIDs,
	})
	if err != nil {
		return respondError(c, err, "list policies")
	}

	out := make([]model.Policy, 0, len(policies))
	for i := range policies {
		out = append(out, *h.present(&policies[i]))
	}
	return c.JSON(http.StatusOK, out)
}

func (h *PolicyHandler) Get(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return respondError(c, err, "get policy")
	}

	policy, err := h.policies.Get(c.Request().Context(), callerScope(c), id)
	if err != nil {
		return respondError(c, err, "get policy")
	}
	return c.JSON(http.StatusOK, h.present(policy))
}

func (h *PolicyHandler) Create(c echo.Context) error {
	log := logger.FromEcho(c)
	caller := middleware.CurrentUser(c)

	var req policyRequest
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, err, "create policy")
	}
	if err := req.requireComplete(); err != nil {
		return respondError(c, err, "create policy")
	}

	policy := req.policy(caller.UserID)
	var tags []model.Tag
	if t := req.tags(); t != nil {
		tags = *t
	}
	var nested []model.Claim
	if cl := req.claims(); cl != nil {
		nested = *cl
	}

	if err := h.policies.Create(c.Request().Context(), policy, tags, nested); err != nil {
		return respondError(c, err, "create policy")
	}

	prometheus.RecordOperation(policyResource, "create")
	log.Info("Policy created", zap.Uint("policy_id", policy.ID), zap.String("policy_number", policy.PolicyNumber))
	return c.JSON(http.StatusCreated, h.present(policy))
}

// Update handles PUT, which needs every required field.
func (h *PolicyHandler) Update(c echo.Context) error {
	return h.update(c, true)
}

// Patch handles PATCH, which changes only the fields present in the body.
func (h *PolicyHandler) Patch(c echo.Context) error {
	return h.update(c, false)
}

func (h *PolicyHandler) update(c echo.Context, full bool) error {
	id, err := pathID(c)
	if err != nil {
		return respondError(c, err, "update policy")
	}

	var req policyRequest
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, err, "update policy")
	}
	if full {
		if err := req.requireComplete(); err != nil {
			return respondError(c, err, "update policy")
		}
	}

	policy, err := h.policies.Update(c.Request().Context(), callerScope(c), id, req.patch())
	if err != nil {
		return respondError(c, err, "update policy")
	}

	prometheus.RecordOperation(policyResource, "update")
	logger.FromEcho(c).Info("Policy updated", zap.Uint("policy_id", policy.ID), zap.Bool("full", full))
	return c.JSON(http.StatusOK, h.present(policy))
}

func (h *PolicyHandler) Delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return respondError(c, err, "delete policy")
	}
	if err := h.policies.Delete(c.Request().Context(), callerScope(c), id); err != nil {
		return respondError(c, err, "delete policy")
	}

	prometheus.RecordOperation(policyResource, "delete")
	logger.FromEcho(c).Info("Policy deleted", zap.Uint("policy_id", id))
	return c.NoContent(http.StatusNoContent)
}

// UploadImage attaches an image to the caller's policy. Ownership is checked before anything
// is stored.
func (h *PolicyHandler) UploadImage(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return respondError(c, err, "upload policy image")
	}
	scope := callerScope(c).Writer()
	if _, err := h.policies.Get(c.Request().Context(), scope, id); err != nil {
		return respondError(c, err, "upload policy image")
	}

	ref, err := h.uploads.receive(c, policyResource)
	if err != nil {
		return respondError(c, err, "upload policy image")
	}

	policy, err := h.policies.SetImage(c.Request().Context(), scope, id, ref)
	if err != nil {
		return respondError(c, err, "upload policy image")
	}
	return c.JSON(http.StatusOK, echo.Map{"id": policy.ID, "image": h.uploads.url(policy.Image)})
}

func (h *PolicyHandler) present(p *model.Policy) *model.Policy {
	p.Image = h.uploads.url(p.Image)
	for i := range p.Claims {
		presentClaim(h.uploads, &p.Claims[i])
	}
	if p.Tags == nil {
		p.Tags = []model.Tag{}
	}
	if p.Claims == nil {
		p.Claims = []model.Claim{}
	}
	return p
}
