package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/suteetoe/claimdesk/internal/repository"
	"github.com/suteetoe/claimdesk/pkg/logger"
	"github.com/suteetoe/claimdesk/prometheus"
	"go.uber.org/zap"
)

const companyResource = "company"

// CompanyHandler serves the staff-only company directory.
type CompanyHandler struct {
	companies repository.CompanyRepository
}

func NewCompanyHandler(companies repository.CompanyRepository) *CompanyHandler {
	return &CompanyHandler{companies: companies}
}

func (h *CompanyHandler) List(c echo.Context) error {
	companies, err := h.companies.List(c.Request().Context())
	if err != nil {
		return respondError(c, err, "list companies")
	}
	return c.JSON(http.StatusOK, companies)
}

func (h *CompanyHandler) Get(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return respondError(c, err, "get company")
	}
	company, err := h.companies.Get(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err, "get company")
	}
	return c.JSON(http.StatusOK, company)
}

func (h *CompanyHandler) Create(c echo.Context) error {
	var req companyRequest
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, err, "create company")
	}
	if err := req.requireComplete(); err != nil {
		return respondError(c, err, "create company")
	}

	company := req.company()
	if err := h.companies.Create(c.Request().Context(), company); err != nil {
		return respondError(c, err, "create company")
	}

	prometheus.RecordOperation(companyResource, "create")
	logger.FromEcho(c).Info("Company created", zap.Uint("company_id", company.ID))
	return c.JSON(http.StatusCreated, company)
}

func (h *CompanyHandler) Update(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return respondError(c, err, "update company")
	}

	var req companyRequest
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, err, "update company")
	}
	if c.Request().Method == http.MethodPut {
		if err := req.requireComplete(); err != nil {
			return respondError(c, err, "update company")
		}
	}

	company, err := h.companies.Update(c.Request().Context(), id, req.patch())
	if err != nil {
		return respondError(c, err, "update company")
	}

	prometheus.RecordOperation(companyResource, "update")
	return c.JSON(http.StatusOK, company)
}

func (h *CompanyHandler) Delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return respondError(c, err, "delete company")
	}
	if err := h.companies.Delete(c.Request().Context(), id); err != nil {
		return respondError(c, err, "delete company")
	}

	prometheus.RecordOperation(companyResource, "delete")
	logger.FromEcho(c).Info("Company deleted", zap.Uint("company_id", id))
	return c.NoContent(http.StatusNoContent)
}
