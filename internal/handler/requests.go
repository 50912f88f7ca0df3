package handler

import (
	"github.com/shopspring/decimal"
	"github.com/suteetoe/claimdesk/internal/model"
	"github.com/suteetoe/claimdesk/internal/repository"
)

type tagRequest struct {
	Name        string            `json:"name" validate:"required,max=255"`
	ClaimStatus model.ClaimStatus `json:"claim_status" validate:"omitempty,oneof=RAISED IN_PROGRESS ACCEPTED REJECTED"`
	Description string            `json:"description"`
}

func (r tagRequest) prototype() model.Tag {
	return model.Tag{Name: r.Name, ClaimStatus: r.ClaimStatus, Description: r.Description}
}

func tagPrototypes(reqs *[]tagRequest) *[]model.Tag {
	if reqs == nil {
		return nil
	}
	tags := make([]model.Tag, 0, len(*reqs))
	for _, r := range *reqs {
		tags = append(tags, r.prototype())
	}
	return &tags
}

// tagUpdateRequest is the body of PUT/PATCH on a single tag.
type tagUpdateRequest struct {
	Name        *string            `json:"name" validate:"omitempty,max=255"`
	ClaimStatus *model.ClaimStatus `json:"claim_status" validate:"omitempty,oneof=RAISED IN_PROGRESS ACCEPTED REJECTED"`
	Description *string            `json:"description"`
}

func (r tagUpdateRequest) patch() repository.TagPatch {
	return repository.TagPatch{Name: r.Name, ClaimStatus: r.ClaimStatus, Description: r.Description}
}

// nestedClaimRequest is a claim written inline with its policy.
type nestedClaimRequest struct {
	Description string           `json:"description"`
	ClaimedAmt  *decimal.Decimal `json:"claimedAmt"`
	Tags        []tagRequest     `json:"tags" validate:"omitempty,dive"`
}

func (r nestedClaimRequest) prototype() model.Claim {
	claim := model.Claim{Description: r.Description}
	if r.ClaimedAmt != nil {
		claim.ClaimedAmt = *r.ClaimedAmt
	}
	for _, t := range r.Tags {
		claim.Tags = append(claim.Tags, t.prototype())
	}
	return claim
}

// policyRequest is the body of policy create, PUT and PATCH. The legacy "statuss" key is
// accepted for tags. Owner and policy number are never read from the body.
type policyRequest struct {
	Title       *model.PolicyTitle    `json:"title" validate:"omitempty,oneof=None VEHICLE EMPLOYMENT HEALTH TRAVEL"`
	Description *string               `json:"description"`
	StartDate   *model.Date           `json:"startDate"`
	EndDate     *model.Date           `json:"endDate"`
	PremiumAmt  *decimal.Decimal      `json:"premiumAmt"`
	SumAssured  *decimal.Decimal      `json:"sumAssured"`
	ClaimedAmt  *decimal.Decimal      `json:"claimedAmt"`
	Tags        *[]tagRequest         `json:"tags" validate:"omitempty,dive"`
	Statuss     *[]tagRequest         `json:"statuss" validate:"omitempty,dive"`
	Claims      *[]nestedClaimRequest `json:"claims" validate:"omitempty,dive"`
}

// requireComplete reports the fields a create or full update must carry.
func (r policyRequest) requireComplete() error {
	verr := model.NewValidationError()
	requirePresent(verr, "startDate", r.StartDate != nil)
	requirePresent(verr, "endDate", r.EndDate != nil)
	requirePresent(verr, "premiumAmt", r.PremiumAmt != nil)
	requirePresent(verr, "sumAssured", r.SumAssured != nil)
	requirePresent(verr, "claimedAmt", r.ClaimedAmt != nil)
	return verr.OrNil()
}

func (r policyRequest) tags() *[]model.Tag {
	if r.Tags != nil {
		return tagPrototypes(r.Tags)
	}
	return tagPrototypes(r.Statuss)
}

func (r policyRequest) claims() *[]model.Claim {
	if r.Claims == nil {
		return nil
	}
	claims := make([]model.Claim, 0, len(*r.Claims))
	for _, c := range *r.Claims {
		claims = append(claims, c.prototype())
	}
	return &claims
}

func (r policyRequest) patch() repository.PolicyPatch {
	return repository.PolicyPatch{
		Title:       r.Title,
		Description: r.Description,
		StartDate:   r.StartDate,
		EndDate:     r.EndDate,
		PremiumAmt:  r.PremiumAmt,
		SumAssured:  r.SumAssured,
		ClaimedAmt:  r.ClaimedAmt,
		Tags:        r.tags(),
		Claims:      r.claims(),
	}
}

func (r policyRequest) policy(owner uint) *model.Policy {
	p := &model.Policy{UserID: owner}
	if r.Title != nil {
		p.Title = *r.Title
	}
	if r.Description != nil {
		p.Description = *r.Description
	}
	if r.StartDate != nil {
		p.StartDate = *r.StartDate
	}
	if r.EndDate != nil {
		p.EndDate = *r.EndDate
	}
	if r.PremiumAmt != nil {
		p.PremiumAmt = *r.PremiumAmt
	}
	if r.SumAssured != nil {
		p.SumAssured = *r.SumAssured
	}
	if r.ClaimedAmt != nil {
		p.ClaimedAmt = *r.ClaimedAmt
	}
	return p
}

type claimRequest struct {
	Policy      *uint            `json:"policy"`
	ClaimedAmt  *decimal.Decimal `json:"claimedAmt"`
	Description *string          `json:"description"`
	Tags        *[]tagRequest    `json:"tags" validate:"omitempty,dive"`
}

func (r claimRequest) patch() repository.ClaimPatch {
	return repository.ClaimPatch{
		ClaimedAmt:  r.ClaimedAmt,
		Description: r.Description,
		Tags:        tagPrototypes(r.Tags),
	}
}

type userCreateRequest struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=5"`
	Name     string `json:"name" validate:"max=255"`
}

type userUpdateRequest struct {
	Email    *string `json:"email" validate:"omitempty,email,max=255"`
	Password *string `json:"password" validate:"omitempty,min=5"`
	Name     *string `json:"name" validate:"omitempty,max=255"`
}

type tokenRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type companyRequest struct {
	Email    *string `json:"email" validate:"omitempty,email,max=255"`
	Name     *string `json:"name" validate:"omitempty,max=255"`
	IsActive *bool   `json:"is_active"`
	IsStaff  *bool   `json:"is_staff"`
}

func (r companyRequest) requireComplete() error {
	verr := model.NewValidationError()
	requirePresent(verr, "email", r.Email != nil)
	requirePresent(verr, "name", r.Name != nil)
	return verr.OrNil()
}

func (r companyRequest) patch() repository.CompanyPatch {
	return repository.CompanyPatch{Email: r.Email, Name: r.Name, IsActive: r.IsActive, IsStaff: r.IsStaff}
}

// company builds a new row; is_active and is_staff default to true.
func (r companyRequest) company() *model.Company {
	c := &model.Company{IsActive: true, IsStaff: true}
	if r.Email != nil {
		c.Email = *r.Email
	}
	if r.Name != nil {
		c.Name = *r.Name
	}
	if r.IsActive != nil {
		c.IsActive = *r.IsActive
	}
	if r.IsStaff != nil {
		c.IsStaff = *r.IsStaff
	}
	return c
}
