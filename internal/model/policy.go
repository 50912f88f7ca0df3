package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PolicyTitle is the line of business of a policy.
type PolicyTitle string

const (
	PolicyTitleNone       PolicyTitle = "None"
	PolicyTitleVehicle    PolicyTitle = "VEHICLE"
	PolicyTitleEmployment PolicyTitle = "EMPLOYMENT"
	PolicyTitleHealth     PolicyTitle = "HEALTH"
	PolicyTitleTravel     PolicyTitle = "TRAVEL"
)

func (t PolicyTitle) Valid() bool {
	switch t {
	case PolicyTitleNone, PolicyTitleVehicle, PolicyTitleEmployment, PolicyTitleHealth, PolicyTitleTravel:
		return true
	}
	return false
}

// Policy is an insurance policy held by a user.
// PolicyNumber is generated on first save and never rewritten afterwards.
type Policy struct {
	ID           uint            `json:"id" gorm:"primaryKey"`
	UserID       uint            `json:"user" gorm:"index;not null"`
	PolicyNumber string          `json:"policy_id" gorm:"type:varchar(36);uniqueIndex;not null"`
	Title        PolicyTitle     `json:"title" gorm:"type:varchar(15);not null"`
	Description  string          `json:"description" gorm:"type:text"`
	StartDate    Date            `json:"startDate" gorm:"type:date;not null"`
	EndDate      Date            `json:"endDate" gorm:"type:date;not null"`
	PremiumAmt   decimal.Decimal `json:"premiumAmt" gorm:"type:numeric(6,2);not null"`
	SumAssured   decimal.Decimal `json:"sumAssured" gorm:"type:numeric(10,2);not null"`
	ClaimedAmt   decimal.Decimal `json:"claimedAmt" gorm:"type:numeric(10,2);not null"`
	Image        string          `json:"image" gorm:"type:varchar(255)"`
	Tags         []Tag           `json:"tags" gorm:"many2many:policy_tags;constraint:OnDelete:CASCADE"`
	Claims       []Claim         `json:"claims" gorm:"foreignKey:PolicyID;constraint:OnDelete:SET NULL"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// PolicyWritableColumns are the columns an owner may change on update.
// user_id and policy_number are deliberately absent.
var PolicyWritableColumns = []string{
	"title", "description", "start_date", "end_date", "premium_amt", "sum_assured", "claimed_amt",
}

func (p *Policy) BeforeCreate(tx *gorm.DB) error {
	if p.PolicyNumber == "" {
		p.PolicyNumber = uuid.NewString()
	}
	if p.Title == "" {
		p.Title = PolicyTitleNone
	}
	return nil
}

func (p *Policy) Validate() error {
	v := NewValidationError()

	if p.Title != "" && !p.Title.Valid() {
		v.Add("title", fmt.Sprintf("%q is not a valid choice.", p.Title))
	}

	checkAmount(v, "premiumAmt", p.PremiumAmt, 6)
	checkAmount(v, "sumAssured", p.SumAssured, 10)
	checkAmount(v, "claimedAmt", p.ClaimedAmt, 10)
	if !v.Has("claimedAmt") && !v.Has("sumAssured") && p.ClaimedAmt.GreaterThan(p.SumAssured) {
		v.Add("claimedAmt", "Claimed amount cannot exceed sum assured.")
	}

	switch {
	case p.StartDate.IsZero():
		v.Add("startDate", "This field is required.")
	case p.EndDate.IsZero():
		v.Add("endDate", "This field is required.")
	case !p.EndDate.After(p.StartDate):
		v.Add("endDate", "End date must be greater than start date.")
	}

	return v.OrNil()
}
