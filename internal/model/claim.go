package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Claim is a request for payment against a policy.
// ClaimNumber is derived from the owning policy when the claim is created and is immutable.
type Claim struct {
	ID          uint            `json:"id" gorm:"primaryKey"`
	UserID      uint            `json:"user" gorm:"index;not null"`
	PolicyID    *uint           `json:"policy" gorm:"index"`
	ClaimNumber string          `json:"claim_id" gorm:"type:varchar(50);uniqueIndex;not null"`
	ClaimedAmt  decimal.Decimal `json:"claimedAmt" gorm:"type:numeric(10,2);not null"`
	Description string          `json:"description" gorm:"type:text"`
	Image       string          `json:"image" gorm:"type:varchar(255)"`
	Tags        []Tag           `json:"tags" gorm:"many2many:claim_tags;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// ClaimWritableColumns are the columns an owner may change on update.
var ClaimWritableColumns = []string{"claimed_amt", "description"}

// DeriveClaimNumber builds a claim number from the policy number plus a short random suffix,
// so several claims against one policy stay unique.
func DeriveClaimNumber(policyNumber string) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return policyNumber + "-" + suffix
}

func (c *Claim) BeforeCreate(tx *gorm.DB) error {
	if c.ClaimNumber == "" {
		c.ClaimNumber = uuid.NewString()
	}
	return nil
}

func (c *Claim) Validate() error {
	v := NewValidationError()
	checkAmount(v, "claimedAmt", c.ClaimedAmt, 10)
	return v.OrNil()
}
