package model

import (
	"fmt"
	"strings"
	"time"
)

// ClaimStatus classifies a claim through the tags attached to it.
type ClaimStatus string

const (
	ClaimStatusRaised     ClaimStatus = "RAISED"
	ClaimStatusInProgress ClaimStatus = "IN_PROGRESS"
	ClaimStatusAccepted   ClaimStatus = "ACCEPTED"
	ClaimStatusRejected   ClaimStatus = "REJECTED"
)

var claimStatusLabels = map[ClaimStatus]string{
	ClaimStatusRaised:     "Raised",
	ClaimStatusInProgress: "In Progress",
	ClaimStatusAccepted:   "Accepted",
	ClaimStatusRejected:   "Rejected",
}

func (s ClaimStatus) Valid() bool {
	_, ok := claimStatusLabels[s]
	return ok
}

// Label is the human readable form, e.g. "In Progress".
func (s ClaimStatus) Label() string {
	if l, ok := claimStatusLabels[s]; ok {
		return l
	}
	return string(s)
}

// Tag is a per-user label used to classify policies and claims.
type Tag struct {
	ID          uint        `json:"id" gorm:"primaryKey"`
	UserID      uint        `json:"-" gorm:"not null;uniqueIndex:idx_tags_user_name"`
	Name        string      `json:"name" gorm:"type:varchar(255);not null;uniqueIndex:idx_tags_user_name"`
	ClaimStatus ClaimStatus `json:"claim_status" gorm:"type:varchar(15);not null"`
	Description string      `json:"description" gorm:"type:text"`
	CreatedAt   time.Time   `json:"-"`
	UpdatedAt   time.Time   `json:"-"`
}

func (t Tag) String() string {
	return t.ClaimStatus.Label()
}

// Normalize fills defaults before a write.
func (t *Tag) Normalize() {
	t.Name = strings.TrimSpace(t.Name)
	if t.ClaimStatus == "" {
		t.ClaimStatus = ClaimStatusRaised
	}
}

func (t *Tag) Validate() error {
	v := NewValidationError()
	if t.Name == "" {
		v.Add("name", "This field may not be blank.")
	} else if len(t.Name) > 255 {
		v.Add("name", "Ensure this field has no more than 255 characters.")
	}
	if !t.ClaimStatus.Valid() {
		v.Add("claim_status", fmt.Sprintf("%q is not a valid choice.", t.ClaimStatus))
	}
	return v.OrNil()
}
