package model

import (
	"strings"
	"time"
)

// Company is an insurer or partner organisation. It is managed by staff only.
type Company struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Email     string    `json:"email" gorm:"type:varchar(255);uniqueIndex;not null"`
	Name      string    `json:"name" gorm:"type:varchar(255);not null"`
	IsActive  bool      `json:"is_active" gorm:"not null"`
	IsStaff   bool      `json:"is_staff" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (c *Company) Validate() error {
	v := NewValidationError()
	if c.Email == "" {
		v.Add("email", "This field is required.")
	} else if !strings.Contains(c.Email, "@") {
		v.Add("email", "Enter a valid email address.")
	}
	if strings.TrimSpace(c.Name) == "" {
		v.Add("name", "This field is required.")
	}
	return v.OrNil()
}
