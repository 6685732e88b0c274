package domain

import (
	"errors"
	"strings"
	"time"
)

// User is the core user entity.
type User struct {
	ID             string
	Email          string // normalized: trimmed, lower case
	PasswordHash   string // bcrypt; never leaves the service layer
	FullName       string
	Country        string
	Phone          string
	Company        string
	Industry       string
	OrganizationID string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// PublicUser is the user as exposed to API callers. It has no password hash.
type PublicUser struct {
	ID             string    `json:"id"`
	Email          string    `json:"email"`
	FullName       string    `json:"fullName"`
	Country        string    `json:"country,omitempty"`
	Phone          string    `json:"phone,omitempty"`
	Company        string    `json:"company,omitempty"`
	Industry       string    `json:"industry,omitempty"`
	OrganizationID string    `json:"organizationId"`
	CreatedAt      time.Time `json:"createdAt"`
}

// NormalizeEmail trims surrounding whitespace and lower-cases email.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Public returns the fields safe to return to API callers.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:             u.ID,
		Email:          u.Email,
		FullName:       u.FullName,
		Country:        u.Country,
		Phone:          u.Phone,
		Company:        u.Company,
		Industry:       u.Industry,
		OrganizationID: u.OrganizationID,
		CreatedAt:      u.CreatedAt,
	}
}

// Validate validates the user for persistence. Returns an error describing the first validation failure.
func (u *User) Validate() error {
	if u.ID == "" {
		return errors.New("id is required")
	}
	if u.Email == "" {
		return errors.New("email is required")
	}
	if u.PasswordHash == "" {
		return errors.New("password hash is required")
	}
	if u.OrganizationID == "" {
		return errors.New("organization id is required")
	}
	return nil
}
