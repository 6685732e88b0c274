package domain

import (
	"errors"
	"strings"
	"time"
)

// Org represents an organization/tenant. Every user belongs to one; the signing-up user owns it.
type Org struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	OwnerID   string    `json:"ownerId"`
	CreatedAt time.Time `json:"createdAt"`
}

// DefaultName returns the organization name for a new account: the company when given,
// otherwise "{fullName}'s Organization".
func DefaultName(fullName, company string) string {
	if c := strings.TrimSpace(company); c != "" {
		return c
	}
	return strings.TrimSpace(fullName) + "'s Organization"
}

// Validate validates the organization for persistence. Returns an error describing the first validation failure.
func (o *Org) Validate() error {
	if o.ID == "" {
		return errors.New("id is required")
	}
	if o.Name == "" {
		return errors.New("name is required")
	}
	if o.OwnerID == "" {
		return errors.New("owner id is required")
	}
	return nil
}
