package domain

import "time"

// Actions recorded by the auth service.
const (
	ActionSignup  = "signup"
	ActionLogin   = "login"
	ActionLogout  = "logout"
	ActionRefresh = "refresh"
)

// Outcomes recorded with each action.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// ResourceAuth is the resource of every auth audit entry.
const ResourceAuth = "auth"

// AuditLog represents an audit event. OrgID and UserID are empty when unknown
// (e.g. a login attempt for an unregistered email).
type AuditLog struct {
	ID        string
	OrgID     string
	UserID    string
	Action    string
	Resource  string
	Outcome   string
	IP        string
	UserAgent string
	Metadata  string
	CreatedAt time.Time
}
