package telemetry

import "time"

// Event types published for auth operations.
const (
	EventSignup  = "auth.signup"
	EventLogin   = "auth.login"
	EventLogout  = "auth.logout"
	EventRefresh = "auth.refresh"
)

// Outcomes attached to auth events.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// SourceAuthService is the source of events emitted by the auth service.
const SourceAuthService = "airguard-auth"

// AuthEvent is the JSON document published for each auth operation. It never carries tokens,
// passwords or hashes.
type AuthEvent struct {
	EventType string    `json:"eventType"`
	Outcome   string    `json:"outcome"`
	Reason    string    `json:"reason,omitempty"`
	OrgID     string    `json:"orgId,omitempty"`
	UserID    string    `json:"userId,omitempty"`
	Source    string    `json:"source"`
	IP        string    `json:"ip,omitempty"`
	UserAgent string    `json:"userAgent,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
