package domain

import "time"

// Session is the server-side record of one outstanding refresh token. A user may hold
// several at once (one per device or login). The raw token is never stored; TokenHash is
// its SHA-256 hex digest.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	TokenHash string    `json:"-"`
	ExpiresAt time.Time `json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
	UserAgent string    `json:"userAgent,omitempty"`
	IPAddress string    `json:"ipAddress,omitempty"`
}

// IsValid reports whether the session has not yet expired at now.
func (s *Session) IsValid(now time.Time) bool {
	return s != nil && now.Before(s.ExpiresAt)
}
