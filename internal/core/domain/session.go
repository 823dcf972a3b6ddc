package domain

import "time"

// Session is the audit record written for every successful login.
// ExpiresAt is always LoginAt plus the token lifetime in force at login.
type Session struct {
	ID           string    `json:"id"`
	UserID       int64     `json:"user_id"`
	Token        string    `json:"-"`
	LoginAt      time.Time `json:"login_timestamp"`
	LastActivity time.Time `json:"last_activity"`
	IPAddress    string    `json:"ip_address,omitempty"`
	UserAgent    string    `json:"user_agent,omitempty"`
	IsActive     bool      `json:"is_active"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Expired reports whether the session's lifetime has elapsed at now.
func (s *Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
