package model

import (
	"time"
)

// AccessToken is a bearer credential for the programmatic creation
// endpoints. Scope names the one link kind the token may create.
// Value is never serialized after initial issuance.
type AccessToken struct {
	ID         int64      `json:"id"`
	Name       string     `json:"name"`
	Value      string     `json:"-"`
	Scope      LinkKind   `json:"scope"`
	IsActive   bool       `json:"is_active"`
	CreatedAt  time.Time  `json:"created_at"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
}

// AdViewSession records that a client cleared the ad gate for a code.
// At most one row exists per (IPAddress, Code, Kind); a repeat view
// updates the timestamps in place.
type AdViewSession struct {
	ID        int64     `json:"id"`
	IPAddress string    `json:"ip_address"`
	Code      string    `json:"code"`
	Kind      LinkKind  `json:"kind"`
	ViewedAt  time.Time `json:"viewed_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Active reports whether the session still suppresses the timer at t.
// An expired but unpurged row is treated as absent.
func (s *AdViewSession) Active(t time.Time) bool {
	return t.Before(s.ExpiresAt)
}
