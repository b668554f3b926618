package domain

import "time"

// Session binds one Identity to a client until logout or expiry.
type Session struct {
	ID        string    `json:"id"`
	Identity  Identity  `json:"identity"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the session is past its expiry at t.
func (s *Session) Expired(t time.Time) bool {
	return !s.ExpiresAt.After(t)
}
