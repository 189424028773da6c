package domain

import "time"

// OAuthState is the nonce issued when an install starts. It is consumed by
// the matching callback.
type OAuthState struct {
	State     string    `json:"state"`
	Shop      string    `json:"shop"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the nonce outlived its TTL
func (s *OAuthState) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
