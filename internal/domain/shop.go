package domain

import "time"

// Shop represents a merchant store that installed the app
type Shop struct {
	ID          string    `json:"id"`
	Domain      string    `json:"domain"`
	AccessToken string    `json:"-"` // Sealed by the TokenCipher before it reaches a repository
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Installed reports whether the shop currently holds an access token
func (s *Shop) Installed() bool {
	return s != nil && s.AccessToken != ""
}
