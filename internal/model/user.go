package model

import "time"

const (
	// StatusActive is the only status value that grants access.
	// Anything else is treated as restricted/banned.
	StatusActive = 1
	StatusBanned = 0
)

const (
	ProviderLocal  = "local"
	ProviderGoogle = "google"
	ProviderGitHub = "github"
)

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	FullName     string    `json:"full_name"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	Status       int       `json:"status"`
	Avatar       string    `json:"avatar"`
	Provider     string    `json:"provider"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type AuthClaims struct {
	UserID  string `json:"sub"`
	Email   string `json:"email"`
	Role    string `json:"role"`
	Status  int    `json:"status"`
	Type    string `json:"typ"`
	TokenID string `json:"jti"`
}

// SessionPayload is the identity bundle returned by every sign-in flow and by
// the refresh endpoint. Field names match what the web client stores verbatim.
type SessionPayload struct {
	AccessToken string `json:"accessToken"`
	Role        string `json:"role"`
	Status      int    `json:"status"`
	Avatar      string `json:"avatar"`
	FullName    string `json:"fullName"`
	UserID      string `json:"userId"`
	Email       string `json:"email,omitempty"`
}

func SessionFor(u User, accessToken string) SessionPayload {
	return SessionPayload{
		AccessToken: accessToken,
		Role:        u.Role,
		Status:      u.Status,
		Avatar:      u.Avatar,
		FullName:    u.FullName,
		UserID:      u.ID,
		Email:       u.Email,
	}
}
