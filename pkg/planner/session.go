// Package planner is the client SDK for the Developer Planner API. It owns
// the session lifecycle: sign-in, silent restoration, token refresh with a
// single transparent retry on expiry, route guards, and the presence channel.
package planner

// StatusActive is the account status value that grants access; anything else
// is treated as restricted.
const StatusActive = 1

// Session is the authenticated identity and its access credential. A Session
// is either wholly absent (zero value) or carries a non-empty access token
// and a role; anything in between must not be treated as authenticated.
type Session struct {
	AccessToken string `json:"accessToken"`
	Role        string `json:"role"`
	Status      int    `json:"status"`
	Avatar      string `json:"avatar"`
	FullName    string `json:"fullName"`
	UserID      string `json:"userId"`
	Email       string `json:"email,omitempty"`
}

func (s Session) IsAuthenticated() bool {
	return s.AccessToken != "" && s.Role != ""
}

// sessionUpdate is the wire shape of a refresh or sign-in payload. Pointer
// fields distinguish "absent from the response" from "present but empty" so
// merge-on-refresh can retain prior fields the server did not resend.
type sessionUpdate struct {
	AccessToken *string `json:"accessToken"`
	Role        *string `json:"role"`
	Status      *int    `json:"status"`
	Avatar      *string `json:"avatar"`
	FullName    *string `json:"fullName"`
	UserID      *string `json:"userId"`
	Email       *string `json:"email"`
}

// applyTo merges the update onto prev: response fields win, absent fields
// carry over.
func (u sessionUpdate) applyTo(prev Session) Session {
	next := prev
	if u.AccessToken != nil {
		next.AccessToken = *u.AccessToken
	}
	if u.Role != nil {
		next.Role = *u.Role
	}
	if u.Status != nil {
		next.Status = *u.Status
	}
	if u.Avatar != nil {
		next.Avatar = *u.Avatar
	}
	if u.FullName != nil {
		next.FullName = *u.FullName
	}
	if u.UserID != nil {
		next.UserID = *u.UserID
	}
	if u.Email != nil {
		next.Email = *u.Email
	}
	return next
}
