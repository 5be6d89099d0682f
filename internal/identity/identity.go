// Package identity models the lightweight user record the client keeps
// alongside its bearer token.
package identity

import (
	"encoding/json"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Identity describes the logged-in user. It is persisted as JSON under the
// authUser key and used for message ownership matching.
type Identity struct {
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	Avatar   string `json:"avatar,omitempty"`
	UserID   string `json:"userId,omitempty"`
}

// IsZero reports whether no identity information is present.
func (i Identity) IsZero() bool {
	return i.Username == "" && i.UserID == ""
}

// tokenClaims mirrors the claim names Konnect-compatible servers put in
// their tokens. Servers disagree on the id claim name, so several are tried.
type tokenClaims struct {
	UserID   json.Number `json:"user_id"`
	UserIDAlt json.Number `json:"userId"`
	ID       json.Number `json:"id"`
	Username string      `json:"username"`
	jwt.RegisteredClaims
}

// FromToken extracts identity hints from a bearer token without verifying
// its signature. The client never holds the signing secret; the token is
// only mined for ownership matching and display, the server remains the
// sole authority on validity.
func FromToken(token string) (Identity, bool) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Identity{}, false
	}

	var claims tokenClaims
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, &claims); err != nil {
		return Identity{}, false
	}

	id := Identity{Username: claims.Username}
	switch {
	case claims.UserID != "":
		id.UserID = claims.UserID.String()
	case claims.UserIDAlt != "":
		id.UserID = claims.UserIDAlt.String()
	case claims.ID != "":
		id.UserID = claims.ID.String()
	case claims.Subject != "":
		id.UserID = claims.Subject
	}

	if id.IsZero() {
		return Identity{}, false
	}
	return id, true
}

// Merge fills gaps in the receiver from other, preferring existing values.
// Used to combine what the login form knows (username, email, avatar) with
// what the token carries (numeric user id).
func (i Identity) Merge(other Identity) Identity {
	if i.Username == "" {
		i.Username = other.Username
	}
	if i.Email == "" {
		i.Email = other.Email
	}
	if i.Avatar == "" {
		i.Avatar = other.Avatar
	}
	if i.UserID == "" {
		i.UserID = other.UserID
	}
	return i
}
