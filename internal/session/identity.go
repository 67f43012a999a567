package session

import (
	"strconv"

	"github.com/golang-jwt/jwt/v5"
)

// Known roles carried in the credential. The role is a UI affordance
// only; the backend re-validates every mutating call.
const (
	RoleDoctor    = "doctor"
	RoleSecretary = "secretary"
)

// Identity is the view of the current user derived from the bearer
// credential. It is recomputed on every read and never cached.
type Identity struct {
	Role    string
	Subject string
	UserID  int
}

// CanManagePatients reports whether the role may create, edit, or
// delete patients and appointments.
func (id *Identity) CanManagePatients() bool {
	return id != nil && (id.Role == RoleDoctor || id.Role == RoleSecretary)
}

// CanEditRecords reports whether the role may write patient records.
func (id *Identity) CanEditRecords() bool {
	return id != nil && id.Role == RoleDoctor
}

// DisplayName returns the subject, or a placeholder for anonymous
// sessions.
func (id *Identity) DisplayName() string {
	if id == nil || id.Subject == "" {
		return "User"
	}
	return id.Subject
}

// Decode extracts the identity claims from a bearer token without
// verifying its signature; authenticity is the server's problem and a
// successful decode proves nothing. A missing or malformed token
// returns nil so the UI degrades to "no role" instead of crashing.
func Decode(token string) *Identity {
	if token == "" {
		return nil
	}
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	parsed, _, err := parser.ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return nil
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil
	}

	id := &Identity{}
	if role, ok := claims["role"].(string); ok {
		id.Role = role
	}
	switch sub := claims["sub"].(type) {
	case string:
		id.Subject = sub
		if n, err := strconv.Atoi(sub); err == nil {
			id.UserID = n
		}
	case float64:
		id.UserID = int(sub)
	}
	// Older tokens carry the display name under "identity" and the
	// numeric id under "uid".
	if id.Subject == "" {
		if name, ok := claims["identity"].(string); ok {
			id.Subject = name
		}
	}
	if name, ok := claims["name"].(string); ok && id.Subject == "" {
		id.Subject = name
	}
	if uid, ok := claims["uid"].(float64); ok && id.UserID == 0 {
		id.UserID = int(uid)
	}
	return id
}

// DecodeFrom reads the current access token from the store and decodes
// it. Any read failure degrades to a nil identity.
func DecodeFrom(store *Store) *Identity {
	token, err := store.AccessToken()
	if err != nil {
		return nil
	}
	return Decode(token)
}
