package usergraph

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenKind distinguishes the two credentials of a TokenPair.
type TokenKind string

const (
	// TokenKindAccess is the short-lived bearer credential.
	TokenKindAccess TokenKind = "access"
	// TokenKindRefresh is the long-lived store-backed credential.
	TokenKindRefresh TokenKind = "refresh"
)

// SessionClaims is the minimal projection of a User that gets minted into
// tokens. It never carries the password hash.
type SessionClaims struct {
	jwt.RegisteredClaims
	UID       string    `json:"uid,omitempty"`
	Email     string    `json:"email,omitempty"`
	Activated bool      `json:"activated"`
	Kind      TokenKind `json:"kind,omitempty"`
}

// UserID returns the user ID, falling back to the subject claim.
func (c *SessionClaims) UserID() string {
	if c.UID != "" {
		return c.UID
	}
	return c.RegisteredClaims.Subject
}

// UserUUID parses the user ID claim.
func (c *SessionClaims) UserUUID() (uuid.UUID, error) {
	return uuid.Parse(c.UserID())
}

// Expires returns the expiration time
func (c *SessionClaims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// TokenPair bundles the two signed credentials minted for a session. Only
// the refresh value is ever persisted, by the refresh token store.
type TokenPair struct {
	AccessToken      string    `json:"access_token"`
	RefreshToken     string    `json:"refresh_token"`
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
}

// SessionUser is the caller-facing projection of a User record.
type SessionUser struct {
	ID          uuid.UUID `json:"id"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	IsActivated bool      `json:"is_activated"`
}

// NewSessionUser projects a User record.
func NewSessionUser(u *User) SessionUser {
	return SessionUser{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		IsActivated: u.IsActivated,
	}
}

// AuthResult is what register, login, and refresh hand back to the caller.
type AuthResult struct {
	TokenPair
	User SessionUser `json:"user"`
}
