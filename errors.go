package usergraph

import (
	goerrors "github.com/goliatone/go-errors"
)

const (
	textCodeEmailTaken            = "EMAIL_TAKEN"
	textCodeUsernameTaken         = "USERNAME_TAKEN"
	textCodeUserNotFound          = "USER_NOT_FOUND"
	textCodeInvalidCredentials    = "INVALID_CREDENTIALS"
	textCodeUnauthorized          = "UNAUTHORIZED"
	textCodeTokenExpired          = "TOKEN_EXPIRED"
	textCodeTokenMalformed        = "TOKEN_MALFORMED"
	textCodeInvalidActivationLink = "INVALID_ACTIVATION_LINK"
	textCodeAlreadyFollowing      = "ALREADY_FOLLOWING"
	textCodeNotFollowing          = "NOT_FOLLOWING"
	textCodeSelfFollow            = "SELF_FOLLOW"
	textCodeStoreFailure          = "STORE_FAILURE"
)

// ErrEmailTaken is returned when registering with an email that is already present.
var ErrEmailTaken = goerrors.New("user with this email already exists", goerrors.CategoryConflict).
	WithTextCode(textCodeEmailTaken).
	WithCode(goerrors.CodeConflict)

// ErrUsernameTaken is returned when registering with a handle that is already present.
var ErrUsernameTaken = goerrors.New("user with this username already exists", goerrors.CategoryConflict).
	WithTextCode(textCodeUsernameTaken).
	WithCode(goerrors.CodeConflict)

// ErrUnknownEmail is returned by login when no account matches the email.
// The message is deliberately identical to ErrInvalidCredentials so callers
// cannot tell which half of the credential pair was wrong; the text codes
// differ for logging.
var ErrUnknownEmail = goerrors.New("invalid email or password", goerrors.CategoryNotFound).
	WithTextCode(textCodeUserNotFound).
	WithCode(goerrors.CodeUnauthorized)

// ErrInvalidCredentials is returned by login when the password does not match.
var ErrInvalidCredentials = goerrors.New("invalid email or password", goerrors.CategoryAuth).
	WithTextCode(textCodeInvalidCredentials).
	WithCode(goerrors.CodeUnauthorized)

// ErrUserNotFound is returned by graph operations and lookups that reference
// a user which does not exist.
var ErrUserNotFound = goerrors.New("user not found", goerrors.CategoryNotFound).
	WithTextCode(textCodeUserNotFound).
	WithCode(goerrors.CodeNotFound)

// ErrUnauthorized covers every refresh failure: missing, malformed, expired,
// or superseded refresh credentials all collapse into this error.
var ErrUnauthorized = goerrors.New("unauthorized", goerrors.CategoryAuth).
	WithTextCode(textCodeUnauthorized).
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenExpired is returned when a credential is past its expiry.
var ErrTokenExpired = goerrors.New("token is expired", goerrors.CategoryAuth).
	WithTextCode(textCodeTokenExpired).
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenMalformed is returned when a credential fails signature or
// structural validation for the requested kind.
var ErrTokenMalformed = goerrors.New("token is malformed", goerrors.CategoryAuth).
	WithTextCode(textCodeTokenMalformed).
	WithCode(goerrors.CodeUnauthorized)

// ErrInvalidActivationLink is returned when no pending account matches an
// activation token. Activation links are single use, so a consumed token
// yields this error as well.
var ErrInvalidActivationLink = goerrors.New("activation link is not correct", goerrors.CategoryNotFound).
	WithTextCode(textCodeInvalidActivationLink).
	WithCode(goerrors.CodeNotFound)

// ErrAlreadyFollowing is returned when the followee's follower set already
// contains the follower.
var ErrAlreadyFollowing = goerrors.New("user already follows this account", goerrors.CategoryConflict).
	WithTextCode(textCodeAlreadyFollowing).
	WithCode(goerrors.CodeConflict)

// ErrNotFollowing is returned when unsubscribing and no edge exists.
var ErrNotFollowing = goerrors.New("user does not follow this account", goerrors.CategoryConflict).
	WithTextCode(textCodeNotFollowing).
	WithCode(goerrors.CodeConflict)

// ErrSelfFollow guards the invariant that a user never appears in its own
// follower or subscription set.
var ErrSelfFollow = goerrors.New("users cannot follow themselves", goerrors.CategoryValidation).
	WithTextCode(textCodeSelfFollow).
	WithCode(goerrors.CodeBadRequest)

// StoreFailure wraps an underlying persistence error. The op metadata names
// the operation that failed so callers can reconcile.
func StoreFailure(err error, op string) *goerrors.Error {
	return goerrors.Wrap(err, goerrors.CategoryInternal, "persistence failure").
		WithTextCode(textCodeStoreFailure).
		WithCode(goerrors.CodeInternal).
		WithMetadata(map[string]any{"op": op})
}

// IsStoreFailure reports whether err carries the store failure text code.
func IsStoreFailure(err error) bool {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return false
	}
	return richErr.TextCode == textCodeStoreFailure
}
