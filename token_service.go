package usergraph

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// TokenService mints and validates the paired session credentials.
type TokenService interface {
	IssuePair(user *User) (*TokenPair, error)
	Validate(token string, kind TokenKind) (*SessionClaims, error)
}

// TokenServiceImpl implements the TokenService interface
type TokenServiceImpl struct {
	accessKey  []byte
	refreshKey []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	issuer     string
	audience   jwt.ClaimStrings
	logger     Logger
}

// NewTokenService creates a new TokenService instance. The access and
// refresh signing keys must differ (or be domain separated by the caller)
// so that validating one credential kind never accepts the other.
func NewTokenService(cfg Config, logger Logger) TokenService {
	if logger == nil {
		logger = defLogger{}
	}
	return &TokenServiceImpl{
		accessKey:  []byte(cfg.GetAccessSigningKey()),
		refreshKey: []byte(cfg.GetRefreshSigningKey()),
		accessTTL:  cfg.GetAccessTokenDuration(),
		refreshTTL: cfg.GetRefreshTokenDuration(),
		issuer:     cfg.GetIssuer(),
		audience:   cfg.GetAudience(),
		logger:     logger,
	}
}

// IssuePair mints the access and refresh credentials for a user. The call
// has no side effects; persisting the refresh value is the caller's job.
func (ts *TokenServiceImpl) IssuePair(user *User) (*TokenPair, error) {
	if user == nil {
		return nil, errors.New("user must not be nil", errors.CategoryInternal)
	}

	now := time.Now()
	accessExp := now.Add(ts.accessTTL)
	refreshExp := now.Add(ts.refreshTTL)

	access, err := ts.sign(ts.newClaims(user, TokenKindAccess, now, accessExp), ts.accessKey)
	if err != nil {
		return nil, err
	}

	refresh, err := ts.sign(ts.newClaims(user, TokenKindRefresh, now, refreshExp), ts.refreshKey)
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// Validate parses and validates a credential of the given kind, returning
// its claims. Side-effect free.
func (ts *TokenServiceImpl) Validate(tokenString string, kind TokenKind) (*SessionClaims, error) {
	key, err := ts.keyFor(kind)
	if err != nil {
		return nil, err
	}

	parserOptions := make([]jwt.ParserOption, 0, 2)
	if ts.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(ts.issuer))
	}
	if len(ts.audience) > 0 {
		parserOptions = append(parserOptions, jwt.WithAudience(ts.audience...))
	}

	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			ts.logger.Error("TokenService validate encountered unexpected signing method: %v", t.Header["alg"])
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return key, nil
	}, parserOptions...)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, errors.Wrap(err, ErrTokenMalformed.Category, ErrTokenMalformed.Message).WithTextCode(ErrTokenMalformed.TextCode)
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		ts.logger.Error("TokenService validate could not decode or validate claims")
		return nil, ErrTokenMalformed
	}

	// The keys already separate the kinds; the embedded claim is a second
	// guard for deployments that configure a single shared secret.
	if claims.Kind != kind {
		return nil, ErrTokenMalformed
	}

	return claims, nil
}

func (ts *TokenServiceImpl) newClaims(user *User, kind TokenKind, now, exp time.Time) *SessionClaims {
	var aud jwt.ClaimStrings
	if len(ts.audience) > 0 {
		aud = make(jwt.ClaimStrings, len(ts.audience))
		copy(aud, ts.audience)
	}

	return &SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			// The jti keeps credentials minted in the same second distinct,
			// which rotation relies on.
			ID:        uuid.NewString(),
			Issuer:    ts.issuer,
			Subject:   user.ID.String(),
			Audience:  aud,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		UID:       user.ID.String(),
		Email:     user.Email,
		Activated: user.IsActivated,
		Kind:      kind,
	}
}

func (ts *TokenServiceImpl) sign(claims *SessionClaims, key []byte) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signedString, err := token.SignedString(key)
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to sign JWT")
	}

	return signedString, nil
}

func (ts *TokenServiceImpl) keyFor(kind TokenKind) ([]byte, error) {
	switch kind {
	case TokenKindAccess:
		return ts.accessKey, nil
	case TokenKindRefresh:
		return ts.refreshKey, nil
	default:
		return nil, errors.New("unknown token kind", errors.CategoryBadInput)
	}
}
