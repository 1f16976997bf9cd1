package usergraph

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// SessionManager orchestrates the session-token lifecycle: registration,
// activation, login, refresh rotation, and logout. It enforces at most one
// valid refresh credential per user at a time through the refresh token
// store's upsert-by-user semantics.
type SessionManager struct {
	repo   RepositoryManager
	tokens TokenService
	hasher PasswordHasher
	sender ActivationSender
	cfg    Config
	logger Logger

	// registrationSession preserves the policy of granting a live session
	// to a newly registered, not yet activated account.
	registrationSession bool
	// fatalActivationSend makes a failed activation dispatch abort the
	// whole registration call.
	fatalActivationSend bool
	// deterministicIDs derives user IDs from the email via hashid.
	deterministicIDs bool
}

// SessionManagerOption customizes a SessionManager.
type SessionManagerOption func(*SessionManager)

// NewSessionManager returns a new SessionManager.
func NewSessionManager(repo RepositoryManager, cfg Config, opts ...SessionManagerOption) *SessionManager {
	s := &SessionManager{
		repo:                repo,
		cfg:                 cfg,
		hasher:              BcryptHasher{},
		logger:              defLogger{},
		registrationSession: true,
	}

	s.tokens = NewTokenService(cfg, s.logger)
	s.sender = logActivationSender{logger: s.logger}

	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	return s
}

// WithTokenService overrides the token service.
func WithTokenService(tokens TokenService) SessionManagerOption {
	return func(s *SessionManager) {
		s.tokens = tokens
	}
}

// WithPasswordHasher overrides the password capability, e.g. with a
// deterministic stand-in for tests.
func WithPasswordHasher(hasher PasswordHasher) SessionManagerOption {
	return func(s *SessionManager) {
		s.hasher = hasher
	}
}

// WithActivationSender sets the activation notification collaborator.
func WithActivationSender(sender ActivationSender) SessionManagerOption {
	return func(s *SessionManager) {
		s.sender = sender
	}
}

func WithLogger(logger Logger) SessionManagerOption {
	return func(s *SessionManager) {
		s.logger = logger
	}
}

// WithRegistrationSession controls whether Register issues a token pair for
// the still unactivated account. Defaults to true.
func WithRegistrationSession(enabled bool) SessionManagerOption {
	return func(s *SessionManager) {
		s.registrationSession = enabled
	}
}

// WithFatalActivationSend makes a failed activation dispatch fail the whole
// registration. Defaults to false: registration commits and the failure is
// logged.
func WithFatalActivationSend(fatal bool) SessionManagerOption {
	return func(s *SessionManager) {
		s.fatalActivationSend = fatal
	}
}

// WithDeterministicIDs derives new user IDs from the email address.
func WithDeterministicIDs(enabled bool) SessionManagerOption {
	return func(s *SessionManager) {
		s.deterministicIDs = enabled
	}
}

// TokenService returns the TokenService instance used by this SessionManager.
func (s *SessionManager) TokenService() TokenService {
	return s.tokens
}

// Register creates a new pending account, dispatches the activation
// notification, and (policy permitting) grants the new account a live
// session right away.
func (s *SessionManager) Register(ctx context.Context, username, email, password string) (*AuthResult, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)

	if _, err := s.repo.Users().GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !repository.IsRecordNotFound(err) {
		return nil, StoreFailure(err, "users.get_by_email")
	}

	if _, err := s.repo.Users().GetByUsername(ctx, username); err == nil {
		return nil, ErrUsernameTaken
	} else if !repository.IsRecordNotFound(err) {
		return nil, StoreFailure(err, "users.get_by_username")
	}

	hash, err := s.hasher.HashPassword(password)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryValidation, "invalid password provided")
	}

	user := &User{
		Username:        username,
		Email:           email,
		PasswordHash:    hash,
		ActivationToken: uuid.NewString(),
	}

	if s.deterministicIDs {
		if id, err := hashid.NewUUID(email); err == nil {
			user.ID = id
		}
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err = s.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var txErr error
		if user, txErr = s.repo.Users().CreateTx(ctx, tx, user); txErr != nil {
			return txErr
		}
		return nil
	})

	if err != nil {
		// A concurrent registration can slip past the two lookups; the
		// unique constraints still hold the line.
		if isConstraintViolation(err) {
			return nil, goerrors.Wrap(err, goerrors.CategoryConflict, "could not create user").
				WithCode(goerrors.CodeConflict)
		}
		return nil, StoreFailure(err, "users.create")
	}

	if err := s.sendActivation(ctx, user); err != nil {
		if s.fatalActivationSend {
			return nil, goerrors.Wrap(err, goerrors.CategoryOperation, "failed to dispatch activation message")
		}
		s.logger.Error("activation dispatch failed", "email", user.Email, "error", err)
	}

	if !s.registrationSession {
		return &AuthResult{User: NewSessionUser(user)}, nil
	}

	return s.issueAndPersist(ctx, user)
}

// Activate consumes an activation token and flips the account to active.
// Existing sessions are untouched: activation and session lifecycle are
// decoupled.
func (s *SessionManager) Activate(ctx context.Context, activationToken string) (*User, error) {
	if strings.TrimSpace(activationToken) == "" {
		return nil, ErrInvalidActivationLink
	}

	user, err := s.repo.Users().GetByActivationToken(ctx, activationToken)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrInvalidActivationLink
		}
		return nil, StoreFailure(err, "users.get_by_activation_token")
	}

	if err := s.repo.Users().Activate(ctx, user.ID); err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrInvalidActivationLink
		}
		return nil, StoreFailure(err, "users.activate")
	}

	user.IsActivated = true
	user.ActivationToken = ""

	return user, nil
}

// Login verifies the credentials and mints a new token pair, overwriting
// any previously stored refresh credential for the account.
func (s *SessionManager) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.repo.Users().GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if repository.IsRecordNotFound(err) {
			s.logger.Info("login rejected, unknown email", "email", email)
			return nil, ErrUnknownEmail
		}
		return nil, StoreFailure(err, "users.get_by_email")
	}

	if err := s.hasher.ComparePasswordAndHash(password, user.PasswordHash); err != nil {
		if errors.Is(err, ErrMismatchedHashAndPassword) {
			s.logger.Info("login rejected, password mismatch", "user_id", user.ID)
			return nil, ErrInvalidCredentials
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to verify password")
	}

	return s.issueAndPersist(ctx, user)
}

// Refresh exchanges a valid, currently stored refresh credential for a new
// token pair. The stored value is overwritten, which closes the replay
// window: a superseded credential fails the store lookup from then on.
func (s *SessionManager) Refresh(ctx context.Context, refreshValue string) (*AuthResult, error) {
	if strings.TrimSpace(refreshValue) == "" {
		return nil, ErrUnauthorized
	}

	claims, err := s.tokens.Validate(refreshValue, TokenKindRefresh)
	if err != nil {
		s.logger.Info("refresh rejected, invalid credential", "error", err)
		return nil, ErrUnauthorized
	}

	if _, err := s.repo.RefreshTokens().Find(ctx, refreshValue); err != nil {
		if repository.IsRecordNotFound(err) {
			s.logger.Info("refresh rejected, credential superseded or revoked", "user_id", claims.UserID())
			return nil, ErrUnauthorized
		}
		return nil, StoreFailure(err, "refresh_tokens.find")
	}

	// Re-fetch the user so the new claims reflect activation changes made
	// since the credential was issued.
	user, err := s.repo.Users().GetByID(ctx, claims.UserID())
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrUnauthorized
		}
		return nil, StoreFailure(err, "users.get_by_id")
	}

	return s.issueAndPersist(ctx, user)
}

// Logout removes the stored record matching refreshValue. It is idempotent:
// unknown or already removed values succeed.
func (s *SessionManager) Logout(ctx context.Context, refreshValue string) error {
	if strings.TrimSpace(refreshValue) == "" {
		return nil
	}

	if err := s.repo.RefreshTokens().Remove(ctx, refreshValue); err != nil {
		return StoreFailure(err, "refresh_tokens.remove")
	}

	return nil
}

func (s *SessionManager) issueAndPersist(ctx context.Context, user *User) (*AuthResult, error) {
	pair, err := s.tokens.IssuePair(user)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to mint token pair")
	}

	if err := s.repo.RefreshTokens().Save(ctx, user.ID, pair.RefreshToken); err != nil {
		return nil, StoreFailure(err, "refresh_tokens.save")
	}

	return &AuthResult{
		TokenPair: *pair,
		User:      NewSessionUser(user),
	}, nil
}

func (s *SessionManager) sendActivation(ctx context.Context, user *User) error {
	base := strings.TrimRight(s.cfg.GetActivationBaseURL(), "/")
	url := fmt.Sprintf("%s/activate/%s", base, user.ActivationToken)
	return s.sender.SendActivationMessage(ctx, user.Email, url)
}

func isConstraintViolation(err error) bool {
	if err == nil {
		return false
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		switch richErr.Category {
		case repository.CategoryDatabaseDuplicate, repository.CategoryDatabaseConstraint:
			return true
		}
	}

	// Fallback for raw driver errors that never passed through the
	// repository layer.
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate")
}
