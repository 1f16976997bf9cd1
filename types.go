package usergraph

import (
	"context"
	"fmt"
	"time"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Error(format string, args ...any)
}

// Config holds token and activation options.
type Config interface {
	GetAccessSigningKey() string
	GetRefreshSigningKey() string
	GetAccessTokenDuration() time.Duration
	GetRefreshTokenDuration() time.Duration
	GetIssuer() string
	GetAudience() []string
	GetActivationBaseURL() string
}

// PasswordHasher is the opaque one-way hash/verify capability used by the
// session manager. The default is bcrypt; tests can inject deterministic
// stand-ins.
type PasswordHasher interface {
	HashPassword(password string) (string, error)
	ComparePasswordAndHash(password, hash string) error
}

// ActivationSender dispatches the out-of-band activation notification. It is
// an external collaborator: the session manager treats it as fire-and-forget
// unless configured otherwise.
type ActivationSender interface {
	SendActivationMessage(ctx context.Context, email, activationURL string) error
}

// ActivationSenderFunc adapts a function to the ActivationSender interface.
type ActivationSenderFunc func(ctx context.Context, email, activationURL string) error

func (f ActivationSenderFunc) SendActivationMessage(ctx context.Context, email, activationURL string) error {
	return f(ctx, email, activationURL)
}

// ConfigValues is a plain struct Config implementation.
type ConfigValues struct {
	AccessSigningKey     string
	RefreshSigningKey    string
	AccessTokenDuration  time.Duration
	RefreshTokenDuration time.Duration
	Issuer               string
	Audience             []string
	ActivationBaseURL    string
}

var _ Config = ConfigValues{}

func (c ConfigValues) GetAccessSigningKey() string  { return c.AccessSigningKey }
func (c ConfigValues) GetRefreshSigningKey() string { return c.RefreshSigningKey }

func (c ConfigValues) GetAccessTokenDuration() time.Duration {
	if c.AccessTokenDuration == 0 {
		return 30 * time.Minute
	}
	return c.AccessTokenDuration
}

func (c ConfigValues) GetRefreshTokenDuration() time.Duration {
	if c.RefreshTokenDuration == 0 {
		return 30 * 24 * time.Hour
	}
	return c.RefreshTokenDuration
}

func (c ConfigValues) GetIssuer() string            { return c.Issuer }
func (c ConfigValues) GetAudience() []string        { return c.Audience }
func (c ConfigValues) GetActivationBaseURL() string { return c.ActivationBaseURL }

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] USERGRAPH "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] USERGRAPH "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] USERGRAPH "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}

// logActivationSender is the default ActivationSender: it only logs the
// activation URL. Wire a real mail transport in production.
type logActivationSender struct {
	logger Logger
}

func (s logActivationSender) SendActivationMessage(_ context.Context, email, activationURL string) error {
	s.logger.Info("activation message for %s: %s", email, activationURL)
	return nil
}
