package totpflow

import (
	"errors"
	"strings"
	"time"
)

const base32Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ234567"

// Config defines the full configuration surface of the engine.
//
// Config instances are intended to be configured during initialization and
// then treated as immutable unless documented otherwise.
type Config struct {
	// Secret signs pending-OTP tokens. Required; distinct from the
	// per-issuance OTP secrets.
	Secret string

	// SuccessRedirect is the target of every success redirect. Required.
	SuccessRedirect string

	// FailureRedirect is the target of failure redirects. When empty, the
	// HTTP adapter surfaces the failure to the host instead of redirecting.
	FailureRedirect string

	// SessionMaxAge is the max-age applied when committing the session
	// cookie. Zero means a browser-session cookie.
	SessionMaxAge time.Duration

	OTP         OTPConfig
	MagicLink   MagicLinkConfig
	Messages    MessageConfig
	Form        FormConfig
	SessionKeys SessionKeyConfig
	Audit       AuditConfig
	Metrics     MetricsConfig
}

// OTPConfig controls code generation. Secret is optional: when empty, a fresh
// secret is generated per issuance and never reused across issuances.
//
// OTPConfig instances are intended to be configured during initialization and
// then treated as immutable unless documented otherwise.
type OTPConfig struct {
	Secret       string
	Algorithm    string // "SHA1" (default), "SHA256", "SHA512"
	CharSet      string // Base32-compatible alphabet for generated secrets
	SecretLength int
	Digits       int
	Period       int // seconds; also the signed token's TTL
	MaxAttempts  int
}

// MagicLinkConfig controls URL-based code redemption. When Enabled is false
// the engine never exposes or redeems a code via URL.
type MagicLinkConfig struct {
	Enabled      bool
	HostURL      string // overrides the host inferred from the request
	CallbackPath string
}

// MessageConfig holds the user-visible error message overrides.
type MessageConfig struct {
	RequiredEmail string
	InvalidEmail  string
	InvalidTOTP   string
	InactiveTOTP  string
}

// FormConfig names the form fields the engine reads. The code field name is
// also the magic-link query parameter.
type FormConfig struct {
	Email string
	Code  string
}

// SessionKeyConfig names the session keys the engine owns.
type SessionKeyConfig struct {
	Email string
	TOTP  string
	User  string
	Error string
}

// AuditConfig controls the buffered audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls the atomic counter set.
type MetricsConfig struct {
	Enabled bool
}

// DefaultConfig returns the configuration the engine ships with. Secret and
// SuccessRedirect have no usable defaults and must be supplied by the caller.
func DefaultConfig() Config {
	return Config{
		OTP: OTPConfig{
			Algorithm:    "SHA1",
			CharSet:      base32Alphabet,
			SecretLength: 32,
			Digits:       6,
			Period:       60,
			MaxAttempts:  3,
		},
		MagicLink: MagicLinkConfig{
			Enabled:      true,
			CallbackPath: "/magic-link",
		},
		Messages: MessageConfig{
			RequiredEmail: "Email is required.",
			InvalidEmail:  "Email address is invalid.",
			InvalidTOTP:   "Code is not valid.",
			InactiveTOTP:  "Code is no longer active.",
		},
		Form: FormConfig{
			Email: "email",
			Code:  "code",
		},
		SessionKeys: SessionKeyConfig{
			Email: "auth:email",
			TOTP:  "auth:totp",
			User:  "user",
			Error: "auth:error",
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 256,
			DropIfFull: true,
		},
	}
}

func cloneConfig(cfg Config) Config {
	// All fields are value types; a struct copy is a deep copy.
	return cfg
}

// Validate checks the configuration for fatal errors. It runs inside
// [Builder.Build], before any session or store interaction.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Secret) == "" {
		return ErrRequiredSecret
	}
	if strings.TrimSpace(c.SuccessRedirect) == "" {
		return ErrRequiredSuccessRedirect
	}
	if c.OTP.Digits <= 0 {
		return errors.New("otp digits must be positive")
	}
	if c.OTP.Period <= 0 {
		return errors.New("otp period must be positive")
	}
	if c.OTP.MaxAttempts <= 0 {
		return errors.New("otp max attempts must be positive")
	}
	if c.OTP.SecretLength <= 0 {
		return errors.New("otp secret length must be positive")
	}
	if _, err := otpAlgorithm(c.OTP.Algorithm); err != nil {
		return err
	}
	if c.OTP.CharSet == "" {
		return errors.New("otp charset must not be empty")
	}
	for _, r := range c.OTP.CharSet {
		if !strings.ContainsRune(base32Alphabet, r) {
			return errors.New("otp charset must be base32-compatible")
		}
	}
	if c.MagicLink.Enabled && !strings.HasPrefix(c.MagicLink.CallbackPath, "/") {
		return errors.New("magic-link callback path must start with /")
	}
	if c.Form.Email == "" || c.Form.Code == "" {
		return errors.New("form field names must not be empty")
	}
	if c.SessionKeys.Email == "" || c.SessionKeys.TOTP == "" ||
		c.SessionKeys.User == "" || c.SessionKeys.Error == "" {
		return errors.New("session key names must not be empty")
	}
	return nil
}
