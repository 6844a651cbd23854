package totpflow

import "errors"

var (
	// ErrRequiredEmail is returned when the challenge phase runs without an
	// email address in the form or a pending one in the session.
	ErrRequiredEmail = errors.New("email required")
	// ErrInvalidEmail is returned by the default email validator when the
	// submitted address fails structural validation.
	ErrInvalidEmail = errors.New("invalid email")
	// ErrRequiredSecret is a configuration error: the signing secret is missing.
	// It is fatal and surfaces from [Builder.Build], never from a request.
	ErrRequiredSecret = errors.New("signing secret required")
	// ErrRequiredSuccessRedirect is a configuration error: no success redirect
	// target is configured. Fatal at build time.
	ErrRequiredSuccessRedirect = errors.New("success redirect required")
	// ErrInvalidMagicLinkPath is returned when a GET redemption request does
	// not match the configured magic-link callback path.
	ErrInvalidMagicLinkPath = errors.New("invalid magic-link path")
	// ErrTOTPNotFound is returned when no persisted record exists for the
	// session's pending token. The text is the user-visible message.
	ErrTOTPNotFound = errors.New("TOTP not found")
	// ErrTOTPInactive is returned when the persisted record has been consumed,
	// superseded, exhausted, or its pending token no longer verifies.
	ErrTOTPInactive = errors.New("TOTP inactive")
	// ErrInvalidCode is returned on a code mismatch. Retryable until the
	// record's attempt budget is exhausted.
	ErrInvalidCode = errors.New("invalid TOTP code")
	// ErrUserNotFound is returned when neither protocol phase matched the
	// request and no user was resolved.
	ErrUserNotFound = errors.New("user not found")
	// ErrEngineNotReady is returned when an Engine method is called before the
	// engine was constructed through [Builder.Build].
	ErrEngineNotReady = errors.New("engine not initialized")
)
