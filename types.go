package totpflow

import (
	"context"
	"net/http"
	"net/url"
	"time"
)

// Record is the persisted view of a single OTP issuance. The signed token is
// the lookup key; the record itself never carries the raw code.
//
// Lifecycle: created with Active=true and Attempts=0 when an OTP is issued;
// Attempts is incremented on each failed comparison; Active is set to false on
// redemption, supersession, exhaustion, or token-verification failure. Records
// are deactivated, never deleted — retention belongs to the store.
type Record struct {
	Hash      string
	Active    bool
	Attempts  int
	ExpiresAt *time.Time
}

// RecordPatch is a partial update applied to a persisted [Record]. Nil fields
// are left unchanged.
type RecordPatch struct {
	Active    *bool
	Attempts  *int
	ExpiresAt *time.Time
}

// Store is the persistence contract for OTP records. Implementations must
// treat the hash as an opaque key.
//
// HandleTOTP with a nil patch is a read; with a patch it applies the partial
// update and returns the updated view. A missing record yields (nil, nil),
// not an error.
type Store interface {
	StoreTOTP(ctx context.Context, record Record) error
	HandleTOTP(ctx context.Context, hash string, patch *RecordPatch) (*Record, error)
}

// Delivery is the payload handed to the [Sender] when a code must reach the
// user out-of-band. MagicLink is empty when magic links are disabled.
type Delivery struct {
	Email     string
	Code      string
	MagicLink string
	Form      url.Values
	Request   *http.Request
}

// Sender delivers the OTP code out-of-band (email, SMS, ...). A send failure
// is terminal for the current request.
type Sender interface {
	SendTOTP(ctx context.Context, delivery Delivery) error
}

// VerifyInput is the payload handed to the [Verifier] once the code phase has
// succeeded. Code is populated only for magic-link redemptions.
type VerifyInput struct {
	Email     string
	Code      string
	MagicLink bool
	Form      url.Values
	Request   *http.Request
}

// Verifier resolves the application user once the OTP phase succeeds. The
// returned value is stored under the session's user key as-is; its shape is
// the application's concern.
type Verifier interface {
	Verify(ctx context.Context, input VerifyInput) (any, error)
}

// EmailValidator rejects an email address as invalid or disposable. The
// returned error's message is the user-visible failure reason.
type EmailValidator func(email string) error

// Session is the cookie-backed key/value state the engine reads and writes.
// The engine touches exactly four keys: pending email, pending token, the
// authenticated user, and the error message. Commit serializes the session
// into the response's Set-Cookie header with the given max-age.
type Session interface {
	Get(key string) any
	Set(key string, value any)
	Unset(key string)
	Commit(w http.ResponseWriter, maxAge time.Duration) error
}

// SessionLoaderFunc resolves the request's session. Used by [Engine.Handler]
// to bridge a concrete session implementation to the [Session] contract.
type SessionLoaderFunc func(r *http.Request) (Session, error)

// SenderFunc adapts a function to the [Sender] interface.
type SenderFunc func(ctx context.Context, delivery Delivery) error

// SendTOTP calls f.
func (f SenderFunc) SendTOTP(ctx context.Context, delivery Delivery) error {
	return f(ctx, delivery)
}

// VerifierFunc adapts a function to the [Verifier] interface.
type VerifierFunc func(ctx context.Context, input VerifyInput) (any, error)

// Verify calls f.
func (f VerifierFunc) Verify(ctx context.Context, input VerifyInput) (any, error) {
	return f(ctx, input)
}
