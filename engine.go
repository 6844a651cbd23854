package totpflow

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/totpflow/totpflow/token"
)

// Engine drives the challenge/response OTP protocol. Construct it through
// [Builder.Build]; a zero Engine is not usable.
//
// Engine instances are intended to be configured during initialization and
// then treated as immutable unless documented otherwise. All methods are safe
// for concurrent use; the engine itself holds no per-request state — durable
// state lives in the session and the caller-supplied store.
type Engine struct {
	config        Config
	codec         *token.Codec
	generator     *otpGenerator
	policy        *attemptPolicy
	store         Store
	sender        Sender
	verifier      Verifier
	validateEmail EmailValidator
	audit         *auditDispatcher
	metrics       *Metrics
}

// Authenticate drives one HTTP request through the protocol state machine and
// returns its terminal state. A session already holding an authenticated user
// short-circuits to success. Protocol-phase errors come back as an
// OutcomeFailure result, never as an error; the error return is reserved for
// an unusable engine or request.
//
// The engine writes the session but never the response: the host redirects to
// Result.Target and commits the session cookie (see [Engine.Handler]).
func (e *Engine) Authenticate(ctx context.Context, r *http.Request, sess Session) (*Result, error) {
	if e == nil || e.store == nil || e.sender == nil || e.verifier == nil {
		return nil, ErrEngineNotReady
	}
	if r == nil || sess == nil {
		return nil, errors.New("request and session required")
	}

	if user := sess.Get(e.config.SessionKeys.User); user != nil {
		return &Result{Outcome: OutcomeSuccess, Target: e.config.SuccessRedirect, User: user}, nil
	}

	result, err := e.run(ctx, r, sess)
	if err != nil {
		return e.failureResult(err), nil
	}
	return result, nil
}

func (e *Engine) run(ctx context.Context, r *http.Request, sess Session) (*Result, error) {
	creds, err := e.readCredentials(r)
	if err != nil {
		return nil, err
	}

	if creds.code != "" {
		return e.redeem(ctx, r, sess, creds.code, creds.magicLink)
	}

	// Challenges are only ever issued from a form submission. A GET that
	// carried no code has nothing left to do.
	if r.Method != http.MethodGet {
		return e.issueChallenge(ctx, r, sess, creds.email)
	}

	return nil, ErrUserNotFound
}

type credentials struct {
	email     string
	code      string
	magicLink bool
}

// readCredentials extracts the submitted email and code. A GET is a
// redemption attempt only when magic links are enabled; its path must match
// the configured callback path and its code comes URL-decoded from the query.
func (e *Engine) readCredentials(r *http.Request) (credentials, error) {
	var creds credentials

	if r.Method == http.MethodGet {
		if !e.config.MagicLink.Enabled {
			return creds, nil
		}
		if r.URL.Path != e.config.MagicLink.CallbackPath {
			return creds, ErrInvalidMagicLinkPath
		}
		creds.code = strings.TrimSpace(r.URL.Query().Get(e.config.Form.Code))
		creds.magicLink = true
		return creds, nil
	}

	if err := r.ParseForm(); err != nil {
		return creds, err
	}
	creds.email = strings.TrimSpace(r.PostForm.Get(e.config.Form.Email))
	creds.code = strings.TrimSpace(r.PostForm.Get(e.config.Form.Code))
	return creds, nil
}

func (e *Engine) failureResult(err error) *Result {
	return &Result{Outcome: OutcomeFailure, Message: e.messageFor(err), Err: err}
}

// messageFor maps every failure mode onto its user-visible message. Token
// rejections share the inactive message: an unverifiable pending token means
// the OTP must no longer be considered live.
func (e *Engine) messageFor(err error) string {
	msgs := e.config.Messages
	switch {
	case errors.Is(err, ErrRequiredEmail):
		return msgs.RequiredEmail
	case errors.Is(err, ErrInvalidEmail):
		return msgs.InvalidEmail
	case errors.Is(err, ErrInvalidCode):
		return msgs.InvalidTOTP
	case errors.Is(err, ErrTOTPInactive),
		errors.Is(err, token.ErrInvalidToken),
		errors.Is(err, token.ErrExpiredToken):
		return msgs.InactiveTOTP
	case errors.Is(err, ErrTOTPNotFound):
		return ErrTOTPNotFound.Error()
	}
	if msg := strings.TrimSpace(err.Error()); msg != "" {
		return msg
	}
	return "unknown error"
}

// Close releases background resources (the audit dispatcher). Safe on nil.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped reports how many audit events were dropped because the
// dispatcher buffer was full.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot copies the engine's counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{Counters: map[MetricID]uint64{}}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) emitAudit(ctx context.Context, eventType, email string, success bool, cause error, metadata map[string]string) {
	if e == nil || e.audit == nil {
		return
	}

	event := AuditEvent{
		Timestamp: time.Now(),
		EventType: eventType,
		Email:     email,
		IP:        clientIPFromContext(ctx),
		Success:   success,
		Metadata:  metadata,
	}
	if cause != nil {
		event.Error = cause.Error()
	}

	e.audit.Emit(ctx, event)
}
