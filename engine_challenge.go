package totpflow

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// issueChallenge runs phase one: validate the email, generate a fresh OTP,
// sign its parameters into the pending token, persist the record, deliver the
// code, and write the pending session keys.
func (e *Engine) issueChallenge(ctx context.Context, r *http.Request, sess Session, email string) (*Result, error) {
	keys := e.config.SessionKeys
	sessionEmail, _ := sess.Get(keys.Email).(string)
	sessionToken, _ := sess.Get(keys.TOTP).(string)

	resend := false
	switch {
	case email == "" && sessionEmail != "" && sessionToken != "":
		// An empty form with pending state is a resend for the pending address.
		resend = true
		email = sessionEmail
		if err := e.invalidate(ctx, sessionToken); err != nil {
			return nil, err
		}
	case sessionToken != "":
		// Only one live OTP per session: any new submission supersedes the
		// pending record before anything is issued, same address or not.
		if err := e.invalidate(ctx, sessionToken); err != nil {
			return nil, err
		}
		e.metricInc(MetricChallengeSuperseded)
	}

	if email == "" {
		e.metricInc(MetricChallengeFailure)
		e.emitAudit(ctx, auditEventChallengeIssue, "", false, ErrRequiredEmail, nil)
		return nil, ErrRequiredEmail
	}
	if err := e.validateEmail(email); err != nil {
		e.metricInc(MetricChallengeFailure)
		e.emitAudit(ctx, auditEventChallengeIssue, email, false, err, nil)
		return nil, err
	}

	secret := e.config.OTP.Secret
	if secret == "" {
		// Generated lazily, only when actually issuing. Never reused across
		// issuances.
		var err error
		secret, err = e.generator.GenerateSecret()
		if err != nil {
			return nil, err
		}
	}

	now := time.Now()
	code, err := e.generator.GenerateCode(secret, now)
	if err != nil {
		return nil, err
	}

	period := time.Duration(e.config.OTP.Period) * time.Second
	signed, err := e.codec.Sign(e.generator.Params(secret), period)
	if err != nil {
		return nil, err
	}

	magicLink := ""
	if e.config.MagicLink.Enabled {
		magicLink, err = buildMagicLink(e.config.MagicLink, e.config.Form.Code, code, r)
		if err != nil {
			return nil, err
		}
	}

	expires := now.Add(period)
	record := Record{Hash: signed, Active: true, Attempts: 0, ExpiresAt: &expires}
	if err := e.store.StoreTOTP(ctx, record); err != nil {
		e.metricInc(MetricChallengeFailure)
		e.emitAudit(ctx, auditEventChallengeIssue, email, false, err, nil)
		return nil, fmt.Errorf("totp store: %w", err)
	}

	delivery := Delivery{
		Email:     email,
		Code:      code,
		MagicLink: magicLink,
		Form:      r.PostForm,
		Request:   r,
	}
	if err := e.sender.SendTOTP(ctx, delivery); err != nil {
		e.metricInc(MetricChallengeFailure)
		e.emitAudit(ctx, auditEventChallengeIssue, email, false, err, nil)
		return nil, fmt.Errorf("totp delivery: %w", err)
	}

	sess.Set(keys.Email, email)
	sess.Set(keys.TOTP, signed)
	sess.Unset(keys.Error)

	eventType := auditEventChallengeIssue
	metric := MetricChallengeIssued
	if resend {
		eventType = auditEventChallengeResend
		metric = MetricChallengeResent
	}
	e.metricInc(metric)
	e.emitAudit(ctx, eventType, email, true, nil, nil)

	return &Result{Outcome: OutcomeSuccess, Target: e.config.SuccessRedirect}, nil
}

// invalidate deactivates a pending record. A missing record is not an error:
// the session pointer may outlive store retention.
func (e *Engine) invalidate(ctx context.Context, hash string) error {
	inactive := false
	if _, err := e.store.HandleTOTP(ctx, hash, &RecordPatch{Active: &inactive}); err != nil {
		return fmt.Errorf("totp invalidate: %w", err)
	}
	return nil
}
