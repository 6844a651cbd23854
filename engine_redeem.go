package totpflow

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// redeem runs phase two: verify the pending token, run the attempt/expiry
// policy against the submitted code, consume the record, and resolve the
// application user through the verification callback.
func (e *Engine) redeem(ctx context.Context, r *http.Request, sess Session, code string, magicLink bool) (*Result, error) {
	keys := e.config.SessionKeys
	sessionEmail, _ := sess.Get(keys.Email).(string)
	sessionToken, _ := sess.Get(keys.TOTP).(string)

	if sessionToken == "" {
		e.metricInc(MetricRedeemFailure)
		return nil, ErrTOTPNotFound
	}

	claims, err := e.codec.Verify(sessionToken)
	if err != nil {
		// An unverifiable or expired pending token means the OTP must no
		// longer be considered live: deactivate the record and report the
		// inactive message instead of a generic error.
		e.metricInc(MetricTokenRejected)
		e.metricInc(MetricRedeemFailure)
		if derr := e.invalidate(ctx, sessionToken); derr != nil {
			return nil, derr
		}
		e.emitAudit(ctx, auditEventRedeem, sessionEmail, false, err, map[string]string{
			"reason": "token_rejected",
		})
		return nil, fmt.Errorf("%w: %v", ErrTOTPInactive, err)
	}

	if err := e.policy.Evaluate(ctx, e.store, sessionToken, code, claims, time.Now()); err != nil {
		e.metricInc(MetricRedeemFailure)
		switch {
		case errors.Is(err, ErrInvalidCode):
			e.metricInc(MetricCodeInvalid)
		case errors.Is(err, ErrTOTPInactive):
			e.metricInc(MetricRecordInactive)
		}
		e.emitAudit(ctx, auditEventRedeem, sessionEmail, false, err, nil)
		return nil, err
	}

	// Single use: the record is deactivated before the application verifier
	// runs, so a concurrent replay of the same code cannot pass the policy.
	if err := e.invalidate(ctx, sessionToken); err != nil {
		return nil, err
	}

	input := VerifyInput{
		Email:     sessionEmail,
		MagicLink: magicLink,
		Form:      r.PostForm,
		Request:   r,
	}
	if magicLink {
		input.Code = code
	}
	user, err := e.verifier.Verify(ctx, input)
	if err != nil {
		e.metricInc(MetricRedeemFailure)
		e.emitAudit(ctx, auditEventRedeem, sessionEmail, false, err, map[string]string{
			"reason": "verifier_rejected",
		})
		return nil, err
	}

	sess.Set(keys.User, user)
	sess.Unset(keys.Email)
	sess.Unset(keys.TOTP)
	sess.Unset(keys.Error)

	e.metricInc(MetricRedeemSuccess)
	e.emitAudit(ctx, auditEventRedeem, sessionEmail, true, nil, nil)

	return &Result{Outcome: OutcomeSuccess, Target: e.config.SuccessRedirect, User: user}, nil
}
