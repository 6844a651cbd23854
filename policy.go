package totpflow

import (
	"context"
	"fmt"
	"time"

	"github.com/totpflow/totpflow/token"
)

// attemptPolicy decides accept / reject-retryable / reject-terminal for one
// submitted code against the persisted record, and issues the side-effecting
// state transitions (attempt increment, deactivation) through the store.
type attemptPolicy struct {
	maxAttempts int
	generator   *otpGenerator
}

// Evaluate returns nil when the code matches; the caller must then deactivate
// the record. The attempt counter increments exactly once per failed
// comparison and never on the NotFound/Inactive short-circuits. The mismatch
// that exhausts the budget deactivates the record in the same update.
func (p *attemptPolicy) Evaluate(ctx context.Context, store Store, hash, code string, claims *token.Claims, now time.Time) error {
	record, err := store.HandleTOTP(ctx, hash, nil)
	if err != nil {
		return fmt.Errorf("totp lookup: %w", err)
	}
	if record == nil {
		return ErrTOTPNotFound
	}
	if !record.Active {
		return ErrTOTPInactive
	}
	if record.Attempts >= p.maxAttempts {
		inactive := false
		if _, err := store.HandleTOTP(ctx, hash, &RecordPatch{Active: &inactive}); err != nil {
			return fmt.Errorf("totp deactivate: %w", err)
		}
		return ErrTOTPInactive
	}

	if !p.generator.VerifyCode(claims, code, now) {
		attempts := record.Attempts + 1
		patch := &RecordPatch{Attempts: &attempts}
		if attempts >= p.maxAttempts {
			inactive := false
			patch.Active = &inactive
		}
		if _, err := store.HandleTOTP(ctx, hash, patch); err != nil {
			return fmt.Errorf("totp attempt increment: %w", err)
		}
		return ErrInvalidCode
	}

	return nil
}
