package totpflow

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/totpflow/totpflow/token"
)

func policyFixture(t *testing.T) (*attemptPolicy, *MemoryStore, token.Claims, string) {
	t.Helper()

	g := newOTPGenerator(testOTPConfig())
	secret, err := g.GenerateSecret()
	if err != nil {
		t.Fatalf("GenerateSecret failed: %v", err)
	}
	code, err := g.GenerateCode(secret, time.Now())
	if err != nil {
		t.Fatalf("GenerateCode failed: %v", err)
	}

	policy := &attemptPolicy{maxAttempts: 3, generator: g}
	store := NewMemoryStore()
	return policy, store, g.Params(secret), code
}

func seedRecord(t *testing.T, store *MemoryStore, hash string, active bool, attempts int) {
	t.Helper()
	if err := store.StoreTOTP(context.Background(), Record{Hash: hash, Active: active, Attempts: attempts}); err != nil {
		t.Fatalf("StoreTOTP failed: %v", err)
	}
}

func TestPolicyMissingRecord(t *testing.T) {
	policy, store, claims, code := policyFixture(t)

	err := policy.Evaluate(context.Background(), store, "absent", code, &claims, time.Now())
	if !errors.Is(err, ErrTOTPNotFound) {
		t.Fatalf("expected ErrTOTPNotFound, got %v", err)
	}
}

func TestPolicyInactiveRecordIsTerminal(t *testing.T) {
	policy, store, claims, code := policyFixture(t)
	seedRecord(t, store, "h1", false, 0)

	err := policy.Evaluate(context.Background(), store, "h1", code, &claims, time.Now())
	if !errors.Is(err, ErrTOTPInactive) {
		t.Fatalf("expected ErrTOTPInactive, got %v", err)
	}

	// Terminal short-circuits never touch the attempt counter.
	record, _ := store.HandleTOTP(context.Background(), "h1", nil)
	if record.Attempts != 0 {
		t.Fatalf("expected attempts untouched, got %d", record.Attempts)
	}
}

func TestPolicyExhaustedAttemptsDeactivates(t *testing.T) {
	policy, store, claims, code := policyFixture(t)
	seedRecord(t, store, "h1", true, 3)

	err := policy.Evaluate(context.Background(), store, "h1", code, &claims, time.Now())
	if !errors.Is(err, ErrTOTPInactive) {
		t.Fatalf("expected ErrTOTPInactive, got %v", err)
	}

	record, _ := store.HandleTOTP(context.Background(), "h1", nil)
	if record.Active {
		t.Fatal("expected record deactivated")
	}
}

func TestPolicyMismatchIncrementsAttempts(t *testing.T) {
	policy, store, claims, _ := policyFixture(t)
	seedRecord(t, store, "h1", true, 0)

	for want := 1; want <= 2; want++ {
		err := policy.Evaluate(context.Background(), store, "h1", "000000", &claims, time.Now())
		if !errors.Is(err, ErrInvalidCode) {
			t.Fatalf("attempt %d: expected ErrInvalidCode, got %v", want, err)
		}
		record, _ := store.HandleTOTP(context.Background(), "h1", nil)
		if record.Attempts != want {
			t.Fatalf("attempt %d: expected counter %d, got %d", want, want, record.Attempts)
		}
		if !record.Active {
			t.Fatalf("attempt %d: expected record still active", want)
		}
	}

	// Third mismatch exhausts the budget and deactivates in the same update.
	err := policy.Evaluate(context.Background(), store, "h1", "000000", &claims, time.Now())
	if !errors.Is(err, ErrInvalidCode) {
		t.Fatalf("expected ErrInvalidCode, got %v", err)
	}
	record, _ := store.HandleTOTP(context.Background(), "h1", nil)
	if record.Attempts != 3 {
		t.Fatalf("expected counter 3, got %d", record.Attempts)
	}
	if record.Active {
		t.Fatal("expected record deactivated after exhausting attempts")
	}

	// Correctness no longer matters once deactivated.
	err = policy.Evaluate(context.Background(), store, "h1", "000000", &claims, time.Now())
	if !errors.Is(err, ErrTOTPInactive) {
		t.Fatalf("expected ErrTOTPInactive after deactivation, got %v", err)
	}
}

func TestPolicyMatchLeavesRecordForCaller(t *testing.T) {
	policy, store, claims, code := policyFixture(t)
	seedRecord(t, store, "h1", true, 1)

	if err := policy.Evaluate(context.Background(), store, "h1", code, &claims, time.Now()); err != nil {
		t.Fatalf("expected match, got %v", err)
	}

	// The policy accepts; deactivation is the caller's move.
	record, _ := store.HandleTOTP(context.Background(), "h1", nil)
	if !record.Active {
		t.Fatal("expected record still active after a match")
	}
	if record.Attempts != 1 {
		t.Fatalf("expected attempts unchanged on match, got %d", record.Attempts)
	}
}
