package totpflow

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func builderFixture() *Builder {
	return New().
		WithSecret("test-signing-secret").
		WithRedirects("/verify", "/login").
		WithStore(NewMemoryStore()).
		WithSender(&captureSender{}).
		WithVerifier(VerifierFunc(func(_ context.Context, in VerifyInput) (any, error) {
			return in.Email, nil
		}))
}

func TestBuildSucceedsWithRequiredParts(t *testing.T) {
	engine, err := builderFixture().Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)

	if engine.config.Secret != "test-signing-secret" {
		t.Fatalf("unexpected secret: %q", engine.config.Secret)
	}
	if engine.config.SuccessRedirect != "/verify" || engine.config.FailureRedirect != "/login" {
		t.Fatalf("unexpected redirects: %+v", engine.config)
	}
}

func TestBuildRequiresSecret(t *testing.T) {
	_, err := builderFixture().WithSecret("").Build()
	if !errors.Is(err, ErrRequiredSecret) {
		t.Fatalf("expected ErrRequiredSecret, got %v", err)
	}
}

func TestBuildRequiresSuccessRedirect(t *testing.T) {
	_, err := builderFixture().WithRedirects("", "/login").Build()
	if !errors.Is(err, ErrRequiredSuccessRedirect) {
		t.Fatalf("expected ErrRequiredSuccessRedirect, got %v", err)
	}
}

func TestBuildRequiresCallbacks(t *testing.T) {
	cases := []struct {
		name string
		b    *Builder
		want string
	}{
		{"store", builderFixture().WithStore(nil), "store required"},
		{"sender", builderFixture().WithSender(nil), "sender required"},
		{"verifier", builderFixture().WithVerifier(nil), "verifier required"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.b.Build()
			if err == nil || err.Error() != tc.want {
				t.Fatalf("expected %q, got %v", tc.want, err)
			}
		})
	}
}

func TestBuilderIsSingleUse(t *testing.T) {
	b := builderFixture()

	engine, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)

	if _, err := b.Build(); err == nil || !strings.Contains(err.Error(), "already used") {
		t.Fatalf("expected reuse error, got %v", err)
	}
}

func TestBuildCopiesConfig(t *testing.T) {
	cfg := engineTestConfig()
	b := New().
		WithConfig(cfg).
		WithStore(NewMemoryStore()).
		WithSender(&captureSender{}).
		WithVerifier(VerifierFunc(func(_ context.Context, in VerifyInput) (any, error) {
			return in.Email, nil
		}))

	engine, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)

	// Mutating the caller's config after Build must not reach the engine.
	cfg.SuccessRedirect = "/elsewhere"
	if engine.config.SuccessRedirect != "/verify" {
		t.Fatalf("expected config copied at build, got %q", engine.config.SuccessRedirect)
	}
}

func TestBuildRejectsBadOTPSettings(t *testing.T) {
	cfg := engineTestConfig()
	cfg.OTP.Digits = 0

	_, err := builderFixture().WithConfig(cfg).Build()
	if err == nil || !strings.Contains(err.Error(), "digits") {
		t.Fatalf("expected digits validation error, got %v", err)
	}
}
