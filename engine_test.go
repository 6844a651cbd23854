package totpflow

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"
)

func engineTestConfig() Config {
	cfg := DefaultConfig()
	cfg.Secret = "test-signing-secret"
	cfg.SuccessRedirect = "/verify"
	cfg.FailureRedirect = "/login"
	cfg.MagicLink.HostURL = "http://app.test"
	return cfg
}

type captureSender struct {
	mu         sync.Mutex
	deliveries []Delivery
	fail       error
}

func (s *captureSender) SendTOTP(_ context.Context, d Delivery) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	s.deliveries = append(s.deliveries, d)
	return nil
}

func (s *captureSender) last(t *testing.T) Delivery {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.deliveries) == 0 {
		t.Fatal("no deliveries captured")
	}
	return s.deliveries[len(s.deliveries)-1]
}

func (s *captureSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.deliveries)
}

// testSession is a map-backed Session; Commit is a no-op because engine tests
// inspect the values directly.
type testSession struct {
	values map[string]any
}

func newTestSession() *testSession {
	return &testSession{values: map[string]any{}}
}

func (s *testSession) Get(key string) any            { return s.values[key] }
func (s *testSession) Set(key string, value any)     { s.values[key] = value }
func (s *testSession) Unset(key string)              { delete(s.values, key) }
func (s *testSession) Commit(http.ResponseWriter, time.Duration) error { return nil }

type testEnv struct {
	engine *Engine
	store  *MemoryStore
	sender *captureSender
}

func newTestEngine(t *testing.T, cfg Config) *testEnv {
	t.Helper()

	store := NewMemoryStore()
	sender := &captureSender{}

	engine, err := New().
		WithConfig(cfg).
		WithStore(store).
		WithSender(sender).
		WithVerifier(VerifierFunc(func(_ context.Context, in VerifyInput) (any, error) {
			return map[string]any{"email": in.Email}, nil
		})).
		WithMetricsEnabled(true).
		Build()
	if err != nil {
		t.Fatalf("engine build failed: %v", err)
	}
	t.Cleanup(engine.Close)

	return &testEnv{engine: engine, store: store, sender: sender}
}

func postForm(values url.Values) *http.Request {
	r := httptest.NewRequest(http.MethodPost, "http://app.test/login", strings.NewReader(values.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return r
}

// startChallenge submits an email and returns the delivered code plus the
// signed pending token now held by the session.
func startChallenge(t *testing.T, env *testEnv, sess Session, email string) (code, pending string) {
	t.Helper()

	result, err := env.engine.Authenticate(context.Background(), postForm(url.Values{"email": {email}}), sess)
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if result.Outcome != OutcomeSuccess {
		t.Fatalf("expected challenge success, got %+v", result)
	}

	pending, _ = sess.Get(env.engine.config.SessionKeys.TOTP).(string)
	if pending == "" {
		t.Fatal("expected pending token in session")
	}
	return env.sender.last(t).Code, pending
}

func pendingRecord(t *testing.T, env *testEnv, hash string) *Record {
	t.Helper()
	record, err := env.store.HandleTOTP(context.Background(), hash, nil)
	if err != nil {
		t.Fatalf("HandleTOTP failed: %v", err)
	}
	return record
}

func TestAuthenticateRequiresBuild(t *testing.T) {
	var engine *Engine
	if _, err := engine.Authenticate(context.Background(), postForm(nil), newTestSession()); err != ErrEngineNotReady {
		t.Fatalf("expected ErrEngineNotReady, got %v", err)
	}
}

func TestAuthenticatedSessionShortCircuits(t *testing.T) {
	env := newTestEngine(t, engineTestConfig())
	sess := newTestSession()
	sess.Set("user", map[string]any{"email": "a@x.com"})

	result, err := env.engine.Authenticate(context.Background(), postForm(nil), sess)
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if result.Outcome != OutcomeSuccess || result.Target != "/verify" {
		t.Fatalf("expected success redirect, got %+v", result)
	}
	if result.User == nil {
		t.Fatal("expected user carried on short-circuit")
	}
	if env.sender.count() != 0 {
		t.Fatal("expected no delivery on short-circuit")
	}
}

func TestFallthroughWithoutPhaseIsUserNotFound(t *testing.T) {
	cfg := engineTestConfig()
	cfg.MagicLink.Enabled = false
	env := newTestEngine(t, cfg)

	// A GET never matches a phase when magic links are off.
	r := httptest.NewRequest(http.MethodGet, "http://app.test/magic-link?code=123456", nil)
	result, err := env.engine.Authenticate(context.Background(), r, newTestSession())
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if result.Outcome != OutcomeFailure {
		t.Fatalf("expected failure, got %+v", result)
	}
	if result.Message != ErrUserNotFound.Error() {
		t.Fatalf("unexpected message: %q", result.Message)
	}
}
