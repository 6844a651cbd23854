package session

import (
	"errors"
	"net/http"
	"time"
)

// Store issues and decodes authenticated session cookies.
//
// Store instances are intended to be configured during initialization and
// then treated as immutable unless documented otherwise.
type Store struct {
	name   string
	secret []byte
	secure bool
}

// Option adjusts cookie attributes.
type Option func(*Store)

// WithSecure marks issued cookies Secure.
func WithSecure(secure bool) Option {
	return func(s *Store) {
		s.secure = secure
	}
}

// NewStore returns a cookie store. The secret authenticates cookie payloads
// and must be non-empty; it is unrelated to the engine's token signing
// secret.
func NewStore(name, secret string, opts ...Option) (*Store, error) {
	if name == "" {
		return nil, errors.New("cookie name required")
	}
	if secret == "" {
		return nil, errors.New("cookie secret required")
	}

	s := &Store{name: name, secret: []byte(secret)}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Load resolves the request's session. A missing or unauthenticated cookie
// yields a fresh empty session, never an error.
func (s *Store) Load(r *http.Request) (*Session, error) {
	sess := &Session{store: s, values: map[string]any{}}

	cookie, err := r.Cookie(s.name)
	if err != nil {
		return sess, nil
	}
	values, err := s.decode(cookie.Value)
	if err != nil {
		return sess, nil
	}

	sess.values = values
	return sess, nil
}

// Session is one request's mutable session state. Not safe for concurrent
// use; a session belongs to a single request.
type Session struct {
	store  *Store
	values map[string]any
}

// Get returns the value under key, or nil.
func (s *Session) Get(key string) any {
	return s.values[key]
}

// Set stores value under key. Values must be JSON-serializable.
func (s *Session) Set(key string, value any) {
	s.values[key] = value
}

// Unset removes key.
func (s *Session) Unset(key string) {
	delete(s.values, key)
}

// Commit serializes the session into the response's Set-Cookie header. A
// zero maxAge issues a browser-session cookie.
func (s *Session) Commit(w http.ResponseWriter, maxAge time.Duration) error {
	encoded, err := s.store.encode(s.values)
	if err != nil {
		return err
	}

	cookie := &http.Cookie{
		Name:     s.store.name,
		Value:    encoded,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.store.secure,
		SameSite: http.SameSiteLaxMode,
	}
	if maxAge > 0 {
		cookie.MaxAge = int(maxAge / time.Second)
	}

	http.SetCookie(w, cookie)
	return nil
}
