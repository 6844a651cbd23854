// Package totpflow implements a challenge/response one-time-passcode (OTP)
// authentication protocol for web request handlers. A caller authenticates a
// user by collecting an email address, generating a time-bound numeric code
// for it, delivering the code out-of-band through a caller-supplied sender,
// and accepting either the typed-back code or a clicked magic link, within a
// bounded number of attempts and a bounded time window.
//
// The protocol is stateless between requests: the only durable state is the
// session cookie (pending email + a signed pending-OTP token) and the record
// kept in the caller-supplied [Store]. The signed token doubles as the store
// lookup key and as self-verifying proof that this server issued the pending
// OTP and that it has not expired.
//
// # Architecture boundaries
//
// totpflow is the public surface. It exposes [Engine], [Builder], [Config],
// the callback contracts ([Store], [Sender], [Verifier], [EmailValidator],
// [Session]), and value types. The token/ subpackage owns signing; session/
// provides a cookie-backed Session implementation.
//
// # What this package must NOT do
//
//   - Serve HTTP or own routing: [Engine.Handler] is an adapter, the router
//     belongs to the host.
//   - Retry or time-limit store and sender callbacks; they are awaited once
//     and their failure fails the request.
//   - Delete persisted records: deactivation is the terminal state and
//     retention belongs to the store.
//   - Lock around the invalidate-then-issue sequence: at most one live OTP
//     per session is a protocol invariant, and concurrent requests racing it
//     can lose an update by design.
package totpflow
