// Package session provides a cookie-backed implementation of the key/value
// session contract the engine consumes.
//
// Values are JSON-serialized and the payload is HMAC-SHA256 authenticated
// with a server-held secret. A missing, malformed, or tampered cookie yields
// a fresh empty session: session integrity failures are not user-actionable
// and must not leak detail.
package session
