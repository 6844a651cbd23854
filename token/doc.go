// Package token signs OTP generation parameters into compact, tamper-evident,
// self-expiring tokens and verifies them back.
//
// The signed token plays two roles at once: it is the session-carried pointer
// to the pending OTP (and the store lookup key), and it is self-verifying
// proof that this server issued it and that it has not expired — independent
// of any persistence-layer state. The signing secret is server-held and
// distinct from the per-issuance OTP secrets embedded in the claims.
package token
