package totpflow

// Outcome classifies the terminal state of one authentication request.
type Outcome uint8

const (
	// OutcomeContinue means the request matched no protocol phase. The engine
	// never surfaces it from Authenticate — an unmatched request degrades to a
	// failure — but hosts composing their own drivers may use it.
	OutcomeContinue Outcome = iota
	// OutcomeSuccess means the request terminated the phase successfully and
	// the host should redirect to Target after committing the session.
	OutcomeSuccess
	// OutcomeFailure means a protocol-phase error occurred. Message carries the
	// user-visible reason and Err the underlying error.
	OutcomeFailure
)

// Result is the explicit terminal state returned by [Engine.Authenticate].
// The host performs the actual HTTP redirect; the engine never writes to the
// response itself.
type Result struct {
	Outcome Outcome

	// Target is the redirect destination for OutcomeSuccess.
	Target string

	// Message is the user-visible reason for OutcomeFailure.
	Message string

	// Err is the underlying error for OutcomeFailure. Hosts with no failure
	// redirect configured should propagate it instead of redirecting.
	Err error

	// User is the application user resolved by the verifier, set only when a
	// redemption completed. Challenge-phase successes leave it nil.
	User any
}
