package totpflow

import (
	"crypto/rand"
	"errors"
	"strings"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"

	"github.com/totpflow/totpflow/token"
)

// Clock-skew tolerance in time steps. A property of the underlying RFC 6238
// check, not separately configurable.
const totpSkew = 1

type otpGenerator struct {
	config OTPConfig
}

func newOTPGenerator(cfg OTPConfig) *otpGenerator {
	return &otpGenerator{config: cfg}
}

// GenerateSecret produces a cryptographically random secret over the
// configured alphabet. Uniqueness per call is probabilistic; the space is
// large by construction and collisions are not defended against.
func (g *otpGenerator) GenerateSecret() (string, error) {
	if g == nil {
		return "", ErrEngineNotReady
	}
	buf := make([]byte, g.config.SecretLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	out := make([]byte, len(buf))
	for i, b := range buf {
		out[i] = g.config.CharSet[int(b)%len(g.config.CharSet)]
	}
	return string(out), nil
}

// Params returns the generation parameter set for one issuance, ready to be
// embedded in a signed token. The raw code is never part of it.
func (g *otpGenerator) Params(secret string) token.Claims {
	return token.Claims{
		Secret:    secret,
		Algorithm: g.config.Algorithm,
		CharSet:   g.config.CharSet,
		Digits:    g.config.Digits,
		Period:    g.config.Period,
	}
}

// GenerateCode derives the numeric code for the current time step.
func (g *otpGenerator) GenerateCode(secret string, at time.Time) (string, error) {
	if g == nil {
		return "", ErrEngineNotReady
	}
	alg, err := otpAlgorithm(g.config.Algorithm)
	if err != nil {
		return "", err
	}
	return totp.GenerateCodeCustom(secret, at, totp.ValidateOpts{
		Period:    uint(g.config.Period),
		Skew:      totpSkew,
		Digits:    otp.Digits(g.config.Digits),
		Algorithm: alg,
	})
}

// VerifyCode checks a submitted code against the embedded token parameters,
// within the standard skew window.
func (g *otpGenerator) VerifyCode(claims *token.Claims, code string, at time.Time) bool {
	if g == nil || claims == nil {
		return false
	}
	alg, err := otpAlgorithm(claims.Algorithm)
	if err != nil {
		return false
	}
	ok, err := totp.ValidateCustom(strings.TrimSpace(code), claims.Secret, at, totp.ValidateOpts{
		Period:    uint(claims.Period),
		Skew:      totpSkew,
		Digits:    otp.Digits(claims.Digits),
		Algorithm: alg,
	})
	return ok && err == nil
}

func otpAlgorithm(name string) (otp.Algorithm, error) {
	switch strings.ToUpper(name) {
	case "", "SHA1":
		return otp.AlgorithmSHA1, nil
	case "SHA256":
		return otp.AlgorithmSHA256, nil
	case "SHA512":
		return otp.AlgorithmSHA512, nil
	default:
		return 0, errors.New("unsupported totp algorithm")
	}
}
