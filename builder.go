package totpflow

import (
	"errors"

	"github.com/totpflow/totpflow/token"
)

// Builder assembles an [Engine]. Construction is allocation-only: no
// randomness is consumed and no I/O happens until the first challenge is
// issued.
//
// Builder instances are intended to be configured during initialization and
// then treated as immutable unless documented otherwise.
type Builder struct {
	config Config

	store          Store
	sender         Sender
	verifier       Verifier
	emailValidator EmailValidator
	auditSink      AuditSink

	built bool
}

// New returns a builder seeded with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig replaces the builder's configuration wholesale. Callers usually
// start from [DefaultConfig] and override fields.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithSecret sets the token signing secret.
func (b *Builder) WithSecret(secret string) *Builder {
	b.config.Secret = secret
	return b
}

// WithRedirects sets the success and failure redirect targets. An empty
// failure target means failures surface to the host instead of redirecting.
func (b *Builder) WithRedirects(success, failure string) *Builder {
	b.config.SuccessRedirect = success
	b.config.FailureRedirect = failure
	return b
}

// WithStore sets the OTP record persistence backend.
func (b *Builder) WithStore(store Store) *Builder {
	b.store = store
	return b
}

// WithSender sets the out-of-band delivery callback.
func (b *Builder) WithSender(sender Sender) *Builder {
	b.sender = sender
	return b
}

// WithVerifier sets the application user resolution callback.
func (b *Builder) WithVerifier(verifier Verifier) *Builder {
	b.verifier = verifier
	return b
}

// WithEmailValidator overrides the default structural email validator.
func (b *Builder) WithEmailValidator(validate EmailValidator) *Builder {
	b.emailValidator = validate
	return b
}

// WithAuditSink sets the audit event sink and enables auditing.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	b.config.Audit.Enabled = sink != nil
	return b
}

// WithMetricsEnabled toggles the counter set.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// Build validates the configuration and wires the engine. Configuration
// errors (missing secret, missing success redirect) are fatal here, before
// any session or store interaction.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if b.store == nil {
		return nil, errors.New("store required")
	}
	if b.sender == nil {
		return nil, errors.New("sender required")
	}
	if b.verifier == nil {
		return nil, errors.New("verifier required")
	}

	codec, err := token.NewCodec(cfg.Secret)
	if err != nil {
		return nil, err
	}

	generator := newOTPGenerator(cfg.OTP)

	validate := b.emailValidator
	if validate == nil {
		validate = defaultEmailValidator()
	}

	engine := &Engine{
		config:    cfg,
		codec:     codec,
		generator: generator,
		policy: &attemptPolicy{
			maxAttempts: cfg.OTP.MaxAttempts,
			generator:   generator,
		},
		store:         b.store,
		sender:        b.sender,
		verifier:      b.verifier,
		validateEmail: validate,
		audit:         newAuditDispatcher(cfg.Audit, b.auditSink),
		metrics:       NewMetrics(cfg.Metrics),
	}

	b.built = true

	return engine, nil
}
