package adminauth

import (
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/snapmarket/adminauth/jwt"
	"github.com/snapmarket/adminauth/password"
	"github.com/snapmarket/adminauth/session"
)

// Builder assembles an Engine. Configure it once during startup and
// call Build; a Builder is single-use.
type Builder struct {
	config Config
	redis  *redis.Client

	principals PrincipalStore
	roles      RoleDirectory
	auditSink  AuditSink

	built bool
}

// New returns a Builder preloaded with the default configuration.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the builder's configuration. The config is
// cloned, so later mutations by the caller have no effect.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis sets the Redis client backing sessions, pending MFA
// challenges, and attempt limiters. Required.
func (b *Builder) WithRedis(client *redis.Client) *Builder {
	b.redis = client
	return b
}

// WithPrincipalStore sets the caller-implemented principal storage.
// Required.
func (b *Builder) WithPrincipalStore(store PrincipalStore) *Builder {
	b.principals = store
	return b
}

// WithRoleDirectory sets the caller-implemented role-to-grants lookup.
// Required.
func (b *Builder) WithRoleDirectory(dir RoleDirectory) *Builder {
	b.roles = dir
	return b
}

// WithAuditSink sets the destination for audit events. Defaults to a
// no-op sink when omitted.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithMetricsEnabled toggles counter collection without replacing the
// whole config.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// Build validates the configuration and wires the Engine together.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)

	if b.redis == nil {
		return nil, errors.New("redis client required")
	}
	if b.principals == nil {
		return nil, errors.New("principal store required")
	}
	if b.roles == nil {
		return nil, errors.New("role directory required")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	engine := &Engine{
		config:       cfg,
		principals:   b.principals,
		roles:        b.roles,
		sessionStore: session.NewStore(b.redis, cfg.Session.RedisPrefix),
		pendingStore: newPendingChallengeStore(b.redis),
		mfaLimiter:   newMFALimiter(b.redis, cfg.MFA),
		totp:         newTOTPManager(cfg.TOTP),
		audit:        newAuditDispatcher(cfg.Audit, b.auditSink),
		metrics:      NewMetrics(cfg.Metrics),
	}

	ph, err := password.NewArgon2(password.Config{
		Memory:      cfg.Password.Memory,
		Time:        cfg.Password.Time,
		Parallelism: cfg.Password.Parallelism,
		SaltLength:  cfg.Password.SaltLength,
		KeyLength:   cfg.Password.KeyLength,
	})
	if err != nil {
		return nil, err
	}
	engine.passwordHash = ph

	jm, err := jwt.NewManager(jwt.Config{
		AccessTTL:     cfg.JWT.AccessTTL,
		SigningMethod: jwt.SigningMethod(cfg.JWT.SigningMethod),
		PrivateKey:    cloneBytes(cfg.JWT.PrivateKey),
		PublicKey:     cloneBytes(cfg.JWT.PublicKey),
		Issuer:        cfg.JWT.Issuer,
	})
	if err != nil {
		return nil, err
	}
	engine.jwtManager = jm

	b.built = true

	return engine, nil
}
