package adminauth

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Mode selects how strictly Validate enforces configuration floors.
// Production tightens limits that are routinely relaxed in tests.
type Mode string

const (
	ModeDevelopment Mode = "development"
	ModeProduction  Mode = "production"
)

// TOTPConfig controls code generation and verification. Defaults follow
// RFC 6238 and the common authenticator apps: 30 second steps, 6 digits,
// HMAC-SHA1, and a verification window of ±3 steps.
type TOTPConfig struct {
	Issuer    string
	Digits    int
	Period    int
	Algorithm string
	Skew      int
}

// MFAConfig controls enrollment and the pending-challenge lifecycle
// between the credential step and the code step of login.
type MFAConfig struct {
	// PendingTTL bounds how long a login may sit between password and
	// code. Expired challenges are discarded server-side.
	PendingTTL time.Duration
	// MaxAttempts caps failed code submissions per challenge before the
	// challenge itself is invalidated.
	MaxAttempts int

	BackupCodeCount  int
	BackupCodeLength int

	// AttemptLimit and AttemptWindow throttle per-principal verification
	// attempts across challenges.
	AttemptLimit  int
	AttemptWindow time.Duration
}

// SessionConfig controls the Redis session store behind issued tokens.
type SessionConfig struct {
	RedisPrefix string
	TTL         time.Duration
}

// JWTConfig controls access token issuance.
type JWTConfig struct {
	AccessTTL     time.Duration
	SigningMethod string
	PrivateKey    []byte
	PublicKey     []byte
	Issuer        string
}

// PasswordConfig carries argon2id parameters.
type PasswordConfig struct {
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// AuditConfig controls the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	// DropIfFull sheds events instead of blocking callers when the buffer
	// is saturated. Dropped events are counted.
	DropIfFull bool
}

// MetricsConfig controls the in-process counter set.
type MetricsConfig struct {
	Enabled bool
}

// Config is the complete engine configuration. Use DefaultConfig as the
// base and override fields; the Builder clones it before use.
type Config struct {
	Mode Mode

	TOTP     TOTPConfig
	MFA      MFAConfig
	Session  SessionConfig
	JWT      JWTConfig
	Password PasswordConfig
	Audit    AuditConfig
	Metrics  MetricsConfig
}

// DefaultConfig returns the development-grade baseline configuration.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		Mode: ModeDevelopment,
		TOTP: TOTPConfig{
			Issuer:    "SnapMarket Admin",
			Digits:    6,
			Period:    30,
			Algorithm: "SHA1",
			Skew:      3,
		},
		MFA: MFAConfig{
			PendingTTL:       5 * time.Minute,
			MaxAttempts:      5,
			BackupCodeCount:  8,
			BackupCodeLength: 8,
			AttemptLimit:     5,
			AttemptWindow:    time.Minute,
		},
		Session: SessionConfig{
			RedisPrefix: "adm",
			TTL:         8 * time.Hour,
		},
		JWT: JWTConfig{
			AccessTTL:     15 * time.Minute,
			SigningMethod: "hs256",
			Issuer:        "snapmarket-admin",
		},
		Password: PasswordConfig{
			Memory:      64 * 1024,
			Time:        2,
			Parallelism: 2,
			SaltLength:  16,
			KeyLength:   32,
		},
		Audit: AuditConfig{
			Enabled:    true,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.JWT.PrivateKey = cloneBytes(cfg.JWT.PrivateKey)
	out.JWT.PublicKey = cloneBytes(cfg.JWT.PublicKey)
	return out
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// Validate rejects configurations the engine cannot run safely with.
// Production mode additionally enforces hardening floors on the pending
// window, attempt caps, and token lifetimes.
func (c *Config) Validate() error {
	switch c.Mode {
	case ModeDevelopment, ModeProduction:
	case "":
		c.Mode = ModeDevelopment
	default:
		return fmt.Errorf("unknown mode %q", c.Mode)
	}

	if strings.TrimSpace(c.TOTP.Issuer) == "" {
		return errors.New("TOTP.Issuer must be set")
	}
	if c.TOTP.Digits != 6 {
		return errors.New("TOTP.Digits must be 6")
	}
	if c.TOTP.Period < 15 || c.TOTP.Period > 120 {
		return errors.New("TOTP.Period must be between 15 and 120 seconds")
	}
	switch strings.ToUpper(c.TOTP.Algorithm) {
	case "", "SHA1", "SHA256", "SHA512":
	default:
		return errors.New("TOTP.Algorithm must be SHA1, SHA256, or SHA512")
	}
	if c.TOTP.Skew < 0 || c.TOTP.Skew > 10 {
		return errors.New("TOTP.Skew must be between 0 and 10 steps")
	}

	if c.MFA.PendingTTL < time.Minute || c.MFA.PendingTTL > 30*time.Minute {
		return errors.New("MFA.PendingTTL must be between 1 and 30 minutes")
	}
	if c.MFA.MaxAttempts < 1 || c.MFA.MaxAttempts > 20 {
		return errors.New("MFA.MaxAttempts must be between 1 and 20")
	}
	if c.MFA.BackupCodeCount < 1 || c.MFA.BackupCodeCount > 32 {
		return errors.New("MFA.BackupCodeCount must be between 1 and 32")
	}
	if c.MFA.BackupCodeLength < 8 || c.MFA.BackupCodeLength > 32 {
		return errors.New("MFA.BackupCodeLength must be between 8 and 32")
	}
	if c.MFA.AttemptLimit < 1 {
		return errors.New("MFA.AttemptLimit must be at least 1")
	}
	if c.MFA.AttemptWindow < time.Second {
		return errors.New("MFA.AttemptWindow must be at least 1 second")
	}

	if strings.TrimSpace(c.Session.RedisPrefix) == "" {
		return errors.New("Session.RedisPrefix must be set")
	}
	if c.Session.TTL < time.Minute {
		return errors.New("Session.TTL must be at least 1 minute")
	}

	if c.JWT.AccessTTL <= 0 {
		return errors.New("JWT.AccessTTL must be positive")
	}
	if len(c.JWT.PrivateKey) == 0 {
		return errors.New("JWT.PrivateKey must be set")
	}

	if c.Mode == ModeProduction {
		if c.TOTP.Skew > 3 {
			return errors.New("production: TOTP.Skew must not exceed 3 steps")
		}
		if c.MFA.PendingTTL > 10*time.Minute {
			return errors.New("production: MFA.PendingTTL must not exceed 10 minutes")
		}
		if c.JWT.AccessTTL > time.Hour {
			return errors.New("production: JWT.AccessTTL must not exceed 1 hour")
		}
		if c.JWT.SigningMethod == "hs256" && len(c.JWT.PrivateKey) < 32 {
			return errors.New("production: hs256 key must be at least 32 bytes")
		}
	}

	return nil
}
