package adminauth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ProvisionMFA starts enrollment for an authenticated principal that
// has no confirmed second factor yet. The returned handle feeds
// VerifySetup, same as the login-driven setup path.
func (e *Engine) ProvisionMFA(ctx context.Context, principalID string) (string, *SetupPayload, error) {
	if !e.ready() {
		return "", nil, ErrEngineNotReady
	}
	if principalID == "" {
		return "", nil, ErrPrincipalNotFound
	}

	principal, err := e.principals.GetByID(ctx, principalID)
	if err != nil {
		return "", nil, ErrPrincipalNotFound
	}

	mfa, err := e.principals.GetMFA(ctx, principalID)
	if err != nil {
		return "", nil, ErrMFAUnavailable
	}
	if principal.MFAEnabled && mfa.Confirmed {
		return "", nil, ErrMFAAlreadyConfigured
	}

	result, err := e.beginMFASetup(ctx, principal)
	if err != nil {
		return "", nil, err
	}
	return result.PendingID, result.Setup, nil
}

// RegenerateMFA rotates an already-confirmed secret. The caller must
// prove possession of the current authenticator; the new secret stays
// pending until VerifySetup confirms it, and the old secret keeps
// working until then.
func (e *Engine) RegenerateMFA(ctx context.Context, principalID, currentCode string) (string, *SetupPayload, error) {
	if !e.ready() {
		return "", nil, ErrEngineNotReady
	}

	principal, err := e.principals.GetByID(ctx, principalID)
	if err != nil {
		return "", nil, ErrPrincipalNotFound
	}

	if err := e.VerifyTOTP(ctx, principalID, currentCode); err != nil {
		return "", nil, err
	}

	secret, secretBase32, err := e.totp.GenerateSecret()
	if err != nil {
		return "", nil, ErrMFAUnavailable
	}

	pendingID := uuid.NewString()
	record := &pendingChallenge{
		Kind:        pendingKindSetup,
		PrincipalID: principalID,
		Secret:      secret,
		ExpiresAt:   time.Now().Add(e.config.MFA.PendingTTL).Unix(),
	}
	if err := e.pendingStore.Save(ctx, pendingID, record, e.config.MFA.PendingTTL); err != nil {
		return "", nil, ErrMFAUnavailable
	}

	e.emitAudit(ctx, eventMFARegenerated, true, principalID, "", nil, nil)

	return pendingID, &SetupPayload{
		SecretBase32:    secretBase32,
		ProvisioningURI: e.totp.ProvisionURI(secretBase32, principal.Identifier),
	}, nil
}

// RegenerateBackupCodes replaces the remaining backup codes with a
// fresh batch. Requires a valid current TOTP code; the new batch is
// returned exactly once and invalidates every earlier code.
func (e *Engine) RegenerateBackupCodes(ctx context.Context, principalID, currentCode string) ([]string, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}

	mfa, err := e.principals.GetMFA(ctx, principalID)
	if err != nil {
		return nil, ErrMFAUnavailable
	}
	if !mfa.Confirmed || len(mfa.Secret) == 0 {
		return nil, ErrMFANotConfigured
	}

	if err := e.verifyCurrentTOTP(ctx, principalID, mfa.Secret, currentCode); err != nil {
		return nil, err
	}

	codes, records, err := generateBackupCodes(
		principalID,
		e.config.MFA.BackupCodeCount,
		e.config.MFA.BackupCodeLength,
	)
	if err != nil {
		return nil, ErrMFAUnavailable
	}

	if err := e.principals.ReplaceMFA(ctx, principalID, mfa, records); err != nil {
		return nil, ErrMFAUnavailable
	}

	e.metrics.Inc(MetricBackupCodeRegenerated)
	e.emitAudit(ctx, eventBackupsReissued, true, principalID, "", nil, nil)
	return codes, nil
}

// VerifyTOTP checks a code against the principal's confirmed secret.
// Step-up checks for sensitive operations go through here; it shares
// the per-principal attempt limiter with the login flow.
func (e *Engine) VerifyTOTP(ctx context.Context, principalID, code string) error {
	if !e.ready() {
		return ErrEngineNotReady
	}

	mfa, err := e.principals.GetMFA(ctx, principalID)
	if err != nil {
		return ErrMFAUnavailable
	}
	if !mfa.Confirmed || len(mfa.Secret) == 0 {
		return ErrMFANotConfigured
	}

	return e.verifyCurrentTOTP(ctx, principalID, mfa.Secret, code)
}

func (e *Engine) verifyCurrentTOTP(ctx context.Context, principalID string, secret []byte, code string) error {
	if err := e.mfaLimiter.Check(ctx, principalID); err != nil {
		if errors.Is(err, errMFAAttemptLimited) {
			return ErrMFARateLimited
		}
		return ErrMFAUnavailable
	}

	ok, _, err := e.totp.VerifyCode(secret, code, time.Now())
	if err != nil {
		return ErrMFAUnavailable
	}
	if !ok {
		e.metrics.Inc(MetricMFAFailure)
		_ = e.mfaLimiter.RecordFailure(ctx, principalID)
		e.emitAudit(ctx, eventMFAFailure, false, principalID, "", ErrInvalidMFACode, nil)
		return ErrInvalidMFACode
	}

	_ = e.mfaLimiter.Reset(ctx, principalID)
	return nil
}
