package adminauth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Login verifies credentials and routes the attempt into the MFA state
// machine. Unknown identifier, wrong password, and inactive account all
// collapse into ErrInvalidCredentials so responses cannot be used to
// enumerate accounts. A session is never issued here; every principal
// goes through a second factor.
func (e *Engine) Login(ctx context.Context, identifier, password string) (*LoginResult, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}
	if identifier == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	principal, err := e.principals.GetByIdentifier(ctx, identifier)
	if err != nil {
		return nil, e.failLogin(ctx, "", err)
	}
	if !principal.Active || principal.PasswordHash == "" {
		return nil, e.failLogin(ctx, principal.PrincipalID, nil)
	}

	ok, err := e.passwordHash.Verify(password, principal.PasswordHash)
	if err != nil || !ok {
		return nil, e.failLogin(ctx, principal.PrincipalID, err)
	}

	mfa, err := e.principals.GetMFA(ctx, principal.PrincipalID)
	if err != nil {
		return nil, ErrMFAUnavailable
	}

	if principal.MFAEnabled && mfa.Confirmed && len(mfa.Secret) > 0 {
		return e.beginMFAVerification(ctx, principal)
	}
	return e.beginMFASetup(ctx, principal)
}

func (e *Engine) failLogin(ctx context.Context, principalID string, cause error) error {
	e.metrics.Inc(MetricLoginFailure)
	e.emitAudit(ctx, eventLoginFailure, false, principalID, "", cause, nil)
	return ErrInvalidCredentials
}

// beginMFAVerification opens a verify challenge for an enrolled
// principal. Only the opaque handle leaves the server.
func (e *Engine) beginMFAVerification(ctx context.Context, principal PrincipalRecord) (*LoginResult, error) {
	pendingID := uuid.NewString()
	record := &pendingChallenge{
		Kind:        pendingKindVerify,
		PrincipalID: principal.PrincipalID,
		ExpiresAt:   time.Now().Add(e.config.MFA.PendingTTL).Unix(),
	}

	if err := e.pendingStore.Save(ctx, pendingID, record, e.config.MFA.PendingTTL); err != nil {
		return nil, ErrMFAUnavailable
	}

	e.metrics.Inc(MetricMFAVerificationRequired)
	e.emitAudit(ctx, eventMFARequired, true, principal.PrincipalID, "", nil, nil)

	return &LoginResult{
		Status:      StatusMFAVerificationRequired,
		PendingID:   pendingID,
		PrincipalID: principal.PrincipalID,
	}, nil
}

// beginMFASetup generates enrollment material for a principal without a
// confirmed second factor. The secret rides inside the server-side
// challenge; a failed confirmation attempt reuses it instead of
// generating a new one.
func (e *Engine) beginMFASetup(ctx context.Context, principal PrincipalRecord) (*LoginResult, error) {
	secret, secretBase32, err := e.totp.GenerateSecret()
	if err != nil {
		return nil, ErrMFAUnavailable
	}

	pendingID := uuid.NewString()
	record := &pendingChallenge{
		Kind:        pendingKindSetup,
		PrincipalID: principal.PrincipalID,
		Secret:      secret,
		ExpiresAt:   time.Now().Add(e.config.MFA.PendingTTL).Unix(),
	}

	if err := e.pendingStore.Save(ctx, pendingID, record, e.config.MFA.PendingTTL); err != nil {
		return nil, ErrMFAUnavailable
	}

	e.metrics.Inc(MetricMFASetupRequired)
	e.emitAudit(ctx, eventMFASetupRequired, true, principal.PrincipalID, "", nil, nil)

	return &LoginResult{
		Status:      StatusMFASetupRequired,
		PendingID:   pendingID,
		PrincipalID: principal.PrincipalID,
		Setup: &SetupPayload{
			SecretBase32:    secretBase32,
			ProvisioningURI: e.totp.ProvisionURI(secretBase32, principal.Identifier),
		},
	}, nil
}

// VerifySetup confirms enrollment: the submitted code must prove
// possession of the pending secret. On success the secret and a fresh
// backup-code batch are persisted atomically, the principal's MFA turns
// on, and a session is issued. The backup codes in the result are shown
// exactly once.
func (e *Engine) VerifySetup(ctx context.Context, pendingID, code string) (*LoginResult, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}

	record, err := e.loadChallenge(ctx, pendingID, pendingKindSetup)
	if err != nil {
		return nil, err
	}

	if err := e.checkMFALimiter(ctx, record.PrincipalID); err != nil {
		return nil, err
	}

	ok, _, err := e.totp.VerifyCode(record.Secret, code, time.Now())
	if err != nil {
		return nil, ErrMFAUnavailable
	}
	if !ok {
		return nil, e.failMFAAttempt(ctx, pendingID, record.PrincipalID)
	}

	deleted, err := e.pendingStore.Delete(ctx, pendingID)
	if err != nil {
		return nil, ErrMFAUnavailable
	}
	if !deleted {
		return nil, e.replayDetected(ctx, record.PrincipalID)
	}

	codes, codeRecords, err := generateBackupCodes(
		record.PrincipalID,
		e.config.MFA.BackupCodeCount,
		e.config.MFA.BackupCodeLength,
	)
	if err != nil {
		return nil, ErrMFAUnavailable
	}

	mfaRecord := MFARecord{Secret: record.Secret, Confirmed: true}
	if err := e.principals.ReplaceMFA(ctx, record.PrincipalID, mfaRecord, codeRecords); err != nil {
		return nil, ErrMFAUnavailable
	}
	if err := e.principals.MarkMFAConfirmed(ctx, record.PrincipalID); err != nil {
		return nil, ErrMFAUnavailable
	}

	_ = e.mfaLimiter.Reset(ctx, record.PrincipalID)
	e.emitAudit(ctx, eventMFASetupComplete, true, record.PrincipalID, "", nil, nil)

	result, err := e.finishLogin(ctx, record.PrincipalID)
	if err != nil {
		return nil, err
	}
	result.Setup = &SetupPayload{BackupCodes: codes}
	return result, nil
}

// VerifyCode confirms a verify challenge with a TOTP code and issues a
// session. Failed attempts leave the challenge in place until the
// attempt cap or the TTL discards it.
func (e *Engine) VerifyCode(ctx context.Context, pendingID, code string) (*LoginResult, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}

	record, err := e.loadChallenge(ctx, pendingID, pendingKindVerify)
	if err != nil {
		return nil, err
	}

	if err := e.checkMFALimiter(ctx, record.PrincipalID); err != nil {
		return nil, err
	}

	mfa, err := e.principals.GetMFA(ctx, record.PrincipalID)
	if err != nil {
		return nil, ErrMFAUnavailable
	}
	if !mfa.Confirmed || len(mfa.Secret) == 0 {
		return nil, ErrMFANotConfigured
	}

	ok, _, err := e.totp.VerifyCode(mfa.Secret, code, time.Now())
	if err != nil {
		return nil, ErrMFAUnavailable
	}
	if !ok {
		return nil, e.failMFAAttempt(ctx, pendingID, record.PrincipalID)
	}

	deleted, err := e.pendingStore.Delete(ctx, pendingID)
	if err != nil {
		return nil, ErrMFAUnavailable
	}
	if !deleted {
		return nil, e.replayDetected(ctx, record.PrincipalID)
	}

	_ = e.mfaLimiter.Reset(ctx, record.PrincipalID)
	e.metrics.Inc(MetricMFASuccess)
	e.emitAudit(ctx, eventMFASuccess, true, record.PrincipalID, "", nil, nil)

	return e.finishLogin(ctx, record.PrincipalID)
}

// VerifyBackupCode confirms a verify challenge with a single-use backup
// code. The code is consumed atomically; a concurrent duplicate
// submission fails like any wrong code.
func (e *Engine) VerifyBackupCode(ctx context.Context, pendingID, code string) (*LoginResult, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}

	record, err := e.loadChallenge(ctx, pendingID, pendingKindVerify)
	if err != nil {
		return nil, err
	}

	if err := e.checkMFALimiter(ctx, record.PrincipalID); err != nil {
		return nil, err
	}

	canonical := canonicalizeBackupCode(code)
	if canonical == "" {
		e.metrics.Inc(MetricBackupCodeFailed)
		return nil, e.failMFAAttempt(ctx, pendingID, record.PrincipalID)
	}

	consumed, err := e.principals.ConsumeBackupCode(ctx, record.PrincipalID, backupCodeHash(record.PrincipalID, canonical))
	if err != nil {
		if errors.Is(err, ErrCodeAlreadyUsed) {
			e.metrics.Inc(MetricBackupCodeFailed)
			e.emitAudit(ctx, eventBackupFailed, false, record.PrincipalID, "", ErrCodeAlreadyUsed, nil)
			return nil, e.failMFAAttempt(ctx, pendingID, record.PrincipalID)
		}
		return nil, ErrMFAUnavailable
	}
	if !consumed {
		e.metrics.Inc(MetricBackupCodeFailed)
		e.emitAudit(ctx, eventBackupFailed, false, record.PrincipalID, "", ErrInvalidMFACode, nil)
		return nil, e.failMFAAttempt(ctx, pendingID, record.PrincipalID)
	}

	deleted, err := e.pendingStore.Delete(ctx, pendingID)
	if err != nil {
		return nil, ErrMFAUnavailable
	}
	if !deleted {
		return nil, e.replayDetected(ctx, record.PrincipalID)
	}

	_ = e.mfaLimiter.Reset(ctx, record.PrincipalID)
	e.metrics.Inc(MetricBackupCodeUsed)
	e.metrics.Inc(MetricMFASuccess)
	e.emitAudit(ctx, eventBackupUsed, true, record.PrincipalID, "", nil, nil)

	return e.finishLogin(ctx, record.PrincipalID)
}

// CancelLogin discards a pending challenge. Cancelling an unknown or
// already-consumed handle is a no-op.
func (e *Engine) CancelLogin(ctx context.Context, pendingID string) error {
	if !e.ready() {
		return ErrEngineNotReady
	}
	if pendingID == "" {
		return nil
	}

	record, err := e.pendingStore.Get(ctx, pendingID)
	if err != nil {
		if errors.Is(err, errPendingBackend) {
			return ErrMFAUnavailable
		}
		return nil
	}

	deleted, err := e.pendingStore.Delete(ctx, pendingID)
	if err != nil {
		return ErrMFAUnavailable
	}
	if deleted {
		e.metrics.Inc(MetricMFACancelled)
		e.emitAudit(ctx, eventMFACancelled, true, record.PrincipalID, "", nil, nil)
	}
	return nil
}

func (e *Engine) loadChallenge(ctx context.Context, pendingID string, kind uint8) (*pendingChallenge, error) {
	if pendingID == "" {
		return nil, ErrMFASessionInvalid
	}

	record, err := e.pendingStore.Get(ctx, pendingID)
	if err != nil {
		if errors.Is(err, errPendingBackend) {
			return nil, ErrMFAUnavailable
		}
		return nil, ErrMFASessionInvalid
	}
	if record.Kind != kind {
		return nil, ErrMFASessionInvalid
	}
	return record, nil
}

func (e *Engine) checkMFALimiter(ctx context.Context, principalID string) error {
	if err := e.mfaLimiter.Check(ctx, principalID); err != nil {
		if errors.Is(err, errMFAAttemptLimited) {
			e.metrics.Inc(MetricLoginRateLimited)
			return ErrMFARateLimited
		}
		return ErrMFAUnavailable
	}
	return nil
}

// failMFAAttempt records one failed code submission against both the
// challenge and the per-principal limiter. The caller's response is
// always the generic ErrInvalidMFACode unless the challenge just died.
func (e *Engine) failMFAAttempt(ctx context.Context, pendingID, principalID string) error {
	e.metrics.Inc(MetricMFAFailure)
	_ = e.mfaLimiter.RecordFailure(ctx, principalID)

	exceeded, err := e.pendingStore.RecordFailure(ctx, pendingID, e.config.MFA.MaxAttempts)
	if err != nil {
		if errors.Is(err, errPendingBackend) {
			return ErrMFAUnavailable
		}
		e.emitAudit(ctx, eventMFAFailure, false, principalID, "", ErrMFASessionInvalid, nil)
		return ErrMFASessionInvalid
	}
	if exceeded {
		e.metrics.Inc(MetricMFAAttemptsExceeded)
		e.emitAudit(ctx, eventMFAExceeded, false, principalID, "", ErrMFAAttemptsExceeded, nil)
		return ErrMFAAttemptsExceeded
	}

	e.emitAudit(ctx, eventMFAFailure, false, principalID, "", ErrInvalidMFACode, nil)
	return ErrInvalidMFACode
}

func (e *Engine) replayDetected(ctx context.Context, principalID string) error {
	e.metrics.Inc(MetricMFAReplayAttempt)
	e.emitAudit(ctx, eventMFAReplay, false, principalID, "", ErrMFASessionInvalid, nil)
	return ErrMFASessionInvalid
}

func (e *Engine) finishLogin(ctx context.Context, principalID string) (*LoginResult, error) {
	principal, err := e.principals.GetByID(ctx, principalID)
	if err != nil {
		return nil, ErrMFAUnavailable
	}
	if !principal.Active {
		return nil, ErrInvalidCredentials
	}

	sessionID, token, err := e.issueSession(ctx, principal)
	if err != nil {
		return nil, err
	}

	e.metrics.Inc(MetricLoginSuccess)
	e.emitAudit(ctx, eventLoginSuccess, true, principal.PrincipalID, sessionID, nil, nil)

	return &LoginResult{
		Status:      StatusAuthenticated,
		PrincipalID: principal.PrincipalID,
		SessionID:   sessionID,
		AccessToken: token,
	}, nil
}
