package adminauth

import (
	"context"
	"time"
)

// Audit event names. Stable strings; sinks key dashboards off them.
const (
	eventLoginSuccess     = "login_success"
	eventLoginFailure     = "login_failure"
	eventMFASetupRequired = "mfa_setup_required"
	eventMFARequired      = "mfa_required"
	eventMFASetupComplete = "mfa_setup_complete"
	eventMFASuccess       = "mfa_success"
	eventMFAFailure       = "mfa_failure"
	eventMFAExceeded      = "mfa_attempts_exceeded"
	eventMFAReplay        = "mfa_replay_detected"
	eventMFACancelled     = "mfa_cancelled"
	eventBackupUsed       = "backup_code_used"
	eventBackupFailed     = "backup_code_failed"
	eventBackupsReissued  = "backup_codes_regenerated"
	eventMFARegenerated   = "mfa_regenerated"
	eventAuthzDenied      = "authz_denied"
	eventAuthzUnavailable = "authz_unavailable"
	eventLogout           = "logout"
	eventLogoutAll        = "logout_all"
)

// emitAudit builds and queues one event. The metadata builder runs only
// when a dispatcher is attached, so hot paths pay nothing when auditing
// is disabled. Error text is included; secrets and codes never are.
func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	principalID string,
	sessionID string,
	opErr error,
	metadata func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	event := AuditEvent{
		Timestamp:   time.Now(),
		EventType:   eventType,
		PrincipalID: principalID,
		SessionID:   sessionID,
		IP:          clientIPFromContext(ctx),
		UserAgent:   userAgentFromContext(ctx),
		Success:     success,
	}
	if opErr != nil {
		event.Error = opErr.Error()
	}
	if metadata != nil {
		event.Metadata = metadata()
	}

	e.audit.Emit(ctx, event)
}
