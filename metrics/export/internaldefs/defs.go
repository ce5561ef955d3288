// Package internaldefs holds the shared metric name table used by the
// Prometheus and OpenTelemetry exporters so both expose identical
// series names.
package internaldefs

import (
	adminauth "github.com/snapmarket/adminauth"
)

type CounterDef struct {
	ID   adminauth.MetricID
	Name string
	Help string
}

type HistogramDef struct {
	ID   adminauth.MetricID
	Name string
	Help string
}

var CounterDefs = []CounterDef{
	{ID: adminauth.MetricLoginSuccess, Name: "adminauth_login_success_total", Help: "Fully authenticated logins."},
	{ID: adminauth.MetricLoginFailure, Name: "adminauth_login_failure_total", Help: "Failed credential checks."},
	{ID: adminauth.MetricLoginRateLimited, Name: "adminauth_login_rate_limited_total", Help: "Rate-limited login or MFA attempts."},
	{ID: adminauth.MetricMFASetupRequired, Name: "adminauth_mfa_setup_required_total", Help: "Logins routed into MFA enrollment."},
	{ID: adminauth.MetricMFAVerificationRequired, Name: "adminauth_mfa_verification_required_total", Help: "Logins routed into MFA verification."},
	{ID: adminauth.MetricMFASuccess, Name: "adminauth_mfa_success_total", Help: "Successful second-factor confirmations."},
	{ID: adminauth.MetricMFAFailure, Name: "adminauth_mfa_failure_total", Help: "Failed second-factor submissions."},
	{ID: adminauth.MetricMFAAttemptsExceeded, Name: "adminauth_mfa_attempts_exceeded_total", Help: "Pending challenges discarded at the attempt cap."},
	{ID: adminauth.MetricMFAReplayAttempt, Name: "adminauth_mfa_replay_attempt_total", Help: "Detected pending-challenge replay attempts."},
	{ID: adminauth.MetricMFACancelled, Name: "adminauth_mfa_cancelled_total", Help: "Pending challenges cancelled by the caller."},
	{ID: adminauth.MetricBackupCodeUsed, Name: "adminauth_backup_code_used_total", Help: "Successful backup-code authentications."},
	{ID: adminauth.MetricBackupCodeFailed, Name: "adminauth_backup_code_failed_total", Help: "Failed backup-code authentications."},
	{ID: adminauth.MetricBackupCodeRegenerated, Name: "adminauth_backup_code_regenerated_total", Help: "Backup-code batch regenerations."},
	{ID: adminauth.MetricAuthzAllowed, Name: "adminauth_authz_allowed_total", Help: "Authorization checks that passed."},
	{ID: adminauth.MetricAuthzDenied, Name: "adminauth_authz_denied_total", Help: "Authorization checks denied for missing grants."},
	{ID: adminauth.MetricAuthzNoRole, Name: "adminauth_authz_no_role_total", Help: "Authorization checks denied for a missing role."},
	{ID: adminauth.MetricAuthzUnavailable, Name: "adminauth_authz_unavailable_total", Help: "Authorization checks failed closed on backend errors."},
	{ID: adminauth.MetricSessionCreated, Name: "adminauth_session_created_total", Help: "Created sessions."},
	{ID: adminauth.MetricSessionInvalidated, Name: "adminauth_session_invalidated_total", Help: "Invalidated sessions."},
	{ID: adminauth.MetricLogout, Name: "adminauth_logout_total", Help: "Single-session logout operations."},
	{ID: adminauth.MetricLogoutAll, Name: "adminauth_logout_all_total", Help: "Logout-all operations."},
}

var HistogramDefs = []HistogramDef{
	{ID: adminauth.MetricValidateLatency, Name: "adminauth_validate_latency_seconds", Help: "Validate latency histogram."},
}

var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets pads or truncates a raw bucket slice to the fixed
// exporter width.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts into the cumulative form
// Prometheus histograms expect.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
