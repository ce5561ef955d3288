package adminauth

import "errors"

var (
	// ErrUnauthenticated is returned when no valid principal accompanies a
	// request or operation.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrNoRoleAssigned is returned when an authenticated principal has no
	// role, or its role no longer exists in the directory.
	ErrNoRoleAssigned = errors.New("no role assigned")
	// ErrInsufficientPermission is returned when the principal's role does
	// not grant a required (entity, permission) pair.
	ErrInsufficientPermission = errors.New("insufficient permission")
	// ErrAuthorizationUnavailable is returned when role or grant data could
	// not be read. Callers must treat it as a denial.
	ErrAuthorizationUnavailable = errors.New("authorization backend unavailable")

	// ErrInvalidCredentials is the single failure for unknown identifier,
	// wrong password, and inactive account. It deliberately carries no
	// detail about which of the three occurred.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidMFACode is the generic failure for a rejected TOTP or
	// backup code during login confirmation.
	ErrInvalidMFACode = errors.New("invalid mfa code")
	// ErrCodeAlreadyUsed is returned when a backup code matched one that
	// was already consumed.
	ErrCodeAlreadyUsed = errors.New("backup code already used")

	// ErrMFANotConfigured is returned for MFA operations on a principal
	// that has not completed enrollment.
	ErrMFANotConfigured = errors.New("mfa not configured")
	// ErrMFAAlreadyConfigured is returned when plain provisioning is
	// attempted on a principal with confirmed MFA. Regeneration requires a
	// current TOTP code.
	ErrMFAAlreadyConfigured = errors.New("mfa already configured")
	// ErrMFAUnavailable wraps principal-store faults on MFA paths.
	ErrMFAUnavailable = errors.New("mfa backend unavailable")
	// ErrMFASessionInvalid covers unknown, expired, and replayed pending
	// handles.
	ErrMFASessionInvalid = errors.New("mfa session invalid")
	// ErrMFAAttemptsExceeded is returned when a pending challenge hit its
	// failed-attempt cap and was discarded.
	ErrMFAAttemptsExceeded = errors.New("mfa attempts exceeded")
	// ErrMFARateLimited is returned when per-principal attempt throttling
	// rejects a verification before any code is checked.
	ErrMFARateLimited = errors.New("mfa attempts rate limited")

	ErrPrincipalNotFound = errors.New("principal not found")
	// ErrRoleNotFound is the sentinel a RoleDirectory returns for a role ID
	// it does not know. The engine maps it to ErrNoRoleAssigned.
	ErrRoleNotFound = errors.New("role not found")
	// ErrSessionCreationFailed wraps session-store faults after a fully
	// verified login.
	ErrSessionCreationFailed = errors.New("session creation failed")
	// ErrSessionInvalidationFailed wraps session-store faults during logout.
	ErrSessionInvalidationFailed = errors.New("session invalidation failed")

	// ErrEngineNotReady is returned when an Engine method is invoked on a
	// nil or partially constructed engine.
	ErrEngineNotReady = errors.New("engine not initialized")
)
