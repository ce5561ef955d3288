package adminauth

import (
	"context"

	"github.com/snapmarket/adminauth/authz"
)

// PrincipalRecord is the durable view of an admin account as loaded from
// the host's principal store. The engine never writes credential fields;
// password management stays with the host application.
type PrincipalRecord struct {
	PrincipalID  string
	Identifier   string
	PasswordHash string
	Active       bool
	RoleID       string
	MFAEnabled   bool
}

// MFARecord is the stored second-factor state of one principal. Secret is
// the raw TOTP secret bytes; Confirmed flips true only after the
// principal proved possession of the authenticator during enrollment.
type MFARecord struct {
	Secret    []byte
	Confirmed bool
}

// BackupCodeRecord stores one recovery code as a salted SHA-256 digest.
// Plaintext codes exist only in the response that delivered them.
type BackupCodeRecord struct {
	Hash [32]byte
}

// PrincipalStore is implemented by the host application over its durable
// storage. All methods must be safe for concurrent use.
//
// ConsumeBackupCode must be an atomic compare-and-delete: it returns
// (true, nil) for exactly one caller per stored hash, (false, nil) when
// the hash does not match an unused code, and a non-nil error only for
// backend faults.
type PrincipalStore interface {
	GetByIdentifier(ctx context.Context, identifier string) (PrincipalRecord, error)
	GetByID(ctx context.Context, principalID string) (PrincipalRecord, error)

	// GetMFA returns the zero MFARecord with a nil error for a principal
	// that has no second-factor state; errors mean backend faults.
	GetMFA(ctx context.Context, principalID string) (MFARecord, error)
	// ReplaceMFA atomically overwrites the principal's secret and entire
	// backup-code batch. Old codes must not survive the swap.
	ReplaceMFA(ctx context.Context, principalID string, record MFARecord, codes []BackupCodeRecord) error
	// MarkMFAConfirmed completes enrollment: the stored secret becomes the
	// active second factor and MFAEnabled turns on for the principal.
	MarkMFAConfirmed(ctx context.Context, principalID string) error

	ConsumeBackupCode(ctx context.Context, principalID string, hash [32]byte) (bool, error)
}

// RoleDirectory is the read side of the role store. GrantsForRole returns
// the role's grant set, an empty set for a role with no grants, or
// ErrRoleNotFound when the role ID does not exist.
type RoleDirectory interface {
	GrantsForRole(ctx context.Context, roleID string) (authz.GrantSet, error)
}

// LoginStatus is the state a login attempt lands in after credential
// verification.
type LoginStatus uint8

const (
	// StatusAuthenticated means the attempt produced a live session.
	StatusAuthenticated LoginStatus = iota + 1
	// StatusMFASetupRequired means credentials were valid but the
	// principal must enroll a second factor before a session is issued.
	StatusMFASetupRequired
	// StatusMFAVerificationRequired means credentials were valid and a
	// TOTP or backup code must confirm the pending challenge.
	StatusMFAVerificationRequired
)

// SetupPayload carries the one-time enrollment material for the MFA setup
// branch. It is returned exactly once per generated secret and must not
// be persisted by callers.
type SetupPayload struct {
	SecretBase32    string
	ProvisioningURI string
	BackupCodes     []string
}

// LoginResult is the outcome of Login and the confirm operations.
// PendingID is set only while Status requires a second step; AccessToken
// and SessionID only when Status is StatusAuthenticated. Setup carries
// the secret and provisioning URI on the setup branch, and the one-time
// backup-code batch on the authenticated result of VerifySetup.
type LoginResult struct {
	Status      LoginStatus
	PendingID   string
	Setup       *SetupPayload
	SessionID   string
	AccessToken string
	PrincipalID string
}

// AuthResult is the validated identity attached to a request by the gate
// after token verification.
type AuthResult struct {
	PrincipalID string
	SessionID   string
	RoleID      string
}
