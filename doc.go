// Package adminauth is the authorization and second-factor core of the
// SnapMarket marketplace admin backend: role-based permission checks
// over a closed entity vocabulary, TOTP enrollment and verification
// with single-use backup codes, and a login orchestrator that routes
// every credential check through a pending MFA challenge before a
// session exists.
//
// The package is designed for concurrent server workloads: Engine
// methods are safe to call from multiple goroutines after
// initialization through [Builder.Build].
//
// # Architecture boundaries
//
// adminauth is the public surface. It exposes [Engine], [Builder],
// [Config], the [PrincipalStore] and [RoleDirectory] provider
// interfaces, and value types (LoginResult, AuthResult,
// MetricsSnapshot). Permission vocabulary and evaluation live in
// authz; request middleware in gate; metric exporters under
// metrics/export.
//
// # What this package must NOT do
//
//   - Expose Redis clients, the pending-challenge store, or encoding
//     details in its public API.
//   - Log or audit TOTP secrets, submitted codes, backup codes, or
//     password material. Audit events carry identifiers and outcomes
//     only.
//   - Cache role grants. Authorization reads the role directory on
//     every check so revocation takes effect immediately.
//
// # Failure posture
//
// Authorization fails closed. A backend fault during a permission
// check yields ErrAuthorizationUnavailable, never an allow. Login
// responses never reveal whether an identifier exists, which factor
// was wrong, or whether a backup code was already spent.
package adminauth
