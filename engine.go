package adminauth

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/snapmarket/adminauth/authz"
	"github.com/snapmarket/adminauth/internal"
	"github.com/snapmarket/adminauth/jwt"
	"github.com/snapmarket/adminauth/password"
	"github.com/snapmarket/adminauth/session"
)

// Engine is the authorization and second-factor core of the admin
// backend. Construct it with a Builder; all methods are safe for
// concurrent use once Build returns.
type Engine struct {
	config Config

	principals PrincipalStore
	roles      RoleDirectory

	sessionStore *session.Store
	pendingStore *pendingChallengeStore
	mfaLimiter   *mfaLimiter

	totp         *totpManager
	passwordHash *password.Argon2
	jwtManager   *jwt.Manager

	audit   *auditDispatcher
	metrics *Metrics
}

func (e *Engine) ready() bool {
	return e != nil &&
		e.principals != nil &&
		e.roles != nil &&
		e.sessionStore != nil &&
		e.pendingStore != nil &&
		e.totp != nil &&
		e.jwtManager != nil
}

// Validate authenticates a bearer token: signature and claims first, then
// the backing session. A Redis fault yields ErrAuthorizationUnavailable,
// never a pass.
func (e *Engine) Validate(ctx context.Context, token string) (*AuthResult, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}
	start := time.Now()

	claims, err := e.jwtManager.ParseAccess(token)
	if err != nil {
		return nil, ErrUnauthenticated
	}

	sess, err := e.sessionStore.Get(ctx, claims.SID)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrUnauthenticated
		}
		if errors.Is(err, session.ErrRedisUnavailable) {
			e.metrics.Inc(MetricAuthzUnavailable)
			return nil, ErrAuthorizationUnavailable
		}
		return nil, ErrUnauthenticated
	}

	if sess.PrincipalID != claims.PID {
		return nil, ErrUnauthenticated
	}

	e.metrics.Observe(MetricValidateLatency, time.Since(start))

	return &AuthResult{
		PrincipalID: sess.PrincipalID,
		SessionID:   sess.SessionID,
		RoleID:      sess.RoleID,
	}, nil
}

// GrantsFor resolves the grant set of a role for request-time
// authorization. Grants are read fresh on every call; nothing is cached.
func (e *Engine) GrantsFor(ctx context.Context, roleID string) (authz.GrantSet, error) {
	if !e.ready() {
		return authz.GrantSet{}, ErrEngineNotReady
	}
	if roleID == "" {
		e.metrics.Inc(MetricAuthzNoRole)
		return authz.GrantSet{}, ErrNoRoleAssigned
	}

	grants, err := e.roles.GrantsForRole(ctx, roleID)
	if err != nil {
		if errors.Is(err, ErrRoleNotFound) {
			e.metrics.Inc(MetricAuthzNoRole)
			return authz.GrantSet{}, ErrNoRoleAssigned
		}
		e.metrics.Inc(MetricAuthzUnavailable)
		e.emitAudit(ctx, eventAuthzUnavailable, false, "", "", err, func() map[string]string {
			return map[string]string{"role_id": roleID}
		})
		return authz.GrantSet{}, ErrAuthorizationUnavailable
	}

	return grants, nil
}

// RequireAll authorizes res against every requirement.
func (e *Engine) RequireAll(ctx context.Context, res *AuthResult, reqs ...authz.Requirement) error {
	return e.require(ctx, res, false, reqs)
}

// RequireAny authorizes res against at least one requirement.
func (e *Engine) RequireAny(ctx context.Context, res *AuthResult, reqs ...authz.Requirement) error {
	return e.require(ctx, res, true, reqs)
}

func (e *Engine) require(ctx context.Context, res *AuthResult, anyOf bool, reqs []authz.Requirement) error {
	if !e.ready() {
		return ErrEngineNotReady
	}
	if res == nil || res.PrincipalID == "" {
		return ErrUnauthenticated
	}

	grants, err := e.GrantsFor(ctx, res.RoleID)
	if err != nil {
		return err
	}

	allowed := false
	if anyOf {
		allowed = authz.RequireAny(grants, reqs...)
	} else {
		allowed = authz.RequireAll(grants, reqs...)
	}

	if !allowed {
		e.metrics.Inc(MetricAuthzDenied)
		e.emitAudit(ctx, eventAuthzDenied, false, res.PrincipalID, res.SessionID, ErrInsufficientPermission, func() map[string]string {
			missing := authz.Missing(grants, reqs...)
			names := make([]string, 0, len(missing))
			for _, m := range missing {
				names = append(names, m.String())
			}
			return map[string]string{
				"role_id": res.RoleID,
				"missing": joinRequirementNames(names),
			}
		})
		return ErrInsufficientPermission
	}

	e.metrics.Inc(MetricAuthzAllowed)
	return nil
}

func joinRequirementNames(names []string) string {
	out := ""
	for i, n := range names {
		if i > 0 {
			out += ","
		}
		out += n
	}
	return out
}

// Logout invalidates one session. Unknown sessions are a no-op.
func (e *Engine) Logout(ctx context.Context, sessionID string) error {
	if !e.ready() {
		return ErrEngineNotReady
	}
	if sessionID == "" {
		return nil
	}

	if err := e.sessionStore.Delete(ctx, sessionID); err != nil {
		return ErrSessionInvalidationFailed
	}

	e.metrics.Inc(MetricLogout)
	e.metrics.Inc(MetricSessionInvalidated)
	e.emitAudit(ctx, eventLogout, true, "", sessionID, nil, nil)
	return nil
}

// LogoutAll invalidates every session of one principal.
func (e *Engine) LogoutAll(ctx context.Context, principalID string) error {
	if !e.ready() {
		return ErrEngineNotReady
	}
	if principalID == "" {
		return ErrPrincipalNotFound
	}

	removed, err := e.sessionStore.DeleteAllForPrincipal(ctx, principalID)
	if err != nil {
		return ErrSessionInvalidationFailed
	}

	e.metrics.Inc(MetricLogoutAll)
	for i := 0; i < removed; i++ {
		e.metrics.Inc(MetricSessionInvalidated)
	}
	e.emitAudit(ctx, eventLogoutAll, true, principalID, "", nil, nil)
	return nil
}

func (e *Engine) issueSession(ctx context.Context, principal PrincipalRecord) (string, string, error) {
	sid, err := internal.NewSessionID()
	if err != nil {
		return "", "", ErrSessionCreationFailed
	}

	now := time.Now()
	sess := &session.Session{
		SessionID:   sid.String(),
		PrincipalID: principal.PrincipalID,
		RoleID:      principal.RoleID,
		CreatedAt:   now.Unix(),
		ExpiresAt:   now.Add(e.config.Session.TTL).Unix(),
	}

	if err := e.sessionStore.Save(ctx, sess, e.config.Session.TTL); err != nil {
		return "", "", ErrSessionCreationFailed
	}

	token, err := e.jwtManager.CreateAccess(principal.PrincipalID, sess.SessionID, principal.RoleID)
	if err != nil {
		_ = e.sessionStore.Delete(ctx, sess.SessionID)
		return "", "", ErrSessionCreationFailed
	}

	e.metrics.Inc(MetricSessionCreated)
	return sess.SessionID, token, nil
}

// MetricsSnapshot exposes the counter state for exporters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil {
		return MetricsSnapshot{Counters: map[MetricID]uint64{}, Histograms: map[MetricID][]uint64{}}
	}
	return e.metrics.Snapshot()
}

// MetricValue returns one counter, mainly for tests.
func (e *Engine) MetricValue(id MetricID) uint64 {
	if e == nil {
		return 0
	}
	return e.metrics.Value(id)
}

// AuditDropped reports audit events shed under backpressure.
func (e *Engine) AuditDropped() uint64 {
	if e == nil {
		return 0
	}
	return e.audit.Dropped()
}

// Close flushes and stops the audit dispatcher.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	e.audit.Close()
}
