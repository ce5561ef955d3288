package session

// Session is one live admin session. RoleID is captured at login for
// audit context only; authorization always re-reads the role directory.
type Session struct {
	SessionID   string
	PrincipalID string
	RoleID      string

	CreatedAt int64
	ExpiresAt int64
}
