package gate

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	adminauth "github.com/snapmarket/adminauth"
	"github.com/snapmarket/adminauth/authz"
)

// Denial reason strings written in 401/403 response bodies.
const (
	ReasonUnauthenticated          = "UNAUTHENTICATED"
	ReasonNoRoleAssigned           = "NO_ROLE_ASSIGNED"
	ReasonInsufficientPermission   = "INSUFFICIENT_PERMISSION"
	ReasonAuthorizationUnavailable = "AUTHORIZATION_UNAVAILABLE"
)

type denialBody struct {
	Reason  string   `json:"reason"`
	Missing []string `json:"missing,omitempty"`
}

type authResultContextKey struct{}

// PrincipalFromContext returns the authenticated principal placed on
// the request context by a gate middleware.
func PrincipalFromContext(ctx context.Context) (*adminauth.AuthResult, bool) {
	res, ok := ctx.Value(authResultContextKey{}).(*adminauth.AuthResult)
	return res, ok
}

// Gate builds request middleware on top of an Engine.
type Gate struct {
	engine *adminauth.Engine
}

// New returns a Gate bound to engine.
func New(engine *adminauth.Engine) *Gate {
	return &Gate{engine: engine}
}

// Authenticate validates the bearer token and attaches the principal to
// the request context without checking any permissions.
func (g *Gate) Authenticate() func(http.Handler) http.Handler {
	return g.middleware(false, nil)
}

// Require enforces a single entity/permission pair.
func (g *Gate) Require(entity authz.EntityType, perm authz.Permission) func(http.Handler) http.Handler {
	return g.middleware(false, []authz.Requirement{{Entity: entity, Permission: perm}})
}

// RequireAll enforces every requirement.
func (g *Gate) RequireAll(reqs ...authz.Requirement) func(http.Handler) http.Handler {
	return g.middleware(false, reqs)
}

// RequireAny enforces at least one of the requirements.
func (g *Gate) RequireAny(reqs ...authz.Requirement) func(http.Handler) http.Handler {
	return g.middleware(true, reqs)
}

func (g *Gate) middleware(anyOf bool, reqs []authz.Requirement) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if g == nil || g.engine == nil {
				writeDenial(w, http.StatusUnauthorized, ReasonUnauthenticated, nil)
				return
			}

			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				writeDenial(w, http.StatusUnauthorized, ReasonUnauthenticated, nil)
				return
			}

			res, err := g.engine.Validate(r.Context(), token)
			if err != nil {
				g.deny(w, r, nil, err, nil)
				return
			}

			if len(reqs) > 0 {
				if anyOf {
					err = g.engine.RequireAny(r.Context(), res, reqs...)
				} else {
					err = g.engine.RequireAll(r.Context(), res, reqs...)
				}
				if err != nil {
					g.deny(w, r, res, err, reqs)
					return
				}
			}

			ctx := context.WithValue(r.Context(), authResultContextKey{}, res)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// deny maps an engine error to a status code and JSON body. The
// missing list is populated only for permission denials, and only with
// requirement names the caller already asked about.
func (g *Gate) deny(w http.ResponseWriter, r *http.Request, res *adminauth.AuthResult, err error, reqs []authz.Requirement) {
	switch {
	case errors.Is(err, adminauth.ErrUnauthenticated):
		writeDenial(w, http.StatusUnauthorized, ReasonUnauthenticated, nil)
	case errors.Is(err, adminauth.ErrNoRoleAssigned):
		writeDenial(w, http.StatusForbidden, ReasonNoRoleAssigned, nil)
	case errors.Is(err, adminauth.ErrAuthorizationUnavailable):
		writeDenial(w, http.StatusForbidden, ReasonAuthorizationUnavailable, nil)
	case errors.Is(err, adminauth.ErrInsufficientPermission):
		writeDenial(w, http.StatusForbidden, ReasonInsufficientPermission, g.missingNames(r, res, reqs))
	default:
		writeDenial(w, http.StatusUnauthorized, ReasonUnauthenticated, nil)
	}
}

func (g *Gate) missingNames(r *http.Request, res *adminauth.AuthResult, reqs []authz.Requirement) []string {
	if res == nil || len(reqs) == 0 {
		return nil
	}
	grants, err := g.engine.GrantsFor(r.Context(), res.RoleID)
	if err != nil {
		return nil
	}
	missing := authz.Missing(grants, reqs...)
	names := make([]string, 0, len(missing))
	for _, m := range missing {
		names = append(names, m.String())
	}
	return names
}

func writeDenial(w http.ResponseWriter, status int, reason string, missing []string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(denialBody{Reason: reason, Missing: missing})
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}

	token := value[len(bearer):]
	if token == "" {
		return "", false
	}

	return token, true
}
