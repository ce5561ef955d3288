// Package gate provides net/http middleware that authenticates bearer
// tokens against the engine and enforces entity/permission requirements
// before a handler runs. Denials are written as small JSON bodies so
// admin frontends can distinguish a missing login from a missing grant.
package gate
