// Package jwt wraps access-token issuance and parsing for the admin
// engine. Tokens carry only identifiers; authorization state is always
// resolved server-side per request.
package jwt
