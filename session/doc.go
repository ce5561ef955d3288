// Package session implements the Redis-backed store for admin sessions.
// Sessions are encoded with a compact versioned binary codec and indexed
// per principal so logout-all can find every live session.
package session
