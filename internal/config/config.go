// Package config carries the small set of tunables the session manager
// needs: per-operation timeouts. Kept as a plain struct with functional
// overrides rather than a generic map, so each field stays typed and
// discoverable at the call site.
package config

import "time"

// DefaultTimeout is used for connect, launch and kill when no override is
// given.
const DefaultTimeout = 30 * time.Second

// Session holds the session manager's per-operation timeouts.
type Session struct {
	ConnectTimeout time.Duration
	LaunchTimeout  time.Duration
	KillTimeout    time.Duration
}

// DefaultSession returns a Session with all three timeouts at
// DefaultTimeout.
func DefaultSession() Session {
	return Session{
		ConnectTimeout: DefaultTimeout,
		LaunchTimeout:  DefaultTimeout,
		KillTimeout:    DefaultTimeout,
	}
}

// Option customizes a Session at construction time.
type Option func(*Session)

// WithConnectTimeout overrides the connect() timeout.
func WithConnectTimeout(d time.Duration) Option {
	return func(s *Session) { s.ConnectTimeout = d }
}

// WithLaunchTimeout overrides the per-task launch() timeout.
func WithLaunchTimeout(d time.Duration) Option {
	return func(s *Session) { s.LaunchTimeout = d }
}

// WithKillTimeout overrides the kill() timeout.
func WithKillTimeout(d time.Duration) Option {
	return func(s *Session) { s.KillTimeout = d }
}

// New builds a Session starting from the defaults and applying opts.
func New(opts ...Option) Session {
	s := DefaultSession()
	for _, opt := range opts {
		opt(&s)
	}
	return s
}
