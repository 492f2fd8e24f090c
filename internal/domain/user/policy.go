package user

import "time"

// SecurityPolicy defines the local-provider policy knobs. Seeded from file
// config at startup; a persisted settings row overrides it on resolve.
type SecurityPolicy struct {
	RequireEmailVerification bool
	LockoutThreshold         int
	LockoutDurationMinutes   int
	SessionDurationHours     int
}

// DefaultSecurityPolicy returns the default security policy
func DefaultSecurityPolicy() *SecurityPolicy {
	return &SecurityPolicy{
		RequireEmailVerification: false,
		LockoutThreshold:         5,
		LockoutDurationMinutes:   15,
		SessionDurationHours:     24 * 7,
	}
}

// LockoutDuration returns the lockout duration as time.Duration
func (p *SecurityPolicy) LockoutDuration() time.Duration {
	return time.Duration(p.LockoutDurationMinutes) * time.Minute
}

// SessionDuration returns the session lifetime as time.Duration
func (p *SecurityPolicy) SessionDuration() time.Duration {
	return time.Duration(p.SessionDurationHours) * time.Hour
}
