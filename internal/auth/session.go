// Package auth resolves who is calling and whether they may proceed.
//
// A request carries a Session that is in exactly one of three states:
// loading (a valid token whose profile could not be read yet), authenticated
// (a token and a profile) or anonymous. Guard turns a session and the roles
// a route requires into a single decision.
package auth

import (
	"sosstock/internal/domain"
	"sosstock/internal/model"
)

type Status string

const (
	StatusLoading       Status = "loading"
	StatusAuthenticated Status = "authenticated"
	StatusAnonymous     Status = "anonymous"
)

// Session is the resolved identity of a request. Profile is set only when
// Status is authenticated; TokenID is set for loading and authenticated.
type Session struct {
	Status  Status
	Profile *model.Profile
	TokenID string
}

func Anonymous() Session { return Session{Status: StatusAnonymous} }

func Loading(tokenID string) Session {
	return Session{Status: StatusLoading, TokenID: tokenID}
}

func Authenticated(p *model.Profile, tokenID string) Session {
	return Session{Status: StatusAuthenticated, Profile: p, TokenID: tokenID}
}

// Role returns the profile role, or "" when not authenticated.
func (s Session) Role() domain.Role {
	if s.Status != StatusAuthenticated || s.Profile == nil {
		return ""
	}
	return s.Profile.Role
}

type Decision int

const (
	Allow Decision = iota
	Unauthenticated
	Forbidden
	Wait
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case Unauthenticated:
		return "unauthenticated"
	case Forbidden:
		return "forbidden"
	case Wait:
		return "wait"
	}
	return "unknown"
}

// Guard decides access. With no roles any authenticated session is allowed.
// A loading session never gets Unauthenticated: the caller is told to retry.
func Guard(s Session, roles ...domain.Role) Decision {
	switch s.Status {
	case StatusLoading:
		return Wait
	case StatusAuthenticated:
		if s.Profile == nil {
			return Unauthenticated
		}
	default:
		return Unauthenticated
	}
	if len(roles) == 0 {
		return Allow
	}
	for _, r := range roles {
		if s.Profile.Role == r {
			return Allow
		}
	}
	return Forbidden
}
