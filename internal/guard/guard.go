// Package guard decides whether a route may be entered. Guards read a
// snapshot of the session and never change it.
package guard

import (
	"net/url"
)

// State is what guards see of the session.
type State struct {
	Authenticated bool
	Role          string
}

type Decision struct {
	Allow bool
	// Redirect is the path to show instead when Allow is false.
	Redirect string
	// ReturnTo is the destination that was refused, kept so a successful
	// login can resume it.
	ReturnTo string
	Reason   string
}

func allow() Decision {
	return Decision{Allow: true}
}

// Location renders the redirect with its return-to query, e.g.
// "/login?returnUrl=%2Fbookings".
func (d Decision) Location() string {
	if d.Allow || d.Redirect == "" {
		return ""
	}
	if d.ReturnTo == "" {
		return d.Redirect
	}
	return d.Redirect + "?" + url.Values{"returnUrl": {d.ReturnTo}}.Encode()
}

type Guard func(state State, destination string) Decision

// Authenticated sends signed-out callers to loginPath and remembers where
// they were going.
func Authenticated(loginPath string) Guard {
	return func(state State, destination string) Decision {
		if state.Authenticated {
			return allow()
		}
		return Decision{
			Redirect: loginPath,
			ReturnTo: destination,
			Reason:   "not signed in",
		}
	}
}

// RequireRole allows only sessions carrying role and sends everyone else to
// fallback.
func RequireRole(role, fallback string) Guard {
	return func(state State, destination string) Decision {
		if state.Authenticated && state.Role == role {
			return allow()
		}
		return Decision{
			Redirect: fallback,
			Reason:   role + " role required",
		}
	}
}

// Evaluate runs guards in order and returns the first refusal.
func Evaluate(state State, destination string, guards ...Guard) Decision {
	for _, g := range guards {
		if d := g(state, destination); !d.Allow {
			return d
		}
	}
	return allow()
}
