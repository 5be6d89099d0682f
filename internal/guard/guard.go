// Package guard holds the route policies deciding which view a credential
// may reach. Policies are pure functions; the UI re-resolves on every
// credential change so login and logout flip the reachable views immediately.
package guard

import "github.com/vovakirdan/konnect-cli/internal/session"

// Route identifies a top-level view.
type Route string

const (
	RouteLogin    Route = "login"
	RouteRegister Route = "register"
	RouteChat     Route = "chat"
)

// Decision is the outcome of evaluating a policy.
type Decision int

const (
	// Allow renders the requested view.
	Allow Decision = iota
	// ToLogin redirects to the login entry point.
	ToLogin
	// ToChat redirects to the main authenticated view.
	ToChat
)

// Authenticated is the policy for views that require a session.
func Authenticated(cred session.Credential) Decision {
	if !cred.Present() {
		return ToLogin
	}
	return Allow
}

// GuestOnly is the policy for views reserved for logged-out users.
func GuestOnly(cred session.Credential) Decision {
	if cred.Present() {
		return ToChat
	}
	return Allow
}

// Resolve maps a requested route to the route actually shown. Unknown
// routes fall back to the login entry point.
func Resolve(route Route, cred session.Credential) Route {
	switch route {
	case RouteChat:
		if Authenticated(cred) == ToLogin {
			return RouteLogin
		}
		return RouteChat
	case RouteLogin, RouteRegister:
		if GuestOnly(cred) == ToChat {
			return RouteChat
		}
		return route
	default:
		return Resolve(RouteLogin, cred)
	}
}
