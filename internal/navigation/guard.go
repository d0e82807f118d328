package navigation

// AuthChecker reports whether a session exists.
type AuthChecker interface {
	IsAuthenticated() bool
}

// Decision is the outcome of a guard check.
type Decision struct {
	Allow    bool
	Redirect Route
}

func allow() Decision { return Decision{Allow: true} }

func redirect(to Route) Decision { return Decision{Redirect: to} }

// LoginGuard keeps signed-in users away from the login and register views.
func LoginGuard(auth AuthChecker) Decision {
	if auth.IsAuthenticated() {
		return redirect(RouteDashboard)
	}
	return allow()
}

// AuthGuard sends signed-out users to the login view.
func AuthGuard(auth AuthChecker) Decision {
	if !auth.IsAuthenticated() {
		return redirect(RouteLogin)
	}
	return allow()
}

// Check applies the guard for route.
func Check(auth AuthChecker, route Route) Decision {
	if route.Access() == GuestOnly {
		return LoginGuard(auth)
	}
	return AuthGuard(auth)
}
