package navigation

import (
	"sync"

	"expense-tracker-client/internal/common"
)

// Navigator shows a route. reason is empty for user-initiated navigation.
type Navigator interface {
	Navigate(route Route, reason string)
}

// SessionEvents is the expiry feed of the session service.
type SessionEvents interface {
	OnExpired(fn func(error)) (unsubscribe func())
}

// Reasons passed to the Navigator.
const (
	ReasonSessionExpired = "session expired"
	ReasonLoginRequired  = "login required"
)

// Coordinator turns session loss into a single navigation to the login route.
type Coordinator struct {
	nav    Navigator
	auth   AuthChecker
	logger *common.Logger

	mu      sync.Mutex
	current Route
}

// NewCoordinator creates a coordinator starting at the login route.
func NewCoordinator(nav Navigator, auth AuthChecker, logger *common.Logger) *Coordinator {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	return &Coordinator{nav: nav, auth: auth, logger: logger, current: RouteLogin}
}

// Attach subscribes to session expiry.
func (c *Coordinator) Attach(events SessionEvents) (detach func()) {
	return events.OnExpired(func(err error) {
		c.logger.Debug().Err(err).Msg("Session expired, redirecting to login")
		c.toLogin(ReasonSessionExpired)
	})
}

// RequestLogin is called by the request pipeline when a protected request had no token.
func (c *Coordinator) RequestLogin() {
	c.toLogin(ReasonLoginRequired)
}

// Go navigates to route if the guard allows it, otherwise to the redirect target.
// It returns the route actually shown.
func (c *Coordinator) Go(route Route) Route {
	d := Check(c.auth, route)
	target := route
	if !d.Allow {
		target = d.Redirect
	}

	c.mu.Lock()
	c.current = target
	c.mu.Unlock()

	c.nav.Navigate(target, "")
	return target
}

// Current returns the route last shown.
func (c *Coordinator) Current() Route {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// toLogin navigates to the login route unless it is already showing.
func (c *Coordinator) toLogin(reason string) {
	c.mu.Lock()
	if c.current == RouteLogin {
		c.mu.Unlock()
		return
	}
	c.current = RouteLogin
	c.mu.Unlock()

	c.nav.Navigate(RouteLogin, reason)
}
