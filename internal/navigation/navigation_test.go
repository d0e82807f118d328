package navigation

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeAuth bool

func (f fakeAuth) IsAuthenticated() bool { return bool(f) }

type navCall struct {
	route  Route
	reason string
}

type recordingNavigator struct {
	mu    sync.Mutex
	calls []navCall
}

func (n *recordingNavigator) Navigate(route Route, reason string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, navCall{route, reason})
}

type fakeEvents struct {
	fns []func(error)
}

func (f *fakeEvents) OnExpired(fn func(error)) func() {
	f.fns = append(f.fns, fn)
	return func() { f.fns = nil }
}

func (f *fakeEvents) fire(err error) {
	for _, fn := range f.fns {
		fn(err)
	}
}

func TestResolve(t *testing.T) {
	tests := []struct {
		path string
		want Route
	}{
		{"", RouteLogin},
		{"/", RouteLogin},
		{"/auth/login", RouteLogin},
		{"auth/register/", RouteRegister},
		{"/Dashboard", RouteDashboard},
		{"/expenses/42", RouteExpenses},
		{"/categories?page=2", RouteCategories},
		{"/profile", RouteProfile},
		{"/nowhere", RouteLogin},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, Resolve(tt.path))
		})
	}
}

func TestGuards(t *testing.T) {
	tests := []struct {
		name  string
		auth  bool
		route Route
		want  Decision
	}{
		{"guest on login", false, RouteLogin, Decision{Allow: true}},
		{"guest on register", false, RouteRegister, Decision{Allow: true}},
		{"user on login", true, RouteLogin, Decision{Redirect: RouteDashboard}},
		{"user on register", true, RouteRegister, Decision{Redirect: RouteDashboard}},
		{"guest on dashboard", false, RouteDashboard, Decision{Redirect: RouteLogin}},
		{"guest on expenses", false, RouteExpenses, Decision{Redirect: RouteLogin}},
		{"user on categories", true, RouteCategories, Decision{Allow: true}},
		{"user on profile", true, RouteProfile, Decision{Allow: true}},
		{"unknown is protected", false, Route("/admin"), Decision{Redirect: RouteLogin}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Check(fakeAuth(tt.auth), tt.route))
		})
	}
}

func TestCoordinatorGo(t *testing.T) {
	nav := &recordingNavigator{}
	c := NewCoordinator(nav, fakeAuth(false), nil)

	assert.Equal(t, RouteLogin, c.Go(RouteDashboard))
	assert.Equal(t, RouteLogin, c.Current())

	c = NewCoordinator(nav, fakeAuth(true), nil)
	assert.Equal(t, RouteDashboard, c.Go(RouteLogin))
	assert.Equal(t, RouteExpenses, c.Go(RouteExpenses))
	assert.Equal(t, RouteExpenses, c.Current())
}

func TestCoordinatorRedirectsOnceOnExpiry(t *testing.T) {
	nav := &recordingNavigator{}
	events := &fakeEvents{}
	c := NewCoordinator(nav, fakeAuth(true), nil)
	detach := c.Attach(events)
	defer detach()

	c.Go(RouteExpenses)
	nav.calls = nil

	events.fire(errors.New("refresh failed"))
	events.fire(errors.New("refresh failed again"))
	c.RequestLogin()

	assert.Equal(t, []navCall{{RouteLogin, ReasonSessionExpired}}, nav.calls)
	assert.Equal(t, RouteLogin, c.Current())
}

func TestCoordinatorRequestLogin(t *testing.T) {
	nav := &recordingNavigator{}
	c := NewCoordinator(nav, fakeAuth(true), nil)
	c.Go(RouteProfile)
	nav.calls = nil

	c.RequestLogin()
	assert.Equal(t, []navCall{{RouteLogin, ReasonLoginRequired}}, nav.calls)
}
