// Package navigation decides which views a session may open and reacts to session loss.
package navigation

import "strings"

// Route is an application view.
type Route string

const (
	RouteLogin      Route = "/auth/login"
	RouteRegister   Route = "/auth/register"
	RouteDashboard  Route = "/dashboard"
	RouteExpenses   Route = "/expenses"
	RouteCategories Route = "/categories"
	RouteProfile    Route = "/profile"
)

// Access classifies who may open a route.
type Access int

const (
	// GuestOnly routes are for signed-out users.
	GuestOnly Access = iota
	// Protected routes need a session.
	Protected
)

var routes = map[Route]Access{
	RouteLogin:      GuestOnly,
	RouteRegister:   GuestOnly,
	RouteDashboard:  Protected,
	RouteExpenses:   Protected,
	RouteCategories: Protected,
	RouteProfile:    Protected,
}

// Resolve maps a path to a known route. Empty and unknown paths resolve to the login route.
func Resolve(path string) Route {
	path = "/" + strings.Trim(strings.ToLower(strings.TrimSpace(path)), "/")
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	r := Route(path)
	if _, ok := routes[r]; ok {
		return r
	}
	// Detail views such as /expenses/42 belong to their list route.
	for known := range routes {
		if strings.HasPrefix(path, string(known)+"/") {
			return known
		}
	}
	return RouteLogin
}

// Access returns the access class of r. Unknown routes are protected.
func (r Route) Access() Access {
	if a, ok := routes[r]; ok {
		return a
	}
	return Protected
}

func (r Route) String() string {
	return string(r)
}
