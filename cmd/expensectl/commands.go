package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strings"
	"time"

	"expense-tracker-client/internal/models"
	"expense-tracker-client/internal/navigation"
)

var commands = map[string]*command{
	"login":      {summary: "Sign in", route: navigation.RouteLogin, run: cmdLogin},
	"register":   {summary: "Create an account and sign in", route: navigation.RouteRegister, run: cmdRegister},
	"logout":     {summary: "Sign out and forget stored tokens", run: cmdLogout},
	"whoami":     {summary: "Show the signed-in user", run: cmdWhoami},
	"passwd":     {summary: "Change your password", route: navigation.RouteProfile, run: cmdPasswd},
	"profile":    {summary: "Show or update your profile (show|update)", route: navigation.RouteProfile, run: cmdProfile},
	"expenses":   {summary: "Manage expenses (list|get|add|update|delete)", route: navigation.RouteExpenses, run: cmdExpenses},
	"categories": {summary: "Manage categories (list|get|add|update|delete)", route: navigation.RouteCategories, run: cmdCategories},
	"dashboard":  {summary: "Show the spending dashboard", route: navigation.RouteDashboard, run: cmdDashboard},
	"open":       {summary: "Open a view by path, e.g. /expenses or /categories/<id>", run: cmdOpen},
}

func newFlagSet(a *app, name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	return fs
}

// jsonFlag lets read commands take -json after the verb as well.
func jsonFlag(a *app, fs *flag.FlagSet) {
	fs.BoolVar(&a.json, "json", a.json, "Print JSON")
}

// splitID takes a leading positional id so flags may follow it.
func splitID(args []string) (string, []string) {
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		return args[0], args[1:]
	}
	return "", args
}

func requireID(fs *flag.FlagSet, id string) (string, error) {
	if id == "" {
		id = fs.Arg(0)
	}
	if id == "" {
		return "", fmt.Errorf("%s: missing id", fs.Name())
	}
	return id, nil
}

// setFlags returns the names of flags given on the command line.
func setFlags(fs *flag.FlagSet) map[string]bool {
	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return set
}

func valueOrAsk(a *app, value, label string) (string, error) {
	if value != "" {
		return value, nil
	}
	return a.prompt.ask(label)
}

func secretOrAsk(a *app, value, label string) (string, error) {
	if value != "" {
		return value, nil
	}
	v, err := a.prompt.askSecret(label)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return v, nil
}

func cmdLogin(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet(a, "login")
	email := fs.String("email", "", "Email (prompted if omitted)")
	password := fs.String("password", "", "Password (prompted if omitted)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var req models.LoginRequest
	var err error
	if req.Email, err = valueOrAsk(a, *email, "Email"); err != nil {
		return err
	}
	if req.Password, err = secretOrAsk(a, *password, "Password"); err != nil {
		return err
	}

	user, err := a.session.Login(ctx, req)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	fmt.Fprintf(a.stdout, "Logged in as %s (%s)\n", user.DisplayName(), user.Email)
	return nil
}

func cmdRegister(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet(a, "register")
	username := fs.String("username", "", "Username (prompted if omitted)")
	email := fs.String("email", "", "Email (prompted if omitted)")
	password := fs.String("password", "", "Password (prompted if omitted)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var req models.RegisterRequest
	var err error
	if req.Username, err = valueOrAsk(a, *username, "Username"); err != nil {
		return err
	}
	if req.Email, err = valueOrAsk(a, *email, "Email"); err != nil {
		return err
	}
	if *password != "" {
		req.Password, req.ConfirmPassword = *password, *password
	} else {
		if req.Password, err = secretOrAsk(a, "", "Password"); err != nil {
			return err
		}
		if req.ConfirmPassword, err = secretOrAsk(a, "", "Confirm password"); err != nil {
			return err
		}
	}

	user, err := a.session.Register(ctx, req)
	if err != nil {
		return fmt.Errorf("registration failed: %w", err)
	}
	fmt.Fprintf(a.stdout, "Registered and logged in as %s (%s)\n", user.DisplayName(), user.Email)
	return nil
}

func cmdLogout(_ context.Context, a *app, _ []string) error {
	if err := a.session.Logout(); err != nil {
		return err
	}
	fmt.Fprintln(a.stdout, "Logged out")
	return nil
}

func cmdWhoami(_ context.Context, a *app, args []string) error {
	fs := newFlagSet(a, "whoami")
	jsonFlag(a, fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	user := a.session.CurrentUser()
	if user == nil || !a.session.IsAuthenticated() {
		fmt.Fprintln(a.stdout, "Not logged in")
		return nil
	}

	expiry, hasExpiry := a.session.TokenExpiry()
	if a.json {
		out := struct {
			*models.User
			ExpiresAt *time.Time `json:"expiresAt,omitempty"`
		}{User: user}
		if hasExpiry {
			out.ExpiresAt = &expiry
		}
		return printJSON(a.stdout, out)
	}

	printUser(a.stdout, user)
	if hasExpiry {
		fmt.Fprintf(a.stdout, "Access token expires %s\n", expiry.Local().Format(time.RFC1123))
	}
	return nil
}

func cmdPasswd(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet(a, "passwd")
	current := fs.String("current", "", "Current password (prompted if omitted)")
	next := fs.String("new", "", "New password (prompted if omitted)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var req models.ChangePasswordRequest
	var err error
	if req.CurrentPassword, err = secretOrAsk(a, *current, "Current password"); err != nil {
		return err
	}
	if *next != "" {
		req.NewPassword, req.ConfirmPassword = *next, *next
	} else {
		if req.NewPassword, err = secretOrAsk(a, "", "New password"); err != nil {
			return err
		}
		if req.ConfirmPassword, err = secretOrAsk(a, "", "Confirm new password"); err != nil {
			return err
		}
	}

	if err := a.auth.ChangePassword(ctx, req); err != nil {
		return fmt.Errorf("password change failed: %w", err)
	}
	fmt.Fprintln(a.stdout, "Password changed")
	return nil
}

func cmdProfile(ctx context.Context, a *app, args []string) error {
	sub := "show"
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		sub, args = args[0], args[1:]
	}

	switch sub {
	case "show":
		fs := newFlagSet(a, "profile show")
		jsonFlag(a, fs)
		if err := fs.Parse(args); err != nil {
			return err
		}
		user, err := a.profile.Get(ctx)
		if err != nil {
			return err
		}
		if a.json {
			return printJSON(a.stdout, user)
		}
		printUser(a.stdout, user)
		return nil

	case "update":
		fs := newFlagSet(a, "profile update")
		email := fs.String("email", "", "Email")
		first := fs.String("first", "", "First name")
		last := fs.String("last", "", "Last name")
		currency := fs.String("currency", "", "Preferred currency")
		tz := fs.String("timezone", "", "Time zone")
		if err := fs.Parse(args); err != nil {
			return err
		}
		set := setFlags(fs)
		if len(set) == 0 {
			return errors.New("profile update: nothing to change")
		}

		current, err := a.profile.Get(ctx)
		if err != nil {
			return err
		}
		req := models.UpdateProfileRequest{
			Email:     current.Email,
			FirstName: current.FirstName,
			LastName:  current.LastName,
			Currency:  current.Currency,
			TimeZone:  current.TimeZone,
		}
		if set["email"] {
			req.Email = *email
		}
		if set["first"] {
			req.FirstName = *first
		}
		if set["last"] {
			req.LastName = *last
		}
		if set["currency"] {
			req.Currency = strings.ToUpper(*currency)
		}
		if set["timezone"] {
			req.TimeZone = *tz
		}

		user, err := a.profile.Update(ctx, req)
		if err != nil {
			return fmt.Errorf("profile update failed: %w", err)
		}
		fmt.Fprintf(a.stdout, "Profile updated for %s\n", user.DisplayName())
		return nil

	default:
		return fmt.Errorf("unknown profile command %q (want show or update)", sub)
	}
}

// cmdOpen resolves a path the way the web app's router would and shows that view.
// The view's own guard still applies.
func cmdOpen(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet(a, "open")
	jsonFlag(a, fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("usage: expensectl open <path>")
	}

	path := fs.Arg(0)
	route := navigation.Resolve(path)
	a.logger.Debug().Str("path", path).Str("route", route.String()).Msg("Open")

	run, rest := routeView(route, detailID(route, path))
	return a.execute(ctx, &command{route: route, run: run}, rest)
}

func routeView(route navigation.Route, id string) (func(context.Context, *app, []string) error, []string) {
	switch route {
	case navigation.RouteDashboard:
		return cmdDashboard, nil
	case navigation.RouteExpenses:
		if id != "" {
			return cmdExpenses, []string{"get", id}
		}
		return cmdExpenses, []string{"list"}
	case navigation.RouteCategories:
		if id != "" {
			return cmdCategories, []string{"get", id}
		}
		return cmdCategories, []string{"list"}
	case navigation.RouteProfile:
		return cmdProfile, []string{"show"}
	case navigation.RouteRegister:
		return cmdRegister, nil
	default:
		return cmdLogin, nil
	}
}

// detailID returns the segment after route in path, as in /expenses/<id>.
func detailID(route navigation.Route, path string) string {
	p := strings.Trim(strings.TrimSpace(path), "/")
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	prefix := strings.TrimPrefix(route.String(), "/") + "/"
	if len(p) <= len(prefix) || !strings.EqualFold(p[:len(prefix)], prefix) {
		return ""
	}
	id, _, _ := strings.Cut(p[len(prefix):], "/")
	return id
}
