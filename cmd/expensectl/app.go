package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"

	"expense-tracker-client/internal/api"
	"expense-tracker-client/internal/common"
	"expense-tracker-client/internal/dashboard"
	"expense-tracker-client/internal/navigation"
	"expense-tracker-client/internal/services"
	"expense-tracker-client/internal/session"
	"expense-tracker-client/internal/storage"
	"expense-tracker-client/internal/tokenstore"
)

var errNotLoggedIn = errors.New("not logged in: run 'expensectl login' first")

// command is one top-level verb. An empty route means the command is not guarded.
type command struct {
	summary string
	route   navigation.Route
	run     func(ctx context.Context, a *app, args []string) error
}

// app holds the wired client stack for one invocation.
type app struct {
	cfg    *common.Config
	logger *common.Logger

	db         *storage.DB
	registry   *prometheus.Registry
	session    *session.Service
	auth       *services.AuthService
	expenses   *services.ExpenseService
	categories *services.CategoryService
	profile    *services.ProfileService
	dashboard  *dashboard.Loader
	nav        *navigation.Coordinator

	prompt *prompter
	stdout io.Writer
	stderr io.Writer
	json   bool

	detach func()
}

func newApp(cfg *common.Config, logger *common.Logger, stdin io.Reader, stdout, stderr io.Writer) (*app, error) {
	db, err := storage.NewDB(cfg.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open session database: %w", err)
	}
	version, err := db.SchemaVersion()
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("session database schema: %w", err)
	}
	logger.Debug().Str("path", cfg.Storage.Path).Uint("schema", version).Msg("Session database opened")

	registry := prometheus.NewRegistry()
	metrics := api.NewMetrics(registry)

	clientOpts := []api.ClientOption{
		api.WithBaseURL(cfg.API.BaseURL),
		api.WithLogger(logger.WithComponent("api")),
		api.WithRateLimit(cfg.API.RateLimit),
		api.WithTimeout(cfg.API.GetTimeout()),
		api.WithMetrics(metrics),
	}
	if cfg.API.UserAgent != "" {
		clientOpts = append(clientOpts, api.WithUserAgent(cfg.API.UserAgent))
	}

	// Login, register and refresh bypass the authenticated pipeline
	public := api.NewClient(clientOpts...)
	sess := session.NewService(tokenstore.New(db), services.NewAuthService(public, nil), logger.WithComponent("session"))
	if err := sess.Restore(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to restore session: %w", err)
	}

	nav := navigation.NewCoordinator(&terminalNavigator{w: stderr, logger: logger}, sess, logger.WithComponent("navigation"))
	detach := nav.Attach(sess)

	authed := api.NewClient(append(clientOpts,
		api.WithCredentials(sess),
		api.WithLoginRequired(nav.RequestLogin),
	)...)

	expenses := services.NewExpenseService(authed)

	return &app{
		cfg:        cfg,
		logger:     logger,
		db:         db,
		registry:   registry,
		session:    sess,
		auth:       services.NewAuthService(public, authed),
		expenses:   expenses,
		categories: services.NewCategoryService(authed),
		profile:    services.NewProfileService(authed, sess),
		dashboard:  dashboard.NewLoader(expenses, logger.WithComponent("dashboard")),
		nav:        nav,
		prompt:     newPrompter(stdin, stdout),
		stdout:     stdout,
		stderr:     stderr,
		detach:     detach,
	}, nil
}

// execute applies the command's guard, then runs it.
func (a *app) execute(ctx context.Context, cmd *command, args []string) error {
	if cmd.route != "" {
		if shown := a.nav.Go(cmd.route); shown != cmd.route {
			switch shown {
			case navigation.RouteLogin:
				return errNotLoggedIn
			case navigation.RouteDashboard:
				fmt.Fprintf(a.stdout, "Already logged in as %s. Run 'expensectl logout' to switch accounts.\n", a.userName())
				return nil
			}
		}
	}
	return cmd.run(ctx, a, args)
}

func (a *app) userName() string {
	if u := a.session.CurrentUser(); u != nil {
		return u.DisplayName()
	}
	return "unknown user"
}

func (a *app) close() {
	if a.detach != nil {
		a.detach()
	}
	if path := a.cfg.Metrics.TextfilePath; path != "" {
		if err := prometheus.WriteToTextfile(path, a.registry); err != nil {
			a.logger.Warn().Err(err).Str("path", path).Msg("Failed to write metrics textfile")
		}
	}
	if err := a.db.Close(); err != nil {
		a.logger.Warn().Err(err).Msg("Failed to close session database")
	}
}

// terminalNavigator prints what a browser would have shown when the session is lost.
type terminalNavigator struct {
	w      io.Writer
	logger *common.Logger
}

func (n *terminalNavigator) Navigate(route navigation.Route, reason string) {
	n.logger.Debug().Str("route", route.String()).Str("reason", reason).Msg("Navigate")
	switch reason {
	case navigation.ReasonSessionExpired:
		fmt.Fprintln(n.w, "Your session has expired. Run 'expensectl login' to sign in again.")
	case navigation.ReasonLoginRequired:
		fmt.Fprintln(n.w, "You are not logged in. Run 'expensectl login' first.")
	}
}
