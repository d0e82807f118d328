// Command mockapi serves the in-memory expense tracker API for offline development
// and end-to-end tests.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"expense-tracker-client/internal/apitest"
	"expense-tracker-client/internal/common"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	// Optional .env file for local development
	_ = godotenv.Load()

	fs := flag.NewFlagSet("mockapi", flag.ContinueOnError)
	fs.SetOutput(stderr)

	addr := fs.String("addr", envOr("MOCKAPI_ADDR", "localhost:5000"), "Listen address")
	username := fs.String("user", "demo", "Seed user name (empty to skip seeding)")
	email := fs.String("email", "demo@example.com", "Seed user email")
	password := fs.String("password", "password", "Seed user password")
	accessTTL := fs.Duration("access-ttl", apitest.DefaultAccessTTL, "Access token lifetime")
	secret := fs.String("secret", os.Getenv("MOCKAPI_SECRET"), "JWT signing secret (random when empty)")
	logLevel := fs.String("log-level", envOr("MOCKAPI_LOG_LEVEL", "info"), "Log level")
	logFormat := fs.String("log-format", envOr("MOCKAPI_LOG_FORMAT", "json"), "Log format (json or console)")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if *accessTTL <= 0 {
		return fmt.Errorf("access-ttl must be positive")
	}

	logger := common.NewLogger(*logLevel, *logFormat, stderr)

	opts := []apitest.Option{
		apitest.WithLogger(logger),
		apitest.WithAccessTTL(*accessTTL),
	}
	if *secret != "" {
		opts = append(opts, apitest.WithSecret([]byte(*secret)))
	}
	api := apitest.NewServer(opts...)

	if *username != "" {
		u, err := api.AddUser(*username, *email, *password)
		if err != nil {
			return fmt.Errorf("failed to seed user: %w", err)
		}
		logger.Info().Str("user", u.Username).Str("email", u.Email).Msg("Seeded user")
	}

	ln, err := net.Listen("tcp", *addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", *addr, err)
	}

	srv := &http.Server{
		Handler:      setupRouter(api),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	fmt.Fprintf(stdout, "listening on http://%s\n", ln.Addr())
	logger.Info().Str("addr", ln.Addr().String()).Msg("Mock API ready")

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info().Msg("Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}

	logger.Info().Msg("Server stopped")
	return nil
}

// setupRouter mounts the fake API next to health, version and metrics endpoints.
func setupRouter(api *apitest.Server) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/api/", api.Handler())
	mux.HandleFunc("GET /health", healthHandler)
	mux.HandleFunc("GET /version", versionHandler)
	mux.Handle("GET /metrics", promhttp.Handler())
	return mux
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func versionHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"version": common.Version,
		"build":   common.Build,
		"commit":  common.GitCommit,
	})
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
