package main

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/erazemk/trgovina/internal/apiclient"
	"github.com/erazemk/trgovina/internal/catalog"
	"github.com/erazemk/trgovina/internal/config"
	"github.com/erazemk/trgovina/internal/db"
	"github.com/erazemk/trgovina/internal/model"
	"github.com/erazemk/trgovina/internal/store"
	"github.com/erazemk/trgovina/internal/web"
)

func main() {
	if err := config.LoadEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Parse(os.Args[1:], os.Stdout)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	logger, closeLog, err := setupLogger(cfg.LogPath, cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if closeLog != nil {
		defer closeLog()
	}

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer database.Close()

	if err := db.EnsureSchema(database); err != nil {
		slog.Error("failed to ensure database schema", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	password, err := ensureAdmin(ctx, database, cfg.AdminName, cfg.AdminEmail)
	if err != nil {
		slog.Error("failed to create admin account", "error", err)
		os.Exit(1)
	}
	if password != "" {
		printAdmin(cfg.AdminEmail, password)
	}
	slog.Info("database ready", "path", cfg.DBPath)

	jwtSecret, err := store.GetJWTSecret(ctx, database)
	if err != nil {
		slog.Error("failed to get JWT secret", "error", err)
		os.Exit(1)
	}

	client := apiclient.New(cfg.APIURL,
		apiclient.WithHTTPClient(&http.Client{Timeout: cfg.APITimeout}),
		apiclient.WithLogger(logger),
	)
	products := catalog.NewStore(client, logger)
	if err := products.Refresh(ctx); err != nil {
		slog.Warn("initial catalog fetch failed", "api", cfg.APIURL, "error", err)
	}
	stopPolling := func() {}
	if cfg.PollInterval > 0 {
		stopPolling = products.StartPolling(ctx, cfg.PollInterval)
	}

	handler, err := web.NewRouter(web.Options{
		DB:            database,
		JWTSecret:     jwtSecret,
		API:           client,
		Catalog:       products,
		SecureCookies: cfg.SecureCookies,
		Logger:        logger,
	})
	if err != nil {
		slog.Error("failed to set up web router", "error", err)
		os.Exit(1)
	}

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-quit
		slog.Info("shutdown signal received", "signal", sig.String())
		stopPolling()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			slog.Error("server forced to shutdown", "error", err)
		}
	}()

	slog.Info("server started", "addr", cfg.Addr, "api", cfg.APIURL)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	if n, err := store.PruneRevokedTokens(context.Background(), database, time.Now()); err != nil {
		slog.Warn("failed to prune revoked tokens", "error", err)
	} else if n > 0 {
		slog.Info("pruned revoked tokens", "count", n)
	}
	slog.Info("server stopped, closing database")
}

// ensureAdmin creates the admin account when no active user has email. It
// returns the generated password, or "" when the account already existed.
func ensureAdmin(ctx context.Context, database *sql.DB, name, email string) (string, error) {
	existing, err := store.GetUserByEmail(ctx, database, email)
	if err != nil {
		return "", err
	}
	if existing != nil {
		return "", nil
	}

	password, err := generatePassword(16)
	if err != nil {
		return "", fmt.Errorf("generating password: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	if _, err := store.CreateUser(ctx, database, name, email, string(hash), model.RoleAdmin); err != nil {
		return "", fmt.Errorf("creating admin user: %w", err)
	}
	return password, nil
}

func printAdmin(email, password string) {
	fmt.Println("Admin account created:")
	fmt.Printf("  Email:    %s\n", email)
	fmt.Printf("  Password: %s\n", password)
	fmt.Println()
	fmt.Println("Save this password, it cannot be recovered.")
	fmt.Println()
}

// generatePassword creates a random password of the given length.
func generatePassword(length int) (string, error) {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%&*"
	result := make([]byte, length)
	for i := range result {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		result[i] = charset[n.Int64()]
	}
	return string(result), nil
}
