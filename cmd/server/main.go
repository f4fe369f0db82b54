package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"myshop/backend/internal/cache"
	"myshop/backend/internal/config"
	"myshop/backend/internal/httpapi"
	"myshop/backend/internal/logger"
	"myshop/backend/internal/repository"
	"myshop/backend/internal/service"
	"myshop/backend/internal/store"
	"myshop/backend/internal/store/memory"
	pgstore "myshop/backend/internal/store/postgres"
	sqlitestore "myshop/backend/internal/store/sqlite"
)

var rootCmd = &cobra.Command{
	Use:   "myshop",
	Short: "Inventory and point-of-sale backend for a single shop",
	Long: `myshop serves the inventory, purchasing, point-of-sale, customer credit
and reporting API.

Storage is chosen from the environment:
  DATABASE_URL  - Postgres connection string
  SQLITE_PATH   - single-file SQLite database
Without either, data lives in memory and is lost on exit.`,
	SilenceUsage: true,
	RunE:         runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the document table in the configured database and exit",
	RunE:  runMigrate,
}

func init() {
	rootCmd.AddCommand(serveCmd, migrateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// bootstrap loads .env and the environment and installs the global logger.
func bootstrap() (config.Config, func() error, error) {
	// .env is optional
	_ = godotenv.Load()

	cfg := config.Load()
	closeLog, err := logger.Setup(cfg.LoggerConfig())
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("logger: %w", err)
	}
	return cfg, closeLog, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, closeLog, err := bootstrap()
	if err != nil {
		return err
	}
	defer closeLog()
	log := logger.WithComponent("server")

	if err := validateSecurityConfig(cfg); err != nil {
		return fmt.Errorf("invalid security configuration: %w", err)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
	defer cancel()

	docs, backend, closers, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	log.Info().Str("backend", backend).Msg("document store ready")

	challenges, closeChallenges := openChallengeStore(ctx, cfg, log)
	if closeChallenges != nil {
		closers = append(closers, closeChallenges)
	}

	repo := repository.New(docs)
	svc := service.New(repo, logger.WithComponent("service"), service.Options{
		Location: cfg.Location(),
		PageSize: cfg.PageSize,
	})
	if backend == "memory" && cfg.SeedDemoData {
		if err := svc.SeedDemo(ctx); err != nil {
			return fmt.Errorf("seed demo data: %w", err)
		}
	}

	auth := httpapi.NewAuthManager(cfg.AuthSecret, repo, challenges, httpapi.AuthOptions{
		TokenTTL: time.Duration(cfg.AccessTokenTTLMinutes) * time.Minute,
		OTPTTL:   time.Duration(cfg.OTPTTLSeconds) * time.Second,
		Notifier: httpapi.LogNotifier{Log: logger.WithComponent("otp")},
	})
	api := httpapi.New(svc, auth, logger.WithComponent("http"), httpapi.Options{
		AllowedOrigin:       cfg.AllowedOrigin,
		LoginAttemptsPerMin: cfg.LoginAttemptsPerMin,
	})

	server := &http.Server{
		Addr:              cfg.Address(),
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	log.Info().Str("addr", cfg.Address()).Str("env", cfg.Env).Msg("myshop backend listening")
	serveErr := serve(sigCtx, server, log)

	for _, closeFn := range closers {
		if err := closeFn(); err != nil {
			log.Error().Err(err).Msg("close error")
		}
	}

	log.Info().Msg("server stopped")
	return serveErr
}

// serve runs server until ctx is done or listening fails, then shuts it down.
// A listen failure is returned.
func serve(ctx context.Context, server *http.Server, log zerolog.Logger) error {
	listenErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			listenErr <- err
		}
		close(listenErr)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
	case err := <-listenErr:
		if err != nil {
			log.Error().Err(err).Msg("server error")
			serveErr = fmt.Errorf("serve: %w", err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown error")
	}
	return serveErr
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, closeLog, err := bootstrap()
	if err != nil {
		return err
	}
	defer closeLog()
	log := logger.WithComponent("migrate")

	if cfg.DatabaseURL == "" && cfg.SQLitePath == "" {
		return errors.New("nothing to migrate: set DATABASE_URL or SQLITE_PATH")
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()
	_, backend, closers, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	for _, closeFn := range closers {
		_ = closeFn()
	}
	log.Info().Str("backend", backend).Msg("schema is up to date")
	return nil
}

// openStore picks Postgres, then SQLite, then memory, and brings the schema
// up to date for the persistent backends.
func openStore(ctx context.Context, cfg config.Config) (store.DocumentStore, string, []func() error, error) {
	switch {
	case cfg.DatabaseURL != "":
		pg, err := pgstore.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, "", nil, fmt.Errorf("postgres unavailable and DATABASE_URL is set: %w", err)
		}
		if err := pg.Migrate(ctx); err != nil {
			_ = pg.Close()
			return nil, "", nil, fmt.Errorf("postgres migrate: %w", err)
		}
		return pg, "postgres", []func() error{pg.Close}, nil
	case cfg.SQLitePath != "":
		lite, err := sqlitestore.New(cfg.SQLitePath)
		if err != nil {
			return nil, "", nil, fmt.Errorf("sqlite open: %w", err)
		}
		if err := lite.Migrate(ctx); err != nil {
			_ = lite.Close()
			return nil, "", nil, fmt.Errorf("sqlite migrate: %w", err)
		}
		return lite, "sqlite", []func() error{lite.Close}, nil
	default:
		return memory.New(), "memory", nil, nil
	}
}

// openChallengeStore prefers Redis and falls back to process memory when it
// is not configured or not reachable.
func openChallengeStore(ctx context.Context, cfg config.Config, log zerolog.Logger) (cache.ChallengeStore, func() error) {
	if cfg.RedisAddr == "" {
		log.Info().Msg("challenge store: memory")
		return cache.NewMemoryChallengeStore(), nil
	}
	redisStore := cache.NewRedisChallengeStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err := redisStore.Ping(ctx); err != nil {
		log.Warn().Err(err).Msg("redis unavailable, using in-memory challenge store")
		_ = redisStore.Close()
		return cache.NewMemoryChallengeStore(), nil
	}
	log.Info().Str("addr", cfg.RedisAddr).Msg("challenge store: redis")
	return redisStore, redisStore.Close
}

func validateSecurityConfig(cfg config.Config) error {
	if cfg.Env == "development" {
		return nil
	}
	if len(cfg.AuthSecret) < 32 {
		return fmt.Errorf("AUTH_SECRET must be set and at least 32 characters")
	}
	if cfg.AllowedOrigin == "*" {
		return fmt.Errorf("ALLOWED_ORIGIN must name an origin outside development")
	}
	return nil
}
