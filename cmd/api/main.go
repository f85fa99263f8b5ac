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

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/jaekwang-park/todo-store/internal/config"
	todohttp "github.com/jaekwang-park/todo-store/internal/http"
	"github.com/jaekwang-park/todo-store/internal/middleware"
	"github.com/jaekwang-park/todo-store/internal/repository"
	"github.com/jaekwang-park/todo-store/internal/service"
	"github.com/jaekwang-park/todo-store/internal/telemetry"
)

// Version is set via ldflags during build.
var Version = "dev"

const serviceName = "todo-store"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		log.Error().Err(err).Msg("application failed")
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var configPath string

	serve := func(cmd *cobra.Command, _ []string) error {
		return run(cmd.Context(), configPath)
	}

	rootCmd := &cobra.Command{
		Use:           "todo-store",
		Short:         "Todo store HTTP service",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serve,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file path (YAML)")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server (default)",
		RunE:  serve,
	})
	rootCmd.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return migrateOnly(cmd.Context(), configPath)
		},
	})

	return rootCmd
}

// setup loads and validates configuration and builds the process logger.
func setup(configPath string) (config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, zerolog.Nop(), err
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, zerolog.Nop(), err
	}

	logger := telemetry.NewLogger(telemetry.LogOptions{
		Level:  cfg.ParseLogLevel(),
		Format: cfg.LogFormat,
		Output: os.Stdout,
	})
	log.Logger = logger
	return cfg, logger, nil
}

func openDB(ctx context.Context, cfg config.Config, logger zerolog.Logger) (*repository.DB, error) {
	db, err := repository.NewDB(ctx, repository.DBOptions{
		Driver:       cfg.DB.Driver,
		DSN:          cfg.DB.DSN(),
		MaxOpenConns: cfg.DB.MaxOpenConns,
	})
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	logger.Info().Str("driver", cfg.DB.Driver).Msg("database ready")
	return db, nil
}

func migrateOnly(ctx context.Context, configPath string) error {
	cfg, logger, err := setup(configPath)
	if err != nil {
		return err
	}
	db, err := openDB(ctx, cfg, logger)
	if err != nil {
		return err
	}
	return db.Close()
}

func run(ctx context.Context, configPath string) error {
	cfg, logger, err := setup(configPath)
	if err != nil {
		return err
	}

	logger.Info().
		Str("env", cfg.AppEnv).
		Str("port", cfg.ServerPort).
		Str("db_driver", cfg.DB.Driver).
		Str("auth_mode", cfg.Auth.Mode).
		Str("log_level", cfg.LogLevel).
		Msg("config loaded")

	shutdownTracing, err := telemetry.SetupTracing(ctx, telemetry.TracingOptions{
		Exporter:       cfg.Tracing.Exporter,
		Endpoint:       cfg.Tracing.Endpoint,
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    cfg.AppEnv,
	})
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			logger.Warn().Err(err).Msg("tracer shutdown failed")
		}
	}()

	db, err := openDB(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	var (
		metrics  *telemetry.Metrics
		svcOpts  []service.Option
		srvOpts  = todohttp.ServerOptions{CORSOrigins: cfg.CORSAllowedOrigins}
		routeOps = todohttp.RouterOptions{DB: db}
	)
	if cfg.MetricsEnabled {
		metrics = telemetry.NewMetrics("todo_store")
		svcOpts = append(svcOpts, service.WithRecorder(metrics))
		srvOpts.Metrics = metrics
		routeOps.Metrics = metrics.Handler()
	}

	routeOps.Todos = service.NewTodoService(repository.NewSQLTodo(db), svcOpts...)

	authCfg := middleware.AuthConfig{
		Mode:     cfg.Auth.Mode,
		Issuer:   cfg.Auth.Issuer,
		Audience: cfg.Auth.Audience,
	}
	switch cfg.Auth.Mode {
	case config.AuthModeHMAC:
		authCfg.Secret = []byte(cfg.Auth.JWTSecret)
	case config.AuthModeJWKS:
		authCfg.JWKSClient = middleware.NewJWKSClient(cfg.Auth.JWKSURL)
	}
	auth, err := middleware.NewAuth(authCfg)
	if err != nil {
		return fmt.Errorf("failed to create auth middleware: %w", err)
	}
	srvOpts.Auth = auth

	srv := todohttp.NewServer(cfg.ServerPort, logger, todohttp.NewRouter(routeOps), srvOpts)

	ctx, stop := context.WithCancel(ctx)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("server failed")
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	logger.Info().Msg("server stopped gracefully")
	return nil
}
