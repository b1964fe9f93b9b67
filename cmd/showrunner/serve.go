package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/me/showrunner/internal/auth"
	"github.com/me/showrunner/internal/catalog"
	"github.com/me/showrunner/internal/config"
	"github.com/me/showrunner/internal/logging"
	"github.com/me/showrunner/internal/metrics"
	"github.com/me/showrunner/internal/server"
	"github.com/me/showrunner/internal/session"
	"github.com/me/showrunner/internal/store"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(flagEnvFile, cmd.Flags())
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}
	cmd.Flags().String("addr", "", "Listen address (or SHOWRUNNER_ADDR)")
	cmd.Flags().String("base-url", "", "Public origin for reset links (or SHOWRUNNER_BASE_URL)")
	return cmd
}

// openStore opens and migrates the SQLite database named by cfg.
func openStore(ctx context.Context, cfg *config.ServerConfig, logger *slog.Logger) (*store.SQLiteStore, error) {
	st, err := store.NewSQLiteStore(cfg.DBPath, logger)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	logger.Info("database ready", "path", cfg.DBPath)
	return st, nil
}

// newAuthService builds the account service with the configured bootstrap admins.
func newAuthService(cfg *config.ServerConfig, st *store.SQLiteStore, logger *slog.Logger) (*auth.Service, error) {
	admins, err := cfg.AdminUsernames()
	if err != nil {
		return nil, err
	}
	if len(admins) > 0 {
		logger.Info("bootstrap admins configured", "admins", admins)
	}
	return auth.NewService(st,
		auth.WithHasher(auth.NewBcryptHasher(cfg.BcryptCost)),
		auth.WithAdmins(admins),
		auth.WithLogger(logger),
	), nil
}

func serve(parent context.Context, cfg *config.ServerConfig) error {
	logger := logging.NewLogger(logging.ParseLevel(cfg.LogLevel), cfg.LogFormat)

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	authSvc, err := newAuthService(cfg, st, logger)
	if err != nil {
		return err
	}
	if n, err := authSvc.SyncAdmins(ctx); err != nil {
		return fmt.Errorf("sync admins: %w", err)
	} else if n > 0 {
		logger.Info("existing users promoted to admin", "count", n)
	}

	var sessionStore session.Store = st
	if cfg.SessionStore == config.SessionStoreRedis {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		defer rdb.Close()
		rs := session.NewRedisStore(rdb, "showrunner")
		if err := rs.Ping(ctx); err != nil {
			return fmt.Errorf("connect redis %s: %w", cfg.RedisAddr, err)
		}
		sessionStore = rs
		logger.Info("sessions stored in redis", "addr", cfg.RedisAddr)
	}
	sessions := session.NewManager(sessionStore, session.Options{
		Secret: cfg.SessionSecret,
		Secure: cfg.SecureCookies,
		Logger: logger,
	})
	go sessions.RunCleanup(ctx, cfg.CleanupInterval())

	var mailer auth.Mailer = auth.NewLogMailer(logger)
	if cfg.SMTPEnabled() {
		mailer = auth.NewSMTPMailer(auth.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
		})
		logger.Info("reset links delivered by smtp", "host", cfg.SMTPHost, "port", cfg.SMTPPort)
	} else {
		logger.Warn("SMTP not configured; reset links are written to the log")
	}

	var opts []server.Option
	if cfg.MetricsEnabled {
		opts = append(opts, server.WithMetrics(metrics.New()))
	}

	srv := server.New(*cfg, server.Services{
		Store:    st,
		Auth:     authSvc,
		Catalog:  catalog.NewService(st, logger),
		Sessions: sessions,
		Tokens:   auth.NewTokenIssuer(cfg.TokenSecret, auth.APITokenTTL),
		Mailer:   mailer,
	}, logger, opts...)

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
	}
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("server stopped")
	return nil
}
