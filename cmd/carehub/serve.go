package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/erazemk/carehub/internal/api"
	"github.com/erazemk/carehub/internal/config"
	"github.com/erazemk/carehub/internal/db"
	"github.com/erazemk/carehub/internal/logging"
	"github.com/erazemk/carehub/internal/store"
)

const (
	shutdownTimeout = 5 * time.Second
	purgeInterval   = time.Hour
)

func newServeCmd(v *viper.Viper, load func() (*config.Config, error)) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server, creating the database on first run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			bindFlags(v, cmd.Flags(), map[string]string{
				"addr":                        "addr",
				"admin_user":                  "admin-user",
				"log.file":                    "log-file",
				"log.format":                  "log-format",
				"log.level":                   "log-level",
				"equipment.allocation_policy": "allocation-policy",
			})
			cfg, err := load()
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}

	flags := cmd.Flags()
	flags.StringP("addr", "a", ":8080", "listen address")
	flags.StringP("admin-user", "u", "admin", "admin username on first run")
	flags.StringP("log-file", "l", "", "also write every log line to this file")
	flags.String("log-format", logging.FormatJSON, "log format: json or console")
	flags.String("log-level", "info", "log level: trace, debug, info, warn or error")
	flags.String("allocation-policy", "reassign", "equipment allocation policy: reassign or exclusive")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config) error {
	logger, closeLog, err := logging.New(cfg.LogOptions(), os.Stdout, os.Stderr)
	if err != nil {
		return err
	}
	defer closeLog()

	// Check if DB exists, auto-init if not.
	if _, err := os.Stat(cfg.DB); errors.Is(err, os.ErrNotExist) {
		database, password, err := initDatabase(ctx, cfg.DB, cfg.AdminUser)
		if err != nil {
			return fmt.Errorf("initializing database: %w", err)
		}
		database.Close()

		printInitResult(cfg.DB, cfg.AdminUser, password)
		fmt.Println()
	}

	database, err := db.Open(cfg.DB)
	if err != nil {
		return err
	}
	defer database.Close()

	if err := db.Migrate(database); err != nil {
		return err
	}
	logger.Info().Str("path", cfg.DB).Msg("database ready")

	secret := cfg.JWTSecret
	if secret == "" {
		// Generated and stored on first run.
		secret, err = store.GetJWTSecret(ctx, database)
		if err != nil {
			return err
		}
	}

	server := &http.Server{
		Addr: cfg.Addr,
		Handler: api.NewRouter(api.Options{
			DB:               database,
			JWTSecret:        secret,
			TokenExpiry:      cfg.TokenExpiry,
			AllocationPolicy: cfg.Equipment.AllocationPolicy,
			Photo:            cfg.PhotoOptions(),
			Logger:           logger,
		}),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info().
			Str("addr", cfg.Addr).
			Str("allocation_policy", string(cfg.Equipment.AllocationPolicy)).
			Msg("server started")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serving http: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		purgeRevokedTokens(gctx, database, logger)
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("server stopped")
		return err
	}
	logger.Info().Msg("server stopped, closing database")
	return nil
}

// purgeRevokedTokens drops revocations of tokens that have expired anyway,
// until ctx is done.
func purgeRevokedTokens(ctx context.Context, database *sql.DB, logger zerolog.Logger) {
	ticker := time.NewTicker(purgeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case t := <-ticker.C:
			n, err := store.PurgeExpiredTokens(ctx, database, t)
			if err != nil {
				if ctx.Err() == nil {
					logger.Warn().Err(err).Msg("purging revoked tokens")
				}
				continue
			}
			if n > 0 {
				logger.Debug().Int64("purged", n).Msg("purged expired token revocations")
			}
		}
	}
}
