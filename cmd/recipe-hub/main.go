package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/upb/recipe-hub/app"
	"github.com/upb/recipe-hub/auth"
	"github.com/upb/recipe-hub/config"
	"github.com/upb/recipe-hub/internal/observability"
	"github.com/upb/recipe-hub/repositories/postgres"
	"github.com/upb/recipe-hub/routes"
	"github.com/upb/recipe-hub/services"
	"github.com/upb/recipe-hub/services/audit"
	"go.uber.org/zap"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "recipe-hub",
		Short:        "Recipe sharing API server",
		SilenceUsage: true,
	}

	root.AddCommand(newServeCommand(), newMigrateCommand(), newCreateAdminCommand())
	return root
}

func newServeCommand() *cobra.Command {
	var migrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg, logger, err := bootstrap(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			return runServer(ctx, cfg, logger, migrate)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", false, "apply pending migrations before serving")
	return cmd
}

func newMigrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage database migrations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(cmd.Context(), func(ctx context.Context, _ *config.Config, db *postgres.DB, _ *zap.Logger) error {
				return db.Migrate(ctx)
			})
		},
	}, &cobra.Command{
		Use:   "status",
		Short: "Print the state of every migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(cmd.Context(), func(ctx context.Context, _ *config.Config, db *postgres.DB, _ *zap.Logger) error {
				return db.MigrationStatus(ctx)
			})
		},
	})
	return cmd
}

func newCreateAdminCommand() *cobra.Command {
	var input services.RegisterInput

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an administrator account",
		RunE: func(cmd *cobra.Command, args []string) error {
			if input.Password == "" {
				input.Password = os.Getenv("ADMIN_PASSWORD")
			}
			return withDB(cmd.Context(), func(ctx context.Context, cfg *config.Config, db *postgres.DB, logger *zap.Logger) error {
				return createAdmin(ctx, cfg, db, logger, input)
			})
		},
	}
	cmd.Flags().StringVar(&input.Handle, "handle", "admin", "display handle")
	cmd.Flags().StringVar(&input.Email, "email", "", "login email")
	cmd.Flags().StringVar(&input.Phone, "phone", "", "phone number")
	cmd.Flags().StringVar(&input.Password, "password", "", "password (defaults to $ADMIN_PASSWORD)")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("phone")
	return cmd
}

// bootstrap loads configuration and builds the process logger
func bootstrap(ctx context.Context) (*config.Config, *zap.Logger, error) {
	cfg, err := config.New(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := initLogger(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	logger.Info("configuration loaded",
		zap.String("environment", cfg.Environment),
		zap.String("database", cfg.Database.LogString()))
	return cfg, logger, nil
}

func initLogger(cfg *config.Config) (*zap.Logger, error) {
	logger, err := observability.NewLogger(cfg.Observability.LogLevel, cfg.Observability.LogFormat)
	if err != nil {
		return nil, err
	}
	return logger.With(zap.String("service", "recipe-hub")), nil
}

func withDB(ctx context.Context, fn func(ctx context.Context, cfg *config.Config, db *postgres.DB, logger *zap.Logger) error) error {
	cfg, logger, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	db, err := postgres.NewDB(cfg.Database, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	return fn(ctx, cfg, db, logger)
}

func createAdmin(ctx context.Context, cfg *config.Config, db *postgres.DB, logger *zap.Logger, input services.RegisterInput) error {
	factory := postgres.NewRepositoryFactoryFromDB(db, logger)
	repos := factory.NewRepositories()

	hasher, err := auth.NewPasswordHasher(auth.DefaultPasswordCost)
	if err != nil {
		return err
	}

	// Tokens are never issued here
	accounts := services.NewAccountService(
		repos.Accounts,
		factory.GetTransactionManager(),
		audit.NewAuditService(repos.AuditLogs, logger),
		hasher,
		nil,
		services.AccountOptions{UniquePhone: cfg.Auth.UniquePhone},
		logger,
	)

	account, err := accounts.CreateAdmin(ctx, input)
	if err != nil {
		return err
	}
	fmt.Printf("created administrator %s (%s)\n", account.Email, account.ID)
	return nil
}

func runServer(ctx context.Context, cfg *config.Config, logger *zap.Logger, migrate bool) error {
	deps, err := app.NewDependencies(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := deps.Close(closeCtx); err != nil {
			logger.Error("failed to close dependencies", zap.Error(err))
		}
	}()

	if migrate {
		if err := deps.DB.Migrate(ctx); err != nil {
			return err
		}
	}

	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      routes.SetupRoutes(deps),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	logger.Info("server stopped")
	return nil
}
