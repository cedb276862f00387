package app

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/upb/recipe-hub/auth"
	"github.com/upb/recipe-hub/config"
	"github.com/upb/recipe-hub/handlers"
	"github.com/upb/recipe-hub/internal/observability"
	"github.com/upb/recipe-hub/middleware"
	"github.com/upb/recipe-hub/repositories"
	"github.com/upb/recipe-hub/repositories/postgres"
	"github.com/upb/recipe-hub/services"
	"github.com/upb/recipe-hub/services/audit"
	"github.com/upb/recipe-hub/storage"
	"go.uber.org/zap"
)

// Dependencies holds all application dependencies.
// Everything is built once at startup and never replaced afterwards.
type Dependencies struct {
	// Infrastructure
	Config *config.Config
	DB     *postgres.DB
	Logger *zap.Logger

	// Repository Factory
	RepoFactory *postgres.RepositoryFactory

	// Repositories
	Accounts  repositories.AccountRepository
	Recipes   repositories.RecipeRepository
	Favorites repositories.FavoriteRepository
	AuditLogs repositories.AuditRepository
	TxManager repositories.TransactionManager

	// Auth
	Hasher         *auth.PasswordHasher
	Tokens         *auth.TokenService
	AuthMiddleware *middleware.AuthMiddleware

	// Storage is nil when S3_BUCKET is not configured
	Images *storage.S3ImageStore

	// Services
	Audit           *audit.AuditService
	AccountService  *services.AccountService
	RecipeService   *services.RecipeService
	FavoriteService *services.FavoriteService

	// Observability is nil when metrics are disabled
	Metrics *observability.HTTPMetrics

	// Handlers
	HealthHandler   *handlers.HealthHandler
	AuthHandler     *handlers.AuthHandler
	RecipeHandler   *handlers.RecipeHandler
	FavoriteHandler *handlers.FavoriteHandler
	AdminHandler    *handlers.AdminHandler
}

// NewDependencies opens the database and wires up all application dependencies
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	if err := deps.initDatabase(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := deps.wire(ctx); err != nil {
		_ = deps.RepoFactory.Close()
		return nil, err
	}

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

// NewDependenciesFromDB wires all dependencies over an already opened pool
func NewDependenciesFromDB(ctx context.Context, cfg *config.Config, db *sql.DB, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}
	deps.DB = postgres.WrapDB(db, logger)
	deps.RepoFactory = postgres.NewRepositoryFactoryFromDB(deps.DB, logger)

	if err := deps.wire(ctx); err != nil {
		return nil, err
	}
	return deps, nil
}

func (d *Dependencies) wire(ctx context.Context) error {
	d.initRepositories()

	if err := d.initAuth(d.Config); err != nil {
		return fmt.Errorf("failed to initialize auth: %w", err)
	}

	if err := d.initStorage(ctx, d.Config); err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}

	d.initServices(d.Config)
	d.initHandlers(d.Config)

	if d.Config.Observability.MetricsEnabled {
		d.Metrics = observability.NewHTTPMetrics()
	}
	return nil
}

// initDatabase initializes the PostgreSQL database connection and factory
func (d *Dependencies) initDatabase(ctx context.Context, cfg *config.Config) error {
	factory, err := postgres.NewRepositoryFactory(cfg, d.Logger)
	if err != nil {
		return fmt.Errorf("failed to create repository factory: %w", err)
	}

	d.RepoFactory = factory
	d.DB = factory.GetDB()

	if err := d.DB.HealthCheck(ctx); err != nil {
		_ = factory.Close()
		return fmt.Errorf("database ping failed: %w", err)
	}

	return nil
}

// initRepositories initializes all repository instances
func (d *Dependencies) initRepositories() {
	repos := d.RepoFactory.NewRepositories()

	d.Accounts = repos.Accounts
	d.Recipes = repos.Recipes
	d.Favorites = repos.Favorites
	d.AuditLogs = repos.AuditLogs
	d.TxManager = d.RepoFactory.GetTransactionManager()

	d.Logger.Info("repositories initialized")
}

func (d *Dependencies) initAuth(cfg *config.Config) error {
	hasher, err := auth.NewPasswordHasher(auth.DefaultPasswordCost)
	if err != nil {
		return err
	}
	d.Hasher = hasher

	if cfg.Auth.EphemeralSecret {
		d.Logger.Warn("JWT_SECRET not set, using a per-process secret; tokens will not survive a restart")
	}
	d.Tokens = auth.NewTokenService([]byte(cfg.Auth.JWTSecret), cfg.Auth.TokenTTL, cfg.Auth.Issuer)
	d.AuthMiddleware = middleware.NewAuthMiddleware(d.Tokens, d.Accounts, d.Logger)
	return nil
}

func (d *Dependencies) initStorage(ctx context.Context, cfg *config.Config) error {
	if !cfg.Storage.Enabled() {
		d.Logger.Warn("object storage not configured, image uploads disabled")
		return nil
	}
	images, err := storage.NewS3ImageStore(ctx, cfg.Storage, d.Logger)
	if err != nil {
		return err
	}
	d.Images = images
	d.Logger.Info("object storage initialized", zap.String("bucket", cfg.Storage.Bucket))
	return nil
}

func (d *Dependencies) initServices(cfg *config.Config) {
	d.Audit = audit.NewAuditService(d.AuditLogs, d.Logger)

	d.AccountService = services.NewAccountService(
		d.Accounts,
		d.TxManager,
		d.Audit,
		d.Hasher,
		d.Tokens,
		services.AccountOptions{UniquePhone: cfg.Auth.UniquePhone},
		d.Logger,
	)

	// A typed nil must not reach the interface
	var images services.ImageStore
	if d.Images != nil {
		images = d.Images
	}
	d.RecipeService = services.NewRecipeService(d.Recipes, d.Accounts, d.TxManager, d.Audit, images, d.Logger)
	d.FavoriteService = services.NewFavoriteService(d.Favorites, d.Recipes, d.Logger)
}

func (d *Dependencies) initHandlers(cfg *config.Config) {
	cookie := auth.CookieSettings{
		Enabled: cfg.Auth.CookieEnabled,
		Name:    cfg.Auth.CookieName,
		Secure:  cfg.IsProduction(),
		MaxAge:  cfg.Auth.TokenTTL,
	}

	var db *sql.DB
	if d.DB != nil {
		db = d.DB.DB
	}
	d.HealthHandler = handlers.NewHealthHandler(db, d.Logger)
	d.AuthHandler = handlers.NewAuthHandler(d.AccountService, cookie, d.Logger)
	d.RecipeHandler = handlers.NewRecipeHandler(d.RecipeService, d.Logger)
	d.FavoriteHandler = handlers.NewFavoriteHandler(d.FavoriteService, d.Logger)
	d.AdminHandler = handlers.NewAdminHandler(d.AccountService, d.RecipeService, d.Audit, d.Logger)
}

// Close gracefully shuts down all dependencies
func (d *Dependencies) Close(ctx context.Context) error {
	d.Logger.Info("shutting down dependencies")

	var errs []error

	// Close database connection
	if d.RepoFactory != nil {
		if err := d.RepoFactory.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		} else {
			d.Logger.Info("database connection closed")
		}
		d.RepoFactory = nil
	}

	// Sync logger
	if d.Logger != nil {
		_ = d.Logger.Sync()
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors during shutdown: %v", errs)
	}

	return nil
}
