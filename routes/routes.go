package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/upb/recipe-hub/app"
	"github.com/upb/recipe-hub/middleware"
	"github.com/upb/recipe-hub/utils"
	"go.uber.org/zap"
)

// SetupRoutes configures all application routes and middleware
func SetupRoutes(deps *app.Dependencies) http.Handler {
	cfg := deps.Config
	r := chi.NewRouter()

	// Core middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.RequestLogger(&chimiddleware.DefaultLogFormatter{
		Logger:  zap.NewStdLog(deps.Logger.Named("http")),
		NoColor: true,
	}))
	r.Use(chimiddleware.Recoverer)
	if cfg.Server.RequestTimeout > 0 {
		r.Use(chimiddleware.Timeout(cfg.Server.RequestTimeout))
	}
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Middleware)
	}
	r.Use(middleware.AuditRequestMeta)

	// CORS middleware
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check endpoints
	r.Get("/healthz", deps.HealthHandler.HandleHealth)
	r.Get("/readyz", deps.HealthHandler.HandleReadiness)
	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())
	}

	auth := deps.AuthMiddleware

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", deps.AuthHandler.HandleRegister)
			r.Post("/login", deps.AuthHandler.HandleLogin)
			r.Post("/logout", deps.AuthHandler.HandleLogout)

			r.Group(func(r chi.Router) {
				r.Use(auth.RequireAuth)
				r.Get("/me", deps.AuthHandler.HandleMe)
				r.Put("/me", deps.AuthHandler.HandleUpdateMe)
			})
		})

		r.Route("/recipes", func(r chi.Router) {
			// Public reads
			r.Get("/", deps.RecipeHandler.HandleList)

			r.Group(func(r chi.Router) {
				r.Use(auth.RequireAuth)
				r.Get("/mine", deps.RecipeHandler.HandleListMine)
				r.Post("/images", deps.RecipeHandler.HandleImageUpload)
				r.Post("/", deps.RecipeHandler.HandleCreate)
				r.Put("/{id}", deps.RecipeHandler.HandleUpdate)
				r.Delete("/{id}", deps.RecipeHandler.HandleDelete)
			})

			r.Get("/{id}", deps.RecipeHandler.HandleGet)
		})

		r.Route("/favorites", func(r chi.Router) {
			r.Use(auth.RequireAuth)
			r.Get("/", deps.FavoriteHandler.HandleList)
			r.Post("/{recipeID}", deps.FavoriteHandler.HandleToggle)
		})

		// Administration (require admin role)
		r.Route("/admin", func(r chi.Router) {
			r.Use(auth.RequireAuth)
			r.Use(auth.RequireAdmin)

			r.Route("/users", func(r chi.Router) {
				r.Get("/", deps.AdminHandler.HandleListUsers)
				r.Get("/{id}", deps.AdminHandler.HandleGetUser)
				r.Put("/{id}", deps.AdminHandler.HandleUpdateUser)
				r.Delete("/{id}", deps.AdminHandler.HandleDeleteUser)
			})

			r.Route("/recipes", func(r chi.Router) {
				r.Get("/", deps.AdminHandler.HandleListRecipes)
				r.Post("/", deps.AdminHandler.HandleCreateRecipe)
				r.Get("/{id}", deps.AdminHandler.HandleGetRecipe)
				r.Put("/{id}", deps.AdminHandler.HandleUpdateRecipe)
				r.Delete("/{id}", deps.AdminHandler.HandleDeleteRecipe)
			})

			r.Get("/audit-logs", deps.AdminHandler.HandleListAuditLogs)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		_ = utils.WriteNotFound(w, "Endpoint not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		_ = utils.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	return r
}
