package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"academic-erp/pkg/config"
	"academic-erp/pkg/database"
	"academic-erp/pkg/middleware"
	"academic-erp/pkg/utils"
	"academic-erp/pkg/validation"
)

// NewRouter assembles the API router: middleware chain, auth routes and the
// guarded organisation routes.
func NewRouter(cfg *config.Config, store database.Store, log *zap.Logger) *chi.Mux {
	jwtService := utils.NewJWTService(cfg.JWTSecret)
	validate := validation.New()

	authHandler := NewAuthHandler(cfg, store, log, jwtService, validate)
	orgsHandler := NewOrgsHandler(store, log, validate)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(log))
	r.Use(middleware.Recovery(log))
	r.Use(middleware.CORS(cfg))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(chimw.Compress(5))
	if cfg.IsDevelopment() {
		r.Use(chimw.Heartbeat("/ping"))
	}

	r.Get("/", healthHandler(store))
	r.Get("/oauth2/authorization/google", authHandler.AuthorizeGoogle)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", authHandler.Login)
			r.Post("/user-info", authHandler.UserInfo)
			r.Post("/oauth/token", authHandler.ExchangeToken)
			r.Get("/oauth2/callback", authHandler.GoogleCallback)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(jwtService, store, log))
			r.Use(middleware.RequireOutreach)
			r.Route("/organisations", func(r chi.Router) {
				r.Get("/", orgsHandler.List)
				r.Post("/", orgsHandler.Create)
				r.Get("/paginated", orgsHandler.ListPaginated)
				r.Get("/search", orgsHandler.Search)
				r.Get("/search/name", orgsHandler.SearchByName)
				r.Get("/check-email", orgsHandler.CheckEmail)
				r.Get("/{id}", orgsHandler.Get)
				r.Put("/{id}", orgsHandler.Update)
				r.Delete("/{id}", orgsHandler.Delete)
				r.Get("/{id}/exists", orgsHandler.Exists)
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		utils.WriteNotFound(w, "Resource not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		utils.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	return r
}

func healthHandler(store database.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := map[string]string{
			"service":  "academic-erp-api",
			"status":   "healthy",
			"database": "up",
		}
		code := http.StatusOK
		if err := store.HealthCheck(); err != nil {
			status["status"] = "degraded"
			status["database"] = "down"
			code = http.StatusServiceUnavailable
		}
		utils.WriteJSON(w, code, status)
	}
}
