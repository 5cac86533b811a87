package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/devenkapadia/custodia/internal/logger"
	"github.com/devenkapadia/custodia/pkg/custody/api/auth"
	"github.com/devenkapadia/custodia/pkg/custody/api/handlers"
	apiMiddleware "github.com/devenkapadia/custodia/pkg/custody/api/middleware"
	"github.com/devenkapadia/custodia/pkg/custody/service"
	"github.com/devenkapadia/custodia/pkg/custody/store"
)

// NewRouter creates and configures the chi router with all middleware and routes.
//
// The router is configured with:
//   - Request ID middleware for request tracking
//   - Real IP extraction for proper client identification
//   - Custom request logging using the internal logger
//   - Panic recovery to prevent server crashes
//   - Request timeout to prevent hung requests
//   - Prometheus request metrics
//
// Routes:
//   - GET /health - Liveness probe
//   - GET /health/ready - Readiness probe
//   - GET /metrics - Prometheus metrics
//   - POST /api/v1/auth/login - User authentication
//   - POST /api/v1/auth/refresh - Token refresh
//   - GET /api/v1/auth/me - Current user info
//   - GET /api/v1/files - Visible file listing
//   - POST /api/v1/files - File creation
//   - GET /api/v1/files/{id} - Single file
//   - GET /api/v1/files/{id}/history - File ledger
//   - POST /api/v1/transfer - Ownership transfer
//   - GET /api/v1/revoke - Revocable file listing
//   - POST /api/v1/revoke - Ownership revoke
//   - GET /api/v1/history - Visible ledger entries
//   - /api/v1/users/* - User management (staff only, plus self-access)
//   - POST /api/v1/users/me/password - Change own password
func NewRouter(config APIConfig, custodyStore store.Store, jwtService *auth.JWTService) http.Handler {
	r := chi.NewRouter()

	// Middleware stack - order matters
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(apiMiddleware.Metrics())

	if len(config.CORSAllowedOrigins) > 0 {
		r.Use(cors.New(cors.Options{
			AllowedOrigins:   config.CORSAllowedOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
			AllowedHeaders:   []string{"Authorization", "Content-Type"},
			AllowCredentials: true,
		}).Handler)
	}

	custodyService := service.New(custodyStore)
	access := service.NewAccess(custodyStore)

	healthHandler := handlers.NewHealthHandler(custodyStore)
	authHandler := handlers.NewAuthHandler(custodyStore, jwtService)
	userHandler := handlers.NewUserHandler(custodyStore)
	recordHandler := handlers.NewRecordHandler(custodyStore, access)
	transferHandler := handlers.NewTransferHandler(custodyStore, custodyService)
	revokeHandler := handlers.NewRevokeHandler(custodyStore, custodyService)
	historyHandler := handlers.NewHistoryHandler(custodyStore, access)

	// Health routes - unauthenticated
	r.Route("/health", func(r chi.Router) {
		r.Get("/", healthHandler.Liveness)
		r.Get("/ready", healthHandler.Readiness)
	})

	r.Handle("/metrics", promhttp.Handler())

	// Root redirect to health for convenience
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/health", http.StatusTemporaryRedirect)
	})

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Auth routes - mostly unauthenticated
		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", authHandler.Login)
			r.Post("/refresh", authHandler.Refresh)

			r.Group(func(r chi.Router) {
				r.Use(apiMiddleware.JWTAuth(jwtService))
				r.Get("/me", authHandler.Me)
			})
		})

		// Everything else requires authentication
		r.Group(func(r chi.Router) {
			r.Use(apiMiddleware.JWTAuth(jwtService))

			// Custody routes - handlers do their own per-record authorization
			r.Route("/files", func(r chi.Router) {
				r.Get("/", recordHandler.List)
				r.Post("/", recordHandler.Create)
				r.Get("/{id}", recordHandler.Get)
				r.Get("/{id}/history", historyHandler.ForRecord)
			})

			r.Post("/transfer", transferHandler.Transfer)

			r.Route("/revoke", func(r chi.Router) {
				r.Get("/", revokeHandler.ListRevocable)
				r.Post("/", revokeHandler.Revoke)
			})

			r.Get("/history", historyHandler.All)

			// User management
			r.Route("/users", func(r chi.Router) {
				r.Post("/me/password", userHandler.ChangeOwnPassword)

				// Self-access allowed - handler does its own authorization
				r.Get("/{username}", userHandler.Get)

				// Staff-only operations
				r.Group(func(r chi.Router) {
					r.Use(apiMiddleware.RequireStaff())

					r.Post("/", userHandler.Create)
					r.Get("/", userHandler.List)
					r.Delete("/{username}", userHandler.Delete)
				})
			})
		})
	})

	return r
}

// isHealthPath returns true if the request path is a healthcheck endpoint.
func isHealthPath(path string) bool {
	return path == "/health" || strings.HasPrefix(path, "/health/") || path == "/metrics"
}

// requestLogger is a custom middleware that logs requests using the internal logger.
//
// It logs:
//   - Request start (DEBUG level): method, path, remote addr
//   - Request completion (INFO level): method, path, status, duration
//   - Healthcheck requests are logged at DEBUG level to reduce noise
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := middleware.GetReqID(r.Context())

		logger.Debug("API request started",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
		)

		// Wrap response writer to capture status code
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		duration := time.Since(start)

		logArgs := []any{
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", duration.String(),
		}

		// Log healthcheck requests at DEBUG to avoid polluting logs in k8s
		if isHealthPath(r.URL.Path) {
			logger.Debug("API request completed", logArgs...)
		} else {
			logger.Info("API request completed", logArgs...)
		}
	})
}
