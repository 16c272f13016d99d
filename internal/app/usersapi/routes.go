package usersapi

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/magabrotheeeer/users-api/internal/http/handlers/auth/login"
	"github.com/magabrotheeeer/users-api/internal/http/handlers/health"
	"github.com/magabrotheeeer/users-api/internal/http/handlers/users/create"
	"github.com/magabrotheeeer/users-api/internal/http/handlers/users/list"
	"github.com/magabrotheeeer/users-api/internal/http/handlers/users/read"
	"github.com/magabrotheeeer/users-api/internal/http/handlers/users/remove"
	"github.com/magabrotheeeer/users-api/internal/http/handlers/users/update"
	"github.com/magabrotheeeer/users-api/internal/http/middlewarectx"
	authservice "github.com/magabrotheeeer/users-api/internal/services/auth"
	userservice "github.com/magabrotheeeer/users-api/internal/services/users"
)

// Services — зависимости, из которых строятся обработчики.
type Services struct {
	Users    *userservice.UserService
	Auth     *authservice.AuthService
	Registry *prometheus.Registry
	Checks   map[string]health.Pinger
}

// RegisterRoutes регистрирует все маршруты приложения.
// Маршруты пользователей доступны как с завершающим слешем, так и без него.
func RegisterRoutes(r chi.Router, logger *slog.Logger, s Services) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middlewarectx.NewMetrics(s.Registry).Middleware,
	)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки
		r.Post("/token", login.New(logger, s.Auth).ServeHTTP)

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(s.Auth, logger))

			withSlash(r, http.MethodPost, "/users", create.New(logger, s.Users))
			withSlash(r, http.MethodGet, "/users", list.New(logger, s.Users))
			withSlash(r, http.MethodGet, "/users/{id}", read.New(logger, s.Users))
			withSlash(r, http.MethodPut, "/users/{id}", update.New(logger, s.Users))
			withSlash(r, http.MethodPatch, "/users/{id}", update.NewPartial(logger, s.Users))
			withSlash(r, http.MethodDelete, "/users/{id}", remove.New(logger, s.Users))
		})
	})

	r.Get("/health", health.New(logger, s.Checks).ServeHTTP)
	r.Handle("/metrics", promhttp.HandlerFor(s.Registry, promhttp.HandlerOpts{}))
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}

// withSlash регистрирует обработчик для пути с завершающим слешем и без него.
func withSlash(r chi.Router, method, pattern string, h http.Handler) {
	r.Method(method, pattern, h)
	r.Method(method, pattern+"/", h)
}
