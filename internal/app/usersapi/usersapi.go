// Package usersapi собирает HTTP-сервис управления пользователями:
// хранилище, кэш, публикацию событий, клиент сервиса подписок и маршруты.
package usersapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/magabrotheeeer/users-api/internal/cache"
	"github.com/magabrotheeeer/users-api/internal/config"
	"github.com/magabrotheeeer/users-api/internal/http/handlers/health"
	"github.com/magabrotheeeer/users-api/internal/lib/jwt"
	"github.com/magabrotheeeer/users-api/internal/lib/password"
	"github.com/magabrotheeeer/users-api/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/users-api/internal/lib/sl"
	"github.com/magabrotheeeer/users-api/internal/migrations"
	authservice "github.com/magabrotheeeer/users-api/internal/services/auth"
	userservice "github.com/magabrotheeeer/users-api/internal/services/users"
	"github.com/magabrotheeeer/users-api/internal/storage/memory"
	"github.com/magabrotheeeer/users-api/internal/storage/postgresql"
	"github.com/magabrotheeeer/users-api/internal/subscription"
)

// Store объединяет операции хранилища, нужные сервисам пользователей и аутентификации.
type Store interface {
	userservice.UserRepository
	userservice.GroupRegistry
	authservice.UserRepository
}

// App — HTTP-сервер и ресурсы, которые нужно закрыть при остановке.
type App struct {
	server  *http.Server
	logger  *slog.Logger
	cfg     *config.Config
	closers []func() error
}

// New инициализирует зависимости по конфигурации.
//
// Без строки подключения к PostgreSQL используется хранилище в памяти,
// без адреса Redis кэш отключён, без URL RabbitMQ события не публикуются.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "app.usersapi.New"

	if cfg.JWTSecretKey == "" {
		return nil, fmt.Errorf("%s: jwt secret key is not set", op)
	}

	a := &App{
		logger: logger,
		cfg:    cfg,
	}
	checks := make(map[string]health.Pinger)

	var store Store
	if cfg.StorageConnectionString != "" {
		db, err := postgresql.New(ctx, cfg.StorageConnectionString)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		a.closers = append(a.closers, db.Close)
		version, err := migrations.Run(db.DB, cfg.MigrationsPath)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		store = db
		checks["postgres"] = db
		logger.Info("using postgres storage", slog.Uint64("schema_version", uint64(version)))
	} else {
		store = memory.New()
		logger.Warn("storage connection string is not set, using in-memory storage")
	}

	var viewCache userservice.Cache
	if cfg.AddressRedis != "" {
		redisCache, err := cache.InitServer(ctx, cfg.RedisConnection)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		a.closers = append(a.closers, redisCache.Close)
		viewCache = redisCache
		checks["redis"] = redisCache
		logger.Info("user cache enabled", slog.String("address", cfg.AddressRedis))
	}

	var events userservice.EventPublisher
	if cfg.URLRabbitMQ != "" {
		conn, err := rabbitmq.Connect(cfg.URLRabbitMQ, cfg.ConnectRetries, cfg.ConnectInterval)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		a.closers = append(a.closers, conn.Close)
		ch, err := rabbitmq.SetupChannel(conn, cfg.Exchange, rabbitmq.GetUserEventQueues())
		if err != nil {
			a.close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		events = rabbitmq.NewPublisher(ch, cfg.Exchange)
		logger.Info("user events enabled", slog.String("exchange", cfg.Exchange))
	}

	var subscriptions userservice.SubscriptionFetcher
	if cfg.BaseURL != "" {
		subscriptions = subscription.NewClient(cfg.BaseURL, cfg.TimeoutSubscription, cfg.RetriesSubscription, cfg.DeadlineSubscription)
	} else {
		subscriptions = subscription.Static{Status: cfg.StaticStatus}
		logger.Warn("subscription provider is not set, using static status", slog.String("status", cfg.StaticStatus))
	}

	passwords := password.NewManager(cfg.BcryptCost, password.DefaultValidator(cfg.MinLength))
	jwtMaker := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL)

	authService := authservice.NewAuthService(store, passwords, jwtMaker)
	userService := userservice.NewUserService(logger, store, store, passwords, subscriptions, viewCache, cfg.CacheTTL, events)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, Services{
		Users:    userService,
		Auth:     authService,
		Registry: registry,
		Checks:   checks,
	})

	a.server = &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return a, nil
}

// Run запускает HTTP-сервер и останавливает его при отмене ctx.
func (a *App) Run(ctx context.Context) error {
	defer a.close()

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.cfg.ShutdownTimeout)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		return a.server.Shutdown(timeoutCtx)
	}
}

// close освобождает ресурсы в обратном порядке.
func (a *App) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("failed to close resource", sl.Err(err))
		}
	}
	a.closers = nil
}
