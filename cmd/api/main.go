// Command api serves the user-management REST API.
//
// @title                       User Management API
// @version                     1.0
// @description                 Registration, bearer-token sessions and role-gated user administration.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
// @description                 Type "Bearer" followed by a space and the access token.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/99minutos/user-management/internal/api"
	"github.com/99minutos/user-management/internal/core/service"
	"github.com/99minutos/user-management/internal/infrastructure/queue"
	"github.com/99minutos/user-management/internal/pkg/config"
	"github.com/99minutos/user-management/pkg/logger"
)

func main() {
	cfg := config.Load()

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Service: "user-management",
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStorage(ctx, cfg, logger.Component("storage"))
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.StorageDriver).Msg("storage unavailable")
	}

	if err := service.SeedRoles(ctx, store.roles, logger.Component("bootstrap")); err != nil {
		log.Fatal().Err(err).Msg("role seeding failed")
	}

	dispatcher := queue.NewDispatcher(cfg.AuditWorkers, store.audit, logger.Component("audit"))
	dispatcher.Start(ctx)

	hasher := service.NewBcryptHasher(bcrypt.DefaultCost)
	tokens := service.NewTokenService(cfg.JWTSecret, cfg.TokenTTL, store.tokens, service.UUIDGenerator{})
	lifecycle := service.NewUserLifecycle(store.users, hasher, service.UUIDGenerator{}, dispatcher, logger.Component("lifecycle"))
	userService := service.NewUserService(lifecycle, logger.Component("users"))
	authService := service.NewAuthService(store.users, lifecycle, hasher, tokens, dispatcher, logger.Component("auth"))

	if err := service.EnsureAdmin(ctx, store.users, lifecycle, service.AdminAccount{
		Name:     cfg.Bootstrap.AdminName,
		Email:    cfg.Bootstrap.AdminEmail,
		Password: cfg.Bootstrap.AdminPassword,
	}, logger.Component("bootstrap")); err != nil {
		log.Fatal().Err(err).Msg("bootstrap admin failed")
	}

	e := api.NewRouter(api.Dependencies{
		AuthService: authService,
		UserService: userService,
		Readiness:   store.readiness,
		Log:         logger.Component("http"),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           e,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Str("driver", cfg.StorageDriver).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("http server failed")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown failed")
	}
	if err := dispatcher.Stop(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("audit queue not fully drained")
	}
	store.close(shutdownCtx)

	log.Info().Msg("shutdown complete")
}
