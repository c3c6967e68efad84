// Package app wires configuration, infrastructure and the HTTP router into a
// runnable server.
package app

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	_ "github.com/chapterzero/bookstore/docs"
	"github.com/chapterzero/bookstore/internal/api"
	"github.com/chapterzero/bookstore/internal/api/handler"
	"github.com/chapterzero/bookstore/internal/core/service"
	redisdb "github.com/chapterzero/bookstore/internal/infrastructure/db/redis"
	"github.com/chapterzero/bookstore/internal/infrastructure/password"
	"github.com/chapterzero/bookstore/internal/infrastructure/token"
	"github.com/chapterzero/bookstore/internal/pkg/config"
)

// Options tunes startup behaviour.
type Options struct {
	// Migrate applies schema changes before serving.
	Migrate bool
}

// App owns the server and every connection opened for it.
type App struct {
	cfg    *config.Config
	log    zerolog.Logger
	echo   *echo.Echo
	store  *Store
	redis  *goredis.Client
	server *http.Server
}

// New connects to the configured dependencies and builds the router.
func New(ctx context.Context, cfg *config.Config, log zerolog.Logger, opts Options) (*App, error) {
	issuer, err := token.NewJWTService(token.Config{
		Secret: cfg.Token.Secret,
		Issuer: cfg.Token.Issuer,
		TTL:    cfg.Token.TTL,
	})
	if err != nil {
		return nil, err
	}

	hasher, err := password.New(password.Config{
		Algorithm:  cfg.Password.Algorithm,
		BcryptCost: cfg.Password.BcryptCost,
	})
	if err != nil {
		return nil, err
	}

	store, err := OpenStore(ctx, cfg, opts.Migrate)
	if err != nil {
		return nil, err
	}
	a := &App{cfg: cfg, log: log, store: store}

	checks := []handler.HealthCheck{store.Check}
	var svcOpts []service.Option
	if cfg.Redis.Enabled && cfg.Login.MaxAttempts > 0 {
		rdb, err := redisdb.Connect(ctx, redisdb.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			// Throttling is auxiliary; serve without it.
			log.Warn().Err(err).Msg("redis unavailable, login throttling disabled")
		} else {
			limiter, err := redisdb.NewAttemptLimiter(rdb, cfg.Login.MaxAttempts, cfg.Login.LockoutWindow)
			if err != nil {
				_ = rdb.Close()
				_ = store.Close(ctx)
				return nil, err
			}
			a.redis = rdb
			svcOpts = append(svcOpts, service.WithAttemptLimiter(limiter))
			checks = append(checks, handler.HealthCheck{Name: "redis", Ping: func(ctx context.Context) error {
				return rdb.Ping(ctx).Err()
			}})
		}
	}

	svc := service.NewIdentityService(store, hasher, issuer, log, svcOpts...)

	a.echo = api.NewRouter(api.Deps{
		Service:                svc,
		Verifier:               issuer,
		Logger:                 log,
		HealthChecks:           checks,
		CORSOrigins:            cfg.CORSOrigins,
		AuthRateLimitPerMinute: cfg.Login.RateLimitPerMinute,
		Development:            cfg.IsDevelopment(),
	})
	a.server = &http.Server{
		Addr:              net.JoinHostPort("", cfg.Port),
		Handler:           a.echo,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return a, nil
}

// Handler exposes the router.
func (a *App) Handler() http.Handler { return a.echo }

// Run serves until ctx is cancelled, then shuts down gracefully and closes
// every connection.
func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.log.Info().Str("addr", a.server.Addr).Str("driver", a.cfg.StoreDriver).Msg("http server listening")
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		a.log.Info().Msg("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
		defer cancel()
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			a.log.Error().Err(err).Msg("http shutdown")
		}
		return a.close(shutdownCtx)
	})

	return g.Wait()
}

func (a *App) close(ctx context.Context) error {
	var errs []error
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	errs = append(errs, a.store.Close(ctx))
	return errors.Join(errs...)
}
