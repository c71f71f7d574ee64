package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/medisched/medisched/internal/config"
	"github.com/medisched/medisched/internal/domain/appointment"
	"github.com/medisched/medisched/internal/domain/billing"
	"github.com/medisched/medisched/internal/domain/doctor"
	"github.com/medisched/medisched/internal/domain/identity"
	"github.com/medisched/medisched/internal/domain/patient"
	"github.com/medisched/medisched/internal/domain/record"
	"github.com/medisched/medisched/internal/platform/auth"
	"github.com/medisched/medisched/internal/platform/db"
	"github.com/medisched/medisched/internal/platform/middleware"
)

const shutdownTimeout = 10 * time.Second

var errUnknownService = errors.New("unknown service")

// routeRegistrar is implemented by every domain handler.
type routeRegistrar interface {
	RegisterRoutes(api *echo.Group, authn echo.MiddlewareFunc)
}

// app is one assembled service: its router plus the resources to release
// on shutdown.
type app struct {
	echo    *echo.Echo
	limiter *middleware.RateLimiter
	closers []func()
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func newLogger(cfg *config.Config, service string) zerolog.Logger {
	var logger zerolog.Logger
	if cfg.IsDev() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout})
	} else {
		logger = zerolog.New(os.Stdout)
	}
	return logger.With().Timestamp().Str("service", service).Logger()
}

// newEcho builds the router with the middleware stack shared by every
// service. Order matters: recovery outermost, then request id before the
// request logger so each log line carries it.
func newEcho(cfg *config.Config, service string, logger zerolog.Logger, rl *middleware.RateLimiter) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = middleware.HTTPErrorHandler(logger)

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", middleware.RequestIDHeader},
	}))
	e.Use(middleware.SecurityHeaders())
	e.Use(echomw.BodyLimit("1M"))
	e.Use(middleware.RateLimit(rl))
	e.Use(middleware.RequestTimeout(cfg.RequestTimeout))

	e.GET("/health", db.LivenessHandler(service))
	return e
}

// serviceCallPaths are identity endpoints called by the other services. All
// of their traffic arrives from a few service IPs, so a per-IP budget would
// throttle every end user behind them at once.
var serviceCallPaths = []string{"/verify", "/users/by-username/:username"}

func skipServiceCalls(c echo.Context) bool {
	for _, p := range serviceCallPaths {
		if c.Path() == p {
			return true
		}
	}
	return false
}

func rateLimiter(cfg *config.Config, service string) *middleware.RateLimiter {
	rlCfg := middleware.DefaultRateLimitConfig()
	if service == config.ServiceAuth {
		rlCfg.Skipper = skipServiceCalls
	}
	if cfg.RateLimitRPS > 0 {
		rlCfg.RequestsPerSecond = cfg.RateLimitRPS
	}
	if cfg.RateLimitBurst > 0 {
		rlCfg.BurstSize = cfg.RateLimitBurst
	}
	return middleware.NewRateLimiter(rlCfg)
}

// mount registers handlers behind authentication by v.
func mount(e *echo.Echo, v auth.Verifier, handlers ...routeRegistrar) {
	authn := auth.Authenticate(v)
	api := e.Group("")
	for _, h := range handlers {
		h.RegisterRoutes(api, authn)
	}
}

// buildApp wires the storage, verifier and handlers of service.
func buildApp(ctx context.Context, service string, cfg *config.Config, logger zerolog.Logger) (*app, error) {
	rl := rateLimiter(cfg, service)
	a := &app{echo: newEcho(cfg, service, logger, rl), limiter: rl}

	if service == config.ServiceDoctors {
		gdb, err := db.OpenGorm(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		a.closers = append(a.closers, func() { _ = db.CloseGorm(gdb) })
		a.echo.GET("/health/db", db.HealthHandler(service, db.GormHealth(gdb)))

		verifier := auth.NewRemoteVerifier(cfg.AuthServiceURL, cfg.AuthTimeout)
		mount(a.echo, verifier, doctor.NewHandler(doctor.NewService(doctor.NewRepo(gdb))))
		return a, nil
	}

	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	a.closers = append(a.closers, pool.Close)
	a.echo.GET("/health/db", db.HealthHandler(service, db.PoolHealth(pool)))

	if service == config.ServiceAuth {
		signer, err := auth.NewSigner([]byte(cfg.JWTSecret), cfg.TokenTTL)
		if err != nil {
			a.close()
			return nil, err
		}
		hasher, err := identity.NewPasswordHasher(cfg.PasswordHash)
		if err != nil {
			a.close()
			return nil, err
		}
		svc := identity.NewService(identity.NewUserRepo(pool), signer, hasher)
		mount(a.echo, auth.NewLocalVerifier(signer), identity.NewHandler(svc))
		return a, nil
	}

	verifier := auth.NewRemoteVerifier(cfg.AuthServiceURL, cfg.AuthTimeout)
	var h routeRegistrar
	switch service {
	case config.ServicePatients:
		h = patient.NewHandler(patient.NewService(patient.NewRepo(pool)))
	case config.ServiceAppointments:
		users := auth.NewLookupClient(cfg.AuthServiceURL, cfg.AuthTimeout)
		h = appointment.NewHandler(appointment.NewService(appointment.NewRepo(pool), users))
	case config.ServiceRecords:
		h = record.NewHandler(record.NewService(record.NewRepo(pool)))
	case config.ServiceBilling:
		h = billing.NewHandler(billing.NewService(billing.NewRepo(pool)))
	default:
		a.close()
		return nil, fmt.Errorf("%w: %s", errUnknownService, service)
	}
	mount(a.echo, verifier, h)
	return a, nil
}

// runServer serves until ctx is cancelled, then drains in-flight requests.
func runServer(ctx context.Context, service string, cfg *config.Config) error {
	logger := newLogger(cfg, service)

	a, err := buildApp(ctx, service, cfg, logger)
	if err != nil {
		logger.Error().Err(err).Msg("failed to start")
		return err
	}
	defer a.close()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := a.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return a.limiter.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return a.echo.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("server stopped with error")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}
