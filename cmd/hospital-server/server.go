package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/arpitmishra1547/Smart-Hospital-management/internal/config"
	"github.com/arpitmishra1547/Smart-Hospital-management/internal/domain/patient"
	"github.com/arpitmishra1547/Smart-Hospital-management/internal/domain/scheduling"
	"github.com/arpitmishra1547/Smart-Hospital-management/internal/domain/token"
	"github.com/arpitmishra1547/Smart-Hospital-management/internal/platform/auth"
	"github.com/arpitmishra1547/Smart-Hospital-management/internal/platform/db"
	"github.com/arpitmishra1547/Smart-Hospital-management/internal/platform/docstore"
	"github.com/arpitmishra1547/Smart-Hospital-management/internal/platform/lock"
	"github.com/arpitmishra1547/Smart-Hospital-management/internal/platform/middleware"
	"github.com/arpitmishra1547/Smart-Hospital-management/internal/platform/telemetry"
)

// stores is the selected backing store, seen through the domain repositories.
type stores struct {
	driver    string
	patients  patient.Repository
	tokens    token.Repository
	schedules scheduling.Repository
	tx        db.TxRunner
	ping      db.Pinger
	details   func() interface{}
	close     func()
}

func openStores(ctx context.Context, cfg *config.Config, logger zerolog.Logger, metrics *telemetry.Metrics) (*stores, error) {
	switch cfg.StorageDriver {
	case config.StorageMongo:
		store, err := docstore.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, err
		}
		if err := store.EnsureIndexes(ctx,
			patient.MongoIndexes(), token.MongoIndexes(), scheduling.MongoIndexes()); err != nil {
			_ = store.Close(context.Background())
			return nil, err
		}
		logger.Info().Str("database", cfg.MongoDatabase).Msg("connected to mongodb")
		return &stores{
			driver:    config.StorageMongo,
			patients:  patient.NewRepoMongo(store.DB),
			tokens:    token.NewRepoMongo(store.DB),
			schedules: scheduling.NewRepoMongo(store.DB),
			tx:        db.NoTx{},
			ping:      store,
			close: func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = store.Close(ctx)
			},
		}, nil

	default:
		pool, err := db.NewPool(ctx, db.PoolConfig{
			URL:      cfg.DatabaseURL,
			MaxConns: cfg.DBMaxConns,
			MinConns: cfg.DBMinConns,
		})
		if err != nil {
			return nil, err
		}
		metrics.RegisterPool(pool)
		logger.Info().Msg("connected to database")
		return &stores{
			driver:    config.StoragePostgres,
			patients:  patient.NewRepoPG(pool),
			tokens:    token.NewRepoPG(pool),
			schedules: scheduling.NewRepoPG(pool),
			tx:        db.PoolTx{Pool: pool},
			ping:      pool,
			details:   func() interface{} { return db.GetPoolStats(pool) },
			close:     pool.Close,
		}, nil
	}
}

// newLocker shares locks across replicas through Redis when REDIS_URL is
// set. Without it locks only cover this process.
func newLocker(cfg *config.Config, logger zerolog.Logger) (lock.Locker, func(), error) {
	if cfg.RedisURL == "" {
		if !cfg.IsDev() {
			logger.Warn().Msg("REDIS_URL is not set; locks are process-local")
		}
		return lock.NewLocal(), func() {}, nil
	}
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("ping redis: %w", err)
	}
	logger.Info().Msg("connected to redis")
	return lock.NewRedis(client, cfg.LockTTL), func() { _ = client.Close() }, nil
}

func newServer(cfg *config.Config, logger zerolog.Logger, metrics *telemetry.Metrics, st *stores, locker lock.Locker) (*echo.Echo, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = middleware.HTTPErrorHandler(logger)

	// Global middleware
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(metrics.Middleware(func(err error) int {
		status, _ := middleware.ErrorBody(err)
		return status
	}))
	e.Use(middleware.Recovery(logger, metrics.Panic))
	e.Use(middleware.SecurityHeaders(cfg.IsProduction()))
	e.Use(middleware.BodyLimit(cfg.BodyLimit))
	e.Use(middleware.RequestTimeout(cfg.RequestTimeout))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	// Health and metrics
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": "0.1.0",
		})
	})
	e.GET("/health/db", db.HealthHandler(st.driver, st.ping, st.details))
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))

	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}

	// Patient intake is open; staff routes carry a bearer token.
	public := e.Group("/api", middleware.RateLimit(rateLimitCfg))
	authMW := auth.JWTMiddleware(jwtConfig(cfg))
	if cfg.IsDev() {
		authMW = auth.DevAuthMiddleware(jwtConfig(cfg))
	}
	api := e.Group("/api", middleware.RateLimit(rateLimitCfg), authMW)

	patientSvc := patient.NewService(st.patients, st.tx)
	patient.NewHandler(patientSvc).RegisterRoutes(public, api)

	tokenSvc := token.NewService(st.tokens, st.patients, locker, st.tx, token.Config{
		RadiusMeters:         cfg.GeofenceRadiusMeters,
		TestHospitalName:     cfg.TestHospitalName,
		TestHospitalDistance: cfg.TestHospitalDistance,
		Location:             loc,
	})
	tokenSvc.SetMetrics(metrics)
	token.NewHandler(tokenSvc).RegisterRoutes(public, api)

	scheduleSvc := scheduling.NewService(st.schedules, locker, st.tx, cfg.MaxRecurringInstances)
	scheduleSvc.SetMetrics(metrics)
	scheduling.NewHandler(scheduleSvc).RegisterRoutes(api)

	return e, nil
}

func runServer(cfg *config.Config, logger zerolog.Logger) error {
	ctx := context.Background()
	metrics := telemetry.New()

	st, err := openStores(ctx, cfg, logger, metrics)
	if err != nil {
		logger.Error().Err(err).Str("driver", cfg.StorageDriver).Msg("failed to open storage")
		return err
	}
	defer st.close()

	locker, closeLocker, err := newLocker(cfg, logger)
	if err != nil {
		logger.Error().Err(err).Msg("failed to connect to redis")
		return err
	}
	defer closeLocker()

	e, err := newServer(cfg, logger, metrics, st, locker)
	if err != nil {
		return err
	}

	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("storage", st.driver).Msg("starting server")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}
