package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/orgdex/orgdex/pkg/authz"
	"github.com/orgdex/orgdex/pkg/config"
	"github.com/orgdex/orgdex/pkg/directory"
	"github.com/orgdex/orgdex/pkg/middleware"
	"github.com/orgdex/orgdex/pkg/observability"
	"github.com/orgdex/orgdex/pkg/search"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	// The logger is swappable so a config file change can adjust the level
	// without a restart.
	var currentLogger atomic.Pointer[observability.Logger]
	currentLogger.Store(observability.NewLogger(
		observability.ParseLogLevel(cfg.Observability.LogLevel), os.Stdout))
	logger := func() *observability.Logger { return currentLogger.Load() }

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Directory database: the system of record for organizations, people,
	// users and the SQLite search index.
	db, err := sql.Open("sqlite3", cfg.Storage.SQLitePath)
	if err != nil {
		logrus.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(cfg.Storage.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Storage.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Storage.ConnLifetime)

	if err := directory.Migrate(db); err != nil {
		logrus.Fatalf("Failed to run migrations: %v", err)
	}
	logger().WithField("path", cfg.Storage.SQLitePath).Info("directory database ready")

	store := directory.NewStore(db)
	indexer := directory.NewIndexer(db)

	// The search backend is SQLite unless a Postgres deployment supplies its
	// own externally maintained index.
	var backend search.Backend = search.NewSQLiteBackend(db)
	if cfg.Storage.Driver == "postgres" {
		searchDB, err := sql.Open("postgres", cfg.Storage.PostgresURL)
		if err != nil {
			logrus.Fatalf("Failed to open search database: %v", err)
		}
		defer searchDB.Close()
		if err := searchDB.PingContext(ctx); err != nil {
			logrus.Fatalf("Failed to ping search database: %v", err)
		}
		backend = search.NewPostgresBackend(searchDB)
		logger().Info("using postgres search backend")
	}

	var metrics *observability.Metrics
	registry := prometheus.NewRegistry()
	if cfg.Observability.MetricsEnabled {
		metrics = observability.NewMetrics(registry)
	}

	otelProviders, err := observability.InitOTel(ctx, observability.OTelConfig{
		Enabled:        cfg.Observability.OTelEnabled,
		Endpoint:       cfg.Observability.OTelEndpoint,
		ServiceName:    cfg.Observability.OTelServiceName,
		ServiceVersion: cfg.Observability.OTelServiceVersion,
		Insecure:       cfg.Observability.OTelInsecure,
	}, logger())
	if err != nil {
		logrus.Fatalf("Failed to initialize OpenTelemetry: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := otelProviders.Shutdown(shutdownCtx); err != nil {
			logger().WithError(err).Warn("failed to shut down tracing")
		}
	}()

	svc := search.NewService(backend, authz.NewSQLChecker(db), logger(), metrics)
	svc.EnableSuggestionCache(1024, 30*time.Second)
	handler := search.NewHandler(svc, directory.NewUserDirectory(store), logger())

	var redisClient *redis.Client
	if cfg.RateLimit.Enabled && cfg.RateLimit.RedisURL != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RateLimit.RedisURL,
			Password: cfg.RateLimit.RedisPassword,
			DB:       cfg.RateLimit.RedisDB,
		})
		defer redisClient.Close()
	}

	router := mux.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(observability.WithLogger(r.Context(), logger())))
		})
	})
	if metrics != nil {
		router.Use(observability.HTTPMetricsMiddleware(metrics))
	}
	router.Use(middleware.NewAuthMiddleware(store, true).Handler)
	if cfg.RateLimit.Enabled {
		limitCfg := &middleware.RateLimitConfig{
			RequestsPerWindow: cfg.RateLimit.RequestsPerWindow,
			WindowDuration:    cfg.RateLimit.WindowDuration,
		}
		if redisClient != nil {
			router.Use(middleware.NewDistributedRateLimitMiddleware(redisClient, limitCfg, logger()).Handler)
		} else {
			rlm := middleware.NewRateLimitMiddleware(limitCfg)
			rlm.StartCleanup(ctx)
			router.Use(rlm.Handler)
		}
	}
	handler.RegisterRoutes(router)

	healthChecker := observability.NewHealthChecker(db, redisClient)
	healthMux := http.NewServeMux()
	healthMux.HandleFunc("/healthz", healthChecker.Liveness)
	healthMux.HandleFunc("/readyz", healthChecker.Readiness)
	if cfg.Observability.MetricsEnabled {
		observability.RegisterMetricsEndpoint(healthMux, registry)
	}

	// Nightly index maintenance: merge FTS segments and refresh gauges
	scheduler := cron.New()
	if cfg.Storage.Driver == "sqlite3" {
		if _, err := scheduler.AddFunc("30 2 * * *", func() {
			if err := indexer.Optimize(context.Background()); err != nil {
				logger().WithError(err).Error("index optimize failed")
				if metrics != nil {
					metrics.IndexOperationsTotal.WithLabelValues("optimize", "error").Inc()
				}
				return
			}
			logger().Info("index optimize completed")
			if metrics != nil {
				metrics.IndexOperationsTotal.WithLabelValues("optimize", "ok").Inc()
			}
		}); err != nil {
			logrus.Fatalf("Failed to schedule index maintenance: %v", err)
		}
	}
	if metrics != nil {
		if _, err := scheduler.AddFunc("@every 1m", func() {
			stats := db.Stats()
			metrics.DBConnectionsActive.Set(float64(stats.InUse))
			metrics.DBConnectionsIdle.Set(float64(stats.Idle))
			if count, err := indexer.CountDocuments(context.Background()); err == nil {
				metrics.IndexedDocumentsTotal.Set(float64(count))
			}
		}); err != nil {
			logrus.Fatalf("Failed to schedule metrics collection: %v", err)
		}
	}
	scheduler.Start()
	defer scheduler.Stop()

	// Reload the log level when the config file changes
	if path := os.Getenv("ORGDEX_CONFIG"); path != "" {
		stopWatch, err := config.Watch(path,
			func(updated *config.Config) {
				level := observability.ParseLogLevel(updated.Observability.LogLevel)
				currentLogger.Store(observability.NewLogger(level, os.Stdout))
				logger().WithField("level", updated.Observability.LogLevel).Info("log level updated")
			},
			func(err error) {
				logger().WithError(err).Warn("config reload failed")
			},
		)
		if err != nil {
			logger().WithError(err).Warn("config watch unavailable")
		} else {
			defer stopWatch()
		}
	}

	apiServer := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	healthServer := &http.Server{
		Addr:    cfg.Server.Host + ":" + cfg.Server.HealthPort,
		Handler: healthMux,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger().WithField("addr", apiServer.Addr).Info("api server listening")
		if err := apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		logger().WithField("addr", healthServer.Addr).Info("health server listening")
		if err := healthServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger().Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := apiServer.Shutdown(shutdownCtx); err != nil {
			logger().WithError(err).Warn("api server shutdown failed")
		}
		return healthServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logrus.Fatalf("Server error: %v", err)
	}
	logger().Info("shutdown complete")
}
