package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/benvon/cupid-code/internal/config"
	"github.com/benvon/cupid-code/internal/database"
	"github.com/benvon/cupid-code/internal/events"
	"github.com/benvon/cupid-code/internal/handlers"
	"github.com/benvon/cupid-code/internal/logger"
	"github.com/benvon/cupid-code/internal/middleware"
	"github.com/benvon/cupid-code/internal/services/identity"
	"github.com/benvon/cupid-code/internal/session"
	"github.com/benvon/cupid-code/internal/tasklist"
	"github.com/benvon/cupid-code/internal/telemetry"
	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	reloadInterval      = time.Minute
	publishBufferSize   = 1024
	maxRabbitMQRetries  = 10
	initialRetryDelay   = 2 * time.Second
	maxRetryDelay       = 30 * time.Second
	shutdownGracePeriod = 30 * time.Second
)

func main() {
	debugFlag := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	debugMode := cfg.ServerDebugMode || *debugFlag

	zapLogger, err := logger.NewProductionLogger(debugMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() {
		_ = logger.Sync(zapLogger)
	}()

	zapLogger.Info("server_starting",
		zap.Bool("debug_mode", debugMode),
		zap.String("server_port", cfg.ServerPort),
		zap.String("frontend_url", cfg.FrontendURL),
		zap.String("identity_provider", cfg.IdentityProvider),
		zap.Bool("events_enabled", cfg.RabbitMQURL != ""),
		zap.Bool("otel_enabled", cfg.OTELEnabled),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tracingEnabled := false
	if cfg.OTELEnabled {
		if cfg.OTELEndpoint == "" {
			zapLogger.Warn("otel_enabled_but_endpoint_not_configured")
		} else {
			tp, err := telemetry.InitTracer(ctx, telemetry.Config{
				ServiceName: telemetry.ServiceAPI,
				Endpoint:    cfg.OTELEndpoint,
				Insecure:    true,
			})
			if err != nil {
				zapLogger.Warn("failed_to_initialize_otel_tracer", zap.Error(err))
			} else {
				tracingEnabled = true
				zapLogger.Info("otel_tracer_initialized", zap.String("endpoint", cfg.OTELEndpoint))
				defer func() {
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					if err := telemetry.Shutdown(shutdownCtx, tp); err != nil {
						zapLogger.Error("failed_to_shutdown_otel_tracer", zap.Error(err))
					}
				}()
			}
		}
	}

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			zapLogger.Warn("failed_to_close_database_connection", zap.Error(err))
		}
	}()
	if err := db.Migrate(ctx); err != nil {
		zapLogger.Fatal("failed_to_migrate_database", zap.Error(err))
	}
	zapLogger.Info("connected_to_database")

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		zapLogger.Fatal("invalid_redis_url", zap.Error(err))
	}
	redisClient := redis.NewClient(redisOpts)
	defer func() {
		if err := redisClient.Close(); err != nil {
			zapLogger.Warn("failed_to_close_redis_connection", zap.Error(err))
		}
	}()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		zapLogger.Fatal("failed_to_connect_to_redis", zap.Error(err))
	}
	limiterStore, err := middleware.NewRedisLimiterStore(redisClient)
	if err != nil {
		zapLogger.Fatal("failed_to_create_limiter_store", zap.Error(err))
	}
	zapLogger.Info("connected_to_redis")

	var publisher events.Publisher = events.NopPublisher{}
	var bus *events.RabbitMQBus
	if cfg.RabbitMQURL != "" {
		bus, err = connectBus(ctx, cfg.RabbitMQURL, zapLogger)
		if err != nil {
			zapLogger.Fatal("failed_to_connect_to_rabbitmq_after_retries",
				zap.Int("max_retries", maxRabbitMQRetries),
				zap.Error(err),
			)
		}
		defer func() {
			if err := bus.Close(); err != nil {
				zapLogger.Warn("failed_to_close_rabbitmq_connection", zap.Error(err))
			}
		}()
		publisher = bus
	} else {
		zapLogger.Warn("rabbitmq_not_configured_task_events_disabled")
	}
	asyncPublisher := events.NewAsyncPublisher(publisher, publishBufferSize, zapLogger)

	taskLocation, err := cfg.TaskLocation()
	if err != nil {
		zapLogger.Fatal("invalid_task_timezone", zap.Error(err))
	}
	registry := session.NewRegistry(session.Config{
		IdleTimeout: cfg.SessionIdleTimeout,
		MaxPerUser:  cfg.MaxSessionsPerUser,
		Clock:       tasklist.SystemClock{Location: taskLocation},
	}, asyncPublisher, zapLogger)

	userRepo := database.NewUserRepository(db)
	prefsRepo := database.NewPreferencesRepository(db)
	activityRepo := database.NewTaskActivityRepository(db)
	identityRepo := database.NewIdentityConfigRepository(db)
	corsConfigRepo := database.NewCorsConfigRepository(db)
	ratelimitConfigRepo := database.NewRatelimitConfigRepository(db)

	provider, err := identity.LoadProvider(ctx, identityRepo, cfg.IdentityProvider, identity.NewJWKSManager())
	if err != nil {
		zapLogger.Fatal("failed_to_load_identity_provider",
			zap.String("provider", cfg.IdentityProvider),
			zap.Error(err),
		)
	}
	zapLogger.Info("identity_provider_loaded",
		zap.String("provider", provider.Name),
		zap.Bool("signup_enabled", provider.Client.SignupEnabled()),
	)

	authHandler := handlers.NewAuthHandler(provider.Client, provider.Verifier, userRepo, prefsRepo, zapLogger)
	menuHandler := handlers.NewMenuHandler()
	taskHandler := handlers.NewTaskSessionHandler(registry, zapLogger)
	activityHandler := handlers.NewActivityHandler(activityRepo, zapLogger)
	checks := map[string]handlers.Pinger{
		"database": db,
		"redis": handlers.PingFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}),
	}
	if bus != nil {
		checks["event_bus"] = bus
	}
	healthChecker := handlers.NewHealthChecker(checks)

	r := mux.NewRouter()

	// Middleware registered first is outermost
	if tracingEnabled {
		r.Use(otelmux.Middleware(telemetry.ServiceAPI))
	}
	r.Use(middleware.SecurityHeaders(cfg.EnableHSTS))
	corsReloader := middleware.NewCORSReloader(corsConfigRepo, cfg.FrontendURL, zapLogger, reloadInterval)
	r.Use(corsReloader.Middleware())
	r.Use(middleware.MaxRequestSize(middleware.DefaultMaxRequestSize))
	r.Use(middleware.ContentType)
	r.Use(middleware.Timeout(middleware.DefaultRequestTimeout))
	r.Use(middleware.ErrorHandler(zapLogger))
	r.Use(middleware.Audit(zapLogger))
	r.Use(middleware.Logging(zapLogger))

	// applied per router so health checks are never limited
	rateLimitReloader := middleware.NewRateLimitReloader(limiterStore, ratelimitConfigRepo, middleware.DefaultRatelimitRate, zapLogger, reloadInterval)
	rateLimitMW := rateLimitReloader.Middleware()
	requireAuth := middleware.Auth(provider.Verifier, userRepo, zapLogger)
	optionalAuth := middleware.OptionalAuth(provider.Verifier, userRepo, zapLogger)

	r.HandleFunc("/healthz", healthChecker.HealthCheck).Methods("GET")
	r.HandleFunc("/version", versionInfo).Methods("GET")
	handlers.NewOpenAPIHandler(filepath.Join("api", "openapi", "openapi.yaml")).RegisterRoutes(r)

	apiRouter := r.PathPrefix("/api/v1").Subrouter()

	publicAuthRouter := apiRouter.PathPrefix("/auth").Subrouter()
	publicAuthRouter.Use(rateLimitMW)
	authHandler.RegisterPublicRoutes(publicAuthRouter)

	startRouter := apiRouter.PathPrefix("/start").Subrouter()
	startRouter.Use(rateLimitMW)
	startRouter.Use(optionalAuth)
	startRouter.HandleFunc("", authHandler.GetStart).Methods("GET")

	protectedRouter := apiRouter.PathPrefix("").Subrouter()
	protectedRouter.Use(rateLimitMW)
	protectedRouter.Use(requireAuth)
	authHandler.RegisterRoutes(protectedRouter)
	menuHandler.RegisterRoutes(protectedRouter)
	activityHandler.RegisterRoutes(protectedRouter)
	taskHandler.RegisterRoutes(protectedRouter.PathPrefix("/todo-sessions").Subrouter())

	// Preflight requests are answered by the CORS middleware; this only gives them a route
	r.Methods("OPTIONS").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	srv := &http.Server{
		Addr:           ":" + cfg.ServerPort,
		Handler:        r,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   35 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		corsReloader.Start(gctx)
		return nil
	})
	g.Go(func() error {
		rateLimitReloader.Start(gctx)
		return nil
	})
	g.Go(func() error {
		registry.Start(gctx)
		return nil
	})
	g.Go(func() error {
		return asyncPublisher.Run(gctx)
	})
	g.Go(func() error {
		zapLogger.Info("server_listening", zap.String("port", cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		zapLogger.Info("server_shutting_down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGracePeriod)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		zapLogger.Error("server_stopped_with_error", zap.Error(err))
	}
	zapLogger.Info("server_exited", zap.Int("open_sessions", registry.Len()))
}

// connectBus dials RabbitMQ with exponential backoff to ride out broker startup
func connectBus(ctx context.Context, url string, zapLogger *zap.Logger) (*events.RabbitMQBus, error) {
	var lastErr error
	for attempt := 0; attempt < maxRabbitMQRetries; attempt++ {
		bus, err := events.NewRabbitMQBus(url)
		if err == nil {
			zapLogger.Info("connected_to_rabbitmq")
			return bus, nil
		}
		lastErr = err

		delay := initialRetryDelay * time.Duration(1<<uint(attempt))
		if delay > maxRetryDelay {
			delay = maxRetryDelay
		}
		zapLogger.Warn("failed_to_connect_to_rabbitmq_retrying",
			zap.Int("attempt", attempt+1),
			zap.Int("max_retries", maxRabbitMQRetries),
			zap.Duration("retry_delay", delay),
			zap.Error(err),
		)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
	return nil, lastErr
}

func versionInfo(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, `{"version":"1.0.0","timestamp":"%s"}`, time.Now().UTC().Format(time.RFC3339))
}
