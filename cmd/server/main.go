package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/yourorg/agroregistry/internal/featureflags"
	"github.com/yourorg/agroregistry/internal/handler"
	"github.com/yourorg/agroregistry/internal/infrastructure/logger"
	appredis "github.com/yourorg/agroregistry/internal/infrastructure/redis"
	"github.com/yourorg/agroregistry/internal/observability/metrics"
	"github.com/yourorg/agroregistry/internal/observability/tracing"
	"github.com/yourorg/agroregistry/internal/reliability/circuitbreaker"
	"github.com/yourorg/agroregistry/internal/reliability/retry"
	"github.com/yourorg/agroregistry/internal/repository"
	"github.com/yourorg/agroregistry/internal/security"
	"github.com/yourorg/agroregistry/internal/security/audit"
	"github.com/yourorg/agroregistry/internal/security/auth"
	"github.com/yourorg/agroregistry/internal/security/middleware"
	"github.com/yourorg/agroregistry/internal/security/ratelimit"
	"github.com/yourorg/agroregistry/internal/service"
	"github.com/yourorg/agroregistry/internal/worker"
	"github.com/yourorg/agroregistry/pkg/cache"
	"github.com/yourorg/agroregistry/pkg/config"
	"github.com/yourorg/agroregistry/pkg/database"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. Initialize structured logger
	log := logger.NewLogger(cfg.LogLevel)
	log.Info("starting AgroRegistry server", slog.String("environment", cfg.Environment))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3. Initialize tracing (no-op without OTEL_EXPORTER_OTLP_ENDPOINT)
	shutdownTracing, err := tracing.Init(ctx, log, "agroregistry", cfg.Environment)
	if err != nil {
		log.Error("failed to initialize tracing", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 4. Connect to Postgres and apply migrations. The database may
	// come up after the app in compose, so connection is retried.
	retryCfg := retry.DefaultConfig()
	retryCfg.MaxAttempts = 5
	pool, err := retry.Do(ctx, retryCfg, log, "database connect", func(ctx context.Context) (*database.ConnectionPool, error) {
		return database.NewConnectionPool(ctx, &database.Config{
			Host:     cfg.DBHost,
			Port:     cfg.DBPort,
			User:     cfg.DBUser,
			Password: cfg.DBPassword,
			Database: cfg.DBName,
			SSLMode:  cfg.DBSSLMode,
		}, log)
	})
	if err != nil {
		log.Error("failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	if err := pool.Migrate(ctx); err != nil {
		log.Error("failed to run migrations", slog.String("error", err.Error()))
		os.Exit(1)
	}
	db := pool.GetDB()

	// 5. Region view cache: Redis when configured, in-process otherwise
	var redisClient *appredis.Client
	var viewCache service.ViewCache
	if cfg.RedisURL != "" {
		redisClient, err = appredis.NewClient(cfg.RedisURL)
		if err != nil {
			log.Error("failed to connect to Redis", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer redisClient.Close()
		breaker := circuitbreaker.NewCircuitBreaker(5, 2, 30*time.Second)
		viewCache = service.NewGuardedCache(redisClient, breaker, log)
		log.Info("region view cache: redis")
	} else {
		viewCache = cache.New()
		log.Info("region view cache: in-memory")
	}

	// 6. Initialize repositories
	clusterRepo := repository.NewPostgresClusterRepository(db, log)
	userRepo := repository.NewPostgresUserRepository(db, log)
	districtRepo := repository.NewPostgresDistrictRepository(db, log)
	reportRepo := repository.NewPostgresReportRepository(db, log)

	// 7. Seed reference data
	seedService := service.NewSeedService(districtRepo, userRepo, log)
	if cfg.SeedDistricts {
		if err := seedService.SeedDistricts(ctx, config.DistrictSeed); err != nil {
			log.Error("failed to seed districts", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}
	if err := seedService.SeedAdmin(ctx, cfg.AdminUsername, cfg.AdminPassword); err != nil {
		log.Error("failed to seed admin account", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 8. Initialize services
	version := service.NewViewVersion()
	tokenManager := auth.NewTokenManager(cfg.JWTSecret, "agroregistry", cfg.TokenTTL)
	auditLogger := audit.NewLogger(log)
	authz := security.NewAuthorizationService(log)

	registrationService := service.NewRegistrationService(clusterRepo, userRepo, districtRepo, log)
	authService := service.NewAuthService(userRepo, clusterRepo, tokenManager, log)
	approvalService := service.NewApprovalService(clusterRepo, auditLogger, version, log)
	reportService := service.NewReportService(reportRepo, clusterRepo, security.NewOwnershipService(userRepo, log), version, log)
	regionService := service.NewRegionService(reportRepo, viewCache, cfg.RegionCacheTTL, version, log)
	directoryService := service.NewDirectoryService(clusterRepo, userRepo, reportRepo, log)

	// 9. Initialize handlers
	registerHandler := handler.NewRegisterHandler(registrationService, log)
	loginHandler := handler.NewLoginHandler(authService, log)
	reportHandler := handler.NewReportHandler(reportService, authz, log)
	regionHandler := handler.NewRegionHandler(regionService, log)
	adminHandler := handler.NewAdminHandler(directoryService, approvalService, authz, log)
	healthHandler := handler.NewHealthHandler(db, redisClient, log)

	rateLimiter := ratelimit.NewLimiter(100, time.Minute) // 100 requests per minute per account

	// 10. Setup HTTP routes
	mux := http.NewServeMux()
	mux.Handle("POST /api/auth/register-cluster", registerHandler)
	mux.Handle("POST /api/auth/login", loginHandler)
	mux.Handle("/api/cluster-report", reportHandler)
	mux.Handle("GET /api/agrodata", regionHandler)
	mux.HandleFunc("GET /api/admin/pending-clusters", adminHandler.ListPending)
	mux.HandleFunc("GET /api/admin/active-clusters", adminHandler.ListActive)
	mux.HandleFunc("GET /api/admin/cluster-history/{id}", adminHandler.History)
	mux.HandleFunc("POST /api/admin/cluster-approve", adminHandler.Approve)
	mux.HandleFunc("POST /api/admin/cluster-reject", adminHandler.Reject)
	mux.HandleFunc("POST /api/admin/cluster-block", adminHandler.Block)
	mux.HandleFunc("DELETE /api/admin/cluster/{id}", adminHandler.Delete)
	mux.HandleFunc("GET /healthz", healthHandler.Health)
	mux.HandleFunc("GET /readyz", healthHandler.Ready)
	mux.Handle("/metrics", promhttp.Handler())

	// CORS middleware honoring configured origins
	handlerWithCORS := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if originAllowed(cfg.CORSAllowedOrigins, origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
		} else if len(cfg.CORSAllowedOrigins) > 0 {
			w.Header().Set("Access-Control-Allow-Origin", cfg.CORSAllowedOrigins[0])
		}
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS, DELETE")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		mux.ServeHTTP(w, r)
	})

	// Chain middleware: request ID -> tracing -> metrics -> JWT -> rate limit -> content type -> CORS.
	// JWT runs before the rate limiter so authenticated traffic is
	// throttled per username rather than per address.
	rootHandler := withRequestID(
		otelhttp.NewHandler(
			metrics.HTTPMetricsMiddleware(
				middleware.JWTMiddleware(tokenManager, log)(
					middleware.RateLimitMiddleware(rateLimiter, log)(
						middleware.ValidateJSONContentType(log)(handlerWithCORS),
					),
				),
			),
			"agroregistry",
		),
		log,
	)

	// Optional cache warmer keeping /api/agrodata hot between requests
	if featureflags.Enabled("region_cache_warmer") {
		refreshWorker := worker.NewRefreshWorker(regionService, directoryService, log, cfg.RegionCacheTTL)
		go refreshWorker.Start(ctx)
	}

	// 11. Start HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      rootHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Info("server starting",
		slog.Int("port", cfg.ServerPort),
		slog.String("auth", "jwt"),
		slog.Duration("token_ttl", cfg.TokenTTL),
	)

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", slog.String("error", err.Error()))
		}
	}()

	// Wait for shutdown signal
	<-sigChan
	log.Info("shutdown signal received")

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", slog.String("error", err.Error()))
	}

	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error("tracing shutdown error", slog.String("error", err.Error()))
	}

	rateLimiter.Stop()
	log.Info("server stopped")
}

type requestIDKey struct{}

// withRequestID attaches a request ID to the context and response headers for traceability
func withRequestID(next http.Handler, log *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := generateRequestID()
		w.Header().Set("X-Request-ID", reqID)

		ctx := context.WithValue(r.Context(), requestIDKey{}, reqID)
		start := time.Now()

		next.ServeHTTP(w, r.WithContext(ctx))

		log.Info("request completed",
			slog.String("request_id", reqID),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Duration("duration_ms", time.Since(start)),
		)
	})
}

func originAllowed(allowed []string, origin string) bool {
	if origin == "" {
		return false
	}
	for _, a := range allowed {
		if a == "*" || a == origin {
			return true
		}
	}
	return false
}

func generateRequestID() string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err == nil {
		return hex.EncodeToString(buf)
	}
	return fmt.Sprintf("req-%d", time.Now().UnixNano())
}
