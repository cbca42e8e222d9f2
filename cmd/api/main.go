package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	_ "github.com/redmonkez12/conduit-api/docs" // Swagger docs
	"github.com/redmonkez12/conduit-api/internal/article"
	"github.com/redmonkez12/conduit-api/internal/auth"
	"github.com/redmonkez12/conduit-api/internal/config"
	"github.com/redmonkez12/conduit-api/internal/database"
	httpServer "github.com/redmonkez12/conduit-api/internal/http"
	"github.com/redmonkez12/conduit-api/internal/logging"
	"github.com/redmonkez12/conduit-api/internal/ratelimit"
	"github.com/redmonkez12/conduit-api/internal/telemetry"
	"github.com/redmonkez12/conduit-api/internal/user"
)

// @title           Conduit API
// @version         1.0
// @description     Conduit (Medium clone) REST API: accounts, token authentication and articles.

// @license.name  MIT
// @license.url   https://opensource.org/licenses/MIT

// @host      localhost:8080
// @BasePath  /

// @securityDefinitions.apikey TokenAuth
// @in header
// @name Authorization
// @description Type "Token" followed by a space and the access token.

func main() {
	if err := run(); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}

func run() error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := logging.NewLogger(cfg.Server.IsDevelopment())
	logger.Info("starting application",
		"env", cfg.Server.Env,
		"port", cfg.Server.Port,
	)

	shutdownTracing, err := telemetry.Setup(ctx, cfg.Telemetry.Endpoint, cfg.Telemetry.ServiceName)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Error("failed to flush traces", "error", err.Error())
		}
	}()

	db, err := database.Open(ctx, cfg.Database.URI)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	if err := database.CreateSchema(ctx, db); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	// Rate limiting is optional; without Redis the limiter stays nil.
	var rateLimiter auth.RateLimiter
	if cfg.Redis.Enabled() {
		var redisClient *redis.Client
		redisClient, err = ratelimit.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return fmt.Errorf("failed to initialize Redis: %w", err)
		}
		defer redisClient.Close()

		rateLimiter = ratelimit.NewLimiter(redisClient, cfg.Redis.RateLimitRequests, cfg.Redis.RateLimitWindow)
	} else {
		logger.Warn("REDIS_ADDR not set, rate limiting disabled")
	}

	// Repositories
	userRepo := user.NewRepository(db)
	articleRepo := article.NewRepository(db)

	// Credentials and tokens
	hasher := auth.NewPasswordHasher(auth.DefaultHasherParams)
	tokenService, err := auth.NewJWTService([]byte(cfg.Auth.SecretKey), cfg.Auth.Algorithm)
	if err != nil {
		return fmt.Errorf("failed to initialize token service: %w", err)
	}

	// Services
	authService := auth.NewService(userRepo, hasher, tokenService, logger, cfg.Auth.AccessTokenTTL())
	articleService := article.NewService(articleRepo, logger)

	// HTTP
	authHandler := auth.NewHandler(authService, rateLimiter)
	articleHandler := article.NewHandler(articleService)
	authMiddleware := auth.NewMiddleware(auth.NewBearerExtractor(cfg.Auth.Scheme), tokenService, userRepo)

	router := httpServer.NewRouter(cfg, authHandler, articleHandler, authMiddleware, logger)

	server := httpServer.NewServer(
		":"+cfg.Server.Port,
		router,
		cfg.Server.ReadTimeout,
		cfg.Server.WriteTimeout,
		logger,
	)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- server.Start()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		logger.Info("received signal", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}
