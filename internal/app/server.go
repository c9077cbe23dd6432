// internal/app/server.go
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"crmsync-service/internal/config"
	"crmsync-service/internal/db"
	healthHandler "crmsync-service/internal/handlers/health"
	sfHandler "crmsync-service/internal/handlers/salesforce"
	wsHandler "crmsync-service/internal/handlers/websocket"
	"crmsync-service/internal/metrics"
	"crmsync-service/internal/middleware"
	"crmsync-service/internal/pkg/jwt"
	"crmsync-service/internal/pkg/lock"
	"crmsync-service/internal/repository/postgres"
	"crmsync-service/internal/salesforce"
	syncsvc "crmsync-service/internal/service/salesforce"
	"crmsync-service/internal/websocket"
)

const version = "1.0.0"

type Server struct {
	cfg    config.AppConfig
	logger *zap.Logger

	http  *http.Server
	pool  *pgxpool.Pool
	redis *redis.Client
}

func NewServer(cfg config.AppConfig, logger *zap.Logger) *Server {
	return &Server{cfg: cfg, logger: logger}
}

// Setup connects to the backing stores and wires every component. The hub
// runs until ctx is cancelled.
func (s *Server) Setup(ctx context.Context) error {
	// ----- PostgreSQL -----
	pool, err := db.ConnectDB(ctx, db.PostgresConfig{URL: s.cfg.DatabaseURL, MaxConns: s.cfg.DBMaxConns})
	if err != nil {
		return fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	s.pool = pool
	s.logger.Info("connected to PostgreSQL")

	// ----- Redis -----
	redisClient, err := db.NewRedisClient(ctx, db.RedisConfig{
		Address:  s.cfg.RedisAddr,
		Password: s.cfg.RedisPass,
		DB:       s.cfg.RedisDB,
		PoolSize: s.cfg.RedisPoolSize,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	s.redis = redisClient
	s.logger.Info("connected to Redis", zap.String("addr", s.cfg.RedisAddr))

	// ----- JWT -----
	verifier, err := jwt.LoadVerifier(s.cfg.JWT)
	if err != nil {
		return fmt.Errorf("failed to load JWT verifier: %w", err)
	}

	// ----- Metrics -----
	registry := metrics.NewRegistry()

	// ----- Salesforce gateway -----
	sfCfg := s.cfg.Salesforce
	gateway, err := salesforce.NewClient(&sfCfg, salesforce.NewRedisTokenCache(redisClient), registry, s.logger)
	if err != nil {
		return fmt.Errorf("invalid salesforce configuration: %w", err)
	}

	// ----- WebSocket Hub -----
	hub := websocket.NewHub(verifier, s.logger)
	go hub.Run(ctx)

	// ----- Repositories -----
	dbWrapper := postgres.NewDB(pool)

	// ----- Services -----
	syncService := syncsvc.NewSyncService(syncsvc.Deps{
		Customers:   postgres.NewCustomerRepository(pool),
		Addresses:   postgres.NewAddressRepository(pool),
		Orders:      postgres.NewOrderRepository(pool),
		Products:    postgres.NewProductRepository(pool),
		ExternalIDs: postgres.NewExternalIDRepository(pool),
		SyncLog:     postgres.NewSyncLogRepository(pool),
		Gateway:     gateway,
		Locker:      lock.NewRedisLocker(redisClient, s.cfg.SyncLockTTL),
		Publisher:   hub,
		Metrics:     registry,
		Logger:      s.logger,
	}, syncsvc.Options{
		OAuthProvider:       s.cfg.OAuthProvider,
		LegacyWriteback:     s.cfg.LegacyWriteback,
		OrderUpsertsContact: s.cfg.OrderUpsertsContact,
		ContactAttributeID:  s.cfg.ContactAttributeID,
	})

	// ----- Handlers -----
	handlers := &Handlers{
		HealthHandler: healthHandler.NewHealthHandler(version, map[string]healthHandler.Check{
			"postgres": dbWrapper.Ping,
			"redis": func(ctx context.Context) error {
				return redisClient.Ping(ctx).Err()
			},
		}),
		SalesforceHandler: sfHandler.NewSalesforceHandler(syncService, s.logger),
		WSHandler:         wsHandler.NewWebSocketHandler(hub, s.cfg.CORSOrigins, s.logger),
		AuthMiddleware:    middleware.NewAuthMiddleware(verifier),
		Metrics:           registry.Handler(),
	}

	// ----- Router -----
	engine := gin.New()
	engine.Use(
		middleware.RequestID(),
		middleware.RecoveryMiddleware(s.logger),
		middleware.LoggingMiddleware(s.logger),
		middleware.CORSMiddleware(s.cfg.CORSOrigins),
	)
	SetupRouter(engine, handlers)

	// ----- HTTP -----
	s.http = &http.Server{
		Addr:    s.cfg.HTTPAddr,
		Handler: engine,
	}

	return nil
}

// Run serves HTTP until Shutdown is called.
func (s *Server) Run() error {
	s.logger.Info("server running", zap.String("addr", s.cfg.HTTPAddr))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server failed: %w", err)
	}
	return nil
}

// Shutdown drains HTTP connections and closes the pools.
func (s *Server) Shutdown(ctx context.Context) error {
	var errs []error
	if s.http != nil {
		if err := s.http.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("http shutdown: %w", err))
		}
	}
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("redis close: %w", err))
		}
	}
	if s.pool != nil {
		s.pool.Close()
	}
	return errors.Join(errs...)
}
