package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/linklytics/linklytics/config"
	appcache "github.com/linklytics/linklytics/internal/app/cache"
	appmodel "github.com/linklytics/linklytics/internal/app/model"
	apprepository "github.com/linklytics/linklytics/internal/app/repository"
	appserver "github.com/linklytics/linklytics/internal/app/server"
	appservice "github.com/linklytics/linklytics/internal/app/service"
	"github.com/linklytics/linklytics/internal/http/middleware"
	"github.com/linklytics/linklytics/internal/infra/logger"
	infraNATS "github.com/linklytics/linklytics/internal/infra/nats"
	infraPostgres "github.com/linklytics/linklytics/internal/infra/postgres"
	infraPrometheus "github.com/linklytics/linklytics/internal/infra/prometheus"
	infraRedis "github.com/linklytics/linklytics/internal/infra/redis"
	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	isDev := os.Getenv("APP_ENV") != "production"
	log := logger.MustInit(logger.Config{
		Development: isDev,
		Level:       os.Getenv("LOG_LEVEL"),
	})
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config", zap.Error(err))
	}

	log.Info("Configuration loaded successfully",
		zap.String("base_url", cfg.App.BaseURL),
		zap.String("postgres_host", cfg.Postgres.Host),
		zap.Int("postgres_port", cfg.Postgres.Port),
		zap.String("postgres_db", cfg.Postgres.Database),
		zap.String("redis_host", cfg.Redis.Host),
		zap.Int("redis_port", cfg.Redis.Port),
		zap.String("nats_host", cfg.NATS.Host),
		zap.Int("nats_port", cfg.NATS.Port),
		zap.Duration("cache_ttl", cfg.CacheTTL()),
	)

	if cfg.Auth.JWTSecret == "" {
		log.Fatal("JWT_SECRET is not configured")
	}

	gormDB, err := infraPostgres.NewGorm(cfg.Postgres)
	if err != nil {
		log.Fatal("Failed to open GORM connection", zap.Error(err))
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		log.Fatal("Failed to access underlying SQL DB", zap.Error(err))
	}
	defer sqlDB.Close()

	if err := infraPostgres.AutoMigrate(ctx, gormDB,
		&appmodel.User{}, &appmodel.Link{}, &appmodel.AccessEvent{}); err != nil {
		log.Fatal("Failed to run database migrations", zap.Error(err))
	}

	pool, err := infraPostgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		log.Fatal("Failed to connect to Postgres", zap.Error(err))
	}
	defer pool.Close()

	log.Info("Connected to Postgres successfully")

	redisClient, err := infraRedis.NewClient(ctx, cfg.Redis)
	if err != nil {
		log.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()
	log.Info("Connected to Redis successfully")

	natsConn, js, err := infraNATS.Connect(cfg.NATS)
	if err != nil {
		log.Fatal("Failed to connect to NATS", zap.Error(err))
	}
	defer natsConn.Drain()
	log.Info("Connected to NATS successfully", zap.Bool("jetstream_ready", js != nil))

	geo, err := appservice.NewGeoResolver(cfg.GeoIP.Database)
	if err != nil {
		log.Fatal("Failed to open GeoIP database", zap.Error(err))
	}
	defer geo.Close()

	linkRepo := apprepository.NewLinkRepository(gormDB)
	userRepo := apprepository.NewUserRepository(gormDB)
	eventRepo := apprepository.NewAccessEventRepository(gormDB)
	analyticsRepo := apprepository.NewAnalyticsRepository(pool)

	linkCache := appcache.NewRedisLinkCache(redisClient, cfg.CacheTTL(),
		appcache.WithBloom(cfg.Cache.BloomCapacity, cfg.Cache.BloomFPRate))
	if codes, err := linkRepo.Codes(ctx); err != nil {
		log.Warn("Failed to warm negative-lookup filter", zap.Error(err))
	} else {
		linkCache.Warm(codes)
		log.Info("Negative-lookup filter warmed", zap.Int("codes", len(codes)))
	}

	publisher := appservice.NewAccessPublisher(js)
	consumer := appservice.NewAccessConsumer(js, log)
	if err := consumer.Start(); err != nil {
		log.Fatal("Failed to start access consumer", zap.Error(err))
	}
	defer consumer.Stop()

	alias := appservice.NewAliasAllocator(linkRepo)
	linkService := appservice.NewLinkService(linkRepo, userRepo, alias, linkCache)
	analyticsService := appservice.NewAnalyticsService(linkRepo, analyticsRepo, cfg.App.BaseURL)
	resolver := appservice.NewResolver(appservice.ResolverDeps{
		Logger:    log,
		Links:     linkRepo,
		Recorder:  eventRepo,
		Cache:     linkCache,
		Clients:   appservice.NewClientInfo(geo),
		Announcer: publisher,
	})

	if !isDev {
		promServer := infraPrometheus.NewServer(cfg.Prometheus)
		go func() {
			log.Info("Starting Prometheus metrics server",
				zap.Int("port", cfg.Prometheus.Port))
			if err := promServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("Prometheus metrics server stopped unexpectedly", zap.Error(err))
			}
		}()
		defer func() {
			if err := promServer.Close(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Warn("Failed to close Prometheus server", zap.Error(err))
			}
		}()
	} else {
		log.Info("Skipping Prometheus metrics server in development mode")
	}

	server := appserver.New(appserver.Dependencies{
		Logger:    log,
		Redis:     redisClient,
		Resolver:  resolver,
		Links:     linkService,
		Analytics: analyticsService,
		Secret:    []byte(cfg.Auth.JWTSecret),
		BaseURL:   cfg.App.BaseURL,
		RateLimit: middleware.RateLimitConfig{
			MaxRequests: cfg.RateLimit.MaxRequests,
			Window:      cfg.RateLimitWindow(),
		},
	})

	port := cfg.App.Port
	if port == 0 {
		port = 8080
	}
	if err := server.Listen(fmt.Sprintf(":%d", port)); err != nil {
		log.Fatal("Fiber server exited", zap.Error(err))
	}
}
