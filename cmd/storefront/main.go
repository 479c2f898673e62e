package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/fjod/peixeshop/internal/auth"
	"github.com/fjod/peixeshop/internal/config"
	"github.com/fjod/peixeshop/internal/events"
	healthgrpc "github.com/fjod/peixeshop/internal/grpc"
	h "github.com/fjod/peixeshop/internal/http"
	"github.com/fjod/peixeshop/internal/logging"
	"github.com/fjod/peixeshop/internal/querycache"
	"github.com/fjod/peixeshop/internal/repository"
	s "github.com/fjod/peixeshop/internal/service"
	"github.com/fjod/peixeshop/internal/session"
	"github.com/fjod/peixeshop/internal/telemetry"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type publisher interface {
	s.EventPublisher
	Close() error
}

func main() {
	cfg := config.Load()
	instanceID := uuid.NewString()
	log := logging.New(cfg.LogLevel).WithField("instance_id", instanceID)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.InitTracerProvider(ctx, cfg.ServiceName, cfg.OTLPEndpoint)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize tracing")
	}

	// MongoDB
	mongoDB, err := repository.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDBName)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to MongoDB")
	}
	log.WithField("database", cfg.MongoDBName).Info("connected to MongoDB")

	products := repository.NewMongoProductRepository(mongoDB)
	orders := repository.NewMongoOrderRepository(mongoDB)
	for _, repo := range []any{products, orders} {
		if ix, ok := repo.(repository.Indexer); ok {
			if err := ix.CreateIndexes(ctx); err != nil {
				log.WithError(err).Warn("failed to create indexes")
			}
		}
	}

	// Sessions
	var store session.Store
	var closeStore func() error
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       0,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.WithError(err).Fatal("redis connection failed")
		}
		log.WithField("addr", cfg.RedisAddr).Info("session store: redis")
		store = session.NewRedisStore(redisClient)
		closeStore = redisClient.Close
	} else {
		log.Warn("REDIS_ADDR not set, sessions are kept in process memory")
		memory := session.NewMemoryStore()
		store = memory
		closeStore = memory.Close
	}
	sessions := session.NewManager(store, log)

	// Accounts
	users, err := auth.NewRepository(cfg.AuthDBDriver, cfg.AuthDBDSN)
	if err != nil {
		log.WithError(err).Fatal("failed to open auth database")
	}
	if err := users.RunMigrations(); err != nil {
		log.WithError(err).Fatal("failed to migrate auth database")
	}
	accounts := auth.NewService(users, cfg.AdminEmails)
	if len(cfg.AdminEmails) == 0 {
		log.Warn("ADMIN_EMAILS not set, admin API is unreachable")
	}

	// Query cache and events
	cache := querycache.New(
		querycache.WithTTL(cfg.CacheTTL),
		querycache.WithFetchTimeout(cfg.FetchTimeout),
	)

	var pub publisher = events.NoopPublisher{}
	var consumer *events.CatalogConsumer
	if len(cfg.KafkaBrokers) > 0 {
		pub = events.NewPublisher(instanceID, cfg.KafkaBrokers...)
		consumer = events.NewCatalogConsumer(cache, instanceID, log, cfg.KafkaBrokers...)
		go consumer.Run(ctx)
		log.WithField("brokers", cfg.KafkaBrokers).Info("kafka events enabled")
	}

	catalog := s.NewCatalogService(products, cache, pub, log)
	orderService := s.NewOrderService(orders, cache)
	checkout := s.NewCheckoutService(orderService, pub, log)

	router := h.NewRouter(h.Deps{
		Catalog:        catalog,
		Orders:         orderService,
		Checkout:       checkout,
		Accounts:       accounts,
		Sessions:       sessions,
		Cache:          cache,
		Log:            log,
		RequestTimeout: cfg.RequestTimeout,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      otelhttp.NewHandler(router, "storefront"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.WithField("port", cfg.HTTPPort).Info("HTTP server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("HTTP server error")
		}
	}()

	// gRPC health
	checker := healthgrpc.NewHealthChecker(map[string]healthgrpc.Pinger{
		"mongodb":  repository.Pinger{DB: mongoDB},
		"sessions": sessions,
		"auth_db":  users,
	}, log)
	checker.Start(ctx)
	grpcServer := healthgrpc.NewServer(checker)

	lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
	if err != nil {
		log.WithError(err).Fatal("failed to listen")
	}
	go func() {
		log.WithField("port", cfg.GRPCPort).Info("gRPC health server starting")
		if err := grpcServer.Serve(lis); err != nil {
			log.WithError(err).Error("gRPC server stopped")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	checker.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("server forced to shutdown")
	}
	grpcServer.GracefulStop()

	if consumer != nil {
		consumer.Close()
	}
	closeQuietly(log, "event publisher", pub.Close)
	closeQuietly(log, "session manager", sessions.Close)
	closeQuietly(log, "session store", closeStore)
	closeQuietly(log, "auth database", users.Close)
	closeQuietly(log, "tracing", func() error { return shutdownTracing(shutdownCtx) })
	if err := mongoDB.Client().Disconnect(shutdownCtx); err != nil {
		log.WithError(err).Error("failed to disconnect from MongoDB")
	}

	log.Info("storefront stopped")
}

func closeQuietly(log logrus.FieldLogger, what string, fn func() error) {
	if err := fn(); err != nil {
		log.WithError(err).WithField("resource", what).Error("failed to close")
	}
}
