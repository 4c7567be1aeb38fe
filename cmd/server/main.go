package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fekuna/omnipos-menu-service/config"
	"github.com/fekuna/omnipos-menu-service/internal/cart"
	"github.com/fekuna/omnipos-menu-service/internal/httpapi"
	"github.com/fekuna/omnipos-menu-service/internal/kanban"
	"github.com/fekuna/omnipos-menu-service/internal/pkg/logger"
	"github.com/fekuna/omnipos-menu-service/internal/storage"
	kafkastore "github.com/fekuna/omnipos-menu-service/internal/storage/kafka"
	"github.com/fekuna/omnipos-menu-service/internal/storage/memory"
	pgstore "github.com/fekuna/omnipos-menu-service/internal/storage/postgres"
	redisstore "github.com/fekuna/omnipos-menu-service/internal/storage/redis"

	cartH "github.com/fekuna/omnipos-menu-service/internal/cart/handler"

	catH "github.com/fekuna/omnipos-menu-service/internal/catalog/handler"
	catRepoPkg "github.com/fekuna/omnipos-menu-service/internal/catalog/repository"
	catUCPkg "github.com/fekuna/omnipos-menu-service/internal/catalog/usecase"

	kanbanH "github.com/fekuna/omnipos-menu-service/internal/kanban/handler"

	orderH "github.com/fekuna/omnipos-menu-service/internal/order/handler"
	orderRepoPkg "github.com/fekuna/omnipos-menu-service/internal/order/repository"
	orderUCPkg "github.com/fekuna/omnipos-menu-service/internal/order/usecase"

	"github.com/joho/godotenv"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	// 1. Load Configuration
	_ = godotenv.Load() // Load .env file if it exists
	cfg := config.LoadEnv()

	// 2. Initialize Logger
	logConfig := &logger.ZapLoggerConfig{
		IsDevelopment:     false,
		Encoding:          cfg.Logger.Encoding,
		Level:             cfg.Logger.Level,
		DisableCaller:     cfg.Logger.DisableCaller,
		DisableStacktrace: cfg.Logger.DisableStacktrace,
	}
	if cfg.Server.AppEnv == "development" {
		logConfig.IsDevelopment = true
		logConfig.Encoding = "console"
		logConfig.Level = "debug"
	}

	appLogger := logger.NewZapLogger(logConfig)
	defer appLogger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3. Connect Storage Backend
	var redisClient *goredis.Client
	connectRedis := func() *goredis.Client {
		if redisClient != nil {
			return redisClient
		}
		client, err := redisstore.NewClient(ctx, &redisstore.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			appLogger.Fatal("Could not connect to Redis", zap.Error(err))
		}
		appLogger.Info("Connected to Redis", zap.String("addr", cfg.Redis.Addr))
		redisClient = client
		return client
	}

	var backend storage.Backend
	switch cfg.Storage.Driver {
	case "postgres":
		db, err := pgstore.Connect(ctx, &pgstore.Config{
			Host:            cfg.Postgres.Host,
			Port:            cfg.Postgres.Port,
			User:            cfg.Postgres.User,
			Password:        cfg.Postgres.Password,
			DBName:          cfg.Postgres.DBName,
			SSLMode:         cfg.Postgres.SSLMode,
			MaxOpenConns:    cfg.Postgres.MaxOpenConns,
			MaxIdleConns:    cfg.Postgres.MaxIdleConns,
			ConnMaxLifetime: time.Duration(cfg.Postgres.ConnMaxLifetime) * time.Second,
			ConnMaxIdleTime: time.Duration(cfg.Postgres.ConnMaxIdleTime) * time.Second,
		})
		if err != nil {
			appLogger.Fatal("Could not connect to database", zap.Error(err))
		}
		defer db.Close()

		pg := pgstore.NewBackend(db, cfg.Postgres.Table)
		if err := pg.EnsureSchema(ctx); err != nil {
			appLogger.Fatal("Could not prepare storage table", zap.Error(err))
		}
		appLogger.Info("Connected to PostgreSQL database", zap.String("db_name", cfg.Postgres.DBName))
		backend = pg
	case "redis":
		backend = redisstore.NewBackend(connectRedis())
	case "memory", "":
		backend = memory.NewArea()
		appLogger.Warn("Using in-memory storage; data is lost on restart")
	default:
		appLogger.Fatal("Unknown storage driver", zap.String("driver", cfg.Storage.Driver))
	}

	// 4. Initialize Change Broadcaster
	var bus storage.Broadcaster
	switch cfg.Storage.Broadcast {
	case "redis":
		bus = redisstore.NewBroadcaster(connectRedis(), cfg.Redis.Channel, appLogger)
		appLogger.Info("Broadcasting changes over Redis", zap.String("channel", cfg.Redis.Channel))
	case "kafka":
		bus = kafkastore.NewBroadcaster(&kafkastore.Config{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.Topic,
			GroupID: cfg.Kafka.GroupID,
		}, appLogger)
		appLogger.Info("Broadcasting changes over Kafka", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))
	case "local", "":
		bus = memory.NewBus()
	default:
		appLogger.Fatal("Unknown storage broadcast", zap.String("broadcast", cfg.Storage.Broadcast))
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	store := storage.New(backend, bus, appLogger.Named("storage"), storage.WithKeyPrefix(cfg.Storage.KeyPrefix))
	defer store.Close()
	store.Start(ctx)

	// 5. Initialize Repositories
	catRepo := catRepoPkg.NewStorageRepository(store)
	orderRepo := orderRepoPkg.NewStorageRepository(store)

	// 6. Initialize UseCases
	catUC := catUCPkg.NewCatalogUseCase(catRepo, cfg.Catalog.DefaultCategories, appLogger)
	if err := catUC.Load(ctx); err != nil {
		appLogger.Fatal("Could not load catalog", zap.Error(err))
	}
	defer catUC.Close()

	orderUC := orderUCPkg.NewOrderUseCase(orderRepo, orderUCPkg.Options{
		OrderNumberDigits: cfg.Ledger.OrderNumberDigits,
		MaxIDAttempts:     cfg.Ledger.MaxIDAttempts,
	}, appLogger)
	if err := orderUC.Load(ctx); err != nil {
		appLogger.Fatal("Could not load orders", zap.Error(err))
	}
	defer orderUC.Close()

	carts := cart.NewRegistry()
	go carts.Sweep(ctx,
		time.Duration(cfg.Cart.SweepInterval)*time.Second,
		time.Duration(cfg.Cart.IdleTTL)*time.Minute,
		func(n int) { appLogger.Info("Expired idle carts", zap.Int("count", n)) },
	)
	board := kanban.NewCoordinator(catUC, appLogger)

	// 7. Initialize Handlers
	router := httpapi.NewRouter(appLogger,
		catH.NewCatalogHandler(catUC, appLogger),
		kanbanH.NewKanbanHandler(board, appLogger),
		cartH.NewCartHandler(carts, catUC, appLogger),
		orderH.NewOrderHandler(orderUC, carts, appLogger),
	)

	// 8. Start HTTP Server
	port := cfg.Server.HTTPPort
	if !strings.HasPrefix(port, ":") {
		port = ":" + port
	}
	srv := &http.Server{
		Addr:              port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	appLogger.Info("Starting HTTP server", zap.String("port", port))

	// Graceful Shutdown
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal("failed to serve", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("Server shutdown failed", zap.Error(err))
	}
	cancel()
	appLogger.Info("Server stopped")
}
