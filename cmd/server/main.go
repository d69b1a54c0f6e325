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

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/arkapos/stockunit-service/config"
	"github.com/arkapos/stockunit-service/internal/capability"

	availH "github.com/arkapos/stockunit-service/internal/availability/handler"
	availUCPkg "github.com/arkapos/stockunit-service/internal/availability/usecase"

	movH "github.com/arkapos/stockunit-service/internal/movement/handler"
	movLoggerPkg "github.com/arkapos/stockunit-service/internal/movement/logger"
	movRepoPkg "github.com/arkapos/stockunit-service/internal/movement/repository"
	movUCPkg "github.com/arkapos/stockunit-service/internal/movement/usecase"

	pairH "github.com/arkapos/stockunit-service/internal/pair/handler"
	pairRepoPkg "github.com/arkapos/stockunit-service/internal/pair/repository"
	pairUCPkg "github.com/arkapos/stockunit-service/internal/pair/usecase"

	payH "github.com/arkapos/stockunit-service/internal/payment/handler"
	payRepoPkg "github.com/arkapos/stockunit-service/internal/payment/repository"
	payUCPkg "github.com/arkapos/stockunit-service/internal/payment/usecase"

	resvH "github.com/arkapos/stockunit-service/internal/reservation/handler"
	resvListenerPkg "github.com/arkapos/stockunit-service/internal/reservation/listener"
	resvUCPkg "github.com/arkapos/stockunit-service/internal/reservation/usecase"

	suH "github.com/arkapos/stockunit-service/internal/stockunit/handler"
	suRepoPkg "github.com/arkapos/stockunit-service/internal/stockunit/repository"
	suUCPkg "github.com/arkapos/stockunit-service/internal/stockunit/usecase"

	"github.com/arkapos/stockunit-service/pkg/broker"
	"github.com/arkapos/stockunit-service/pkg/cache"
	"github.com/arkapos/stockunit-service/pkg/logger"
	"github.com/arkapos/stockunit-service/pkg/postgres"
	"github.com/arkapos/stockunit-service/pkg/search"
)

func main() {
	// 1. Load Configuration
	_ = godotenv.Load()
	cfg := config.LoadEnv()

	// 2. Initialize Logger
	logConfig := &logger.Config{
		IsDevelopment:     false,
		Encoding:          "json",
		Level:             "info",
		DisableCaller:     cfg.Logger.DisableCaller,
		DisableStacktrace: cfg.Logger.DisableStacktrace,
	}
	if cfg.Server.AppEnv == "dev" || cfg.Server.AppEnv == "development" {
		logConfig.IsDevelopment = true
		logConfig.Encoding = cfg.Logger.Encoding
		logConfig.Level = cfg.Logger.Level
	}

	appLogger := logger.NewZapLogger(logConfig)
	defer appLogger.Sync()

	// 3. Connect to Database
	db, err := postgres.NewPostgres(&postgres.Config{
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
	appLogger.Info("Connected to PostgreSQL database", zap.String("db_name", cfg.Postgres.DBName))

	// 4. Initialize Redis
	redisClient, err := cache.NewRedisClient(&cache.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		appLogger.Fatal("Could not connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()
	appLogger.Info("Connected to Redis", zap.String("addr", cfg.Redis.Addr))

	// 5. Initialize Kafka
	billingConsumer := broker.NewConsumer(&broker.Config{
		Brokers: cfg.Kafka.Brokers,
		Topic:   cfg.Kafka.BillingTopic,
		GroupID: cfg.Kafka.BillingGroupID,
	})
	defer billingConsumer.Close()

	movementProducer := broker.NewProducer(&broker.Config{
		Brokers: cfg.Kafka.Brokers,
		Topic:   cfg.Kafka.MovementTopic,
	})
	defer movementProducer.Close()
	appLogger.Info("Connected to Kafka", zap.Strings("brokers", cfg.Kafka.Brokers))

	// 6. Initialize Elasticsearch (optional)
	var movementIndexer movLoggerPkg.Indexer
	esClient, err := search.NewClient(&search.Config{
		Addresses: cfg.Elastic.Addresses,
		Username:  cfg.Elastic.Username,
		Password:  cfg.Elastic.Password,
	})
	if err != nil {
		appLogger.Warn("Could not connect to Elasticsearch, movement indexing disabled", zap.Error(err))
	} else {
		movementIndexer = esClient
		appLogger.Info("Connected to Elasticsearch", zap.Strings("addresses", cfg.Elastic.Addresses))
	}

	// 7. Probe schema capabilities
	prober := capability.NewDBProber(db, appLogger)

	// 8. Initialize Repositories
	unitRepo := suRepoPkg.NewPGRepository(db, prober)
	pairRepo := pairRepoPkg.NewPGRepository(db, prober)
	payRepo := payRepoPkg.NewPGRepository(db)
	movRepo := movRepoPkg.NewPGRepository(db)

	// 9. Initialize UseCases
	movementLogger := movLoggerPkg.NewMovementLogger(movRepo, movementProducer, movementIndexer, redisClient, appLogger)
	unitUC := suUCPkg.NewStockUnitUseCase(unitRepo, movementLogger, appLogger)
	resvUC := resvUCPkg.NewReservationUseCase(unitRepo, prober, movementLogger, cfg.Reservation, appLogger)
	pairUC := pairUCPkg.NewPairUseCase(pairRepo, unitRepo, prober, movementLogger, redisClient, cfg.Reservation, appLogger)
	availUC := availUCPkg.NewAvailabilityUseCase(unitRepo, prober, appLogger)
	payUC := payUCPkg.NewPaymentUseCase(payRepo, cfg.Billing, appLogger)
	movUC := movUCPkg.NewMovementUseCase(movRepo, redisClient, appLogger)

	// 10. Start Billing Listener
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	billingListener := resvListenerPkg.NewBillingListener(billingConsumer, resvUC, appLogger)
	go billingListener.Run(ctx)

	// 11. Initialize HTTP Router
	if cfg.Server.AppEnv != "dev" && cfg.Server.AppEnv != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")
	suH.NewStockUnitHandler(unitUC, appLogger).MapRoutes(v1.Group("/units"))
	resvGroup := v1.Group("/reservations")
	resvH.NewReservationHandler(resvUC, appLogger).MapRoutes(resvGroup)
	pairHandler := pairH.NewPairHandler(pairUC, appLogger)
	pairHandler.MapRoutes(v1.Group("/pairs"))
	pairHandler.MapKeyRoutes(resvGroup.Group("/keys"))
	availH.NewAvailabilityHandler(availUC, appLogger).MapRoutes(v1.Group("/availability"))
	payHandler := payH.NewPaymentHandler(payUC, appLogger)
	payHandler.MapRoutes(v1.Group("/payments"))
	payHandler.MapBillRoutes(v1.Group("/bills"))
	movH.NewMovementHandler(movUC, appLogger).MapRoutes(v1.Group("/movements"))

	// 12. Start HTTP Server
	port := cfg.Server.HTTPPort
	if !strings.HasPrefix(port, ":") {
		port = ":" + port
	}
	srv := &http.Server{
		Addr:         port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		appLogger.Info("Starting HTTP server", zap.String("port", port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal("failed to serve", zap.Error(err))
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("forced shutdown", zap.Error(err))
	}
	appLogger.Info("Server stopped")
}
