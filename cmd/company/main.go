package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/timeoverseer/overseer/internal/company/auth"
	"github.com/timeoverseer/overseer/internal/company/config"
	"github.com/timeoverseer/overseer/internal/company/controller"
	gorm "github.com/timeoverseer/overseer/internal/company/db"
	"github.com/timeoverseer/overseer/internal/company/events"
	"github.com/timeoverseer/overseer/internal/company/handlers"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

func main() {
	logger := initLogger()
	defer func(logger *zap.Logger) {
		err := logger.Sync()
		if err != nil {
			logger.Error("failed to sync logger", zap.Error(err))
		}
	}(logger)

	cfg, err := config.Load(config.Path())
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	repo, err := gorm.NewRepository(cfg.Database())
	if err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}
	defer func() {
		if err := repo.Close(); err != nil {
			logger.Error("failed to close database", zap.Error(err))
		}
	}()

	if err := events.EnsureTopic(cfg.KafkaBrokers, cfg.Topic, logger); err != nil {
		logger.Warn("Kafka unreachable, events will be retried on write", zap.Error(err))
	}
	producer := events.NewProducer(cfg.KafkaBrokers, logger, cfg.Topic)
	defer producer.Close()

	companySvc := controller.NewCompanyService(repo, producer, logger)

	// Create handlers
	companyHandler := handlers.NewCompanyHandler(companySvc, logger)

	metrics := handlers.NewMetrics(nil)
	authInterceptor := auth.NewAuthInterceptor(cfg.JWTSecret)

	// Create server
	server := handlers.NewServer(cfg.GRPCPort, cfg.HTTPPort, logger,
		grpc.ChainUnaryInterceptor(metrics.UnaryInterceptor(), authInterceptor.Unary()))
	server.RegisterGRPCHandler(companyHandler)

	// Register HTTP gateway
	if err := server.RegisterHTTPGateway(
		[]grpc.DialOption{
			grpc.WithTransportCredentials(insecure.NewCredentials()),
		},
		cfg.JWTSecret,
		metrics.Handler()); err != nil {
		logger.Fatal("Failed to register HTTP gateway", zap.Error(err))
	}

	// Start servers
	go func() {
		if err := server.Start(); err != nil {
			logger.Fatal("Failed to start servers", zap.Error(err))
		}
	}()

	waitForShutdown(server, logger)
}

// initLogger initializes a Zap production logger.
func initLogger() *zap.Logger {
	logger, _ := zap.NewProduction()
	return logger
}

// waitForShutdown blocks until an interrupt or SIGTERM is received, then shuts down servers.
func waitForShutdown(server *handlers.Server, logger *zap.Logger) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	server.Stop()
	logger.Info("Servers stopped properly")
}
