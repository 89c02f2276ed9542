package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/BloggingApp/feed-service/internal/config"
	"github.com/BloggingApp/feed-service/internal/handler"
	"github.com/BloggingApp/feed-service/internal/identity"
	"github.com/BloggingApp/feed-service/internal/rabbitmq"
	"github.com/BloggingApp/feed-service/internal/repository"
	"github.com/BloggingApp/feed-service/internal/server"
	"github.com/BloggingApp/feed-service/internal/service"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	if err := loadEnv(); err != nil {
		logger.Sugar().Warnf("no .env file loaded: %s", err.Error())
	}

	if err := initConfig(); err != nil {
		logger.Sugar().Panicf("failed to initialize yaml config: %s", err.Error())
	}

	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		logger.Sugar().Panicf("failed to load config: %s", err.Error())
	}
	if cfg.AccessSecret == "" {
		logger.Warn("ACCESS_SECRET is empty, every authenticated request will be rejected")
	}

	repos, err := repository.Open(ctx, cfg, logger)
	if err != nil {
		logger.Sugar().Panicf("failed to open repository: %s", err.Error())
	}
	defer repos.Close()

	opts := service.OptionsFromConfig(cfg)
	if cfg.RabbitMQURL != "" {
		mq, err := rabbitmq.New(cfg.RabbitMQURL)
		if err != nil {
			logger.Sugar().Panicf("failed to connect to rabbitmq: %s", err.Error())
		}
		defer mq.Close()
		opts.Publisher = mq
		logger.Info("Successfully connected to RabbitMQ")
	}

	services := service.New(logger, repos, opts)
	handlers := handler.New(logger, services, identity.NewVerifier(cfg.AccessSecret), cfg.ClientOrigin)

	srv := server.New(config.ServerConfig{
		Port:           cfg.Port,
		Handler:        handlers.InitRoutes(),
		MaxHeaderBytes: 1 << 20,
		ReadTimeout:    time.Second * 10,
		WriteTimeout:   time.Second * 20,
	})
	go func() {
		if err := srv.Run(); err != nil {
			logger.Sugar().Panicf("failed to run http server: %s", err.Error())
		}
	}()

	logger.Info("Server started", zap.String("port", cfg.Port), zap.String("driver", cfg.Driver))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)
	<-quit

	logger.Info("Server shutting down")

	shutdownCtx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Sugar().Errorf("failed to shut down http server: %s", err.Error())
	}
}

func loadEnv() error {
	return godotenv.Load()
}

func initConfig() error {
	viper.AddConfigPath(".")
	viper.SetConfigType("yaml")
	viper.SetConfigName("app")
	return viper.ReadInConfig()
}
