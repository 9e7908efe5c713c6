package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"reviewpilot/internal/app/autoresponder/cache"
	"reviewpilot/internal/app/autoresponder/config"
	"reviewpilot/internal/app/autoresponder/handler"
	"reviewpilot/internal/app/autoresponder/infrastructure/facebook"
	"reviewpilot/internal/app/autoresponder/infrastructure/messaging"
	"reviewpilot/internal/app/autoresponder/infrastructure/platform"
	"reviewpilot/internal/app/autoresponder/repository"
	"reviewpilot/internal/app/autoresponder/scheduler"
	"reviewpilot/internal/app/autoresponder/service"
	"reviewpilot/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	logger.Init("reviewpilot", logLevel)

	logstashAddr := os.Getenv("LOGSTASH_ADDR")
	if logstashAddr != "" {
		if err := logger.InitLogstash(logstashAddr, "reviewpilot", logLevel); err != nil {
			logger.Warn().Err(err).Msg("Failed to connect to Logstash, using stdout only")
		} else {
			logger.Info().Str("logstash_addr", logstashAddr).Msg("Connected to Logstash")
		}
	}

	mongoClient, err := connectMongoDB(cfg.MongoDB)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to MongoDB")
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := mongoClient.Disconnect(ctx); err != nil {
			logger.Error().Err(err).Msg("Error disconnecting from MongoDB")
		}
	}()
	logger.Info().
		Str("database", cfg.MongoDB.Database).
		Msg("Connected to MongoDB")

	db := mongoClient.Database(cfg.MongoDB.Database)

	reviewCache, err := cache.NewRedisCache(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer reviewCache.Close()
	logger.Info().Str("addr", cfg.Redis.Addr).Msg("Connected to Redis")

	kafkaProducer := messaging.NewKafkaProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	defer kafkaProducer.Close()
	logger.Info().
		Str("topic", cfg.Kafka.Topic).
		Msg("Initialized Kafka producer")

	reviewRepo := repository.NewReviewRepository(db)

	llmClient := service.NewLLMClient(cfg.LLM)
	classifier := service.NewSentimentService(llmClient, reviewCache, cfg.LLM.ClassifyTimeout)
	generator := service.NewResponseService(llmClient, reviewCache, cfg.LLM.GenerateTimeout)

	facebookClient := facebook.NewClient(cfg.Facebook.GraphBaseURL)
	platformClient := platform.NewClient(cfg.Platform.BaseURL)

	reviewService := service.NewReviewService(
		reviewRepo,
		facebookClient,
		platformClient,
		classifier,
		generator,
		kafkaProducer,
		cfg.Scheduler.Debounce,
	)

	jobManager := scheduler.NewJobManager(reviewService, platformClient, cfg.Scheduler)
	if err := jobManager.Run(); err != nil {
		logger.Fatal().Err(err).Msg("Failed to start job manager")
	}

	authMiddleware := handler.NewAuthMiddleware(cfg.JWT.Secret)
	autoResponderHandler := handler.NewAutoResponderHandler(reviewService, jobManager)
	router := handler.NewRouter(autoResponderHandler, authMiddleware)

	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().
			Str("address", cfg.Server.Address()).
			Msg("Starting ReviewPilot Service")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down ReviewPilot Service...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	jobManager.Shutdown()

	logger.Info().Msg("ReviewPilot Service stopped gracefully")
}

func connectMongoDB(cfg config.MongoDBConfig) (*mongo.Client, error) {
	clientOptions := options.Client().ApplyURI(cfg.URI)

	var client *mongo.Client
	var err error

	for i := 0; i < 10; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		client, err = mongo.Connect(ctx, clientOptions)
		if err == nil {
			pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer pingCancel()

			if err = client.Ping(pingCtx, nil); err == nil {
				return client, nil
			}
		}

		logger.Warn().
			Int("attempt", i+1).
			Err(err).
			Msg("Failed to connect to MongoDB, retrying...")
		time.Sleep(3 * time.Second)
	}

	return nil, err
}
