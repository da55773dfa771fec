package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/antique-appraiser/internal/appraisal"
	"github.com/noah-isme/antique-appraiser/internal/config"
	"github.com/noah-isme/antique-appraiser/internal/events"
	"github.com/noah-isme/antique-appraiser/internal/handler"
	"github.com/noah-isme/antique-appraiser/internal/middleware"
	"github.com/noah-isme/antique-appraiser/internal/router"
	"github.com/noah-isme/antique-appraiser/internal/service"
	"github.com/noah-isme/antique-appraiser/pkg/ai"
)

const brokerConnectTimeout = 5 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", cfg.AppName).Logger()

	completer, err := ai.NewCompleter(ai.ProviderConfig{
		Provider: cfg.AIProvider,
		OpenAI: ai.OpenAIConfig{
			APIKey:      cfg.OpenAIAPIKey,
			Model:       cfg.OpenAIModel,
			BaseURL:     cfg.OpenAIBaseURL,
			MaxTokens:   cfg.MaxTokens,
			Temperature: cfg.Temperature,
			Logger:      logger,
		},
		Gemini: ai.GeminiConfig{
			APIKey:    cfg.GeminiAPIKey,
			Model:     cfg.GeminiModel,
			MaxTokens: cfg.MaxTokens,
			Logger:    logger,
		},
	})
	if err != nil {
		log.Fatalf("failed to create model client: %v", err)
	}

	redisClient, natsConn := connectBrokers(cfg, logger)
	if redisClient != nil {
		defer redisClient.Close()
	}
	if natsConn != nil {
		defer natsConn.Close()
	}

	var publisher events.Publisher
	if broker := events.NewBrokerPublisher(redisClient, cfg.RedisChannel, natsConn, cfg.NATSSubject); broker.Enabled() {
		publisher = broker
	}

	assembler := appraisal.NewAssembler(appraisal.AssemblerConfig{
		MaxImages:     cfg.MaxImages,
		MaxImageBytes: cfg.MaxImageBytes(),
		Concurrency:   cfg.Concurrency,
	}, appraisal.NewHTTPFetcher(cfg.FetchTimeout, cfg.MaxImageBytes()), logger)

	validate := validator.New(validator.WithRequiredStructEnabled())
	appraisalService := service.NewAppraisalService(assembler, completer, publisher, validate, logger, service.AppraisalServiceOptions{
		IncludeRawResponse: cfg.IncludeRaw,
		ModelTimeout:       cfg.RequestTimeout,
	})

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		BodyLimit:    cfg.BodyLimitBytes(),
	})

	middleware.Register(app, middleware.Config{Logger: &logger, AccessLog: cfg.AccessLog})
	router.Register(app, cfg, router.Dependencies{
		AppraisalHandler: handler.NewAppraisalHandler(appraisalService, logger, cfg.MaxImageBytes()),
		PageHandler:      handler.NewPageHandler(appraisalService, logger, cfg.MaxImageBytes()),
		Model:            completer.Model(),
		EventsEnabled:    publisher != nil,
	})

	go func() {
		logger.Info().Str("addr", cfg.HTTPAddress()).Str("provider", cfg.AIProvider).Str("model", completer.Model()).Msg("server starting")
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app, cfg.ShutdownGrace, logger)
}

// connectBrokers opens the optional event sinks. A sink that cannot be
// reached is logged and skipped; appraisals do not depend on it.
func connectBrokers(cfg config.Config, logger zerolog.Logger) (*redis.Client, *nats.Conn) {
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), brokerConnectTimeout)
		client, err := events.ConnectRedis(ctx, cfg.RedisURL, brokerConnectTimeout)
		cancel()
		if err != nil {
			logger.Warn().Err(err).Msg("redis unavailable, appraisal events disabled on redis")
		} else {
			redisClient = client
		}
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		conn, err := events.ConnectNATS(cfg.NATSURL, cfg.AppName, brokerConnectTimeout)
		if err != nil {
			logger.Warn().Err(err).Msg("nats unavailable, appraisal events disabled on nats")
		} else {
			natsConn = conn
		}
	}

	return redisClient, natsConn
}

func waitForShutdown(app *fiber.App, grace time.Duration, logger zerolog.Logger) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	logger.Info().Msg("server stopped")
}
