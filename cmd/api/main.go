package main

import (
	"context"
	"crypto/tls"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/atendeai/assistant/internal/api/router"
	"github.com/atendeai/assistant/internal/clinic"
	appconfig "github.com/atendeai/assistant/internal/config"
	"github.com/atendeai/assistant/internal/conversation"
	"github.com/atendeai/assistant/internal/messaging"
	"github.com/atendeai/assistant/internal/observability/metrics"
	"github.com/atendeai/assistant/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting atendeai assistant API server",
		"env", cfg.Env,
		"port", cfg.Port,
		"llm_provider", cfg.LLMProvider,
	)

	redisOpts := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOpts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	redisClient := redis.NewClient(redisOpts)
	defer func() { _ = redisClient.Close() }()

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		cancel()
		logger.Error("failed to connect to redis", "addr", cfg.RedisAddr, "error", err)
		os.Exit(1)
	}
	cancel()

	clinicStore := clinic.NewStore(redisClient)
	memoryStore := conversation.NewRedisMemoryStore(redisClient, cfg.HistoryLimit)

	llmClient, model, err := buildLLMClient(context.Background(), cfg)
	if err != nil {
		logger.Error("failed to initialize LLM client", "provider", cfg.LLMProvider, "error", err)
		os.Exit(1)
	}

	conversationMetrics := metrics.NewConversationMetrics(prometheus.DefaultRegisterer)

	engineOpts := []conversation.EngineOption{
		conversation.WithMetrics(conversationMetrics),
		conversation.WithTurnTimeout(cfg.TurnTimeout),
	}

	// The transcript log is optional; the assistant runs on Redis alone.
	if cfg.DatabaseURL != "" {
		db, err := sql.Open("pgx", cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to open database", "error", err)
			os.Exit(1)
		}
		defer func() { _ = db.Close() }()
		engineOpts = append(engineOpts, conversation.WithTranscriptStore(conversation.NewTranscriptStore(db)))
	} else {
		logger.Warn("DATABASE_URL not set; transcript log disabled")
	}

	engine := conversation.NewEngine(clinicStore, memoryStore, llmClient, model, logger, engineOpts...)

	sender := messaging.NewWhatsAppClient(
		cfg.WhatsAppAPIBaseURL,
		cfg.WhatsAppAccessToken,
		cfg.WhatsAppPhoneNumberID,
		logger,
	)
	webhook := messaging.NewWebhookHandler(engine, sender, cfg.WhatsAppVerifyToken, logger)

	r := router.New(&router.Config{
		Logger:          logger,
		Webhook:         webhook,
		ClinicHandler:   clinic.NewHandler(clinicStore, logger),
		MetricsHandler:  promhttp.Handler(),
		AdminAuthSecret: cfg.AdminJWTSecret,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

// buildLLMClient selects the draft-reply provider from configuration.
func buildLLMClient(ctx context.Context, cfg *appconfig.Config) (conversation.LLMClient, string, error) {
	switch cfg.LLMProvider {
	case "bedrock":
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
		if err != nil {
			return nil, "", err
		}
		client := conversation.NewBedrockLLMClient(bedrockruntime.NewFromConfig(awsCfg))
		return client, cfg.BedrockModelID, nil
	default:
		if cfg.OpenAIAPIKey == "" {
			return nil, "", errors.New("OPENAI_API_KEY is required when LLM_PROVIDER=openai")
		}
		return conversation.NewOpenAILLMClient(cfg.OpenAIAPIKey), cfg.OpenAIModel, nil
	}
}
