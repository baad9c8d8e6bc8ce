package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"emojigen/internal/delivery"
	"emojigen/internal/infra"
	"emojigen/internal/orchestrator"
	"emojigen/internal/providers"
	"emojigen/internal/providers/gemini"
	"emojigen/internal/providers/openai"
	"emojigen/internal/queue"
	"emojigen/internal/slack"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: db connection failed")
	}
	defer pool.Close()

	if err := queue.Migrate(pool); err != nil {
		logger.Fatal().Err(err).Msg("worker: migrations failed")
	}

	runner := infra.NewSQLRunner(pool, logger)
	jobs := queue.New(runner, cfg.VisibilityTimeout)

	chain, err := providers.NewChain(logger, buildBackends(cfg, logger)...)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: no generation backends configured")
	}
	logger.Info().Str("primary", chain.Primary()).Msg("worker: provider chain ready")

	slackClient, err := slack.NewClient(slack.Options{
		Token:   cfg.SlackBotToken,
		BaseURL: cfg.SlackBaseURL,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: slack client failed")
	}
	deliverer := delivery.NewService(slackClient, logger)

	orc, err := orchestrator.New(orchestrator.Options{
		Queue:              jobs,
		Chain:              chain,
		Deliverer:          deliverer,
		Logger:             logger,
		PollInterval:       cfg.WorkerPollInterval,
		JobTimeout:         cfg.JobTimeout,
		RetrySweepInterval: cfg.RetrySweepInterval,
		MaxRetries:         cfg.MaxRetries,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: orchestrator setup failed")
	}

	if err := orc.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal().Err(err).Msg("worker: stopped with error")
	}
	logger.Info().Msg("worker: stopped")
}

// buildBackends assembles the fallback order from PROVIDER_ORDER, skipping
// backends whose credentials are missing.
func buildBackends(cfg *infra.Config, logger infra.Logger) []providers.Provider {
	var backends []providers.Provider
	for _, name := range strings.Split(cfg.ProviderOrder, ",") {
		switch strings.TrimSpace(name) {
		case "gemini":
			if cfg.GeminiAPIKey == "" {
				logger.Warn().Msg("worker: gemini api key missing, backend skipped")
				continue
			}
			client, err := gemini.NewClient(gemini.Options{
				APIKey:  cfg.GeminiAPIKey,
				BaseURL: cfg.GeminiBaseURL,
				Model:   cfg.GeminiModel,
				Logger:  &logger,
			})
			if err != nil {
				logger.Warn().Err(err).Msg("worker: gemini backend skipped")
				continue
			}
			backends = append(backends, client)
		case "openai":
			if cfg.OpenAIAPIKey == "" {
				logger.Warn().Msg("worker: openai api key missing, backend skipped")
				continue
			}
			client, err := openai.NewClient(openai.Options{
				APIKey:     cfg.OpenAIAPIKey,
				BaseURL:    cfg.OpenAIBaseURL,
				ChatModel:  cfg.OpenAIModel,
				ImageModel: cfg.OpenAIImageModel,
			})
			if err != nil {
				logger.Warn().Err(err).Msg("worker: openai backend skipped")
				continue
			}
			backends = append(backends, client)
		default:
			logger.Warn().Str("provider", name).Msg("worker: unknown provider in PROVIDER_ORDER")
		}
	}
	return backends
}
