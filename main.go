package main

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/datasleuth/server/internal/analysis/agents"
	"github.com/datasleuth/server/internal/analysis/model"
	"github.com/datasleuth/server/internal/analysis/pipeline"
	"github.com/datasleuth/server/internal/chat"
	"github.com/datasleuth/server/internal/core"
	"github.com/datasleuth/server/internal/lookup"
	"github.com/datasleuth/server/internal/server"
	"github.com/datasleuth/server/internal/session"
	logx "github.com/datasleuth/server/pkg/logger"
	pkgredis "github.com/datasleuth/server/pkg/redis"
)

// AppConfig defines all configurable parameters of the service, sourced from
// environment variables (loaded from .env for local runs).
type AppConfig struct {
	Environment string `envconfig:"APP_ENV" default:"development"`
	ListenAddr  string `envconfig:"LISTEN_ADDR" default:":8080"`
	LogLevel    string `envconfig:"LOG_LEVEL"`

	// Infrastructure
	Redis pkgredis.Config

	// LLM provider
	APIKey  string `envconfig:"GEMINI_API_KEY" required:"true"`
	BaseURL string `envconfig:"GEMINI_BASE_URL"`

	// Domain configs
	AnalysisModel model.AnalysisModelConfig
	ChatModel     model.ChatModelConfig
	Pipeline      model.PipelineConfig
	Chat          model.ChatConfig
	Session       model.SessionConfig
	Lookup        lookup.Config
}

func main() {
	ctx := context.Background()

	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatalf("Failed to process environment config: %v", err)
	}

	env := core.ParseEnvironment(cfg.Environment)
	logx.Init(logx.LoggerOpts{Environment: env, Level: cfg.LogLevel})

	rdb, err := cfg.Redis.New()
	if err != nil {
		logx.Fatal().Err(err).Msg("Failed to initialise Redis client")
	}
	defer rdb.Close()
	logx.Info().Msg("Connected to Redis")

	ttl, err := time.ParseDuration(cfg.Session.TTL)
	if err != nil {
		logx.Fatal().Err(err).Str("ttl", cfg.Session.TTL).Msg("Invalid SESSION_TTL")
	}
	store := session.NewRedisStore(rdb, ttl)
	publisher := pipeline.NewStatusPublisher(store)

	models, err := agents.NewChatModels(ctx, agents.ChatModelsConfig{
		APIKey:   cfg.APIKey,
		BaseURL:  cfg.BaseURL,
		Analysis: cfg.AnalysisModel,
		Chat:     cfg.ChatModel,
	})
	if err != nil {
		logx.Fatal().Err(err).Msg("Failed to create chat models")
	}

	var lookupClient lookup.Client
	if cfg.Lookup.Enabled {
		lookupClient = lookup.NewOpenFDA(cfg.Lookup)
	}

	analysisInv := agents.NewInvoker(models.Analysis, cfg.Pipeline)
	stages := pipeline.Agents{
		Profiler:    agents.NewProfiler(analysisInv, cfg.Pipeline),
		Detective:   agents.NewDetective(analysisInv, cfg.Pipeline),
		Storyteller: agents.NewStoryteller(analysisInv),
		Context:     agents.NewContextAgent(analysisInv, lookupClient, cfg.Pipeline),
	}

	orchestrator, err := pipeline.New(ctx, stages, store, publisher)
	if err != nil {
		logx.Fatal().Err(err).Msg("Failed to build analysis pipeline")
	}

	chatInv := agents.NewInvoker(models.Chat, cfg.Pipeline)
	chatSvc := chat.NewService(store, chatInv, orchestrator, cfg.Chat)

	engine := server.New(env, server.Dependencies{
		Store:    store,
		Runner:   orchestrator,
		Asker:    chatSvc,
		Streamer: publisher,
	})

	logx.Info().Str("addr", cfg.ListenAddr).Msg("Starting HTTP server")
	if err := engine.Run(cfg.ListenAddr); err != nil {
		logx.Fatal().Err(err).Msg("HTTP server exited")
	}
}
