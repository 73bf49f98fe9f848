package agents

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/gemini"
	"google.golang.org/genai"

	"github.com/datasleuth/server/internal/analysis/model"
	logx "github.com/datasleuth/server/pkg/logger"
)

// ChatModelsConfig holds what is needed to build the provider clients.
type ChatModelsConfig struct {
	APIKey  string
	BaseURL string

	Analysis model.AnalysisModelConfig
	Chat     model.ChatModelConfig
}

// ChatModels holds one model for the analysis stages and a lighter one for
// chat answering and evaluation.
type ChatModels struct {
	Analysis *gemini.ChatModel
	Chat     *gemini.ChatModel
}

// NewChatModels creates both chat models over a shared Gemini client.
func NewChatModels(ctx context.Context, config ChatModelsConfig) (*ChatModels, error) {
	clientCfg := &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if config.BaseURL != "" {
		clientCfg.HTTPOptions.BaseURL = config.BaseURL
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		logx.Error().Err(err).Msg("Error creating Gemini client")
		return nil, fmt.Errorf("error creating Gemini client: %w", err)
	}

	analysisModel, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client:      client,
		Model:       config.Analysis.Model,
		Temperature: &config.Analysis.Temperature,
		MaxTokens:   &config.Analysis.MaxTokens,
	})
	if err != nil {
		logx.Error().Err(err).Msg("Error creating analysis model")
		return nil, fmt.Errorf("error creating analysis model: %w", err)
	}

	chatModel, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client:      client,
		Model:       config.Chat.Model,
		Temperature: &config.Chat.Temperature,
		MaxTokens:   &config.Chat.MaxTokens,
	})
	if err != nil {
		logx.Error().Err(err).Msg("Error creating chat model")
		return nil, fmt.Errorf("error creating chat model: %w", err)
	}

	return &ChatModels{Analysis: analysisModel, Chat: chatModel}, nil
}
