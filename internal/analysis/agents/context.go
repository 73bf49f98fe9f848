package agents

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cloudwego/eino/schema"

	"github.com/datasleuth/server/internal/analysis/model"
	errx "github.com/datasleuth/server/internal/core/error"
	"github.com/datasleuth/server/internal/lookup"
	logx "github.com/datasleuth/server/pkg/logger"
)

// ContextAgent enriches an analysis with external events. The stage is
// optional end to end: a missing lookup capability, a failed lookup or an
// invalid model response all degrade to zero contexts instead of failing the
// pipeline.
type ContextAgent struct {
	inv    *Invoker
	lookup lookup.Client
	cfg    model.PipelineConfig
}

// NewContextAgent accepts a nil lookup client, in which case the stage
// always degrades to an empty context list.
func NewContextAgent(inv *Invoker, lookupClient lookup.Client, cfg model.PipelineConfig) *ContextAgent {
	return &ContextAgent{inv: inv, lookup: lookupClient, cfg: cfg}
}

type contextPayload struct {
	Contexts []model.AdditionalContext `json:"contexts"`
}

func (a *ContextAgent) Analyze(ctx context.Context, profile *model.DatasetProfile, insights []model.Insight, narrative string) ([]model.AdditionalContext, error) {
	if a.lookup == nil {
		logx.Debug().Msg("no external lookup capability wired, skipping additional context")
		return []model.AdditionalContext{}, nil
	}

	events, err := a.lookup.Search(ctx, profile.Summary)
	if err != nil {
		logx.Warn().Str("error", err.Error()).Msg("external lookup failed, continuing without additional context")
		return []model.AdditionalContext{}, nil
	}
	if len(events) == 0 {
		return []model.AdditionalContext{}, nil
	}

	contexts, err := a.selectRelevant(ctx, profile, insights, narrative, events)
	if err != nil {
		logx.Warn().Str("error", errx.MessageOf(err)).Msg("context selection failed, continuing without additional context")
		return []model.AdditionalContext{}, nil
	}
	if a.cfg.ContextMax > 0 && len(contexts) > a.cfg.ContextMax {
		contexts = contexts[:a.cfg.ContextMax]
	}
	return contexts, nil
}

func (a *ContextAgent) selectRelevant(ctx context.Context, profile *model.DatasetProfile, insights []model.Insight, narrative string, events []lookup.Event) ([]model.AdditionalContext, error) {
	input, err := json.Marshal(map[string]any{
		"profile":         profile,
		"insights":        insights,
		"narrative":       narrative,
		"candidateEvents": events,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal context input: %w", err)
	}

	messages := []*schema.Message{
		schema.SystemMessage(contextSystemPrompt),
		schema.UserMessage(fmt.Sprintf("Connect the candidate events to this analysis:\n%s", input)),
	}

	out, err := a.inv.Invoke(ctx, messages)
	if err != nil {
		return nil, err
	}

	var payload contextPayload
	if err := DecodeJSON(out.Content, &payload); err != nil {
		return nil, err
	}
	contexts := payload.Contexts[:0:0]
	for _, c := range payload.Contexts {
		if c.Event == "" || c.RelevanceToData == "" {
			continue
		}
		contexts = append(contexts, c)
	}
	return contexts, nil
}
