package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"

	"github.com/datasleuth/server/internal/analysis/model"
	errx "github.com/datasleuth/server/internal/core/error"
	logx "github.com/datasleuth/server/pkg/logger"
)

// Storyteller synthesizes the profile and insights into a single narrative.
type Storyteller struct {
	inv *Invoker
}

func NewStoryteller(inv *Invoker) *Storyteller {
	return &Storyteller{inv: inv}
}

// Analyze produces the narrative. Recent conversation, when present, gives
// the model context about what the user has been asking; it is optional.
func (s *Storyteller) Analyze(ctx context.Context, profile *model.DatasetProfile, insights []model.Insight, history []model.ConversationMessage, customPrompt string) (string, error) {
	if profile == nil {
		return "", errx.Input("dataset profile is required")
	}
	if len(insights) == 0 {
		return "", errx.Input("at least one insight is required")
	}

	findings, err := json.Marshal(map[string]any{
		"profile":  profile,
		"insights": insights,
	})
	if err != nil {
		return "", fmt.Errorf("marshal findings: %w", err)
	}

	var content strings.Builder
	fmt.Fprintf(&content, "Analysis findings:\n%s\n", findings)
	if len(history) > 0 {
		content.WriteString("\nRecent conversation for context:\n")
		for _, msg := range history {
			fmt.Fprintf(&content, "%s: %s\n", msg.Role, msg.Content)
		}
	}

	messages := []*schema.Message{
		schema.SystemMessage(withOverride(storytellerSystemPrompt, customPrompt)),
		schema.UserMessage(content.String()),
	}

	out, err := s.inv.Invoke(ctx, messages)
	if err != nil {
		return "", err
	}

	narrative := strings.TrimSpace(out.Content)
	logx.Debug().Int("narrative_len", len(narrative)).Msg("narrative synthesis completed")
	return narrative, nil
}
