// Package chat answers follow-up questions against a session's analysis
// state and triggers a bounded refinement pass when an answer is judged
// inadequate.
package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"

	"github.com/datasleuth/server/internal/analysis/agents"
	"github.com/datasleuth/server/internal/analysis/model"
	errx "github.com/datasleuth/server/internal/core/error"
	"github.com/datasleuth/server/internal/session"
	logx "github.com/datasleuth/server/pkg/logger"
)

// Reanalyzer re-runs the analysis pipeline over a session's original data
// with per-stage instruction overrides. Satisfied by pipeline.Orchestrator.
type Reanalyzer interface {
	Run(ctx context.Context, records []model.Record, sessionID string, overrides model.StageOverrides) (*model.AnalysisResult, error)
}

// Service answers questions about a completed analysis. Every question is
// answered exactly once or refined exactly once; the refinement loop never
// recurses on the second answer.
type Service struct {
	store    session.Store
	inv      *agents.Invoker
	pipeline Reanalyzer
	cfg      model.ChatConfig
}

func NewService(store session.Store, inv *agents.Invoker, pipeline Reanalyzer, cfg model.ChatConfig) *Service {
	return &Service{store: store, inv: inv, pipeline: pipeline, cfg: cfg}
}

// evaluation is the quality judgement over an initial answer.
type evaluation struct {
	NeedsReanalysis bool     `json:"needsReanalysis"`
	Reason          string   `json:"reason"`
	FocusAreas      []string `json:"focusAreas"`
}

// Ask runs the full question flow: append the question, answer it from the
// current analysis state, evaluate the answer, optionally refine through one
// pipeline re-run, and append the final answer to history.
func (s *Service) Ask(ctx context.Context, sessionID, question string) (string, error) {
	if err := session.ValidateSessionID(sessionID); err != nil {
		return "", err
	}
	if strings.TrimSpace(question) == "" {
		return "", errx.Input("question must not be empty")
	}

	state, err := s.store.GetAnalysisState(ctx, sessionID)
	if err != nil {
		return "", err
	}
	if state == nil {
		return "", errx.State("no analysis exists for this session; run an analysis first")
	}

	if err := s.store.AppendMessage(ctx, sessionID, model.NewUserMessage(question)); err != nil {
		return "", err
	}

	history, err := s.store.GetConversationHistory(ctx, sessionID)
	if err != nil {
		logx.Warn().Err(err).Str("session_id", sessionID).Msg("Could not load conversation history for answer")
		history = nil
	}

	answer, err := s.answer(ctx, &state.AnalysisResult, history, question)
	if err != nil {
		return "", err
	}

	eval := s.evaluate(ctx, question, answer, &state.AnalysisResult)
	if eval.NeedsReanalysis {
		if refined, ok := s.refine(ctx, sessionID, question, state, history, eval); ok {
			answer = refined
		}
	}

	if err := s.store.AppendMessage(ctx, sessionID, model.NewAssistantMessage(answer)); err != nil {
		logx.Warn().Err(err).Str("session_id", sessionID).Msg("Could not persist assistant answer")
	}
	return answer, nil
}

// answer generates one answer from the analysis result and the bounded
// recent conversation history.
func (s *Service) answer(ctx context.Context, result *model.AnalysisResult, history []model.ConversationMessage, question string) (string, error) {
	analysisJSON, err := json.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("error encoding analysis for answer: %w", err)
	}

	var b strings.Builder
	b.WriteString("Analysis report:\n")
	b.Write(analysisJSON)
	recent := trimTail(history, s.cfg.HistoryMaxTurns*2)
	if len(recent) > 0 {
		b.WriteString("\n\nRecent conversation:\n")
		for _, msg := range recent {
			b.WriteString(string(msg.Role) + ": " + msg.Content + "\n")
		}
	}
	b.WriteString("\nQuestion: " + question)

	out, err := s.inv.Invoke(ctx, []*schema.Message{
		schema.SystemMessage(answerSystemPrompt),
		schema.UserMessage(b.String()),
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out.Content), nil
}

// evaluate judges the answer's adequacy. Any evaluator failure degrades to
// "no reanalysis needed"; it never aborts the question.
func (s *Service) evaluate(ctx context.Context, question, answer string, result *model.AnalysisResult) evaluation {
	profileJSON, err := json.Marshal(result.Profile)
	if err != nil {
		logx.Warn().Err(err).Msg("Could not encode profile for answer evaluation")
		return evaluation{}
	}

	payload := fmt.Sprintf("Question: %s\n\nAnswer: %s\n\nDataset profile:\n%s", question, answer, profileJSON)
	out, err := s.inv.Invoke(ctx, []*schema.Message{
		schema.SystemMessage(evaluatorSystemPrompt),
		schema.UserMessage(payload),
	})
	if err != nil {
		logx.Warn().Err(err).Msg("Answer evaluation failed, keeping initial answer")
		return evaluation{}
	}

	var eval evaluation
	if err := agents.DecodeJSON(out.Content, &eval); err != nil {
		logx.Warn().Err(err).Msg("Answer evaluation unparseable, keeping initial answer")
		return evaluation{}
	}
	return eval
}

// refine runs the single reanalysis pass: synthesize per-stage instructions,
// re-run the pipeline over the session's original data, and re-answer.
// Returns ok=false when any step fails; the caller keeps the initial answer.
func (s *Service) refine(ctx context.Context, sessionID, question string, state *model.AnalysisState, history []model.ConversationMessage, eval evaluation) (string, bool) {
	overrides := s.synthesizeOverrides(ctx, question, eval)

	logx.Info().
		Str("session_id", sessionID).
		Str("reason", eval.Reason).
		Msg("Reanalyzing to improve answer")

	result, err := s.pipeline.Run(ctx, state.OriginalData, sessionID, overrides)
	if err != nil {
		logx.Warn().Err(err).Str("session_id", sessionID).Msg("Reanalysis failed, keeping initial answer")
		return "", false
	}

	refined, err := s.answer(ctx, result, history, question)
	if err != nil {
		logx.Warn().Err(err).Str("session_id", sessionID).Msg("Answer regeneration failed, keeping initial answer")
		return "", false
	}
	return refined, true
}

// synthesizeOverrides asks the model for question-specific stage
// instructions, falling back to templates built from the question text.
// Refinement never fails solely because synthesis did.
func (s *Service) synthesizeOverrides(ctx context.Context, question string, eval evaluation) model.StageOverrides {
	payload := fmt.Sprintf("Question: %s\n\nFocus areas: %s", question, strings.Join(eval.FocusAreas, "; "))
	out, err := s.inv.Invoke(ctx, []*schema.Message{
		schema.SystemMessage(synthesisSystemPrompt),
		schema.UserMessage(payload),
	})
	if err != nil {
		logx.Warn().Err(err).Msg("Prompt synthesis failed, using template instructions")
		return fallbackOverrides(question)
	}

	var overrides model.StageOverrides
	if err := agents.DecodeJSON(out.Content, &overrides); err != nil {
		logx.Warn().Err(err).Msg("Prompt synthesis unparseable, using template instructions")
		return fallbackOverrides(question)
	}
	if overrides.Empty() {
		return fallbackOverrides(question)
	}
	return overrides
}

func trimTail(messages []model.ConversationMessage, max int) []model.ConversationMessage {
	if max <= 0 || len(messages) <= max {
		return messages
	}
	return messages[len(messages)-max:]
}
