// Package pipeline sequences the stage agents into one analysis run:
// Profiler → Detective → Storyteller → Additional-Context, with per-stage
// status publishing and wholesale persistence of the final result.
package pipeline

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"

	"github.com/datasleuth/server/internal/analysis/agents"
	"github.com/datasleuth/server/internal/analysis/model"
	errx "github.com/datasleuth/server/internal/core/error"
	"github.com/datasleuth/server/internal/session"
	logx "github.com/datasleuth/server/pkg/logger"
)

// Node keys of the analysis graph.
const (
	NodeProfiler    = "ProfilerAgent"
	NodeDetective   = "DetectiveAgent"
	NodeStoryteller = "StorytellerAgent"
	NodeAssembler   = "ContextAssembler"
)

// Agents bundles the four stage agents the graph is built from.
type Agents struct {
	Profiler    *agents.Profiler
	Detective   *agents.Detective
	Storyteller *agents.Storyteller
	Context     *agents.ContextAgent
}

// RunInput is the public input of one pipeline invocation.
type RunInput struct {
	SessionID string
	Records   []model.Record
	Overrides model.StageOverrides
	History   []model.ConversationMessage
}

// runState is the graph-local state threading stage outputs between nodes.
// All access happens inside eino state handlers or compose.ProcessState,
// which serialize it; no extra locking is needed.
type runState struct {
	in       RunInput
	profile  *model.DatasetProfile
	insights []model.Insight
}

// Orchestrator owns the compiled analysis graph. It is built once at startup
// and invoked per run; all per-run data lives in graph-local state.
type Orchestrator struct {
	runnable  compose.Runnable[RunInput, *model.AnalysisResult]
	store     session.Store
	publisher Publisher
}

// New composes and compiles the analysis graph.
func New(ctx context.Context, stages Agents, store session.Store, publisher Publisher) (*Orchestrator, error) {
	if stages.Profiler == nil || stages.Detective == nil || stages.Storyteller == nil || stages.Context == nil {
		return nil, fmt.Errorf("stage agents are not fully initialized")
	}
	if store == nil {
		return nil, fmt.Errorf("session store is nil")
	}
	if publisher == nil {
		return nil, fmt.Errorf("status publisher is nil")
	}

	g := compose.NewGraph[RunInput, *model.AnalysisResult](
		compose.WithGenLocalState(func(ctx context.Context) *runState {
			return &runState{}
		}),
	)

	g.AddLambdaNode(NodeProfiler,
		newProfilerNode(stages.Profiler, publisher),
		compose.WithStatePreHandler(func(ctx context.Context, in RunInput, s *runState) (RunInput, error) {
			s.in = in
			return in, nil
		}),
		compose.WithStatePostHandler(func(ctx context.Context, out *model.DatasetProfile, s *runState) (*model.DatasetProfile, error) {
			s.profile = out
			return out, nil
		}),
	)
	g.AddLambdaNode(NodeDetective,
		newDetectiveNode(stages.Detective, publisher),
		compose.WithStatePostHandler(func(ctx context.Context, out []model.Insight, s *runState) ([]model.Insight, error) {
			s.insights = out
			return out, nil
		}),
	)
	g.AddLambdaNode(NodeStoryteller, newStorytellerNode(stages.Storyteller, publisher))
	g.AddLambdaNode(NodeAssembler, newAssemblerNode(stages.Context, publisher))

	edges := [][2]string{
		{compose.START, NodeProfiler},
		{NodeProfiler, NodeDetective},
		{NodeDetective, NodeStoryteller},
		{NodeStoryteller, NodeAssembler},
		{NodeAssembler, compose.END},
	}
	for _, edge := range edges {
		g.AddEdge(edge[0], edge[1])
	}

	runnable, err := g.Compile(ctx, compose.WithMaxRunSteps(16))
	if err != nil {
		logx.Error().Err(err).Msg("Error compiling analysis graph")
		return nil, fmt.Errorf("error compiling analysis graph: %w", err)
	}

	logx.Debug().Msg("analysis graph compiled")
	return &Orchestrator{runnable: runnable, store: store, publisher: publisher}, nil
}

// Run executes one full analysis over records and persists the result under
// sessionID. Overrides bias individual stages during a reanalysis; pass the
// zero value for a plain run. On stage failure the pipeline records an error
// status under its own name before propagating the stage's error.
func (o *Orchestrator) Run(ctx context.Context, records []model.Record, sessionID string, overrides model.StageOverrides) (*model.AnalysisResult, error) {
	if err := session.ValidateSessionID(sessionID); err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, errx.Input("empty dataset provided")
	}

	history, err := o.store.GetConversationHistory(ctx, sessionID)
	if err != nil {
		// Missing history never blocks an analysis run.
		logx.Warn().Err(err).Str("session_id", sessionID).Msg("Could not load conversation history for run")
		history = nil
	}

	result, err := o.runnable.Invoke(ctx, RunInput{
		SessionID: sessionID,
		Records:   records,
		Overrides: overrides,
		History:   history,
	})
	if err != nil {
		o.publisher.Publish(ctx, sessionID, model.NewAgentStatus(
			model.AgentPipeline, model.StatusError, errx.MessageOf(err)))
		return nil, err
	}

	if err := o.store.SaveAnalysisState(ctx, sessionID, *result, records); err != nil {
		o.publisher.Publish(ctx, sessionID, model.NewAgentStatus(
			model.AgentPipeline, model.StatusError, "failed to persist analysis result"))
		return nil, err
	}

	o.publisher.Publish(ctx, sessionID, model.NewAgentStatus(
		model.AgentPipeline, model.StatusCompleted, "analysis pipeline completed"))
	return result, nil
}

func newProfilerNode(profiler *agents.Profiler, publisher Publisher) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, in RunInput) (*model.DatasetProfile, error) {
		return runStage(ctx, publisher, in.SessionID, model.AgentProfiler, func() (*model.DatasetProfile, error) {
			return profiler.Analyze(ctx, in.Records, in.Overrides.Profiler)
		})
	})
}

func newDetectiveNode(detective *agents.Detective, publisher Publisher) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, profile *model.DatasetProfile) ([]model.Insight, error) {
		var in RunInput
		if err := compose.ProcessState(ctx, func(_ context.Context, s *runState) error {
			in = s.in
			return nil
		}); err != nil {
			return nil, fmt.Errorf("failed to access run state: %w", err)
		}
		return runStage(ctx, publisher, in.SessionID, model.AgentDetective, func() ([]model.Insight, error) {
			return detective.Analyze(ctx, in.Records, profile, in.Overrides.Detective)
		})
	})
}

func newStorytellerNode(storyteller *agents.Storyteller, publisher Publisher) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, insights []model.Insight) (string, error) {
		var (
			in      RunInput
			profile *model.DatasetProfile
		)
		if err := compose.ProcessState(ctx, func(_ context.Context, s *runState) error {
			in = s.in
			profile = s.profile
			return nil
		}); err != nil {
			return "", fmt.Errorf("failed to access run state: %w", err)
		}
		return runStage(ctx, publisher, in.SessionID, model.AgentStoryteller, func() (string, error) {
			return storyteller.Analyze(ctx, profile, insights, in.History, in.Overrides.Storyteller)
		})
	})
}

func newAssemblerNode(contextAgent *agents.ContextAgent, publisher Publisher) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, narrative string) (*model.AnalysisResult, error) {
		var (
			in       RunInput
			profile  *model.DatasetProfile
			insights []model.Insight
		)
		if err := compose.ProcessState(ctx, func(_ context.Context, s *runState) error {
			in = s.in
			profile = s.profile
			insights = s.insights
			return nil
		}); err != nil {
			return nil, fmt.Errorf("failed to access run state: %w", err)
		}

		contexts, err := runStage(ctx, publisher, in.SessionID, model.AgentContext, func() ([]model.AdditionalContext, error) {
			return contextAgent.Analyze(ctx, profile, insights, narrative)
		})
		if err != nil {
			return nil, err
		}

		return &model.AnalysisResult{
			Profile:            *profile,
			Insights:           insights,
			Narrative:          narrative,
			AdditionalContexts: contexts,
		}, nil
	})
}

// runStage publishes the starting → running → completed|error transitions
// around one stage execution. Error statuses carry only the safe message.
func runStage[T any](ctx context.Context, publisher Publisher, sessionID string, agent model.AgentName, fn func() (T, error)) (T, error) {
	publisher.Publish(ctx, sessionID, model.NewAgentStatus(agent, model.StatusStarting, string(agent)+" stage starting"))
	publisher.Publish(ctx, sessionID, model.NewAgentStatus(agent, model.StatusRunning, string(agent)+" stage running"))

	out, err := fn()
	if err != nil {
		publisher.Publish(ctx, sessionID, model.NewAgentStatus(agent, model.StatusError, errx.MessageOf(err)))
		return out, err
	}

	publisher.Publish(ctx, sessionID, model.NewAgentStatus(agent, model.StatusCompleted, string(agent)+" stage completed"))
	return out, nil
}
