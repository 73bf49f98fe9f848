package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datasleuth/server/internal/analysis/model"
)

func sampleResult(narrative string) model.AnalysisResult {
	return model.AnalysisResult{
		Profile: model.DatasetProfile{
			Columns:  []model.ColumnInfo{{Name: "temp", Type: model.ColumnNumeric}},
			RowCount: 5,
			Summary:  "temperatures",
		},
		Insights: []model.Insight{{
			Type:           model.InsightTrend,
			Description:    "rising",
			Confidence:     0.9,
			SupportingData: model.SupportingData{Evidence: "monotone"},
		}},
		Narrative: narrative,
	}
}

func TestMemoryStoreAnalysisStateRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	sessionID := NewSessionID()

	state, err := store.GetAnalysisState(ctx, sessionID)
	require.NoError(t, err)
	assert.Nil(t, state, "fresh session has no analysis state")

	data := []model.Record{{"temp": "21"}, {"temp": "22"}}
	require.NoError(t, store.SaveAnalysisState(ctx, sessionID, sampleResult("first"), data))

	state, err = store.GetAnalysisState(ctx, sessionID)
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Equal(t, "first", state.Narrative)
	assert.Equal(t, data, state.OriginalData)
}

func TestMemoryStoreReplacesStateWholesale(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	sessionID := NewSessionID()

	require.NoError(t, store.SaveAnalysisState(ctx, sessionID, sampleResult("first"), []model.Record{{"temp": "21"}}))
	second := sampleResult("second")
	second.Profile.Summary = "replaced"
	require.NoError(t, store.SaveAnalysisState(ctx, sessionID, second, []model.Record{{"temp": "30"}}))

	state, err := store.GetAnalysisState(ctx, sessionID)
	require.NoError(t, err)
	assert.Equal(t, "second", state.Narrative)
	assert.Equal(t, "replaced", state.Profile.Summary)
	assert.Equal(t, []model.Record{{"temp": "30"}}, state.OriginalData, "no mixing of old and new fields")
}

func TestMemoryStoreHistoryAppendsInOrder(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	sessionID := NewSessionID()

	require.NoError(t, store.AppendMessage(ctx, sessionID, model.NewUserMessage("why is it warm?")))
	require.NoError(t, store.AppendMessage(ctx, sessionID, model.NewAssistantMessage("temperatures trend upward")))

	history, err := store.GetConversationHistory(ctx, sessionID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, model.RoleUser, history[0].Role)
	assert.Equal(t, model.RoleAssistant, history[1].Role)
	assert.NotEmpty(t, history[0].MessageID)
}

func TestMemoryStoreClearSessionResetsEverything(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	sessionID := NewSessionID()

	require.NoError(t, store.SaveAnalysisState(ctx, sessionID, sampleResult("first"), nil))
	require.NoError(t, store.AppendMessage(ctx, sessionID, model.NewUserMessage("hello")))
	require.NoError(t, store.SetAgentStatus(ctx, sessionID, model.NewAgentStatus(model.AgentProfiler, model.StatusRunning, "")))

	require.NoError(t, store.ClearSession(ctx, sessionID))

	state, err := store.GetAnalysisState(ctx, sessionID)
	require.NoError(t, err)
	assert.Nil(t, state)
	history, err := store.GetConversationHistory(ctx, sessionID)
	require.NoError(t, err)
	assert.Empty(t, history)
	status, err := store.GetAgentStatus(ctx, sessionID)
	require.NoError(t, err)
	assert.Nil(t, status)
}

func TestMemoryStoreStatusLastWriteWins(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	sessionID := NewSessionID()

	require.NoError(t, store.SetAgentStatus(ctx, sessionID, model.NewAgentStatus(model.AgentProfiler, model.StatusStarting, "")))
	require.NoError(t, store.SetAgentStatus(ctx, sessionID, model.NewAgentStatus(model.AgentProfiler, model.StatusCompleted, "done")))

	status, err := store.GetAgentStatus(ctx, sessionID)
	require.NoError(t, err)
	require.NotNil(t, status)
	assert.Equal(t, model.StatusCompleted, status.Status)

	require.NoError(t, store.ClearAgentStatus(ctx, sessionID))
	status, err = store.GetAgentStatus(ctx, sessionID)
	require.NoError(t, err)
	assert.Nil(t, status)
}

func TestMemoryStoreRejectsMalformedToken(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	_, err := store.GetAnalysisState(ctx, "not-a-uuid")
	assert.Error(t, err)
	assert.Error(t, store.SaveAnalysisState(ctx, "not-a-uuid", sampleResult("x"), nil))
	assert.Error(t, store.AppendMessage(ctx, "not-a-uuid", model.NewUserMessage("q")))
	assert.Error(t, store.ClearSession(ctx, "not-a-uuid"))
}
