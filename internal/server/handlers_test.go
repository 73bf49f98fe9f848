package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datasleuth/server/internal/analysis/model"
	"github.com/datasleuth/server/internal/core"
	"github.com/datasleuth/server/internal/session"
)

type runnerStub struct {
	lastSession string
	err         error
}

func (r *runnerStub) Run(ctx context.Context, records []model.Record, sessionID string, overrides model.StageOverrides) (*model.AnalysisResult, error) {
	r.lastSession = sessionID
	if r.err != nil {
		return nil, r.err
	}
	return &model.AnalysisResult{
		Profile:   model.DatasetProfile{Columns: []model.ColumnInfo{{Name: "temp"}}, RowCount: len(records), Summary: "ok"},
		Insights:  []model.Insight{{Type: model.InsightTrend, Description: "rising", Confidence: 0.8, SupportingData: model.SupportingData{Evidence: "e"}}},
		Narrative: "n",
	}, nil
}

type askerStub struct{ answer string }

func (a askerStub) Ask(ctx context.Context, sessionID, question string) (string, error) {
	return a.answer, nil
}

type streamerStub struct{}

func (streamerStub) Subscribe(string) (<-chan model.AgentStatus, func()) {
	ch := make(chan model.AgentStatus)
	close(ch)
	return ch, func() {}
}

func newTestEngine(t *testing.T, store session.Store, runner *runnerStub) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	return New(core.Testing, Dependencies{
		Store:    store,
		Runner:   runner,
		Asker:    askerStub{answer: "the trend is upward"},
		Streamer: streamerStub{},
	})
}

func TestAnalyzeMintsSessionWhenHeaderMissing(t *testing.T) {
	runner := &runnerStub{}
	engine := newTestEngine(t, session.NewMemoryStore(), runner)

	req := httptest.NewRequest(http.MethodPost, "/api/analyze", strings.NewReader(`{"records": [{"name": "a", "temp": "21"}]}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	minted := rec.Header().Get(HeaderSessionID)
	require.NotEmpty(t, minted)
	assert.NoError(t, session.ValidateSessionID(minted))
	assert.Equal(t, minted, runner.lastSession)

	var body struct {
		SessionID string                `json:"sessionId"`
		Result    *model.AnalysisResult `json:"result"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, minted, body.SessionID)
	assert.Equal(t, 1, body.Result.Profile.RowCount)
}

func TestAnalyzeRejectsBadBody(t *testing.T) {
	engine := newTestEngine(t, session.NewMemoryStore(), &runnerStub{})

	req := httptest.NewRequest(http.MethodPost, "/api/analyze", strings.NewReader(`{"rows": []}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "input_error")
}

func TestAskRequiresSessionHeader(t *testing.T) {
	engine := newTestEngine(t, session.NewMemoryStore(), &runnerStub{})

	req := httptest.NewRequest(http.MethodPost, "/api/ask", strings.NewReader(`{"question": "why?"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "input_error")
}

func TestAskRejectsMalformedSession(t *testing.T) {
	engine := newTestEngine(t, session.NewMemoryStore(), &runnerStub{})

	req := httptest.NewRequest(http.MethodPost, "/api/ask", strings.NewReader(`{"question": "why?"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(HeaderSessionID, "not-a-uuid")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "malformed session token")
}

func TestAskReturnsAnswer(t *testing.T) {
	engine := newTestEngine(t, session.NewMemoryStore(), &runnerStub{})

	req := httptest.NewRequest(http.MethodPost, "/api/ask", strings.NewReader(`{"question": "why?"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(HeaderSessionID, session.NewSessionID())
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "the trend is upward")
}

func TestExistingAnalysisAbsent(t *testing.T) {
	engine := newTestEngine(t, session.NewMemoryStore(), &runnerStub{})

	req := httptest.NewRequest(http.MethodGet, "/api/existing-analysis", nil)
	req.Header.Set(HeaderSessionID, session.NewSessionID())
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestExistingAnalysisRoundTrip(t *testing.T) {
	store := session.NewMemoryStore()
	engine := newTestEngine(t, store, &runnerStub{})
	sessionID := session.NewSessionID()

	result := model.AnalysisResult{
		Profile:   model.DatasetProfile{Columns: []model.ColumnInfo{{Name: "temp"}}, RowCount: 5, Summary: "temps"},
		Insights:  []model.Insight{{Type: model.InsightTrend, Description: "rising", Confidence: 0.8, SupportingData: model.SupportingData{Evidence: "e"}}},
		Narrative: "five probes trend upward",
	}
	require.NoError(t, store.SaveAnalysisState(context.Background(), sessionID, result, []model.Record{{"temp": "21"}}))

	req := httptest.NewRequest(http.MethodGet, "/api/existing-analysis", nil)
	req.Header.Set(HeaderSessionID, sessionID)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var state model.AnalysisState
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &state))
	assert.Equal(t, "five probes trend upward", state.Narrative)
	assert.Equal(t, []model.Record{{"temp": "21"}}, state.OriginalData)
}

func TestClearSession(t *testing.T) {
	store := session.NewMemoryStore()
	engine := newTestEngine(t, store, &runnerStub{})
	sessionID := session.NewSessionID()
	require.NoError(t, store.SaveAnalysisState(context.Background(), sessionID, model.AnalysisResult{}, nil))

	req := httptest.NewRequest(http.MethodDelete, "/api/session", nil)
	req.Header.Set(HeaderSessionID, sessionID)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	state, err := store.GetAnalysisState(context.Background(), sessionID)
	require.NoError(t, err)
	assert.Nil(t, state)
}

func TestStatusEndpointReportsLatest(t *testing.T) {
	store := session.NewMemoryStore()
	engine := newTestEngine(t, store, &runnerStub{})
	sessionID := session.NewSessionID()
	require.NoError(t, store.SetAgentStatus(context.Background(), sessionID, model.NewAgentStatus(model.AgentDetective, model.StatusRunning, "detective stage running")))

	req := httptest.NewRequest(http.MethodGet, "/api/analyze/status", nil)
	req.Header.Set(HeaderSessionID, sessionID)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var status model.AgentStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, model.AgentDetective, status.Agent)
	assert.Equal(t, model.StatusRunning, status.Status)
}
