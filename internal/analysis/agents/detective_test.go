package agents

import (
	"context"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datasleuth/server/internal/analysis/model"
	errx "github.com/datasleuth/server/internal/core/error"
)

const insightsResponse = `{
  "insights": [
    {
      "type": "trend",
      "description": "temperature rises over time",
      "confidence": 0.9,
      "supportingData": {"evidence": "monotone increase across probes"}
    },
    {
      "type": "anomaly",
      "description": "probe-3 reads high",
      "confidence": 0.6,
      "supportingData": {"evidence": "value above neighbor range"}
    }
  ]
}`

func testProfile() *model.DatasetProfile {
	return &model.DatasetProfile{
		Columns:  []model.ColumnInfo{{Name: "name", Type: model.ColumnText}, {Name: "temp", Type: model.ColumnNumeric}},
		RowCount: 5,
		Summary:  "small temperature dataset",
	}
}

func TestDetectiveRequiresProfile(t *testing.T) {
	detective := NewDetective(NewInvoker(&stubCaller{}, fastRetryConfig(1)), fastRetryConfig(1))

	_, err := detective.Analyze(context.Background(), tempRecords(3), nil, "")
	require.Error(t, err)
	assert.Equal(t, errx.CodeInput, errx.CodeOf(err))
}

func TestDetectiveReturnsValidatedInsights(t *testing.T) {
	caller := &stubCaller{generate: func(int, []*schema.Message) (*schema.Message, error) {
		return schema.AssistantMessage(insightsResponse, nil), nil
	}}
	detective := NewDetective(NewInvoker(caller, fastRetryConfig(1)), fastRetryConfig(1))

	insights, err := detective.Analyze(context.Background(), tempRecords(5), testProfile(), "")
	require.NoError(t, err)
	require.Len(t, insights, 2)
	assert.Equal(t, "temperature rises over time", insights[0].Description, "highest confidence first")
	for _, insight := range insights {
		assert.GreaterOrEqual(t, insight.Confidence, 0.0)
		assert.LessOrEqual(t, insight.Confidence, 1.0)
	}
}

func TestDetectiveFallsBackOnUnparseableWindows(t *testing.T) {
	caller := &stubCaller{generate: func(int, []*schema.Message) (*schema.Message, error) {
		return schema.AssistantMessage("the data looks fine to me", nil), nil
	}}
	detective := NewDetective(NewInvoker(caller, fastRetryConfig(1)), fastRetryConfig(1))

	insights, err := detective.Analyze(context.Background(), tempRecords(5), testProfile(), "")
	require.NoError(t, err)
	require.Len(t, insights, 1)
	assert.Equal(t, model.InsightPattern, insights[0].Type)
	assert.Equal(t, "Dataset contains 5 rows with 2 columns", insights[0].SupportingData.Evidence)
}

func TestDetectiveDropsInvalidInsights(t *testing.T) {
	caller := &stubCaller{generate: func(int, []*schema.Message) (*schema.Message, error) {
		return schema.AssistantMessage(`{
  "insights": [
    {"type": "trend", "description": "overconfident", "confidence": 1.5, "supportingData": {"evidence": "x"}},
    {"type": "guesswork", "description": "unknown kind", "confidence": 0.5, "supportingData": {"evidence": "x"}},
    {"type": "pattern", "description": "no evidence given", "confidence": 0.5, "supportingData": {}}
  ]
}`, nil), nil
	}}
	detective := NewDetective(NewInvoker(caller, fastRetryConfig(1)), fastRetryConfig(1))

	insights, err := detective.Analyze(context.Background(), tempRecords(5), testProfile(), "")
	require.NoError(t, err)
	require.Len(t, insights, 1, "all invalid insights dropped leaves only the default")
	assert.Equal(t, "Initial analysis of the dataset structure and content", insights[0].Description)
}

func TestMergeInsightsOrderIndependent(t *testing.T) {
	a := model.Insight{Type: model.InsightTrend, Description: "A", Confidence: 0.9, SupportingData: model.SupportingData{Evidence: "e"}}
	b := model.Insight{Type: model.InsightAnomaly, Description: "B", Confidence: 0.7, SupportingData: model.SupportingData{Evidence: "e"}}
	c := model.Insight{Type: model.InsightPattern, Description: "C", Confidence: 0.7, SupportingData: model.SupportingData{Evidence: "e"}}

	first := MergeInsights([]model.Insight{a, b}, []model.Insight{c})
	second := MergeInsights([]model.Insight{c, b, a}, []model.Insight{a})

	assert.Equal(t, first, second, "merge depends on the set of insights, not arrival order")
	require.Len(t, first, 3)
	assert.Equal(t, "A", first[0].Description)
	assert.Equal(t, "B", first[1].Description, "equal confidence breaks ties by description")
	assert.Equal(t, "C", first[2].Description)
}

func TestMergeInsightsLastDuplicateWins(t *testing.T) {
	stale := model.Insight{Type: model.InsightTrend, Description: "same finding", Confidence: 0.4, SupportingData: model.SupportingData{Evidence: "weak"}}
	fresh := model.Insight{Type: model.InsightTrend, Description: "same finding", Confidence: 0.8, SupportingData: model.SupportingData{Evidence: "strong"}}

	merged := MergeInsights([]model.Insight{stale}, []model.Insight{fresh})
	require.Len(t, merged, 1)
	assert.Equal(t, 0.8, merged[0].Confidence)
	assert.Equal(t, "strong", merged[0].SupportingData.Evidence)
}
