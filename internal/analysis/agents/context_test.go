package agents

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datasleuth/server/internal/lookup"
)

type stubLookup struct {
	events []lookup.Event
	err    error
}

func (s stubLookup) Search(context.Context, string) ([]lookup.Event, error) {
	return s.events, s.err
}

func TestContextAgentSkipsWithoutLookup(t *testing.T) {
	agent := NewContextAgent(NewInvoker(&stubCaller{}, fastRetryConfig(1)), nil, fastRetryConfig(1))

	contexts, err := agent.Analyze(context.Background(), testProfile(), nil, "narrative")
	require.NoError(t, err)
	assert.Empty(t, contexts)
}

func TestContextAgentToleratesLookupFailure(t *testing.T) {
	agent := NewContextAgent(
		NewInvoker(&stubCaller{}, fastRetryConfig(1)),
		stubLookup{err: errors.New("upstream down")},
		fastRetryConfig(1),
	)

	contexts, err := agent.Analyze(context.Background(), testProfile(), nil, "narrative")
	require.NoError(t, err, "lookup failure degrades, it never fails the stage")
	assert.Empty(t, contexts)
}

func TestContextAgentFiltersAndCaps(t *testing.T) {
	var response string
	{
		response = `{"contexts": [`
		for i := 0; i < 9; i++ {
			if i > 0 {
				response += ","
			}
			response += fmt.Sprintf(`{"type": "fda-enforcement", "date": "2026-01-0%d", "event": "recall %d", "relevanceToData": "matches anomaly"}`, i%9+1, i)
		}
		response += `,{"type": "fda-enforcement", "date": "2026-02-01", "event": "", "relevanceToData": "dropped"}]}`
	}
	caller := &stubCaller{generate: func(int, []*schema.Message) (*schema.Message, error) {
		return schema.AssistantMessage(response, nil), nil
	}}
	cfg := fastRetryConfig(1)
	cfg.ContextMax = 7
	agent := NewContextAgent(
		NewInvoker(caller, cfg),
		stubLookup{events: []lookup.Event{{Source: "fda-enforcement", Date: "2026-01-01", Description: "recall"}}},
		cfg,
	)

	contexts, err := agent.Analyze(context.Background(), testProfile(), nil, "narrative")
	require.NoError(t, err)
	assert.Len(t, contexts, 7, "empty events are filtered and the list is capped")
}
