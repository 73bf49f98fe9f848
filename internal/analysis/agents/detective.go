package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/cloudwego/eino/schema"
	"golang.org/x/sync/errgroup"

	"github.com/datasleuth/server/internal/analysis/model"
	"github.com/datasleuth/server/internal/analysis/sample"
	errx "github.com/datasleuth/server/internal/core/error"
	logx "github.com/datasleuth/server/pkg/logger"
)

// Detective mines insights from records in the light of the dataset profile.
// Large datasets fan out over non-overlapping windows sized to the model's
// practical context budget; per-window results are merged deterministically.
type Detective struct {
	inv *Invoker
	cfg model.PipelineConfig
}

func NewDetective(inv *Invoker, cfg model.PipelineConfig) *Detective {
	return &Detective{inv: inv, cfg: cfg}
}

type detectivePayload struct {
	Insights []model.Insight `json:"insights"`
}

// Analyze returns at least one insight. A window whose model output fails
// structural validation contributes nothing rather than failing the run; if
// every window comes back invalid, a single low-information default insight
// describing the dataset size is emitted instead. This trades completeness
// for pipeline resilience and is deliberate.
func (d *Detective) Analyze(ctx context.Context, records []model.Record, profile *model.DatasetProfile, customPrompt string) ([]model.Insight, error) {
	if len(records) == 0 {
		return nil, errx.Input("empty dataset provided")
	}
	if profile == nil {
		return nil, errx.Input("dataset profile is required")
	}

	windows := partition(records, d.cfg.DetectiveChunkRows)
	perWindow := make([][]model.Insight, len(windows))

	g, gctx := errgroup.WithContext(ctx)
	for i, window := range windows {
		g.Go(func() error {
			insights, err := d.investigateWindow(gctx, window, profile, customPrompt)
			if err != nil {
				return fmt.Errorf("investigate window %d: %w", i, err)
			}
			perWindow[i] = insights
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := MergeInsights(perWindow...)
	if len(merged) == 0 {
		logx.Warn().Int("windows", len(windows)).Msg("no valid insights returned, emitting default insight")
		merged = []model.Insight{defaultInsight(len(records), len(profile.Columns))}
	}

	logx.Debug().Int("insights", len(merged)).Int("windows", len(windows)).Msg("insight generation completed")
	return merged, nil
}

func (d *Detective) investigateWindow(ctx context.Context, window []model.Record, profile *model.DatasetProfile, customPrompt string) ([]model.Insight, error) {
	sampled := sample.Take(window, d.cfg.SampleRows, sample.Stratified)
	summary, err := json.Marshal(map[string]any{
		"columns":    profile.Columns,
		"summary":    profile.Summary,
		"sampleData": sampled,
		"samplingInfo": map[string]any{
			"totalRows":      profile.RowCount,
			"windowRows":     len(window),
			"sampledRows":    len(sampled),
			"samplingMethod": string(sample.Stratified),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal window summary: %w", err)
	}

	messages := []*schema.Message{
		schema.SystemMessage(withOverride(detectiveSystemPrompt, customPrompt)),
		schema.UserMessage(fmt.Sprintf("Analyze this dataset sample and report insights:\n%s", summary)),
	}

	out, err := d.inv.Invoke(ctx, messages)
	if err != nil {
		return nil, err
	}

	var payload detectivePayload
	if err := DecodeJSON(out.Content, &payload); err != nil {
		logx.Warn().Str("error", errx.MessageOf(err)).Msg("detective window response unparseable, dropping window")
		return nil, nil
	}

	valid := payload.Insights[:0]
	for _, insight := range payload.Insights {
		if err := insight.Validate(); err != nil {
			logx.Warn().Str("reason", err.Error()).Msg("dropping structurally invalid insight")
			continue
		}
		valid = append(valid, insight)
	}
	return valid, nil
}

// MergeInsights concatenates insight lists, de-duplicates by exact
// description (last occurrence wins) and sorts descending by confidence with
// the description as tiebreak. The result depends only on the set of inputs,
// not on arrival order of concurrent windows.
func MergeInsights(lists ...[]model.Insight) []model.Insight {
	index := make(map[string]int)
	var merged []model.Insight
	for _, list := range lists {
		for _, insight := range list {
			if at, ok := index[insight.Description]; ok {
				merged[at] = insight
				continue
			}
			index[insight.Description] = len(merged)
			merged = append(merged, insight)
		}
	}
	sort.SliceStable(merged, func(i, j int) bool {
		if merged[i].Confidence != merged[j].Confidence {
			return merged[i].Confidence > merged[j].Confidence
		}
		return merged[i].Description < merged[j].Description
	})
	return merged
}

func defaultInsight(rows, columns int) model.Insight {
	return model.Insight{
		Type:        model.InsightPattern,
		Description: "Initial analysis of the dataset structure and content",
		Confidence:  0.8,
		SupportingData: model.SupportingData{
			Evidence: fmt.Sprintf("Dataset contains %d rows with %d columns", rows, columns),
		},
	}
}
