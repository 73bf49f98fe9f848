package agents

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cloudwego/eino/schema"
	"golang.org/x/sync/errgroup"

	"github.com/datasleuth/server/internal/analysis/model"
	"github.com/datasleuth/server/internal/analysis/sample"
	errx "github.com/datasleuth/server/internal/core/error"
	logx "github.com/datasleuth/server/pkg/logger"
)

// Profiler derives a DatasetProfile from raw records. Datasets larger than
// the configured window are partitioned, profiled concurrently and merged.
type Profiler struct {
	inv *Invoker
	cfg model.PipelineConfig
}

func NewProfiler(inv *Invoker, cfg model.PipelineConfig) *Profiler {
	return &Profiler{inv: inv, cfg: cfg}
}

// Analyze profiles the dataset. The row ceiling is enforced before any model
// call; the returned profile always carries the true total row count.
func (p *Profiler) Analyze(ctx context.Context, records []model.Record, customPrompt string) (*model.DatasetProfile, error) {
	if len(records) == 0 {
		return nil, errx.Input("empty dataset provided")
	}
	if p.cfg.MaxRows > 0 && len(records) > p.cfg.MaxRows {
		return nil, errx.Inputf("dataset has %d rows, exceeding the limit of %d", len(records), p.cfg.MaxRows)
	}

	windows := partition(records, p.cfg.ProfilerChunkRows)
	profiles := make([]*model.DatasetProfile, len(windows))

	g, gctx := errgroup.WithContext(ctx)
	for i, window := range windows {
		g.Go(func() error {
			profile, err := p.profileWindow(gctx, window, customPrompt)
			if err != nil {
				return fmt.Errorf("profile window %d: %w", i, err)
			}
			profiles[i] = profile
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := mergeProfiles(profiles)
	// Window row counts overlap with sampling; only the true total is trusted.
	merged.RowCount = len(records)

	logx.Debug().
		Int("rows", len(records)).
		Int("windows", len(windows)).
		Int("columns", len(merged.Columns)).
		Msg("dataset profiling completed")
	return merged, nil
}

func (p *Profiler) profileWindow(ctx context.Context, window []model.Record, customPrompt string) (*model.DatasetProfile, error) {
	sampled := sample.Take(window, p.cfg.SampleRows, sample.Stratified)
	rows, err := json.Marshal(sampled)
	if err != nil {
		return nil, fmt.Errorf("marshal rows: %w", err)
	}

	messages := []*schema.Message{
		schema.SystemMessage(withOverride(profilerSystemPrompt, customPrompt)),
		schema.UserMessage(fmt.Sprintf(
			"Profile this dataset. The rows below are a sample of %d rows drawn from a window of %d:\n%s",
			len(sampled), len(window), rows,
		)),
	}

	out, err := p.inv.Invoke(ctx, messages)
	if err != nil {
		return nil, err
	}

	var profile model.DatasetProfile
	if err := DecodeJSON(out.Content, &profile); err != nil {
		return nil, err
	}
	if err := validateProfile(&profile); err != nil {
		return nil, errx.Validation(err, "profiler response failed validation")
	}
	return &profile, nil
}

func validateProfile(profile *model.DatasetProfile) error {
	if len(profile.Columns) == 0 {
		return fmt.Errorf("profile has no columns")
	}
	seen := make(map[string]bool, len(profile.Columns))
	for _, col := range profile.Columns {
		if col.Name == "" {
			return fmt.Errorf("profile column with empty name")
		}
		if seen[col.Name] {
			return fmt.Errorf("duplicate profile column %q", col.Name)
		}
		seen[col.Name] = true
		if col.MissingValues < 0 {
			return fmt.Errorf("column %q has negative missing count", col.Name)
		}
	}
	return nil
}

// mergeProfiles folds per-window profiles into one. Columns merge by name in
// first-seen order with missing counts accumulated additively; the summary is
// retained from the first window only (a documented simplification), and
// anomalies concatenate in window order.
func mergeProfiles(profiles []*model.DatasetProfile) *model.DatasetProfile {
	merged := &model.DatasetProfile{Summary: profiles[0].Summary}
	index := make(map[string]int)
	for _, profile := range profiles {
		for _, col := range profile.Columns {
			if at, ok := index[col.Name]; ok {
				merged.Columns[at].MissingValues += col.MissingValues
				continue
			}
			index[col.Name] = len(merged.Columns)
			merged.Columns = append(merged.Columns, col)
		}
		merged.Anomalies = append(merged.Anomalies, profile.Anomalies...)
	}
	return merged
}
