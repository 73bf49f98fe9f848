package agents

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/datasleuth/server/internal/analysis/model"
	errx "github.com/datasleuth/server/internal/core/error"
	logx "github.com/datasleuth/server/pkg/logger"
)

// ModelCaller is the slice of the eino chat model surface the stage agents
// consume. *gemini.ChatModel satisfies it; tests substitute stubs.
type ModelCaller interface {
	Generate(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.Message, error)
}

// Invoker wraps a chat model with bounded exponential-backoff retry. Only
// transient upstream failures are retried; quota, auth and validation
// failures surface immediately.
type Invoker struct {
	caller          ModelCaller
	maxAttempts     uint
	initialInterval time.Duration
	maxInterval     time.Duration
}

// NewInvoker builds an Invoker from the pipeline retry configuration.
// Unparseable intervals fall back to defaults rather than failing startup.
func NewInvoker(caller ModelCaller, cfg model.PipelineConfig) *Invoker {
	attempts := cfg.Retry.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	return &Invoker{
		caller:          caller,
		maxAttempts:     uint(attempts),
		initialInterval: parseDuration(cfg.Retry.InitialInterval, 500*time.Millisecond),
		maxInterval:     parseDuration(cfg.Retry.MaxInterval, 5*time.Second),
	}
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// Invoke runs one model call, retrying transient failures and empty
// responses. The returned message always has non-empty content.
func (v *Invoker) Invoke(ctx context.Context, messages []*schema.Message) (*schema.Message, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = v.initialInterval
	bo.MaxInterval = v.maxInterval

	out, err := backoff.Retry(ctx, func() (*schema.Message, error) {
		msg, err := v.caller.Generate(ctx, messages)
		if err != nil {
			return nil, classifyProviderError(err)
		}
		if msg == nil || strings.TrimSpace(msg.Content) == "" {
			return nil, errx.UpstreamEmpty(errors.New("no content in model response"))
		}
		return msg, nil
	}, backoff.WithBackOff(bo), backoff.WithMaxTries(v.maxAttempts))
	if err != nil {
		logx.Error().Str("error", errx.MessageOf(err)).Msg("model invocation failed")
		var app *errx.AppError
		if errors.As(err, &app) {
			return nil, app
		}
		return nil, errx.UpstreamEmpty(err)
	}
	return out, nil
}

// classifyProviderError maps raw provider failures onto the upstream error
// taxonomy. Quota and auth failures are permanent; anything else is treated
// as transient and retried.
func classifyProviderError(err error) error {
	text := strings.ToLower(err.Error())
	switch {
	case strings.Contains(text, "quota"),
		strings.Contains(text, "resource_exhausted"),
		strings.Contains(text, "rate limit"),
		strings.Contains(text, "429"):
		return backoff.Permanent(errx.UpstreamQuota(err))
	case strings.Contains(text, "api key"),
		strings.Contains(text, "unauthenticated"),
		strings.Contains(text, "permission_denied"),
		strings.Contains(text, "401"),
		strings.Contains(text, "403"):
		return backoff.Permanent(errx.UpstreamAuth(err))
	default:
		return err
	}
}
