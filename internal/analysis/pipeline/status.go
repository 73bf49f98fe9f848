package pipeline

import (
	"context"
	"sync"

	"github.com/datasleuth/server/internal/analysis/model"
	"github.com/datasleuth/server/internal/session"
	logx "github.com/datasleuth/server/pkg/logger"
)

// Publisher reports stage-by-stage progress of a running pipeline. Publishing
// is best-effort: a failed status write never aborts the run it describes.
type Publisher interface {
	Publish(ctx context.Context, sessionID string, status model.AgentStatus)
}

// StatusPublisher persists the latest status to the session store (the poll
// path) and fans it out to in-process subscribers (the stream path). A
// subscriber that stops draining loses messages; it never blocks the run.
type StatusPublisher struct {
	store session.Store

	mu   sync.Mutex
	subs map[string]map[chan model.AgentStatus]struct{}
}

func NewStatusPublisher(store session.Store) *StatusPublisher {
	return &StatusPublisher{
		store: store,
		subs:  make(map[string]map[chan model.AgentStatus]struct{}),
	}
}

func (p *StatusPublisher) Publish(ctx context.Context, sessionID string, status model.AgentStatus) {
	if err := p.store.SetAgentStatus(ctx, sessionID, status); err != nil {
		logx.Warn().
			Err(err).
			Str("session_id", sessionID).
			Str("agent", string(status.Agent)).
			Msg("Failed to persist agent status")
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	for ch := range p.subs[sessionID] {
		select {
		case ch <- status:
		default:
		}
	}
}

// Subscribe registers a live status feed for one session. The returned cancel
// function must be called when the consumer goes away.
func (p *StatusPublisher) Subscribe(sessionID string) (<-chan model.AgentStatus, func()) {
	ch := make(chan model.AgentStatus, 16)

	p.mu.Lock()
	if p.subs[sessionID] == nil {
		p.subs[sessionID] = make(map[chan model.AgentStatus]struct{})
	}
	p.subs[sessionID][ch] = struct{}{}
	p.mu.Unlock()

	cancel := func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		if set, ok := p.subs[sessionID]; ok {
			delete(set, ch)
			if len(set) == 0 {
				delete(p.subs, sessionID)
			}
		}
	}
	return ch, cancel
}

var _ Publisher = (*StatusPublisher)(nil)
