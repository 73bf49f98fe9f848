// Package session owns the durable per-session state: one analysis state,
// one conversation history and one transient agent status per opaque session
// token. The store is the only shared mutable resource across requests;
// access is last-write-wins by design, with no cross-request locking.
package session

import (
	"context"

	"github.com/google/uuid"

	"github.com/datasleuth/server/internal/analysis/model"
	errx "github.com/datasleuth/server/internal/core/error"
)

// Store is the keyed persistence surface consumed by the pipeline and the
// chat service. Absence of a record is an empty, fresh session, not an error.
type Store interface {
	// GetAnalysisState returns the stored state or (nil, nil) when absent.
	GetAnalysisState(ctx context.Context, sessionID string) (*model.AnalysisState, error)
	// SaveAnalysisState replaces the stored state wholesale.
	SaveAnalysisState(ctx context.Context, sessionID string, result model.AnalysisResult, originalData []model.Record) error

	GetConversationHistory(ctx context.Context, sessionID string) ([]model.ConversationMessage, error)
	// AppendMessage is a read-modify-write, not an atomic append. Concurrent
	// appends to the same session may lose updates; callers tolerate this
	// documented limitation.
	AppendMessage(ctx context.Context, sessionID string, message model.ConversationMessage) error

	// GetAgentStatus returns the latest status or (nil, nil) when absent.
	GetAgentStatus(ctx context.Context, sessionID string) (*model.AgentStatus, error)
	SetAgentStatus(ctx context.Context, sessionID string, status model.AgentStatus) error
	ClearAgentStatus(ctx context.Context, sessionID string) error

	// ClearSession resets analysis state, history and status in one store write.
	ClearSession(ctx context.Context, sessionID string) error
}

// Field names of the single record each session owns.
const (
	fieldAnalysis = "analysis"
	fieldHistory  = "history"
	fieldStatus   = "status"
)

// ValidateSessionID rejects anything that is not a canonical UUID before it
// can ever be used as a storage key.
func ValidateSessionID(sessionID string) error {
	if len(sessionID) != 36 {
		return errx.Input("malformed session token")
	}
	if _, err := uuid.Parse(sessionID); err != nil {
		return errx.Input("malformed session token")
	}
	return nil
}

// NewSessionID mints a fresh session token.
func NewSessionID() string {
	return uuid.NewString()
}
