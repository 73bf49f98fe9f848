package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/datasleuth/server/internal/analysis/model"
)

// MemoryStore keeps sessions in process memory. It backs tests and
// single-instance development runs; production wiring uses RedisStore.
// Values are stored marshaled so readers always observe a complete snapshot,
// never a half-replaced struct.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]map[string][]byte)}
}

func (s *MemoryStore) getField(sessionID, field string, target any) (bool, error) {
	if err := ValidateSessionID(sessionID); err != nil {
		return false, err
	}
	s.mu.Lock()
	raw, ok := s.sessions[sessionID][field]
	s.mu.Unlock()
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return false, fmt.Errorf("unmarshal session field %s: %w", field, err)
	}
	return true, nil
}

func (s *MemoryStore) setField(sessionID, field string, value any) error {
	if err := ValidateSessionID(sessionID); err != nil {
		return err
	}
	b, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal session field %s: %w", field, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.sessions[sessionID]
	if !ok {
		record = make(map[string][]byte)
		s.sessions[sessionID] = record
	}
	record[field] = b
	return nil
}

func (s *MemoryStore) GetAnalysisState(ctx context.Context, sessionID string) (*model.AnalysisState, error) {
	var state model.AnalysisState
	found, err := s.getField(sessionID, fieldAnalysis, &state)
	if err != nil || !found {
		return nil, err
	}
	return &state, nil
}

func (s *MemoryStore) SaveAnalysisState(ctx context.Context, sessionID string, result model.AnalysisResult, originalData []model.Record) error {
	state := model.AnalysisState{AnalysisResult: result, OriginalData: originalData}
	return s.setField(sessionID, fieldAnalysis, state)
}

func (s *MemoryStore) GetConversationHistory(ctx context.Context, sessionID string) ([]model.ConversationMessage, error) {
	var history []model.ConversationMessage
	if _, err := s.getField(sessionID, fieldHistory, &history); err != nil {
		return nil, err
	}
	return history, nil
}

func (s *MemoryStore) AppendMessage(ctx context.Context, sessionID string, message model.ConversationMessage) error {
	history, err := s.GetConversationHistory(ctx, sessionID)
	if err != nil {
		return err
	}
	history = append(history, message)
	return s.setField(sessionID, fieldHistory, history)
}

func (s *MemoryStore) GetAgentStatus(ctx context.Context, sessionID string) (*model.AgentStatus, error) {
	var status model.AgentStatus
	found, err := s.getField(sessionID, fieldStatus, &status)
	if err != nil || !found {
		return nil, err
	}
	return &status, nil
}

func (s *MemoryStore) SetAgentStatus(ctx context.Context, sessionID string, status model.AgentStatus) error {
	return s.setField(sessionID, fieldStatus, status)
}

func (s *MemoryStore) ClearAgentStatus(ctx context.Context, sessionID string) error {
	if err := ValidateSessionID(sessionID); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if record, ok := s.sessions[sessionID]; ok {
		delete(record, fieldStatus)
	}
	return nil
}

func (s *MemoryStore) ClearSession(ctx context.Context, sessionID string) error {
	if err := ValidateSessionID(sessionID); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}

var _ Store = (*MemoryStore)(nil)
