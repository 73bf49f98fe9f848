package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/datasleuth/server/internal/analysis/model"
	errx "github.com/datasleuth/server/internal/core/error"
	logx "github.com/datasleuth/server/pkg/logger"
)

// RedisStore keeps each session as a single hash so a clear is one DEL. The
// TTL is refreshed on every write.
type RedisStore struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewRedisStore(rdb redis.Cmdable, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl}
}

func (s *RedisStore) sessionKey(sessionID string) string {
	return fmt.Sprintf("session:%s", sessionID)
}

func (s *RedisStore) getField(ctx context.Context, sessionID, field string, target any) (bool, error) {
	if err := ValidateSessionID(sessionID); err != nil {
		return false, err
	}
	key := s.sessionKey(sessionID)
	raw, err := s.rdb.HGet(ctx, key, field).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		logx.Error().Str("key", key).Str("field", field).Str("error", err.Error()).Msg("failed to read session field")
		return false, errx.WrapRedis(err)
	}
	if err := json.Unmarshal([]byte(raw), target); err != nil {
		return false, fmt.Errorf("unmarshal session field %s: %w", field, err)
	}
	return true, nil
}

func (s *RedisStore) setField(ctx context.Context, sessionID, field string, value any) error {
	if err := ValidateSessionID(sessionID); err != nil {
		return err
	}
	b, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal session field %s: %w", field, err)
	}
	key := s.sessionKey(sessionID)
	if err := s.rdb.HSet(ctx, key, field, b).Err(); err != nil {
		logx.Error().Str("key", key).Str("field", field).Str("error", err.Error()).Msg("failed to write session field")
		return errx.WrapRedis(err)
	}
	if s.ttl > 0 {
		if err := s.rdb.Expire(ctx, key, s.ttl).Err(); err != nil {
			logx.Error().Str("key", key).Str("error", err.Error()).Msg("failed to refresh session ttl")
			return errx.WrapRedis(err)
		}
	}
	return nil
}

func (s *RedisStore) GetAnalysisState(ctx context.Context, sessionID string) (*model.AnalysisState, error) {
	var state model.AnalysisState
	found, err := s.getField(ctx, sessionID, fieldAnalysis, &state)
	if err != nil || !found {
		return nil, err
	}
	return &state, nil
}

func (s *RedisStore) SaveAnalysisState(ctx context.Context, sessionID string, result model.AnalysisResult, originalData []model.Record) error {
	state := model.AnalysisState{AnalysisResult: result, OriginalData: originalData}
	return s.setField(ctx, sessionID, fieldAnalysis, state)
}

func (s *RedisStore) GetConversationHistory(ctx context.Context, sessionID string) ([]model.ConversationMessage, error) {
	var history []model.ConversationMessage
	if _, err := s.getField(ctx, sessionID, fieldHistory, &history); err != nil {
		return nil, err
	}
	return history, nil
}

func (s *RedisStore) AppendMessage(ctx context.Context, sessionID string, message model.ConversationMessage) error {
	history, err := s.GetConversationHistory(ctx, sessionID)
	if err != nil {
		return err
	}
	history = append(history, message)
	return s.setField(ctx, sessionID, fieldHistory, history)
}

func (s *RedisStore) GetAgentStatus(ctx context.Context, sessionID string) (*model.AgentStatus, error) {
	var status model.AgentStatus
	found, err := s.getField(ctx, sessionID, fieldStatus, &status)
	if err != nil || !found {
		return nil, err
	}
	return &status, nil
}

func (s *RedisStore) SetAgentStatus(ctx context.Context, sessionID string, status model.AgentStatus) error {
	return s.setField(ctx, sessionID, fieldStatus, status)
}

func (s *RedisStore) ClearAgentStatus(ctx context.Context, sessionID string) error {
	if err := ValidateSessionID(sessionID); err != nil {
		return err
	}
	if err := s.rdb.HDel(ctx, s.sessionKey(sessionID), fieldStatus).Err(); err != nil {
		return errx.WrapRedis(err)
	}
	return nil
}

func (s *RedisStore) ClearSession(ctx context.Context, sessionID string) error {
	if err := ValidateSessionID(sessionID); err != nil {
		return err
	}
	if err := s.rdb.Del(ctx, s.sessionKey(sessionID)).Err(); err != nil {
		logx.Error().Str("session_id", sessionID).Str("error", err.Error()).Msg("failed to clear session")
		return errx.WrapRedis(err)
	}
	return nil
}

var _ Store = (*RedisStore)(nil)
