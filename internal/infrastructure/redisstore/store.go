package redisstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/thaiduongngo/cool-asa/internal/domain/chat"
	"github.com/thaiduongngo/cool-asa/internal/infrastructure/metrics"
	"github.com/thaiduongngo/cool-asa/internal/utils/platformerrors"
)

// Key layout shared with the original deployment; changing it would orphan
// existing records.
const (
	sessionKeyPrefix = "chat_history:"
	sessionIndexKey  = "chat_history:index"
	promptsKey       = "recent_prompts"
)

// Store implements chat.Store on Redis. Session records are JSON values
// keyed by id; recency lives in sorted sets scored by the update timestamp
// so retention trims by rank. The upsert and the trim are separate round
// trips, not one transaction: a crash in between leaves the bound exceeded
// until the next write (or the janitor) restores it.
type Store struct {
	client      redis.UniversalClient
	maxSessions int64
	maxPrompts  int64
	opTimeout   time.Duration
	logger      zerolog.Logger
	now         func() time.Time
}

// New connects to Redis and returns a Store.
func New(redisURL string, maxSessions, maxPrompts int, opTimeout time.Duration, logger zerolog.Logger) (*Store, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	logger.Info().Msg("Connected to Redis")

	return NewWithClient(client, maxSessions, maxPrompts, opTimeout, logger), nil
}

// NewWithClient wraps an existing client, used by tests.
func NewWithClient(client redis.UniversalClient, maxSessions, maxPrompts int, opTimeout time.Duration, logger zerolog.Logger) *Store {
	if maxSessions <= 0 {
		maxSessions = 5
	}
	if maxPrompts <= 0 {
		maxPrompts = 5
	}
	return &Store{
		client:      client,
		maxSessions: int64(maxSessions),
		maxPrompts:  int64(maxPrompts),
		opTimeout:   opTimeout,
		logger:      logger,
		now:         time.Now,
	}
}

// Close releases the Redis connection.
func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) opCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.opTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.opTimeout)
}

func storeErr(message string, err error) error {
	return platformerrors.NewError(platformerrors.LayerInfrastructure, platformerrors.ErrorTypeStore, message, err)
}

// SaveSession upserts the session and refreshes its recency, then trims the
// oldest sessions past the bound.
func (s *Store) SaveSession(ctx context.Context, session *chat.ChatSession) (*chat.ChatSession, error) {
	if session == nil || len(session.Messages) == 0 {
		return nil, platformerrors.NewError(
			platformerrors.LayerInfrastructure, platformerrors.ErrorTypeValidation,
			"session must contain at least one message", nil)
	}
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	if session.Title == "" {
		session.Title = chat.DeriveTitle(session.FirstUserText())
	}
	session.Title = chat.TruncateTitle(session.Title, chat.MaxTitleLength)
	session.LastUpdated = s.now().UnixMilli()

	payload, err := json.Marshal(session)
	if err != nil {
		return nil, storeErr("encode session", err)
	}

	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	pipe := s.client.Pipeline()
	pipe.Set(ctx, sessionKeyPrefix+session.ID, payload, 0)
	pipe.ZAdd(ctx, sessionIndexKey, redis.Z{Score: float64(session.LastUpdated), Member: session.ID})
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, storeErr("save session", err)
	}

	if err := s.TrimSessions(ctx); err != nil {
		// The record is saved; the bound is restored on the next write.
		s.logger.Warn().Err(err).Str("session_id", session.ID).Msg("session trim failed")
	}

	return session, nil
}

// TrimSessions evicts the oldest sessions past the retention bound, removing
// both the record and the index entry.
func (s *Store) TrimSessions(ctx context.Context) error {
	count, err := s.client.ZCard(ctx, sessionIndexKey).Result()
	if err != nil {
		return storeErr("count session index", err)
	}
	if count <= s.maxSessions {
		return nil
	}

	idsToRemove, err := s.client.ZRange(ctx, sessionIndexKey, 0, count-s.maxSessions-1).Result()
	if err != nil {
		return storeErr("list oldest sessions", err)
	}
	if len(idsToRemove) == 0 {
		return nil
	}

	pipe := s.client.Pipeline()
	for _, id := range idsToRemove {
		pipe.Del(ctx, sessionKeyPrefix+id)
		pipe.ZRem(ctx, sessionIndexKey, id)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return storeErr("trim sessions", err)
	}

	metrics.RecordSessionsTrimmed(len(idsToRemove))
	s.logger.Debug().Int("evicted", len(idsToRemove)).Msg("trimmed old chat sessions")
	return nil
}

// ListSessions returns the most recently updated sessions, newest first.
func (s *Store) ListSessions(ctx context.Context) ([]*chat.ChatSession, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	ids, err := s.client.ZRevRange(ctx, sessionIndexKey, 0, s.maxSessions-1).Result()
	if err != nil {
		return nil, storeErr("list session index", err)
	}
	if len(ids) == 0 {
		return []*chat.ChatSession{}, nil
	}

	pipe := s.client.Pipeline()
	cmds := make([]*redis.StringCmd, 0, len(ids))
	for _, id := range ids {
		cmds = append(cmds, pipe.Get(ctx, sessionKeyPrefix+id))
	}
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, storeErr("fetch sessions", err)
	}

	sessions := make([]*chat.ChatSession, 0, len(ids))
	for i, cmd := range cmds {
		data, err := cmd.Bytes()
		if err == redis.Nil {
			// Index entry without a record: concurrently deleted, skip it.
			continue
		}
		if err != nil {
			return nil, storeErr("fetch session "+ids[i], err)
		}
		var session chat.ChatSession
		if err := json.Unmarshal(data, &session); err != nil {
			s.logger.Warn().Err(err).Str("session_id", ids[i]).Msg("skipping undecodable session record")
			continue
		}
		sessions = append(sessions, &session)
	}

	// ZREVRANGE already yields newest first; keep the order explicit anyway.
	sort.SliceStable(sessions, func(i, j int) bool {
		return sessions[i].LastUpdated > sessions[j].LastUpdated
	})
	return sessions, nil
}

// GetSession fetches one session by id.
func (s *Store) GetSession(ctx context.Context, id string) (*chat.ChatSession, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	data, err := s.client.Get(ctx, sessionKeyPrefix+id).Bytes()
	if err == redis.Nil {
		return nil, chat.ErrSessionNotFound
	}
	if err != nil {
		return nil, storeErr("fetch session", err)
	}

	var session chat.ChatSession
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, storeErr("decode session", err)
	}
	return &session, nil
}

// DeleteSession removes the record and its index entry.
func (s *Store) DeleteSession(ctx context.Context, id string) (bool, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	pipe := s.client.Pipeline()
	delCmd := pipe.Del(ctx, sessionKeyPrefix+id)
	pipe.ZRem(ctx, sessionIndexKey, id)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, storeErr("delete session", err)
	}

	return delCmd.Val() > 0, nil
}

// AddPrompt upserts the prompt text with the current time as its score and
// trims the set to the bound. The text itself is the member, so re-adding
// refreshes recency without duplicating.
func (s *Store) AddPrompt(ctx context.Context, text string) (*chat.RecentPrompt, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, platformerrors.NewError(
			platformerrors.LayerInfrastructure, platformerrors.ErrorTypeValidation,
			"prompt text is required and cannot be empty", nil)
	}

	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	score := float64(s.now().UnixMilli())
	pipe := s.client.Pipeline()
	pipe.ZAdd(ctx, promptsKey, redis.Z{Score: score, Member: trimmed})
	remCmd := pipe.ZRemRangeByRank(ctx, promptsKey, 0, -(s.maxPrompts + 1))
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, storeErr("add recent prompt", err)
	}
	if evicted := remCmd.Val(); evicted > 0 {
		metrics.RecordPromptsTrimmed(int(evicted))
	}

	return &chat.RecentPrompt{ID: trimmed, Text: trimmed}, nil
}

// TrimPrompts re-enforces the prompt retention bound.
func (s *Store) TrimPrompts(ctx context.Context) error {
	evicted, err := s.client.ZRemRangeByRank(ctx, promptsKey, 0, -(s.maxPrompts + 1)).Result()
	if err != nil {
		return storeErr("trim prompts", err)
	}
	if evicted > 0 {
		metrics.RecordPromptsTrimmed(int(evicted))
		s.logger.Debug().Int64("evicted", evicted).Msg("trimmed old recent prompts")
	}
	return nil
}

// ListPrompts returns the most recently used prompts, newest first.
func (s *Store) ListPrompts(ctx context.Context) ([]chat.RecentPrompt, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	texts, err := s.client.ZRevRange(ctx, promptsKey, 0, s.maxPrompts-1).Result()
	if err != nil {
		return nil, storeErr("list recent prompts", err)
	}

	prompts := make([]chat.RecentPrompt, 0, len(texts))
	for _, text := range texts {
		prompts = append(prompts, chat.RecentPrompt{ID: text, Text: text})
	}
	return prompts, nil
}

// DeletePrompt removes the exact prompt text.
func (s *Store) DeletePrompt(ctx context.Context, text string) (bool, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	removed, err := s.client.ZRem(ctx, promptsKey, text).Result()
	if err != nil {
		return false, storeErr("delete recent prompt", err)
	}
	return removed > 0, nil
}
