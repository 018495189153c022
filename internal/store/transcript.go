package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// TranscriptTTL is how long an inactive conversation is retained. Every save
// resets the clock; expiry itself is the cache's job.
const TranscriptTTL = 30 * 24 * time.Hour

// TranscriptStore keeps one ordered conversation log per user in Redis,
// serialized as JSON under chat:<userID>. Saves are whole-value overwrites;
// callers load, modify and save.
type TranscriptStore struct {
	rdb *redis.Client
}

func NewTranscriptStore(rdb *redis.Client) *TranscriptStore {
	return &TranscriptStore{rdb: rdb}
}

func chatKey(userID int64) string {
	return fmt.Sprintf("chat:%d", userID)
}

// Load returns the user's transcript, or an empty one when the key is absent,
// expired, unreadable, or the cache is unreachable. A chat turn can always
// proceed without history; losing context is preferable to failing the turn.
func (s *TranscriptStore) Load(ctx context.Context, userID int64) []ChatMessage {
	raw, err := s.rdb.Get(ctx, chatKey(userID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Warn().Err(err).Int64("user_id", userID).Msg("transcript load failed, starting fresh")
		}
		return nil
	}
	var history []ChatMessage
	if err := json.Unmarshal(raw, &history); err != nil {
		log.Warn().Err(err).Int64("user_id", userID).Msg("transcript unreadable, starting fresh")
		return nil
	}
	return history
}

// Save overwrites the user's transcript and resets its TTL. Unlike Load, a
// failure here is surfaced: the caller must not report a turn as persisted
// when it was not.
func (s *TranscriptStore) Save(ctx context.Context, userID int64, history []ChatMessage) error {
	raw, err := json.Marshal(history)
	if err != nil {
		return fmt.Errorf("failed to encode transcript: %w", err)
	}
	if err := s.rdb.Set(ctx, chatKey(userID), raw, TranscriptTTL).Err(); err != nil {
		return fmt.Errorf("failed to save transcript: %w", err)
	}
	return nil
}

// Clear deletes the user's transcript. Deleting an absent transcript is fine.
func (s *TranscriptStore) Clear(ctx context.Context, userID int64) error {
	if err := s.rdb.Del(ctx, chatKey(userID)).Err(); err != nil {
		return fmt.Errorf("failed to clear transcript: %w", err)
	}
	return nil
}

func (s *TranscriptStore) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}
