package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sknshr/kakao-hr-bot/internal/core"
	"github.com/sknshr/kakao-hr-bot/internal/logger"
)

// DefaultHistoryWindow is how many entries the pipeline reads per question.
const DefaultHistoryWindow = 10

// RedisStore keeps per-user conversational history as an append-only Redis
// list, newest entry at the head. Implements core.MemoryStore.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(ctx context.Context, addr string) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	logger.Info("Connected to Redis at %s", addr)
	return &RedisStore{client: client}, nil
}

func historyKey(userID string) string {
	return "chat:history:" + userID
}

// Append pushes one history entry to the head of the user's log.
func (s *RedisStore) Append(ctx context.Context, userID, role, content string) error {
	entry := core.MemoryEntry{
		Role:      role,
		Content:   content,
		Timestamp: time.Now().Unix(),
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal memory entry: %w", err)
	}
	if err := s.client.LPush(ctx, historyKey(userID), data).Err(); err != nil {
		return fmt.Errorf("failed to append memory for user %s: %w", userID, err)
	}
	return nil
}

// GetRecent returns up to limit entries for the user, newest first.
func (s *RedisStore) GetRecent(ctx context.Context, userID string, limit int) ([]core.MemoryEntry, error) {
	if limit <= 0 {
		limit = DefaultHistoryWindow
	}
	raw, err := s.client.LRange(ctx, historyKey(userID), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read memory for user %s: %w", userID, err)
	}

	entries := make([]core.MemoryEntry, 0, len(raw))
	for _, item := range raw {
		var e core.MemoryEntry
		if err := json.Unmarshal([]byte(item), &e); err != nil {
			logger.Warn("skipping unparseable memory entry for user %s: %v", userID, err)
			continue
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
