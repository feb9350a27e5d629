package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/af-corp/textguard/internal/config"
	"github.com/af-corp/textguard/internal/types"
)

const keyPrefix = "textguard:ctx:"

// RedisStore keeps each user's context in a Redis list that expires after
// the configured TTL of inactivity.
type RedisStore struct {
	rdb *redis.Client
	cfg func() config.ContextConfig
}

func NewRedisStore(rdb *redis.Client, cfg func() config.ContextConfig) *RedisStore {
	return &RedisStore{rdb: rdb, cfg: cfg}
}

func key(userID string) string { return keyPrefix + userID }

func (s *RedisStore) Append(ctx context.Context, userID, role, content string) error {
	maxMessages, _, ttl := limits(s.cfg())
	data, err := json.Marshal(Entry{Role: role, Content: content, Timestamp: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("encode entry: %w", err)
	}

	k := key(userID)
	_, err = s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.RPush(ctx, k, data)
		p.LTrim(ctx, k, int64(-maxMessages), -1)
		p.Expire(ctx, k, ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("append context: %w", err)
	}
	return nil
}

func (s *RedisStore) History(ctx context.Context, userID string, n int) ([]types.Message, error) {
	_, history, _ := limits(s.cfg())
	if n <= 0 {
		n = history
	}

	raw, err := s.rdb.LRange(ctx, key(userID), int64(-n), -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read context: %w", err)
	}
	entries := make([]Entry, 0, len(raw))
	for _, r := range raw {
		var e Entry
		if err := json.Unmarshal([]byte(r), &e); err != nil {
			return nil, fmt.Errorf("decode entry: %w", err)
		}
		entries = append(entries, e)
	}
	return toMessages(entries), nil
}

func (s *RedisStore) Reset(ctx context.Context, userID string) error {
	if err := s.rdb.Del(ctx, key(userID)).Err(); err != nil {
		return fmt.Errorf("reset context: %w", err)
	}
	return nil
}

// Stats scans all context keys. Active users are those whose key was
// touched within the last five minutes.
func (s *RedisStore) Stats(ctx context.Context) (Stats, error) {
	_, _, ttl := limits(s.cfg())
	var st Stats

	iter := s.rdb.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		st.TotalUsers++
		left, err := s.rdb.TTL(ctx, iter.Val()).Result()
		if err != nil {
			return Stats{}, fmt.Errorf("read ttl: %w", err)
		}
		if ttl-left <= activeWindow {
			st.ActiveUsers++
		}
	}
	if err := iter.Err(); err != nil {
		return Stats{}, fmt.Errorf("scan contexts: %w", err)
	}
	return st, nil
}
