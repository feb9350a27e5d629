// Package session keeps the per-user conversation context sent to the
// assistant.
package session

import (
	"context"
	"time"

	"github.com/af-corp/textguard/internal/config"
	"github.com/af-corp/textguard/internal/types"
)

// Entry is one stored conversation turn.
type Entry struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"ts"`
}

// Stats describes the stored contexts.
type Stats struct {
	TotalUsers  int `json:"total_users"`
	ActiveUsers int `json:"active_users"`
}

// Store persists conversation context per user.
type Store interface {
	Append(ctx context.Context, userID, role, content string) error
	History(ctx context.Context, userID string, n int) ([]types.Message, error)
	Reset(ctx context.Context, userID string) error
	Stats(ctx context.Context) (Stats, error)
}

// activeWindow is how recent the last turn must be for a user to count as active.
const activeWindow = 5 * time.Minute

func limits(cfg config.ContextConfig) (maxMessages, history int, ttl time.Duration) {
	maxMessages, history, ttl = cfg.MaxMessages, cfg.HistorySize, cfg.TTL
	if maxMessages <= 0 {
		maxMessages = 20
	}
	if history <= 0 {
		history = 10
	}
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return maxMessages, history, ttl
}

func toMessages(entries []Entry) []types.Message {
	out := make([]types.Message, 0, len(entries))
	for _, e := range entries {
		out = append(out, types.Message{Role: e.Role, Content: e.Content})
	}
	return out
}
