package redis

import (
	"context"
)

// chatSetKey is the single set holding every chat JID the bot has seen.
const chatSetKey = PrefixChats + "known"

// ChatDirectory implements notification.ChatDirectory on a Redis set, so the
// broadcast audience survives restarts.
type ChatDirectory struct {
	cache *Cache
}

// NewChatDirectory creates a Redis-backed chat directory.
func NewChatDirectory(cache *Cache) *ChatDirectory {
	return &ChatDirectory{cache: cache}
}

// Register records a chat id. SAdd is idempotent, re-registering is free.
func (d *ChatDirectory) Register(ctx context.Context, chatID string) error {
	if chatID == "" {
		return ErrCacheKeyEmpty
	}
	return d.cache.SAdd(ctx, chatSetKey, chatID)
}

// Snapshot returns a stable copy of all known chat ids.
func (d *ChatDirectory) Snapshot(ctx context.Context) ([]string, error) {
	return d.cache.SMembers(ctx, chatSetKey)
}
