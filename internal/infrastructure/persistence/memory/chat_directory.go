package memory

import (
	"context"
	"sort"
	"sync"
)

// ChatDirectory implements notification.ChatDirectory with a set in memory.
type ChatDirectory struct {
	mu    sync.RWMutex
	chats map[string]struct{}
}

// NewChatDirectory creates an in-memory chat directory.
func NewChatDirectory() *ChatDirectory {
	return &ChatDirectory{chats: make(map[string]struct{})}
}

// Register records a chat id. Registering a known chat is a no-op.
func (d *ChatDirectory) Register(_ context.Context, chatID string) error {
	if chatID == "" {
		return nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.chats[chatID] = struct{}{}
	return nil
}

// Snapshot returns a stable, sorted copy of all known chat ids.
func (d *ChatDirectory) Snapshot(_ context.Context) ([]string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]string, 0, len(d.chats))
	for id := range d.chats {
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}
