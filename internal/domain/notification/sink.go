// Package notification defines the outbound messaging boundary: how the bot
// delivers text and stickers to WhatsApp chats, and how it remembers which
// chats exist.
package notification

import (
	"context"
	"time"
)

// Transport is the minimal capability the bot needs from a WhatsApp session.
// It is injected everywhere a message leaves the process so that handlers and
// jobs never touch the socket directly.
type Transport interface {
	// SendText delivers a plain text message to the chat.
	SendText(ctx context.Context, chatID string, text string) error

	// SendSticker delivers a WebP sticker payload to the chat.
	SendSticker(ctx context.Context, chatID string, webp []byte) error

	// IsConnected reports whether the session is currently open.
	IsConnected() bool
}

// MediaDownloader downloads media referenced by an incoming message.
type MediaDownloader interface {
	Download(ctx context.Context, ref MediaRef) ([]byte, error)
}

// MediaRef identifies a downloadable media attachment.
type MediaRef struct {
	ChatID    string
	MessageID string
	MimeType  string
}

// ChatDirectory tracks every chat the bot has seen a message from.
// Broadcasts go to a snapshot of this set.
type ChatDirectory interface {
	// Register records a chat id. Registering an already known chat is a no-op.
	Register(ctx context.Context, chatID string) error

	// Snapshot returns a stable copy of all known chat ids.
	Snapshot(ctx context.Context) ([]string, error)
}

// Sink is the high-level outbound interface used by command handlers and
// scheduled jobs.
type Sink interface {
	// Send delivers a message to a single chat.
	Send(ctx context.Context, chatID string, text string) error

	// Broadcast delivers a message to every known chat. A failure for one
	// recipient never aborts delivery to the rest.
	Broadcast(ctx context.Context, text string) (*BroadcastResult, error)
}

// BroadcastResult summarizes one broadcast run.
type BroadcastResult struct {
	// ID uniquely identifies this broadcast in logs.
	ID string

	// Recipients is the number of chats in the snapshot.
	Recipients int

	// Sent is the number of successful deliveries.
	Sent int

	// Failed maps chat id to the delivery error for each failed recipient.
	Failed map[string]error

	StartedAt   time.Time
	CompletedAt time.Time
}

// Duration returns how long the broadcast took.
func (r *BroadcastResult) Duration() time.Duration {
	return r.CompletedAt.Sub(r.StartedAt)
}
