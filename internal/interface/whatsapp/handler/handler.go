// Package handler implements the chat command handlers.
package handler

import "context"

// CommandContext contains context for command handling.
type CommandContext struct {
	// ChatID is the chat the command came from.
	ChatID string

	// SenderID is the sender's JID.
	SenderID string

	// PushName is the sender's display name.
	PushName string

	// MessageID is the id of the message containing the command.
	MessageID string

	// Args is the text after the command token.
	Args string
}

// CommandHandler processes one command and returns the reply text.
// An empty reply means nothing is sent.
type CommandHandler interface {
	Handle(ctx context.Context, cmdCtx CommandContext) (string, error)
}

// CommandHandlerFunc adapts a function to the CommandHandler interface.
type CommandHandlerFunc func(ctx context.Context, cmdCtx CommandContext) (string, error)

// Handle implements CommandHandler.
func (f CommandHandlerFunc) Handle(ctx context.Context, cmdCtx CommandContext) (string, error) {
	return f(ctx, cmdCtx)
}
