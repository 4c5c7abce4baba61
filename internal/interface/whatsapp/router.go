// Package whatsapp implements the WhatsApp chat interface for KuliahBot:
// routing incoming messages to command handlers and the sticker maker.
package whatsapp

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/faturroziq/bot-atechh/internal/domain/notification"
	waclient "github.com/faturroziq/bot-atechh/internal/infrastructure/external/whatsapp"
	"github.com/faturroziq/bot-atechh/internal/interface/whatsapp/handler"
	"github.com/faturroziq/bot-atechh/internal/interface/whatsapp/presenter"
)

// ══════════════════════════════════════════════════════════════════════════════
// ROUTER CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// RouterConfig contains configuration for the router.
type RouterConfig struct {
	// Logger for structured logging.
	Logger *slog.Logger

	// Debug enables debug logging for routing decisions.
	Debug bool
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER TYPES
// ══════════════════════════════════════════════════════════════════════════════

// StickerMaker turns a referenced image into a sticker reply.
type StickerMaker interface {
	CreateAndSend(ctx context.Context, ref notification.MediaRef) error
}

// ══════════════════════════════════════════════════════════════════════════════
// ROUTER
// ══════════════════════════════════════════════════════════════════════════════

// Router routes incoming WhatsApp messages to command handlers, the ping
// responder and the sticker maker. Every seen chat is registered in the
// directory so broadcasts can reach it later.
type Router struct {
	config    RouterConfig
	logger    *slog.Logger
	sink      notification.Sink
	directory notification.ChatDirectory
	stickers  StickerMaker

	handlersMu sync.RWMutex
	handlers   map[string]handler.CommandHandler

	defaultHandler handler.CommandHandlerFunc
}

// NewRouter creates a new router.
func NewRouter(
	config RouterConfig,
	sink notification.Sink,
	directory notification.ChatDirectory,
	stickers StickerMaker,
) *Router {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	r := &Router{
		config:    config,
		logger:    config.Logger,
		sink:      sink,
		directory: directory,
		stickers:  stickers,
		handlers:  make(map[string]handler.CommandHandler),
	}

	r.defaultHandler = func(_ context.Context, _ handler.CommandContext) (string, error) {
		return presenter.Usage(), nil
	}

	return r
}

// RegisterCommand registers a handler for a command, without the leading "/".
func (r *Router) RegisterCommand(command string, h handler.CommandHandler) {
	r.handlersMu.Lock()
	defer r.handlersMu.Unlock()

	r.handlers[strings.ToLower(command)] = h

	if r.config.Debug {
		r.logger.Debug("registered command handler", "command", command)
	}
}

// SetDefaultCommandHandler sets the handler for unknown commands.
func (r *Router) SetDefaultCommandHandler(h handler.CommandHandlerFunc) {
	r.defaultHandler = h
}

// RegisteredCommands returns the registered command names.
func (r *Router) RegisteredCommands() []string {
	r.handlersMu.RLock()
	defer r.handlersMu.RUnlock()

	commands := make([]string, 0, len(r.handlers))
	for cmd := range r.handlers {
		commands = append(commands, cmd)
	}
	return commands
}

// ══════════════════════════════════════════════════════════════════════════════
// MESSAGE ENTRY POINT
// ══════════════════════════════════════════════════════════════════════════════

// HandleMessage is the entry point wired into the transport's message
// handler. A panicking handler is recovered here so one bad message can
// never kill the event loop.
func (r *Router) HandleMessage(ctx context.Context, msg *waclient.IncomingMessage) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("recovered panic in message handler",
				"chat", msg.ChatID,
				"panic", rec,
			)
		}
	}()

	if err := r.directory.Register(ctx, msg.ChatID); err != nil {
		r.logger.Warn("failed to register chat", "chat", msg.ChatID, "error", err)
	}

	if msg.Media != nil {
		r.handleSticker(ctx, msg)
		return
	}

	text := strings.TrimSpace(msg.Text)
	switch {
	case text == "":
		return

	case strings.EqualFold(text, "ping"):
		r.reply(ctx, msg.ChatID, presenter.Pong)

	case strings.HasPrefix(text, "/"):
		r.handleCommand(ctx, msg, text)
	}
}

// handleCommand parses the command token and dispatches to its handler.
func (r *Router) handleCommand(ctx context.Context, msg *waclient.IncomingMessage, text string) {
	command, args := splitCommand(text)

	cmdCtx := handler.CommandContext{
		ChatID:    msg.ChatID,
		SenderID:  msg.SenderID,
		PushName:  msg.PushName,
		MessageID: msg.MessageID,
		Args:      args,
	}

	r.handlersMu.RLock()
	h, ok := r.handlers[command]
	r.handlersMu.RUnlock()

	if !ok {
		if r.config.Debug {
			r.logger.Debug("no handler for command", "command", command)
		}
		h = r.defaultHandler
	}

	reply, err := h.Handle(ctx, cmdCtx)
	if err != nil {
		r.logger.Error("command handler failed",
			"command", command,
			"chat", msg.ChatID,
			"error", err,
		)
		reply = presenter.GenericError
	}

	if reply != "" {
		r.reply(ctx, msg.ChatID, reply)
	}
}

// handleSticker runs the image-to-sticker flow.
func (r *Router) handleSticker(ctx context.Context, msg *waclient.IncomingMessage) {
	if err := r.stickers.CreateAndSend(ctx, *msg.Media); err != nil {
		r.logger.Warn("sticker creation failed",
			"chat", msg.ChatID,
			"mime", msg.Media.MimeType,
			"error", err,
		)
		r.reply(ctx, msg.ChatID, presenter.StickerFailed)
	}
}

// reply sends a text reply and logs delivery failures.
func (r *Router) reply(ctx context.Context, chatID string, text string) {
	if err := r.sink.Send(ctx, chatID, text); err != nil {
		r.logger.Error("failed to send reply", "chat", chatID, "error", err)
	}
}

// splitCommand splits "/tugas add x" into ("tugas", "add x").
func splitCommand(text string) (command string, args string) {
	parts := strings.SplitN(text, " ", 2)
	command = strings.ToLower(strings.TrimPrefix(parts[0], "/"))
	if len(parts) == 2 {
		args = strings.TrimSpace(parts[1])
	}
	return command, args
}
