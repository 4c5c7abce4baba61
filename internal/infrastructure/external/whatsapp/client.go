// Package whatsapp implements the WhatsApp transport on top of whatsmeow.
// It provides message delivery, sticker delivery, media downloads and the
// session lifecycle used by the rest of the bot.
package whatsapp

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	waLog "go.mau.fi/whatsmeow/util/log"
	"google.golang.org/protobuf/proto"

	"github.com/faturroziq/bot-atechh/internal/domain/notification"
	"github.com/faturroziq/bot-atechh/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// ClientConfig contains configuration for the WhatsApp client.
type ClientConfig struct {
	// SessionDBPath is the SQLite file holding the whatsmeow device store.
	SessionDBPath string

	// PairPhone, when set, pairs via a phone-number code instead of a QR code.
	// Format: international digits only, e.g. "6281234567890".
	PairPhone string

	// Logger for structured logging
	Logger *slog.Logger

	// Debug enables debug logging
	Debug bool
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig(sessionDBPath string) ClientConfig {
	return ClientConfig{
		SessionDBPath: sessionDBPath,
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// INCOMING MESSAGES
// ══════════════════════════════════════════════════════════════════════════════

// IncomingMessage is the transport-neutral view of a received message.
type IncomingMessage struct {
	ChatID    string
	MessageID string
	SenderID  string
	PushName  string
	Text      string
	Timestamp time.Time

	// Media is set when the message carries a downloadable image.
	Media *notification.MediaRef
}

// MessageHandler handles one incoming message.
type MessageHandler func(ctx context.Context, msg *IncomingMessage)

// SessionEvent signals a connectivity change on the underlying socket.
type SessionEvent int

const (
	// EventConnected fires when the socket is open and authenticated.
	EventConnected SessionEvent = iota

	// EventDisconnected fires when the socket drops for any recoverable reason.
	EventDisconnected

	// EventLoggedOut fires when the device pairing was revoked. Not recoverable.
	EventLoggedOut
)

// SessionHandler handles session lifecycle events.
type SessionHandler func(event SessionEvent)

// ══════════════════════════════════════════════════════════════════════════════
// CLIENT
// ══════════════════════════════════════════════════════════════════════════════

// mediaCacheLimit bounds how many recent image messages are kept around for
// Download calls. Stickers are made from the message being replied to, so a
// small window is plenty.
const mediaCacheLimit = 128

// Client wraps a whatsmeow client behind the notification.Transport and
// notification.MediaDownloader interfaces.
type Client struct {
	config ClientConfig
	wa     *whatsmeow.Client
	logger *slog.Logger

	handlerMu sync.RWMutex
	onMessage MessageHandler
	onSession SessionHandler

	mediaMu    sync.Mutex
	media      map[string]*waE2E.ImageMessage
	mediaOrder []string
}

// NewClient opens the session store and builds a WhatsApp client.
// The client is not connected yet; use Connect.
func NewClient(config ClientConfig) (*Client, error) {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	c := &Client{
		config: config,
		logger: config.Logger,
		media:  make(map[string]*waE2E.ImageMessage),
	}

	dsn := fmt.Sprintf("file:%s?_foreign_keys=on", config.SessionDBPath)
	container, err := sqlstore.New("sqlite3", dsn, c.waLogger("Database"))
	if err != nil {
		return nil, shared.WrapError("whatsapp", "NewClient", shared.ErrStorage, "open session store", err)
	}

	device, err := container.GetFirstDevice()
	if err != nil {
		return nil, shared.WrapError("whatsapp", "NewClient", shared.ErrStorage, "load device", err)
	}

	c.wa = whatsmeow.NewClient(device, c.waLogger("Client"))
	c.wa.AddEventHandler(c.handleEvent)

	return c, nil
}

// SetMessageHandler registers the handler for incoming messages.
// Must be called before Connect.
func (c *Client) SetMessageHandler(handler MessageHandler) {
	c.handlerMu.Lock()
	defer c.handlerMu.Unlock()
	c.onMessage = handler
}

// SetSessionHandler registers the handler for session lifecycle events.
// Must be called before Connect.
func (c *Client) SetSessionHandler(handler SessionHandler) {
	c.handlerMu.Lock()
	defer c.handlerMu.Unlock()
	c.onSession = handler
}

// ══════════════════════════════════════════════════════════════════════════════
// CONNECTION
// ══════════════════════════════════════════════════════════════════════════════

// Connect opens the socket. An unpaired device goes through pairing first,
// either by phone code or by QR code printed to the log.
func (c *Client) Connect(ctx context.Context) error {
	if c.wa.Store.ID == nil {
		return c.pair(ctx)
	}

	if err := c.wa.Connect(); err != nil {
		return shared.WrapError("whatsapp", "Connect", shared.ErrConnectionLost, "connect", err)
	}
	return nil
}

// pair runs the first-time device pairing flow.
func (c *Client) pair(ctx context.Context) error {
	if c.config.PairPhone != "" {
		if err := c.wa.Connect(); err != nil {
			return shared.WrapError("whatsapp", "Connect", shared.ErrConnectionLost, "connect for pairing", err)
		}

		code, err := c.wa.PairPhone(c.config.PairPhone, true, whatsmeow.PairClientChrome, "Chrome (Linux)")
		if err != nil {
			return shared.WrapError("whatsapp", "Connect", shared.ErrConnectionLost, "request pairing code", err)
		}

		c.logger.Info("enter this pairing code on your phone", "code", code)
		return nil
	}

	qrChan, err := c.wa.GetQRChannel(ctx)
	if err != nil {
		return shared.WrapError("whatsapp", "Connect", shared.ErrConnectionLost, "open qr channel", err)
	}

	if err := c.wa.Connect(); err != nil {
		return shared.WrapError("whatsapp", "Connect", shared.ErrConnectionLost, "connect for pairing", err)
	}

	go func() {
		for evt := range qrChan {
			switch evt.Event {
			case "code":
				c.logger.Info("scan this qr code with WhatsApp", "code", evt.Code)
			case "timeout":
				c.logger.Warn("qr code expired before it was scanned")
			}
		}
	}()

	return nil
}

// Disconnect closes the socket. The session store is untouched so the next
// Connect resumes without pairing.
func (c *Client) Disconnect() {
	c.wa.Disconnect()
}

// IsConnected implements notification.Transport.
func (c *Client) IsConnected() bool {
	return c.wa.IsConnected() && c.wa.IsLoggedIn()
}

// ══════════════════════════════════════════════════════════════════════════════
// SENDING
// ══════════════════════════════════════════════════════════════════════════════

// SendText implements notification.Transport.
func (c *Client) SendText(ctx context.Context, chatID string, text string) error {
	jid, err := types.ParseJID(chatID)
	if err != nil {
		return shared.WrapError("whatsapp", "SendText", shared.ErrDelivery, "invalid chat id", err)
	}

	if !c.IsConnected() {
		return shared.ErrTransportDown
	}

	_, err = c.wa.SendMessage(ctx, jid, &waE2E.Message{
		Conversation: proto.String(text),
	})
	if err != nil {
		return shared.WrapError("whatsapp", "SendText", shared.ErrDelivery, "send text", err)
	}

	return nil
}

// SendSticker implements notification.Transport. The payload must be WebP.
func (c *Client) SendSticker(ctx context.Context, chatID string, webp []byte) error {
	jid, err := types.ParseJID(chatID)
	if err != nil {
		return shared.WrapError("whatsapp", "SendSticker", shared.ErrDelivery, "invalid chat id", err)
	}

	if !c.IsConnected() {
		return shared.ErrTransportDown
	}

	uploaded, err := c.wa.Upload(ctx, webp, whatsmeow.MediaImage)
	if err != nil {
		return shared.WrapError("whatsapp", "SendSticker", shared.ErrDelivery, "upload sticker", err)
	}

	_, err = c.wa.SendMessage(ctx, jid, &waE2E.Message{
		StickerMessage: &waE2E.StickerMessage{
			URL:           proto.String(uploaded.URL),
			DirectPath:    proto.String(uploaded.DirectPath),
			MediaKey:      uploaded.MediaKey,
			Mimetype:      proto.String("image/webp"),
			FileEncSHA256: uploaded.FileEncSHA256,
			FileSHA256:    uploaded.FileSHA256,
			FileLength:    proto.Uint64(uint64(len(webp))),
		},
	})
	if err != nil {
		return shared.WrapError("whatsapp", "SendSticker", shared.ErrDelivery, "send sticker", err)
	}

	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// MEDIA DOWNLOADS
// ══════════════════════════════════════════════════════════════════════════════

// Download implements notification.MediaDownloader. Only images seen recently
// by this process can be downloaded; the media keys live in the cached proto.
func (c *Client) Download(ctx context.Context, ref notification.MediaRef) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mediaMu.Lock()
	img, ok := c.media[ref.MessageID]
	c.mediaMu.Unlock()

	if !ok {
		return nil, shared.NewDomainError("whatsapp", "Download", shared.ErrNotFound, "media not in cache")
	}

	data, err := c.wa.Download(img)
	if err != nil {
		return nil, shared.WrapError("whatsapp", "Download", shared.ErrDelivery, "download media", err)
	}

	return data, nil
}

// cacheMedia remembers an image message for later Download calls.
func (c *Client) cacheMedia(messageID string, img *waE2E.ImageMessage) {
	c.mediaMu.Lock()
	defer c.mediaMu.Unlock()

	if _, exists := c.media[messageID]; exists {
		return
	}

	c.media[messageID] = img
	c.mediaOrder = append(c.mediaOrder, messageID)

	for len(c.mediaOrder) > mediaCacheLimit {
		oldest := c.mediaOrder[0]
		c.mediaOrder = c.mediaOrder[1:]
		delete(c.media, oldest)
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// EVENT HANDLING
// ══════════════════════════════════════════════════════════════════════════════

// handleEvent dispatches whatsmeow events to the registered handlers.
func (c *Client) handleEvent(evt interface{}) {
	switch e := evt.(type) {
	case *events.Message:
		c.handleMessage(e)

	case *events.Connected:
		c.logger.Info("whatsapp session connected")
		c.emitSession(EventConnected)

	case *events.Disconnected:
		c.logger.Warn("whatsapp session disconnected")
		c.emitSession(EventDisconnected)

	case *events.StreamReplaced:
		c.logger.Warn("whatsapp stream replaced by another client")
		c.emitSession(EventDisconnected)

	case *events.LoggedOut:
		c.logger.Error("whatsapp device logged out", "reason", e.Reason)
		c.emitSession(EventLoggedOut)
	}
}

// handleMessage translates a raw message event and hands it off.
func (c *Client) handleMessage(evt *events.Message) {
	if evt.Info.IsFromMe {
		return
	}

	c.handlerMu.RLock()
	handler := c.onMessage
	c.handlerMu.RUnlock()
	if handler == nil {
		return
	}

	msg := &IncomingMessage{
		ChatID:    evt.Info.Chat.String(),
		MessageID: evt.Info.ID,
		SenderID:  evt.Info.Sender.String(),
		PushName:  evt.Info.PushName,
		Text:      extractText(evt.Message),
		Timestamp: evt.Info.Timestamp,
	}

	if img := evt.Message.GetImageMessage(); img != nil {
		c.cacheMedia(evt.Info.ID, img)
		msg.Media = &notification.MediaRef{
			ChatID:    msg.ChatID,
			MessageID: msg.MessageID,
			MimeType:  img.GetMimetype(),
		}
	}

	if c.config.Debug {
		c.logger.Debug("incoming message",
			"chat", msg.ChatID,
			"sender", msg.SenderID,
			"has_media", msg.Media != nil,
		)
	}

	// Handlers run off the event loop so a slow command never blocks the
	// socket reader.
	go handler(context.Background(), msg)
}

// emitSession forwards a session event to the registered handler.
func (c *Client) emitSession(event SessionEvent) {
	c.handlerMu.RLock()
	handler := c.onSession
	c.handlerMu.RUnlock()

	if handler != nil {
		go handler(event)
	}
}

// extractText pulls the text body out of the message proto, wherever WhatsApp
// decided to put it.
func extractText(msg *waE2E.Message) string {
	if msg == nil {
		return ""
	}
	if text := msg.GetConversation(); text != "" {
		return text
	}
	if ext := msg.GetExtendedTextMessage(); ext != nil {
		return ext.GetText()
	}
	if img := msg.GetImageMessage(); img != nil {
		return img.GetCaption()
	}
	return ""
}

// ══════════════════════════════════════════════════════════════════════════════
// LOGGING BRIDGE
// ══════════════════════════════════════════════════════════════════════════════

// waLogger adapts slog to the waLog.Logger interface whatsmeow expects.
func (c *Client) waLogger(module string) waLog.Logger {
	return &slogBridge{logger: c.config.Logger.With("module", "whatsmeow/"+module)}
}

type slogBridge struct {
	logger *slog.Logger
}

func (b *slogBridge) Errorf(msg string, args ...interface{}) {
	b.logger.Error(fmt.Sprintf(msg, args...))
}

func (b *slogBridge) Warnf(msg string, args ...interface{}) {
	b.logger.Warn(fmt.Sprintf(msg, args...))
}

func (b *slogBridge) Infof(msg string, args ...interface{}) {
	b.logger.Info(fmt.Sprintf(msg, args...))
}

func (b *slogBridge) Debugf(msg string, args ...interface{}) {
	b.logger.Debug(fmt.Sprintf(msg, args...))
}

func (b *slogBridge) Sub(module string) waLog.Logger {
	return &slogBridge{logger: b.logger.With("submodule", module)}
}
