package service

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/faturroziq/bot-atechh/internal/domain/notification"
	"github.com/faturroziq/bot-atechh/internal/domain/shared"
	"github.com/faturroziq/bot-atechh/internal/infrastructure/persistence/memory"
)

type fakeTransport struct {
	connected bool
	sent      map[string][]string
	stickers  map[string][][]byte
	failFor   map[string]error
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		connected: true,
		sent:      make(map[string][]string),
		stickers:  make(map[string][][]byte),
		failFor:   make(map[string]error),
	}
}

func (t *fakeTransport) SendText(_ context.Context, chatID string, text string) error {
	if err, ok := t.failFor[chatID]; ok {
		return err
	}
	t.sent[chatID] = append(t.sent[chatID], text)
	return nil
}

func (t *fakeTransport) SendSticker(_ context.Context, chatID string, webp []byte) error {
	if err, ok := t.failFor[chatID]; ok {
		return err
	}
	t.stickers[chatID] = append(t.stickers[chatID], webp)
	return nil
}

func (t *fakeTransport) IsConnected() bool { return t.connected }

type fakeDownloader struct {
	data []byte
	err  error
}

func (d *fakeDownloader) Download(_ context.Context, _ notification.MediaRef) ([]byte, error) {
	return d.data, d.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(bytes.NewBuffer(nil), &slog.HandlerOptions{Level: slog.LevelError}))
}

func directoryWith(t *testing.T, chats ...string) *memory.ChatDirectory {
	t.Helper()
	dir := memory.NewChatDirectory()
	for _, chat := range chats {
		require.NoError(t, dir.Register(context.Background(), chat))
	}
	return dir
}

func TestBroadcastService_Send(t *testing.T) {
	transport := newFakeTransport()
	svc := NewBroadcastService(transport, directoryWith(t), testLogger())

	require.NoError(t, svc.Send(context.Background(), "a@g.us", "halo"))
	assert.Equal(t, []string{"halo"}, transport.sent["a@g.us"])
}

func TestBroadcastService_SendWhileDisconnected(t *testing.T) {
	transport := newFakeTransport()
	transport.connected = false
	svc := NewBroadcastService(transport, directoryWith(t), testLogger())

	err := svc.Send(context.Background(), "a@g.us", "halo")
	assert.ErrorIs(t, err, shared.ErrConnectionLost)
}

func TestBroadcastService_BroadcastReachesEveryChat(t *testing.T) {
	transport := newFakeTransport()
	svc := NewBroadcastService(transport, directoryWith(t, "a@g.us", "b@g.us", "c@g.us"), testLogger())

	result, err := svc.Broadcast(context.Background(), "pengumuman")
	require.NoError(t, err)

	assert.Equal(t, 3, result.Recipients)
	assert.Equal(t, 3, result.Sent)
	assert.Empty(t, result.Failed)
	assert.NotEmpty(t, result.ID)
	for _, chat := range []string{"a@g.us", "b@g.us", "c@g.us"} {
		assert.Equal(t, []string{"pengumuman"}, transport.sent[chat])
	}
}

func TestBroadcastService_OneFailureDoesNotAbortRest(t *testing.T) {
	transport := newFakeTransport()
	transport.failFor["b@g.us"] = errors.New("recipient blocked")

	svc := NewBroadcastService(transport, directoryWith(t, "a@g.us", "b@g.us", "c@g.us"), testLogger())

	result, err := svc.Broadcast(context.Background(), "pengumuman")
	require.NoError(t, err)

	assert.Equal(t, 2, result.Sent)
	require.Len(t, result.Failed, 1)
	assert.ErrorIs(t, result.Failed["b@g.us"], shared.ErrDelivery)
	assert.Equal(t, []string{"pengumuman"}, transport.sent["a@g.us"])
	assert.Equal(t, []string{"pengumuman"}, transport.sent["c@g.us"])
}

func TestBroadcastService_EmptyDirectory(t *testing.T) {
	transport := newFakeTransport()
	svc := NewBroadcastService(transport, directoryWith(t), testLogger())

	result, err := svc.Broadcast(context.Background(), "pengumuman")
	require.NoError(t, err)

	assert.Equal(t, 0, result.Recipients)
	assert.Equal(t, 0, result.Sent)
	assert.Empty(t, result.Failed)
	assert.Empty(t, transport.sent)
}

func TestStickerService_PassesThroughWebP(t *testing.T) {
	transport := newFakeTransport()
	payload := []byte("RIFF....WEBP")
	svc := NewStickerService(&fakeDownloader{data: payload}, transport, testLogger())

	ref := notification.MediaRef{ChatID: "a@g.us", MessageID: "m1", MimeType: "image/webp"}
	require.NoError(t, svc.CreateAndSend(context.Background(), ref))

	require.Len(t, transport.stickers["a@g.us"], 1)
	assert.Equal(t, payload, transport.stickers["a@g.us"][0])
}

func TestStickerService_ConvertsPNG(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 8, 8))))

	transport := newFakeTransport()
	svc := NewStickerService(&fakeDownloader{data: buf.Bytes()}, transport, testLogger())

	ref := notification.MediaRef{ChatID: "a@g.us", MessageID: "m1", MimeType: "image/png"}
	require.NoError(t, svc.CreateAndSend(context.Background(), ref))

	require.Len(t, transport.stickers["a@g.us"], 1)
	assert.NotEmpty(t, transport.stickers["a@g.us"][0])
}

func TestStickerService_RejectsGarbage(t *testing.T) {
	svc := NewStickerService(&fakeDownloader{data: []byte("not an image")}, newFakeTransport(), testLogger())

	ref := notification.MediaRef{ChatID: "a@g.us", MessageID: "m1", MimeType: "image/jpeg"}
	err := svc.CreateAndSend(context.Background(), ref)
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestStickerService_DownloadFailure(t *testing.T) {
	svc := NewStickerService(&fakeDownloader{err: errors.New("gone")}, newFakeTransport(), testLogger())

	ref := notification.MediaRef{ChatID: "a@g.us", MessageID: "m1", MimeType: "image/webp"}
	err := svc.CreateAndSend(context.Background(), ref)
	assert.ErrorIs(t, err, shared.ErrDelivery)
}
