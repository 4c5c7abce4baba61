package service

import (
	"bytes"
	"context"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"strings"

	"github.com/chai2010/webp"

	"github.com/faturroziq/bot-atechh/internal/domain/notification"
	"github.com/faturroziq/bot-atechh/internal/domain/shared"
)

// StickerService turns an incoming image into a sticker reply.
// WhatsApp only renders WebP stickers, so JPEG and PNG images are re-encoded
// before sending.
type StickerService struct {
	downloader notification.MediaDownloader
	transport  notification.Transport
	logger     *slog.Logger
}

// NewStickerService creates the sticker service.
func NewStickerService(
	downloader notification.MediaDownloader,
	transport notification.Transport,
	logger *slog.Logger,
) *StickerService {
	return &StickerService{
		downloader: downloader,
		transport:  transport,
		logger:     logger.With("component", "sticker"),
	}
}

// ErrUnsupportedImage is returned for image formats that cannot become stickers.
var ErrUnsupportedImage = shared.NewDomainError(
	"sticker", "CreateAndSend", shared.ErrInvalidInput, "image format not supported for stickers",
)

// stickerQuality balances sticker size against visible artifacts.
const stickerQuality = 80

// CreateAndSend downloads the referenced image, converts it to WebP if needed
// and sends it back to the same chat as a sticker.
func (s *StickerService) CreateAndSend(ctx context.Context, ref notification.MediaRef) error {
	data, err := s.downloader.Download(ctx, ref)
	if err != nil {
		return shared.WrapError("sticker", "CreateAndSend", shared.ErrDelivery, "download image", err)
	}

	payload, err := toWebP(data, ref.MimeType)
	if err != nil {
		return err
	}

	if err := s.transport.SendSticker(ctx, ref.ChatID, payload); err != nil {
		return shared.WrapError("sticker", "CreateAndSend", shared.ErrDelivery, "send sticker", err)
	}

	s.logger.Info("sticker sent", "chat", ref.ChatID, "bytes", len(payload))
	return nil
}

// toWebP converts the image bytes to WebP. Already-WebP payloads pass through.
func toWebP(data []byte, mimeType string) ([]byte, error) {
	if strings.EqualFold(mimeType, "image/webp") {
		return data, nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, ErrUnsupportedImage
	}

	var buf bytes.Buffer
	if err := webp.Encode(&buf, img, &webp.Options{Quality: stickerQuality}); err != nil {
		return nil, shared.WrapError("sticker", "CreateAndSend", shared.ErrInvalidInput, "encode webp", err)
	}

	return buf.Bytes(), nil
}
