// Package service implements application services that sit between the
// message router, the scheduled jobs and the WhatsApp transport.
package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/faturroziq/bot-atechh/internal/domain/notification"
	"github.com/faturroziq/bot-atechh/internal/domain/shared"
	"github.com/faturroziq/bot-atechh/pkg/circuitbreaker"
	"github.com/faturroziq/bot-atechh/pkg/retry"
)

// BroadcastService implements notification.Sink. Every outbound text goes
// through the delivery retrier and circuit breaker; broadcasts fan out over a
// snapshot of the chat directory and a failed recipient never blocks the rest.
type BroadcastService struct {
	transport notification.Transport
	directory notification.ChatDirectory
	retrier   *retry.Retrier
	breaker   *circuitbreaker.CircuitBreaker
	logger    *slog.Logger
}

// NewBroadcastService creates the broadcast service.
func NewBroadcastService(
	transport notification.Transport,
	directory notification.ChatDirectory,
	logger *slog.Logger,
) *BroadcastService {
	s := &BroadcastService{
		transport: transport,
		directory: directory,
		retrier:   retry.DeliveryRetrier(),
		logger:    logger.With("component", "broadcast"),
	}

	s.breaker = circuitbreaker.DeliveryBreaker(func(name string, from, to circuitbreaker.State) {
		s.logger.Warn("delivery circuit state changed",
			"breaker", name,
			"from", from.String(),
			"to", to.String(),
		)
	})

	return s
}

// Send delivers a message to a single chat with retries.
func (s *BroadcastService) Send(ctx context.Context, chatID string, text string) error {
	if !s.transport.IsConnected() {
		return shared.ErrTransportDown
	}

	err := s.breaker.Execute(ctx, func(ctx context.Context) error {
		return s.retrier.Do(ctx, func(ctx context.Context) error {
			if err := s.transport.SendText(ctx, chatID, text); err != nil {
				if shared.IsRetryable(err) {
					return retry.Retryable(err)
				}
				return retry.Permanent(err)
			}
			return nil
		})
	})
	if err != nil {
		return shared.WrapError("notification", "Send", shared.ErrDelivery, "deliver to "+chatID, err)
	}

	return nil
}

// Broadcast delivers a message to every chat in the directory snapshot.
// Failures are collected per recipient; the broadcast itself only fails when
// the directory is unreadable. An empty directory yields an empty result,
// not an error, so scheduled jobs stay quiet until the first chat registers.
func (s *BroadcastService) Broadcast(ctx context.Context, text string) (*notification.BroadcastResult, error) {
	chats, err := s.directory.Snapshot(ctx)
	if err != nil {
		return nil, shared.WrapError("notification", "Broadcast", shared.ErrStorage, "snapshot chat directory", err)
	}

	result := &notification.BroadcastResult{
		ID:         uuid.New().String(),
		Recipients: len(chats),
		Failed:     make(map[string]error),
		StartedAt:  time.Now(),
	}

	s.logger.Info("broadcast started",
		"broadcast_id", result.ID,
		"recipients", result.Recipients,
	)

	for _, chatID := range chats {
		if err := ctx.Err(); err != nil {
			result.Failed[chatID] = err
			continue
		}

		if err := s.Send(ctx, chatID, text); err != nil {
			result.Failed[chatID] = err
			s.logger.Warn("broadcast delivery failed",
				"broadcast_id", result.ID,
				"chat", chatID,
				"error", err,
			)
			continue
		}
		result.Sent++
	}

	result.CompletedAt = time.Now()

	s.logger.Info("broadcast completed",
		"broadcast_id", result.ID,
		"sent", result.Sent,
		"failed", len(result.Failed),
		"duration", result.Duration(),
	)

	return result, nil
}
