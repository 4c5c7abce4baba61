package redis

import (
	"context"

	"github.com/faturroziq/bot-atechh/internal/domain/notification"
)

// ReminderLedger implements notification.ReminderLedger on Redis.
// SetNX gives the first-writer-wins semantics: only the caller that creates
// the key sees true, so a reminder is sent exactly once per key even if the
// bot restarts inside the minute window.
type ReminderLedger struct {
	cache *Cache
}

// NewReminderLedger creates a Redis-backed reminder ledger.
func NewReminderLedger(cache *Cache) *ReminderLedger {
	return &ReminderLedger{cache: cache}
}

// MarkSent records the key and reports true on first sight.
func (l *ReminderLedger) MarkSent(ctx context.Context, key string) (bool, error) {
	return l.cache.SetNX(ctx, PrefixReminder+key, 1, notification.LedgerTTL)
}
