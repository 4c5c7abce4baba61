// Package memory provides in-process implementations of the reminder ledger
// and chat directory. They are the defaults when Redis is disabled; state is
// lost on restart, which for a single-group bot means at worst one repeated
// reminder after a redeploy.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/faturroziq/bot-atechh/internal/domain/notification"
)

// ReminderLedger implements notification.ReminderLedger with a map.
// Entries expire lazily so the map stays bounded to roughly a day of keys.
type ReminderLedger struct {
	mu      sync.Mutex
	marks   map[string]time.Time
	ttl     time.Duration
	nowFunc func() time.Time
}

// NewReminderLedger creates an in-memory reminder ledger.
func NewReminderLedger() *ReminderLedger {
	return &ReminderLedger{
		marks:   make(map[string]time.Time),
		ttl:     notification.LedgerTTL,
		nowFunc: time.Now,
	}
}

// MarkSent records the key and reports true on first sight.
func (l *ReminderLedger) MarkSent(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.nowFunc()
	l.expire(now)

	if _, seen := l.marks[key]; seen {
		return false, nil
	}
	l.marks[key] = now
	return true, nil
}

func (l *ReminderLedger) expire(now time.Time) {
	for k, at := range l.marks {
		if now.Sub(at) > l.ttl {
			delete(l.marks, k)
		}
	}
}
