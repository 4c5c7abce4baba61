package notification

import (
	"context"
	"fmt"
	"time"
)

// ReminderKind distinguishes the two scheduled reminder types.
type ReminderKind string

const (
	// KindMorningDigest is the 05:00 daily schedule broadcast.
	KindMorningDigest ReminderKind = "digest"

	// KindClassAlert is the per-class "5 minutes before" alert.
	KindClassAlert ReminderKind = "alert"
)

// ReminderLedger records which reminders have already been sent so a reminder
// fires at most once per minute window, across scheduler jitter and restarts
// when a durable implementation is used.
type ReminderLedger interface {
	// MarkSent records the key and reports true if this is the first time the
	// key is seen. A false return means the reminder was already sent.
	MarkSent(ctx context.Context, key string) (bool, error)
}

// LedgerTTL is how long ledger marks are retained. A day plus slack covers
// the longest possible gap between two firings of the same daily key.
const LedgerTTL = 25 * time.Hour

// LedgerKey builds the dedupe key for a reminder occurrence. slot is empty
// for the digest and "matkul@jam" for class alerts; at is the minute the
// reminder belongs to, in the bot's local timezone.
func LedgerKey(kind ReminderKind, slot string, at time.Time) string {
	return fmt.Sprintf("%s|%s|%s", kind, slot, at.Format("2006-01-02 15:04"))
}
