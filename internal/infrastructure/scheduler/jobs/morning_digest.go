// Package jobs contains the scheduled jobs run by the cron scheduler:
// the daily morning digest and the per-minute class alert sweep.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/faturroziq/bot-atechh/internal/domain/kuliah"
	"github.com/faturroziq/bot-atechh/internal/domain/notification"
	"github.com/faturroziq/bot-atechh/pkg/timeutil"
)

// MorningDigestJob broadcasts the day's schedule every morning at 05:00 WIB.
type MorningDigestJob struct {
	store   kuliah.Store
	sink    notification.Sink
	ledger  notification.ReminderLedger
	logger  *slog.Logger
	nowFunc func() time.Time
}

// NewMorningDigestJob creates the morning digest job.
func NewMorningDigestJob(
	store kuliah.Store,
	sink notification.Sink,
	ledger notification.ReminderLedger,
	logger *slog.Logger,
) *MorningDigestJob {
	return &MorningDigestJob{
		store:   store,
		sink:    sink,
		ledger:  ledger,
		logger:  logger.With("job", "morning_digest"),
		nowFunc: timeutil.Now,
	}
}

// Name returns the job name.
func (j *MorningDigestJob) Name() string {
	return "morning_digest"
}

// Description returns the job description.
func (j *MorningDigestJob) Description() string {
	return "Broadcasts the day's class schedule to every known chat"
}

// Run sends the digest for the current day, at most once per minute window.
func (j *MorningDigestJob) Run(ctx context.Context) error {
	now := timeutil.TruncateMinute(j.nowFunc())

	// The window is claimed before sending: a broadcast that fails outright
	// is not retried within the same minute. Duplicate digests are worse than
	// a missed one.
	key := notification.LedgerKey(notification.KindMorningDigest, "", now)
	first, err := j.ledger.MarkSent(ctx, key)
	if err != nil {
		// Ledger trouble must not silence the digest; at worst it repeats.
		j.logger.Warn("reminder ledger unavailable, sending anyway", "error", err)
	} else if !first {
		j.logger.Debug("digest already sent for this window", "key", key)
		return nil
	}

	doc, err := j.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load schedule: %w", err)
	}

	day := timeutil.WeekdayNameID(now)
	message := digestMessage(day, doc.SlotsFor(day))

	result, err := j.sink.Broadcast(ctx, message)
	if err != nil {
		return fmt.Errorf("broadcast digest: %w", err)
	}

	j.logger.Info("morning digest sent",
		"day", day,
		"recipients", result.Recipients,
		"sent", result.Sent,
		"failed", len(result.Failed),
	)

	return nil
}

// digestMessage builds the morning greeting, with the day's schedule appended
// when there is one.
func digestMessage(day string, slots []kuliah.ClassSlot) string {
	var b strings.Builder
	b.WriteString("⏰ Selamat pagi! Jangan lupa kuliah hari ini.")

	if len(slots) == 0 {
		return b.String()
	}

	b.WriteString(fmt.Sprintf("\n\n📅 Jadwal %s:", day))
	for i, slot := range slots {
		b.WriteString(fmt.Sprintf("\n%d. %s (%s) - %s", i+1, slot.Course, slot.Time, slot.Note))
	}
	return b.String()
}
