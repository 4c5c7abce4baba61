package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/faturroziq/bot-atechh/internal/domain/kuliah"
	"github.com/faturroziq/bot-atechh/internal/domain/notification"
	"github.com/faturroziq/bot-atechh/pkg/timeutil"
)

// ClassAlertJob runs every minute and broadcasts an alert for each class that
// starts leadMinutes from now. The ledger guarantees a slot alerts at most
// once per day even when the sweep runs twice in the same minute.
type ClassAlertJob struct {
	store       kuliah.Store
	sink        notification.Sink
	ledger      notification.ReminderLedger
	logger      *slog.Logger
	leadMinutes int
	nowFunc     func() time.Time
}

// NewClassAlertJob creates the class alert job.
func NewClassAlertJob(
	store kuliah.Store,
	sink notification.Sink,
	ledger notification.ReminderLedger,
	leadMinutes int,
	logger *slog.Logger,
) *ClassAlertJob {
	return &ClassAlertJob{
		store:       store,
		sink:        sink,
		ledger:      ledger,
		logger:      logger.With("job", "class_alert"),
		leadMinutes: leadMinutes,
		nowFunc:     timeutil.Now,
	}
}

// Name returns the job name.
func (j *ClassAlertJob) Name() string {
	return "class_alert"
}

// Description returns the job description.
func (j *ClassAlertJob) Description() string {
	return "Alerts every known chat a few minutes before each class starts"
}

// Run checks today's schedule and alerts for every slot whose alert minute is
// the current minute.
func (j *ClassAlertJob) Run(ctx context.Context) error {
	now := timeutil.TruncateMinute(j.nowFunc())
	current := timeutil.Clock{Hour: now.Hour(), Minute: now.Minute()}

	doc, err := j.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load schedule: %w", err)
	}

	day := timeutil.WeekdayNameID(now)

	var errs []error
	for _, slot := range doc.SlotsFor(day) {
		start, err := timeutil.ParseClock(slot.Time)
		if err != nil {
			j.logger.Warn("skipping slot with unparseable time",
				"day", day,
				"course", slot.Course,
				"time", slot.Time,
			)
			continue
		}

		// Slots within leadMinutes of midnight would alert on the previous
		// day; they get no alert rather than a wrapped-around one.
		alertAt, ok := start.SubMinutes(j.leadMinutes)
		if !ok {
			continue
		}
		if alertAt != current {
			continue
		}

		if err := j.alert(ctx, slot, now); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// alert broadcasts a single slot's reminder unless it was already sent.
func (j *ClassAlertJob) alert(ctx context.Context, slot kuliah.ClassSlot, now time.Time) error {
	key := notification.LedgerKey(
		notification.KindClassAlert,
		slot.Course+"@"+slot.Time,
		now,
	)

	// The window is claimed before sending: a broadcast that fails outright
	// is not retried within the same minute. Duplicate alerts are worse than
	// a missed one.
	first, err := j.ledger.MarkSent(ctx, key)
	if err != nil {
		j.logger.Warn("reminder ledger unavailable, sending anyway", "error", err)
	} else if !first {
		j.logger.Debug("alert already sent for this window", "key", key)
		return nil
	}

	message := fmt.Sprintf("⚠️ %d menit lagi %s (%s)", j.leadMinutes, slot.Course, slot.Time)

	result, err := j.sink.Broadcast(ctx, message)
	if err != nil {
		return fmt.Errorf("broadcast alert for %s: %w", slot.Course, err)
	}

	j.logger.Info("class alert sent",
		"course", slot.Course,
		"starts_at", slot.Time,
		"recipients", result.Recipients,
		"sent", result.Sent,
		"failed", len(result.Failed),
	)

	return nil
}
