package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// CRON EXPRESSIONS
// ══════════════════════════════════════════════════════════════════════════════

// fieldSet is the set of allowed values for one cron field, as a bitmask.
// Cron values never exceed 59, so a single uint64 covers every field.
type fieldSet uint64

func (s fieldSet) has(v int) bool { return s&(1<<uint(v)) != 0 }

func (s fieldSet) values(min, max int) []int {
	var out []int
	for v := min; v <= max; v++ {
		if s.has(v) {
			out = append(out, v)
		}
	}
	return out
}

// CronExpression is a parsed 5-field cron expression
// (minute hour day-of-month month day-of-week).
//
//	"*/1 * * * *"  every minute (class alert sweep)
//	"0 5 * * *"    every day at 05:00 (morning digest)
type CronExpression struct {
	raw      string
	minutes  fieldSet // 0-59
	hours    fieldSet // 0-23
	days     fieldSet // 1-31
	months   fieldSet // 1-12
	weekdays fieldSet // 0-6, 0 = Sunday
}

// ParseCronExpression parses a cron expression string. Each field accepts
// "*", "*/n", a single value, a range "a-b" (optionally with "/n"), or a
// comma-separated list.
func ParseCronExpression(expr string) (*CronExpression, error) {
	fields := strings.Fields(expr)
	if len(fields) != 5 {
		return nil, fmt.Errorf("invalid cron expression: expected 5 fields, got %d", len(fields))
	}

	ce := &CronExpression{raw: expr}

	for _, spec := range []struct {
		name     string
		field    string
		min, max int
		dst      *fieldSet
	}{
		{"minute", fields[0], 0, 59, &ce.minutes},
		{"hour", fields[1], 0, 23, &ce.hours},
		{"day", fields[2], 1, 31, &ce.days},
		{"month", fields[3], 1, 12, &ce.months},
		{"weekday", fields[4], 0, 6, &ce.weekdays},
	} {
		set, err := parseFieldSet(spec.field, spec.min, spec.max)
		if err != nil {
			return nil, fmt.Errorf("invalid %s field: %w", spec.name, err)
		}
		*spec.dst = set
	}

	return ce, nil
}

// parseField parses one cron field into its sorted value list.
func parseField(field string, min, max int) ([]int, error) {
	set, err := parseFieldSet(field, min, max)
	if err != nil {
		return nil, err
	}
	return set.values(min, max), nil
}

func parseFieldSet(field string, min, max int) (fieldSet, error) {
	var set fieldSet

	for _, part := range strings.Split(field, ",") {
		part = strings.TrimSpace(part)

		spec, stepStr, hasStep := strings.Cut(part, "/")
		step := 1
		if hasStep {
			n, err := strconv.Atoi(stepStr)
			if err != nil || n <= 0 {
				return 0, fmt.Errorf("invalid step value: %s", stepStr)
			}
			step = n
		}

		start, end := min, max
		switch {
		case spec == "*":
			// full range

		case strings.Contains(spec, "-"):
			lo, hi, _ := strings.Cut(spec, "-")
			var err error
			if start, err = strconv.Atoi(lo); err != nil {
				return 0, fmt.Errorf("invalid range start: %s", lo)
			}
			if end, err = strconv.Atoi(hi); err != nil {
				return 0, fmt.Errorf("invalid range end: %s", hi)
			}

		default:
			v, err := strconv.Atoi(spec)
			if err != nil {
				return 0, fmt.Errorf("invalid value: %s", spec)
			}
			if v < min || v > max {
				return 0, fmt.Errorf("value out of range [%d-%d]: %d", min, max, v)
			}
			start = v
			if hasStep {
				// "n/s" walks from n to the top of the range.
				end = max
			} else {
				end = v
			}
		}

		for v := start; v <= end; v += step {
			if v >= min && v <= max {
				set |= 1 << uint(v)
			}
		}
	}

	if set == 0 {
		return 0, fmt.Errorf("empty field: %s", field)
	}
	return set, nil
}

// String returns the original cron expression.
func (ce *CronExpression) String() string {
	return ce.raw
}

// Next returns the first matching minute strictly after the given time.
// Starting from after+1m keeps a job from firing twice in one minute window.
func (ce *CronExpression) Next(after time.Time) time.Time {
	t := after.Add(time.Minute).Truncate(time.Minute)

	// A valid expression matches within a year; bail out past that.
	limit := t.AddDate(1, 0, 1)
	for t.Before(limit) {
		if ce.matches(t) {
			return t
		}
		t = t.Add(time.Minute)
	}
	return time.Time{}
}

func (ce *CronExpression) matches(t time.Time) bool {
	return ce.minutes.has(t.Minute()) &&
		ce.hours.has(t.Hour()) &&
		ce.days.has(t.Day()) &&
		ce.months.has(int(t.Month())) &&
		ce.weekdays.has(int(t.Weekday()))
}

// Presets for the schedules this bot actually runs.
const (
	EveryMinute = "* * * * *"
	EveryDay5AM = "0 5 * * *"
)

// ══════════════════════════════════════════════════════════════════════════════
// CRON SCHEDULER
// ══════════════════════════════════════════════════════════════════════════════

// CronJob is a registered job together with its schedule and run bookkeeping.
type CronJob struct {
	Name       string
	Expression *CronExpression
	Job        Job
	LastRun    time.Time
	NextRun    time.Time
	RunCount   int64
	Enabled    bool
}

// CronScheduler runs jobs on cron schedules with minute resolution. The loop
// wakes at the top of each minute, so every job fires at most once per
// matching minute.
type CronScheduler struct {
	mu       sync.RWMutex
	jobs     map[string]*CronJob
	logger   *slog.Logger
	location *time.Location
	running  bool
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// CronOption configures the CronScheduler.
type CronOption func(*CronScheduler)

// WithLocation sets the timezone cron expressions are evaluated in.
func WithLocation(loc *time.Location) CronOption {
	return func(cs *CronScheduler) {
		cs.location = loc
	}
}

// WithCronLogger sets the scheduler logger.
func WithCronLogger(logger *slog.Logger) CronOption {
	return func(cs *CronScheduler) {
		cs.logger = logger
	}
}

// NewCronScheduler creates a scheduler. Without options it runs on the local
// timezone and the default slog logger.
func NewCronScheduler(opts ...CronOption) *CronScheduler {
	cs := &CronScheduler{
		jobs:     make(map[string]*CronJob),
		logger:   slog.Default(),
		location: time.Local,
		stopCh:   make(chan struct{}),
	}

	for _, opt := range opts {
		opt(cs)
	}

	return cs
}

// AddJob registers a job under a name. Re-adding a name replaces the job.
func (cs *CronScheduler) AddJob(name string, cronExpr string, job Job) error {
	expr, err := ParseCronExpression(cronExpr)
	if err != nil {
		return fmt.Errorf("failed to parse cron expression: %w", err)
	}

	cs.mu.Lock()
	defer cs.mu.Unlock()

	entry := &CronJob{
		Name:       name,
		Expression: expr,
		Job:        job,
		NextRun:    expr.Next(cs.now()),
		Enabled:    true,
	}
	cs.jobs[name] = entry

	cs.logger.Info("cron job added",
		"job", name,
		"expression", cronExpr,
		"next_run", entry.NextRun.Format(time.RFC3339),
	)

	return nil
}

// EnableJob re-enables a disabled job and recomputes its next run.
func (cs *CronScheduler) EnableJob(name string) error {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	entry, ok := cs.jobs[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrJobNotFound, name)
	}

	entry.Enabled = true
	entry.NextRun = entry.Expression.Next(cs.now())
	return nil
}

// DisableJob keeps the job registered but stops it from firing.
func (cs *CronScheduler) DisableJob(name string) error {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	entry, ok := cs.jobs[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrJobNotFound, name)
	}

	entry.Enabled = false
	return nil
}

// GetJobStatus returns a copy of the job's bookkeeping.
func (cs *CronScheduler) GetJobStatus(name string) (*CronJob, bool) {
	cs.mu.RLock()
	defer cs.mu.RUnlock()

	entry, ok := cs.jobs[name]
	if !ok {
		return nil, false
	}

	copied := *entry
	return &copied, true
}

// ListJobs returns copies of all jobs, soonest next run first.
func (cs *CronScheduler) ListJobs() []*CronJob {
	cs.mu.RLock()
	defer cs.mu.RUnlock()

	out := make([]*CronJob, 0, len(cs.jobs))
	for _, entry := range cs.jobs {
		copied := *entry
		out = append(out, &copied)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].NextRun.Before(out[j].NextRun)
	})

	return out
}

// Start launches the scheduler loop.
func (cs *CronScheduler) Start(ctx context.Context) error {
	cs.mu.Lock()
	if cs.running {
		cs.mu.Unlock()
		return ErrSchedulerAlreadyRunning
	}
	cs.running = true
	cs.stopCh = make(chan struct{})
	cs.mu.Unlock()

	cs.logger.Info("cron scheduler started", "timezone", cs.location.String())

	cs.wg.Add(1)
	go cs.run(ctx)

	return nil
}

// Stop stops the loop and waits for in-flight jobs to return.
func (cs *CronScheduler) Stop() {
	cs.mu.Lock()
	if !cs.running {
		cs.mu.Unlock()
		return
	}
	cs.running = false
	close(cs.stopCh)
	cs.mu.Unlock()

	cs.wg.Wait()
	cs.logger.Info("cron scheduler stopped")
}

func (cs *CronScheduler) run(ctx context.Context) {
	defer cs.wg.Done()

	timer := time.NewTimer(cs.untilNextMinute())
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			cs.logger.Info("cron scheduler context cancelled")
			return

		case <-cs.stopCh:
			return

		case <-timer.C:
			timer.Reset(cs.untilNextMinute())
			cs.dispatchDue(ctx)
		}
	}
}

// untilNextMinute aligns the wakeup with the top of the next minute.
func (cs *CronScheduler) untilNextMinute() time.Duration {
	now := cs.now()
	return time.Until(now.Truncate(time.Minute).Add(time.Minute))
}

func (cs *CronScheduler) now() time.Time {
	return time.Now().In(cs.location)
}

// dispatchDue starts every enabled job whose next run has arrived.
func (cs *CronScheduler) dispatchDue(ctx context.Context) {
	now := cs.now()

	cs.mu.Lock()
	var due []*CronJob
	for _, entry := range cs.jobs {
		if entry.Enabled && !entry.NextRun.After(now) {
			entry.LastRun = now
			entry.NextRun = entry.Expression.Next(now)
			entry.RunCount++
			due = append(due, entry)
		}
	}
	cs.mu.Unlock()

	for _, entry := range due {
		cs.logger.Info("running cron job", "job", entry.Name, "run_count", entry.RunCount)

		// Jobs run concurrently so a slow digest cannot delay the alert sweep.
		cs.wg.Add(1)
		go func(name string, job Job) {
			defer cs.wg.Done()

			start := time.Now()
			if err := job.Run(ctx); err != nil {
				cs.logger.Error("cron job failed",
					"job", name,
					"duration", time.Since(start),
					"error", err,
				)
				return
			}
			cs.logger.Info("cron job completed",
				"job", name,
				"duration", time.Since(start),
			)
		}(entry.Name, entry.Job)
	}
}
