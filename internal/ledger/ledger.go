// Package ledger keeps attendance events partitioned by calendar month: the
// current month in the active ledger, closed months in the archive.
package ledger

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/kozaktomas/face-attendance/internal/apperr"
	"github.com/kozaktomas/face-attendance/internal/constants"
	"github.com/kozaktomas/face-attendance/internal/database"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Clock returns the current time
type Clock func() time.Time

// Ledger owns the active ledger and the archive under a single lock.
// Writes are persisted before they become visible in memory.
type Ledger struct {
	mu      sync.RWMutex
	active  []database.AttendanceEvent
	archive database.Archive

	activeStore  database.LedgerStore
	archiveStore database.ArchiveStore
	now          Clock
	loc          *time.Location
	logger       *zap.Logger
}

// Option configures a Ledger
type Option func(*Ledger)

// WithClock sets the time source
func WithClock(now Clock) Option {
	return func(l *Ledger) { l.now = now }
}

// WithLocation sets the time zone periods and dates are derived in
func WithLocation(loc *time.Location) Option {
	return func(l *Ledger) {
		if loc != nil {
			l.loc = loc
		}
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(l *Ledger) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// New loads the active ledger and the archive concurrently.
func New(ctx context.Context, activeStore database.LedgerStore, archiveStore database.ArchiveStore, opts ...Option) (*Ledger, error) {
	l := &Ledger{
		activeStore:  activeStore,
		archiveStore: archiveStore,
		now:          time.Now,
		loc:          time.Local,
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		active, err := activeStore.LoadActive(gctx)
		if err != nil {
			return fmt.Errorf("load attendance: %w", err)
		}
		l.active = active
		return nil
	})
	g.Go(func() error {
		archive, err := archiveStore.LoadArchive(gctx)
		if err != nil {
			return fmt.Errorf("load monthly attendance: %w", err)
		}
		if archive == nil {
			archive = make(database.Archive)
		}
		l.archive = archive
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return l, nil
}

// Now returns the current time in the ledger's time zone
func (l *Ledger) Now() time.Time {
	return l.now().In(l.loc)
}

// Location returns the ledger's time zone
func (l *Ledger) Location() *time.Location {
	return l.loc
}

// PeriodOf returns the YYYY-MM period a timestamp belongs to
func (l *Ledger) PeriodOf(t time.Time) string {
	return t.In(l.loc).Format(constants.PeriodLayout)
}

// CurrentPeriod returns the period of the current time
func (l *Ledger) CurrentPeriod() string {
	return l.PeriodOf(l.now())
}

// ParsePeriod validates a YYYY-MM period key
func ParsePeriod(period string) (string, error) {
	t, err := time.Parse(constants.PeriodLayout, period)
	if err != nil || t.Format(constants.PeriodLayout) != period {
		return "", apperr.Validation("invalid month format, expected YYYY-MM").WithDetail("month", period)
	}
	return period, nil
}

// Append persists an event and then adds it to the active ledger. A zero
// timestamp is set to now; date, time and status are derived when empty.
func (l *Ledger) Append(ctx context.Context, event database.AttendanceEvent) (database.AttendanceEvent, error) {
	if event.Timestamp.IsZero() {
		event.Timestamp = l.now()
	}
	local := event.Timestamp.In(l.loc)
	if event.Date == "" {
		event.Date = local.Format(time.DateOnly)
	}
	if event.Time == "" {
		event.Time = local.Format(time.TimeOnly)
	}
	if event.Status == "" {
		event.Status = database.StatusPresent
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	next := make([]database.AttendanceEvent, len(l.active), len(l.active)+1)
	copy(next, l.active)
	next = append(next, event)

	err := database.RetryOnce(ctx, database.DocumentActive, func(ctx context.Context) error {
		return l.activeStore.SaveActive(ctx, next)
	})
	if err != nil {
		return database.AttendanceEvent{}, err
	}

	l.active = next
	return event, nil
}

// ListCurrent returns the newest active events first, at most limit of them.
// A non-positive limit uses the default cap.
func (l *Ledger) ListCurrent(limit int) []database.AttendanceEvent {
	if limit <= 0 {
		limit = constants.DefaultRecordsLimit
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	n := min(limit, len(l.active))
	out := make([]database.AttendanceEvent, 0, n)
	for i := len(l.active) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, l.active[i])
	}
	return out
}

// Len returns the number of events in the active ledger
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.active)
}

// PeriodEvents returns a period's events in chronological order. Active
// events of the period that have not been rolled over yet are included,
// except those already archived by an interrupted rollover.
func (l *Ledger) PeriodEvents(period string) ([]database.AttendanceEvent, error) {
	if _, err := ParsePeriod(period); err != nil {
		return nil, err
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	archived := l.archive[period]
	out := append([]database.AttendanceEvent(nil), archived...)
	for _, e := range l.active {
		if l.PeriodOf(e.Timestamp) == period && !containsTimestamp(archived, e.Timestamp) {
			out = append(out, e)
		}
	}
	return out, nil
}

// archivedActive counts active events that are also present in the archive.
// Must be called with mu held.
func (l *Ledger) archivedActive() int {
	n := 0
	for _, e := range l.active {
		if containsTimestamp(l.archive[l.PeriodOf(e.Timestamp)], e.Timestamp) {
			n++
		}
	}
	return n
}

// ListPeriod returns a period's events newest first, without a cap.
// An unknown period yields an empty list.
func (l *Ledger) ListPeriod(period string) ([]database.AttendanceEvent, error) {
	events, err := l.PeriodEvents(period)
	if err != nil {
		return nil, err
	}
	slices.Reverse(events)
	return events, nil
}

// Periods returns the archived periods plus the current one when the active
// ledger is non-empty, newest first.
func (l *Ledger) Periods() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	set := make(map[string]struct{}, len(l.archive)+1)
	for period := range l.archive {
		set[period] = struct{}{}
	}
	if len(l.active) > 0 {
		set[l.CurrentPeriod()] = struct{}{}
	}

	periods := slices.Collect(maps.Keys(set))
	slices.Sort(periods)
	slices.Reverse(periods)
	return periods
}

// Rollover moves every active event outside the current period into the
// archive and returns how many events left the active ledger. An event whose
// timestamp is already archived under its period is not inserted again, so
// repeating a rollover, or resuming one interrupted between the two writes,
// never duplicates events.
func (l *Ledger) Rollover(ctx context.Context) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.active) == 0 {
		return 0, nil
	}

	current := l.CurrentPeriod()
	var keep, old []database.AttendanceEvent
	for _, e := range l.active {
		if l.PeriodOf(e.Timestamp) == current {
			keep = append(keep, e)
		} else {
			old = append(old, e)
		}
	}
	if len(old) == 0 {
		return 0, nil
	}

	archive := l.archive.Clone()
	inserted := 0
	for _, e := range old {
		period := l.PeriodOf(e.Timestamp)
		if containsTimestamp(archive[period], e.Timestamp) {
			continue
		}
		archive[period] = append(archive[period], e)
		inserted++
	}

	// The archive is written first: a failure before the active ledger is
	// saved leaves events in both documents, which the next rollover dedupes.
	err := database.RetryOnce(ctx, database.DocumentArchive, func(ctx context.Context) error {
		return l.archiveStore.SaveArchive(ctx, archive)
	})
	if err != nil {
		return 0, err
	}
	l.archive = archive

	if keep == nil {
		keep = []database.AttendanceEvent{}
	}
	err = database.RetryOnce(ctx, database.DocumentActive, func(ctx context.Context) error {
		return l.activeStore.SaveActive(ctx, keep)
	})
	if err != nil {
		return 0, err
	}
	l.active = keep

	l.logger.Info("rolled over attendance",
		zap.Int("moved", len(old)),
		zap.Int("inserted", inserted),
		zap.Int("remaining", len(keep)),
		zap.String("current_period", current))

	return len(old), nil
}

// RunRollover calls Rollover every interval until ctx is done. Failures are
// logged and retried on the next tick. onMoved, when set, receives the count
// of every rollover that moved events.
func (l *Ledger) RunRollover(ctx context.Context, interval time.Duration, onMoved func(int)) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			moved, err := l.Rollover(ctx)
			if err != nil {
				l.logger.Error("scheduled rollover failed", zap.Error(err))
				continue
			}
			if moved > 0 && onMoved != nil {
				onMoved(moved)
			}
		}
	}
}

func containsTimestamp(events []database.AttendanceEvent, ts time.Time) bool {
	for _, e := range events {
		if e.Timestamp.Equal(ts) {
			return true
		}
	}
	return false
}
