// Package tracker owns the title, ledger and state of one habit tracker and
// runs the update cycle (rewards, streaks, achievements, persistence) after
// every mutation.
package tracker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/goodtune/habitledger/internal/cue"
	"github.com/goodtune/habitledger/internal/ledger"
	"github.com/goodtune/habitledger/internal/metrics"
	"github.com/goodtune/habitledger/internal/storage"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"
)

const (
	// DefaultTitle is shown until the user sets one.
	DefaultTitle = "Reward Tracker"

	// DefaultViewCacheSize is the number of month views kept.
	DefaultViewCacheSize = 12
)

var (
	// ErrInvalidSession is returned for a session index outside 1..goal.
	ErrInvalidSession = errors.New("tracker: session index out of range")

	// ErrInvalidGoal is returned for a daily goal outside 1..4.
	ErrInvalidGoal = fmt.Errorf("tracker: daily goal must be between %d and %d", ledger.MinGoal, ledger.MaxGoal)

	// ErrFutureDate is returned when a note targets a day after today.
	ErrFutureDate = errors.New("tracker: notes can only be written for today or earlier")
)

// RuleSet evaluates achievements defined outside the built-in catalog.
type RuleSet interface {
	Catalog() []ledger.Achievement
	Evaluate(ctx context.Context, f ledger.Facts, unlocked []string) ([]ledger.Achievement, error)
}

// Config holds tracker configuration
type Config struct {
	Clock        Clock
	Retention    ledger.Retention
	Rules        RuleSet    // optional
	Cues         cue.Player // optional
	DefaultTitle string
	CacheSize    int
	Exporter     *metrics.TextfileExporter // optional
}

// Tracker is the single mutable session state of the process. All methods
// are serialised by one mutex so user input and the rollover tick never
// interleave.
type Tracker struct {
	records      storage.RecordStore
	clock        Clock
	retention    ledger.Retention
	rules        RuleSet
	cues         cue.Player
	defaultTitle string
	exporter     *metrics.TextfileExporter
	views        *lru.Cache[string, ledger.Month]
	logger       zerolog.Logger

	mu       sync.Mutex
	title    string
	ledger   *ledger.Ledger
	state    ledger.State
	today    time.Time
	todayKey string
	pending  error
}

// ToggleResult describes the outcome of a toggle
type ToggleResult struct {
	Sessions    int
	Activated   bool
	GoalReached bool
	Unlocked    []ledger.Achievement
}

// New creates a tracker with default content. Call Load to read the store.
func New(records storage.RecordStore, config Config, logger zerolog.Logger) (*Tracker, error) {
	if config.Clock == nil {
		config.Clock = RealClock{}
	}
	if config.Cues == nil {
		config.Cues = cue.Nop{}
	}
	if strings.TrimSpace(config.DefaultTitle) == "" {
		config.DefaultTitle = DefaultTitle
	}
	if config.CacheSize <= 0 {
		config.CacheSize = DefaultViewCacheSize
	}

	views, err := lru.New[string, ledger.Month](config.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create view cache: %w", err)
	}

	t := &Tracker{
		records:      records,
		clock:        config.Clock,
		retention:    config.Retention,
		rules:        config.Rules,
		cues:         config.Cues,
		defaultTitle: strings.TrimSpace(config.DefaultTitle),
		exporter:     config.Exporter,
		views:        views,
		logger:       logger.With().Str("component", "tracker").Logger(),
		ledger:       ledger.NewLedger(),
		state:        ledger.DefaultState(),
	}
	t.title = t.defaultTitle
	t.observe(t.clock.Now())

	return t, nil
}

// Load reads the three records from the store. Missing or unreadable records
// fall back to defaults; Load itself never fails on content.
func (t *Tracker) Load(ctx context.Context) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.clock.Now()

	t.title = t.defaultTitle
	if raw, ok := t.read(ctx, storage.KeyHabitTitle); ok {
		if title := strings.TrimSpace(string(raw)); title != "" {
			t.title = title
		}
	}

	t.ledger = ledger.NewLedger()
	if raw, ok := t.read(ctx, storage.KeySessionData); ok {
		l := ledger.NewLedger()
		if err := json.Unmarshal(raw, l); err != nil {
			t.fallback(storage.KeySessionData, err)
		} else {
			t.ledger = l
		}
	}

	t.state = ledger.DefaultState()
	if raw, ok := t.read(ctx, storage.KeyTrackerState); ok {
		state := ledger.DefaultState()
		if err := json.Unmarshal(raw, &state); err != nil {
			t.fallback(storage.KeyTrackerState, err)
		} else {
			t.state = state
		}
	}
	t.state.Normalize()

	t.observe(now)
	changed := t.applyRetention()

	before := t.state
	t.state.ApplyStreak(ledger.LiveStreak(t.ledger, t.today))
	if before.CurrentStreak != t.state.CurrentStreak || before.LongestStreak != t.state.LongestStreak {
		changed = true
	}

	t.views.Purge()

	t.logger.Debug().
		Str("title", t.title).
		Int("days", t.ledger.Len()).
		Int("goal", t.state.DailyGoal).
		Int("current_streak", t.state.CurrentStreak).
		Msg("Tracker loaded")

	if changed {
		t.persist(ctx)
	}
	t.publish()
}

// read fetches one record. It reports false when the caller should keep the
// default, logging anything other than a missing key.
func (t *Tracker) read(ctx context.Context, key storage.Key) ([]byte, bool) {
	raw, err := t.records.Get(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, false
	}
	if err != nil {
		t.fallback(key, err)
		return nil, false
	}
	return raw, true
}

func (t *Tracker) fallback(key storage.Key, err error) {
	metrics.StorageLoadFallbacks.WithLabelValues(string(key)).Inc()
	t.logger.Warn().Err(err).Str("key", string(key)).Msg("Unreadable record, using defaults")
}

// observe moves the current-day pointer to the day containing now.
func (t *Tracker) observe(now time.Time) {
	t.today = ledger.StartOfDay(now)
	t.todayKey = ledger.DateKey(now)
}

// applyRetention applies the configured retention policy to the observed
// month and reports whether the ledger changed.
func (t *Tracker) applyRetention() bool {
	if t.retention != ledger.ScopeToMonth {
		return false
	}
	yearMonth := ledger.YearMonthKey(t.today)
	stored := t.ledger.CurrentYearMonth
	if t.ledger.ScopeTo(yearMonth) {
		t.logger.Info().
			Str("from", stored).
			Str("to", yearMonth).
			Msg("Month changed, history cleared")
	}
	return stored != yearMonth
}

// rollover checks for a calendar day change. Callers hold the lock.
func (t *Tracker) rollover(ctx context.Context) bool {
	now := t.clock.Now()
	if !ledger.HasDateChanged(t.todayKey, now) {
		return false
	}

	previous := t.todayKey
	t.observe(now)
	t.applyRetention()
	t.state.ApplyStreak(ledger.LiveStreak(t.ledger, t.today))
	t.views.Purge()

	metrics.Rollovers.Inc()
	t.logger.Info().
		Str("from", previous).
		Str("to", t.todayKey).
		Int("current_streak", t.state.CurrentStreak).
		Msg("Day rolled over")

	t.persist(ctx)
	t.publish()
	return true
}

// Tick runs the day-rollover check and reports whether the day changed
func (t *Tracker) Tick(ctx context.Context) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.rollover(ctx)
}

// Toggle applies the monotonic prefix rule to session n of today
func (t *Tracker) Toggle(ctx context.Context, n int) (ToggleResult, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.rollover(ctx)

	goal := t.state.DailyGoal
	if n < 1 || n > goal {
		return ToggleResult{}, fmt.Errorf("%w: %d (goal is %d)", ErrInvalidSession, n, goal)
	}

	rec := t.ledger.Get(t.todayKey)
	current := rec.Sessions
	rec.Sessions = ledger.ToggleSession(current, n, goal)
	t.ledger.Set(t.todayKey, rec)

	result := ToggleResult{
		Sessions:  rec.Sessions,
		Activated: rec.Sessions > current,
	}
	result.GoalReached = result.Activated && n == goal

	direction := "down"
	if result.Activated {
		direction = "up"
	}
	metrics.SessionsToggled.WithLabelValues(direction).Inc()

	t.logger.Debug().
		Str("date", t.todayKey).
		Int("session", n).
		Int("from", current).
		Int("to", rec.Sessions).
		Msg("Session toggled")

	result.Unlocked = t.update(ctx)

	// cue only on activation, after the cycle has settled
	if result.Activated {
		if result.GoalReached {
			t.cues.Play(cue.Goal)
		} else {
			t.cues.Play(cue.Session)
		}
	}

	return result, nil
}

// SetNote stores a trimmed note for dateKey, creating an empty day record
// when none exists. Notes are accepted up to and including today.
func (t *Tracker) SetNote(ctx context.Context, dateKey, text string) ([]ledger.Achievement, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.rollover(ctx)

	day, err := ledger.ParseDateKey(dateKey, t.today.Location())
	if err != nil {
		return nil, err
	}
	if day.After(t.today) {
		return nil, fmt.Errorf("%w: %s", ErrFutureDate, dateKey)
	}

	key := ledger.DateKey(day)
	rec := t.ledger.Get(key)
	rec.Note = strings.TrimSpace(text)
	t.ledger.Set(key, rec)

	metrics.NotesWritten.Inc()
	t.logger.Debug().Str("date", key).Int("length", len(rec.Note)).Msg("Note saved")

	return t.update(ctx), nil
}

// SetGoal changes the daily goal. Today's count is capped at the new goal.
// An invalid goal leaves the previous one in place.
func (t *Tracker) SetGoal(ctx context.Context, goal int) ([]ledger.Achievement, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.rollover(ctx)

	if !ledger.ValidGoal(goal) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidGoal, goal)
	}

	previous := t.state.DailyGoal
	t.state.DailyGoal = goal

	if rec := t.ledger.Get(t.todayKey); rec.Sessions > goal {
		rec.Sessions = goal
		t.ledger.Set(t.todayKey, rec)
	}

	t.logger.Info().Int("from", previous).Int("to", goal).Msg("Daily goal changed")

	return t.update(ctx), nil
}

// SetTitle sets the tracker title. A blank title restores the default.
func (t *Tracker) SetTitle(ctx context.Context, title string) ([]ledger.Achievement, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.rollover(ctx)

	title = strings.TrimSpace(title)
	if title == "" {
		title = t.defaultTitle
	}
	t.title = title

	t.logger.Debug().Str("title", title).Msg("Title changed")

	return t.update(ctx), nil
}

// Clear drops all history and resets state to defaults. The title is kept.
func (t *Tracker) Clear(ctx context.Context) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.observe(t.clock.Now())
	t.ledger = ledger.NewLedger()
	if t.retention == ledger.ScopeToMonth {
		t.ledger.CurrentYearMonth = ledger.YearMonthKey(t.today)
	}
	t.state = ledger.DefaultState()
	t.views.Purge()

	t.logger.Info().Msg("Tracker history cleared")

	// Missing records load as defaults, so clearing deletes them. A pending
	// failed write may still hold an unsaved title; rewrite everything then.
	if err := t.purge(ctx); err != nil {
		t.persistFailed(err)
	} else if t.pending != nil {
		t.persist(ctx)
	}
	t.publish()
}

// purge deletes the session data and state records.
func (t *Tracker) purge(ctx context.Context) error {
	for _, key := range []storage.Key{storage.KeySessionData, storage.KeyTrackerState} {
		err := t.records.Delete(ctx, key)
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("delete %s: %w", key, err)
		}
	}
	return nil
}

// StoreMeta reports the revision and time of the last stored write.
func (t *Tracker) StoreMeta(ctx context.Context) (*storage.Meta, error) {
	meta, err := t.records.Meta(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read store meta: %w", err)
	}
	return meta, nil
}

// update is the cycle run after every mutation. Callers hold the lock.
func (t *Tracker) update(ctx context.Context) []ledger.Achievement {
	t.state.ApplyStreak(ledger.LiveStreak(t.ledger, t.today))
	unlocked := t.evaluate(ctx)
	t.views.Purge()
	t.persist(ctx)
	t.publish()
	return unlocked
}

func (t *Tracker) facts() ledger.Facts {
	goal := t.state.DailyGoal
	return ledger.Facts{
		Today:            t.ledger.Get(t.todayKey),
		Goal:             goal,
		CurrentStreak:    t.state.CurrentStreak,
		LastBrokenStreak: t.state.LastBrokenStreakLength,
		TotalReward:      ledger.TotalReward(t.ledger),
		PerfectWeek:      ledger.IsPerfectWeek(t.ledger, t.today, goal),
		PerfectMonth:     ledger.IsPerfectMonth(t.ledger, t.today, goal),
		NoteWritten:      t.ledger.HasNote(),
		TitleCustomized:  t.title != t.defaultTitle,
	}
}

// evaluate unlocks every achievement whose predicate now holds, built-in
// first, then rule-defined. Rule failures are logged and skipped.
func (t *Tracker) evaluate(ctx context.Context) []ledger.Achievement {
	facts := t.facts()
	fresh := ledger.Evaluate(facts, t.state.UnlockedAchievements)

	if t.rules != nil {
		custom, err := t.rules.Evaluate(ctx, facts, t.state.UnlockedAchievements)
		if err != nil {
			metrics.RuleEvaluationErrors.Inc()
			t.logger.Warn().Err(err).Msg("Achievement rule evaluation failed")
		} else {
			fresh = append(fresh, custom...)
		}
	}

	var unlocked []ledger.Achievement
	for _, a := range fresh {
		if !t.state.Unlock(a.ID) {
			continue
		}
		unlocked = append(unlocked, a)
		metrics.AchievementsUnlocked.WithLabelValues(a.ID).Inc()
		t.logger.Info().Str("id", a.ID).Str("name", a.Name).Msg("Achievement unlocked")
	}
	return unlocked
}

// persist rewrites all three records. A failure is logged and counted; the
// in-memory state stays authoritative and the next mutation retries.
func (t *Tracker) persist(ctx context.Context) {
	sessionData, err := json.Marshal(t.ledger)
	if err != nil {
		t.persistFailed(fmt.Errorf("encode session data: %w", err))
		return
	}
	trackerState, err := json.Marshal(t.state)
	if err != nil {
		t.persistFailed(fmt.Errorf("encode tracker state: %w", err))
		return
	}

	err = t.records.PutAll(ctx, map[storage.Key][]byte{
		storage.KeyHabitTitle:   []byte(t.title),
		storage.KeySessionData:  sessionData,
		storage.KeyTrackerState: trackerState,
	})
	if err != nil {
		t.persistFailed(err)
		return
	}

	if t.pending != nil {
		t.logger.Info().Msg("Pending changes persisted")
	}
	t.pending = nil
}

func (t *Tracker) persistFailed(err error) {
	t.pending = err
	metrics.StorageWriteFailures.Inc()
	t.logger.Warn().Err(err).Msg("Failed to persist tracker, keeping changes in memory")
}

// PersistError returns the error of the last failed write, or nil once a
// later write succeeded.
func (t *Tracker) PersistError() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pending
}

// publish refreshes the state gauges and the textfile export.
func (t *Tracker) publish() {
	metrics.CurrentStreak.Set(float64(t.state.CurrentStreak))
	metrics.LongestStreak.Set(float64(t.state.LongestStreak))
	metrics.TotalReward.Set(ledger.TotalReward(t.ledger))
	metrics.DailyGoal.Set(float64(t.state.DailyGoal))
	metrics.TodaySessions.Set(float64(t.ledger.Get(t.todayKey).Sessions))

	if err := t.exporter.Write(); err != nil {
		t.logger.Debug().Err(err).Msg("Metrics export failed")
	}
}
