package tracker

import (
	"context"

	"github.com/goodtune/habitledger/internal/ledger"
	"github.com/goodtune/habitledger/internal/metrics"
)

// View is a read-only projection of the tracker for a renderer. It shares no
// memory with the tracker.
type View struct {
	Title         string
	Today         string
	Goal          int
	TodaySessions int
	TodayNote     string
	Buttons       []ledger.Button

	TotalReward    float64
	MonthReward    float64
	MaxMonthReward float64
	Progress       ledger.Progress

	// StreakThroughToday counts consecutive days ending today; it is zero
	// until today's first session. CurrentStreak also counts a run ending
	// yesterday, which stays open until the day is over.
	StreakThroughToday int
	CurrentStreak      int
	LongestStreak      int
	LastBrokenStreak   int

	Month        ledger.Month
	Achievements []AchievementStatus
	Notes        map[string]string
}

// AchievementStatus is one gallery entry.
type AchievementStatus struct {
	ledger.Achievement
	Unlocked bool
	Custom   bool
}

// UnlockedCount returns how many gallery entries are unlocked.
func (v View) UnlockedCount() int {
	n := 0
	for _, a := range v.Achievements {
		if a.Unlocked {
			n++
		}
	}
	return n
}

// Snapshot derives the current view. It runs the rollover check first so a
// view taken after midnight never shows yesterday as today.
func (t *Tracker) Snapshot() View {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.rollover(context.Background())

	goal := t.state.DailyGoal
	today := t.ledger.Get(t.todayKey)
	progress := ledger.MonthProgress(t.ledger, t.today, goal)

	v := View{
		Title:              t.title,
		Today:              t.todayKey,
		Goal:               goal,
		TodaySessions:      today.Sessions,
		TodayNote:          today.Note,
		Buttons:            ledger.Buttons(today.Sessions, goal),
		TotalReward:        ledger.TotalReward(t.ledger),
		MonthReward:        progress.Earned,
		MaxMonthReward:     progress.Max,
		Progress:           progress,
		StreakThroughToday: ledger.CurrentStreak(t.ledger, t.today),
		CurrentStreak:      t.state.CurrentStreak,
		LongestStreak:      t.state.LongestStreak,
		LastBrokenStreak:   t.state.LastBrokenStreakLength,
		Month:              t.monthView(),
		Achievements:       t.gallery(),
		Notes:              make(map[string]string),
	}

	for key, rec := range t.ledger.Days {
		if rec.Note != "" {
			v.Notes[key] = rec.Note
		}
	}

	return v
}

// monthView returns the calendar of the observed month, cached per day.
func (t *Tracker) monthView() ledger.Month {
	if m, ok := t.views.Get(t.todayKey); ok {
		metrics.ViewCacheLookups.WithLabelValues("hit").Inc()
		return copyMonth(m)
	}
	metrics.ViewCacheLookups.WithLabelValues("miss").Inc()

	m := ledger.MonthView(t.ledger, t.today)
	t.views.Add(t.todayKey, m)
	return copyMonth(m)
}

func copyMonth(m ledger.Month) ledger.Month {
	days := make([]ledger.CalendarDay, len(m.Days))
	copy(days, m.Days)
	m.Days = days
	return m
}

// gallery lists the built-in catalog followed by rule-defined achievements.
func (t *Tracker) gallery() []AchievementStatus {
	var out []AchievementStatus
	for _, a := range ledger.Catalog() {
		out = append(out, AchievementStatus{Achievement: a, Unlocked: t.state.IsUnlocked(a.ID)})
	}
	if t.rules != nil {
		for _, a := range t.rules.Catalog() {
			out = append(out, AchievementStatus{Achievement: a, Unlocked: t.state.IsUnlocked(a.ID), Custom: true})
		}
	}
	return out
}
