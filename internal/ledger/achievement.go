package ledger

import "time"

// Achievement identifiers.
const (
	PerfectDay   = "PERFECT_DAY"
	PerfectWeek  = "PERFECT_WEEK"
	PerfectMonth = "PERFECT_MONTH"
	Streak7      = "STREAK_7"
	Streak30     = "STREAK_30"
	Streak100    = "STREAK_100"
	First10      = "FIRST_10"
	First50      = "FIRST_50"
	First100     = "FIRST_100"
	FirstNote    = "FIRST_NOTE"
	TitleSet     = "TITLE_SET"
	Comeback     = "COMEBACK"
)

// Achievement is a catalog entry.
type Achievement struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

// Facts is the derived state achievement predicates are evaluated against.
type Facts struct {
	Today            DailyRecord
	Goal             int
	CurrentStreak    int
	LastBrokenStreak int
	TotalReward      float64
	PerfectWeek      bool
	PerfectMonth     bool
	NoteWritten      bool
	TitleCustomized  bool
}

type rule struct {
	Achievement
	pred func(Facts) bool
}

var catalog = []rule{
	{Achievement{PerfectDay, "Perfect Day!", "Complete all sessions for your daily goal.", "🎯"},
		func(f Facts) bool { return f.Goal > 0 && f.Today.Sessions == f.Goal }},
	{Achievement{PerfectWeek, "Perfect Week!", "Complete your daily goal every day for 7 days.", "🌟"},
		func(f Facts) bool { return f.PerfectWeek }},
	{Achievement{PerfectMonth, "Perfect Month!", "Complete your daily goal every day of a calendar month.", "🏆"},
		func(f Facts) bool { return f.PerfectMonth }},
	{Achievement{Streak7, "7-Day Streak!", "Maintain a streak for 7 days.", "🔥"},
		func(f Facts) bool { return f.CurrentStreak >= 7 }},
	{Achievement{Streak30, "30-Day Streak!", "Maintain a streak for a whole month.", "🚀"},
		func(f Facts) bool { return f.CurrentStreak >= 30 }},
	{Achievement{Streak100, "100-Day Streak!", "Maintain a streak for 100 days.", "💯"},
		func(f Facts) bool { return f.CurrentStreak >= 100 }},
	{Achievement{First10, "First €10 Earned!", "Earn your first €10.", "💰"},
		func(f Facts) bool { return f.TotalReward >= 10 }},
	{Achievement{First50, "€50 Earned!", "Earn a total of €50.", "💵"},
		func(f Facts) bool { return f.TotalReward >= 50 }},
	{Achievement{First100, "€100 Earned!", "Earn a total of €100.", "🏦"},
		func(f Facts) bool { return f.TotalReward >= 100 }},
	{Achievement{FirstNote, "Dear Diary", "Write your first note.", "📝"},
		func(f Facts) bool { return f.NoteWritten }},
	{Achievement{TitleSet, "Make It Yours", "Give your tracker a custom title.", "✏️"},
		func(f Facts) bool { return f.TitleCustomized }},
	{Achievement{Comeback, "Comeback!", "Build a new 3-day streak after losing one.", "💪"},
		func(f Facts) bool { return f.LastBrokenStreak > 0 && f.CurrentStreak >= 3 }},
}

// Catalog returns the built-in achievements in display order.
func Catalog() []Achievement {
	out := make([]Achievement, len(catalog))
	for i, r := range catalog {
		out[i] = r.Achievement
	}
	return out
}

// Lookup returns the built-in achievement with the given id.
func Lookup(id string) (Achievement, bool) {
	for _, r := range catalog {
		if r.ID == id {
			return r.Achievement, true
		}
	}
	return Achievement{}, false
}

// Evaluate returns the achievements whose predicates hold for f and that are
// not yet in unlocked, in catalog order. It does not modify unlocked.
func Evaluate(f Facts, unlocked []string) []Achievement {
	have := make(map[string]bool, len(unlocked))
	for _, id := range unlocked {
		have[id] = true
	}

	var fresh []Achievement
	for _, r := range catalog {
		if have[r.ID] {
			continue
		}
		if r.pred(f) {
			fresh = append(fresh, r.Achievement)
		}
	}
	return fresh
}

// IsPerfectWeek reports whether each of the seven days ending today met goal.
func IsPerfectWeek(l *Ledger, today time.Time, goal int) bool {
	if goal <= 0 {
		return false
	}
	for i := 0; i < 7; i++ {
		if l.Sessions(daysBack(today, i)) != goal {
			return false
		}
	}
	return true
}

// IsPerfectMonth reports whether every day of today's month met goal. It is
// only true on the last day of the month, once the month's length is reached.
func IsPerfectMonth(l *Ledger, today time.Time, goal int) bool {
	if goal <= 0 {
		return false
	}
	year, month := today.Year(), today.Month()
	if today.Day() != DaysInMonth(year, month) {
		return false
	}

	perfect := true
	forEachDayOfMonth(year, month, func(key string) {
		if l.Get(key).Sessions != goal {
			perfect = false
		}
	})
	return perfect
}
