// Package ledger holds the pure session ledger: daily records, rewards,
// streaks, achievements and the month calendar projection.
package ledger

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

const (
	// MinGoal and MaxGoal bound the configurable daily goal.
	MinGoal = 1
	MaxGoal = 4

	// DefaultGoal is the daily goal of a fresh tracker.
	DefaultGoal = 4

	// SentinelKey stores the tracked month for month-scoped ledgers.
	SentinelKey = "currentYearMonth"
)

// DailyRecord is the persisted state of one calendar day.
type DailyRecord struct {
	Sessions int    `json:"sessions"`
	Note     string `json:"note,omitempty"`
}

// Ledger maps date keys to daily records. The zero value is not usable;
// call NewLedger.
type Ledger struct {
	Days             map[string]DailyRecord
	CurrentYearMonth string
}

// NewLedger returns an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{Days: make(map[string]DailyRecord)}
}

// Get returns the record for a day. Missing days read as zero sessions.
func (l *Ledger) Get(key string) DailyRecord {
	if l == nil || l.Days == nil {
		return DailyRecord{}
	}
	return l.Days[key]
}

// Sessions returns the completed session count for the day containing t.
func (l *Ledger) Sessions(t time.Time) int {
	return l.Get(DateKey(t)).Sessions
}

// Set stores rec under key.
func (l *Ledger) Set(key string, rec DailyRecord) {
	if l.Days == nil {
		l.Days = make(map[string]DailyRecord)
	}
	l.Days[key] = rec
}

// Len returns the number of recorded days.
func (l *Ledger) Len() int {
	if l == nil {
		return 0
	}
	return len(l.Days)
}

// Clone returns a deep copy.
func (l *Ledger) Clone() *Ledger {
	if l == nil {
		return NewLedger()
	}
	c := &Ledger{
		Days:             make(map[string]DailyRecord, len(l.Days)),
		CurrentYearMonth: l.CurrentYearMonth,
	}
	for k, v := range l.Days {
		c.Days[k] = v
	}
	return c
}

// HasNote reports whether any day carries a non-empty note.
func (l *Ledger) HasNote() bool {
	if l == nil {
		return false
	}
	for _, rec := range l.Days {
		if rec.Note != "" {
			return true
		}
	}
	return false
}

// MarshalJSON writes the flat layout: date keys at the top level next to the
// optional currentYearMonth sentinel.
func (l Ledger) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(l.Days)+1)
	for k, v := range l.Days {
		out[k] = v
	}
	if l.CurrentYearMonth != "" {
		out[SentinelKey] = l.CurrentYearMonth
	}
	return json.Marshal(out)
}

// UnmarshalJSON reads the flat layout. Entries that are not valid day
// records or are keyed by something other than a date are dropped; only a
// document that is not a JSON object is an error. When several keys name the
// same day ("2024-3-7", "2024-03-07") the unpadded key wins, otherwise the
// entry with more sessions.
func (l *Ledger) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode ledger: %w", err)
	}

	l.Days = make(map[string]DailyRecord, len(raw))
	l.CurrentYearMonth = ""

	keys := make([]string, 0, len(raw))
	for key := range raw {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	exact := make(map[string]bool)
	for _, key := range keys {
		value := raw[key]
		if key == SentinelKey {
			var ym string
			if err := json.Unmarshal(value, &ym); err == nil {
				l.CurrentYearMonth = ym
			}
			continue
		}

		canonical, err := CanonicalKey(key)
		if err != nil {
			continue
		}

		var rec DailyRecord
		if err := json.Unmarshal(value, &rec); err != nil {
			continue
		}
		if rec.Sessions < 0 {
			rec.Sessions = 0
		}
		if rec.Sessions > MaxGoal {
			rec.Sessions = MaxGoal
		}

		if prev, seen := l.Days[canonical]; seen {
			if exact[canonical] || (key != canonical && rec.Sessions <= prev.Sessions) {
				continue
			}
		}
		l.Days[canonical] = rec
		exact[canonical] = key == canonical
	}

	return nil
}

// State is the tracker-wide configuration and derived history.
type State struct {
	DailyGoal              int      `json:"dailyGoal"`
	LongestStreak          int      `json:"longestStreak"`
	CurrentStreak          int      `json:"currentStreak"`
	UnlockedAchievements   []string `json:"unlockedAchievements"`
	LastBrokenStreakLength int      `json:"lastBrokenStreakLength"`
}

// DefaultState returns the state of a fresh tracker.
func DefaultState() State {
	return State{
		DailyGoal:            DefaultGoal,
		UnlockedAchievements: []string{},
	}
}

// ValidGoal reports whether goal is within the configurable range.
func ValidGoal(goal int) bool {
	return goal >= MinGoal && goal <= MaxGoal
}

// Normalize repairs values a hand-edited or older document may carry.
func (s *State) Normalize() {
	if !ValidGoal(s.DailyGoal) {
		s.DailyGoal = DefaultGoal
	}
	if s.LongestStreak < 0 {
		s.LongestStreak = 0
	}
	if s.CurrentStreak < 0 {
		s.CurrentStreak = 0
	}
	if s.LastBrokenStreakLength < 0 {
		s.LastBrokenStreakLength = 0
	}

	seen := make(map[string]bool, len(s.UnlockedAchievements))
	ids := make([]string, 0, len(s.UnlockedAchievements))
	for _, id := range s.UnlockedAchievements {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	s.UnlockedAchievements = ids
}

// IsUnlocked reports whether id is in the unlocked set.
func (s *State) IsUnlocked(id string) bool {
	for _, u := range s.UnlockedAchievements {
		if u == id {
			return true
		}
	}
	return false
}

// Unlock adds id to the unlocked set. It returns false when id was already
// unlocked.
func (s *State) Unlock(id string) bool {
	if s.IsUnlocked(id) {
		return false
	}
	s.UnlockedAchievements = append(s.UnlockedAchievements, id)
	return true
}
