package ledger

import "time"

// MaxStreakLookback bounds how far back CurrentStreak walks.
const MaxStreakLookback = 365

// CurrentStreak counts consecutive days ending today with at least one
// completed session. A missing or empty today ends the streak at zero.
func CurrentStreak(l *Ledger, today time.Time) int {
	streak := 0
	for i := 0; i < MaxStreakLookback; i++ {
		if l.Sessions(daysBack(today, i)) <= 0 {
			break
		}
		streak++
	}
	return streak
}

// ApplyStreak records a freshly computed current streak. LongestStreak is a
// high-water mark and never decreases. When a running streak drops to zero
// its length is kept in LastBrokenStreakLength.
func (s *State) ApplyStreak(current int) {
	if current < 0 {
		current = 0
	}
	if s.CurrentStreak > 0 && current == 0 {
		s.LastBrokenStreakLength = s.CurrentStreak
	}
	s.CurrentStreak = current
	if current > s.LongestStreak {
		s.LongestStreak = current
	}
}

// LiveStreak is the streak the tracker keeps in State. While today has no
// session yet the run ending yesterday is still open, so a streak only breaks
// once a whole calendar day passes without a session.
func LiveStreak(l *Ledger, today time.Time) int {
	if l.Sessions(today) > 0 {
		return CurrentStreak(l, today)
	}
	return CurrentStreak(l, daysBack(today, 1))
}
