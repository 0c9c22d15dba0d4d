package ledger

import "time"

// Bucket classifies a day by completed sessions for the calendar.
type Bucket int

const (
	BucketNone Bucket = iota
	BucketOne
	BucketTwo
	BucketThree
	BucketFour
)

var bucketNames = [...]string{"no-sessions", "one-session", "two-sessions", "three-sessions", "four-sessions"}

func (b Bucket) String() string {
	if b < BucketNone || b > BucketFour {
		return bucketNames[BucketNone]
	}
	return bucketNames[b]
}

// BucketFor maps a session count to its calendar bucket.
func BucketFor(sessions int) Bucket {
	if sessions < 1 || sessions > MaxGoal {
		return BucketNone
	}
	return Bucket(sessions)
}

var romanNumerals = [MaxGoal]string{"I", "II", "III", "IV"}

// Roman returns the calendar label for a session count, empty for zero.
func Roman(sessions int) string {
	if sessions < 1 || sessions > MaxGoal {
		return ""
	}
	return romanNumerals[sessions-1]
}

// Position places a calendar day relative to today.
type Position int

const (
	Past Position = iota
	Today
	Future
)

// CalendarDay is one cell of the month calendar.
type CalendarDay struct {
	Day      int
	Key      string
	Sessions int
	Bucket   Bucket
	Label    string
	Position Position
	// Inactive marks a past day with nothing completed.
	Inactive bool
	HasNote  bool
}

// Month is the calendar projection of one month.
type Month struct {
	Year  int
	Month time.Month
	Days  []CalendarDay
}

// MonthView builds the calendar for the month containing now. Future days
// carry no bucket; past and current days are classified by session count.
func MonthView(l *Ledger, now time.Time) Month {
	today := StartOfDay(now)
	year, month := today.Year(), today.Month()

	m := Month{Year: year, Month: month, Days: make([]CalendarDay, 0, DaysInMonth(year, month))}
	forEachDayOfMonth(year, month, func(key string) {
		rec := l.Get(key)
		day := len(m.Days) + 1

		cd := CalendarDay{
			Day:      day,
			Key:      key,
			Sessions: rec.Sessions,
			Label:    Roman(rec.Sessions),
			HasNote:  rec.Note != "",
		}

		switch {
		case day < today.Day():
			cd.Position = Past
			cd.Bucket = BucketFor(rec.Sessions)
			cd.Inactive = rec.Sessions == 0
		case day == today.Day():
			cd.Position = Today
			cd.Bucket = BucketFor(rec.Sessions)
		default:
			cd.Position = Future
		}

		m.Days = append(m.Days, cd)
	})
	return m
}

// Retention selects how history survives a month change.
type Retention int

const (
	// RetainAll keeps every past day; monthly views filter.
	RetainAll Retention = iota
	// ScopeToMonth wipes the ledger when the tracked month changes.
	ScopeToMonth
)

// ParseRetention maps a config value to a Retention. Unknown values keep
// full history.
func ParseRetention(s string) Retention {
	if s == "month" {
		return ScopeToMonth
	}
	return RetainAll
}

func (r Retention) String() string {
	if r == ScopeToMonth {
		return "month"
	}
	return "all"
}

// ScopeTo applies the month-scoped retention policy: when the sentinel
// month differs from yearMonth all days are dropped. It reports whether the
// ledger was wiped.
func (l *Ledger) ScopeTo(yearMonth string) bool {
	stored := l.CurrentYearMonth
	if stored == "" {
		stored = yearMonth
	}
	wiped := false
	if stored != yearMonth {
		l.Days = make(map[string]DailyRecord)
		wiped = true
	}
	l.CurrentYearMonth = yearMonth
	return wiped
}
