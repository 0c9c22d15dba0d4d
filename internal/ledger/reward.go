package ledger

import (
	"math"
	"time"
)

// SessionValues is the reward for each session index, ascending. The table
// is fixed at four entries and indexed the same way whatever the daily goal.
var SessionValues = [MaxGoal]float64{0.10, 0.42, 1.12, 1.68}

// DayReward returns the unrounded reward for a day with k completed sessions:
// the sum of the first k session values.
func DayReward(k int) float64 {
	k = clamp(k, 0, len(SessionValues))
	var amount float64
	for i := 0; i < k; i++ {
		amount += SessionValues[i]
	}
	return amount
}

// TotalReward sums the reward of every recorded day. Rounding happens once,
// after summing.
func TotalReward(l *Ledger) float64 {
	if l == nil {
		return 0
	}
	var amount float64
	for _, rec := range l.Days {
		amount += DayReward(rec.Sessions)
	}
	return Round2(amount)
}

// MonthReward sums the reward of the recorded days of one month.
func MonthReward(l *Ledger, year int, month time.Month) float64 {
	if l == nil {
		return 0
	}
	var amount float64
	forEachDayOfMonth(year, month, func(key string) {
		amount += DayReward(l.Get(key).Sessions)
	})
	return Round2(amount)
}

// MaxMonthReward is the reward of a month where every day meets goal.
func MaxMonthReward(year int, month time.Month, goal int) float64 {
	return Round2(float64(DaysInMonth(year, month)) * DayReward(goal))
}

// Progress summarises the month containing now against its maximum.
type Progress struct {
	Earned       float64
	Max          float64
	Percent      float64
	SessionsDone int
	SessionsMax  int
}

// MonthProgress derives the monthly progress view by filtering the ledger
// to the month of now.
func MonthProgress(l *Ledger, now time.Time, goal int) Progress {
	year, month := now.Year(), now.Month()

	p := Progress{
		Earned:      MonthReward(l, year, month),
		Max:         MaxMonthReward(year, month, goal),
		SessionsMax: DaysInMonth(year, month) * clamp(goal, 0, MaxGoal),
	}

	forEachDayOfMonth(year, month, func(key string) {
		p.SessionsDone += l.Get(key).Sessions
	})

	if p.Max > 0 {
		p.Percent = math.Min(100, p.Earned/p.Max*100)
	}
	return p
}

// Round2 rounds to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func forEachDayOfMonth(year int, month time.Month, fn func(key string)) {
	n := DaysInMonth(year, month)
	for day := 1; day <= n; day++ {
		fn(DateKey(time.Date(year, month, day, 0, 0, 0, 0, time.UTC)))
	}
}
