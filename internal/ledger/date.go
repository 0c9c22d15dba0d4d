package ledger

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidDateKey is returned when a date key cannot be parsed.
var ErrInvalidDateKey = errors.New("ledger: invalid date key")

// DateKey formats t as the ledger key for its calendar day ("2024-3-7").
// Month and day are 1-based and unpadded.
func DateKey(t time.Time) string {
	return fmt.Sprintf("%d-%d-%d", t.Year(), int(t.Month()), t.Day())
}

// YearMonthKey formats the month sentinel value ("2024-3").
func YearMonthKey(t time.Time) string {
	return fmt.Sprintf("%d-%d", t.Year(), int(t.Month()))
}

// ParseDateKey parses a date key into midnight of that day in loc.
// Zero-padded components are accepted.
func ParseDateKey(key string, loc *time.Location) (time.Time, error) {
	parts := strings.Split(key, "-")
	if len(parts) != 3 {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDateKey, key)
	}

	nums := make([]int, 3)
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDateKey, key)
		}
		nums[i] = n
	}

	year, month, day := nums[0], nums[1], nums[2]
	if month < 1 || month > 12 || day < 1 || day > DaysInMonth(year, time.Month(month)) {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDateKey, key)
	}

	if loc == nil {
		loc = time.Local
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, loc), nil
}

// CanonicalKey normalizes a possibly padded date key ("2024-03-07" -> "2024-3-7").
func CanonicalKey(key string) (string, error) {
	t, err := ParseDateKey(key, time.UTC)
	if err != nil {
		return "", err
	}
	return DateKey(t), nil
}

// DaysInMonth returns the number of days in the given month.
func DaysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// StartOfDay truncates t to local midnight, keeping its location.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// HasDateChanged reports whether now falls on a different calendar day than
// the one recorded as lastKey.
func HasDateChanged(lastKey string, now time.Time) bool {
	return lastKey != DateKey(now)
}

// daysBack returns the day n days before t. AddDate keeps DST transitions
// from skipping or repeating a calendar day.
func daysBack(t time.Time, n int) time.Time {
	return StartOfDay(t).AddDate(0, 0, -n)
}
