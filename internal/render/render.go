// Package render draws tracker views on a terminal.
package render

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/goodtune/habitledger/internal/ledger"
	"github.com/goodtune/habitledger/internal/storage"
	"github.com/goodtune/habitledger/internal/tracker"
)

const progressWidth = 30

// Options controls currency formatting.
type Options struct {
	Currency     string
	DecimalComma bool
}

// Renderer writes views to w.
type Renderer struct {
	w    io.Writer
	opts Options

	heading  *color.Color
	active   *color.Color
	enabled  *color.Color
	disabled *color.Color
	money    *color.Color
	notice   *color.Color
	today    *color.Color
	buckets  [ledger.BucketFour + 1]*color.Color
}

// New returns a Renderer. Colors follow color.NoColor, which fatih/color sets
// when w is not a terminal.
func New(w io.Writer, opts Options) *Renderer {
	if opts.Currency == "" {
		opts.Currency = "€"
	}

	return &Renderer{
		w:        w,
		opts:     opts,
		heading:  color.New(color.FgCyan, color.Bold),
		active:   color.New(color.FgGreen, color.Bold),
		enabled:  color.New(color.FgWhite),
		disabled: color.New(color.Faint),
		money:    color.New(color.FgYellow, color.Bold),
		notice:   color.New(color.FgMagenta, color.Bold),
		today:    color.New(color.ReverseVideo, color.Bold),
		buckets: [...]*color.Color{
			ledger.BucketNone:  color.New(color.Faint),
			ledger.BucketOne:   color.New(color.FgCyan),
			ledger.BucketTwo:   color.New(color.FgBlue, color.Bold),
			ledger.BucketThree: color.New(color.FgMagenta, color.Bold),
			ledger.BucketFour:  color.New(color.FgGreen, color.Bold),
		},
	}
}

// Currency formats v with two decimals, using a decimal comma when set
// ("€1,64").
func (r *Renderer) Currency(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	if r.opts.DecimalComma {
		s = strings.Replace(s, ".", ",", 1)
	}
	return r.opts.Currency + s
}

// ProgressBar draws a fixed-width bar for a percentage in [0, 100].
func ProgressBar(percent float64, width int) string {
	if width <= 0 {
		return ""
	}
	percent = math.Max(0, math.Min(100, percent))
	filled := int(math.Round(percent / 100 * float64(width)))
	return "[" + strings.Repeat("#", filled) + strings.Repeat("-", width-filled) + "]"
}

// Status draws the title, session buttons, rewards, progress and streaks.
func (r *Renderer) Status(v tracker.View) {
	_, _ = r.heading.Fprintln(r.w, v.Title)
	fmt.Fprintf(r.w, "Today %s  ", v.Today)
	r.buttons(v.Buttons)
	fmt.Fprintln(r.w)

	fmt.Fprintf(r.w, "Earned %s of %s this month (total %s)\n",
		r.money.Sprint(r.Currency(v.MonthReward)),
		r.Currency(v.MaxMonthReward),
		r.money.Sprint(r.Currency(v.TotalReward)),
	)
	fmt.Fprintf(r.w, "%s %3.0f%%  %d of %d possible sessions\n",
		ProgressBar(v.Progress.Percent, progressWidth),
		v.Progress.Percent,
		v.Progress.SessionsDone,
		v.Progress.SessionsMax,
	)
	fmt.Fprintf(r.w, "Streak %s  Longest %s", days(v.StreakThroughToday), days(v.LongestStreak))
	if v.CurrentStreak > v.StreakThroughToday {
		fmt.Fprintf(r.w, "  (%s run open until tonight)", days(v.CurrentStreak))
	}
	fmt.Fprintln(r.w)

	if v.TodayNote != "" {
		fmt.Fprintf(r.w, "Note: %s\n", v.TodayNote)
	}
	fmt.Fprintf(r.w, "Achievements %d/%d\n", v.UnlockedCount(), len(v.Achievements))
}

func (r *Renderer) buttons(buttons []ledger.Button) {
	for i, b := range buttons {
		if i > 0 {
			fmt.Fprint(r.w, " ")
		}
		label := fmt.Sprintf("[%d]", b.Index)
		switch {
		case b.Active:
			_, _ = r.active.Fprint(r.w, label)
		case b.Enabled:
			_, _ = r.enabled.Fprint(r.w, label)
		default:
			_, _ = r.disabled.Fprint(r.w, label)
		}
	}
}

func days(n int) string {
	if n == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", n)
}

// Calendar draws the month grid, Monday first. Each cell shows the day and
// the roman session count; a trailing * marks a note.
func (r *Renderer) Calendar(v tracker.View) {
	m := v.Month
	_, _ = r.heading.Fprintf(r.w, "%s %d\n", m.Month, m.Year)
	fmt.Fprintln(r.w, " Mo       Tu       We       Th       Fr       Sa       Su")

	first := time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC)
	offset := (int(first.Weekday()) + 6) % 7
	fmt.Fprint(r.w, strings.Repeat(strings.Repeat(" ", 9), offset))

	for i, d := range m.Days {
		fmt.Fprint(r.w, r.cell(d))
		if (offset+i+1)%7 == 0 {
			fmt.Fprintln(r.w)
		}
	}
	if (offset+len(m.Days))%7 != 0 {
		fmt.Fprintln(r.w)
	}

	fmt.Fprintln(r.w, "I..IV sessions completed, * note")
	r.notes(v)
}

// cell renders one day padded to nine columns.
func (r *Renderer) cell(d ledger.CalendarDay) string {
	marker := " "
	if d.HasNote {
		marker = "*"
	}
	text := fmt.Sprintf("%3d %-4s%s", d.Day, d.Label, marker)

	switch d.Position {
	case ledger.Today:
		return r.today.Sprint(text)
	case ledger.Past:
		return r.buckets[d.Bucket].Sprint(text)
	default:
		return text
	}
}

func (r *Renderer) notes(v tracker.View) {
	var keys []string
	for _, d := range v.Month.Days {
		if _, ok := v.Notes[d.Key]; ok {
			keys = append(keys, d.Key)
		}
	}
	if len(keys) == 0 {
		return
	}

	fmt.Fprintln(r.w)
	_, _ = r.heading.Fprintln(r.w, "Notes")
	for _, key := range keys {
		fmt.Fprintf(r.w, "  %-10s %s\n", key, v.Notes[key])
	}
}

// Achievements draws the gallery: built-in entries, then rule-defined ones,
// unlocked entries first within each group.
func (r *Renderer) Achievements(v tracker.View) {
	_, _ = r.heading.Fprintf(r.w, "Achievements (%d/%d)\n", v.UnlockedCount(), len(v.Achievements))

	entries := append([]tracker.AchievementStatus(nil), v.Achievements...)
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Custom != entries[j].Custom {
			return !entries[i].Custom
		}
		return entries[i].Unlocked && !entries[j].Unlocked
	})

	for _, a := range entries {
		mark := r.disabled.Sprint("locked  ")
		name := r.disabled.Sprint(a.Name)
		if a.Unlocked {
			mark = r.active.Sprint("unlocked")
			name = a.Name
		}
		fmt.Fprintf(r.w, "  %s %s %s  %s\n", a.Icon, mark, name, a.Description)
	}
}

// Store describes the storage backend and its last write.
func (r *Renderer) Store(backend string, meta *storage.Meta) {
	if meta == nil || meta.Revision == 0 {
		fmt.Fprintf(r.w, "Store %s: nothing written yet\n", backend)
		return
	}
	fmt.Fprintf(r.w, "Store %s: revision %d, last written %s\n",
		backend, meta.Revision, meta.UpdatedAt.Local().Format("2006-01-02 15:04:05"))
}

// Unlocked announces freshly unlocked achievements.
func (r *Renderer) Unlocked(as []ledger.Achievement) {
	for _, a := range as {
		_, _ = r.notice.Fprintf(r.w, "%s Achievement unlocked: %s\n", a.Icon, a.Name)
	}
}
