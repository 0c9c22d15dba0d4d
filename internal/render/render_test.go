package render

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/goodtune/habitledger/internal/ledger"
	"github.com/goodtune/habitledger/internal/storage"
	"github.com/goodtune/habitledger/internal/tracker"
)

func init() {
	color.NoColor = true
}

func testView() tracker.View {
	l := ledger.NewLedger()
	l.Set("2024-2-1", ledger.DailyRecord{Sessions: 4})
	l.Set("2024-2-2", ledger.DailyRecord{Sessions: 0, Note: "sick"})
	l.Set("2024-2-3", ledger.DailyRecord{Sessions: 2})

	now := time.Date(2024, 2, 3, 10, 0, 0, 0, time.UTC)
	progress := ledger.MonthProgress(l, now, 4)

	var gallery []tracker.AchievementStatus
	for _, a := range ledger.Catalog() {
		gallery = append(gallery, tracker.AchievementStatus{Achievement: a, Unlocked: a.ID == ledger.PerfectDay})
	}

	return tracker.View{
		Title:              "Piano",
		Today:              "2024-2-3",
		Goal:               4,
		TodaySessions:      2,
		Buttons:            ledger.Buttons(2, 4),
		TotalReward:        ledger.TotalReward(l),
		MonthReward:        progress.Earned,
		MaxMonthReward:     progress.Max,
		Progress:           progress,
		StreakThroughToday: 1,
		CurrentStreak:      1,
		LongestStreak:      3,
		Month:              ledger.MonthView(l, now),
		Achievements:       gallery,
		Notes:              map[string]string{"2024-2-2": "sick"},
	}
}

func TestCurrency(t *testing.T) {
	tests := []struct {
		opts  Options
		value float64
		want  string
	}{
		{Options{Currency: "€", DecimalComma: true}, 1.64, "€1,64"},
		{Options{Currency: "€", DecimalComma: true}, 0, "€0,00"},
		{Options{Currency: "$"}, 102.92, "$102.92"},
		{Options{DecimalComma: true}, 3.5, "€3,50"},
	}

	for _, tt := range tests {
		r := New(&bytes.Buffer{}, tt.opts)
		if got := r.Currency(tt.value); got != tt.want {
			t.Errorf("Currency(%v) = %q, want %q", tt.value, got, tt.want)
		}
	}
}

func TestProgressBar(t *testing.T) {
	tests := []struct {
		percent float64
		want    string
	}{
		{0, "[----------]"},
		{50, "[#####-----]"},
		{100, "[##########]"},
		{250, "[##########]"},
		{-5, "[----------]"},
	}

	for _, tt := range tests {
		if got := ProgressBar(tt.percent, 10); got != tt.want {
			t.Errorf("ProgressBar(%v) = %q, want %q", tt.percent, got, tt.want)
		}
	}
}

func TestStatus(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, Options{Currency: "€", DecimalComma: true}).Status(testView())

	out := buf.String()
	for _, want := range []string{
		"Piano",
		"Today 2024-2-3  [1] [2] [3] [4]",
		"Earned €3,84 of €96,28 this month (total €3,84)",
		"6 of 116 possible sessions",
		"Streak 1 day  Longest 3 days\n",
		"Achievements 1/12",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("status missing %q:\n%s", want, out)
		}
	}
}

func TestStatusOpenStreak(t *testing.T) {
	v := testView()
	v.StreakThroughToday = 0
	v.CurrentStreak = 3

	var buf bytes.Buffer
	New(&buf, Options{}).Status(v)

	want := "Streak 0 days  Longest 3 days  (3 days run open until tonight)"
	if !strings.Contains(buf.String(), want) {
		t.Errorf("status missing %q:\n%s", want, buf.String())
	}
}

func TestStore(t *testing.T) {
	tests := []struct {
		name string
		meta *storage.Meta
		want string
	}{
		{"empty", &storage.Meta{}, "Store bolt: nothing written yet"},
		{"nil", nil, "Store bolt: nothing written yet"},
		{"written", &storage.Meta{Revision: 7, UpdatedAt: time.Now()}, "Store bolt: revision 7, last written "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			New(&buf, Options{}).Store("bolt", tt.meta)
			if !strings.HasPrefix(buf.String(), tt.want) {
				t.Errorf("Store() = %q, want prefix %q", buf.String(), tt.want)
			}
		})
	}
}

func TestCalendar(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, Options{}).Calendar(testView())

	out := buf.String()
	lines := strings.Split(out, "\n")
	if !strings.HasPrefix(lines[0], "February 2024") {
		t.Errorf("header = %q", lines[0])
	}

	// 1 February 2024 is a Thursday
	if !strings.HasPrefix(lines[2], strings.Repeat(" ", 27)+"  1 IV") {
		t.Errorf("first week = %q", lines[2])
	}
	if !strings.Contains(out, "  2     *") {
		t.Errorf("note marker missing:\n%s", out)
	}
	if !strings.Contains(out, "2024-2-2   sick") {
		t.Errorf("notes section missing:\n%s", out)
	}
}

func TestAchievementsGallery(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, Options{}).Achievements(testView())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if lines[0] != "Achievements (1/12)" {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.Contains(lines[1], "unlocked Perfect Day!") {
		t.Errorf("unlocked entry not first: %q", lines[1])
	}
	if len(lines) != 13 {
		t.Errorf("expected 13 lines, got %d", len(lines))
	}
}

func TestAchievementsGroupsCustomEntries(t *testing.T) {
	v := testView()
	v.Achievements = append(v.Achievements,
		tracker.AchievementStatus{Achievement: ledger.Achievement{ID: "EARLY", Name: "Early Bird"}, Custom: true},
		tracker.AchievementStatus{Achievement: ledger.Achievement{ID: "NIGHT", Name: "Night Owl"}, Custom: true, Unlocked: true},
	)

	var buf bytes.Buffer
	New(&buf, Options{}).Achievements(v)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 15 {
		t.Fatalf("expected 15 lines, got %d", len(lines))
	}
	if !strings.Contains(lines[1], "unlocked Perfect Day!") {
		t.Errorf("built-in unlocked entry not first: %q", lines[1])
	}
	if !strings.Contains(lines[13], "unlocked Night Owl") {
		t.Errorf("custom unlocked entry not first in its group: %q", lines[13])
	}
	if !strings.Contains(lines[14], "locked   Early Bird") {
		t.Errorf("custom locked entry not last: %q", lines[14])
	}
}

func TestUnlocked(t *testing.T) {
	var buf bytes.Buffer
	a, _ := ledger.Lookup(ledger.Streak7)
	New(&buf, Options{}).Unlocked([]ledger.Achievement{a})

	if !strings.Contains(buf.String(), "Achievement unlocked: 7-Day Streak!") {
		t.Errorf("output = %q", buf.String())
	}
}
