package metrics

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

var (
	// Session metrics
	SessionsToggled = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "habitledger_sessions_toggled_total",
			Help: "Total session toggles, by direction",
		},
		[]string{"direction"},
	)

	NotesWritten = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "habitledger_notes_written_total",
			Help: "Total notes written or edited",
		},
	)

	// Achievement metrics
	AchievementsUnlocked = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "habitledger_achievements_unlocked_total",
			Help: "Achievements unlocked, by identifier",
		},
		[]string{"id"},
	)

	RuleEvaluationErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "habitledger_rule_evaluation_errors_total",
			Help: "User-defined achievement rule evaluations that failed",
		},
	)

	// Storage metrics
	StorageWriteFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "habitledger_storage_write_failures_total",
			Help: "Persist attempts that failed and were left to the next mutation",
		},
	)

	StorageLoadFallbacks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "habitledger_storage_load_fallbacks_total",
			Help: "Records replaced by defaults on load, by key",
		},
		[]string{"key"},
	)

	// Rollover metrics
	Rollovers = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "habitledger_rollovers_total",
			Help: "Observed calendar day changes",
		},
	)

	ViewCacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "habitledger_view_cache_lookups_total",
			Help: "Month view cache lookups, by result",
		},
		[]string{"result"},
	)

	// State gauges
	CurrentStreak = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "habitledger_current_streak_days",
			Help: "Current streak length in days",
		},
	)

	LongestStreak = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "habitledger_longest_streak_days",
			Help: "Longest streak ever reached in days",
		},
	)

	TotalReward = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "habitledger_total_reward",
			Help: "Total reward earned across all recorded days",
		},
	)

	DailyGoal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "habitledger_daily_goal",
			Help: "Configured number of sessions per day",
		},
	)

	TodaySessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "habitledger_today_sessions",
			Help: "Sessions completed today",
		},
	)
)

// Registry holds every habitledger collector. It is separate from the default
// registerer so the textfile only carries habitledger series.
var Registry = prometheus.NewRegistry()

func init() {
	// Register all metrics
	Registry.MustRegister(
		SessionsToggled,
		NotesWritten,
		AchievementsUnlocked,
		RuleEvaluationErrors,
		StorageWriteFailures,
		StorageLoadFallbacks,
		Rollovers,
		ViewCacheLookups,
		CurrentStreak,
		LongestStreak,
		TotalReward,
		DailyGoal,
		TodaySessions,
	)
}

// TextfileExporter writes the registry in the node-exporter textfile format
type TextfileExporter struct {
	path   string
	logger zerolog.Logger
}

// NewTextfileExporter creates an exporter. An empty path disables it.
func NewTextfileExporter(path string, logger zerolog.Logger) *TextfileExporter {
	return &TextfileExporter{
		path:   path,
		logger: logger.With().Str("component", "metrics").Logger(),
	}
}

// Enabled reports whether a textfile path is configured
func (e *TextfileExporter) Enabled() bool {
	return e != nil && e.path != ""
}

// Write exports the current values. WriteToTextfile renames a temp file into
// place, so readers never see a partial file.
func (e *TextfileExporter) Write() error {
	if !e.Enabled() {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(e.path), 0o755); err != nil {
		return fmt.Errorf("create metrics directory: %w", err)
	}

	if err := prometheus.WriteToTextfile(e.path, Registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}

	e.logger.Debug().Str("path", e.path).Msg("Metrics textfile written")
	return nil
}
