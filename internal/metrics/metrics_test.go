package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestTextfileExporterDisabled(t *testing.T) {
	e := NewTextfileExporter("", zerolog.Nop())
	if e.Enabled() {
		t.Fatal("exporter with empty path must be disabled")
	}
	if err := e.Write(); err != nil {
		t.Fatalf("Write() on disabled exporter: %v", err)
	}
}

func TestTextfileExporterWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "textfile", "habitledger.prom")

	DailyGoal.Set(3)
	SessionsToggled.WithLabelValues("up").Inc()

	e := NewTextfileExporter(path, zerolog.Nop())
	if err := e.Write(); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read textfile: %v", err)
	}

	text := string(data)
	for _, want := range []string{
		"habitledger_daily_goal 3",
		`habitledger_sessions_toggled_total{direction="up"}`,
	} {
		if !strings.Contains(text, want) {
			t.Errorf("textfile missing %q:\n%s", want, text)
		}
	}
}
