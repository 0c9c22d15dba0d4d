package rules

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goodtune/habitledger/internal/ledger"
	"github.com/rs/zerolog"
)

const testRules = `package habitledger.achievements

catalog = {
	"EARLY_BIRD": {"name": "Early Bird", "description": "Finish two sessions in a day.", "icon": "🐦"},
	"SAVER": {"name": "Saver", "description": "Earn five in total.", "icon": "🐷"},
	"PERFECT_DAY": {"name": "Shadow", "description": "Collides with a built-in.", "icon": "x"}
}

unlocked["EARLY_BIRD"] {
	input.today.sessions >= 2
}

unlocked["SAVER"] {
	input.total_reward >= 5
}

unlocked["NOT_IN_CATALOG"] {
	input.goal > 0
}
`

func writeRules(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return dir
}

func TestEngineCatalog(t *testing.T) {
	engine, err := NewEngine(writeRules(t, map[string]string{"custom.rego": testRules}), zerolog.Nop())
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}

	catalog := engine.Catalog()
	if len(catalog) != 2 {
		t.Fatalf("expected 2 rule achievements, got %d: %+v", len(catalog), catalog)
	}
	if catalog[0].ID != "EARLY_BIRD" || catalog[1].ID != "SAVER" {
		t.Errorf("catalog order = %s, %s", catalog[0].ID, catalog[1].ID)
	}
	if catalog[0].Name != "Early Bird" || catalog[0].Icon != "🐦" {
		t.Errorf("catalog[0] = %+v", catalog[0])
	}
}

func TestEngineEvaluate(t *testing.T) {
	engine, err := NewEngine(writeRules(t, map[string]string{"custom.rego": testRules}), zerolog.Nop())
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}

	tests := []struct {
		name     string
		facts    ledger.Facts
		unlocked []string
		want     []string
	}{
		{
			name:  "nothing holds",
			facts: ledger.Facts{Goal: 4, Today: ledger.DailyRecord{Sessions: 1}},
			want:  nil,
		},
		{
			name:  "two sessions",
			facts: ledger.Facts{Goal: 4, Today: ledger.DailyRecord{Sessions: 2}},
			want:  []string{"EARLY_BIRD"},
		},
		{
			name:  "both hold",
			facts: ledger.Facts{Goal: 4, Today: ledger.DailyRecord{Sessions: 3}, TotalReward: 7.5},
			want:  []string{"EARLY_BIRD", "SAVER"},
		},
		{
			name:     "already unlocked is skipped",
			facts:    ledger.Facts{Goal: 4, Today: ledger.DailyRecord{Sessions: 3}, TotalReward: 7.5},
			unlocked: []string{"EARLY_BIRD"},
			want:     []string{"SAVER"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := engine.Evaluate(context.Background(), tt.facts, tt.unlocked)
			if err != nil {
				t.Fatalf("Evaluate() error = %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("Evaluate() = %+v, want %v", got, tt.want)
			}
			for i, a := range got {
				if a.ID != tt.want[i] {
					t.Errorf("Evaluate()[%d] = %s, want %s", i, a.ID, tt.want[i])
				}
			}
		})
	}
}

func TestEngineRulesAcrossFiles(t *testing.T) {
	dir := writeRules(t, map[string]string{
		"catalog.rego": `package habitledger.achievements

catalog = {"NOTE_STREAK": {"name": "Journaling", "description": "Write a note on a 3-day streak.", "icon": "📓"}}
`,
		"unlocked.rego": `package habitledger.achievements

unlocked["NOTE_STREAK"] {
	input.note_written
	input.current_streak >= 3
}
`,
	})

	engine, err := NewEngine(dir, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}

	got, err := engine.Evaluate(context.Background(), ledger.Facts{NoteWritten: true, CurrentStreak: 3}, nil)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if len(got) != 1 || got[0].ID != "NOTE_STREAK" || got[0].Name != "Journaling" {
		t.Errorf("Evaluate() = %+v", got)
	}

	got, err = engine.Evaluate(context.Background(), ledger.Facts{NoteWritten: true, CurrentStreak: 2}, nil)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Evaluate() = %+v, want nothing below a 3-day streak", got)
	}
}

func TestWithModulesStartsWithQuery(t *testing.T) {
	opts := withModules(catalogQuery, map[string]string{"a.rego": "package a", "b.rego": "package b"})
	if len(opts) != 3 {
		t.Fatalf("expected query plus 2 modules, got %d options", len(opts))
	}
}

func TestEngineErrors(t *testing.T) {
	tests := []struct {
		name    string
		files   map[string]string
		wantErr string
	}{
		{"empty dir", nil, "no rule files"},
		{"syntax error", map[string]string{"bad.rego": "package habitledger.achievements\n\nunlocked[x {"}, "failed to parse"},
		{"no catalog", map[string]string{"nocat.rego": "package habitledger.achievements\n\nunlocked[\"A\"] { true }\n"}, "no catalog"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewEngine(writeRules(t, tt.files), zerolog.Nop())
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want substring %q", err, tt.wantErr)
			}
		})
	}
}

func TestReloadKeepsPreviousRulesOnFailure(t *testing.T) {
	dir := writeRules(t, map[string]string{"custom.rego": testRules})
	engine, err := NewEngine(dir, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "custom.rego"), []byte("package broken\n\nx[ {"), 0o600); err != nil {
		t.Fatalf("rewrite rules: %v", err)
	}
	if err := engine.Reload(); err == nil {
		t.Fatal("expected reload error")
	}
	if len(engine.Catalog()) != 2 {
		t.Errorf("catalog lost after failed reload: %+v", engine.Catalog())
	}
}
