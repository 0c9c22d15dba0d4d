// Package rules loads user-defined achievements written in Rego.
//
// Every .rego file in the rules directory is loaded into one bundle. The
// package habitledger.achievements must define:
//
//	catalog   object of id -> {"name", "description", "icon"}
//	unlocked  set of ids whose conditions hold for input
//
// input carries the same facts as the built-in achievements (today, goal,
// current_streak, last_broken_streak, total_reward, perfect_week,
// perfect_month, note_written, title_customized) plus the already unlocked
// ids.
package rules

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/goodtune/habitledger/internal/ledger"
	"github.com/open-policy-agent/opa/ast"
	"github.com/open-policy-agent/opa/rego"
	"github.com/rs/zerolog"
)

const (
	catalogQuery  = "data.habitledger.achievements.catalog"
	unlockedQuery = "data.habitledger.achievements.unlocked"
)

// Engine wraps the OPA rego engine for achievement evaluation
type Engine struct {
	rulesDir string
	logger   zerolog.Logger

	mu            sync.RWMutex
	modules       map[string]string
	unlockedQuery rego.PreparedEvalQuery
	catalog       []ledger.Achievement
	known         map[string]ledger.Achievement
}

// NewEngine loads and compiles every rule file in rulesDir
func NewEngine(rulesDir string, logger zerolog.Logger) (*Engine, error) {
	e := &Engine{
		rulesDir: rulesDir,
		logger:   logger.With().Str("component", "rules").Logger(),
	}

	if err := e.Reload(); err != nil {
		return nil, err
	}

	e.logger.Info().
		Str("rules_dir", rulesDir).
		Int("achievements", len(e.catalog)).
		Msg("Achievement rules loaded")

	return e, nil
}

// Reload reloads all rule files from disk. On failure the previously loaded
// rules stay in effect.
func (e *Engine) Reload() error {
	modules, err := loadModules(e.rulesDir, e.logger)
	if err != nil {
		return fmt.Errorf("failed to load rules: %w", err)
	}

	ctx := context.Background()

	query, err := rego.New(withModules(unlockedQuery, modules)...).PrepareForEval(ctx)
	if err != nil {
		return fmt.Errorf("failed to prepare unlocked query: %w", err)
	}

	catalog, err := evalCatalog(ctx, modules)
	if err != nil {
		return err
	}

	known := make(map[string]ledger.Achievement, len(catalog))
	kept := catalog[:0]
	for _, a := range catalog {
		if _, builtin := ledger.Lookup(a.ID); builtin {
			e.logger.Warn().Str("id", a.ID).Msg("Rule achievement shadows a built-in id, ignoring it")
			continue
		}
		known[a.ID] = a
		kept = append(kept, a)
	}

	e.mu.Lock()
	e.modules = modules
	e.unlockedQuery = query
	e.catalog = kept
	e.known = known
	e.mu.Unlock()

	return nil
}

// loadModules reads and parses all .rego files in dir
func loadModules(dir string, logger zerolog.Logger) (map[string]string, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.rego"))
	if err != nil {
		return nil, fmt.Errorf("failed to glob rule files: %w", err)
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("no rule files found in %s", dir)
	}

	modules := make(map[string]string, len(files))
	for _, file := range files {
		content, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read rule file %s: %w", file, err)
		}

		// Parse up front so syntax errors name the file
		module, err := ast.ParseModule(file, string(content))
		if err != nil {
			return nil, fmt.Errorf("failed to parse rule file %s: %w", file, err)
		}

		modules[file] = string(content)
		logger.Debug().Str("file", file).Str("package", module.Package.Path.String()).Msg("Loaded rule module")
	}

	return modules, nil
}

// withModules returns the rego options for query over every rule module
func withModules(query string, modules map[string]string) []func(*rego.Rego) {
	opts := make([]func(*rego.Rego), 0, len(modules)+1)
	opts = append(opts, rego.Query(query))
	for file, content := range modules {
		opts = append(opts, rego.Module(file, content))
	}
	return opts
}

type catalogEntry struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

// evalCatalog evaluates the catalog rule once; it must not depend on input.
func evalCatalog(ctx context.Context, modules map[string]string) ([]ledger.Achievement, error) {
	results, err := rego.New(withModules(catalogQuery, modules)...).Eval(ctx)
	if err != nil {
		return nil, fmt.Errorf("catalog evaluation failed: %w", err)
	}

	if len(results) == 0 || len(results[0].Expressions) == 0 {
		return nil, fmt.Errorf("rules define no catalog")
	}

	resultBytes, err := json.Marshal(results[0].Expressions[0].Value)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal catalog: %w", err)
	}

	var entries map[string]catalogEntry
	if err := json.Unmarshal(resultBytes, &entries); err != nil {
		return nil, fmt.Errorf("catalog must map ids to {name, description, icon}: %w", err)
	}

	catalog := make([]ledger.Achievement, 0, len(entries))
	for id, entry := range entries {
		name := entry.Name
		if name == "" {
			name = id
		}
		catalog = append(catalog, ledger.Achievement{
			ID:          id,
			Name:        name,
			Description: entry.Description,
			Icon:        entry.Icon,
		})
	}

	sort.Slice(catalog, func(i, j int) bool { return catalog[i].ID < catalog[j].ID })
	return catalog, nil
}

// Catalog returns the rule-defined achievements ordered by id
func (e *Engine) Catalog() []ledger.Achievement {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]ledger.Achievement(nil), e.catalog...)
}

// Evaluate returns the rule-defined achievements that hold for f and are not
// yet in unlocked, in catalog order.
func (e *Engine) Evaluate(ctx context.Context, f ledger.Facts, unlocked []string) ([]ledger.Achievement, error) {
	e.mu.RLock()
	query := e.unlockedQuery
	catalog := e.catalog
	known := e.known
	e.mu.RUnlock()

	startTime := time.Now()

	results, err := query.Eval(ctx, rego.EvalInput(Input(f, unlocked)))
	if err != nil {
		return nil, fmt.Errorf("unlocked query evaluation failed: %w", err)
	}

	e.logger.Debug().Dur("duration", time.Since(startTime)).Msg("Achievement rules evaluated")

	// An undefined unlocked rule means nothing is unlocked
	if len(results) == 0 || len(results[0].Expressions) == 0 {
		return nil, nil
	}

	ids, ok := results[0].Expressions[0].Value.([]interface{})
	if !ok {
		return nil, fmt.Errorf("unlocked is not a set: %T", results[0].Expressions[0].Value)
	}

	hit := make(map[string]bool, len(ids))
	for _, v := range ids {
		id, ok := v.(string)
		if !ok {
			continue
		}
		if _, exists := known[id]; !exists {
			e.logger.Debug().Str("id", id).Msg("Unlocked id has no catalog entry, ignoring it")
			continue
		}
		hit[id] = true
	}

	have := make(map[string]bool, len(unlocked))
	for _, id := range unlocked {
		have[id] = true
	}

	var fresh []ledger.Achievement
	for _, a := range catalog {
		if hit[a.ID] && !have[a.ID] {
			fresh = append(fresh, a)
		}
	}
	return fresh, nil
}

// Input builds the rego input document for f
func Input(f ledger.Facts, unlocked []string) map[string]interface{} {
	ids := make([]interface{}, len(unlocked))
	for i, id := range unlocked {
		ids[i] = id
	}

	return map[string]interface{}{
		"today": map[string]interface{}{
			"sessions": f.Today.Sessions,
			"note":     f.Today.Note,
		},
		"goal":               f.Goal,
		"current_streak":     f.CurrentStreak,
		"last_broken_streak": f.LastBrokenStreak,
		"total_reward":       f.TotalReward,
		"perfect_week":       f.PerfectWeek,
		"perfect_month":      f.PerfectMonth,
		"note_written":       f.NoteWritten,
		"title_customized":   f.TitleCustomized,
		"unlocked":           ids,
	}
}
