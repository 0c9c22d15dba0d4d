package main

import (
	"fmt"
	"io"
	"os"
	"reflect"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/goodtune/habitledger/internal/config"
	"github.com/goodtune/habitledger/internal/rules"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	validateDump bool
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Long: `Validate the habitledger configuration file for syntax and semantic errors.

Unknown keys are reported, and when achievements.rules_dir is set the
rule modules are compiled and their catalog listed.`,
	Args: cobra.NoArgs,
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().BoolVar(&validateDump, "dump", false, "Dump full configuration with defaults highlighted")
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Configuration validation failed: %v\n", err)
		return err
	}

	// A missing file is valid; only defaults apply then.
	unknownKeys, err := findUnknownKeys(configPath)
	if err != nil && !os.IsNotExist(err) {
		_, _ = fmt.Fprintf(os.Stderr, "⚠️  Warning: Could not check for unknown keys: %v\n", err)
	}

	_, _ = fmt.Fprintf(out, "✅ Configuration is valid: %s\n", configPath)

	if len(unknownKeys) > 0 {
		red := color.New(color.FgRed, color.Bold)
		_, _ = fmt.Fprintln(out)
		_, _ = red.Fprintf(out, "⚠️  WARNING: Found %d unknown configuration key(s):\n", len(unknownKeys))
		for _, key := range unknownKeys {
			_, _ = red.Fprintf(out, "   - %s\n", key)
		}
		_, _ = fmt.Fprintln(out, "\nThese keys will be ignored and may indicate typos or deprecated settings.")
	}

	if cfg.Achievements.RulesDir != "" {
		if err := checkRules(out, cfg.Achievements.RulesDir); err != nil {
			fmt.Fprintf(os.Stderr, "❌ Achievement rules failed to load: %v\n", err)
			return err
		}
	}

	if validateDump {
		_, _ = fmt.Fprintln(out, "\n"+strings.Repeat("=", 80))
		_, _ = fmt.Fprintln(out, "FULL CONFIGURATION (values different from defaults are highlighted)")
		_, _ = fmt.Fprintln(out, strings.Repeat("=", 80))

		dumpConfig(out, cfg, getDefaultConfig(), unknownKeys)
	}

	return nil
}

// checkRules compiles the rule modules and lists the achievements they add
func checkRules(w io.Writer, dir string) error {
	engine, err := rules.NewEngine(dir, zerolog.Nop())
	if err != nil {
		return err
	}

	catalog := engine.Catalog()
	_, _ = fmt.Fprintf(w, "✅ Achievement rules loaded: %d custom achievement(s) from %s\n", len(catalog), dir)
	for _, a := range catalog {
		_, _ = fmt.Fprintf(w, "   - %s: %s\n", a.ID, a.Name)
	}
	return nil
}

// getDefaultConfig creates a configuration with default values
func getDefaultConfig() *config.Config {
	v := viper.New()
	config.SetDefaults(v)

	var cfg config.Config
	_ = v.Unmarshal(&cfg)

	return &cfg
}

// findUnknownKeys loads the config file and checks for unknown keys
func findUnknownKeys(configPath string) ([]string, error) {
	v := viper.New()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	validKeys := getValidKeys()

	unknown := []string{}
	for _, key := range v.AllKeys() {
		if !validKeys[key] {
			unknown = append(unknown, key)
		}
	}
	sort.Strings(unknown)

	return unknown, nil
}

// getValidKeys returns a set of all valid configuration keys
func getValidKeys() map[string]bool {
	return map[string]bool{
		// Storage
		"storage.type":                 true,
		"storage.path":                 true,
		"storage.redis.host":           true,
		"storage.redis.port":           true,
		"storage.redis.password":       true,
		"storage.redis.db":             true,
		"storage.redis.pool_size":      true,
		"storage.redis.min_idle_conns": true,
		"storage.redis.dial_timeout":   true,
		"storage.redis.read_timeout":   true,
		"storage.redis.write_timeout":  true,
		"storage.redis.key_prefix":     true,

		// Logging
		"logging.level":  true,
		"logging.format": true,

		// Tracker
		"tracker.default_title":           true,
		"tracker.rollover_check_interval": true,
		"tracker.retention":               true,
		"tracker.view_cache_size":         true,
		"tracker.sound":                   true,

		// Achievements
		"achievements.rules_dir": true,

		// Metrics
		"metrics.textfile_path": true,

		// Display
		"display.currency":      true,
		"display.decimal_comma": true,
		"display.color":         true,
	}
}

// dumpConfig dumps configuration with color highlighting for non-default values
func dumpConfig(w io.Writer, cfg, defaultCfg *config.Config, unknownKeys []string) {
	yellow := color.New(color.FgYellow, color.Bold)
	green := color.New(color.FgGreen)
	cyan := color.New(color.FgCyan, color.Bold)

	field := func(name string, value, defaultValue interface{}) {
		dumpField(w, name, value, defaultValue, yellow, green)
	}

	// Storage
	_, _ = cyan.Fprintln(w, "\n[storage]")
	field("  type", cfg.Storage.Type, defaultCfg.Storage.Type)
	field("  path", cfg.Storage.Path, defaultCfg.Storage.Path)
	_, _ = cyan.Fprintln(w, "  [storage.redis]")
	field("    host", cfg.Storage.Redis.Host, defaultCfg.Storage.Redis.Host)
	field("    port", cfg.Storage.Redis.Port, defaultCfg.Storage.Redis.Port)
	field("    password", redactPassword(cfg.Storage.Redis.Password), redactPassword(defaultCfg.Storage.Redis.Password))
	field("    db", cfg.Storage.Redis.DB, defaultCfg.Storage.Redis.DB)
	field("    pool_size", cfg.Storage.Redis.PoolSize, defaultCfg.Storage.Redis.PoolSize)
	field("    min_idle_conns", cfg.Storage.Redis.MinIdleConns, defaultCfg.Storage.Redis.MinIdleConns)
	field("    dial_timeout", cfg.Storage.Redis.DialTimeout, defaultCfg.Storage.Redis.DialTimeout)
	field("    read_timeout", cfg.Storage.Redis.ReadTimeout, defaultCfg.Storage.Redis.ReadTimeout)
	field("    write_timeout", cfg.Storage.Redis.WriteTimeout, defaultCfg.Storage.Redis.WriteTimeout)
	field("    key_prefix", cfg.Storage.Redis.KeyPrefix, defaultCfg.Storage.Redis.KeyPrefix)

	// Logging
	_, _ = cyan.Fprintln(w, "\n[logging]")
	field("  level", cfg.Logging.Level, defaultCfg.Logging.Level)
	field("  format", cfg.Logging.Format, defaultCfg.Logging.Format)

	// Tracker
	_, _ = cyan.Fprintln(w, "\n[tracker]")
	field("  default_title", cfg.Tracker.DefaultTitle, defaultCfg.Tracker.DefaultTitle)
	field("  rollover_check_interval", cfg.Tracker.RolloverCheckInterval, defaultCfg.Tracker.RolloverCheckInterval)
	field("  retention", cfg.Tracker.Retention, defaultCfg.Tracker.Retention)
	field("  view_cache_size", cfg.Tracker.ViewCacheSize, defaultCfg.Tracker.ViewCacheSize)
	field("  sound", cfg.Tracker.Sound, defaultCfg.Tracker.Sound)

	// Achievements
	_, _ = cyan.Fprintln(w, "\n[achievements]")
	field("  rules_dir", cfg.Achievements.RulesDir, defaultCfg.Achievements.RulesDir)

	// Metrics
	_, _ = cyan.Fprintln(w, "\n[metrics]")
	field("  textfile_path", cfg.Metrics.TextfilePath, defaultCfg.Metrics.TextfilePath)

	// Display
	_, _ = cyan.Fprintln(w, "\n[display]")
	field("  currency", cfg.Display.Currency, defaultCfg.Display.Currency)
	field("  decimal_comma", cfg.Display.DecimalComma, defaultCfg.Display.DecimalComma)
	field("  color", cfg.Display.Color, defaultCfg.Display.Color)

	if len(unknownKeys) > 0 {
		red := color.New(color.FgRed, color.Bold)
		_, _ = cyan.Fprintln(w, "\n[UNKNOWN KEYS - These will be ignored!]")
		for _, key := range unknownKeys {
			_, _ = red.Fprintf(w, "  %s = (unknown key - check for typos)\n", key)
		}
	}

	_, _ = fmt.Fprintln(w, "\n"+strings.Repeat("=", 80))
}

// dumpField prints a field with color if it differs from default
func dumpField(w io.Writer, name string, value, defaultValue interface{}, modifiedColor, defaultColor *color.Color) {
	valueStr := fmt.Sprintf("%v", value)

	if reflect.DeepEqual(value, defaultValue) {
		_, _ = defaultColor.Fprintf(w, "%s = %s\n", name, valueStr)
	} else {
		_, _ = modifiedColor.Fprintf(w, "%s = %s  (modified from default: %v)\n", name, valueStr, defaultValue)
	}
}

// redactPassword redacts password if not empty
func redactPassword(password string) string {
	if password == "" {
		return ""
	}
	return "***REDACTED***"
}
