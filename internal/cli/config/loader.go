package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/leapstack-labs/dbtscore/pkg/core"
	"github.com/leapstack-labs/dbtscore/pkg/lint"
	"github.com/spf13/pflag"
)

// loggerKey is used to store logger in context.
type loggerKey struct{}

// configKey is used to store config in context.
type configKey struct{}

// maxUpwardSearchLevels limits how far up the directory tree to search for config files.
const maxUpwardSearchLevels = 10

// topLevelKeys are the options a config file may set.
var topLevelKeys = []string{
	"rule_namespaces", "disabled_rules", "fail_project_under", "fail_any_item_under",
	"show", "format", "manifest", "workers", "debug", "badges", "rules",
}

var badgeNames = []string{"first", "second", "third", "wip"}

var badgeFields = []string{"icon", "threshold"}

// listKeys hold lists that may arrive as comma-separated strings from the
// environment.
var listKeys = []string{"rule_namespaces", "disabled_rules"}

// flagKeys maps flag names whose config key is not the snake_case flag name.
var flagKeys = map[string]string{
	"namespace": "rule_namespaces",
	"disable":   "disabled_rules",
}

func flagKey(name string) string {
	if key, ok := flagKeys[name]; ok {
		return key
	}
	return strings.ReplaceAll(name, "-", "_")
}

// FlagKey returns the configuration option a command-line flag sets, and
// false for flags that are not configuration options.
func FlagKey(name string) (string, bool) {
	key := flagKey(name)
	return key, slices.Contains(topLevelKeys, key)
}

// EnvVar returns the environment variable that sets a top-level option.
func EnvVar(key string) string {
	return EnvPrefix + strings.ToUpper(key)
}

// configExistsIn returns the config file in dir, if any.
func configExistsIn(dir string) string {
	for _, name := range ConfigFileNames {
		candidate := filepath.Join(dir, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

// findConfigUpward searches upward from startDir for a config file.
// Returns empty string if not found within maxUpwardSearchLevels.
func findConfigUpward(startDir string) string {
	dir := startDir
	for i := 0; i < maxUpwardSearchLevels; i++ {
		if found := configExistsIn(dir); found != "" {
			return found
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached filesystem root
			break
		}
		dir = parent
	}
	return ""
}

func defaults() map[string]any {
	b := core.DefaultBadgeConfig()
	return map[string]any{
		"rule_namespaces":           lint.DefaultNamespaces(),
		"disabled_rules":            []string{},
		"fail_project_under":        DefaultFailProjectUnder,
		"fail_any_item_under":       DefaultFailAnyItemUnder,
		"show":                      DefaultShow,
		"format":                    DefaultFormat,
		"workers":                   DefaultWorkers,
		"debug":                     false,
		"badges::first::icon":       b.First.Icon,
		"badges::first::threshold":  b.First.Threshold,
		"badges::second::icon":      b.Second.Icon,
		"badges::second::threshold": b.Second.Threshold,
		"badges::third::icon":       b.Third.Icon,
		"badges::third::threshold":  b.Third.Threshold,
		"badges::wip::icon":         b.WIP.Icon,
		"badges::wip::threshold":    b.WIP.Threshold,
	}
}

// Load loads configuration from defaults, the config file, environment
// variables and flags.
// Precedence (highest to lowest): flags > env vars > config file > defaults.
//
// cfgFile forces a config file; otherwise dbt_score.yaml is searched upward
// from the working directory. Only flags that were explicitly set are read.
func Load(cfgFile string, flags *pflag.FlagSet, logger *slog.Logger) (*Config, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	k := koanf.New(Delim)

	// 1. Load defaults
	if err := k.Load(confmap.Provider(defaults(), Delim), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Find and load config file
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}
	if cfgFile == "" {
		cfgFile = findConfigUpward(cwd)
	}
	projectRoot := cwd
	if cfgFile != "" {
		fileK := koanf.New(Delim)
		if err := fileK.Load(file.Provider(cfgFile), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", cfgFile, err)
		}
		if err := checkFileKeys(fileK, logger); err != nil {
			return nil, fmt.Errorf("invalid config file %s: %w", cfgFile, err)
		}
		if err := k.Merge(fileK); err != nil {
			return nil, fmt.Errorf("failed to merge config file %s: %w", cfgFile, err)
		}
		if abs, err := filepath.Abs(cfgFile); err == nil {
			projectRoot = filepath.Dir(abs)
		}
	}

	// 3. Load environment variables (DBT_SCORE_ prefix)
	// Transform: DBT_SCORE_FAIL_PROJECT_UNDER -> fail_project_under,
	// DBT_SCORE_BADGES__FIRST__ICON -> badges::first::icon
	if err := k.Load(env.Provider(EnvPrefix, Delim, func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		return strings.ReplaceAll(key, "__", Delim)
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}
	for _, key := range listKeys {
		if s, ok := k.Get(key).(string); ok {
			_ = k.Set(key, splitList(s))
		}
	}

	// 4. Load flags (highest priority - overrides env vars and config file)
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, Delim, k, func(f *pflag.Flag) (string, interface{}) {
			// Only load flags that were explicitly set
			if !f.Changed {
				return "", nil
			}
			return flagKey(f.Name), posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	// 5. Unmarshal into Config struct
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.ProjectRoot = projectRoot
	cfg.ConfigFile = cfgFile

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// checkFileKeys rejects unknown badge tiers and badge fields, and warns
// about unknown top-level options.
func checkFileKeys(k *koanf.Koanf, logger *slog.Logger) error {
	for _, key := range k.MapKeys("") {
		if !slices.Contains(topLevelKeys, key) {
			logger.Warn("unsupported config option", slog.String("option", key))
		}
	}
	for _, name := range k.MapKeys("badges") {
		if !slices.Contains(badgeNames, name) {
			return fmt.Errorf("%w: config only accepts badges %v", core.ErrInvalidBadges, badgeNames)
		}
		for _, field := range k.MapKeys("badges" + Delim + name) {
			if !slices.Contains(badgeFields, field) {
				return fmt.Errorf("%w: badge %s only accepts %v", core.ErrInvalidBadges, name, badgeFields)
			}
		}
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// WithLogger stores the logger in ctx.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// GetLogger retrieves the logger from the command context.
func GetLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	// Return discard logger as safe fallback
	return slog.New(slog.DiscardHandler)
}

// WithConfig stores the loaded configuration in ctx.
func WithConfig(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// GetConfig retrieves the configuration from the command context, or nil.
func GetConfig(ctx context.Context) *Config {
	if c, ok := ctx.Value(configKey{}).(*Config); ok {
		return c
	}
	return nil
}
