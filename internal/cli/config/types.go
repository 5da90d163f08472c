// Package config provides configuration management for the dbtscore CLI.
//
// Configuration is layered with koanf: built-in defaults, then the
// dbt_score.yaml file, then DBT_SCORE_* environment variables, then
// explicitly set command-line flags. Keys are delimited by "::" because
// qualified rule names contain dots.
package config

import (
	"fmt"
	"sort"

	"github.com/leapstack-labs/dbtscore/pkg/core"
	"github.com/leapstack-labs/dbtscore/pkg/lint"
)

// Config holds all CLI configuration options.
type Config struct {
	RuleNamespaces   []string                  `koanf:"rule_namespaces"`
	DisabledRules    []string                  `koanf:"disabled_rules"`
	FailProjectUnder float64                   `koanf:"fail_project_under"`
	FailAnyItemUnder float64                   `koanf:"fail_any_item_under"`
	Show             string                    `koanf:"show"`
	Format           string                    `koanf:"format"`
	Manifest         string                    `koanf:"manifest"`
	Workers          int                       `koanf:"workers"`
	Debug            bool                      `koanf:"debug"`
	Badges           BadgesConfig              `koanf:"badges"`
	Rules            map[string]map[string]any `koanf:"rules"`

	// ProjectRoot is the directory scripted rule namespaces resolve from:
	// the config file's directory, or the working directory without one.
	ProjectRoot string `koanf:"-"`
	// ConfigFile is the config file that was loaded, if any.
	ConfigFile string `koanf:"-"`
}

// BadgeConfig configures one badge tier.
type BadgeConfig struct {
	Icon      string  `koanf:"icon"`
	Threshold float64 `koanf:"threshold"`
}

// BadgesConfig holds the badge tiers.
type BadgesConfig struct {
	First  BadgeConfig `koanf:"first"`
	Second BadgeConfig `koanf:"second"`
	Third  BadgeConfig `koanf:"third"`
	WIP    BadgeConfig `koanf:"wip"`
}

// Default configuration values.
const (
	DefaultConfigFile       = "dbt_score.yaml"
	DefaultFailProjectUnder = 5.0
	DefaultFailAnyItemUnder = 5.0
	DefaultShow             = "failing-rules"
	DefaultFormat           = "plain"
	DefaultWorkers          = 1
	EnvPrefix               = "DBT_SCORE_"
	Delim                   = "::"
)

// ConfigFileNames are searched, in order, in each candidate directory.
var ConfigFileNames = []string{"dbt_score.yaml", "dbt_score.yml"}

// Rule configuration keys that are not rule parameters.
const (
	ruleKeySeverity    = "severity"
	ruleKeyDescription = "description"
	ruleKeyFilterNames = "rule_filter_names"
)

// BadgeConfig converts the badge tiers to the scorer's configuration.
func (c *Config) BadgeConfig() core.BadgeConfig {
	conv := func(b BadgeConfig) core.Badge { return core.Badge{Icon: b.Icon, Threshold: b.Threshold} }
	return core.BadgeConfig{
		First:  conv(c.Badges.First),
		Second: conv(c.Badges.Second),
		Third:  conv(c.Badges.Third),
		WIP:    conv(c.Badges.WIP),
	}
}

// RuleConfigs converts the per-rule sections into rule configurations.
// "severity", "description" and "rule_filter_names" are reserved; every
// other key is a rule parameter.
func (c *Config) RuleConfigs() (map[string]core.RuleConfig, error) {
	out := make(map[string]core.RuleConfig, len(c.Rules))

	names := make([]string, 0, len(c.Rules))
	for name := range c.Rules {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		var rc core.RuleConfig
		for key, value := range c.Rules[name] {
			switch key {
			case ruleKeySeverity:
				sev, err := core.SeverityFromValue(value)
				if err != nil {
					return nil, &lint.ConfigError{Rule: name, Key: key, Message: err.Error()}
				}
				rc.Severity = sev
			case ruleKeyDescription:
				s, ok := value.(string)
				if !ok {
					return nil, &lint.ConfigError{Rule: name, Key: key, Message: fmt.Sprintf("expected a string, got %T", value)}
				}
				rc.Description = s
			case ruleKeyFilterNames:
				filters, err := stringList(value)
				if err != nil {
					return nil, &lint.ConfigError{Rule: name, Key: key, Message: err.Error()}
				}
				rc.FilterNames = filters
			default:
				if rc.Params == nil {
					rc.Params = make(map[string]any)
				}
				rc.Params[key] = value
			}
		}
		out[name] = rc
	}
	return out, nil
}

func stringList(v any) ([]string, error) {
	switch val := v.(type) {
	case []string:
		return val, nil
	case string:
		return splitList(val), nil
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("expected a list of strings, got %T item", item)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("expected a list of strings, got %T", v)
	}
}
