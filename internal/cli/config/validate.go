package config

import (
	"fmt"
	"slices"

	"github.com/leapstack-labs/dbtscore/pkg/core"
)

var showModes = []string{"all", "failing-items", "failing-rules"}

// Validate checks if the configuration is valid. The output format is
// checked by the command that consumes it.
func (c *Config) Validate() error {
	if err := c.BadgeConfig().Validate(); err != nil {
		return err
	}
	if c.FailProjectUnder < 0 || c.FailProjectUnder > core.MaxScore {
		return fmt.Errorf("fail_project_under must be between 0.0 and 10.0, got %v", c.FailProjectUnder)
	}
	if c.FailAnyItemUnder < 0 || c.FailAnyItemUnder > core.MaxScore {
		return fmt.Errorf("fail_any_item_under must be between 0.0 and 10.0, got %v", c.FailAnyItemUnder)
	}
	if !slices.Contains(showModes, c.Show) {
		return fmt.Errorf("show must be one of %v, got %q", showModes, c.Show)
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if _, err := c.RuleConfigs(); err != nil {
		return err
	}
	return nil
}
