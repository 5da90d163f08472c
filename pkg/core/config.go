package core

import (
	"errors"
	"fmt"
)

// MaxScore is the best score a resource or a project can get.
const MaxScore = 10.0

// RuleConfig holds user overrides for a single rule.
type RuleConfig struct {
	// Severity overrides the coded severity when non-zero.
	Severity Severity
	// Description overrides the coded description when non-empty.
	Description string
	// FilterNames replaces the rule's filters when non-nil.
	FilterNames []string
	// Params overrides the rule's default parameters.
	Params map[string]any
}

// Badge is a score tier.
type Badge struct {
	Icon      string  `json:"icon"`
	Threshold float64 `json:"threshold"`
}

// BadgeConfig holds the three ranked tiers plus the work-in-progress fallback.
type BadgeConfig struct {
	First  Badge
	Second Badge
	Third  Badge
	WIP    Badge
}

// DefaultBadgeConfig returns the built-in tiers.
func DefaultBadgeConfig() BadgeConfig {
	return BadgeConfig{
		First:  Badge{Icon: "🥇", Threshold: 10.0},
		Second: Badge{Icon: "🥈", Threshold: 8.0},
		Third:  Badge{Icon: "🥉", Threshold: 6.0},
		WIP:    Badge{Icon: "🚧"},
	}
}

// ErrInvalidBadges is returned by BadgeConfig.Validate.
var ErrInvalidBadges = errors.New("invalid badge configuration")

// Validate checks that the tiers are strictly decreasing and within bounds.
func (c BadgeConfig) Validate() error {
	if c.Third.Threshold < 0 {
		return fmt.Errorf("%w: third threshold must be >= 0.0", ErrInvalidBadges)
	}
	if c.First.Threshold > MaxScore {
		return fmt.Errorf("%w: first threshold must be <= %.1f", ErrInvalidBadges, MaxScore)
	}
	if !(c.First.Threshold > c.Second.Threshold && c.Second.Threshold > c.Third.Threshold) {
		return fmt.Errorf("%w: thresholds must satisfy first > second > third", ErrInvalidBadges)
	}
	if c.WIP.Threshold != 0 {
		return fmt.Errorf("%w: wip badge cannot have a threshold", ErrInvalidBadges)
	}
	return nil
}
