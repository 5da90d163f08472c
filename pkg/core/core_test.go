package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeverity_String(t *testing.T) {
	assert.Equal(t, "low", SeverityLow.String())
	assert.Equal(t, "medium", SeverityMedium.String())
	assert.Equal(t, "high", SeverityHigh.String())
	assert.Equal(t, "critical", SeverityCritical.String())
	assert.Equal(t, "unknown", Severity(0).String())
}

func TestSeverity_Ordinals(t *testing.T) {
	assert.Equal(t, 1, int(SeverityLow))
	assert.Equal(t, 2, int(SeverityMedium))
	assert.Equal(t, 3, int(SeverityHigh))
	assert.Equal(t, 4, int(SeverityCritical))
}

func TestParseSeverity(t *testing.T) {
	tests := []struct {
		input string
		want  Severity
		ok    bool
	}{
		{"low", SeverityLow, true},
		{"HIGH", SeverityHigh, true},
		{" critical ", SeverityCritical, true},
		{"2", SeverityMedium, true},
		{"5", 0, false},
		{"severe", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseSeverity(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSeverityFromValue(t *testing.T) {
	sev, err := SeverityFromValue(3)
	require.NoError(t, err)
	assert.Equal(t, SeverityHigh, sev)

	sev, err = SeverityFromValue(float64(1))
	require.NoError(t, err)
	assert.Equal(t, SeverityLow, sev)

	sev, err = SeverityFromValue("critical")
	require.NoError(t, err)
	assert.Equal(t, SeverityCritical, sev)

	_, err = SeverityFromValue(2.5)
	assert.Error(t, err)

	_, err = SeverityFromValue(0)
	assert.Error(t, err)

	_, err = SeverityFromValue([]string{"low"})
	assert.Error(t, err)
}

func TestParseResourceType(t *testing.T) {
	rt, ok := ParseResourceType("snapshot")
	assert.True(t, ok)
	assert.Equal(t, ResourceSnapshot, rt)

	_, ok = ParseResourceType("test")
	assert.False(t, ok)
}

func TestBadgeConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*BadgeConfig)
		wantErr bool
	}{
		{name: "defaults", mutate: func(*BadgeConfig) {}},
		{name: "first above max", mutate: func(c *BadgeConfig) { c.First.Threshold = 11 }, wantErr: true},
		{name: "negative third", mutate: func(c *BadgeConfig) { c.Third.Threshold = -1 }, wantErr: true},
		{name: "second equals first", mutate: func(c *BadgeConfig) { c.Second.Threshold = 10 }, wantErr: true},
		{name: "third above second", mutate: func(c *BadgeConfig) { c.Third.Threshold = 9 }, wantErr: true},
		{name: "wip threshold", mutate: func(c *BadgeConfig) { c.WIP.Threshold = 1 }, wantErr: true},
		{name: "custom valid", mutate: func(c *BadgeConfig) {
			c.First.Threshold = 9
			c.Second.Threshold = 7
			c.Third.Threshold = 0
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultBadgeConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidBadges)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
