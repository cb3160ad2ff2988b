package guardrail

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quiverhq/quiver/pkg/config"
)

func TestNewPolicy(t *testing.T) {
	tests := []struct {
		name         string
		defaultLimit int
		maxLimit     int
		timeout      time.Duration
		wantErr      bool
	}{
		{"valid", 25, 100, 30 * time.Second, false},
		{"default equals max", 100, 100, time.Second, false},
		{"default exceeds max", 101, 100, time.Second, true},
		{"zero default", 0, 100, time.Second, true},
		{"negative max", 25, -1, time.Second, true},
		{"zero timeout", 25, 100, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPolicy(tt.defaultLimit, tt.maxLimit, tt.timeout)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPolicyLimitClamps(t *testing.T) {
	policy, err := NewPolicy(25, 200, 30*time.Second)
	require.NoError(t, err)

	tests := []struct {
		requested int
		want      int
	}{
		{0, 25},    // absent request gets the default
		{-5, 25},   // negative treated as absent
		{1, 1},     // minimum honored
		{150, 150}, // within bounds passes through
		{200, 200}, // at the ceiling
		{500, 200}, // over the ceiling is capped, not rejected
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, policy.Limit(tt.requested), "requested %d", tt.requested)
	}
}

func TestFromSettings(t *testing.T) {
	policy, err := FromSettings(config.Settings{
		"default_limit": 10,
		"max_limit":     50,
		"timeout":       "5s",
	})
	require.NoError(t, err)

	assert.Equal(t, 10, policy.DefaultLimit())
	assert.Equal(t, 50, policy.MaxLimit())
	assert.Equal(t, 5*time.Second, policy.Timeout())
}

func TestFromSettingsDefaults(t *testing.T) {
	policy, err := FromSettings(config.Settings{})
	require.NoError(t, err)

	assert.Equal(t, DefaultLimit, policy.DefaultLimit())
	assert.Equal(t, DefaultMaxLimit, policy.MaxLimit())
	assert.Equal(t, DefaultTimeout, policy.Timeout())
}

func TestFromSettingsInvalid(t *testing.T) {
	_, err := FromSettings(config.Settings{
		"default_limit": 500,
		"max_limit":     100,
	})
	assert.Error(t, err)
}
