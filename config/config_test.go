package config_test

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thetooth/pingcheck/config"
)

func newViper(t *testing.T, overrides map[string]interface{}) *viper.Viper {
	t.Helper()
	v := viper.New()
	config.SetDefaults(v)
	v.Set("target", "web-1.example.com")
	for key, value := range overrides {
		v.Set(key, value)
	}
	return v
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load(newViper(t, nil))
	require.NoError(t, err)

	assert.Equal(t, "web-1.example.com", cfg.Target)
	assert.Equal(t, 30, cfg.Count)
	assert.Equal(t, 100*time.Millisecond, cfg.Interval)
	assert.Equal(t, time.Second, cfg.Timeout)
	assert.Equal(t, 64, cfg.TTL)
	assert.Equal(t, 5.0, cfg.MaxLoss)
	assert.Equal(t, int64(800), cfg.MaxLatency)
	assert.False(t, cfg.Privileged)
	assert.False(t, cfg.Quiet)
}

func TestLoadOverrides(t *testing.T) {
	cfg, err := config.Load(newViper(t, map[string]interface{}{
		"count":       0,
		"interval":    250,
		"timeout":     2000,
		"max_loss":    0,
		"max_latency": 100,
		"name":        "edge",
		"quiet":       true,
	}))
	require.NoError(t, err)

	assert.Equal(t, 0, cfg.Count)
	assert.Equal(t, 250*time.Millisecond, cfg.Interval)
	assert.Equal(t, 2*time.Second, cfg.Timeout)
	assert.Equal(t, 0.0, cfg.MaxLoss)
	assert.Equal(t, int64(100), cfg.MaxLatency)
	assert.Equal(t, "edge", cfg.Name)
	assert.True(t, cfg.Quiet)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		overrides map[string]interface{}
	}{
		{"negative count", map[string]interface{}{"count": -1}},
		{"negative interval", map[string]interface{}{"interval": -100}},
		{"negative timeout", map[string]interface{}{"timeout": -1}},
		{"zero ttl", map[string]interface{}{"ttl": 0}},
		{"ttl too large", map[string]interface{}{"ttl": 256}},
		{"negative loss", map[string]interface{}{"max_loss": -0.1}},
		{"loss over 100", map[string]interface{}{"max_loss": 100.1}},
		{"negative latency", map[string]interface{}{"max_latency": -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.Load(newViper(t, tt.overrides))
			assert.Error(t, err)
		})
	}
}

func TestValidateMissingTarget(t *testing.T) {
	v := viper.New()
	config.SetDefaults(v)

	_, err := config.Load(v)
	assert.Error(t, err)
}

func TestServerName(t *testing.T) {
	cfg := &config.Probe{Target: "web-1.example.com"}
	assert.Equal(t, "web-1.example.com", cfg.ServerName())

	cfg.Name = "edge"
	assert.Equal(t, "edge", cfg.ServerName())
}
