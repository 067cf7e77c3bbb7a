package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Defaults for the probe surface, matching conventional ping cadence.
const (
	DefaultCount      = 30
	DefaultIntervalMS = 100
	DefaultTimeoutMS  = 1000
	DefaultTTL        = 64
	DefaultMaxLoss    = 5.0
	DefaultMaxLatency = 800
)

// Probe is the immutable configuration for a single run. Interval and
// Timeout are carried as durations internally but are always expressed in
// whole milliseconds on the CLI and in config files.
type Probe struct {
	Target     string
	Count      int
	Interval   time.Duration
	Timeout    time.Duration
	TTL        int
	MaxLoss    float64
	MaxLatency int64
	Name       string
	Source     string
	Privileged bool
	Quiet      bool
}

// SetDefaults registers the default probe surface on v. Flag and
// environment bindings layered on top take precedence.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("count", DefaultCount)
	v.SetDefault("interval", DefaultIntervalMS)
	v.SetDefault("timeout", DefaultTimeoutMS)
	v.SetDefault("ttl", DefaultTTL)
	v.SetDefault("max_loss", DefaultMaxLoss)
	v.SetDefault("max_latency", DefaultMaxLatency)
	v.SetDefault("name", "")
	v.SetDefault("source", "")
	v.SetDefault("privileged", false)
	v.SetDefault("quiet", false)
}

// Load assembles and validates a Probe from the merged viper state.
func Load(v *viper.Viper) (*Probe, error) {
	p := &Probe{
		Target:     v.GetString("target"),
		Count:      v.GetInt("count"),
		Interval:   time.Duration(v.GetInt64("interval")) * time.Millisecond,
		Timeout:    time.Duration(v.GetInt64("timeout")) * time.Millisecond,
		TTL:        v.GetInt("ttl"),
		MaxLoss:    v.GetFloat64("max_loss"),
		MaxLatency: v.GetInt64("max_latency"),
		Name:       v.GetString("name"),
		Source:     v.GetString("source"),
		Privileged: v.GetBool("privileged"),
		Quiet:      v.GetBool("quiet"),
	}

	return p, p.Validate()
}

// Validate enforces the run invariants. A zero Count means endless mode
// and is valid.
func (p *Probe) Validate() error {
	if p.Target == "" {
		return fmt.Errorf("target host is required")
	}
	if p.Count < 0 {
		return fmt.Errorf("count must be >= 0, got %d", p.Count)
	}
	if p.Interval < 0 {
		return fmt.Errorf("interval must be >= 0, got %v", p.Interval)
	}
	if p.Timeout < 0 {
		return fmt.Errorf("timeout must be >= 0, got %v", p.Timeout)
	}
	if p.TTL < 1 || p.TTL > 255 {
		return fmt.Errorf("ttl must be within 1..255, got %d", p.TTL)
	}
	if p.MaxLoss < 0 || p.MaxLoss > 100 {
		return fmt.Errorf("max_loss must be within 0..100, got %v", p.MaxLoss)
	}
	if p.MaxLatency < 0 {
		return fmt.Errorf("max_latency must be >= 0, got %d", p.MaxLatency)
	}

	return nil
}

// ServerName is the display name used in reports, falling back to the
// target host when no explicit name was configured.
func (p *Probe) ServerName() string {
	if p.Name != "" {
		return p.Name
	}
	return p.Target
}
