package room

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfigIsValid(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
	assert.NoError(t, testConfig().Validate())
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(c *Config)
	}{
		{"zero_sample_rate", func(c *Config) { c.Fs = 0 }},
		{"infinite_speed_of_sound", func(c *Config) { c.SpeedOfSound = math.Inf(1) }},
		{"nan_bin_size", func(c *Config) { c.HistBinSize = math.NaN() }},
		{"no_method", func(c *Config) { c.UseISM, c.UseRayTracing = false, false }},
		{"auto_order_without_cap", func(c *Config) { c.MaxOrder, c.MaxAutoOrder = -1, 0 }},
		{"positive_ism_threshold", func(c *Config) { c.MaxOrder, c.ISMEnergyThresholdDB = -1, 3 }},
		{"no_image_sources", func(c *Config) { c.MaxImageSources = 0 }},
		{"no_rays", func(c *Config) { c.NumRays = 0 }},
		{"zero_receiver", func(c *Config) { c.ReceiverRadius = 0 }},
		{"positive_ray_threshold", func(c *Config) { c.EnergyThresholdDB = 10 }},
		{"no_bounces", func(c *Config) { c.MaxBounces = 0 }},
		{"no_bands", func(c *Config) { c.NumBands = 0 }},
		{"even_kernel", func(c *Config) { c.FractionalDelayLength = 80 }},
		{"positive_decay_threshold", func(c *Config) { c.DecayThresholdDB = 0 }},
		{"negative_workers", func(c *Config) { c.Workers = -1 }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.modify(&cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrConfiguration)
		})
	}
}

func TestRayParametersIgnoredWithoutRayTracing(t *testing.T) {
	cfg := DefaultConfig()
	cfg.UseRayTracing = false
	cfg.NumRays = 0
	assert.NoError(t, cfg.Validate())
}

func TestWorkers(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Workers = 0
	assert.Positive(t, cfg.workers())
	cfg.Workers = 3
	assert.Equal(t, 3, cfg.workers())
	assert.NotNil(t, cfg.logger())
}
