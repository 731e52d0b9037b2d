package config

import (
	"errors"
	"testing"
	"time"

	"github.com/airenas/podscript/internal/pkg/persistence"
	"github.com/airenas/podscript/internal/pkg/tier/api"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	c, err := Load(viper.New())

	require.Nil(t, err)
	assert.Equal(t, &Config{Enabled: true, Tier: "free", LookbackHours: 24, MaxRequests: 100, Concurrency: 10,
		UseAdvisoryLock: true, OverrideCount: 10,
		FallbackTriggers:   []api.Variant{api.VNoMatch, api.VNotFound, api.VError},
		MaxFallbacksPerRun: 10, MaxFileSizeMB: 500}, c)
}

func TestLoad(t *testing.T) {
	v := viper.New()
	v.Set("transcripts.tier", " Business ")
	v.Set("transcripts.concurrency", 5)
	v.Set("transcripts.maxRequests", 5)
	v.Set("transcripts.fallback.enabled", true)
	v.Set("transcripts.fallback.triggers", "no_match, error")
	v.Set("transcripts.fallback.maxPerRun", 0)
	v.Set("transcripts.override.enabled", true)

	c, err := Load(v)

	require.Nil(t, err)
	assert.Equal(t, "business", c.Tier)
	assert.Equal(t, []api.Variant{api.VNoMatch, api.VError}, c.FallbackTriggers)
	assert.Equal(t, 0, c.MaxFallbacksPerRun)
	assert.True(t, c.FallbackEnabled)
	assert.True(t, c.OverrideEnabled)
}

func TestLoad_Nil(t *testing.T) {
	_, err := Load(nil)
	assert.NotNil(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{Tier: "free", LookbackHours: 24, MaxRequests: 100, Concurrency: 10, OverrideCount: 10,
			FallbackTriggers: []api.Variant{api.VFull, api.VProcessing}, MaxFallbacksPerRun: 10, MaxFileSizeMB: 500}
	}
	tests := []struct {
		name    string
		change  func(c *Config)
		wantErr bool
	}{
		{name: "OK", change: func(c *Config) {}},
		{name: "tier", change: func(c *Config) { c.Tier = "pro" }, wantErr: true},
		{name: "lookback low", change: func(c *Config) { c.LookbackHours = 0 }, wantErr: true},
		{name: "lookback high", change: func(c *Config) { c.LookbackHours = 169 }, wantErr: true},
		{name: "lookback max", change: func(c *Config) { c.LookbackHours = 168 }},
		{name: "maxRequests", change: func(c *Config) { c.MaxRequests = 1001 }, wantErr: true},
		{name: "concurrency", change: func(c *Config) { c.Concurrency = 51; c.MaxRequests = 1000 }, wantErr: true},
		{name: "concurrency > maxRequests", change: func(c *Config) { c.Concurrency = 11; c.MaxRequests = 10 }, wantErr: true},
		{name: "concurrency = maxRequests", change: func(c *Config) { c.Concurrency = 10; c.MaxRequests = 10 }},
		{name: "override count", change: func(c *Config) { c.OverrideCount = 101 }, wantErr: true},
		{name: "trigger", change: func(c *Config) { c.FallbackTriggers = []api.Variant{"olia"} }, wantErr: true},
		{name: "fallbacks", change: func(c *Config) { c.MaxFallbacksPerRun = -1 }, wantErr: true},
		{name: "fallbacks zero", change: func(c *Config) { c.MaxFallbacksPerRun = 0 }},
		{name: "file size", change: func(c *Config) { c.MaxFileSizeMB = 2049 }, wantErr: true},
		{name: "file size cap", change: func(c *Config) { c.MaxFileSizeMB = 2048 }},
		{name: "file size zero", change: func(c *Config) { c.MaxFileSizeMB = 0 }, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.change(c)
			err := c.Validate()
			assert.Equal(t, tt.wantErr, err != nil, "error = %v", err)
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrInvalid))
			}
		})
	}
}

func TestSelection(t *testing.T) {
	c := &Config{LookbackHours: 2, OverrideEnabled: true, OverrideCount: 3}
	assert.Equal(t, &persistence.Selection{Lookback: 2 * time.Hour, Override: true, Count: 3}, c.Selection())
}

func TestMaxFileSize(t *testing.T) {
	assert.Equal(t, int64(500*1024*1024), (&Config{MaxFileSizeMB: 500}).MaxFileSize())
}
