package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/airenas/podscript/internal/pkg/persistence"
	"github.com/airenas/podscript/internal/pkg/tier"
	"github.com/airenas/podscript/internal/pkg/tier/api"
	"github.com/spf13/viper"
)

// ErrInvalid is returned for values outside allowed ranges
var ErrInvalid = errors.New("invalid config")

// MaxFileSizeMBCap hard limit for fallback audio size
const MaxFileSizeMBCap = 2048

// Config for transcript runs
type Config struct {
	Enabled            bool
	Tier               string
	LookbackHours      int
	MaxRequests        int
	Concurrency        int
	UseAdvisoryLock    bool
	HaltOnQuota        bool
	OverrideEnabled    bool
	OverrideCount      int
	FallbackEnabled    bool
	FallbackTriggers   []api.Variant
	MaxFallbacksPerRun int
	MaxFileSizeMB      int
}

// SetDefaults sets default values for transcript keys
func SetDefaults(v *viper.Viper) {
	v.SetDefault("transcripts.enabled", true)
	v.SetDefault("transcripts.tier", tier.FreeName)
	v.SetDefault("transcripts.lookbackHours", 24)
	v.SetDefault("transcripts.maxRequests", 100)
	v.SetDefault("transcripts.concurrency", 10)
	v.SetDefault("transcripts.useAdvisoryLock", true)
	v.SetDefault("transcripts.haltOnQuota", false)
	v.SetDefault("transcripts.override.enabled", false)
	v.SetDefault("transcripts.override.count", 10)
	v.SetDefault("transcripts.fallback.enabled", false)
	v.SetDefault("transcripts.fallback.triggers", []string{string(api.VNoMatch), string(api.VNotFound), string(api.VError)})
	v.SetDefault("transcripts.fallback.maxPerRun", 10)
	v.SetDefault("transcripts.fallback.maxFileSizeMB", 500)
}

// Load reads and validates config
func Load(v *viper.Viper) (*Config, error) {
	if v == nil {
		return nil, fmt.Errorf("no viper")
	}
	SetDefaults(v)
	res := &Config{
		Enabled:            v.GetBool("transcripts.enabled"),
		Tier:               strings.ToLower(strings.TrimSpace(v.GetString("transcripts.tier"))),
		LookbackHours:      v.GetInt("transcripts.lookbackHours"),
		MaxRequests:        v.GetInt("transcripts.maxRequests"),
		Concurrency:        v.GetInt("transcripts.concurrency"),
		UseAdvisoryLock:    v.GetBool("transcripts.useAdvisoryLock"),
		HaltOnQuota:        v.GetBool("transcripts.haltOnQuota"),
		OverrideEnabled:    v.GetBool("transcripts.override.enabled"),
		OverrideCount:      v.GetInt("transcripts.override.count"),
		FallbackEnabled:    v.GetBool("transcripts.fallback.enabled"),
		FallbackTriggers:   toVariants(v.GetStringSlice("transcripts.fallback.triggers")),
		MaxFallbacksPerRun: v.GetInt("transcripts.fallback.maxPerRun"),
		MaxFileSizeMB:      v.GetInt("transcripts.fallback.maxFileSizeMB"),
	}
	if err := res.Validate(); err != nil {
		return nil, err
	}
	return res, nil
}

// Validate checks value ranges
func (c *Config) Validate() error {
	if c.Tier != tier.FreeName && c.Tier != tier.BusinessName {
		return fmt.Errorf("%w: wrong tier '%s'", ErrInvalid, c.Tier)
	}
	if err := checkRange("lookbackHours", c.LookbackHours, 1, 168); err != nil {
		return err
	}
	if err := checkRange("maxRequests", c.MaxRequests, 1, 1000); err != nil {
		return err
	}
	if err := checkRange("concurrency", c.Concurrency, 1, 50); err != nil {
		return err
	}
	if c.Concurrency > c.MaxRequests {
		return fmt.Errorf("%w: concurrency %d > maxRequests %d", ErrInvalid, c.Concurrency, c.MaxRequests)
	}
	if err := checkRange("override.count", c.OverrideCount, 1, 100); err != nil {
		return err
	}
	for _, t := range c.FallbackTriggers {
		if !api.IsVariant(string(t)) {
			return fmt.Errorf("%w: wrong fallback trigger '%s'", ErrInvalid, t)
		}
	}
	if err := checkRange("fallback.maxPerRun", c.MaxFallbacksPerRun, 0, 1000); err != nil {
		return err
	}
	return checkRange("fallback.maxFileSizeMB", c.MaxFileSizeMB, 1, MaxFileSizeMBCap)
}

// Selection returns episode selection for a run
func (c *Config) Selection() *persistence.Selection {
	return &persistence.Selection{Lookback: time.Duration(c.LookbackHours) * time.Hour,
		Override: c.OverrideEnabled, Count: c.OverrideCount}
}

// MaxFileSize returns fallback audio limit in bytes
func (c *Config) MaxFileSize() int64 {
	return int64(c.MaxFileSizeMB) * 1024 * 1024
}

func checkRange(name string, v, from, to int) error {
	if v < from || v > to {
		return fmt.Errorf("%w: %s=%d, expected [%d, %d]", ErrInvalid, name, v, from, to)
	}
	return nil
}

func toVariants(in []string) []api.Variant {
	res := make([]api.Variant, 0, len(in))
	for _, s := range in {
		for _, p := range strings.Split(s, ",") {
			if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
				res = append(res, api.Variant(p))
			}
		}
	}
	return res
}
