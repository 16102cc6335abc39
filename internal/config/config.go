// Package config loads stitch configuration from file, environment and
// defaults.
package config

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"
)

// Config is the full stitch configuration.
type Config struct {
	Crop   CropConfig   `mapstructure:"crop" yaml:"crop"`
	Toc    TocConfig    `mapstructure:"toc" yaml:"toc"`
	Render RenderConfig `mapstructure:"render" yaml:"render"`
}

// CropConfig controls content-aware cropping of overlay appendix pages.
type CropConfig struct {
	// PaddingPts is added around the detected content bounding box.
	PaddingPts float64 `mapstructure:"padding_pts" yaml:"padding_pts"`
	// MinBorderPaddingPts is the floor applied to PaddingPts so thin
	// border lines near true content edges survive the crop.
	MinBorderPaddingPts float64 `mapstructure:"min_border_padding_pts" yaml:"min_border_padding_pts"`
}

// EffectivePadding returns the padding actually applied around a content
// bounding box.
func (c CropConfig) EffectivePadding() float64 {
	if c.PaddingPts < c.MinBorderPaddingPts {
		return c.MinBorderPaddingPts
	}
	return c.PaddingPts
}

// TocConfig controls outline reconciliation during merge.
type TocConfig struct {
	// HeadingKeyword is matched case-insensitively against outline entry
	// titles when correlating an insertion point with its appendix
	// heading. Best effort; a miss degrades to top-level entries.
	HeadingKeyword string `mapstructure:"heading_keyword" yaml:"heading_keyword"`
}

// RenderConfig describes the external document-to-PDF renderer.
type RenderConfig struct {
	// Primary is the renderer command template. {input} and {outdir} are
	// substituted before execution.
	Primary []string `mapstructure:"primary" yaml:"primary"`
	// Fallback is tried when the primary renderer fails all attempts.
	Fallback []string `mapstructure:"fallback" yaml:"fallback,omitempty"`
	// Attempts is the per-renderer retry count.
	Attempts uint `mapstructure:"attempts" yaml:"attempts"`
	// TimeoutSeconds bounds a single renderer invocation.
	TimeoutSeconds int `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
}

// Load reads configuration from cfgFile (or the default search path) over
// the built-in defaults. Environment variables use the STITCH_ prefix.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("crop.padding_pts", defaults.Crop.PaddingPts)
	v.SetDefault("crop.min_border_padding_pts", defaults.Crop.MinBorderPaddingPts)
	v.SetDefault("toc.heading_keyword", defaults.Toc.HeadingKeyword)
	v.SetDefault("render.primary", defaults.Render.Primary)
	v.SetDefault("render.fallback", defaults.Render.Fallback)
	v.SetDefault("render.attempts", defaults.Render.Attempts)
	v.SetDefault("render.timeout_seconds", defaults.Render.TimeoutSeconds)

	v.SetEnvPrefix("STITCH")
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("stitch")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.stitch")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}
