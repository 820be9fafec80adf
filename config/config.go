// Package config loads the analysis settings. A Config is a plain value: load
// it once, then pass it into every analysis.
package config

import (
	"os"
	"strconv"

	"github.com/jsphweid/midiscan/constants"
	"github.com/jsphweid/midiscan/errs"
	"github.com/jsphweid/midiscan/mapper"
	"github.com/jsphweid/midiscan/validate"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

type Config struct {
	ChordWindow float64 `yaml:"chord_window"`
	Quantize    float64 `yaml:"quantize"`
	RhythmTopK  int     `yaml:"rhythm_top_k"`

	// MappingRules take priority over MappingPreset when both are set.
	MappingRules  mapper.Rules `yaml:"mapping_rules"`
	MappingPreset string       `yaml:"mapping_preset"`

	// Strict fails analysis of files with unpaired note messages.
	Strict bool `yaml:"strict"`
}

func Defaults() Config {
	return Config{
		ChordWindow: constants.DefaultChordWindow,
		Quantize:    constants.DefaultQuantize,
		RhythmTopK:  constants.DefaultRhythmTopK,
	}
}

// Rules resolves the track mapping rules this config asks for.
func (c Config) Rules() (mapper.Rules, error) {
	if len(c.MappingRules) > 0 {
		return c.MappingRules, nil
	}
	rules, ok := mapper.Preset(c.MappingPreset)
	if !ok {
		return nil, errs.Validation("mapping_preset", "unknown preset %q", c.MappingPreset)
	}
	return rules, nil
}

// Mapper compiles the resolved rules.
func (c Config) Mapper() (*mapper.Mapper, error) {
	rules, err := c.Rules()
	if err != nil {
		return nil, err
	}
	return mapper.NewMapper(rules)
}

func (c Config) Validate() error {
	if err := validate.Window(c.ChordWindow); err != nil {
		return err
	}
	if err := validate.Quantize(c.Quantize); err != nil {
		return err
	}
	if err := validate.TopK(c.RhythmTopK); err != nil {
		return err
	}
	_, err := c.Mapper()
	return err
}

// Parse decodes yaml on top of the defaults. Keys missing from data keep
// their default value.
func Parse(data []byte) (Config, error) {
	cfg := Defaults()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, errors.Wrap(err, "decode yaml")
	}
	return cfg, nil
}

// Load reads path, applies environment overrides and validates the result.
// Every failure is a *errs.ConfigurationError. An empty path loads the
// defaults plus environment overrides.
func Load(path string) (Config, error) {
	cfg := Defaults()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, errs.Configuration(path, errors.Wrap(err, "read config"))
		}
		if cfg, err = Parse(data); err != nil {
			return Config{}, errs.Configuration(path, err)
		}
	}
	cfg = cfg.WithEnv()
	if err := cfg.Validate(); err != nil {
		return Config{}, errs.Configuration(path, err)
	}
	return cfg, nil
}

// LoadOrDefault is Load for callers that never want bad config to block an
// analysis: the error is logged and Defaults are returned instead.
func LoadOrDefault(path string, log logrus.FieldLogger) Config {
	cfg, err := Load(path)
	if err != nil {
		if log != nil {
			log.WithError(err).Warn("falling back to default configuration")
		}
		return Defaults()
	}
	return cfg
}

// WithEnv returns c with MIDISCAN_* environment overrides applied. Values that
// do not parse are ignored.
func (c Config) WithEnv() Config {
	c.ChordWindow = envFloat("MIDISCAN_CHORD_WINDOW", c.ChordWindow)
	c.Quantize = envFloat("MIDISCAN_QUANTIZE", c.Quantize)
	c.RhythmTopK = envInt("MIDISCAN_RHYTHM_TOP_K", c.RhythmTopK)
	c.MappingPreset = envStr("MIDISCAN_MAPPING_PRESET", c.MappingPreset)
	return c
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
