// Copyright 2019 Google Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config loads the evaluation settings from defaults, an optional
// YAML file and the environment, in increasing order of priority.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/googlegenomics/cnveval/internal/cnv"
	"github.com/googlegenomics/cnveval/internal/debounce"
	"github.com/googlegenomics/cnveval/internal/distribution"
	"github.com/googlegenomics/cnveval/internal/genomics"
)

// Config holds every setting of an evaluation run.
type Config struct {
	Data       DataConfig       `yaml:"data"`
	Evaluation EvaluationConfig `yaml:"evaluation"`
	Watch      WatchConfig      `yaml:"watch"`
	Log        LogConfig        `yaml:"log"`

	// Output is the report destination; empty or "-" means stdout.
	Output string `envconfig:"CNVEVAL_OUTPUT" yaml:"output"`
}

// DataConfig locates the caller results.
type DataConfig struct {
	// Base is a local directory or a gs://bucket/prefix URL.
	Base     string   `envconfig:"CNVEVAL_BASE" yaml:"base"`
	Analysis string   `envconfig:"CNVEVAL_ANALYSIS" yaml:"analysis"`
	Runs     []string `envconfig:"CNVEVAL_RUNS" yaml:"runs"`
}

// EvaluationConfig holds the analysis parameters.
type EvaluationConfig struct {
	Reference ReferenceSetting `envconfig:"CNVEVAL_REFERENCE" yaml:"reference"`
	// ReferenceFile is a YAML file holding a chromosome table.  It takes
	// precedence over Reference.
	ReferenceFile string `envconfig:"CNVEVAL_REFERENCE_FILE" yaml:"reference_file"`

	Mode        string  `envconfig:"CNVEVAL_MODE" yaml:"mode"`
	MaxRareFreq float64 `envconfig:"CNVEVAL_MAX_RARE_FREQ" yaml:"max_rare_freq"`
	MinBinCount int     `envconfig:"CNVEVAL_MIN_BIN_COUNT" yaml:"min_bin_count"`

	// SizeMinLog10 and SizeMaxLog10 bound the call size, in log10 base
	// pairs.
	SizeMinLog10 float64 `envconfig:"CNVEVAL_SIZE_MIN_LOG10" yaml:"size_min_log10"`
	SizeMaxLog10 float64 `envconfig:"CNVEVAL_SIZE_MAX_LOG10" yaml:"size_max_log10"`
	TargetsMin   int     `envconfig:"CNVEVAL_TARGETS_MIN" yaml:"targets_min"`
	// TargetsMax is inclusive; a negative value disables the bound.
	TargetsMax int `envconfig:"CNVEVAL_TARGETS_MAX" yaml:"targets_max"`

	WindowSize          int64    `envconfig:"CNVEVAL_WINDOW_SIZE" yaml:"window_size"`
	DrillDownWindowSize int64    `envconfig:"CNVEVAL_DRILLDOWN_WINDOW_SIZE" yaml:"drilldown_window_size"`
	DrillDown           []string `envconfig:"CNVEVAL_DRILLDOWN" yaml:"drilldown"`
}

// ReferenceSetting selects the chromosome table.  In YAML it is either the
// name of a registered build or an inline table:
//
//	reference: hg19
//
//	reference:
//	  build: toy
//	  chromosomes:
//	    - {name: "1", length: 1000}
type ReferenceSetting struct {
	Build string
	Table *genomics.Reference
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (r *ReferenceSetting) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		r.Table = nil
		return node.Decode(&r.Build)
	case yaml.MappingNode:
		var ref genomics.Reference
		if err := node.Decode(&ref); err != nil {
			return err
		}
		r.Build, r.Table = ref.Build, &ref
		return nil
	default:
		return fmt.Errorf("line %d: reference must be a build name or a chromosome table", node.Line)
	}
}

// Decode implements envconfig.Decoder.  The environment can only name a
// build.
func (r *ReferenceSetting) Decode(value string) error {
	r.Build, r.Table = value, nil
	return nil
}

// WatchConfig holds the settings of the watch command.
type WatchConfig struct {
	QuietPeriod time.Duration `envconfig:"CNVEVAL_QUIET_PERIOD" yaml:"quiet_period"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `envconfig:"CNVEVAL_LOG_LEVEL" yaml:"level"`
	Format string `envconfig:"CNVEVAL_LOG_FORMAT" yaml:"format"`
}

// Load reads configuration from an optional YAML file and the environment.
func Load(configPath string) (*Config, error) {
	cfg := Default()

	if configPath != "" {
		if err := loadFromFile(cfg, configPath); err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
	}

	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("processing env config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// Default returns the settings of the standard report.
func Default() *Config {
	return &Config{
		Data: DataConfig{
			Base:     ".",
			Analysis: "cnv",
		},
		Evaluation: EvaluationConfig{
			Reference:           ReferenceSetting{Build: genomics.HG19.Build},
			Mode:                string(cnv.Downsample),
			MaxRareFreq:         cnv.MaxRareCNVFreq,
			MinBinCount:         cnv.DefaultMinBinCount,
			SizeMinLog10:        0,
			SizeMaxLog10:        7,
			TargetsMin:          0,
			TargetsMax:          cnv.Unbounded,
			WindowSize:          distribution.DefaultWindowSize,
			DrillDownWindowSize: distribution.DrillDownWindowSize,
		},
		Watch: WatchConfig{QuietPeriod: debounce.DefaultQuietPeriod},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Validate checks every setting and reports the first unusable one.
func (c *Config) Validate() error {
	if _, err := c.Options(); err != nil {
		return err
	}
	if _, err := c.Reference(); err != nil {
		return err
	}
	e := c.Evaluation
	if e.SizeMinLog10 >= e.SizeMaxLog10 {
		return &cnv.ConfigError{Param: "size range", Err: fmt.Errorf("[%v, %v] is empty", e.SizeMinLog10, e.SizeMaxLog10)}
	}
	if e.TargetsMin < 0 || (e.TargetsMax >= 0 && e.TargetsMax < e.TargetsMin) {
		return &cnv.ConfigError{Param: "target range", Err: fmt.Errorf("[%d, %d] is empty", e.TargetsMin, e.TargetsMax)}
	}
	if e.WindowSize <= 0 || e.DrillDownWindowSize <= 0 {
		return &cnv.ConfigError{Param: "window size", Err: fmt.Errorf("%d/%d is not positive", e.WindowSize, e.DrillDownWindowSize)}
	}
	if c.Watch.QuietPeriod < 0 {
		return &cnv.ConfigError{Param: "quiet period", Err: fmt.Errorf("%v is negative", c.Watch.QuietPeriod)}
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Log.Level] {
		return &cnv.ConfigError{Param: "log level", Err: fmt.Errorf("%q is not one of debug, info, warn or error", c.Log.Level)}
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return &cnv.ConfigError{Param: "log format", Err: fmt.Errorf("%q is not one of text or json", c.Log.Format)}
	}
	return nil
}

// Options returns the shared analysis options.
func (c *Config) Options() (cnv.Options, error) {
	mode, err := cnv.ParseSimulationMode(c.Evaluation.Mode)
	if err != nil {
		return cnv.Options{}, err
	}
	opts := cnv.Options{
		MaxRareFreq: c.Evaluation.MaxRareFreq,
		Mode:        mode,
		MinBinCount: c.Evaluation.MinBinCount,
	}
	return opts, opts.Validate()
}

// Reference returns the configured chromosome table: the table file if one
// is set, then an inline table, then the named build.
func (c *Config) Reference() (genomics.Reference, error) {
	ref, err := c.reference()
	if err != nil {
		return genomics.Reference{}, &cnv.ConfigError{Param: "reference", Err: err}
	}
	return ref, nil
}

func (c *Config) reference() (genomics.Reference, error) {
	e := c.Evaluation
	switch {
	case e.ReferenceFile != "":
		ref, err := LoadReference(e.ReferenceFile)
		if err != nil {
			return genomics.Reference{}, err
		}
		return ref, nil
	case e.Reference.Table != nil:
		ref := e.Reference.Table.Normalize()
		if ref.Build == "" {
			ref.Build = "custom"
		}
		return ref, ref.Validate()
	default:
		return genomics.LookupReference(e.Reference.Build)
	}
}

// LoadReference reads a chromosome table from a YAML file.  A table without
// a build name is named after the file.
func LoadReference(path string) (genomics.Reference, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return genomics.Reference{}, err
	}
	var ref genomics.Reference
	if err := yaml.Unmarshal(data, &ref); err != nil {
		return genomics.Reference{}, fmt.Errorf("parsing %s: %w", path, err)
	}
	ref = ref.Normalize()
	if ref.Build == "" {
		ref.Build = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if err := ref.Validate(); err != nil {
		return genomics.Reference{}, err
	}
	return ref, nil
}

// SizeRange returns the configured size bounds in base pairs.
func (c *Config) SizeRange() cnv.SizeRange {
	return cnv.SizeRangeFromLog10(c.Evaluation.SizeMinLog10, c.Evaluation.SizeMaxLog10)
}

// TargetRange returns the configured target bounds.
func (c *Config) TargetRange() cnv.TargetRange {
	upper := c.Evaluation.TargetsMax
	if upper < 0 {
		upper = cnv.Unbounded
	}
	return cnv.TargetRange{Min: c.Evaluation.TargetsMin, Max: upper}
}
