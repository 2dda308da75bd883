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

package cnv

import (
	"errors"
	"fmt"
	"math"

	"github.com/googlegenomics/cnveval/internal/genomics"
)

const (
	// MaxRareCNVFreq is the population frequency above which a call is not
	// counted as a false positive, since it is likely a real CNV present in
	// the population.
	MaxRareCNVFreq = 0.01

	// DefaultMinBinCount is the smallest population a bin needs to be
	// reported.
	DefaultMinBinCount = 3
)

// SimulationMode selects how the truth set was produced and therefore which
// chromosomes are evaluated.
type SimulationMode string

const (
	// Downsample simulations place CNVs on the autosomes; chromosome X is
	// excluded.
	Downsample SimulationMode = "downsample"
	// Replace simulations place CNVs on chromosome X only.
	Replace SimulationMode = "replace"
)

// ParseSimulationMode converts s into a SimulationMode.
func ParseSimulationMode(s string) (SimulationMode, error) {
	switch mode := SimulationMode(s); mode {
	case Downsample, Replace:
		return mode, nil
	}
	return "", &ConfigError{Param: "simulation mode", Err: fmt.Errorf("unsupported mode %q", s)}
}

// Includes reports whether calls on chromosome are evaluated under mode.
func (mode SimulationMode) Includes(chromosome string) bool {
	if mode == Replace {
		return genomics.IsX(chromosome)
	}
	return !genomics.IsX(chromosome)
}

// Options holds the parameters shared by every analysis.
type Options struct {
	// MaxRareFreq is the rarity threshold applied to spanning frequencies.
	MaxRareFreq float64
	Mode        SimulationMode
	MinBinCount int
}

// DefaultOptions returns the options used by the standard report.
func DefaultOptions() Options {
	return Options{
		MaxRareFreq: MaxRareCNVFreq,
		Mode:        Downsample,
		MinBinCount: DefaultMinBinCount,
	}
}

// Validate checks that the options are usable.
func (o Options) Validate() error {
	if o.MaxRareFreq < 0 || o.MaxRareFreq > 1 || math.IsNaN(o.MaxRareFreq) {
		return &ConfigError{Param: "rarity threshold", Err: fmt.Errorf("%v is outside [0,1]", o.MaxRareFreq)}
	}
	if _, err := ParseSimulationMode(string(o.Mode)); err != nil {
		return err
	}
	if o.MinBinCount < 1 {
		return &ConfigError{Param: "minimum bin count", Err: fmt.Errorf("%d is not positive", o.MinBinCount)}
	}
	return nil
}

// ErrNoTruth is returned by analyses that require a truth set when the
// dataset has none.
var ErrNoTruth = errors.New("truth set is missing or empty")

// ConfigError reports an analysis invoked with unusable parameters.
type ConfigError struct {
	Param string
	Err   error
}

func (err *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %v", err.Param, err.Err)
}

func (err *ConfigError) Unwrap() error {
	return err.Err
}
