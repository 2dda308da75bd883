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

// Package report runs every analysis over a dataset and collects the results
// into a single value that renderers can consume.
package report

import (
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"

	"github.com/googlegenomics/cnveval/internal/calibration"
	"github.com/googlegenomics/cnveval/internal/cnv"
	"github.com/googlegenomics/cnveval/internal/distribution"
	"github.com/googlegenomics/cnveval/internal/genomics"
	"github.com/googlegenomics/cnveval/internal/logger"
	"github.com/googlegenomics/cnveval/internal/roc"
	"github.com/googlegenomics/cnveval/internal/samples"
	"github.com/googlegenomics/cnveval/internal/sensitivity"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Params selects what a report covers.
type Params struct {
	Options   cnv.Options
	Size      cnv.SizeRange
	Targets   cnv.TargetRange
	Reference genomics.Reference

	WindowSize          int64
	DrillDownWindowSize int64
	// DrillDown lists the chromosomes shown at the finer window size.  No
	// drill-down distribution is computed when it is empty.
	DrillDown []string

	// Dimensions defaults to sensitivity.StandardDimensions.
	Dimensions []sensitivity.Dimension

	// Runs and Analysis are recorded in the report as given.
	Runs     []string
	Analysis string
}

// DefaultParams returns the parameters of the standard report.
func DefaultParams() Params {
	return Params{
		Options:             cnv.DefaultOptions(),
		Size:                cnv.SizeRangeFromLog10(0, 7),
		Targets:             cnv.AllTargets,
		Reference:           genomics.HG19,
		WindowSize:          distribution.DefaultWindowSize,
		DrillDownWindowSize: distribution.DrillDownWindowSize,
	}
}

// Settings echoes the parameters a report was computed with.
type Settings struct {
	MaxRareFreq float64 `json:"maxRareFreq"`
	Mode        string  `json:"mode"`
	MinBinCount int     `json:"minBinCount"`
	Reference   string  `json:"reference"`
	SizeRange   string  `json:"sizeRange"`
	TargetRange string  `json:"targetRange"`
}

// PlotPoint is a generic (x, y) pair.
type PlotPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Calibration is the quality calibration of one caller with its plot
// points: the precision of each bin at the bin midpoint.
type Calibration struct {
	Caller string `json:"caller"`
	calibration.Result
	Points []PlotPoint `json:"points"`
}

// Distribution is a genome distribution with its axis labels.
type Distribution struct {
	*distribution.Result
	// Ticks labels the first window of each chromosome.
	Ticks   []string `json:"ticks"`
	Caption string   `json:"caption"`
}

// Report is the outcome of every analysis.
type Report struct {
	ID        string    `json:"id"`
	Generated time.Time `json:"generated"`
	Runs      []string  `json:"runs,omitempty"`
	Analysis  string    `json:"analysis,omitempty"`
	Settings  Settings  `json:"settings"`
	Callers   []string  `json:"callers"`

	Calibration  []Calibration         `json:"calibration"`
	ROC          *roc.Result           `json:"roc"`
	Sensitivity  []*sensitivity.Result `json:"sensitivity"`
	Distribution *Distribution         `json:"distribution"`
	DrillDown    *Distribution         `json:"drillDown,omitempty"`
	Samples      *samples.Result       `json:"samples"`

	// Warnings lists the data quality problems found while evaluating.
	Warnings []string `json:"warnings,omitempty"`
}

// Build runs every analysis on ds.  The dataset must carry a truth set.
func Build(ds *cnv.Dataset, params Params, log *logger.Logger) (*Report, error) {
	if log == nil {
		log = logger.Discard()
	}
	if err := params.Options.Validate(); err != nil {
		return nil, err
	}
	if !ds.HasTruth() {
		return nil, &cnv.ConfigError{Param: "truth", Err: cnv.ErrNoTruth}
	}
	dimensions := params.Dimensions
	if dimensions == nil {
		dimensions = sensitivity.StandardDimensions()
	}

	opts := params.Options
	report := &Report{
		ID:        uuid.New().String(),
		Generated: time.Now().UTC(),
		Runs:      params.Runs,
		Analysis:  params.Analysis,
		Settings: Settings{
			MaxRareFreq: opts.MaxRareFreq,
			Mode:        string(opts.Mode),
			MinBinCount: opts.MinBinCount,
			Reference:   params.Reference.Build,
			SizeRange:   SizeRangeLabel(params.Size),
			TargetRange: TargetRangeLabel(params.Targets),
		},
		Callers: ds.Callers(),
	}

	for _, caller := range report.Callers {
		result := calibration.Calibrate(ds.Calls(caller), opts)
		entry := Calibration{Caller: caller, Result: result}
		for _, bin := range result.Bins {
			entry.Points = append(entry.Points, PlotPoint{X: bin.Midpoint(), Y: bin.Precision()})
		}
		log.WithCaller(caller).Debug("Calibrated quality",
			"calls", result.Calls, "bins", len(result.Bins), "refinements", result.Refinements)
		report.Calibration = append(report.Calibration, entry)
	}

	curves, err := roc.Accumulate(ds, params.Size, params.Targets, opts)
	if err != nil {
		return nil, fmt.Errorf("computing ROC curves: %w", err)
	}
	for _, warning := range curves.Warnings {
		log.WithCaller(warning.Caller).Warn("Unmatched true positive call",
			"region", warning.Call.Range.String(), "sample", warning.Call.Sample)
		report.Warnings = append(report.Warnings, warning.String())
	}
	report.ROC = curves

	for _, dim := range dimensions {
		result, err := sensitivity.Compute(ds, dim, opts)
		if err != nil {
			return nil, fmt.Errorf("computing sensitivity by %s: %w", dim.Name, err)
		}
		log.Debug("Computed sensitivity", "dimension", dim.Name, "bins", len(result.Bins))
		report.Sensitivity = append(report.Sensitivity, result)
	}

	// Genome distributions only show calls absent from the population.
	rare := ds.Rare(opts.MaxRareFreq)
	dist, err := distribution.Compute(params.Reference, params.WindowSize, rare)
	if err != nil {
		return nil, fmt.Errorf("computing genome distribution: %w", err)
	}
	report.Distribution = NewDistribution(dist)

	if len(params.DrillDown) > 0 {
		dist, err := distribution.DrillDown(params.Reference, params.DrillDown, params.DrillDownWindowSize, rare)
		if err != nil {
			return nil, fmt.Errorf("computing drill-down distribution: %w", err)
		}
		report.DrillDown = NewDistribution(dist)
	}

	report.Samples = samples.Aggregate(ds.Results())

	log.Info("Built report", "id", report.ID, "callers", len(report.Callers), "calls", ds.Len(),
		"truth", curves.TruthCount, "warnings", len(report.Warnings))
	return report, nil
}

// NewDistribution labels a distribution for plotting.
func NewDistribution(result *distribution.Result) *Distribution {
	d := &Distribution{Result: result, Caption: WindowCaption(result.WindowSize)}
	for _, start := range result.ChromosomeStarts {
		d.Ticks = append(d.Ticks, result.Label(start))
	}
	return d
}

// Encode writes the report to w as indented JSON.
func (r *Report) Encode(w io.Writer) error {
	return WriteJSON(w, r)
}

// WriteJSON writes v to w as indented JSON.
func WriteJSON(w io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %T: %w", v, err)
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

// Decode reads a report written by Encode.
func Decode(r io.Reader) (*Report, error) {
	var report Report
	if err := json.NewDecoder(r).Decode(&report); err != nil {
		return nil, fmt.Errorf("decoding report: %w", err)
	}
	return &report, nil
}
