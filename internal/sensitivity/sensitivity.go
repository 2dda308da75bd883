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

// Package sensitivity measures how the sensitivity of each caller varies
// with a numeric attribute of the truth CNVs, such as their size or the
// number of targeted regions they cover.
package sensitivity

import (
	"fmt"
	"math"

	"github.com/googlegenomics/cnveval/internal/cnv"
	"github.com/googlegenomics/cnveval/internal/match"
)

// Attribute selects the value a call is binned by.
type Attribute func(cnv.Call) float64

// Targets selects the number of targeted regions.
func Targets(c cnv.Call) float64 { return float64(c.Targets) }

// TargetBp selects the number of targeted base pairs.
func TargetBp(c cnv.Call) float64 { return float64(c.TargetBp) }

// Size selects the genomic span.
func Size(c cnv.Call) float64 { return float64(c.Size()) }

// Dimension describes one breakdown of the truth set.
type Dimension struct {
	// Name identifies the attribute, e.g. "targets".
	Name string
	// Description labels the attribute axis.
	Description string
	Attribute   Attribute
	// Edges are the bin boundaries; bin i covers [Edges[i], Edges[i+1]).
	Edges []float64
	// Transform is applied to bin midpoints.  A nil Transform leaves them
	// unchanged.
	Transform func(float64) float64
}

var standardEdges = []float64{0, 100, 500, 1000, 5000, 10000, 50000, 100000, 500000, 1000000, 10000000}

// StandardDimensions returns the breakdowns shown in the standard report.
func StandardDimensions() []Dimension {
	return []Dimension{
		{
			Name:        "targets",
			Description: "Number of Target Regions",
			Attribute:   Targets,
			Edges:       []float64{0, 1, 2, 3, 4, 5, 10, 20, 50, 100, 500, 1000},
		},
		{
			Name:        "targetBp",
			Description: "Number of targeted Base Pairs",
			Attribute:   TargetBp,
			Edges:       append([]float64(nil), standardEdges...),
		},
		{
			Name:        "size",
			Description: "Genomic Span of CNV (bp)",
			Attribute:   Size,
			Edges:       append([]float64(nil), standardEdges...),
			Transform:   math.Log10,
		},
	}
}

// LookupDimension returns the standard dimension called name.
func LookupDimension(name string) (Dimension, error) {
	for _, dim := range StandardDimensions() {
		if dim.Name == name {
			return dim, nil
		}
	}
	return Dimension{}, &cnv.ConfigError{Param: "dimension", Err: fmt.Errorf("unknown dimension %q", name)}
}

// Bin is a band [Min, Max) of the attribute with the truth records that fall
// in it.
type Bin struct {
	Min   float64           `json:"min"`
	Max   float64           `json:"max"`
	Truth []cnv.TruthRecord `json:"-"`
}

// Midpoint returns the centre of the band.
func (b Bin) Midpoint() float64 {
	return (b.Min + b.Max) / 2
}

// Point is the sensitivity of a caller in one bin, plotted at X.
type Point struct {
	X           float64 `json:"x"`
	Sensitivity float64 `json:"y"`
}

// Series is the sensitivity of one caller across the reported bins.  The
// first point is always the origin.
type Series struct {
	Caller string  `json:"caller"`
	Points []Point `json:"points"`
}

// Result is the breakdown of every caller along one dimension.
type Result struct {
	Dimension string `json:"dimension"`
	// Bins are the bins holding enough truth records to be reported.
	Bins   []Bin    `json:"bins"`
	Series []Series `json:"series"`
}

// BinTruth assigns every truth record to the first bin whose band contains
// its attribute value.  Records outside every band are dropped.
func BinTruth(truth []cnv.TruthRecord, attr Attribute, edges []float64) ([]Bin, error) {
	if len(edges) < 2 {
		return nil, &cnv.ConfigError{Param: "bin edges", Err: fmt.Errorf("need at least two edges, got %d", len(edges))}
	}
	bins := make([]Bin, 0, len(edges)-1)
	for i := 1; i < len(edges); i++ {
		bins = append(bins, Bin{Min: edges[i-1], Max: edges[i]})
	}
	for _, record := range truth {
		value := attr(record.Call)
		for i := range bins {
			if value >= bins[i].Min && value < bins[i].Max {
				bins[i].Truth = append(bins[i].Truth, record)
				break
			}
		}
	}
	return bins, nil
}

// Compute bins the truth set of ds along dim and computes, for each caller
// and each bin holding at least opts.MinBinCount truth records, the fraction
// of the bin's records detected by the caller's true positive calls.
func Compute(ds *cnv.Dataset, dim Dimension, opts cnv.Options) (*Result, error) {
	if !ds.HasTruth() {
		return nil, &cnv.ConfigError{Param: "truth", Err: cnv.ErrNoTruth}
	}
	if dim.Attribute == nil {
		return nil, &cnv.ConfigError{Param: "dimension", Err: fmt.Errorf("%q has no attribute", dim.Name)}
	}
	transform := dim.Transform
	if transform == nil {
		transform = cnv.Identity
	}

	bins, err := BinTruth(ds.Truth(), dim.Attribute, dim.Edges)
	if err != nil {
		return nil, err
	}

	result := &Result{Dimension: dim.Name}
	for _, bin := range bins {
		if len(bin.Truth) >= opts.MinBinCount {
			result.Bins = append(result.Bins, bin)
		}
	}

	for _, caller := range ds.Callers() {
		series := Series{Caller: caller, Points: []Point{{X: 0, Sensitivity: 0}}}
		calls := ds.Calls(caller)
		for _, bin := range result.Bins {
			ctx := match.Run(bin.Truth, calls)
			series.Points = append(series.Points, Point{
				X:           transform(bin.Midpoint()),
				Sensitivity: ctx.Sensitivity(),
			})
		}
		result.Series = append(result.Series, series)
	}
	return result, nil
}
