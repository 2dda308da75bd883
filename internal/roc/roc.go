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

// Package roc accumulates true and false positive counts over the calls of
// each caller, walking from the highest quality call down.
package roc

import (
	"fmt"
	"sort"

	"github.com/googlegenomics/cnveval/internal/cnv"
	"github.com/googlegenomics/cnveval/internal/match"
)

// Point is the state of the cumulative counters after one call.
type Point struct {
	FalsePositives int     `json:"fp"`
	TruePositives  int     `json:"tp"`
	Quality        float64 `json:"quality"`
}

// Precision returns the fraction of counted calls that are true positives.
func (p Point) Precision() float64 {
	if p.TruePositives+p.FalsePositives == 0 {
		return 0
	}
	return float64(p.TruePositives) / float64(p.TruePositives+p.FalsePositives)
}

// Curve holds the points of one caller in descending quality order.
type Curve struct {
	Caller string  `json:"caller"`
	Points []Point `json:"points"`
}

// Sensitivity returns the fraction of the truthCount truth records detected at
// point i.
func (c Curve) Sensitivity(i, truthCount int) float64 {
	if truthCount == 0 {
		return 0
	}
	return float64(c.Points[i].TruePositives) / float64(truthCount)
}

// Warning records a call flagged as a true positive that matches no truth
// record.
type Warning struct {
	Caller string
	Call   cnv.Call
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: call %v in sample %s is flagged as a true positive but matches no truth record",
		w.Caller, w.Call.Range, w.Call.Sample)
}

// Result holds the curves of every caller.
type Result struct {
	Curves []Curve `json:"curves"`
	// TruthCount is the number of truth records that passed the filter; it
	// is the denominator of sensitivity.
	TruthCount int       `json:"truthCount"`
	Warnings   []Warning `json:"-"`
}

// Accumulate computes a curve for every caller of ds.  Calls and truth
// records are restricted to the size and target bounds and to the chromosomes
// of the simulation mode.  Calls are then walked in descending quality order:
// a true positive call increments the true positive count the first time it
// detects a truth record, and any other call increments the false positive
// count when it is rare in the population.
func Accumulate(ds *cnv.Dataset, size cnv.SizeRange, targets cnv.TargetRange, opts cnv.Options) (*Result, error) {
	if !ds.HasTruth() {
		return nil, &cnv.ConfigError{Param: "truth", Err: cnv.ErrNoTruth}
	}

	filter := cnv.Filter{Size: size, Targets: targets, Mode: opts.Mode}
	truth := filter.Truth(ds.Truth())
	result := &Result{TruthCount: len(truth)}
	for _, caller := range ds.Callers() {
		calls := filter.Calls(ds.Calls(caller))
		sort.SliceStable(calls, func(i, j int) bool {
			return calls[i].Quality > calls[j].Quality
		})

		curve := Curve{Caller: caller, Points: make([]Point, 0, len(calls))}
		ctx := match.NewContext(truth)
		var tp, fp int
		for _, call := range calls {
			if call.TruePositive {
				switch ctx.Detect(call) {
				case match.Detected:
					tp++
				case match.Unmatched:
					result.Warnings = append(result.Warnings, Warning{Caller: caller, Call: call})
				}
			} else if call.SpanningFreq < opts.MaxRareFreq {
				fp++
			}
			curve.Points = append(curve.Points, Point{FalsePositives: fp, TruePositives: tp, Quality: call.Quality})
		}
		result.Curves = append(result.Curves, curve)
	}
	return result, nil
}
