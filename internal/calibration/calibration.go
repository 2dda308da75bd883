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

// Package calibration bins the calls of a caller by quality score to measure
// the empirical precision of each quality band.
package calibration

import (
	"math"

	"github.com/googlegenomics/cnveval/internal/cnv"
)

const (
	// binsPerRange is the number of bins the quality span is split into
	// before rounding the width.
	binsPerRange = 5

	// maxRefinements bounds the number of times a single surviving bin is
	// split again.  A refinement keeps at most 0.4 of the quality span and a
	// span below 1.25 yields no bins, so this is never reached for finite
	// qualities.
	maxRefinements = 64
)

// Bin is a half-open quality band [Low, High).
type Bin struct {
	Low   float64 `json:"low"`
	High  float64 `json:"high"`
	Count int     `json:"count"`
	Truth int     `json:"truth"`
}

// Precision returns the fraction of calls in the bin that are true positives.
func (b Bin) Precision() float64 {
	if b.Count == 0 {
		return 0
	}
	return float64(b.Truth) / float64(b.Count)
}

// Midpoint returns the centre of the quality band.
func (b Bin) Midpoint() float64 {
	return (b.Low + b.High) / 2
}

func (b Bin) contains(quality float64) bool {
	return quality >= b.Low && quality < b.High
}

// Result is the calibration of one caller.
type Result struct {
	Bins []Bin `json:"bins"`
	// Calls is the number of calls that passed the filters.
	Calls int `json:"calls"`
	// Refinements is the number of times a lone bin was split again.
	Refinements int `json:"refinements"`
}

// Filter returns the calls considered for calibration: calls that are common
// in the population are skipped, as are calls on chromosomes excluded by the
// simulation mode.
func Filter(calls []cnv.Call, opts cnv.Options) []cnv.Call {
	var kept []cnv.Call
	for _, call := range calls {
		if call.SpanningFreq > opts.MaxRareFreq {
			continue
		}
		if !opts.Mode.Includes(call.Chromosome()) {
			continue
		}
		kept = append(kept, call)
	}
	return kept
}

// Calibrate filters calls and bins them by quality.  When only one bin holds
// enough calls, the calls of that bin are binned again to gain resolution
// where the qualities cluster.  The returned bins are ordered by quality.
func Calibrate(calls []cnv.Call, opts cnv.Options) Result {
	filtered := Filter(calls, opts)
	result := Result{Calls: len(filtered)}

	bins := binCalls(filtered, opts.MinBinCount)
	for len(bins) == 1 && result.Refinements < maxRefinements {
		coarse := bins[0]
		var inside []cnv.Call
		for _, call := range filtered {
			if call.Quality >= coarse.Low && call.Quality <= coarse.High {
				inside = append(inside, call)
			}
		}
		refined := binCalls(inside, opts.MinBinCount)
		if len(refined) == 0 && width(inside) == 0 {
			// The band cannot be split further.
			break
		}
		bins, filtered = refined, inside
		result.Refinements++
	}
	result.Bins = bins
	return result
}

// binCalls performs a single binning pass and returns the bins holding at
// least minCount calls.
func binCalls(calls []cnv.Call, minCount int) []Bin {
	size := width(calls)
	if size == 0 {
		return nil
	}
	low, _ := cnv.Min(calls, nil)
	high, _ := cnv.Max(calls, nil)

	var bins []Bin
	for from := low; from < high+size; from += size {
		bins = append(bins, Bin{Low: from, High: from + size})
	}

	for _, call := range calls {
		for i := range bins {
			if bins[i].contains(call.Quality) {
				bins[i].Count++
				if call.TruePositive {
					bins[i].Truth++
				}
				break
			}
		}
	}

	var kept []Bin
	for _, bin := range bins {
		if bin.Count >= minCount {
			kept = append(kept, bin)
		}
	}
	return kept
}

// width returns the bin width for calls: a fifth of the quality span rounded
// to the nearest 0.5, or zero when calls is empty or all qualities are equal.
func width(calls []cnv.Call) float64 {
	low, ok := cnv.Min(calls, nil)
	if !ok {
		return 0
	}
	high, _ := cnv.Max(calls, nil)
	raw := (high - low) / binsPerRange
	// Halves round up.
	return math.Floor(10*raw/5+0.5) * 5 / 10
}
