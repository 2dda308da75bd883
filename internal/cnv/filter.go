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
	"fmt"
	"math"
)

// SizeRange bounds the genomic span of a call.  Both bounds are exclusive.
type SizeRange struct {
	Min, Max float64
}

// SizeRangeFromLog10 converts a range expressed in powers of ten, as chosen on
// a logarithmic slider, into base pairs.
func SizeRangeFromLog10(low, high float64) SizeRange {
	return SizeRange{Min: math.Pow(10, low), Max: math.Pow(10, high)}
}

// Contains reports whether size lies strictly between the bounds.
func (r SizeRange) Contains(size int64) bool {
	s := float64(size)
	return s > r.Min && s < r.Max
}

// Unbounded is the TargetRange.Max value that disables the upper bound.
const Unbounded = -1

// TargetRange bounds the number of targeted regions of a call.  Both bounds
// are inclusive.  A negative Max means no upper bound.
type TargetRange struct {
	Min, Max int
}

// AllTargets accepts any number of targets.
var AllTargets = TargetRange{Min: 0, Max: Unbounded}

// Contains reports whether targets lies inside the range.
func (r TargetRange) Contains(targets int) bool {
	return targets >= r.Min && (r.Max < 0 || targets <= r.Max)
}

func (r TargetRange) String() string {
	if r.Max < 0 {
		return fmt.Sprintf("%d - Infinity", r.Min)
	}
	return fmt.Sprintf("%d - %d", r.Min, r.Max)
}

// Filter selects calls by size, target count and chromosome.
type Filter struct {
	Size    SizeRange
	Targets TargetRange
	Mode    SimulationMode
}

// Accept reports whether call passes every bound of the filter.
func (f Filter) Accept(call Call) bool {
	return f.Targets.Contains(call.Targets) &&
		f.Size.Contains(call.Size()) &&
		f.Mode.Includes(call.Chromosome())
}

// Calls returns the calls accepted by the filter, in their original order.
func (f Filter) Calls(calls []Call) []Call {
	var kept []Call
	for _, call := range calls {
		if f.Accept(call) {
			kept = append(kept, call)
		}
	}
	return kept
}

// Truth returns the truth records accepted by the filter, in their original
// order.
func (f Filter) Truth(truth []TruthRecord) []TruthRecord {
	var kept []TruthRecord
	for _, record := range truth {
		if f.Accept(record.Call) {
			kept = append(kept, record)
		}
	}
	return kept
}

// Identity returns x unchanged.
func Identity(x float64) float64 { return x }

// Max returns the largest value of fn over calls.  A nil fn selects the call
// quality.  The boolean is false when calls is empty.
func Max(calls []Call, fn func(Call) float64) (float64, bool) {
	return reduce(calls, fn, func(a, b float64) bool { return a > b })
}

// Min returns the smallest value of fn over calls.  A nil fn selects the call
// quality.  The boolean is false when calls is empty.
func Min(calls []Call, fn func(Call) float64) (float64, bool) {
	return reduce(calls, fn, func(a, b float64) bool { return a < b })
}

func reduce(calls []Call, fn func(Call) float64, better func(a, b float64) bool) (float64, bool) {
	if fn == nil {
		fn = Quality
	}
	var best float64
	for i, call := range calls {
		if v := fn(call); i == 0 || better(v, best) {
			best = v
		}
	}
	return best, len(calls) > 0
}

// Quality selects the quality score of a call.
func Quality(c Call) float64 { return c.Quality }
