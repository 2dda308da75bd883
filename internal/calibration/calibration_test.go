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

package calibration

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/googlegenomics/cnveval/internal/cnv"
	"github.com/googlegenomics/cnveval/internal/genomics"
)

func qualityCall(quality float64, truePositive bool) cnv.Call {
	return cnv.Call{
		Range:        genomics.NewRange("1", 1000, 2000),
		Quality:      quality,
		Sample:       "A",
		TruePositive: truePositive,
	}
}

func repeat(n int, quality float64, truePositive bool) []cnv.Call {
	var calls []cnv.Call
	for i := 0; i < n; i++ {
		calls = append(calls, qualityCall(quality, truePositive))
	}
	return calls
}

func TestCalibrate_SinglePass(t *testing.T) {
	// Span 0-21 gives a width of 4: bins [0,4) [4,8) ... [24,28).
	var calls []cnv.Call
	calls = append(calls, repeat(3, 0, true)...)
	calls = append(calls, repeat(4, 9, false)...)
	calls = append(calls, repeat(2, 13, true)...)
	calls = append(calls, qualityCall(9.5, true), qualityCall(20, true), qualityCall(20, false), qualityCall(21, true))

	result := Calibrate(calls, cnv.DefaultOptions())

	want := []Bin{
		{Low: 0, High: 4, Count: 3, Truth: 3},
		{Low: 8, High: 12, Count: 5, Truth: 1},
		{Low: 20, High: 24, Count: 3, Truth: 2},
	}
	assert.Equal(t, want, result.Bins)
	assert.Equal(t, 0, result.Refinements)
	assert.Equal(t, len(calls), result.Calls)
}

func TestCalibrate_RefinesLoneBin(t *testing.T) {
	var calls []cnv.Call
	calls = append(calls, qualityCall(0, false), qualityCall(100, false))
	calls = append(calls, repeat(10, 40, true)...)
	calls = append(calls, repeat(10, 42.5, false)...)

	result := Calibrate(calls, cnv.DefaultOptions())

	require.Len(t, result.Bins, 2)
	assert.Equal(t, 1, result.Refinements)
	assert.Equal(t, Bin{Low: 40, High: 40.5, Count: 10, Truth: 10}, result.Bins[0])
	assert.Equal(t, Bin{Low: 42.5, High: 43, Count: 10, Truth: 0}, result.Bins[1])
	assert.Equal(t, 1.0, result.Bins[0].Precision())
	assert.Equal(t, 0.0, result.Bins[1].Precision())
}

func TestCalibrate_ZeroWidthRefinementKeepsCoarseBin(t *testing.T) {
	var calls []cnv.Call
	calls = append(calls, qualityCall(0, false), qualityCall(100, false))
	calls = append(calls, repeat(20, 50, true)...)

	result := Calibrate(calls, cnv.DefaultOptions())

	assert.Equal(t, []Bin{{Low: 40, High: 60, Count: 20, Truth: 20}}, result.Bins)
	assert.Equal(t, 0, result.Refinements)
}

func TestCalibrate_IdenticalQualities(t *testing.T) {
	result := Calibrate(repeat(50, 7, true), cnv.DefaultOptions())
	assert.Empty(t, result.Bins)
	assert.Equal(t, 0, result.Refinements)
}

func TestCalibrate_Empty(t *testing.T) {
	result := Calibrate(nil, cnv.DefaultOptions())
	assert.Empty(t, result.Bins)
	assert.Equal(t, 0, result.Calls)
}

func TestFilter(t *testing.T) {
	common := qualityCall(1, false)
	common.SpanningFreq = 0.5
	onX := qualityCall(1, true)
	onX.Range = genomics.NewRange("chrX", 0, 100)
	calls := []cnv.Call{qualityCall(1, true), common, onX}

	opts := cnv.DefaultOptions()
	assert.Equal(t, []cnv.Call{calls[0]}, Filter(calls, opts))

	opts.Mode = cnv.Replace
	assert.Equal(t, []cnv.Call{onX}, Filter(calls, opts))
}

func TestCalibrate_Properties(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	opts := cnv.DefaultOptions()
	for i := 0; i < 200; i++ {
		var calls []cnv.Call
		n := rng.Intn(200)
		spread := rng.Float64() * 100
		for j := 0; j < n; j++ {
			calls = append(calls, qualityCall(rng.Float64()*spread, rng.Intn(2) == 0))
		}
		if rng.Intn(4) == 0 {
			calls = append(calls, repeat(rng.Intn(20), spread/2, true)...)
		}

		result := Calibrate(calls, opts)

		total := 0
		for _, bin := range result.Bins {
			if p := bin.Precision(); p < 0 || p > 1 {
				t.Errorf("Precision outside [0,1]: %v", p)
			}
			if bin.Count < opts.MinBinCount {
				t.Errorf("Bin with %d calls was reported", bin.Count)
			}
			total += bin.Count
		}
		if total > result.Calls {
			t.Errorf("Bins hold %d calls, only %d were binned", total, result.Calls)
		}
		if result.Refinements >= maxRefinements {
			t.Errorf("Refinement did not converge for %d calls", len(calls))
		}
	}
}
