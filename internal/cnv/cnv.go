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

// Package cnv contains the in-memory model of CNV caller results and the truth
// set they are evaluated against.
package cnv

import (
	"sort"

	"github.com/googlegenomics/cnveval/internal/genomics"
)

// TruthKey is the reserved caller key that holds the truth set.
const TruthKey = "truth"

// Call is a single CNV reported by a caller.
type Call struct {
	Range genomics.Range

	Quality      float64
	Sample       string
	Targets      int
	TargetBp     int64
	SpanningFreq float64
	// TruePositive is set when the call corresponds to a simulated (truth)
	// event.
	TruePositive bool
}

// Chromosome returns the normalized chromosome of the call.
func (c Call) Chromosome() string { return c.Range.Chromosome }

// Start returns the first base covered by the call.
func (c Call) Start() int64 { return c.Range.From }

// End returns the (exclusive) end of the call.
func (c Call) End() int64 { return c.Range.To }

// Size returns the genomic span of the call in base pairs.
func (c Call) Size() int64 { return c.Range.Size() }

// TruthRecord is an entry of the truth set.  It carries the full call
// attributes so that truth records can be filtered and binned like calls.
type TruthRecord struct {
	ID int
	Call
}

// Dataset holds the calls of every caller together with the truth set.  It is
// built once at load time and is read-only afterwards.
type Dataset struct {
	calls map[string][]Call
	truth []TruthRecord
}

// NewDataset builds a Dataset from caller results.  The entry stored under
// TruthKey, if any, becomes the truth set; its records are numbered in order.
func NewDataset(results map[string][]Call) *Dataset {
	ds := &Dataset{calls: make(map[string][]Call)}
	for caller, calls := range results {
		if caller == TruthKey {
			for i, call := range calls {
				ds.truth = append(ds.truth, TruthRecord{ID: i, Call: call})
			}
			continue
		}
		ds.calls[caller] = calls
	}
	return ds
}

// Callers returns the caller identifiers in lexicographic order.  The truth
// set is never included.
func (ds *Dataset) Callers() []string {
	callers := make([]string, 0, len(ds.calls))
	for caller := range ds.calls {
		callers = append(callers, caller)
	}
	sort.Strings(callers)
	return callers
}

// Calls returns the calls of one caller in load order.
func (ds *Dataset) Calls(caller string) []Call {
	return ds.calls[caller]
}

// Truth returns the truth set in load order.
func (ds *Dataset) Truth() []TruthRecord {
	return ds.truth
}

// HasTruth reports whether the dataset carries a non-empty truth set.
func (ds *Dataset) HasTruth() bool {
	return len(ds.truth) > 0
}

// Results returns the calls of every caller keyed by caller, without the
// truth set.
func (ds *Dataset) Results() map[string][]Call {
	results := make(map[string][]Call, len(ds.calls))
	for caller, calls := range ds.calls {
		results[caller] = calls
	}
	return results
}

// Rare returns, for every caller, the calls whose spanning frequency is below
// maxFreq.  These are the calls absent from the background population.
func (ds *Dataset) Rare(maxFreq float64) map[string][]Call {
	rare := make(map[string][]Call, len(ds.calls))
	for caller, calls := range ds.calls {
		var kept []Call
		for _, call := range calls {
			if call.SpanningFreq < maxFreq {
				kept = append(kept, call)
			}
		}
		rare[caller] = kept
	}
	return rare
}

// Len returns the total number of caller calls, truth excluded.
func (ds *Dataset) Len() int {
	var n int
	for _, calls := range ds.calls {
		n += len(calls)
	}
	return n
}
