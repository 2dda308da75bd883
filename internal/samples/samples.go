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

// Package samples counts calls per sample, grouping the replicate runs of a
// sample under one key.
package samples

import (
	"sort"
	"strings"

	"github.com/googlegenomics/cnveval/internal/cnv"
)

// Key returns the aggregation key of a sample id: everything before the last
// "-".  Ids without a "-" are their own key.
func Key(sample string) string {
	if i := strings.LastIndex(sample, "-"); i >= 0 {
		return sample[:i]
	}
	return sample
}

// Counts maps a sample key to the number of calls made on it.
type Counts map[string]int

// Result holds the per-caller sample counts.
type Result struct {
	Callers map[string]Counts `json:"callers"`
	// Samples is the sorted union of the sample keys of every caller.
	Samples []string `json:"samples"`
}

// Aggregate counts the calls of every caller in results per sample key.  The
// truth set is skipped.
func Aggregate(results map[string][]cnv.Call) *Result {
	result := &Result{Callers: make(map[string]Counts)}
	seen := make(map[string]bool)
	for caller, calls := range results {
		if caller == cnv.TruthKey {
			continue
		}
		counts := make(Counts)
		for _, call := range calls {
			key := Key(call.Sample)
			counts[key]++
			if !seen[key] {
				seen[key] = true
				result.Samples = append(result.Samples, key)
			}
		}
		result.Callers[caller] = counts
	}
	sort.Strings(result.Samples)
	return result
}
