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

// Package distribution counts the calls of each caller along fixed-width
// windows tiling the genome.
package distribution

import (
	"fmt"
	"sort"

	"github.com/googlegenomics/cnveval/internal/cnv"
	"github.com/googlegenomics/cnveval/internal/genomics"
)

const (
	// DefaultWindowSize gives a reasonable resolution for a whole-genome
	// plot.
	DefaultWindowSize = 10 * 1000 * 1000

	// DrillDownWindowSize is used when a single chromosome is shown.
	DrillDownWindowSize = 500 * 1000
)

// Tiling is the list of windows covering a reference.
type Tiling struct {
	WindowSize int64            `json:"windowSize"`
	Windows    []genomics.Range `json:"windows"`
	// ChromosomeStarts holds the index of the first window of each
	// chromosome, in reference order.
	ChromosomeStarts []int `json:"chromosomeStarts"`

	offsets map[string]int
	lengths map[string]int
}

// Tile splits every chromosome of ref into consecutive half-open windows of
// size base pairs.  The last window of a chromosome is clipped to its length.
func Tile(ref genomics.Reference, size int64) (*Tiling, error) {
	if size <= 0 {
		return nil, &cnv.ConfigError{Param: "window size", Err: fmt.Errorf("%d is not positive", size)}
	}
	tiling := &Tiling{
		WindowSize: size,
		offsets:    make(map[string]int),
		lengths:    make(map[string]int),
	}
	for _, chr := range ref.Chromosomes {
		tiling.ChromosomeStarts = append(tiling.ChromosomeStarts, len(tiling.Windows))
		tiling.offsets[chr.Name] = len(tiling.Windows)
		for pos := int64(0); pos < chr.Length; pos += size {
			end := pos + size
			if end > chr.Length {
				end = chr.Length
			}
			tiling.Windows = append(tiling.Windows, genomics.Range{Chromosome: chr.Name, From: pos, To: end})
		}
		tiling.lengths[chr.Name] = len(tiling.Windows) - tiling.offsets[chr.Name]
	}
	return tiling, nil
}

// Label returns the axis label of window i: the chromosome name for the first
// window of a chromosome, chromosome and offset otherwise.
func (t *Tiling) Label(i int) string {
	w := t.Windows[i]
	if w.From == 0 {
		return w.Chromosome
	}
	return fmt.Sprintf("%s:%d", w.Chromosome, w.From)
}

// Count returns, for every window, the number of calls overlapping it.  A
// call spanning several windows is counted once in each.  Calls on
// chromosomes outside the tiling are ignored.
func (t *Tiling) Count(calls []cnv.Call) []int {
	counts := make([]int, len(t.Windows))
	for _, call := range calls {
		offset, ok := t.offsets[call.Chromosome()]
		if !ok {
			continue
		}
		n := t.lengths[call.Chromosome()]
		// Only windows near the call endpoints can satisfy the overlap
		// predicate.
		first := int(call.Start()/t.WindowSize) - 1
		last := int(call.End() / t.WindowSize)
		if first < 0 {
			first = 0
		}
		if last > n-1 {
			last = n - 1
		}
		for i := first; i <= last; i++ {
			if t.Windows[offset+i].Overlaps(call.Range) {
				counts[offset+i]++
			}
		}
	}
	return counts
}

// Series holds the window counts of one caller.
type Series struct {
	Caller string `json:"caller"`
	Counts []int  `json:"counts"`
}

// Result is the distribution of every caller over one tiling.
type Result struct {
	*Tiling
	Series []Series `json:"series"`
}

// Compute tiles ref with windows of size base pairs and counts the calls of
// every caller in results.  The truth set is skipped.  Callers are reported in
// lexicographic order.
func Compute(ref genomics.Reference, size int64, results map[string][]cnv.Call) (*Result, error) {
	tiling, err := Tile(ref, size)
	if err != nil {
		return nil, err
	}

	var callers []string
	for caller := range results {
		if caller != cnv.TruthKey {
			callers = append(callers, caller)
		}
	}
	sort.Strings(callers)

	result := &Result{Tiling: tiling}
	for _, caller := range callers {
		result.Series = append(result.Series, Series{Caller: caller, Counts: tiling.Count(results[caller])})
	}
	return result, nil
}

// DrillDown computes the distribution restricted to the named chromosomes,
// without tiling the rest of the reference.
func DrillDown(ref genomics.Reference, chromosomes []string, size int64, results map[string][]cnv.Call) (*Result, error) {
	subset, err := ref.Subset(chromosomes)
	if err != nil {
		return nil, &cnv.ConfigError{Param: "chromosomes", Err: err}
	}
	return Compute(subset, size, results)
}
