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

// Package match assigns true positive calls to the truth records they detect.
//
// Assignment is greedy: a call is attributed to the first truth record, in
// truth list order, that overlaps it and belongs to the same sample.  When
// several truth records are candidates the result depends on their order.
// This is not an optimal one-to-one assignment.
package match

import (
	"github.com/googlegenomics/cnveval/internal/cnv"
)

// Outcome describes what a single call contributed to a matching pass.
type Outcome int

const (
	// Unmatched means no truth record overlaps the call in the same sample.
	Unmatched Outcome = iota
	// Detected means the call is the first to detect its truth record.
	Detected
	// Duplicate means the truth record was already detected earlier in the
	// pass.
	Duplicate
)

func (o Outcome) String() string {
	switch o {
	case Detected:
		return "detected"
	case Duplicate:
		return "duplicate"
	}
	return "unmatched"
}

// Context holds the detection state of one matching pass.  A Context must be
// created for every pass and never reused: each truth record contributes at
// most one detection per Context.
type Context struct {
	truth    []cnv.TruthRecord
	detected []bool
	count    int
}

// NewContext returns a Context in which no record of truth has been detected.
func NewContext(truth []cnv.TruthRecord) *Context {
	return &Context{
		truth:    truth,
		detected: make([]bool, len(truth)),
	}
}

// Detect attributes call to the first matching truth record and updates the
// detection state.
func (ctx *Context) Detect(call cnv.Call) Outcome {
	for i, record := range ctx.truth {
		if record.Sample != call.Sample || !record.Range.Overlaps(call.Range) {
			continue
		}
		if ctx.detected[i] {
			return Duplicate
		}
		ctx.detected[i] = true
		ctx.count++
		return Detected
	}
	return Unmatched
}

// Detected returns the number of truth records detected so far.
func (ctx *Context) Detected() int {
	return ctx.count
}

// Len returns the number of truth records in scope.
func (ctx *Context) Len() int {
	return len(ctx.truth)
}

// IsDetected reports whether the truth record at index i has been detected.
func (ctx *Context) IsDetected(i int) bool {
	return ctx.detected[i]
}

// Sensitivity returns the fraction of truth records detected, or zero when no
// truth record is in scope.
func (ctx *Context) Sensitivity() float64 {
	if ctx.Len() == 0 {
		return 0
	}
	return float64(ctx.count) / float64(ctx.Len())
}

// Run matches every true positive call of calls against a fresh Context built
// from truth and returns it.  Calls that are not flagged as true positives are
// skipped.
func Run(truth []cnv.TruthRecord, calls []cnv.Call) *Context {
	ctx := NewContext(truth)
	for _, call := range calls {
		if call.TruePositive {
			ctx.Detect(call)
		}
	}
	return ctx
}
