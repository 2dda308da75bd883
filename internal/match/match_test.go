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

package match

import (
	"testing"

	"github.com/googlegenomics/cnveval/internal/cnv"
	"github.com/googlegenomics/cnveval/internal/genomics"
)

func truthRecord(id int, from, to int64, sample string) cnv.TruthRecord {
	return cnv.TruthRecord{ID: id, Call: cnv.Call{Range: genomics.NewRange("1", from, to), Sample: sample}}
}

func tpCall(from, to int64, sample string) cnv.Call {
	return cnv.Call{Range: genomics.NewRange("1", from, to), Sample: sample, TruePositive: true}
}

func TestContext_Detect(t *testing.T) {
	truth := []cnv.TruthRecord{
		truthRecord(0, 100, 200, "A"),
		truthRecord(1, 100, 200, "B"),
		truthRecord(2, 1000, 2000, "A"),
	}
	ctx := NewContext(truth)

	steps := []struct {
		call cnv.Call
		want Outcome
	}{
		{tpCall(150, 180, "A"), Detected},
		{tpCall(120, 130, "A"), Duplicate},
		{tpCall(150, 180, "B"), Detected},
		{tpCall(150, 180, "C"), Unmatched},
		{tpCall(5000, 6000, "A"), Unmatched},
		{tpCall(1500, 2500, "A"), Detected},
	}
	for i, step := range steps {
		if got := ctx.Detect(step.call); got != step.want {
			t.Errorf("Step %d (%v %s): got %v, want %v", i, step.call.Range, step.call.Sample, got, step.want)
		}
	}
	if got, want := ctx.Detected(), 3; got != want {
		t.Errorf("Wrong detected count: got %d, want %d", got, want)
	}
	if got, want := ctx.Sensitivity(), 1.0; got != want {
		t.Errorf("Wrong sensitivity: got %v, want %v", got, want)
	}
}

func TestContext_FirstMatchWins(t *testing.T) {
	// Both records overlap the calls; the first one in list order is always
	// chosen, so the second is never detected.
	truth := []cnv.TruthRecord{
		truthRecord(0, 100, 300, "A"),
		truthRecord(1, 200, 400, "A"),
	}
	ctx := NewContext(truth)
	ctx.Detect(tpCall(250, 260, "A"))
	if got := ctx.Detect(tpCall(350, 360, "A")); got != Detected {
		t.Fatalf("Call overlapping only the second record: got %v, want %v", got, Detected)
	}
	if got := ctx.Detect(tpCall(250, 260, "A")); got != Duplicate {
		t.Errorf("Call overlapping both records: got %v, want %v", got, Duplicate)
	}
	if !ctx.IsDetected(0) || !ctx.IsDetected(1) {
		t.Error("Expected both records to be detected")
	}
	if got, want := ctx.Len(), 2; got != want {
		t.Errorf("Wrong truth count: got %d, want %d", got, want)
	}
}

func TestContext_EmptyTruth(t *testing.T) {
	ctx := NewContext(nil)
	if got := ctx.Detect(tpCall(100, 200, "A")); got != Unmatched {
		t.Errorf("Detect without truth: got %v, want %v", got, Unmatched)
	}
	if ctx.Len() != 0 || ctx.Sensitivity() != 0 {
		t.Errorf("Empty context: got len %d sensitivity %v, want 0 and 0", ctx.Len(), ctx.Sensitivity())
	}
}

func TestRun_DetectOnce(t *testing.T) {
	truth := []cnv.TruthRecord{truthRecord(0, 100, 200, "A")}
	calls := []cnv.Call{
		tpCall(100, 150, "A"),
		tpCall(150, 199, "A"),
		{Range: genomics.NewRange("1", 100, 200), Sample: "A"},
	}

	ctx := Run(truth, calls)
	if got, want := ctx.Detected(), 1; got != want {
		t.Errorf("Wrong detected count: got %d, want %d", got, want)
	}

	// A second pass starts from a clean slate.
	if got, want := Run(truth, calls).Detected(), 1; got != want {
		t.Errorf("Wrong detected count on second pass: got %d, want %d", got, want)
	}
}

func TestContext_EmptyTruthSensitivity(t *testing.T) {
	ctx := NewContext(nil)
	if got := ctx.Detect(tpCall(1, 2, "A")); got != Unmatched {
		t.Errorf("got %v, want %v", got, Unmatched)
	}
	if got := ctx.Sensitivity(); got != 0 {
		t.Errorf("Wrong sensitivity: got %v, want 0", got)
	}
}
