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

package report

import (
	"bytes"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/googlegenomics/cnveval/internal/cnv"
	"github.com/googlegenomics/cnveval/internal/genomics"
	"github.com/googlegenomics/cnveval/internal/logger"
)

func newCall(chr string, from, to int64, sample string, tp bool, quality float64) cnv.Call {
	return cnv.Call{
		Range:        genomics.NewRange(chr, from, to),
		Sample:       sample,
		TruePositive: tp,
		Quality:      quality,
		Targets:      1,
	}
}

func testDataset() *cnv.Dataset {
	common := newCall("2", 5000, 6000, "B-run1", false, 20)
	common.SpanningFreq = 0.2
	return cnv.NewDataset(map[string][]cnv.Call{
		cnv.TruthKey: {newCall("1", 100, 200, "A-run1", false, 0)},
		"xhmm": {
			newCall("1", 500, 600, "A-run1", false, 10),
			newCall("1", 150, 180, "A-run1", true, 30),
			newCall("1", 150, 180, "C-run2", true, 25),
			common,
		},
		"cnvkit": {newCall("1", 120, 130, "A-run2", false, 3)},
	})
}

func TestHumanSize(t *testing.T) {
	testCases := []struct {
		bp   float64
		want string
	}{
		{1, "1bp"},
		{500, "500bp"},
		{1000, "1kb"},
		{1500, "1.5kb"},
		{500000, "500kb"},
		{10000000, "10Mb"},
	}
	for _, tc := range testCases {
		if got := HumanSize(tc.bp); got != tc.want {
			t.Errorf("HumanSize(%v): got %q, want %q", tc.bp, got, tc.want)
		}
	}
}

func TestLabels(t *testing.T) {
	assert.Equal(t, "CNV Size Range: 1bp - 10Mb", SizeRangeLabel(cnv.SizeRangeFromLog10(0, 7)))
	assert.Equal(t, "No. of Target Regions: 0 - Infinity", TargetRangeLabel(cnv.AllTargets))
	assert.Equal(t, "Genomic Position (500kb bins)", WindowCaption(500000))
}

func TestBuild(t *testing.T) {
	var logs bytes.Buffer
	params := DefaultParams()
	params.DrillDown = []string{"1"}
	params.Runs = []string{"run1", "run2"}

	report, err := Build(testDataset(), params, logger.NewWithWriter(&logs, "warn", "text"))
	require.NoError(t, err)

	_, err = uuid.Parse(report.ID)
	assert.NoError(t, err)
	assert.Equal(t, []string{"cnvkit", "xhmm"}, report.Callers)
	assert.Equal(t, "downsample", report.Settings.Mode)
	assert.Equal(t, []string{"run1", "run2"}, report.Runs)

	require.Len(t, report.Calibration, 2)
	assert.Equal(t, "cnvkit", report.Calibration[0].Caller)
	assert.Equal(t, 1, report.Calibration[0].Calls)
	assert.Equal(t, 3, report.Calibration[1].Calls)

	require.Len(t, report.ROC.Curves, 2)
	assert.Equal(t, 1, report.ROC.TruthCount)
	xhmm := report.ROC.Curves[1].Points
	require.Len(t, xhmm, 4)
	assert.Equal(t, 1, xhmm[len(xhmm)-1].TruePositives)
	assert.Equal(t, 1, xhmm[len(xhmm)-1].FalsePositives)

	// The call in sample C matches no truth record.
	require.Len(t, report.Warnings, 1)
	assert.Contains(t, report.Warnings[0], "C-run2")
	assert.Contains(t, logs.String(), "Unmatched true positive call")

	assert.Len(t, report.Sensitivity, 3)

	require.NotNil(t, report.Distribution)
	assert.Equal(t, "1", report.Distribution.Ticks[0])
	assert.Equal(t, "Genomic Position (10Mb bins)", report.Distribution.Caption)
	// The common call on chromosome 2 is not part of the distribution.
	for _, series := range report.Distribution.Series {
		for i, n := range series.Counts {
			if report.Distribution.Windows[i].Chromosome == "2" && n > 0 {
				t.Errorf("%s: common call counted in window %d", series.Caller, i)
			}
		}
	}

	require.NotNil(t, report.DrillDown)
	assert.Equal(t, []string{"1"}, report.DrillDown.Ticks)
	assert.Equal(t, "cnvkit", report.DrillDown.Series[0].Caller)
	assert.Equal(t, 1, report.DrillDown.Series[0].Counts[0])

	assert.Equal(t, []string{"A", "B", "C"}, report.Samples.Samples)
	assert.Equal(t, 2, report.Samples.Callers["xhmm"]["A"])
}

func TestBuild_Errors(t *testing.T) {
	noTruth := cnv.NewDataset(map[string][]cnv.Call{"xhmm": {newCall("1", 1, 2, "A", true, 1)}})
	_, err := Build(noTruth, DefaultParams(), nil)
	assert.True(t, errors.Is(err, cnv.ErrNoTruth))

	params := DefaultParams()
	params.Options.MinBinCount = 0
	_, err = Build(testDataset(), params, nil)
	var configErr *cnv.ConfigError
	assert.True(t, errors.As(err, &configErr))

	params = DefaultParams()
	params.DrillDown = []string{"MT"}
	_, err = Build(testDataset(), params, nil)
	assert.True(t, errors.As(err, &configErr))
}

func TestEncode(t *testing.T) {
	report, err := Build(testDataset(), DefaultParams(), nil)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, report.Encode(&buf))
	assert.Contains(t, buf.String(), `"chromosomeStarts"`)
	assert.Contains(t, buf.String(), `"fp"`)
	assert.NotContains(t, buf.String(), `"drillDown"`)

	decoded, err := Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, report.ID, decoded.ID)
	assert.Equal(t, report.Callers, decoded.Callers)
	assert.Equal(t, report.ROC.Curves, decoded.ROC.Curves)
	assert.Equal(t, report.Distribution.Windows, decoded.Distribution.Windows)
	assert.Equal(t, report.Samples, decoded.Samples)
}
