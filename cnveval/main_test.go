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

package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/googlegenomics/cnveval/internal/roc"
	"github.com/googlegenomics/cnveval/report"
	"github.com/googlegenomics/cnveval/source"
)

const testBase = "../source/testdata/sim"

func run(t *testing.T, args ...string) error {
	t.Helper()
	return execute(context.Background(), args)
}

func TestReportCommand(t *testing.T) {
	out := filepath.Join(t.TempDir(), "report.json")
	err := run(t, "report", "--base", testBase, "--runs", "run1,run2", "--log-level", "error", "-o", out)
	require.NoError(t, err)

	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()

	r, err := report.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, []string{"cnvkit", "xhmm"}, r.Callers)
	assert.Equal(t, []string{"run1", "run2"}, r.Runs)
	// The truth event on X is excluded in downsample mode.
	assert.Equal(t, 1, r.ROC.TruthCount)
}

func TestDistributionCommand(t *testing.T) {
	out := filepath.Join(t.TempDir(), "dist.json")
	err := run(t, "distribution", "--base", testBase, "--runs", "run1", "--chromosome", "1", "--log-level", "error", "-o", out)
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Genomic Position (500kb bins)")
}

func TestCommandErrors(t *testing.T) {
	testCases := []struct {
		name string
		args []string
	}{
		{"no runs", []string{"report", "--base", testBase}},
		{"missing run", []string{"report", "--base", testBase, "--runs", "run9"}},
		{"bad mode", []string{"report", "--base", testBase, "--runs", "run1", "--mode", "shuffle"}},
		{"bad profile", []string{"roc", "--profile", "block"}},
		{"remote watch", []string{"watch", "--base", "gs://bucket/sim", "--runs", "run1"}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			args := append(tc.args, "--log-level", "error")
			if err := run(t, args...); err == nil {
				t.Errorf("cnveval %s succeeded", strings.Join(tc.args, " "))
			}
		})
	}
}

func TestProfileWrittenOnFailure(t *testing.T) {
	dir := t.TempDir()
	err := run(t, "report", "--base", testBase, "--runs", "run9", "--profile", "mem", "--profile-dir", dir, "--log-level", "error")
	require.Error(t, err)

	info, err := os.Stat(filepath.Join(dir, "mem.pprof"))
	require.NoError(t, err)
	assert.NotZero(t, info.Size())
}

func readReport(path string) *report.Report {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	r, err := report.Decode(f)
	if err != nil {
		return nil
	}
	return r
}

func TestWatchCommand(t *testing.T) {
	const quiet = 50 * time.Millisecond
	t.Setenv("CNVEVAL_QUIET_PERIOD", quiet.String())

	base := t.TempDir()
	results := filepath.Join(base, "run1", "cnv", "report", source.ResultsFile)
	require.NoError(t, os.MkdirAll(filepath.Dir(results), 0755))
	initial, err := os.ReadFile(filepath.Join(testBase, "run1", "cnv", "report", source.ResultsFile))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(results, initial, 0644))
	updated := strings.Replace(string(initial), `"xhmm": [`,
		`"cnvkit": [{"chr": "2", "start": 10, "end": 20, "quality": 5, "sample": "S2"}],
  "xhmm": [`, 1)

	out := filepath.Join(t.TempDir(), "report.json")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errc := make(chan error, 1)
	go func() {
		errc <- execute(ctx, []string{"watch", "--base", base, "--runs", "run1", "--log-level", "error", "-o", out})
	}()

	require.Eventually(t, func() bool { return readReport(out) != nil }, 5*time.Second, 10*time.Millisecond)
	first := readReport(out)
	assert.Equal(t, []string{"xhmm"}, first.Callers)

	// Writes landing before the run directory is watched are missed, so the
	// results are rewritten until a rebuild shows up.  The interval leaves
	// every write a full quiet period.
	require.Eventually(t, func() bool {
		if r := readReport(out); r != nil && len(r.Callers) == 2 {
			return true
		}
		return os.WriteFile(results, []byte(updated), 0644) != nil
	}, 10*time.Second, 5*quiet)

	rebuilt := readReport(out)
	assert.Equal(t, []string{"cnvkit", "xhmm"}, rebuilt.Callers)
	assert.NotEqual(t, first.ID, rebuilt.ID)

	// No further rebuild follows once the results are left alone.
	time.Sleep(4 * quiet)
	assert.Equal(t, rebuilt.ID, readReport(out).ID)

	cancel()
	select {
	case err := <-errc:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not return after cancellation")
	}
}

func TestWriteROCSummary(t *testing.T) {
	result := &roc.Result{
		TruthCount: 4,
		Curves: []roc.Curve{
			{Caller: "xhmm", Points: []roc.Point{{TruePositives: 1, Quality: 9}, {TruePositives: 2, FalsePositives: 2, Quality: 1}}},
			{Caller: "empty"},
		},
	}
	var buf bytes.Buffer
	require.NoError(t, writeROCSummary(&buf, result))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, []string{"xhmm", "2", "2", "2", "0.500", "0.500"}, strings.Fields(lines[2]))
	assert.Equal(t, []string{"empty", "0", "0", "0", "-", "-"}, strings.Fields(lines[3]))
}
