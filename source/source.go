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

// Package source loads CNV caller results produced by simulation runs.
//
// Each run writes its results to <base>/<run>/<analysis>/report/cnv_calls.js
// as a JSON object mapping caller names to lists of calls.  The object may be
// wrapped in a "cnv_calls = ...;" assignment.  The base is either a local
// directory or a gs://bucket/prefix URL.
package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	jsoniter "github.com/json-iterator/go"

	"github.com/googlegenomics/cnveval/internal/cnv"
	"github.com/googlegenomics/cnveval/internal/genomics"
	"github.com/googlegenomics/cnveval/internal/logger"
)

// ResultsFile is the name of the per-run results object.
const ResultsFile = "cnv_calls.js"

var (
	// ErrNotFound is returned when a results object does not exist.
	ErrNotFound = errors.New("not found")
	// ErrPermissionDenied is returned when a results object cannot be read
	// with the available credentials.
	ErrPermissionDenied = errors.New("permission denied")

	errMissingBucket = errors.New("no bucket specified")
	errNoRuns        = errors.New("no runs specified")
)

// storageError ties a storage failure to one of the exported kinds so that
// callers can test it with errors.Is.
type storageError struct {
	kind    error
	context string
	cause   error
}

func (err *storageError) Error() string {
	return fmt.Sprintf("%s: %v: %v", err.context, err.kind, err.cause)
}

func (err *storageError) Is(target error) bool {
	return target == err.kind
}

func (err *storageError) Unwrap() error {
	return err.cause
}

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// record is a call as written by the calling pipeline.
type record struct {
	Chr          string  `json:"chr"`
	Start        int64   `json:"start"`
	End          int64   `json:"end"`
	Quality      float64 `json:"quality"`
	Sample       string  `json:"sample"`
	Targets      int     `json:"targets"`
	TargetBp     int64   `json:"targetBp"`
	SpanningFreq float64 `json:"spanningFreq"`
	Truth        bool    `json:"truth"`
}

func (r record) call() cnv.Call {
	return cnv.Call{
		Range:        genomics.NewRange(r.Chr, r.Start, r.End),
		Quality:      r.Quality,
		Sample:       r.Sample,
		Targets:      r.Targets,
		TargetBp:     r.TargetBp,
		SpanningFreq: r.SpanningFreq,
		TruePositive: r.Truth,
	}
}

// Decode parses a results document.  Chromosome names are normalized.
func Decode(r io.Reader) (map[string][]cnv.Call, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading results: %w", err)
	}

	var records map[string][]record
	if err := json.Unmarshal(unwrap(data), &records); err != nil {
		return nil, fmt.Errorf("parsing results: %w", err)
	}

	results := make(map[string][]cnv.Call, len(records))
	for caller, list := range records {
		calls := make([]cnv.Call, 0, len(list))
		for i, rec := range list {
			if rec.Chr == "" || rec.End <= rec.Start {
				return nil, fmt.Errorf("caller %s: call %d: invalid region %s:%d-%d", caller, i, rec.Chr, rec.Start, rec.End)
			}
			calls = append(calls, rec.call())
		}
		results[caller] = calls
	}
	return results, nil
}

// unwrap strips a "name = ...;" assignment around a JSON document.
func unwrap(data []byte) []byte {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] == '{' {
		return data
	}
	if i := bytes.IndexByte(data, '='); i >= 0 {
		data = bytes.TrimSpace(data[i+1:])
	}
	return bytes.TrimSpace(bytes.TrimSuffix(data, []byte(";")))
}

// Loader reads the results of several runs from one location.
type Loader struct {
	client   Client
	base     Location
	analysis string
	log      *logger.Logger
}

// NewLoader returns a Loader reading <base>/<run>/<analysis>/report results
// through client.
func NewLoader(client Client, base Location, analysis string, log *logger.Logger) *Loader {
	if log == nil {
		log = logger.Discard()
	}
	return &Loader{client: client, base: base, analysis: analysis, log: log}
}

// Object returns the object holding the results of run.
func (l *Loader) Object(run string) string {
	return l.base.Object(run, l.analysis, "report", ResultsFile)
}

// LoadRun reads the results of a single run.  Every sample id is suffixed
// with "-" and the run name so that replicates stay distinct after merging.
func (l *Loader) LoadRun(ctx context.Context, run string) (map[string][]cnv.Call, error) {
	object := l.Object(run)
	r, err := l.client.NewObjectHandle(l.base.Bucket, object).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("opening results of run %s: %w", run, err)
	}
	defer r.Close()

	results, err := Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", object, err)
	}
	for _, calls := range results {
		for i := range calls {
			calls[i].Sample = calls[i].Sample + "-" + run
		}
	}
	return results, nil
}

// Load reads every run and merges their results in run order.
func (l *Loader) Load(ctx context.Context, runs []string) (map[string][]cnv.Call, error) {
	if len(runs) == 0 {
		return nil, errNoRuns
	}
	merged := make(map[string][]cnv.Call)
	for _, run := range runs {
		results, err := l.LoadRun(ctx, run)
		if err != nil {
			return nil, err
		}
		log := l.log.WithRun(run)
		for caller, calls := range results {
			log.Debug("Loaded calls", "caller", caller, "count", len(calls))
		}
		Merge(merged, results)
	}
	l.log.Info("Loaded results", "runs", len(runs), "callers", len(merged), "location", l.base.String())
	return merged, nil
}

// LoadDataset is Load followed by cnv.NewDataset.
func (l *Loader) LoadDataset(ctx context.Context, runs []string) (*cnv.Dataset, error) {
	results, err := l.Load(ctx, runs)
	if err != nil {
		return nil, err
	}
	ds := cnv.NewDataset(results)
	l.log.Debug("Built dataset", "calls", ds.Len(), "truth", len(ds.Truth()), "callers", len(ds.Callers()))
	return ds, nil
}

// Merge appends the calls of src to dst, caller by caller.  Callers missing
// from dst are added.
func Merge(dst, src map[string][]cnv.Call) {
	for caller, calls := range src {
		dst[caller] = append(dst[caller], calls...)
	}
}
