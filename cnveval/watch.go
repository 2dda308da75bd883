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
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/googlegenomics/cnveval/internal/debounce"
	"github.com/googlegenomics/cnveval/source"
)

var errRemoteWatch = errors.New("watch requires a local base directory")

func watchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Rebuild the report whenever the results of a run change",
		Long: `Build the report, then watch the report directory of every run and
rebuild the report once the results have stopped changing for the configured
quiet period.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.watch(ctx)
		},
	}
}

func (a *app) watch(ctx context.Context) error {
	loc, err := a.location()
	if err != nil {
		return err
	}
	if !loc.IsLocal() {
		return errRemoteWatch
	}

	if err := a.buildReport(ctx); err != nil {
		a.log.WithError(err).Error("Initial report failed")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	loader := source.NewLoader(source.LocalClient{}, loc, a.cfg.Data.Analysis, a.log)
	for _, run := range a.cfg.Data.Runs {
		dir := filepath.Dir(loader.Object(run))
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("watching run %s: %w", run, err)
		}
	}

	trigger := debounce.New(a.cfg.Watch.QuietPeriod, func() {
		if err := a.buildReport(ctx); err != nil {
			a.log.WithError(err).Error("Rebuilding report failed")
		}
	})
	defer trigger.Stop()

	a.log.Info("Watching for changes", "runs", len(a.cfg.Data.Runs), "quiet", a.cfg.Watch.QuietPeriod)
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != source.ResultsFile {
				continue
			}
			if event.Has(fsnotify.Create) || event.Has(fsnotify.Write) || event.Has(fsnotify.Rename) {
				a.log.Debug("Results changed", "path", event.Name, "op", event.Op.String())
				trigger.Schedule()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			a.log.WithError(err).Error("Watcher error")
		}
	}
}
