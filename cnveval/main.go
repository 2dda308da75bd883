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

// This binary evaluates CNV callers against the truth set of simulation runs
// and writes the evaluation report.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/profile"
	"github.com/spf13/cobra"

	"github.com/googlegenomics/cnveval/internal/cnv"
	"github.com/googlegenomics/cnveval/internal/config"
	"github.com/googlegenomics/cnveval/internal/logger"
	"github.com/googlegenomics/cnveval/report"
	"github.com/googlegenomics/cnveval/source"
)

var (
	version = "dev"
	commit  = "none"
)

// app holds the state shared by every subcommand.
type app struct {
	configPath string
	logLevel   string
	logFormat  string
	profile    string
	profileDir string
	public     bool

	cfg      *config.Config
	log      *logger.Logger
	profiler interface{ Stop() }
}

func main() {
	if err := execute(context.Background(), os.Args[1:]); err != nil {
		os.Exit(1)
	}
}

// execute runs the command line args.  The profiler is stopped whether or
// not the command succeeds.
func execute(ctx context.Context, args []string) error {
	a := &app{}
	cmd := a.rootCmd()
	cmd.SetArgs(args)
	defer a.stopProfiler()
	return cmd.ExecuteContext(ctx)
}

func (a *app) rootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "cnveval",
		Short: "Evaluate CNV callers against a simulated truth set",
		Long: `cnveval loads the CNV calls of one or more simulation runs, matches them
against the simulated truth set and computes quality calibration, ROC
curves, sensitivity breakdowns, genome distributions and per sample counts.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", "", "config file path")
	flags.StringVar(&a.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	flags.StringVar(&a.logFormat, "log-format", "", "log format (text, json)")
	flags.StringVar(&a.profile, "profile", "", "write a cpu or mem profile")
	flags.StringVar(&a.profileDir, "profile-dir", ".", "directory for profiles")
	flags.BoolVar(&a.public, "public", false, "read gs:// locations without credentials")
	flags.String("base", "", "directory or gs:// URL holding the runs")
	flags.String("analysis", "", "analysis name inside each run")
	flags.StringSlice("runs", nil, "comma-separated list of runs to merge")
	flags.String("mode", "", "simulation mode (downsample, replace)")
	flags.String("reference", "", "name of a registered reference build")
	flags.String("reference-file", "", "YAML file holding the chromosome length table")
	flags.StringP("output", "o", "", "output file, - for stdout")

	rootCmd.AddCommand(
		reportCmd(a),
		rocCmd(a),
		distributionCmd(a),
		watchCmd(a),
		versionCmd(),
	)
	return rootCmd
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	if cmd.Name() == "version" {
		return nil
	}

	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if err := a.applyFlags(cmd, cfg); err != nil {
		return err
	}
	a.cfg = cfg
	a.log = logger.New(cfg.Log.Level, cfg.Log.Format)

	switch a.profile {
	case "":
	case "cpu":
		a.profiler = profile.Start(profile.CPUProfile, profile.ProfilePath(a.profileDir), profile.NoShutdownHook, profile.Quiet)
	case "mem":
		a.profiler = profile.Start(profile.MemProfile, profile.ProfilePath(a.profileDir), profile.NoShutdownHook, profile.Quiet)
	default:
		return fmt.Errorf("unsupported profile %q (must be cpu or mem)", a.profile)
	}
	return nil
}

func (a *app) stopProfiler() {
	if a.profiler == nil {
		return
	}
	a.profiler.Stop()
	a.profiler = nil
	a.log.Info("Wrote profile", "kind", a.profile, "dir", a.profileDir)
}

// applyFlags overrides the loaded configuration with the flags set on the
// command line.
func (a *app) applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("base") {
		cfg.Data.Base, _ = flags.GetString("base")
	}
	if flags.Changed("analysis") {
		cfg.Data.Analysis, _ = flags.GetString("analysis")
	}
	if flags.Changed("runs") {
		cfg.Data.Runs, _ = flags.GetStringSlice("runs")
	}
	if flags.Changed("mode") {
		cfg.Evaluation.Mode, _ = flags.GetString("mode")
	}
	if flags.Changed("reference") {
		build, _ := flags.GetString("reference")
		cfg.Evaluation.Reference = config.ReferenceSetting{Build: build}
	}
	if flags.Changed("reference-file") {
		cfg.Evaluation.ReferenceFile, _ = flags.GetString("reference-file")
	}
	if flags.Changed("output") {
		cfg.Output, _ = flags.GetString("output")
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	if a.logFormat != "" {
		cfg.Log.Format = a.logFormat
	}
	return cfg.Validate()
}

func (a *app) location() (source.Location, error) {
	return source.ParseLocation(a.cfg.Data.Base)
}

func (a *app) loadDataset(ctx context.Context) (*cnv.Dataset, error) {
	loc, err := a.location()
	if err != nil {
		return nil, err
	}
	client, err := source.NewClient(ctx, loc, a.public)
	if err != nil {
		return nil, err
	}
	runs := a.cfg.Data.Runs
	if len(runs) == 0 {
		return nil, fmt.Errorf("no runs given: use --runs or set data.runs")
	}
	loader := source.NewLoader(client, loc, a.cfg.Data.Analysis, a.log)
	return loader.LoadDataset(ctx, runs)
}

func (a *app) params() (report.Params, error) {
	opts, err := a.cfg.Options()
	if err != nil {
		return report.Params{}, err
	}
	ref, err := a.cfg.Reference()
	if err != nil {
		return report.Params{}, err
	}
	e := a.cfg.Evaluation
	return report.Params{
		Options:             opts,
		Size:                a.cfg.SizeRange(),
		Targets:             a.cfg.TargetRange(),
		Reference:           ref,
		WindowSize:          e.WindowSize,
		DrillDownWindowSize: e.DrillDownWindowSize,
		DrillDown:           e.DrillDown,
		Runs:                a.cfg.Data.Runs,
		Analysis:            a.cfg.Data.Analysis,
	}, nil
}

// writeOutput calls write with the configured destination.  Files are written
// to a temporary file that is then renamed into place.
func (a *app) writeOutput(write func(io.Writer) error) error {
	out := a.cfg.Output
	if out == "" || out == "-" {
		return write(os.Stdout)
	}

	tmp, err := os.CreateTemp(filepath.Dir(out), ".cnveval-*")
	if err != nil {
		return fmt.Errorf("creating output: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := write(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing output: %w", err)
	}
	if err := os.Rename(tmp.Name(), out); err != nil {
		return fmt.Errorf("writing %s: %w", out, err)
	}
	a.log.Info("Wrote output", "path", out)
	return nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("cnveval %s\n", version)
			fmt.Printf("  commit: %s\n", commit)
		},
	}
}
