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
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/googlegenomics/cnveval/internal/distribution"
	"github.com/googlegenomics/cnveval/internal/roc"
	"github.com/googlegenomics/cnveval/report"
)

func reportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "report",
		Short: "Compute every analysis and write the JSON report",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.buildReport(cmd.Context())
		},
	}
}

func (a *app) buildReport(ctx context.Context) error {
	ds, err := a.loadDataset(ctx)
	if err != nil {
		return err
	}
	params, err := a.params()
	if err != nil {
		return err
	}
	r, err := report.Build(ds, params, a.log)
	if err != nil {
		return err
	}
	return a.writeOutput(r.Encode)
}

func rocCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "roc",
		Short: "Print the ROC summary of every caller",
		Long: `Print, for every caller, the number of filtered calls and the counts,
sensitivity and precision reached once every call has been accounted for.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := a.loadDataset(cmd.Context())
			if err != nil {
				return err
			}
			opts, err := a.cfg.Options()
			if err != nil {
				return err
			}
			result, err := roc.Accumulate(ds, a.cfg.SizeRange(), a.cfg.TargetRange(), opts)
			if err != nil {
				return err
			}
			for _, warning := range result.Warnings {
				a.log.WithCaller(warning.Caller).Warn("Unmatched true positive call",
					"region", warning.Call.Range.String(), "sample", warning.Call.Sample)
			}
			return a.writeOutput(func(w io.Writer) error {
				return writeROCSummary(w, result)
			})
		},
	}
}

func writeROCSummary(w io.Writer, result *roc.Result) error {
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	fmt.Fprintf(tw, "truth records: %s\n", humanize.Comma(int64(result.TruthCount)))
	fmt.Fprintln(tw, "CALLER\tCALLS\tTP\tFP\tSENSITIVITY\tPRECISION")
	for _, curve := range result.Curves {
		if len(curve.Points) == 0 {
			fmt.Fprintf(tw, "%s\t0\t0\t0\t-\t-\n", curve.Caller)
			continue
		}
		last := len(curve.Points) - 1
		p := curve.Points[last]
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%.3f\t%.3f\n", curve.Caller,
			humanize.Comma(int64(len(curve.Points))), p.TruePositives, p.FalsePositives,
			curve.Sensitivity(last, result.TruthCount), p.Precision())
	}
	return tw.Flush()
}

func distributionCmd(a *app) *cobra.Command {
	var chromosomes []string
	cmd := &cobra.Command{
		Use:   "distribution",
		Short: "Write the genome distribution of rare calls as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := a.loadDataset(cmd.Context())
			if err != nil {
				return err
			}
			ref, err := a.cfg.Reference()
			if err != nil {
				return err
			}
			rare := ds.Rare(a.cfg.Evaluation.MaxRareFreq)

			var result *distribution.Result
			if len(chromosomes) > 0 {
				result, err = distribution.DrillDown(ref, chromosomes, a.cfg.Evaluation.DrillDownWindowSize, rare)
			} else {
				result, err = distribution.Compute(ref, a.cfg.Evaluation.WindowSize, rare)
			}
			if err != nil {
				return err
			}
			a.log.Info("Computed distribution", "windows", len(result.Windows), "callers", len(result.Series))
			return a.writeOutput(func(w io.Writer) error {
				return report.WriteJSON(w, report.NewDistribution(result))
			})
		},
	}
	cmd.Flags().StringSliceVar(&chromosomes, "chromosome", nil, "restrict to these chromosomes at the drill-down window size")
	return cmd
}
