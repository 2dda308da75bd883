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
	"fmt"

	"github.com/dustin/go-humanize"

	"github.com/googlegenomics/cnveval/internal/cnv"
)

// HumanSize formats a number of base pairs with a metric prefix and at most
// one decimal, e.g. "1bp", "1.5kb" or "10Mb".
func HumanSize(bp float64) string {
	value, prefix := humanize.ComputeSI(bp)
	unit := prefix + "b"
	if prefix == "" {
		unit = "bp"
	}
	return humanize.FtoaWithDigits(value, 1) + unit
}

// SizeRangeLabel describes a size filter.
func SizeRangeLabel(r cnv.SizeRange) string {
	return fmt.Sprintf("CNV Size Range: %s - %s", HumanSize(r.Min), HumanSize(r.Max))
}

// TargetRangeLabel describes a target filter.
func TargetRangeLabel(r cnv.TargetRange) string {
	return "No. of Target Regions: " + r.String()
}

// WindowCaption labels the genome axis of a distribution.
func WindowCaption(windowSize int64) string {
	return fmt.Sprintf("Genomic Position (%s bins)", HumanSize(float64(windowSize)))
}
