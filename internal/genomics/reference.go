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

package genomics

import (
	"fmt"
	"strings"
)

// Chromosome is a single entry of a reference length table.
type Chromosome struct {
	Name   string `json:"name" yaml:"name"`
	Length int64  `json:"length" yaml:"length"`
}

// Reference is an ordered table of chromosome lengths for one genome build.
// The order is the order in which chromosomes are laid out along the genome
// axis.
type Reference struct {
	Build       string       `json:"build" yaml:"build"`
	Chromosomes []Chromosome `json:"chromosomes" yaml:"chromosomes"`
}

// HG19 is the chromosome layout used by the hg19 report.  Chromosomes are
// ordered by decreasing length, so X sits between 7 and 8.
var HG19 = Reference{
	Build: "hg19",
	Chromosomes: []Chromosome{
		{"1", 249250621},
		{"2", 243199373},
		{"3", 198022430},
		{"4", 191154276},
		{"5", 180915260},
		{"6", 171115067},
		{"7", 159138663},
		{"X", 155270560},
		{"8", 146364022},
		{"9", 141213431},
		{"10", 135534747},
		{"11", 135006516},
		{"12", 133851895},
		{"13", 115169878},
		{"14", 107349540},
		{"15", 102531392},
		{"16", 90354753},
		{"17", 81195210},
		{"18", 78077248},
		{"20", 63025520},
		{"Y", 59373566},
		{"19", 59128983},
		{"22", 51304566},
		{"21", 48129895},
	},
}

var builds = map[string]Reference{
	"hg19": HG19,
}

// LookupReference returns the reference table registered under build.
func LookupReference(build string) (Reference, error) {
	if ref, ok := builds[strings.ToLower(build)]; ok {
		return ref, nil
	}
	return Reference{}, fmt.Errorf("unknown reference build %q", build)
}

// Validate checks that the table can lay out a genome axis: it must hold at
// least one chromosome, and every chromosome needs a unique name and a
// positive length.  Names are compared after normalization.
func (ref Reference) Validate() error {
	if len(ref.Chromosomes) == 0 {
		return fmt.Errorf("reference %q has no chromosomes", ref.Build)
	}
	seen := make(map[string]bool)
	for i, chr := range ref.Chromosomes {
		name := NormalizeChromosome(chr.Name)
		if name == "" {
			return fmt.Errorf("reference %q: chromosome %d has no name", ref.Build, i)
		}
		if chr.Length <= 0 {
			return fmt.Errorf("reference %q: chromosome %s has length %d", ref.Build, chr.Name, chr.Length)
		}
		if seen[name] {
			return fmt.Errorf("reference %q: chromosome %s is listed twice", ref.Build, name)
		}
		seen[name] = true
	}
	return nil
}

// Normalize returns a copy of ref with normalized chromosome names.
func (ref Reference) Normalize() Reference {
	out := Reference{Build: ref.Build, Chromosomes: make([]Chromosome, len(ref.Chromosomes))}
	for i, chr := range ref.Chromosomes {
		out.Chromosomes[i] = Chromosome{Name: NormalizeChromosome(chr.Name), Length: chr.Length}
	}
	return out
}

// Length returns the length of the named chromosome and whether it is part of
// the reference.
func (ref Reference) Length(name string) (int64, bool) {
	name = NormalizeChromosome(name)
	for _, chr := range ref.Chromosomes {
		if chr.Name == name {
			return chr.Length, true
		}
	}
	return 0, false
}

// Subset returns a reference restricted to the named chromosomes, keeping the
// table order.  Unknown names are reported as an error.
func (ref Reference) Subset(names []string) (Reference, error) {
	want := make(map[string]bool)
	for _, name := range names {
		name = NormalizeChromosome(name)
		if _, ok := ref.Length(name); !ok {
			return Reference{}, fmt.Errorf("chromosome %q is not part of %s", name, ref.Build)
		}
		want[name] = true
	}

	subset := Reference{Build: ref.Build}
	for _, chr := range ref.Chromosomes {
		if want[chr.Name] {
			subset.Chromosomes = append(subset.Chromosomes, chr)
		}
	}
	return subset, nil
}
