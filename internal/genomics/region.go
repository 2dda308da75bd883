// Package genomics contains definitions related to Genomic data.
package genomics

import (
	"fmt"
	"strings"
)

// Range defines a half-open region [From, To) on a single chromosome.
type Range struct {
	// Chromosome is the normalized chromosome name (no "chr" prefix).
	Chromosome string `json:"chr"`
	// From and To specify the half-open range in base pairs.  From is
	// inclusive, To is exclusive.
	From int64 `json:"from"`
	To   int64 `json:"to"`
}

// NewRange returns a Range for the provided coordinates with the chromosome
// name normalized.
func NewRange(chromosome string, from, to int64) Range {
	return Range{Chromosome: NormalizeChromosome(chromosome), From: from, To: to}
}

// NormalizeChromosome strips the "chr" prefix used by some references so that
// "chrX" and "X" name the same chromosome.
func NormalizeChromosome(name string) string {
	return strings.TrimPrefix(name, "chr")
}

// IsX reports whether name refers to chromosome X.
func IsX(name string) bool {
	return NormalizeChromosome(name) == "X"
}

// ContainsWithinBounds reports whether x lies inside the range.  The end of
// the range is excluded.
func (r Range) ContainsWithinBounds(x int64) bool {
	return x >= r.From && x < r.To
}

// Overlaps reports whether r and other share the chromosome and either r
// contains one of the endpoints of other or other contains the end of r.
//
// End coordinates are tested as points even though they are exclusive.  Two
// ranges that only touch (one ends where the other starts) overlap, and the
// predicate is not symmetric when the ranges share an end coordinate: for
// r = 1:150-300 and other = 1:100-300, r.Overlaps(other) is false while
// other.Overlaps(r) is true.
func (r Range) Overlaps(other Range) bool {
	return r.Chromosome == other.Chromosome &&
		(r.ContainsWithinBounds(other.To) ||
			r.ContainsWithinBounds(other.From) ||
			other.ContainsWithinBounds(r.To))
}

// Size returns the number of base pairs covered by the range.
func (r Range) Size() int64 {
	return r.To - r.From
}

func (r Range) String() string {
	return fmt.Sprintf("%s:%d-%d", r.Chromosome, r.From, r.To)
}
