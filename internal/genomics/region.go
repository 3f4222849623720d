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

// Package genomics contains definitions related to genomic coordinates.
package genomics

import (
	"fmt"
	"strconv"
	"strings"
)

// GeneRange defines a span of genomic interest on a single chromosome.
type GeneRange struct {
	// Chromosome is the reference sequence name, e.g. "chr3".
	Chromosome string
	// Start and End are 1-based inclusive positions in the same coordinate
	// system as the variant files being scanned.  Start <= End always holds
	// for a range produced by ParseRange.
	Start, End uint64
}

// Contains reports whether the position (chromosome, pos) falls inside the
// range.  Both endpoints are inclusive.
func (r GeneRange) Contains(chromosome string, pos uint64) bool {
	return chromosome == r.Chromosome && pos >= r.Start && pos <= r.End
}

func (r GeneRange) String() string {
	return fmt.Sprintf("%s:%d-%d", r.Chromosome, r.Start, r.End)
}

// ParseRange parses a range in "chromosome:start-end" form, e.g.
// "chr3:36993226-37050896".  It rejects empty chromosome names,
// non-numeric positions and ranges with start greater than end.
func ParseRange(input string) (GeneRange, error) {
	colon := strings.LastIndex(input, ":")
	if colon < 1 {
		return GeneRange{}, fmt.Errorf("missing chromosome in range %q", input)
	}
	chromosome, span := input[:colon], input[colon+1:]

	dash := strings.Index(span, "-")
	if dash < 0 {
		return GeneRange{}, fmt.Errorf("missing end position in range %q", input)
	}

	start, err := strconv.ParseUint(span[:dash], 10, 64)
	if err != nil {
		return GeneRange{}, fmt.Errorf("parsing start: %v", err)
	}
	end, err := strconv.ParseUint(span[dash+1:], 10, 64)
	if err != nil {
		return GeneRange{}, fmt.Errorf("parsing end: %v", err)
	}
	if start > end {
		return GeneRange{}, fmt.Errorf("range %q has start after end", input)
	}

	return GeneRange{Chromosome: chromosome, Start: start, End: end}, nil
}
