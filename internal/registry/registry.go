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

// Package registry holds the table of gene coordinate ranges checked by the
// interval scan.  The table is loaded once at startup and read-only after
// that.
package registry

import (
	"fmt"
	"sort"

	"github.com/googlegenomics/lynchpipe/internal/genomics"
)

// defaultRanges covers the Lynch syndrome mismatch repair genes plus EPCAM,
// GRCh38 coordinates.
var defaultRanges = map[string]string{
	"MLH1":  "chr3:36993226-37050896",
	"MSH2":  "chr2:47403067-47709830",
	"MSH6":  "chr2:47783145-47810101",
	"PMS2":  "chr7:5970925-6009106",
	"EPCAM": "chr2:47345158-47387601",
}

// Registry maps gene symbols to coordinate ranges.  Must be created with
// Load or Default.
type Registry struct {
	ranges map[string]genomics.GeneRange
	genes  []string
}

// Load builds a Registry from gene symbol to "chromosome:start-end"
// mappings.  Any unparseable range fails the whole load: a bad gene table is
// a configuration error, not something to discover one sample at a time.
func Load(ranges map[string]string) (*Registry, error) {
	r := &Registry{ranges: make(map[string]genomics.GeneRange)}
	for gene, span := range ranges {
		if gene == "" {
			return nil, fmt.Errorf("empty gene symbol for range %q", span)
		}
		parsed, err := genomics.ParseRange(span)
		if err != nil {
			return nil, fmt.Errorf("parsing range for gene %s: %v", gene, err)
		}
		r.ranges[gene] = parsed
		r.genes = append(r.genes, gene)
	}
	sort.Strings(r.genes)
	return r, nil
}

// Default returns a Registry holding the built-in Lynch syndrome gene set.
func Default() *Registry {
	r, err := Load(defaultRanges)
	if err != nil {
		panic(fmt.Sprintf("built-in gene table is invalid: %v", err))
	}
	return r
}

// Lookup returns the range for gene and whether the gene is registered.
func (r *Registry) Lookup(gene string) (genomics.GeneRange, bool) {
	gr, ok := r.ranges[gene]
	return gr, ok
}

// Genes returns the registered gene symbols in sorted order.  The order is
// stable across calls and across runs, which keeps report output
// deterministic.
func (r *Registry) Genes() []string {
	return r.genes
}
