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

// Package report renders the per-sample Lynch syndrome screening report.
package report

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/googlegenomics/lynchpipe/internal/registry"
	"github.com/googlegenomics/lynchpipe/internal/vcf"
)

// Generate scans the sample's final variant file and renders the report
// text: a header line, one line per registered gene in registry order, and
// an explicit trailer when nothing matched.  A negative result is always
// stated, never implied by omission.  Output is byte-identical across runs
// for the same inputs.
func Generate(sampleID, variantPath string, genes *registry.Registry) ([]byte, error) {
	matched, err := vcf.Scan(variantPath, genes)
	if err != nil {
		return nil, fmt.Errorf("scanning variants for %s: %v", sampleID, err)
	}

	var buffer bytes.Buffer
	fmt.Fprintf(&buffer, "Lynch syndrome screening report for sample %s\n", sampleID)

	found := 0
	for _, gene := range genes.Genes() {
		gr, _ := genes.Lookup(gene)
		if matched[gene] {
			fmt.Fprintf(&buffer, "%s (%s): variant found in range\n", gene, gr)
			found++
		} else {
			fmt.Fprintf(&buffer, "%s (%s): no variant in range\n", gene, gr)
		}
	}
	if found == 0 {
		fmt.Fprintf(&buffer, "No Lynch syndrome variants were found for sample %s.\n", sampleID)
	}
	return buffer.Bytes(), nil
}

// Filename returns the report file name for a sample.
func Filename(sampleID string) string {
	return sampleID + "_lynch_report.txt"
}

// Write generates the report for sampleID and writes it under dir.  It
// returns the report path.
func Write(dir, sampleID, variantPath string, genes *registry.Registry) (string, error) {
	text, err := Generate(sampleID, variantPath, genes)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, Filename(sampleID))
	if err := os.WriteFile(path, text, 0644); err != nil {
		return "", fmt.Errorf("writing report for %s: %v", sampleID, err)
	}
	return path, nil
}
