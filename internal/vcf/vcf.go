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

// Package vcf contains support for scanning compressed VCF files.
package vcf

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/googlegenomics/lynchpipe/internal/registry"
)

// Scan streams the bgzip-compressed VCF file at path and returns the set of
// registered genes whose range contains at least one variant record.  The
// file is read in a single forward pass and need not be position sorted.
func Scan(path string, genes *registry.Registry) (map[string]bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening variant file: %v", err)
	}
	defer f.Close()
	return ScanReader(f, genes)
}

// ScanReader is Scan over an already-open compressed stream.
func ScanReader(r io.Reader, genes *registry.Registry) (map[string]bool, error) {
	// bgzip output is a valid multi-member gzip stream, so the standard
	// gzip reader can decompress it sequentially.
	gzr, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("initializing gzip reader: %v", err)
	}
	defer gzr.Close()

	matched := make(map[string]bool)
	scanner := bufio.NewScanner(gzr)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := scanner.Text()
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		chromosome, pos, err := parseRecord(text)
		if err != nil {
			return nil, fmt.Errorf("line %d: %v", line, err)
		}

		// Linear test against every range.  The gene table is
		// configuration sized, so an interval index would buy nothing
		// here.
		for _, gene := range genes.Genes() {
			if matched[gene] {
				continue
			}
			if gr, ok := genes.Lookup(gene); ok && gr.Contains(chromosome, pos) {
				matched[gene] = true
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning variant file: %v", err)
	}
	return matched, nil
}

// parseRecord extracts the chromosome and 1-based position from a VCF data
// line.  The remaining fields are opaque to the scan.
func parseRecord(text string) (string, uint64, error) {
	fields := strings.SplitN(text, "\t", 3)
	if len(fields) < 2 {
		return "", 0, fmt.Errorf("record has %d fields, want at least 2", len(fields))
	}
	pos, err := strconv.ParseUint(fields[1], 10, 64)
	if err != nil {
		return "", 0, fmt.Errorf("parsing position: %v", err)
	}
	return fields[0], pos, nil
}
