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

// Package discovery enumerates sequencing input files and groups them into
// per-sample units.
package discovery

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Both common compressed fastq extensions are accepted.  Because of this a
// directory can contain two read-1 files that derive the same sample id;
// Discover rejects that case outright.
var readSuffixes = []string{".fastq.gz", ".fq.gz"}

// Sample is one subject's sequencing reads, tracked as a single pipeline
// instance.  Read1 is always set; Read2 is set only for paired-end input.
type Sample struct {
	ID    string
	Read1 string
	Read2 string
}

// Paired reports whether the sample has a second read file.
func (s Sample) Paired() bool {
	return s.Read2 != ""
}

// Discover lists dir for read-1 files matching the <id>_1.fastq.gz naming
// convention and pairs each with its _2 companion when present.  Samples are
// returned sorted by id so that processing and report order do not depend on
// directory listing order.  Two files deriving the same id is an error: the
// samples would otherwise silently overwrite each other's artifacts.
func Discover(dir string) ([]Sample, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading input directory: %v", err)
	}

	seen := make(map[string]bool)
	var samples []Sample
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() {
			continue
		}
		id, suffix, ok := splitRead1(name)
		if !ok {
			continue
		}
		if seen[id] {
			return nil, fmt.Errorf("duplicate sample id %q in %s", id, dir)
		}
		seen[id] = true

		sample := Sample{ID: id, Read1: filepath.Join(dir, name)}
		read2 := filepath.Join(dir, id+"_2"+suffix)
		if _, err := os.Stat(read2); err == nil {
			sample.Read2 = read2
		}
		samples = append(samples, sample)
	}

	sort.Slice(samples, func(i, j int) bool {
		return samples[i].ID < samples[j].ID
	})
	return samples, nil
}

// splitRead1 returns the sample id and extension for a read-1 file name, or
// ok == false if the name does not follow the <id>_1 naming convention.
func splitRead1(name string) (id, suffix string, ok bool) {
	for _, s := range readSuffixes {
		if strings.HasSuffix(name, "_1"+s) {
			id = strings.TrimSuffix(name, "_1"+s)
			if id == "" {
				return "", "", false
			}
			return id, s, true
		}
	}
	return "", "", false
}
