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
	"bytes"
	"compress/gzip"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/googlegenomics/lynchpipe/internal/registry"
)

func writeVCF(t *testing.T, records string) string {
	t.Helper()
	var buffer bytes.Buffer
	gzw := gzip.NewWriter(&buffer)
	if _, err := gzw.Write([]byte("##fileformat=VCFv4.2\n" + records)); err != nil {
		t.Fatalf("Failed to write VCF: %v", err)
	}
	if err := gzw.Close(); err != nil {
		t.Fatalf("Failed to close writer: %v", err)
	}

	path := filepath.Join(t.TempDir(), "calls.vcf.gz")
	if err := os.WriteFile(path, buffer.Bytes(), 0644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}
	return path
}

func testRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	r, err := registry.Load(map[string]string{
		"GENE_A": "chr1:100-200",
		"GENE_B": "chr2:300-400",
	})
	if err != nil {
		t.Fatalf("Failed to load registry: %v", err)
	}
	return r
}

func TestGenerate_Match(t *testing.T) {
	path := writeVCF(t, "chr1\t150\t.\tA\tT\t60\tPASS\t.\nchr2\t150\t.\tA\tT\t60\tPASS\t.\n")

	text, err := Generate("S1", path, testRegistry(t))
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	report := string(text)
	lines := strings.Split(strings.TrimRight(report, "\n"), "\n")
	if got, want := len(lines), 3; got != want {
		t.Fatalf("Wrong line count: got %d (%q), want %d", got, report, want)
	}
	if !strings.Contains(lines[0], "sample S1") {
		t.Errorf("Wrong header: %q", lines[0])
	}
	if want := "GENE_A (chr1:100-200): variant found in range"; lines[1] != want {
		t.Errorf("Wrong GENE_A line: got %q, want %q", lines[1], want)
	}
	if want := "GENE_B (chr2:300-400): no variant in range"; lines[2] != want {
		t.Errorf("Wrong GENE_B line: got %q, want %q", lines[2], want)
	}
	if strings.Contains(report, "No Lynch syndrome variants") {
		t.Error("Negative trailer present despite a match")
	}
}

func TestGenerate_NegativeResultIsExplicit(t *testing.T) {
	path := writeVCF(t, "chr9\t150\t.\tA\tT\t60\tPASS\t.\n")

	text, err := Generate("S2", path, testRegistry(t))
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if !strings.Contains(string(text), "No Lynch syndrome variants were found for sample S2.") {
		t.Errorf("Negative result not stated explicitly:\n%s", text)
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	path := writeVCF(t, "chr1\t150\t.\tA\tT\t60\tPASS\t.\n")
	genes := testRegistry(t)

	first, err := Generate("S1", path, genes)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	for i := 0; i < 5; i++ {
		next, err := Generate("S1", path, genes)
		if err != nil {
			t.Fatalf("Generate failed on run %d: %v", i, err)
		}
		if !bytes.Equal(first, next) {
			t.Fatalf("Output differs across runs:\n%s\nvs:\n%s", first, next)
		}
	}
}

func TestGenerate_MissingVariantFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.vcf.gz")
	if text, err := Generate("S1", path, testRegistry(t)); err == nil {
		t.Errorf("Unexpected success: got %q, wanted error", text)
	}
}

func TestWrite(t *testing.T) {
	dir := t.TempDir()
	path := writeVCF(t, "chr1\t150\t.\tA\tT\t60\tPASS\t.\n")

	reportPath, err := Write(dir, "S1", path, testRegistry(t))
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if got, want := reportPath, filepath.Join(dir, "S1_lynch_report.txt"); got != want {
		t.Errorf("Wrong report path: got %q, want %q", got, want)
	}
	if _, err := os.Stat(reportPath); err != nil {
		t.Errorf("Report file missing: %v", err)
	}
}
