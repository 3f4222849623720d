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

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func validConfig(t *testing.T) *Config {
	t.Helper()
	dir := t.TempDir()
	reference := filepath.Join(dir, "ref.fa")
	if err := os.WriteFile(reference, []byte(">chr1\nACGT\n"), 0644); err != nil {
		t.Fatalf("Failed to write reference: %v", err)
	}
	return &Config{ProjectDir: dir, Reference: reference}
}

func TestValidate_Defaults(t *testing.T) {
	cfg := validConfig(t)
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}

	if cfg.Threads != 1 || cfg.Workers != 1 {
		t.Errorf("Wrong defaults: threads %d, workers %d", cfg.Threads, cfg.Workers)
	}
	if cfg.SnpEffDB == "" {
		t.Error("No default snpEff database")
	}
	if got, want := cfg.InputDir, filepath.Join(cfg.ProjectDir, "input"); got != want {
		t.Errorf("Wrong input dir: got %q, want %q", got, want)
	}
}

func TestValidate_Errors(t *testing.T) {
	testCases := []struct {
		name string
		cfg  Config
	}{
		{"no project dir", Config{Reference: "ref.fa"}},
		{"no reference", Config{ProjectDir: "/tmp"}},
		{"missing reference", Config{ProjectDir: "/tmp", Reference: "/does/not/exist.fa"}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.cfg.Validate(); err == nil {
				t.Error("Unexpected success, wanted error")
			}
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	body := `{"project_dir": "/data/run1", "reference": "/data/ref.fa", "threads": 8, "genes": {"MLH1": "chr3:36993226-37050896"}}`
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.ProjectDir != "/data/run1" || cfg.Threads != 8 {
		t.Errorf("Wrong config: %+v", cfg)
	}
	if cfg.Genes["MLH1"] != "chr3:36993226-37050896" {
		t.Errorf("Wrong genes: %v", cfg.Genes)
	}
}

func TestLoad_InvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("{"), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	if cfg, err := Load(path); err == nil {
		t.Errorf("Unexpected success: got %+v, wanted error", cfg)
	}
}

func TestCreateDirs(t *testing.T) {
	cfg := validConfig(t)
	if err := cfg.CreateDirs(); err != nil {
		t.Fatalf("CreateDirs failed: %v", err)
	}
	for _, dir := range subdirs {
		info, err := os.Stat(cfg.Dir(dir))
		if err != nil || !info.IsDir() {
			t.Errorf("Missing artifact directory %s: %v", dir, err)
		}
	}
}
