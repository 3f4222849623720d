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

// Package config defines the immutable run configuration for the pipeline.
// All configuration is resolved and validated before the first sample is
// processed; a bad configuration aborts the run, never a single sample.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Subdirectories created under the project directory.  Each holds the
// artifacts of one portion of the pipeline.
const (
	TrimmedDir   = "trimmed"
	AlignedDir   = "aligned"
	ProcessedDir = "processed"
	CallsDir     = "calls"
	AnnotatedDir = "annotated"
	ReportsDir   = "reports"
)

var subdirs = []string{TrimmedDir, AlignedDir, ProcessedDir, CallsDir, AnnotatedDir, ReportsDir}

// Config holds everything the pipeline needs for one run.  Treated as
// read-only after Validate.
type Config struct {
	// ProjectDir is the root under which all artifacts are written.
	ProjectDir string `json:"project_dir"`
	// InputDir holds the raw fastq input files.
	InputDir string `json:"input_dir"`
	// Reference is the reference genome fasta used for alignment and
	// variant calling.
	Reference string `json:"reference"`
	// SnpEffDB names the snpEff annotation database, e.g. "GRCh38.99".
	SnpEffDB string `json:"snpeff_db"`
	// Threads is passed to the tools that accept a thread count.
	Threads int `json:"threads"`
	// Workers bounds how many samples are processed concurrently.  1
	// reproduces strictly sequential behavior.
	Workers int `json:"workers"`
	// Genes maps gene symbols to "chromosome:start-end" ranges.  Empty
	// means the built-in Lynch syndrome gene set.
	Genes map[string]string `json:"genes"`
}

// Load reads a JSON configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading configuration: %v", err)
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %v", err)
	}
	return &cfg, nil
}

// Validate checks the configuration and fills in defaults.
func (cfg *Config) Validate() error {
	if cfg.ProjectDir == "" {
		return fmt.Errorf("no project directory specified")
	}
	if cfg.InputDir == "" {
		cfg.InputDir = filepath.Join(cfg.ProjectDir, "input")
	}
	if cfg.Reference == "" {
		return fmt.Errorf("no reference genome specified")
	}
	if _, err := os.Stat(cfg.Reference); err != nil {
		return fmt.Errorf("checking reference genome: %v", err)
	}
	if cfg.SnpEffDB == "" {
		cfg.SnpEffDB = "GRCh38.99"
	}
	if cfg.Threads < 1 {
		cfg.Threads = 1
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	return nil
}

// CreateDirs creates the artifact subdirectories under the project
// directory.
func (cfg *Config) CreateDirs() error {
	for _, dir := range subdirs {
		if err := os.MkdirAll(filepath.Join(cfg.ProjectDir, dir), 0755); err != nil {
			return fmt.Errorf("creating %s directory: %v", dir, err)
		}
	}
	return nil
}

// Dir returns the absolute path of one artifact subdirectory.
func (cfg *Config) Dir(name string) string {
	return filepath.Join(cfg.ProjectDir, name)
}
