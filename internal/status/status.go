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

// Package status records the outcome of a pipeline run in a JSON file that
// the report server exposes.  The status file is informational only; the
// report directory remains the authoritative success signal.
package status

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Filename is the status file written to the reports directory.
const Filename = "run_status.json"

// Sample is the terminal outcome for one sample.
type Sample struct {
	ID string `json:"id"`
	// State is the terminal pipeline state, e.g. "annotated".
	State string `json:"state"`
	// FailedStage is set when the sample was abandoned.
	FailedStage string `json:"failed_stage,omitempty"`
	Error       string `json:"error,omitempty"`
	// Report is the report file name, set when the report was written.
	Report string `json:"report,omitempty"`
}

// Run describes one whole pipeline run.
type Run struct {
	RunID    string    `json:"run_id"`
	Started  time.Time `json:"started"`
	Finished time.Time `json:"finished"`
	Samples  []Sample  `json:"samples"`
}

// Write stores the run status at path.
func Write(path string, run Run) error {
	data, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding run status: %v", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("writing run status: %v", err)
	}
	return nil
}

// Read loads a run status file.
func Read(path string) (Run, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Run{}, fmt.Errorf("reading run status: %v", err)
	}
	var run Run
	if err := json.Unmarshal(data, &run); err != nil {
		return Run{}, fmt.Errorf("parsing run status: %v", err)
	}
	return run, nil
}
