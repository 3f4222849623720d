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

package stage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestExecRunner(t *testing.T) {
	err := ExecRunner{}.Run(context.Background(), Command{
		Path: "sh", Args: []string{"-c", "exit 0"},
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
}

func TestExecRunner_NonZeroExit(t *testing.T) {
	err := ExecRunner{}.Run(context.Background(), Command{
		Path: "sh", Args: []string{"-c", "echo broken reference >&2; exit 3"},
	})
	if err == nil {
		t.Fatal("Unexpected success, wanted error")
	}
	if !strings.Contains(err.Error(), "broken reference") {
		t.Errorf("Error does not carry stderr tail: %v", err)
	}
}

func TestExecRunner_StdoutRedirect(t *testing.T) {
	output := filepath.Join(t.TempDir(), "out.sam")
	err := ExecRunner{}.Run(context.Background(), Command{
		Path:   "sh",
		Args:   []string{"-c", "echo aligned"},
		Stdout: output,
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("Failed to read output: %v", err)
	}
	if got, want := string(data), "aligned\n"; got != want {
		t.Errorf("Wrong output: got %q, want %q", got, want)
	}
}

func TestExecRunner_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := ExecRunner{}.Run(ctx, Command{Path: "sleep", Args: []string{"60"}})
	if err == nil {
		t.Fatal("Unexpected success, wanted cancellation error")
	}
}

func TestCommand_String(t *testing.T) {
	c := Command{Path: "bwa", Args: []string{"mem", "-t", "4", "ref.fa"}}
	if got, want := c.String(), "bwa mem -t 4 ref.fa"; got != want {
		t.Errorf("Wrong string: got %q, want %q", got, want)
	}
}
