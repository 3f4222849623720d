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

// Package stage provides a uniform wrapper around the external genomics
// tools the pipeline shells out to.  Tool failure is an ordinary error
// value: the orchestrator is expected to handle it, not crash on it.
package stage

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// stderrTailLimit bounds how much tool stderr is kept for diagnostics.
const stderrTailLimit = 4096

// Command describes a single external tool invocation.
type Command struct {
	// Path is the tool binary, resolved via PATH.
	Path string
	// Args are the command line arguments, excluding the binary name.
	Args []string
	// Stdout, when set, names a file the tool's standard output is
	// redirected into.  Used for tools like bwa and snpEff that write
	// their primary artifact to stdout.
	Stdout string
}

func (c Command) String() string {
	return c.Path + " " + strings.Join(c.Args, " ")
}

// Runner executes external tool commands.  The production implementation is
// ExecRunner; tests substitute fakes so pipeline sequencing can be exercised
// without the real binaries installed.
type Runner interface {
	Run(ctx context.Context, command Command) error
}

// ExecRunner runs commands as local child processes.
type ExecRunner struct{}

// Run executes command and blocks until it exits.  A non-zero exit status is
// returned as an error carrying the tail of the tool's stderr.  When ctx is
// cancelled the child process is killed and the cancellation error is
// returned.
func (ExecRunner) Run(ctx context.Context, command Command) error {
	cmd := exec.CommandContext(ctx, command.Path, command.Args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if command.Stdout != "" {
		out, err := os.Create(command.Stdout)
		if err != nil {
			return fmt.Errorf("creating output file: %v", err)
		}
		defer out.Close()
		cmd.Stdout = out
	}

	err := cmd.Run()
	if ctx.Err() != nil {
		return fmt.Errorf("running %s: %v", command.Path, ctx.Err())
	}
	if err != nil {
		if tail := stderrTail(stderr.Bytes()); tail != "" {
			return fmt.Errorf("running %s: %v: %s", command.Path, err, tail)
		}
		return fmt.Errorf("running %s: %v", command.Path, err)
	}
	return nil
}

func stderrTail(output []byte) string {
	if len(output) > stderrTailLimit {
		output = output[len(output)-stderrTailLimit:]
	}
	return strings.TrimSpace(string(output))
}
