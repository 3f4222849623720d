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

// Package pipeline drives each sample through the fixed sequence of
// external tool stages, isolating failures so that one sample's failure
// never aborts the rest of the cohort.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/googlegenomics/lynchpipe/internal/config"
	"github.com/googlegenomics/lynchpipe/internal/discovery"
	"github.com/googlegenomics/lynchpipe/internal/registry"
	"github.com/googlegenomics/lynchpipe/internal/stage"
)

// Orchestrator runs the per-sample stage sequence.  Must be created with
// New.
type Orchestrator struct {
	cfg    *config.Config
	genes  *registry.Registry
	runner stage.Runner
}

// New returns an Orchestrator that executes tool commands through runner.
// The registry supplies the gene set used by the annotation filter stage.
func New(cfg *config.Config, genes *registry.Registry, runner stage.Runner) *Orchestrator {
	return &Orchestrator{cfg: cfg, genes: genes, runner: runner}
}

// Result records the terminal outcome for one sample.
type Result struct {
	Sample discovery.Sample
	State  State
	// FailedStage names the stage that abandoned the sample.  Empty on
	// success.
	FailedStage string
	Err         error
	// VariantFile is the compressed, indexed variant file.  Set once the
	// sample reaches the Compressed state, even if annotation later
	// fails.
	VariantFile string
}

// Succeeded reports whether the sample completed every stage.
func (r Result) Succeeded() bool {
	return r.State == Annotated
}

// stageStep couples a stage name with the commands it runs and the state the
// sample enters when they all succeed.
type stageStep struct {
	name     string
	state    State
	commands []stage.Command
}

// Process runs stages 1-7 for one sample.  On the first stage failure the
// sample is abandoned: remaining stages are skipped and the error is
// recorded in the result, not returned.  Artifacts produced before the
// failure are left on disk for inspection.
func (o *Orchestrator) Process(ctx context.Context, sample discovery.Sample) Result {
	result := Result{Sample: sample, State: Discovered}
	paths := o.artifactPaths(sample)

	for _, step := range o.steps(sample, paths) {
		log.Printf("[%s] running %s stage", sample.ID, step.name)
		if err := o.runStep(ctx, step); err != nil {
			state, _ := advance(result.State, Abandoned)
			result.State = state
			result.FailedStage = step.name
			result.Err = err
			log.Printf("[%s] %s stage failed, abandoning sample: %v", sample.ID, step.name, err)
			return result
		}
		state, err := advance(result.State, step.state)
		if err != nil {
			// Indicates a bug in the stage table, not a tool failure.
			result.State = Abandoned
			result.FailedStage = step.name
			result.Err = err
			return result
		}
		result.State = state
		if step.state == Compressed {
			result.VariantFile = paths.compressed
		}
	}
	return result
}

// ProcessAll processes samples through a worker pool bounded by the
// configured worker count.  Results are returned in input order.  Stages of
// a single sample always run sequentially on one worker; cancellation stops
// unstarted samples but never touches finished samples' artifacts.
func (o *Orchestrator) ProcessAll(ctx context.Context, samples []discovery.Sample) []Result {
	results := make([]Result, len(samples))

	workers := o.cfg.Workers
	if workers < 1 {
		workers = 1
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = o.Process(ctx, samples[i])
			}
		}()
	}

	for i := range samples {
		select {
		case jobs <- i:
		case <-ctx.Done():
			results[i] = Result{
				Sample:      samples[i],
				State:       Abandoned,
				FailedStage: "dispatch",
				Err:         ctx.Err(),
			}
		}
	}
	close(jobs)
	wg.Wait()
	return results
}

func (o *Orchestrator) runStep(ctx context.Context, step stageStep) error {
	for _, command := range step.commands {
		if err := o.runner.Run(ctx, command); err != nil {
			return err
		}
	}
	return nil
}

// artifacts holds the derived file paths for one sample.  Every stage
// overwrites its outputs, which keeps reruns idempotent.
type artifacts struct {
	trimmed1, trimmed2   string
	trimJSON, trimHTML   string
	aligned              string
	sorted               string
	tagged               string
	pileup               string
	calls                string
	compressed           string
	annotated, geneCalls string
}

func (o *Orchestrator) artifactPaths(sample discovery.Sample) artifacts {
	join := func(dir, name string) string {
		return filepath.Join(o.cfg.Dir(dir), sample.ID+name)
	}
	a := artifacts{
		trimmed1:   join(config.TrimmedDir, "_1.trimmed.fastq.gz"),
		trimJSON:   join(config.TrimmedDir, "_fastp.json"),
		trimHTML:   join(config.TrimmedDir, "_fastp.html"),
		aligned:    join(config.AlignedDir, ".sam"),
		sorted:     join(config.ProcessedDir, ".sorted.bam"),
		tagged:     join(config.ProcessedDir, ".tagged.bam"),
		pileup:     join(config.CallsDir, ".pileup.bcf"),
		calls:      join(config.CallsDir, ".vcf"),
		compressed: join(config.CallsDir, ".vcf.gz"),
		annotated:  join(config.AnnotatedDir, ".annotated.vcf"),
		geneCalls:  join(config.AnnotatedDir, ".lynch_genes.vcf"),
	}
	if sample.Paired() {
		a.trimmed2 = join(config.TrimmedDir, "_2.trimmed.fastq.gz")
	}
	return a
}

// readGroup builds the @RG header line attached to the sample's alignments.
// Downstream callers key on SM, so it always carries the sample id; the ID
// field distinguishes paired from single-end runs of the same subject.
func readGroup(sample discovery.Sample) string {
	layout := "se"
	if sample.Paired() {
		layout = "pe"
	}
	return fmt.Sprintf(`@RG\tID:%s.%s\tSM:%s\tPL:ILLUMINA`, sample.ID, layout, sample.ID)
}

// steps returns the full stage table for one sample.  Only trimming and
// alignment differ between paired and single-end input; stages 3-7 are
// identical for both.
func (o *Orchestrator) steps(sample discovery.Sample, a artifacts) []stageStep {
	threads := strconv.Itoa(o.cfg.Threads)

	trimArgs := []string{"-i", sample.Read1, "-o", a.trimmed1}
	alignInputs := []string{a.trimmed1}
	if sample.Paired() {
		trimArgs = []string{
			"-i", sample.Read1, "-I", sample.Read2,
			"-o", a.trimmed1, "-O", a.trimmed2,
			"--detect_adapter_for_pe",
		}
		alignInputs = []string{a.trimmed1, a.trimmed2}
	}
	trimArgs = append(trimArgs, "-w", threads, "-j", a.trimJSON, "-h", a.trimHTML)

	alignArgs := append([]string{
		"mem", "-t", threads, "-R", readGroup(sample), o.cfg.Reference,
	}, alignInputs...)

	return []stageStep{
		{"trim", Trimmed, []stage.Command{
			{Path: "fastp", Args: trimArgs},
		}},
		{"align", Aligned, []stage.Command{
			{Path: "bwa", Args: alignArgs, Stdout: a.aligned},
		}},
		{"sort", Sorted, []stage.Command{
			{Path: "samtools", Args: []string{"sort", "-@", threads, "-o", a.sorted, a.aligned}},
			{Path: "samtools", Args: []string{"index", a.sorted}},
		}},
		{"tag", Tagged, []stage.Command{
			{Path: "samtools", Args: []string{
				"addreplacerg", "-r", readGroup(sample), "-o", a.tagged, a.sorted,
			}},
			{Path: "samtools", Args: []string{"index", a.tagged}},
		}},
		{"call", Called, []stage.Command{
			{Path: "bcftools", Args: []string{
				"mpileup", "-f", o.cfg.Reference, "-O", "u", "-o", a.pileup, a.tagged,
			}},
			{Path: "bcftools", Args: []string{
				"call", "-mv", "-O", "v", "-o", a.calls, a.pileup,
			}},
		}},
		{"compress", Compressed, []stage.Command{
			{Path: "bgzip", Args: []string{"-f", a.calls}},
			{Path: "tabix", Args: []string{"-p", "vcf", a.compressed}},
		}},
		{"annotate", Annotated, []stage.Command{
			{Path: "snpEff", Args: []string{"-noStats", o.cfg.SnpEffDB, a.compressed}, Stdout: a.annotated},
			{Path: "SnpSift", Args: []string{"filter", o.geneFilter(), a.annotated}, Stdout: a.geneCalls},
		}},
	}
}

// geneFilter builds the SnpSift expression selecting calls annotated with
// any of the registered genes.  Registry order is stable, so the expression
// is identical across runs.
func (o *Orchestrator) geneFilter() string {
	filter := ""
	for i, gene := range o.genes.Genes() {
		if i > 0 {
			filter += " | "
		}
		filter += fmt.Sprintf("(ANN[*].GENE has '%s')", gene)
	}
	return filter
}
