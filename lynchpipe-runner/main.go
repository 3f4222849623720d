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

// This binary runs the Lynch syndrome screening pipeline: it discovers
// fastq inputs, drives each sample through trimming, alignment, variant
// calling and annotation, and writes a per-sample report flagging variants
// that fall inside the configured gene ranges.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/profile"

	"github.com/googlegenomics/lynchpipe/internal/config"
	"github.com/googlegenomics/lynchpipe/internal/discovery"
	"github.com/googlegenomics/lynchpipe/internal/pipeline"
	"github.com/googlegenomics/lynchpipe/internal/registry"
	"github.com/googlegenomics/lynchpipe/internal/report"
	"github.com/googlegenomics/lynchpipe/internal/stage"
	"github.com/googlegenomics/lynchpipe/internal/status"
	"github.com/googlegenomics/lynchpipe/internal/upload"
)

var (
	configFile = flag.String("config", "", "JSON configuration file")
	projectDir = flag.String("project_dir", "", "root directory for pipeline artifacts")
	inputDir   = flag.String("input_dir", "", "directory containing <sample>_1.fastq.gz inputs")
	reference  = flag.String("reference", "", "reference genome fasta")
	threads    = flag.Int("threads", 0, "thread count passed to the external tools")
	workers    = flag.Int("workers", 0, "number of samples processed concurrently")

	uploadBucket = flag.String("upload_bucket", "", "if set, copy finished reports to this GCS bucket")

	profiling = flag.Bool("profile", false, "write a CPU profile for this run")
)

func main() {
	flag.Parse()

	if *profiling {
		defer profile.Start().Stop()
	}

	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	genes := registry.Default()
	if len(cfg.Genes) > 0 {
		genes, err = registry.Load(cfg.Genes)
		if err != nil {
			log.Fatalf("Invalid gene table: %v", err)
		}
	}

	if err := cfg.CreateDirs(); err != nil {
		log.Fatalf("Failed to create artifact directories: %v", err)
	}

	samples, err := discovery.Discover(cfg.InputDir)
	if err != nil {
		log.Fatalf("Sample discovery failed: %v", err)
	}
	if len(samples) == 0 {
		log.Fatalf("No samples found in %s", cfg.InputDir)
	}

	runID := uuid.New().String()
	log.Printf("Run %s: %d samples, %d workers", runID, len(samples), cfg.Workers)

	ctx, cancel := signalContext()
	defer cancel()

	started := time.Now().UTC()
	orchestrator := pipeline.New(cfg, genes, stage.ExecRunner{})
	results := orchestrator.ProcessAll(ctx, samples)

	run := status.Run{RunID: runID, Started: started, Samples: writeReports(cfg, genes, results)}
	run.Finished = time.Now().UTC()

	reportsDir := cfg.Dir(config.ReportsDir)
	if err := status.Write(filepath.Join(reportsDir, status.Filename), run); err != nil {
		log.Printf("Failed to write run status: %v", err)
	}

	if *uploadBucket != "" {
		uploadReports(ctx, *uploadBucket, reportsDir, run.Samples)
	}

	succeeded := 0
	for _, sample := range run.Samples {
		if sample.Report != "" {
			succeeded++
		}
	}
	log.Printf("Run %s finished: %d/%d samples reported", runID, succeeded, len(samples))
	if succeeded == 0 {
		// Individual failures are tolerated, a fully failed cohort is
		// not.
		log.Fatalf("No sample completed the pipeline")
	}
}

func loadConfig() (*config.Config, error) {
	cfg := &config.Config{}
	if *configFile != "" {
		loaded, err := config.Load(*configFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	// Flags override the configuration file.
	if *projectDir != "" {
		cfg.ProjectDir = *projectDir
	}
	if *inputDir != "" {
		cfg.InputDir = *inputDir
	}
	if *reference != "" {
		cfg.Reference = *reference
	}
	if *threads > 0 {
		cfg.Threads = *threads
	}
	if *workers > 0 {
		cfg.Workers = *workers
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// writeReports generates one report per successfully processed sample.  A
// report failure is isolated to its sample, exactly like a stage failure.
func writeReports(cfg *config.Config, genes *registry.Registry, results []pipeline.Result) []status.Sample {
	reportsDir := cfg.Dir(config.ReportsDir)

	samples := make([]status.Sample, 0, len(results))
	for _, result := range results {
		entry := status.Sample{
			ID:    result.Sample.ID,
			State: result.State.String(),
		}
		if !result.Succeeded() {
			entry.FailedStage = result.FailedStage
			if result.Err != nil {
				entry.Error = result.Err.Error()
			}
			samples = append(samples, entry)
			continue
		}

		path, err := report.Write(reportsDir, result.Sample.ID, result.VariantFile, genes)
		if err != nil {
			log.Printf("[%s] report generation failed: %v", result.Sample.ID, err)
			entry.Error = err.Error()
			samples = append(samples, entry)
			continue
		}
		log.Printf("[%s] report written to %s", result.Sample.ID, path)
		entry.Report = filepath.Base(path)
		samples = append(samples, entry)
	}
	return samples
}

func uploadReports(ctx context.Context, bucket, reportsDir string, samples []status.Sample) {
	uploader, err := newUploader(ctx, bucket)
	if err != nil {
		log.Printf("Failed to create uploader: %v", err)
		return
	}
	defer uploader.Close()

	for _, sample := range samples {
		if sample.Report == "" {
			continue
		}
		object, err := uploader.Upload(ctx, filepath.Join(reportsDir, sample.Report))
		if err != nil {
			log.Printf("[%s] upload failed: %v", sample.ID, err)
			continue
		}
		log.Printf("[%s] uploaded gs://%s/%s", sample.ID, bucket, object)
	}
}

// newUploader uses a bearer token from the environment when present, the
// application default credentials otherwise.
func newUploader(ctx context.Context, bucket string) (*upload.Uploader, error) {
	if token := os.Getenv("LYNCHPIPE_TOKEN"); token != "" {
		return upload.NewUploaderFromToken(ctx, bucket, token)
	}
	return upload.NewDefaultUploader(ctx, bucket)
}

// signalContext returns a context cancelled by the first SIGINT or SIGTERM.
// In-flight external processes are killed through the context; a second
// signal kills the run outright via the default handler.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig, ok := <-signals
		if !ok {
			return
		}
		fmt.Fprintf(os.Stderr, "Received %v, cancelling run\n", sig)
		signal.Stop(signals)
		cancel()
	}()

	return ctx, func() {
		signal.Stop(signals)
		close(signals)
		cancel()
	}
}
