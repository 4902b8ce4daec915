package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/telcobench/transit/internal/smoketest"
)

// Default configuration constants.
const (
	defaultSubmissions = 100
	defaultSamples     = 20
	defaultTimeout     = 30 * time.Second
	defaultDrainWait   = 2 * time.Minute
	defaultTestTimeout = 10 * time.Minute
)

func main() {
	var (
		baseURL     = flag.String("url", "http://localhost:9080", "Base URL of the service")
		submissions = flag.Int("submissions", defaultSubmissions, "Number of submission bundles to generate")
		workers     = flag.Int("workers", runtime.NumCPU(), "Number of concurrent workers")
		samples     = flag.Int("samples", defaultSamples, "Sample ids per benchmark trajectory")
		timeout     = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		drainWait   = flag.Duration("drain", defaultDrainWait, "How long to wait for approved cases to sync")
		logFile     = flag.String("log", "", "Log file for test output (default: smoke_test_TIMESTAMP.log)")
		verbose     = flag.Bool("verbose", false, "Enable verbose logging")
		help        = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		smoketest.ShowHelp()
		return
	}

	if err := smoketest.SetupLogging(*logFile); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultTestTimeout)
	defer cancel()

	config := &smoketest.Config{
		BaseURL:             *baseURL,
		NumSubmissions:      *submissions,
		Workers:             *workers,
		Timeout:             *timeout,
		DrainWait:           *drainWait,
		SamplesPerBenchmark: *samples,
		LogFile:             *logFile,
		Verbose:             *verbose,
	}

	if err := smoketest.Run(ctx, config); err != nil {
		os.Stderr.WriteString("Smoke test failed: " + err.Error() + "\n")
		return
	}
}
