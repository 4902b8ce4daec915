package smoketest

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/telcobench/transit/pkg/logger"
)

const logFilePermission = 0600

// SetupLogging configures logging to both console and file.
// If logFile is empty, a timestamped filename is generated.
func SetupLogging(logFile string) error {
	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if logFile == "" {
		timestamp := time.Now().Format("20060102_150405")
		logFile = "smoke_test_" + timestamp + ".log"
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}

	log.SetOutput(io.MultiWriter(os.Stdout, file))
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	logger.Get().Info(context.Background(), "logging to file", logger.String("logFile", logFile))
	return nil
}

// ShowHelp prints usage information for the smoke test tool.
func ShowHelp() {
	os.Stdout.WriteString(`Transit Smoke Test Tool
=======================

Drives a running transit review service end to end: submits synthetic
bundles, approves validated cases, and waits for them to sync and drain.

The benchmark service the transit instance points at must expose sample ids
q_0..q_{n-1} for each benchmark, where n matches -samples.

Usage:
  go run cmd/smoke-test/main.go [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -submissions int
        Number of submission bundles to generate (default 100)
  -workers int
        Number of concurrent workers (default CPU cores)
  -samples int
        Sample ids per benchmark trajectory (default 20)
  -timeout duration
        HTTP request timeout (default 30s)
  -drain duration
        How long to wait for approved cases to sync (default 2m)
  -log string
        Log file for test output (default: smoke_test_TIMESTAMP.log)
  -verbose
        Enable verbose logging
  -help
        Show this help message

Examples:
  # Test with default settings
  go run cmd/smoke-test/main.go

  # Heavier run against a remote instance
  go run cmd/smoke-test/main.go -submissions 1000 -workers 16 -url http://transit.internal:9080
`)
}
