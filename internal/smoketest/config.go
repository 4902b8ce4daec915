// Package smoketest drives a live transit service end to end: it submits
// synthetic bundles, approves the ones that validate, and verifies they
// drain out of the review registry.
package smoketest

import "time"

// Config holds configuration for the smoke test.
type Config struct {
	BaseURL             string        // Base URL of the service
	NumSubmissions      int           // Number of submission bundles to generate
	Workers             int           // Number of concurrent workers
	Timeout             time.Duration // HTTP request timeout
	DrainWait           time.Duration // How long to wait for approved cases to sync
	SamplesPerBenchmark int           // Sample ids emitted per benchmark trajectory
	LogFile             string        // Log file for test output
	Verbose             bool          // Enable verbose logging
}

// submissionPayload mirrors the POST /submissions wire schema.
type submissionPayload struct {
	Model            string               `json:"model"`
	Date             string               `json:"date"`
	BenchmarkVersion string               `json:"benchmark_version"`
	Scores           map[string]scoreCell `json:"scores"`
	Trajectories     []trajectoryRecord   `json:"trajectories"`
}

type scoreCell struct {
	Score    float64 `json:"score"`
	Stderr   float64 `json:"stderr"`
	NSamples int     `json:"n_samples"`
}

type trajectoryRecord struct {
	Benchmark string `json:"benchmark"`
	SampleID  string `json:"sample_id"`
	Status    string `json:"status"`
}

// caseView mirrors the case representation returned by the service.
type caseView struct {
	CaseID  string   `json:"case_id"`
	State   string   `json:"state"`
	Label   string   `json:"label"`
	Reasons []string `json:"reasons,omitempty"`
}

// Stats holds smoke test statistics.
type Stats struct {
	SubmissionsGenerated int
	SubmissionsSubmitted int
	CasesReadyForReview  int
	CasesNeedsWork       int
	SubmissionsFailed    int
	CasesApproved        int
	ApprovalsFailed      int
	CasesRemaining       int
	StartTime            time.Time
	EndTime              time.Time
	Duration             time.Duration
}
