// Package model contains domain models passed between layers.
package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Benchmark keys for the fixed benchmark set.
const (
	BenchTeleQnA  = "teleqna"
	BenchTeleLogs = "telelogs"
	BenchTeleMath = "telemath"
	Bench3GPPTSG  = "3gpp_tsg"
)

// DateLayout is the day-precision layout for submitted_at.
const DateLayout = "2006-01-02"

// Benchmarks returns the required benchmark keys in column order.
func Benchmarks() []string {
	return []string{BenchTeleQnA, BenchTeleLogs, BenchTeleMath, Bench3GPPTSG}
}

// recognizedProviders mirrors the published provider allow-list.
var recognizedProviders = map[string]struct{}{
	"Openai":     {},
	"Anthropic":  {},
	"Google":     {},
	"Mistral":    {},
	"Deepseek":   {},
	"Meta":       {},
	"Cohere":     {},
	"Together":   {},
	"Openrouter": {},
	"Groq":       {},
	"Fireworks":  {},
}

// RecognizedProvider reports whether provider is on the allow-list.
func RecognizedProvider(provider string) bool {
	_, ok := recognizedProviders[provider]
	return ok
}

// SplitModelIdentifier parses an identifier of the form "name (Provider)".
// ok is false when the identifier does not match that shape.
func SplitModelIdentifier(id string) (name, provider string, ok bool) {
	open := strings.LastIndex(id, " (")
	if open <= 0 || !strings.HasSuffix(id, ")") {
		return "", "", false
	}
	name = id[:open]
	provider = strings.TrimSuffix(id[open+2:], ")")
	if name == "" || provider == "" {
		return "", "", false
	}
	return name, provider, true
}

// ScoreCell is the (score, stderr, n_samples) triple from one model-card column.
type ScoreCell struct {
	Score    float64 `json:"score"`
	Stderr   float64 `json:"stderr"`
	NSamples int     `json:"n_samples"`
}

// Trajectory completion statuses.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// TrajectoryRecord is one per-sample execution log entry.
type TrajectoryRecord struct {
	Benchmark   string `json:"benchmark"`
	SampleID    string `json:"sample_id"`
	Status      string `json:"status"`
	ErrorDetail string `json:"error_detail,omitempty"`
}

// Bundle is the wire form of a submission as it arrives in transit.
// Trajectories stay raw so structural validation can report parse errors
// as a check failure instead of dropping the whole request.
type Bundle struct {
	ModelIdentifier  string               `json:"model"`
	Scores           map[string]ScoreCell `json:"scores"`
	SubmittedAt      string               `json:"date"`
	BenchmarkVersion string               `json:"benchmark_version"`
	Trajectories     json.RawMessage      `json:"trajectories"`
}

// Submission is a validated candidate leaderboard entry.
type Submission struct {
	ModelIdentifier string
	Scores          map[string]ScoreCell
	SubmittedAt     time.Time
}

// Submission builds the validated domain form of a bundle. It fails only on
// an unparseable date, which schema validation has already ruled out for
// bundles that reach sync.
func (b Bundle) Submission() (Submission, error) {
	ts, err := time.Parse(DateLayout, b.SubmittedAt)
	if err != nil {
		return Submission{}, fmt.Errorf("parse date %q: %w", b.SubmittedAt, err)
	}
	scores := make(map[string]ScoreCell, len(b.Scores))
	for k, v := range b.Scores {
		scores[k] = v
	}
	return Submission{
		ModelIdentifier: b.ModelIdentifier,
		Scores:          scores,
		SubmittedAt:     ts,
	}, nil
}

// CheckOutcome identifies one named validation check and its result.
type CheckOutcome struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
}

// Failure carries the actionable reason for one failed check.
type Failure struct {
	Check  string `json:"check"`
	Reason string `json:"reason"`
}

// Verdict is the result of evaluating one submission bundle.
type Verdict struct {
	Checks   []CheckOutcome `json:"checks"`
	Failures []Failure      `json:"failures"`
	Pass     bool           `json:"passed"`
}

// Reasons flattens failure reasons for submitter feedback.
func (v Verdict) Reasons() []string {
	out := make([]string, 0, len(v.Failures))
	for _, f := range v.Failures {
		out = append(out, f.Check+": "+f.Reason)
	}
	return out
}
