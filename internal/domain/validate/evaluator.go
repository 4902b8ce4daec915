package validate

import (
	"context"
	"time"

	"github.com/telcobench/transit/internal/domain/model"
	"github.com/telcobench/transit/pkg/metrics"
)

// checkOrder fixes the order of named checks in every verdict.
var checkOrder = []string{
	CheckRequiredColumns,
	CheckModelFormat,
	CheckProviderRecognized,
	CheckScoreValues,
	CheckDateValid,
	CheckJSONValid,
	CheckTrajectoryFields,
	CheckNoErrors,
	CheckSampleCount,
}

// Option applies a configuration option to the Evaluator.
type Option func(*Evaluator)

// WithBenchmarkVersion pins the canonical sample-set version used for
// coverage verification.
func WithBenchmarkVersion(version string) Option {
	return func(e *Evaluator) {
		if version != "" {
			e.version = version
		}
	}
}

// WithClock overrides the time source used for the future-date check.
func WithClock(now func() time.Time) Option {
	return func(e *Evaluator) {
		if now != nil {
			e.now = now
		}
	}
}

// Evaluator composes the schema, trajectory, and sample-count validators
// into one verdict per submission. Evaluation has no hidden state: the same
// bundle against the same canonical sets always yields the same verdict,
// which makes automatic re-validation on every push safe.
type Evaluator struct {
	src     Source
	version string
	now     func() time.Time
}

// NewEvaluator creates an evaluator backed by the given canonical source.
func NewEvaluator(src Source, opts ...Option) *Evaluator {
	e := &Evaluator{
		src:     src,
		version: "v1",
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate runs all validators and assembles the verdict. Failures are
// collected rather than short-circuited so the submitter gets actionable
// feedback in a single round trip.
func (e *Evaluator) Evaluate(ctx context.Context, b model.Bundle) model.Verdict {
	start := time.Now()
	defer func() {
		metrics.RecordValidationLatency(float64(time.Since(start).Milliseconds()))
	}()

	var failures []model.Failure
	failures = append(failures, CheckSchema(e.now(), b)...)

	records, trajFailures := CheckTrajectories(b.Trajectories)
	failures = append(failures, trajFailures...)

	// Coverage can only be judged on a parseable bundle.
	if records != nil {
		failures = append(failures, CheckSampleCounts(ctx, e.src, e.version, b.Scores, records)...)
	}

	verdict := model.Verdict{
		Checks:   make([]model.CheckOutcome, 0, len(checkOrder)),
		Failures: failures,
		Pass:     len(failures) == 0,
	}
	failed := make(map[string]bool, len(failures))
	for _, f := range failures {
		failed[f.Check] = true
	}
	for _, name := range checkOrder {
		verdict.Checks = append(verdict.Checks, model.CheckOutcome{Name: name, Passed: !failed[name]})
	}

	if verdict.Pass {
		metrics.RecordValidationPass()
	} else {
		metrics.RecordValidationFail()
	}
	return verdict
}
