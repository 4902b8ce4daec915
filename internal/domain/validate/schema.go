// Package validate implements the submission checks that gate review.
package validate

import (
	"fmt"
	"time"

	"github.com/telcobench/transit/internal/domain/model"
)

// Named checks produced by the schema validator.
const (
	CheckRequiredColumns    = "required_columns"
	CheckModelFormat        = "model_format"
	CheckProviderRecognized = "provider_recognized"
	CheckScoreValues        = "score_values"
	CheckDateValid          = "date_valid"
)

const maxScore = 100

// CheckSchema validates the model-card record against the column contract.
// It is a pure check: all failures are collected, nothing is mutated.
func CheckSchema(now time.Time, b model.Bundle) []model.Failure {
	var failures []model.Failure

	if b.ModelIdentifier == "" {
		failures = append(failures, model.Failure{Check: CheckRequiredColumns, Reason: "missing model column"})
	}
	if b.SubmittedAt == "" {
		failures = append(failures, model.Failure{Check: CheckRequiredColumns, Reason: "missing date column"})
	}
	for _, bench := range model.Benchmarks() {
		if _, ok := b.Scores[bench]; !ok {
			failures = append(failures, model.Failure{
				Check:  CheckRequiredColumns,
				Reason: fmt.Sprintf("missing column: %s", bench),
			})
		}
	}

	if b.ModelIdentifier != "" {
		_, provider, ok := model.SplitModelIdentifier(b.ModelIdentifier)
		if !ok {
			failures = append(failures, model.Failure{
				Check:  CheckModelFormat,
				Reason: fmt.Sprintf("invalid model format: %q; expected \"name (Provider)\"", b.ModelIdentifier),
			})
		} else if !model.RecognizedProvider(provider) {
			failures = append(failures, model.Failure{
				Check:  CheckProviderRecognized,
				Reason: fmt.Sprintf("unrecognized provider: %s", provider),
			})
		}
	}

	for _, bench := range model.Benchmarks() {
		cell, ok := b.Scores[bench]
		if !ok {
			continue
		}
		if cell.Score < 0 || cell.Score > maxScore {
			failures = append(failures, model.Failure{
				Check:  CheckScoreValues,
				Reason: fmt.Sprintf("%s: score %v outside [0, %d]", bench, cell.Score, maxScore),
			})
		}
		if cell.Stderr < 0 {
			failures = append(failures, model.Failure{
				Check:  CheckScoreValues,
				Reason: fmt.Sprintf("%s: negative stderr %v", bench, cell.Stderr),
			})
		}
		if cell.NSamples <= 0 {
			failures = append(failures, model.Failure{
				Check:  CheckScoreValues,
				Reason: fmt.Sprintf("%s: n_samples must be a positive integer, got %d", bench, cell.NSamples),
			})
		}
	}

	if b.SubmittedAt != "" {
		ts, err := time.Parse(model.DateLayout, b.SubmittedAt)
		if err != nil {
			failures = append(failures, model.Failure{
				Check:  CheckDateValid,
				Reason: fmt.Sprintf("invalid date %q; expected ISO 8601 day precision", b.SubmittedAt),
			})
		} else if ts.After(now) {
			failures = append(failures, model.Failure{
				Check:  CheckDateValid,
				Reason: fmt.Sprintf("date %s is in the future", b.SubmittedAt),
			})
		}
	}

	return failures
}
