package validate

import (
	"context"
	"fmt"
	"sort"

	"github.com/telcobench/transit/internal/domain/model"
)

// CheckSampleCount is the named check produced by the sample-count verifier.
const CheckSampleCount = "sample_count"

// Source provides the canonical sample-id set for a benchmark version.
type Source interface {
	SampleIDs(ctx context.Context, benchmark, version string) ([]string, error)
}

// CheckSampleCounts cross-checks trajectory coverage against the canonical
// sample set of each benchmark. Partial runs produce valid-looking but
// statistically non-comparable scores, so an exact ID match is required.
func CheckSampleCounts(
	ctx context.Context,
	src Source,
	version string,
	scores map[string]model.ScoreCell,
	records []model.TrajectoryRecord,
) []model.Failure {
	seen := make(map[string]map[string]int) // benchmark -> sample_id -> occurrences
	for _, rec := range records {
		if rec.Benchmark == "" || rec.SampleID == "" {
			continue
		}
		if seen[rec.Benchmark] == nil {
			seen[rec.Benchmark] = make(map[string]int)
		}
		seen[rec.Benchmark][rec.SampleID]++
	}

	var failures []model.Failure
	for _, bench := range model.Benchmarks() {
		submitted := seen[bench]

		for _, id := range sortedKeys(submitted) {
			if n := submitted[id]; n > 1 {
				failures = append(failures, model.Failure{
					Check:  CheckSampleCount,
					Reason: fmt.Sprintf("%s: duplicate sample evaluation: %q appears %d times", bench, id, n),
				})
			}
		}

		canonical, err := src.SampleIDs(ctx, bench, version)
		if err != nil {
			failures = append(failures, model.Failure{
				Check:  CheckSampleCount,
				Reason: fmt.Sprintf("%s: %v; could not verify coverage", bench, ErrCanonicalUnavailable),
			})
			continue
		}
		canonicalSet := make(map[string]struct{}, len(canonical))
		for _, id := range canonical {
			canonicalSet[id] = struct{}{}
		}

		missing := 0
		for id := range canonicalSet {
			if _, ok := submitted[id]; !ok {
				missing++
			}
		}
		if missing > 0 {
			failures = append(failures, model.Failure{
				Check: CheckSampleCount,
				Reason: fmt.Sprintf(
					"%s: incomplete benchmark coverage: only %d/%d samples evaluated; did you use a sampling limit? the full benchmark is required",
					bench, len(submitted), len(canonicalSet)),
			})
		}

		for _, id := range sortedKeys(submitted) {
			if _, ok := canonicalSet[id]; !ok {
				failures = append(failures, model.Failure{
					Check:  CheckSampleCount,
					Reason: fmt.Sprintf("%s: unknown sample id %q; stale benchmark version?", bench, id),
				})
			}
		}

		// n_samples on the model card must agree with distinct trajectory IDs.
		if cell, ok := scores[bench]; ok && cell.NSamples != len(submitted) {
			failures = append(failures, model.Failure{
				Check: CheckSampleCount,
				Reason: fmt.Sprintf(
					"%s: reported n_samples %d does not match %d distinct trajectory samples",
					bench, cell.NSamples, len(submitted)),
			})
		}
	}

	return failures
}

// sortedKeys keeps failure ordering deterministic across re-runs.
func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
