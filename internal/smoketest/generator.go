package smoketest

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/telcobench/transit/internal/domain/model"
	"github.com/telcobench/transit/pkg/logger"
)

const randomFloatDivisor = 1000000

// providers cycled through when naming synthetic models. All of them are
// recognized by the schema validator, so generated bundles fail only when
// deliberately broken.
var providers = []string{"Openai", "Anthropic", "Google", "Mistral", "Deepseek"}

// randomFloat returns a random float64 between 0.0 and 1.0 using crypto/rand.
func randomFloat() float64 {
	n, _ := rand.Int(rand.Reader, big.NewInt(randomFloatDivisor))
	return float64(n.Int64()) / float64(randomFloatDivisor)
}

// generateSubmissions creates synthetic submission bundles with full
// trajectory coverage for every benchmark.
func generateSubmissions(ctx context.Context, config *Config, stats *Stats) []submissionPayload {
	logger.Get().Info(ctx, "generating submission bundles",
		logger.Int("numSubmissions", config.NumSubmissions),
		logger.Int("samplesPerBenchmark", config.SamplesPerBenchmark))

	date := time.Now().UTC().Format(model.DateLayout)
	benches := model.Benchmarks()

	subs := make([]submissionPayload, config.NumSubmissions)
	for i := range subs {
		provider := providers[i%len(providers)]
		scores := make(map[string]scoreCell, len(benches))
		var trajectories []trajectoryRecord
		for _, bench := range benches {
			scores[bench] = scoreCell{
				Score:    randomFloat(),
				Stderr:   randomFloat() / 100,
				NSamples: config.SamplesPerBenchmark,
			}
			for s := 0; s < config.SamplesPerBenchmark; s++ {
				trajectories = append(trajectories, trajectoryRecord{
					Benchmark: bench,
					SampleID:  fmt.Sprintf("q_%d", s),
					Status:    model.StatusSuccess,
				})
			}
		}
		subs[i] = submissionPayload{
			Model:            fmt.Sprintf("smoke-model-%04d (%s)", i, provider),
			Date:             date,
			BenchmarkVersion: "v1",
			Scores:           scores,
			Trajectories:     trajectories,
		}
	}

	stats.SubmissionsGenerated = len(subs)
	return subs
}
