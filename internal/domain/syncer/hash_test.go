package syncer_test

import (
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"
	"github.com/telcobench/transit/internal/domain/model"
	"github.com/telcobench/transit/internal/domain/syncer"
)

func submission() model.Submission {
	return model.Submission{
		ModelIdentifier: "gpt-4o (Openai)",
		SubmittedAt:     time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		Scores: map[string]model.ScoreCell{
			model.BenchTeleQnA:  {Score: 81.5, Stderr: 0.4, NSamples: 100},
			model.BenchTeleLogs: {Score: 74.2, Stderr: 0.6, NSamples: 100},
			model.BenchTeleMath: {Score: 55.0, Stderr: 1.1, NSamples: 100},
			model.Bench3GPPTSG:  {Score: 62.3, Stderr: 0.9, NSamples: 100},
		},
	}
}

func TestContentHash(t *testing.T) {
	convey.Convey("Given the content hash", t, func() {
		convey.Convey("When hashing the same submission twice", func() {
			convey.Convey("Then the hashes should match regardless of map order", func() {
				first := syncer.ContentHash(submission())
				for i := 0; i < 20; i++ {
					convey.So(syncer.ContentHash(submission()), convey.ShouldEqual, first)
				}
			})
		})

		convey.Convey("When any content field changes", func() {
			base := syncer.ContentHash(submission())

			modified := submission()
			modified.ModelIdentifier = "gpt-4o-mini (Openai)"
			convey.So(syncer.ContentHash(modified), convey.ShouldNotEqual, base)

			modified = submission()
			modified.SubmittedAt = modified.SubmittedAt.AddDate(0, 0, 1)
			convey.So(syncer.ContentHash(modified), convey.ShouldNotEqual, base)

			modified = submission()
			cell := modified.Scores[model.BenchTeleQnA]
			cell.Score += 0.1
			modified.Scores[model.BenchTeleQnA] = cell
			convey.So(syncer.ContentHash(modified), convey.ShouldNotEqual, base)

			modified = submission()
			cell = modified.Scores[model.BenchTeleQnA]
			cell.NSamples++
			modified.Scores[model.BenchTeleQnA] = cell
			convey.So(syncer.ContentHash(modified), convey.ShouldNotEqual, base)
		})

		convey.Convey("When hashing a submission with no scores", func() {
			empty := model.Submission{
				ModelIdentifier: "gpt-4o (Openai)",
				SubmittedAt:     time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
			}

			convey.Convey("Then it should still produce a stable hash", func() {
				convey.So(syncer.ContentHash(empty), convey.ShouldEqual, syncer.ContentHash(empty))
				convey.So(syncer.ContentHash(empty), convey.ShouldNotEqual, syncer.ContentHash(submission()))
			})
		})
	})
}
