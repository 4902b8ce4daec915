package permstore_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"
	"github.com/telcobench/transit/internal/adapters/permstore"
	"github.com/telcobench/transit/internal/domain/model"
)

// recordServer is a minimal append_or_get store.
type recordServer struct {
	mu      sync.Mutex
	records map[string]permstore.Record
}

func newRecordServer() *recordServer {
	return &recordServer{records: make(map[string]permstore.Record)}
}

func (s *recordServer) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hash := r.URL.Path[len("/records/"):]
		s.mu.Lock()
		defer s.mu.Unlock()

		switch r.Method {
		case http.MethodPut:
			if _, ok := s.records[hash]; ok {
				w.WriteHeader(http.StatusOK)
				_ = json.NewEncoder(w).Encode(map[string]string{"outcome": "already_present"})
				return
			}
			var rec permstore.Record
			if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			s.records[hash] = rec
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(map[string]string{"outcome": "written"})
		case http.MethodGet:
			if _, ok := s.records[hash]; ok {
				w.WriteHeader(http.StatusOK)
				return
			}
			w.WriteHeader(http.StatusNotFound)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})
}

func testSubmission() model.Submission {
	return model.Submission{
		ModelIdentifier: "gpt-4o (Openai)",
		SubmittedAt:     time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		Scores: map[string]model.ScoreCell{
			model.BenchTeleQnA: {Score: 81.5, Stderr: 0.4, NSamples: 100},
		},
	}
}

func TestRecordFor(t *testing.T) {
	convey.Convey("Given a validated submission", t, func() {
		rec := permstore.RecordFor(testSubmission())

		convey.Convey("Then the record should carry model, date, and scores", func() {
			convey.So(rec.Model, convey.ShouldEqual, "gpt-4o (Openai)")
			convey.So(rec.Date, convey.ShouldEqual, "2026-08-01")
			convey.So(rec.Scores[model.BenchTeleQnA].Score, convey.ShouldEqual, 81.5)
		})
	})
}

func TestClient(t *testing.T) {
	convey.Convey("Given a permanent store client", t, func() {
		ctx := context.Background()
		store := newRecordServer()
		srv := httptest.NewServer(store.handler())
		defer srv.Close()

		client := permstore.NewClient(srv.URL)
		rec := permstore.RecordFor(testSubmission())

		convey.Convey("When appending a new record", func() {
			outcome, err := client.AppendOrGet(ctx, "hash-1", rec)

			convey.Convey("Then the outcome should be written", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(outcome, convey.ShouldEqual, permstore.OutcomeWritten)
			})

			convey.Convey("Then appending the same hash again should be a no-op", func() {
				again, err := client.AppendOrGet(ctx, "hash-1", rec)
				convey.So(err, convey.ShouldBeNil)
				convey.So(again, convey.ShouldEqual, permstore.OutcomeAlreadyPresent)
			})

			convey.Convey("Then a verification read should find it", func() {
				present, err := client.Contains(ctx, "hash-1")
				convey.So(err, convey.ShouldBeNil)
				convey.So(present, convey.ShouldBeTrue)
			})
		})

		convey.Convey("When looking up an unknown hash", func() {
			present, err := client.Contains(ctx, "no-such-hash")

			convey.Convey("Then it should report absence without error", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(present, convey.ShouldBeFalse)
			})
		})

		convey.Convey("When the store answers with an unexpected status", func() {
			broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusServiceUnavailable)
			}))
			defer broken.Close()
			brokenClient := permstore.NewClient(broken.URL)

			convey.Convey("Then both operations should fail with a bad-status error", func() {
				_, err := brokenClient.AppendOrGet(ctx, "hash-2", rec)
				convey.So(errors.Is(err, permstore.ErrBadStatus), convey.ShouldBeTrue)

				_, err = brokenClient.Contains(ctx, "hash-2")
				convey.So(errors.Is(err, permstore.ErrBadStatus), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the store is unreachable", func() {
			downClient := permstore.NewClient("http://127.0.0.1:1",
				permstore.WithRequestTimeout(time.Second))

			convey.Convey("Then the error should not be mistaken for absence", func() {
				_, err := downClient.Contains(ctx, "hash-3")
				convey.So(err, convey.ShouldNotBeNil)
			})
		})
	})
}
