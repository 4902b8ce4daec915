package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/smartystreets/goconvey/convey"
	"github.com/telcobench/transit/internal/adapters/http/api"
	"github.com/telcobench/transit/internal/domain/model"
	"github.com/telcobench/transit/internal/domain/review"
	"github.com/telcobench/transit/internal/domain/types"
)

// fakeDeps is a scripted Dependencies implementation. Views are served from
// a fixed map and every mutation records what the handler passed down.
type fakeDeps struct {
	views    map[string]types.CaseView
	verdicts map[string]model.Verdict

	ingested    []model.Bundle
	revised     map[string]model.Bundle
	approved    []string
	lastReasons []string
	lastReason  string

	approveErr error
}

func newFakeDeps() *fakeDeps {
	return &fakeDeps{
		views:    make(map[string]types.CaseView),
		verdicts: make(map[string]model.Verdict),
		revised:  make(map[string]model.Bundle),
	}
}

func (f *fakeDeps) Ingest(_ context.Context, b model.Bundle) (types.CaseView, error) {
	f.ingested = append(f.ingested, b)
	return types.CaseView{CaseID: "case-new", State: string(review.StateReadyForReview), Label: review.LabelReadyForReview}, nil
}

func (f *fakeDeps) Revise(_ context.Context, caseID string, b model.Bundle) (types.CaseView, error) {
	view, ok := f.views[caseID]
	if !ok {
		return types.CaseView{}, review.ErrCaseNotFound
	}
	f.revised[caseID] = b
	view.State = string(review.StateReadyForReview)
	return view, nil
}

func (f *fakeDeps) Approve(_ context.Context, caseID string) (types.CaseView, error) {
	if f.approveErr != nil {
		return types.CaseView{}, f.approveErr
	}
	view, ok := f.views[caseID]
	if !ok {
		return types.CaseView{}, review.ErrCaseNotFound
	}
	f.approved = append(f.approved, caseID)
	view.State = string(review.StateApproved)
	return view, nil
}

func (f *fakeDeps) RequestChanges(_ context.Context, caseID string, reasons []string) (types.CaseView, error) {
	view, ok := f.views[caseID]
	if !ok {
		return types.CaseView{}, review.ErrCaseNotFound
	}
	f.lastReasons = reasons
	view.State = string(review.StateNeedsWork)
	view.Reasons = reasons
	return view, nil
}

func (f *fakeDeps) Reject(_ context.Context, caseID, reason string) (types.CaseView, error) {
	view, ok := f.views[caseID]
	if !ok {
		return types.CaseView{}, review.ErrCaseNotFound
	}
	f.lastReason = reason
	view.State = string(review.StateClosed)
	return view, nil
}

func (f *fakeDeps) Case(_ context.Context, caseID string) (types.CaseView, error) {
	view, ok := f.views[caseID]
	if !ok {
		return types.CaseView{}, review.ErrCaseNotFound
	}
	return view, nil
}

func (f *fakeDeps) Cases(_ context.Context) []types.CaseView {
	views := make([]types.CaseView, 0, len(f.views))
	for _, v := range f.views {
		views = append(views, v)
	}
	return views
}

func (f *fakeDeps) Verdict(_ context.Context, caseID string) (model.Verdict, bool, error) {
	if _, ok := f.views[caseID]; !ok {
		return model.Verdict{}, false, review.ErrCaseNotFound
	}
	verdict, ok := f.verdicts[caseID]
	return verdict, ok, nil
}

type fakeStats struct{}

func (fakeStats) GetStats() map[string]interface{} {
	return map[string]interface{}{"openCases": 2, "started": true}
}

func newTestServer(deps *fakeDeps) *httptest.Server {
	mux := http.NewServeMux()
	api.NewServer(deps, fakeStats{}).Register(context.Background(), mux)
	return httptest.NewServer(mux)
}

func submissionBody() string {
	return `{
		"model": "gpt-4o (Openai)",
		"date": "2026-08-01",
		"benchmark_version": "v1",
		"scores": {"teleqna": {"score": 61.5, "stderr": 0.4, "n_samples": 10}},
		"trajectories": []
	}`
}

func do(t *testing.T, method, url, body string) (*http.Response, []byte) {
	t.Helper()
	var reader *bytes.Reader
	if body == "" {
		reader = bytes.NewReader(nil)
	} else {
		reader = bytes.NewReader([]byte(body))
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	var buf bytes.Buffer
	_, _ = buf.ReadFrom(resp.Body)
	return resp, buf.Bytes()
}

func TestSubmissionEndpoints(t *testing.T) {
	convey.Convey("Given the API server", t, func() {
		deps := newFakeDeps()
		srv := newTestServer(deps)
		defer srv.Close()

		convey.Convey("When posting a well-formed submission", func() {
			resp, body := do(t, http.MethodPost, srv.URL+"/submissions", submissionBody())

			convey.Convey("Then a case should be created from the bundle", func() {
				convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusCreated)

				var view types.CaseView
				convey.So(json.Unmarshal(body, &view), convey.ShouldBeNil)
				convey.So(view.CaseID, convey.ShouldEqual, "case-new")
				convey.So(view.State, convey.ShouldEqual, string(review.StateReadyForReview))

				convey.So(deps.ingested, convey.ShouldHaveLength, 1)
				convey.So(deps.ingested[0].ModelIdentifier, convey.ShouldEqual, "gpt-4o (Openai)")
				convey.So(deps.ingested[0].SubmittedAt, convey.ShouldEqual, "2026-08-01")
				convey.So(deps.ingested[0].Scores[model.BenchTeleQnA].Score, convey.ShouldEqual, 61.5)
			})
		})

		convey.Convey("When posting malformed JSON", func() {
			resp, body := do(t, http.MethodPost, srv.URL+"/submissions", `{broken`)

			convey.Convey("Then the request should be refused", func() {
				convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusBadRequest)
				convey.So(string(body), convey.ShouldContainSubstring, "bad_request")
				convey.So(deps.ingested, convey.ShouldBeEmpty)
			})
		})

		convey.Convey("When posting a submission without a model identifier", func() {
			resp, _ := do(t, http.MethodPost, srv.URL+"/submissions", `{"date": "2026-08-01"}`)

			convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusBadRequest)
		})

		convey.Convey("When posting a submission with a non-ISO date", func() {
			resp, body := do(t, http.MethodPost, srv.URL+"/submissions", `{"model": "m (P)", "date": "01/08/2026"}`)

			convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusBadRequest)
			convey.So(string(body), convey.ShouldContainSubstring, "ISO 8601")
		})

		convey.Convey("When using the wrong method on /submissions", func() {
			resp, _ := do(t, http.MethodGet, srv.URL+"/submissions", "")

			convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestCaseEndpoints(t *testing.T) {
	convey.Convey("Given the API server with one case in review", t, func() {
		deps := newFakeDeps()
		deps.views["case-1"] = types.CaseView{
			CaseID: "case-1",
			State:  string(review.StateReadyForReview),
			Label:  review.LabelReadyForReview,
		}
		deps.verdicts["case-1"] = model.Verdict{Pass: true, Checks: []model.CheckOutcome{{Name: "schema", Passed: true}}}
		srv := newTestServer(deps)
		defer srv.Close()

		convey.Convey("When listing cases", func() {
			resp, body := do(t, http.MethodGet, srv.URL+"/cases", "")

			convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusOK)
			var views []types.CaseView
			convey.So(json.Unmarshal(body, &views), convey.ShouldBeNil)
			convey.So(views, convey.ShouldHaveLength, 1)
			convey.So(views[0].CaseID, convey.ShouldEqual, "case-1")
		})

		convey.Convey("When fetching the case detail", func() {
			resp, body := do(t, http.MethodGet, srv.URL+"/cases/case-1", "")

			convey.Convey("Then the view should embed the validation verdict", func() {
				convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusOK)

				var detail struct {
					types.CaseView
					Verdict *model.Verdict `json:"verdict"`
				}
				convey.So(json.Unmarshal(body, &detail), convey.ShouldBeNil)
				convey.So(detail.CaseID, convey.ShouldEqual, "case-1")
				convey.So(detail.Verdict, convey.ShouldNotBeNil)
				convey.So(detail.Verdict.Pass, convey.ShouldBeTrue)
			})
		})

		convey.Convey("When fetching a case that does not exist", func() {
			resp, body := do(t, http.MethodGet, srv.URL+"/cases/nope", "")

			convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusNotFound)
			convey.So(string(body), convey.ShouldContainSubstring, "not_found")
		})

		convey.Convey("When approving the case", func() {
			resp, body := do(t, http.MethodPost, srv.URL+"/cases/case-1/approve", "")

			convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusOK)
			var view types.CaseView
			convey.So(json.Unmarshal(body, &view), convey.ShouldBeNil)
			convey.So(view.State, convey.ShouldEqual, string(review.StateApproved))
			convey.So(deps.approved, convey.ShouldResemble, []string{"case-1"})
		})

		convey.Convey("When approving hits an illegal transition", func() {
			deps.approveErr = fmt.Errorf("case case-1: %w", review.ErrInvalidTransition)
			resp, body := do(t, http.MethodPost, srv.URL+"/cases/case-1/approve", "")

			convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusConflict)
			convey.So(string(body), convey.ShouldContainSubstring, "invalid_transition")
		})

		convey.Convey("When requesting changes with a reasons list", func() {
			resp, _ := do(t, http.MethodPost, srv.URL+"/cases/case-1/request-changes",
				`{"reasons": ["missing stderr", "link the run"]}`)

			convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusOK)
			convey.So(deps.lastReasons, convey.ShouldResemble, []string{"missing stderr", "link the run"})
		})

		convey.Convey("When requesting changes with a single reason field", func() {
			resp, _ := do(t, http.MethodPost, srv.URL+"/cases/case-1/request-changes",
				`{"reason": "missing stderr"}`)

			convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusOK)
			convey.So(deps.lastReasons, convey.ShouldResemble, []string{"missing stderr"})
		})

		convey.Convey("When requesting changes with no reason at all", func() {
			resp, _ := do(t, http.MethodPost, srv.URL+"/cases/case-1/request-changes", `{}`)

			convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusBadRequest)
		})

		convey.Convey("When rejecting with a reason", func() {
			resp, body := do(t, http.MethodPost, srv.URL+"/cases/case-1/reject",
				`{"reason": "fabricated results"}`)

			convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusOK)
			var view types.CaseView
			convey.So(json.Unmarshal(body, &view), convey.ShouldBeNil)
			convey.So(view.State, convey.ShouldEqual, string(review.StateClosed))
			convey.So(deps.lastReason, convey.ShouldEqual, "fabricated results")
		})

		convey.Convey("When rejecting without a reason", func() {
			resp, _ := do(t, http.MethodPost, srv.URL+"/cases/case-1/reject", `{}`)

			convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusBadRequest)
		})

		convey.Convey("When revising the case with a new bundle", func() {
			resp, _ := do(t, http.MethodPost, srv.URL+"/cases/case-1/revise", submissionBody())

			convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusOK)
			convey.So(deps.revised["case-1"].ModelIdentifier, convey.ShouldEqual, "gpt-4o (Openai)")
		})

		convey.Convey("When hitting an unknown case action", func() {
			resp, _ := do(t, http.MethodPost, srv.URL+"/cases/case-1/escalate", "")

			convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusNotFound)
		})

		convey.Convey("When the case id segment is empty", func() {
			resp, _ := do(t, http.MethodGet, srv.URL+"/cases/", "")

			convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestOperationalEndpoints(t *testing.T) {
	convey.Convey("Given the API server", t, func() {
		srv := newTestServer(newFakeDeps())
		defer srv.Close()

		convey.Convey("When checking health", func() {
			resp, body := do(t, http.MethodGet, srv.URL+"/healthz", "")

			convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusOK)
			convey.So(string(body), convey.ShouldContainSubstring, `"status":"ok"`)
		})

		convey.Convey("When fetching stats", func() {
			resp, body := do(t, http.MethodGet, srv.URL+"/stats", "")

			convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusOK)
			var stats map[string]interface{}
			convey.So(json.Unmarshal(body, &stats), convey.ShouldBeNil)
			convey.So(stats["openCases"], convey.ShouldEqual, 2.0)
		})

		convey.Convey("When scraping metrics", func() {
			resp, body := do(t, http.MethodGet, srv.URL+"/metrics", "")

			convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusOK)
			convey.So(strings.TrimSpace(string(body)), convey.ShouldNotBeEmpty)
		})
	})
}
