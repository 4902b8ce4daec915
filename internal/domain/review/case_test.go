package review_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/smartystreets/goconvey/convey"
	"github.com/telcobench/transit/internal/domain/model"
	"github.com/telcobench/transit/internal/domain/review"
)

func testBundle(id string) model.Bundle {
	return model.Bundle{
		ModelIdentifier: id,
		SubmittedAt:     "2026-08-01",
	}
}

func TestRegistry(t *testing.T) {
	convey.Convey("Given a case registry", t, func() {
		ctx := context.Background()
		reg := review.NewRegistry()

		convey.Convey("When creating a case", func() {
			id := reg.Create(ctx, testBundle("gpt-4o (Openai)"))

			convey.Convey("Then it should start in created with its bundle", func() {
				snap, err := reg.Snapshot(ctx, id)
				convey.So(err, convey.ShouldBeNil)
				convey.So(snap.State, convey.ShouldEqual, review.StateCreated)
				convey.So(snap.History, convey.ShouldBeEmpty)
				convey.So(snap.HasVerdict, convey.ShouldBeFalse)

				b, err := reg.Bundle(ctx, id)
				convey.So(err, convey.ShouldBeNil)
				convey.So(b.ModelIdentifier, convey.ShouldEqual, "gpt-4o (Openai)")

				convey.So(reg.Count(ctx), convey.ShouldEqual, 1)
			})
		})

		convey.Convey("When walking the happy path to synced", func() {
			id := reg.Create(ctx, testBundle("gpt-4o (Openai)"))

			convey.So(reg.Transition(ctx, id, review.StateValidating, review.ActorSystem, nil), convey.ShouldBeNil)
			convey.So(reg.Transition(ctx, id, review.StateReadyForReview, review.ActorSystem, nil), convey.ShouldBeNil)
			convey.So(reg.Transition(ctx, id, review.StateApproved, review.ActorReviewer, nil), convey.ShouldBeNil)
			convey.So(reg.Transition(ctx, id, review.StateSynced, review.ActorSystem, nil), convey.ShouldBeNil)

			convey.Convey("Then the history should record every hop in order", func() {
				snap, err := reg.Snapshot(ctx, id)
				convey.So(err, convey.ShouldBeNil)
				convey.So(snap.State, convey.ShouldEqual, review.StateSynced)
				convey.So(snap.History, convey.ShouldHaveLength, 4)
				convey.So(snap.History[0].From, convey.ShouldEqual, review.StateCreated)
				convey.So(snap.History[2].Actor, convey.ShouldEqual, review.ActorReviewer)
				convey.So(snap.History[3].To, convey.ShouldEqual, review.StateSynced)
			})
		})

		convey.Convey("When approving a case that was never validated", func() {
			id := reg.Create(ctx, testBundle("gpt-4o (Openai)"))
			err := reg.Transition(ctx, id, review.StateApproved, review.ActorReviewer, nil)

			convey.Convey("Then it should fail and leave the state untouched", func() {
				convey.So(errors.Is(err, review.ErrInvalidTransition), convey.ShouldBeTrue)

				snap, serr := reg.Snapshot(ctx, id)
				convey.So(serr, convey.ShouldBeNil)
				convey.So(snap.State, convey.ShouldEqual, review.StateCreated)
				convey.So(snap.History, convey.ShouldBeEmpty)
			})
		})

		convey.Convey("When the wrong actor drives a legal edge", func() {
			id := reg.Create(ctx, testBundle("gpt-4o (Openai)"))
			convey.So(reg.Transition(ctx, id, review.StateValidating, review.ActorSystem, nil), convey.ShouldBeNil)
			convey.So(reg.Transition(ctx, id, review.StateReadyForReview, review.ActorSystem, nil), convey.ShouldBeNil)

			err := reg.Transition(ctx, id, review.StateApproved, review.ActorSystem, nil)

			convey.Convey("Then it should fail with a wrong-actor error", func() {
				convey.So(errors.Is(err, review.ErrWrongActor), convey.ShouldBeTrue)

				snap, serr := reg.Snapshot(ctx, id)
				convey.So(serr, convey.ShouldBeNil)
				convey.So(snap.State, convey.ShouldEqual, review.StateReadyForReview)
			})
		})

		convey.Convey("When cycling through needs_work repeatedly", func() {
			id := reg.Create(ctx, testBundle("gpt-4o (Openai)"))
			convey.So(reg.Transition(ctx, id, review.StateValidating, review.ActorSystem, nil), convey.ShouldBeNil)
			convey.So(reg.Transition(ctx, id, review.StateNeedsWork, review.ActorSystem, []string{"incomplete coverage"}), convey.ShouldBeNil)

			for i := 0; i < 10; i++ {
				convey.So(reg.Transition(ctx, id, review.StateValidating, review.ActorSystem, nil), convey.ShouldBeNil)
				convey.So(reg.Transition(ctx, id, review.StateNeedsWork, review.ActorSystem, nil), convey.ShouldBeNil)
			}

			convey.Convey("Then the cycle should stay legal indefinitely", func() {
				snap, err := reg.Snapshot(ctx, id)
				convey.So(err, convey.ShouldBeNil)
				convey.So(snap.State, convey.ShouldEqual, review.StateNeedsWork)
				convey.So(snap.History, convey.ShouldHaveLength, 22)
				convey.So(snap.History[1].Reasons, convey.ShouldResemble, []string{"incomplete coverage"})
			})
		})

		convey.Convey("When attaching a verdict and a revised bundle", func() {
			id := reg.Create(ctx, testBundle("gpt-4o (Openai)"))

			convey.So(reg.SetVerdict(ctx, id, model.Verdict{Pass: true}), convey.ShouldBeNil)
			convey.So(reg.SetBundle(ctx, id, testBundle("gpt-4o-v2 (Openai)")), convey.ShouldBeNil)

			convey.Convey("Then both should be visible in the snapshot", func() {
				snap, err := reg.Snapshot(ctx, id)
				convey.So(err, convey.ShouldBeNil)
				convey.So(snap.HasVerdict, convey.ShouldBeTrue)
				convey.So(snap.Verdict.Pass, convey.ShouldBeTrue)

				b, err := reg.Bundle(ctx, id)
				convey.So(err, convey.ShouldBeNil)
				convey.So(b.ModelIdentifier, convey.ShouldEqual, "gpt-4o-v2 (Openai)")
			})
		})

		convey.Convey("When removing cases", func() {
			id := reg.Create(ctx, testBundle("gpt-4o (Openai)"))

			convey.Convey("Then removing a non-terminal case should fail", func() {
				err := reg.Remove(ctx, id)
				convey.So(errors.Is(err, review.ErrInvalidTransition), convey.ShouldBeTrue)
				convey.So(reg.Count(ctx), convey.ShouldEqual, 1)
			})

			convey.Convey("Then removing a terminal case should destroy it", func() {
				convey.So(reg.Transition(ctx, id, review.StateValidating, review.ActorSystem, nil), convey.ShouldBeNil)
				convey.So(reg.Transition(ctx, id, review.StateReadyForReview, review.ActorSystem, nil), convey.ShouldBeNil)
				convey.So(reg.Transition(ctx, id, review.StateRejected, review.ActorReviewer, []string{"not reproducible"}), convey.ShouldBeNil)
				convey.So(reg.Transition(ctx, id, review.StateClosed, review.ActorSystem, nil), convey.ShouldBeNil)

				convey.So(reg.Remove(ctx, id), convey.ShouldBeNil)
				convey.So(reg.Count(ctx), convey.ShouldEqual, 0)

				_, err := reg.Snapshot(ctx, id)
				convey.So(errors.Is(err, review.ErrCaseNotFound), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When operating on an unknown case", func() {
			err := reg.Transition(ctx, "no-such-case", review.StateValidating, review.ActorSystem, nil)

			convey.Convey("Then it should fail with case-not-found", func() {
				convey.So(errors.Is(err, review.ErrCaseNotFound), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When many goroutines race the same edge", func() {
			id := reg.Create(ctx, testBundle("gpt-4o (Openai)"))

			var wg sync.WaitGroup
			successes := make(chan struct{}, 32)
			for i := 0; i < 32; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					if reg.Transition(ctx, id, review.StateValidating, review.ActorSystem, nil) == nil {
						successes <- struct{}{}
					}
				}()
			}
			wg.Wait()
			close(successes)

			convey.Convey("Then exactly one transition should win", func() {
				count := 0
				for range successes {
					count++
				}
				convey.So(count, convey.ShouldEqual, 1)

				snap, err := reg.Snapshot(ctx, id)
				convey.So(err, convey.ShouldBeNil)
				convey.So(snap.State, convey.ShouldEqual, review.StateValidating)
				convey.So(snap.History, convey.ShouldHaveLength, 1)
			})
		})
	})
}
