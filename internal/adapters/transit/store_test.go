package transit_test

import (
	"context"
	"errors"
	"testing"

	"github.com/smartystreets/goconvey/convey"
	"github.com/telcobench/transit/internal/adapters/transit"
	"github.com/telcobench/transit/internal/domain/model"
)

func TestMemoryStore(t *testing.T) {
	convey.Convey("Given a transit artifact store", t, func() {
		ctx := context.Background()
		store := transit.NewMemoryStore()

		bundle := model.Bundle{ModelIdentifier: "gpt-4o (Openai)", SubmittedAt: "2026-08-01"}

		convey.Convey("When storing and fetching a bundle", func() {
			convey.So(store.Put(ctx, "case-1", bundle), convey.ShouldBeNil)

			got, err := store.Get(ctx, "case-1")

			convey.Convey("Then the bundle should round-trip", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(got.ModelIdentifier, convey.ShouldEqual, "gpt-4o (Openai)")
				convey.So(store.Count(ctx), convey.ShouldEqual, 1)
			})
		})

		convey.Convey("When replacing a bundle with a revision", func() {
			convey.So(store.Put(ctx, "case-1", bundle), convey.ShouldBeNil)

			revised := bundle
			revised.ModelIdentifier = "gpt-4o-v2 (Openai)"
			convey.So(store.Put(ctx, "case-1", revised), convey.ShouldBeNil)

			convey.Convey("Then only the revision should remain", func() {
				got, err := store.Get(ctx, "case-1")
				convey.So(err, convey.ShouldBeNil)
				convey.So(got.ModelIdentifier, convey.ShouldEqual, "gpt-4o-v2 (Openai)")
				convey.So(store.Count(ctx), convey.ShouldEqual, 1)
			})
		})

		convey.Convey("When fetching an unknown case", func() {
			_, err := store.Get(ctx, "missing")

			convey.Convey("Then it should fail with not-found", func() {
				convey.So(errors.Is(err, transit.ErrNotFound), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When discarding artifacts", func() {
			convey.So(store.Put(ctx, "case-1", bundle), convey.ShouldBeNil)
			convey.So(store.Discard(ctx, "case-1"), convey.ShouldBeNil)

			convey.Convey("Then the artifact should be gone", func() {
				_, err := store.Get(ctx, "case-1")
				convey.So(errors.Is(err, transit.ErrNotFound), convey.ShouldBeTrue)
				convey.So(store.Count(ctx), convey.ShouldEqual, 0)
			})

			convey.Convey("Then a repeated discard should stay a no-op", func() {
				convey.So(store.Discard(ctx, "case-1"), convey.ShouldBeNil)
				convey.So(store.Discard(ctx, "never-existed"), convey.ShouldBeNil)
			})
		})
	})
}
