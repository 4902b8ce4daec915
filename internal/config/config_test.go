package config_test

import (
	"runtime"
	"testing"

	"github.com/smartystreets/goconvey/convey"
	"github.com/telcobench/transit/internal/config"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.LogLevel, convey.ShouldEqual, "info")
			convey.So(cfg.SyncQueueSize, convey.ShouldEqual, 1024)
			convey.So(cfg.WorkerCount, convey.ShouldEqual, runtime.NumCPU())
			convey.So(cfg.BenchmarkVersion, convey.ShouldEqual, "v1")
			convey.So(cfg.LedgerPath, convey.ShouldEqual, "")
			convey.So(cfg.RequestTimeoutMS, convey.ShouldEqual, 15_000)
			convey.So(cfg.SyncMaxAttempts, convey.ShouldEqual, 3)
			convey.So(cfg.SyncBackoffMS, convey.ShouldEqual, 1_000)
		})
	})
}
