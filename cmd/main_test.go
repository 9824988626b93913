package main

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/fairwaylab/greenside/internal/adapters/http/api"
	app "github.com/fairwaylab/greenside/internal/app"
	"github.com/fairwaylab/greenside/internal/config"
	"github.com/fairwaylab/greenside/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/smartystreets/goconvey/convey"
)

func TestMainFunction(t *testing.T) {
	convey.Convey("Given the main application", t, func() {
		convey.Convey("When testing configuration loading", func() {
			_ = os.Setenv("GREENSIDE_ADDR", ":8710")
			_ = os.Setenv("GREENSIDE_QUEUE_SIZE", "512")
			_ = os.Setenv("GREENSIDE_WORKER_COUNT", "4")
			defer func() {
				_ = os.Unsetenv("GREENSIDE_ADDR")
				_ = os.Unsetenv("GREENSIDE_QUEUE_SIZE")
				_ = os.Unsetenv("GREENSIDE_WORKER_COUNT")
			}()

			convey.Convey("Then configuration should be loadable", func() {
				ctx := context.Background()
				cfg, err := config.Load(ctx)
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8710")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 512)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 4)
			})
		})

		convey.Convey("When testing service creation", func() {
			convey.Convey("Then service should be creatable with default options", func() {
				svc := app.New()
				convey.So(svc, convey.ShouldNotBeNil)
			})

			convey.Convey("And service should be creatable with custom options", func() {
				svc := app.New(
					app.WithWorkerCount(8),
					app.WithQueueSize(2000),
					app.WithCoalescerSize(1000),
				)
				convey.So(svc, convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When testing HTTP server creation", func() {
			svc := app.New()
			convey.So(svc, convey.ShouldNotBeNil)

			convey.Convey("Then the router should be buildable", func() {
				server := api.NewServer(svc)
				convey.So(server, convey.ShouldNotBeNil)
				convey.So(server.Router(), convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When testing metrics initialization", func() {
			convey.Convey("Then metrics manager should be creatable", func() {
				registry := prometheus.NewRegistry()
				manager := metrics.NewManager(metrics.WithPrometheusRegistry(registry))
				convey.So(manager, convey.ShouldNotBeNil)
			})
		})
	})
}

func TestServiceMetricsUpdater(t *testing.T) {
	convey.Convey("Given the service metrics updater", t, func() {
		svc := app.New()
		convey.So(svc, convey.ShouldNotBeNil)

		convey.Convey("When run with a short-lived context", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			defer cancel()

			convey.Convey("Then it stops cleanly", func() {
				convey.So(func() {
					startServiceMetricsUpdater(ctx, svc)
				}, convey.ShouldNotPanic)
			})
		})
	})
}

func TestConfigurationErrorHandling(t *testing.T) {
	convey.Convey("Given configuration error handling", t, func() {
		convey.Convey("When the address is explicitly blanked", func() {
			_ = os.Setenv("GREENSIDE_ADDR", "")
			defer func() { _ = os.Unsetenv("GREENSIDE_ADDR") }()

			convey.Convey("Then configuration loading should fail", func() {
				cfg, err := config.Load(context.Background())
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When service options carry out-of-range values", func() {
			convey.Convey("Then creation still succeeds on defaults", func() {
				svc := app.New(
					app.WithWorkerCount(0),
					app.WithQueueSize(0),
					app.WithCoalescerSize(0),
				)
				convey.So(svc, convey.ShouldNotBeNil)
			})
		})
	})
}
