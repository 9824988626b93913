package queue_test

import (
	"context"
	"testing"
	"time"

	queue "github.com/fairwaylab/greenside/internal/adapters/mq/queue"
	model "github.com/fairwaylab/greenside/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestInMemoryQueue(t *testing.T) {
	ctx := context.Background()

	Convey("Given an in-memory recalculation queue", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(2))
		Reset(func() { _ = q.Close() })

		Convey("When a job is enqueued", func() {
			job := model.RecalcJob{PlayerID: "p1", RequestedAt: time.Now()}
			ok := q.Enqueue(ctx, job)

			Convey("Then it is accepted and becomes readable", func() {
				So(ok, ShouldBeTrue)
				So(q.Len(ctx), ShouldEqual, 1)

				got := <-q.Dequeue(ctx)
				So(got.PlayerID, ShouldEqual, "p1")
			})
		})

		Convey("When the queue is full", func() {
			So(q.Enqueue(ctx, model.RecalcJob{PlayerID: "a"}), ShouldBeTrue)
			So(q.Enqueue(ctx, model.RecalcJob{PlayerID: "b"}), ShouldBeTrue)

			Convey("Then further enqueues are dropped, not blocked", func() {
				So(q.Enqueue(ctx, model.RecalcJob{PlayerID: "c"}), ShouldBeFalse)
				So(q.Len(ctx), ShouldEqual, 2)
			})
		})

		Convey("When the queue is closed", func() {
			So(q.Enqueue(ctx, model.RecalcJob{PlayerID: "a"}), ShouldBeTrue)
			So(q.Close(), ShouldBeNil)

			Convey("Then enqueues are rejected", func() {
				So(q.IsClosed(), ShouldBeTrue)
				So(q.Enqueue(ctx, model.RecalcJob{PlayerID: "late"}), ShouldBeFalse)
			})

			Convey("And queued jobs drain before the channel closes", func() {
				got, open := <-q.Dequeue(ctx)
				So(open, ShouldBeTrue)
				So(got.PlayerID, ShouldEqual, "a")

				_, open = <-q.Dequeue(ctx)
				So(open, ShouldBeFalse)
			})

			Convey("And closing again is harmless", func() {
				So(q.Close(), ShouldBeNil)
			})
		})
	})
}
