package queue

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/wardrobe/internal/domain/model"
)

func event(id string, userID int64) Event {
	return Event{EventID: id, UserID: userID, ProductID: "p-" + id, Type: model.InteractionLike, At: time.Now()}
}

func TestInMemoryQueue(t *testing.T) {
	Convey("Given a queue with capacity 2", t, func() {
		ctx := context.Background()
		q := NewInMemoryQueue(WithCapacity(2))

		So(q.Len(ctx), ShouldEqual, 0)
		So(q.Capacity(), ShouldEqual, 2)

		Convey("When an event is enqueued and dequeued", func() {
			So(q.Enqueue(ctx, event("e1", 1)), ShouldBeTrue)
			So(q.Len(ctx), ShouldEqual, 1)

			dctx, cancel := context.WithCancel(ctx)
			defer cancel()
			got := <-q.Dequeue(dctx)

			Convey("Then the same event comes out", func() {
				So(got.EventID, ShouldEqual, "e1")
				So(got.UserID, ShouldEqual, 1)
				So(got.Type, ShouldEqual, model.InteractionLike)
			})
		})

		Convey("When the queue is full", func() {
			So(q.Enqueue(ctx, event("e1", 1)), ShouldBeTrue)
			So(q.Enqueue(ctx, event("e2", 2)), ShouldBeTrue)

			Convey("Then further enqueues are refused", func() {
				So(q.Enqueue(ctx, event("e3", 3)), ShouldBeFalse)
				So(q.Len(ctx), ShouldEqual, 2)
			})
		})

		Convey("When the queue is closed", func() {
			So(q.Enqueue(ctx, event("e1", 1)), ShouldBeTrue)
			So(q.Close(), ShouldBeNil)

			Convey("Then enqueue fails and close is idempotent", func() {
				So(q.IsClosed(), ShouldBeTrue)
				So(q.Enqueue(ctx, event("e2", 2)), ShouldBeFalse)
				So(q.Close(), ShouldBeNil)
			})

			Convey("Then queued events drain before the channel closes", func() {
				ch := q.Dequeue(ctx)
				first, ok := <-ch
				So(ok, ShouldBeTrue)
				So(first.EventID, ShouldEqual, "e1")
				_, ok = <-ch
				So(ok, ShouldBeFalse)
			})
		})

		Convey("When the enqueue context is cancelled", func() {
			So(q.Enqueue(ctx, event("e1", 1)), ShouldBeTrue)
			So(q.Enqueue(ctx, event("e2", 2)), ShouldBeTrue)
			cctx, cancel := context.WithCancel(ctx)
			cancel()

			Convey("Then a full queue still refuses without blocking", func() {
				So(q.Enqueue(cctx, event("e3", 3)), ShouldBeFalse)
			})
		})
	})

	Convey("Given concurrent producers", t, func() {
		ctx := context.Background()
		q := NewInMemoryQueue(WithCapacity(1000))

		var wg sync.WaitGroup
		for g := 0; g < 10; g++ {
			wg.Add(1)
			go func(g int) {
				defer wg.Done()
				for i := 0; i < 50; i++ {
					q.Enqueue(ctx, event(strconv.Itoa(g)+"-"+strconv.Itoa(i), int64(g)))
				}
			}(g)
		}
		wg.Wait()

		Convey("Then every event is buffered", func() {
			So(q.Len(ctx), ShouldEqual, 500)
		})
	})
}
