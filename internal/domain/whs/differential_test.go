package whs_test

import (
	"testing"

	whs "github.com/fairwaylab/greenside/internal/domain/whs"
	. "github.com/smartystreets/goconvey/convey"
)

func TestDifferential(t *testing.T) {
	Convey("Given the differential formula", t, func() {
		Convey("When computed on a neutral-slope course", func() {
			d, err := whs.Differential(85, 72.0, 113, 0)

			Convey("Then it equals score minus rating", func() {
				So(err, ShouldBeNil)
				So(d, ShouldEqual, 13.0)
			})
		})

		Convey("When computed on a steep course", func() {
			// (90 - 71.5) * 113 / 140 = 14.9317... -> 14.9
			d, err := whs.Differential(90, 71.5, 140, 0)

			Convey("Then the slope scaling applies", func() {
				So(err, ShouldBeNil)
				So(d, ShouldEqual, 14.9)
			})
		})

		Convey("When a playing conditions adjustment is supplied", func() {
			// (90 - 71.5 - 1.0) * 113 / 140 = 14.125 -> 14.1
			d, err := whs.Differential(90, 71.5, 140, 1.0)

			Convey("Then it shifts the differential", func() {
				So(err, ShouldBeNil)
				So(d, ShouldEqual, 14.1)
			})
		})

		Convey("When the same inputs are computed repeatedly", func() {
			first, err1 := whs.Differential(88, 70.2, 125, 0)

			Convey("Then the result is deterministic", func() {
				So(err1, ShouldBeNil)
				for i := 0; i < 10; i++ {
					d, err := whs.Differential(88, 70.2, 125, 0)
					So(err, ShouldBeNil)
					So(d, ShouldEqual, first)
				}
			})
		})

		Convey("When a half-value needs rounding", func() {
			// (77 - 72.0) * 113 / 113 = 5.0, and
			// (72 - 71.95) * 113 / 113 = 0.05 -> rounds away from zero to 0.1
			d, err := whs.Differential(72, 71.95, 113, 0)

			Convey("Then rounding is half away from zero to one decimal", func() {
				So(err, ShouldBeNil)
				So(d, ShouldEqual, 0.1)
			})
		})

		Convey("When the score is below the rating", func() {
			d, err := whs.Differential(68, 72.0, 113, 0)

			Convey("Then the differential is negative", func() {
				So(err, ShouldBeNil)
				So(d, ShouldEqual, -4.0)
			})
		})

		Convey("When the slope rating is zero", func() {
			_, err := whs.Differential(85, 72.0, 0, 0)

			Convey("Then it fails fast instead of producing a number", func() {
				So(err, ShouldEqual, whs.ErrInvalidSlope)
			})
		})

		Convey("When the slope rating is negative", func() {
			_, err := whs.Differential(85, 72.0, -10, 0)

			Convey("Then it fails fast", func() {
				So(err, ShouldEqual, whs.ErrInvalidSlope)
			})
		})
	})
}
