package utils

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestMapToStruct(t *testing.T) {
	type Nested struct {
		Label string
	}

	type Target struct {
		Name    string
		Count   int32
		Enabled bool
		Ratio   float64
		Nested  Nested
	}

	Convey("MapToStruct", t, func() {
		Convey("applies matching keys onto a zero-value destination", func() {
			dest := &Target{}
			MapToStruct(map[string]interface{}{
				"Name":    "widget",
				"Count":   float64(3), // encoding/json shape
				"Enabled": true,
				"Ratio":   "1.5",
			}, dest)

			So(dest.Name, ShouldEqual, "widget")
			So(dest.Count, ShouldEqual, int32(3))
			So(dest.Enabled, ShouldBeTrue)
			So(dest.Ratio, ShouldEqual, 1.5)
		})

		Convey("leaves a defaulted field untouched when its key is absent", func() {
			dest := &Target{Name: "keep-me"}
			MapToStruct(map[string]interface{}{"Count": float64(9)}, dest)

			So(dest.Name, ShouldEqual, "keep-me")
			So(dest.Count, ShouldEqual, int32(9))
		})

		Convey("recurses into a nested struct field", func() {
			dest := &Target{}
			MapToStruct(map[string]interface{}{
				"Nested": map[string]interface{}{"Label": "inner"},
			}, dest)

			So(dest.Nested.Label, ShouldEqual, "inner")
		})

		Convey("resolves keys through a lookup tag when given", func() {
			type Tagged struct {
				Value string `json:"value"`
			}
			dest := &Tagged{}
			MapToStruct(map[string]interface{}{"value": "tagged"}, dest, "json")
			So(dest.Value, ShouldEqual, "tagged")
		})
	})
}
