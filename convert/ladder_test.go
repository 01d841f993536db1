package convert

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/shopspring/decimal"

	"github.com/urbint/csvstream"
	"github.com/urbint/csvstream/schema"
)

func TestLadder(t *testing.T) {
	Convey("Ladder", t, func() {
		format := ingest.DefaultNumericFormat

		Convey("primitive inference picks the first surviving rung", func() {
			val, typ, err := Ladder("42", schema.TypeString, format)
			So(err, ShouldBeNil)
			So(typ, ShouldEqual, schema.TypeInt32)
			So(val, ShouldEqual, int32(42))
		})

		Convey("falls back to string when nothing matches", func() {
			val, typ, err := Ladder("hello world", schema.TypeString, format)
			So(err, ShouldBeNil)
			So(typ, ShouldEqual, schema.TypeString)
			So(val, ShouldEqual, "hello world")
		})

		Convey("preserves a leading-zero numeric string as text", func() {
			val, typ, err := Ladder("02134", schema.TypeString, format)
			So(err, ShouldBeNil)
			So(typ, ShouldEqual, schema.TypeString)
			So(val, ShouldEqual, "02134")
		})

		Convey("converts a declared decimal column with thousands grouping", func() {
			val, typ, err := Ladder("1.234,56", schema.TypeDecimal, format)
			So(err, ShouldBeNil)
			So(typ, ShouldEqual, schema.TypeDecimal)
			So(val.(decimal.Decimal).String(), ShouldEqual, "1234.56")
		})

		Convey("a declared-type conversion failure returns an error and demotes", func() {
			_, typ, err := Ladder("not-a-number", schema.TypeInt32, format)
			So(err, ShouldNotBeNil)
			So(typ, ShouldEqual, schema.TypeString)
		})
	})
}

func TestNormalizeNumericString(t *testing.T) {
	Convey("NormalizeNumericString", t, func() {
		Convey("both separators present: rightmost is decimal", func() {
			norm, ok := schema.NormalizeNumericString("1.234,56")
			So(ok, ShouldBeTrue)
			So(norm, ShouldEqual, "1234.56")

			norm, ok = schema.NormalizeNumericString("1,234.56")
			So(ok, ShouldBeTrue)
			So(norm, ShouldEqual, "1234.56")
		})

		Convey("repeated separator is all thousands", func() {
			norm, ok := schema.NormalizeNumericString("1.234.567")
			So(ok, ShouldBeTrue)
			So(norm, ShouldEqual, "1234567")
		})

		Convey("single dot with 3 trailing digits is ambiguous", func() {
			_, ok := schema.NormalizeNumericString("1.234")
			So(ok, ShouldBeFalse)
		})

		Convey("single dot with 2 trailing digits is a decimal", func() {
			norm, ok := schema.NormalizeNumericString("1.23")
			So(ok, ShouldBeTrue)
			So(norm, ShouldEqual, "1.23")
		})
	})
}
