package schema

import (
	"reflect"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/urbint/csvstream"
)

func TestToPascalCase(t *testing.T) {
	Convey("ToPascalCase", t, func() {
		So(ToPascalCase("first_name"), ShouldEqual, "FirstName")
		So(ToPascalCase("birth_year"), ShouldEqual, "BirthYear")
		So(ToPascalCase("id"), ShouldEqual, "Id")
		So(ToPascalCase("already-kebab"), ShouldEqual, "AlreadyKebab")
	})
}

func TestEngine(t *testing.T) {
	Convey("Type Inference Engine", t, func() {
		engine := NewEngine(ingest.DefaultNumericFormat, true, true)

		Convey("narrows a column to the most specific surviving type", func() {
			s := engine.Infer([]string{"Age"}, [][]string{{"1"}, {"2"}, {"3"}})
			So(s.Columns[0].Type, ShouldEqual, TypeInt32)
		})

		Convey("tolerates a single outlier before demoting", func() {
			s := engine.Infer([]string{"Age"}, [][]string{{"1"}, {"abc"}, {"3"}})
			So(s.Columns[0].Type, ShouldEqual, TypeInt32)
		})

		Convey("demotes to string after two failures", func() {
			s := engine.Infer([]string{"Mixed"}, [][]string{{"1"}, {"abc"}, {"def"}})
			So(s.Columns[0].Type, ShouldEqual, TypeString)
		})

		Convey("preserves leading-zero numeric strings as string", func() {
			s := engine.Infer([]string{"Zip"}, [][]string{{"02134"}, {"02135"}})
			So(s.Columns[0].Type, ShouldEqual, TypeString)
		})

		Convey("preserves very long integer strings as string", func() {
			s := engine.Infer([]string{"Big"}, [][]string{{"1234567890123456789"}})
			So(s.Columns[0].Type, ShouldEqual, TypeString)
		})

		Convey("skips empty cells without affecting inference", func() {
			s := engine.Infer([]string{"Age"}, [][]string{{"1"}, {""}, {"3"}})
			So(s.Columns[0].Type, ShouldEqual, TypeInt32)
		})
	})
}

func TestResolveFields(t *testing.T) {
	type Name struct {
		First string
		Last  string
	}
	type Target struct {
		Name
		FirstName string
		BirthYear int    `csv:"order=2"`
		Ignored   string `csv:"-"`
	}

	Convey("ResolveFields", t, func() {
		Convey("resolves exact names", func() {
			s := &Schema{Columns: []Column{{Name: "FirstName", Index: 0}}}
			slots := ResolveFields(s, reflect.TypeOf(Target{}))
			So(slots[0].Kind, ShouldEqual, SlotField)
		})

		Convey("resolves via snake_case to PascalCase", func() {
			s := &Schema{Columns: []Column{{Name: "first_name", Index: 0}, {Name: "birth_year", Index: 1}}}
			slots := ResolveFields(s, reflect.TypeOf(Target{}))
			So(slots[0].Kind, ShouldEqual, SlotField)
		})

		Convey("resolves embedded struct fields", func() {
			s := &Schema{Columns: []Column{{Name: "First", Index: 0}}}
			slots := ResolveFields(s, reflect.TypeOf(Target{}))
			So(slots[0].Kind, ShouldEqual, SlotField)
		})

		Convey("leaves unresolved columns as ignore", func() {
			s := &Schema{Columns: []Column{{Name: "NoSuchColumn", Index: 0}}}
			slots := ResolveFields(s, reflect.TypeOf(Target{}))
			So(slots[0].Kind, ShouldEqual, SlotIgnore)
		})
	})
}
