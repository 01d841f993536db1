package csv

import (
	"errors"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/urbint/csvstream"
)

var errBadValue = errors.New("bad value")

type person struct {
	FirstName string
	Age       int32
}

func read(t *testing.T, input string, configure func(*Options)) ([]person, error) {
	t.Helper()
	opts := NewOptions()
	if configure != nil {
		configure(opts)
	}
	r := NewReader[person](RuneSource(strings.NewReader(input)), opts)
	return r.ReadAll()
}

func TestReaderHeaderAndTypes(t *testing.T) {
	Convey("a header row supplies column names, primitive inference supplies types", t, func() {
		rows, err := read(t, "FirstName,Age\nAda,37\nGrace,85\n", func(o *Options) {
			o.HasHeader = true
		})
		So(err, ShouldBeNil)
		So(rows, ShouldHaveLength, 2)
		So(rows[0].FirstName, ShouldEqual, "Ada")
		So(rows[0].Age, ShouldEqual, int32(37))
		So(rows[1].FirstName, ShouldEqual, "Grace")
	})
}

func TestReaderBlankCellLeavesZeroValue(t *testing.T) {
	Convey("a blank cell materializes as the target field's zero value, not a fault", t, func() {
		var faults []*ingest.Fault
		rows, err := read(t, "FirstName,Age\nJohn,\nJane,25\n", func(o *Options) {
			o.HasHeader = true
			o.ErrorAction = ingest.ActionSkip
			o.ErrorSink = ingest.SinkFunc(func(f *ingest.Fault) { faults = append(faults, f) })
		})
		So(err, ShouldBeNil)
		So(rows, ShouldHaveLength, 2)
		So(rows[0].FirstName, ShouldEqual, "John")
		So(rows[0].Age, ShouldEqual, int32(0))
		So(rows[1].FirstName, ShouldEqual, "Jane")
		So(rows[1].Age, ShouldEqual, int32(25))
		So(faults, ShouldHaveLength, 0)
	})
}

func TestReaderCallerSchema(t *testing.T) {
	Convey("a caller-supplied schema discards the header row", t, func() {
		rows, err := read(t, "ignored,header\nAda,37\n", func(o *Options) {
			o.HasHeader = true
			o.Schema = []string{"FirstName", "Age"}
		})
		So(err, ShouldBeNil)
		So(rows, ShouldHaveLength, 1)
		So(rows[0].FirstName, ShouldEqual, "Ada")
	})
}

func TestReaderQuotedFieldsAndEscapes(t *testing.T) {
	Convey("a quoted field with an escaped quote and embedded separator round-trips", t, func() {
		type row struct {
			A, B string
		}
		opts := NewOptions()
		opts.Schema = []string{"A", "B"}
		r := NewReader[row](RuneSource(strings.NewReader(`a,"b with ""quote"" and, comma"` + "\n")), opts)
		rows, err := r.ReadAll()
		So(err, ShouldBeNil)
		So(rows, ShouldHaveLength, 1)
		So(rows[0].B, ShouldEqual, `b with "quote" and, comma`)
	})
}

func TestReaderCRLFCountsOnce(t *testing.T) {
	Convey("a CRLF record terminator advances the line counter once", t, func() {
		opts := NewOptions()
		opts.Schema = []string{"A", "B"}
		r := NewReader[struct{ A, B string }](RuneSource(strings.NewReader("1,2\r\n3,4\r\n")), opts)
		rows, err := r.ReadAll()
		So(err, ShouldBeNil)
		So(rows, ShouldHaveLength, 2)
		So(r.Metrics().LinesRead, ShouldEqual, 2)
	})
}

func TestReaderGuardRailSkip(t *testing.T) {
	Convey("a row exceeding maxColumnsPerRow is dropped in skip mode", t, func() {
		opts := NewOptions()
		opts.Schema = []string{"A"}
		opts.MaxColumnsPerRow = 1
		opts.ErrorAction = ingest.ActionSkip
		var faults []*ingest.Fault
		opts.ErrorSink = ingest.SinkFunc(func(f *ingest.Fault) { faults = append(faults, f) })

		r := NewReader[struct{ A string }](RuneSource(strings.NewReader("1\n2,3\n4\n")), opts)
		rows, err := r.ReadAll()
		So(err, ShouldBeNil)
		So(rows, ShouldHaveLength, 2)
		So(faults, ShouldHaveLength, 1)
		So(faults[0].Kind, ShouldEqual, ingest.KindLimitExceeded)
	})
}

func TestReaderGuardRailDropStillCountsRawRecord(t *testing.T) {
	Convey("a guard-rail-dropped row still counts as a raw record", t, func() {
		opts := NewOptions()
		opts.Schema = []string{"A", "B", "C"}
		opts.MaxColumnsPerRow = 3
		opts.ErrorAction = ingest.ActionSkip

		r := NewReader[struct{ A, B, C string }](RuneSource(strings.NewReader("1,2,3\nx,y,z,w\n4,5,6\n")), opts)
		rows, err := r.ReadAll()
		So(err, ShouldBeNil)
		So(rows, ShouldHaveLength, 2)
		So(r.Metrics().RawRecordsParsed, ShouldEqual, 3)
		So(r.Metrics().RecordsEmitted, ShouldEqual, 2)
	})
}

func TestReaderEmptyStreamLinesRead(t *testing.T) {
	Convey("an empty stream reads zero lines", t, func() {
		opts := NewOptions()
		opts.Schema = []string{"A", "B"}
		r := NewReader[struct{ A, B string }](RuneSource(strings.NewReader("")), opts)
		rows, err := r.ReadAll()
		So(err, ShouldBeNil)
		So(rows, ShouldHaveLength, 0)
		So(r.Metrics().LinesRead, ShouldEqual, 0)
	})
}

func TestReaderThrowMode(t *testing.T) {
	Convey("a conversion error in throw mode ends the stream with a fault error", t, func() {
		type strict struct {
			Age int32
		}
		opts := NewOptions()
		opts.Schema = []string{"Age"}
		opts.ErrorAction = ingest.ActionThrow
		// Use a custom converter that always returns an error, so the row
		// faults deterministically.
		opts.FieldTypeInference = FieldTypeCustom
		opts.FieldValueConverter = func(raw string, _ int) (interface{}, error) {
			return nil, errBadValue
		}

		r := NewReader[strict](RuneSource(strings.NewReader("notanumber\n")), opts)
		_, err := r.Next()
		So(err, ShouldNotBeNil)
		fault, ok := err.(*ingest.Fault)
		So(ok, ShouldBeTrue)
		So(fault.Kind, ShouldEqual, ingest.KindConversionError)
	})
}

func TestReaderSchemaInference(t *testing.T) {
	Convey("inference derives both names and types from sampled rows", t, func() {
		opts := NewOptions()
		opts.InferSchema = true
		opts.SchemaInferenceMode = InferNamesAndTypes
		opts.SchemaInferenceSampleRows = 2

		type wide struct {
			Column1 string
			Column2 int32
		}
		r := NewReader[wide](RuneSource(strings.NewReader("a,100\nb,200\nc,300\n")), opts)
		rows, err := r.ReadAll()
		So(err, ShouldBeNil)
		So(rows, ShouldHaveLength, 3)
		So(rows[0].Column2, ShouldEqual, int32(100))
		So(rows[2].Column2, ShouldEqual, int32(300))
	})
}
