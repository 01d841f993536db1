package csv

import (
	"strings"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/urbint/csvstream"
)

func TestRunManyFansInAllReaders(t *testing.T) {
	Convey("RunMany merges multiple readers' rows into one channel", t, func() {
		opts1 := NewOptions()
		opts1.Schema = []string{"FirstName", "Age"}
		r1 := NewReader[person](RuneSource(strings.NewReader("Ada,37\nGrace,85\n")), opts1)

		opts2 := NewOptions()
		opts2.Schema = []string{"FirstName", "Age"}
		r2 := NewReader[person](RuneSource(strings.NewReader("John,40\n")), opts2)

		ctrl := ingest.NewController()
		rows := RunMany[person](ctrl, r1, r2)

		var got []person
		timeout := time.After(2 * time.Second)
	drain:
		for {
			select {
			case v, ok := <-rows:
				if !ok {
					break drain
				}
				got = append(got, v)
			case <-timeout:
				t.Fatal("RunMany did not close its output channel in time")
			}
		}

		So(got, ShouldHaveLength, 3)
	})
}

func TestImportDrainsEveryRow(t *testing.T) {
	Convey("Import runs a Reader to completion through handle", t, func() {
		opts := NewOptions()
		opts.Schema = []string{"FirstName", "Age"}
		r := NewReader[person](RuneSource(strings.NewReader("Ada,37\nGrace,85\n")), opts)

		var handled []person
		importer := Import(r, func(p person) error {
			handled = append(handled, p)
			return nil
		})

		So(importer.Run(), ShouldBeNil)
		So(handled, ShouldHaveLength, 2)
		So(handled[0].FirstName, ShouldEqual, "Ada")
	})
}
