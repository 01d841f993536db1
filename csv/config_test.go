package csv

import (
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/urbint/csvstream/utils"
)

func TestOptionsFileRoundTrip(t *testing.T) {
	Convey("SaveOptionsFile and LoadOptionsFile round-trip overridden settings", t, func() {
		path := filepath.Join(t.TempDir(), "opts.json")

		saved := NewOptions()
		saved.Separator = "|"
		saved.HasHeader = true
		saved.MaxColumnsPerRow = 12

		So(SaveOptionsFile(path, saved), ShouldBeNil)

		loaded, err := LoadOptionsFile(path)
		So(err, ShouldBeNil)
		So(loaded.Separator, ShouldEqual, "|")
		So(loaded.HasHeader, ShouldBeTrue)
		So(loaded.MaxColumnsPerRow, ShouldEqual, 12)

		Convey("fields saved at NewOptions' struct-tag defaults load back unchanged", func() {
			So(loaded.FieldTypeInference, ShouldEqual, FieldTypePrimitive)
			So(loaded.ChunkSize, ShouldEqual, DefaultChunkSize)
		})
	})
}

func TestLoadOptionsFileAppliesRenames(t *testing.T) {
	Convey("LoadOptionsFile migrates a legacy key before applying settings", t, func() {
		path := filepath.Join(t.TempDir(), "legacy.json")
		So(os.WriteFile(path, []byte(`{"sep": "|"}`), 0o644), ShouldBeNil)

		loaded, err := LoadOptionsFile(path, utils.MapTransform{"sep": "Separator"})
		So(err, ShouldBeNil)
		So(loaded.Separator, ShouldEqual, "|")
	})
}
