package utils

import (
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestConfigRoundTrip(t *testing.T) {
	type settings struct {
		Separator string `json:"separator"`
		MaxRows   int    `json:"maxRows"`
	}

	Convey("SaveConfig and ReadConfig round-trip through JSON", t, func() {
		path := filepath.Join(t.TempDir(), "opts.json")
		err := SaveConfig(path, &settings{Separator: "|", MaxRows: 10})
		So(err, ShouldBeNil)

		loaded, err := ReadConfig(path)
		So(err, ShouldBeNil)
		So(loaded["separator"], ShouldEqual, "|")
		So(loaded["maxRows"], ShouldEqual, float64(10))

		dest := &settings{}
		MapToStruct(loaded, dest, "json")
		So(dest.Separator, ShouldEqual, "|")
		So(dest.MaxRows, ShouldEqual, 10)
	})

	Convey("SaveConfig and ReadConfig round-trip through YAML", t, func() {
		path := filepath.Join(t.TempDir(), "opts.yaml")
		err := SaveConfig(path, &settings{Separator: ";", MaxRows: 5})
		So(err, ShouldBeNil)

		loaded, err := ReadConfig(path)
		So(err, ShouldBeNil)
		So(loaded["separator"], ShouldEqual, ";")
	})

	Convey("ReadConfig rejects an unrecognized extension", t, func() {
		path := filepath.Join(t.TempDir(), "opts.txt")
		So(os.WriteFile(path, []byte("x"), 0o644), ShouldBeNil)
		_, err := ReadConfig(path)
		So(err, ShouldNotBeNil)
	})
}
