package source

import (
	"io"
	"os"

	"github.com/urbint/csvstream/csv"
)

// Open resolves path (a URL or local path, per go-cloudfile) and wraps
// it as a csv.CharSource, ready to hand to csv.NewReader. A remote
// source is copied into the system temp directory first; a local path
// is read in place. The caller is responsible for closing the returned
// io.Closer once the Reader has finished with it, if it is non-nil.
func Open(path string) (csv.CharSource, io.Closer, error) {
	dl := NewDownloader()
	dl.Opts.DownloadTo = os.TempDir()

	file, err := dl.DownloadURL(path, nil)
	if err != nil {
		return nil, nil, err
	}
	// A downloaded copy is left positioned at its end; rewind it.
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		file.Close()
		return nil, nil, err
	}
	return csv.RuneSource(file), file, nil
}

// FromArchiveMember adapts one extracted zip member (as produced by
// Unzipper.Start) into a csv.CharSource, closing member once the
// returned CharSource has been fully drained is the caller's
// responsibility.
func FromArchiveMember(member io.ReadCloser) csv.CharSource {
	return csv.RuneSource(member)
}
