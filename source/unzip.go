package source

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"

	"github.com/mcuadros/go-defaults"

	"github.com/urbint/csvstream"
)

// An Unzipper downloads a set of URLs and extracts every archive member
// matching Opts.Filter, in parallel, under an ingest.Controller.
type Unzipper struct {
	URLs     []string
	URLCount int
	Log      ingest.Logger
	Opts     UnzipperOpts
}

// UnzipperOpts configures an Unzipper; it embeds DownloadOpts since
// extraction first downloads each archive.
type UnzipperOpts struct {
	DownloadOpts
	MaxParallelUnzips int `default:"1"`
	// Filter is a filepath.Match pattern; only matching archive member
	// names are extracted. Empty matches everything.
	Filter string
}

// NewUnzipper builds an Unzipper with UnzipperOpts' struct-tag defaults
// applied.
func NewUnzipper() *Unzipper {
	u := &Unzipper{Log: ingest.DefaultLogger.WithField("task", "unzip")}
	defaults.SetDefaults(&u.Opts)
	return u
}

// Unzip builds an Unzipper queued with urls.
func Unzip(urls ...string) *Unzipper {
	result := NewUnzipper()
	result.URLs = urls
	result.URLCount = len(urls)
	return result
}

// Filter is a chainable setter for Opts.Filter.
func (u *Unzipper) Filter(pattern string) *Unzipper {
	u.Opts.Filter = pattern
	return u
}

// Start downloads and extracts every queued URL under ctrl, returning a
// channel of opened archive members as they're extracted.
func (u *Unzipper) Start(ctrl *ingest.Controller) <-chan io.ReadCloser {
	ctrl = ctrl.Child()
	defer ctrl.ChildBuilt()

	unzipped := make(chan io.ReadCloser)
	go func() {
		ctrl.Wait()
		close(unzipped)
	}()

	files := Download(u.URLs...).WithOpts(u.Opts.DownloadOpts).Start(ctrl)

	for i := 0; i < u.Opts.MaxParallelUnzips; i++ {
		u.startUnzipWorker(ctrl, files, unzipped)
	}

	return unzipped
}

// WithOpts is a chainable setter that replaces Opts.DownloadOpts wholesale.
func (d *Downloader) WithOpts(opts DownloadOpts) *Downloader {
	d.Opts = opts
	return d
}

func (u *Unzipper) startUnzipWorker(ctrl *ingest.Controller, input <-chan *os.File, output chan<- io.ReadCloser) {
	ctrl.WorkerStart()
	u.Log.Debug("starting unzip worker")
	go func() {
		defer ctrl.WorkerEnd()
		for {
			select {
			case <-ctrl.Quit:
				return
			case file, ok := <-input:
				if !ok {
					return
				}
				results, err := u.UnzipFile(file)
				if err != nil {
					ctrl.Err <- err
					continue
				}
				for _, result := range results {
					select {
					case <-ctrl.Quit:
						return
					case output <- result:
					}
				}
			}
		}
	}()
}

// UnzipFile extracts every member of the zip archive at file matching
// Opts.Filter, returning their opened readers. file is closed as a side
// effect of reading its archive index.
func (u *Unzipper) UnzipFile(file *os.File) ([]io.ReadCloser, error) {
	result := []io.ReadCloser{}

	file.Close()
	archive, err := zip.OpenReader(file.Name())
	if err != nil {
		return nil, err
	}

	for _, inside := range archive.File {
		name := inside.FileHeader.Name
		if !u.filterMatch(name) {
			continue
		}
		u.Log.WithField("file", name).Debug("found file")
		opened, err := inside.Open()
		if err != nil {
			for _, f := range result {
				f.Close()
			}
			return nil, err
		}
		result = append(result, opened)
	}

	return result, nil
}

func (u *Unzipper) filterMatch(fileName string) bool {
	if u.Opts.Filter == "" {
		return true
	}
	res, err := filepath.Match(u.Opts.Filter, fileName)
	if err != nil {
		u.Log.WithField("pattern", u.Opts.Filter).WithError(err).Warn("invalid file pattern")
		return false
	}
	return res
}
