// Package source supplies byte-stream collaborators for a csv.Reader: a
// local-or-cloud file opener and a zip-archive extractor, both driven
// under an ingest.Controller the way the rest of this module's
// concurrent pipelines are, plus a thin adapter onto csv.CharSource so
// a caller can go straight from a URL or archive member to a Reader.
package source

import (
	"io"
	"os"
	"path/filepath"

	"github.com/alexflint/go-cloudfile"
	"github.com/mcuadros/go-defaults"

	"github.com/urbint/csvstream"
)

// CopyBlockBytes is how many bytes are copied between checks of the
// worker's abort channel.
var CopyBlockBytes int64 = 256000

// A Downloader fetches a set of URLs (or local paths — go-cloudfile
// opens whichever scheme it's given) to local files, in parallel, under
// an ingest.Controller.
type Downloader struct {
	Opts     DownloadOpts
	Log      ingest.Logger
	URLs     []string
	URLCount int
}

// DownloadOpts configures a Downloader.
type DownloadOpts struct {
	// MaxParallelDownloads caps how many URLs are fetched concurrently.
	MaxParallelDownloads int `default:"1"`

	// DownloadTo is the directory downloaded files are written into.
	DownloadTo string `default:"tmp/"`

	// Progress, if non-nil, receives one DownloadProgress per copied
	// block.
	Progress chan DownloadProgress

	// Cleanup removes DownloadTo once the owning controller finishes.
	Cleanup bool
}

// DownloadProgress reports incremental download progress for one file.
type DownloadProgress struct {
	FileName string
	Bytes    int
}

// NewDownloader builds a Downloader with DownloadOpts' struct-tag
// defaults applied.
func NewDownloader() *Downloader {
	dl := &Downloader{Log: ingest.DefaultLogger.WithField("task", "download")}
	defaults.SetDefaults(&dl.Opts)
	return dl
}

// Download builds a Downloader queued with urls.
func Download(urls ...string) *Downloader {
	result := NewDownloader()
	result.URLs = urls
	result.URLCount = len(urls)
	return result
}

// DownloadTo is a chainable setter for Opts.DownloadTo.
func (d *Downloader) DownloadTo(path string) *Downloader {
	d.Opts.DownloadTo = path
	return d
}

// Cleanup is a chainable setter for Opts.Cleanup.
func (d *Downloader) Cleanup(cleanup bool) *Downloader {
	d.Opts.Cleanup = cleanup
	return d
}

// ReportProgressTo is a chainable setter for Opts.Progress.
func (d *Downloader) ReportProgressTo(progress chan DownloadProgress) *Downloader {
	d.Opts.Progress = progress
	return d
}

// Start runs the download pool under ctrl, returning a channel of
// opened local files as they complete.
func (d *Downloader) Start(ctrl *ingest.Controller) <-chan *os.File {
	result := make(chan *os.File)
	queue := d.downloadQueue()
	childCtrl := ctrl.Child()
	defer ctrl.ChildBuilt()

	go func() {
		ctrl.Wait()
		if d.Opts.Cleanup {
			os.RemoveAll(d.Opts.DownloadTo)
		}
	}()

	go func() {
		childCtrl.Wait()
		close(result)
	}()

	for i := 0; i < d.Opts.MaxParallelDownloads; i++ {
		d.startDownloadWorker(childCtrl, queue, result)
	}

	return result
}

// DownloadURL fetches url into Opts.DownloadTo, returning the opened
// local file. A local path reachable directly by go-cloudfile is
// returned without copying.
func (d *Downloader) DownloadURL(url string, abort chan bool) (*os.File, error) {
	log := d.Log.WithField("file", url)
	log.Info("opening")

	if err := os.MkdirAll(d.Opts.DownloadTo, 0770); err != nil {
		return nil, err
	}

	reader, err := cloudfile.Open(url)
	if err != nil {
		log.WithError(err).Error("error opening file")
		return nil, err
	}

	if asFile, isFile := reader.(*os.File); isFile {
		return asFile, nil
	}
	if asCloser, isCloser := reader.(io.Closer); isCloser {
		defer asCloser.Close()
	}

	_, outName := filepath.Split(url)
	destFile, err := os.Create(filepath.Join(d.Opts.DownloadTo, outName))
	if err != nil {
		log.WithError(err).Error("error creating local file")
		return nil, err
	}

	for {
		select {
		case <-abort:
			return nil, ingest.ErrAborted
		default:
			copied, err := io.CopyN(destFile, reader, CopyBlockBytes)
			d.reportProgress(outName, copied)
			if err != nil {
				if err == io.EOF {
					return destFile, nil
				}
				log.WithError(err).Error("error writing to local file")
				return nil, err
			}
		}
	}
}

func (d *Downloader) reportProgress(file string, bytes int64) {
	if d.Opts.Progress != nil {
		go func() { d.Opts.Progress <- DownloadProgress{FileName: file, Bytes: int(bytes)} }()
	}
}

func (d *Downloader) downloadQueue() <-chan string {
	queue := make(chan string, d.URLCount)
	for _, url := range d.URLs {
		queue <- url
	}
	close(queue)
	return queue
}

func (d *Downloader) startDownloadWorker(ctrl *ingest.Controller, queue <-chan string, results chan *os.File) {
	d.Log.Debug("starting worker")
	ctrl.WorkerStart()
	go func() {
		defer ctrl.WorkerEnd()
		for {
			select {
			case <-ctrl.Quit:
				return
			case url, ok := <-queue:
				if !ok {
					return
				}
				res, err := d.DownloadURL(url, ctrl.Quit)
				if err != nil {
					ctrl.Err <- err
					continue
				}
				select {
				case <-ctrl.Quit:
					return
				case results <- res:
				}
			}
		}
	}()
}
