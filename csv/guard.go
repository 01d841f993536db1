package csv

import (
	"fmt"
	"time"

	"github.com/urbint/csvstream"
)

// guardRail applies the per-record caps from §4.3 to a raw (pre-schema)
// record. It returns a non-nil Fault if either cap is exceeded; the
// column-count check runs before the raw-length check, and at most one
// Fault is produced even if both caps are exceeded.
func guardRail(rec Record, opts *Options) *ingest.Fault {
	if opts.MaxColumnsPerRow > 0 && len(rec.Fields) > opts.MaxColumnsPerRow {
		return &ingest.Fault{
			Reader:  opts.ReaderID,
			Line:    rec.Line,
			Record:  rec.rawIndex,
			Kind:    ingest.KindLimitExceeded,
			Message: fmt.Sprintf("row has %d columns, exceeding maxColumnsPerRow=%d", len(rec.Fields), opts.MaxColumnsPerRow),
			Excerpt: ingest.RenderExcerpt(rec.excerpt),
			At:      time.Now(),
		}
	}
	if opts.MaxRawRecordLength > 0 && rec.rawLen > opts.MaxRawRecordLength {
		return &ingest.Fault{
			Reader:  opts.ReaderID,
			Line:    rec.Line,
			Record:  rec.rawIndex,
			Kind:    ingest.KindLimitExceeded,
			Message: fmt.Sprintf("row is %d characters, exceeding maxRawRecordLength=%d", rec.rawLen, opts.MaxRawRecordLength),
			Excerpt: ingest.RenderExcerpt(rec.excerpt),
			At:      time.Now(),
		}
	}
	return nil
}
