package csv

import (
	"context"
	"time"

	"github.com/mcuadros/go-defaults"

	"github.com/urbint/csvstream"
)

// QuoteMode selects how the state machine reacts to a quote character
// appearing inside an unquoted field. See §4.2.
type QuoteMode int

// The three quote policies from the options table.
const (
	QuoteStrict QuoteMode = iota
	QuoteLenient
	QuoteErrorOnIllegal
)

// InferenceMode selects what schema inference derives from the sample
// window: just column names, or names and types.
type InferenceMode int

// The two inference modes from the options table.
const (
	InferNamesOnly InferenceMode = iota
	InferNamesAndTypes
)

// FieldTypeInference selects the per-cell conversion policy applied
// after a cell's raw text is assembled.
type FieldTypeInference int

// The three field-type-inference policies from the options table.
// FieldTypePrimitive is the default (set by NewOptions): run the
// primitive ladder or honor a schema's declared column type.
// FieldTypeNone passes every cell through as a raw string, and
// FieldTypeCustom defers entirely to FieldValueConverter.
const (
	FieldTypeNone FieldTypeInference = iota
	FieldTypePrimitive
	FieldTypeCustom
)

// Options configures a Reader. NewOptions applies RFC 4180 defaults:
// comma-separated, no header, no schema inference, strict quoting,
// skip-mode error handling (a faulted row is dropped, nothing is thrown),
// primitive per-cell conversion.
type Options struct {
	// ReaderID tags every Fault from this stream (e.g. a file path).
	ReaderID string

	// Separator is the field delimiter; only its first rune is used.
	Separator string `default:","`

	// HasHeader consumes the first record as the header.
	HasHeader bool

	// Schema, if non-nil, supplies column names directly and overrides
	// header consumption (the header row is still discarded if HasHeader
	// is also set).
	Schema []string

	QuoteMode              QuoteMode
	ErrorOnTrailingGarbage bool

	AllowExtraFields           bool
	AllowMissingTrailingFields bool

	TrimWhitespace bool

	PreserveLineEndings       bool
	NormalizeNewlinesInFields bool

	// RawRecordObserver, if non-nil, is invoked once per successfully
	// emitted data record with its full raw text.
	RawRecordObserver func(raw string) `json:"-"`

	InferSchema               bool
	SchemaInferenceSampleRows int `default:"100"`
	SchemaInferenceMode       InferenceMode

	// GenerateColumnName overrides the default "Column1".."ColumnN" /
	// header-passthrough naming.
	GenerateColumnName func(index int, headerCell string) string `json:"-"`

	FieldTypeInference  FieldTypeInference `default:"1"`
	FieldValueConverter func(raw string, columnIndex int) (interface{}, error) `json:"-"`

	PreserveNumericStringsWithLeadingZeros bool `default:"true"`
	PreserveLargeIntegerStrings            bool `default:"true"`

	MaxColumnsPerRow   int
	MaxRawRecordLength int

	NumericFormat ingest.NumericFormat

	ErrorAction ingest.Action
	ErrorSink   ingest.Sink `json:"-"`

	Progress                ingest.ProgressFunc `json:"-"`
	ProgressRecordInterval  int
	ProgressTimeInterval    time.Duration

	CancellationToken *ingest.CancelToken `json:"-"`
	Context           context.Context    `json:"-"`

	// ChunkSize is the rune-chunk size pulled from the character source
	// per pump cycle. Default 64 KiB.
	ChunkSize int `default:"65536"`

	Log ingest.Logger `json:"-"`
}

// DefaultChunkSize is the pump's default fixed chunk size (runes).
const DefaultChunkSize = 64 * 1024

// NewOptions builds Options populated with the struct-tag defaults via
// github.com/mcuadros/go-defaults, matching the teacher's Opts pattern.
func NewOptions() *Options {
	opts := &Options{}
	defaults.SetDefaults(opts)
	if opts.NumericFormat == (ingest.NumericFormat{}) {
		opts.NumericFormat = ingest.DefaultNumericFormat
	}
	if opts.Log == nil {
		opts.Log = ingest.DefaultLogger
	}
	return opts
}

// separatorRune returns the first rune of Separator, defaulting to ','.
func (o *Options) separatorRune() rune {
	for _, r := range o.Separator {
		return r
	}
	return ','
}

// cancelSignal combines the CancellationToken and Context into a single
// CancelSignal, per §5's "two cancellation signals, either fires cancels
// the stream."
func (o *Options) cancelSignal() ingest.CancelSignal {
	return ingest.CombinedSignal{o.CancellationToken, ingest.CtxSignal(o.Context)}
}
