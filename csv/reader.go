package csv

import (
	"fmt"
	"io"
	"reflect"
	"strings"
	"time"

	"github.com/urbint/csvstream"
	"github.com/urbint/csvstream/convert"
	"github.com/urbint/csvstream/materialize"
	"github.com/urbint/csvstream/schema"
)

// emittedCancelPollInterval is how many successfully emitted records
// pass between cancellation polls, per §5 suspension point (4).
const emittedCancelPollInterval = 256

// A Reader parses a CharSource into values of type T: it drives the
// Character Buffer Pump and Parser State Machine, applies the
// Guard-Rail Filter, resolves the header/schema and (optionally) infers
// column types, converts each cell with the Field Converter, and
// materializes the result into T. Next is the blocking pull surface
// from §5; it polls both cancellation signals at every suspension
// point the section describes.
//
// A Reader is not safe for concurrent use and is not restartable: once
// Next returns a non-nil error, every subsequent call returns the same
// error (io.EOF on clean completion).
type Reader[T any] struct {
	opts *Options
	sig  ingest.CancelSignal
	pump *ChunkPump
	mach *machine

	targetType reflect.Type
	mat        *materialize.Materializer

	schema        *schema.Schema
	schemaReady   bool
	headerPending bool
	headerOffset  int

	sampling      bool
	sampleNames   []string
	sampleRecords []Record
	sampleWidth   int

	ready    []T
	readyIdx int

	lastLine         int
	emittedSincePoll int

	metrics *ingest.Metrics

	done bool
	err  error
}

// NewReader builds a Reader over src producing values of type T. opts
// may be nil, in which case NewOptions' RFC 4180 defaults apply.
func NewReader[T any](src CharSource, opts *Options) *Reader[T] {
	if opts == nil {
		opts = NewOptions()
	}

	r := &Reader[T]{
		opts:          opts,
		sig:           opts.cancelSignal(),
		pump:          NewChunkPump(src, opts.ChunkSize),
		mach:          newMachine(opts),
		targetType:    reflect.TypeOf((*T)(nil)).Elem(),
		mat:           materialize.NewMaterializer(),
		metrics:       ingest.NewMetrics(time.Now()),
		headerPending: opts.HasHeader,
		lastLine:      1, // matches the machine's initial line value; LinesRead counts newline occurrences, not the starting line
	}
	if opts.HasHeader {
		r.headerOffset = 1
	}

	switch {
	case opts.Schema != nil:
		r.schema = schemaFromNames(opts.Schema)
		finalizeStringColumns(r.schema, r.targetType)
	case opts.InferSchema && (opts.SchemaInferenceMode == InferNamesAndTypes || !opts.HasHeader):
		r.sampling = true
	}

	return r
}

// RegisterConstructor adds a candidate constructor for T, considered
// by the Object Materializer alongside member feeding the first time a
// Plan is built for this stream's schema. Must be called before the
// first call to Next.
func (r *Reader[T]) RegisterConstructor(spec materialize.ConstructorSpec) {
	r.mat.RegisterConstructor(r.targetType, spec)
}

// Metrics returns the live counters for this stream, safe to read
// concurrently with Next.
func (r *Reader[T]) Metrics() *ingest.Metrics {
	return r.metrics
}

// Next returns the next materialized record, or an error: io.EOF on
// clean completion, or the terminal Fault in throw mode. Once an error
// is returned, every subsequent call returns the same error.
func (r *Reader[T]) Next() (T, error) {
	var zero T
	for {
		if r.readyIdx < len(r.ready) {
			v := r.ready[r.readyIdx]
			r.readyIdx++
			return v, nil
		}
		if r.done {
			if r.err != nil {
				return zero, r.err
			}
			return zero, io.EOF
		}
		r.pumpOnce()
	}
}

// ReadAll drains the Reader into a slice, per §6's "caller materializes
// to a container if needed."
func (r *Reader[T]) ReadAll() ([]T, error) {
	var out []T
	for {
		v, err := r.Next()
		if err != nil {
			if err == io.EOF {
				return out, nil
			}
			return out, err
		}
		out = append(out, v)
	}
}

// pumpOnce runs one pump cycle: a cancellation poll, one upstream read,
// one pass of the state machine over the resulting chunk (finalizing at
// EOF), then processes the resulting events in order, populating ready.
func (r *Reader[T]) pumpOnce() {
	r.ready = nil
	r.readyIdx = 0

	if r.sig.Canceled() {
		r.terminate(r.fault(Record{}, ingest.KindCanceled, "stream canceled"), ingest.ActionThrow)
		return
	}

	chunk, readErr := r.pump.Next()
	events := r.mach.feed(chunk, nil, r.sig.Canceled)

	switch {
	case readErr != nil && readErr != io.EOF:
		events = append(events, event{kind: eventFault, fault: &ingest.Fault{
			Reader:  r.opts.ReaderID,
			Kind:    ingest.KindFatal,
			Message: fmt.Sprintf("reading upstream source: %v", readErr),
			Cause:   readErr,
			At:      time.Now(),
		}})
	case readErr == io.EOF:
		events = r.mach.finalize(events)
	}

	r.consumeEvents(events)
	r.advanceLineMetrics()

	if readErr == io.EOF && !r.done {
		if r.sampling {
			r.finishSampling()
		}
		if !r.done {
			r.done = true
			r.metrics.Complete(time.Now())
		}
	}
}

// consumeEvents processes one pump cycle's events in emission order,
// pairing a machine-level fault with the record it poisons so skip mode
// drops the whole record rather than just logging the fault.
func (r *Reader[T]) consumeEvents(events []event) {
	rowFaulted := false
	for _, ev := range events {
		if r.done {
			return
		}
		switch ev.kind {
		case eventFault:
			f := ev.fault
			if f.Record > 0 {
				// The machine counts raw records, header included.
				f.Record -= r.headerOffset
			}
			r.metrics.AddError()

			if f.Kind == ingest.KindCanceled || f.Kind == ingest.KindFatal {
				f.Action = ingest.ActionThrow
				ingest.SafeRecord(r.opts.ErrorSink, r.opts.Log, f)
				r.terminate(f, ingest.ActionThrow)
				return
			}
			f.Action = r.opts.ErrorAction
			ingest.SafeRecord(r.opts.ErrorSink, r.opts.Log, f)
			switch r.opts.ErrorAction {
			case ingest.ActionSkip:
				rowFaulted = true
			case ingest.ActionStop:
				r.terminate(nil, ingest.ActionStop)
				return
			case ingest.ActionThrow:
				r.terminate(f, ingest.ActionThrow)
				return
			}
		case eventRecord:
			rec := ev.record
			rec.Number = rec.rawIndex - r.headerOffset
			if rowFaulted {
				rowFaulted = false
				continue
			}
			r.handleRecord(rec)
		}
	}
}

// handleRecord routes one assembled record to header consumption,
// sample buffering, or conversion/materialization, depending on where
// this stream is in schema resolution.
func (r *Reader[T]) handleRecord(rec Record) {
	if r.headerPending {
		r.headerPending = false
		if r.schema == nil {
			if r.sampling {
				r.sampleNames = r.headerNames(rec.Fields)
			} else {
				r.schema = schemaFromNames(r.headerNames(rec.Fields))
				finalizeStringColumns(r.schema, r.targetType)
			}
		}
		return
	}

	if r.sampling {
		r.bufferSample(rec)
		return
	}

	if r.schema == nil {
		r.reportAndAct(r.fault(rec, ingest.KindSchemaError, "no header, schema, or inference configured"))
		return
	}

	r.emit(rec)
}

// bufferSample applies the guard rail to a row being sampled for schema
// inference, then buffers it, flushing the sample window once full.
func (r *Reader[T]) bufferSample(rec Record) {
	r.metrics.AddRawRecord()
	if !r.checkGuardRail(rec) {
		return
	}
	r.sampleRecords = append(r.sampleRecords, rec)
	if len(rec.Fields) > r.sampleWidth {
		r.sampleWidth = len(rec.Fields)
	}
	if len(r.sampleRecords) >= r.opts.SchemaInferenceSampleRows {
		r.finishSampling()
	}
}

// finishSampling resolves the schema from the buffered sample (names
// from the header if one was seen, else generated from the widest
// buffered row; types from the Type Inference Engine when requested),
// then replays the buffered rows as ordinary data rows.
func (r *Reader[T]) finishSampling() {
	names := r.sampleNames
	if names == nil {
		names = generatedNames(r.sampleWidth, r.opts.GenerateColumnName)
	}
	r.sampling = false

	if r.opts.SchemaInferenceMode == InferNamesAndTypes {
		engine := schema.NewEngine(r.opts.NumericFormat, r.opts.PreserveNumericStringsWithLeadingZeros, r.opts.PreserveLargeIntegerStrings)
		rows := make([][]string, len(r.sampleRecords))
		for i, rec := range r.sampleRecords {
			rows[i] = rec.Fields
		}
		r.schema = engine.Infer(names, rows)
	} else {
		r.schema = schemaFromNames(names)
	}
	finalizeStringColumns(r.schema, r.targetType)

	buffered := r.sampleRecords
	r.sampleRecords = nil
	for _, rec := range buffered {
		r.convertAndEmit(rec)
		if r.done {
			return
		}
	}
}

// emit applies the guard rail to a resolved-schema data row, then
// converts and materializes it.
func (r *Reader[T]) emit(rec Record) {
	r.metrics.AddRawRecord()
	if !r.checkGuardRail(rec) {
		return
	}
	r.convertAndEmit(rec)
}

// checkGuardRail applies the §4.3 caps, reporting and acting on a fault
// (stamped with this row's logical record number) when exceeded.
func (r *Reader[T]) checkGuardRail(rec Record) bool {
	f := guardRail(rec, r.opts)
	if f == nil {
		return true
	}
	f.Record = rec.Number
	r.reportAndAct(f)
	return false
}

// convertAndEmit validates row width against the schema, converts each
// cell with the Field Converter (demoting the column on failure per
// §4.5), materializes the row into T, and appends it to ready.
func (r *Reader[T]) convertAndEmit(rec Record) {
	width := len(r.schema.Columns)
	if len(rec.Fields) < width && !r.opts.AllowMissingTrailingFields {
		r.reportAndAct(r.fault(rec, ingest.KindSchemaError, fmt.Sprintf("row has %d fields, schema expects %d", len(rec.Fields), width)))
		return
	}
	if len(rec.Fields) > width && !r.opts.AllowExtraFields {
		r.reportAndAct(r.fault(rec, ingest.KindSchemaError, fmt.Sprintf("row has %d fields, schema expects %d", len(rec.Fields), width)))
		return
	}

	values := make([]interface{}, width)
	for i := 0; i < width; i++ {
		if i >= len(rec.Fields) {
			continue
		}
		col := &r.schema.Columns[i]

		switch r.opts.FieldTypeInference {
		case FieldTypeCustom:
			if r.opts.FieldValueConverter == nil {
				values[i] = rec.Fields[i]
				continue
			}
			v, err := r.opts.FieldValueConverter(rec.Fields[i], i)
			if err != nil {
				col.Finalize()
				r.reportAndAct(r.fault(rec, ingest.KindConversionError, fmt.Sprintf("column %q: %v", col.Name, err)))
				return
			}
			values[i] = v
		case FieldTypeNone:
			values[i] = rec.Fields[i]
		default: // FieldTypePrimitive
			if strings.TrimSpace(rec.Fields[i]) == "" {
				// A blank cell leaves the target field at its zero value
				// rather than fault or coerce an empty string into it.
				values[i] = nil
				continue
			}
			if col.Finalized {
				// A finalized column is pinned to string and never
				// re-examined by the ladder.
				values[i] = rec.Fields[i]
				continue
			}
			val, _, err := convert.Ladder(rec.Fields[i], col.Type, r.opts.NumericFormat)
			if err != nil {
				col.Finalize()
				r.reportAndAct(r.fault(rec, ingest.KindConversionError, fmt.Sprintf("column %q: %v", col.Name, err)))
				return
			}
			values[i] = val
		}
	}

	dest, err := r.mat.Materialize(r.schema, r.targetType, values)
	if err != nil {
		r.reportAndAct(r.fault(rec, ingest.KindMaterializationError, err.Error()))
		return
	}

	r.metrics.AddEmitted()
	if r.opts.RawRecordObserver != nil && rec.raw != "" {
		r.opts.RawRecordObserver(rec.raw)
	}
	r.ready = append(r.ready, dest.Interface().(T))
	r.emitProgress()
	r.pollEmittedCancellation(rec)
}

func (r *Reader[T]) emitProgress() {
	if r.opts.Progress == nil {
		return
	}
	now := time.Now()
	if r.metrics.ShouldEmit(now, r.opts.ProgressRecordInterval, r.opts.ProgressTimeInterval) {
		ingest.SafeEmit(r.opts.Progress, r.opts.Log, r.metrics.Snapshot(now, -1))
	}
}

// pollEmittedCancellation implements §5 suspension point (4): every
// 256 emitted records, poll cancellation even on the blocking surface.
func (r *Reader[T]) pollEmittedCancellation(rec Record) {
	r.emittedSincePoll++
	if r.emittedSincePoll < emittedCancelPollInterval {
		return
	}
	r.emittedSincePoll = 0
	if r.sig.Canceled() {
		r.terminate(r.fault(rec, ingest.KindCanceled, "stream canceled"), ingest.ActionThrow)
	}
}

// reportAndAct records f through the sink and applies the configured
// errorAction. ActionSkip leaves the stream running (the caller drops
// the current row); ActionStop/ActionThrow terminate it.
func (r *Reader[T]) reportAndAct(f *ingest.Fault) {
	r.metrics.AddError()
	f.Action = r.opts.ErrorAction
	ingest.SafeRecord(r.opts.ErrorSink, r.opts.Log, f)
	switch r.opts.ErrorAction {
	case ingest.ActionStop:
		r.terminate(nil, ingest.ActionStop)
	case ingest.ActionThrow:
		r.terminate(f, ingest.ActionThrow)
	}
}

// terminate ends the stream. A non-nil f with action Throw becomes the
// sticky error Next returns; otherwise the stream ends cleanly (io.EOF).
func (r *Reader[T]) terminate(f *ingest.Fault, action ingest.Action) {
	r.done = true
	r.metrics.Complete(time.Now())
	if action == ingest.ActionThrow && f != nil {
		r.err = f
	}
}

func (r *Reader[T]) advanceLineMetrics() {
	for r.lastLine < r.mach.line {
		r.lastLine++
		r.metrics.AddLine(r.lastLine)
	}
}

func (r *Reader[T]) fault(rec Record, kind ingest.Kind, msg string) *ingest.Fault {
	return &ingest.Fault{
		Reader:  r.opts.ReaderID,
		Line:    rec.Line,
		Record:  rec.Number,
		Kind:    kind,
		Message: msg,
		Excerpt: ingest.RenderExcerpt(rec.excerpt),
		At:      time.Now(),
	}
}

func (r *Reader[T]) headerNames(fields []string) []string {
	names := make([]string, len(fields))
	for i, cell := range fields {
		if r.opts.GenerateColumnName != nil {
			names[i] = r.opts.GenerateColumnName(i, cell)
		} else {
			names[i] = cell
		}
	}
	return names
}

func generatedNames(width int, gen func(index int, headerCell string) string) []string {
	names := make([]string, width)
	for i := range names {
		if gen != nil {
			names[i] = gen(i, "")
		} else {
			names[i] = schema.GenerateColumnName(i)
		}
	}
	return names
}

// finalizeStringColumns locks every column that resolves to a plain
// string field on the target type to TypeString, so undeclared-type
// primitive inference (§4.6) never reinterprets a string-typed
// destination field's cells as bool, numeric, or another narrower
// type. Finalizing before the first row is converted also lets the
// schema be reused as-is for subsequent Materialize plan caching.
func finalizeStringColumns(s *schema.Schema, t reflect.Type) {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return
	}
	slots := schema.ResolveFields(s, t)
	for i, slot := range slots {
		if slot.Kind != schema.SlotField {
			continue
		}
		if t.FieldByIndex(slot.FieldIndex).Type.Kind() == reflect.String {
			s.Columns[i].Finalize()
		}
	}
}

func schemaFromNames(names []string) *schema.Schema {
	cols := make([]schema.Column, len(names))
	for i, n := range names {
		cols[i] = schema.Column{Name: n, Index: i, Type: schema.TypeString}
	}
	return &schema.Schema{Columns: cols}
}
