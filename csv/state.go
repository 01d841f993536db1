package csv

import (
	"fmt"
	"strings"
	"time"

	"github.com/urbint/csvstream"
)

// state is one of the four parser states from §4.2, plus statePendingQuote,
// an internal step of InQuoted that decides between an escaped and a
// closing quote.
type state int

const (
	stateFieldStart state = iota
	stateInUnquoted
	stateInQuoted
	statePendingQuote // InQuoted, just saw a quote; next rune decides escape vs close
	stateAfterClosingQuote
)

// cancelPollInterval is how many characters the machine processes
// between cancellation polls inside a chunk, per §5 suspension point (3).
const cancelPollInterval = 8192

// eventKind distinguishes the two things a machine can emit per rune.
type eventKind int

const (
	eventRecord eventKind = iota
	eventFault
)

// event is one emission from the machine: either a completed Record or
// an ingest.Fault, in the order they occurred.
type event struct {
	kind   eventKind
	record Record
	fault  *ingest.Fault
}

// machine is the incremental RFC 4180 state machine. It is fed
// characters a chunk at a time via feed and holds all state persistent
// across chunk boundaries: current state, field accumulator, row
// accumulator, physical line counter, and the suppressLF one-shot flag.
type machine struct {
	opts *Options
	sep  rune

	st    state
	field []rune
	row   []string

	rowDirty bool // true once any char/field has contributed to the in-progress record
	rawLen   int  // raw character count of the in-progress record

	line           int
	recordStartLine int
	suppressLF     bool

	rawIndex int // 1-based raw record counter, including header

	raw *rawCapture

	charsSinceCancelPoll int
}

func newMachine(opts *Options) *machine {
	captureFull := opts.RawRecordObserver != nil
	m := &machine{
		opts:            opts,
		sep:             opts.separatorRune(),
		st:              stateFieldStart,
		line:            1,
		recordStartLine: 1,
		raw:             newRawCapture(captureFull, opts.NormalizeNewlinesInFields && !opts.PreserveLineEndings),
	}
	return m
}

// feed processes chunk, appending every completed Record or Fault to out
// (in emission order) and returns the extended slice. canceled is polled
// every cancelPollInterval characters; if it ever returns true, feed
// appends a single Canceled fault and returns immediately without
// processing the remainder of chunk.
func (m *machine) feed(chunk []rune, out []event, canceled func() bool) []event {
	for i := 0; i < len(chunk); i++ {
		m.charsSinceCancelPoll++
		if m.charsSinceCancelPoll >= cancelPollInterval {
			m.charsSinceCancelPoll = 0
			if canceled != nil && canceled() {
				out = append(out, event{kind: eventFault, fault: m.fault(ingest.KindCanceled, "stream canceled")})
				return out
			}
		}
		out = m.step(chunk[i], out)
	}
	return out
}

// step processes a single rune and appends any resulting events.
func (m *machine) step(c rune, out []event) []event {
	// The one LF that is the second half of a CR the machine already
	// used to terminate a record is fully absorbed: no field commit, no
	// line re-count, no new record.
	if c == '\n' && m.suppressLF && m.st == stateFieldStart && !m.rowDirty {
		m.suppressLF = false
		m.raw.append(c, false)
		return out
	}
	// The one-shot only covers the character right after a CR.
	if c != '\n' {
		m.suppressLF = false
	}

	m.rawLen++
	switch m.st {
	case stateFieldStart:
		return m.stepFieldStart(c, out)
	case stateInUnquoted:
		return m.stepInUnquoted(c, out)
	case stateInQuoted:
		return m.stepInQuoted(c, out)
	case statePendingQuote:
		return m.stepPendingQuote(c, out)
	case stateAfterClosingQuote:
		return m.stepAfterClosingQuote(c, out)
	default:
		return out
	}
}

func (m *machine) stepFieldStart(c rune, out []event) []event {
	switch {
	case c == '"':
		m.raw.append(c, true)
		m.st = stateInQuoted
		m.rowDirty = true
	case c == m.sep:
		m.raw.append(c, false)
		m.commitField()
	case c == '\r' || c == '\n':
		m.raw.append(c, false)
		m.commitField()
		return m.terminate(c, out)
	default:
		m.raw.append(c, false)
		m.field = append(m.field, c)
		m.rowDirty = true
		m.st = stateInUnquoted
	}
	return out
}

func (m *machine) stepInUnquoted(c rune, out []event) []event {
	switch {
	case c == '"':
		switch m.opts.QuoteMode {
		case QuoteLenient:
			m.raw.append(c, false)
			m.st = stateInQuoted
		case QuoteErrorOnIllegal:
			m.raw.append(c, false)
			out = append(out, event{kind: eventFault, fault: m.fault(ingest.KindQuoteError, "illegal quote in unquoted field")})
		default: // QuoteStrict
			m.raw.append(c, false)
			m.field = append(m.field, c)
			out = append(out, event{kind: eventFault, fault: m.fault(ingest.KindQuoteError, "illegal quote in unquoted field")})
		}
	case c == m.sep:
		m.raw.append(c, false)
		m.commitField()
	case c == '\r' || c == '\n':
		m.raw.append(c, false)
		m.commitField()
		return m.terminate(c, out)
	default:
		m.raw.append(c, false)
		m.field = append(m.field, c)
	}
	return out
}

func (m *machine) stepInQuoted(c rune, out []event) []event {
	switch {
	case c == '"':
		m.raw.append(c, true)
		m.st = statePendingQuote
	case c == '\r' || c == '\n':
		m.raw.append(c, true)
		m.field = append(m.field, c)
		m.countLine(c)
	default:
		m.raw.append(c, true)
		m.field = append(m.field, c)
	}
	return out
}

func (m *machine) stepPendingQuote(c rune, out []event) []event {
	if c == '"' {
		m.raw.append(c, true)
		m.field = append(m.field, '"')
		m.st = stateInQuoted
		return out
	}
	m.st = stateAfterClosingQuote
	return m.stepAfterClosingQuote(c, out)
}

func (m *machine) stepAfterClosingQuote(c rune, out []event) []event {
	switch {
	case c == m.sep:
		m.raw.append(c, false)
		m.commitField()
	case c == '\r' || c == '\n':
		m.raw.append(c, false)
		m.commitField()
		return m.terminate(c, out)
	default:
		m.raw.append(c, false)
		if m.opts.ErrorOnTrailingGarbage {
			out = append(out, event{kind: eventFault, fault: m.fault(ingest.KindQuoteError,
				fmt.Sprintf("trailing garbage after closing quote: %s", ingest.RenderExcerpt(string(c))))})
			// stay in AfterClosingQuote, the offending character is dropped
		} else {
			m.field = append(m.field, c)
			m.st = stateInUnquoted
		}
	}
	return out
}

// commitField appends the current field accumulator to row, applying
// TrimWhitespace, and resets the accumulator.
func (m *machine) commitField() {
	s := string(m.field)
	if m.opts.TrimWhitespace {
		s = strings.TrimSpace(s)
	}
	m.row = append(m.row, s)
	m.field = m.field[:0]
	m.rowDirty = true
}

// terminate finalizes the in-progress record on a CR or LF, appending a
// Record event, and resets all per-record state for the next record.
func (m *machine) terminate(termChar rune, out []event) []event {
	m.countLine(termChar)

	m.rawIndex++
	rec := Record{
		Fields:   m.row,
		Line:     m.recordStartLine,
		rawIndex: m.rawIndex,
		rawLen:   m.rawLen,
		excerpt:  m.raw.Prefix(),
		raw:      m.raw.Full(),
	}
	out = append(out, event{kind: eventRecord, record: rec})

	m.row = nil
	m.field = m.field[:0]
	m.rowDirty = false
	m.rawLen = 0
	m.st = stateFieldStart
	m.recordStartLine = m.line
	m.raw.reset()
	return out
}

// countLine advances the physical line counter for a CR or LF character,
// applying the CRLF-counts-once rule via the suppressLF one-shot flag.
func (m *machine) countLine(c rune) {
	switch c {
	case '\r':
		m.line++
		m.suppressLF = true
	case '\n':
		if m.suppressLF {
			m.suppressLF = false
			return
		}
		m.line++
	}
}

// finalize is called once at end of stream. If the machine is mid-quote
// it raises an unterminated-quote fault; if any unflushed record data
// remains (including a pending ambiguous closing quote), it is flushed
// as a final record.
func (m *machine) finalize(out []event) []event {
	switch m.st {
	case stateInQuoted:
		out = append(out, event{kind: eventFault, fault: m.fault(ingest.KindQuoteError, "unterminated quoted field at EOF")})
		if m.rowDirty || len(m.field) > 0 {
			m.commitField()
			out = m.flushFinal(out)
		}
	case statePendingQuote, stateAfterClosingQuote, stateInUnquoted:
		if m.rowDirty || len(m.field) > 0 {
			m.commitField()
			out = m.flushFinal(out)
		}
	case stateFieldStart:
		if m.rowDirty {
			out = m.flushFinal(out)
		}
	}
	return out
}

func (m *machine) flushFinal(out []event) []event {
	m.rawIndex++
	rec := Record{
		Fields:   m.row,
		Line:     m.recordStartLine,
		rawIndex: m.rawIndex,
		rawLen:   m.rawLen,
		excerpt:  m.raw.Prefix(),
		raw:      m.raw.Full(),
	}
	m.row = nil
	m.rowDirty = false
	m.rawLen = 0
	return append(out, event{kind: eventRecord, record: rec})
}

// fault builds an ingest.Fault stamped with this machine's current
// position and the record's raw excerpt.
func (m *machine) fault(kind ingest.Kind, msg string) *ingest.Fault {
	return &ingest.Fault{
		Reader:  m.opts.ReaderID,
		Line:    m.line,
		Record:  m.rawIndex + 1,
		Kind:    kind,
		Message: msg,
		Excerpt: ingest.RenderExcerpt(m.raw.Prefix()),
		At:      time.Now(),
	}
}
