// Package csv implements the RFC 4180 parser core: a character-buffer
// pump feeding an incremental state machine, a guard-rail filter, and
// raw-record capture, per the specification's Parser State Machine,
// Character Buffer Pump, and Guard-Rail Filter components.
package csv

const rawPrefixLimit = 128

// A Record is an ordered sequence of Fields plus the logical record
// number (1-based, header excluded) and the physical line number on
// which it started.
type Record struct {
	// Fields holds the decoded field values in column order.
	Fields []string
	// Number is the logical record number: 1-based, excluding the
	// header row when a header is configured.
	Number int
	// Line is the physical line number the record started on.
	Line int
	// rawIndex is the 1-based raw record counter including the header;
	// the Reader uses it to compute Number once it knows whether a
	// header is configured.
	rawIndex int
	// rawLen is the character count of the record's source text,
	// including quotes and separators, for the guard-rail length check.
	rawLen int
	// excerpt is the raw-capture prefix captured at termination time.
	excerpt string
	// raw is the full raw text, set only when a raw observer is installed.
	raw string
}

// rawCapture maintains the two-tier raw-text buffer described in
// §4.3/Raw-Capture Buffer: a fixed 128-char prefix that is always kept
// (for error excerpts), and an optional unbounded full buffer kept only
// when a raw observer is installed. Both reset on every record boundary.
type rawCapture struct {
	prefix    [rawPrefixLimit]rune
	prefixLen int

	full    []rune
	capture bool // whether the full buffer is being maintained this stream

	normalize        bool // collapse CRLF -> LF inside quoted content
	suppressFullLF   bool // one-shot: previous appended rune to full was a normalized CR
}

func newRawCapture(captureFull bool, normalize bool) *rawCapture {
	rc := &rawCapture{capture: captureFull, normalize: normalize}
	if captureFull {
		rc.full = make([]rune, 0, 256)
	}
	return rc
}

// reset clears both buffers for the next record.
func (rc *rawCapture) reset() {
	rc.prefixLen = 0
	if rc.capture {
		rc.full = rc.full[:0]
	}
	rc.suppressFullLF = false
}

// append records a single consumed character. inQuoted tells append
// whether the character is inside an open quoted field, which is the
// only context CRLF normalization applies to.
func (rc *rawCapture) append(c rune, inQuoted bool) {
	if rc.prefixLen < rawPrefixLimit {
		rc.prefix[rc.prefixLen] = c
		rc.prefixLen++
	}
	if !rc.capture {
		return
	}
	if rc.normalize && inQuoted {
		if c == '\r' {
			rc.full = append(rc.full, '\n')
			rc.suppressFullLF = true
			return
		}
		if c == '\n' && rc.suppressFullLF {
			rc.suppressFullLF = false
			return
		}
	}
	rc.suppressFullLF = false
	rc.full = append(rc.full, c)
}

// Prefix returns the always-on excerpt, capped at 128 characters.
func (rc *rawCapture) Prefix() string {
	return string(rc.prefix[:rc.prefixLen])
}

// Full returns the full raw text, or "" if no observer was installed.
func (rc *rawCapture) Full() string {
	if !rc.capture {
		return ""
	}
	return string(rc.full)
}
