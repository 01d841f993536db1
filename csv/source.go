package csv

import (
	"bufio"
	"io"
)

// A CharSource is the input contract from §6: a character source with a
// single primitive, read(dest) -> count, returning 0 at end of stream.
// The decoder upstream owns byte-to-character conversion; CharSource
// already deals in decoded runes, not raw bytes.
type CharSource interface {
	Read(dest []rune) (int, error)
}

// RuneSource adapts a UTF-8 io.Reader into a CharSource, decoding bytes
// to runes with a bufio.Reader. This is the concrete "decoder upstream"
// for the common case of a UTF-8 byte stream; callers decoding another
// encoding supply their own CharSource.
func RuneSource(r io.Reader) CharSource {
	return &runeSource{br: bufio.NewReader(r)}
}

type runeSource struct {
	br *bufio.Reader
}

// Read fills dest with up to len(dest) decoded runes, returning the
// count read and any error from the underlying reader (io.EOF included).
func (s *runeSource) Read(dest []rune) (int, error) {
	for i := range dest {
		r, _, err := s.br.ReadRune()
		if err != nil {
			return i, err
		}
		dest[i] = r
	}
	return len(dest), nil
}
