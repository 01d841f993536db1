package schema

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/urbint/csvstream"
)

// maxLadderFailures is the per-candidate failure tolerance: a candidate
// is removed from a column's ladder on its second parse failure, per
// §4.5 ("this tolerates a single outlier").
const maxLadderFailures = 2

// candidateSet tracks, for one column during inference, which ladder
// rungs are still viable and how many times each has failed.
type candidateSet struct {
	alive    map[Type]bool
	failures map[Type]int
}

func newCandidateSet() *candidateSet {
	cs := &candidateSet{alive: map[Type]bool{}, failures: map[Type]int{}}
	for _, t := range ladder {
		cs.alive[t] = true
	}
	return cs
}

// eliminateNumeric removes every numeric rung (everything except
// datetime and guid) for the leading-zero and very-long-integer
// preservation rules.
func (cs *candidateSet) eliminateNumeric() {
	for _, t := range []Type{TypeBool, TypeInt32, TypeInt64, TypeDecimal, TypeFloat64} {
		delete(cs.alive, t)
	}
}

// fail records a parse failure for t, removing it from the ladder once
// it has failed twice.
func (cs *candidateSet) fail(t Type) {
	if !cs.alive[t] {
		return
	}
	cs.failures[t]++
	if cs.failures[t] >= maxLadderFailures {
		delete(cs.alive, t)
	}
}

// winner returns the first surviving ladder rung in precedence order,
// or TypeString if none survive.
func (cs *candidateSet) winner() Type {
	for _, t := range ladder {
		if cs.alive[t] {
			return t
		}
	}
	return TypeString
}

// Engine runs the Type Inference Engine over a bounded sample window.
type Engine struct {
	format   ingest.NumericFormat
	leading  bool // PreserveNumericStringsWithLeadingZeros
	largeInt bool // PreserveLargeIntegerStrings
}

// NewEngine builds an Engine with the conversion format and
// leading-zero/large-integer preservation gates from Options.
func NewEngine(format ingest.NumericFormat, preserveLeadingZeros, preserveLargeIntegers bool) *Engine {
	return &Engine{format: format, leading: preserveLeadingZeros, largeInt: preserveLargeIntegers}
}

// Infer narrows names into a Schema, examining up to len(sample) rows
// of sample data (already capped to SchemaInferenceSampleRows by the
// caller). Columns beyond the widest sampled row are string.
func (e *Engine) Infer(names []string, sample [][]string) *Schema {
	sets := make([]*candidateSet, len(names))
	for i := range sets {
		sets[i] = newCandidateSet()
	}

	widest := 0
	for _, row := range sample {
		if len(row) > widest {
			widest = len(row)
		}
		for i := 0; i < len(row) && i < len(sets); i++ {
			e.observe(sets[i], row[i])
		}
	}

	cols := make([]Column, len(names))
	for i, name := range names {
		typ := TypeString
		if i < widest {
			typ = sets[i].winner()
		}
		cols[i] = Column{Name: name, Index: i, Type: typ}
	}
	return &Schema{Columns: cols}
}

// observe folds one cell into cs, per §4.5's per-row, per-column rules.
func (e *Engine) observe(cs *candidateSet, cell string) {
	if strings.TrimSpace(cell) == "" {
		return
	}

	if isAllDigits(cell) {
		if (e.leading && len(cell) > 1 && cell[0] == '0') || (e.largeInt && len(cell) > 18) {
			// The cell is kept as text: drop the numeric rungs, and the
			// datetime and guid rungs with them, so the column is string.
			cs.eliminateNumeric()
			delete(cs.alive, TypeDateTime)
			delete(cs.alive, TypeGUID)
			return
		}
	}

	for _, t := range ladder {
		if !cs.alive[t] {
			continue
		}
		if !e.tryParse(t, cell) {
			cs.fail(t)
		}
	}
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// tryParse reports whether cell can be parsed as t under e's numeric
// format, without producing a value — inference only needs viability.
func (e *Engine) tryParse(t Type, cell string) bool {
	switch t {
	case TypeBool:
		_, err := strconv.ParseBool(cell)
		return err == nil
	case TypeInt32:
		_, err := strconv.ParseInt(normalizeForInt(cell), 10, 32)
		return err == nil
	case TypeInt64:
		_, err := strconv.ParseInt(normalizeForInt(cell), 10, 64)
		return err == nil
	case TypeDecimal:
		norm, ok := NormalizeNumericString(cell)
		if !ok {
			norm = ResolveAmbiguous(cell, e.format)
		}
		_, err := decimal.NewFromString(norm)
		return err == nil
	case TypeFloat64:
		norm, ok := NormalizeNumericString(cell)
		if !ok {
			norm = ResolveAmbiguous(cell, e.format)
		}
		_, err := strconv.ParseFloat(norm, 64)
		return err == nil
	case TypeDateTime:
		_, err := time.Parse(e.format.DateLayout, cell)
		return err == nil
	case TypeGUID:
		_, err := uuid.Parse(cell)
		return err == nil
	default:
		return true
	}
}

// normalizeForInt strips a leading +, since strconv.ParseInt requires a
// bare sign or digits, and the ladder treats "+5" as a viable integer.
func normalizeForInt(s string) string {
	if strings.HasPrefix(s, "+") {
		return s[1:]
	}
	return s
}
