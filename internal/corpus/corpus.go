// Package corpus parses perft test-vector files.
//
// A corpus is a line-oriented text file, one test vector per line:
//
//	<position>;D<depth> <count>;D<depth> <count>;...
//
// The position is an opaque token handed verbatim to the engine under test
// (typically a FEN string). Each following field pairs a depth, prefixed with
// a single marker character, with the expected node count at that depth.
// This is the format of the Ethereal standard.epd corpus and its derivatives.
//
// Parsing is all-or-nothing per line: a line with any malformed field yields
// a ParseError and zero vectors, never a partially populated vector.
package corpus

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// DefaultMarker is the depth-prefix character used by the standard corpora.
const DefaultMarker = 'D'

// Expectation pairs a search depth with the expected perft node count.
type Expectation struct {
	Depth int
	Nodes uint64
}

// TestVector is one parsed corpus line: a position and its expectations,
// in the order they appear on the line.
type TestVector struct {
	Position     string
	Expectations []Expectation
}

// ParseError reports a rejected corpus line.
//
// The whole line is rejected on the first malformed field; Line carries the
// raw text so the caller can identify it in its report.
type ParseError struct {
	LineNum int    // 1-based line number, 0 if unknown
	Line    string // raw line text
	Reason  string
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.LineNum > 0 {
		return fmt.Sprintf("line %d: %s: %q", e.LineNum, e.Reason, e.Line)
	}
	return fmt.Sprintf("%s: %q", e.Reason, e.Line)
}

// ParseLine parses one corpus line into a TestVector.
//
// marker is the depth-prefix character (DefaultMarker for standard corpora).
// Returns a *ParseError if any field is malformed; the returned vector is
// only valid when the error is nil.
func ParseLine(line string, marker byte) (TestVector, error) {
	fail := func(reason string) (TestVector, error) {
		return TestVector{}, &ParseError{Line: line, Reason: reason}
	}

	fields := strings.Split(line, ";")
	position := strings.TrimSpace(fields[0])
	if position == "" {
		return fail("empty position")
	}
	if len(fields) < 2 {
		return fail("no expectations")
	}

	expectations := make([]Expectation, 0, len(fields)-1)
	for _, field := range fields[1:] {
		tokens := strings.Fields(field)
		if len(tokens) != 2 {
			return fail(fmt.Sprintf("expectation %q: want 2 tokens, got %d", strings.TrimSpace(field), len(tokens)))
		}

		depthTok, countTok := tokens[0], tokens[1]
		if len(depthTok) < 2 || depthTok[0] != marker {
			return fail(fmt.Sprintf("depth token %q: missing %q marker", depthTok, string(marker)))
		}
		depth, err := strconv.Atoi(depthTok[1:])
		if err != nil || depth < 1 {
			return fail(fmt.Sprintf("depth token %q: not a positive integer", depthTok))
		}

		nodes, err := strconv.ParseUint(countTok, 10, 64)
		if err != nil {
			return fail(fmt.Sprintf("count token %q: not a non-negative integer", countTok))
		}

		expectations = append(expectations, Expectation{Depth: depth, Nodes: nodes})
	}

	return TestVector{Position: position, Expectations: expectations}, nil
}

// Reader iterates over the test vectors of a line-oriented corpus stream.
//
// Blank lines are skipped silently. Malformed lines surface as *ParseError
// from Next; the caller may log and keep iterating, a parse error does not
// terminate the stream.
type Reader struct {
	scanner *bufio.Scanner
	marker  byte
	lineNum int
}

// NewReader creates a Reader over r using the default depth marker.
func NewReader(r io.Reader) *Reader {
	return NewReaderMarker(r, DefaultMarker)
}

// NewReaderMarker creates a Reader over r with a custom depth marker.
func NewReaderMarker(r io.Reader, marker byte) *Reader {
	return &Reader{scanner: bufio.NewScanner(r), marker: marker}
}

// Next returns the next test vector in the stream.
//
// Returns io.EOF when the stream is exhausted, a *ParseError for a malformed
// line, or the underlying read error. After a *ParseError the Reader remains
// usable and positioned at the following line.
func (r *Reader) Next() (TestVector, error) {
	for r.scanner.Scan() {
		r.lineNum++
		line := r.scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}

		vec, err := ParseLine(line, r.marker)
		if err != nil {
			err.(*ParseError).LineNum = r.lineNum
			return TestVector{}, err
		}
		return vec, nil
	}

	if err := r.scanner.Err(); err != nil {
		return TestVector{}, fmt.Errorf("read corpus: %w", err)
	}
	return TestVector{}, io.EOF
}
