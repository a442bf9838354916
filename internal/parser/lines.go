package parser

import (
	"bufio"
	"io"
	"log/slog"
	"strconv"
)

// LineKind is the classification of a single input line.
type LineKind int

const (
	Unrecognized LineKind = iota
	Blank
	Header
	CPU
	TableHeader
	TableRow
)

func (k LineKind) String() string {
	switch k {
	case Blank:
		return "blank"
	case Header:
		return "header"
	case CPU:
		return "cpu"
	case TableHeader:
		return "table-header"
	case TableRow:
		return "table-row"
	default:
		return "unrecognized"
	}
}

// state is the section the parser is currently in.
type state int

const (
	scanning state = iota
	inTable
)

// next is the transition table shared by the line parsers. Only a table
// header enters a table; blank and unrecognized lines leave it.
func next(st state, kind LineKind) state {
	switch kind {
	case TableHeader:
		return inTable
	case TableRow:
		return st
	default:
		return scanning
	}
}

const maxLineSize = 1024 * 1024

// newScanner returns a line scanner that tolerates long command columns.
func newScanner(r io.Reader) *bufio.Scanner {
	scanner := bufio.NewScanner(r)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, maxLineSize)
	return scanner
}

func isInteger(s string) bool {
	_, err := strconv.ParseInt(s, 10, 64)
	return err == nil
}

func isNumber(s string) bool {
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

func logSkipped(parser string, skipped int) {
	if skipped > 0 {
		slog.Debug("Skipped unrecognized lines", "parser", parser, "count", skipped)
	}
}
