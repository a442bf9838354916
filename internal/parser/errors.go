package parser

import (
	"errors"
	"fmt"
)

const (
	TopParser     = "top"
	IostatParser  = "iostat"
	QueriesParser = "queries"
)

var (
	ErrTooFewFields = errors.New("too few fields")
	ErrFieldCount   = errors.New("field count does not match header")
	ErrNotObject    = errors.New("record is not a JSON object")
)

// MalformedRecordError is returned when a line was recognized as part of a
// known section but could not be parsed. It aborts the whole parse.
type MalformedRecordError struct {
	Parser     string
	LineNumber int
	Line       string
	Err        error
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("%s: malformed record at line %d %q: %v", e.Parser, e.LineNumber, e.Line, e.Err)
}

func (e *MalformedRecordError) Unwrap() error {
	return e.Err
}

func malformed(parser string, lineNo int, line string, err error) error {
	return &MalformedRecordError{Parser: parser, LineNumber: lineNo, Line: line, Err: err}
}
