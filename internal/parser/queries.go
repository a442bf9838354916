package parser

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rsvihladremio/dqd-sub002/internal/models"
)

// ParseQueries parses queries.json. Both a JSON array of records and a
// stream of concatenated (usually one per line) objects are accepted.
func ParseQueries(r io.Reader) ([]models.QueryRecord, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read queries: %w", err)
	}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	isArray := trimmed[0] == '['
	if isArray {
		if _, err := dec.Token(); err != nil {
			return nil, malformed(QueriesParser, 1, firstLine(data), err)
		}
	}

	var records []models.QueryRecord
	for dec.More() {
		offset := valueStart(data, dec.InputOffset())
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, malformedAt(data, offset, err)
		}
		if v := bytes.TrimSpace(raw); len(v) == 0 || v[0] != '{' {
			return nil, malformedAt(data, offset, ErrNotObject)
		}
		var q models.QueryRecord
		if err := json.Unmarshal(raw, &q); err != nil {
			return nil, malformedAt(data, offset, err)
		}
		records = append(records, q)
	}

	if isArray {
		offset := valueStart(data, dec.InputOffset())
		if _, err := dec.Token(); err != nil {
			return nil, malformedAt(data, offset, err)
		}
		if _, err := dec.Token(); !errors.Is(err, io.EOF) {
			return nil, malformedAt(data, valueStart(data, dec.InputOffset()), errors.New("trailing data after array"))
		}
	}
	return records, nil
}

// valueStart skips separators so offset points at the next value.
func valueStart(data []byte, offset int64) int {
	i := int(offset)
	for i < len(data) {
		switch data[i] {
		case ' ', '\t', '\r', '\n', ',':
			i++
		default:
			return i
		}
	}
	return i
}

func malformedAt(data []byte, offset int, err error) error {
	if offset > len(data) {
		offset = len(data)
	}
	lineNo := bytes.Count(data[:offset], []byte("\n")) + 1
	start := bytes.LastIndexByte(data[:offset], '\n') + 1
	end := bytes.IndexByte(data[offset:], '\n')
	if end < 0 {
		end = len(data)
	} else {
		end += offset
	}
	return malformed(QueriesParser, lineNo, strings.TrimSpace(string(data[start:end])), err)
}

func firstLine(data []byte) string {
	line, _, _ := bytes.Cut(data, []byte("\n"))
	return strings.TrimSpace(string(line))
}
