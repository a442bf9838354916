package parser

import (
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/rsvihladremio/dqd-sub002/internal/models"
)

const (
	topHeaderPrefix = "top - "
	topCPUPrefix    = "%Cpu(s):"
)

// Field positions in a process table row:
// PID USER PR NI VIRT RES SHR S %CPU %MEM TIME+ COMMAND
const (
	topPIDField     = 0
	topCPUField     = 8
	topCommandField = 11
)

// Field positions in the CPU line once the label is split off:
// %Cpu(s): 75.3 us, 3.2 sy, 0.0 ni, 20.4 id, 0.0 wa, 0.0 hi, 1.0 si, 0.0 st
const (
	cpuUserField   = 1
	cpuSystemField = 3
	cpuNiceField   = 5
	cpuIdleField   = 7
	cpuIOWaitField = 9
	cpuStealField  = 15
	cpuFieldCount  = 16
)

// ClassifyTopLine classifies a line of top batch output given the current
// parser state. Inside a table any line starting with an integer is a row.
func ClassifyTopLine(inTableSection bool, line string) LineKind {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Blank
	}
	if inTableSection && isInteger(fields[0]) {
		return TableRow
	}
	switch {
	case strings.HasPrefix(line, topHeaderPrefix):
		return Header
	case strings.HasPrefix(line, topCPUPrefix):
		return CPU
	case fields[0] == "PID" && slices.Contains(fields, "%CPU"):
		return TableHeader
	}
	return Unrecognized
}

// ParseTop parses `top -b` output (optionally with -H for threads) into CPU
// samples and per-identity usage rows, in input order.
func ParseTop(r io.Reader) (models.TopDump, error) {
	var dump models.TopDump
	var blockTime time.Time
	block := 0
	st := scanning
	skipped := 0
	lineNo := 0

	scanner := newScanner(r)
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		kind := ClassifyTopLine(st == inTable, line)
		st = next(st, kind)

		switch kind {
		case Header:
			t, err := parseTopTime(line)
			if err != nil {
				return models.TopDump{}, malformed(TopParser, lineNo, line, err)
			}
			blockTime = t
			block++
		case CPU:
			sample, err := parseCPULine(line)
			if err != nil {
				return models.TopDump{}, malformed(TopParser, lineNo, line, err)
			}
			sample.Time = blockTime
			sample.Block = block
			dump.CPU = append(dump.CPU, sample)
		case TableRow:
			sample, err := parseUsageRow(line)
			if err != nil {
				return models.TopDump{}, malformed(TopParser, lineNo, line, err)
			}
			sample.Time = blockTime
			sample.Block = block
			dump.Identities = append(dump.Identities, sample)
		case Unrecognized:
			skipped++
		}
	}
	if err := scanner.Err(); err != nil {
		return models.TopDump{}, fmt.Errorf("failed to read top output: %w", err)
	}
	logSkipped(TopParser, skipped)
	return dump, nil
}

// parseTopTime reads the clock from "top - 12:00:01 up 3 days, ...".
func parseTopTime(line string) (time.Time, error) {
	fields := strings.Fields(line)
	if len(fields) < 3 {
		return time.Time{}, ErrTooFewFields
	}
	t, err := time.Parse("15:04:05", fields[2])
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp: %w", err)
	}
	return t, nil
}

func parseCPULine(line string) (models.CpuSample, error) {
	// top omits the space after the label when user time reaches 100.0
	line = strings.Replace(line, topCPUPrefix, topCPUPrefix+" ", 1)
	fields := strings.Fields(line)
	if len(fields) < cpuFieldCount {
		return models.CpuSample{}, ErrTooFewFields
	}

	var sample models.CpuSample
	targets := []struct {
		field int
		dst   *float64
	}{
		{cpuUserField, &sample.User},
		{cpuSystemField, &sample.System},
		{cpuNiceField, &sample.Nice},
		{cpuIdleField, &sample.Idle},
		{cpuIOWaitField, &sample.IOWait},
		{cpuStealField, &sample.Steal},
	}
	for _, tgt := range targets {
		v, err := strconv.ParseFloat(fields[tgt.field], 64)
		if err != nil {
			return models.CpuSample{}, fmt.Errorf("field %d: %w", tgt.field, err)
		}
		*tgt.dst = v
	}
	return sample, nil
}

func parseUsageRow(line string) (models.IdentitySample, error) {
	fields := strings.Fields(line)
	if len(fields) <= topCommandField {
		return models.IdentitySample{}, ErrTooFewFields
	}
	cpu, err := strconv.ParseFloat(fields[topCPUField], 64)
	if err != nil {
		return models.IdentitySample{}, fmt.Errorf("%%CPU: %w", err)
	}
	return models.IdentitySample{
		ID:      fields[topPIDField],
		CPU:     cpu,
		Command: strings.Join(fields[topCommandField:], " "),
	}, nil
}
