package parser

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/rsvihladremio/dqd-sub002/internal/models"
)

const iostatCPUHeader = "avg-cpu:"

// iostat -t prints the report time in the locale of the collecting host.
var iostatTimeLayouts = []string{
	"01/02/2006 03:04:05 PM",
	"01/02/06 03:04:05 PM",
	"01/02/2006 15:04:05",
	"01/02/06 15:04:05",
	"2006-01-02T15:04:05Z0700",
	"2006-01-02 15:04:05",
}

// avg-cpu value row: %user %nice %system %iowait %steal %idle
const iostatCPUFieldCount = 6

// IostatTable is the table an iostat line is read inside of.
type IostatTable int

const (
	NoTable IostatTable = iota
	CPUTable
	DeviceTable
)

// deviceColumns maps the columns of a Device header to their positions.
type deviceColumns struct {
	count   int
	index   map[string]int
	hasWait bool
}

func newDeviceColumns(fields []string) deviceColumns {
	cols := deviceColumns{count: len(fields), index: make(map[string]int, len(fields))}
	for i, f := range fields {
		cols.index[f] = i
	}
	_, cols.hasWait = cols.index["await"]
	return cols
}

func (c deviceColumns) value(fields []string, names ...string) (float64, bool, error) {
	for _, name := range names {
		i, ok := c.index[name]
		if !ok {
			continue
		}
		v, err := strconv.ParseFloat(fields[i], 64)
		if err != nil {
			return 0, false, fmt.Errorf("%s: %w", name, err)
		}
		return v, true, nil
	}
	return 0, false, nil
}

func (c deviceColumns) parse(fields []string) (models.DeviceStat, error) {
	if len(fields) != c.count {
		return models.DeviceStat{}, ErrFieldCount
	}
	stat := models.DeviceStat{Name: fields[0]}
	targets := []struct {
		dst   *float64
		names []string
	}{
		{&stat.ReadsPerSec, []string{"r/s"}},
		{&stat.WritesPerSec, []string{"w/s"}},
		{&stat.ReadKBPerSec, []string{"rkB/s"}},
		{&stat.WriteKBPerSec, []string{"wkB/s"}},
		{&stat.QueueSize, []string{"aqu-sz", "avgqu-sz"}},
		{&stat.Util, []string{"%util"}},
	}
	for _, tgt := range targets {
		v, _, err := c.value(fields, tgt.names...)
		if err != nil {
			return models.DeviceStat{}, err
		}
		*tgt.dst = v
	}

	if c.hasWait {
		v, _, err := c.value(fields, "await")
		if err != nil {
			return models.DeviceStat{}, err
		}
		stat.Await = v
		return stat, nil
	}
	// sysstat 12 splits await into read and write halves
	var sum float64
	var n int
	for _, name := range []string{"r_await", "w_await"} {
		v, ok, err := c.value(fields, name)
		if err != nil {
			return models.DeviceStat{}, err
		}
		if ok {
			sum += v
			n++
		}
	}
	if n > 0 {
		stat.Await = sum / float64(n)
	}
	return stat, nil
}

// ClassifyIostatLine classifies a line of iostat output. Inside the avg-cpu
// table a row starts with a number; inside the device table any line that is
// not itself a header is a row.
func ClassifyIostatLine(table IostatTable, line string) LineKind {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Blank
	}
	if _, ok := parseIostatTime(line); ok {
		return Header
	}
	if fields[0] == iostatCPUHeader || fields[0] == "Device" || fields[0] == "Device:" {
		return TableHeader
	}
	switch table {
	case CPUTable:
		if isNumber(fields[0]) {
			return TableRow
		}
	case DeviceTable:
		return TableRow
	}
	return Unrecognized
}

func parseIostatTime(line string) (time.Time, bool) {
	line = strings.TrimSpace(line)
	if line == "" || line[0] < '0' || line[0] > '9' {
		return time.Time{}, false
	}
	for _, layout := range iostatTimeLayouts {
		if t, err := time.Parse(layout, line); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// diskBuilder accumulates one report until the next one starts.
type diskBuilder struct {
	samples []models.DiskSample
	current *models.DiskSample
	cpuSeen bool
	devSeen bool
}

func (b *diskBuilder) start(t time.Time) {
	b.flush()
	b.current = &models.DiskSample{Time: t}
	b.cpuSeen, b.devSeen = false, false
}

func (b *diskBuilder) flush() {
	if b.current != nil {
		b.samples = append(b.samples, *b.current)
		b.current = nil
	}
}

// ParseIostat parses `iostat -x -c -t` output. Each avg-cpu block and the
// device table after it become one DiskSample.
func ParseIostat(r io.Reader) ([]models.DiskSample, error) {
	var b diskBuilder
	var cols deviceColumns
	st := scanning
	table := NoTable
	skipped := 0
	lineNo := 0

	scanner := newScanner(r)
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		kind := ClassifyIostatLine(table, line)
		st = next(st, kind)
		if st == scanning {
			table = NoTable
		}

		switch kind {
		case Header:
			t, _ := parseIostatTime(line)
			b.start(t)
		case TableHeader:
			fields := strings.Fields(line)
			if fields[0] == iostatCPUHeader {
				if b.current == nil || b.cpuSeen {
					b.start(time.Time{})
				}
				b.cpuSeen = true
				table = CPUTable
				continue
			}
			if b.current == nil || b.devSeen {
				b.start(time.Time{})
			}
			b.devSeen = true
			cols = newDeviceColumns(fields)
			table = DeviceTable
		case TableRow:
			fields := strings.Fields(line)
			if table == CPUTable {
				if err := parseIostatCPU(fields, b.current); err != nil {
					return nil, malformed(IostatParser, lineNo, line, err)
				}
				continue
			}
			stat, err := cols.parse(fields)
			if err != nil {
				return nil, malformed(IostatParser, lineNo, line, err)
			}
			b.current.Devices = append(b.current.Devices, stat)
		case Unrecognized:
			skipped++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read iostat output: %w", err)
	}
	b.flush()
	logSkipped(IostatParser, skipped)
	return b.samples, nil
}

func parseIostatCPU(fields []string, sample *models.DiskSample) error {
	if len(fields) < iostatCPUFieldCount {
		return ErrTooFewFields
	}
	dst := []*float64{&sample.User, &sample.Nice, &sample.System, &sample.IOWait, &sample.Steal, &sample.Idle}
	for i, d := range dst {
		v, err := strconv.ParseFloat(fields[i], 64)
		if err != nil {
			return fmt.Errorf("field %d: %w", i, err)
		}
		*d = v
	}
	return nil
}
