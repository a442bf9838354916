package pipeline

import (
	"io"

	"github.com/rsvihladremio/dqd-sub002/internal/analysis"
	"github.com/rsvihladremio/dqd-sub002/internal/human"
	"github.com/rsvihladremio/dqd-sub002/internal/models"
	"github.com/rsvihladremio/dqd-sub002/internal/parser"
	"github.com/rsvihladremio/dqd-sub002/internal/report"
)

var DeviceStatColumns = []string{
	"Device", "Samples", "Avg Reads/s", "Avg Writes/s", "Peak Read", "Peak Write",
	"Peak Await", "Peak Queue Size", "Peak Util",
}

type deviceSeries struct {
	x        []string
	queue    []float64
	util     []float64
	reads    float64
	writes   float64
	readKB   float64
	writeKB  float64
	await    float64
	maxQueue float64
	maxUtil  float64
}

func (d *deviceSeries) add(label string, s models.DeviceStat) {
	d.x = append(d.x, label)
	d.queue = append(d.queue, s.QueueSize)
	d.util = append(d.util, s.Util)
	d.reads += s.ReadsPerSec
	d.writes += s.WritesPerSec
	d.readKB = max(d.readKB, s.ReadKBPerSec)
	d.writeKB = max(d.writeKB, s.WriteKBPerSec)
	d.await = max(d.await, s.Await)
	d.maxQueue = max(d.maxQueue, s.QueueSize)
	d.maxUtil = max(d.maxUtil, s.Util)
}

func buildIostat(r io.Reader, opts Options) (report.Document, int, error) {
	samples, err := parser.ParseIostat(r)
	if err != nil {
		return report.Document{}, 0, err
	}
	disk := analysis.AnalyzeDisk(samples)

	series := make(map[string]*deviceSeries, len(disk.Devices))
	for _, name := range disk.Devices {
		series[name] = &deviceSeries{}
	}
	axis := newTimeAxis()
	for i, s := range samples {
		label := axis.add(i, s.Time)
		for _, d := range s.Devices {
			series[d.Name].add(label, d)
		}
	}

	items := []report.SummaryItem{
		{Label: "Samples", Value: human.Count(int64(disk.Samples))},
		{Label: "Devices", Value: human.Count(int64(len(disk.Devices)))},
	}
	if disk.Peaks.Found {
		items = append(items,
			report.SummaryItem{Label: "Max iowait", Value: human.Percent(disk.Peaks.IOWait).Text + " at " + timeLabel(disk.Peaks.IOWaitAt)},
		)
	}
	if disk.Peaks.QueueDevice != "" {
		items = append(items,
			report.SummaryItem{Label: "Max queue size", Value: human.Number(disk.Peaks.QueueSize).Text + " on " + disk.Peaks.QueueDevice + " at " + timeLabel(disk.Peaks.QueueAt)},
		)
	}

	var queue, util []report.Trace
	rows := make([][]models.DisplayValue, 0, len(disk.Devices))
	for _, name := range disk.Devices {
		d := series[name]
		queue = append(queue, report.Trace{Name: name, X: d.x, Y: d.queue})
		util = append(util, report.Trace{Name: name, X: d.x, Y: d.util})

		n := float64(len(d.x))
		readBytes := human.Bytes(d.readKB * 1000)
		readBytes.Text += "/s"
		writeBytes := human.Bytes(d.writeKB * 1000)
		writeBytes.Text += "/s"
		rows = append(rows, []models.DisplayValue{
			models.TextValue(name),
			models.NumericValue(human.Count(int64(len(d.x))), n),
			human.Number(d.reads / n),
			human.Number(d.writes / n),
			readBytes,
			writeBytes,
			human.Duration(d.await),
			human.Number(d.maxQueue),
			human.Percent(d.maxUtil),
		})
	}

	doc := report.Document{Title: opts.title(KindIostat)}
	doc.Sections = append(doc.Sections,
		report.SummarySection("diskSummary", "Disk Summary", items, disk.Observations),
		report.ChartSection("iostatCpu", "CPU Breakdown", "%", axis.labels, iostatCPUTraces(samples, axis)),
		report.ChartSection("queueSize", "Average Queue Size", "requests", axis.labels, queue),
		report.ChartSection("diskUtil", "Device Utilization", "%", axis.labels, util),
		report.TableSection("deviceStats", "Device Statistics", DeviceStatColumns, rows),
	)
	return doc, len(samples), nil
}

func iostatCPUTraces(samples []models.DiskSample, axis *timeAxis) []report.Trace {
	fields := []struct {
		name string
		get  func(models.DiskSample) float64
	}{
		{"user", func(s models.DiskSample) float64 { return s.User }},
		{"system", func(s models.DiskSample) float64 { return s.System }},
		{"nice", func(s models.DiskSample) float64 { return s.Nice }},
		{"iowait", func(s models.DiskSample) float64 { return s.IOWait }},
		{"steal", func(s models.DiskSample) float64 { return s.Steal }},
		{"idle", func(s models.DiskSample) float64 { return s.Idle }},
	}
	x := make([]string, len(samples))
	for i := range samples {
		x[i] = axis.label(i)
	}
	traces := make([]report.Trace, 0, len(fields))
	for _, f := range fields {
		y := make([]float64, len(samples))
		for i, s := range samples {
			y[i] = f.get(s)
		}
		traces = append(traces, report.Trace{Name: f.name, X: x, Y: y})
	}
	return traces
}
