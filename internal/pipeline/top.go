package pipeline

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/rsvihladremio/dqd-sub002/internal/analysis"
	"github.com/rsvihladremio/dqd-sub002/internal/human"
	"github.com/rsvihladremio/dqd-sub002/internal/models"
	"github.com/rsvihladremio/dqd-sub002/internal/parser"
	"github.com/rsvihladremio/dqd-sub002/internal/report"
)

var TopThreadColumns = []string{"Rank", "ID", "Command", "Total CPU", "Samples", "Average CPU", "Peak CPU"}

func buildTop(r io.Reader, opts Options) (report.Document, int, error) {
	dump, err := parser.ParseTop(r)
	if err != nil {
		return report.Document{}, 0, err
	}

	cpu := analysis.AnalyzeCPU(dump.CPU)
	ix := analysis.NewIdentityIndex()
	for _, s := range dump.Identities {
		ix.Add(s)
	}
	top := analysis.TopIdentities(ix.Ranked(), opts.topK())

	times := make(map[int]time.Time)
	for _, s := range dump.CPU {
		times[s.Block] = s.Time
	}
	for _, s := range dump.Identities {
		if _, ok := times[s.Block]; !ok {
			times[s.Block] = s.Time
		}
	}
	axis := blockAxis(times)

	doc := report.Document{
		Title:    opts.title(KindTop),
		Subtitle: fmt.Sprintf("%s samples, %s threads", human.Count(int64(len(dump.CPU))), human.Count(int64(ix.Len()))),
	}
	doc.Sections = append(doc.Sections,
		report.SummarySection("cpuSummary", "CPU Summary", []report.SummaryItem{
			{Label: "Samples", Value: human.Count(int64(cpu.Samples))},
			{Label: "Bottleneck samples", Value: human.Count(int64(cpu.BottleneckSamples))},
			{Label: "Bottleneck percentage", Value: cpu.BottleneckPercent},
			{Label: "Max busy", Value: human.Percent(cpu.MaxBusy).Text},
			{Label: "p95 busy", Value: human.Percent(cpu.P95Busy).Text},
			{Label: "Max steal", Value: human.Percent(cpu.MaxSteal).Text},
			{Label: "Max iowait", Value: human.Percent(cpu.MaxIOWait).Text},
			{Label: "Threads seen", Value: human.Count(int64(ix.Len()))},
		}, cpu.Observations),
		report.ChartSection("cpuUsage", "CPU Usage", "%", axis.labels, cpuTraces(dump.CPU, axis)),
		report.ChartSection("busyCpu", "Busy CPU", "%", axis.labels, busyTraces(dump.CPU, axis)),
		report.ChartSection("threadUsage", "Top Threads Over Time", "% CPU", axis.labels, identityTraces(top, axis)),
		report.TableSection("topThreads", "Top Threads", TopThreadColumns, identityRows(top)),
	)
	return doc, len(dump.CPU) + len(dump.Identities), nil
}

func cpuTraces(samples []models.CpuSample, axis *timeAxis) []report.Trace {
	fields := []struct {
		name string
		get  func(models.CpuSample) float64
	}{
		{"user", func(s models.CpuSample) float64 { return s.User }},
		{"system", func(s models.CpuSample) float64 { return s.System }},
		{"nice", func(s models.CpuSample) float64 { return s.Nice }},
		{"iowait", func(s models.CpuSample) float64 { return s.IOWait }},
		{"steal", func(s models.CpuSample) float64 { return s.Steal }},
		{"idle", func(s models.CpuSample) float64 { return s.Idle }},
	}
	x := make([]string, len(samples))
	for i, s := range samples {
		x[i] = axis.label(s.Block)
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

func busyTraces(samples []models.CpuSample, axis *timeAxis) []report.Trace {
	x := make([]string, len(samples))
	busy := make([]float64, len(samples))
	threshold := make([]float64, len(samples))
	for i, s := range samples {
		x[i] = axis.label(s.Block)
		busy[i] = analysis.Busy(s)
		threshold[i] = analysis.BottleneckThreshold
	}
	return []report.Trace{
		{Name: "busy", X: x, Y: busy},
		{Name: "threshold", X: x, Y: threshold},
	}
}

// identityTraces emits one trace per identity in rank order.
func identityTraces(top []*analysis.IdentityUsage, axis *timeAxis) []report.Trace {
	traces := make([]report.Trace, 0, len(top))
	for _, u := range top {
		t := report.Trace{
			Name: u.ID + " " + u.Command,
			X:    make([]string, len(u.Samples)),
			Y:    make([]float64, len(u.Samples)),
		}
		for i, s := range u.Samples {
			t.X[i] = axis.label(s.Block)
			t.Y[i] = s.CPU
		}
		traces = append(traces, t)
	}
	return traces
}

func identityRows(top []*analysis.IdentityUsage) [][]models.DisplayValue {
	rows := make([][]models.DisplayValue, 0, len(top))
	for i, u := range top {
		peak := 0.0
		for _, s := range u.Samples {
			peak = max(peak, s.CPU)
		}
		n := len(u.Samples)
		rows = append(rows, []models.DisplayValue{
			models.NumericValue(strconv.Itoa(i+1), float64(i+1)),
			models.TextValue(u.ID),
			models.TextValue(u.Command),
			human.Percent(u.Total),
			models.NumericValue(human.Count(int64(n)), float64(n)),
			human.Percent(u.Total / float64(n)),
			human.Percent(peak),
		})
	}
	return rows
}
