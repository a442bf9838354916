package analysis

import (
	"fmt"

	"github.com/rsvihladremio/dqd-sub002/internal/human"
	"github.com/rsvihladremio/dqd-sub002/internal/models"
)

// BottleneckThreshold is the busy percentage a sample must exceed to count
// as a bottleneck.
const BottleneckThreshold = 50.0

const highStealThreshold = 10.0

// Busy is the share of CPU spent on work: user + system + steal + nice.
func Busy(s models.CpuSample) float64 {
	return s.User + s.System + s.Steal + s.Nice
}

func IsBottleneck(s models.CpuSample) bool {
	return Busy(s) > BottleneckThreshold
}

// BottleneckRatio returns the percentage of bottleneck samples rounded
// half-up to two decimals. It is zero for an empty series.
func BottleneckRatio(samples []models.CpuSample) float64 {
	if len(samples) == 0 {
		return 0
	}
	count := 0
	for _, s := range samples {
		if IsBottleneck(s) {
			count++
		}
	}
	return human.Round2(100 * float64(count) / float64(len(samples)))
}

// BottleneckPercentage renders BottleneckRatio with a trailing percent sign.
func BottleneckPercentage(samples []models.CpuSample) string {
	return human.Fixed2(BottleneckRatio(samples)) + "%"
}

// CPUReport holds the aggregate view of a CPU sample series.
type CPUReport struct {
	Samples           int
	BottleneckSamples int
	BottleneckPercent string
	MaxBusy           float64
	P95Busy           float64
	MaxSteal          float64
	MaxIOWait         float64
	Observations      []string
}

// AnalyzeCPU summarizes a CPU series. Ordering of samples does not affect
// any of the aggregates.
func AnalyzeCPU(samples []models.CpuSample) CPUReport {
	report := CPUReport{
		Samples:           len(samples),
		BottleneckPercent: BottleneckPercentage(samples),
		Observations:      []string{},
	}
	if len(samples) == 0 {
		return report
	}

	busy := make([]float64, 0, len(samples))
	for _, s := range samples {
		b := Busy(s)
		busy = append(busy, b)
		if b > BottleneckThreshold {
			report.BottleneckSamples++
		}
		report.MaxBusy = max(report.MaxBusy, b)
		report.MaxSteal = max(report.MaxSteal, s.Steal)
		report.MaxIOWait = max(report.MaxIOWait, s.IOWait)
	}
	report.P95Busy = Percentile(busy, 95)

	if report.BottleneckSamples > 0 {
		report.Observations = append(report.Observations,
			fmt.Sprintf("CPU was more than %.0f%% busy in %s of samples (%d of %d).",
				BottleneckThreshold, report.BottleneckPercent, report.BottleneckSamples, report.Samples))
	}
	if report.MaxSteal > highStealThreshold {
		report.Observations = append(report.Observations,
			fmt.Sprintf("Steal time peaked at %s%%. The hypervisor is taking CPU from this host.", human.Fixed2(report.MaxSteal)))
	}
	return report
}
