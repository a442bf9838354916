package analysis

import (
	"fmt"
	"time"

	"github.com/rsvihladremio/dqd-sub002/internal/human"
	"github.com/rsvihladremio/dqd-sub002/internal/models"
)

const saturatedUtil = 90.0

// DiskPeaks records where the series peaked. Ties keep the earliest sample.
type DiskPeaks struct {
	Found       bool
	IOWait      float64
	IOWaitAt    time.Time
	QueueSize   float64
	QueueDevice string
	QueueAt     time.Time
}

// FindDiskPeaks returns the maximum iowait and average queue size across the
// series. Found is false when there are no samples.
func FindDiskPeaks(samples []models.DiskSample) DiskPeaks {
	var peaks DiskPeaks
	for _, s := range samples {
		if !peaks.Found || s.IOWait > peaks.IOWait {
			peaks.IOWait = s.IOWait
			peaks.IOWaitAt = s.Time
		}
		for _, d := range s.Devices {
			if peaks.QueueDevice == "" || d.QueueSize > peaks.QueueSize {
				peaks.QueueSize = d.QueueSize
				peaks.QueueDevice = d.Name
				peaks.QueueAt = s.Time
			}
		}
		peaks.Found = true
	}
	return peaks
}

// DiskReport holds the aggregate view of an iostat series.
type DiskReport struct {
	Samples      int
	Devices      []string
	Peaks        DiskPeaks
	Observations []string
}

// AnalyzeDisk summarizes an iostat series. Devices are listed in first-seen
// order.
func AnalyzeDisk(samples []models.DiskSample) DiskReport {
	report := DiskReport{
		Samples:      len(samples),
		Peaks:        FindDiskPeaks(samples),
		Observations: []string{},
	}

	seen := make(map[string]bool)
	saturated := make(map[string]bool)
	for _, s := range samples {
		for _, d := range s.Devices {
			if !seen[d.Name] {
				seen[d.Name] = true
				report.Devices = append(report.Devices, d.Name)
			}
			if d.Util > saturatedUtil && !saturated[d.Name] {
				saturated[d.Name] = true
				report.Observations = append(report.Observations,
					fmt.Sprintf("Device %s exceeded %.0f%% utilization (%s%%).", d.Name, saturatedUtil, human.Fixed2(d.Util)))
			}
		}
	}
	return report
}
