package models

import "time"

// DiskSample is one iostat report: the avg-cpu line plus the device table
// that follows it.
type DiskSample struct {
	Time    time.Time    `json:"time"`
	User    float64      `json:"user"`
	Nice    float64      `json:"nice"`
	System  float64      `json:"system"`
	IOWait  float64      `json:"iowait"`
	Steal   float64      `json:"steal"`
	Idle    float64      `json:"idle"`
	Devices []DeviceStat `json:"devices"`
}

// DeviceStat represents one row of the iostat device table.
type DeviceStat struct {
	Name          string  `json:"name"`
	ReadsPerSec   float64 `json:"reads_per_sec"`
	WritesPerSec  float64 `json:"writes_per_sec"`
	ReadKBPerSec  float64 `json:"read_kb_per_sec"`
	WriteKBPerSec float64 `json:"write_kb_per_sec"`
	Await         float64 `json:"await"`
	QueueSize     float64 `json:"queue_size"`
	Util          float64 `json:"util"`
}
