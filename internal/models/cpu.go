package models

import "time"

// CpuSample is the CPU breakdown line of one sampler block. Values are taken
// as printed by the tool and are not normalized. Block is the 1-based index of
// the sampler header the line followed.
type CpuSample struct {
	Time   time.Time `json:"time"`
	Block  int       `json:"block"`
	User   float64   `json:"user"`
	System float64   `json:"system"`
	Nice   float64   `json:"nice"`
	Idle   float64   `json:"idle"`
	IOWait float64   `json:"iowait"`
	Steal  float64   `json:"steal"`
}

// IdentitySample is a single process or thread row from a sampler table.
type IdentitySample struct {
	Time    time.Time `json:"time"`
	Block   int       `json:"block"`
	ID      string    `json:"id"`
	CPU     float64   `json:"cpu"`
	Command string    `json:"command"`
}

// TopDump holds everything parsed from a top batch capture, in input order.
type TopDump struct {
	CPU        []CpuSample
	Identities []IdentitySample
}
