package models

import (
	"sync"
)

// BuildProgress tracks how many reports the server has finished building.
// It is updated from the build goroutines and read by HTTP handlers.
type BuildProgress struct {
	mu       sync.RWMutex
	Built    int
	Failed   int
	Total    int
	Status   string
	Finished bool
}

func NewBuildProgress(total int) *BuildProgress {
	return &BuildProgress{
		Total:  total,
		Status: "Building reports...",
	}
}

func (p *BuildProgress) Done(name string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err != nil {
		p.Failed++
		p.Status = "Failed " + name
	} else {
		p.Built++
		p.Status = "Built " + name
	}
}

// Snapshot returns the completion percentage, status and whether Finish was called.
func (p *BuildProgress) Snapshot() (int, string, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	percentage := 0
	if p.Total > 0 {
		percentage = ((p.Built + p.Failed) * 100) / p.Total
	}
	return percentage, p.Status, p.Finished
}

func (p *BuildProgress) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Finished = true
	if p.Failed > 0 {
		p.Status = "Complete with errors"
		return
	}
	p.Status = "Complete"
}

// Reset starts a new round of total builds.
func (p *BuildProgress) Reset(total int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Built, p.Failed, p.Total = 0, 0, total
	p.Status = "Building reports..."
	p.Finished = false
}
