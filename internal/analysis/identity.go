package analysis

import (
	"sort"

	"github.com/rsvihladremio/dqd-sub002/internal/models"
)

// IdentityUsage is the accumulated usage of one process or thread.
type IdentityUsage struct {
	ID      string
	Command string
	Total   float64
	Samples []models.IdentitySample
}

// IdentityIndex groups samples per identity and remembers the order in which
// identities were first seen.
type IdentityIndex struct {
	order []*IdentityUsage
	byID  map[string]*IdentityUsage
}

func NewIdentityIndex() *IdentityIndex {
	return &IdentityIndex{byID: make(map[string]*IdentityUsage)}
}

// Add appends a sample to its identity. The most recent command label wins.
func (ix *IdentityIndex) Add(s models.IdentitySample) {
	u, ok := ix.byID[s.ID]
	if !ok {
		u = &IdentityUsage{ID: s.ID}
		ix.byID[s.ID] = u
		ix.order = append(ix.order, u)
	}
	u.Command = s.Command
	u.Total += s.CPU
	u.Samples = append(u.Samples, s)
}

func (ix *IdentityIndex) Len() int {
	return len(ix.order)
}

// Ranked returns identities by total usage, highest first. Equal totals keep
// first-seen order.
func (ix *IdentityIndex) Ranked() []*IdentityUsage {
	ranked := make([]*IdentityUsage, len(ix.order))
	copy(ranked, ix.order)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Total > ranked[j].Total
	})
	return ranked
}

// RankIdentities indexes samples and returns them ranked.
func RankIdentities(samples []models.IdentitySample) []*IdentityUsage {
	ix := NewIdentityIndex()
	for _, s := range samples {
		ix.Add(s)
	}
	return ix.Ranked()
}
