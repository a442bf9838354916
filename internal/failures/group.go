package failures

import (
	"sort"

	"github.com/rsvihladremio/dqd-sub002/internal/models"
)

// Group is every failed query sharing one fingerprint.
type Group struct {
	Fingerprint string
	Count       int
	Example     string
	FirstQuery  string
	FirstStart  int64
	Insight     *Insight
}

// GroupFailures buckets failed queries by reason fingerprint, largest group
// first. Equal counts keep the order the group was first seen.
func GroupFailures(records []models.QueryRecord) []Group {
	var groups []*Group
	byPrint := make(map[string]*Group)
	for _, q := range records {
		if q.Outcome != models.OutcomeFailed {
			continue
		}
		fp := Fingerprint(q.FailureReason)
		g, ok := byPrint[fp]
		if !ok {
			g = &Group{Fingerprint: fp, Example: q.FailureReason, FirstQuery: q.ID, FirstStart: q.Start}
			if in, found := Lookup(q.FailureReason); found {
				g.Insight = &in
			}
			byPrint[fp] = g
			groups = append(groups, g)
		}
		g.Count++
		if q.Start < g.FirstStart {
			g.FirstQuery, g.FirstStart = q.ID, q.Start
		}
	}

	sort.SliceStable(groups, func(i, j int) bool { return groups[i].Count > groups[j].Count })
	out := make([]Group, len(groups))
	for i, g := range groups {
		out[i] = *g
	}
	return out
}
