package analysis

import (
	"github.com/rsvihladremio/dqd-sub002/internal/models"
	"github.com/rsvihladremio/dqd-sub002/internal/topk"
)

// NormalizeMetadataRetrieval clamps negative metadata retrieval durations to
// zero. Positive values pass through unchanged.
func NormalizeMetadataRetrieval(ms int64) int64 {
	if ms < 0 {
		return 0
	}
	return ms
}

// QuerySummary aggregates a query trace.
type QuerySummary struct {
	Total     int
	Completed int
	Failed    int
	Canceled  int
	Other     int
	P50       float64
	P90       float64
	P99       float64
	Max       float64
}

func SummarizeQueries(records []models.QueryRecord) QuerySummary {
	summary := QuerySummary{Total: len(records)}
	durations := make([]float64, 0, len(records))
	for _, q := range records {
		switch q.Outcome {
		case models.OutcomeCompleted:
			summary.Completed++
		case models.OutcomeFailed:
			summary.Failed++
		case models.OutcomeCanceled:
			summary.Canceled++
		default:
			summary.Other++
		}
		d := float64(q.Duration())
		durations = append(durations, d)
		summary.Max = max(summary.Max, d)
	}
	summary.P50 = Percentile(durations, 50)
	summary.P90 = Percentile(durations, 90)
	summary.P99 = Percentile(durations, 99)
	return summary
}

// OldestFailures returns up to k failed queries, earliest start first.
func OldestFailures(records []models.QueryRecord, k int) []models.QueryRecord {
	w := topk.New(k, func(a, b models.QueryRecord) bool { return a.Start < b.Start })
	for _, q := range records {
		if q.Outcome == models.OutcomeFailed {
			w.Offer(q)
		}
	}
	return w.Export(topk.Best)
}

// SlowestQueries returns up to k queries with the longest wall-clock span.
func SlowestQueries(records []models.QueryRecord, k int) []models.QueryRecord {
	w := topk.New(k, func(a, b models.QueryRecord) bool { return a.Duration() > b.Duration() })
	for _, q := range records {
		w.Offer(q)
	}
	return w.Export(topk.Best)
}

// LongestPlanning returns up to k queries with the longest planning phase.
func LongestPlanning(records []models.QueryRecord, k int) []models.QueryRecord {
	w := topk.New(k, func(a, b models.QueryRecord) bool { return a.Planning > b.Planning })
	for _, q := range records {
		w.Offer(q)
	}
	return w.Export(topk.Best)
}

// TopIdentities returns up to k identities by total usage, streaming the
// ranked list through a bounded window.
func TopIdentities(ranked []*IdentityUsage, k int) []*IdentityUsage {
	w := topk.New(k, func(a, b *IdentityUsage) bool { return a.Total > b.Total })
	for _, u := range ranked {
		w.Offer(u)
	}
	return w.Export(topk.Best)
}
