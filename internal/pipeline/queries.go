package pipeline

import (
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/rsvihladremio/dqd-sub002/internal/analysis"
	"github.com/rsvihladremio/dqd-sub002/internal/catalog"
	"github.com/rsvihladremio/dqd-sub002/internal/failures"
	"github.com/rsvihladremio/dqd-sub002/internal/human"
	"github.com/rsvihladremio/dqd-sub002/internal/models"
	"github.com/rsvihladremio/dqd-sub002/internal/parser"
	"github.com/rsvihladremio/dqd-sub002/internal/report"
	"github.com/rsvihladremio/dqd-sub002/internal/store"
)

// FailedQueryColumns is the column set of #firstFailedQueries. Consumers
// read the table structurally so the order must not change.
var FailedQueryColumns = []string{
	"Query ID", "Start", "Duration", "Pending", "Metadata Retrieval",
	"Planning", "Queued", "Running", "Queue", "Failure Reason",
}

var QueryColumns = []string{
	"Query ID", "Start", "Outcome", "User", "Queue", "Duration", "Planning", "Running",
}

var (
	FailureReasonColumns = []string{"Pattern", "Queries", "First Query", "Example", "Severity", "Description", "Action"}
	OutcomeColumns       = []string{"Outcome", "Queries"}
	QueueColumns         = []string{"Queue", "Queries", "Failed", "Avg Duration", "Max Duration", "Avg Queued"}
)

func buildQueries(ctx context.Context, r io.Reader, opts Options) (report.Document, int, error) {
	records, err := parser.ParseQueries(r)
	if err != nil {
		return report.Document{}, 0, err
	}
	k := opts.topK()
	summary := analysis.SummarizeQueries(records)

	outcomes, queues, err := aggregate(records)
	if err != nil {
		return report.Document{}, 0, err
	}
	outcomeRows := make([][]models.DisplayValue, 0, len(outcomes))
	for _, o := range outcomes {
		outcomeRows = append(outcomeRows, []models.DisplayValue{
			models.TextValue(o.Outcome),
			models.NumericValue(human.Count(int64(o.Count)), float64(o.Count)),
		})
	}
	queueRows := make([][]models.DisplayValue, 0, len(queues))
	for _, q := range queues {
		queueRows = append(queueRows, []models.DisplayValue{
			models.TextValue(q.Queue),
			models.NumericValue(human.Count(int64(q.Queries)), float64(q.Queries)),
			models.NumericValue(human.Count(int64(q.Failed)), float64(q.Failed)),
			human.Duration(q.AvgDuration),
			human.Duration(q.MaxDuration),
			human.Duration(q.AvgQueued),
		})
	}

	minutes, perMinute := perMinuteTraces(records)

	doc := report.Document{
		Title:    opts.title(KindQueries),
		Subtitle: fmt.Sprintf("%s queries", human.Count(int64(summary.Total))),
	}
	doc.Sections = append(doc.Sections,
		report.SummarySection("querySummary", "Query Summary", []report.SummaryItem{
			{Label: "Queries", Value: human.Count(int64(summary.Total))},
			{Label: "Completed", Value: human.Count(int64(summary.Completed))},
			{Label: "Failed", Value: human.Count(int64(summary.Failed))},
			{Label: "Canceled", Value: human.Count(int64(summary.Canceled))},
			{Label: "Other outcomes", Value: human.Count(int64(summary.Other))},
			{Label: "p50 duration", Value: human.Duration(summary.P50).Text},
			{Label: "p90 duration", Value: human.Duration(summary.P90).Text},
			{Label: "p99 duration", Value: human.Duration(summary.P99).Text},
			{Label: "Max duration", Value: human.Duration(summary.Max).Text},
		}, nil),
		report.TableSection("firstFailedQueries", "First Failed Queries", FailedQueryColumns,
			failedRows(analysis.OldestFailures(records, k))),
		report.TableSection("failureReasons", "Failure Reasons", FailureReasonColumns,
			failureRows(failures.GroupFailures(records))),
		report.TableSection("slowestQueries", "Slowest Queries", QueryColumns,
			queryRows(analysis.SlowestQueries(records, k))),
		report.TableSection("longestPlanning", "Longest Planning", QueryColumns,
			queryRows(analysis.LongestPlanning(records, k))),
		report.TableSection("queryOutcomes", "Outcomes", OutcomeColumns, outcomeRows),
		report.TableSection("queueSummary", "Queues", QueueColumns, queueRows),
		report.ChartSection("queriesPerMinute", "Queries Per Minute", "queries", minutes, perMinute),
	)

	if opts.Applier != nil {
		results := catalog.Apply(ctx, opts.Applier, catalog.FromQueries(records))
		doc.Sections = append(doc.Sections, catalog.Section(results))
	}
	return doc, len(records), nil
}

// aggregate indexes the trace in a throwaway SQLite database and reads back
// the grouped views.
func aggregate(records []models.QueryRecord) ([]models.OutcomeCount, []models.QueueSummary, error) {
	db, err := store.NewSQLiteStore()
	if err != nil {
		return nil, nil, err
	}
	defer db.Close()
	return aggregateIn(db, records)
}

// aggregateIn loads records into db and reads back the outcome and queue
// rollups.
func aggregateIn(db store.Store, records []models.QueryRecord) ([]models.OutcomeCount, []models.QueueSummary, error) {
	if err := db.BulkInsertQueries(records); err != nil {
		return nil, nil, err
	}
	outcomes, err := db.GetOutcomeCounts()
	if err != nil {
		return nil, nil, err
	}
	queues, err := db.GetQueueSummaries()
	if err != nil {
		return nil, nil, err
	}
	return outcomes, queues, nil
}

func failedRows(records []models.QueryRecord) [][]models.DisplayValue {
	rows := make([][]models.DisplayValue, 0, len(records))
	for _, q := range records {
		rows = append(rows, []models.DisplayValue{
			models.TextValue(q.ID),
			human.EpochMillis(q.Start),
			human.Duration(float64(q.Duration())),
			human.Duration(float64(q.Pending)),
			human.Duration(float64(analysis.NormalizeMetadataRetrieval(q.MetadataRetrieval))),
			human.Duration(float64(q.Planning)),
			human.Duration(float64(q.Queued)),
			human.Duration(float64(q.Running)),
			models.TextValue(q.Queue),
			models.TextValue(q.FailureReason),
		})
	}
	return rows
}

func failureRows(groups []failures.Group) [][]models.DisplayValue {
	rows := make([][]models.DisplayValue, 0, len(groups))
	for _, g := range groups {
		var severity, description, action string
		if g.Insight != nil {
			severity, description, action = g.Insight.Severity, g.Insight.Description, g.Insight.Action
		}
		rows = append(rows, []models.DisplayValue{
			models.TextValue(g.Fingerprint),
			models.NumericValue(human.Count(int64(g.Count)), float64(g.Count)),
			models.TextValue(g.FirstQuery),
			models.TextValue(g.Example),
			models.TextValue(severity),
			models.TextValue(description),
			models.TextValue(action),
		})
	}
	return rows
}

func queryRows(records []models.QueryRecord) [][]models.DisplayValue {
	rows := make([][]models.DisplayValue, 0, len(records))
	for _, q := range records {
		rows = append(rows, []models.DisplayValue{
			models.TextValue(q.ID),
			human.EpochMillis(q.Start),
			models.TextValue(string(q.Outcome)),
			models.TextValue(q.User),
			models.TextValue(q.Queue),
			human.Duration(float64(q.Duration())),
			human.Duration(float64(q.Planning)),
			human.Duration(float64(q.Running)),
		})
	}
	return rows
}

// perMinuteTraces buckets query starts by UTC minute, one trace per outcome
// in first-seen order. Every trace shares the same minute axis.
func perMinuteTraces(records []models.QueryRecord) ([]string, []report.Trace) {
	var outcomes []models.QueryOutcome
	counts := make(map[models.QueryOutcome]map[int64]float64)
	minuteSet := make(map[int64]bool)
	for _, q := range records {
		m := q.Start / int64(time.Minute/time.Millisecond)
		minuteSet[m] = true
		byMinute, ok := counts[q.Outcome]
		if !ok {
			byMinute = make(map[int64]float64)
			counts[q.Outcome] = byMinute
			outcomes = append(outcomes, q.Outcome)
		}
		byMinute[m]++
	}

	minutes := make([]int64, 0, len(minuteSet))
	for m := range minuteSet {
		minutes = append(minutes, m)
	}
	sort.Slice(minutes, func(i, j int) bool { return minutes[i] < minutes[j] })
	x := make([]string, len(minutes))
	for i, m := range minutes {
		x[i] = time.UnixMilli(m * 60000).UTC().Format("2006-01-02 15:04")
	}

	traces := make([]report.Trace, 0, len(outcomes))
	for _, o := range outcomes {
		y := make([]float64, len(minutes))
		for i, m := range minutes {
			y[i] = counts[o][m]
		}
		traces = append(traces, report.Trace{Name: string(o), X: x, Y: y})
	}
	return x, traces
}
