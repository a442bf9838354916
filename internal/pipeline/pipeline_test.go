package pipeline

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/rsvihladremio/dqd-sub002/internal/catalog"
	"github.com/rsvihladremio/dqd-sub002/internal/models"
	"github.com/rsvihladremio/dqd-sub002/internal/observability"
	"github.com/rsvihladremio/dqd-sub002/internal/parser"
	"github.com/rsvihladremio/dqd-sub002/internal/report"
	"github.com/rsvihladremio/dqd-sub002/internal/store"
)

const topInput = `top - 10:15:01 up 12 days,  3:04,  0 users,  load average: 2.10, 1.95, 1.80
%Cpu(s): 75.3 us,  3.2 sy,  0.0 ni, 20.4 id,  0.0 wa,  0.0 hi,  1.0 si,  0.0 st

    PID USER      PR  NI    VIRT    RES    SHR S  %CPU  %MEM     TIME+ COMMAND
   4242 dremio    20   0   30.1g  20.0g  50000 R  99.9  31.2  10:01.02 C2 CompilerThre
   4250 dremio    20   0   30.1g  20.0g  50000 S  12.5  31.2   1:00.00 foreman-planning

top - 10:15:06 up 12 days,  3:04,  0 users,  load average: 2.00, 1.95, 1.80
%Cpu(s): 10.0 us,  5.0 sy,  0.0 ni, 85.0 id,  0.0 wa,  0.0 hi,  0.0 si,  0.0 st

    PID USER      PR  NI    VIRT    RES    SHR S  %CPU  %MEM     TIME+ COMMAND
   4250 dremio    20   0   30.1g  20.0g  50000 S  50.0  31.2   1:00.10 foreman-planning
`

const iostatInput = `Linux 5.15.0-1034-aws (host) 	03/14/2024 	_x86_64_	(16 CPU)

03/14/2024 10:00:00 AM
avg-cpu:  %user   %nice %system %iowait  %steal   %idle
          12.50    0.00    3.10    9.40    0.20   74.80

Device            r/s     w/s     rkB/s     wkB/s  r_await  w_await  aqu-sz  %util
nvme0n1        120.00   30.00   4800.00   1200.00     2.00     4.00    1.75  55.00

03/14/2024 10:00:05 AM
avg-cpu:  %user   %nice %system %iowait  %steal   %idle
          40.00    0.00    5.00   21.30    0.00   33.70

Device            r/s     w/s     rkB/s     wkB/s  r_await  w_await  aqu-sz  %util
nvme0n1        300.00   90.00  12000.00   3600.00     6.00    10.00    4.20  98.00
`

const queriesInput = `{"queryId": "q1", "start": 1700000000000, "finish": 1700000200000, "outcome": "FAILED", "outcomeReason": "Out of memory", "queueName": "High Cost", "planningTime": 121234, "metadataRetrievalTime": -12, "runningTime": 5000}
{"queryId": "q2", "start": 1700000001000, "finish": 1700000002000, "outcome": "COMPLETED", "queueName": "Low Cost", "username": "alice", "queryText": "CREATE VIEW sales.reports.q1 AS SELECT 1", "parentsList": [{"datasetPathList": ["lake", "raw", "orders.parquet"], "type": "PHYSICAL_DATASET"}]}
{"queryId": "q3", "start": 1699999990000, "finish": 1700000090000, "outcome": "FAILED", "outcomeReason": "Canceled by planner", "queueName": "High Cost"}
`

func section(t *testing.T, doc report.Document, id string) report.Section {
	t.Helper()
	for _, s := range doc.Sections {
		if s.ID == id {
			return s
		}
	}
	t.Fatalf("section %q not found", id)
	return report.Section{}
}

func TestParseKind(t *testing.T) {
	for _, s := range []string{"top", "IOSTAT", "Queries"} {
		if _, err := ParseKind(s); err != nil {
			t.Errorf("ParseKind(%q) returned error: %v", s, err)
		}
	}
	if _, err := ParseKind("sar"); !errors.Is(err, ErrUnknownKind) {
		t.Errorf("ParseKind(sar) error = %v", err)
	}
}

func TestBuildTop(t *testing.T) {
	doc, err := Build(context.Background(), KindTop, strings.NewReader(topInput), Options{TopK: 1})
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}

	summary := section(t, doc, "cpuSummary").Summary
	var bottleneck string
	for _, item := range summary.Items {
		if item.Label == "Bottleneck percentage" {
			bottleneck = item.Value
		}
	}
	if bottleneck != "50.00%" {
		t.Errorf("bottleneck percentage = %q, want 50.00%%", bottleneck)
	}

	usage := section(t, doc, "cpuUsage").Chart
	if len(usage.Traces) != 6 || usage.Traces[0].Name != "user" || usage.Traces[0].X[1] != "10:15:06" {
		t.Errorf("cpu traces = %+v", usage.Traces)
	}

	// 4242 totals 99.9 and 4250 totals 62.5
	threads := section(t, doc, "topThreads").Table
	if len(threads.Rows) != 1 {
		t.Fatalf("got %d thread rows, want 1", len(threads.Rows))
	}
	if threads.Rows[0][1].Text != "4242" || threads.Rows[0][2].Text != "C2 CompilerThre" {
		t.Errorf("top thread row = %+v", threads.Rows[0])
	}
	traces := section(t, doc, "threadUsage").Chart.Traces
	if len(traces) != 1 || traces[0].Name != "4242 C2 CompilerThre" {
		t.Errorf("thread traces = %+v", traces)
	}
}

func TestBuildIostat(t *testing.T) {
	doc, err := Build(context.Background(), KindIostat, strings.NewReader(iostatInput), Options{})
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}

	items := section(t, doc, "diskSummary").Summary.Items
	found := false
	for _, item := range items {
		if item.Label == "Max iowait" {
			found = strings.HasPrefix(item.Value, "21.30%")
		}
	}
	if !found {
		t.Errorf("summary items = %+v", items)
	}

	rows := section(t, doc, "deviceStats").Table.Rows
	if len(rows) != 1 {
		t.Fatalf("got %d device rows, want 1", len(rows))
	}
	row := rows[0]
	if row[0].Text != "nvme0n1" || row[2].Text != "210.00" {
		t.Errorf("device row = %+v", row)
	}
	if row[4].Text != "12.00 MB/s" || row[4].SortKey() != "12000000" {
		t.Errorf("peak read = %+v", row[4])
	}
	if row[8].Text != "98.00%" {
		t.Errorf("peak util = %+v", row[8])
	}
	if queue := section(t, doc, "queueSize").Chart.Traces; len(queue) != 1 || queue[0].Y[1] != 4.2 {
		t.Errorf("queue traces = %+v", queue)
	}
}

func TestBuildQueries(t *testing.T) {
	doc, err := Build(context.Background(), KindQueries, strings.NewReader(queriesInput), Options{})
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}

	failed := section(t, doc, "firstFailedQueries").Table
	if strings.Join(failed.Columns, "|") != strings.Join(FailedQueryColumns, "|") {
		t.Errorf("columns = %v", failed.Columns)
	}
	if len(failed.Rows) != 2 {
		t.Fatalf("got %d failed rows, want 2", len(failed.Rows))
	}
	if failed.Rows[0][0].Text != "q3" || failed.Rows[1][0].Text != "q1" {
		t.Errorf("failed rows not oldest first: %s, %s", failed.Rows[0][0].Text, failed.Rows[1][0].Text)
	}
	q1 := failed.Rows[1]
	if q1[4].Text != "0.00 ms" || q1[4].SortKey() != "0" {
		t.Errorf("metadata retrieval = %+v, want clamped to zero", q1[4])
	}
	if q1[5].Text != "2.02 minutes" || q1[5].SortKey() != "121234" {
		t.Errorf("planning = %+v", q1[5])
	}

	outcomes := section(t, doc, "queryOutcomes").Table.Rows
	if len(outcomes) != 2 || outcomes[0][0].Text != "FAILED" || outcomes[0][1].Text != "2" {
		t.Errorf("outcomes = %+v", outcomes)
	}
	queues := section(t, doc, "queueSummary").Table.Rows
	if len(queues) != 2 || queues[0][0].Text != "High Cost" || queues[0][2].Text != "2" {
		t.Errorf("queues = %+v", queues)
	}

	for _, s := range doc.Sections {
		if s.ID == catalog.SectionID {
			t.Error("catalog section present without an applier")
		}
	}
}

func TestBuildQueriesRendersSortKeys(t *testing.T) {
	var buf bytes.Buffer
	if err := BuildTo(context.Background(), &buf, KindQueries, strings.NewReader(queriesInput), Options{}); err != nil {
		t.Fatalf("BuildTo returned error: %v", err)
	}
	html := buf.String()
	if !strings.Contains(html, `<td data-sort="121234">2.02 minutes</td>`) {
		t.Error("planning cell missing raw sort key")
	}
	if !strings.Contains(html, `<table id="firstFailedQueries"`) {
		t.Error("failed queries table missing")
	}
}

func TestBuildQueriesWithCatalog(t *testing.T) {
	opts := Options{Applier: catalog.DryRunApplier{}}
	doc, err := Build(context.Background(), KindQueries, strings.NewReader(queriesInput), opts)
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	rows := section(t, doc, catalog.SectionID).Table.Rows
	if len(rows) != 4 {
		t.Fatalf("got %d catalog rows, want 4", len(rows))
	}
	for _, row := range rows {
		if row[1].Text != "true" {
			t.Errorf("collection %s not applied", row[0].Text)
		}
	}
}

func TestBuildEmptyQueries(t *testing.T) {
	var buf bytes.Buffer
	err := BuildTo(context.Background(), &buf, KindQueries, strings.NewReader(""), Options{})
	var warning *EmptyInputWarning
	if !errors.As(err, &warning) || warning.Kind != KindQueries {
		t.Fatalf("error = %v, want EmptyInputWarning", err)
	}
	html := buf.String()
	if !strings.Contains(html, `<table id="firstFailedQueries"`) {
		t.Error("failed queries table missing from empty report")
	}
	if !strings.Contains(html, `<p class="no-data">No data (0 rows)</p>`) {
		t.Error("empty table not reported as zero rows")
	}
}

func TestBuildEmptyTopAndIostat(t *testing.T) {
	for _, kind := range []Kind{KindTop, KindIostat} {
		doc, err := Build(context.Background(), kind, strings.NewReader("\n\n"), Options{})
		var warning *EmptyInputWarning
		if !errors.As(err, &warning) {
			t.Errorf("%s: error = %v, want EmptyInputWarning", kind, err)
		}
		if _, err := report.RenderString(doc); err != nil {
			t.Errorf("%s: empty document does not render: %v", kind, err)
		}
	}
}

func TestBuildMalformed(t *testing.T) {
	input := "top - 10:15:01 up 1 day\n%Cpu(s): 1.0 us\n"
	_, err := Build(context.Background(), KindTop, strings.NewReader(input), Options{})
	var malformed *parser.MalformedRecordError
	if !errors.As(err, &malformed) {
		t.Fatalf("error = %v, want MalformedRecordError", err)
	}
	if malformed.LineNumber != 2 {
		t.Errorf("line = %d, want 2", malformed.LineNumber)
	}
}

func TestBuildRecordsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec := observability.NewRecorder(reg)
	opts := Options{Recorder: rec}

	if _, err := Build(context.Background(), KindQueries, strings.NewReader(queriesInput), opts); err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	_, _ = Build(context.Background(), KindQueries, strings.NewReader(`{"queryId": }`), opts)

	expected := `
# HELP dqd_parse_failures_total Report builds aborted by a malformed record or read error
# TYPE dqd_parse_failures_total counter
dqd_parse_failures_total{kind="queries"} 1
# HELP dqd_records_parsed_total Records parsed from inputs, by input kind
# TYPE dqd_records_parsed_total counter
dqd_records_parsed_total{kind="queries"} 3
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(expected), "dqd_parse_failures_total", "dqd_records_parsed_total"); err != nil {
		t.Error(err)
	}
}

func TestRenderDeterministic(t *testing.T) {
	render := func() string {
		var buf bytes.Buffer
		if err := BuildTo(context.Background(), &buf, KindQueries, strings.NewReader(queriesInput), Options{}); err != nil {
			t.Fatalf("BuildTo returned error: %v", err)
		}
		return buf.String()
	}
	if render() != render() {
		t.Error("two renders of the same input differ")
	}
}

func TestBuildQueriesFailureReasons(t *testing.T) {
	doc, err := Build(context.Background(), KindQueries, strings.NewReader(queriesInput), Options{})
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	rows := section(t, doc, "failureReasons").Table.Rows
	if len(rows) != 2 {
		t.Fatalf("got %d failure groups, want 2", len(rows))
	}
	if rows[0][0].Text != "Out of memory" || rows[0][4].Text != "Critical" {
		t.Errorf("first group = %+v", rows[0])
	}
	if rows[0][5].Text != "Query ran out of memory on an executor or in direct memory." {
		t.Errorf("first group description = %q", rows[0][5].Text)
	}
}

const lateThreadInput = `top - 10:00:01 up 1 day,  1:00,  0 users,  load average: 0.10, 0.10, 0.10
%Cpu(s):  5.0 us,  1.0 sy,  0.0 ni, 94.0 id,  0.0 wa,  0.0 hi,  0.0 si,  0.0 st

    PID USER      PR  NI    VIRT    RES    SHR S  %CPU  %MEM     TIME+ COMMAND
      2 dremio    20   0   1.0g   100m   1000 S   5.0   1.0   0:01.00 light

top - 10:00:02 up 1 day,  1:00,  0 users,  load average: 0.90, 0.20, 0.10
%Cpu(s): 90.0 us,  5.0 sy,  0.0 ni,  5.0 id,  0.0 wa,  0.0 hi,  0.0 si,  0.0 st

    PID USER      PR  NI    VIRT    RES    SHR S  %CPU  %MEM     TIME+ COMMAND
      1 dremio    20   0   1.0g   100m   1000 R  90.0   1.0   0:01.90 heavy
      2 dremio    20   0   1.0g   100m   1000 S   5.0   1.0   0:01.05 light
`

func TestBuildTopAxisInSampleOrder(t *testing.T) {
	doc, err := Build(context.Background(), KindTop, strings.NewReader(lateThreadInput), Options{})
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	chart := section(t, doc, "threadUsage").Chart
	if got := strings.Join(chart.X, ","); got != "10:00:01,10:00:02" {
		t.Errorf("axis = %q, want 10:00:01,10:00:02", got)
	}
	if chart.Traces[0].Name != "1 heavy" {
		t.Fatalf("first trace = %q, want 1 heavy", chart.Traces[0].Name)
	}
	if got := strings.Join(chart.Traces[0].X, ","); got != "10:00:02" {
		t.Errorf("heavy trace x = %q", got)
	}

	html, err := report.RenderString(doc)
	if err != nil {
		t.Fatalf("RenderString returned error: %v", err)
	}
	if !strings.Contains(html, `Charts.plot("threadUsage", "Top Threads Over Time", ["10:00:01","10:00:02"], `) {
		t.Error("rendered thread chart does not carry the sample-order axis")
	}
}

func TestBuildTopRepeatedClockTime(t *testing.T) {
	input := strings.Replace(lateThreadInput, "top - 10:00:02", "top - 10:00:01", 1)
	doc, err := Build(context.Background(), KindTop, strings.NewReader(input), Options{})
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	for _, id := range []string{"cpuUsage", "busyCpu", "threadUsage"} {
		chart := section(t, doc, id).Chart
		if got := strings.Join(chart.X, ","); got != "10:00:01,10:00:01 (2)" {
			t.Errorf("%s axis = %q", id, got)
		}
	}
	light := section(t, doc, "threadUsage").Chart.Traces[1]
	if got := strings.Join(light.X, ","); got != "10:00:01,10:00:01 (2)" {
		t.Errorf("light trace x = %q", got)
	}
}

func TestBuildIostatAxisWithLateDevice(t *testing.T) {
	input := strings.Replace(iostatInput,
		"nvme0n1        300.00",
		"nvme1n1         10.00   10.00    100.00    100.00     1.00     1.00    0.10   5.00\nnvme0n1        300.00", 1)
	doc, err := Build(context.Background(), KindIostat, strings.NewReader(input), Options{})
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	for _, id := range []string{"iostatCpu", "queueSize", "diskUtil"} {
		chart := section(t, doc, id).Chart
		if got := strings.Join(chart.X, ","); got != "2024-03-14 10:00:00,2024-03-14 10:00:05" {
			t.Errorf("%s axis = %q", id, got)
		}
	}
}

type failingStore struct {
	store.Store
	err error
}

func (f failingStore) BulkInsertQueries([]models.QueryRecord) error { return f.err }

func TestAggregateInPropagatesStoreError(t *testing.T) {
	boom := errors.New("disk full")
	_, _, err := aggregateIn(failingStore{err: boom}, []models.QueryRecord{{ID: "q1"}})
	if !errors.Is(err, boom) {
		t.Fatalf("aggregateIn error = %v, want %v", err, boom)
	}
}

func TestAggregateInSQLite(t *testing.T) {
	db, err := store.NewSQLiteStore()
	if err != nil {
		t.Fatalf("NewSQLiteStore returned error: %v", err)
	}
	defer db.Close()

	outcomes, queues, err := aggregateIn(db, []models.QueryRecord{
		{ID: "q1", Outcome: "FAILED", Queue: "High Cost"},
		{ID: "q2", Outcome: "COMPLETED", Queue: "High Cost"},
	})
	if err != nil {
		t.Fatalf("aggregateIn returned error: %v", err)
	}
	if len(outcomes) != 2 || len(queues) != 1 || queues[0].Queries != 2 {
		t.Errorf("outcomes = %+v, queues = %+v", outcomes, queues)
	}
}
