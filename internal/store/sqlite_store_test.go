package store

import (
	"testing"

	"github.com/rsvihladremio/dqd-sub002/internal/models"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore()
	if err != nil {
		t.Fatalf("NewSQLiteStore returned error: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestQueueSummaries(t *testing.T) {
	s := newTestStore(t)
	records := []models.QueryRecord{
		{ID: "1", Start: 0, Finish: 100, Outcome: models.OutcomeCompleted, Queue: "Low Cost", Queued: 10},
		{ID: "2", Start: 0, Finish: 300, Outcome: models.OutcomeFailed, Queue: "Low Cost", Queued: 30},
		{ID: "3", Start: 0, Finish: 50, Outcome: models.OutcomeCompleted, Queue: "High Cost"},
	}
	if err := s.BulkInsertQueries(records); err != nil {
		t.Fatalf("BulkInsertQueries returned error: %v", err)
	}

	n, err := s.CountQueries()
	if err != nil || n != 3 {
		t.Fatalf("CountQueries = %d, %v; want 3", n, err)
	}

	summaries, err := s.GetQueueSummaries()
	if err != nil {
		t.Fatalf("GetQueueSummaries returned error: %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("got %d queues, want 2", len(summaries))
	}
	low := summaries[0]
	if low.Queue != "Low Cost" || low.Queries != 2 || low.Failed != 1 || low.AvgDuration != 200 || low.MaxDuration != 300 || low.AvgQueued != 20 {
		t.Errorf("low cost summary = %+v", low)
	}
}

func TestOutcomeCounts(t *testing.T) {
	s := newTestStore(t)
	records := []models.QueryRecord{
		{ID: "1", Outcome: models.OutcomeFailed},
		{ID: "2", Outcome: models.OutcomeCompleted},
		{ID: "3", Outcome: models.OutcomeCompleted},
		{ID: "4", Outcome: models.OutcomeCanceled},
	}
	if err := s.BulkInsertQueries(records); err != nil {
		t.Fatalf("BulkInsertQueries returned error: %v", err)
	}

	counts, err := s.GetOutcomeCounts()
	if err != nil {
		t.Fatalf("GetOutcomeCounts returned error: %v", err)
	}
	want := []models.OutcomeCount{{Outcome: "COMPLETED", Count: 2}, {Outcome: "CANCELED", Count: 1}, {Outcome: "FAILED", Count: 1}}
	if len(counts) != len(want) {
		t.Fatalf("counts = %+v, want %+v", counts, want)
	}
	for i := range want {
		if counts[i] != want[i] {
			t.Errorf("counts[%d] = %+v, want %+v", i, counts[i], want[i])
		}
	}
}

func TestEmptyStore(t *testing.T) {
	s := newTestStore(t)
	counts, err := s.GetOutcomeCounts()
	if err != nil || len(counts) != 0 {
		t.Errorf("GetOutcomeCounts = %v, %v; want empty", counts, err)
	}
	summaries, err := s.GetQueueSummaries()
	if err != nil || len(summaries) != 0 {
		t.Errorf("GetQueueSummaries = %v, %v; want empty", summaries, err)
	}
}
