package catalog

import (
	"context"
	"reflect"
	"testing"

	"github.com/rsvihladremio/dqd-sub002/internal/models"
)

func TestSplitPath(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"space.folder.view", []string{"space", "folder", "view"}},
		{`"my space"."a.b".v`, []string{"my space", "a.b", "v"}},
		{"single", []string{"single"}},
	}
	for _, tt := range tests {
		if got := SplitPath(tt.in); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("SplitPath(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestFromQueries(t *testing.T) {
	records := []models.QueryRecord{
		{
			ID:      "1",
			Outcome: models.OutcomeCompleted,
			Text:    `CREATE VIEW Sales.reports."daily totals" AS SELECT * FROM Sales.raw.orders`,
			Parents: []models.DatasetRef{
				{Path: []string{"Sales", "raw", "orders"}, Type: virtualDataset},
				{Path: []string{"s3", "bucket", "orders.parquet"}, Type: physicalDataset},
			},
		},
		{
			ID:      "2",
			Outcome: models.OutcomeFailed,
			Text:    "CREATE VIEW Sales.broken AS SELECT 1",
			Parents: []models.DatasetRef{{Path: []string{"s3", "other.csv"}, Type: physicalDataset}},
		},
	}

	e := FromQueries(records)

	if want := []Space{{Name: "Sales"}}; !reflect.DeepEqual(e.Spaces, want) {
		t.Errorf("Spaces = %v, want %v", e.Spaces, want)
	}
	wantFolders := []Folder{{Path: []string{"Sales", "raw"}}, {Path: []string{"Sales", "reports"}}}
	if !reflect.DeepEqual(e.Folders, wantFolders) {
		t.Errorf("Folders = %v, want %v", e.Folders, wantFolders)
	}
	if want := []Source{{Name: "s3", DefaultFormat: "parquet"}}; !reflect.DeepEqual(e.Sources, want) {
		t.Errorf("Sources = %v, want %v", e.Sources, want)
	}
	if len(e.Datasets) != 1 {
		t.Fatalf("got %d datasets, want 1", len(e.Datasets))
	}
	ds := e.Datasets[0]
	if PathName(ds.Path) != "Sales.reports.daily totals" || ds.SQL != "SELECT * FROM Sales.raw.orders" {
		t.Errorf("dataset = %+v", ds)
	}
	if len(ds.References) != 1 || PathName(ds.References[0]) != "Sales.raw.orders" {
		t.Errorf("references = %v", ds.References)
	}
}

func TestApplyDryRun(t *testing.T) {
	e := Entities{
		Spaces:  []Space{{Name: "a"}},
		Folders: []Folder{{Path: []string{"a", "b"}}},
	}
	results := Apply(context.Background(), DryRunApplier{}, e)
	if len(results) != 4 {
		t.Fatalf("got %d results, want 4", len(results))
	}
	if !results[0].Success || !reflect.DeepEqual(results[1].Processed, []string{"a.b"}) {
		t.Errorf("results = %+v", results)
	}
	if results[3].Collection != "datasets" || len(results[3].Processed) != 0 {
		t.Errorf("datasets result = %+v", results[3])
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if r := (DryRunApplier{}).ApplySpaces(ctx, e.Spaces); r.Success {
		t.Error("expected failure on cancelled context")
	}
}

func TestSection(t *testing.T) {
	s := Section([]Result{{Collection: "spaces", Success: true, Processed: []string{"a", "b"}}})
	if s.ID != SectionID || s.Table == nil || len(s.Table.Rows) != 1 {
		t.Fatalf("section = %+v", s)
	}
	if got := s.Table.Rows[0][2].SortKey(); got != "2" {
		t.Errorf("processed sort key = %q, want 2", got)
	}
}
