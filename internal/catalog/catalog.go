// Package catalog derives catalog entities from query traces and summarizes
// what an Applier did with them. Applying entities to a live cluster is left
// to Applier implementations outside this module.
package catalog

import (
	"context"
	"strings"
)

// Space is a top-level namespace.
type Space struct {
	Name string
}

// Folder is a path below a space.
type Folder struct {
	Path []string
}

// Source is a physical data source. DefaultFormat is an optional storage
// format hint such as "parquet".
type Source struct {
	Name          string
	DefaultFormat string
}

// Dataset is a derived view: its defining statement and the other views it
// reads from.
type Dataset struct {
	Path       []string
	SQL        string
	References [][]string
}

// Result reports one bulk apply call.
type Result struct {
	Collection string
	Success    bool
	Processed  []string
	Message    string
}

// Applier applies entity collections. Implementations should be idempotent
// and best effort: a partial failure reports Success false and lists what
// was processed anyway.
type Applier interface {
	ApplySpaces(ctx context.Context, spaces []Space) Result
	ApplyFolders(ctx context.Context, folders []Folder) Result
	ApplySources(ctx context.Context, sources []Source) Result
	ApplyDatasets(ctx context.Context, datasets []Dataset) Result
}

// Entities is everything derived from one trace, each collection in
// first-seen order.
type Entities struct {
	Spaces   []Space
	Folders  []Folder
	Sources  []Source
	Datasets []Dataset
}

func (e Entities) Empty() bool {
	return len(e.Spaces) == 0 && len(e.Folders) == 0 && len(e.Sources) == 0 && len(e.Datasets) == 0
}

// Apply runs every collection through the applier in dependency order.
func Apply(ctx context.Context, a Applier, e Entities) []Result {
	return []Result{
		a.ApplySpaces(ctx, e.Spaces),
		a.ApplyFolders(ctx, e.Folders),
		a.ApplySources(ctx, e.Sources),
		a.ApplyDatasets(ctx, e.Datasets),
	}
}

// PathName joins path segments the way they are displayed.
func PathName(path []string) string {
	return strings.Join(path, ".")
}
