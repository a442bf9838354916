package catalog

import (
	"context"
	"log/slog"
)

// DryRunApplier reports every entity as processed without contacting a
// cluster.
type DryRunApplier struct {
	Logger *slog.Logger
}

func (d DryRunApplier) result(ctx context.Context, collection string, names []string) Result {
	if err := ctx.Err(); err != nil {
		return Result{Collection: collection, Success: false, Processed: []string{}, Message: err.Error()}
	}
	if d.Logger != nil {
		d.Logger.Debug("Dry run apply", "collection", collection, "count", len(names))
	}
	if names == nil {
		names = []string{}
	}
	return Result{Collection: collection, Success: true, Processed: names, Message: "dry run"}
}

func (d DryRunApplier) ApplySpaces(ctx context.Context, spaces []Space) Result {
	var names []string
	for _, s := range spaces {
		names = append(names, s.Name)
	}
	return d.result(ctx, "spaces", names)
}

func (d DryRunApplier) ApplyFolders(ctx context.Context, folders []Folder) Result {
	var names []string
	for _, f := range folders {
		names = append(names, PathName(f.Path))
	}
	return d.result(ctx, "folders", names)
}

func (d DryRunApplier) ApplySources(ctx context.Context, sources []Source) Result {
	var names []string
	for _, s := range sources {
		names = append(names, s.Name)
	}
	return d.result(ctx, "sources", names)
}

func (d DryRunApplier) ApplyDatasets(ctx context.Context, datasets []Dataset) Result {
	var names []string
	for _, ds := range datasets {
		names = append(names, PathName(ds.Path))
	}
	return d.result(ctx, "datasets", names)
}
