// Package pipeline builds report documents from raw diagnostic streams: one
// synchronous pass of parse, aggregate and assemble per input.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rsvihladremio/dqd-sub002/internal/catalog"
	"github.com/rsvihladremio/dqd-sub002/internal/observability"
	"github.com/rsvihladremio/dqd-sub002/internal/report"
)

type Kind string

const (
	KindTop     Kind = "top"
	KindIostat  Kind = "iostat"
	KindQueries Kind = "queries"
)

var Kinds = []Kind{KindTop, KindIostat, KindQueries}

var ErrUnknownKind = errors.New("unknown input kind")

func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if strings.EqualFold(s, string(k)) {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// DefaultTopK is used when Options.TopK is not set.
const DefaultTopK = 20

type Options struct {
	// TopK bounds every ranked table and chart. Zero selects DefaultTopK and
	// a negative value yields empty rankings.
	TopK  int
	Title string
	// Applier receives the catalog entities derived from a query trace. The
	// catalog section is omitted when nil.
	Applier  catalog.Applier
	Recorder *observability.Recorder
}

func (o Options) topK() int {
	if o.TopK == 0 {
		return DefaultTopK
	}
	return o.TopK
}

func (o Options) title(kind Kind) string {
	if o.Title != "" {
		return o.Title
	}
	switch kind {
	case KindTop:
		return "CPU and Thread Report"
	case KindIostat:
		return "Disk I/O Report"
	default:
		return "Query Report"
	}
}

// EmptyInputWarning reports that an input held no records. The document
// returned with it is complete but sparse.
type EmptyInputWarning struct {
	Kind Kind
}

func (w *EmptyInputWarning) Error() string {
	return fmt.Sprintf("no %s records found in input", w.Kind)
}

// Build parses r as kind and assembles its report. When the input holds no
// records the document is still returned, together with an
// *EmptyInputWarning. Any other error leaves the document empty.
func Build(ctx context.Context, kind Kind, r io.Reader, opts Options) (report.Document, error) {
	start := time.Now()

	var (
		doc     report.Document
		records int
		err     error
	)
	switch kind {
	case KindTop:
		doc, records, err = buildTop(r, opts)
	case KindIostat:
		doc, records, err = buildIostat(r, opts)
	case KindQueries:
		doc, records, err = buildQueries(ctx, r, opts)
	default:
		return report.Document{}, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	if err == nil {
		err = report.Validate(doc)
	}

	opts.Recorder.ObserveBuild(string(kind), records, time.Since(start), err != nil, records == 0)
	if err != nil {
		return report.Document{}, fmt.Errorf("failed to build %s report: %w", kind, err)
	}
	if records == 0 {
		return doc, &EmptyInputWarning{Kind: kind}
	}
	return doc, nil
}

// BuildTo builds and renders in one step. An *EmptyInputWarning is returned
// after the page has been written.
func BuildTo(ctx context.Context, w io.Writer, kind Kind, r io.Reader, opts Options) error {
	doc, err := Build(ctx, kind, r, opts)
	var warning *EmptyInputWarning
	if err != nil && !errors.As(err, &warning) {
		return err
	}
	if rerr := report.Render(w, doc); rerr != nil {
		return rerr
	}
	return err
}
