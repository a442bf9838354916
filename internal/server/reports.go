package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rsvihladremio/dqd-sub002/internal/input"
	"github.com/rsvihladremio/dqd-sub002/internal/pipeline"
)

// Source is one input the server builds a report from.
type Source struct {
	Name   string
	Kind   pipeline.Kind
	Path   string
	Member string
}

// ParseSource reads "kind=path" with an optional "#member" suffix selecting
// an archive entry, e.g. "queries=bundle.zip#queries.json".
func ParseSource(arg string) (Source, error) {
	kindText, location, ok := strings.Cut(arg, "=")
	if !ok || location == "" {
		return Source{}, fmt.Errorf("invalid source %q: want kind=path", arg)
	}
	kind, err := pipeline.ParseKind(kindText)
	if err != nil {
		return Source{}, err
	}
	file, member, _ := strings.Cut(location, "#")
	base := path.Base(strings.ReplaceAll(file, "\\", "/"))
	if member != "" {
		base = path.Base(member)
	}
	return Source{
		Name:   string(kind) + "-" + slug(base),
		Kind:   kind,
		Path:   file,
		Member: member,
	}, nil
}

func slug(s string) string {
	if i := strings.IndexByte(s, '.'); i > 0 {
		s = s[:i]
	}
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte('-')
		}
	}
	if out := strings.Trim(b.String(), "-"); out != "" {
		return out
	}
	return "input"
}

// Report is a built page or the reason it could not be built.
type Report struct {
	Name    string
	Kind    pipeline.Kind
	Source  string
	HTML    []byte
	Err     string
	Warning string
	BuiltAt time.Time
	Elapsed time.Duration
}

func (r *Report) OK() bool {
	return r.Err == ""
}

// Preload builds every source concurrently. Each build is independent and
// failures are kept on the report; the joined error lists them all.
func (s *Server) Preload(ctx context.Context, sources []Source) error {
	s.progress.Reset(len(sources))
	names := make(map[string]int, len(sources))
	for i := range sources {
		names[sources[i].Name]++
		if n := names[sources[i].Name]; n > 1 {
			sources[i].Name = fmt.Sprintf("%s-%d", sources[i].Name, n)
		}
	}

	built := make([]*Report, len(sources))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, src := range sources {
		i, src := i, src
		g.Go(func() error {
			built[i] = s.build(gctx, src)
			if built[i].OK() {
				s.progress.Done(src.Name, nil)
			} else {
				s.progress.Done(src.Name, errors.New(built[i].Err))
			}
			return gctx.Err()
		})
	}
	waitErr := g.Wait()
	s.progress.Finish()

	var errs []error
	for _, r := range built {
		if r == nil {
			continue
		}
		s.add(r)
		if !r.OK() {
			errs = append(errs, fmt.Errorf("%s: %s", r.Name, r.Err))
		}
	}
	if waitErr != nil {
		errs = append(errs, waitErr)
	}
	return errors.Join(errs...)
}

func (s *Server) build(ctx context.Context, src Source) *Report {
	start := time.Now()
	r := &Report{Name: src.Name, Kind: src.Kind, Source: src.Path}
	if src.Member != "" {
		r.Source += "#" + src.Member
	}

	in, err := input.Open(ctx, src.Path, src.Member)
	if err != nil {
		r.Err = err.Error()
		s.logger.Error("Failed to open input", "report", src.Name, "error", err)
		return r
	}
	defer in.Close()

	opts := s.pipeline
	if opts.Title == "" {
		opts.Title = fmt.Sprintf("%s (%s)", src.Name, in.Name)
	}
	var buf bytes.Buffer
	err = pipeline.BuildTo(ctx, &buf, src.Kind, in, opts)
	var warning *pipeline.EmptyInputWarning
	switch {
	case errors.As(err, &warning):
		r.Warning = warning.Error()
		s.logger.Warn("Input is empty", "report", src.Name, "kind", src.Kind)
	case err != nil:
		r.Err = err.Error()
		s.logger.Error("Failed to build report", "report", src.Name, "error", err)
		return r
	}
	r.HTML = buf.Bytes()
	r.BuiltAt = time.Now()
	r.Elapsed = r.BuiltAt.Sub(start)
	s.logger.Info("Built report", "report", src.Name, "bytes", len(r.HTML), "elapsed", r.Elapsed)
	return r
}

func (s *Server) add(r *Report) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.reports[r.Name]; !ok {
		s.order = append(s.order, r.Name)
	}
	s.reports[r.Name] = r
}

func (s *Server) report(name string) (*Report, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.reports[name]
	return r, ok
}

// Reports returns every report in the order sources were given.
func (s *Server) Reports() []*Report {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Report, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.reports[name])
	}
	return out
}
