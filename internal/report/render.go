package report

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"io/fs"
)

//go:embed static/* templates/*
var assets embed.FS

var (
	ErrNoContent       = errors.New("section must have exactly one of chart, table or summary")
	ErrDuplicateID     = errors.New("duplicate section id")
	ErrEmptyID         = errors.New("section id is empty")
	ErrRowColumnsCount = errors.New("row cell count does not match columns")
)

var pageTemplate = template.Must(
	template.New("report.html.tmpl").ParseFS(assets, "templates/report.html.tmpl"),
)

type page struct {
	Document
	Charts  []Section
	CSS     template.CSS
	SortJS  template.JS
	ChartJS template.JS
}

// StaticFS exposes the stylesheet and scripts that every report inlines.
func StaticFS() fs.FS {
	sub, err := fs.Sub(assets, "static")
	if err != nil {
		panic(err)
	}
	return sub
}

// Validate checks the structural rules Render relies on.
func Validate(doc Document) error {
	seen := make(map[string]bool, len(doc.Sections))
	for _, s := range doc.Sections {
		if s.ID == "" {
			return fmt.Errorf("section %q: %w", s.Title, ErrEmptyID)
		}
		if seen[s.ID] {
			return fmt.Errorf("section %q: %w", s.ID, ErrDuplicateID)
		}
		seen[s.ID] = true

		n := 0
		for _, set := range []bool{s.Chart != nil, s.Table != nil, s.Summary != nil} {
			if set {
				n++
			}
		}
		if n != 1 {
			return fmt.Errorf("section %q: %w", s.ID, ErrNoContent)
		}
		if s.Table != nil {
			for i, row := range s.Table.Rows {
				if len(row) != len(s.Table.Columns) {
					return fmt.Errorf("section %q row %d: %w", s.ID, i, ErrRowColumnsCount)
				}
			}
		}
	}
	return nil
}

// Render writes doc as a single HTML page. Output depends only on doc.
func Render(w io.Writer, doc Document) error {
	if err := Validate(doc); err != nil {
		return err
	}
	p, err := newPage(doc)
	if err != nil {
		return err
	}
	// nothing reaches w unless the whole page rendered
	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, p); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}
	_, err = buf.WriteTo(w)
	return err
}

// RenderString is Render into a string.
func RenderString(doc Document) (string, error) {
	var buf bytes.Buffer
	if err := Render(&buf, doc); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func newPage(doc Document) (page, error) {
	css, err := fs.ReadFile(assets, "static/report.css")
	if err != nil {
		return page{}, err
	}
	sortJS, err := fs.ReadFile(assets, "static/sort.js")
	if err != nil {
		return page{}, err
	}
	chartJS, err := fs.ReadFile(assets, "static/charts.js")
	if err != nil {
		return page{}, err
	}

	charts := doc.Charts()
	for i := range charts {
		traces := make([]Trace, len(charts[i].Chart.Traces))
		for j, t := range charts[i].Chart.Traces {
			if t.X == nil {
				t.X = []string{}
			}
			if t.Y == nil {
				t.Y = []float64{}
			}
			traces[j] = t
		}
		charts[i].Chart = &Chart{YLabel: charts[i].Chart.YLabel, X: chartAxis(charts[i].Chart), Traces: traces}
	}

	return page{
		Document: doc,
		Charts:   charts,
		CSS:      template.CSS(css),
		SortJS:   template.JS(sortJS),
		ChartJS:  template.JS(chartJS),
	}, nil
}

// chartAxis returns c.X followed by any trace labels it lacks, in the order
// first seen.
func chartAxis(c *Chart) []string {
	axis := make([]string, 0, len(c.X))
	seen := make(map[string]bool, len(c.X))
	add := func(x string) {
		if !seen[x] {
			seen[x] = true
			axis = append(axis, x)
		}
	}
	for _, x := range c.X {
		add(x)
	}
	for _, t := range c.Traces {
		for _, x := range t.X {
			add(x)
		}
	}
	return axis
}
