// Package report turns a structured document of charts, tables and summaries
// into one self-contained HTML page.
package report

import (
	"github.com/rsvihladremio/dqd-sub002/internal/models"
)

// Document is the full content of one report.
type Document struct {
	Title    string
	Subtitle string
	Sections []Section
}

// Section is one navigable part of a report. Exactly one of Chart, Table or
// Summary is set.
type Section struct {
	ID      string
	Title   string
	Chart   *Chart
	Table   *Table
	Summary *Summary
}

// Chart is a line chart. X is the shared axis in sample order; every trace
// label should appear in it.
type Chart struct {
	YLabel string
	X      []string
	Traces []Trace
}

// Trace is one named series. X and Y are parallel.
type Trace struct {
	Name string    `json:"name"`
	X    []string  `json:"x"`
	Y    []float64 `json:"y"`
}

// Table is a sortable table. Every row has one cell per column.
type Table struct {
	Columns []string
	Rows    [][]models.DisplayValue
}

type Summary struct {
	Items []SummaryItem
	Notes []string
}

type SummaryItem struct {
	Label string
	Value string
}

func ChartSection(id, title, yLabel string, x []string, traces []Trace) Section {
	return Section{ID: id, Title: title, Chart: &Chart{YLabel: yLabel, X: x, Traces: traces}}
}

func TableSection(id, title string, columns []string, rows [][]models.DisplayValue) Section {
	return Section{ID: id, Title: title, Table: &Table{Columns: columns, Rows: rows}}
}

func SummarySection(id, title string, items []SummaryItem, notes []string) Section {
	return Section{ID: id, Title: title, Summary: &Summary{Items: items, Notes: notes}}
}

// Charts returns the chart sections in document order.
func (d Document) Charts() []Section {
	var charts []Section
	for _, s := range d.Sections {
		if s.Chart != nil {
			charts = append(charts, s)
		}
	}
	return charts
}
