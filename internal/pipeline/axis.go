package pipeline

import (
	"fmt"
	"sort"
	"time"
)

// timeAxis assigns one x label per sample position, in position order. A
// label that repeats an earlier one gets a " (n)" suffix so positions never
// merge on the chart.
type timeAxis struct {
	labels []string
	byKey  map[int]string
	counts map[string]int
}

func newTimeAxis() *timeAxis {
	return &timeAxis{byKey: make(map[int]string), counts: make(map[string]int)}
}

// add registers position key once; later calls return the first label.
func (a *timeAxis) add(key int, t time.Time) string {
	if label, ok := a.byKey[key]; ok {
		return label
	}
	label := timeLabel(t)
	a.counts[label]++
	if n := a.counts[label]; n > 1 {
		label = fmt.Sprintf("%s (%d)", label, n)
	}
	a.byKey[key] = label
	a.labels = append(a.labels, label)
	return label
}

func (a *timeAxis) label(key int) string {
	return a.byKey[key]
}

// blockAxis builds the axis of a top capture from block numbers so a block
// appears at its own position whichever samples reference it.
func blockAxis(times map[int]time.Time) *timeAxis {
	blocks := make([]int, 0, len(times))
	for b := range times {
		blocks = append(blocks, b)
	}
	sort.Ints(blocks)
	a := newTimeAxis()
	for _, b := range blocks {
		a.add(b, times[b])
	}
	return a
}

func timeLabel(t time.Time) string {
	if t.Year() == 0 {
		return t.Format("15:04:05")
	}
	return t.Format("2006-01-02 15:04:05")
}
