package catalog

import (
	"path"
	"regexp"
	"strings"

	"github.com/rsvihladremio/dqd-sub002/internal/models"
)

const (
	virtualDataset  = "VIRTUAL_DATASET"
	physicalDataset = "PHYSICAL_DATASET"
)

var createViewRe = regexp.MustCompile(`(?is)^\s*create\s+(?:or\s+replace\s+)?(?:view|vds)\s+((?:"[^"]*"|[^\s"])+)\s+as\s+(.+)$`)

var formatHints = map[string]string{
	".parquet": "parquet",
	".csv":     "text",
	".txt":     "text",
	".json":    "json",
	".avro":    "avro",
	".orc":     "orc",
	".xlsx":    "excel",
}

// builder dedupes entities while keeping first-seen order.
type builder struct {
	entities Entities
	seen     map[string]bool
}

func (b *builder) once(kind string, path []string) bool {
	key := kind + "\x00" + strings.Join(path, "\x00")
	if b.seen[key] {
		return false
	}
	b.seen[key] = true
	return true
}

func (b *builder) addView(p []string) {
	if len(p) == 0 {
		return
	}
	if b.once("space", p[:1]) {
		b.entities.Spaces = append(b.entities.Spaces, Space{Name: p[0]})
	}
	for i := 2; i < len(p); i++ {
		if b.once("folder", p[:i]) {
			b.entities.Folders = append(b.entities.Folders, Folder{Path: append([]string(nil), p[:i]...)})
		}
	}
}

func (b *builder) addSource(p []string) {
	if len(p) == 0 || !b.once("source", p[:1]) {
		return
	}
	b.entities.Sources = append(b.entities.Sources, Source{
		Name:          p[0],
		DefaultFormat: formatHints[strings.ToLower(path.Ext(p[len(p)-1]))],
	})
}

// FromQueries derives catalog entities from the parents of each query.
// Completed CREATE VIEW statements also yield dataset definitions that
// reference the views the statement read.
func FromQueries(records []models.QueryRecord) Entities {
	b := &builder{seen: make(map[string]bool)}
	for _, q := range records {
		var refs [][]string
		for _, parent := range q.Parents {
			switch parent.Type {
			case physicalDataset:
				b.addSource(parent.Path)
			case virtualDataset:
				b.addView(parent.Path)
				refs = append(refs, parent.Path)
			}
		}

		if q.Outcome != models.OutcomeCompleted {
			continue
		}
		m := createViewRe.FindStringSubmatch(q.Text)
		if m == nil {
			continue
		}
		target := SplitPath(m[1])
		b.addView(target)
		if b.once("dataset", target) {
			b.entities.Datasets = append(b.entities.Datasets, Dataset{
				Path:       target,
				SQL:        strings.TrimSpace(m[2]),
				References: refs,
			})
		}
	}
	return b.entities
}

// SplitPath splits a dotted identifier, honoring double-quoted segments.
func SplitPath(s string) []string {
	var parts []string
	var cur strings.Builder
	quoted := false
	for _, r := range s {
		switch {
		case r == '"':
			quoted = !quoted
		case r == '.' && !quoted:
			parts = append(parts, cur.String())
			cur.Reset()
		default:
			cur.WriteRune(r)
		}
	}
	return append(parts, cur.String())
}
