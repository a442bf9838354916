package catalog

import (
	"strconv"
	"strings"

	"github.com/rsvihladremio/dqd-sub002/internal/models"
	"github.com/rsvihladremio/dqd-sub002/internal/report"
)

const SectionID = "catalogApply"

var SectionColumns = []string{"Collection", "Success", "Processed", "Identifiers", "Message"}

// Section summarizes apply results as a sortable table.
func Section(results []Result) report.Section {
	rows := make([][]models.DisplayValue, 0, len(results))
	for _, r := range results {
		rows = append(rows, []models.DisplayValue{
			models.TextValue(r.Collection),
			models.TextValue(strconv.FormatBool(r.Success)),
			models.NumericValue(strconv.Itoa(len(r.Processed)), float64(len(r.Processed))),
			models.TextValue(strings.Join(r.Processed, ", ")),
			models.TextValue(r.Message),
		})
	}
	return report.TableSection(SectionID, "Catalog Entities", SectionColumns, rows)
}
