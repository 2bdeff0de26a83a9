package output

import (
	"io"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/law-makers/bounty/internal/ui"
	"github.com/law-makers/bounty/pkg/models"
)

// SortedTags returns the tags of groups in lexical order
func SortedTags(groups map[string][]models.BountyRecord) []string {
	tags := make([]string, 0, len(groups))
	for tag := range groups {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// WriteTable renders the payload as a table. color enables ANSI styling.
func WriteTable(w io.Writer, payload models.ResponsePayload, color bool) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Tag", "Title", "Due", "Status", ""})

	added := newTitles(payload)
	total := 0
	for _, tag := range SortedTags(payload.BountiesByTag) {
		for _, rec := range payload.BountiesByTag[tag] {
			status := ui.Status(rec.IsExpired, color)
			marker := ""
			if _, ok := added[rec.Title]; ok {
				marker = ui.NewMarker(color)
			}
			t.AppendRow(table.Row{rec.Tag, rec.Title, rec.DateString, status, marker})
			total++
		}
		t.AppendSeparator()
	}

	t.AppendFooter(table.Row{"", payload.Message, "", total, len(payload.NewlyAddedBounties)})
	t.Render()
}
