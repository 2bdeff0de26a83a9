package output

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"

	"github.com/law-makers/bounty/pkg/models"
)

var csvHeader = []string{"tag", "title", "dateString", "isExpired", "new"}

// SaveCSV writes one row per bounty to filepath. Returns an error on failure.
func SaveCSV(payload models.ResponsePayload, filepath string) error {
	file, err := os.Create(filepath)
	if err != nil {
		return err
	}
	defer file.Close()

	return WriteCSV(file, payload)
}

// WriteCSV writes the bounties of payload grouped by tag, tags in sorted order
func WriteCSV(w io.Writer, payload models.ResponsePayload) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(csvHeader); err != nil {
		return err
	}

	added := newTitles(payload)
	for _, tag := range SortedTags(payload.BountiesByTag) {
		for _, rec := range payload.BountiesByTag[tag] {
			_, isNew := added[rec.Title]
			row := []string{
				rec.Tag,
				rec.Title,
				rec.DateString,
				strconv.FormatBool(rec.IsExpired),
				strconv.FormatBool(isNew),
			}
			if err := writer.Write(row); err != nil {
				return err
			}
		}
	}

	writer.Flush()
	return writer.Error()
}

func newTitles(payload models.ResponsePayload) map[string]struct{} {
	titles := make(map[string]struct{}, len(payload.NewlyAddedBounties))
	for _, rec := range payload.NewlyAddedBounties {
		titles[rec.Title] = struct{}{}
	}
	return titles
}
