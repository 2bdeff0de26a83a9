// Package response shapes scrape results for clients.
package response

import "github.com/law-makers/bounty/pkg/models"

const (
	MessageUpdated   = "New bounties found"
	MessageUnchanged = "No new bounties found"
)

// GroupByTag maps each tag to its records in the order they were encountered
func GroupByTag(records []models.BountyRecord) map[string][]models.BountyRecord {
	groups := make(map[string][]models.BountyRecord)
	for _, rec := range records {
		groups[rec.Tag] = append(groups[rec.Tag], rec)
	}
	return groups
}

// Assemble builds the payload for one scrape. all is grouped by tag; an empty
// newSubset produces the unchanged shape with an empty list.
func Assemble(all, newSubset []models.BountyRecord) models.ResponsePayload {
	if len(newSubset) == 0 {
		return models.ResponsePayload{
			Message:            MessageUnchanged,
			BountiesByTag:      GroupByTag(all),
			NewlyAddedBounties: []models.BountyRecord{},
		}
	}

	added := make([]models.BountyRecord, len(newSubset))
	copy(added, newSubset)
	return models.ResponsePayload{
		Message:            MessageUpdated,
		BountiesByTag:      GroupByTag(all),
		NewlyAddedBounties: added,
	}
}
