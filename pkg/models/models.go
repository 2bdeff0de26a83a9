package models

// RawRecord is one listing container as found on the page.
// A nil field means the nested selector matched nothing.
type RawRecord struct {
	Tag   *string `json:"tag"`
	Title *string `json:"title"`
	Date  *string `json:"date"`
}

// Complete reports whether tag, title and date are all present
func (r RawRecord) Complete() bool {
	return r.Tag != nil && r.Title != nil && r.Date != nil
}

// BountyRecord represents a classified bounty listing.
// Title is the identity key across scrapes.
type BountyRecord struct {
	Tag        string `json:"tag"`
	Title      string `json:"title"`
	DateString string `json:"dateString"`
	IsExpired  bool   `json:"isExpired"`
}

// ResponsePayload is the result of a single scrape
type ResponsePayload struct {
	Message            string                    `json:"message"`
	BountiesByTag      map[string][]BountyRecord `json:"bountiesByTag"`
	NewlyAddedBounties []BountyRecord            `json:"newlyAddedBounties"`
}

// Updated reports whether the scrape found bounties not seen before
func (p ResponsePayload) Updated() bool {
	return len(p.NewlyAddedBounties) > 0
}

// ErrorResponse is the body returned for failed requests
type ErrorResponse struct {
	Error string `json:"error"`
}

// StringPtr returns a pointer to s
func StringPtr(s string) *string {
	return &s
}
