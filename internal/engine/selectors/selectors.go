// Package selectors holds the selector chain that locates bounty listings in a
// rendered document and the goquery walk that applies it.
package selectors

import (
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/law-makers/bounty/pkg/models"
	"github.com/rs/zerolog/log"
)

// Rule describes one listing layout: the container element and the nested
// selectors for each field, relative to the container. A field selector is a
// comma separated priority list; the first alternative that matches anything
// wins, regardless of where its match sits in the document.
type Rule struct {
	Name      string
	Container string
	Tag       string
	Title     string
	Date      string
}

// Chain is an ordered list of rules. The first rule whose container selector
// matches at least one node is used for the whole document.
type Chain []Rule

// DefaultChain matches the listings page markup. The card layout is tried
// first, the legacy nested-div layout second.
var DefaultChain = Chain{
	{
		Name:      "card",
		Container: "a[href*='/listings/'], a[href*='/bounties/']",
		Tag:       "[data-tag], .tag, span",
		Title:     "h2, h3, [data-title], p.title",
		Date:      "time, [data-deadline], .deadline",
	},
	{
		Name:      "legacy",
		Container: "body > div > div > div > a > div",
		Tag:       "span",
		Title:     "p",
		Date:      "time, small",
	},
}

// dateAttrs are read before falling back to the element text
var dateAttrs = []string{"datetime", "data-deadline"}

// Parse runs the chain over an HTML document and returns every container hit,
// including records with missing fields.
func (c Chain) Parse(r io.Reader) ([]models.RawRecord, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, err
	}
	return c.ParseDocument(doc), nil
}

// ParseDocument runs the chain over an already parsed document
func (c Chain) ParseDocument(doc *goquery.Document) []models.RawRecord {
	if doc == nil {
		return nil
	}

	for _, rule := range c {
		containers := doc.Find(rule.Container)
		if containers.Length() == 0 {
			continue
		}

		log.Debug().
			Str("rule", rule.Name).
			Int("containers", containers.Length()).
			Msg("Selector rule matched")

		records := make([]models.RawRecord, 0, containers.Length())
		containers.Each(func(i int, sel *goquery.Selection) {
			records = append(records, rule.extract(sel))
		})
		return records
	}

	log.Debug().Int("rules", len(c)).Msg("No selector rule matched")
	return []models.RawRecord{}
}

func (r Rule) extract(container *goquery.Selection) models.RawRecord {
	return models.RawRecord{
		Tag:   text(container, r.Tag),
		Title: text(container, r.Title),
		Date:  date(container, r.Date),
	}
}

// first returns the first node matched by the highest priority alternative
func first(container *goquery.Selection, selector string) *goquery.Selection {
	for _, alt := range strings.Split(selector, ",") {
		alt = strings.TrimSpace(alt)
		if alt == "" {
			continue
		}
		if sel := container.Find(alt).First(); sel.Length() > 0 {
			return sel
		}
	}
	return nil
}

// text returns the normalized text of the first match, nil when absent or blank
func text(container *goquery.Selection, selector string) *string {
	sel := first(container, selector)
	if sel == nil {
		return nil
	}
	return nonEmpty(sel.Text())
}

func date(container *goquery.Selection, selector string) *string {
	sel := first(container, selector)
	if sel == nil {
		return nil
	}
	for _, attr := range dateAttrs {
		if v, ok := sel.Attr(attr); ok {
			if s := nonEmpty(v); s != nil {
				return s
			}
		}
	}
	return nonEmpty(sel.Text())
}

func nonEmpty(s string) *string {
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return nil
	}
	return &s
}

// Complete keeps only records with tag, title and date all present
func Complete(records []models.RawRecord) []models.RawRecord {
	out := make([]models.RawRecord, 0, len(records))
	for _, rec := range records {
		if rec.Complete() {
			out = append(out, rec)
		}
	}
	return out
}
