package tripadvisor

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/tablefare/enrich-cli/internal/model"
)

var (
	telHrefPattern  = regexp.MustCompile(`^tel:`)
	poundRunPattern = regexp.MustCompile(`£{1,4}(\s*[-–/]\s*£{1,4})?`)
	weekdayAbbrevs  = []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}
)

// fillFromPage supplements a listing with page-level heuristics for any
// critical field the structured marker did not supply.
func fillFromPage(listing *model.Listing, doc *goquery.Document) {
	if listing.Phone == "" {
		listing.Phone = extractPhone(doc)
	}
	if listing.PriceRange == "" {
		listing.PriceRange = extractPriceRange(doc)
	}
	if listing.CuisineType == "" {
		listing.CuisineType = extractCuisine(doc)
	}
	if listing.OpeningHours == "" {
		listing.OpeningHours = extractHours(doc)
	}
}

// extractPhone prefers tel: links, the most reliable phone source.
func extractPhone(doc *goquery.Document) string {
	var phone string
	doc.Find("a[href^='tel:']").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, _ := sel.Attr("href")
		phone = strings.TrimSpace(telHrefPattern.ReplaceAllString(href, ""))
		return phone == ""
	})
	return phone
}

// extractPriceRange finds the first £-run on the page, e.g. "££ - £££".
func extractPriceRange(doc *goquery.Document) string {
	text := doc.Text()
	m := poundRunPattern.FindString(text)
	return strings.TrimSpace(m)
}

// extractCuisine reads the text of a cuisine filter link.
func extractCuisine(doc *goquery.Document) string {
	var cuisine string
	doc.Find("a[href*='cuisine']").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		cuisine = strings.TrimSpace(sel.Text())
		return cuisine == ""
	})
	return cuisine
}

// extractHours scans hours-ish nodes for text mentioning a weekday.
func extractHours(doc *goquery.Document) string {
	selectors := []string{
		"[data-testid*='hours']",
		"[class*='hours']",
		"[class*='Hours']",
	}
	for _, sel := range selectors {
		var hours string
		doc.Find(sel).EachWithBreak(func(_ int, node *goquery.Selection) bool {
			text := strings.Join(strings.Fields(node.Text()), " ")
			for _, day := range weekdayAbbrevs {
				if strings.Contains(text, day) {
					hours = text
					return false
				}
			}
			return true
		})
		if hours != "" {
			return hours
		}
	}
	return ""
}
