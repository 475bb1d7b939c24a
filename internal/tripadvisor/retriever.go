// Package tripadvisor turns free-text queries into validated listing
// candidates: search-result retrieval, detail-page validation via the
// embedded structured marker, and critical-field extraction.
package tripadvisor

import (
	"bytes"
	"context"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/tablefare/enrich-cli/internal/fetch"
	"github.com/tablefare/enrich-cli/internal/match"
)

// DefaultBaseURL is the listing site queried for fallback data.
const DefaultBaseURL = "https://www.tripadvisor.co.uk"

// candidateCap bounds how many search-result links one query considers,
// which in turn bounds the worst-case page fetches per record.
const candidateCap = 5

// detailPathPrefix marks a restaurant detail page URL.
const detailPathPrefix = "/Restaurant_Review"

// Retriever issues one search request per query and parses the result
// page for detail-page links.
type Retriever struct {
	fetcher fetch.Fetcher
	baseURL string
}

// NewRetriever creates a Retriever over the given fetcher. baseURL falls
// back to DefaultBaseURL when empty.
func NewRetriever(fetcher fetch.Fetcher, baseURL string) *Retriever {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Retriever{fetcher: fetcher, baseURL: strings.TrimRight(baseURL, "/")}
}

// Search queries the listing site for "<name> <city>" and returns up to
// the candidate cap of (url, displayed name) pairs in result-page order.
// An empty result page yields an empty slice, not an error.
func (r *Retriever) Search(ctx context.Context, name, city string) ([]match.RawCandidate, error) {
	query := strings.TrimSpace(name + " " + city)
	searchURL := r.baseURL + "/Search?q=" + url.QueryEscape(query)

	page, err := r.fetcher.Fetch(ctx, searchURL)
	if err != nil {
		return nil, eris.Wrapf(err, "tripadvisor: search %q", query)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page.Body))
	if err != nil {
		return nil, eris.Wrap(err, "tripadvisor: parse search results")
	}

	base, err := url.Parse(r.baseURL)
	if err != nil {
		return nil, eris.Wrapf(err, "tripadvisor: parse base url %s", r.baseURL)
	}

	var candidates []match.RawCandidate
	seen := make(map[string]struct{})
	doc.Find("a[href*='" + detailPathPrefix + "']").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, ok := sel.Attr("href")
		if !ok || href == "" {
			return true
		}
		ref, err := url.Parse(href)
		if err != nil {
			return true
		}
		abs := base.ResolveReference(ref)
		abs.Fragment = ""
		link := abs.String()
		if _, dup := seen[link]; dup {
			return true
		}
		display := strings.Join(strings.Fields(sel.Text()), " ")
		if display == "" {
			return true
		}
		seen[link] = struct{}{}
		candidates = append(candidates, match.RawCandidate{URL: link, Name: display})
		return len(candidates) < candidateCap
	})

	zap.L().Debug("tripadvisor: search complete",
		zap.String("query", query),
		zap.Int("candidates", len(candidates)),
	)
	return candidates, nil
}
