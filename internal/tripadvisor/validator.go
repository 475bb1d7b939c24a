package tripadvisor

import (
	"bytes"
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/tablefare/enrich-cli/internal/fetch"
	"github.com/tablefare/enrich-cli/internal/model"
	"github.com/tablefare/enrich-cli/internal/resilience"
)

// ErrInvalidListing marks a candidate page that failed validation: the
// redirect landed off the detail-page pattern, or the page carries no
// restaurant marker. Callers drop the candidate and never retry it.
var ErrInvalidListing = eris.New("tripadvisor: not a valid listing page")

// Validator fetches candidate URLs, follows redirects and confirms the
// destination is a genuine restaurant detail page.
type Validator struct {
	fetcher fetch.Fetcher
}

// NewValidator creates a Validator over the given fetcher.
func NewValidator(fetcher fetch.Fetcher) *Validator {
	return &Validator{fetcher: fetcher}
}

// Validate resolves rawURL and checks that (a) the final post-redirect URL
// still matches the detail-page path and (b) the page embeds a structured
// restaurant marker. On success it returns the listing with whatever
// coordinates, address, images and critical fields the page exposed.
func (v *Validator) Validate(ctx context.Context, rawURL string) (*model.Listing, error) {
	page, err := v.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		return nil, eris.Wrapf(err, "tripadvisor: fetch candidate %s", rawURL)
	}

	final, err := url.Parse(page.FinalURL)
	if err != nil || !strings.HasPrefix(final.Path, detailPathPrefix) {
		zap.L().Debug("tripadvisor: redirect left detail page",
			zap.String("requested", rawURL),
			zap.String("resolved", page.FinalURL),
		)
		return nil, resilience.NewPermanentError(
			eris.Wrapf(ErrInvalidListing, "resolved to %s", page.FinalURL))
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page.Body))
	if err != nil {
		return nil, eris.Wrapf(err, "tripadvisor: parse candidate %s", rawURL)
	}

	marker := findRestaurantMarker(doc)
	if marker == nil {
		return nil, resilience.NewPermanentError(
			eris.Wrapf(ErrInvalidListing, "no restaurant marker at %s", page.FinalURL))
	}

	listing := &model.Listing{
		Candidate: model.Candidate{
			URL:     page.FinalURL,
			Name:    marker.Name,
			Address: marker.Address.String(),
			Images:  marker.Image,
		},
		Phone:        marker.Telephone,
		PriceRange:   marker.PriceRange,
		CuisineType:  marker.ServesCuisine.first(),
		OpeningHours: strings.Join(marker.OpeningHours, "; "),
	}

	if marker.Geo != nil && marker.Geo.Latitude.Set && marker.Geo.Longitude.Set {
		lat, lon := marker.Geo.Latitude.Value, marker.Geo.Longitude.Value
		listing.Latitude, listing.Longitude = &lat, &lon
	} else if lat, lon, ok := embeddedCoordinates(doc); ok {
		listing.Latitude, listing.Longitude = &lat, &lon
	}

	fillFromPage(listing, doc)
	return listing, nil
}

// embeddedCoordinates reads page-level coordinate attributes, used when
// the structured marker lacks geo fields.
func embeddedCoordinates(doc *goquery.Document) (lat, lon float64, ok bool) {
	// "lat;lon" geo.position metas.
	if content, exists := doc.Find("meta[name='geo.position']").Attr("content"); exists {
		parts := strings.SplitN(content, ";", 2)
		if len(parts) == 2 {
			la, errA := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
			lo, errB := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
			if errA == nil && errB == nil {
				return la, lo, true
			}
		}
	}

	latStr, latOK := doc.Find("meta[property='place:location:latitude']").Attr("content")
	lonStr, lonOK := doc.Find("meta[property='place:location:longitude']").Attr("content")
	if latOK && lonOK {
		la, errA := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
		lo, errB := strconv.ParseFloat(strings.TrimSpace(lonStr), 64)
		if errA == nil && errB == nil {
			return la, lo, true
		}
	}

	return 0, 0, false
}
