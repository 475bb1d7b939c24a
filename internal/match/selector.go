package match

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/tablefare/enrich-cli/internal/model"
	"github.com/tablefare/enrich-cli/internal/resilience"
)

// Acceptance policy. Like the scoring weights these are fixed, not
// per-call knobs.
const (
	// SimilarityThreshold hard-rejects candidates before any page fetch.
	SimilarityThreshold = 0.80
	// DistanceLimitM hard-rejects candidates too far from the query.
	DistanceLimitM = 1000.0
	// ConfidenceThreshold is the sole acceptance gate for the best survivor.
	ConfidenceThreshold = 0.75
)

// RawCandidate is a search-result link before page validation.
type RawCandidate struct {
	URL  string
	Name string
}

// Retriever turns a (name, city) query into a bounded list of raw
// candidate links, in result-page order.
type Retriever interface {
	Search(ctx context.Context, name, city string) ([]RawCandidate, error)
}

// Validator resolves a raw candidate URL and confirms it is a genuine
// listing page. Implementations return an error satisfying
// IsPermanent for pages that fail validation; those candidates are
// dropped and never retried. Any other error (an exhausted transient
// fetch failure, a cancelled context) aborts the whole selection.
type Validator interface {
	Validate(ctx context.Context, rawURL string) (*model.Listing, error)
}

// Query identifies the record being matched.
type Query struct {
	Name      string
	City      string
	Area      string
	Latitude  *float64
	Longitude *float64
}

// Selection is the terminal state of one query's candidate funnel.
type Selection struct {
	Accepted bool
	Scored   *model.ScoredCandidate // nil unless Accepted
	Listing  *model.Listing         // nil unless Accepted
	Notes    string
}

// Selector runs the per-query state machine: collect, hard-reject on name,
// validate, hard-reject on distance, score, pick the best, gate on
// confidence. The name check runs before the page fetch so a query never
// costs more fetches than the retriever's candidate cap.
type Selector struct {
	retriever Retriever
	validator Validator
}

// NewSelector builds a Selector over a retriever and a page validator.
func NewSelector(retriever Retriever, validator Validator) *Selector {
	return &Selector{retriever: retriever, validator: validator}
}

type survivor struct {
	scored  model.ScoredCandidate
	listing model.Listing
	order   int
}

// Select matches one query end to end.
func (s *Selector) Select(ctx context.Context, q Query) (*Selection, error) {
	raw, err := s.retriever.Search(ctx, q.Name, q.City)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return &Selection{Notes: "no candidates found"}, nil
	}

	var (
		survivors     []survivor
		nameRejected  int
		pageRejected  int
		rangeRejected int
	)

	for i, rc := range raw {
		sim := Similarity(q.Name, rc.Name)
		if sim < SimilarityThreshold {
			nameRejected++
			continue
		}

		listing, err := s.validator.Validate(ctx, rc.URL)
		if err != nil {
			// Only a definitive page rejection drops the candidate. A
			// fetch failure that survived its retries means we never saw
			// the page, so the row degrades rather than reading as a miss.
			if !resilience.IsPermanent(err) {
				return nil, err
			}
			zap.L().Debug("match: candidate page rejected",
				zap.String("url", rc.URL),
				zap.Error(err),
			)
			pageRejected++
			continue
		}

		var distance *float64
		if q.Latitude != nil && q.Longitude != nil &&
			listing.Latitude != nil && listing.Longitude != nil {
			d := DistanceM(*q.Latitude, *q.Longitude, *listing.Latitude, *listing.Longitude)
			if d > DistanceLimitM {
				rangeRejected++
				continue
			}
			distance = &d
		}

		area := false
		if q.Area != "" && listing.Address != "" {
			area = AreaMatch(q.Area, listing.Address)
		}

		survivors = append(survivors, survivor{
			scored: model.ScoredCandidate{
				Candidate:      listing.Candidate,
				NameSimilarity: sim,
				DistanceM:      distance,
				AreaMatch:      area,
				Confidence:     Score(sim, area, distance),
			},
			listing: *listing,
			order:   i,
		})
	}

	if len(survivors) == 0 {
		return &Selection{Notes: rejectionNotes(nameRejected, pageRejected, rangeRejected)}, nil
	}

	best := pickBest(survivors)
	if best.scored.Confidence < ConfidenceThreshold {
		return &Selection{
			Notes: fmt.Sprintf("best candidate confidence %.2f below threshold %.2f",
				best.scored.Confidence, ConfidenceThreshold),
		}, nil
	}

	return &Selection{
		Accepted: true,
		Scored:   &best.scored,
		Listing:  &best.listing,
		Notes:    acceptedNotes(best.scored),
	}, nil
}

// pickBest orders by confidence descending, then lowest known distance
// (unknown sorts last), then first-seen order.
func pickBest(survivors []survivor) survivor {
	sort.SliceStable(survivors, func(i, j int) bool {
		a, b := survivors[i], survivors[j]
		if a.scored.Confidence != b.scored.Confidence {
			return a.scored.Confidence > b.scored.Confidence
		}
		switch {
		case a.scored.DistanceM != nil && b.scored.DistanceM != nil:
			if *a.scored.DistanceM != *b.scored.DistanceM {
				return *a.scored.DistanceM < *b.scored.DistanceM
			}
		case a.scored.DistanceM != nil:
			return true
		case b.scored.DistanceM != nil:
			return false
		}
		return a.order < b.order
	})
	return survivors[0]
}

func rejectionNotes(name, page, distance int) string {
	var parts []string
	if name > 0 {
		parts = append(parts, fmt.Sprintf("%d below name similarity threshold", name))
	}
	if page > 0 {
		parts = append(parts, fmt.Sprintf("%d failed page validation", page))
	}
	if distance > 0 {
		parts = append(parts, fmt.Sprintf("%d beyond distance limit", distance))
	}
	return "all candidates rejected: " + strings.Join(parts, ", ")
}

func acceptedNotes(sc model.ScoredCandidate) string {
	notes := fmt.Sprintf("name similarity %.2f", sc.NameSimilarity)
	if sc.AreaMatch {
		notes += "; area match"
	}
	if sc.DistanceM != nil {
		notes += fmt.Sprintf("; distance %.0fm", *sc.DistanceM)
	}
	return notes
}
