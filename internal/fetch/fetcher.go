// Package fetch provides the page-fetching collaborator used by candidate
// retrieval and page validation: rate-limited, retrying HTTP with rotating
// request identities.
package fetch

import "context"

// Page is a fetched document. FinalURL is the URL after any redirects were
// followed, which callers check against the expected detail-page pattern.
type Page struct {
	FinalURL   string
	StatusCode int
	Body       []byte
}

// Fetcher retrieves a single URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*Page, error)
}
