package tripadvisor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tablefare/enrich-cli/internal/fetch"
)

// fakeFetcher returns canned pages per URL.
type fakeFetcher struct {
	pages map[string]*fetch.Page
	errs  map[string]error
	calls []string
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) (*fetch.Page, error) {
	f.calls = append(f.calls, url)
	if err, ok := f.errs[url]; ok {
		return nil, err
	}
	if p, ok := f.pages[url]; ok {
		return p, nil
	}
	return nil, assert.AnError
}

func searchPage(body string) *fetch.Page {
	return &fetch.Page{FinalURL: "https://ta.example/Search", StatusCode: 200, Body: []byte(body)}
}

const searchURL = "https://ta.example/Search?q=Dishoom+London"

func TestSearch_ParsesDetailLinks(t *testing.T) {
	body := `<html><body>
		<a href="/Restaurant_Review-g186338-d1234-Reviews-Dishoom-London.html">Dishoom</a>
		<a href="/Restaurant_Review-g186338-d5678-Reviews-Dishoom_Shoreditch-London.html">Dishoom Shoreditch</a>
		<a href="/Hotel_Review-g186338-d9999-Reviews-Some_Hotel.html">Some Hotel</a>
	</body></html>`
	ff := &fakeFetcher{pages: map[string]*fetch.Page{searchURL: searchPage(body)}}
	r := NewRetriever(ff, "https://ta.example")

	candidates, err := r.Search(context.Background(), "Dishoom", "London")
	require.NoError(t, err)
	require.Len(t, candidates, 2)
	assert.Equal(t, "https://ta.example/Restaurant_Review-g186338-d1234-Reviews-Dishoom-London.html", candidates[0].URL)
	assert.Equal(t, "Dishoom", candidates[0].Name)
	assert.Equal(t, "Dishoom Shoreditch", candidates[1].Name)
}

func TestSearch_CapsCandidates(t *testing.T) {
	body := "<html><body>"
	for i := 0; i < 10; i++ {
		body += `<a href="/Restaurant_Review-d` + string(rune('0'+i)) + `.html">Place ` + string(rune('0'+i)) + `</a>`
	}
	body += "</body></html>"
	ff := &fakeFetcher{pages: map[string]*fetch.Page{searchURL: searchPage(body)}}
	r := NewRetriever(ff, "https://ta.example")

	candidates, err := r.Search(context.Background(), "Dishoom", "London")
	require.NoError(t, err)
	assert.Len(t, candidates, 5)
}

func TestSearch_DeduplicatesLinks(t *testing.T) {
	body := `<html><body>
		<a href="/Restaurant_Review-d1.html">Dishoom</a>
		<a href="/Restaurant_Review-d1.html">Dishoom again</a>
	</body></html>`
	ff := &fakeFetcher{pages: map[string]*fetch.Page{searchURL: searchPage(body)}}
	r := NewRetriever(ff, "https://ta.example")

	candidates, err := r.Search(context.Background(), "Dishoom", "London")
	require.NoError(t, err)
	assert.Len(t, candidates, 1)
}

func TestSearch_AbsoluteLinksKept(t *testing.T) {
	body := `<html><body>
		<a href="https://ta.example/Restaurant_Review-d1.html">Dishoom</a>
	</body></html>`
	ff := &fakeFetcher{pages: map[string]*fetch.Page{searchURL: searchPage(body)}}
	r := NewRetriever(ff, "https://ta.example")

	candidates, err := r.Search(context.Background(), "Dishoom", "London")
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "https://ta.example/Restaurant_Review-d1.html", candidates[0].URL)
}

func TestSearch_EmptyResults(t *testing.T) {
	ff := &fakeFetcher{pages: map[string]*fetch.Page{
		searchURL: searchPage("<html><body>No results found</body></html>"),
	}}
	r := NewRetriever(ff, "https://ta.example")

	candidates, err := r.Search(context.Background(), "Dishoom", "London")
	require.NoError(t, err)
	assert.Empty(t, candidates)
}

func TestSearch_FetchErrorPropagates(t *testing.T) {
	ff := &fakeFetcher{errs: map[string]error{searchURL: assert.AnError}}
	r := NewRetriever(ff, "https://ta.example")

	_, err := r.Search(context.Background(), "Dishoom", "London")
	assert.Error(t, err)
}

func TestSearch_QueryEscaped(t *testing.T) {
	esc := "https://ta.example/Search?q=Nando%27s+%26+Co+London"
	ff := &fakeFetcher{pages: map[string]*fetch.Page{esc: searchPage("<html></html>")}}
	r := NewRetriever(ff, "https://ta.example")

	_, err := r.Search(context.Background(), "Nando's & Co", "London")
	require.NoError(t, err)
	require.Len(t, ff.calls, 1)
	assert.Equal(t, esc, ff.calls[0])
}
