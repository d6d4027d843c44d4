// ABOUTME: Remote track search client
// ABOUTME: Queries an HTTP search index and picks the first playable result
package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/sirupsen/logrus"
)

// SearchResult is one entry returned by the search index
type SearchResult struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

type searchResponse struct {
	Results []SearchResult `json:"results"`
}

// Searcher resolves free-text queries to downloadable track URLs
type Searcher struct {
	endpoint string
	client   *http.Client
}

// NewSearcher creates a searcher for endpoint. A nil client uses http.DefaultClient.
func NewSearcher(endpoint string, client *http.Client) *Searcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &Searcher{endpoint: endpoint, client: client}
}

// Search returns the best match for query, or ErrNotFound
func (s *Searcher) Search(ctx context.Context, query string) (SearchResult, error) {
	if s.endpoint == "" {
		return SearchResult{}, fmt.Errorf("remote search is not configured")
	}

	u, err := url.Parse(s.endpoint)
	if err != nil {
		return SearchResult{}, fmt.Errorf("invalid search endpoint: %w", err)
	}
	params := u.Query()
	params.Set("q", query)
	u.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return SearchResult{}, fmt.Errorf("failed to build search request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return SearchResult{}, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return SearchResult{}, fmt.Errorf("search failed: HTTP %d", resp.StatusCode)
	}

	var body searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return SearchResult{}, fmt.Errorf("failed to parse search response: %w", err)
	}

	for _, result := range body.Results {
		if result.URL == "" {
			continue
		}
		logrus.WithFields(logrus.Fields{
			"function": "Search",
			"query":    query,
			"title":    result.Title,
		}).Debug("Search matched")
		return result, nil
	}

	return SearchResult{}, fmt.Errorf("%w: %q", ErrNotFound, query)
}
