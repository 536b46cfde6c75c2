// Package websearch implements the web_search tool against a SearxNG
// instance's JSON API.
package websearch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/ChamsBouzaiene/scout/internal/engine"
)

const (
	defaultResults = 5
	maxResults     = 10
)

// Result is a single search hit.
type Result struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// Client queries a SearxNG search endpoint.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a search client for the given SearxNG base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// Search runs one query and returns up to numResults hits. category narrows
// the SearxNG engine set ("general", "news", "science"); empty means general.
func (c *Client) Search(ctx context.Context, query, category string, numResults int) ([]Result, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	if category != "" {
		params.Set("categories", category)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create search request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("search API error %d: %s", resp.StatusCode, string(body))
	}

	var data struct {
		Results []struct {
			Title   string `json:"title"`
			URL     string `json:"url"`
			Content string `json:"content"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to parse search response: %w", err)
	}

	results := make([]Result, 0, numResults)
	for _, r := range data.Results {
		results = append(results, Result{Title: r.Title, URL: r.URL, Snippet: r.Content})
		if len(results) >= numResults {
			break
		}
	}
	return results, nil
}

// New wraps the client as the web_search engine tool.
func New(baseURL string) engine.Tool {
	client := NewClient(baseURL)
	return engine.Tool{
		Kind:        engine.KindWebSearch,
		Description: "Searches the web and returns relevant results. Useful for finding current information, filings, announcements, or coverage of an entity.",
		SchemaJSON:  `{"type":"object","properties":{"query":{"type":"string","description":"The search query"},"category":{"type":"string","enum":["general","news","science"],"description":"Search category (default general)"},"num_results":{"type":"integer","description":"Number of results to return (default 5, max 10)"}},"required":["query"]}`,
		Fn: func(ctx context.Context, args map[string]any) (string, error) {
			query, _ := args["query"].(string)
			category, _ := args["category"].(string)
			numResults := defaultResults
			if n, ok := args["num_results"].(float64); ok && int(n) > 0 {
				numResults = int(n)
			}
			if numResults > maxResults {
				numResults = maxResults
			}

			results, err := client.Search(ctx, query, category, numResults)
			if err != nil {
				return "", err
			}

			out, err := json.Marshal(map[string]any{
				"query":   query,
				"results": results,
				"count":   len(results),
			})
			if err != nil {
				return "", err
			}
			return string(out), nil
		},
	}
}
