// Package docsearch implements the doc_search tool over the local document
// knowledge base.
package docsearch

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/ChamsBouzaiene/scout/internal/engine"
	"github.com/ChamsBouzaiene/scout/internal/kb"
)

const defaultLimit = 5

// relevanceLabel buckets a hit's score relative to the best hit, so the model
// reads a coarse signal instead of raw BM25 numbers.
func relevanceLabel(score, best float64) string {
	if best <= 0 {
		return "low"
	}
	switch ratio := score / best; {
	case ratio >= 0.75:
		return "high"
	case ratio >= 0.4:
		return "medium"
	default:
		return "low"
	}
}

type hit struct {
	Path      string  `json:"path"`
	Score     float64 `json:"score"`
	Relevance string  `json:"relevance"`
	Excerpt   string  `json:"excerpt"`
}

// New wraps the document index as the doc_search engine tool. The "answer"
// field carries the best excerpt so downstream summarization has a single
// line to lift.
func New(idx *kb.Index) engine.Tool {
	return engine.Tool{
		Kind:        engine.KindDocSearch,
		Description: "Searches the local document knowledge base (reports, notes, filings on disk). Prefer this over web search for material already collected.",
		SchemaJSON:  `{"type":"object","properties":{"query":{"type":"string","description":"The search query"},"limit":{"type":"integer","description":"Maximum documents to return (default 5)"}},"required":["query"]}`,
		Fn: func(ctx context.Context, args map[string]any) (string, error) {
			query, _ := args["query"].(string)
			limit := defaultLimit
			if n, ok := args["limit"].(float64); ok && int(n) > 0 {
				limit = int(n)
			}

			results, err := idx.Search(query, limit)
			if err != nil {
				return "", err
			}

			answer := ""
			if len(results) > 0 {
				answer = strings.TrimSpace(results[0].Excerpt)
			}

			hits := make([]hit, 0, len(results))
			var best float64
			if len(results) > 0 {
				best = results[0].Score
			}
			for _, r := range results {
				hits = append(hits, hit{
					Path:      r.Path,
					Score:     r.Score,
					Relevance: relevanceLabel(r.Score, best),
					Excerpt:   r.Excerpt,
				})
			}

			out, err := json.Marshal(map[string]any{
				"query":   query,
				"answer":  answer,
				"results": hits,
				"count":   len(hits),
			})
			if err != nil {
				return "", err
			}
			return string(out), nil
		},
	}
}
