// Package scraper implements the scrape_page tool: fetch a URL and reduce
// its HTML to readable text.
package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/ChamsBouzaiene/scout/internal/engine"
)

const (
	maxBodyBytes   = int64(2 << 20)
	maxContentLen  = 50000
	requestTimeout = 30 * time.Second
)

var (
	spaceRe    = regexp.MustCompile(`\s+`)
	newlinesRe = regexp.MustCompile(`\n{3,}`)
)

// Scraper fetches pages and extracts their text content.
type Scraper struct {
	http *http.Client
}

// NewScraper creates a page scraper.
func NewScraper() *Scraper {
	return &Scraper{http: &http.Client{Timeout: requestTimeout}}
}

// Fetch downloads url and returns its title and extracted text.
func (s *Scraper) Fetch(ctx context.Context, urlStr string) (title, text string, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return "", "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "Scout/1.0 (research agent)")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,text/plain;q=0.9,*/*;q=0.8")

	resp, err := s.http.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("failed to fetch %s: %w", urlStr, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("fetch %s: HTTP %d", urlStr, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", "", fmt.Errorf("failed to read %s: %w", urlStr, err)
	}

	contentType := strings.ToLower(resp.Header.Get("Content-Type"))
	if strings.Contains(contentType, "text/plain") || strings.Contains(contentType, "application/json") {
		return "", clampContent(string(body)), nil
	}

	title, text, err = extract(string(body))
	if err != nil {
		return "", "", fmt.Errorf("failed to parse %s: %w", urlStr, err)
	}
	return title, clampContent(text), nil
}

// extract walks the parsed HTML and collects the visible text, skipping
// chrome elements.
func extract(htmlContent string) (string, string, error) {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return "", "", err
	}

	skipTags := map[string]bool{
		"script": true, "style": true, "nav": true, "footer": true,
		"header": true, "aside": true, "noscript": true, "iframe": true,
	}
	blockTags := map[string]bool{
		"p": true, "div": true, "section": true, "article": true,
		"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
		"li": true, "tr": true, "br": true, "blockquote": true, "pre": true,
	}

	var title string
	var content strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			tag := strings.ToLower(n.Data)
			if skipTags[tag] {
				return
			}
			if tag == "title" && title == "" && n.FirstChild != nil {
				title = strings.TrimSpace(n.FirstChild.Data)
			}
		}
		if n.Type == html.TextNode {
			if text := strings.TrimSpace(n.Data); text != "" {
				content.WriteString(spaceRe.ReplaceAllString(text, " "))
				content.WriteString(" ")
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode && blockTags[strings.ToLower(n.Data)] {
			content.WriteString("\n")
		}
	}
	walk(doc)

	text := newlinesRe.ReplaceAllString(content.String(), "\n\n")
	return title, strings.TrimSpace(text), nil
}

func clampContent(s string) string {
	if len(s) > maxContentLen {
		return s[:maxContentLen] + "\n\n... (content truncated)"
	}
	return s
}

// New wraps the scraper as the scrape_page engine tool.
func New() engine.Tool {
	s := NewScraper()
	return engine.Tool{
		Kind:        engine.KindScrapePage,
		Description: "Fetches a web page and extracts its readable text. Use after web_search to read a promising result in full.",
		SchemaJSON:  `{"type":"object","properties":{"url":{"type":"string","description":"The page URL to fetch"}},"required":["url"]}`,
		Fn: func(ctx context.Context, args map[string]any) (string, error) {
			urlStr, _ := args["url"].(string)
			title, text, err := s.Fetch(ctx, urlStr)
			if err != nil {
				return "", err
			}
			out, err := json.Marshal(map[string]any{
				"url":   urlStr,
				"title": title,
				"text":  text,
			})
			if err != nil {
				return "", err
			}
			return string(out), nil
		},
	}
}
