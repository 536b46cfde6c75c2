// Package tools assembles the engine.ToolRegistry from the individual tool
// packages.
package tools

import (
	"github.com/ChamsBouzaiene/scout/internal/engine"
	"github.com/ChamsBouzaiene/scout/internal/kb"
	"github.com/ChamsBouzaiene/scout/internal/tools/calculator"
	"github.com/ChamsBouzaiene/scout/internal/tools/docsearch"
	"github.com/ChamsBouzaiene/scout/internal/tools/meta"
	"github.com/ChamsBouzaiene/scout/internal/tools/scraper"
	"github.com/ChamsBouzaiene/scout/internal/tools/websearch"
)

// Options selects which tool families are registered and configures them.
type Options struct {
	SearchBaseURL string    // SearxNG instance; empty disables web_search and scrape_page
	DocIndex      *kb.Index // nil disables doc_search
}

// NewRegistry builds the registry for one session. The calculator and the
// terminal tool are always present.
func NewRegistry(opts Options) engine.ToolRegistry {
	reg := make(engine.ToolRegistry)

	if opts.SearchBaseURL != "" {
		webSearch := websearch.New(opts.SearchBaseURL)
		reg[webSearch.Kind] = webSearch
		scrape := scraper.New()
		reg[scrape.Kind] = scrape
	}
	if opts.DocIndex != nil {
		docSearch := docsearch.New(opts.DocIndex)
		reg[docSearch.Kind] = docSearch
	}

	calc := calculator.New()
	reg[calc.Kind] = calc
	final := meta.NewFinal()
	reg[final.Kind] = final

	return reg
}
