// Package kb maintains the local document knowledge base the doc_search tool
// queries: a BM25 index over a directory of text and markdown files, kept
// fresh by a filesystem watcher.
package kb

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
)

// Result is one document hit.
type Result struct {
	Path    string  `json:"path"`
	Score   float64 `json:"score"`
	Excerpt string  `json:"excerpt"`
}

// Index provides BM25 keyword search over knowledge-base documents.
type Index struct {
	index   bleve.Index
	docsDir string
}

const excerptLen = 300

// docExtensions lists the file types ingested into the index.
var docExtensions = map[string]bool{
	".md":  true,
	".txt": true,
	".rst": true,
}

// Open creates or opens the index for docsDir at indexPath. A corrupted
// index is deleted and rebuilt from the documents on disk.
func Open(indexPath, docsDir string) (*Index, error) {
	index, err := bleve.Open(indexPath)
	if err == bleve.ErrorIndexPathDoesNotExist {
		index, err = bleve.New(indexPath, buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("failed to create document index: %w", err)
		}
	} else if err != nil {
		log.Printf("kb: index appears corrupted (%v), recreating", err)
		if index != nil {
			index.Close()
		}
		if err := os.RemoveAll(indexPath); err != nil {
			return nil, fmt.Errorf("failed to remove corrupted index: %w", err)
		}
		index, err = bleve.New(indexPath, buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("failed to recreate document index: %w", err)
		}
	}

	idx := &Index{index: index, docsDir: docsDir}
	if err := idx.Reindex(); err != nil {
		index.Close()
		return nil, err
	}
	return idx, nil
}

func buildIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()
	docMapping := bleve.NewDocumentMapping()

	pathField := bleve.NewTextFieldMapping()
	pathField.Analyzer = keyword.Name
	pathField.Store = true
	pathField.Index = true
	docMapping.AddFieldMappingsAt("path", pathField)

	textField := bleve.NewTextFieldMapping()
	textField.Analyzer = standard.Name
	textField.Store = true
	textField.Index = true
	docMapping.AddFieldMappingsAt("text", textField)

	titleField := bleve.NewTextFieldMapping()
	titleField.Analyzer = standard.Name
	titleField.Store = true
	titleField.Index = true
	docMapping.AddFieldMappingsAt("title", titleField)

	indexMapping.DefaultMapping = docMapping
	return indexMapping
}

// Reindex walks docsDir and (re)indexes every recognized document.
func (idx *Index) Reindex() error {
	batch := idx.index.NewBatch()
	count := 0

	err := filepath.WalkDir(idx.docsDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() || !docExtensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}
		rel, err := filepath.Rel(idx.docsDir, path)
		if err != nil {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			log.Printf("kb: skipping unreadable document %s: %v", rel, err)
			return nil
		}
		if err := batch.Index(rel, docFields(rel, string(data))); err != nil {
			return fmt.Errorf("failed to batch document %s: %w", rel, err)
		}
		count++
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to walk documents: %w", err)
	}

	if err := idx.index.Batch(batch); err != nil {
		return fmt.Errorf("failed to index documents: %w", err)
	}
	log.Printf("kb: indexed %d documents from %s", count, idx.docsDir)
	return nil
}

// Update re-indexes one document by its path relative to docsDir, removing
// it when the file no longer exists.
func (idx *Index) Update(rel string) error {
	if !docExtensions[strings.ToLower(filepath.Ext(rel))] {
		return nil
	}
	data, err := os.ReadFile(filepath.Join(idx.docsDir, rel))
	if os.IsNotExist(err) {
		return idx.index.Delete(rel)
	}
	if err != nil {
		return fmt.Errorf("failed to read document %s: %w", rel, err)
	}
	return idx.index.Index(rel, docFields(rel, string(data)))
}

func docFields(rel, text string) map[string]any {
	title := strings.TrimSuffix(filepath.Base(rel), filepath.Ext(rel))
	line, _, _ := strings.Cut(text, "\n")
	if heading := strings.TrimSpace(strings.TrimLeft(line, "# ")); heading != "" {
		title = heading
	}
	return map[string]any{
		"path":  rel,
		"title": title,
		"text":  text,
	}
}

// Search performs a BM25 search and returns the top k documents.
func (idx *Index) Search(query string, k int) ([]Result, error) {
	req := bleve.NewSearchRequest(bleve.NewMatchQuery(query))
	req.Size = k
	req.Fields = []string{"path", "text"}

	res, err := idx.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("document search failed: %w", err)
	}

	results := make([]Result, 0, len(res.Hits))
	for _, hit := range res.Hits {
		r := Result{Path: hit.ID, Score: hit.Score}
		if text, ok := hit.Fields["text"].(string); ok {
			r.Excerpt = excerpt(text)
		}
		results = append(results, r)
	}
	return results, nil
}

// Close closes the underlying index.
func (idx *Index) Close() error {
	return idx.index.Close()
}

func excerpt(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	if len(text) > excerptLen {
		return text[:excerptLen] + "..."
	}
	return text
}
