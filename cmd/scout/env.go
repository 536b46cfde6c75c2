package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/ChamsBouzaiene/scout/internal/config"
	"github.com/ChamsBouzaiene/scout/internal/kb"
	"github.com/ChamsBouzaiene/scout/internal/providers"
	"github.com/ChamsBouzaiene/scout/internal/session"
)

// runtimeEnv holds the long-lived resources one invocation wires up.
type runtimeEnv struct {
	Provider providers.Options
	DocIndex *kb.Index
	Store    *session.Store

	watcher *kb.Watcher
}

func (r *runtimeEnv) Close() {
	if r.watcher != nil {
		if err := r.watcher.Stop(); err != nil {
			log.Printf("failed to stop kb watcher: %v", err)
		}
	}
	if r.DocIndex != nil {
		r.DocIndex.Close()
	}
	if r.Store != nil {
		r.Store.Close()
	}
}

// prepareRuntimeEnv resolves configuration (saved config file, then
// environment, then flags), opens the document index when a docs dir is
// available, and opens the audit store.
func prepareRuntimeEnv(ctx context.Context, docsFlag, dataFlag string) (*runtimeEnv, *config.Config, error) {
	cfg := &config.Config{}
	if mgr, err := config.NewManager(); err == nil {
		if loaded, err := mgr.Load(); err != nil {
			log.Printf("failed to load config file: %v (continuing with env)", err)
		} else {
			cfg = loaded
		}
	}

	opts := providers.FromEnv()
	if cfg.LLMProvider != "" {
		opts.Provider = cfg.LLMProvider
	}
	if cfg.APIKey != "" {
		opts.APIKey = cfg.APIKey
	}
	if cfg.Model != "" {
		opts.Model = cfg.Model
	}
	if cfg.BaseURL != "" {
		opts.BaseURL = cfg.BaseURL
	}
	if opts.APIKey == "" {
		return nil, nil, fmt.Errorf("no API key configured for provider %s", opts.Provider)
	}

	if cfg.SearchBaseURL == "" {
		cfg.SearchBaseURL = os.Getenv("SEARXNG_URL")
	}

	dataDir := dataFlag
	if dataDir == "" {
		dataDir = cfg.DataDir
	}
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to resolve home dir: %w", err)
		}
		dataDir = filepath.Join(home, ".scout")
	}
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, nil, fmt.Errorf("failed to create data dir: %w", err)
	}

	env := &runtimeEnv{Provider: opts}

	docsDir := docsFlag
	if docsDir == "" {
		docsDir = cfg.DocsDir
	}
	if docsDir != "" {
		absDocs, err := filepath.Abs(docsDir)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to resolve docs dir: %w", err)
		}
		if info, err := os.Stat(absDocs); err != nil || !info.IsDir() {
			return nil, nil, fmt.Errorf("docs path is not a valid directory: %s", absDocs)
		}

		idx, err := kb.Open(filepath.Join(dataDir, "docs.bleve"), absDocs)
		if err != nil {
			log.Printf("failed to open document index: %v (doc_search disabled)", err)
		} else {
			env.DocIndex = idx
			watcher, err := kb.NewWatcher(absDocs, idx)
			if err != nil {
				log.Printf("failed to create kb watcher: %v (index will not auto-refresh)", err)
			} else if err := watcher.Start(); err != nil {
				log.Printf("failed to start kb watcher: %v (index will not auto-refresh)", err)
			} else {
				env.watcher = watcher
			}
		}
	}

	store, err := session.Open(ctx, filepath.Join(dataDir, "sessions.db"))
	if err != nil {
		env.Close()
		return nil, nil, fmt.Errorf("failed to open session store: %w", err)
	}
	env.Store = store

	return env, cfg, nil
}
