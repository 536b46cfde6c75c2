// Command scout runs one adaptive research session from the command line.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/ChamsBouzaiene/scout/internal/engine"
	"github.com/ChamsBouzaiene/scout/internal/providers"
	"github.com/ChamsBouzaiene/scout/internal/reasoning"
	"github.com/ChamsBouzaiene/scout/internal/research"
	"github.com/ChamsBouzaiene/scout/internal/tools"
)

func main() {
	_ = godotenv.Load()

	if err := run(context.Background(), os.Args[1:]); err != nil {
		log.Fatalf("scout: %v", err)
	}
}

func run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("scout", flag.ExitOnError)
	contextFlag := fs.String("context", "", "Additional context for the investigation")
	docsFlag := fs.String("docs", "", "Directory of documents for the local knowledge base")
	dataFlag := fs.String("data", "", "Data directory for indexes and the audit database (default ~/.scout)")
	maxAdaptations := fs.Int("max-adaptations", 0, "Plan revisions allowed per session (default 3)")
	noPersist := fs.Bool("no-persist", false, "Skip writing the session to the audit database")

	if err := fs.Parse(args); err != nil {
		return err
	}
	query := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if query == "" {
		return fmt.Errorf("usage: scout [flags] <query>")
	}

	env, cfg, err := prepareRuntimeEnv(ctx, *docsFlag, *dataFlag)
	if err != nil {
		return err
	}
	defer env.Close()

	llm, err := providers.New(env.Provider)
	if err != nil {
		return err
	}

	registry := tools.NewRegistry(tools.Options{
		SearchBaseURL: cfg.SearchBaseURL,
		DocIndex:      env.DocIndex,
	})
	dispatcher := engine.NewDispatcher(registry)

	rs := reasoning.NewLLMService(llm, env.Provider.Model, registry)

	sessionCfg := research.DefaultConfig()
	if *maxAdaptations > 0 {
		sessionCfg.MaxAdaptations = *maxAdaptations
	} else if cfg.MaxAdaptations > 0 {
		sessionCfg.MaxAdaptations = cfg.MaxAdaptations
	}
	if cfg.KnowledgeLimit > 0 {
		sessionCfg.KnowledgeLimit = cfg.KnowledgeLimit
	}
	if cfg.QualityThreshold > 0 {
		sessionCfg.Evaluator.QualityThreshold = cfg.QualityThreshold
	}
	if cfg.ConfidenceThreshold > 0 {
		sessionCfg.Evaluator.ConfidenceThreshold = cfg.ConfidenceThreshold
	}

	sess := research.NewSession(rs, rs, dispatcher, sessionCfg)

	report, err := sess.Run(ctx, query, *contextFlag)
	if err != nil {
		return err
	}

	printReport(report)

	if !*noPersist && env.Store != nil {
		if err := env.Store.Save(ctx, report); err != nil {
			log.Printf("failed to persist session: %v", err)
		} else {
			log.Printf("session %s saved", report.ID)
		}
	}

	if !report.Success {
		os.Exit(1)
	}
	return nil
}

func printReport(report *research.Report) {
	fmt.Println("=== Investigation Report ===")
	fmt.Printf("Query: %s\n\n", report.Query)

	if len(report.Findings) > 0 {
		fmt.Println("Key findings:")
		for _, f := range report.Findings {
			fmt.Printf("  - %s\n", f)
		}
		fmt.Println()
	}

	fmt.Println(report.Summary)

	if report.FailureReason != "" {
		fmt.Printf("Failure: %s\n", report.FailureReason)
	}
}
