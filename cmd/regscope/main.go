// Command regscope runs one regulation comparison cycle from the terminal.
//
// Compare two versions of a regulation:
//
//	go run ./cmd/regscope \
//	  --regulation "EMIR Refit" \
//	  --title "EMIR Refit 2024 Q3" \
//	  --old ./docs/emir_2024_q2.pdf \
//	  --new ./docs/emir_2024_q3.pdf \
//	  --chat-provider ollama --chat-model llama3.1:8b
//
// First submission (no prior version):
//
//	go run ./cmd/regscope \
//	  --regulation SFTR --title "SFTR baseline" --new ./docs/sftr.pdf
//
// Provider API keys are read from a .env file or the environment
// (OPENAI_API_KEY, GEMINI_API_KEY, OPENROUTER_API_KEY).
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/regscope/regscope"
)

func main() {
	var (
		regulation    = flag.String("regulation", "", "Regulation name (must be registered)")
		title         = flag.String("title", "", "Title for this comparison cycle")
		oldPath       = flag.String("old", "", "Path to the previous document version (optional)")
		newPath       = flag.String("new", "", "Path to the new document version")
		dbPath        = flag.String("db", "", "SQLite database path (default ~/.regscope/regscope.db)")
		chatProvider  = flag.String("chat-provider", "ollama", "Chat LLM provider: ollama, openai, gemini, openrouter, custom")
		chatModel     = flag.String("chat-model", "llama3.1:8b", "Chat LLM model")
		chatBaseURL   = flag.String("chat-base-url", "", "Chat LLM base URL (default per provider)")
		embedProvider = flag.String("embed-provider", "ollama", "Embedding provider")
		embedModel    = flag.String("embed-model", "nomic-embed-text", "Embedding model")
		embedBaseURL  = flag.String("embed-base-url", "", "Embedding base URL (default per provider)")
		embedDim      = flag.Int("embed-dim", 768, "Embedding dimensions (must match model)")
		registerOut   = flag.String("register-out", "", "Write the obligation register workbook to this path")
		kop           = flag.Bool("kop", false, "Generate the Key Operating Procedure after the cycle")
		brd           = flag.Bool("brd", false, "Generate the Business Requirement Document after the cycle")
		publish       = flag.Bool("publish", false, "Publish the diff diagram to Confluence (REGSCOPE_CONFLUENCE_* env)")
		similar       = flag.Int("similar", 0, "Show the k most similar prior cycles")
		quiet         = flag.Bool("quiet", false, "Suppress progress output")
	)
	flag.Parse()

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "loading .env: %v\n", err)
		os.Exit(1)
	}

	if *newPath == "" || *regulation == "" || *title == "" {
		fmt.Fprintln(os.Stderr, "error: --regulation, --title, and --new are required")
		flag.Usage()
		os.Exit(1)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	})))

	runID := uuid.New().String()[:8]
	step := stepPrinter(*quiet, runID)

	cfg := regscope.DefaultConfig()
	cfg.DBPath = *dbPath
	cfg.Chat = regscope.LLMConfig{
		Provider: *chatProvider,
		Model:    *chatModel,
		BaseURL:  *chatBaseURL,
		APIKey:   apiKeyFromEnv(*chatProvider),
	}
	cfg.Embedding = regscope.LLMConfig{
		Provider: *embedProvider,
		Model:    *embedModel,
		BaseURL:  *embedBaseURL,
		APIKey:   apiKeyFromEnv(*embedProvider),
	}
	cfg.EmbeddingDim = *embedDim
	if v := os.Getenv("REGSCOPE_CONFLUENCE_BASE_URL"); v != "" {
		cfg.Confluence = &regscope.ConfluenceConfig{
			BaseURL:      v,
			SpaceKey:     os.Getenv("REGSCOPE_CONFLUENCE_SPACE"),
			ParentPageID: os.Getenv("REGSCOPE_CONFLUENCE_PARENT_PAGE_ID"),
			Username:     os.Getenv("REGSCOPE_CONFLUENCE_USERNAME"),
			APIToken:     os.Getenv("REGSCOPE_CONFLUENCE_API_TOKEN"),
		}
	}

	engine, err := regscope.New(cfg)
	if err != nil {
		fatal("creating engine: %v", err)
	}
	defer engine.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	step("registering upload")
	uploadID, err := engine.CreateUpload(ctx, regscope.UploadRequest{
		Regulation: *regulation,
		Title:      *title,
		OldPath:    *oldPath,
		NewPath:    *newPath,
	})
	if err != nil {
		fatal("creating upload: %v", err)
	}

	step("running comparison cycle (upload %d)", uploadID)
	start := time.Now()
	result, err := engine.ProcessCycle(ctx, uploadID)
	if err != nil {
		fatal("processing cycle: %v", err)
	}
	step("cycle complete in %s", time.Since(start).Round(time.Second))

	printResult(result)

	if *registerOut != "" {
		step("writing obligation register")
		if err := engine.WriteRegister(ctx, uploadID, *registerOut); err != nil {
			fatal("writing register: %v", err)
		}
		fmt.Printf("register written to %s\n", *registerOut)
	}

	if *kop {
		step("generating KOP")
		doc, err := engine.GenerateKOP(ctx, uploadID)
		if err != nil {
			fatal("generating KOP: %v", err)
		}
		printSection("KEY OPERATING PROCEDURE", doc)
	}

	if *brd {
		step("generating BRD")
		doc, err := engine.GenerateBRD(ctx, uploadID)
		if err != nil {
			fatal("generating BRD: %v", err)
		}
		printSection("BUSINESS REQUIREMENT DOCUMENT", doc)
	}

	if *similar > 0 {
		step("looking up similar prior cycles")
		matches, err := engine.SimilarCycles(ctx, uploadID, *similar)
		if err != nil {
			fatal("similarity lookup: %v", err)
		}
		if len(matches) == 0 {
			fmt.Println("no similar prior cycles found")
		}
		for _, m := range matches {
			fmt.Printf("  upload %d distance=%.4f  %s\n",
				m.UploadID, m.Distance, snippet(m.Content, 80))
		}
	}

	if *publish {
		mode := "diff"
		if result.DiagramDiff == "" {
			mode = "new"
		}
		step("publishing %s diagram to Confluence", mode)
		page, err := engine.PublishDiagram(ctx, uploadID, mode)
		if err != nil {
			fatal("publishing: %v", err)
		}
		fmt.Printf("published: %s\n", page.URL())
	}
}

// apiKeyFromEnv resolves the conventional API key variable for a provider.
func apiKeyFromEnv(provider string) string {
	switch provider {
	case "openai":
		return os.Getenv("OPENAI_API_KEY")
	case "gemini":
		return os.Getenv("GEMINI_API_KEY")
	case "openrouter":
		return os.Getenv("OPENROUTER_API_KEY")
	default:
		return os.Getenv("REGSCOPE_API_KEY_" + strings.ToUpper(provider))
	}
}

func stepPrinter(quiet bool, runID string) func(format string, args ...interface{}) {
	if quiet {
		return func(string, ...interface{}) {}
	}
	prefix := color.New(color.FgCyan, color.Bold).Sprintf("[%s]", runID)
	return func(format string, args ...interface{}) {
		fmt.Fprintf(os.Stderr, "%s %s\n", prefix, fmt.Sprintf(format, args...))
	}
}

func printResult(r *regscope.CycleResult) {
	printSection("NEW VERSION SUMMARY", r.NewSummary)

	if r.Delta == nil {
		fmt.Println("\nno previous version on file; baseline graph stored")
		return
	}

	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()

	fmt.Println()
	color.New(color.Bold).Println("GRAPH DELTA")
	for _, n := range r.Delta.AddedNodes {
		fmt.Printf("  %s node %s\n", green("+"), n)
	}
	for _, n := range r.Delta.RemovedNodes {
		fmt.Printf("  %s node %s\n", red("-"), n)
	}
	for _, e := range r.Delta.ChangedEdges {
		fmt.Printf("  %s edge %s -> %s\n", yellow("~"), e.From, e.To)
	}
	if r.Delta.Empty() {
		fmt.Println("  no structural changes detected")
	}

	if r.DiagramDiff != "" {
		printSection("DIFF DIAGRAM (PlantUML)", r.DiagramDiff)
	}
}

func printSection(heading, body string) {
	fmt.Println()
	color.New(color.Bold).Println(heading)
	fmt.Println(strings.TrimSpace(body))
}

// snippet returns the first line of s, truncated to max runes.
func snippet(s string, max int) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	r := []rune(strings.TrimSpace(s))
	if len(r) > max {
		return string(r[:max]) + "..."
	}
	return string(r)
}

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "%s %s\n", color.RedString("error:"), fmt.Sprintf(format, args...))
	os.Exit(1)
}
