package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/regscope/regscope"
)

func main() {
	configPath := flag.String("config", "", "Path to config file (JSON)")
	addr := flag.String("addr", ":8080", "Listen address")
	flag.Parse()

	// Structured JSON logging.
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	cfg := regscope.DefaultConfig()
	if *configPath != "" {
		f, err := os.Open(*configPath)
		if err != nil {
			slog.Error("opening config", "error", err)
			os.Exit(1)
		}
		if err := json.NewDecoder(f).Decode(&cfg); err != nil {
			f.Close()
			slog.Error("parsing config", "error", err)
			os.Exit(1)
		}
		f.Close()
	}

	// Override from environment variables.
	if v := os.Getenv("REGSCOPE_DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("REGSCOPE_UPLOAD_DIR"); v != "" {
		cfg.UploadDir = v
	}
	if v := os.Getenv("REGSCOPE_CHAT_PROVIDER"); v != "" {
		cfg.Chat.Provider = v
	}
	if v := os.Getenv("REGSCOPE_CHAT_MODEL"); v != "" {
		cfg.Chat.Model = v
	}
	if v := os.Getenv("REGSCOPE_CHAT_BASE_URL"); v != "" {
		cfg.Chat.BaseURL = v
	}
	if v := os.Getenv("REGSCOPE_CHAT_API_KEY"); v != "" {
		cfg.Chat.APIKey = v
	}
	if v := os.Getenv("REGSCOPE_EMBED_PROVIDER"); v != "" {
		cfg.Embedding.Provider = v
	}
	if v := os.Getenv("REGSCOPE_EMBED_MODEL"); v != "" {
		cfg.Embedding.Model = v
	}
	if v := os.Getenv("REGSCOPE_EMBED_BASE_URL"); v != "" {
		cfg.Embedding.BaseURL = v
	}
	if v := os.Getenv("REGSCOPE_EMBED_API_KEY"); v != "" {
		cfg.Embedding.APIKey = v
	}

	// Fallback: check well-known provider env vars for API keys.
	if cfg.Chat.APIKey == "" {
		switch cfg.Chat.Provider {
		case "openai":
			cfg.Chat.APIKey = os.Getenv("OPENAI_API_KEY")
		case "gemini":
			cfg.Chat.APIKey = os.Getenv("GEMINI_API_KEY")
		case "openrouter":
			cfg.Chat.APIKey = os.Getenv("OPENROUTER_API_KEY")
		}
	}
	if cfg.Embedding.APIKey == "" {
		switch cfg.Embedding.Provider {
		case "openai":
			cfg.Embedding.APIKey = os.Getenv("OPENAI_API_KEY")
		case "gemini":
			cfg.Embedding.APIKey = os.Getenv("GEMINI_API_KEY")
		}
	}

	// Confluence publishing is enabled when the base URL is set.
	if v := os.Getenv("REGSCOPE_CONFLUENCE_BASE_URL"); v != "" {
		cfg.Confluence = &regscope.ConfluenceConfig{
			BaseURL:      v,
			SpaceKey:     os.Getenv("REGSCOPE_CONFLUENCE_SPACE"),
			ParentPageID: os.Getenv("REGSCOPE_CONFLUENCE_PARENT_PAGE_ID"),
			Username:     os.Getenv("REGSCOPE_CONFLUENCE_USERNAME"),
			APIToken:     os.Getenv("REGSCOPE_CONFLUENCE_API_TOKEN"),
		}
	}

	apiKey := os.Getenv("REGSCOPE_API_KEY")
	corsOrigins := os.Getenv("REGSCOPE_CORS_ORIGINS")

	engine, err := regscope.New(cfg)
	if err != nil {
		slog.Error("creating engine", "error", err)
		os.Exit(1)
	}
	defer engine.Close()

	h := newHandler(engine, cfg.UploadDir)
	mux := http.NewServeMux()

	mux.HandleFunc("POST /uploads", h.handleCreateUpload)
	mux.HandleFunc("GET /uploads", h.handleListUploads)
	mux.HandleFunc("GET /uploads/{id}", h.handleGetUpload)
	mux.HandleFunc("DELETE /uploads/{id}", h.handleDeleteUpload)
	mux.HandleFunc("POST /uploads/{id}/regenerate", h.handleRegenerate)
	mux.HandleFunc("GET /uploads/{id}/summary/{version}", h.handleSummary)
	mux.HandleFunc("GET /uploads/{id}/graph/{version}", h.handleGraph)
	mux.HandleFunc("GET /uploads/{id}/diagram", h.handleDiagram)
	mux.HandleFunc("GET /uploads/{id}/kop", h.handleKOP)
	mux.HandleFunc("GET /uploads/{id}/brd", h.handleBRD)
	mux.HandleFunc("GET /uploads/{id}/register", h.handleRegister)
	mux.HandleFunc("GET /uploads/{id}/similar", h.handleSimilar)
	mux.HandleFunc("POST /uploads/{id}/publish", h.handlePublish)
	mux.HandleFunc("GET /regulations", h.handleListRegulations)
	mux.HandleFunc("GET /health", h.handleHealth)

	// Middleware chain: recovery -> request id -> cors -> auth -> logging -> mux
	var handler http.Handler = mux
	handler = withAccessLog(handler)
	handler = withAuth(apiKey, handler)
	handler = withCORS(corsOrigins, handler)
	handler = withRequestID(handler)
	handler = withRecovery(handler)

	srv := &http.Server{
		Addr:         *addr,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // processing a cycle can be long
		IdleTimeout:  120 * time.Second,
	}

	// Graceful shutdown on SIGTERM/SIGINT.
	done := make(chan os.Signal, 1)
	signal.Notify(done, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "addr", *addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-done
	slog.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	slog.Info("server stopped")
}
