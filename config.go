package regscope

import (
	"os"
	"path/filepath"
)

// Config holds all configuration for the Regscope engine.
type Config struct {
	// DBPath is the full path to the SQLite database file.
	// If empty, defaults to ~/.regscope/<DBName>.db
	DBPath string `json:"db_path" yaml:"db_path"`

	// DBName is the name for the database (used when DBPath is empty).
	// Defaults to "regscope".
	DBName string `json:"db_name" yaml:"db_name"`

	// StorageDir controls where the database is created when DBPath is
	// not explicitly set. Options: "home" (default) uses ~/.regscope/,
	// "local" uses the current working directory.
	StorageDir string `json:"storage_dir" yaml:"storage_dir"`

	// UploadDir is where uploaded regulation PDFs are stored.
	UploadDir string `json:"upload_dir" yaml:"upload_dir"`

	// LLM providers. Chat drives summaries, extraction, and document
	// generation; Embedding backs prior-summary similarity lookup.
	Chat      LLMConfig `json:"chat" yaml:"chat"`
	Embedding LLMConfig `json:"embedding" yaml:"embedding"`

	// Regulations seeds the regulation registry on startup.
	Regulations []string `json:"regulations" yaml:"regulations"`

	// Diagram rendering defaults.
	DiagramScale string `json:"diagram_scale" yaml:"diagram_scale"`

	// Confluence publishing (optional).
	Confluence *ConfluenceConfig `json:"confluence,omitempty" yaml:"confluence,omitempty"`

	// Embedding dimensions (must match model).
	EmbeddingDim int `json:"embedding_dim" yaml:"embedding_dim"`
}

// LLMConfig configures a single LLM provider endpoint.
type LLMConfig struct {
	Provider string `json:"provider" yaml:"provider"` // ollama, openai, gemini, openrouter, custom
	Model    string `json:"model" yaml:"model"`
	BaseURL  string `json:"base_url" yaml:"base_url"`
	APIKey   string `json:"api_key" yaml:"api_key"`
}

// ConfluenceConfig configures the wiki publishing target.
type ConfluenceConfig struct {
	BaseURL      string `json:"base_url" yaml:"base_url"`
	SpaceKey     string `json:"space_key" yaml:"space_key"`
	ParentPageID string `json:"parent_page_id" yaml:"parent_page_id"`
	Username     string `json:"username" yaml:"username"`
	APIToken     string `json:"api_token" yaml:"api_token"`
}

// DefaultConfig returns a Config with sensible defaults for local inference.
// Database is stored in ~/.regscope/regscope.db by default.
func DefaultConfig() Config {
	return Config{
		DBName:     "regscope",
		StorageDir: "home",
		UploadDir:  "uploaded_pdfs",
		Chat: LLMConfig{
			Provider: "ollama",
			Model:    "llama3.1:8b",
			BaseURL:  "http://localhost:11434",
		},
		Embedding: LLMConfig{
			Provider: "ollama",
			Model:    "nomic-embed-text",
			BaseURL:  "http://localhost:11434",
		},
		Regulations: []string{
			"EMIR Refit",
			"MiFID II",
			"SFTR",
			"AWPR",
			"AUSTRAC",
			"LME",
		},
		DiagramScale: "max 1200 width",
		EmbeddingDim: 768,
	}
}

// resolveDBPath computes the final database path from config fields.
func (c *Config) resolveDBPath() string {
	if c.DBPath != "" {
		return c.DBPath
	}

	name := c.DBName
	if name == "" {
		name = "regscope"
	}

	switch c.StorageDir {
	case "local", "cwd":
		return name + ".db"
	default: // "home" or empty
		home, err := os.UserHomeDir()
		if err != nil {
			return name + ".db" // fallback to cwd
		}
		return filepath.Join(home, ".regscope", name+".db")
	}
}
