// Package parser extracts plain text from regulation documents so the
// summarization and extraction pipeline can work from a single text
// blob per document version.
package parser

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
)

// ParseResult is what a parser produces from a document file.
type ParseResult struct {
	Text   string // Full extracted text, pages joined by blank lines
	Pages  int    // Number of pages that contributed text (0 for paged-less formats)
	Method string // "native" for built-in extraction
}

// Parser can parse a specific document format.
type Parser interface {
	Parse(ctx context.Context, path string) (*ParseResult, error)
	SupportedFormats() []string
}

// Registry resolves a parser from a file's extension.
type Registry struct {
	parsers map[string]Parser
}

// NewRegistry returns a registry with the built-in parsers registered.
func NewRegistry() *Registry {
	r := &Registry{parsers: make(map[string]Parser)}
	for _, p := range []Parser{&PDFParser{}, &TextParser{}} {
		for _, f := range p.SupportedFormats() {
			r.parsers[f] = p
		}
	}
	return r
}

// Register adds or replaces the parser for a format.
func (r *Registry) Register(format string, p Parser) {
	r.parsers[format] = p
}

// Get returns the parser for a format key like "pdf".
func (r *Registry) Get(format string) (Parser, error) {
	p, ok := r.parsers[format]
	if !ok {
		return nil, fmt.Errorf("no parser for format: %s", format)
	}
	return p, nil
}

// ForPath resolves the parser from the file's extension.
func (r *Registry) ForPath(path string) (Parser, error) {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if ext == "" {
		return nil, fmt.Errorf("no parser for extensionless file: %s", filepath.Base(path))
	}
	return r.Get(ext)
}

// Parse is a convenience that resolves and runs the parser for path.
func (r *Registry) Parse(ctx context.Context, path string) (*ParseResult, error) {
	p, err := r.ForPath(path)
	if err != nil {
		return nil, err
	}
	return p.Parse(ctx, path)
}
