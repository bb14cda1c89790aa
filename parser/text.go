package parser

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// TextParser handles plain text regulation extracts (.txt, .md). Useful
// when a regulation arrives as a pre-extracted text dump rather than the
// published PDF.
type TextParser struct{}

func (p *TextParser) SupportedFormats() []string { return []string{"txt", "md"} }

func (p *TextParser) Parse(ctx context.Context, path string) (*ParseResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading text file: %w", err)
	}

	text := strings.TrimSpace(string(data))
	if text == "" {
		return nil, fmt.Errorf("empty text file: %s", path)
	}

	return &ParseResult{
		Text:   text,
		Method: "native",
	}, nil
}
