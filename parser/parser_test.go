package parser

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRegistryForPath(t *testing.T) {
	r := NewRegistry()

	tests := []struct {
		path     string
		wantType string
		wantErr  bool
	}{
		{"/tmp/emir_refit_2024.pdf", "*parser.PDFParser", false},
		{"/tmp/EMIR.PDF", "*parser.PDFParser", false},
		{"notes.txt", "*parser.TextParser", false},
		{"summary.md", "*parser.TextParser", false},
		{"register.xlsx", "", true},
		{"noextension", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			p, err := r.ForPath(tt.path)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ForPath(%q) expected error, got %T", tt.path, p)
				}
				return
			}
			if err != nil {
				t.Fatalf("ForPath(%q): %v", tt.path, err)
			}
			if got := typeName(p); got != tt.wantType {
				t.Errorf("ForPath(%q) = %s, want %s", tt.path, got, tt.wantType)
			}
		})
	}
}

func typeName(p Parser) string {
	switch p.(type) {
	case *PDFParser:
		return "*parser.PDFParser"
	case *TextParser:
		return "*parser.TextParser"
	default:
		return "unknown"
	}
}

func TestRegistryRegisterOverride(t *testing.T) {
	r := NewRegistry()
	custom := &TextParser{}
	r.Register("pdf", custom)

	p, err := r.Get("pdf")
	if err != nil {
		t.Fatalf("Get(pdf): %v", err)
	}
	if p != custom {
		t.Error("Register must replace the built-in parser")
	}
}

func TestTextParser(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "regulation.txt")
	content := "Article 9\n\nCounterparties shall report the details of any derivative contract."
	if err := os.WriteFile(path, []byte(content+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	res, err := NewRegistry().Parse(context.Background(), path)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if res.Text != content {
		t.Errorf("Text = %q, want %q", res.Text, content)
	}
	if res.Method != "native" {
		t.Errorf("Method = %q, want native", res.Method)
	}
}

func TestTextParserEmptyFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.txt")
	if err := os.WriteFile(path, []byte("   \n\t\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := (&TextParser{}).Parse(context.Background(), path); err == nil {
		t.Fatal("expected error for whitespace-only file")
	} else if !strings.Contains(err.Error(), "empty text file") {
		t.Errorf("unexpected error: %v", err)
	}
}
