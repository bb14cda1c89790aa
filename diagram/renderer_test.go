package diagram

import (
	"errors"
	"strings"
	"testing"

	"github.com/regscope/regscope/graph"
)

func TestSanitizeID(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"E1", "E1"},
		{"already_clean-1", "already_clean-1"},
		{"XYZ Bank (LCB)", "XYZ_Bank__LCB_"},
		{"a.b/c", "a_b_c"},
		{"", ""},
		{"é1", "é1"}, // Unicode letters and digits pass through
		{"Autorité_AMF", "Autorité_AMF"},
		{"第1条 (b)", "第1条__b_"},
	}
	for _, tt := range tests {
		if got := SanitizeID(tt.in); got != tt.want {
			t.Errorf("SanitizeID(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSanitizeID_Idempotent(t *testing.T) {
	inputs := []string{"E1", "XYZ Bank (LCB)", "trade repository!", "", "a.b.c", "weird\tchars\nhere", "Autorité (AMF)"}
	for _, in := range inputs {
		once := SanitizeID(in)
		if twice := SanitizeID(once); twice != once {
			t.Errorf("SanitizeID not idempotent for %q: %q != %q", in, once, twice)
		}
	}
}

func TestShapeFor(t *testing.T) {
	tests := []struct {
		typ  string
		want Shape
	}{
		{"actor", ShapeActor},
		{"Party", ShapeActor},
		{"ROLE", ShapeActor},
		{"person", ShapeActor},
		{"system", ShapeNode},
		{"application", ShapeNode},
		{"repo", ShapeNode},
		{"trade_repository", ShapeNode},
		{"organization", ShapeComponent},
		{"document", ShapeComponent},
		{"financial_instrument", ShapeComponent},
		{"", ShapeComponent},
		{"actors", ShapeComponent}, // whole-string match, not prefix
	}
	for _, tt := range tests {
		if got := ShapeFor(tt.typ); got != tt.want {
			t.Errorf("ShapeFor(%q) = %v, want %v", tt.typ, got, tt.want)
		}
	}
}

func singleGraph() *graph.CanonicalGraph {
	return &graph.CanonicalGraph{
		Nodes: []graph.CanonicalNode{
			{ID: "E1", Label: "XYZ Bank", Type: "actor"},
			{ID: "E2", Label: "OTC Report", Type: "document"},
		},
		Edges: []graph.CanonicalEdge{
			{Source: "E1", Target: "E2", Relation: "Submits", Condition: "positions exist", Frequency: ""},
		},
	}
}

func TestRender_SingleGraph(t *testing.T) {
	out, err := NewRenderer(Options{Title: "LME 2025"}).Render(singleGraph())
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	if !strings.HasPrefix(out, "@startuml\n") {
		t.Errorf("missing opening marker:\n%s", out)
	}
	if !strings.HasSuffix(out, "@enduml\n") {
		t.Errorf("missing closing marker:\n%s", out)
	}
	if !strings.Contains(out, "title LME 2025\n") {
		t.Error("missing title directive")
	}
	if !strings.Contains(out, "scale max 1200 width\n") {
		t.Error("missing default scale directive")
	}
	if !strings.Contains(out, `actor "XYZ Bank" as E1`) {
		t.Errorf("actor-typed node not rendered as actor:\n%s", out)
	}
	if !strings.Contains(out, `component "OTC Report" as E2`) {
		t.Errorf("document-typed node must fall through to component:\n%s", out)
	}

	// Relation plus parenthesized condition; no brace block for the empty
	// frequency, no bracket block for the empty optionality.
	if !strings.Contains(out, "E1 --> E2 : Submits (positions exist)") {
		t.Errorf("edge line wrong:\n%s", out)
	}
	if strings.Contains(out, "{}") || strings.Contains(out, "[]") || strings.Contains(out, "()") {
		t.Errorf("empty qualifier must be omitted, not rendered empty:\n%s", out)
	}
}

func TestRender_EdgeWithAllQualifiers(t *testing.T) {
	g := &graph.CanonicalGraph{
		Nodes: []graph.CanonicalNode{{ID: "A"}, {ID: "B"}},
		Edges: []graph.CanonicalEdge{{
			Source: "A", Target: "B",
			Relation: "Reports", Condition: "loans exist",
			Optionality: "Mandatory", Frequency: "weekly",
		}},
	}
	out, err := NewRenderer(Options{NoScale: true}).Render(g)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(out, "A --> B : Reports (loans exist) [Mandatory] {weekly}") {
		t.Errorf("qualifier composition wrong:\n%s", out)
	}
	if strings.Contains(out, "scale ") {
		t.Errorf("NoScale must suppress the scale directive:\n%s", out)
	}
}

func TestRender_BareEdge(t *testing.T) {
	g := &graph.CanonicalGraph{
		Nodes: []graph.CanonicalNode{{ID: "A"}, {ID: "B"}},
		Edges: []graph.CanonicalEdge{{Source: "A", Target: "B"}},
	}
	out, err := NewRenderer(Options{}).Render(g)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(out, "A --> B\n") {
		t.Errorf("label-less edge must render without colon:\n%s", out)
	}
}

func TestRender_SanitizesIdentifiers(t *testing.T) {
	g := &graph.CanonicalGraph{
		Nodes: []graph.CanonicalNode{
			{ID: "bank one", Label: "Bank One", Type: "actor"},
			{ID: "report.v2", Label: "Report"},
		},
		Edges: []graph.CanonicalEdge{{Source: "bank one", Target: "report.v2", Relation: "files"}},
	}
	out, err := NewRenderer(Options{}).Render(g)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(out, "bank_one --> report_v2 : files") {
		t.Errorf("edge endpoints must be sanitized:\n%s", out)
	}
}

func TestRender_MissingIdentifiers(t *testing.T) {
	tests := []struct {
		name string
		g    *graph.CanonicalGraph
	}{
		{
			name: "node without id",
			g: &graph.CanonicalGraph{
				Nodes: []graph.CanonicalNode{{Label: "anonymous"}},
			},
		},
		{
			name: "edge without source",
			g: &graph.CanonicalGraph{
				Edges: []graph.CanonicalEdge{{Target: "B", Relation: "r"}},
			},
		},
		{
			name: "edge without target",
			g: &graph.CanonicalGraph{
				Edges: []graph.CanonicalEdge{{Source: "A", Relation: "r"}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewRenderer(Options{}).Render(tt.g); !errors.Is(err, ErrMissingIdentifier) {
				t.Errorf("error = %v, want ErrMissingIdentifier", err)
			}
		})
	}
}

func TestRenderDiff(t *testing.T) {
	oldG := &graph.CanonicalGraph{
		Nodes: []graph.CanonicalNode{
			{ID: "E1", Label: "XYZ Bank", Type: "actor"},
			{ID: "E2", Label: "OTC Report", Type: "document"},
			{ID: "E3", Label: "Email Channel", Type: "system"},
		},
		Edges: []graph.CanonicalEdge{
			{Source: "E1", Target: "E2", Relation: "Submits", Frequency: "weekly"},
			{Source: "E2", Target: "E3", Relation: "Delivered via", Condition: "parallel run"},
		},
	}
	newG := &graph.CanonicalGraph{
		Nodes: []graph.CanonicalNode{
			{ID: "E1", Label: "XYZ Bank", Type: "actor"},
			{ID: "E2", Label: "OTC Report", Type: "document"},
			{ID: "E4", Label: "UDG Channel", Type: "system"},
		},
		Edges: []graph.CanonicalEdge{
			{Source: "E1", Target: "E2", Relation: "Submits", Frequency: "weekly"},
			{Source: "E2", Target: "E4", Relation: "Uploaded via"},
		},
	}

	out, err := NewRenderer(Options{Title: "LME (Diff)"}).RenderDiff(oldG, newG)
	if err != nil {
		t.Fatalf("RenderDiff: %v", err)
	}

	// Legend with the three color classes.
	if !strings.Contains(out, "legend right") || !strings.Contains(out, "endlegend") {
		t.Errorf("missing legend block:\n%s", out)
	}
	for _, entry := range []string{
		"<color:#555555>Common</color>",
		"<color:#008800>New</color>",
		"<color:#BB0000>Removed</color>",
	} {
		if !strings.Contains(out, entry) {
			t.Errorf("legend missing %q:\n%s", entry, out)
		}
	}

	// Union of nodes from both sides.
	for _, decl := range []string{`as E1`, `as E2`, `as E3`, `as E4`} {
		if !strings.Contains(out, decl) {
			t.Errorf("node union missing %q:\n%s", decl, out)
		}
	}

	// Common edge: default style.
	if !strings.Contains(out, "E1 --> E2 : Submits {weekly}") {
		t.Errorf("common edge wrong:\n%s", out)
	}
	// Added edge: green.
	if !strings.Contains(out, "E2 -[#008800]-> E4 : Uploaded via") {
		t.Errorf("added edge wrong:\n%s", out)
	}
	// Removed edge: red, dashed, prefixed, qualifiers from the old record.
	if !strings.Contains(out, "E2 -[#BB0000]..> E3 : REMOVED: Delivered via (parallel run)") {
		t.Errorf("removed edge wrong:\n%s", out)
	}
}

func TestRenderDiff_QualifierChangeShowsBothSides(t *testing.T) {
	oldG := &graph.CanonicalGraph{
		Nodes: []graph.CanonicalNode{{ID: "A"}, {ID: "B"}},
		Edges: []graph.CanonicalEdge{{Source: "A", Target: "B", Relation: "Reports", Frequency: "monthly"}},
	}
	newG := &graph.CanonicalGraph{
		Nodes: []graph.CanonicalNode{{ID: "A"}, {ID: "B"}},
		Edges: []graph.CanonicalEdge{{Source: "A", Target: "B", Relation: "Reports", Frequency: "weekly"}},
	}

	out, err := NewRenderer(Options{}).RenderDiff(oldG, newG)
	if err != nil {
		t.Fatalf("RenderDiff: %v", err)
	}
	// Never a single "changed" rendering: one added line with the new
	// frequency plus one removed line with the stale one.
	if !strings.Contains(out, "A -[#008800]-> B : Reports {weekly}") {
		t.Errorf("missing added side:\n%s", out)
	}
	if !strings.Contains(out, "A -[#BB0000]..> B : REMOVED: Reports {monthly}") {
		t.Errorf("missing removed side with stale qualifier:\n%s", out)
	}
}
