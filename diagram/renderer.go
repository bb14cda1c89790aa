package diagram

import (
	"fmt"
	"strings"

	"github.com/regscope/regscope/graph"
)

// Default styling constants. Colors follow the regulatory change legend:
// gray for unchanged obligations, green for new ones, red for removed.
const (
	colorCommon  = "#555555"
	colorAdded   = "#008800"
	colorRemoved = "#BB0000"

	// DefaultScale keeps wide obligation graphs readable when embedded in
	// a wiki page.
	DefaultScale = "max 1200 width"
)

// Options configures a render. The zero value renders without a title and
// with the default scale.
type Options struct {
	// Title emits a PlantUML title directive when non-empty.
	Title string
	// Scale emits a scale directive. Empty means DefaultScale; set
	// NoScale to suppress the directive entirely.
	Scale string
	// NoScale suppresses the scale directive.
	NoScale bool
}

func (o Options) scale() string {
	if o.NoScale {
		return ""
	}
	if o.Scale == "" {
		return DefaultScale
	}
	return o.Scale
}

// Renderer serializes canonical graphs to PlantUML text. The zero value
// is usable; construct with options for titles and scaling.
type Renderer struct {
	opts Options
}

// NewRenderer returns a renderer with the given options.
func NewRenderer(opts Options) *Renderer {
	return &Renderer{opts: opts}
}

// Render serializes a single canonical graph. Output is deterministic:
// nodes and edges emit in the graph's own order. It fails only when a
// node or edge lacks its mandatory identifier; empty qualifier fields are
// simply omitted from edge labels.
func (r *Renderer) Render(g *graph.CanonicalGraph) (string, error) {
	var b strings.Builder
	r.writeHeader(&b, false)

	for _, n := range g.Nodes {
		if err := writeNode(&b, n); err != nil {
			return "", err
		}
	}
	b.WriteString("\n")

	for _, e := range g.Edges {
		line, err := edgeLine(e, edgeStyle{})
		if err != nil {
			return "", err
		}
		b.WriteString(line + "\n")
	}

	b.WriteString("@enduml\n")
	return b.String(), nil
}

// RenderDiff serializes the tuple-set diff of two canonical graphs as one
// combined diagram: common edges in the default style, added edges green,
// removed edges red, dashed, prefixed "REMOVED: " and drawn from the OLD
// graph's edge records so stale qualifier values are shown for them.
// Nodes are the union of both sides; where both define a node id the old
// side's record wins (first writer, matching the union build order).
func (r *Renderer) RenderDiff(oldG, newG *graph.CanonicalGraph) (string, error) {
	diff := graph.TupleDiff(oldG, newG)

	var b strings.Builder
	r.writeHeader(&b, true)

	seen := make(map[string]bool)
	for _, g := range []*graph.CanonicalGraph{oldG, newG} {
		for _, n := range g.Nodes {
			if n.ID == "" {
				return "", fmt.Errorf("%w: node %q", ErrMissingIdentifier, n.Label)
			}
			if seen[n.ID] {
				continue
			}
			seen[n.ID] = true
			if err := writeNode(&b, n); err != nil {
				return "", err
			}
		}
	}
	b.WriteString("\n")

	for _, e := range diff.Common {
		line, err := edgeLine(e, edgeStyle{})
		if err != nil {
			return "", err
		}
		b.WriteString(line + "\n")
	}
	for _, e := range diff.Added {
		line, err := edgeLine(e, edgeStyle{color: colorAdded})
		if err != nil {
			return "", err
		}
		b.WriteString(line + "\n")
	}
	for _, e := range diff.Removed {
		line, err := edgeLine(e, edgeStyle{color: colorRemoved, dashed: true, prefix: "REMOVED: "})
		if err != nil {
			return "", err
		}
		b.WriteString(line + "\n")
	}

	b.WriteString("@enduml\n")
	return b.String(), nil
}

// writeHeader emits the opening marker, optional title/scale directives,
// skinparams, and (diff mode) the three-entry legend.
func (r *Renderer) writeHeader(b *strings.Builder, diff bool) {
	b.WriteString("@startuml\n")
	if r.opts.Title != "" {
		b.WriteString("title " + r.opts.Title + "\n")
	}
	if s := r.opts.scale(); s != "" {
		b.WriteString("scale " + s + "\n")
	}
	b.WriteString("skinparam backgroundColor #FFFFFF\n")
	b.WriteString("skinparam componentStyle rectangle\n")
	if diff {
		b.WriteString("legend right\n")
		b.WriteString("  <color:" + colorCommon + ">Common</color>\n")
		b.WriteString("  <color:" + colorAdded + ">New</color>\n")
		b.WriteString("  <color:" + colorRemoved + ">Removed</color>\n")
		b.WriteString("endlegend\n")
	} else {
		b.WriteString("skinparam ArrowColor " + colorCommon + "\n")
		b.WriteString("skinparam ArrowThickness 1\n")
	}
}

func writeNode(b *strings.Builder, n graph.CanonicalNode) error {
	if n.ID == "" {
		return fmt.Errorf("%w: node %q", ErrMissingIdentifier, n.Label)
	}
	label := n.Label
	if label == "" {
		label = n.ID
	}
	fmt.Fprintf(b, "%s %q as %s\n", ShapeFor(n.Type).keyword(), label, SanitizeID(n.ID))
	return nil
}

type edgeStyle struct {
	color  string
	dashed bool
	prefix string
}

// edgeLine composes one PlantUML edge statement. The label concatenates
// the relation, then each non-empty qualifier in fixed order: condition in
// parentheses, optionality in brackets, frequency in braces. Empty
// qualifiers are omitted entirely, never rendered as empty placeholders.
func edgeLine(e graph.CanonicalEdge, style edgeStyle) (string, error) {
	if e.Source == "" || e.Target == "" {
		return "", fmt.Errorf("%w: edge %q", ErrMissingIdentifier, e.Relation)
	}

	src := SanitizeID(e.Source)
	dst := SanitizeID(e.Target)

	var parts []string
	if style.prefix != "" {
		parts = append(parts, strings.TrimSpace(style.prefix))
	}
	if e.Relation != "" {
		parts = append(parts, e.Relation)
	}
	if e.Condition != "" {
		parts = append(parts, "("+e.Condition+")")
	}
	if e.Optionality != "" {
		parts = append(parts, "["+e.Optionality+"]")
	}
	if e.Frequency != "" {
		parts = append(parts, "{"+e.Frequency+"}")
	}
	label := strings.Join(parts, " ")

	arrow := "-->"
	if style.dashed {
		arrow = "..>"
	}
	if style.color != "" {
		arrow = "-[" + style.color + "]" + arrow[1:]
	}

	if label == "" {
		return fmt.Sprintf("%s %s %s", src, arrow, dst), nil
	}
	return fmt.Sprintf("%s %s %s : %s", src, arrow, dst, label), nil
}
