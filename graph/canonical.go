package graph

// DefaultNodeType is assumed when an entity carries no type string. It
// falls through to the generic component shape in the renderer.
const DefaultNodeType = "process"

// CanonicalNode is the renderer-facing node record.
type CanonicalNode struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Type  string `json:"type"`
}

// CanonicalEdge is the renderer-facing edge record. Unlike Model edges,
// canonical edges are not collapsed per node pair: every relationship
// tuple survives projection, which is what makes TupleDiff able to
// distinguish qualifier variants.
type CanonicalEdge struct {
	Source      string `json:"source"`
	Target      string `json:"target"`
	Relation    string `json:"relation"`
	Condition   string `json:"condition"`
	Optionality string `json:"optionality"`
	Frequency   string `json:"frequency"`
}

// CanonicalGraph is the normalized node/edge form consumed by the diagram
// renderer. Derived deterministically from a payload; holds no state of
// its own.
type CanonicalGraph struct {
	Nodes []CanonicalNode `json:"nodes"`
	Edges []CanonicalEdge `json:"edges"`
}

// Canonicalize projects an extraction payload into its canonical form.
// Node labels fall back to the id, node types to DefaultNodeType.
func Canonicalize(p *Payload) *CanonicalGraph {
	g := &CanonicalGraph{
		Nodes: make([]CanonicalNode, 0, len(p.Entities)),
		Edges: make([]CanonicalEdge, 0, len(p.Relationships)),
	}

	for _, e := range p.Entities {
		label := e.Name
		if label == "" {
			label = e.ID
		}
		typ := e.Type
		if typ == "" {
			typ = DefaultNodeType
		}
		g.Nodes = append(g.Nodes, CanonicalNode{ID: e.ID, Label: label, Type: typ})
	}

	for _, r := range p.Relationships {
		g.Edges = append(g.Edges, CanonicalEdge{
			Source:      r.SubjectID,
			Target:      r.ObjectID,
			Relation:    r.Verb,
			Condition:   r.Condition,
			Optionality: r.Optionality,
			Frequency:   r.Frequency,
		})
	}

	return g
}
