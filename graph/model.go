package graph

// Node is a graph node keyed by entity id.
type Node struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Group string `json:"group"`
}

// Edge is a directed edge between two node ids. Title carries the composed
// qualifier annotation (see Relationship.Annotation).
type Edge struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Label string `json:"label"`
	Title string `json:"title"`
}

type pairKey struct {
	from, to string
}

// Model is a directed graph of obligation relationships. Nodes iterate in
// insertion order; at most one edge exists per ordered (from, to) pair —
// adding a second relationship between the same ordered pair replaces the
// first (last relationship wins). Instances are not safe for concurrent
// mutation; each extraction cycle builds its own.
type Model struct {
	nodes map[string]*Node
	order []string
	edges map[pairKey]*Edge
}

// NewModel returns an empty graph model.
func NewModel() *Model {
	return &Model{
		nodes: make(map[string]*Node),
		edges: make(map[pairKey]*Edge),
	}
}

// Build constructs a Model from an extraction payload: one node per
// entity (label=name, group=type), one edge per relationship
// (label=verb, title=annotation).
func Build(p *Payload) *Model {
	m := NewModel()
	for _, e := range p.Entities {
		m.AddNode(Node{ID: e.ID, Label: e.Name, Group: e.Type})
	}
	for _, r := range p.Relationships {
		m.AddEdge(Edge{From: r.SubjectID, To: r.ObjectID, Label: r.Verb, Title: r.Annotation()})
	}
	return m
}

// AddNode inserts or replaces the node with n.ID.
func (m *Model) AddNode(n Node) {
	if _, ok := m.nodes[n.ID]; !ok {
		m.order = append(m.order, n.ID)
	}
	stored := n
	m.nodes[n.ID] = &stored
}

// AddEdge inserts a directed edge. Endpoints that are not yet nodes are
// created implicitly with empty label and group — a relationship
// referencing an unknown entity id is accepted, not rejected. Callers
// wanting strict referential integrity must validate the payload first.
func (m *Model) AddEdge(e Edge) {
	m.ensureNode(e.From)
	m.ensureNode(e.To)
	stored := e
	m.edges[pairKey{e.From, e.To}] = &stored
}

func (m *Model) ensureNode(id string) {
	if _, ok := m.nodes[id]; !ok {
		m.AddNode(Node{ID: id})
	}
}

// Node returns the node with the given id, or nil.
func (m *Model) Node(id string) *Node {
	return m.nodes[id]
}

// HasNode reports whether a node with the given id exists.
func (m *Model) HasNode(id string) bool {
	_, ok := m.nodes[id]
	return ok
}

// Nodes returns all nodes in insertion order.
func (m *Model) Nodes() []*Node {
	out := make([]*Node, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.nodes[id])
	}
	return out
}

// Edge returns the edge for the ordered (from, to) pair, or nil.
func (m *Model) Edge(from, to string) *Edge {
	return m.edges[pairKey{from, to}]
}

// HasEdge reports whether an edge exists for the ordered (from, to) pair.
func (m *Model) HasEdge(from, to string) bool {
	_, ok := m.edges[pairKey{from, to}]
	return ok
}

// Edges returns all edges. Order is unspecified beyond the per-pair
// uniqueness invariant.
func (m *Model) Edges() []*Edge {
	out := make([]*Edge, 0, len(m.edges))
	for _, e := range m.edges {
		out = append(out, e)
	}
	return out
}

// OutEdges returns edges leaving the given node id.
func (m *Model) OutEdges(id string) []*Edge {
	var out []*Edge
	for k, e := range m.edges {
		if k.from == id {
			out = append(out, e)
		}
	}
	return out
}

// InEdges returns edges arriving at the given node id.
func (m *Model) InEdges(id string) []*Edge {
	var out []*Edge
	for k, e := range m.edges {
		if k.to == id {
			out = append(out, e)
		}
	}
	return out
}

// NodeCount returns the number of nodes.
func (m *Model) NodeCount() int { return len(m.nodes) }

// EdgeCount returns the number of edges.
func (m *Model) EdgeCount() int { return len(m.edges) }
