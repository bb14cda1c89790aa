package graph

import (
	"strings"
	"testing"
)

func samplePayload() *Payload {
	return &Payload{
		Entities: []Entity{
			{ID: "E1", Name: "XYZ Bank (LCB)", Type: "organization"},
			{ID: "E2", Name: "Weekly OTC Position Report", Type: "document"},
			{ID: "E3", Name: "LME", Type: "organization"},
		},
		Relationships: []Relationship{
			{
				SubjectID:   "E1",
				ObjectID:    "E2",
				Verb:        "Submits",
				Optionality: "Mandatory",
				Condition:   "Open OTC positions exist",
				Property:    "Position volume",
				Thresholds:  "No threshold",
				Frequency:   "weekly",
			},
			{SubjectID: "E1", ObjectID: "E3", Verb: "Notifies"},
		},
	}
}

func TestParsePayload_ExactQualifierKeys(t *testing.T) {
	data := []byte(`{
		"entities": [{"id": "E1", "name": "XYZ Bank", "type": "organization"}],
		"relationships": [{
			"subject_id": "E1",
			"object_id": "E2",
			"verb": "Reports",
			"Optionality": "Conditional",
			"Condition for Relationship to be Active": "Eligible loans exist",
			"Property of Object (part of condition)": "Loan value",
			"Thresholds": "> 10M LKR",
			"frequency": "weekly"
		}]
	}`)

	p, err := ParsePayload(data)
	if err != nil {
		t.Fatalf("ParsePayload: %v", err)
	}

	r := p.Relationships[0]
	if r.Optionality != "Conditional" {
		t.Errorf("Optionality = %q", r.Optionality)
	}
	if r.Condition != "Eligible loans exist" {
		t.Errorf("Condition = %q", r.Condition)
	}
	if r.Property != "Loan value" {
		t.Errorf("Property = %q", r.Property)
	}
	if r.Thresholds != "> 10M LKR" {
		t.Errorf("Thresholds = %q", r.Thresholds)
	}
	if r.Frequency != "weekly" {
		t.Errorf("Frequency = %q", r.Frequency)
	}
}

func TestParsePayload_MissingListsAndQualifiers(t *testing.T) {
	p, err := ParsePayload([]byte(`{}`))
	if err != nil {
		t.Fatalf("ParsePayload: %v", err)
	}
	if len(p.Entities) != 0 || len(p.Relationships) != 0 {
		t.Errorf("expected empty payload, got %+v", p)
	}

	p, err = ParsePayload([]byte(`{"relationships": [{"subject_id": "A", "object_id": "B", "verb": "Reports"}]}`))
	if err != nil {
		t.Fatalf("ParsePayload: %v", err)
	}
	r := p.Relationships[0]
	if r.Optionality != "" || r.Condition != "" || r.Property != "" || r.Thresholds != "" || r.Frequency != "" {
		t.Errorf("missing qualifiers must default to empty, got %+v", r)
	}
}

func TestAnnotation_FixedLayout(t *testing.T) {
	r := Relationship{
		Verb:        "Reports",
		Optionality: "Mandatory",
		Frequency:   "weekly",
	}

	want := "Verb: Reports\n" +
		"Optionality: Mandatory\n" +
		"Condition: \n" +
		"Property: \n" +
		"Thresholds: \n" +
		"Frequency: weekly"
	if got := r.Annotation(); got != want {
		t.Errorf("Annotation:\ngot  %q\nwant %q", got, want)
	}
}

func TestBuild(t *testing.T) {
	m := Build(samplePayload())

	if m.NodeCount() != 3 {
		t.Errorf("NodeCount = %d, want 3", m.NodeCount())
	}
	if m.EdgeCount() != 2 {
		t.Errorf("EdgeCount = %d, want 2", m.EdgeCount())
	}

	n := m.Node("E1")
	if n == nil || n.Label != "XYZ Bank (LCB)" || n.Group != "organization" {
		t.Errorf("Node(E1) = %+v", n)
	}

	e := m.Edge("E1", "E2")
	if e == nil {
		t.Fatal("expected edge E1->E2")
	}
	if e.Label != "Submits" {
		t.Errorf("edge label = %q", e.Label)
	}
	if !strings.Contains(e.Title, "Condition: Open OTC positions exist") {
		t.Errorf("edge title missing condition line: %q", e.Title)
	}
}

func TestBuild_NodesInsertionOrder(t *testing.T) {
	m := Build(samplePayload())
	var ids []string
	for _, n := range m.Nodes() {
		ids = append(ids, n.ID)
	}
	want := []string{"E1", "E2", "E3"}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("Nodes order = %v, want %v", ids, want)
		}
	}
}

func TestAddEdge_LastRelationshipWins(t *testing.T) {
	p := &Payload{
		Entities: []Entity{{ID: "E1", Name: "Bank"}, {ID: "E2", Name: "Report"}},
		Relationships: []Relationship{
			{SubjectID: "E1", ObjectID: "E2", Verb: "Submits", Thresholds: "> 5M"},
			{SubjectID: "E1", ObjectID: "E2", Verb: "Files", Thresholds: "> 10M"},
		},
	}
	m := Build(p)

	if m.EdgeCount() != 1 {
		t.Fatalf("EdgeCount = %d, want 1 (ordered pair collapses)", m.EdgeCount())
	}
	e := m.Edge("E1", "E2")
	if e.Label != "Files" {
		t.Errorf("edge label = %q, want second relationship's verb", e.Label)
	}
	if !strings.Contains(e.Title, "Thresholds: > 10M") {
		t.Errorf("edge title must carry second relationship's data: %q", e.Title)
	}
}

func TestAddEdge_OppositeDirectionIsDistinct(t *testing.T) {
	m := NewModel()
	m.AddEdge(Edge{From: "A", To: "B", Label: "Reports"})
	m.AddEdge(Edge{From: "B", To: "A", Label: "Acknowledges"})

	if m.EdgeCount() != 2 {
		t.Errorf("EdgeCount = %d, want 2 (direction matters)", m.EdgeCount())
	}
}

func TestAddEdge_UnknownIDsCreateNodes(t *testing.T) {
	p := &Payload{
		Entities: []Entity{{ID: "E1", Name: "Bank"}},
		Relationships: []Relationship{
			{SubjectID: "E1", ObjectID: "E9", Verb: "Reports"},
		},
	}
	m := Build(p)

	if !m.HasNode("E9") {
		t.Fatal("edge referencing unknown object_id must create the node implicitly")
	}
	if n := m.Node("E9"); n.Label != "" || n.Group != "" {
		t.Errorf("implicit node must be bare, got %+v", n)
	}
	if !m.HasEdge("E1", "E9") {
		t.Error("edge must still be created")
	}
}

func TestOutInEdges(t *testing.T) {
	m := Build(samplePayload())

	if got := len(m.OutEdges("E1")); got != 2 {
		t.Errorf("OutEdges(E1) = %d, want 2", got)
	}
	if got := len(m.InEdges("E2")); got != 1 {
		t.Errorf("InEdges(E2) = %d, want 1", got)
	}
	if got := len(m.OutEdges("E2")); got != 0 {
		t.Errorf("OutEdges(E2) = %d, want 0", got)
	}
}

func TestCanonicalize(t *testing.T) {
	p := samplePayload()
	p.Entities = append(p.Entities, Entity{ID: "E4"}) // no name, no type
	g := Canonicalize(p)

	if len(g.Nodes) != 4 {
		t.Fatalf("Nodes = %d, want 4", len(g.Nodes))
	}
	last := g.Nodes[3]
	if last.Label != "E4" {
		t.Errorf("label must fall back to id, got %q", last.Label)
	}
	if last.Type != DefaultNodeType {
		t.Errorf("type must default to %q, got %q", DefaultNodeType, last.Type)
	}

	if len(g.Edges) != 2 {
		t.Fatalf("Edges = %d, want 2", len(g.Edges))
	}
	e := g.Edges[0]
	if e.Source != "E1" || e.Target != "E2" || e.Relation != "Submits" {
		t.Errorf("edge = %+v", e)
	}
	if e.Condition != "Open OTC positions exist" || e.Optionality != "Mandatory" || e.Frequency != "weekly" {
		t.Errorf("qualifiers not carried: %+v", e)
	}
}

func TestCanonicalize_KeepsDuplicatePairEdges(t *testing.T) {
	// The canonical projection, unlike Model, must not collapse multiple
	// relationships between the same ordered pair.
	p := &Payload{
		Relationships: []Relationship{
			{SubjectID: "A", ObjectID: "B", Verb: "Reports", Frequency: "weekly"},
			{SubjectID: "A", ObjectID: "B", Verb: "Reports", Frequency: "monthly"},
		},
	}
	g := Canonicalize(p)
	if len(g.Edges) != 2 {
		t.Errorf("canonical edges = %d, want 2", len(g.Edges))
	}
}
