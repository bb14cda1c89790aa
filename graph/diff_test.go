package graph

import (
	"reflect"
	"testing"
)

func TestCompare_SelfIsEmpty(t *testing.T) {
	m := Build(samplePayload())
	d := Compare(m, m)

	if !d.Empty() {
		t.Errorf("Compare(G, G) must be empty, got %+v", d)
	}
}

func TestCompare_Asymmetry(t *testing.T) {
	// An edge present only in the old graph must never surface in
	// ChangedEdges.
	oldM := NewModel()
	oldM.AddEdge(Edge{From: "E1", To: "E2", Label: "Submits"})
	oldM.AddEdge(Edge{From: "E1", To: "E3", Label: "Notifies"})

	newM := NewModel()
	newM.AddEdge(Edge{From: "E1", To: "E2", Label: "Submits"})

	d := Compare(oldM, newM)
	for _, p := range d.ChangedEdges {
		if p.From == "E1" && p.To == "E3" {
			t.Error("edge removed from new graph must not appear in ChangedEdges")
		}
	}
	if len(d.ChangedEdges) != 0 {
		t.Errorf("ChangedEdges = %v, want empty", d.ChangedEdges)
	}
	// The dropped endpoint is still visible as a removed node.
	if !reflect.DeepEqual(d.RemovedNodes, []string{"E3"}) {
		t.Errorf("RemovedNodes = %v, want [E3]", d.RemovedNodes)
	}
}

func TestCompare_LabelAndAnnotationChanges(t *testing.T) {
	tests := []struct {
		name    string
		oldEdge Edge
		newEdge Edge
		changed bool
	}{
		{
			name:    "identical",
			oldEdge: Edge{From: "A", To: "B", Label: "Reports", Title: "Verb: Reports"},
			newEdge: Edge{From: "A", To: "B", Label: "Reports", Title: "Verb: Reports"},
			changed: false,
		},
		{
			name:    "label differs",
			oldEdge: Edge{From: "A", To: "B", Label: "Reports", Title: "Verb: Reports"},
			newEdge: Edge{From: "A", To: "B", Label: "Files", Title: "Verb: Reports"},
			changed: true,
		},
		{
			name:    "annotation differs",
			oldEdge: Edge{From: "A", To: "B", Label: "Reports", Title: "Thresholds: > 5M"},
			newEdge: Edge{From: "A", To: "B", Label: "Reports", Title: "Thresholds: > 10M"},
			changed: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			oldM := NewModel()
			oldM.AddEdge(tt.oldEdge)
			newM := NewModel()
			newM.AddEdge(tt.newEdge)

			d := Compare(oldM, newM)
			if got := len(d.ChangedEdges) > 0; got != tt.changed {
				t.Errorf("changed = %v, want %v (%+v)", got, tt.changed, d.ChangedEdges)
			}
		})
	}
}

// TestCompare_RegulationCycle is the end-to-end scenario: a new regulation
// year adds two entities, changes one edge's threshold qualifier, and adds
// two new edges.
func TestCompare_RegulationCycle(t *testing.T) {
	oldP := &Payload{
		Entities: []Entity{
			{ID: "E1", Name: "XYZ Bank"}, {ID: "E2", Name: "OTC Report"},
			{ID: "E3", Name: "LME"}, {ID: "E4", Name: "Position File"},
			{ID: "E5", Name: "Validation Rule"}, {ID: "E6", Name: "UDG Channel"},
		},
		Relationships: []Relationship{
			{SubjectID: "E1", ObjectID: "E2", Verb: "Submits", Thresholds: "> 5 lots"},
			{SubjectID: "E2", ObjectID: "E3", Verb: "Delivered to"},
			{SubjectID: "E4", ObjectID: "E5", Verb: "Validated by"},
			{SubjectID: "E1", ObjectID: "E6", Verb: "Uploads via"},
		},
	}
	newP := &Payload{
		Entities: []Entity{
			{ID: "E1", Name: "XYZ Bank"}, {ID: "E2", Name: "OTC Report"},
			{ID: "E3", Name: "LME"}, {ID: "E4", Name: "Position File"},
			{ID: "E5", Name: "Validation Rule"}, {ID: "E6", Name: "UDG Channel"},
			{ID: "E7", Name: "Short Code Registry"}, {ID: "E8", Name: "Nil Report"},
		},
		Relationships: []Relationship{
			{SubjectID: "E1", ObjectID: "E2", Verb: "Submits", Thresholds: "no threshold"}, // qualifier changed
			{SubjectID: "E2", ObjectID: "E3", Verb: "Delivered to"},
			{SubjectID: "E4", ObjectID: "E5", Verb: "Validated by"},
			{SubjectID: "E1", ObjectID: "E6", Verb: "Uploads via"},
			{SubjectID: "E1", ObjectID: "E7", Verb: "Registers with"}, // new
			{SubjectID: "E1", ObjectID: "E8", Verb: "Files"},          // new
		},
	}

	d := Compare(Build(oldP), Build(newP))

	if !reflect.DeepEqual(d.AddedNodes, []string{"E7", "E8"}) {
		t.Errorf("AddedNodes = %v, want [E7 E8]", d.AddedNodes)
	}
	if len(d.RemovedNodes) != 0 {
		t.Errorf("RemovedNodes = %v, want empty", d.RemovedNodes)
	}

	want := map[NodePair]bool{
		{From: "E1", To: "E2"}: true, // threshold changed
		{From: "E1", To: "E7"}: true, // new edge
		{From: "E1", To: "E8"}: true, // new edge
	}
	got := make(map[NodePair]bool)
	for _, p := range d.ChangedEdges {
		got[p] = true
	}
	for p := range want {
		if !got[p] {
			t.Errorf("ChangedEdges missing %v (got %v)", p, d.ChangedEdges)
		}
	}
	if len(got) != len(want) {
		t.Errorf("ChangedEdges = %v, want exactly %v", d.ChangedEdges, want)
	}
}

func TestTupleDiff_IdenticalGraphs(t *testing.T) {
	g := Canonicalize(samplePayload())
	d := TupleDiff(g, g)

	if len(d.Added) != 0 || len(d.Removed) != 0 {
		t.Errorf("self diff: added=%v removed=%v, want empty", d.Added, d.Removed)
	}
	if len(d.Common) != len(g.Edges) {
		t.Errorf("common = %d, want full edge set %d", len(d.Common), len(g.Edges))
	}
}

func TestTupleDiff_QualifierChangeIsRemovePlusAdd(t *testing.T) {
	oldG := &CanonicalGraph{Edges: []CanonicalEdge{
		{Source: "E1", Target: "E2", Relation: "Submits", Frequency: "weekly"},
	}}
	newG := &CanonicalGraph{Edges: []CanonicalEdge{
		{Source: "E1", Target: "E2", Relation: "Submits", Frequency: "daily"},
	}}

	d := TupleDiff(oldG, newG)
	if len(d.Common) != 0 {
		t.Errorf("Common = %v, want empty", d.Common)
	}
	if len(d.Added) != 1 || d.Added[0].Frequency != "daily" {
		t.Errorf("Added = %v, want the new tuple", d.Added)
	}
	if len(d.Removed) != 1 || d.Removed[0].Frequency != "weekly" {
		t.Errorf("Removed = %v, want the old tuple", d.Removed)
	}
}

func TestTupleDiff_MultipleEdgesPerPair(t *testing.T) {
	// The tuple key distinguishes relationships between the same node pair
	// as long as any field differs.
	oldG := &CanonicalGraph{Edges: []CanonicalEdge{
		{Source: "A", Target: "B", Relation: "Reports", Frequency: "weekly"},
		{Source: "A", Target: "B", Relation: "Reports", Frequency: "monthly"},
	}}
	newG := &CanonicalGraph{Edges: []CanonicalEdge{
		{Source: "A", Target: "B", Relation: "Reports", Frequency: "weekly"},
	}}

	d := TupleDiff(oldG, newG)
	if len(d.Common) != 1 {
		t.Errorf("Common = %v, want the weekly tuple only", d.Common)
	}
	if len(d.Removed) != 1 || d.Removed[0].Frequency != "monthly" {
		t.Errorf("Removed = %v, want the monthly tuple", d.Removed)
	}
	if len(d.Added) != 0 {
		t.Errorf("Added = %v, want empty", d.Added)
	}
}

func TestTupleDiff_DeterministicOrder(t *testing.T) {
	oldG := &CanonicalGraph{}
	newG := &CanonicalGraph{Edges: []CanonicalEdge{
		{Source: "Z", Target: "A", Relation: "r"},
		{Source: "A", Target: "Z", Relation: "r"},
		{Source: "A", Target: "B", Relation: "r"},
	}}

	d := TupleDiff(oldG, newG)
	if d.Added[0].Source != "A" || d.Added[0].Target != "B" {
		t.Errorf("Added not sorted: %v", d.Added)
	}
	if d.Added[2].Source != "Z" {
		t.Errorf("Added not sorted: %v", d.Added)
	}
}
