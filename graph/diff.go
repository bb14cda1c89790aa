package graph

import "sort"

// NodePair identifies an ordered edge endpoint pair.
type NodePair struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Delta is the result of the pairwise comparison of two graph models.
type Delta struct {
	AddedNodes   []string   `json:"added_nodes"`
	RemovedNodes []string   `json:"removed_nodes"`
	ChangedEdges []NodePair `json:"changed_edges"`
}

// Empty reports whether the delta carries no changes.
func (d *Delta) Empty() bool {
	return len(d.AddedNodes) == 0 && len(d.RemovedNodes) == 0 && len(d.ChangedEdges) == 0
}

// Compare computes node-set differences and per-pair edge changes between
// two graph models.
//
// A pair (u, v) lands in ChangedEdges when the new graph has that edge and
// either the old graph does not, or it does with a different label or
// annotation. Edges present only in the old graph are deliberately NOT
// reported here — that asymmetry is part of the contract; removed
// relationships surface through TupleDiff instead. Comparison is exact
// string equality on label and the full annotation, so a change to any
// single qualifier is only ever detected as a whole-annotation difference.
//
// Outputs are sorted for determinism; membership is what the contract
// defines.
func Compare(oldM, newM *Model) *Delta {
	d := &Delta{}

	for _, n := range newM.Nodes() {
		if !oldM.HasNode(n.ID) {
			d.AddedNodes = append(d.AddedNodes, n.ID)
		}
	}
	for _, n := range oldM.Nodes() {
		if !newM.HasNode(n.ID) {
			d.RemovedNodes = append(d.RemovedNodes, n.ID)
		}
	}

	for k, newEdge := range newM.edges {
		oldEdge := oldM.Edge(k.from, k.to)
		if oldEdge == nil || oldEdge.Label != newEdge.Label || oldEdge.Title != newEdge.Title {
			d.ChangedEdges = append(d.ChangedEdges, NodePair{From: k.from, To: k.to})
		}
	}

	sort.Strings(d.AddedNodes)
	sort.Strings(d.RemovedNodes)
	sort.Slice(d.ChangedEdges, func(i, j int) bool {
		a, b := d.ChangedEdges[i], d.ChangedEdges[j]
		if a.From != b.From {
			return a.From < b.From
		}
		return a.To < b.To
	})

	return d
}

// EdgeDiff classifies canonical edges by tuple-set membership.
type EdgeDiff struct {
	Common  []CanonicalEdge `json:"common"`
	Added   []CanonicalEdge `json:"added"`
	Removed []CanonicalEdge `json:"removed"`
}

// edgeKey is the full relationship tuple. Two edges between the same node
// pair that differ in any qualifier are distinct members.
type edgeKey struct {
	source, target, relation, condition, optionality, frequency string
}

func keyOf(e CanonicalEdge) edgeKey {
	return edgeKey{e.Source, e.Target, e.Relation, e.Condition, e.Optionality, e.Frequency}
}

// TupleDiff classifies the edges of two canonical graphs by pure set
// membership on the full relationship tuple. There is no "changed" class:
// a relationship whose qualifiers changed appears as one Removed entry
// (the old tuple) plus one Added entry (the new tuple). Removed entries
// carry the old graph's edge records, so stale qualifier values render as
// the old side held them.
func TupleDiff(oldG, newG *CanonicalGraph) *EdgeDiff {
	oldSet := make(map[edgeKey]CanonicalEdge, len(oldG.Edges))
	for _, e := range oldG.Edges {
		oldSet[keyOf(e)] = e
	}
	newSet := make(map[edgeKey]CanonicalEdge, len(newG.Edges))
	for _, e := range newG.Edges {
		newSet[keyOf(e)] = e
	}

	d := &EdgeDiff{}
	for k, e := range newSet {
		if _, ok := oldSet[k]; ok {
			d.Common = append(d.Common, e)
		} else {
			d.Added = append(d.Added, e)
		}
	}
	for k, e := range oldSet {
		if _, ok := newSet[k]; !ok {
			d.Removed = append(d.Removed, e)
		}
	}

	sortEdges(d.Common)
	sortEdges(d.Added)
	sortEdges(d.Removed)
	return d
}

func sortEdges(edges []CanonicalEdge) {
	sort.Slice(edges, func(i, j int) bool {
		a, b := keyOf(edges[i]), keyOf(edges[j])
		switch {
		case a.source != b.source:
			return a.source < b.source
		case a.target != b.target:
			return a.target < b.target
		case a.relation != b.relation:
			return a.relation < b.relation
		case a.condition != b.condition:
			return a.condition < b.condition
		case a.optionality != b.optionality:
			return a.optionality < b.optionality
		default:
			return a.frequency < b.frequency
		}
	})
}
