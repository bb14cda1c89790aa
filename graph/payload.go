// Package graph builds, projects, and diffs obligation relationship graphs
// extracted from regulation text.
package graph

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Entity is one node in the extraction payload.
type Entity struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// Relationship is one directed obligation edge in the extraction payload.
// The five qualifier keys are fixed strings produced by the extraction
// prompt and must match exactly, spacing included. Missing keys decode to
// the empty string.
type Relationship struct {
	SubjectID   string `json:"subject_id"`
	SubjectName string `json:"subject_name,omitempty"`
	Verb        string `json:"verb"`
	ObjectID    string `json:"object_id"`
	ObjectName  string `json:"object_name,omitempty"`
	Optionality string `json:"Optionality"`
	Condition   string `json:"Condition for Relationship to be Active"`
	Property    string `json:"Property of Object (part of condition)"`
	Thresholds  string `json:"Thresholds"`
	Frequency   string `json:"frequency"`
}

// Payload is the validated entity/relationship structure recovered from an
// LLM response. Missing lists decode to empty slices; referential
// integrity between relationships and entities is deliberately not
// enforced (see Model.AddEdge).
type Payload struct {
	Entities      []Entity       `json:"entities"`
	Relationships []Relationship `json:"relationships"`
}

// ParsePayload decodes raw JSON into a Payload.
func ParsePayload(data []byte) (*Payload, error) {
	var p Payload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decoding relationship payload: %w", err)
	}
	return &p, nil
}

// Annotation composes the edge tooltip text for a relationship: six fixed
// lines in fixed order, each qualifier rendered even when empty. This
// flattening is deliberate — downstream diffing compares the whole
// annotation, never individual qualifiers.
func (r Relationship) Annotation() string {
	lines := []string{
		"Verb: " + r.Verb,
		"Optionality: " + r.Optionality,
		"Condition: " + r.Condition,
		"Property: " + r.Property,
		"Thresholds: " + r.Thresholds,
		"Frequency: " + r.Frequency,
	}
	return strings.Join(lines, "\n")
}
