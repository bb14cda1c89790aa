// Package diagram serializes canonical obligation graphs into PlantUML
// component-diagram text, either as a single snapshot or as a colored diff
// between an old and a new snapshot.
package diagram

import (
	"errors"
	"strings"
	"unicode"
)

// ErrMissingIdentifier is returned when a node record lacks its id or an
// edge record lacks its source/target. This is the one condition where
// rendering fails instead of degrading: an unidentifiable element cannot
// be drawn.
var ErrMissingIdentifier = errors.New("diagram: element missing mandatory identifier")

// Shape is the PlantUML element used to draw a node.
type Shape int

const (
	// ShapeComponent is the generic fallback shape.
	ShapeComponent Shape = iota
	// ShapeActor draws people, parties, and roles.
	ShapeActor
	// ShapeNode draws systems, applications, and repositories.
	ShapeNode
)

// keyword indicates the PlantUML keyword for the shape.
func (s Shape) keyword() string {
	switch s {
	case ShapeActor:
		return "actor"
	case ShapeNode:
		return "node"
	default:
		return "component"
	}
}

var actorTypes = map[string]bool{
	"actor":  true,
	"party":  true,
	"role":   true,
	"person": true,
}

var systemTypes = map[string]bool{
	"system":           true,
	"application":      true,
	"repo":             true,
	"trade_repository": true,
}

// ShapeFor maps a node type string to its shape. The mapping is total:
// unrecognized and empty types fall through to ShapeComponent. Matching is
// case-insensitive on the whole string, not substring.
func ShapeFor(nodeType string) Shape {
	t := strings.ToLower(nodeType)
	switch {
	case actorTypes[t]:
		return ShapeActor
	case systemTypes[t]:
		return ShapeNode
	default:
		return ShapeComponent
	}
}

// SanitizeID maps an arbitrary string onto the PlantUML identifier
// alphabet. Letters, digits, underscore, and hyphen pass through;
// every other rune becomes a single underscore. The mapping is pure,
// deterministic, and idempotent. No collision detection is performed:
// two distinct ids that sanitize identically merge silently in the
// rendered diagram.
func SanitizeID(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
