// Package relation infers typed, confidence-scored relations between
// canonical entities using windowed keyword heuristics over the raw text,
// then synthesizes the mirror relation for every directed edge. There is no
// syntactic parsing here on purpose: the extractor is a set of documented,
// confidence-scored proximity rules, which keeps its behavior testable
// against literal scenarios.
package relation

import "github.com/bookgraph/bookgraph/entity"

// Type is the closed set of relation categories the extractor can emit.
type Type string

const (
	Residence   Type = "RESIDENCE"    // person lives in location
	HasResident Type = "HAS_RESIDENT" // inverse of Residence
	Family      Type = "FAMILY"
	Friendship  Type = "FRIENDSHIP"
	Work        Type = "WORK"
	Love        Type = "LOVE"
	Associated  Type = "ASSOCIATED" // low-confidence fallback pairing
)

// Mirror returns the type of the inverse edge. Residence pairs with
// HasResident; every other type is its own mirror. Total over Type.
func (t Type) Mirror() Type {
	switch t {
	case Residence:
		return HasResident
	case HasResident:
		return Residence
	default:
		return t
	}
}

// Symmetric reports whether the relation reads the same in both directions.
func (t Type) Symmetric() bool { return t.Mirror() == t }

// Candidate is a directed, typed, confidence-scored edge between two
// canonical entities, backed by a text excerpt. Immutable once created;
// (Source, Target, Type) is the uniqueness key.
type Candidate struct {
	Source     string      `json:"source"`
	Target     string      `json:"target"`
	Type       Type        `json:"type"`
	Confidence float64     `json:"confidence"` // heuristic reliability in [0,1], not a probability
	Context    string      `json:"context"`    // excerpt of at most 150 characters
	SourceKind entity.Kind `json:"source_kind"`
	TargetKind entity.Kind `json:"target_kind"`
	IsReverse  bool        `json:"is_reverse"` // true only for synthesized mirrors
}

type tripleKey struct {
	source, target string
	typ            Type
}

func (c Candidate) key() tripleKey { return tripleKey{c.Source, c.Target, c.Type} }

func (c Candidate) mirrorKey() tripleKey { return tripleKey{c.Target, c.Source, c.Type.Mirror()} }

// dedup removes candidates whose triple key was already seen, preserving
// input order.
func dedup(in []Candidate) []Candidate {
	seen := make(map[tripleKey]struct{}, len(in))
	out := make([]Candidate, 0, len(in))
	for _, c := range in {
		k := c.key()
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, c)
	}
	return out
}
