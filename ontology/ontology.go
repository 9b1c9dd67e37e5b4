// Package ontology assembles the final entity/relation graph from normalized
// entities and synthesized relations, guaranteeing that every relation
// endpoint exists as an entity, and computes the per-entity and per-type
// statistics downstream consumers read.
package ontology

import (
	"github.com/bookgraph/bookgraph/entity"
	"github.com/bookgraph/bookgraph/relation"
)

// Entity is a node of the final graph with its relation counters.
// MentionCount is owned by the normalizer and copied here untouched;
// TotalRelations and RelationTypeCounts are computed by Build.
type Entity struct {
	Name               string                `json:"name"`
	Kind               entity.Kind           `json:"kind"`
	MentionCount       int                   `json:"mention_count"`
	TotalRelations     int                   `json:"total_relations"`
	RelationTypeCounts map[relation.Type]int `json:"relation_type_counts,omitempty"`
}

// Ontology is the terminal artifact of a pipeline run: entities keyed by
// canonical name, the ordered relation sequence, and the set of relation
// types observed. Downstream collaborators consume it read-only.
type Ontology struct {
	Entities  map[string]*Entity     `json:"entities"`
	Relations []relation.Candidate   `json:"relations"`
	Types     map[relation.Type]bool `json:"relation_types"`

	names []string // entity insertion order
}

// EntityNames returns entity names in insertion order, for deterministic
// iteration and reporting.
func (o *Ontology) EntityNames() []string { return o.names }

// Stats summarizes an ontology for reporting.
type Stats struct {
	TotalEntities  int                   `json:"total_entities"`
	TotalRelations int                   `json:"total_relations"`
	EntityKinds    map[entity.Kind]int   `json:"entity_kinds"`
	RelationTypes  map[relation.Type]int `json:"relation_types"`
}

// Build aggregates normalized entities and synthesized relations into an
// ontology. Relation endpoints that never appeared as mentions are created
// lazily with zero mention count, using the relation's recorded endpoint
// kind when available. Building twice from the same inputs yields an
// identical ontology.
func Build(entities *entity.Collection, relations []relation.Candidate) *Ontology {
	o := &Ontology{
		Entities: make(map[string]*Entity),
		Types:    make(map[relation.Type]bool),
	}

	for _, kind := range []entity.Kind{entity.Person, entity.Location, entity.Organization} {
		for _, e := range entities.OfKind(kind) {
			o.add(e.Name, e.Kind, e.MentionCount)
		}
	}

	for _, r := range relations {
		o.ensure(r.Source, r.SourceKind)
		o.ensure(r.Target, r.TargetKind)
		o.Relations = append(o.Relations, r)
		o.Types[r.Type] = true
	}

	o.countRelations()
	return o
}

func (o *Ontology) add(name string, kind entity.Kind, mentions int) {
	if e, ok := o.Entities[name]; ok {
		e.MentionCount += mentions
		return
	}
	o.Entities[name] = &Entity{Name: name, Kind: kind, MentionCount: mentions}
	o.names = append(o.names, name)
}

// ensure creates a lazy endpoint entity when a relation references a name
// the normalizer never produced.
func (o *Ontology) ensure(name string, kind entity.Kind) {
	if _, ok := o.Entities[name]; ok {
		return
	}
	if kind == "" {
		kind = entity.Unknown
	}
	o.Entities[name] = &Entity{Name: name, Kind: kind}
	o.names = append(o.names, name)
}

// countRelations fills TotalRelations and RelationTypeCounts. Two passes:
// collect into local accumulators over one relation-list iteration, then
// write back, so no entity mutates while relations are being read. Each
// relation counts once toward its source and once toward its target.
func (o *Ontology) countRelations() {
	totals := make(map[string]int)
	perType := make(map[string]map[relation.Type]int)
	bump := func(name string, t relation.Type) {
		totals[name]++
		m, ok := perType[name]
		if !ok {
			m = make(map[relation.Type]int)
			perType[name] = m
		}
		m[t]++
	}
	for _, r := range o.Relations {
		bump(r.Source, r.Type)
		bump(r.Target, r.Type)
	}
	for name, e := range o.Entities {
		e.TotalRelations = totals[name]
		e.RelationTypeCounts = perType[name]
	}
}

// Stats computes summary statistics. Per-kind counts cover the three
// recognized kinds; lazily created UNKNOWN entities show up only in the
// entity total.
func (o *Ontology) Stats() Stats {
	s := Stats{
		TotalEntities:  len(o.Entities),
		TotalRelations: len(o.Relations),
		EntityKinds: map[entity.Kind]int{
			entity.Person:       0,
			entity.Location:     0,
			entity.Organization: 0,
		},
		RelationTypes: make(map[relation.Type]int),
	}
	for _, e := range o.Entities {
		if _, tracked := s.EntityKinds[e.Kind]; tracked {
			s.EntityKinds[e.Kind]++
		}
	}
	for _, r := range o.Relations {
		s.RelationTypes[r.Type]++
	}
	return s
}
